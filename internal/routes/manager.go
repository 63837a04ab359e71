package routes

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"aycf/internal/config"
	"aycf/internal/logging"
)

// Manager owns the current route network and swaps it when the snapshot changes.
type Manager struct {
	cfg    config.RoutesConfig
	logger zerolog.Logger

	mu      sync.RWMutex
	current *Graph
}

// NewManager returns a manager serving an empty network until Reload succeeds.
func NewManager(cfg config.RoutesConfig) *Manager {
	return &Manager{
		cfg:     cfg,
		logger:  logging.WithComponent("routes"),
		current: Empty(),
	}
}

// NewStaticManager serves a fixed network. Reload and Watch are no-ops.
func NewStaticManager(g *Graph) *Manager {
	return &Manager{logger: logging.WithComponent("routes"), current: g}
}

// Current returns the network in use.
func (m *Manager) Current() *Graph {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Set replaces the network in use.
func (m *Manager) Set(g *Graph) {
	m.mu.Lock()
	m.current = g
	m.mu.Unlock()
}

// Reload rebuilds the network from the configured files. On error the
// previous network stays in place.
func (m *Manager) Reload() error {
	if m.cfg.SnapshotPath == "" {
		return nil
	}
	snapshot, err := LoadSnapshot(m.cfg.SnapshotPath)
	if err != nil {
		return err
	}
	catalog, err := LoadCatalogFile(m.cfg.CatalogPath)
	if err != nil {
		return err
	}
	aliases, err := LoadAliases(m.cfg.AliasesPath)
	if err != nil {
		return err
	}
	known, err := LoadKnownRoutes(m.cfg.KnownRoutesPath)
	if err != nil {
		return err
	}
	g, err := Build(snapshot, catalog.WithAliases(aliases), known)
	if err != nil {
		return fmt.Errorf("build route network: %w", err)
	}
	m.Set(g)
	m.logger.Info().
		Str("event", "routes.reloaded").
		Int("airports", len(g.Airports())).
		Int("departures", len(g.Departures())).
		Time("last_parsed", snapshot.LastParsed).
		Msg("route network loaded")
	return nil
}

func (m *Manager) watch(dir string) (*fsnotify.Watcher, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return watcher, nil
}

// Stale reports whether the current snapshot predates the latest publication.
func (m *Manager) Stale(now time.Time) bool {
	return NeedsRefresh(m.Current().Snapshot().LastParsed, now)
}

// Watch reloads the network whenever the snapshot file is written. It
// watches the parent directory so atomic replacements are seen, creating
// it when missing. Watch blocks until ctx is done; when the directory
// cannot be watched it logs the error and keeps serving the current network.
func (m *Manager) Watch(ctx context.Context) error {
	if m.cfg.SnapshotPath == "" {
		<-ctx.Done()
		return nil
	}
	dir := filepath.Dir(m.cfg.SnapshotPath)
	watcher, err := m.watch(dir)
	if err != nil {
		m.logger.Error().Err(err).Str("event", "routes.watch_failed").Str("dir", dir).
			Msg("route snapshot not watched, changes need a restart")
		<-ctx.Done()
		return nil
	}
	defer watcher.Close()
	target := filepath.Clean(m.cfg.SnapshotPath)

	var debounce *time.Timer
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(500*time.Millisecond, func() {
				if err := m.Reload(); err != nil {
					m.logger.Error().Err(err).Str("event", "routes.reload_failed").Msg("route network reload failed")
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.logger.Error().Err(err).Str("event", "routes.watcher_error").Msg("route watcher error")
		}
	}
}
