package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"aycf/internal/config"
	"aycf/internal/routes"
)

// routeFlags binds the route network paths, defaulting to the environment.
func routeFlags(cmd *cobra.Command, cfg *config.RoutesConfig) {
	cmd.PersistentFlags().StringVar(&cfg.SnapshotPath, "snapshot", cfg.SnapshotPath, "route snapshot (YAML)")
	cmd.PersistentFlags().StringVar(&cfg.CatalogPath, "catalog", cfg.CatalogPath, "airport catalog (CSV)")
	cmd.PersistentFlags().StringVar(&cfg.AliasesPath, "aliases", cfg.AliasesPath, "airport name special cases (YAML)")
	cmd.PersistentFlags().StringVar(&cfg.KnownRoutesPath, "known-routes", cfg.KnownRoutesPath, "known IATA routes filter (YAML)")
}

func loadNetwork(cfg config.RoutesConfig) (*routes.Graph, error) {
	m := routes.NewManager(cfg)
	if err := m.Reload(); err != nil {
		return nil, fmt.Errorf("load route network: %w", err)
	}
	return m.Current(), nil
}

// InitRouteCommands registers the route network commands.
func InitRouteCommands(rootCmd *cobra.Command, cfg config.RoutesConfig) {
	airportsCmd := &cobra.Command{
		Use:   "airports [CODE]",
		Short: "List the airports of the route network, or the destinations of CODE",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := loadNetwork(cfg)
			if err != nil {
				return err
			}
			codes := g.Airports()
			if len(args) == 1 {
				code := strings.ToUpper(args[0])
				if !g.HasAirport(code) {
					return fmt.Errorf("unknown airport %s", code)
				}
				codes = g.Destinations(code)
			}
			for _, c := range codes {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		},
	}
	routeFlags(airportsCmd, &cfg)

	routesCmd := &cobra.Command{
		Use:   "routes",
		Short: "Route snapshot maintenance",
	}
	routeFlags(routesCmd, &cfg)

	importCmd := &cobra.Command{
		Use:   "import TABLE.csv",
		Short: "Replace the route snapshot with an extracted availability table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(filepath.Clean(args[0]))
			if err != nil {
				return err
			}
			defer f.Close()

			s, err := routes.ImportTable(f, time.Now())
			if err != nil {
				return err
			}
			if check, _ := cmd.Flags().GetBool("check"); check {
				catalog, err := routes.LoadCatalogFile(cfg.CatalogPath)
				if err != nil {
					return err
				}
				aliases, err := routes.LoadAliases(cfg.AliasesPath)
				if err != nil {
					return err
				}
				if _, err := routes.Build(s, catalog.WithAliases(aliases), nil); err != nil {
					return err
				}
			}
			if err := routes.SaveSnapshot(cfg.SnapshotPath, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d departure cities into %s\n", len(s.Connections), cfg.SnapshotPath)
			return nil
		},
	}
	importCmd.Flags().Bool("check", true, "resolve every city against the catalog before saving")

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show when the snapshot was parsed and whether a refresh is due",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := routes.LoadSnapshot(cfg.SnapshotPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if s.LastParsed.IsZero() {
				fmt.Fprintln(out, "last parsed: never")
			} else {
				fmt.Fprintf(out, "last parsed: %s\n", s.LastParsed.UTC().Format(time.RFC3339))
			}
			fmt.Fprintf(out, "departure cities: %d\n", len(s.Connections))
			fmt.Fprintf(out, "refresh due: %t\n", routes.NeedsRefresh(s.LastParsed, time.Now()))
			return nil
		},
	}

	routesCmd.AddCommand(importCmd, statusCmd)
	rootCmd.AddCommand(airportsCmd, routesCmd)
}
