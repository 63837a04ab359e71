// Package notify emails finished reports to the user who requested them.
package notify

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"aycf/internal/config"
	"aycf/internal/logging"
	"aycf/internal/model"
)

const (
	OneWaySubject    = "AYCF Flight Report! 🚀"
	RoundTripSubject = "Round Trip: Wizz Air Flights Report!"
)

const bodyTemplate = `Hey there, Captain ✈️

Your personalized WizzAYCF flight report is ready:
%s

We checked, sorted and joined the All You Can Fly seats so you don't have to.
%s
Now it's your turn to take off 🚀
Happy travels!
`

var ErrNoRecipient = errors.New("notify: recipient is required")

// Message is a report notification.
type Message struct {
	To          string
	TripType    model.TripType
	ReportURL   string
	ResultCount int
}

// Subject depends on the trip type.
func (m Message) Subject() string {
	if m.TripType == model.TripRoundTrip {
		return RoundTripSubject
	}
	return OneWaySubject
}

// Body is the plain text mail body.
func (m Message) Body() string {
	count := fmt.Sprintf("It lists %d itineraries.\n", m.ResultCount)
	if m.ResultCount == 0 {
		count = "No bookable itineraries turned up this time.\n"
	}
	return fmt.Sprintf(bodyTemplate, m.ReportURL, count)
}

type sendFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends messages over SMTP, upgrading to STARTTLS when the server
// offers it.
type Mailer struct {
	cfg    config.SMTPConfig
	send   sendFunc
	now    func() time.Time
	logger zerolog.Logger
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	m := &Mailer{
		cfg:    cfg,
		now:    time.Now,
		logger: logging.WithComponent("notify"),
	}
	m.send = m.sendMail
	return m
}

// Enabled reports whether an SMTP host is configured.
func (m *Mailer) Enabled() bool { return m.cfg.Host != "" }

// Send delivers msg. With no SMTP host configured it logs and returns nil.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	if !m.Enabled() {
		m.logger.Info().Str("to", msg.To).Str("report_url", msg.ReportURL).Msg("smtp disabled, skipping email")
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	from := m.cfg.From
	if from == "" {
		from = m.cfg.Username
	}
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	if err := m.send(ctx, addr, auth, from, []string{msg.To}, m.compose(from, msg)); err != nil {
		return fmt.Errorf("send report mail to %s: %w", msg.To, err)
	}
	m.logger.Info().Str("to", msg.To).Str("subject", msg.Subject()).Msg("report mail sent")
	return nil
}

// sendMail runs the SMTP exchange on a connection bound to ctx and the
// configured timeout.
func (m *Mailer) sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.Timeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		_ = conn.Close()
		return err
	}
	// cancellation unblocks a pending read or write
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	err = exchange(conn, addr, a, from, to, msg)
	if err != nil && (ctx.Err() != nil || errors.Is(err, os.ErrDeadlineExceeded)) {
		cause := ctx.Err()
		if cause == nil {
			cause = context.DeadlineExceeded
		}
		return fmt.Errorf("%w: %v", cause, err)
	}
	return err
}

func exchange(conn net.Conn, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		_ = conn.Close()
		return err
	}
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp: server does not support AUTH")
		}
		if err := c.Auth(a); err != nil {
			return err
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

func (m *Mailer) compose(from string, msg Message) []byte {
	var b bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&b, "%s: %s\r\n", k, v) }
	header("From", from)
	header("To", msg.To)
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject()))
	header("Date", m.now().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")
	header("Content-Type", "text/plain; charset=utf-8")
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body(), "\n", "\r\n"))
	return b.Bytes()
}
