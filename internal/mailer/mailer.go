package mailer

import (
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"srisai/internal/model"
)

type Config struct {
	Host     string
	Port     int
	From     string
	Password string
	AdminTo  string
}

// Enabled reports whether enough is configured to send mail.
func (c Config) Enabled() bool {
	return c.Host != "" && c.From != "" && c.AdminTo != ""
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Mailer struct {
	cfg  Config
	log  *zerolog.Logger
	send sendFunc
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail}
}

// SendBookingEmail tells the admin inbox about a new booking.
func (m *Mailer) SendBookingEmail(b model.Booking) error {
	if !m.cfg.Enabled() {
		m.log.Debug().Str("booking_id", b.ID).Msg("mailer not configured, skipping booking email")
		return nil
	}

	msg := BuildBookingMessage(m.cfg.From, m.cfg.AdminTo, b)
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Password != "" {
		auth = smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)
	}

	if err := m.send(addr, auth, m.cfg.From, []string{m.cfg.AdminTo}, msg); err != nil {
		m.log.Warn().Err(err).Str("booking_id", b.ID).Msg("failed to send booking email")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("booking_id", b.ID).Str("to", m.cfg.AdminTo).Msg("booking email sent")
	return nil
}

func BuildBookingMessage(from, to string, b model.Booking) []byte {
	subject := fmt.Sprintf("New booking: %s on %s", oneLine(b.Name), oneLine(b.Date))

	var body strings.Builder
	body.WriteString("A new booking request was submitted.\n\n")
	for i, col := range model.Columns {
		fmt.Fprintf(&body, "%s: %s\n", col, b.Values()[i])
	}

	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		from, to, subject, body.String(),
	))
}

// oneLine keeps user input from injecting extra headers.
func oneLine(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
