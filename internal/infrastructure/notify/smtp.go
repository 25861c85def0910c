package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"

	"github.com/hourbank/timebank/internal/core/domain"
)

const (
	DefaultFrom = "Hour-Bank <admin@hour-bank.com>"

	defaultSMTPPort    = 587
	defaultSMTPTimeout = 15 * time.Second
)

// SMTPConfig holds the outgoing mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// Timeout bounds dialing and every SMTP command. Defaults to 15s.
	Timeout time.Duration
}

// SMTPNotifier delivers notifications as plain-text email.
type SMTPNotifier struct {
	cfg  SMTPConfig
	send func(ctx context.Context, m *mail.Msg) error
	now  func() time.Time
}

func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	if cfg.Port == 0 {
		cfg.Port = defaultSMTPPort
	}
	if cfg.From == "" {
		cfg.From = DefaultFrom
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultSMTPTimeout
	}
	s := &SMTPNotifier{cfg: cfg, now: time.Now}
	s.send = s.dialAndSend
	return s
}

// Notify sends n and returns once the server accepted it, the timeout hit or
// ctx is done.
func (s *SMTPNotifier) Notify(ctx context.Context, n domain.Notification) error {
	m, err := s.buildMessage(n)
	if err != nil {
		return err
	}
	if err := s.send(ctx, m); err != nil {
		return fmt.Errorf("smtp: send to %s: %w", n.To, err)
	}
	return nil
}

func (s *SMTPNotifier) buildMessage(n domain.Notification) (*mail.Msg, error) {
	m := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := m.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("smtp: sender address: %w", err)
	}
	if err := m.To(n.To); err != nil {
		return nil, fmt.Errorf("smtp: recipient address: %w", err)
	}

	id := n.ID
	if id == "" {
		id = uuid.NewString()
	}
	host := "hour-bank.local"
	if from, err := m.GetSender(false); err == nil {
		if at := strings.LastIndex(from, "@"); at >= 0 {
			host = from[at+1:]
		}
	}

	m.Subject(n.Subject)
	m.SetDateWithValue(s.now())
	m.SetMessageIDWithValue(id + "@" + host)
	m.SetBodyString(mail.TypeTextPlain, n.Body)
	return m, nil
}

func (s *SMTPNotifier) client() (*mail.Client, error) {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(s.cfg.Timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return mail.NewClient(s.cfg.Host, opts...)
}

func (s *SMTPNotifier) dialAndSend(ctx context.Context, m *mail.Msg) error {
	c, err := s.client()
	if err != nil {
		return err
	}
	return c.DialAndSendWithContext(ctx, m)
}
