package email

import (
	"context"
	"fmt"

	gomail "gopkg.in/gomail.v2"

	"github.com/jwalitptl/opd-scheduler/internal/config"
	"github.com/jwalitptl/opd-scheduler/pkg/logger"
)

type Service interface {
	SendClosureAlert(ctx context.Context, dateISO, reason string) error
	SendCustom(ctx context.Context, to, subject, content string) error
}

type service struct {
	cfg config.SMTPConfig
	log *logger.Logger
}

func NewService(cfg config.SMTPConfig, log *logger.Logger) Service {
	return &service{cfg: cfg, log: log}
}

// SendClosureAlert mails the configured admin list when a closure day is
// recorded. A missing SMTP host disables sending silently.
func (s *service) SendClosureAlert(ctx context.Context, dateISO, reason string) error {
	if s.cfg.Host == "" || len(s.cfg.AlertTo) == 0 {
		return nil
	}
	subject := fmt.Sprintf("OPD closure recorded for %s", dateISO)
	body := fmt.Sprintf("A closure was recorded for %s.\n\nReason:\n%s\n", dateISO, reason)

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", s.cfg.AlertTo...)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", body)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send closure alert: %w", err)
	}
	s.log.Info("closure alert sent", "date", dateISO, "recipients", len(s.cfg.AlertTo))
	return nil
}

func (s *service) SendCustom(ctx context.Context, to, subject, content string) error {
	if s.cfg.Host == "" {
		return nil
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	d := gomail.NewDialer(s.cfg.Host, s.cfg.Port, s.cfg.Username, s.cfg.Password)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
