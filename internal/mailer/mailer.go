package mailer

import (
	"fmt"
	"net/smtp"

	"github.com/rs/zerolog"
)

type Config struct {
	Host string
	Port string
	From string
	Pass string
}

type Mailer struct {
	cfg Config
	log *zerolog.Logger
}

type Sender interface {
	SendRegistrationReceived(recipient, registrationType string, totalAmount int64) error
	SendPaymentConfirmed(recipient, ticketNumber string, amount int64) error
	SendAttemptExpired(recipient, reference string) error
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: log}
}

func (m *Mailer) SendRegistrationReceived(recipient, registrationType string, totalAmount int64) error {
	subject := "STIConf 2026 — registration received"
	body := fmt.Sprintf(
		"Hello!\n\nWe received your %s registration for STIConf 2026.\n"+
			"Total due: NGN %d.\n\nComplete payment from your dashboard to secure your ticket.",
		registrationType, totalAmount,
	)
	return m.send(recipient, subject, body)
}

func (m *Mailer) SendPaymentConfirmed(recipient, ticketNumber string, amount int64) error {
	subject := "STIConf 2026 — payment confirmed"
	body := fmt.Sprintf(
		"Hello!\n\nYour payment of NGN %d has been confirmed.\n"+
			"Your ticket number is %s. It is available in your dashboard.\n\nSee you at the conference!",
		amount, ticketNumber,
	)
	return m.send(recipient, subject, body)
}

func (m *Mailer) SendAttemptExpired(recipient, reference string) error {
	subject := "STIConf 2026 — payment attempt expired"
	body := fmt.Sprintf(
		"Hello!\n\nYour payment attempt (%s) was not completed in time and has expired.\n"+
			"Your registration is still reserved — start a new payment from your dashboard whenever you are ready.",
		reference,
	)
	return m.send(recipient, subject, body)
}

func (m *Mailer) send(recipient, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, recipient, subject, body,
	)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Pass, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{recipient}, []byte(msg)); err != nil {
		m.log.Warn().Msgf("failed to send email to %s: %v", recipient, err)
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Msgf("Email sent to %s (%s)", recipient, subject)
	return nil
}
