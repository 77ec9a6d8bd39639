// Package mail delivers verification codes and password reset mail over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"talks/internal/domain"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	CodeTTL  time.Duration
	ResetTTL time.Duration
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Mailer struct {
	cfg  Config
	send sendFunc
}

func NewSMTPMailer(cfg Config) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

func (m *Mailer) SendCode(ctx context.Context, to string, kind domain.ChallengeKind, code string) error {
	subject, title, intro := "Your login code", "Two-factor verification", "Use this code to finish signing in:"
	if kind == domain.ChallengeSignupConfirm {
		subject, title, intro = "Confirm your email", "Welcome!", "Use this code to confirm your email address:"
	}
	return m.deliver(ctx, to, subject, "code", map[string]any{
		"Title": title,
		"Intro": intro,
		"Code":  code,
		"TTL":   humanDuration(m.cfg.CodeTTL),
	})
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, name, link string) error {
	return m.deliver(ctx, to, "Reset your password", "reset", map[string]any{
		"Name": name,
		"Link": link,
		"TTL":  humanDuration(m.cfg.ResetTTL),
	})
}

func (m *Mailer) SendPasswordChanged(ctx context.Context, to, name string) error {
	return m.deliver(ctx, to, "Your password was changed", "changed", map[string]any{"Name": name})
}

func (m *Mailer) deliver(ctx context.Context, to, subject, tmpl string, data any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.render(to, subject, tmpl, data)
	if err != nil {
		return err
	}

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	slog.Debug("mail sent", "template", tmpl, "to", to)
	return nil
}

func (m *Mailer) render(to, subject, tmpl string, data any) ([]byte, error) {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", tmpl, err)
	}

	var msg bytes.Buffer
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&msg, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n\r\n")
	msg.WriteString(strings.ReplaceAll(body.String(), "\n", "\r\n"))
	return msg.Bytes(), nil
}

func humanDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "a short while"
	case d%time.Hour == 0 && d >= time.Hour:
		h := int(d / time.Hour)
		if h == 1 {
			return "1 hour"
		}
		return strconv.Itoa(h) + " hours"
	default:
		mins := int(d.Round(time.Minute) / time.Minute)
		if mins <= 1 {
			return "1 minute"
		}
		return strconv.Itoa(mins) + " minutes"
	}
}

// LogMailer stands in for SMTP in development; it logs instead of sending.
type LogMailer struct{}

func (LogMailer) SendCode(_ context.Context, to string, kind domain.ChallengeKind, code string) error {
	slog.Info("mail suppressed", "kind", kind, "to", to, "code", code)
	return nil
}

func (LogMailer) SendPasswordReset(_ context.Context, to, _, link string) error {
	slog.Info("mail suppressed", "kind", "password_reset", "to", to, "link", link)
	return nil
}

func (LogMailer) SendPasswordChanged(_ context.Context, to, _ string) error {
	slog.Info("mail suppressed", "kind", "password_changed", "to", to)
	return nil
}
