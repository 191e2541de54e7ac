// Package email sends transactional customer notifications. Sends are
// best-effort: callers commit state first and surface send failures as
// metadata, never as rollbacks.
package email

import (
	"context"
	"fmt"
)

type Provider interface {
	SendEmail(ctx context.Context, email *Email) error
}

type Email struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

type Config struct {
	Provider string
	APIKey   string
	From     string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "resend":
		return NewResendProvider(cfg.APIKey, cfg.From), nil
	case "log", "":
		return NewLogProvider(nil), nil
	default:
		return nil, fmt.Errorf("EMAIL_PROVIDER must be either 'resend' or 'log'")
	}
}
