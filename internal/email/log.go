package email

import (
	"context"
	"io"
	"log/slog"
)

// LogProvider logs emails instead of sending them. Used in development and as
// the default when no provider is configured.
type LogProvider struct {
	logger *slog.Logger
}

func NewLogProvider(logger *slog.Logger) *LogProvider {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogProvider{logger: logger}
}

func (l *LogProvider) SendEmail(ctx context.Context, email *Email) error {
	if email == nil {
		return nil
	}
	l.logger.InfoContext(ctx, "email suppressed (log provider)",
		"to", email.To,
		"subject", email.Subject,
	)
	return nil
}
