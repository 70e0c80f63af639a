// File: internal/infra/mail/log_notifier.go
package mail

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"hmk-docs-backend/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*LogNotifier)(nil)

// LogNotifier is the notifier used when no Postmark tokens are configured,
// typically local development. It only writes log lines.
type LogNotifier struct {
	log *zerolog.Logger
}

func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	mailLog := logger.With().Str("component", "LogNotifier").Logger()
	return &LogNotifier{log: &mailLog}
}

func (n *LogNotifier) Welcome(ctx context.Context, email string) error {
	n.log.Info().Str("to", email).Msg("welcome mail (not sent, mail disabled)")
	return nil
}

func (n *LogNotifier) PaymentCreated(ctx context.Context, email, confirmationURL string) error {
	n.log.Info().Str("to", email).Str("confirmation_url", confirmationURL).Msg("payment created mail (not sent, mail disabled)")
	return nil
}

func (n *LogNotifier) PaymentSucceeded(ctx context.Context, email string, accessUntil time.Time) error {
	n.log.Info().Str("to", email).Time("access_until", accessUntil).Msg("payment succeeded mail (not sent, mail disabled)")
	return nil
}

func (n *LogNotifier) PaymentCanceled(ctx context.Context, email string) error {
	n.log.Info().Str("to", email).Msg("payment canceled mail (not sent, mail disabled)")
	return nil
}
