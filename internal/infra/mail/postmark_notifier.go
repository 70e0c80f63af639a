// File: internal/infra/mail/postmark_notifier.go
package mail

import (
	"context"
	"fmt"
	"time"

	"github.com/mrz1836/postmark"
	"github.com/rs/zerolog"

	"hmk-docs-backend/internal/domain/ports/adapter"
)

var _ adapter.Notifier = (*PostmarkNotifier)(nil)

// PostmarkNotifier sends transactional mail through Postmark. Every send is
// best-effort from the caller's point of view: callers log and move on, a
// mail failure never fails the business operation it trails.
type PostmarkNotifier struct {
	client *postmark.Client
	sender string
	log    *zerolog.Logger
}

func NewPostmarkNotifier(serverToken, accountToken, sender string, logger *zerolog.Logger) *PostmarkNotifier {
	mailLog := logger.With().Str("component", "PostmarkNotifier").Logger()
	return &PostmarkNotifier{
		client: postmark.NewClient(serverToken, accountToken),
		sender: sender,
		log:    &mailLog,
	}
}

func (n *PostmarkNotifier) send(ctx context.Context, to, subject, tag, htmlBody string) error {
	resp, err := n.client.SendEmail(ctx, postmark.Email{
		From:       n.sender,
		To:         to,
		Subject:    subject,
		Tag:        tag,
		HTMLBody:   htmlBody,
		TrackOpens: true,
		TrackLinks: "HtmlOnly",
	})
	if err != nil {
		return fmt.Errorf("postmark send: %w", err)
	}
	if resp.ErrorCode > 0 {
		return fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message)
	}
	n.log.Debug().Str("to", to).Str("tag", tag).Msg("mail sent")
	return nil
}

func (n *PostmarkNotifier) Welcome(ctx context.Context, email string) error {
	return n.send(ctx, email,
		"Добро пожаловать!",
		"welcome",
		"<p>Ваш аккаунт создан. Оформите подписку, чтобы получить доступ к документам.</p>")
}

func (n *PostmarkNotifier) PaymentCreated(ctx context.Context, email, confirmationURL string) error {
	return n.send(ctx, email,
		"Платёж создан",
		"payment-created",
		fmt.Sprintf(`<p>Для завершения оплаты перейдите по ссылке: <a href="%s">оплатить</a>.</p>`, confirmationURL))
}

func (n *PostmarkNotifier) PaymentSucceeded(ctx context.Context, email string, accessUntil time.Time) error {
	return n.send(ctx, email,
		"Оплата прошла успешно",
		"payment-succeeded",
		fmt.Sprintf("<p>Подписка активна до %s.</p>", accessUntil.Format("02.01.2006 15:04 MST")))
}

func (n *PostmarkNotifier) PaymentCanceled(ctx context.Context, email string) error {
	return n.send(ctx, email,
		"Платёж отменён",
		"payment-canceled",
		"<p>Платёж не прошёл. Попробуйте оформить подписку ещё раз.</p>")
}
