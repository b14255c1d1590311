package notifier

import (
	"context"
	"fmt"
	"html"

	vo "github.com/mateatletas/tutorbilling/internal/domain/subscription/valueobjects"
)

// Mailer sends one message to a fixed list of recipients.
type Mailer interface {
	Send(to []string, subject, htmlBody, plainBody string) error
}

// EmailSink alerts operators when a subscription loses service access for good or
// becomes delinquent. Other transitions are skipped.
type EmailSink struct {
	mailer     Mailer
	recipients []string
}

func NewEmailSink(mailer Mailer, recipients []string) *EmailSink {
	return &EmailSink{mailer: mailer, recipients: recipients}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Send(ctx context.Context, n Notification) error {
	if n.Next != vo.StatusDelinquent && n.Next != vo.StatusCancelled {
		return ErrSkipped
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject := fmt.Sprintf("Subscription %d is now %s", n.SubscriptionID, n.Next)
	from := "none"
	if n.Previous != "" {
		from = n.Previous.String()
	}
	when := n.OccurredAt.Format("2006-01-02 15:04:05 MST")

	plain := fmt.Sprintf("Subscription %d moved from %s to %s at %s.\nReason: %s\n",
		n.SubscriptionID, from, n.Next, when, n.Reason)
	body := fmt.Sprintf("<p>Subscription <strong>%d</strong> moved from <code>%s</code> to <code>%s</code> at %s.</p><p>Reason: %s</p>",
		n.SubscriptionID, from, n.Next, when, html.EscapeString(n.Reason))

	return s.mailer.Send(s.recipients, subject, body, plain)
}
