package reminders

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"

	"github.com/FACorreiaa/expense-tracker/internal/domain/user"
	"github.com/FACorreiaa/expense-tracker/pkg/money"
)

// Message is a rendered email.
type Message struct {
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ResendSender delivers through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

func (s *ResendSender) Send(ctx context.Context, msg Message) error {
	_, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	return nil
}

// LogSender only logs. Used when no API key is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(ctx context.Context, msg Message) error {
	s.Logger.InfoContext(ctx, "email delivery disabled, reminder not sent",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
	)
	return nil
}

// NewSender picks the Resend sender when apiKey is set.
func NewSender(apiKey, from string, logger *slog.Logger) Sender {
	if apiKey == "" {
		return LogSender{Logger: logger}
	}
	return NewResendSender(apiKey, from)
}

// Digest renders the reminder for one owner.
func Digest(u *user.User, charges []Charge, currency string) Message {
	name := u.Name
	if name == "" {
		name = u.Username
	}

	subject := "Upcoming recurring expense"
	if len(charges) > 1 {
		subject = fmt.Sprintf("%d upcoming recurring expenses", len(charges))
	}

	var text, rows strings.Builder
	fmt.Fprintf(&text, "Hi %s,\n\nThese recurring expenses are due soon:\n\n", name)
	for _, c := range charges {
		amount := money.Format(c.Recurring.Amount, currency)
		due := c.DueOn.Format(time.DateOnly)
		fmt.Fprintf(&text, "- %s: %s on %s\n", c.Recurring.Description, amount, due)
		fmt.Fprintf(&rows, "<tr><td>%s</td><td>%s</td><td>%s</td></tr>",
			html.EscapeString(c.Recurring.Description), html.EscapeString(amount), due)
	}

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <p>Hi %s,</p>
  <p>These recurring expenses are due soon:</p>
  <table cellpadding="6">
    <tr><th align="left">Expense</th><th align="left">Amount</th><th align="left">Due</th></tr>
    %s
  </table>
</body>
</html>
`, html.EscapeString(name), rows.String())

	return Message{To: u.Email, Subject: subject, HTML: body, Text: text.String()}
}
