package notify

import (
	"context"
	"fmt"
	"strings"

	"equiprent-backend/internal/config"
	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

const defaultSendGridHost = "https://api.sendgrid.com"

// Notifier delivers overdue reminders to clients.
type Notifier interface {
	SendOverdueReminder(ctx context.Context, r domain.OverdueReminder) error
}

// New returns a SendGrid notifier when an API key is configured and a
// log-only notifier otherwise.
func New(cfg config.EmailConfig) Notifier {
	if cfg.SendGridAPIKey == "" {
		logger.Warn("SendGrid API key not set, overdue reminders will only be logged")
		return LogNotifier{}
	}
	return NewSendGridNotifier(cfg.SendGridAPIKey, cfg.FromAddress, cfg.FromName, "")
}

type SendGridNotifier struct {
	request   rest.Request
	fromEmail string
	fromName  string
}

// NewSendGridNotifier builds a notifier; an empty host means the public SendGrid API.
func NewSendGridNotifier(apiKey, fromEmail, fromName, host string) *SendGridNotifier {
	if host == "" {
		host = defaultSendGridHost
	}
	request := sendgrid.GetRequest(apiKey, "/v3/mail/send", host)
	request.Method = "POST"
	return &SendGridNotifier{
		request:   request,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (n *SendGridNotifier) SendOverdueReminder(ctx context.Context, r domain.OverdueReminder) error {
	if strings.TrimSpace(r.ClientEmail) == "" {
		return domain.NewValidation("email", "client %d has no email address", r.ClientID)
	}

	subject, plain, html := renderOverdueReminder(r)
	message := mail.NewSingleEmail(
		mail.NewEmail(n.fromName, n.fromEmail),
		subject,
		mail.NewEmail(r.ClientName, r.ClientEmail),
		plain,
		html,
	)

	logger.ExternalServiceCall("sendgrid", "send", "rental_id", r.RentalID)
	// Client mutates the request body, so each send gets its own copy.
	client := &sendgrid.Client{Request: n.request}
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		logger.ExternalServiceResult("sendgrid", "send", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		err := fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("sendgrid", "send", err)
		return err
	}
	logger.ExternalServiceResult("sendgrid", "send", nil, "status", response.StatusCode)
	return nil
}

// LogNotifier records reminders in the log instead of sending them.
type LogNotifier struct{}

func (LogNotifier) SendOverdueReminder(ctx context.Context, r domain.OverdueReminder) error {
	logger.InfoContext(ctx, "Overdue reminder (not sent, email disabled)",
		"rental_id", r.RentalID,
		"client_id", r.ClientID,
		"email", r.ClientEmail,
		"end_date", r.EndDate.Format(domain.DateLayout))
	return nil
}

func renderOverdueReminder(r domain.OverdueReminder) (subject, plain, html string) {
	end := r.EndDate.Format(domain.DateLayout)
	subject = fmt.Sprintf("Rental #%d is overdue", r.RentalID)
	plain = fmt.Sprintf(
		"Hello %s,\n\nYour rental #%d (%d item(s)) was due back on %s. Please return the equipment or contact us to extend the rental.\n",
		r.ClientName, r.RentalID, r.ItemCount, end)
	html = fmt.Sprintf(
		"<p>Hello %s,</p><p>Your rental <strong>#%d</strong> (%d item(s)) was due back on <strong>%s</strong>.</p><p>Please return the equipment or contact us to extend the rental.</p>",
		r.ClientName, r.RentalID, r.ItemCount, end)
	return subject, plain, html
}
