package service

import (
	"context"
	"fmt"
	"html"

	"vehicle-rental-backend/internal/domain"
	"vehicle-rental-backend/internal/logger"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type sendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type emailChannel struct {
	client    sendGridClient
	fromEmail string
	fromName  string
}

func NewEmailChannel(apiKey, fromEmail, fromName string) Channel {
	return &emailChannel{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (c *emailChannel) Name() string { return "email" }

// Deliver sends the notification as a plain and HTML email. Users without an
// email address are skipped.
func (c *emailChannel) Deliver(ctx context.Context, to *domain.User, n *domain.Notification) error {
	if to.Email == "" {
		return nil
	}
	from := mail.NewEmail(c.fromName, c.fromEmail)
	recipient := mail.NewEmail(to.Name, to.Email)

	htmlContent := fmt.Sprintf(`<html>
	<body>
		<h2>%s</h2>
		<p>%s</p>
	</body>
</html>`, html.EscapeString(n.Title), html.EscapeString(n.Message))
	message := mail.NewSingleEmail(from, n.Title, recipient, n.Message, htmlContent)

	logger.ExternalServiceCall("SendGrid", "Send", "userID", to.ID, "event", n.Type)
	response, err := c.client.SendWithContext(ctx, message)
	if err != nil {
		logger.ExternalServiceResult("SendGrid", "Send", err, "userID", to.ID)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}
	logger.ExternalServiceResult("SendGrid", "Send", err, "userID", to.ID, "status", response.StatusCode)
	return err
}
