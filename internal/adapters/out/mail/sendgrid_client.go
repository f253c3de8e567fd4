// backend/internal/adapters/out/mail/sendgrid_client.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"html"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/infra/logger"
)

// EmailClient は実際のメール送信クライアントを抽象化した下位インターフェース。
type EmailClient interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

var mailLog = logger.For("mail")

// SendGridClient implements EmailClient.
type SendGridClient struct {
	apiKey   string
	fromName string
}

func NewSendGridClient(apiKey, fromName string) *SendGridClient {
	if fromName == "" {
		fromName = "Ekaro"
	}
	return &SendGridClient{apiKey: apiKey, fromName: fromName}
}

// Send sends a plain-text mail (the HTML part is the same text in <pre>).
func (c *SendGridClient) Send(ctx context.Context, from, to, subject, body string) error {
	if c.apiKey == "" {
		return errors.New("sendgrid api key is empty")
	}
	if from == "" {
		return errors.New("from address is empty")
	}
	if to == "" {
		return errors.New("to address is empty")
	}

	message := sgmail.NewSingleEmail(
		sgmail.NewEmail(c.fromName, from),
		subject,
		sgmail.NewEmail("", to),
		body,
		fmt.Sprintf("<pre>%s</pre>", html.EscapeString(body)),
	)

	response, err := sendgrid.NewSendClient(c.apiKey).SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("sendgrid send error: %w", err)
	}
	if response.StatusCode >= 400 {
		mailLog.WithField("status", response.StatusCode).WithField("body", response.Body).Error("sendgrid rejected mail")
		return fmt.Errorf("sendgrid send failed: status=%d", response.StatusCode)
	}

	mailLog.WithField("status", response.StatusCode).WithField("subject", subject).Info("mail sent")
	return nil
}
