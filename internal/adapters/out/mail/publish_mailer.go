// backend/internal/adapters/out/mail/publish_mailer.go
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PIUMYOMIN/ekaro-sub001/internal/application/editor"
	productdom "github.com/PIUMYOMIN/ekaro-sub001/internal/domain/product"
)

// PublishMailer tells the seller that a listing was created or updated.
type PublishMailer struct {
	client         EmailClient
	fromAddress    string
	consoleBaseURL string // 例: "https://console.ekaro.app"
}

func NewPublishMailer(client EmailClient, fromAddress, consoleBaseURL string) *PublishMailer {
	return &PublishMailer{
		client:         client,
		fromAddress:    strings.TrimSpace(fromAddress),
		consoleBaseURL: strings.TrimRight(strings.TrimSpace(consoleBaseURL), "/"),
	}
}

var _ editor.PublishNotifier = (*PublishMailer)(nil)

// NotifyPublished sends one mail to the actor. Actors without an email are skipped.
func (m *PublishMailer) NotifyPublished(ctx context.Context, actor editor.Actor, p productdom.Product, created bool) error {
	if m == nil || m.client == nil {
		return errors.New("publish mailer is not configured")
	}
	to := strings.TrimSpace(actor.Email)
	if to == "" {
		mailLog.WithField("actor_id", actor.ID).Debug("no email; publish mail skipped")
		return nil
	}
	subject, body := m.compose(p, created)
	return m.client.Send(ctx, m.fromAddress, to, subject, body)
}

func (m *PublishMailer) compose(p productdom.Product, created bool) (string, string) {
	verb := "updated"
	if created {
		verb = "published"
	}
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = p.ID
	}

	subject := fmt.Sprintf("[Ekaro] Your listing %q was %s", name, verb)

	var b strings.Builder
	fmt.Fprintf(&b, "Your listing %q was %s.\n\n", name, verb)
	fmt.Fprintf(&b, "Price: %s\n", p.Price.String())
	fmt.Fprintf(&b, "Quantity: %d\n", p.Quantity)
	if im, ok := p.PrimaryImage(); ok {
		fmt.Fprintf(&b, "Main image: %s\n", im.URL)
	}
	if m.consoleBaseURL != "" && p.ID != "" {
		fmt.Fprintf(&b, "\nManage it here: %s/products/%s\n", m.consoleBaseURL, p.ID)
	}
	return subject, b.String()
}
