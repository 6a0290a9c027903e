// Package notify is the boundary to the notification collaborator. The
// lifecycle service fires invitation events here and never consults the
// outcome; a failed notification must not fail the triggering operation.
package notify

import (
	"context"
	"fmt"

	"github.com/formworks/licensing/app/models"
	"github.com/formworks/licensing/internal/pkg/mail"
)

// Notifier receives fire-and-forget user lifecycle events.
type Notifier interface {
	ResendInvitation(ctx context.Context, user *models.UserAccount) error
}

// SMTPNotifier delivers invitation emails through the SMTP mailer.
type SMTPNotifier struct{}

// NewSMTPNotifier creates an SMTP-backed notifier.
func NewSMTPNotifier() *SMTPNotifier {
	return &SMTPNotifier{}
}

func (n *SMTPNotifier) ResendInvitation(ctx context.Context, user *models.UserAccount) error {
	_ = ctx
	subject := "Your workspace invitation"
	body := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your account has been reactivated. Use your invitation link to sign back in.</p>",
		user.Name,
	)
	return mail.SendMail(user.Email, subject, body)
}

// NopNotifier drops every event. Used when no SMTP server is configured.
type NopNotifier struct{}

func (NopNotifier) ResendInvitation(ctx context.Context, user *models.UserAccount) error {
	return nil
}
