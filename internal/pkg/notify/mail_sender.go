package notify

import (
	"context"
	"fmt"

	"github.com/aseguraplus/SeguroPay/app/models"
	"github.com/aseguraplus/SeguroPay/app/repository"
	"github.com/aseguraplus/SeguroPay/internal/pkg/mail"
)

// MailSender delivers payment outcomes as emails to the paying user.
type MailSender struct {
	users repository.UserRepository
}

// NewMailSender creates a sender that resolves recipients through the user
// repository.
func NewMailSender(users repository.UserRepository) *MailSender {
	return &MailSender{users: users}
}

// SendPaymentOutcome looks up the user and sends the outcome email. Sending
// the same message twice produces a duplicate email, which is acceptable for
// an at-least-once queue.
func (m *MailSender) SendPaymentOutcome(_ context.Context, msg OutcomeMessage) error {
	user, err := m.users.GetByID(msg.UserID)
	if err != nil {
		return fmt.Errorf("failed to resolve recipient for payment %s: %w", msg.PaymentID, err)
	}

	subject, body := outcomeMail(user.FullName, msg)
	return mail.SendMail(user.EmailPrimary, subject, body)
}

func outcomeMail(name string, msg OutcomeMessage) (string, string) {
	switch msg.Status {
	case models.PaymentStatusPaid:
		return "Pago confirmado",
			fmt.Sprintf("<p>Hola %s,</p><p>Tu pago <strong>%s</strong> fue confirmado.</p>", name, msg.PaymentID)
	case models.PaymentStatusFailed:
		return "Pago rechazado",
			fmt.Sprintf("<p>Hola %s,</p><p>Tu pago <strong>%s</strong> fue rechazado. Por favor intenta de nuevo.</p>", name, msg.PaymentID)
	default:
		return "Actualización de pago",
			fmt.Sprintf("<p>Hola %s,</p><p>Tu pago <strong>%s</strong> cambió a estado %s.</p>", name, msg.PaymentID, msg.Status)
	}
}
