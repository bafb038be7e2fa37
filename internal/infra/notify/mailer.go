package notify

import (
	"context"
	"fmt"
	"log/slog"

	"gopkg.in/gomail.v2"

	"renta/internal/app/policies"
)

// Mailer delivers receipts and staff alerts over SMTP.
type Mailer struct {
	dialer     *gomail.Dialer
	from       string
	staffInbox string
	logger     *slog.Logger
}

func NewMailer(host string, port int, username, password, from, staffInbox string, logger *slog.Logger) *Mailer {
	return &Mailer{
		dialer:     gomail.NewDialer(host, port, username, password),
		from:       from,
		staffInbox: staffInbox,
		logger:     logger,
	}
}

func (m *Mailer) SendReceipt(ctx context.Context, data policies.ReceiptData) error {
	if data.RecipientTo == "" {
		return fmt.Errorf("notify: receipt for booking %s has no recipient", data.BookingID)
	}
	body := fmt.Sprintf(
		"Your prepayment for %s is confirmed.\n\nBooking: %s\nAmount: %s\nPayment reference: %s\n",
		data.SpaceTitle, data.BookingID, data.Amount, data.PaymentID,
	)
	return m.send(ctx, data.RecipientTo, "Booking prepayment received", body)
}

func (m *Mailer) NotifyStaff(ctx context.Context, subject, body string) error {
	if m.staffInbox == "" {
		return nil
	}
	return m.send(ctx, m.staffInbox, subject, body)
}

func (m *Mailer) send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		if m.logger != nil {
			m.logger.Error("mail delivery failed", "to", to, "subject", subject, "error", err)
		}
		return err
	}
	return nil
}

var _ policies.Notifier = (*Mailer)(nil)
