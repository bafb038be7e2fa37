package policies

import "context"

// ReceiptData carries the fields rendered into tenant-facing mail.
type ReceiptData struct {
	BookingID   string
	SpaceTitle  string
	Amount      string
	PaymentID   string
	RecipientTo string
}

// Notifier sends out-of-band messages to users and staff. Implementations
// must not block request handling for long; delivery is best effort.
type Notifier interface {
	SendReceipt(ctx context.Context, data ReceiptData) error
	NotifyStaff(ctx context.Context, subject, body string) error
}
