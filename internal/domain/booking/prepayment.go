package booking

import (
	"time"

	"renta/internal/domain/shared/money"
)

// PrepaymentPolicy captures the externally configured prepayment rules:
// the collected share of the booking total, the gateway's minimum
// charge, and the cancellation lead time under which the prepayment is
// forfeited.
type PrepaymentPolicy struct {
	Percent          int64
	MinimumCharge    int64
	CancellationLead time.Duration
}

// DefaultPrepaymentPolicy matches production settings: 10% prepayment,
// 1 RUB gateway minimum, 24 hour free-cancellation window.
func DefaultPrepaymentPolicy() PrepaymentPolicy {
	return PrepaymentPolicy{
		Percent:          10,
		MinimumCharge:    100,
		CancellationLead: 24 * time.Hour,
	}
}

// Amount computes the prepayment for a booking total, floored at the
// gateway minimum.
func (p PrepaymentPolicy) Amount(total money.Money) money.Money {
	amount := total.Percent(p.Percent)
	if amount.Amount < p.MinimumCharge {
		amount.Amount = p.MinimumCharge
	}
	return amount
}

// Forfeited reports whether a cancellation at now loses the prepayment:
// true when less than the lead time remains before the rental starts.
func (p PrepaymentPolicy) Forfeited(now, start time.Time) bool {
	return start.Sub(now) < p.CancellationLead
}
