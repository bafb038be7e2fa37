package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"renta/internal/domain/shared/events"
	"renta/internal/domain/shared/money"
	"renta/internal/domain/shared/timerange"
	"renta/internal/domain/spaces"
)

var (
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrPeriodsCount     = errors.New("booking: periods count must be positive")
	ErrTenantRequired   = errors.New("booking: tenant id required")
	ErrStartInPast      = errors.New("booking: start is in the past")
	ErrRangeConflict    = errors.New("booking: space is occupied for the requested range")
	ErrNotFound         = errors.New("booking: not found")
	ErrAlreadyPaid      = errors.New("booking: prepayment already collected")
	ErrNotPayable       = errors.New("booking: payment is not available in this state")
	ErrAlreadyRefunded  = errors.New("booking: prepayment already refunded")
	ErrNothingToRefund  = errors.New("booking: no prepayment to refund")
)

type BookingID string

type State string

const (
	StatePending   State = "pending"
	StateConfirmed State = "confirmed"
	StateCompleted State = "completed"
	StateCancelled State = "cancelled"
)

// ActiveStates are states that hold the time slot against new bookings.
var ActiveStates = []State{StatePending, StateConfirmed}

// Prepayment is the partial charge collected through the gateway at
// booking time. PaymentID holds the external payment reference.
type Prepayment struct {
	Paid      bool
	Amount    money.Money
	PaymentID string
	PaidAt    time.Time
	Refunded  bool
}

type Booking struct {
	ID             BookingID
	SpaceID        spaces.SpaceID
	TenantID       string
	PeriodCode     string
	PeriodsCount   int
	Range          timerange.Range
	PricePerPeriod money.Money
	Total          money.Money
	State          State
	Comment        string
	Prepayment     Prepayment
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	ListByTenant(ctx context.Context, tenantID string) ([]*Booking, error)
	ListBySpace(ctx context.Context, spaceID spaces.SpaceID, includeCancelled bool) ([]*Booking, error)
	// FindOverlapping returns bookings for the space in an active state
	// whose half-open interval intersects r.
	FindOverlapping(ctx context.Context, spaceID spaces.SpaceID, r timerange.Range) ([]*Booking, error)
	ByPaymentID(ctx context.Context, paymentID string) (*Booking, error)
	CountByState(ctx context.Context) (map[State]int, error)
	// CountBySpace tallies bookings per space, restricted to states.
	CountBySpace(ctx context.Context, states []State) (map[spaces.SpaceID]int, error)
	SumTotals(ctx context.Context, states []State) (money.Money, error)
}

type CreateParams struct {
	ID             BookingID
	SpaceID        spaces.SpaceID
	TenantID       string
	PeriodCode     string
	PeriodsCount   int
	Range          timerange.Range
	PricePerPeriod money.Money
	Comment        string
	CreatedAt      time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	if params.PeriodsCount <= 0 {
		return nil, ErrPeriodsCount
	}
	if strings.TrimSpace(params.TenantID) == "" {
		return nil, ErrTenantRequired
	}
	total := params.PricePerPeriod.Multiply(int64(params.PeriodsCount))
	if total.Amount <= 0 {
		return nil, errors.New("booking: total must be positive")
	}
	now := params.CreatedAt.UTC()
	b := &Booking{
		ID:             params.ID,
		SpaceID:        params.SpaceID,
		TenantID:       params.TenantID,
		PeriodCode:     params.PeriodCode,
		PeriodsCount:   params.PeriodsCount,
		Range:          params.Range,
		PricePerPeriod: params.PricePerPeriod,
		Total:          total,
		State:          StatePending,
		Comment:        strings.TrimSpace(params.Comment),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	b.Record(BookingRequested{BookingID: b.ID, SpaceID: b.SpaceID, TenantID: b.TenantID, Range: b.Range, Total: b.Total, At: now})
	return b, nil
}

// Confirm moves a pending booking to confirmed. Any other state fails.
func (b *Booking) Confirm(now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateConfirmed
	b.touch(now)
	b.Record(BookingConfirmed{BookingID: b.ID, SpaceID: b.SpaceID, Range: b.Range, Total: b.Total, At: b.UpdatedAt})
	return nil
}

// Complete closes out a confirmed booking after the rental ends.
func (b *Booking) Complete(now time.Time) error {
	if b.State != StateConfirmed {
		return ErrInvalidState
	}
	b.State = StateCompleted
	b.touch(now)
	b.Record(BookingCompleted{BookingID: b.ID, At: b.UpdatedAt})
	return nil
}

// Cancel is allowed from pending or confirmed; completed and cancelled
// are terminal.
func (b *Booking) Cancel(reason string, now time.Time) error {
	switch b.State {
	case StatePending, StateConfirmed:
	default:
		return ErrInvalidState
	}
	b.State = StateCancelled
	b.touch(now)
	b.Record(BookingCancelled{BookingID: b.ID, Reason: reason, At: b.UpdatedAt})
	return nil
}

// Cancellable reports whether Cancel would succeed.
func (b *Booking) Cancellable() bool {
	return b.State == StatePending || b.State == StateConfirmed
}

// AttachPayment stores the external payment reference after a checkout
// was created. Only bookings still awaiting their prepayment accept it.
func (b *Booking) AttachPayment(paymentID string, now time.Time) error {
	if b.State != StatePending && b.State != StateConfirmed {
		return ErrNotPayable
	}
	if b.Prepayment.Paid {
		return ErrAlreadyPaid
	}
	b.Prepayment.PaymentID = paymentID
	b.touch(now)
	return nil
}

// MarkPrepaid records a successful gateway charge.
func (b *Booking) MarkPrepaid(amount money.Money, paidAt time.Time) error {
	if b.Prepayment.Paid {
		return ErrAlreadyPaid
	}
	b.Prepayment.Paid = true
	b.Prepayment.Amount = amount
	b.Prepayment.PaidAt = paidAt.UTC()
	b.Prepayment.Refunded = false
	b.touch(paidAt)
	b.Record(PrepaymentCollected{BookingID: b.ID, Amount: amount, At: b.UpdatedAt})
	return nil
}

// ClearPaymentRef drops the stored payment id after the gateway
// cancelled an uncaptured charge.
func (b *Booking) ClearPaymentRef(now time.Time) {
	if b.Prepayment.Paid {
		return
	}
	b.Prepayment.PaymentID = ""
	b.touch(now)
}

// MarkRefunded reverses the paid flag once the gateway reports a
// completed refund. A second refund attempt fails.
func (b *Booking) MarkRefunded(now time.Time) error {
	if !b.Prepayment.Paid {
		return ErrNothingToRefund
	}
	if b.Prepayment.Refunded {
		return ErrAlreadyRefunded
	}
	b.Prepayment.Paid = false
	b.Prepayment.Refunded = true
	b.touch(now)
	b.Record(PrepaymentRefunded{BookingID: b.ID, Amount: b.Prepayment.Amount, At: b.UpdatedAt})
	return nil
}

func (b *Booking) touch(now time.Time) {
	b.UpdatedAt = now.UTC()
}

// ValidateStart rejects bookings whose start already passed.
func ValidateStart(start, now time.Time) error {
	if start.Before(now) {
		return ErrStartInPast
	}
	return nil
}
