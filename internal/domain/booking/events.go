package booking

import (
	"time"

	"renta/internal/domain/shared/money"
	"renta/internal/domain/shared/timerange"
	"renta/internal/domain/spaces"
)

type BookingRequested struct {
	BookingID BookingID
	SpaceID   spaces.SpaceID
	TenantID  string
	Range     timerange.Range
	Total     money.Money
	At        time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID BookingID
	SpaceID   spaces.SpaceID
	Range     timerange.Range
	Total     money.Money
	At        time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID
	At        time.Time
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID
	Reason    string
	At        time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type PrepaymentCollected struct {
	BookingID BookingID
	Amount    money.Money
	At        time.Time
}

func (e PrepaymentCollected) EventName() string     { return "booking.prepayment_collected" }
func (e PrepaymentCollected) AggregateID() string   { return string(e.BookingID) }
func (e PrepaymentCollected) OccurredAt() time.Time { return e.At }

type PrepaymentRefunded struct {
	BookingID BookingID
	Amount    money.Money
	At        time.Time
}

func (e PrepaymentRefunded) EventName() string     { return "booking.prepayment_refunded" }
func (e PrepaymentRefunded) AggregateID() string   { return string(e.BookingID) }
func (e PrepaymentRefunded) OccurredAt() time.Time { return e.At }
