package dto

import (
	"time"

	domainbooking "renta/internal/domain/booking"
	domainspaces "renta/internal/domain/spaces"
)

type BookingSpaceSnapshot struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	AddressLine  string `json:"address_line"`
	City         string `json:"city"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type PrepaymentDTO struct {
	Paid     bool      `json:"paid"`
	Amount   MoneyDTO  `json:"amount"`
	PaidAt   time.Time `json:"paid_at,omitempty"`
	Refunded bool      `json:"refunded"`
}

type BookingSummary struct {
	ID           string               `json:"id"`
	Space        BookingSpaceSnapshot `json:"space"`
	TenantID     string               `json:"tenant_id"`
	PeriodCode   string               `json:"period"`
	PeriodsCount int                  `json:"periods_count"`
	Start        time.Time            `json:"start"`
	End          time.Time            `json:"end"`
	Total        MoneyDTO             `json:"total"`
	State        string               `json:"state"`
	Comment      string               `json:"comment,omitempty"`
	Prepayment   PrepaymentDTO        `json:"prepayment"`
	CreatedAt    time.Time            `json:"created_at"`
}

type BookingCollection struct {
	Items []BookingSummary `json:"items"`
}

// Quote is the price preview for a booking request before it is placed.
type Quote struct {
	SpaceID        string   `json:"space_id"`
	PeriodCode     string   `json:"period"`
	PeriodsCount   int      `json:"periods_count"`
	PricePerPeriod MoneyDTO `json:"price_per_period"`
	Total          MoneyDTO `json:"total"`
	Prepayment     MoneyDTO `json:"prepayment"`
	Available      bool     `json:"available"`
}

func MapBookingSummary(booking *domainbooking.Booking, space *domainspaces.Space) BookingSummary {
	snapshot := BookingSpaceSnapshot{ID: string(booking.SpaceID)}
	if space != nil {
		snapshot.Title = space.Title
		snapshot.AddressLine = space.Address.Line1
		snapshot.City = space.Address.City
		if img, ok := space.PrimaryImage(); ok {
			snapshot.ThumbnailURL = img.URL
		}
	}
	return BookingSummary{
		ID:           string(booking.ID),
		Space:        snapshot,
		TenantID:     booking.TenantID,
		PeriodCode:   booking.PeriodCode,
		PeriodsCount: booking.PeriodsCount,
		Start:        booking.Range.Start,
		End:          booking.Range.End,
		Total:        MapMoney(booking.Total),
		State:        string(booking.State),
		Comment:      booking.Comment,
		Prepayment: PrepaymentDTO{
			Paid:     booking.Prepayment.Paid,
			Amount:   MapMoney(booking.Prepayment.Amount),
			PaidAt:   booking.Prepayment.PaidAt,
			Refunded: booking.Prepayment.Refunded,
		},
		CreatedAt: booking.CreatedAt,
	}
}
