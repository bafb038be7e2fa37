package dto

import (
	"time"

	domainaudit "renta/internal/domain/audit"
)

// OverviewReport aggregates platform-wide numbers for the admin panel
// and the export endpoints.
type OverviewReport struct {
	GeneratedAt     time.Time          `json:"generated_at"`
	Spaces          map[string]int     `json:"spaces_by_state"`
	Bookings        map[string]int     `json:"bookings_by_state"`
	Users           int                `json:"users"`
	Reviews         int                `json:"reviews"`
	ActiveTotal     MoneyDTO           `json:"active_bookings_total"`
	CollectedTotal  MoneyDTO           `json:"prepayments_collected"`
	RefundedTotal   MoneyDTO           `json:"prepayments_refunded"`
	CancelledCharge MoneyDTO           `json:"charges_cancelled"`
	TopSpaces       []SpaceBookingRank `json:"top_spaces"`
	LedgerByDay     []LedgerDayBucket  `json:"transactions_per_day"`
}

// SpaceBookingRank is one row of the most-booked spaces table.
type SpaceBookingRank struct {
	SpaceID  string `json:"space_id"`
	Title    string `json:"title"`
	Bookings int    `json:"bookings"`
}

// LedgerDayBucket groups ledger rows by calendar day (UTC); Net sums
// the signed amounts, so refunds pull the day's figure down.
type LedgerDayBucket struct {
	Date  string   `json:"date"`
	Count int      `json:"count"`
	Net   MoneyDTO `json:"net"`
}

type AuditEntry struct {
	ID         string    `json:"id"`
	ActorID    string    `json:"actor_id"`
	Action     string    `json:"action"`
	Entity     string    `json:"entity"`
	EntityID   string    `json:"entity_id"`
	Summary    string    `json:"summary,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type AuditLog struct {
	Items []AuditEntry `json:"items"`
}

func MapAuditEntries(entries []domainaudit.Entry) AuditLog {
	items := make([]AuditEntry, 0, len(entries))
	for _, e := range entries {
		items = append(items, AuditEntry{
			ID:         e.ID,
			ActorID:    e.ActorID,
			Action:     string(e.Action),
			Entity:     e.Entity,
			EntityID:   e.EntityID,
			Summary:    e.Summary,
			OccurredAt: e.OccurredAt,
		})
	}
	return AuditLog{Items: items}
}
