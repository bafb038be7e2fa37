package admin

import (
	"context"
	"testing"
	"time"

	domainbooking "renta/internal/domain/booking"
	domainpayment "renta/internal/domain/payment"
	"renta/internal/domain/shared/money"
	"renta/internal/domain/shared/timerange"
	domainspaces "renta/internal/domain/spaces"
	"renta/internal/infra/storage/memory"
)

func seedReportSpace(t *testing.T, factory memory.Factory, id domainspaces.SpaceID, title string) {
	t.Helper()
	now := time.Now().UTC()
	space, err := domainspaces.NewSpace(domainspaces.CreateParams{
		ID:       id,
		Owner:    "owner-1",
		Title:    title,
		Category: "office",
		Address:  domainspaces.Address{Line1: "Main 1", City: "Moscow"},
		AreaSqM:  25,
		Capacity: 5,
		Now:      now,
	})
	if err != nil {
		t.Fatalf("NewSpace %s: %v", id, err)
	}
	if err := space.SetPrice("day", money.Must(100000, "RUB"), now); err != nil {
		t.Fatalf("SetPrice %s: %v", id, err)
	}
	if err := space.Publish(now); err != nil {
		t.Fatalf("Publish %s: %v", id, err)
	}
	if err := factory.SpacesRepo.Save(context.Background(), space); err != nil {
		t.Fatalf("Save %s: %v", id, err)
	}
}

func seedReportBooking(t *testing.T, factory memory.Factory, id domainbooking.BookingID, spaceID domainspaces.SpaceID, offset time.Duration, state domainbooking.State) {
	t.Helper()
	now := time.Now().UTC()
	start := now.Add(offset)
	rng, err := timerange.New(start, start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("timerange: %v", err)
	}
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:             id,
		SpaceID:        spaceID,
		TenantID:       "tenant-1",
		PeriodCode:     "day",
		PeriodsCount:   1,
		Range:          rng,
		PricePerPeriod: money.Must(100000, "RUB"),
		CreatedAt:      now,
	})
	if err != nil {
		t.Fatalf("NewBooking %s: %v", id, err)
	}
	switch state {
	case domainbooking.StateConfirmed:
		if err := booking.Confirm(now); err != nil {
			t.Fatalf("Confirm %s: %v", id, err)
		}
	case domainbooking.StateCompleted:
		if err := booking.Confirm(now); err != nil {
			t.Fatalf("Confirm %s: %v", id, err)
		}
		if err := booking.Complete(now); err != nil {
			t.Fatalf("Complete %s: %v", id, err)
		}
	case domainbooking.StateCancelled:
		if err := booking.Cancel("test", now); err != nil {
			t.Fatalf("Cancel %s: %v", id, err)
		}
	}
	booking.ClearEvents()
	if err := factory.BookingsRepo.Save(context.Background(), booking); err != nil {
		t.Fatalf("Save %s: %v", id, err)
	}
}

func seedLedgerRow(t *testing.T, factory memory.Factory, externalID string, amount int64, status domainpayment.TransactionStatus, at time.Time) {
	t.Helper()
	tx, err := domainpayment.NewTransaction(domainpayment.NewTransactionParams{
		ID:         domainpayment.TransactionID("tx-" + externalID),
		BookingID:  "bk-a1",
		Status:     status,
		Amount:     money.Must(amount, "RUB"),
		ExternalID: externalID,
		CreatedAt:  at,
	})
	if err != nil {
		t.Fatalf("NewTransaction %s: %v", externalID, err)
	}
	if _, _, err := factory.TransactionsRepo.GetOrCreate(context.Background(), tx); err != nil {
		t.Fatalf("GetOrCreate %s: %v", externalID, err)
	}
}

func TestOverviewReportTopSpaces(t *testing.T) {
	factory := memory.NewFactory()
	seedReportSpace(t, factory, "sp-a", "Loft on Arbat")
	seedReportSpace(t, factory, "sp-b", "Office downtown")

	seedReportBooking(t, factory, "bk-a1", "sp-a", 48*time.Hour, domainbooking.StatePending)
	seedReportBooking(t, factory, "bk-b1", "sp-b", 48*time.Hour, domainbooking.StateConfirmed)
	seedReportBooking(t, factory, "bk-b2", "sp-b", 96*time.Hour, domainbooking.StateCompleted)
	// Cancelled bookings stay out of the ranking.
	seedReportBooking(t, factory, "bk-a2", "sp-a", 144*time.Hour, domainbooking.StateCancelled)

	handler := &OverviewReportHandler{UoWFactory: factory}
	report, err := handler.Handle(context.Background(), OverviewReportQuery{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(report.TopSpaces) != 2 {
		t.Fatalf("top spaces: %d, want 2", len(report.TopSpaces))
	}
	first := report.TopSpaces[0]
	if first.SpaceID != "sp-b" || first.Bookings != 2 || first.Title != "Office downtown" {
		t.Errorf("first rank: %+v", first)
	}
	second := report.TopSpaces[1]
	if second.SpaceID != "sp-a" || second.Bookings != 1 {
		t.Errorf("second rank: %+v", second)
	}
}

func TestOverviewReportLedgerByDay(t *testing.T) {
	factory := memory.NewFactory()
	seedReportSpace(t, factory, "sp-a", "Loft on Arbat")
	seedReportBooking(t, factory, "bk-a1", "sp-a", 48*time.Hour, domainbooking.StatePending)

	now := time.Now().UTC()
	yesterday := now.Add(-24 * time.Hour)
	seedLedgerRow(t, factory, "pay-1", 10000, domainpayment.StatusSucceeded, now)
	seedLedgerRow(t, factory, "pay-2", 10000, domainpayment.StatusSucceeded, now)
	seedLedgerRow(t, factory, "rf-1", -5000, domainpayment.StatusRefunded, yesterday)
	// Rows older than the chart window are dropped.
	seedLedgerRow(t, factory, "pay-old", 99999, domainpayment.StatusSucceeded, now.Add(-30*24*time.Hour))

	handler := &OverviewReportHandler{UoWFactory: factory}
	report, err := handler.Handle(context.Background(), OverviewReportQuery{})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}

	if len(report.LedgerByDay) != 2 {
		t.Fatalf("buckets: %+v, want 2 days", report.LedgerByDay)
	}
	past := report.LedgerByDay[0]
	if past.Date != yesterday.Format("2006-01-02") || past.Count != 1 || past.Net.Amount != -5000 {
		t.Errorf("yesterday bucket: %+v", past)
	}
	today := report.LedgerByDay[1]
	if today.Date != now.Format("2006-01-02") || today.Count != 2 || today.Net.Amount != 20000 {
		t.Errorf("today bucket: %+v", today)
	}
	if today.Net.Currency != "RUB" {
		t.Errorf("currency: %q", today.Net.Currency)
	}
}
