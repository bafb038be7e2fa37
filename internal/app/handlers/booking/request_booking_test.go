package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	domainbooking "renta/internal/domain/booking"
	"renta/internal/domain/shared/money"
	domainspaces "renta/internal/domain/spaces"
	"renta/internal/infra/storage/memory"
)

func seedActiveSpace(t *testing.T, factory memory.Factory) *domainspaces.Space {
	t.Helper()
	now := time.Now().UTC()
	space, err := domainspaces.NewSpace(domainspaces.CreateParams{
		ID:       "sp-1",
		Owner:    "owner-1",
		Title:    "Downtown studio",
		Category: "studio",
		Address:  domainspaces.Address{Line1: "Lenina 5", City: "Kazan"},
		AreaSqM:  30,
		Capacity: 4,
		Now:      now,
	})
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	if err := space.SetPrice("day", money.Must(100000, "RUB"), now); err != nil {
		t.Fatalf("SetPrice: %v", err)
	}
	if err := space.Publish(now); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := factory.SpacesRepo.Save(context.Background(), space); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return space
}

func TestRequestBooking(t *testing.T) {
	factory := memory.NewFactory()
	seedActiveSpace(t, factory)
	box := memory.NewOutbox()
	handler := &RequestBookingHandler{
		UoWFactory: factory,
		Policy:     domainbooking.DefaultPrepaymentPolicy(),
		Outbox:     box,
	}

	start := time.Now().UTC().Add(48 * time.Hour)
	result, err := handler.Handle(context.Background(), RequestBookingCommand{
		CommandID:    "bk-1",
		SpaceID:      "sp-1",
		TenantID:     "tenant-1",
		PeriodCode:   "day",
		PeriodsCount: 2,
		Start:        start,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.BookingID != "bk-1" {
		t.Errorf("booking id: %s", result.BookingID)
	}
	if result.Total != 200000 {
		t.Errorf("total: got %d, want 200000", result.Total)
	}
	if result.Prepayment != 20000 {
		t.Errorf("prepayment: got %d, want 20000", result.Prepayment)
	}

	stored, err := factory.BookingsRepo.ByID(context.Background(), "bk-1")
	if err != nil {
		t.Fatalf("stored booking: %v", err)
	}
	if stored.State != domainbooking.StatePending {
		t.Errorf("state: %s", stored.State)
	}
	if stored.Range.Hours() != 48 {
		t.Errorf("range hours: %d", stored.Range.Hours())
	}
}

func TestRequestBookingConflicts(t *testing.T) {
	factory := memory.NewFactory()
	seedActiveSpace(t, factory)
	handler := &RequestBookingHandler{
		UoWFactory: factory,
		Policy:     domainbooking.DefaultPrepaymentPolicy(),
		Outbox:     memory.NewOutbox(),
	}

	start := time.Now().UTC().Add(48 * time.Hour)
	base := RequestBookingCommand{
		CommandID:    "bk-1",
		SpaceID:      "sp-1",
		TenantID:     "tenant-1",
		PeriodCode:   "day",
		PeriodsCount: 2,
		Start:        start,
	}
	if _, err := handler.Handle(context.Background(), base); err != nil {
		t.Fatalf("first booking: %v", err)
	}

	overlap := base
	overlap.CommandID = "bk-2"
	overlap.TenantID = "tenant-2"
	overlap.Start = start.Add(24 * time.Hour)
	if _, err := handler.Handle(context.Background(), overlap); !errors.Is(err, domainbooking.ErrRangeConflict) {
		t.Errorf("overlapping request: got %v", err)
	}

	// A booking starting exactly when the first one ends is allowed.
	adjacent := base
	adjacent.CommandID = "bk-3"
	adjacent.TenantID = "tenant-3"
	adjacent.Start = start.Add(48 * time.Hour)
	if _, err := handler.Handle(context.Background(), adjacent); err != nil {
		t.Errorf("back-to-back request: %v", err)
	}
}

func TestRequestBookingRejections(t *testing.T) {
	factory := memory.NewFactory()
	space := seedActiveSpace(t, factory)
	handler := &RequestBookingHandler{
		UoWFactory: factory,
		Policy:     domainbooking.DefaultPrepaymentPolicy(),
		Outbox:     memory.NewOutbox(),
	}
	ctx := context.Background()
	start := time.Now().UTC().Add(48 * time.Hour)

	t.Run("past start", func(t *testing.T) {
		cmd := RequestBookingCommand{CommandID: "bk-p", SpaceID: "sp-1", TenantID: "t", PeriodCode: "day", PeriodsCount: 1, Start: time.Now().UTC().Add(-time.Hour)}
		if _, err := handler.Handle(ctx, cmd); !errors.Is(err, domainbooking.ErrStartInPast) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("unknown period", func(t *testing.T) {
		cmd := RequestBookingCommand{CommandID: "bk-u", SpaceID: "sp-1", TenantID: "t", PeriodCode: "decade", PeriodsCount: 1, Start: start}
		if _, err := handler.Handle(ctx, cmd); !errors.Is(err, domainspaces.ErrPeriodUnknown) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("no active price for period", func(t *testing.T) {
		cmd := RequestBookingCommand{CommandID: "bk-h", SpaceID: "sp-1", TenantID: "t", PeriodCode: "hour", PeriodsCount: 1, Start: start}
		if _, err := handler.Handle(ctx, cmd); !errors.Is(err, domainspaces.ErrPriceNotFound) {
			t.Errorf("got %v", err)
		}
	})

	t.Run("suspended space", func(t *testing.T) {
		if err := space.Suspend("moderation", time.Now()); err != nil {
			t.Fatalf("Suspend: %v", err)
		}
		if err := factory.SpacesRepo.Save(ctx, space); err != nil {
			t.Fatalf("Save: %v", err)
		}
		cmd := RequestBookingCommand{CommandID: "bk-s", SpaceID: "sp-1", TenantID: "t", PeriodCode: "day", PeriodsCount: 1, Start: start}
		if _, err := handler.Handle(ctx, cmd); !errors.Is(err, ErrSpaceUnavailable) {
			t.Errorf("got %v", err)
		}
	})
}

func TestQuoteBooking(t *testing.T) {
	factory := memory.NewFactory()
	seedActiveSpace(t, factory)
	booker := &RequestBookingHandler{
		UoWFactory: factory,
		Policy:     domainbooking.DefaultPrepaymentPolicy(),
		Outbox:     memory.NewOutbox(),
	}
	quoter := &QuoteBookingHandler{
		UoWFactory: factory,
		Policy:     domainbooking.DefaultPrepaymentPolicy(),
	}
	ctx := context.Background()
	start := time.Now().UTC().Add(48 * time.Hour)

	quote, err := quoter.Handle(ctx, QuoteBookingQuery{SpaceID: "sp-1", PeriodCode: "day", PeriodsCount: 3, Start: start})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if quote.Total.Amount != 300000 {
		t.Errorf("total: %d", quote.Total.Amount)
	}
	if quote.Prepayment.Amount != 30000 {
		t.Errorf("prepayment: %d", quote.Prepayment.Amount)
	}
	if !quote.Available {
		t.Error("slot should be free")
	}

	if _, err := booker.Handle(ctx, RequestBookingCommand{
		CommandID: "bk-1", SpaceID: "sp-1", TenantID: "t", PeriodCode: "day", PeriodsCount: 3, Start: start,
	}); err != nil {
		t.Fatalf("booking: %v", err)
	}

	quote, err = quoter.Handle(ctx, QuoteBookingQuery{SpaceID: "sp-1", PeriodCode: "day", PeriodsCount: 1, Start: start})
	if err != nil {
		t.Fatalf("second quote: %v", err)
	}
	if quote.Available {
		t.Error("occupied slot must quote as unavailable")
	}
}
