package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"renta/internal/app/policies"
	domainbooking "renta/internal/domain/booking"
	"renta/internal/domain/shared/money"
	"renta/internal/domain/shared/timerange"
	"renta/internal/infra/storage/memory"
)

type stubGateway struct {
	refunds   []string
	cancelled []string
}

func (g *stubGateway) Create(ctx context.Context, params policies.CreateChargeParams) (policies.Charge, error) {
	return policies.Charge{ID: "pay-new", Amount: params.Amount}, nil
}

func (g *stubGateway) Capture(ctx context.Context, paymentID string) (policies.Charge, error) {
	return policies.Charge{ID: paymentID, Status: "succeeded"}, nil
}

func (g *stubGateway) CancelHold(ctx context.Context, paymentID string) (policies.Charge, error) {
	g.cancelled = append(g.cancelled, paymentID)
	return policies.Charge{ID: paymentID, Status: "canceled"}, nil
}

func (g *stubGateway) CreateRefund(ctx context.Context, paymentID string, amount money.Money) (policies.Refund, error) {
	g.refunds = append(g.refunds, paymentID)
	return policies.Refund{ID: "rf-1", Status: "succeeded", Amount: amount}, nil
}

func (g *stubGateway) Find(ctx context.Context, paymentID string) (policies.Charge, error) {
	return policies.Charge{ID: paymentID}, nil
}

func seedCancellable(t *testing.T, factory memory.Factory, startIn time.Duration, paid bool) *domainbooking.Booking {
	t.Helper()
	ctx := context.Background()
	seedActiveSpace(t, factory)

	now := time.Now().UTC()
	start := now.Add(startIn)
	rng, err := timerange.New(start, start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("timerange: %v", err)
	}
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:             "bk-cancel",
		SpaceID:        "sp-1",
		TenantID:       "tenant-1",
		PeriodCode:     "day",
		PeriodsCount:   1,
		Range:          rng,
		PricePerPeriod: money.Must(100000, "RUB"),
		CreatedAt:      now,
	})
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	if err := booking.AttachPayment("pay-1", now); err != nil {
		t.Fatalf("AttachPayment: %v", err)
	}
	if paid {
		if err := booking.MarkPrepaid(money.Must(10000, "RUB"), now); err != nil {
			t.Fatalf("MarkPrepaid: %v", err)
		}
	}
	booking.ClearEvents()
	if err := factory.BookingsRepo.Save(ctx, booking); err != nil {
		t.Fatalf("Save: %v", err)
	}
	return booking
}

func newCancelHandler(factory memory.Factory, gateway policies.PaymentGateway) *CancelBookingHandler {
	return &CancelBookingHandler{
		UoWFactory: factory,
		Gateway:    gateway,
		Policy:     domainbooking.DefaultPrepaymentPolicy(),
		Outbox:     memory.NewOutbox(),
	}
}

func TestCancelBookingForfeitsInsideLeadWindow(t *testing.T) {
	factory := memory.NewFactory()
	seedCancellable(t, factory, 6*time.Hour, true)
	gateway := &stubGateway{}
	handler := newCancelHandler(factory, gateway)

	result, err := handler.Handle(context.Background(), CancelBookingCommand{
		BookingID: "bk-cancel",
		ActorID:   "tenant-1",
		Reason:    "plans changed",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.Forfeited || result.RefundRequested {
		t.Errorf("result: %+v, want forfeited without refund", result)
	}
	if len(gateway.refunds) != 0 {
		t.Errorf("gateway refunds: %v, want none", gateway.refunds)
	}

	stored, err := factory.BookingsRepo.ByID(context.Background(), "bk-cancel")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if stored.State != domainbooking.StateCancelled {
		t.Errorf("state: %s", stored.State)
	}
}

func TestCancelBookingRefundsOutsideLeadWindow(t *testing.T) {
	factory := memory.NewFactory()
	seedCancellable(t, factory, 72*time.Hour, true)
	gateway := &stubGateway{}
	handler := newCancelHandler(factory, gateway)

	result, err := handler.Handle(context.Background(), CancelBookingCommand{
		BookingID: "bk-cancel",
		ActorID:   "tenant-1",
		Reason:    "found another place",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Forfeited || !result.RefundRequested {
		t.Errorf("result: %+v, want refund requested", result)
	}
	if len(gateway.refunds) != 1 || gateway.refunds[0] != "pay-1" {
		t.Errorf("gateway refunds: %v", gateway.refunds)
	}
}

func TestCancelBookingReleasesUnpaidHold(t *testing.T) {
	factory := memory.NewFactory()
	seedCancellable(t, factory, 72*time.Hour, false)
	gateway := &stubGateway{}
	handler := newCancelHandler(factory, gateway)

	result, err := handler.Handle(context.Background(), CancelBookingCommand{
		BookingID: "bk-cancel",
		ActorID:   "tenant-1",
		Reason:    "checkout abandoned",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Forfeited || result.RefundRequested {
		t.Errorf("result: %+v, want neither forfeit nor refund", result)
	}
	if len(gateway.cancelled) != 1 || gateway.cancelled[0] != "pay-1" {
		t.Errorf("gateway cancels: %v", gateway.cancelled)
	}

	stored, err := factory.BookingsRepo.ByID(context.Background(), "bk-cancel")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if stored.Prepayment.PaymentID != "" {
		t.Errorf("payment ref kept: %q", stored.Prepayment.PaymentID)
	}
}

func TestCancelBookingAuthorization(t *testing.T) {
	cases := []struct {
		name    string
		actor   string
		staff   bool
		wantErr error
	}{
		{"tenant may cancel", "tenant-1", false, nil},
		{"owner may cancel", "owner-1", false, nil},
		{"staff may cancel", "someone-else", true, nil},
		{"stranger may not", "intruder", false, ErrForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			factory := memory.NewFactory()
			seedCancellable(t, factory, 72*time.Hour, false)
			handler := newCancelHandler(factory, &stubGateway{})

			_, err := handler.Handle(context.Background(), CancelBookingCommand{
				BookingID: "bk-cancel",
				ActorID:   tc.actor,
				Staff:     tc.staff,
				Reason:    "test",
			})
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err: %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestCancelBookingTerminalState(t *testing.T) {
	factory := memory.NewFactory()
	booking := seedCancellable(t, factory, 72*time.Hour, false)
	now := time.Now().UTC()
	if err := booking.Confirm(now); err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	if err := booking.Complete(now); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	booking.ClearEvents()
	if err := factory.BookingsRepo.Save(context.Background(), booking); err != nil {
		t.Fatalf("Save: %v", err)
	}
	handler := newCancelHandler(factory, &stubGateway{})

	_, err := handler.Handle(context.Background(), CancelBookingCommand{
		BookingID: "bk-cancel",
		ActorID:   "tenant-1",
		Reason:    "too late",
	})
	if !errors.Is(err, domainbooking.ErrInvalidState) {
		t.Fatalf("err: %v, want ErrInvalidState", err)
	}
}

func TestCancelBookingWritesAudit(t *testing.T) {
	factory := memory.NewFactory()
	seedCancellable(t, factory, 72*time.Hour, false)
	handler := newCancelHandler(factory, &stubGateway{})

	if _, err := handler.Handle(context.Background(), CancelBookingCommand{
		BookingID: "bk-cancel",
		ActorID:   "tenant-1",
		Reason:    "plans changed",
	}); err != nil {
		t.Fatalf("Handle: %v", err)
	}

	entries, err := factory.AuditLog.ListRecent(context.Background(), 10)
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("audit entries: %d, want 1", len(entries))
	}
	if entries[0].ActorID != "tenant-1" || entries[0].EntityID != "bk-cancel" {
		t.Errorf("audit entry: %+v", entries[0])
	}
}
