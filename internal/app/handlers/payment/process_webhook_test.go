package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"renta/internal/app/policies"
	domainbooking "renta/internal/domain/booking"
	domainpayment "renta/internal/domain/payment"
	"renta/internal/domain/shared/money"
	"renta/internal/domain/shared/timerange"
	domainspaces "renta/internal/domain/spaces"
	"renta/internal/infra/storage/memory"
)

type fakeGateway struct {
	captured []string
	refunds  []string
	holds    []string
	err      error
}

func (g *fakeGateway) Create(ctx context.Context, params policies.CreateChargeParams) (policies.Charge, error) {
	return policies.Charge{ID: "pay-new", Status: "pending", ConfirmationURL: "https://gw/confirm", Amount: params.Amount, Metadata: params.Metadata}, g.err
}

func (g *fakeGateway) Capture(ctx context.Context, paymentID string) (policies.Charge, error) {
	g.captured = append(g.captured, paymentID)
	return policies.Charge{ID: paymentID, Status: "succeeded", Paid: true}, g.err
}

func (g *fakeGateway) CancelHold(ctx context.Context, paymentID string) (policies.Charge, error) {
	g.holds = append(g.holds, paymentID)
	return policies.Charge{ID: paymentID, Status: "canceled"}, g.err
}

func (g *fakeGateway) CreateRefund(ctx context.Context, paymentID string, amount money.Money) (policies.Refund, error) {
	g.refunds = append(g.refunds, paymentID)
	return policies.Refund{ID: "ref-" + paymentID, Status: "succeeded", Amount: amount}, g.err
}

func (g *fakeGateway) Find(ctx context.Context, paymentID string) (policies.Charge, error) {
	return policies.Charge{ID: paymentID}, g.err
}

func seedPayableBooking(t *testing.T, factory memory.Factory, paymentID string) *domainbooking.Booking {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	space, err := domainspaces.NewSpace(domainspaces.CreateParams{
		ID: "sp-1", Owner: "owner-1", Title: "Basement workshop", Category: "workshop",
		Address: domainspaces.Address{Line1: "Mira 3", City: "Perm"},
		AreaSqM: 55, Capacity: 6, Now: now,
	})
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	if err := factory.SpacesRepo.Save(ctx, space); err != nil {
		t.Fatalf("save space: %v", err)
	}

	r, err := timerange.FromDuration(now.Add(72*time.Hour), 24*time.Hour)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID: "bk-1", SpaceID: space.ID, TenantID: "tenant-1",
		PeriodCode: "day", PeriodsCount: 1, Range: r,
		PricePerPeriod: money.Must(100000, "RUB"), CreatedAt: now,
	})
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	booking.ClearEvents()
	if paymentID != "" {
		if err := booking.AttachPayment(paymentID, now); err != nil {
			t.Fatalf("AttachPayment: %v", err)
		}
	}
	if err := factory.BookingsRepo.Save(ctx, booking); err != nil {
		t.Fatalf("save booking: %v", err)
	}
	return booking
}

func TestWebhookPaymentSucceededIsReplaySafe(t *testing.T) {
	factory := memory.NewFactory()
	seedPayableBooking(t, factory, "pay-1")
	handler := &ProcessWebhookHandler{
		UoWFactory: factory,
		Gateway:    &fakeGateway{},
		Outbox:     memory.NewOutbox(),
	}

	cmd := ProcessWebhookCommand{
		EventType:  EventPaymentSucceeded,
		PaymentID:  "pay-1",
		Amount:     money.Must(10000, "RUB"),
		OccurredAt: time.Now().UTC(),
	}
	ctx := context.Background()

	first, err := handler.Handle(ctx, cmd)
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if !first.Processed || first.Duplicate {
		t.Errorf("first delivery: %+v", first)
	}

	second, err := handler.Handle(ctx, cmd)
	if err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if !second.Duplicate {
		t.Errorf("redelivery must report duplicate: %+v", second)
	}

	rows, err := factory.TransactionsRepo.ListByBooking(ctx, "bk-1")
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("ledger rows: got %d, want 1", len(rows))
	}

	stored, err := factory.BookingsRepo.ByID(ctx, "bk-1")
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if !stored.Prepayment.Paid {
		t.Error("booking must be marked prepaid")
	}
	if stored.Prepayment.Amount.Amount != 10000 {
		t.Errorf("prepaid amount: %d", stored.Prepayment.Amount.Amount)
	}
}

func TestWebhookRefundSucceeded(t *testing.T) {
	factory := memory.NewFactory()
	booking := seedPayableBooking(t, factory, "pay-1")
	ctx := context.Background()

	now := time.Now().UTC()
	if err := booking.MarkPrepaid(money.Must(10000, "RUB"), now); err != nil {
		t.Fatalf("MarkPrepaid: %v", err)
	}
	booking.ClearEvents()
	if err := factory.BookingsRepo.Save(ctx, booking); err != nil {
		t.Fatalf("save: %v", err)
	}

	handler := &ProcessWebhookHandler{
		UoWFactory: factory,
		Gateway:    &fakeGateway{},
		Outbox:     memory.NewOutbox(),
	}
	result, err := handler.Handle(ctx, ProcessWebhookCommand{
		EventType:  EventRefundSucceeded,
		PaymentID:  "pay-1",
		RefundID:   "ref-1",
		Amount:     money.Must(10000, "RUB"),
		OccurredAt: now,
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.Processed {
		t.Errorf("result: %+v", result)
	}

	stored, _ := factory.BookingsRepo.ByID(ctx, "bk-1")
	if stored.Prepayment.Paid || !stored.Prepayment.Refunded {
		t.Errorf("refund flags: %+v", stored.Prepayment)
	}

	rows, _ := factory.TransactionsRepo.ListByBooking(ctx, "bk-1")
	if len(rows) != 1 {
		t.Fatalf("ledger rows: %d", len(rows))
	}
	if rows[0].Amount.Amount != -10000 {
		t.Errorf("refund ledger amount: %d", rows[0].Amount.Amount)
	}
}

func TestWebhookWaitingForCaptureTriggersCapture(t *testing.T) {
	gw := &fakeGateway{}
	handler := &ProcessWebhookHandler{Gateway: gw}

	result, err := handler.Handle(context.Background(), ProcessWebhookCommand{
		EventType: EventWaitingForCapture,
		PaymentID: "pay-7",
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.Processed {
		t.Errorf("result: %+v", result)
	}
	if len(gw.captured) != 1 || gw.captured[0] != "pay-7" {
		t.Errorf("captured: %v", gw.captured)
	}
}

func TestWebhookUnknownPayment(t *testing.T) {
	factory := memory.NewFactory()
	handler := &ProcessWebhookHandler{
		UoWFactory: factory,
		Gateway:    &fakeGateway{},
		Outbox:     memory.NewOutbox(),
	}
	_, err := handler.Handle(context.Background(), ProcessWebhookCommand{
		EventType:  EventPaymentSucceeded,
		PaymentID:  "pay-missing",
		Amount:     money.Must(100, "RUB"),
		OccurredAt: time.Now().UTC(),
	})
	if !errors.Is(err, ErrBookingUnresolved) {
		t.Errorf("got %v", err)
	}
}

func TestWebhookResolvesBookingThroughMetadata(t *testing.T) {
	factory := memory.NewFactory()
	seedPayableBooking(t, factory, "")
	handler := &ProcessWebhookHandler{
		UoWFactory: factory,
		Gateway:    &fakeGateway{},
		Outbox:     memory.NewOutbox(),
	}

	result, err := handler.Handle(context.Background(), ProcessWebhookCommand{
		EventType:  EventPaymentSucceeded,
		PaymentID:  "pay-meta",
		Amount:     money.Must(10000, "RUB"),
		Metadata:   map[string]string{"booking_id": "bk-1"},
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.Processed {
		t.Errorf("result: %+v", result)
	}
	stored, _ := factory.BookingsRepo.ByID(context.Background(), "bk-1")
	if !stored.Prepayment.Paid {
		t.Error("metadata-routed payment must mark the booking prepaid")
	}
}

func TestWebhookCanceledWithoutAmountKeepsLedgerCurrency(t *testing.T) {
	factory := memory.NewFactory()
	seedPayableBooking(t, factory, "pay-1")
	ctx := context.Background()

	handler := &ProcessWebhookHandler{
		UoWFactory: factory,
		Gateway:    &fakeGateway{},
		Outbox:     memory.NewOutbox(),
	}
	result, err := handler.Handle(ctx, ProcessWebhookCommand{
		EventType:  EventPaymentCanceled,
		PaymentID:  "pay-1",
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !result.Processed {
		t.Errorf("result: %+v", result)
	}

	stored, _ := factory.BookingsRepo.ByID(ctx, "bk-1")
	if stored.Prepayment.PaymentID != "" {
		t.Errorf("payment ref kept: %q", stored.Prepayment.PaymentID)
	}

	rows, _ := factory.TransactionsRepo.ListByBooking(ctx, "bk-1")
	if len(rows) != 1 {
		t.Fatalf("ledger rows: %d", len(rows))
	}
	if rows[0].Status != domainpayment.StatusCancelled {
		t.Errorf("status: %s", rows[0].Status)
	}
	if rows[0].Amount.Currency != "RUB" || rows[0].Amount.Amount != 0 {
		t.Errorf("amount: %+v, want zero RUB", rows[0].Amount)
	}
}

func TestWebhookIgnoresUnknownEvents(t *testing.T) {
	handler := &ProcessWebhookHandler{}
	result, err := handler.Handle(context.Background(), ProcessWebhookCommand{EventType: "payment.pending"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if result.Processed {
		t.Errorf("unknown events must be acknowledged without work: %+v", result)
	}
}

func TestFormatAmount(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{10000, "100.00 RUB"},
		{10050, "100.50 RUB"},
		{5, "0.05 RUB"},
		{-10000, "-100.00 RUB"},
	}
	for _, tc := range cases {
		if got := FormatAmount(money.Must(tc.amount, "RUB")); got != tc.want {
			t.Errorf("FormatAmount(%d): got %q, want %q", tc.amount, got, tc.want)
		}
	}
}
