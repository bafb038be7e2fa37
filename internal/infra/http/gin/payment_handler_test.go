package ginserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gin "github.com/gin-gonic/gin"

	"renta/internal/app/commands"
	paymentapp "renta/internal/app/handlers/payment"
	"renta/internal/app/policies"
	domainbooking "renta/internal/domain/booking"
	"renta/internal/domain/shared/money"
	"renta/internal/domain/shared/timerange"
	domainspaces "renta/internal/domain/spaces"
	"renta/internal/infra/storage/memory"
)

type acceptAllGateway struct{}

func (acceptAllGateway) Create(ctx context.Context, params policies.CreateChargeParams) (policies.Charge, error) {
	return policies.Charge{ID: "pay-new", Amount: params.Amount}, nil
}

func (acceptAllGateway) Capture(ctx context.Context, paymentID string) (policies.Charge, error) {
	return policies.Charge{ID: paymentID, Status: "succeeded"}, nil
}

func (acceptAllGateway) CancelHold(ctx context.Context, paymentID string) (policies.Charge, error) {
	return policies.Charge{ID: paymentID, Status: "canceled"}, nil
}

func (acceptAllGateway) CreateRefund(ctx context.Context, paymentID string, amount money.Money) (policies.Refund, error) {
	return policies.Refund{ID: "rf-1", Status: "succeeded", Amount: amount}, nil
}

func (acceptAllGateway) Find(ctx context.Context, paymentID string) (policies.Charge, error) {
	return policies.Charge{ID: paymentID}, nil
}

func seedWebhookBooking(t *testing.T, factory memory.Factory) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	space, err := domainspaces.NewSpace(domainspaces.CreateParams{
		ID:       "sp-1",
		Owner:    "owner-1",
		Title:    "Loft on Arbat",
		Category: "studio",
		Address:  domainspaces.Address{Line1: "Arbat 10", City: "Moscow"},
		AreaSqM:  40,
		Capacity: 6,
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
	if err := factory.SpacesRepo.Save(ctx, space); err != nil {
		t.Fatalf("Save space: %v", err)
	}

	start := now.Add(72 * time.Hour)
	rng, err := timerange.New(start, start.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("timerange: %v", err)
	}
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:             "bk-1",
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
	booking.ClearEvents()
	if err := factory.BookingsRepo.Save(ctx, booking); err != nil {
		t.Fatalf("Save booking: %v", err)
	}
}

func newWebhookRouter(t *testing.T, factory memory.Factory) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	bus := commands.NewInMemoryBus()
	commands.RegisterHandler(bus, paymentapp.ProcessWebhookCommand{}.Key(), &paymentapp.ProcessWebhookHandler{
		UoWFactory: factory,
		Gateway:    acceptAllGateway{},
		Outbox:     memory.NewOutbox(),
	})

	router := gin.New()
	handler := PaymentHandler{Commands: bus}
	router.POST("/payments/webhook", handler.Webhook)
	return router
}

func postWebhook(router *gin.Engine, body string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/payments/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(recorder, req)
	return recorder
}

func TestWebhookEndpointMarksBookingPrepaid(t *testing.T) {
	factory := memory.NewFactory()
	seedWebhookBooking(t, factory)
	router := newWebhookRouter(t, factory)

	body := `{
		"event": "payment.succeeded",
		"object": {
			"id": "pay-1",
			"status": "succeeded",
			"amount": {"value": "100.00", "currency": "RUB"}
		}
	}`
	recorder := postWebhook(router, body)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d, body: %s", recorder.Code, recorder.Body.String())
	}

	booking, err := factory.BookingsRepo.ByID(context.Background(), "bk-1")
	if err != nil {
		t.Fatalf("ByID: %v", err)
	}
	if !booking.Prepayment.Paid {
		t.Error("booking not marked prepaid")
	}
	if booking.Prepayment.Amount.Amount != 10000 {
		t.Errorf("prepayment amount: %d", booking.Prepayment.Amount.Amount)
	}

	// Gateway replays are acknowledged without double-booking the ledger.
	replay := postWebhook(router, body)
	if replay.Code != http.StatusOK {
		t.Fatalf("replay status: %d", replay.Code)
	}
	rows, err := factory.TransactionsRepo.ListByBooking(context.Background(), "bk-1")
	if err != nil {
		t.Fatalf("ListByBooking: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("ledger rows: %d, want 1", len(rows))
	}
}

func TestWebhookEndpointAcknowledgesForeignPayments(t *testing.T) {
	router := newWebhookRouter(t, memory.NewFactory())

	recorder := postWebhook(router, `{
		"event": "payment.succeeded",
		"object": {
			"id": "pay-unknown",
			"status": "succeeded",
			"amount": {"value": "10.00", "currency": "RUB"}
		}
	}`)
	if recorder.Code != http.StatusOK {
		t.Fatalf("status: %d, want 200 so the gateway stops retrying", recorder.Code)
	}
}

func TestWebhookEndpointRejectsMalformedPayloads(t *testing.T) {
	router := newWebhookRouter(t, memory.NewFactory())

	cases := []struct {
		name string
		body string
	}{
		{"broken json", `{"event": `},
		{"missing event", `{"object": {"id": "pay-1"}}`},
		{"missing object id", `{"event": "payment.succeeded", "object": {}}`},
		{"bad amount", `{"event": "payment.succeeded", "object": {"id": "pay-1", "amount": {"value": "ten", "currency": "RUB"}}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			recorder := postWebhook(router, tc.body)
			if recorder.Code != http.StatusBadRequest {
				t.Fatalf("status: %d, want 400", recorder.Code)
			}
		})
	}
}
