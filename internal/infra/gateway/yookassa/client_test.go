package yookassa

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"renta/internal/app/policies"
	"renta/internal/domain/shared/money"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		value   string
		want    int64
		wantErr bool
	}{
		{"100.50", 10050, false},
		{"100.5", 10050, false},
		{"100", 10000, false},
		{"0.05", 5, false},
		{"100.505", 10050, false},
		{"-100.50", -10050, false},
		{" 250.00 ", 25000, false},
		{"abc", 0, true},
		{"10.xy", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			got, err := ParseAmount(tc.value, "RUB")
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q): expected error", tc.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q): %v", tc.value, err)
			}
			if got.Amount != tc.want {
				t.Errorf("ParseAmount(%q): got %d, want %d", tc.value, got.Amount, tc.want)
			}
		})
	}
}

func TestEncodeAmount(t *testing.T) {
	cases := []struct {
		amount int64
		want   string
	}{
		{10050, "100.50"},
		{5, "0.05"},
		{-10050, "-100.50"},
		{10000, "100.00"},
	}
	for _, tc := range cases {
		got := encodeAmount(money.Must(tc.amount, "RUB"))
		if got.Value != tc.want {
			t.Errorf("encodeAmount(%d): got %q, want %q", tc.amount, got.Value, tc.want)
		}
	}
}

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := New("shop-1", "secret-1", nil)
	client.BaseURL = server.URL
	return client, server
}

func TestCreateSendsHeldCheckout(t *testing.T) {
	var captured struct {
		method  string
		path    string
		auth    bool
		idemKey string
		body    createPaymentRequest
	}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		captured.path = r.URL.Path
		user, pass, ok := r.BasicAuth()
		captured.auth = ok && user == "shop-1" && pass == "secret-1"
		captured.idemKey = r.Header.Get("Idempotence-Key")
		if err := json.NewDecoder(r.Body).Decode(&captured.body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(paymentPayload{
			ID:           "pay-123",
			Status:       "pending",
			Amount:       amountPayload{Value: "100.00", Currency: "RUB"},
			Confirmation: &confirmationPayload{Type: "redirect", URL: "https://pay.example/confirm"},
			Metadata:     map[string]string{"booking_id": "bk-1"},
		})
	})

	charge, err := client.Create(context.Background(), policies.CreateChargeParams{
		Amount:      money.Must(10000, "RUB"),
		Description: "Booking bk-1",
		ReturnURL:   "https://renta.example/return",
		Metadata:    map[string]string{"booking_id": "bk-1"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if captured.method != http.MethodPost || captured.path != "/payments" {
		t.Errorf("request: %s %s", captured.method, captured.path)
	}
	if !captured.auth {
		t.Error("basic auth credentials missing or wrong")
	}
	if captured.idemKey == "" {
		t.Error("Idempotence-Key header missing")
	}
	if captured.body.Capture {
		t.Error("payment created with capture=true, want a hold")
	}
	if captured.body.Amount.Value != "100.00" {
		t.Errorf("amount sent: %q", captured.body.Amount.Value)
	}
	if captured.body.Confirmation.ReturnURL != "https://renta.example/return" {
		t.Errorf("return url: %q", captured.body.Confirmation.ReturnURL)
	}

	if charge.ID != "pay-123" || charge.ConfirmationURL != "https://pay.example/confirm" {
		t.Errorf("charge: %+v", charge)
	}
	if charge.Amount.Amount != 10000 {
		t.Errorf("charge amount: %d", charge.Amount.Amount)
	}
	if charge.Metadata["booking_id"] != "bk-1" {
		t.Errorf("metadata: %v", charge.Metadata)
	}
}

func TestCreateRefund(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/refunds" {
			t.Errorf("path: %s", r.URL.Path)
		}
		var req createRefundRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.PaymentID != "pay-123" || req.Amount.Value != "50.00" {
			t.Errorf("refund request: %+v", req)
		}
		json.NewEncoder(w).Encode(refundPayload{
			ID:     "rf-1",
			Status: "succeeded",
			Amount: req.Amount,
		})
	})

	refund, err := client.CreateRefund(context.Background(), "pay-123", money.Must(5000, "RUB"))
	if err != nil {
		t.Fatalf("CreateRefund: %v", err)
	}
	if refund.ID != "rf-1" || refund.Status != "succeeded" || refund.Amount.Amount != 5000 {
		t.Errorf("refund: %+v", refund)
	}
}

func TestFindOmitsIdempotenceKey(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("method: %s", r.Method)
		}
		if r.Header.Get("Idempotence-Key") != "" {
			t.Error("GET carried an Idempotence-Key")
		}
		json.NewEncoder(w).Encode(paymentPayload{
			ID:     "pay-123",
			Status: "succeeded",
			Paid:   true,
			Amount: amountPayload{Value: "100.00", Currency: "RUB"},
		})
	})

	charge, err := client.Find(context.Background(), "pay-123")
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if !charge.Paid || charge.Status != "succeeded" {
		t.Errorf("charge: %+v", charge)
	}
}

func TestAPIErrorSurfacesDescription(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"code":        "invalid_request",
			"description": "Payment amount too small",
		})
	})

	_, err := client.Capture(context.Background(), "pay-123")
	if err == nil {
		t.Fatal("Capture: expected error")
	}
	if !strings.Contains(err.Error(), "Payment amount too small") {
		t.Errorf("error: %v", err)
	}
	if !strings.Contains(err.Error(), "invalid_request") {
		t.Errorf("error missing code: %v", err)
	}
}

func TestBreakerOpensAfterServerErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 3; i++ {
		if _, err := client.Find(context.Background(), "pay-123"); err == nil {
			t.Fatalf("request %d: expected error", i)
		}
	}
	_, err := client.Find(context.Background(), "pay-123")
	if err != policies.ErrGatewayUnavailable {
		t.Fatalf("after failures: got %v, want ErrGatewayUnavailable", err)
	}
}
