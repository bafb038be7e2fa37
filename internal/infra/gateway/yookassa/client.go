package yookassa

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"renta/internal/app/policies"
	"renta/internal/domain/shared/money"
)

const defaultBaseURL = "https://api.yookassa.ru/v3"

// Client talks to the YooKassa REST API. All mutating calls carry an
// Idempotence-Key header so gateway-side retries stay safe.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	ShopID  string
	Secret  string
	Logger  *slog.Logger
	breaker *gobreaker.CircuitBreaker
}

func New(shopID, secret string, logger *slog.Logger) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 15 * time.Second},
		BaseURL: defaultBaseURL,
		ShopID:  shopID,
		Secret:  secret,
		Logger:  logger,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "yookassa",
			MaxRequests: 1,
			Timeout:     10 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures > 2
			},
		}),
	}
}

type amountPayload struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type confirmationPayload struct {
	Type      string `json:"type"`
	ReturnURL string `json:"return_url,omitempty"`
	URL       string `json:"confirmation_url,omitempty"`
}

type paymentPayload struct {
	ID           string               `json:"id"`
	Status       string               `json:"status"`
	Paid         bool                 `json:"paid"`
	Amount       amountPayload        `json:"amount"`
	Confirmation *confirmationPayload `json:"confirmation,omitempty"`
	Metadata     map[string]string    `json:"metadata,omitempty"`
}

type refundPayload struct {
	ID     string        `json:"id"`
	Status string        `json:"status"`
	Amount amountPayload `json:"amount"`
}

type createPaymentRequest struct {
	Amount       amountPayload       `json:"amount"`
	Capture      bool                `json:"capture"`
	Description  string              `json:"description,omitempty"`
	Confirmation confirmationPayload `json:"confirmation"`
	Metadata     map[string]string   `json:"metadata,omitempty"`
}

type createRefundRequest struct {
	PaymentID string        `json:"payment_id"`
	Amount    amountPayload `json:"amount"`
}

// Create registers a hosted-checkout payment held until capture.
func (c *Client) Create(ctx context.Context, params policies.CreateChargeParams) (policies.Charge, error) {
	req := createPaymentRequest{
		Amount:      encodeAmount(params.Amount),
		Capture:     false,
		Description: params.Description,
		Confirmation: confirmationPayload{
			Type:      "redirect",
			ReturnURL: params.ReturnURL,
		},
		Metadata: params.Metadata,
	}
	var payment paymentPayload
	if err := c.do(ctx, http.MethodPost, "/payments", req, &payment); err != nil {
		return policies.Charge{}, err
	}
	return toCharge(payment)
}

// Capture confirms a payment waiting for capture.
func (c *Client) Capture(ctx context.Context, paymentID string) (policies.Charge, error) {
	var payment paymentPayload
	path := "/payments/" + paymentID + "/capture"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &payment); err != nil {
		return policies.Charge{}, err
	}
	return toCharge(payment)
}

// CancelHold releases an uncaptured hold.
func (c *Client) CancelHold(ctx context.Context, paymentID string) (policies.Charge, error) {
	var payment paymentPayload
	path := "/payments/" + paymentID + "/cancel"
	if err := c.do(ctx, http.MethodPost, path, struct{}{}, &payment); err != nil {
		return policies.Charge{}, err
	}
	return toCharge(payment)
}

// CreateRefund returns money for an already captured payment.
func (c *Client) CreateRefund(ctx context.Context, paymentID string, amount money.Money) (policies.Refund, error) {
	req := createRefundRequest{PaymentID: paymentID, Amount: encodeAmount(amount)}
	var refund refundPayload
	if err := c.do(ctx, http.MethodPost, "/refunds", req, &refund); err != nil {
		return policies.Refund{}, err
	}
	refundAmount, err := decodeAmount(refund.Amount)
	if err != nil {
		return policies.Refund{}, err
	}
	return policies.Refund{ID: refund.ID, Status: refund.Status, Amount: refundAmount}, nil
}

// Find fetches the current state of a payment.
func (c *Client) Find(ctx context.Context, paymentID string) (policies.Charge, error) {
	var payment paymentPayload
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &payment); err != nil {
		return policies.Charge{}, err
	}
	return toCharge(payment)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		return nil, c.roundTrip(ctx, method, path, in, out)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return policies.ErrGatewayUnavailable
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.ShopID, c.Secret)
	req.Header.Set("Content-Type", "application/json")
	if method != http.MethodGet {
		req.Header.Set("Idempotence-Key", uuid.NewString())
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("yookassa: %s %s returned %d", method, path, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		}
		if err := json.Unmarshal(payload, &apiErr); err == nil && apiErr.Description != "" {
			if c.Logger != nil {
				c.Logger.Warn("gateway rejected request", "method", method, "path", path, "code", apiErr.Code)
			}
			return fmt.Errorf("yookassa: %s (%s)", apiErr.Description, apiErr.Code)
		}
		return fmt.Errorf("yookassa: %s %s returned %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(payload, out)
}

func toCharge(p paymentPayload) (policies.Charge, error) {
	amount, err := decodeAmount(p.Amount)
	if err != nil {
		return policies.Charge{}, err
	}
	charge := policies.Charge{
		ID:       p.ID,
		Status:   p.Status,
		Paid:     p.Paid,
		Amount:   amount,
		Metadata: p.Metadata,
	}
	if p.Confirmation != nil {
		charge.ConfirmationURL = p.Confirmation.URL
	}
	return charge, nil
}

// encodeAmount renders minor units as the decimal string the API expects.
func encodeAmount(m money.Money) amountPayload {
	sign := ""
	amount := m.Amount
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return amountPayload{
		Value:    fmt.Sprintf("%s%d.%02d", sign, amount/100, amount%100),
		Currency: m.Currency,
	}
}

// ParseAmount converts the API's decimal value ("1234.50") into minor units.
func ParseAmount(value, currency string) (money.Money, error) {
	value = strings.TrimSpace(value)
	negative := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(value, "-")

	whole, frac, _ := strings.Cut(value, ".")
	major, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return money.Money{}, fmt.Errorf("yookassa: malformed amount %q", value)
	}
	var minor int64
	if frac != "" {
		if len(frac) > 2 {
			frac = frac[:2]
		}
		for len(frac) < 2 {
			frac += "0"
		}
		minor, err = strconv.ParseInt(frac, 10, 64)
		if err != nil {
			return money.Money{}, fmt.Errorf("yookassa: malformed amount %q", value)
		}
	}
	total := major*100 + minor
	if negative {
		total = -total
	}
	return money.New(total, currency)
}

func decodeAmount(p amountPayload) (money.Money, error) {
	return ParseAmount(p.Value, p.Currency)
}

var _ policies.PaymentGateway = (*Client)(nil)
