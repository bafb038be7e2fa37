package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	paymentapp "renta/internal/app/handlers/payment"
	"renta/internal/app/queries"
	domainbooking "renta/internal/domain/booking"
	"renta/internal/infra/gateway/yookassa"
	"renta/internal/infra/obs"
)

type PaymentHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Logger   *slog.Logger
}

type startCheckoutRequest struct {
	ReturnURL string `json:"return_url"`
}

func (h PaymentHandler) StartCheckout(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req startCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := paymentapp.StartCheckoutCommand{
		BookingID:       c.Param("id"),
		ActorID:         user.ID,
		ReturnURL:       req.ReturnURL,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[paymentapp.StartCheckoutCommand, *dto.Checkout](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h PaymentHandler) ListTransactions(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	query := paymentapp.BookingTransactionsQuery{
		BookingID: c.Param("id"),
		ActorID:   user.ID,
		Staff:     user.Staff(),
	}
	result, err := queries.Ask[paymentapp.BookingTransactionsQuery, dto.TransactionCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// webhookNotification mirrors the gateway's notification envelope.
type webhookNotification struct {
	Event  string `json:"event"`
	Object struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Amount struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"amount"`
		PaymentID string            `json:"payment_id"`
		Metadata  map[string]string `json:"metadata"`
		CreatedAt time.Time         `json:"created_at"`
	} `json:"object"`
}

// Webhook ingests gateway notifications. The gateway retries until it
// sees 200, so any transient failure answers 500 and a replay follows.
func (h PaymentHandler) Webhook(c *gin.Context) {
	var note webhookNotification
	if err := c.ShouldBindJSON(&note); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed notification"})
		return
	}
	if note.Event == "" || note.Object.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed notification"})
		return
	}

	amount, err := yookassa.ParseAmount(note.Object.Amount.Value, note.Object.Amount.Currency)
	if err != nil && note.Object.Amount.Value != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed amount"})
		return
	}

	cmd := paymentapp.ProcessWebhookCommand{
		EventType:  note.Event,
		Metadata:   note.Object.Metadata,
		Amount:     amount,
		OccurredAt: note.Object.CreatedAt,
	}
	if note.Event == paymentapp.EventRefundSucceeded {
		cmd.RefundID = note.Object.ID
		cmd.PaymentID = note.Object.PaymentID
	} else {
		cmd.PaymentID = note.Object.ID
	}

	result, err := commands.Dispatch[paymentapp.ProcessWebhookCommand, *paymentapp.ProcessWebhookResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		if errors.Is(err, paymentapp.ErrBookingUnresolved) {
			// Not our payment; acknowledge so the gateway stops retrying.
			obs.IncWebhookEvent(note.Event, "unresolved")
			c.Status(http.StatusOK)
			return
		}
		if h.Logger != nil {
			h.Logger.Error("webhook processing failed", "event", note.Event, "object_id", note.Object.ID, "error", err)
		}
		obs.IncWebhookEvent(note.Event, "error")
		c.Status(http.StatusInternalServerError)
		return
	}
	outcome := "processed"
	if result.Duplicate {
		outcome = "duplicate"
	}
	obs.IncWebhookEvent(note.Event, outcome)
	c.Status(http.StatusOK)
}

func respondPaymentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, paymentapp.ErrNotBookingOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, domainbooking.ErrAlreadyPaid), errors.Is(err, domainbooking.ErrNotPayable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		respondBookingError(c, err)
	}
}

var _ PaymentHTTP = PaymentHandler{}
