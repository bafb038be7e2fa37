package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	bookingapp "renta/internal/app/handlers/booking"
	"renta/internal/app/queries"
	domainbooking "renta/internal/domain/booking"
	"renta/internal/infra/obs"
)

type BookingHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type requestBookingRequest struct {
	SpaceID      string    `json:"space_id"`
	PeriodCode   string    `json:"period"`
	PeriodsCount int       `json:"periods_count"`
	Start        time.Time `json:"start"`
	Comment      string    `json:"comment"`
}

func (h BookingHandler) Quote(c *gin.Context) {
	start, ok := parseFlexibleTime(c.Query("start"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start is required"})
		return
	}
	query := bookingapp.QuoteBookingQuery{
		SpaceID:      c.Query("space_id"),
		PeriodCode:   c.Query("period"),
		PeriodsCount: parseIntWithDefault(c.Query("periods_count"), 1),
		Start:        start,
	}
	result, err := queries.Ask[bookingapp.QuoteBookingQuery, dto.Quote](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Create(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req requestBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := bookingapp.RequestBookingCommand{
		CommandID:       uuid.NewString(),
		SpaceID:         req.SpaceID,
		TenantID:        user.ID,
		PeriodCode:      req.PeriodCode,
		PeriodsCount:    req.PeriodsCount,
		Start:           req.Start,
		Comment:         req.Comment,
		IdempotencyKeyV: c.GetHeader("Idempotency-Key"),
	}
	result, err := commands.Dispatch[bookingapp.RequestBookingCommand, *bookingapp.RequestBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	obs.IncBookingRequested()
	c.JSON(http.StatusAccepted, result)
}

func (h BookingHandler) ListOwn(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	result, err := queries.Ask[bookingapp.TenantBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, bookingapp.TenantBookingsQuery{TenantID: user.ID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) ListForSpace(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	query := bookingapp.SpaceBookingsQuery{
		SpaceID:          c.Param("id"),
		ActorID:          user.ID,
		Staff:            user.Staff(),
		IncludeCancelled: c.Query("include_cancelled") == "true",
	}
	result, err := queries.Ask[bookingapp.SpaceBookingsQuery, dto.BookingCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h BookingHandler) Confirm(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := bookingapp.ConfirmBookingCommand{BookingID: c.Param("id"), ActorID: user.ID, Staff: user.Staff()}
	if _, err := commands.Dispatch[bookingapp.ConfirmBookingCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondBookingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h BookingHandler) Complete(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	cmd := bookingapp.CompleteBookingCommand{BookingID: c.Param("id"), ActorID: user.ID, Staff: user.Staff()}
	if _, err := commands.Dispatch[bookingapp.CompleteBookingCommand, struct{}](c.Request.Context(), h.Commands, cmd); err != nil {
		respondBookingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h BookingHandler) Cancel(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)
	cmd := bookingapp.CancelBookingCommand{
		BookingID: c.Param("id"),
		ActorID:   user.ID,
		Staff:     user.Staff(),
		Reason:    req.Reason,
	}
	result, err := commands.Dispatch[bookingapp.CancelBookingCommand, *bookingapp.CancelBookingResult](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondBookingError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func respondBookingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainbooking.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	case errors.Is(err, bookingapp.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "not allowed"})
	case errors.Is(err, domainbooking.ErrRangeConflict), errors.Is(err, bookingapp.ErrSpaceUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

var _ BookingHTTP = BookingHandler{}
