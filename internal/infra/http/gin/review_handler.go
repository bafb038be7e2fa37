package ginserver

import (
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	reviewapp "renta/internal/app/handlers/reviews"
	"renta/internal/app/queries"
	domainreviews "renta/internal/domain/reviews"
)

type ReviewHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
}

type submitReviewRequest struct {
	BookingID string `json:"booking_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
}

func (h ReviewHandler) Submit(c *gin.Context) {
	user, ok := requireRole(c, "")
	if !ok {
		return
	}
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reviewapp.SubmitReviewCommand{
		SpaceID:   c.Param("id"),
		AuthorID:  user.ID,
		BookingID: req.BookingID,
		Rating:    req.Rating,
		Comment:   req.Comment,
		Now:       time.Now(),
	}
	result, err := commands.Dispatch[reviewapp.SubmitReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondReviewError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h ReviewHandler) ListForSpace(c *gin.Context) {
	query := reviewapp.SpaceReviewsQuery{
		SpaceID: c.Param("id"),
		Limit:   parseIntWithDefault(c.Query("limit"), 20),
		Offset:  parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[reviewapp.SpaceReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewHandler) ListPending(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}
	query := reviewapp.PendingReviewsQuery{Limit: parseIntWithDefault(c.Query("limit"), 50)}
	result, err := queries.Ask[reviewapp.PendingReviewsQuery, dto.ReviewCollection](c.Request.Context(), h.Queries, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h ReviewHandler) Moderate(c *gin.Context) {
	user, ok := requireStaff(c)
	if !ok {
		return
	}
	var req struct {
		Approve bool `json:"approve"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := reviewapp.ModerateReviewCommand{
		ReviewID:    c.Param("reviewID"),
		ModeratorID: user.ID,
		Approve:     req.Approve,
	}
	result, err := commands.Dispatch[reviewapp.ModerateReviewCommand, dto.Review](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondReviewError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func respondReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainreviews.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
	case errors.Is(err, domainreviews.ErrAlreadyReviewed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

var _ ReviewHTTP = ReviewHandler{}
