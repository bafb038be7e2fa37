package reviews

import (
	"context"

	"renta/internal/app/dto"
	"renta/internal/app/handlers/support"
	"renta/internal/app/queries"
	"renta/internal/app/uow"
	domainspaces "renta/internal/domain/spaces"
)

const (
	listSpaceReviewsKey   = "reviews.list_space"
	listPendingReviewsKey = "reviews.list_pending"
)

// SpaceReviewsQuery lists a space's approved reviews.
type SpaceReviewsQuery struct {
	SpaceID string
	Limit   int
	Offset  int
}

func (q SpaceReviewsQuery) Key() string { return listSpaceReviewsKey }

type SpaceReviewsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SpaceReviewsHandler) Handle(ctx context.Context, q SpaceReviewsQuery) (dto.ReviewCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	reviews, err := unit.Reviews().ListBySpace(ctx, domainspaces.SpaceID(q.SpaceID), true, limit, offset)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	return dto.MapReviews(reviews), nil
}

// PendingReviewsQuery is the moderation queue.
type PendingReviewsQuery struct {
	Limit int
}

func (q PendingReviewsQuery) Key() string { return listPendingReviewsKey }

type PendingReviewsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *PendingReviewsHandler) Handle(ctx context.Context, q PendingReviewsQuery) (dto.ReviewCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	reviews, err := unit.Reviews().ListPending(ctx, limit)
	if err != nil {
		return dto.ReviewCollection{}, err
	}
	return dto.MapReviews(reviews), nil
}

var _ queries.Handler[SpaceReviewsQuery, dto.ReviewCollection] = (*SpaceReviewsHandler)(nil)
var _ queries.Handler[PendingReviewsQuery, dto.ReviewCollection] = (*PendingReviewsHandler)(nil)
