package reviews

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	"renta/internal/app/uow"
	domainaudit "renta/internal/domain/audit"
	domainreviews "renta/internal/domain/reviews"
)

const moderateReviewKey = "reviews.moderate"

// ModerateReviewCommand approves or rejects a pending review. Approval
// folds the rating into the space aggregates.
type ModerateReviewCommand struct {
	ReviewID    string
	ModeratorID string
	Approve     bool
}

func (c ModerateReviewCommand) Key() string { return moderateReviewKey }

type ModerateReviewHandler struct {
	Logger *slog.Logger
}

func (h *ModerateReviewHandler) Handle(ctx context.Context, cmd ModerateReviewCommand) (dto.Review, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.Review{}, uow.ErrUnitOfWorkMissing
	}

	review, err := unit.Reviews().ByID(ctx, domainreviews.ReviewID(cmd.ReviewID))
	if err != nil {
		return dto.Review{}, err
	}

	now := time.Now().UTC()
	verdict := "rejected"
	if cmd.Approve {
		if err := review.Approve(now); err != nil {
			return dto.Review{}, err
		}
		verdict = "approved"
		space, err := unit.Spaces().ByID(ctx, review.SpaceID)
		if err != nil {
			return dto.Review{}, err
		}
		space.ApplyReview(review.Rating, now)
		if err := unit.Spaces().Save(ctx, space); err != nil {
			return dto.Review{}, err
		}
	} else {
		if err := review.Reject(now); err != nil {
			return dto.Review{}, err
		}
	}

	if err := unit.Reviews().Save(ctx, review); err != nil {
		return dto.Review{}, err
	}
	if err := unit.Audit().Append(ctx, domainaudit.NewEntry(uuid.NewString(), cmd.ModeratorID, domainaudit.ActionUpdate, "review", string(review.ID), verdict, now)); err != nil {
		return dto.Review{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("review moderated", "review_id", review.ID, "verdict", verdict, "moderator_id", cmd.ModeratorID)
	}
	return dto.MapReview(review), nil
}

var _ commands.Handler[ModerateReviewCommand, dto.Review] = (*ModerateReviewHandler)(nil)
