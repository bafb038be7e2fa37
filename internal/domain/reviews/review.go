package reviews

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"renta/internal/domain/shared/events"
	"renta/internal/domain/spaces"
)

var (
	ErrInvalidRating    = errors.New("reviews: rating must be between 1 and 5")
	ErrCommentTooShort  = errors.New("reviews: comment must be at least 10 characters")
	ErrCommentTooLong   = errors.New("reviews: comment must not exceed 2000 characters")
	ErrCommentProfane   = errors.New("reviews: comment contains profanity")
	ErrAlreadyReviewed  = errors.New("reviews: author already reviewed this space")
	ErrNotFound         = errors.New("reviews: not found")
	ErrAlreadyModerated = errors.New("reviews: already moderated")
)

const (
	minCommentLength = 10
	maxCommentLength = 2000
)

type ReviewID string

// Review is one author's opinion of a space. Reviews require moderator
// approval before they become publicly visible; (space, author) pairs
// are unique.
type Review struct {
	ID        ReviewID
	SpaceID   spaces.SpaceID
	AuthorID  string
	BookingID string
	Rating    int
	Comment   string
	Approved  bool
	Moderated bool
	CreatedAt time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id ReviewID) (*Review, error)
	BySpaceAuthor(ctx context.Context, spaceID spaces.SpaceID, authorID string) (*Review, error)
	ListBySpace(ctx context.Context, spaceID spaces.SpaceID, approvedOnly bool, limit, offset int) ([]*Review, error)
	ListPending(ctx context.Context, limit int) ([]*Review, error)
	Save(ctx context.Context, review *Review) error
	Count(ctx context.Context) (int, error)
}

type SubmitParams struct {
	ID        ReviewID
	SpaceID   spaces.SpaceID
	AuthorID  string
	BookingID string
	Rating    int
	Comment   string
	CreatedAt time.Time
}

// Submit validates rating bounds and the comment (length + profanity
// filter) and produces an unapproved review awaiting moderation.
func Submit(params SubmitParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	comment := strings.TrimSpace(params.Comment)
	if utf8.RuneCountInString(comment) < minCommentLength {
		return nil, ErrCommentTooShort
	}
	if utf8.RuneCountInString(comment) > maxCommentLength {
		return nil, ErrCommentTooLong
	}
	if profane, _ := ContainsProfanity(comment); profane {
		return nil, ErrCommentProfane
	}
	review := &Review{
		ID:        params.ID,
		SpaceID:   params.SpaceID,
		AuthorID:  params.AuthorID,
		BookingID: params.BookingID,
		Rating:    params.Rating,
		Comment:   comment,
		CreatedAt: params.CreatedAt.UTC(),
	}
	review.Record(ReviewSubmitted{ReviewID: review.ID, SpaceID: review.SpaceID, Rating: review.Rating, At: review.CreatedAt})
	return review, nil
}

// Approve publishes the review. Moderation is one-shot.
func (r *Review) Approve(now time.Time) error {
	if r.Moderated {
		return ErrAlreadyModerated
	}
	r.Approved = true
	r.Moderated = true
	r.Record(ReviewApproved{ReviewID: r.ID, SpaceID: r.SpaceID, Rating: r.Rating, At: now.UTC()})
	return nil
}

// Reject hides the review permanently.
func (r *Review) Reject(now time.Time) error {
	if r.Moderated {
		return ErrAlreadyModerated
	}
	r.Approved = false
	r.Moderated = true
	r.Record(ReviewRejected{ReviewID: r.ID, SpaceID: r.SpaceID, At: now.UTC()})
	return nil
}
