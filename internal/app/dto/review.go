package dto

import (
	"time"

	domainreviews "renta/internal/domain/reviews"
)

type Review struct {
	ID        string    `json:"id"`
	SpaceID   string    `json:"space_id"`
	AuthorID  string    `json:"author_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	Approved  bool      `json:"approved"`
	Moderated bool      `json:"moderated"`
	CreatedAt time.Time `json:"created_at"`
}

type ReviewCollection struct {
	Items []Review `json:"items"`
}

func MapReview(review *domainreviews.Review) Review {
	return Review{
		ID:        string(review.ID),
		SpaceID:   string(review.SpaceID),
		AuthorID:  review.AuthorID,
		Rating:    review.Rating,
		Comment:   review.Comment,
		Approved:  review.Approved,
		Moderated: review.Moderated,
		CreatedAt: review.CreatedAt,
	}
}

func MapReviews(reviews []*domainreviews.Review) ReviewCollection {
	items := make([]Review, 0, len(reviews))
	for _, review := range reviews {
		items = append(items, MapReview(review))
	}
	return ReviewCollection{Items: items}
}
