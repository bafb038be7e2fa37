package reviews

import (
	"time"

	"renta/internal/domain/spaces"
)

type ReviewSubmitted struct {
	ReviewID ReviewID
	SpaceID  spaces.SpaceID
	Rating   int
	At       time.Time
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }

type ReviewApproved struct {
	ReviewID ReviewID
	SpaceID  spaces.SpaceID
	Rating   int
	At       time.Time
}

func (e ReviewApproved) EventName() string     { return "review.approved" }
func (e ReviewApproved) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewApproved) OccurredAt() time.Time { return e.At }

type ReviewRejected struct {
	ReviewID ReviewID
	SpaceID  spaces.SpaceID
	At       time.Time
}

func (e ReviewRejected) EventName() string     { return "review.rejected" }
func (e ReviewRejected) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewRejected) OccurredAt() time.Time { return e.At }
