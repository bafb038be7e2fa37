package reviews

import (
	"errors"
	"strings"
	"testing"
	"time"
)

var testNow = time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)

func validParams() SubmitParams {
	return SubmitParams{
		ID:        "rv-1",
		SpaceID:   "sp-1",
		AuthorID:  "user-1",
		BookingID: "bk-1",
		Rating:    5,
		Comment:   "Great space, very clean and quiet.",
		CreatedAt: testNow,
	}
}

func TestSubmitValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *SubmitParams)
		want   error
	}{
		{"rating too low", func(p *SubmitParams) { p.Rating = 0 }, ErrInvalidRating},
		{"rating too high", func(p *SubmitParams) { p.Rating = 6 }, ErrInvalidRating},
		{"comment too short", func(p *SubmitParams) { p.Comment = "nice" }, ErrCommentTooShort},
		{"comment too long", func(p *SubmitParams) { p.Comment = strings.Repeat("a", 2001) }, ErrCommentTooLong},
		{"profane comment", func(p *SubmitParams) { p.Comment = "Отличное место, но хозяин мудак" }, ErrCommentProfane},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := validParams()
			tc.mutate(&params)
			if _, err := Submit(params); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestSubmitProducesPendingReview(t *testing.T) {
	review, err := Submit(validParams())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if review.Approved || review.Moderated {
		t.Error("fresh review must await moderation")
	}
	if len(review.PendingEvents()) != 1 {
		t.Errorf("expected one submitted event, got %d", len(review.PendingEvents()))
	}
}

func TestModerationIsOneShot(t *testing.T) {
	review, err := Submit(validParams())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if err := review.Approve(testNow); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !review.Approved || !review.Moderated {
		t.Error("approve must publish the review")
	}
	if err := review.Reject(testNow); !errors.Is(err, ErrAlreadyModerated) {
		t.Errorf("second decision: got %v", err)
	}

	rejected, _ := Submit(validParams())
	if err := rejected.Reject(testNow); err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if rejected.Approved {
		t.Error("rejected review must stay hidden")
	}
	if err := rejected.Approve(testNow); !errors.Is(err, ErrAlreadyModerated) {
		t.Errorf("approve after reject: got %v", err)
	}
}
