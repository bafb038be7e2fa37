package spaces

import (
	"errors"
	"testing"
	"time"

	"renta/internal/domain/shared/money"
)

var testNow = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

func newTestSpace(t *testing.T) *Space {
	t.Helper()
	s, err := NewSpace(CreateParams{
		ID:       "sp-1",
		Owner:    "owner-1",
		Title:    "Loft on Tverskaya",
		Category: "office",
		Address:  Address{Line1: "Tverskaya 1", City: "Moscow"},
		AreaSqM:  42,
		Capacity: 10,
		Now:      testNow,
	})
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	return s
}

func TestNewSpaceValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *CreateParams)
		want   error
	}{
		{"missing owner", func(p *CreateParams) { p.Owner = "" }, ErrOwnerRequired},
		{"missing title", func(p *CreateParams) { p.Title = "  " }, ErrTitleRequired},
		{"missing category", func(p *CreateParams) { p.Category = "" }, ErrCategoryRequired},
		{"zero capacity", func(p *CreateParams) { p.Capacity = 0 }, ErrCapacityInvalid},
		{"negative area", func(p *CreateParams) { p.AreaSqM = -1 }, ErrAreaInvalid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			params := CreateParams{
				ID: "sp", Owner: "owner", Title: "Studio", Category: "studio",
				AreaSqM: 10, Capacity: 2, Now: testNow,
			}
			tc.mutate(&params)
			if _, err := NewSpace(params); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPublishLifecycle(t *testing.T) {
	s := newTestSpace(t)
	if s.State != SpaceDraft {
		t.Fatalf("fresh space state: %s", s.State)
	}

	if err := s.Publish(testNow); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if s.State != SpaceActive {
		t.Errorf("state after publish: %s", s.State)
	}
	if err := s.Publish(testNow); !errors.Is(err, ErrInvalidState) {
		t.Errorf("double publish: got %v", err)
	}

	if err := s.Suspend("complaints", testNow); err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	if s.State != SpaceSuspended {
		t.Errorf("state after suspend: %s", s.State)
	}
	// Suspended spaces can be re-published after review.
	if err := s.Publish(testNow); err != nil {
		t.Errorf("re-publish after suspend: %v", err)
	}
}

func TestPublishRequiresAddress(t *testing.T) {
	s, err := NewSpace(CreateParams{
		ID: "sp-2", Owner: "owner", Title: "Garage", Category: "garage",
		AreaSqM: 18, Capacity: 1, Now: testNow,
	})
	if err != nil {
		t.Fatalf("NewSpace: %v", err)
	}
	if err := s.Publish(testNow); !errors.Is(err, ErrAddressRequired) {
		t.Errorf("publish without address: got %v", err)
	}
}

func TestRelocateClearsCoordinates(t *testing.T) {
	s := newTestSpace(t)
	s.SetCoordinates(55.75, 37.61, testNow)

	if err := s.Relocate(Address{Line1: "Arbat 10", City: "Moscow"}, testNow); err != nil {
		t.Fatalf("Relocate: %v", err)
	}
	if s.Address.Lat != 0 || s.Address.Lon != 0 {
		t.Error("moving must clear stale coordinates")
	}

	s.SetCoordinates(55.75, 37.61, testNow)
	if err := s.Relocate(Address{Line1: "Arbat 10", City: "Moscow", Region: "Center"}, testNow); err != nil {
		t.Fatalf("Relocate: %v", err)
	}
	if s.Address.Lat == 0 {
		t.Error("same line and city must keep coordinates")
	}
}

func TestPrimaryImageInvariant(t *testing.T) {
	s := newTestSpace(t)

	s.AddImage(Image{ID: "img-1", URL: "u1"}, testNow)
	if img, ok := s.PrimaryImage(); !ok || img.ID != "img-1" {
		t.Fatalf("first image must become primary, got %+v ok=%v", img, ok)
	}

	s.AddImage(Image{ID: "img-2", URL: "u2"}, testNow)
	s.AddImage(Image{ID: "img-3", URL: "u3", Primary: true}, testNow)
	assertSinglePrimary(t, s, "img-3")

	if err := s.SetPrimaryImage("img-2", testNow); err != nil {
		t.Fatalf("SetPrimaryImage: %v", err)
	}
	assertSinglePrimary(t, s, "img-2")

	if err := s.SetPrimaryImage("missing", testNow); !errors.Is(err, ErrImageNotFound) {
		t.Errorf("unknown image: got %v", err)
	}

	if err := s.RemoveImage("img-2", testNow); err != nil {
		t.Fatalf("RemoveImage: %v", err)
	}
	assertSinglePrimary(t, s, "img-1")
}

func assertSinglePrimary(t *testing.T, s *Space, wantID string) {
	t.Helper()
	count := 0
	for _, img := range s.Images {
		if img.Primary {
			count++
			if img.ID != wantID {
				t.Errorf("primary image: got %s, want %s", img.ID, wantID)
			}
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one primary image, got %d", count)
	}
}

func TestPricingUpsert(t *testing.T) {
	s := newTestSpace(t)

	if err := s.SetPrice("day", money.Must(100000, "RUB"), testNow); err != nil {
		t.Fatalf("SetPrice: %v", err)
	}
	if err := s.SetPrice("Day", money.Must(90000, "RUB"), testNow); err != nil {
		t.Fatalf("SetPrice upsert: %v", err)
	}
	if len(s.Prices) != 1 {
		t.Fatalf("upsert must replace, got %d rows", len(s.Prices))
	}
	price, err := s.ActivePrice("day")
	if err != nil || price.Amount.Amount != 90000 {
		t.Errorf("ActivePrice: got %d, %v", price.Amount.Amount, err)
	}

	if err := s.SetPrice("day", money.Must(0, "RUB"), testNow); !errors.Is(err, ErrPriceNegative) {
		t.Errorf("zero price: got %v", err)
	}
	if err := s.SetPrice("fortnight", money.Must(100, "RUB"), testNow); !errors.Is(err, ErrPeriodUnknown) {
		t.Errorf("unknown period: got %v", err)
	}

	if err := s.DeactivatePrice("day", testNow); err != nil {
		t.Fatalf("DeactivatePrice: %v", err)
	}
	if _, err := s.ActivePrice("day"); !errors.Is(err, ErrPriceNotFound) {
		t.Errorf("deactivated price must be invisible: got %v", err)
	}
}

func TestMinActivePrice(t *testing.T) {
	s := newTestSpace(t)
	if _, ok := s.MinActivePrice(); ok {
		t.Error("no prices yet")
	}
	_ = s.SetPrice("hour", money.Must(5000, "RUB"), testNow)
	_ = s.SetPrice("day", money.Must(80000, "RUB"), testNow)
	price, ok := s.MinActivePrice()
	if !ok || price.PeriodCode != "hour" {
		t.Errorf("MinActivePrice: got %+v ok=%v", price, ok)
	}
	_ = s.DeactivatePrice("hour", testNow)
	price, ok = s.MinActivePrice()
	if !ok || price.PeriodCode != "day" {
		t.Errorf("MinActivePrice after deactivation: got %+v ok=%v", price, ok)
	}
}

func TestApplyReview(t *testing.T) {
	s := newTestSpace(t)
	s.ApplyReview(4, testNow)
	s.ApplyReview(2, testNow)
	if s.Reviews != 2 {
		t.Errorf("review count: %d", s.Reviews)
	}
	if s.Rating != 3.0 {
		t.Errorf("rating: %f", s.Rating)
	}
}

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Loft on Tverskaya", "loft-on-tverskaya"},
		{"  Cozy   Studio 42 ", "cozy-studio-42"},
		{"Уютный лофт", ""},
		{"mixed Лофт space", "mixed-space"},
	}
	for _, tc := range cases {
		if got := Slugify(tc.in); got != tc.want {
			t.Errorf("Slugify(%q): got %q, want %q", tc.in, got, tc.want)
		}
	}
}
