package spaces

import (
	"context"
	"errors"
	"strings"
	"time"

	"renta/internal/domain/shared/events"
)

var (
	ErrTitleRequired    = errors.New("spaces: title is required")
	ErrOwnerRequired    = errors.New("spaces: owner is required")
	ErrCapacityInvalid  = errors.New("spaces: capacity must be at least 1")
	ErrAreaInvalid      = errors.New("spaces: area must be positive")
	ErrInvalidState     = errors.New("spaces: invalid state transition")
	ErrAddressRequired  = errors.New("spaces: address must be provided when publishing")
	ErrImageNotFound    = errors.New("spaces: image not found")
	ErrNotFound         = errors.New("spaces: not found")
	ErrCategoryRequired = errors.New("spaces: category is required")
)

type SpaceID string
type OwnerID string

type SpaceState string

const (
	SpaceDraft     SpaceState = "DRAFT"
	SpaceActive    SpaceState = "ACTIVE"
	SpaceSuspended SpaceState = "SUSPENDED"
)

type Address struct {
	Line1   string
	City    string
	Region  string
	Country string
	Lat     float64
	Lon     float64
}

func (a Address) Valid() bool {
	return strings.TrimSpace(a.Line1) != "" && strings.TrimSpace(a.City) != ""
}

// Image is an uploaded photo of the space. At most one image carries
// the Primary flag at any time; SetPrimaryImage maintains that.
type Image struct {
	ID      string
	URL     string
	Caption string
	Primary bool
	AddedAt time.Time
}

type Space struct {
	ID          SpaceID
	Owner       OwnerID
	Title       string
	Description string
	Slug        string
	Category    string
	Address     Address
	AreaSqM     float64
	Capacity    int
	State       SpaceState
	Featured    bool
	Views       int64
	Images      []Image
	Prices      []Price
	Rating      float64
	Reviews     int
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.EventRecorder
}

type Repository interface {
	ByID(ctx context.Context, id SpaceID) (*Space, error)
	BySlug(ctx context.Context, slug string) (*Space, error)
	Save(ctx context.Context, space *Space) error
	Search(ctx context.Context, params SearchParams) (SearchResult, error)
	IncrementViews(ctx context.Context, id SpaceID) error
	CountByState(ctx context.Context) (map[SpaceState]int, error)
}

type CreateParams struct {
	ID          SpaceID
	Owner       OwnerID
	Title       string
	Description string
	Slug        string
	Category    string
	Address     Address
	AreaSqM     float64
	Capacity    int
	Now         time.Time
}

func NewSpace(params CreateParams) (*Space, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, errors.New("spaces: id is required")
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if strings.TrimSpace(params.Category) == "" {
		return nil, ErrCategoryRequired
	}
	if params.Capacity < 1 {
		return nil, ErrCapacityInvalid
	}
	if params.AreaSqM <= 0 {
		return nil, ErrAreaInvalid
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()
	slug := strings.TrimSpace(params.Slug)
	if slug == "" {
		slug = Slugify(title)
	}
	s := &Space{
		ID:          params.ID,
		Owner:       params.Owner,
		Title:       title,
		Description: strings.TrimSpace(params.Description),
		Slug:        slug,
		Category:    strings.TrimSpace(strings.ToLower(params.Category)),
		Address:     params.Address,
		AreaSqM:     params.AreaSqM,
		Capacity:    params.Capacity,
		State:       SpaceDraft,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.Record(SpaceCreated{SpaceID: s.ID, Owner: s.Owner, At: now})
	return s, nil
}

// Publish makes the space visible in the public catalog.
func (s *Space) Publish(now time.Time) error {
	if s.State != SpaceDraft && s.State != SpaceSuspended {
		return ErrInvalidState
	}
	if !s.Address.Valid() {
		return ErrAddressRequired
	}
	s.State = SpaceActive
	s.touch(now)
	s.Record(SpacePublished{SpaceID: s.ID, At: s.UpdatedAt})
	return nil
}

// Suspend pulls the space from the catalog (moderation action).
func (s *Space) Suspend(reason string, now time.Time) error {
	if s.State != SpaceActive {
		return ErrInvalidState
	}
	s.State = SpaceSuspended
	s.touch(now)
	s.Record(SpaceTakenDown{SpaceID: s.ID, Reason: reason, At: s.UpdatedAt})
	return nil
}

// Relocate updates the address. Coordinates are cleared so the
// geocoder can re-resolve them out of band.
func (s *Space) Relocate(addr Address, now time.Time) error {
	if !addr.Valid() {
		return ErrAddressRequired
	}
	moved := !strings.EqualFold(addr.Line1, s.Address.Line1) || !strings.EqualFold(addr.City, s.Address.City)
	s.Address = addr
	if moved {
		s.Address.Lat = 0
		s.Address.Lon = 0
	}
	s.touch(now)
	return nil
}

// SetCoordinates stores a geocoder result.
func (s *Space) SetCoordinates(lat, lon float64, now time.Time) {
	s.Address.Lat = lat
	s.Address.Lon = lon
	s.touch(now)
}

// AddImage appends an image; the first image becomes primary.
func (s *Space) AddImage(img Image, now time.Time) {
	if len(s.Images) == 0 {
		img.Primary = true
	} else if img.Primary {
		s.demotePrimary()
	}
	img.AddedAt = now.UTC()
	s.Images = append(s.Images, img)
	s.touch(now)
}

// SetPrimaryImage flags the given image primary, demoting any other.
func (s *Space) SetPrimaryImage(imageID string, now time.Time) error {
	idx := -1
	for i := range s.Images {
		if s.Images[i].ID == imageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrImageNotFound
	}
	s.demotePrimary()
	s.Images[idx].Primary = true
	s.touch(now)
	return nil
}

// RemoveImage deletes an image; when the primary goes away the first
// remaining image inherits the flag.
func (s *Space) RemoveImage(imageID string, now time.Time) error {
	idx := -1
	for i := range s.Images {
		if s.Images[i].ID == imageID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrImageNotFound
	}
	wasPrimary := s.Images[idx].Primary
	s.Images = append(s.Images[:idx], s.Images[idx+1:]...)
	if wasPrimary && len(s.Images) > 0 {
		s.Images[0].Primary = true
	}
	s.touch(now)
	return nil
}

// PrimaryImage returns the flagged image, if any.
func (s *Space) PrimaryImage() (Image, bool) {
	for _, img := range s.Images {
		if img.Primary {
			return img, true
		}
	}
	return Image{}, false
}

// ApplyReview folds a new approved review into the cached aggregates.
func (s *Space) ApplyReview(rating int, now time.Time) {
	total := s.Rating*float64(s.Reviews) + float64(rating)
	s.Reviews++
	s.Rating = total / float64(s.Reviews)
	s.touch(now)
}

func (s *Space) demotePrimary() {
	for i := range s.Images {
		s.Images[i].Primary = false
	}
}

func (s *Space) touch(now time.Time) {
	s.UpdatedAt = now.UTC()
}

// Slugify builds a URL-safe slug from a title. Non-ASCII runes are
// dropped rather than transliterated.
func Slugify(title string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r == ' ' || r == '-' || r == '_':
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
