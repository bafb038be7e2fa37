package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	domainaudit "renta/internal/domain/audit"
	domainbooking "renta/internal/domain/booking"
	domainfavorites "renta/internal/domain/favorites"
	domainpayment "renta/internal/domain/payment"
	domainreviews "renta/internal/domain/reviews"
	"renta/internal/domain/shared/money"
	"renta/internal/domain/shared/timerange"
	domainspaces "renta/internal/domain/spaces"
)

// SpaceRepository is an in-memory implementation for tests and demos.
type SpaceRepository struct {
	mu    sync.RWMutex
	items map[domainspaces.SpaceID]*domainspaces.Space
}

func NewSpaceRepository() *SpaceRepository {
	return &SpaceRepository{items: make(map[domainspaces.SpaceID]*domainspaces.Space)}
}

func (r *SpaceRepository) ByID(ctx context.Context, id domainspaces.SpaceID) (*domainspaces.Space, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	space, ok := r.items[id]
	if !ok {
		return nil, domainspaces.ErrNotFound
	}
	return cloneSpace(space), nil
}

func (r *SpaceRepository) BySlug(ctx context.Context, slug string) (*domainspaces.Space, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, space := range r.items {
		if space.Slug == slug {
			return cloneSpace(space), nil
		}
	}
	return nil, domainspaces.ErrNotFound
}

func (r *SpaceRepository) Save(ctx context.Context, space *domainspaces.Space) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneSpace(space)
	stored.Version++
	r.items[space.ID] = stored
	space.Version = stored.Version
	return nil
}

func (r *SpaceRepository) Search(ctx context.Context, params domainspaces.SearchParams) (domainspaces.SearchResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	opts := params.Normalized()
	matches := make([]*domainspaces.Space, 0, len(r.items))
	for _, space := range r.items {
		if ctx != nil {
			select {
			case <-ctx.Done():
				return domainspaces.SearchResult{}, ctx.Err()
			default:
			}
		}

		if opts.OnlyActive && space.State != domainspaces.SpaceActive {
			continue
		}
		if opts.Owner != "" && space.Owner != opts.Owner {
			continue
		}
		if len(opts.States) > 0 && !stateIncluded(space.State, opts.States) {
			continue
		}
		if opts.City != "" && !strings.EqualFold(space.Address.City, opts.City) {
			continue
		}
		if opts.Category != "" && space.Category != opts.Category {
			continue
		}
		if opts.MinArea > 0 && space.AreaSqM < opts.MinArea {
			continue
		}
		if opts.MinCapacity > 0 && space.Capacity < opts.MinCapacity {
			continue
		}
		if opts.FeaturedOnly && !space.Featured {
			continue
		}
		if opts.PriceMin > 0 || opts.PriceMax > 0 {
			price, ok := space.MinActivePrice()
			if !ok {
				continue
			}
			if opts.PriceMin > 0 && price.Amount.Amount < opts.PriceMin {
				continue
			}
			if opts.PriceMax > 0 && price.Amount.Amount > opts.PriceMax {
				continue
			}
		}
		matches = append(matches, space)
	}

	sort.Slice(matches, func(i, j int) bool {
		switch opts.Sort {
		case domainspaces.SortByPriceDesc:
			return minPriceAmount(matches[i]) > minPriceAmount(matches[j])
		case domainspaces.SortByRating:
			if matches[i].Rating == matches[j].Rating {
				return minPriceAmount(matches[i]) < minPriceAmount(matches[j])
			}
			return matches[i].Rating > matches[j].Rating
		case domainspaces.SortByNewest:
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		default:
			return minPriceAmount(matches[i]) < minPriceAmount(matches[j])
		}
	})

	total := len(matches)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}
	page := make([]*domainspaces.Space, 0, end-start)
	for _, space := range matches[start:end] {
		page = append(page, cloneSpace(space))
	}
	return domainspaces.SearchResult{Items: page, Total: total}, nil
}

func (r *SpaceRepository) IncrementViews(ctx context.Context, id domainspaces.SpaceID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	space, ok := r.items[id]
	if !ok {
		return domainspaces.ErrNotFound
	}
	space.Views++
	return nil
}

func (r *SpaceRepository) CountByState(ctx context.Context) (map[domainspaces.SpaceState]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[domainspaces.SpaceState]int)
	for _, space := range r.items {
		counts[space.State]++
	}
	return counts, nil
}

func stateIncluded(state domainspaces.SpaceState, states []domainspaces.SpaceState) bool {
	for _, candidate := range states {
		if candidate == state {
			return true
		}
	}
	return false
}

func minPriceAmount(space *domainspaces.Space) int64 {
	if price, ok := space.MinActivePrice(); ok {
		return price.Amount.Amount
	}
	return 1<<62 - 1
}

func cloneSpace(s *domainspaces.Space) *domainspaces.Space {
	if s == nil {
		return nil
	}
	copySpace := *s
	copySpace.Images = append([]domainspaces.Image(nil), s.Images...)
	copySpace.Prices = append([]domainspaces.Price(nil), s.Prices...)
	return &copySpace
}

// BookingRepository keeps bookings in memory.
type BookingRepository struct {
	mu    sync.RWMutex
	items map[domainbooking.BookingID]*domainbooking.Booking
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[domainbooking.BookingID]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	booking, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(booking), nil
}

func (r *BookingRepository) Save(ctx context.Context, booking *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := cloneBooking(booking)
	stored.Version++
	r.items[booking.ID] = stored
	booking.Version = stored.Version
	return nil
}

func (r *BookingRepository) ListByTenant(ctx context.Context, tenantID string) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.TenantID == tenantID {
			matches = append(matches, cloneBooking(booking))
		}
	}
	sortBookingsNewestFirst(matches)
	return matches, nil
}

func (r *BookingRepository) ListBySpace(ctx context.Context, spaceID domainspaces.SpaceID, includeCancelled bool) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.SpaceID != spaceID {
			continue
		}
		if !includeCancelled && booking.State == domainbooking.StateCancelled {
			continue
		}
		matches = append(matches, cloneBooking(booking))
	}
	sortBookingsNewestFirst(matches)
	return matches, nil
}

func (r *BookingRepository) FindOverlapping(ctx context.Context, spaceID domainspaces.SpaceID, tr timerange.Range) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, booking := range r.items {
		if booking.SpaceID != spaceID {
			continue
		}
		if !activeState(booking.State) {
			continue
		}
		if booking.Range.Overlaps(tr) {
			matches = append(matches, cloneBooking(booking))
		}
	}
	return matches, nil
}

func (r *BookingRepository) ByPaymentID(ctx context.Context, paymentID string) (*domainbooking.Booking, error) {
	if strings.TrimSpace(paymentID) == "" {
		return nil, domainbooking.ErrNotFound
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, booking := range r.items {
		if booking.Prepayment.PaymentID == paymentID {
			return cloneBooking(booking), nil
		}
	}
	return nil, domainbooking.ErrNotFound
}

func (r *BookingRepository) CountByState(ctx context.Context) (map[domainbooking.State]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[domainbooking.State]int)
	for _, booking := range r.items {
		counts[booking.State]++
	}
	return counts, nil
}

func (r *BookingRepository) CountBySpace(ctx context.Context, states []domainbooking.State) (map[domainspaces.SpaceID]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	counts := make(map[domainspaces.SpaceID]int)
	for _, booking := range r.items {
		for _, state := range states {
			if booking.State == state {
				counts[booking.SpaceID]++
				break
			}
		}
	}
	return counts, nil
}

func (r *BookingRepository) SumTotals(ctx context.Context, states []domainbooking.State) (money.Money, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sum := money.Money{Currency: "RUB"}
	for _, booking := range r.items {
		for _, state := range states {
			if booking.State == state {
				sum.Amount += booking.Total.Amount
				if booking.Total.Currency != "" {
					sum.Currency = booking.Total.Currency
				}
				break
			}
		}
	}
	return sum, nil
}

func activeState(state domainbooking.State) bool {
	for _, candidate := range domainbooking.ActiveStates {
		if candidate == state {
			return true
		}
	}
	return false
}

func sortBookingsNewestFirst(items []*domainbooking.Booking) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	if b == nil {
		return nil
	}
	copyBooking := *b
	return &copyBooking
}

// TransactionRepository is the in-memory payment ledger. GetOrCreate
// enforces ExternalID uniqueness the way the mongo index does.
type TransactionRepository struct {
	mu         sync.Mutex
	byExternal map[string]domainpayment.Transaction
}

func NewTransactionRepository() *TransactionRepository {
	return &TransactionRepository{byExternal: make(map[string]domainpayment.Transaction)}
}

func (r *TransactionRepository) GetOrCreate(ctx context.Context, tx domainpayment.Transaction) (domainpayment.Transaction, bool, error) {
	if strings.TrimSpace(tx.ExternalID) == "" {
		return domainpayment.Transaction{}, false, domainpayment.ErrExternalIDRequired
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.byExternal[tx.ExternalID]; ok {
		return existing, false, nil
	}
	r.byExternal[tx.ExternalID] = tx
	return tx, true, nil
}

func (r *TransactionRepository) ListByBooking(ctx context.Context, bookingID domainbooking.BookingID) ([]domainpayment.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]domainpayment.Transaction, 0)
	for _, tx := range r.byExternal {
		if tx.BookingID == bookingID {
			matches = append(matches, tx)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *TransactionRepository) ListSince(ctx context.Context, since time.Time) ([]domainpayment.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]domainpayment.Transaction, 0)
	for _, tx := range r.byExternal {
		if !tx.CreatedAt.Before(since) {
			matches = append(matches, tx)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

func (r *TransactionRepository) SumByStatus(ctx context.Context, status domainpayment.TransactionStatus) (money.Money, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum := money.Money{Currency: "RUB"}
	for _, tx := range r.byExternal {
		if tx.Status != status {
			continue
		}
		sum.Amount += tx.Amount.Amount
		if tx.Amount.Currency != "" {
			sum.Currency = tx.Amount.Currency
		}
	}
	return sum, nil
}

// ReviewRepository stores reviews in memory.
type ReviewRepository struct {
	mu    sync.RWMutex
	items map[domainreviews.ReviewID]*domainreviews.Review
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{items: make(map[domainreviews.ReviewID]*domainreviews.Review)}
}

func (r *ReviewRepository) ByID(ctx context.Context, id domainreviews.ReviewID) (*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	review, ok := r.items[id]
	if !ok {
		return nil, domainreviews.ErrNotFound
	}
	return cloneReview(review), nil
}

func (r *ReviewRepository) BySpaceAuthor(ctx context.Context, spaceID domainspaces.SpaceID, authorID string) (*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, review := range r.items {
		if review.SpaceID == spaceID && review.AuthorID == authorID {
			return cloneReview(review), nil
		}
	}
	return nil, domainreviews.ErrNotFound
}

func (r *ReviewRepository) ListBySpace(ctx context.Context, spaceID domainspaces.SpaceID, approvedOnly bool, limit, offset int) ([]*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreviews.Review, 0)
	for _, review := range r.items {
		if review.SpaceID != spaceID {
			continue
		}
		if approvedOnly && !review.Approved {
			continue
		}
		matches = append(matches, review)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	total := len(matches)
	if offset > total {
		offset = total
	}
	end := total
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	page := make([]*domainreviews.Review, 0, end-offset)
	for _, review := range matches[offset:end] {
		page = append(page, cloneReview(review))
	}
	return page, nil
}

func (r *ReviewRepository) ListPending(ctx context.Context, limit int) ([]*domainreviews.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainreviews.Review, 0)
	for _, review := range r.items {
		if review.Moderated {
			continue
		}
		matches = append(matches, cloneReview(review))
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *ReviewRepository) Save(ctx context.Context, review *domainreviews.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.ID != review.ID && existing.SpaceID == review.SpaceID && existing.AuthorID == review.AuthorID {
			return domainreviews.ErrAlreadyReviewed
		}
	}
	r.items[review.ID] = cloneReview(review)
	return nil
}

func (r *ReviewRepository) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items), nil
}

func cloneReview(rv *domainreviews.Review) *domainreviews.Review {
	if rv == nil {
		return nil
	}
	copyReview := *rv
	return &copyReview
}

// FavoriteRepository stores (user, space) pairs in memory.
type FavoriteRepository struct {
	mu    sync.Mutex
	items map[string]domainfavorites.Favorite
}

func NewFavoriteRepository() *FavoriteRepository {
	return &FavoriteRepository{items: make(map[string]domainfavorites.Favorite)}
}

func favoriteKey(userID string, spaceID domainspaces.SpaceID) string {
	return userID + "|" + string(spaceID)
}

func (r *FavoriteRepository) Toggle(ctx context.Context, userID string, spaceID domainspaces.SpaceID, now time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := favoriteKey(userID, spaceID)
	if _, ok := r.items[key]; ok {
		delete(r.items, key)
		return false, nil
	}
	r.items[key] = domainfavorites.Favorite{UserID: userID, SpaceID: spaceID, AddedAt: now.UTC()}
	return true, nil
}

func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]domainfavorites.Favorite, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	matches := make([]domainfavorites.Favorite, 0)
	for _, fav := range r.items {
		if fav.UserID == userID {
			matches = append(matches, fav)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].AddedAt.After(matches[j].AddedAt)
	})
	return matches, nil
}

func (r *FavoriteRepository) Exists(ctx context.Context, userID string, spaceID domainspaces.SpaceID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.items[favoriteKey(userID, spaceID)]
	return ok, nil
}

// AuditLog is an append-only in-memory journal.
type AuditLog struct {
	mu      sync.Mutex
	entries []domainaudit.Entry
}

func NewAuditLog() *AuditLog {
	return &AuditLog{}
}

func (l *AuditLog) Append(ctx context.Context, entry domainaudit.Entry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

func (l *AuditLog) ListRecent(ctx context.Context, limit int) ([]domainaudit.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := append([]domainaudit.Entry(nil), l.entries...)
	sort.Slice(out, func(i, j int) bool {
		return out[i].OccurredAt.After(out[j].OccurredAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var (
	_ domainspaces.Repository    = (*SpaceRepository)(nil)
	_ domainbooking.Repository   = (*BookingRepository)(nil)
	_ domainpayment.Repository   = (*TransactionRepository)(nil)
	_ domainreviews.Repository   = (*ReviewRepository)(nil)
	_ domainfavorites.Repository = (*FavoriteRepository)(nil)
	_ domainaudit.Log            = (*AuditLog)(nil)
)
