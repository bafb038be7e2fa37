package booking

import (
	"context"

	"renta/internal/app/dto"
	"renta/internal/app/handlers/support"
	"renta/internal/app/queries"
	"renta/internal/app/uow"
	domainspaces "renta/internal/domain/spaces"
)

const (
	tenantBookingsKey = "booking.list_tenant"
	spaceBookingsKey  = "booking.list_space"
)

// TenantBookingsQuery lists a tenant's own bookings, newest first.
type TenantBookingsQuery struct {
	TenantID string
}

func (q TenantBookingsQuery) Key() string { return tenantBookingsKey }

type TenantBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *TenantBookingsHandler) Handle(ctx context.Context, q TenantBookingsQuery) (dto.BookingCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	bookings, err := unit.Bookings().ListByTenant(ctx, q.TenantID)
	if err != nil {
		return dto.BookingCollection{}, err
	}

	items := make([]dto.BookingSummary, 0, len(bookings))
	spaceCache := make(map[domainspaces.SpaceID]*domainspaces.Space)
	for _, b := range bookings {
		space, ok := spaceCache[b.SpaceID]
		if !ok {
			space, err = unit.Spaces().ByID(ctx, b.SpaceID)
			if err != nil {
				space = nil
			}
			spaceCache[b.SpaceID] = space
		}
		items = append(items, dto.MapBookingSummary(b, space))
	}
	return dto.BookingCollection{Items: items}, nil
}

// SpaceBookingsQuery lists bookings of one space for its owner or staff.
type SpaceBookingsQuery struct {
	SpaceID          string
	ActorID          string
	Staff            bool
	IncludeCancelled bool
}

func (q SpaceBookingsQuery) Key() string { return spaceBookingsKey }

type SpaceBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *SpaceBookingsHandler) Handle(ctx context.Context, q SpaceBookingsQuery) (dto.BookingCollection, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	space, err := unit.Spaces().ByID(ctx, domainspaces.SpaceID(q.SpaceID))
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if !q.Staff && string(space.Owner) != q.ActorID {
		return dto.BookingCollection{}, ErrForbidden
	}

	bookings, err := unit.Bookings().ListBySpace(ctx, space.ID, q.IncludeCancelled)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	items := make([]dto.BookingSummary, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, dto.MapBookingSummary(b, space))
	}
	return dto.BookingCollection{Items: items}, nil
}

var _ queries.Handler[TenantBookingsQuery, dto.BookingCollection] = (*TenantBookingsHandler)(nil)
var _ queries.Handler[SpaceBookingsQuery, dto.BookingCollection] = (*SpaceBookingsHandler)(nil)
