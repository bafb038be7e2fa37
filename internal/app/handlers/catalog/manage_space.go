package catalog

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	"renta/internal/app/policies"
	"renta/internal/app/uow"
	domainaudit "renta/internal/domain/audit"
	domainspaces "renta/internal/domain/spaces"
)

const (
	createSpaceKey  = "catalog.spaces.create"
	updateSpaceKey  = "catalog.spaces.update"
	publishSpaceKey = "catalog.spaces.publish"
	suspendSpaceKey = "catalog.spaces.suspend"
)

var ErrNotSpaceOwner = errors.New("catalog: actor does not own this space")

type SpacePayload struct {
	Title       string
	Description string
	Category    string
	Address     domainspaces.Address
	AreaSqM     float64
	Capacity    int
}

type CreateSpaceCommand struct {
	OwnerID string
	Payload SpacePayload
}

func (c CreateSpaceCommand) Key() string { return createSpaceKey }

type CreateSpaceHandler struct {
	Geocoder policies.Geocoder
	Logger   *slog.Logger
}

func (h *CreateSpaceHandler) Handle(ctx context.Context, cmd CreateSpaceCommand) (*dto.SpaceDetail, error) {
	if strings.TrimSpace(cmd.OwnerID) == "" {
		return nil, errors.New("owner id is required")
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	now := time.Now()
	space, err := domainspaces.NewSpace(domainspaces.CreateParams{
		ID:          domainspaces.SpaceID(uuid.NewString()),
		Owner:       domainspaces.OwnerID(cmd.OwnerID),
		Title:       cmd.Payload.Title,
		Description: cmd.Payload.Description,
		Category:    cmd.Payload.Category,
		Address:     cmd.Payload.Address,
		AreaSqM:     cmd.Payload.AreaSqM,
		Capacity:    cmd.Payload.Capacity,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}
	geocodeInto(ctx, h.Geocoder, h.Logger, space, now)

	if err := unit.Spaces().Save(ctx, space); err != nil {
		return nil, err
	}
	if err := unit.Audit().Append(ctx, domainaudit.NewEntry(uuid.NewString(), cmd.OwnerID, domainaudit.ActionCreate, "space", string(space.ID), space.Title, now)); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("space created", "space_id", space.ID, "owner_id", cmd.OwnerID)
	}
	result := dto.MapSpaceDetail(space)
	return &result, nil
}

type UpdateSpaceCommand struct {
	ActorID string
	Staff   bool
	SpaceID string
	Payload SpacePayload
}

func (c UpdateSpaceCommand) Key() string { return updateSpaceKey }

type UpdateSpaceHandler struct {
	Geocoder policies.Geocoder
	Logger   *slog.Logger
}

func (h *UpdateSpaceHandler) Handle(ctx context.Context, cmd UpdateSpaceCommand) (*dto.SpaceDetail, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	space, err := loadOwnedSpace(ctx, unit, cmd.SpaceID, cmd.ActorID, cmd.Staff)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if title := strings.TrimSpace(cmd.Payload.Title); title != "" {
		space.Title = title
	}
	if desc := strings.TrimSpace(cmd.Payload.Description); desc != "" {
		space.Description = desc
	}
	if cat := strings.TrimSpace(cmd.Payload.Category); cat != "" {
		space.Category = strings.ToLower(cat)
	}
	if cmd.Payload.AreaSqM > 0 {
		space.AreaSqM = cmd.Payload.AreaSqM
	}
	if cmd.Payload.Capacity > 0 {
		space.Capacity = cmd.Payload.Capacity
	}
	if cmd.Payload.Address.Valid() {
		if err := space.Relocate(cmd.Payload.Address, now); err != nil {
			return nil, err
		}
		if space.Address.Lat == 0 && space.Address.Lon == 0 {
			geocodeInto(ctx, h.Geocoder, h.Logger, space, now)
		}
	}

	if err := unit.Spaces().Save(ctx, space); err != nil {
		return nil, err
	}
	if err := unit.Audit().Append(ctx, domainaudit.NewEntry(uuid.NewString(), cmd.ActorID, domainaudit.ActionUpdate, "space", string(space.ID), "updated", now)); err != nil {
		return nil, err
	}

	result := dto.MapSpaceDetail(space)
	return &result, nil
}

type PublishSpaceCommand struct {
	ActorID string
	Staff   bool
	SpaceID string
}

func (c PublishSpaceCommand) Key() string { return publishSpaceKey }

type PublishSpaceHandler struct {
	Logger *slog.Logger
}

func (h *PublishSpaceHandler) Handle(ctx context.Context, cmd PublishSpaceCommand) (*dto.SpaceDetail, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	space, err := loadOwnedSpace(ctx, unit, cmd.SpaceID, cmd.ActorID, cmd.Staff)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := space.Publish(now); err != nil {
		return nil, err
	}
	if err := unit.Spaces().Save(ctx, space); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("space published", "space_id", space.ID)
	}
	result := dto.MapSpaceDetail(space)
	return &result, nil
}

// SuspendSpaceCommand is a moderation action and requires staff.
type SuspendSpaceCommand struct {
	ActorID string
	SpaceID string
	Reason  string
}

func (c SuspendSpaceCommand) Key() string { return suspendSpaceKey }

type SuspendSpaceHandler struct {
	Logger *slog.Logger
}

func (h *SuspendSpaceHandler) Handle(ctx context.Context, cmd SuspendSpaceCommand) (*dto.SpaceDetail, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	space, err := unit.Spaces().ByID(ctx, domainspaces.SpaceID(cmd.SpaceID))
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := space.Suspend(cmd.Reason, now); err != nil {
		return nil, err
	}
	if err := unit.Spaces().Save(ctx, space); err != nil {
		return nil, err
	}
	if err := unit.Audit().Append(ctx, domainaudit.NewEntry(uuid.NewString(), cmd.ActorID, domainaudit.ActionUpdate, "space", string(space.ID), "suspended: "+cmd.Reason, now)); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("space suspended", "space_id", space.ID, "actor_id", cmd.ActorID)
	}
	result := dto.MapSpaceDetail(space)
	return &result, nil
}

func loadOwnedSpace(ctx context.Context, unit uow.UnitOfWork, spaceID, actorID string, staff bool) (*domainspaces.Space, error) {
	space, err := unit.Spaces().ByID(ctx, domainspaces.SpaceID(spaceID))
	if err != nil {
		return nil, err
	}
	if !staff && string(space.Owner) != actorID {
		return nil, ErrNotSpaceOwner
	}
	return space, nil
}

func geocodeInto(ctx context.Context, geocoder policies.Geocoder, logger *slog.Logger, space *domainspaces.Space, now time.Time) {
	if geocoder == nil || !space.Address.Valid() {
		return
	}
	lat, lon, err := geocoder.Locate(ctx, space.Address.Line1+", "+space.Address.City)
	if err != nil {
		if logger != nil && !errors.Is(err, policies.ErrAddressNotFound) {
			logger.Warn("geocoding failed", "space_id", space.ID, "error", err)
		}
		return
	}
	space.SetCoordinates(lat, lon, now)
}

var (
	_ commands.Handler[CreateSpaceCommand, *dto.SpaceDetail]  = (*CreateSpaceHandler)(nil)
	_ commands.Handler[UpdateSpaceCommand, *dto.SpaceDetail]  = (*UpdateSpaceHandler)(nil)
	_ commands.Handler[PublishSpaceCommand, *dto.SpaceDetail] = (*PublishSpaceHandler)(nil)
	_ commands.Handler[SuspendSpaceCommand, *dto.SpaceDetail] = (*SuspendSpaceHandler)(nil)
)
