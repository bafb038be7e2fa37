package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	"renta/internal/app/uow"
	domainspaces "renta/internal/domain/spaces"
)

const (
	addSpaceImageKey     = "catalog.spaces.images.add"
	setPrimaryImageKey   = "catalog.spaces.images.set_primary"
	removeSpaceImageKey  = "catalog.spaces.images.remove"
)

// AddSpaceImageCommand attaches an uploaded photo to the space. The
// first photo becomes primary automatically.
type AddSpaceImageCommand struct {
	ActorID string
	Staff   bool
	SpaceID string
	URL     string
	Caption string
	Primary bool
}

func (c AddSpaceImageCommand) Key() string { return addSpaceImageKey }

type AddSpaceImageHandler struct {
	Logger *slog.Logger
}

func (h *AddSpaceImageHandler) Handle(ctx context.Context, cmd AddSpaceImageCommand) (*dto.SpaceDetail, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	space, err := loadOwnedSpace(ctx, unit, cmd.SpaceID, cmd.ActorID, cmd.Staff)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	space.AddImage(domainspaces.Image{
		ID:      uuid.NewString(),
		URL:     cmd.URL,
		Caption: cmd.Caption,
		Primary: cmd.Primary,
	}, now)
	if err := unit.Spaces().Save(ctx, space); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("space image added", "space_id", space.ID, "images", len(space.Images))
	}
	result := dto.MapSpaceDetail(space)
	return &result, nil
}

type SetPrimaryImageCommand struct {
	ActorID string
	Staff   bool
	SpaceID string
	ImageID string
}

func (c SetPrimaryImageCommand) Key() string { return setPrimaryImageKey }

type SetPrimaryImageHandler struct{}

func (h *SetPrimaryImageHandler) Handle(ctx context.Context, cmd SetPrimaryImageCommand) (*dto.SpaceDetail, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	space, err := loadOwnedSpace(ctx, unit, cmd.SpaceID, cmd.ActorID, cmd.Staff)
	if err != nil {
		return nil, err
	}
	if err := space.SetPrimaryImage(cmd.ImageID, time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Spaces().Save(ctx, space); err != nil {
		return nil, err
	}
	result := dto.MapSpaceDetail(space)
	return &result, nil
}

type RemoveSpaceImageCommand struct {
	ActorID string
	Staff   bool
	SpaceID string
	ImageID string
}

func (c RemoveSpaceImageCommand) Key() string { return removeSpaceImageKey }

type RemoveSpaceImageHandler struct{}

func (h *RemoveSpaceImageHandler) Handle(ctx context.Context, cmd RemoveSpaceImageCommand) (*dto.SpaceDetail, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	space, err := loadOwnedSpace(ctx, unit, cmd.SpaceID, cmd.ActorID, cmd.Staff)
	if err != nil {
		return nil, err
	}
	if err := space.RemoveImage(cmd.ImageID, time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Spaces().Save(ctx, space); err != nil {
		return nil, err
	}
	result := dto.MapSpaceDetail(space)
	return &result, nil
}

var (
	_ commands.Handler[AddSpaceImageCommand, *dto.SpaceDetail]   = (*AddSpaceImageHandler)(nil)
	_ commands.Handler[SetPrimaryImageCommand, *dto.SpaceDetail] = (*SetPrimaryImageHandler)(nil)
	_ commands.Handler[RemoveSpaceImageCommand, *dto.SpaceDetail] = (*RemoveSpaceImageHandler)(nil)
)
