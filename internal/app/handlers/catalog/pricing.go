package catalog

import (
	"context"
	"log/slog"
	"time"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	"renta/internal/app/uow"
	"renta/internal/domain/shared/money"
)

const (
	setSpacePriceKey        = "catalog.spaces.prices.set"
	deactivateSpacePriceKey = "catalog.spaces.prices.deactivate"
)

// SetSpacePriceCommand upserts the rate for one rental period.
type SetSpacePriceCommand struct {
	ActorID    string
	Staff      bool
	SpaceID    string
	PeriodCode string
	Amount     int64
	Currency   string
}

func (c SetSpacePriceCommand) Key() string { return setSpacePriceKey }

type SetSpacePriceHandler struct {
	Logger *slog.Logger
}

func (h *SetSpacePriceHandler) Handle(ctx context.Context, cmd SetSpacePriceCommand) (*dto.SpaceDetail, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	space, err := loadOwnedSpace(ctx, unit, cmd.SpaceID, cmd.ActorID, cmd.Staff)
	if err != nil {
		return nil, err
	}
	amount, err := money.New(cmd.Amount, cmd.Currency)
	if err != nil {
		return nil, err
	}
	if err := space.SetPrice(cmd.PeriodCode, amount, time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Spaces().Save(ctx, space); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("space price set", "space_id", space.ID, "period", cmd.PeriodCode, "amount", cmd.Amount)
	}
	result := dto.MapSpaceDetail(space)
	return &result, nil
}

type DeactivateSpacePriceCommand struct {
	ActorID    string
	Staff      bool
	SpaceID    string
	PeriodCode string
}

func (c DeactivateSpacePriceCommand) Key() string { return deactivateSpacePriceKey }

type DeactivateSpacePriceHandler struct{}

func (h *DeactivateSpacePriceHandler) Handle(ctx context.Context, cmd DeactivateSpacePriceCommand) (*dto.SpaceDetail, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	space, err := loadOwnedSpace(ctx, unit, cmd.SpaceID, cmd.ActorID, cmd.Staff)
	if err != nil {
		return nil, err
	}
	if err := space.DeactivatePrice(cmd.PeriodCode, time.Now()); err != nil {
		return nil, err
	}
	if err := unit.Spaces().Save(ctx, space); err != nil {
		return nil, err
	}
	result := dto.MapSpaceDetail(space)
	return &result, nil
}

var (
	_ commands.Handler[SetSpacePriceCommand, *dto.SpaceDetail]        = (*SetSpacePriceHandler)(nil)
	_ commands.Handler[DeactivateSpacePriceCommand, *dto.SpaceDetail] = (*DeactivateSpacePriceHandler)(nil)
)
