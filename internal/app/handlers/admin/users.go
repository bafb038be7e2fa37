package admin

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	"renta/internal/app/handlers/support"
	"renta/internal/app/queries"
	"renta/internal/app/uow"
	domainaudit "renta/internal/domain/audit"
	domainuser "renta/internal/domain/user"
)

const (
	setUserBlockedKey = "admin.users.set_blocked"
	assignRolesKey    = "admin.users.assign_roles"
	listUsersKey      = "admin.users.list"
)

// SessionRevoker drops all active sessions of a user; wired to the
// auth service so blocked users lose access immediately.
type SessionRevoker interface {
	RevokeAll(ctx context.Context, userID string) error
}

// SetUserBlockedCommand blocks or unblocks an account.
type SetUserBlockedCommand struct {
	AdminID string
	UserID  string
	Blocked bool
}

func (c SetUserBlockedCommand) Key() string { return setUserBlockedKey }

type SetUserBlockedHandler struct {
	Sessions SessionRevoker
	Logger   *slog.Logger
}

func (h *SetUserBlockedHandler) Handle(ctx context.Context, cmd SetUserBlockedCommand) (dto.UserProfile, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.UserProfile{}, uow.ErrUnitOfWorkMissing
	}

	user, err := unit.Users().ByID(ctx, domainuser.ID(cmd.UserID))
	if err != nil {
		return dto.UserProfile{}, err
	}

	now := time.Now().UTC()
	action := "unblocked"
	if cmd.Blocked {
		user.Block(now)
		action = "blocked"
	} else {
		user.Unblock(now)
	}
	if err := unit.Users().Save(ctx, user); err != nil {
		return dto.UserProfile{}, err
	}
	if err := unit.Audit().Append(ctx, domainaudit.NewEntry(uuid.NewString(), cmd.AdminID, domainaudit.ActionUpdate, "user", string(user.ID), action, now)); err != nil {
		return dto.UserProfile{}, err
	}

	if cmd.Blocked && h.Sessions != nil {
		if err := h.Sessions.RevokeAll(ctx, string(user.ID)); err != nil && h.Logger != nil {
			h.Logger.Warn("session revocation failed", "user_id", user.ID, "error", err)
		}
	}
	if h.Logger != nil {
		h.Logger.Info("user "+action, "user_id", user.ID, "admin_id", cmd.AdminID)
	}
	return dto.MapUserProfile(user), nil
}

// AssignRolesCommand replaces the user's role set.
type AssignRolesCommand struct {
	AdminID string
	UserID  string
	Roles   []string
}

func (c AssignRolesCommand) Key() string { return assignRolesKey }

type AssignRolesHandler struct {
	Logger *slog.Logger
}

func (h *AssignRolesHandler) Handle(ctx context.Context, cmd AssignRolesCommand) (dto.UserProfile, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.UserProfile{}, uow.ErrUnitOfWorkMissing
	}

	user, err := unit.Users().ByID(ctx, domainuser.ID(cmd.UserID))
	if err != nil {
		return dto.UserProfile{}, err
	}

	roles := make([]domainuser.Role, 0, len(cmd.Roles))
	for _, role := range cmd.Roles {
		roles = append(roles, domainuser.Role(role))
	}
	now := time.Now().UTC()
	if err := user.AssignRoles(roles, now); err != nil {
		return dto.UserProfile{}, err
	}
	if err := unit.Users().Save(ctx, user); err != nil {
		return dto.UserProfile{}, err
	}
	if err := unit.Audit().Append(ctx, domainaudit.NewEntry(uuid.NewString(), cmd.AdminID, domainaudit.ActionUpdate, "user", string(user.ID), "roles changed", now)); err != nil {
		return dto.UserProfile{}, err
	}
	return dto.MapUserProfile(user), nil
}

// ListUsersQuery pages through accounts, optionally filtered by an
// email or name substring.
type ListUsersQuery struct {
	Query  string
	Limit  int
	Offset int
}

func (q ListUsersQuery) Key() string { return listUsersKey }

type ListUsersHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListUsersHandler) Handle(ctx context.Context, q ListUsersQuery) (dto.UserList, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.UserList{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 25
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	users, total, err := unit.Users().List(ctx, domainuser.ListParams{Query: q.Query, Limit: limit, Offset: offset})
	if err != nil {
		return dto.UserList{}, err
	}
	items := make([]dto.UserProfile, 0, len(users))
	for _, u := range users {
		items = append(items, dto.MapUserProfile(u))
	}
	return dto.UserList{Items: items, Total: total}, nil
}

var (
	_ commands.Handler[SetUserBlockedCommand, dto.UserProfile] = (*SetUserBlockedHandler)(nil)
	_ commands.Handler[AssignRolesCommand, dto.UserProfile]    = (*AssignRolesHandler)(nil)
	_ queries.Handler[ListUsersQuery, dto.UserList]            = (*ListUsersHandler)(nil)
)
