package admin

import (
	"context"

	"renta/internal/app/dto"
	"renta/internal/app/handlers/support"
	"renta/internal/app/queries"
	"renta/internal/app/uow"
)

const auditLogKey = "admin.audit.list"

// AuditLogQuery returns the most recent admin journal entries.
type AuditLogQuery struct {
	Limit int
}

func (q AuditLogQuery) Key() string { return auditLogKey }

type AuditLogHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *AuditLogHandler) Handle(ctx context.Context, q AuditLogQuery) (dto.AuditLog, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.AuditLog{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	limit := q.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	entries, err := unit.Audit().ListRecent(ctx, limit)
	if err != nil {
		return dto.AuditLog{}, err
	}
	return dto.MapAuditEntries(entries), nil
}

var _ queries.Handler[AuditLogQuery, dto.AuditLog] = (*AuditLogHandler)(nil)
