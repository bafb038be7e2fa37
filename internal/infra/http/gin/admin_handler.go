package ginserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"renta/internal/app/commands"
	"renta/internal/app/dto"
	adminapp "renta/internal/app/handlers/admin"
	"renta/internal/app/queries"
	domainuser "renta/internal/domain/user"
	"renta/internal/infra/report"
)

// BackupRunner produces an archive of the primary store and returns
// its location.
type BackupRunner interface {
	Run(ctx context.Context) (string, error)
}

type AdminHandler struct {
	Commands commands.Bus
	Queries  queries.Bus
	Backup   BackupRunner
	Logger   *slog.Logger
}

func (h AdminHandler) Overview(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}
	result, err := queries.Ask[adminapp.OverviewReportQuery, dto.OverviewReport](c.Request.Context(), h.Queries, adminapp.OverviewReportQuery{})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	switch c.Query("format") {
	case "pdf":
		data, err := report.RenderPDF(result)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report rendering failed"})
			return
		}
		c.Header("Content-Disposition", attachmentName("overview", "pdf"))
		c.Data(http.StatusOK, "application/pdf", data)
	case "xlsx":
		data, err := report.RenderExcel(result)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "report rendering failed"})
			return
		}
		c.Header("Content-Disposition", attachmentName("overview", "xlsx"))
		c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
	default:
		c.JSON(http.StatusOK, result)
	}
}

func (h AdminHandler) AuditLog(c *gin.Context) {
	if _, ok := requireStaff(c); !ok {
		return
	}
	query := adminapp.AuditLogQuery{Limit: parseIntWithDefault(c.Query("limit"), 100)}
	result, err := queries.Ask[adminapp.AuditLogQuery, dto.AuditLog](c.Request.Context(), h.Queries, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) ListUsers(c *gin.Context) {
	if _, ok := requireRole(c, string(domainuser.RoleAdmin)); !ok {
		return
	}
	query := adminapp.ListUsersQuery{
		Query:  c.Query("q"),
		Limit:  parseIntWithDefault(c.Query("limit"), 25),
		Offset: parseInt(c.Query("offset")),
	}
	result, err := queries.Ask[adminapp.ListUsersQuery, dto.UserList](c.Request.Context(), h.Queries, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) SetUserBlocked(c *gin.Context) {
	admin, ok := requireRole(c, string(domainuser.RoleAdmin))
	if !ok {
		return
	}
	var req struct {
		Blocked bool `json:"blocked"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := adminapp.SetUserBlockedCommand{AdminID: admin.ID, UserID: c.Param("id"), Blocked: req.Blocked}
	result, err := commands.Dispatch[adminapp.SetUserBlockedCommand, dto.UserProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) AssignRoles(c *gin.Context) {
	admin, ok := requireRole(c, string(domainuser.RoleAdmin))
	if !ok {
		return
	}
	var req struct {
		Roles []string `json:"roles"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cmd := adminapp.AssignRolesCommand{AdminID: admin.ID, UserID: c.Param("id"), Roles: req.Roles}
	result, err := commands.Dispatch[adminapp.AssignRolesCommand, dto.UserProfile](c.Request.Context(), h.Commands, cmd)
	if err != nil {
		respondAdminError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h AdminHandler) RunBackup(c *gin.Context) {
	if _, ok := requireRole(c, string(domainuser.RoleAdmin)); !ok {
		return
	}
	if h.Backup == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "backup not configured"})
		return
	}
	url, err := h.Backup.Run(c.Request.Context())
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("backup failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "backup failed"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"archive_url": url})
}

func respondAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, domainuser.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func attachmentName(base, ext string) string {
	return fmt.Sprintf("attachment; filename=%s-%s.%s", base, time.Now().UTC().Format("20060102"), ext)
}

var _ AdminHTTP = AdminHandler{}
