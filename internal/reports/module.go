// Package reports provides follow-up performance reporting with XLSX export.
package reports

import (
	"fmt"
	"net/http"
	"time"

	apphttp "karpet_crm_backend/internal/http"
	"karpet_crm_backend/internal/reports/repository"
	"karpet_crm_backend/internal/reports/service"
	"karpet_crm_backend/platform/config"
	"karpet_crm_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the reports module implementing http.Module. Reports are
// restricted to managers and admins.
type Module struct {
	service *service.Service
}

// NewModule creates and initializes the reports module.
func NewModule(pool *pgxpool.Pool, cfg config.FollowUpConfig) *Module {
	repo := repository.New(pool)
	return &Module{service: service.New(repo, cfg)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reports"
}

// RegisterRoutes mounts report routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	rg := ctx.Protected.Group("/reports")
	rg.Use(httpkit.RequireRole("admin", "manager"))
	rg.GET("/followups", m.perUser)
	rg.GET("/followups/export", m.exportXLSX)
}

func (m *Module) perUser(c *gin.Context) {
	filter, ok := m.parseFilter(c)
	if !ok {
		return
	}

	rows, err := m.service.PerUserReport(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"rows": rows})
}

func (m *Module) exportXLSX(c *gin.Context) {
	filter, ok := m.parseFilter(c)
	if !ok {
		return
	}

	buf, err := m.service.ExportXLSX(c.Request.Context(), filter)
	if httpkit.HandleError(c, err) {
		return
	}

	filename := fmt.Sprintf("followup-report-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

// parseFilter reads branch and date-window query parameters. Managers are
// pinned to their own branch; admins may pass any branch_id.
func (m *Module) parseFilter(c *gin.Context) (repository.Filter, bool) {
	var filter repository.Filter

	ident := httpkit.MustGetIdentity(c)
	if branchID := ident.BranchID(); branchID != nil {
		filter.BranchID = branchID
	} else if raw := c.Query("branch_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.Error(c, http.StatusBadRequest, "invalid branch_id", nil)
			return repository.Filter{}, false
		}
		filter.BranchID = &id
	}

	if raw := c.Query("from"); raw != "" {
		day, ok := m.service.ParseDay(raw)
		if !ok {
			httpkit.Error(c, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD", nil)
			return repository.Filter{}, false
		}
		filter.From = &day
	}
	if raw := c.Query("until"); raw != "" {
		day, ok := m.service.ParseDay(raw)
		if !ok {
			httpkit.Error(c, http.StatusBadRequest, "invalid until date, expected YYYY-MM-DD", nil)
			return repository.Filter{}, false
		}
		end := day.AddDate(0, 0, 1)
		filter.Until = &end
	}

	return filter, true
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
