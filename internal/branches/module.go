// Package branches provides the branch directory module.
package branches

import (
	"errors"
	"net/http"

	apphttp "karpet_crm_backend/internal/http"
	"karpet_crm_backend/internal/branches/repository"
	"karpet_crm_backend/platform/apperr"
	"karpet_crm_backend/platform/httpkit"
	"karpet_crm_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the branches module implementing http.Module. The surface is
// small enough that handlers live here directly.
type Module struct {
	repo *repository.Repository
	val  *validator.Validator
}

// NewModule creates and initializes the branches module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator) *Module {
	return &Module{repo: repository.New(pool), val: val}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "branches"
}

// RegisterRoutes mounts branch routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/branches", m.list)
	ctx.Protected.GET("/branches/:id", m.get)
	ctx.Admin.POST("/branches", m.create)
}

type createBranchRequest struct {
	Name string `json:"name" validate:"required"`
	City string `json:"city"`
}

func (m *Module) list(c *gin.Context) {
	branches, err := m.repo.ListActive(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"branches": branches})
}

func (m *Module) get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid branch id", nil)
		return
	}

	branch, err := m.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			httpkit.HandleError(c, apperr.NotFound("branch not found"))
			return
		}
		httpkit.HandleError(c, err)
		return
	}
	httpkit.OK(c, branch)
}

func (m *Module) create(c *gin.Context) {
	var req createBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := m.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	branch, err := m.repo.Create(c.Request.Context(), req.Name, req.City)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, branch)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
