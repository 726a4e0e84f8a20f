package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shoplist-service/internal/models"
	"shoplist-service/internal/services"
)

type TenantHandler struct {
	tenantService *services.TenantService
}

func NewTenantHandler(tenantService *services.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

// Create godoc
// @Summary Create a tenant
// @Tags tenants
// @Accept json
// @Produce json
// @Param request body models.CreateTenantRequest true "Tenant data"
// @Success 201 {object} models.TenantResponse
// @Failure 409 {object} models.ErrorResponse "Conflict - name taken"
// @Security BearerAuth
// @Router /tenants [post]
func (h *TenantHandler) Create(c *gin.Context) {
	var req models.CreateTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	tenant, err := h.tenantService.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenant)
}

// List godoc
// @Summary List all tenants
// @Tags tenants
// @Produce json
// @Success 200 {array} models.TenantResponse
// @Security BearerAuth
// @Router /tenants [get]
func (h *TenantHandler) List(c *gin.Context) {
	tenants, err := h.tenantService.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenants)
}

// Get godoc
// @Summary Get one tenant
// @Tags tenants
// @Produce json
// @Param id path string true "Tenant ID"
// @Success 200 {object} models.TenantResponse
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Security BearerAuth
// @Router /tenants/{id} [get]
func (h *TenantHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	tenant, err := h.tenantService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenant)
}
