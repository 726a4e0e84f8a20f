package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shoplist-service/internal/api/middleware"
	"shoplist-service/internal/models"
	"shoplist-service/internal/services"
)

type ListHandler struct {
	listService *services.ListService
}

func NewListHandler(listService *services.ListService) *ListHandler {
	return &ListHandler{listService: listService}
}

// Create godoc
// @Summary Create a shopping list
// @Description Create a list owned by the caller inside their tenant
// @Tags lists
// @Accept json
// @Produce json
// @Param request body models.CreateListRequest true "List data"
// @Success 201 {object} models.ListResponse
// @Failure 400 {object} models.ErrorResponse "Bad request"
// @Security BearerAuth
// @Router /lists [post]
func (h *ListHandler) Create(c *gin.Context) {
	var req models.CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	list, err := h.listService.Create(c.Request.Context(), middleware.TenantID(c), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, list)
}

// List godoc
// @Summary List the caller's shopping lists
// @Tags lists
// @Produce json
// @Success 200 {array} models.ListResponse
// @Security BearerAuth
// @Router /lists [get]
func (h *ListHandler) List(c *gin.Context) {
	lists, err := h.listService.GetUserLists(c.Request.Context(), middleware.TenantID(c), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

// Get godoc
// @Summary Get one list with members and items
// @Tags lists
// @Produce json
// @Param id path string true "List ID"
// @Success 200 {object} models.ShoppingList
// @Failure 403 {object} models.ErrorResponse "Not a member"
// @Failure 404 {object} models.ErrorResponse "Not found"
// @Security BearerAuth
// @Router /lists/{id} [get]
func (h *ListHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.listService.Get(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Update godoc
// @Summary Update list name or description
// @Tags lists
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param request body models.UpdateListRequest true "Fields to update"
// @Success 200 {object} models.ListResponse
// @Failure 403 {object} models.ErrorResponse "Not the owner"
// @Security BearerAuth
// @Router /lists/{id} [put]
func (h *ListHandler) Update(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req models.UpdateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	list, err := h.listService.Update(c.Request.Context(), id, middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Delete godoc
// @Summary Delete a list
// @Tags lists
// @Param id path string true "List ID"
// @Success 204 "Deleted"
// @Failure 403 {object} models.ErrorResponse "Not the owner"
// @Security BearerAuth
// @Router /lists/{id} [delete]
func (h *ListHandler) Delete(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.listService.Delete(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetMembers godoc
// @Summary List a list's members
// @Tags lists
// @Produce json
// @Param id path string true "List ID"
// @Success 200 {array} models.MemberResponse
// @Failure 403 {object} models.ErrorResponse "Not a member"
// @Security BearerAuth
// @Router /lists/{id}/members [get]
func (h *ListHandler) GetMembers(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	members, err := h.listService.GetMembers(c.Request.Context(), id, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, members)
}

// RemoveMember godoc
// @Summary Remove a member from a list
// @Description Owner-only. The removed user is kicked from the list's live room.
// @Tags lists
// @Param id path string true "List ID"
// @Param userId path string true "User ID of the member to remove"
// @Success 204 "Removed"
// @Failure 403 {object} models.ErrorResponse "Not the owner"
// @Failure 404 {object} models.ErrorResponse "Member not found"
// @Security BearerAuth
// @Router /lists/{id}/members/{userId} [delete]
func (h *ListHandler) RemoveMember(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	if err := h.listService.RemoveMember(c.Request.Context(), id, middleware.UserID(c), userID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdatePermissions godoc
// @Summary Update a member's permissions
// @Tags lists
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param userId path string true "User ID of the member"
// @Param request body models.UpdatePermissionsRequest true "Permission flags"
// @Success 200 {object} models.MemberResponse
// @Failure 403 {object} models.ErrorResponse "Not the owner"
// @Security BearerAuth
// @Router /lists/{id}/members/{userId}/permissions [patch]
func (h *ListHandler) UpdatePermissions(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	userID, ok := pathUUID(c, "userId")
	if !ok {
		return
	}
	var req models.UpdatePermissionsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	member, err := h.listService.UpdatePermissions(c.Request.Context(), id, middleware.UserID(c), userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// Leave godoc
// @Summary Leave a list
// @Description A member walks away voluntarily; the owner cannot leave their own list.
// @Tags lists
// @Param id path string true "List ID"
// @Success 204 "Left"
// @Failure 403 {object} models.ErrorResponse "Owner cannot leave"
// @Security BearerAuth
// @Router /lists/{id}/leave [post]
func (h *ListHandler) Leave(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.listService.Leave(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
