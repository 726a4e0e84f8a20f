package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shoplist-service/internal/api/middleware"
	"shoplist-service/internal/models"
	"shoplist-service/internal/services"
)

type ItemHandler struct {
	itemService *services.ItemService
}

func NewItemHandler(itemService *services.ItemService) *ItemHandler {
	return &ItemHandler{itemService: itemService}
}

// List godoc
// @Summary List the items on a list
// @Tags items
// @Produce json
// @Param id path string true "List ID"
// @Success 200 {array} models.ItemResponse
// @Failure 403 {object} models.ErrorResponse "Not a member"
// @Security BearerAuth
// @Router /lists/{id}/items [get]
func (h *ItemHandler) List(c *gin.Context) {
	listID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	items, err := h.itemService.List(c.Request.Context(), listID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// Create godoc
// @Summary Add an item
// @Description Requires the can_add_item permission. Subscribers hear item_added.
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param request body models.CreateItemRequest true "Item data"
// @Success 201 {object} models.ItemResponse
// @Failure 403 {object} models.ErrorResponse "Permission denied"
// @Security BearerAuth
// @Router /lists/{id}/items [post]
func (h *ItemHandler) Create(c *gin.Context) {
	listID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req models.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	item, err := h.itemService.Create(c.Request.Context(), listID, middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// Update godoc
// @Summary Update an item
// @Description Requires the can_update_item permission. Covers renames, quantity changes and status flips.
// @Tags items
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param itemId path string true "Item ID"
// @Param request body models.UpdateItemRequest true "Fields to update"
// @Success 200 {object} models.ItemResponse
// @Failure 403 {object} models.ErrorResponse "Permission denied"
// @Failure 404 {object} models.ErrorResponse "Item not found"
// @Security BearerAuth
// @Router /lists/{id}/items/{itemId} [put]
func (h *ItemHandler) Update(c *gin.Context) {
	listID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "itemId")
	if !ok {
		return
	}
	var req models.UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	item, err := h.itemService.Update(c.Request.Context(), listID, itemID, middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// Delete godoc
// @Summary Delete an item
// @Description Requires the can_delete_item permission or list ownership.
// @Tags items
// @Param id path string true "List ID"
// @Param itemId path string true "Item ID"
// @Success 204 "Deleted"
// @Failure 403 {object} models.ErrorResponse "Permission denied"
// @Security BearerAuth
// @Router /lists/{id}/items/{itemId} [delete]
func (h *ItemHandler) Delete(c *gin.Context) {
	listID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "itemId")
	if !ok {
		return
	}
	if err := h.itemService.Delete(c.Request.Context(), listID, itemID, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
