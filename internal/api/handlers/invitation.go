package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"shoplist-service/internal/api/middleware"
	"shoplist-service/internal/models"
	"shoplist-service/internal/services"
)

type InvitationHandler struct {
	invitationService *services.InvitationService
}

func NewInvitationHandler(invitationService *services.InvitationService) *InvitationHandler {
	return &InvitationHandler{invitationService: invitationService}
}

type redeemInvitationRequest struct {
	Token string `json:"token" binding:"required"`
}

type createInvitationResponse struct {
	Invitation models.InvitationResponse `json:"invitation"`
	Token      string                    `json:"token"`
}

// Create godoc
// @Summary Invite an email address to a list
// @Description Owner-only. Returns the opaque token the invitee redeems.
// @Tags invitations
// @Accept json
// @Produce json
// @Param id path string true "List ID"
// @Param request body models.CreateInvitationRequest true "Invitee email"
// @Success 201 {object} createInvitationResponse
// @Failure 403 {object} models.ErrorResponse "Not the owner"
// @Failure 409 {object} models.ErrorResponse "Already invited or already a member"
// @Security BearerAuth
// @Router /lists/{id}/invitations [post]
func (h *InvitationHandler) Create(c *gin.Context) {
	listID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req models.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	inv, token, err := h.invitationService.Create(c.Request.Context(), listID, middleware.UserID(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, createInvitationResponse{Invitation: *inv, Token: token})
}

// ListForList godoc
// @Summary List a list's invitations
// @Tags invitations
// @Produce json
// @Param id path string true "List ID"
// @Success 200 {array} models.InvitationResponse
// @Failure 403 {object} models.ErrorResponse "Not the owner"
// @Security BearerAuth
// @Router /lists/{id}/invitations [get]
func (h *InvitationHandler) ListForList(c *gin.Context) {
	listID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	invs, err := h.invitationService.ListForList(c.Request.Context(), listID, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, invs)
}

// Accept godoc
// @Summary Accept an invitation
// @Description Redeems the token for the caller, creating their membership. The room hears member_joined.
// @Tags invitations
// @Accept json
// @Produce json
// @Param request body redeemInvitationRequest true "Invitation token"
// @Success 200 {object} models.MemberResponse
// @Failure 403 {object} models.ErrorResponse "Invitation addressed to someone else"
// @Failure 404 {object} models.ErrorResponse "Unknown token"
// @Failure 410 {object} models.ErrorResponse "Invitation expired"
// @Security BearerAuth
// @Router /invitations/accept [post]
func (h *InvitationHandler) Accept(c *gin.Context) {
	var req redeemInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	member, err := h.invitationService.Accept(c.Request.Context(), req.Token, middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, member)
}

// Reject godoc
// @Summary Reject an invitation
// @Tags invitations
// @Accept json
// @Param request body redeemInvitationRequest true "Invitation token"
// @Success 204 "Rejected"
// @Failure 404 {object} models.ErrorResponse "Unknown token"
// @Security BearerAuth
// @Router /invitations/reject [post]
func (h *InvitationHandler) Reject(c *gin.Context) {
	var req redeemInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	if err := h.invitationService.Reject(c.Request.Context(), req.Token, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Cancel godoc
// @Summary Cancel a pending invitation
// @Description The inviter or the list owner withdraws an invitation before it is redeemed.
// @Tags invitations
// @Param id path string true "Invitation ID"
// @Success 204 "Cancelled"
// @Failure 403 {object} models.ErrorResponse "Not the inviter or owner"
// @Failure 409 {object} models.ErrorResponse "No longer pending"
// @Security BearerAuth
// @Router /invitations/{id} [delete]
func (h *InvitationHandler) Cancel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.invitationService.Cancel(c.Request.Context(), id, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
