package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"shoplist-service/internal/api/middleware"
	"shoplist-service/internal/services"
)

type ChatHandler struct {
	chatService *services.ChatService
}

func NewChatHandler(chatService *services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// History godoc
// @Summary Get chat history for a list
// @Description Pages backwards through time. Pass the unix timestamp of the oldest message you have as "before".
// @Tags chat
// @Produce json
// @Param id path string true "List ID"
// @Param limit query int false "Page size, default 50, max 100"
// @Param before query int false "Unix timestamp; only messages older than this are returned"
// @Success 200 {array} models.ChatMessageResponse
// @Failure 403 {object} models.ErrorResponse "Not a member"
// @Security BearerAuth
// @Router /lists/{id}/chat/messages [get]
func (h *ChatHandler) History(c *gin.Context) {
	listID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	var before *time.Time
	if raw := c.Query("before"); raw != "" {
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(c, "before must be a unix timestamp")
			return
		}
		t := time.Unix(ts, 0)
		before = &t
	}

	messages, err := h.chatService.GetHistory(c.Request.Context(), listID, middleware.UserID(c), limit, before)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// DeleteMessage godoc
// @Summary Delete a chat message
// @Description The sender may delete their own message; the list owner may delete any.
// @Tags chat
// @Param id path string true "List ID"
// @Param messageId path string true "Message ID"
// @Success 204 "Deleted"
// @Failure 403 {object} models.ErrorResponse "Permission denied"
// @Failure 404 {object} models.ErrorResponse "Message not found"
// @Security BearerAuth
// @Router /lists/{id}/chat/messages/{messageId} [delete]
func (h *ChatHandler) DeleteMessage(c *gin.Context) {
	listID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	messageID, ok := pathUUID(c, "messageId")
	if !ok {
		return
	}
	if err := h.chatService.DeleteMessage(c.Request.Context(), listID, messageID, middleware.UserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
