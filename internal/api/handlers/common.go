package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shoplist-service/internal/models"
	"shoplist-service/internal/services"
)

// respondError maps service-layer sentinel errors onto HTTP statuses. An
// unrecognized error is a 500 with no internals leaked.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "An unexpected error occurred"

	switch {
	case errors.Is(err, services.ErrInvalidCredentials),
		errors.Is(err, services.ErrInvalidToken),
		errors.Is(err, services.ErrTokenRevoked):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, services.ErrPermissionDenied),
		errors.Is(err, services.ErrNotMember),
		errors.Is(err, services.ErrInviteeMismatch),
		errors.Is(err, services.ErrUserDisabled),
		errors.Is(err, services.ErrCannotRemoveSelf):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrTenantNotFound),
		errors.Is(err, services.ErrListNotFound),
		errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrMemberNotFound),
		errors.Is(err, services.ErrInvitationNotFound),
		errors.Is(err, services.ErrMessageNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, services.ErrUserAlreadyExists),
		errors.Is(err, services.ErrTenantAlreadyExists),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrInvitationDuplicate),
		errors.Is(err, services.ErrInvitationNotPending):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, services.ErrInvitationExpired):
		status = http.StatusGone
		message = err.Error()
	}

	c.JSON(status, models.ErrorResponse{Code: status, Message: message})
}

func badRequest(c *gin.Context, details string) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Code:    http.StatusBadRequest,
		Message: "Invalid input data",
		Details: details,
	})
}

// pathUUID parses a path parameter as a UUID, answering 400 itself on
// failure.
func pathUUID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}
