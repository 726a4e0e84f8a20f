package services

import "errors"

// Sentinel errors shared by the service layer. Handlers map these onto
// HTTP status codes; anything else is a 500.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrUserDisabled       = errors.New("user account is disabled")

	ErrTenantNotFound      = errors.New("tenant not found")
	ErrTenantAlreadyExists = errors.New("tenant already exists")

	ErrListNotFound     = errors.New("shopping list not found")
	ErrItemNotFound     = errors.New("item not found")
	ErrMemberNotFound   = errors.New("member not found")
	ErrAlreadyMember    = errors.New("user is already a member")
	ErrNotMember        = errors.New("user is not a member of this list")
	ErrPermissionDenied = errors.New("permission denied")
	ErrCannotRemoveSelf = errors.New("owner cannot be removed from their own list")

	ErrInvitationNotFound   = errors.New("invitation not found")
	ErrInvitationNotPending = errors.New("invitation is no longer pending")
	ErrInvitationExpired    = errors.New("invitation has expired")
	ErrInvitationDuplicate  = errors.New("a pending invitation already exists for this email")
	ErrInviteeMismatch      = errors.New("invitation is addressed to a different user")

	ErrMessageNotFound = errors.New("message not found")
)
