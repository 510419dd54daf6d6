package bans

import "github.com/khanghh/alumnet/internal/apperr"

var (
	ErrInvalidDuration = apperr.Validation("Invalid ban duration")
	ErrReasonRequired  = apperr.Validation("Ban reason is required")
	ErrUserNotFound    = apperr.NotFound("User not found")
	ErrAlreadyBanned   = apperr.Conflict("User is already banned")
	ErrNotBanned       = apperr.Conflict("User is not banned")
)
