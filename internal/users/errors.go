package users

import "github.com/khanghh/alumnet/internal/apperr"

var (
	ErrUserNotFound      = apperr.NotFound("User not found")
	ErrEmailRegistered   = apperr.Conflict("Email is already registered")
	ErrInvalidEmail      = apperr.Validation("Invalid email address")
	ErrPasswordTooShort  = apperr.Validation("Password must be at least 8 characters")
	ErrNameRequired      = apperr.Validation("Name is required")
	ErrInvalidRole       = apperr.Validation("Role must be student or alumni")
	ErrProfileIncomplete = apperr.Validation("Batch and branch are required")
	ErrWrongPassword     = apperr.Validation("Current password is incorrect")
)
