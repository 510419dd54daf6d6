package auth

import "github.com/khanghh/alumnet/internal/apperr"

var (
	ErrCredentialsRequired = apperr.Validation("Email and password are required")
	ErrInvalidCredentials  = apperr.Unauthorized("Invalid email or password")
	ErrNotAdmin            = apperr.Forbidden("Access denied. Admin privileges required.")
	ErrAccountBanned       = apperr.Forbidden("Your account has been banned")
	ErrTokenInvalid        = apperr.Unauthorized("Invalid or expired token")
	ErrTokenMissing        = apperr.Unauthorized("Authentication required")
)
