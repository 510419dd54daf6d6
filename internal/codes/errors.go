package codes

import "github.com/khanghh/alumnet/internal/apperr"

var (
	ErrInvalidCount     = apperr.Validation("Count must be between 1 and 5")
	ErrInvalidStatus    = apperr.Validation("Status must be one of all, active, used, expired")
	ErrRateLimited      = apperr.RateLimited("Too many codes generated. Please wait a minute before generating more")
	ErrCodeInvalid      = apperr.Validation("Verification code is invalid or expired")
	ErrUserNotFound     = apperr.NotFound("User not found")
	ErrAlreadyVerified  = apperr.Conflict("User is already a verified alumnus")
	ErrAdminNotEligible = apperr.Forbidden("Admins cannot redeem verification codes")
	ErrCodeCollision    = apperr.Conflict("Could not generate a unique code")
)
