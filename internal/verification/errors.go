package verification

import "github.com/khanghh/alumnet/internal/apperr"

var (
	ErrRequestNotFound  = apperr.NotFound("Verification request not found")
	ErrUserNotFound     = apperr.NotFound("User not found")
	ErrReasonRequired   = apperr.Validation("Rejection reason is required")
	ErrClaimIncomplete  = apperr.Validation("Name, batch and branch are required")
	ErrAlreadyVerified  = apperr.Conflict("User is already a verified alumnus")
	ErrAdminNotEligible = apperr.Forbidden("Admins cannot submit verification requests")
)
