package moderation

import (
	"fmt"

	"github.com/khanghh/alumnet/internal/apperr"
)

var (
	ErrReasonRequired  = apperr.Validation("Rejection reason is required")
	ErrInvalidStatus   = apperr.Validation("Status must be one of pending, approved, rejected")
	ErrContentRequired = apperr.Validation("Content is required")
	ErrTitleRequired   = apperr.Validation("Title is required")
	ErrStartRequired   = apperr.Validation("Event start time is required")
	ErrTooManyImages   = apperr.Validation("Too many images")
)

func (k Kind[T]) errNotFound() error {
	return apperr.NotFound(fmt.Sprintf("%s not found", k.Title()))
}

func (k Kind[T]) errNotPending(verb string) error {
	return apperr.InvalidState(fmt.Sprintf("Only pending %s can be %s", k.Plural, verb))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
