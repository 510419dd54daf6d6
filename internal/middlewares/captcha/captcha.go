package captcha

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/apperr"
)

var ErrInvalidCaptcha = apperr.Validation("Captcha verification failed")

type CaptchaVerifier interface {
	Verify(ctx *fiber.Ctx) error
}

// New rejects requests the verifier does not accept.
func New(verifier CaptchaVerifier) fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := verifier.Verify(ctx); err != nil {
			return err
		}
		return ctx.Next()
	}
}

type NullVerifier struct{}

func (v *NullVerifier) Verify(ctx *fiber.Ctx) error {
	return nil
}

func NewNullVerifier() *NullVerifier {
	return &NullVerifier{}
}
