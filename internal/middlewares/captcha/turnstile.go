package captcha

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
)

const (
	turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"
	turnstileTimeout   = 10 * time.Second
	// TokenHeader carries the widget token for JSON requests.
	TokenHeader = "X-Captcha-Token"
	tokenField  = "cf-turnstile-response"
)

type turnstileResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
}

// TurnstileVerifier checks Cloudflare Turnstile tokens against the siteverify API.
type TurnstileVerifier struct {
	secretKey string
	verifyURL string
}

func (v *TurnstileVerifier) Verify(ctx *fiber.Ctx) error {
	token := ctx.Get(TokenHeader)
	if token == "" {
		token = ctx.FormValue(tokenField)
	}
	if token == "" {
		return ErrInvalidCaptcha
	}

	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("secret", v.secretKey)
	args.Set("response", token)
	args.Set("remoteip", ctx.IP())

	var resp turnstileResponse
	agent := fiber.Post(v.verifyURL).Form(args).Timeout(turnstileTimeout)
	code, _, errs := agent.Struct(&resp)
	if len(errs) > 0 || code != fiber.StatusOK {
		slog.Error("Turnstile verification request failed", "status", code, "errors", errs)
		return ErrInvalidCaptcha
	}
	if !resp.Success {
		slog.Debug("Turnstile rejected token", "errorCodes", resp.ErrorCodes)
		return ErrInvalidCaptcha
	}
	return nil
}

func NewTurnstileVerifier(secretKey string) *TurnstileVerifier {
	return &TurnstileVerifier{
		secretKey: secretKey,
		verifyURL: turnstileVerifyURL,
	}
}
