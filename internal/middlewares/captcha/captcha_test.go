package captcha

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTurnstileServer(t *testing.T, validToken string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "secret", r.PostForm.Get("secret"))
		json.NewEncoder(w).Encode(map[string]any{
			"success": r.PostForm.Get("response") == validToken,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTurnstileVerifier(t *testing.T) {
	srv := newTurnstileServer(t, "good")
	verifier := NewTurnstileVerifier("secret")
	verifier.verifyURL = srv.URL

	app := fiber.New(fiber.Config{
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			return ctx.SendStatus(apperr.StatusCode(err))
		},
	})
	app.Post("/register", New(verifier), func(ctx *fiber.Ctx) error {
		return ctx.SendString("ok")
	})

	status := func(token string) int {
		req := httptest.NewRequest("POST", "/register", nil)
		if token != "" {
			req.Header.Set(TokenHeader, token)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, 200, status("good"))
	assert.Equal(t, 400, status("bad"))
	assert.Equal(t, 400, status(""))
}

func TestNullVerifier(t *testing.T) {
	app := fiber.New()
	app.Post("/register", New(NewNullVerifier()), func(ctx *fiber.Ctx) error {
		return ctx.SendString("ok")
	})
	resp, err := app.Test(httptest.NewRequest("POST", "/register", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}
