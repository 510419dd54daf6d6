package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/auth"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/model"
	"github.com/khanghh/alumnet/params"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"omitempty,oneof=student alumni"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User        UserInfoResponse `json:"user"`
	AccessToken string           `json:"accessToken"`
	ExpiresAt   time.Time        `json:"expiresAt"`
}

func newUserInfo(user *model.User) UserInfoResponse {
	return UserInfoResponse{
		ID:               user.ID,
		Name:             user.Name,
		Email:            user.Email,
		Role:             string(user.Role),
		ProfileCompleted: user.ProfileCompleted,
		VerifiedAlumni:   user.VerifiedAlumni,
	}
}

type AuthHandler struct {
	authService AuthService
	userService UserService
	production  bool
}

// setRefreshCookie stores the refresh token in an httpOnly cookie. Production
// frontends live on another origin, so the cookie is cross-site there.
func (h *AuthHandler) setRefreshCookie(ctx *fiber.Ctx, token string, expires time.Time) {
	sameSite := fiber.CookieSameSiteLaxMode
	if h.production {
		sameSite = fiber.CookieSameSiteNoneMode
	}
	maxAge := int(params.RefreshTokenExpiration.Seconds())
	if token == "" {
		maxAge = -1
	}
	ctx.Cookie(&fiber.Cookie{
		Name:     params.RefreshTokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.production,
		SameSite: sameSite,
	})
}

func (h *AuthHandler) sendSession(ctx *fiber.Ctx, session *auth.Session) error {
	h.setRefreshCookie(ctx, session.Tokens.RefreshToken, session.Tokens.RefreshExpiresAt)
	return sendData(ctx, loginResponse{
		User:        newUserInfo(session.User),
		AccessToken: session.Tokens.AccessToken,
		ExpiresAt:   session.Tokens.AccessExpiresAt,
	})
}

func (h *AuthHandler) PostRegister(ctx *fiber.Ctx) error {
	var req registerRequest
	if err := parseBody(ctx, &req); err != nil {
		return err
	}
	user, err := h.userService.RegisterUser(ctx.Context(), users.CreateUserOptions{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		return err
	}
	return sendCreated(ctx, "Registration successful", newUserInfo(user))
}

func (h *AuthHandler) login(ctx *fiber.Ctx, requireAdmin bool) error {
	var req loginRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ErrInvalidBody
	}
	session, err := h.authService.Login(ctx.Context(), req.Email, req.Password, ctx.IP(), requireAdmin)
	if err != nil {
		return err
	}
	return h.sendSession(ctx, session)
}

func (h *AuthHandler) PostLogin(ctx *fiber.Ctx) error {
	return h.login(ctx, false)
}

func (h *AuthHandler) PostAdminLogin(ctx *fiber.Ctx) error {
	return h.login(ctx, true)
}

func (h *AuthHandler) PostRefresh(ctx *fiber.Ctx) error {
	session, err := h.authService.Refresh(ctx.Context(), ctx.Cookies(params.RefreshTokenCookieName))
	if err != nil {
		h.setRefreshCookie(ctx, "", time.Unix(0, 0))
		return err
	}
	return h.sendSession(ctx, session)
}

func (h *AuthHandler) PostLogout(ctx *fiber.Ctx) error {
	if err := h.authService.Logout(ctx.Context(), ctx.Cookies(params.RefreshTokenCookieName)); err != nil {
		return err
	}
	h.setRefreshCookie(ctx, "", time.Unix(0, 0))
	return sendMessage(ctx, "Logged out")
}

func NewAuthHandler(authService AuthService, userService UserService, production bool) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		production:  production,
	}
}
