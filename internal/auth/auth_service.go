package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/model"
)

type BanLifter interface {
	LiftIfExpired(ctx context.Context, user *model.User) (bool, error)
}

type Session struct {
	User   *model.User
	Tokens *TokenPair
}

type AuthService struct {
	userService  *users.UserService
	bans         BanLifter
	tokens       *TokenService
	activityRepo audit.ActivityRepository
}

// checkAccess lifts a lapsed ban before refusing banned accounts, so a user
// whose ban window passed can log in even if the sweep has not run yet.
func (s *AuthService) checkAccess(ctx context.Context, user *model.User, requireAdmin bool) error {
	if requireAdmin && user.Role != model.RoleAdmin {
		return ErrNotAdmin
	}
	if _, err := s.bans.LiftIfExpired(ctx, user); err != nil {
		return err
	}
	if user.Banned {
		return ErrAccountBanned
	}
	return nil
}

// Login checks the credentials and opens a session. With requireAdmin only
// admin accounts are accepted and the login is written to the activity log.
func (s *AuthService) Login(ctx context.Context, email, password, ip string, requireAdmin bool) (*Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, ErrCredentialsRequired
	}
	user, err := s.userService.GetUserByEmail(ctx, email)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !s.userService.CheckPassword(user, password) {
		return nil, ErrInvalidCredentials
	}
	if err := s.checkAccess(ctx, user, requireAdmin); err != nil {
		return nil, err
	}

	tokens, err := s.tokens.Issue(ctx, user, requireAdmin)
	if err != nil {
		return nil, err
	}
	if requireAdmin {
		actor := audit.Actor{ID: user.ID, Email: user.Email, Role: user.Role, IP: ip}
		err := audit.Record(ctx, s.activityRepo, actor, audit.Entry{
			Action:     audit.ActionAdminLogin,
			TargetType: audit.TargetUser,
			TargetID:   user.ID,
		})
		if err != nil {
			s.tokens.Revoke(ctx, tokens.RefreshToken)
			return nil, err
		}
	}
	slog.Info("User logged in", "userID", user.ID, "admin", requireAdmin, "ip", ip)
	return &Session{User: user, Tokens: tokens}, nil
}

// Refresh rotates a refresh token. The user is reloaded so role changes and
// bans take effect on the next refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	session, err := s.tokens.Consume(ctx, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.userService.GetUserByID(ctx, session.UserID)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, user, session.Admin); err != nil {
		return nil, err
	}
	tokens, err := s.tokens.Issue(ctx, user, session.Admin)
	if err != nil {
		return nil, err
	}
	return &Session{User: user, Tokens: tokens}, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.Revoke(ctx, refreshToken)
}

// Authenticate resolves a bearer access token into the acting user. The user
// is reloaded on every call so bans and role changes apply to tokens issued
// before them.
func (s *AuthService) Authenticate(ctx context.Context, accessToken string) (*AccessClaims, error) {
	if accessToken == "" {
		return nil, ErrTokenMissing
	}
	claims, err := s.tokens.ParseAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.userService.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, users.ErrUserNotFound) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, user, false); err != nil {
		return nil, err
	}
	claims.Email = user.Email
	claims.Role = user.Role
	return claims, nil
}

func NewAuthService(userService *users.UserService, bans BanLifter, tokens *TokenService, activityRepo audit.ActivityRepository) *AuthService {
	return &AuthService{
		userService:  userService,
		bans:         bans,
		tokens:       tokens,
		activityRepo: activityRepo,
	}
}
