package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/internal/store"
	"github.com/khanghh/alumnet/model"
	"github.com/khanghh/alumnet/params"
)

const refreshTokenLength = 48

type AccessClaims struct {
	UserID uint       `json:"uid"`
	Email  string     `json:"email"`
	Role   model.Role `json:"role"`
	jwt.RegisteredClaims
}

// RefreshSession is the server side state of a refresh token. The token
// itself is never stored, only its keyed hash.
type RefreshSession struct {
	UserID    uint  `redis:"user_id"`
	Admin     bool  `redis:"admin"`
	CreatedAt int64 `redis:"created_at"`
}

type TokenPair struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"expiresAt"`
	RefreshToken     string    `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

type TokenService struct {
	masterKey string
	sessions  store.Store[RefreshSession]
}

func generateSecret(n int) (string, error) {
	// each 3 bytes → 4 Base64 chars
	rawSize := (n*3 + 3) / 4
	raw := make([]byte, rawSize)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	secret := base64.RawURLEncoding.EncodeToString(raw)
	return secret[:n], nil
}

func (s *TokenService) sessionKey(refreshToken string) string {
	return common.CalculateHash(s.masterKey, refreshToken)
}

// Issue signs an access token for user and opens a refresh session.
// admin marks sessions opened through the admin login.
func (s *TokenService) Issue(ctx context.Context, user *model.User, admin bool) (*TokenPair, error) {
	now := time.Now()
	claims := AccessClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(params.AccessTokenExpiration)),
		},
	}
	accessToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.masterKey))
	if err != nil {
		return nil, err
	}

	refreshToken, err := generateSecret(refreshTokenLength)
	if err != nil {
		return nil, err
	}
	session := RefreshSession{UserID: user.ID, Admin: admin, CreatedAt: now.UnixMilli()}
	if err := s.sessions.Set(ctx, s.sessionKey(refreshToken), session, params.RefreshTokenExpiration); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      accessToken,
		AccessExpiresAt:  claims.ExpiresAt.Time,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: now.Add(params.RefreshTokenExpiration),
	}, nil
}

func (s *TokenService) ParseAccessToken(tokenStr string) (*AccessClaims, error) {
	var claims AccessClaims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.masterKey), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}

// Consume removes the refresh session of refreshToken and returns it. A token
// can be consumed once.
func (s *TokenService) Consume(ctx context.Context, refreshToken string) (*RefreshSession, error) {
	if refreshToken == "" {
		return nil, ErrTokenMissing
	}
	session, err := s.sessions.Take(ctx, s.sessionKey(refreshToken))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	err := s.sessions.Delete(ctx, s.sessionKey(refreshToken))
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func NewTokenService(masterKey string, storage store.Storage) *TokenService {
	return &TokenService{
		masterKey: masterKey,
		sessions:  store.New[RefreshSession](storage, params.RefreshTokenKeyPrefix),
	}
}
