package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/khanghh/alumnet/internal/apperr"
	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/bans"
	"github.com/khanghh/alumnet/internal/store"
	"github.com/khanghh/alumnet/internal/testutil"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/model"
	"github.com/khanghh/alumnet/params"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testMasterKey = "test-master-key"

type testEnv struct {
	db      *gorm.DB
	mr      *miniredis.Miniredis
	users   *users.UserService
	tokens  *TokenService
	service *AuthService
}

func newTestEnv(t *testing.T) *testEnv {
	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() { rdb.Close() })

	userRepo := users.NewUserRepository(db)
	activityRepo := audit.NewActivityRepository(db)
	userService := users.NewUserService(db, userRepo, users.NewProfileRepository(db))
	banService := bans.NewBanService(db, userRepo, bans.NewBanRepository(db), activityRepo, nil)
	tokens := NewTokenService(testMasterKey, store.NewRedisStorage(rdb))
	return &testEnv{
		db:      db,
		mr:      mr,
		users:   userService,
		tokens:  tokens,
		service: NewAuthService(userService, banService, tokens, activityRepo),
	}
}

func (e *testEnv) createUser(t *testing.T, email string, role model.Role) *model.User {
	user, err := e.users.CreateUser(context.Background(), users.CreateUserOptions{
		Name:     "Test User",
		Email:    email,
		Password: "s3cret-pass",
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func TestLoginCredentials(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "asha@example.com", model.RoleAlumni)

	_, err := env.service.Login(ctx, " ", "x", "", false)
	assert.ErrorIs(t, err, ErrCredentialsRequired)
	assert.Equal(t, 400, apperr.StatusCode(err))

	_, err = env.service.Login(ctx, "nobody@example.com", "s3cret-pass", "", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 401, apperr.StatusCode(err))

	_, err = env.service.Login(ctx, "asha@example.com", "wrong-pass", "", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	session, err := env.service.Login(ctx, "Asha@Example.com", "s3cret-pass", "", false)
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", session.User.Email)

	claims, err := env.service.Authenticate(ctx, session.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, claims.UserID)
	assert.Equal(t, model.RoleAlumni, claims.Role)

	key := params.RefreshTokenKeyPrefix + env.tokens.sessionKey(session.Tokens.RefreshToken)
	assert.True(t, env.mr.Exists(key))
	assert.Equal(t, params.RefreshTokenExpiration, env.mr.TTL(key))
}

func TestAdminLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "asha@example.com", model.RoleAlumni)
	admin := env.createUser(t, "admin@alumnet.example", model.RoleAdmin)

	_, err := env.service.Login(ctx, "asha@example.com", "s3cret-pass", "10.0.0.2", true)
	assert.ErrorIs(t, err, ErrNotAdmin)
	assert.Equal(t, 403, apperr.StatusCode(err))

	session, err := env.service.Login(ctx, "admin@alumnet.example", "s3cret-pass", "10.0.0.1", true)
	require.NoError(t, err)
	assert.Equal(t, admin.ID, session.User.ID)

	var activity model.AdminActivity
	require.NoError(t, env.db.First(&activity).Error)
	assert.Equal(t, audit.ActionAdminLogin, activity.Action)
	assert.Equal(t, admin.ID, activity.AdminID)
	assert.Equal(t, "10.0.0.1", activity.IP)
}

func TestLoginBannedUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "asha@example.com", model.RoleAlumni)

	future := time.Now().UTC().Add(time.Hour)
	require.NoError(t, env.db.Model(user).Updates(map[string]interface{}{"banned": true, "ban_expires_at": future, "ban_reason": "spam"}).Error)
	_, err := env.service.Login(ctx, "asha@example.com", "s3cret-pass", "", false)
	assert.ErrorIs(t, err, ErrAccountBanned)

	lapsed := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, env.db.Model(user).Update("ban_expires_at", lapsed).Error)
	require.NoError(t, env.db.Create(&model.Ban{UserID: user.ID, Reason: "spam", Duration: model.BanDuration24h, BanExpiresAt: &lapsed, IsActive: true, BannedBy: 1}).Error)

	session, err := env.service.Login(ctx, "asha@example.com", "s3cret-pass", "", false)
	require.NoError(t, err)
	assert.False(t, session.User.Banned)

	var ban model.Ban
	require.NoError(t, env.db.First(&ban).Error)
	assert.False(t, ban.IsActive)
}

func TestRefreshRotation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "admin@alumnet.example", model.RoleAdmin)

	first, err := env.service.Login(ctx, "admin@alumnet.example", "s3cret-pass", "", true)
	require.NoError(t, err)

	second, err := env.service.Refresh(ctx, first.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)

	_, err = env.service.Refresh(ctx, first.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = env.service.Refresh(ctx, "")
	assert.ErrorIs(t, err, ErrTokenMissing)

	// demoted admins lose admin sessions on the next refresh
	require.NoError(t, env.db.Model(&model.User{}).Where("id = ?", second.User.ID).Update("role", model.RoleAlumni).Error)
	_, err = env.service.Refresh(ctx, second.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrNotAdmin)
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.createUser(t, "asha@example.com", model.RoleAlumni)

	session, err := env.service.Login(ctx, "asha@example.com", "s3cret-pass", "", false)
	require.NoError(t, err)
	require.NoError(t, env.service.Logout(ctx, session.Tokens.RefreshToken))
	require.NoError(t, env.service.Logout(ctx, session.Tokens.RefreshToken))

	_, err = env.service.Refresh(ctx, session.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAuthenticateRejectsForeignTokens(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "asha@example.com", model.RoleAlumni)

	other := NewTokenService("another-key", env.tokens.sessions.Storage())
	pair, err := other.Issue(ctx, user, false)
	require.NoError(t, err)

	_, err = env.service.Authenticate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
	_, err = env.service.Authenticate(ctx, "")
	assert.ErrorIs(t, err, ErrTokenMissing)
}

func TestAuthenticateReloadsUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	user := env.createUser(t, "asha@example.com", model.RoleAlumni)
	admin := env.createUser(t, "admin@alumnet.example", model.RoleAdmin)

	member, err := env.service.Login(ctx, "asha@example.com", "s3cret-pass", "", false)
	require.NoError(t, err)
	adminSession, err := env.service.Login(ctx, "admin@alumnet.example", "s3cret-pass", "", true)
	require.NoError(t, err)

	future := time.Now().UTC().Add(time.Hour)
	require.NoError(t, env.db.Model(user).Updates(map[string]interface{}{"banned": true, "ban_expires_at": future}).Error)
	_, err = env.service.Authenticate(ctx, member.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrAccountBanned)

	require.NoError(t, env.db.Model(admin).Update("role", model.RoleAlumni).Error)
	claims, err := env.service.Authenticate(ctx, adminSession.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAlumni, claims.Role)

	require.NoError(t, env.db.Delete(admin).Error)
	_, err = env.service.Authenticate(ctx, adminSession.Tokens.AccessToken)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
