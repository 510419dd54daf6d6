package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/alumni"
	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/auth"
	"github.com/khanghh/alumnet/internal/bans"
	"github.com/khanghh/alumnet/internal/codes"
	"github.com/khanghh/alumnet/internal/middlewares"
	"github.com/khanghh/alumnet/internal/moderation"
	"github.com/khanghh/alumnet/internal/store"
	"github.com/khanghh/alumnet/internal/testutil"
	"github.com/khanghh/alumnet/internal/uploads"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/internal/verification"
	"github.com/khanghh/alumnet/model"
	"github.com/khanghh/alumnet/params"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "s3cret-pass"

type testServer struct {
	app         *fiber.App
	db          *gorm.DB
	userService *users.UserService
}

func newTestServer(t *testing.T, production bool) *testServer {
	db := testutil.NewDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	t.Cleanup(func() { rdb.Close() })
	alumniDB, alumniMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, alumniMock.ExpectationsWereMet())
		alumniDB.Close()
	})

	userRepo := users.NewUserRepository(db)
	queueRepo := verification.NewQueueRepository(db)
	activityRepo := audit.NewActivityRepository(db)
	fileStore := uploads.NewLocalFileStore(t.TempDir(), "/uploads")

	userService := users.NewUserService(db, userRepo, users.NewProfileRepository(db))
	banService := bans.NewBanService(db, userRepo, bans.NewBanRepository(db), activityRepo, nil)
	authService := auth.NewAuthService(userService, banService, auth.NewTokenService("test-key", store.NewRedisStorage(rdb)), activityRepo)
	verificationService := verification.NewVerificationService(db, userRepo, queueRepo, activityRepo, nil)
	codeService := codes.NewCodeService(db, codes.NewCodeRepository(db), userRepo, queueRepo, activityRepo)

	authHandler := NewAuthHandler(authService, userService, production)
	profileHandler := NewProfileHandler(userService, verificationService, codeService)
	banHandler := NewBanHandler(banService)
	codeHandler := NewCodeHandler(codeService)
	alumniHandler := NewAlumniHandler(alumni.NewAlumniService(alumni.NewAlumniRepository(alumniDB)))
	postHandler := NewPostHandler(moderation.NewPostService(db, activityRepo, fileStore))

	app := fiber.New(fiber.Config{ErrorHandler: middlewares.ErrorHandler})
	app.Post("/api/auth/register", authHandler.PostRegister)
	app.Post("/api/auth/login", authHandler.PostLogin)
	app.Post("/api/auth/refresh", authHandler.PostRefresh)
	app.Post("/admin/login", authHandler.PostAdminLogin)

	member := app.Group("/api", middlewares.RequireAuth(authService))
	member.Get("/me", profileHandler.GetMe)
	member.Post("/verification/redeem", profileHandler.PostRedeem)
	member.Post("/posts", postHandler.PostCreate)

	admin := app.Group("/admin", middlewares.RequireAuth(authService), middlewares.RequireAdmin())
	admin.Post("/users/:userId/ban", banHandler.PostBanUser)
	admin.Get("/users/banned", banHandler.GetBannedUsers)
	admin.Post("/codes/generate", codeHandler.PostGenerate)
	admin.Post("/alumni/search", alumniHandler.PostSearch)
	admin.Get("/posts/pending", postHandler.GetPending)
	admin.Put("/posts/:id/approve", postHandler.PutApprove)

	return &testServer{app: app, db: db, userService: userService}
}

func (s *testServer) createUser(t *testing.T, email string, role model.Role) *model.User {
	user, err := s.userService.CreateUser(context.Background(), users.CreateUserOptions{
		Name:     "Test User",
		Email:    email,
		Password: testPassword,
		Role:     role,
	})
	require.NoError(t, err)
	return user
}

func (s *testServer) send(t *testing.T, req *http.Request, token string) (*http.Response, map[string]any) {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func (s *testServer) do(t *testing.T, method, path string, payload any, token string) (*http.Response, map[string]any) {
	var reader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.send(t, req, token)
}

func (s *testServer) login(t *testing.T, path, email string) string {
	resp, body := s.do(t, "POST", path, map[string]string{"email": email, "password": testPassword}, "")
	require.Equal(t, 200, resp.StatusCode, body)
	return body["data"].(map[string]any)["accessToken"].(string)
}

func refreshCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == params.RefreshTokenCookieName {
			return c
		}
	}
	return nil
}

func TestAdminLoginCookie(t *testing.T) {
	for _, production := range []bool{false, true} {
		srv := newTestServer(t, production)
		srv.createUser(t, "admin@alumnet.example", model.RoleAdmin)
		srv.createUser(t, "asha@example.com", model.RoleAlumni)

		resp, body := srv.do(t, "POST", "/admin/login", map[string]string{"email": "asha@example.com", "password": testPassword}, "")
		assert.Equal(t, 403, resp.StatusCode)
		assert.Equal(t, false, body["success"])

		resp, body = srv.do(t, "POST", "/admin/login", map[string]string{"email": "admin@alumnet.example"}, "")
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, "Email and password are required", body["message"])

		resp, body = srv.do(t, "POST", "/admin/login", map[string]string{"email": "admin@alumnet.example", "password": testPassword}, "")
		require.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, true, body["success"])

		cookie := refreshCookie(resp)
		require.NotNil(t, cookie)
		assert.True(t, cookie.HttpOnly)
		assert.Equal(t, int(params.RefreshTokenExpiration.Seconds()), cookie.MaxAge)
		if production {
			assert.Equal(t, http.SameSiteNoneMode, cookie.SameSite)
			assert.True(t, cookie.Secure)
		} else {
			assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
		}

		req := httptest.NewRequest("POST", "/api/auth/refresh", nil)
		req.AddCookie(&http.Cookie{Name: params.RefreshTokenCookieName, Value: cookie.Value})
		resp, body = srv.send(t, req, "")
		assert.Equal(t, 200, resp.StatusCode)
		assert.NotEmpty(t, body["data"].(map[string]any)["accessToken"])
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, false)

	resp, body := srv.do(t, "POST", "/api/auth/register", map[string]string{"name": "Asha", "email": "not-an-email", "password": "short"}, "")
	assert.Equal(t, 400, resp.StatusCode)
	assert.Contains(t, body["message"], "email must be a valid email address")
	assert.Contains(t, body["message"], "password must be at least 8 characters in length")

	resp, body = srv.do(t, "POST", "/api/auth/register", map[string]string{"name": "Asha", "email": "asha@example.com", "password": testPassword}, "")
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "student", body["data"].(map[string]any)["role"])

	resp, body = srv.do(t, "POST", "/api/auth/register", map[string]string{"name": "Asha", "email": "ASHA@example.com", "password": testPassword}, "")
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "Email is already registered", body["message"])
}

func TestBanEndpoints(t *testing.T) {
	srv := newTestServer(t, false)
	srv.createUser(t, "admin@alumnet.example", model.RoleAdmin)
	member := srv.createUser(t, "asha@example.com", model.RoleAlumni)
	adminToken := srv.login(t, "/admin/login", "admin@alumnet.example")
	memberToken := srv.login(t, "/api/auth/login", "asha@example.com")

	banPath := "/admin/users/" + jsonNumber(member.ID) + "/ban"
	resp, _ := srv.do(t, "POST", banPath, map[string]string{"duration": "7d", "reason": "spam"}, memberToken)
	assert.Equal(t, 403, resp.StatusCode)

	resp, body := srv.do(t, "POST", banPath, map[string]string{"duration": "2w", "reason": "spam"}, adminToken)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "Invalid ban duration", body["message"])

	resp, body = srv.do(t, "POST", banPath, map[string]string{"duration": "7d", "reason": "spam"}, adminToken)
	require.Equal(t, 200, resp.StatusCode, body)
	assert.Equal(t, "User banned successfully", body["message"])

	resp, body = srv.do(t, "GET", "/api/me", nil, memberToken)
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, "Your account has been banned", body["message"])

	resp, body = srv.do(t, "POST", banPath, map[string]string{"duration": "7d", "reason": "again"}, adminToken)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "User is already banned", body["message"])

	resp, body = srv.do(t, "GET", "/admin/users/banned?page=1&limit=5", nil, adminToken)
	require.Equal(t, 200, resp.StatusCode)
	require.Len(t, body["data"], 1)
	assert.Equal(t, map[string]any{"total": 1.0, "page": 1.0, "limit": 5.0, "totalPages": 1.0}, body["pagination"])
	bannedID := body["data"].([]any)[0].(map[string]any)["user_id"]
	assert.Equal(t, strconv.FormatUint(uint64(member.ID), 10), bannedID)

	resp, body = srv.do(t, "GET", "/admin/users/"+bannedID.(string)+"/bans", nil, adminToken)
	require.Equal(t, 200, resp.StatusCode)
	assert.Len(t, body["data"], 1)

	resp, _ = srv.do(t, "POST", "/admin/users/abc/ban", map[string]string{"duration": "7d", "reason": "spam"}, adminToken)
	assert.Equal(t, 400, resp.StatusCode)

	resp, body = srv.do(t, "POST", "/api/auth/login", map[string]string{"email": "asha@example.com", "password": testPassword}, "")
	assert.Equal(t, 403, resp.StatusCode)
	assert.Equal(t, "Your account has been banned", body["message"])
}

func TestGenerateCodesRateLimited(t *testing.T) {
	srv := newTestServer(t, false)
	srv.createUser(t, "admin@alumnet.example", model.RoleAdmin)
	adminToken := srv.login(t, "/admin/login", "admin@alumnet.example")

	resp, body := srv.do(t, "POST", "/admin/codes/generate", map[string]int{"count": 6}, adminToken)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "Count must be between 1 and 5", body["message"])

	resp, body = srv.do(t, "POST", "/admin/codes/generate", map[string]int{"count": 5}, adminToken)
	require.Equal(t, 201, resp.StatusCode)
	assert.Len(t, body["data"], 5)

	resp, _ = srv.do(t, "POST", "/admin/codes/generate", map[string]int{"count": 1}, adminToken)
	assert.Equal(t, 429, resp.StatusCode)
}

func TestAlumniSearchWithoutFilters(t *testing.T) {
	srv := newTestServer(t, false)
	srv.createUser(t, "admin@alumnet.example", model.RoleAdmin)
	adminToken := srv.login(t, "/admin/login", "admin@alumnet.example")

	resp, body := srv.do(t, "POST", "/admin/alumni/search", map[string]string{"name": "  ", "branch": ""}, adminToken)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, map[string]any{"success": true, "matches": []any{}}, body)
}

func TestPostSubmissionAndReview(t *testing.T) {
	srv := newTestServer(t, false)
	srv.createUser(t, "admin@alumnet.example", model.RoleAdmin)
	srv.createUser(t, "asha@example.com", model.RoleAlumni)
	adminToken := srv.login(t, "/admin/login", "admin@alumnet.example")
	memberToken := srv.login(t, "/api/auth/login", "asha@example.com")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("content", "Reunion photos"))
	part, err := writer.CreateFormFile("images", "photo.png")
	require.NoError(t, err)
	part.Write(append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/api/posts", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, body := srv.send(t, req, memberToken)
	require.Equal(t, 201, resp.StatusCode, body)
	post := body["data"].(map[string]any)
	assert.Equal(t, "pending", post["status"])
	assert.Len(t, post["images"], 1)

	resp, body = srv.do(t, "GET", "/admin/posts/pending", nil, adminToken)
	require.Equal(t, 200, resp.StatusCode)
	assert.Len(t, body["data"], 1)

	approvePath := "/admin/posts/" + jsonNumber(uint(post["id"].(float64))) + "/approve"
	resp, body = srv.do(t, "PUT", approvePath, nil, adminToken)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "Post approved successfully", body["message"])

	resp, body = srv.do(t, "PUT", approvePath, nil, adminToken)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "Only pending posts can be approved", body["message"])

	resp, body = srv.do(t, "PUT", "/admin/posts/999/approve", nil, adminToken)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Equal(t, "Post not found", body["message"])
}

func TestRedeemCodeEndpoint(t *testing.T) {
	srv := newTestServer(t, false)
	srv.createUser(t, "admin@alumnet.example", model.RoleAdmin)
	srv.createUser(t, "asha@example.com", model.RoleAlumni)
	adminToken := srv.login(t, "/admin/login", "admin@alumnet.example")
	memberToken := srv.login(t, "/api/auth/login", "asha@example.com")

	resp, body := srv.do(t, "POST", "/admin/codes/generate", nil, adminToken)
	require.Equal(t, 201, resp.StatusCode)
	code := body["data"].([]any)[0].(map[string]any)["code"].(string)

	resp, body = srv.do(t, "POST", "/api/verification/redeem", map[string]string{"code": "WRONGCODE1"}, memberToken)
	assert.Equal(t, 400, resp.StatusCode)
	assert.Equal(t, "Verification code is invalid or expired", body["message"])

	resp, _ = srv.do(t, "POST", "/api/verification/redeem", map[string]string{"code": code}, memberToken)
	require.Equal(t, 200, resp.StatusCode)

	resp, body = srv.do(t, "GET", "/api/me", nil, memberToken)
	require.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, true, body["data"].(map[string]any)["user"].(map[string]any)["verifiedAlumni"])
}

func jsonNumber(id uint) string {
	data, _ := json.Marshal(id)
	return string(data)
}
