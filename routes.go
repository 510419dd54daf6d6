package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/khanghh/alumnet/internal/alumni"
	"github.com/khanghh/alumnet/internal/auth"
	"github.com/khanghh/alumnet/internal/bans"
	"github.com/khanghh/alumnet/internal/codes"
	"github.com/khanghh/alumnet/internal/dashboard"
	"github.com/khanghh/alumnet/internal/handlers/api"
	"github.com/khanghh/alumnet/internal/middlewares"
	"github.com/khanghh/alumnet/internal/middlewares/captcha"
	"github.com/khanghh/alumnet/internal/moderation"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/internal/verification"
)

type routeDeps struct {
	production          bool
	authService         *auth.AuthService
	userService         *users.UserService
	banService          *bans.BanService
	verificationService *verification.VerificationService
	codeService         *codes.CodeService
	alumniService       *alumni.AlumniService
	dashboardService    *dashboard.DashboardService
	postService         *moderation.PostService
	eventService        *moderation.EventService
	newsletterService   *moderation.NewsletterService
	captchaVerifier     captcha.CaptchaVerifier
	limiterStorage      fiber.Storage
}

func setupModerationRoutes[T any](router fiber.Router, handler *api.ModerationHandler[T]) {
	router.Get("/", handler.GetAll)
	router.Get("/pending", handler.GetPending)
	router.Put("/:id/approve", handler.PutApprove)
	router.Put("/:id/reject", handler.PutReject)
	router.Delete("/:id", handler.Delete)
}

func setupAPIRoutes(router fiber.Router, deps routeDeps) {
	// handlers
	var (
		authHandler       = api.NewAuthHandler(deps.authService, deps.userService, deps.production)
		profileHandler    = api.NewProfileHandler(deps.userService, deps.verificationService, deps.codeService)
		postHandler       = api.NewPostHandler(deps.postService)
		eventHandler      = api.NewEventHandler(deps.eventService)
		newsletterHandler = api.NewNewsletterHandler(deps.newsletterService)
	)

	// public routes
	router.Post("/auth/register", captcha.New(deps.captchaVerifier), authHandler.PostRegister)
	router.Post("/auth/login", middlewares.LoginLimiter(deps.limiterStorage), authHandler.PostLogin)
	router.Post("/auth/refresh", authHandler.PostRefresh)
	router.Post("/auth/logout", authHandler.PostLogout)
	router.Get("/newsletters", newsletterHandler.GetPublished)
	router.Post("/newsletters/:id/view", newsletterHandler.PostView)
	router.Post("/newsletters/:id/download", newsletterHandler.PostDownload)

	// member routes
	member := router.Group("", middlewares.RequireAuth(deps.authService))
	member.Get("/me", profileHandler.GetMe)
	member.Put("/profile", profileHandler.PutProfile)
	member.Put("/password", profileHandler.PutPassword)
	member.Post("/verification/claim", profileHandler.PostClaim)
	member.Post("/verification/redeem", profileHandler.PostRedeem)
	member.Get("/posts", postHandler.GetFeed)
	member.Get("/posts/mine", postHandler.GetMine)
	member.Post("/posts", postHandler.PostCreate)
	member.Get("/events", eventHandler.GetUpcoming)
	member.Get("/events/mine", eventHandler.GetMine)
	member.Post("/events", eventHandler.PostCreate)
}

func setupAdminRoutes(router fiber.Router, deps routeDeps) {
	// handlers
	var (
		authHandler         = api.NewAuthHandler(deps.authService, deps.userService, deps.production)
		dashboardHandler    = api.NewDashboardHandler(deps.dashboardService)
		banHandler          = api.NewBanHandler(deps.banService)
		verificationHandler = api.NewVerificationHandler(deps.verificationService)
		codeHandler         = api.NewCodeHandler(deps.codeService)
		postHandler         = api.NewPostHandler(deps.postService)
		eventHandler        = api.NewEventHandler(deps.eventService)
		newsletterHandler   = api.NewNewsletterHandler(deps.newsletterService)
	)

	router.Post("/login", middlewares.LoginLimiter(deps.limiterStorage), authHandler.PostAdminLogin)

	admin := router.Group("", middlewares.RequireAuth(deps.authService), middlewares.RequireAdmin())
	admin.Get("/dashboard", dashboardHandler.GetDashboard)
	admin.Get("/activities", dashboardHandler.GetActivities)

	admin.Get("/users/banned", banHandler.GetBannedUsers)
	admin.Get("/users/:userId/bans", banHandler.GetUserBanHistory)
	admin.Post("/users/:userId/ban", banHandler.PostBanUser)
	admin.Post("/users/:userId/unban", banHandler.PostUnbanUser)

	admin.Get("/verification/queue", verificationHandler.GetQueue)
	admin.Get("/verification/stats", verificationHandler.GetStats)
	admin.Post("/verification/:userId/approve", verificationHandler.PostApprove)
	admin.Post("/verification/:userId/reject", verificationHandler.PostReject)

	if deps.alumniService != nil {
		alumniHandler := api.NewAlumniHandler(deps.alumniService)
		admin.Get("/alumni/batches", alumniHandler.GetBatches)
		admin.Get("/alumni/batch/:batch", alumniHandler.GetBatch)
		admin.Post("/alumni/search", alumniHandler.PostSearch)
	}

	admin.Post("/codes/generate", codeHandler.PostGenerate)
	admin.Get("/codes", codeHandler.GetCodes)
	admin.Delete("/codes/expired", codeHandler.DeleteExpired)

	admin.Post("/events", eventHandler.PostCreate)
	admin.Post("/newsletters", newsletterHandler.PostUpload)
	setupModerationRoutes(admin.Group("/posts"), postHandler.ModerationHandler)
	setupModerationRoutes(admin.Group("/events"), eventHandler.ModerationHandler)
	setupModerationRoutes(admin.Group("/newsletters"), newsletterHandler.ModerationHandler)
}
