package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/storage/redis/v3"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/khanghh/alumnet/internal/alumni"
	"github.com/khanghh/alumnet/internal/audit"
	"github.com/khanghh/alumnet/internal/auth"
	"github.com/khanghh/alumnet/internal/bans"
	"github.com/khanghh/alumnet/internal/codes"
	"github.com/khanghh/alumnet/internal/common"
	"github.com/khanghh/alumnet/internal/config"
	"github.com/khanghh/alumnet/internal/dashboard"
	"github.com/khanghh/alumnet/internal/mail"
	"github.com/khanghh/alumnet/internal/middlewares"
	"github.com/khanghh/alumnet/internal/middlewares/captcha"
	"github.com/khanghh/alumnet/internal/moderation"
	"github.com/khanghh/alumnet/internal/render"
	"github.com/khanghh/alumnet/internal/store"
	"github.com/khanghh/alumnet/internal/uploads"
	"github.com/khanghh/alumnet/internal/users"
	"github.com/khanghh/alumnet/internal/verification"
	"github.com/khanghh/alumnet/model"
	"github.com/khanghh/alumnet/params"
	"github.com/urfave/cli/v2"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/plugin/dbresolver"
)

var (
	app       *cli.App
	gitCommit string
	gitDate   string
	gitTag    string
)

var (
	configFileFlag = &cli.StringFlag{
		Name:  "config",
		Usage: "YAML config file",
		Value: "config.yaml",
	}
	debugFlag = &cli.BoolFlag{
		Name:  "debug",
		Usage: "Enable debug logging",
	}
	adminEmailFlag = &cli.StringFlag{
		Name:     "email",
		Usage:    "Admin email address",
		Required: true,
	}
	adminNameFlag = &cli.StringFlag{
		Name:  "name",
		Usage: "Admin display name",
		Value: "Administrator",
	}
	adminPasswordFlag = &cli.StringFlag{
		Name:     "password",
		Usage:    "Admin password",
		EnvVars:  []string{"ADMIN_PASSWORD"},
		Required: true,
	}
)

func init() {
	app = cli.NewApp()
	app.EnableBashCompletion = true
	app.Usage = "alumnet - alumni network backend"
	app.Flags = []cli.Flag{
		configFileFlag,
		debugFlag,
	}
	app.Commands = []*cli.Command{
		{
			Name:   "run",
			Usage:  "Start the API server",
			Action: run,
		},
		{
			Name:   "sweep-bans",
			Usage:  "Lift every ban whose duration has elapsed",
			Action: sweepBans,
		},
		{
			Name:   "create-admin",
			Usage:  "Create an admin account",
			Flags:  []cli.Flag{adminEmailFlag, adminNameFlag, adminPasswordFlag},
			Action: createAdmin,
		},
		{
			Name: "version",
			Action: func(ctx *cli.Context) error {
				fmt.Println(params.VersionWithCommit(gitCommit, gitDate))
				return nil
			},
		},
	}
	app.Action = run
}

func mustInitLogger(logCfg config.LogConfig, debug bool) {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	var output io.Writer = os.Stdout
	if logCfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(logCfg.File), 0755); err != nil {
			fmt.Fprintln(os.Stderr, "Failed to create log directory:", err)
			os.Exit(1)
		}
		output = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logCfg.File,
			MaxSize:    logCfg.MaxSize,
			MaxBackups: logCfg.MaxBackups,
			MaxAge:     logCfg.MaxAge,
			Compress:   logCfg.Compress,
		})
	}
	handler := slog.NewTextHandler(output, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))
}

func newGormLogger(debug bool) gormlogger.Interface {
	level := gormlogger.Warn
	slogLevel := slog.LevelWarn
	if debug {
		level = gormlogger.Info
		slogLevel = slog.LevelDebug
	}
	return gormlogger.New(slog.NewLogLogger(slog.Default().Handler(), slogLevel), gormlogger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func openDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

func mustInitDatabase(cfg *config.Config, debug bool) *gorm.DB {
	dialector, err := openDialector(cfg.Database.Driver, cfg.PrimaryDSN())
	if err != nil {
		slog.Error("Invalid database config", "error", err)
		os.Exit(1)
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   newGormLogger(debug),
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	maxIdle := cfg.Database.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = params.DatabaseDefaultIdleConns
	}
	maxOpen := cfg.Database.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = params.DatabaseDefaultOpenConns
	}
	lifetime := cfg.Database.ConnMaxLifetime
	if lifetime <= 0 {
		lifetime = params.DatabaseConnMaxLifetime
	}

	if len(cfg.Database.Replicas) > 0 {
		replicas := make([]gorm.Dialector, 0, len(cfg.Database.Replicas))
		for _, dsn := range cfg.Database.Replicas {
			replica, err := openDialector(cfg.Database.Driver, dsn)
			if err != nil {
				slog.Error("Invalid replica config", "error", err)
				os.Exit(1)
			}
			replicas = append(replicas, replica)
		}
		resolver := dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		}).
			SetMaxIdleConns(maxIdle).
			SetMaxOpenConns(maxOpen).
			SetConnMaxLifetime(lifetime)
		if err := db.Use(resolver); err != nil {
			slog.Error("Failed to register read replicas", "error", err)
			os.Exit(1)
		}
		slog.Info("Read replicas enabled", "count", len(replicas))
	}

	sqlDB, err := db.DB()
	if err != nil {
		slog.Error("Failed to get database handle", "error", err)
		os.Exit(1)
	}
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetConnMaxLifetime(lifetime)

	if err := model.AutoMigrate(db); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}
	return db
}

// mustInitAlumniDB connects to the read-only alumni records database. It
// returns nil when no url is configured.
func mustInitAlumniDB(alumniCfg config.AlumniDBConfig) *sql.DB {
	if alumniCfg.URL == "" {
		slog.Warn("Alumni database is not configured, alumni lookup is disabled")
		return nil
	}
	db, err := sql.Open("pgx", alumniCfg.URL)
	if err != nil {
		slog.Error("Failed to open alumni database", "error", err)
		os.Exit(1)
	}
	db.SetMaxOpenConns(params.AlumniDatabaseOpenConns)
	db.SetMaxIdleConns(params.AlumniDatabaseIdleConns)
	db.SetConnMaxLifetime(params.AlumniDatabaseMaxLifetime)
	return db
}

func mustInitRedisStorage(redisCfg config.RedisConfig) *redis.Storage {
	return redis.New(redis.Config{
		URL:           redisCfg.URL,
		PoolSize:      redisCfg.PoolSize,
		IsClusterMode: redisCfg.ClusterMode,
	})
}

func mustInitMailSender(mailCfg config.MailConfig) mail.MailSender {
	switch mailCfg.Backend {
	case "smtp":
		sender, err := mail.NewSMTPMailSender(mailCfg.SMTP, mailCfg.From)
		if err != nil {
			slog.Error("Failed to init SMTP mail sender", "error", err)
			os.Exit(1)
		}
		return sender
	case "log":
		return &mail.LogMailSender{From: mailCfg.From}
	default:
		slog.Error("Unsupported mail sender backend", "backend", mailCfg.Backend)
		os.Exit(1)
	}
	return nil
}

func mustInitMailer(cfg *config.Config) *mail.Mailer {
	renderer, err := render.New(map[string]interface{}{
		"siteName": cfg.SiteName,
		"baseURL":  cfg.BaseURL,
	}, cfg.TemplateDir)
	if err != nil {
		slog.Error("Failed to load mail templates", "error", err)
		os.Exit(1)
	}
	return mail.NewMailer(mustInitMailSender(cfg.Mail), renderer, cfg.SiteName)
}

func mustInitFileStore(ctx context.Context, storageCfg config.StorageConfig) uploads.FileStore {
	switch storageCfg.Backend {
	case "local":
		return uploads.NewLocalFileStore(storageCfg.UploadDir, "/uploads")
	case "minio":
		fileStore, err := uploads.NewMinioFileStore(storageCfg.Minio)
		if err != nil {
			slog.Error("Failed to init object storage", "error", err)
			os.Exit(1)
		}
		if err := fileStore.EnsureBucket(ctx); err != nil {
			slog.Error("Failed to prepare upload bucket", "error", err)
			os.Exit(1)
		}
		return fileStore
	default:
		slog.Error("Unsupported storage backend", "backend", storageCfg.Backend)
		os.Exit(1)
	}
	return nil
}

func mustInitCaptchaVerifier(captchaCfg config.CaptchaConfig) captcha.CaptchaVerifier {
	if captchaCfg.Provider == "turnstile" {
		return captcha.NewTurnstileVerifier(captchaCfg.Turnstile.SecretKey)
	}
	return captcha.NewNullVerifier()
}

// loadConfig reads the config file and sets up logging, shared by every command.
func loadConfig(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(ctx.String(configFileFlag.Name))
	if err != nil {
		slog.Error("Could not load config file.", "error", err)
		return nil, err
	}
	mustInitLogger(cfg.Log, cfg.Debug || ctx.IsSet(debugFlag.Name))
	return cfg, nil
}

func newBanService(db *gorm.DB, notifier bans.BanNotifier) *bans.BanService {
	return bans.NewBanService(db, users.NewUserRepository(db), bans.NewBanRepository(db), audit.NewActivityRepository(db), notifier)
}

func sweepBans(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	db := mustInitDatabase(cfg, cfg.Debug)
	lifted, err := newBanService(db, mustInitMailer(cfg)).SweepExpiredBans(ctx.Context)
	if err != nil {
		slog.Error("Ban sweep failed", "lifted", lifted, "error", err)
		return err
	}
	slog.Info("Ban sweep finished", "lifted", lifted)
	return nil
}

func createAdmin(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	db := mustInitDatabase(cfg, cfg.Debug)
	userService := users.NewUserService(db, users.NewUserRepository(db), users.NewProfileRepository(db))
	user, err := userService.CreateUser(ctx.Context, users.CreateUserOptions{
		Name:     ctx.String(adminNameFlag.Name),
		Email:    ctx.String(adminEmailFlag.Name),
		Password: ctx.String(adminPasswordFlag.Name),
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return err
	}
	slog.Info("Admin account created", "userID", user.ID, "email", user.Email)
	return nil
}

func run(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	debug := cfg.Debug || ctx.IsSet(debugFlag.Name)

	db := mustInitDatabase(cfg, debug)
	alumniDB := mustInitAlumniDB(cfg.AlumniDB)
	redisStorage := mustInitRedisStorage(cfg.Redis)
	cacheStorage := store.NewRedisStorage(redisStorage.Conn())
	fileStore := mustInitFileStore(ctx.Context, cfg.Storage)
	mailer := mustInitMailer(cfg)

	// repositories
	var (
		userRepo     = users.NewUserRepository(db)
		profileRepo  = users.NewProfileRepository(db)
		queueRepo    = verification.NewQueueRepository(db)
		banRepo      = bans.NewBanRepository(db)
		codeRepo     = codes.NewCodeRepository(db)
		activityRepo = audit.NewActivityRepository(db)
		statsRepo    = dashboard.NewStatsRepository(db)
	)

	// services
	var (
		userService         = users.NewUserService(db, userRepo, profileRepo)
		banService          = bans.NewBanService(db, userRepo, banRepo, activityRepo, mailer)
		tokenService        = auth.NewTokenService(cfg.MasterKey, cacheStorage)
		authService         = auth.NewAuthService(userService, banService, tokenService, activityRepo)
		verificationService = verification.NewVerificationService(db, userRepo, queueRepo, activityRepo, mailer)
		codeService         = codes.NewCodeService(db, codeRepo, userRepo, queueRepo, activityRepo)
		postService         = moderation.NewPostService(db, activityRepo, fileStore)
		eventService        = moderation.NewEventService(db, activityRepo, fileStore)
		newsletterService   = moderation.NewNewsletterService(db, activityRepo, fileStore)
		dashboardService    = dashboard.NewDashboardService(statsRepo, queueRepo, eventService, postService, banService, activityRepo)
	)
	var alumniService *alumni.AlumniService
	if alumniDB != nil {
		alumniService = alumni.NewAlumniService(alumni.NewAlumniRepository(alumniDB))
	}

	router := fiber.New(fiber.Config{
		Prefork:       false,
		CaseSensitive: true,
		BodyLimit:     params.ServerBodyLimit,
		IdleTimeout:   params.ServerIdleTimeout,
		ReadTimeout:   params.ServerReadTimeout,
		WriteTimeout:  params.ServerWriteTimeout,
		ErrorHandler:  middlewares.ErrorHandler,
	})

	router.Use(recover.New())
	router.Use(logger.New())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.AllowOrigins, ", "),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + captcha.TokenHeader,
		AllowCredentials: len(cfg.AllowOrigins) > 0 && !containsWildcard(cfg.AllowOrigins),
	}))
	router.Use(middlewares.Metrics())
	if cfg.Storage.Backend == "local" {
		router.Static("/uploads", cfg.Storage.UploadDir)
	}

	deps := routeDeps{
		production:          cfg.IsProduction(),
		authService:         authService,
		userService:         userService,
		banService:          banService,
		verificationService: verificationService,
		codeService:         codeService,
		alumniService:       alumniService,
		dashboardService:    dashboardService,
		postService:         postService,
		eventService:        eventService,
		newsletterService:   newsletterService,
		captchaVerifier:     mustInitCaptchaVerifier(cfg.Captcha),
		limiterStorage:      redisStorage,
	}
	setupAPIRoutes(router.Group("/api"), deps)
	setupAdminRoutes(router.Group("/admin"), deps)

	healthCheckCtx, term := context.WithCancel(ctx.Context)
	done := make(chan struct{})
	go common.StartHealthCheckServer(healthCheckCtx, done, db, alumniDB, redisStorage.Conn())
	defer func() {
		term()
		<-done
		if alumniDB != nil {
			alumniDB.Close()
		}
		redisStorage.Close()
	}()

	slog.Info("Starting server", "version", params.VersionWithCommit(gitCommit, gitDate), "env", cfg.Env, "addr", cfg.ListenAddr)
	return router.Listen(cfg.ListenAddr)
}

func containsWildcard(origins []string) bool {
	for _, origin := range origins {
		if origin == "*" {
			return true
		}
	}
	return false
}

func main() {
	if err := app.Run(os.Args); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
