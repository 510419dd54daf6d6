package params

import "time"

const (
	ServerBodyLimit           = 12 * 1024 * 1024 // 12 MiB, leaves room for multipart overhead on newsletter uploads
	ServerIdleTimeout         = 30 * time.Second
	ServerReadTimeout         = 30 * time.Second
	ServerWriteTimeout        = 30 * time.Second
	RefreshTokenKeyPrefix     = "rt:"
	AccessTokenExpiration     = 15 * time.Minute
	RefreshTokenExpiration    = 365 * 24 * time.Hour // refresh_token cookie max age
	RefreshTokenCookieName    = "refresh_token"
	LoginRateLimitMax         = 10              // login attempts per IP per window
	LoginRateLimitWindow      = 1 * time.Minute // login rate limit window
	DefaultPageLimit          = 10              // default page size of list endpoints
	MaxPageLimit              = 100             // maximum page size of list endpoints
	VerificationCodeLength    = 10              // length of an alumni verification code
	VerificationCodeTTL       = 7 * 24 * time.Hour
	CodeRateLimitWindow       = 60 * time.Second // trailing window of the per-admin code generation limit
	CodeRateLimitMax          = 5                // codes an admin may generate inside the window
	CodeMaxPerRequest         = 5                // codes per generate request
	CodeInsertMaxRetries      = 5                // attempts to insert a code before giving up on collisions
	AlumniSearchLimit         = 100              // maximum rows returned by alumni search
	AlumniDefaultBatchLimit   = 50               // default page size when listing a batch
	NewsletterMaxSize         = 10 * 1024 * 1024 // 10 MiB
	ImageMaxSize              = 2 * 1024 * 1024  // 2 MiB per post or event image
	MaxImagesPerUpload        = 5
	RegistrationWindow        = 30 * 24 * time.Hour
	RecentActivityLimit       = 10
	HealthCheckServerAddr     = ":3001" // health check and metrics server address
	DatabaseConnMaxLifetime   = time.Hour
	DatabaseDefaultIdleConns  = 10
	DatabaseDefaultOpenConns  = 100
	AlumniDatabaseOpenConns   = 25
	AlumniDatabaseIdleConns   = 5
	AlumniDatabaseMaxLifetime = 5 * time.Minute
)
