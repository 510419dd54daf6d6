package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultListenAddr = ":3000"
	DefaultUploadDir  = "./uploads"
	DefaultLogFile    = "logs/alumnet.log"

	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // mysql or postgres
	DsnDev          string        `mapstructure:"dsnDev"`
	DsnProd         string        `mapstructure:"dsnProd"`
	Replicas        []string      `mapstructure:"replicas"`
	MaxIdleConns    int           `mapstructure:"maxIdleConns"`
	MaxOpenConns    int           `mapstructure:"maxOpenConns"`
	ConnMaxLifetime time.Duration `mapstructure:"connMaxLifetime"`
}

type AlumniDBConfig struct {
	URL string `mapstructure:"url"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	TLS      bool   `mapstructure:"tls"`
	CertFile string `mapstructure:"certFile"`
	KeyFile  string `mapstructure:"keyFile"`
	CAFile   string `mapstructure:"caFile"`
}

type MailConfig struct {
	Backend string     `mapstructure:"backend"` // smtp or log
	From    string     `mapstructure:"from"`
	SMTP    SMTPConfig `mapstructure:"smtp"`
}

type TurnstileConfig struct {
	SiteKey   string `mapstructure:"siteKey"`
	SecretKey string `mapstructure:"secretKey"`
}

type CaptchaConfig struct {
	Provider  string          `mapstructure:"provider"`
	Turnstile TurnstileConfig `mapstructure:"turnstile,omitempty"`
}

type RedisConfig struct {
	URL         string `mapstructure:"url"`
	PoolSize    int    `mapstructure:"poolSize"`
	ClusterMode bool   `mapstructure:"clusterMode"`
}

type MinioConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"accessKey"`
	SecretKey string `mapstructure:"secretKey"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"useSSL"`
}

type StorageConfig struct {
	Backend   string      `mapstructure:"backend"` // local or minio
	UploadDir string      `mapstructure:"uploadDir"`
	Minio     MinioConfig `mapstructure:"minio"`
}

type LogConfig struct {
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"maxSize"` // megabytes
	MaxBackups int    `mapstructure:"maxBackups"`
	MaxAge     int    `mapstructure:"maxAge"` // days
	Compress   bool   `mapstructure:"compress"`
}

type Config struct {
	Debug        bool           `mapstructure:"debug"`
	Env          string         `mapstructure:"env"`
	SiteName     string         `mapstructure:"siteName"`
	BaseURL      string         `mapstructure:"baseURL"`
	TemplateDir  string         `mapstructure:"templateDir"`
	MasterKey    string         `mapstructure:"masterKey"`
	ListenAddr   string         `mapstructure:"listenAddr"`
	AllowOrigins []string       `mapstructure:"allowOrigins"`
	Log          LogConfig      `mapstructure:"log"`
	Redis        RedisConfig    `mapstructure:"redis"`
	Database     DatabaseConfig `mapstructure:"database"`
	AlumniDB     AlumniDBConfig `mapstructure:"alumniDB"`
	Mail         MailConfig     `mapstructure:"mail"`
	Captcha      CaptchaConfig  `mapstructure:"captcha"`
	Storage      StorageConfig  `mapstructure:"storage"`
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// PrimaryDSN selects the application database by environment.
func (c *Config) PrimaryDSN() string {
	if c.IsProduction() {
		return c.Database.DsnProd
	}
	return c.Database.DsnDev
}

func (c *Config) Sanitize() error {
	if c.Env == "" {
		c.Env = EnvDevelopment
	}
	if c.Env != EnvDevelopment && c.Env != EnvProduction {
		return errors.New("env must be development or production")
	}
	if c.ListenAddr == "" {
		c.ListenAddr = DefaultListenAddr
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "local"
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = DefaultUploadDir
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Mail.Backend == "" {
		c.Mail.Backend = "log"
	}
	if c.Log.File == "" {
		c.Log.File = DefaultLogFile
	}
	if c.MasterKey == "" {
		return errors.New("masterKey is required")
	}
	if c.PrimaryDSN() == "" {
		return errors.New("database dsn is required for env " + c.Env)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("siteName", "Alumnet")
	v.SetDefault("log.maxSize", 10)
	v.SetDefault("log.maxBackups", 30)
	v.SetDefault("log.maxAge", 90)
	v.SetDefault("log.compress", true)
	v.SetDefault("redis.poolSize", 10)
}

// LoadConfig reads the YAML config file. Values can be overridden from the
// environment (dots replaced by underscores) or a .env file next to the binary.
func LoadConfig(filename string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(filename)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.BindEnv("env", "APP_ENV", "NODE_ENV")
	v.BindEnv("database.dsnDev", "DATABASE_URI_DEV")
	v.BindEnv("database.dsnProd", "DATABASE_URI_PROD")
	v.BindEnv("alumniDB.url", "POSTGRESQL_DATABASE_URL")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Sanitize(); err != nil {
		return nil, err
	}
	return &config, nil
}
