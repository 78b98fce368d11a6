package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	AdminAccessAdmin  = "admin"
	AdminAccessVendor = "vendor"
)

const (
	StorageDriverS3 = "s3"
	// StorageDriverMemory keeps documents in process; they do not survive a restart.
	StorageDriverMemory = "memory"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Security      SecurityConfig      `mapstructure:"security" validate:"required"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Trials        TrialsConfig        `mapstructure:"trials"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	OpenAPIPath       string        `mapstructure:"openapi_path"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"required,min=1"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"required,min=1"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"required,min=1m"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time" validate:"required,min=1m"`
	Source          string        `mapstructure:"source"`
}

type SecurityConfig struct {
	JWTSecret           string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration" validate:"required,min=1m"`
	BCryptCost          int           `mapstructure:"bcrypt_cost" validate:"required,min=4,max=15"`
}

// StorageConfig points at the S3-compatible bucket holding trial documents.
type StorageConfig struct {
	// Driver is "s3" (the default) or "memory", which must be chosen explicitly.
	Driver         string        `mapstructure:"driver"`
	Bucket         string        `mapstructure:"bucket"`
	Region         string        `mapstructure:"region"`
	Endpoint       string        `mapstructure:"endpoint"`
	UsePathStyle   bool          `mapstructure:"use_path_style"`
	PresignTTL     time.Duration `mapstructure:"presign_ttl"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

type TrialsConfig struct {
	// AdminAccess decides who may use the unscoped /admin/trials paths: "admin" or "vendor".
	AdminAccess string `mapstructure:"admin_access"`
}

type ObservabilityConfig struct {
	Logging LoggingConfig `mapstructure:"logging"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json text"`
}

// LoadConfigFromEnv builds the configuration for container deployments where no config.yml is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("PORT", 8080),
			BaseURL:           getEnv("BASE_URL", ""),
			AllowedOrigins:    joinOrigins(getEnv("FRONTEND_URL", ""), getEnv("CORS_ORIGINS", "")),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
			OpenAPIPath:       getEnv("OPENAPI_PATH", "./api/openapi.yml"),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 20),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Security: SecurityConfig{
			JWTSecret:           getEnv("SECRET_KEY", ""),
			AccessTokenDuration: time.Duration(getEnvAsInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
			BCryptCost:          getEnvAsInt("BCRYPT_COST", 12),
		},
		Storage: StorageConfig{
			Driver:         getEnv("STORAGE_DRIVER", StorageDriverS3),
			Bucket:         getEnv("S3_BUCKET_NAME", ""),
			Region:         getEnv("AWS_REGION", "us-east-1"),
			Endpoint:       getEnv("S3_ENDPOINT", ""),
			UsePathStyle:   getEnv("S3_USE_PATH_STYLE", "false") == "true",
			PresignTTL:     getEnvAsDuration("S3_PRESIGN_TTL", 15*time.Minute),
			MaxUploadBytes: int64(getEnvAsInt("MAX_UPLOAD_BYTES", 25<<20)),
		},
		Trials: TrialsConfig{
			AdminAccess: getEnv("TRIALS_ADMIN_ACCESS", AdminAccessAdmin),
		},
		Observability: ObservabilityConfig{
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

func joinOrigins(parts ...string) string {
	var origins []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			origins = append(origins, p)
		}
	}
	return strings.Join(origins, ",")
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if err := c.Trials.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("trials config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.AllowedOrigins != "" {
		for _, origin := range c.Origins() {
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	return nil
}

// Origins splits AllowedOrigins into trimmed, non-empty entries.
func (c *ServerConfig) Origins() []string {
	var out []string
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

func (c *DatabaseConfig) Validate() error {
	if c.Source == "" {
		return errors.New("source is required")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *SecurityConfig) Validate() error {
	if len(c.JWTSecret) < 32 {
		return errors.New("jwt_secret must be at least 32 characters")
	}
	if c.AccessTokenDuration < time.Minute {
		return errors.New("access_token_duration must be at least 1m")
	}
	if c.BCryptCost < 4 || c.BCryptCost > 15 {
		return errors.New("bcrypt_cost must be between 4 and 15")
	}
	return nil
}

func (c *StorageConfig) Validate() error {
	if c.MaxUploadBytes < 0 {
		return errors.New("max_upload_bytes cannot be negative")
	}
	switch c.Driver {
	case StorageDriverMemory:
		return nil
	case "", StorageDriverS3:
		if c.Bucket == "" {
			return fmt.Errorf("bucket is required for the s3 driver; set driver to %q to keep documents in memory", StorageDriverMemory)
		}
		if c.Region == "" {
			return errors.New("region is required for the s3 driver")
		}
		return nil
	}
	return fmt.Errorf("driver must be %q or %q", StorageDriverS3, StorageDriverMemory)
}

// UseMemory reports whether documents are kept in process instead of a bucket.
func (c *StorageConfig) UseMemory() bool {
	return c.Driver == StorageDriverMemory
}

func (c *TrialsConfig) Validate() error {
	switch c.AdminAccess {
	case "", AdminAccessAdmin, AdminAccessVendor:
		return nil
	}
	return fmt.Errorf("admin_access must be %q or %q", AdminAccessAdmin, AdminAccessVendor)
}
