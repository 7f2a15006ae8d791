package config

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/rikster-r/booking-calendar/backend/shared/go-utils"
)

// Config holds all application configuration, including secrets, flags, etc.
type Config struct {
	OrganizationName string
	AppName          string
	Env              string
	AppPort          string
	AppUrl           string
	DBUrl            string

	// Secret for the Avito token cipher.
	EncryptionSecret string

	RSAPrivateKey      *rsa.PrivateKey
	RSAPublicKey       *rsa.PublicKey
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
	PasswordResetTTL   time.Duration

	AvitoClientID     string
	AvitoClientSecret string
	AvitoAPIBaseURL   string
	AvitoAuthURL      string
	AvitoSyncCron     string
	AvitoSyncDays     int

	SendGridAPIKey    string
	SendGridFromEmail string
	TwilioAccountSID  string
	TwilioAuthToken   string

	RedisAddr         string
	TimelineCellWidth float64

	LoginLimitPerIPPerHour    int
	LoginLimitPerEmailPerHour int
	EmailLimitPerIPPerHour    int
	EmailLimitPerEmailPerHour int
	GlobalEmailLimitPerHour   int
	RateLimitWindow           time.Duration

	// Static flags
	Flag_CORSHighSecurity        bool
	Flag_ValidatePhoneWithTwilio bool
	Flag_SendgridSandboxMode     bool
	Flag_SeedDbWithTestData      bool
	Flag_RunMigrations           bool
}

const (
	OrganizationName          = utils.OrganizationName
	DefaultAppPort            = "8080"
	DefaultTokenExpiry        = 15 * time.Minute
	DefaultRefreshTokenExpiry = 30 * 24 * time.Hour
	DefaultPasswordResetTTL   = time.Hour
	DefaultAvitoAPIBaseURL    = "https://api.avito.ru"
	DefaultAvitoAuthURL       = "https://avito.ru/oauth"
	DefaultAvitoSyncDays      = 90
	DefaultTimelineCellWidth  = 60.0

	DefaultLoginLimitPerIPPerHour    = 30
	DefaultLoginLimitPerEmailPerHour = 10
	DefaultEmailLimitPerIPPerHour    = 20
	DefaultEmailLimitPerEmailPerHour = 5
	DefaultGlobalEmailLimitPerHour   = 500
	DefaultRateLimitWindow           = time.Hour
)

// AppName can be overridden with ldflags at build time.
var AppName = "booking-service"

// Set with ldflags by CI so concurrent integration runs use separate DB roles.
var (
	UniqueRunnerID  string
	UniqueRunNumber string
)

// LoadConfig reads an optional .env file and then the process environment.
// Missing required values are fatal.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		utils.Logger.WithError(err).Warn("Failed to read .env file")
	}

	cfg, err := LoadConfigFromEnv(os.Getenv)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Invalid configuration")
	}

	utils.Logger.Info("Loaded config for app: ", cfg.AppName)
	utils.Logger.Debugf("App can be accessed at: %s", cfg.AppUrl)
	return cfg
}

// LoadConfigFromEnv builds a Config from getenv without touching the
// process, so tests can feed a map.
func LoadConfigFromEnv(getenv func(string) string) (*Config, error) {
	env := strings.ToLower(getenv("ENV"))
	if env == "" {
		env = "dev"
	}

	cfg := &Config{
		OrganizationName:  OrganizationName,
		AppName:           utils.FirstNonEmpty(getenv("APP_NAME"), AppName),
		Env:               env,
		AppPort:           utils.FirstNonEmpty(getenv("APP_PORT"), DefaultAppPort),
		AppUrl:            strings.TrimRight(getenv("APP_URL"), "/"),
		DBUrl:             getenv("DATABASE_URL"),
		EncryptionSecret:  getenv("ENCRYPTION_SECRET"),
		AvitoClientID:     getenv("AVITO_CLIENT_ID"),
		AvitoClientSecret: getenv("AVITO_CLIENT_SECRET"),
		AvitoAPIBaseURL:   strings.TrimRight(utils.FirstNonEmpty(getenv("AVITO_API_BASE_URL"), DefaultAvitoAPIBaseURL), "/"),
		AvitoAuthURL:      utils.FirstNonEmpty(getenv("AVITO_AUTH_URL"), DefaultAvitoAuthURL),
		AvitoSyncCron:     getenv("AVITO_SYNC_CRON"),
		SendGridAPIKey:    getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: getenv("SENDGRID_FROM_EMAIL"),
		TwilioAccountSID:  getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   getenv("TWILIO_AUTH_TOKEN"),
		RedisAddr:         getenv("REDIS_ADDR"),
	}

	var missing []string
	if cfg.AppUrl == "" {
		missing = append(missing, "APP_URL")
	}
	if cfg.DBUrl == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.EncryptionSecret == "" {
		missing = append(missing, "ENCRYPTION_SECRET")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}

	var err error
	if cfg.AccessTokenExpiry, err = durationOr(getenv("ACCESS_TOKEN_TTL"), DefaultTokenExpiry); err != nil {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL: %w", err)
	}
	if cfg.RefreshTokenExpiry, err = durationOr(getenv("REFRESH_TOKEN_TTL"), DefaultRefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("REFRESH_TOKEN_TTL: %w", err)
	}
	if cfg.PasswordResetTTL, err = durationOr(getenv("PASSWORD_RESET_TTL"), DefaultPasswordResetTTL); err != nil {
		return nil, fmt.Errorf("PASSWORD_RESET_TTL: %w", err)
	}
	if cfg.AvitoSyncDays, err = intOr(getenv("AVITO_SYNC_DAYS"), DefaultAvitoSyncDays); err != nil {
		return nil, fmt.Errorf("AVITO_SYNC_DAYS: %w", err)
	}
	if cfg.TimelineCellWidth, err = floatOr(getenv("TIMELINE_CELL_WIDTH"), DefaultTimelineCellWidth); err != nil {
		return nil, fmt.Errorf("TIMELINE_CELL_WIDTH: %w", err)
	}
	limits := []struct {
		env string
		dst *int
		def int
	}{
		{"LOGIN_LIMIT_PER_IP_PER_HOUR", &cfg.LoginLimitPerIPPerHour, DefaultLoginLimitPerIPPerHour},
		{"LOGIN_LIMIT_PER_EMAIL_PER_HOUR", &cfg.LoginLimitPerEmailPerHour, DefaultLoginLimitPerEmailPerHour},
		{"EMAIL_LIMIT_PER_IP_PER_HOUR", &cfg.EmailLimitPerIPPerHour, DefaultEmailLimitPerIPPerHour},
		{"EMAIL_LIMIT_PER_EMAIL_PER_HOUR", &cfg.EmailLimitPerEmailPerHour, DefaultEmailLimitPerEmailPerHour},
		{"GLOBAL_EMAIL_LIMIT_PER_HOUR", &cfg.GlobalEmailLimitPerHour, DefaultGlobalEmailLimitPerHour},
	}
	for _, l := range limits {
		if *l.dst, err = intOr(getenv(l.env), l.def); err != nil {
			return nil, fmt.Errorf("%s: %w", l.env, err)
		}
	}
	if cfg.RateLimitWindow, err = durationOr(getenv("RATE_LIMIT_WINDOW"), DefaultRateLimitWindow); err != nil {
		return nil, fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
	}
	if cfg.TimelineCellWidth <= 0 {
		return nil, errors.New("TIMELINE_CELL_WIDTH must be positive")
	}

	cfg.Flag_CORSHighSecurity = boolOr(getenv("CORS_HIGH_SECURITY"), env != "dev")
	cfg.Flag_ValidatePhoneWithTwilio = boolOr(getenv("VALIDATE_PHONE_WITH_TWILIO"), false)
	cfg.Flag_SendgridSandboxMode = boolOr(getenv("SENDGRID_SANDBOX_MODE"), env == "dev")
	cfg.Flag_SeedDbWithTestData = boolOr(getenv("SEED_DB_WITH_TEST_DATA"), false)
	cfg.Flag_RunMigrations = boolOr(getenv("RUN_MIGRATIONS"), true)

	if err := cfg.loadRSAKeys(getenv("RSA_PRIVATE_KEY_BASE64"), getenv("RSA_PUBLIC_KEY_BASE64")); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadRSAKeys parses the base64-encoded PEM key pair. In dev an ephemeral
// pair is generated when none is configured; tokens then die with the process.
func (c *Config) loadRSAKeys(privB64, pubB64 string) error {
	if privB64 == "" && pubB64 == "" {
		if c.Env != "dev" {
			return errors.New("RSA_PRIVATE_KEY_BASE64 and RSA_PUBLIC_KEY_BASE64 are required outside dev")
		}
		utils.Logger.Warn("No RSA key pair configured; generating an ephemeral one for dev")
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			return fmt.Errorf("generate RSA key: %w", err)
		}
		c.RSAPrivateKey = key
		c.RSAPublicKey = &key.PublicKey
		return nil
	}

	privPEM, err := base64.StdEncoding.DecodeString(privB64)
	if err != nil {
		return fmt.Errorf("decode RSA private key: %w", err)
	}
	c.RSAPrivateKey, err = jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return fmt.Errorf("parse RSA private key: %w", err)
	}

	if pubB64 == "" {
		c.RSAPublicKey = &c.RSAPrivateKey.PublicKey
		return nil
	}
	pubPEM, err := base64.StdEncoding.DecodeString(pubB64)
	if err != nil {
		return fmt.Errorf("decode RSA public key: %w", err)
	}
	c.RSAPublicKey, err = jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return fmt.Errorf("parse RSA public key: %w", err)
	}
	return nil
}

// EncodeRSAPrivateKey is the inverse of the RSA_PRIVATE_KEY_BASE64 format.
func EncodeRSAPrivateKey(key *rsa.PrivateKey) string {
	der := x509.MarshalPKCS1PrivateKey(key)
	return base64.StdEncoding.EncodeToString(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: der}))
}

// AvitoEnabled reports whether OAuth client credentials are configured.
func (c *Config) AvitoEnabled() bool {
	return c.AvitoClientID != "" && c.AvitoClientSecret != ""
}

func durationOr(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	return time.ParseDuration(v)
}

func intOr(v string, def int) (int, error) {
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func floatOr(v string, def float64) (float64, error) {
	if v == "" {
		return def, nil
	}
	return strconv.ParseFloat(v, 64)
}

func boolOr(v string, def bool) bool {
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
