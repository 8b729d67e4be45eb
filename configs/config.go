package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Instagram struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	GraphURL     string
	APIVersion   string
	Scopes       []string
}

// Limits are the business constraints applied to scheduled posts.
type Limits struct {
	MaxCaptionLength int
	MaxHashtags      int
	MaxMediaItems    int
	DailyPostLimit   int
}

type Processor struct {
	Schedule     string
	BatchSize    int
	Concurrency  int
	PollInterval time.Duration
	PollAttempts int
	RunTimeout   time.Duration
}

type Config struct {
	Port               string
	Instagram          Instagram
	PostgresURI        string
	RedisURI           string
	FrontendURL        string
	R2                 R2
	TokenEncryptionKey string
	JWTSecret          string
	JWKSURL            string
	SessionCookie      string
	CronSecret         string
	OAuthStateTTL      time.Duration
	TokenRefreshWindow time.Duration
	Limits             Limits
	Processor          Processor
}

func LoadConfig() *Config {
	return &Config{
		Port: getEnv("PORT", "3000"),
		Instagram: Instagram{
			ClientID:     getEnv("INSTAGRAM_CLIENT_ID", ""),
			ClientSecret: getEnv("INSTAGRAM_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("INSTAGRAM_REDIRECT_URI", ""),
			AuthURL:      getEnv("INSTAGRAM_AUTH_URL", "https://www.instagram.com/oauth/authorize"),
			TokenURL:     getEnv("INSTAGRAM_TOKEN_URL", "https://api.instagram.com/oauth/access_token"),
			GraphURL:     getEnv("INSTAGRAM_GRAPH_URL", "https://graph.instagram.com"),
			APIVersion:   getEnv("INSTAGRAM_API_VERSION", "v21.0"),
			Scopes: getEnvList("INSTAGRAM_SCOPES", []string{
				"instagram_business_basic",
				"instagram_business_content_publish",
			}),
		},
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", ""),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		TokenEncryptionKey: getEnv("TOKEN_ENCRYPTION_KEY", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		JWKSURL:            getEnv("JWKS_URL", ""),
		SessionCookie:      getEnv("SESSION_COOKIE", "__session"),
		CronSecret:         getEnv("CRON_SECRET", ""),
		OAuthStateTTL:      getEnvDuration("OAUTH_STATE_TTL", 10*time.Minute),
		TokenRefreshWindow: getEnvDuration("TOKEN_REFRESH_WINDOW", 7*24*time.Hour),
		Limits: Limits{
			MaxCaptionLength: getEnvInt("MAX_CAPTION_LENGTH", 2200),
			MaxHashtags:      getEnvInt("MAX_HASHTAGS", 30),
			MaxMediaItems:    getEnvInt("MAX_MEDIA_ITEMS", 10),
			DailyPostLimit:   getEnvInt("DAILY_POST_LIMIT", 25),
		},
		Processor: Processor{
			Schedule:     getEnv("PROCESSOR_SCHEDULE", "@every 1m"),
			BatchSize:    getEnvInt("PROCESSOR_BATCH_SIZE", 50),
			Concurrency:  getEnvInt("PROCESSOR_CONCURRENCY", 5),
			PollInterval: getEnvDuration("CONTAINER_POLL_INTERVAL", 5*time.Second),
			PollAttempts: getEnvInt("CONTAINER_POLL_ATTEMPTS", 12),
			RunTimeout:   getEnvDuration("PROCESSOR_RUN_TIMEOUT", 10*time.Minute),
		},
	}
}

// Validate reports every missing or malformed setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.PostgresURI == "" {
		errs = append(errs, errors.New("POSTGRES_URI is required"))
	}
	switch len(c.TokenEncryptionKey) {
	case 16, 24, 32:
	default:
		errs = append(errs, fmt.Errorf("TOKEN_ENCRYPTION_KEY must be 16, 24 or 32 bytes, got %d", len(c.TokenEncryptionKey)))
	}
	if c.JWTSecret == "" && c.JWKSURL == "" {
		errs = append(errs, errors.New("one of JWT_SECRET or JWKS_URL is required"))
	}
	if c.CronSecret == "" {
		errs = append(errs, errors.New("CRON_SECRET is required"))
	}
	if c.Instagram.ClientID == "" || c.Instagram.ClientSecret == "" || c.Instagram.RedirectURI == "" {
		errs = append(errs, errors.New("INSTAGRAM_CLIENT_ID, INSTAGRAM_CLIENT_SECRET and INSTAGRAM_REDIRECT_URI are required"))
	}
	if c.OAuthStateTTL <= 0 {
		errs = append(errs, errors.New("OAUTH_STATE_TTL must be positive"))
	}
	if c.Limits.MaxCaptionLength <= 0 || c.Limits.MaxHashtags < 0 || c.Limits.MaxMediaItems <= 0 || c.Limits.DailyPostLimit <= 0 {
		errs = append(errs, errors.New("post limits must be positive"))
	}
	if c.Processor.BatchSize <= 0 || c.Processor.Concurrency <= 0 || c.Processor.PollAttempts <= 0 {
		errs = append(errs, errors.New("processor batch size, concurrency and poll attempts must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return defaultValue
	}
	return d
}

func getEnvList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
