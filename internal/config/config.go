package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	SessionSecret       string
	GuestTokenSecret    string // signs magic-link tokens for guests
	DatabaseURL         string
	RedisURL            string
	SupabaseURL         string // hosted auth admin API and storage sign URLs
	SupabaseSecretKey   string // must be service_role key, not anon key
	ResendAPIKey        string
	EmailFrom           string
	SMTPHost            string
	SMTPPort            int
	SMTPUser            string
	SMTPPassword        string
	AppURL              string // public site, used for ticket and magic links
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	NotifyWorkers       int
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	_ = viper.ReadInConfig()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("NOTIFY_WORKERS", 1)

	port := viper.GetString("PORT")
	if port == "" {
		port = "8080"
	}
	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	dbURL := viper.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = viper.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = viper.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	return &Config{
		Env:                 env,
		Port:                port,
		SessionSecret:       viper.GetString("SESSION_SECRET"),
		GuestTokenSecret:    viper.GetString("GUEST_TOKEN_SECRET"),
		DatabaseURL:         dbURL,
		RedisURL:            viper.GetString("REDIS_URL"),
		SupabaseURL:         viper.GetString("SUPABASE_URL"),
		SupabaseSecretKey:   viper.GetString("SUPABASE_SECRET_KEY"),
		ResendAPIKey:        viper.GetString("RESEND_API_KEY"),
		EmailFrom:           emailFrom(viper.GetString("EMAIL_FROM")),
		SMTPHost:            viper.GetString("SMTP_HOST"),
		SMTPPort:            viper.GetInt("SMTP_PORT"),
		SMTPUser:            viper.GetString("SMTP_USER"),
		SMTPPassword:        viper.GetString("SMTP_PASSWORD"),
		AppURL:              appURL(viper.GetString("APP_URL")),
		FrontendURLEndsWith: viper.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         viper.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(viper.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      viper.GetString("HEALTH_ADMIN_KEY"),
		NotifyWorkers:       viper.GetInt("NOTIFY_WORKERS"),
	}, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func appURL(s string) string {
	s = strings.TrimRight(strings.TrimSpace(s), "/")
	if s == "" {
		return "http://localhost:3000"
	}
	return s
}

func emailFrom(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "Club25 <hello@club25.co>"
	}
	return s
}
