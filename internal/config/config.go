package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Environment string

	// DB
	DatabaseURL string
	AutoMigrate bool // gorm AutoMigrate instead of the SQL migrations
	LogSQL      bool

	// Sessions
	Issuer        string
	SessionSecret string
	SessionTTL    time.Duration

	// One-time codes and reset links
	CodeTTL       time.Duration
	ResetTokenTTL time.Duration
	ClientURL     string
	SweepInterval time.Duration // 0 disables the unverified-signup sweeper

	// HTTP
	Addr          string
	CORSOrigins   []string
	AuthRateLimit int // requests per minute per IP on /api/auth

	// Mail
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	// Object storage
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string
}

func Load() Config {
	clientURL := getenv("CLIENT_URL", "http://localhost:5173")
	return Config{
		Environment: getenv("ENVIRONMENT", "development"),

		DatabaseURL: must("DATABASE_URL"),
		AutoMigrate: getbool("AUTO_MIGRATE", false),
		LogSQL:      getbool("LOG_SQL", false),

		Issuer:        getenv("ISSUER", "talks"),
		SessionSecret: must("SESSION_SECRET"),
		SessionTTL:    getdur("SESSION_TTL", 7*24*time.Hour),

		CodeTTL:       getdur("CODE_TTL", 10*time.Minute),
		ResetTokenTTL: getdur("RESET_TOKEN_TTL", time.Hour),
		ClientURL:     clientURL,
		SweepInterval: getdur("SWEEP_INTERVAL", 0),

		Addr:          addr(),
		CORSOrigins:   getlist("CORS_ORIGINS", []string{clientURL}),
		AuthRateLimit: getint("AUTH_RATE_LIMIT", 30),

		SMTPHost: getenv("SMTP_HOST", ""),
		SMTPPort: getint("SMTP_PORT", 587),
		SMTPUser: getenv("SMTP_USER", ""),
		SMTPPass: getenv("SMTP_PASS", ""),
		MailFrom: getenv("MAIL_FROM", "Talks <no-reply@localhost>"),

		S3Endpoint:  getenv("S3_ENDPOINT", ""),
		S3Region:    getenv("S3_REGION", "us-east-1"),
		S3Bucket:    getenv("S3_BUCKET", ""),
		S3AccessKey: getenv("S3_ACCESS_KEY", ""),
		S3SecretKey: getenv("S3_SECRET_KEY", ""),
		S3PublicURL: getenv("S3_PUBLIC_URL", ""),
	}
}

// IsDevelopment relaxes the Secure cookie flag and allows the log mailer.
func (c Config) IsDevelopment() bool { return c.Environment == "development" }

func addr() string {
	if v := os.Getenv("ADDR"); v != "" {
		return v
	}
	if p := os.Getenv("PORT"); p != "" {
		return ":" + p
	}
	return ":5001"
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("invalid integer, using default", "key", k, "value", v, "default", def)
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		slog.Warn("invalid duration, using default", "key", k, "value", v, "default", def)
	}
	return def
}

func getlist(k string, def []string) []string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// exit is replaced in tests.
var exit = os.Exit

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("missing required env", "key", k)
		exit(1)
	}
	return v
}
