package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env         string
	Port        int
	DBURL       string
	ServiceName string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	OutboxStream  string

	JWTSecret    string
	OTelEndpoint string

	NearbyMaxRadiusKm float64
	NearbyMaxLimit    int
	NearbyCacheTTL    time.Duration

	ConflictRadiusKm   float64
	RateLimitPerMinute int
	CORSOrigins        []string

	SweepInterval    time.Duration
	ReconcileEvery   int
	WorkerHealthPort int

	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not read .env file", "err", err)
	}

	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8080),
		DBURL:       buildDBURL(),
		ServiceName: getEnv("OTEL_SERVICE_NAME", "yardsale"),

		RedisAddr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		OutboxStream:  getEnv("OUTBOX_STREAM", "yardsale:events"),

		JWTSecret:    getEnv("JWT_SECRET", "dev-secret-change-me"),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		NearbyMaxRadiusKm: getEnvFloat("NEARBY_MAX_RADIUS_KM", 100),
		NearbyMaxLimit:    getEnvInt("NEARBY_MAX_LIMIT", 50),
		NearbyCacheTTL:    time.Duration(getEnvInt("NEARBY_CACHE_TTL_SECONDS", 30)) * time.Second,

		ConflictRadiusKm:   getEnvFloat("CONFLICT_RADIUS_KM", 1),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		CORSOrigins:        getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),

		SweepInterval:    time.Duration(getEnvInt("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		ReconcileEvery:   getEnvInt("RECONCILE_EVERY_TICKS", 60),
		WorkerHealthPort: getEnvInt("WORKER_HEALTH_PORT", 8081),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Administrator"),
	}
}

func (c Config) IsProd() bool {
	return c.Env == "prod"
}

func buildDBURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "yardsale")
	pass := getEnv("DB_PASSWORD", "yardsale")
	name := getEnv("DB_NAME", "yardsale")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	num, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v)
		return fallback
	}
	return num
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	num, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("invalid number in environment, using default", "key", key, "value", v)
		return fallback
	}
	return num
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}

	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
