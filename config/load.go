package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func Load() App {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := App{
		Port:        getenv("APP_PORT", "8080"),
		DatabaseURL: must("DATABASE_URL"),
		RedisAddr:   getenv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:    os.Getenv("REDIS_PASSWORD"),
		JWTSecret:   getenv("JWT_SECRET", "local_dev_secret"),
		WebhookURL:  os.Getenv("NOTIFY_WEBHOOK_URL"),
		Env:         getenv("APP_ENV", "dev"),
		Policy: Policy{
			MaxActiveLoans:     getint("MAX_ACTIVE_LOANS", 3),
			EnableQueueSystem:  getbool("ENABLE_QUEUE_SYSTEM", true),
			AutoApproveLowRisk: getbool("AUTO_APPROVE_LOW_RISK", true),
			NotifyWindow:       time.Duration(getint("QUEUE_NOTIFY_WINDOW_HOURS", 24)) * time.Hour,
			SweepInterval:      time.Duration(getint("SWEEP_INTERVAL_SECONDS", 60)) * time.Second,
		},
	}
	return cfg
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("bad int env, using default", "key", k, "value", v, "default", def)
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		slog.Warn("bad bool env, using default", "key", k, "value", v, "default", def)
	}
	return def
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		slog.Error("required env missing", "key", k)
		panic("missing env " + k)
	}
	return v
}
