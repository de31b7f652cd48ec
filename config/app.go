package config

import "time"

type App struct {
	Port        string `env:"APP_PORT" default:"8080"`
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisAddr   string `env:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisPwd    string `env:"REDIS_PASSWORD"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	WebhookURL  string `env:"NOTIFY_WEBHOOK_URL"`
	Env         string `env:"APP_ENV" default:"dev"`

	Policy Policy
}

// Policy holds the externally supplied knobs the engine consumes. It is
// passed explicitly into service constructors; nothing reads it ambiently.
type Policy struct {
	MaxActiveLoans     int
	EnableQueueSystem  bool
	AutoApproveLowRisk bool
	NotifyWindow       time.Duration
	SweepInterval      time.Duration
}
