package config

import (
	"log"

	"github.com/kelseyhightower/envconfig"
)

// AppConfig описывает конфигурацию сервисов.
type AppConfig struct {
	AppEnv string `envconfig:"APP_ENV" default:"dev"`
	Port   int    `envconfig:"PORT" default:"8080"`

	PGDSN string `envconfig:"PG_DSN"`

	RedisAddr string `envconfig:"REDIS_ADDR"`

	Identity struct {
		BaseURL string `envconfig:"IDENTITY_BASE_URL"`
		Timeout int    `envconfig:"IDENTITY_TIMEOUT_SEC" default:"5"`
	} `envconfig:""`

	Feed struct {
		DefaultLimit int `envconfig:"FEED_DEFAULT_LIMIT" default:"20"`
		MaxLimit     int `envconfig:"FEED_MAX_LIMIT" default:"100"`
	} `envconfig:""`

	Stories struct {
		TTLHours      int `envconfig:"STORY_TTL_HOURS" default:"24"`
		SweepMinutes  int `envconfig:"STORY_SWEEP_MINUTES" default:"30"`
		SweepLockSecs int `envconfig:"STORY_SWEEP_LOCK_SEC" default:"60"`
	} `envconfig:""`

	Queues struct {
		Backend    string `envconfig:"EVENTS_QUEUE_BACKEND" default:"redis"`
		Engagement string `envconfig:"ENGAGEMENT_QUEUE_KEY" default:"engagement_events"`
		AMQPURL    string `envconfig:"AMQP_URL"`
	} `envconfig:""`
}

// Load загружает конфиг из окружения.
func Load() AppConfig {
	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("не удалось загрузить конфиг: %v", err)
	}
	return cfg
}
