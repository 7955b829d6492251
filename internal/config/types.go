package config

import (
	"time"

	"notekeeper/internal/backup"
)

type LoggerConfig struct {
	Level   string `mapstructure:"level"`
	Dir     string `mapstructure:"dir"`
	File    string `mapstructure:"file"`
	Console bool   `mapstructure:"console"`
}

// ClientConfig drives the notekeeper command.
type ClientConfig struct {
	RemoteMode      string        `mapstructure:"remote_mode"`
	BaseURL         string        `mapstructure:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	DataDir         string        `mapstructure:"data_dir"`
	AutosaveDelay   time.Duration `mapstructure:"autosave_delay"`
	BulkConcurrency int           `mapstructure:"bulk_concurrency"`
	OrphanPolicy    string        `mapstructure:"orphan_policy"`
	DailyTaskLimit  int           `mapstructure:"daily_task_limit"`
	Timezone        string        `mapstructure:"timezone"`
}

type ServerConfig struct {
	Port        int           `mapstructure:"port"`
	DataDir     string        `mapstructure:"data_dir"`
	DB          string        `mapstructure:"db"`
	JWTSecret   string        `mapstructure:"jwt_secret"`
	JWTExpiry   time.Duration `mapstructure:"jwt_expiry"`
	BodyLimit   string        `mapstructure:"body_limit"`
	CORSOrigins []string      `mapstructure:"cors_origins"`
	Timezone    string        `mapstructure:"timezone"`
	// ShutdownTimeout bounds the graceful stop.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// Config is the whole configuration file. Missing sections get defaults
// from Validate.
type Config struct {
	Logger *LoggerConfig  `mapstructure:"logger"`
	Client *ClientConfig  `mapstructure:"client"`
	Server *ServerConfig  `mapstructure:"server"`
	Backup *backup.Config `mapstructure:"backup"`
}
