// Package config loads config.yml with ${VAR:-default} expansion.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"notekeeper/internal/apperr"
	"notekeeper/internal/autosave"
	"notekeeper/internal/backup"
	"notekeeper/internal/bulk"
	"notekeeper/internal/notes"
	"notekeeper/internal/remote"
	"notekeeper/internal/tasks"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var envPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvWithDefaults replaces ${VAR} and ${VAR:-default}. Unset or empty
// variables take the default.
func expandEnvWithDefaults(s string) string {
	return envPattern.ReplaceAllStringFunc(s, func(match string) string {
		m := envPattern.FindStringSubmatch(match)
		if value := os.Getenv(m[1]); value != "" {
			return value
		}
		return m[2]
	})
}

// LoadEnv reads .env style files into the environment. Missing files are
// skipped; variables already set win.
func LoadEnv(files ...string) error {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("godotenv.Load %s: %w", f, err)
		}
	}
	return nil
}

// InitConfig reads configFile into a new C.
func InitConfig[C any](configFile string) (*C, error) {
	v := viper.New()
	ext := strings.TrimLeft(filepath.Ext(configFile), ".")

	v.SetConfigFile(configFile)
	v.SetConfigType(ext)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("v.ReadInConfig: %w", err)
	}

	for _, k := range v.AllKeys() {
		value := v.GetString(k)
		if value == "" {
			continue
		}
		expanded := expandEnvWithDefaults(value)

		if expanded == "true" || expanded == "false" {
			boolValue, _ := strconv.ParseBool(expanded)
			v.Set(k, boolValue)
		} else if intValue, err := strconv.Atoi(expanded); err == nil {
			v.Set(k, intValue)
		} else {
			v.Set(k, expanded)
		}
	}

	cfg := new(C)
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("v.Unmarshal: %w", err)
	}
	return cfg, nil
}

// Load reads configFile and validates it. A missing file yields the
// defaults.
func Load(configFile string) (*Config, error) {
	cfg, err := InitConfig[Config](configFile)
	if err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = &Config{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a validated configuration without reading any file.
func Default() *Config {
	cfg := &Config{}
	_ = cfg.Validate()
	return cfg
}

// Validate fills in defaults and rejects unusable values.
func (c *Config) Validate() error {
	if c.Logger == nil {
		c.Logger = &LoggerConfig{}
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.File == "" {
		c.Logger.File = "notekeeper.log"
	}

	if c.Client == nil {
		c.Client = &ClientConfig{}
	}
	if err := c.Client.validate(); err != nil {
		return err
	}

	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if err := c.Server.validate(); err != nil {
		return err
	}

	if c.Backup == nil {
		c.Backup = &backup.Config{}
	}
	if c.Backup.Schedule == "" {
		c.Backup.Schedule = "0 3 * * *"
	}
	return nil
}

func (c *ClientConfig) validate() error {
	if c.RemoteMode == "" {
		c.RemoteMode = string(remote.ModeMock)
	}
	switch remote.Mode(c.RemoteMode) {
	case remote.ModeHTTP:
		if c.BaseURL == "" {
			return apperr.Validation("client.base_url", "is required in http mode")
		}
	case remote.ModeMock:
	default:
		return apperr.Validation("client.remote_mode", "must be http or mock")
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RateLimit <= 0 {
		c.RateLimit = 10
	}
	if c.RateBurst <= 0 {
		c.RateBurst = 5
	}
	if c.DataDir == "" {
		c.DataDir = defaultClientDir()
	}
	if c.AutosaveDelay <= 0 {
		c.AutosaveDelay = autosave.DefaultDelay
	}
	if c.BulkConcurrency <= 0 {
		c.BulkConcurrency = bulk.DefaultConcurrency
	}
	if _, err := notes.ParseOrphanPolicy(c.OrphanPolicy); err != nil {
		return apperr.Validation("client.orphan_policy", "must be promote or hide")
	}
	if c.DailyTaskLimit <= 0 {
		c.DailyTaskLimit = tasks.DefaultDailyLimit
	}
	if _, err := loadLocation(c.Timezone); err != nil {
		return apperr.Validation("client.timezone", err.Error())
	}
	return nil
}

func (c *ServerConfig) validate() error {
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	switch c.DB {
	case "":
		c.DB = "sqlite"
	case "sqlite", "memory":
	default:
		return apperr.Validation("server.db", "must be sqlite or memory")
	}
	if c.JWTExpiry <= 0 {
		c.JWTExpiry = 7 * 24 * time.Hour
	}
	if c.BodyLimit == "" {
		c.BodyLimit = "2M"
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if _, err := loadLocation(c.Timezone); err != nil {
		return apperr.Validation("server.timezone", err.Error())
	}
	return nil
}

// Location returns the client time zone, time.Local when unset.
func (c *ClientConfig) Location() *time.Location {
	loc, _ := loadLocation(c.Timezone)
	return loc
}

// Location returns the server time zone, time.Local when unset.
func (c *ServerConfig) Location() *time.Location {
	loc, _ := loadLocation(c.Timezone)
	return loc
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}

func defaultClientDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "notekeeper")
	}
	return ".notekeeper"
}
