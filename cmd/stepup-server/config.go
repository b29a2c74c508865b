package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	goStepUp "github.com/MrEthical07/goStepUp"
)

// serverConfig is read from a TOML file and then overridden by STEPUP_*
// environment variables.
type serverConfig struct {
	Listen       string `toml:"listen"`
	Debug        bool   `toml:"debug"`
	LogFile      string `toml:"log_file"`
	RedisAddr    string `toml:"redis_addr"`
	DatabasePath string `toml:"database_path"`
	Upstream     string `toml:"upstream"`
	LoginURL     string `toml:"login_url"`

	// SigningKey is the HS256 secret for principal tokens.
	SigningKey  string        `toml:"signing_key"`
	IdentityTTL time.Duration `toml:"identity_ttl"`
	AdminToken  string        `toml:"admin_token"`

	SMSURL    string   `toml:"sms_url"`
	AdminURLs []string `toml:"admin_urls"`

	// ReportSchedule is a cron schedule for the usage report sent to AdminURLs.
	ReportSchedule string `toml:"report_schedule"`

	// SendRate and SendBurst cap SMS send requests per client IP before
	// they reach the engine's own quotas.
	SendRate  float64 `toml:"send_rate"`
	SendBurst int     `toml:"send_burst"`

	Engine goStepUp.Config `toml:"engine"`
}

func defaultServerConfig() serverConfig {
	return serverConfig{
		Listen:       ":8080",
		LogFile:      "data/logs/stepup.log",
		RedisAddr:    "127.0.0.1:6379",
		DatabasePath: "data/stepup.db",
		LoginURL:     "/login",
		IdentityTTL:  12 * time.Hour,
		SendRate:     0.2,
		SendBurst:    3,
		Engine:       goStepUp.DefaultConfig(),
	}
}

// loadConfig decodes path over the defaults. An empty path skips the file.
func loadConfig(path string) (serverConfig, error) {
	cfg := defaultServerConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return serverConfig{}, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	cfg.Listen = getEnv("STEPUP_LISTEN", cfg.Listen)
	cfg.LogFile = getEnv("STEPUP_LOG_FILE", cfg.LogFile)
	cfg.RedisAddr = getEnv("STEPUP_REDIS_ADDR", cfg.RedisAddr)
	cfg.DatabasePath = getEnv("STEPUP_DB_PATH", cfg.DatabasePath)
	cfg.Upstream = getEnv("STEPUP_UPSTREAM", cfg.Upstream)
	cfg.SigningKey = getEnv("STEPUP_SIGNING_KEY", cfg.SigningKey)
	cfg.AdminToken = getEnv("STEPUP_ADMIN_TOKEN", cfg.AdminToken)
	cfg.SMSURL = getEnv("STEPUP_SMS_URL", cfg.SMSURL)
	if v := os.Getenv("STEPUP_DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return serverConfig{}, fmt.Errorf("STEPUP_DEBUG: %w", err)
		}
		cfg.Debug = debug
	}

	if err := cfg.validate(); err != nil {
		return serverConfig{}, err
	}
	return cfg, nil
}

func (c serverConfig) validate() error {
	if c.Listen == "" {
		return errors.New("listen address is required")
	}
	if len(c.SigningKey) < 32 {
		return errors.New("signing_key must be at least 32 bytes")
	}
	if c.SendRate <= 0 || c.SendBurst <= 0 {
		return errors.New("send_rate and send_burst must be positive")
	}
	return c.Engine.Validate()
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
