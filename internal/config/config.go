package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName          string
	AppEnv           string
	AppPort          string
	ScorerProvider   string
	OpenAIAPIKey     string
	OpenAIModel      string
	ScorerMaxTokens  int
	SubmitRateLimit  int
	SubmitRateWindow time.Duration
	SessionIdleTTL   time.Duration
	SweepInterval    time.Duration
	ShareSuffix      string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("SKRIBA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Skriba API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("scorer.provider", "openai")
	v.SetDefault("scorer.max_tokens", 1024)
	v.SetDefault("submit.rate_limit", 5)
	v.SetDefault("submit.rate_window", "1m")
	v.SetDefault("session.idle_ttl", "30m")
	v.SetDefault("session.sweep_interval", "5m")

	window, err := parseDuration(v.GetString("submit.rate_window"), "submit rate window")
	if err != nil {
		return Config{}, err
	}

	idleTTL, err := parseDuration(v.GetString("session.idle_ttl"), "session idle ttl")
	if err != nil {
		return Config{}, err
	}

	sweep, err := parseDuration(v.GetString("session.sweep_interval"), "session sweep interval")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppName:          v.GetString("app.name"),
		AppEnv:           v.GetString("app.env"),
		AppPort:          v.GetString("app.port"),
		ScorerProvider:   strings.ToLower(v.GetString("scorer.provider")),
		OpenAIAPIKey:     v.GetString("openai_api_key"),
		OpenAIModel:      v.GetString("scorer.model"),
		ScorerMaxTokens:  v.GetInt("scorer.max_tokens"),
		SubmitRateLimit:  v.GetInt("submit.rate_limit"),
		SubmitRateWindow: window,
		SessionIdleTTL:   idleTTL,
		SweepInterval:    sweep,
		ShareSuffix:      v.GetString("share.suffix"),
	}

	if cfg.SubmitRateLimit <= 0 {
		cfg.SubmitRateLimit = 5
	}

	return cfg, nil
}

func parseDuration(value, name string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}

	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return parsed, nil
}
