package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "Skriba API", cfg.AppName)
	require.Equal(t, "openai", cfg.ScorerProvider)
	require.Equal(t, 5, cfg.SubmitRateLimit)
	require.Equal(t, time.Minute, cfg.SubmitRateWindow)
	require.Equal(t, 30*time.Minute, cfg.SessionIdleTTL)
	require.Equal(t, ":8080", cfg.HTTPAddress())
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SKRIBA_APP_PORT", "9999")
	t.Setenv("SKRIBA_SCORER_PROVIDER", "OpenAI")
	t.Setenv("SKRIBA_SESSION_IDLE_TTL", "90s")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, ":9999", cfg.HTTPAddress())
	require.Equal(t, "openai", cfg.ScorerProvider)
	require.Equal(t, 90*time.Second, cfg.SessionIdleTTL)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("SKRIBA_SESSION_IDLE_TTL", "soon")

	_, err := Load()
	require.Error(t, err)
}

func TestHTTPAddressKeepsExplicitColon(t *testing.T) {
	cfg := Config{AppPort: ":7070"}
	require.Equal(t, ":7070", cfg.HTTPAddress())
}
