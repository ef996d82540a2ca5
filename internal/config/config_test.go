package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("QUIZ_EMAIL", "student@example.com")
	t.Setenv("QUIZ_SECRET", "hello")
	t.Setenv("OPENAI_API_KEY", "sk-test")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Minute, cfg.TimeBudget)
	assert.Equal(t, time.Second, cfg.RetryDelay)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 30*time.Second, cfg.SubmitTimeout)
	assert.Equal(t, "#result", cfg.ResultSelector)
	assert.Equal(t, FetchModeBrowser, cfg.FetchMode)
	assert.Equal(t, ProviderOpenAI, cfg.LLMProvider)
	assert.Equal(t, "gpt-4o", cfg.OpenAIModel)
	assert.Equal(t, 4000, cfg.LLMMaxTokens)
	assert.InDelta(t, 0.1, cfg.LLMTemperature, 1e-6)
	assert.False(t, cfg.ChromeNoSandbox)
	assert.Zero(t, cfg.LLMRateLimit)
	assert.Equal(t, "0.0.0.0:8000", cfg.Addr())

	id := cfg.Identity()
	assert.Equal(t, "student@example.com", id.Email)
	assert.Equal(t, "hello", id.Secret)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("TIME_BUDGET", "90s")
	t.Setenv("FETCH_MODE", "Static")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "g-test")
	t.Setenv("LLM_RATE_LIMIT", "0.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.TimeBudget)
	assert.InDelta(t, 0.5, cfg.LLMRateLimit, 1e-9)
	assert.Equal(t, FetchModeStatic, cfg.FetchMode)
	assert.Equal(t, ProviderGemini, cfg.LLMProvider)
}

func TestLoadMissingRequired(t *testing.T) {
	// Setenv first so the originals are restored after Unsetenv.
	t.Setenv("QUIZ_EMAIL", "")
	t.Setenv("QUIZ_SECRET", "")
	os.Unsetenv("QUIZ_EMAIL")
	os.Unsetenv("QUIZ_SECRET")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Email:       "a@b.c",
			Secret:      "s",
			FetchMode:   FetchModeBrowser,
			LLMProvider: ProviderOpenAI,
			OpenAIKey:   "k",
			TimeBudget:  time.Minute,
		}
	}

	t.Run("valid", func(t *testing.T) {
		cfg := base()
		assert.NoError(t, cfg.Validate())
	})

	t.Run("unknown fetch mode", func(t *testing.T) {
		cfg := base()
		cfg.FetchMode = "curl"
		assert.ErrorContains(t, cfg.Validate(), "FETCH_MODE")
	})

	t.Run("unknown provider", func(t *testing.T) {
		cfg := base()
		cfg.LLMProvider = "llama"
		assert.ErrorContains(t, cfg.Validate(), "LLM_PROVIDER")
	})

	t.Run("provider without key", func(t *testing.T) {
		cfg := base()
		cfg.LLMProvider = ProviderGemini
		assert.ErrorContains(t, cfg.Validate(), "GEMINI_API_KEY")
	})

	t.Run("negative llm rate limit", func(t *testing.T) {
		cfg := base()
		cfg.LLMRateLimit = -1
		assert.ErrorContains(t, cfg.Validate(), "LLM_RATE_LIMIT")
	})

	t.Run("non-positive budget", func(t *testing.T) {
		cfg := base()
		cfg.TimeBudget = 0
		assert.Error(t, cfg.Validate())
	})
}
