package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"quiz-solver/pkg/models"
)

const (
	FetchModeBrowser = "browser"
	FetchModeStatic  = "static"

	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

type Config struct {
	// Identity checked against every inbound request and sent with every submission.
	// Both are required so the service fails fast if they are missing.
	Email  string `envconfig:"QUIZ_EMAIL" required:"true"`
	Secret string `envconfig:"QUIZ_SECRET" required:"true"`

	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port string `envconfig:"PORT" default:"8000"`

	// TimeBudget bounds one chain run. Checked at the top of every iteration.
	TimeBudget time.Duration `envconfig:"TIME_BUDGET" default:"3m"`
	// RetryDelay is the pause before re-attempting a quiz the grader marked wrong.
	RetryDelay time.Duration `envconfig:"RETRY_DELAY" default:"1s"`

	// FetchMode is "browser" (headless Chrome) or "static" (plain GET, no scripts).
	FetchMode      string        `envconfig:"FETCH_MODE" default:"browser"`
	FetchTimeout   time.Duration `envconfig:"FETCH_TIMEOUT" default:"30s"`
	FetchSettle    time.Duration `envconfig:"FETCH_SETTLE" default:"2s"`
	ResultSelector string        `envconfig:"RESULT_SELECTOR" default:"#result"`
	UserAgent      string        `envconfig:"USER_AGENT" default:"QuizSolver/1.0"`
	ChromePath     string        `envconfig:"CHROME_PATH"`
	ChromeRemote   string        `envconfig:"CHROME_REMOTE_URL"`
	// ChromeNoSandbox disables the Chrome sandbox. Only for containers that cannot provide one.
	ChromeNoSandbox bool `envconfig:"CHROME_NO_SANDBOX" default:"false"`

	// RespectRobots consults robots.txt before every fetch.
	RespectRobots bool `envconfig:"RESPECT_ROBOTS" default:"false"`
	// FetchRateLimit is the minimum interval between fetches to one host. 0 disables pacing.
	FetchRateLimit time.Duration `envconfig:"FETCH_RATE_LIMIT" default:"0s"`

	SubmitTimeout time.Duration `envconfig:"SUBMIT_TIMEOUT" default:"30s"`

	LLMProvider    string        `envconfig:"LLM_PROVIDER" default:"openai"`
	LLMTemperature float32       `envconfig:"LLM_TEMPERATURE" default:"0.1"`
	LLMMaxTokens   int           `envconfig:"LLM_MAX_TOKENS" default:"4000"`
	LLMTimeout     time.Duration `envconfig:"LLM_TIMEOUT" default:"2m"`
	// LLMRateLimit caps reasoning calls per second across all chains. 0 means unlimited.
	LLMRateLimit float64 `envconfig:"LLM_RATE_LIMIT" default:"0"`

	OpenAIKey     string `envconfig:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envconfig:"OPENAI_BASE_URL" default:"https://api.openai.com/v1"`
	OpenAIModel   string `envconfig:"OPENAI_MODEL" default:"gpt-4o"`

	GeminiKey   string `envconfig:"GEMINI_API_KEY"`
	GeminiModel string `envconfig:"GEMINI_MODEL" default:"gemini-1.5-flash"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogDev   bool   `envconfig:"LOG_DEV" default:"false"`
}

// Load processes environment variables and populates the Config struct.
func Load() (*Config, error) {
	// A missing .env is normal outside local development; vars are injected directly.
	if err := godotenv.Load(); err != nil {
		if _, statErr := os.Stat(".env"); statErr == nil {
			log.Printf("Warning: .env file found but could not be loaded: %v", err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations envconfig cannot express with tags.
func (c *Config) Validate() error {
	c.FetchMode = strings.ToLower(strings.TrimSpace(c.FetchMode))
	c.LLMProvider = strings.ToLower(strings.TrimSpace(c.LLMProvider))

	switch c.FetchMode {
	case FetchModeBrowser, FetchModeStatic:
	default:
		return fmt.Errorf("unknown FETCH_MODE %q", c.FetchMode)
	}

	switch c.LLMProvider {
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return errors.New("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	case ProviderGemini:
		if c.GeminiKey == "" {
			return errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.TimeBudget <= 0 {
		return errors.New("TIME_BUDGET must be positive")
	}
	if c.RetryDelay < 0 {
		return errors.New("RETRY_DELAY cannot be negative")
	}
	if c.LLMRateLimit < 0 {
		return errors.New("LLM_RATE_LIMIT cannot be negative")
	}
	return nil
}

func (c *Config) Identity() models.Identity {
	return models.Identity{Email: c.Email, Secret: c.Secret}
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}
