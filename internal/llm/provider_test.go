package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"quiz-solver/internal/config"
)

func TestFromConfigOpenAIRateLimit(t *testing.T) {
	cases := []struct {
		name  string
		limit float64
		want  rate.Limit
	}{
		{"unlimited by default", 0, rate.Inf},
		{"capped", 2, rate.Limit(2)},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := &config.Config{
				LLMProvider:  config.ProviderOpenAI,
				OpenAIKey:    "sk-test",
				OpenAIModel:  "gpt-4o",
				LLMRateLimit: c.limit,
			}

			client, err := FromConfig(context.Background(), cfg)
			require.NoError(t, err)
			defer client.Close()

			openai, ok := client.(*OpenAI)
			require.True(t, ok)
			assert.Equal(t, c.want, openai.limiter.Limit())
			assert.Equal(t, "openai:gpt-4o", client.Name())
		})
	}
}

func TestFromConfigUnknownProvider(t *testing.T) {
	_, err := FromConfig(context.Background(), &config.Config{LLMProvider: "llama"})
	assert.ErrorContains(t, err, "llama")
}
