package solver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"quiz-solver/internal/llm"
	"quiz-solver/internal/page"
	"quiz-solver/pkg/models"
)

var ErrEmptyResponse = errors.New("model returned no usable content")

// SolveError means no answer could be produced. It is fatal to a chain.
type SolveError struct {
	URL string
	Err error
}

func (e *SolveError) Error() string {
	return fmt.Sprintf("solve %s: %v", e.URL, e.Err)
}

func (e *SolveError) Unwrap() error { return e.Err }

type Solver struct {
	provider llm.Provider
	logger   *zap.Logger
}

func New(provider llm.Provider, logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{provider: provider, logger: logger}
}

// Solve asks the model for the answer to the quiz in content.
func (s *Solver) Solve(ctx context.Context, content, sourceURL string) (models.Answer, error) {
	if s.provider == nil {
		return models.Answer{}, &SolveError{URL: sourceURL, Err: errors.New("no reasoning provider configured")}
	}

	// The digest only enriches the prompt; a page that will not parse still gets solved.
	digest, err := page.Extract(strings.NewReader(content), sourceURL)
	if err != nil {
		s.logger.Debug("page digest failed", zap.String("url", sourceURL), zap.Error(err))
	}

	prompt := buildPrompt(content, sourceURL, digest)
	s.logger.Debug("solver prompt", zap.String("url", sourceURL), zap.Int("prompt_chars", len(prompt)))

	text, err := s.provider.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return models.Answer{}, &SolveError{URL: sourceURL, Err: err}
	}
	if cleanModelOutput(text) == "" {
		return models.Answer{}, &SolveError{URL: sourceURL, Err: ErrEmptyResponse}
	}

	answer := ParseAnswer(text)
	s.logger.Debug("model answer",
		zap.String("url", sourceURL),
		zap.String("raw", text),
		zap.Stringer("kind", answer.Kind),
	)
	return answer, nil
}
