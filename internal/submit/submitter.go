package submit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"quiz-solver/internal/page"
	"quiz-solver/pkg/models"
)

// Submitter posts answers to the grading endpoint advertised by a quiz page.
//
// Every failure along the way (re-fetching the page, the POST itself, an
// unreadable reply) is reported as an incorrect Verdict carrying the reason,
// so Submit never returns a non-nil error.
type Submitter struct {
	fetcher page.Fetcher
	client  *resty.Client
	logger  *zap.Logger
}

func New(fetcher page.Fetcher, timeout time.Duration, logger *zap.Logger) *Submitter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Submitter{fetcher: fetcher, client: client, logger: logger}
}

// wireVerdict keeps `correct` as a pointer so a reply without it can be told
// apart from {"correct": false}.
type wireVerdict struct {
	Correct *bool  `json:"correct"`
	URL     string `json:"url"`
	Reason  string `json:"reason"`
}

func (s *Submitter) Submit(ctx context.Context, identity models.Identity, quizURL string, answer models.Answer) (models.Verdict, error) {
	// The page is fetched again rather than reused from the solve step.
	content, err := s.fetcher.Fetch(ctx, quizURL)
	if err != nil {
		return failed(s.logger, quizURL, fmt.Errorf("re-fetch quiz page: %w", err)), nil
	}

	endpoint := ResolveURL(content.HTML, quizURL)
	payload := models.SubmitPayload{
		Email:  identity.Email,
		Secret: identity.Secret,
		URL:    quizURL,
		Answer: answer,
	}

	s.logger.Info("submitting answer",
		zap.String("url", quizURL),
		zap.String("endpoint", endpoint),
		zap.Stringer("answer", answer),
	)

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(endpoint)
	if err != nil {
		return failed(s.logger, quizURL, fmt.Errorf("post %s: %w", endpoint, err)), nil
	}

	verdict, err := decodeVerdict(resp.Body())
	if err != nil {
		if resp.IsError() {
			err = fmt.Errorf("status %d: %w", resp.StatusCode(), err)
		}
		return failed(s.logger, quizURL, err), nil
	}
	return verdict, nil
}

func decodeVerdict(body []byte) (models.Verdict, error) {
	var wire wireVerdict
	if err := json.Unmarshal(body, &wire); err != nil {
		return models.Verdict{}, fmt.Errorf("decode verdict: %w", err)
	}
	if wire.Correct == nil {
		return models.Verdict{}, errors.New("decode verdict: missing \"correct\" field")
	}
	return models.Verdict{
		Correct: *wire.Correct,
		NextURL: wire.URL,
		Reason:  wire.Reason,
	}, nil
}

func failed(logger *zap.Logger, quizURL string, err error) models.Verdict {
	logger.Warn("submission failed", zap.String("url", quizURL), zap.Error(err))
	return models.Verdict{Correct: false, Reason: err.Error()}
}
