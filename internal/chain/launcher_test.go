package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-solver/internal/config"
	"quiz-solver/internal/metrics"
	"quiz-solver/pkg/models"
)

type cannedLLM struct {
	mu      sync.Mutex
	reply   string
	prompts []string
}

func (c *cannedLLM) Generate(_ context.Context, _, userPrompt string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompts = append(c.prompts, userPrompt)
	return c.reply, nil
}

// quizSite serves a two-step chain: q0 links to q1, q1 ends the chain.
type quizSite struct {
	mu          sync.Mutex
	submissions []models.SubmitPayload
	srv         *httptest.Server
}

func newQuizSite(t *testing.T) *quizSite {
	t.Helper()
	site := &quizSite{}
	mux := http.NewServeMux()
	mux.HandleFunc("/quiz/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<html><body><h1>Quiz</h1><div id="result">Step %s: what is 6*7? POST to %s/grade/submit</div></body></html>`,
			strings.TrimPrefix(r.URL.Path, "/quiz/"), site.srv.URL)
	})
	mux.HandleFunc("/grade/submit", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Email  string `json:"email"`
			Secret string `json:"secret"`
			URL    string `json:"url"`
			Answer int64  `json:"answer"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		site.mu.Lock()
		site.submissions = append(site.submissions, models.SubmitPayload{
			Email: payload.Email, Secret: payload.Secret, URL: payload.URL, Answer: models.IntAnswer(payload.Answer),
		})
		site.mu.Unlock()

		if strings.HasSuffix(payload.URL, "/quiz/q0") {
			_ = json.NewEncoder(w).Encode(models.Verdict{Correct: true, NextURL: site.srv.URL + "/quiz/q1"})
			return
		}
		_ = json.NewEncoder(w).Encode(models.Verdict{Correct: true})
	})
	site.srv = httptest.NewServer(mux)
	t.Cleanup(site.srv.Close)
	return site
}

func testConfig() *config.Config {
	return &config.Config{
		Email:          "student@example.com",
		Secret:         "s3cret",
		TimeBudget:     10 * time.Second,
		RetryDelay:     10 * time.Millisecond,
		FetchMode:      config.FetchModeStatic,
		FetchTimeout:   2 * time.Second,
		ResultSelector: "#result",
		UserAgent:      "QuizSolverTest/1.0",
		SubmitTimeout:  2 * time.Second,
	}
}

func TestLauncherRunEndToEnd(t *testing.T) {
	site := newQuizSite(t)
	llm := &cannedLLM{reply: "42"}
	l := NewLauncher(context.Background(), testConfig(), llm, nil, nil)

	res := l.Run(context.Background(), site.srv.URL+"/quiz/q0")

	require.Equal(t, Completed, res.State, "err: %v", res.Err)
	assert.Equal(t, 2, res.Iterations)
	assert.Equal(t, site.srv.URL+"/quiz/q1", res.LastURL)

	require.Len(t, site.submissions, 2)
	assert.Equal(t, site.srv.URL+"/quiz/q0", site.submissions[0].URL)
	assert.Equal(t, site.srv.URL+"/quiz/q1", site.submissions[1].URL)
	assert.Equal(t, "student@example.com", site.submissions[0].Email)
	assert.Equal(t, "s3cret", site.submissions[0].Secret)
	assert.Equal(t, models.IntAnswer(42), site.submissions[1].Answer)

	// The solver sees only the narrowed result region.
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[0], "Step q0: what is 6*7?")
	assert.NotContains(t, llm.prompts[0], "<h1>Quiz</h1>")
}

func TestLauncherLaunchInBackground(t *testing.T) {
	site := newQuizSite(t)
	m := metrics.New()
	l := NewLauncher(context.Background(), testConfig(), &cannedLLM{reply: "42"}, m, nil)

	id := l.Launch(site.srv.URL + "/quiz/q0")
	assert.NotEmpty(t, id)
	l.Wait()
	assert.Zero(t, l.Active())
	assert.Empty(t, l.ActiveURLs())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChainsFinished.WithLabelValues("completed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Attempts.WithLabelValues("correct")))
}

func TestLauncherShutdownCancelsChains(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := metrics.New()
	l := NewLauncher(ctx, testConfig(), &cannedLLM{reply: "42"}, m, nil)
	l.Launch("https://quiz.invalid/q0")
	l.Wait()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ChainsFinished.WithLabelValues("failed")))
}

func TestLauncherAssignsDistinctIDs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	l := NewLauncher(ctx, testConfig(), &cannedLLM{}, nil, nil)
	a := l.Launch("https://quiz.invalid/a")
	b := l.Launch("https://quiz.invalid/b")
	l.Wait()

	assert.NotEqual(t, a, b)
}
