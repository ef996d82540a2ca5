package submit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quiz-solver/pkg/models"
)

type stubFetcher struct {
	html  string
	err   error
	calls []string
}

func (f *stubFetcher) Fetch(_ context.Context, targetURL string) (models.PageContent, error) {
	f.calls = append(f.calls, targetURL)
	if f.err != nil {
		return models.PageContent{URL: targetURL}, f.err
	}
	return models.PageContent{URL: targetURL, HTML: f.html, StatusCode: http.StatusOK}, nil
}

var testIdentity = models.Identity{Email: "student@example.com", Secret: "s3cret"}

func TestSubmit(t *testing.T) {
	t.Run("posts payload to advertised endpoint", func(t *testing.T) {
		var got map[string]any
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/grader/submit", r.URL.Path)
			body, _ := io.ReadAll(r.Body)
			assert.NoError(t, json.Unmarshal(body, &got))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"correct": true, "url": "https://quiz.example.com/q2"}`))
		}))
		defer srv.Close()

		fetcher := &stubFetcher{html: `<p>POST your answer to ` + srv.URL + `/grader/submit</p>`}
		s := New(fetcher, time.Second, nil)

		verdict, err := s.Submit(context.Background(), testIdentity, "https://quiz.example.com/q1", models.IntAnswer(42))
		require.NoError(t, err)
		assert.True(t, verdict.Correct)
		assert.Equal(t, "https://quiz.example.com/q2", verdict.NextURL)

		assert.Equal(t, []string{"https://quiz.example.com/q1"}, fetcher.calls)
		assert.Equal(t, "student@example.com", got["email"])
		assert.Equal(t, "s3cret", got["secret"])
		assert.Equal(t, "https://quiz.example.com/q1", got["url"])
		assert.Equal(t, float64(42), got["answer"])
	})

	t.Run("incorrect with reason", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"correct": false, "reason": "off by one"}`))
		}))
		defer srv.Close()

		s := New(&stubFetcher{html: srv.URL + "/submit"}, time.Second, nil)
		verdict, err := s.Submit(context.Background(), testIdentity, srv.URL+"/q", models.StringAnswer("x"))
		require.NoError(t, err)
		assert.Equal(t, models.Verdict{Correct: false, Reason: "off by one"}, verdict)
	})

	t.Run("error status with verdict body is still a verdict", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"correct": false, "reason": "wrong type"}`))
		}))
		defer srv.Close()

		s := New(&stubFetcher{html: srv.URL + "/submit"}, time.Second, nil)
		verdict, err := s.Submit(context.Background(), testIdentity, srv.URL+"/q", models.BoolAnswer(true))
		require.NoError(t, err)
		assert.False(t, verdict.Correct)
		assert.Equal(t, "wrong type", verdict.Reason)
	})

	t.Run("fallback endpoint when page has none", func(t *testing.T) {
		var path string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			_, _ = w.Write([]byte(`{"correct": true}`))
		}))
		defer srv.Close()

		s := New(&stubFetcher{html: "<p>no links</p>"}, time.Second, nil)
		verdict, err := s.Submit(context.Background(), testIdentity, srv.URL+"/demo/quiz", models.IntAnswer(1))
		require.NoError(t, err)
		assert.True(t, verdict.Correct)
		assert.Empty(t, verdict.NextURL)
		assert.Equal(t, "/demo/submit", path)
	})
}

func TestSubmitFailuresBecomeVerdicts(t *testing.T) {
	cases := []struct {
		name   string
		body   string
		status int
		reason string
	}{
		{"malformed json", `not json`, http.StatusOK, "decode verdict"},
		{"missing correct", `{"url": "https://x/next"}`, http.StatusOK, `missing "correct"`},
		{"null body", `null`, http.StatusOK, `missing "correct"`},
		{"server error page", `<html>boom</html>`, http.StatusInternalServerError, "status 500"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
				_, _ = w.Write([]byte(c.body))
			}))
			defer srv.Close()

			s := New(&stubFetcher{html: srv.URL + "/submit"}, time.Second, nil)
			verdict, err := s.Submit(context.Background(), testIdentity, srv.URL+"/q", models.IntAnswer(7))
			require.NoError(t, err)
			assert.False(t, verdict.Correct)
			assert.Empty(t, verdict.NextURL)
			assert.Contains(t, verdict.Reason, c.reason)
		})
	}

	t.Run("network error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		endpoint := srv.URL + "/submit"
		srv.Close()

		s := New(&stubFetcher{html: endpoint}, time.Second, nil)
		verdict, err := s.Submit(context.Background(), testIdentity, "https://quiz.example.com/q", models.IntAnswer(7))
		require.NoError(t, err)
		assert.False(t, verdict.Correct)
		assert.NotEmpty(t, verdict.Reason)
	})

	t.Run("timeout", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(300 * time.Millisecond)
			_, _ = w.Write([]byte(`{"correct": true}`))
		}))
		defer srv.Close()

		s := New(&stubFetcher{html: srv.URL + "/submit"}, 50*time.Millisecond, nil)
		verdict, err := s.Submit(context.Background(), testIdentity, srv.URL+"/q", models.IntAnswer(7))
		require.NoError(t, err)
		assert.False(t, verdict.Correct)
		assert.NotEmpty(t, verdict.Reason)
	})

	t.Run("re-fetch failure", func(t *testing.T) {
		fetcher := &stubFetcher{err: errors.New("browser crashed")}
		s := New(fetcher, time.Second, nil)
		verdict, err := s.Submit(context.Background(), testIdentity, "https://quiz.example.com/q", models.IntAnswer(7))
		require.NoError(t, err)
		assert.False(t, verdict.Correct)
		assert.Contains(t, verdict.Reason, "browser crashed")
		assert.Len(t, fetcher.calls, 1)
	})
}
