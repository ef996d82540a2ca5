package page

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"quiz-solver/pkg/models"
)

var ErrDisallowed = errors.New("disallowed by robots.txt")

// Fetcher retrieves the content of a quiz page.
type Fetcher interface {
	Fetch(ctx context.Context, targetURL string) (models.PageContent, error)
}

// FetchError means the page could not be loaded. It is fatal to a chain.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Options configure both fetcher implementations.
type Options struct {
	Timeout   time.Duration
	Settle    time.Duration
	Selector  string
	UserAgent string

	ChromePath   string
	ChromeRemote string
	NoSandbox    bool
}

func (o Options) withDefaults() Options {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Selector == "" {
		o.Selector = "#result"
	}
	if o.UserAgent == "" {
		o.UserAgent = "QuizSolver/1.0"
	}
	return o
}

func validateURL(targetURL string) error {
	u, err := url.Parse(targetURL)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("missing host")
	}
	return nil
}
