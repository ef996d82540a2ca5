package page

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"quiz-solver/pkg/models"
)

// StaticFetcher downloads markup without executing scripts.
// Use it where no browser is available or pages are known to be server-rendered.
type StaticFetcher struct {
	client *resty.Client
	opts   Options
	gate   *DomainManager
}

func NewStaticFetcher(opts Options, gate *DomainManager) *StaticFetcher {
	opts = opts.withDefaults()
	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent)

	return &StaticFetcher{client: client, opts: opts, gate: gate}
}

func (f *StaticFetcher) Fetch(ctx context.Context, targetURL string) (models.PageContent, error) {
	content := models.PageContent{URL: targetURL}

	if err := validateURL(targetURL); err != nil {
		return content, &FetchError{URL: targetURL, Err: err}
	}
	if err := f.gate.Admit(ctx, targetURL); err != nil {
		return content, &FetchError{URL: targetURL, Err: err}
	}

	start := time.Now()
	resp, err := f.client.R().SetContext(ctx).Get(targetURL)
	if err != nil {
		return content, &FetchError{URL: targetURL, Err: err}
	}
	content.LoadTime = time.Since(start)
	content.StatusCode = resp.StatusCode()
	content.HTML = resp.String()

	inner, found, err := Narrow(content.HTML, f.opts.Selector)
	if err != nil {
		return content, &FetchError{URL: targetURL, Err: err}
	}
	if found {
		content.HTML = inner
		content.Narrowed = true
	}
	return content, nil
}

// Narrow looks up the first element matching selector and returns its inner markup.
// found is false when the element is absent; that is not an error.
func Narrow(markup, selector string) (inner string, found bool, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", false, err
	}
	sel := doc.Find(selector).First()
	if sel.Length() == 0 {
		return "", false, nil
	}
	inner, err = sel.Html()
	if err != nil {
		return "", false, err
	}
	return inner, true, nil
}
