package page

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"quiz-solver/pkg/models"
)

// BrowserFetcher renders pages in headless Chrome so script-generated
// quiz content is present before extraction.
//
// Every Fetch starts its own allocator and browser context and tears them
// down before returning; no browser state outlives a call.
type BrowserFetcher struct {
	opts Options
	gate *DomainManager
}

func NewBrowserFetcher(opts Options, gate *DomainManager) *BrowserFetcher {
	return &BrowserFetcher{opts: opts.withDefaults(), gate: gate}
}

func (f *BrowserFetcher) Fetch(ctx context.Context, targetURL string) (models.PageContent, error) {
	content := models.PageContent{URL: targetURL}

	if err := validateURL(targetURL); err != nil {
		return content, &FetchError{URL: targetURL, Err: err}
	}
	if err := f.gate.Admit(ctx, targetURL); err != nil {
		return content, &FetchError{URL: targetURL, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	allocCtx, cancelAlloc := f.allocator(ctx)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	// First document response wins; iframes come later.
	var status atomic.Int64
	chromedp.ListenTarget(browserCtx, func(ev interface{}) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			status.CompareAndSwap(0, resp.Response.Status)
		}
	})

	var (
		markup string
		nodes  []*cdp.Node
	)
	start := time.Now()
	err := chromedp.Run(browserCtx,
		network.Enable(),
		chromedp.Navigate(targetURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(f.opts.Settle),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
		chromedp.Nodes(f.opts.Selector, &nodes, chromedp.ByQuery, chromedp.AtLeast(0)),
	)
	if err != nil {
		return content, &FetchError{URL: targetURL, Err: err}
	}
	content.LoadTime = time.Since(start)
	content.StatusCode = int(status.Load())
	content.HTML = markup

	if len(nodes) > 0 {
		var inner string
		if err := chromedp.Run(browserCtx, chromedp.InnerHTML([]cdp.NodeID{nodes[0].NodeID}, &inner, chromedp.ByNodeID)); err != nil {
			return content, &FetchError{URL: targetURL, Err: err}
		}
		content.HTML = inner
		content.Narrowed = true
	}

	return content, nil
}

func (f *BrowserFetcher) allocator(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.opts.ChromeRemote != "" {
		return chromedp.NewRemoteAllocator(ctx, f.opts.ChromeRemote)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.UserAgent(f.opts.UserAgent))
	if f.opts.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(f.opts.ChromePath))
	}
	if f.opts.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	return chromedp.NewExecAllocator(ctx, opts...)
}
