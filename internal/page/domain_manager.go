package page

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"
)

// DomainManager paces fetches per host and optionally honours robots.txt.
// Each chain owns its own manager; nothing here is shared between chains.
type DomainManager struct {
	mu          sync.Mutex
	limiters    map[string]*rate.Limiter
	robotsCache map[string]*robotstxt.Group

	interval      time.Duration
	userAgent     string
	respectRobots bool
	client        *resty.Client
}

// NewDomainManager creates a gate. An interval of 0 disables pacing.
func NewDomainManager(interval time.Duration, userAgent string, respectRobots bool) *DomainManager {
	return &DomainManager{
		limiters:      make(map[string]*rate.Limiter),
		robotsCache:   make(map[string]*robotstxt.Group),
		interval:      interval,
		userAgent:     userAgent,
		respectRobots: respectRobots,
		client:        resty.New().SetTimeout(10*time.Second).SetHeader("User-Agent", userAgent),
	}
}

// Admit blocks until targetURL may be fetched. A nil manager admits everything.
func (d *DomainManager) Admit(ctx context.Context, targetURL string) error {
	if d == nil {
		return nil
	}
	if !d.IsAllowed(ctx, targetURL) {
		return ErrDisallowed
	}
	return d.Wait(ctx, targetURL)
}

func (d *DomainManager) Wait(ctx context.Context, targetURL string) error {
	u, err := url.Parse(targetURL)
	if err != nil {
		return err
	}
	domain := u.Host

	d.mu.Lock()
	limiter, exists := d.limiters[domain]
	if !exists {
		limit := rate.Inf
		if d.interval > 0 {
			limit = rate.Every(d.interval)
		}
		limiter = rate.NewLimiter(limit, 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}

func (d *DomainManager) IsAllowed(ctx context.Context, link string) bool {
	if !d.respectRobots {
		return true
	}
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	d.mu.Lock()
	group, exists := d.robotsCache[u.Host]
	d.mu.Unlock()

	if !exists {
		group = d.loadRobots(ctx, u)
		d.mu.Lock()
		d.robotsCache[u.Host] = group
		d.mu.Unlock()
	}

	if group == nil {
		return true // No robots.txt or parse error = Allowed
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return group.Test(path)
}

func (d *DomainManager) loadRobots(ctx context.Context, u *url.URL) *robotstxt.Group {
	resp, err := d.client.R().SetContext(ctx).Get(u.Scheme + "://" + u.Host + "/robots.txt")
	if err != nil || resp.StatusCode() != http.StatusOK {
		return nil
	}
	data, err := robotstxt.FromBytes(resp.Body())
	if err != nil {
		return nil
	}
	return data.FindGroup(d.userAgent)
}
