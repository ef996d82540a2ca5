package chain

import (
	"sort"
	"sync"
)

// registry tracks chains that have been launched and not yet finished.
type registry struct {
	mu     sync.Mutex
	active map[string]string // chain ID -> start URL
}

func newRegistry() *registry {
	return &registry{active: make(map[string]string)}
}

func (r *registry) add(id, startURL string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[id] = startURL
}

func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, id)
}

func (r *registry) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// startURLs lists where the active chains began, sorted for stable output.
func (r *registry) startURLs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	urls := make([]string, 0, len(r.active))
	for _, u := range r.active {
		urls = append(urls, u)
	}
	sort.Strings(urls)
	return urls
}
