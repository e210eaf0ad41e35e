package process

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"github.com/benjaminestes/robots"
)

// RobotsGetter fetches a robots.txt document and reports its status code.
type RobotsGetter func(ctx context.Context, url string) (int, []byte, error)

// RobotsCache remembers one robots.txt policy per host. Hosts whose
// robots.txt cannot be fetched or parsed are treated as allowing everything.
type RobotsCache struct {
	mu    sync.Mutex
	get   RobotsGetter
	cache map[string]*robots.Robots
}

func NewRobotsCache(get RobotsGetter) *RobotsCache {
	return &RobotsCache{
		get:   get,
		cache: make(map[string]*robots.Robots),
	}
}

func (c *RobotsCache) Allowed(ctx context.Context, agent, url string) bool {
	r := c.lookup(ctx, url)
	if r == nil {
		return true
	}
	return r.Test(agent, url)
}

func (c *RobotsCache) lookup(ctx context.Context, url string) (r *robots.Robots) {
	defer func() {
		if p := recover(); p != nil {
			slog.Warn("panic in robots.txt parsing, assuming allowed", slog.String("url", url), slog.Any("panic", p))
			r = nil
		}
	}()

	robotsURL, err := robots.Locate(url)
	if err != nil {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.cache[robotsURL]; ok {
		return r
	}

	status, body, err := c.get(ctx, robotsURL)
	if err != nil {
		slog.Warn("failed to fetch robots.txt", slog.String("url", robotsURL), slog.Any("err", err))
		c.cache[robotsURL] = nil
		return nil
	}

	slog.Debug("robots.txt response",
		slog.String("url", robotsURL),
		slog.Int("status_code", status),
		slog.Int("body_length", len(body)),
	)

	r, err = robots.From(status, bytes.NewReader(body))
	if err != nil {
		slog.Warn("failed to parse robots.txt", slog.String("url", robotsURL), slog.Any("err", err))
		r = nil
	}
	c.cache[robotsURL] = r
	return r
}
