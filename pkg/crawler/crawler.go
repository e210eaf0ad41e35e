package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	frontier "github.com/devraulu/rollcall/pkg"
	"github.com/devraulu/rollcall/pkg/config"
	"github.com/devraulu/rollcall/pkg/extract"
	"github.com/devraulu/rollcall/pkg/fetch"
	"github.com/devraulu/rollcall/pkg/process"
	"github.com/devraulu/rollcall/pkg/votes"
)

// Crawler walks session catalog, vote index and vote detail documents one
// request at a time. It is not safe for concurrent use.
type Crawler struct {
	fetcher  Fetcher
	resolver process.Resolver
	clock    Clock
	delay    time.Duration
	Stats    CrawlStats
}

type Option func(*Crawler)

func WithClock(clock Clock) Option {
	return func(c *Crawler) { c.clock = clock }
}

// WithDelay lengthens the pause after each vote detail fetch. Values below
// config.DefaultDelay are raised to it.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) { c.delay = max(d, config.DefaultDelay) }
}

func New(cfg *config.Config, f Fetcher, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher:  f,
		resolver: process.NewResolver(cfg.Crawler.BaseURL),
		clock:    RealClock(),
		delay:    max(cfg.Politeness.GetDelay(), config.DefaultDelay),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.Stats.StartTime = c.clock.Now()
	return c
}

func (c *Crawler) Resolver() process.Resolver {
	return c.resolver
}

// ListSessions fetches the session catalog.
func (c *Crawler) ListSessions(ctx context.Context) ([]votes.SessionRef, error) {
	url := c.resolver.CatalogURL()
	root, err := c.fetchNode(ctx, url, fetch.HTML)
	if err != nil {
		return nil, c.fatal("session catalog", url, err)
	}

	refs, err := extract.Sessions(root, url)
	if err != nil {
		return nil, c.fatal("session catalog", url, err)
	}

	slog.Info("listed sessions", slog.String("url", url), slog.Int("sessions", len(refs)))
	return refs, nil
}

// VoteIndex fetches and extracts one session's vote index.
func (c *Crawler) VoteIndex(ctx context.Context, congress, session int) (*extract.Index, error) {
	return c.voteIndex(ctx, c.resolver.VoteIndexURL(congress, session))
}

func (c *Crawler) voteIndex(ctx context.Context, url string) (*extract.Index, error) {
	root, err := c.fetchNode(ctx, url, fetch.XML)
	if err != nil {
		return nil, c.fatal("vote index", url, err)
	}

	idx, err := extract.VoteIndex(root, c.resolver)
	if err != nil {
		return nil, c.fatal("vote index", url, err)
	}
	return idx, nil
}

// VoteDetail fetches and extracts the member records of one vote.
func (c *Crawler) VoteDetail(ctx context.Context, congress, session, voteNumber int) ([]votes.VoteRecord, error) {
	return c.voteDetail(ctx, c.resolver.VoteDetailURL(congress, session, voteNumber))
}

func (c *Crawler) voteDetail(ctx context.Context, url string) ([]votes.VoteRecord, error) {
	root, err := c.fetchNode(ctx, url, fetch.XML)
	if err != nil {
		return nil, err
	}
	return extract.VoteDetail(root)
}

// CrawlSession crawls every vote of (congress, session) dated on or after
// minDate. A zero minDate keeps every vote.
func (c *Crawler) CrawlSession(ctx context.Context, congress, session int, minDate time.Time) (votes.SessionResult, error) {
	return c.crawlIndex(ctx, c.resolver.VoteIndexURL(congress, session), minDate)
}

// CrawlAllSessions crawls, in catalog order, every session whose year is at
// least minYear. The first catalog or index failure aborts the crawl.
func (c *Crawler) CrawlAllSessions(ctx context.Context, minYear int, minDate time.Time) ([]votes.SessionResult, error) {
	refs, err := c.ListSessions(ctx)
	if err != nil {
		return nil, err
	}

	var results []votes.SessionResult
	for _, ref := range refs {
		if ref.Year < minYear {
			continue
		}

		res, err := c.crawlIndex(ctx, ref.IndexURL, minDate)
		if err != nil {
			return nil, fmt.Errorf("session %d-%d: %w", ref.Congress, ref.Session, err)
		}
		results = append(results, res)
	}

	now := c.clock.Now()
	slog.Info("crawl complete",
		slog.Int("sessions", c.Stats.Sessions),
		slog.Int("processed", c.Stats.VotesProcessed),
		slog.Int("errored", c.Stats.VotesErrored),
		slog.Int("skipped", c.Stats.VotesSkipped),
		slog.Duration("elapsed", c.Stats.Elapsed(now)),
		slog.Float64("votes_per_sec", c.Stats.VotesPerSecond(now)),
	)
	return results, nil
}

func (c *Crawler) crawlIndex(ctx context.Context, url string, minDate time.Time) (votes.SessionResult, error) {
	idx, err := c.voteIndex(ctx, url)
	if err != nil {
		return votes.SessionResult{}, err
	}

	f := frontier.NewFrontier()
	for _, s := range idx.Votes {
		if s.VoteDate.Before(minDate) {
			c.Stats.VotesSkipped++
			continue
		}
		if err := f.Push(s); err != nil {
			return votes.SessionResult{}, c.fatal("vote index", url, err)
		}
	}

	result := votes.SessionResult{Session: idx.Ref(url)}
	slog.Info("crawling session",
		slog.Int("congress", idx.Congress),
		slog.Int("session", idx.Session),
		slog.Int("votes", f.Len()),
		slog.Int("indexed", len(idx.Votes)),
	)

	for {
		candidate, ok := f.Pop()
		if !ok {
			break
		}

		records, err := c.voteDetail(ctx, candidate.URL)
		if err != nil {
			c.Stats.VotesErrored++
			slog.Error("vote detail failed, continuing",
				slog.String("url", candidate.URL),
				slog.Int("vote_number", candidate.Summary.VoteNumber),
				slog.String("kind", errorKind(err)),
				slog.Any("err", err),
			)
			result.Votes = append(result.Votes, votes.VoteResult{Summary: candidate.Summary, Err: err})
		} else {
			c.Stats.VotesProcessed++
			slog.Info("finished vote",
				slog.Int("vote_number", candidate.Summary.VoteNumber),
				slog.Int("records", len(records)),
				slog.Duration("pause", c.delay),
			)
			result.Votes = append(result.Votes, votes.VoteResult{Summary: candidate.Summary, Records: records})
		}

		if err := c.clock.Sleep(ctx, c.delay); err != nil {
			return votes.SessionResult{}, err
		}
	}

	c.Stats.Sessions++
	return result, nil
}

func (c *Crawler) fetchNode(ctx context.Context, url string, kind fetch.Kind) (extract.Node, error) {
	doc, err := c.fetcher.Fetch(ctx, url, kind)
	if err != nil {
		return nil, err
	}
	return extract.Parse(doc)
}

func (c *Crawler) fatal(stage, url string, err error) error {
	slog.Error(stage+" failed", slog.String("url", url), slog.String("kind", errorKind(err)), slog.Any("err", err))
	return fmt.Errorf("%s %s: %w", stage, url, err)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, fetch.ErrTransport):
		return "transport"
	case errors.Is(err, fetch.ErrEmptyResponse):
		return "empty_response"
	case errors.Is(err, fetch.ErrStatus):
		return "status"
	case errors.Is(err, fetch.ErrDisallowed):
		return "disallowed"
	case errors.Is(err, votes.ErrDuplicateVote):
		return "duplicate_vote"
	case errors.Is(err, extract.ErrParse):
		return "parse"
	case errors.Is(err, extract.ErrField):
		return "field"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "unknown"
	}
}
