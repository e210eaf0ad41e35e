package crawler

import (
	"context"
	"time"

	"github.com/devraulu/rollcall/pkg/fetch"
)

// Fetcher is the single-GET transport the crawler drives.
type Fetcher interface {
	Fetch(ctx context.Context, url string, kind fetch.Kind) (*fetch.Document, error)
}

// Clock supplies the current time and the politeness pause between fetches.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func RealClock() Clock {
	return realClock{}
}

type CrawlStats struct {
	StartTime      time.Time
	Sessions       int
	VotesProcessed int
	VotesErrored   int
	VotesSkipped   int
}

func (s *CrawlStats) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartTime)
}

func (s *CrawlStats) VotesPerSecond(now time.Time) float64 {
	elapsed := s.Elapsed(now).Seconds()
	if elapsed == 0 {
		return 0
	}
	return float64(s.VotesProcessed) / elapsed
}
