package updater

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/devraulu/rollcall/pkg/checkpoint"
	"github.com/devraulu/rollcall/pkg/crawler"
	"github.com/devraulu/rollcall/pkg/process"
	"github.com/devraulu/rollcall/pkg/storage"
	"github.com/devraulu/rollcall/pkg/votes"
)

// SessionCrawler is the part of the crawler an update drives.
type SessionCrawler interface {
	CrawlAllSessions(ctx context.Context, minYear int, minDate time.Time) ([]votes.SessionResult, error)
}

// Updater advances a checkpoint by crawling everything newer than it. Calls
// against the same checkpoint must be serialised by the caller.
type Updater struct {
	crawler SessionCrawler
	store   storage.Storage
	clock   crawler.Clock
}

func New(c SessionCrawler, store storage.Storage, clock crawler.Clock) *Updater {
	if clock == nil {
		clock = crawler.RealClock()
	}
	return &Updater{crawler: c, store: store, clock: clock}
}

// Update crawls sessions from the checkpoint's year on, keeping votes dated on
// or after its last update, and persists them. Only when the whole pass
// succeeds is the returned checkpoint's LastUpdate moved to today; on error
// the input checkpoint is returned unchanged.
func (u *Updater) Update(ctx context.Context, cp checkpoint.Checkpoint) (checkpoint.Checkpoint, error) {
	minYear := cp.MinYear()
	slog.Info("starting update",
		slog.Int("min_year", minYear),
		slog.Time("last_update", cp.LastUpdate),
	)

	results, err := u.crawler.CrawlAllSessions(ctx, minYear, cp.LastUpdate)
	if err != nil {
		slog.Error("update aborted, checkpoint not advanced", slog.Any("err", err))
		return cp, fmt.Errorf("update: %w", err)
	}

	degraded := 0
	for _, res := range results {
		if err := storage.SaveSession(ctx, u.store, res); err != nil {
			slog.Error("update aborted, checkpoint not advanced", slog.Any("err", err))
			return cp, fmt.Errorf("update: save session %d-%d: %w", res.Session.Congress, res.Session.Session, err)
		}
		degraded += res.Degraded()
	}

	next := cp
	next.LastUpdate = process.Today(u.clock.Now())
	slog.Info("update complete",
		slog.Int("sessions", len(results)),
		slog.Int("degraded_votes", degraded),
		slog.String("last_update", next.LastUpdate.Format(votes.DateLayout)),
	)
	return next, nil
}
