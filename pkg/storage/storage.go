package storage

import (
	"context"
	"errors"

	"github.com/devraulu/rollcall/pkg/votes"
)

// Storage persists the two tabular record sets a crawl produces: one row per
// vote of a session index and one row per member of a vote.
type Storage interface {
	SaveVoteIndex(ctx context.Context, session votes.SessionRef, summaries []votes.VoteSummary) error
	SaveVoteRecords(ctx context.Context, summary votes.VoteSummary, records []votes.VoteRecord) error
	Close() error
}

// SaveSession writes a crawled session: its index rows, then the records of
// every vote that was captured. Degraded votes keep their index row only.
func SaveSession(ctx context.Context, s Storage, res votes.SessionResult) error {
	summaries := make([]votes.VoteSummary, 0, len(res.Votes))
	for _, v := range res.Votes {
		summaries = append(summaries, v.Summary)
	}
	if err := s.SaveVoteIndex(ctx, res.Session, summaries); err != nil {
		return err
	}

	for _, v := range res.Votes {
		if v.Degraded() {
			continue
		}
		if err := s.SaveVoteRecords(ctx, v.Summary, v.Records); err != nil {
			return err
		}
	}
	return nil
}

// SaveVote writes a single vote. The summary row is saved before the member
// records, which reference it.
func SaveVote(ctx context.Context, s Storage, session votes.SessionRef, summary votes.VoteSummary, records []votes.VoteRecord) error {
	if err := s.SaveVoteIndex(ctx, session, []votes.VoteSummary{summary}); err != nil {
		return err
	}
	return s.SaveVoteRecords(ctx, summary, records)
}

type multi []Storage

// Multi writes to every storage in order and stops at the first error.
func Multi(stores ...Storage) Storage {
	return multi(stores)
}

func (m multi) SaveVoteIndex(ctx context.Context, session votes.SessionRef, summaries []votes.VoteSummary) error {
	for _, s := range m {
		if err := s.SaveVoteIndex(ctx, session, summaries); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) SaveVoteRecords(ctx context.Context, summary votes.VoteSummary, records []votes.VoteRecord) error {
	for _, s := range m {
		if err := s.SaveVoteRecords(ctx, summary, records); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Close() error {
	var errs []error
	for _, s := range m {
		errs = append(errs, s.Close())
	}
	return errors.Join(errs...)
}
