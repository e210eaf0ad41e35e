package frontier

import (
	"fmt"
	"log/slog"

	"github.com/devraulu/rollcall/pkg/votes"
)

// Candidate is a vote whose detail document is still to be fetched.
type Candidate struct {
	Summary votes.VoteSummary
	URL     string
}

type SeenRecord struct {
	URL string
}

// Frontier is the ordered queue of vote-detail fetches for one session. Votes
// are popped in the order they were pushed; a vote number may be pushed only
// once. It is owned by a single crawl and is not safe for concurrent use.
type Frontier struct {
	queue []Candidate
	seen  map[int]SeenRecord
}

func NewFrontier() *Frontier {
	return &Frontier{
		seen: make(map[int]SeenRecord),
	}
}

func (f *Frontier) Push(s votes.VoteSummary) error {
	if prev, ok := f.seen[s.VoteNumber]; ok {
		slog.Error("frontier duplicate vote number",
			slog.Int("vote_number", s.VoteNumber),
			slog.String("url", s.DetailURL),
			slog.String("first_url", prev.URL),
		)
		return fmt.Errorf("%w: %d (%s)", votes.ErrDuplicateVote, s.VoteNumber, s.DetailURL)
	}

	f.seen[s.VoteNumber] = SeenRecord{URL: s.DetailURL}
	f.queue = append(f.queue, Candidate{Summary: s, URL: s.DetailURL})
	slog.Debug("frontier push", slog.Int("vote_number", s.VoteNumber), slog.String("url", s.DetailURL), slog.Int("queue_len", len(f.queue)))
	return nil
}

func (f *Frontier) Pop() (*Candidate, bool) {
	if len(f.queue) == 0 {
		return nil, false
	}

	c := f.queue[0]
	f.queue = f.queue[1:]
	return &c, true
}

func (f *Frontier) Len() int {
	return len(f.queue)
}

func (f *Frontier) Seen() int {
	return len(f.seen)
}
