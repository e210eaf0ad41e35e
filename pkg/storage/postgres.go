package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/devraulu/rollcall/pkg/votes"
)

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) SaveVoteIndex(ctx context.Context, session votes.SessionRef, summaries []votes.VoteSummary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, v := range summaries {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO votes (congress, session, vote_number, title, yeas, nays, result, issue, question, vote_date, url, year)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (congress, session, vote_number) DO UPDATE
			SET title = EXCLUDED.title, yeas = EXCLUDED.yeas, nays = EXCLUDED.nays, result = EXCLUDED.result,
				issue = EXCLUDED.issue, question = EXCLUDED.question, vote_date = EXCLUDED.vote_date, url = EXCLUDED.url`,
			session.Congress, session.Session, v.VoteNumber, v.Title, v.Yeas, v.Nays, v.Result, v.Issue, v.Question, v.VoteDate, v.DetailURL, session.Year,
		)
		if err != nil {
			return fmt.Errorf("save vote %d: %w", v.VoteNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Info("saved vote index", "congress", session.Congress, "session", session.Session, "votes", len(summaries))
	return nil
}

// SaveVoteRecords replaces the member records stored for one vote.
func (s *PostgresStorage) SaveVoteRecords(ctx context.Context, summary votes.VoteSummary, records []votes.VoteRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		DELETE FROM vote_records WHERE congress = $1 AND session = $2 AND vote_number = $3`,
		summary.Congress, summary.Session, summary.VoteNumber,
	)
	if err != nil {
		return err
	}

	for _, r := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vote_records (congress, session, vote_number, lis_member_id, senator, party, state, vote)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			summary.Congress, summary.Session, summary.VoteNumber, r.LISMemberID, r.SenatorName, r.Party, r.State, r.VoteCast,
		)
		if err != nil {
			return fmt.Errorf("save record %s of vote %d: %w", r.LISMemberID, summary.VoteNumber, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	slog.Debug("saved vote records", "vote_number", summary.VoteNumber, "records", len(records))
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
