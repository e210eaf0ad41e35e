package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/devraulu/rollcall/pkg/votes"
)

// CSVStorage lays files out under one data directory:
//
//	vote_menu_<congress>_<session>.csv       session index, appended per update
//	rollcalls/vote_<c>_<s>_<nnnnn>.csv       one file per vote
//	batch/rollcall_batch_<c>_<s>.csv         concatenated batch output
//	session_list.csv                         session catalog
type CSVStorage struct {
	dir string
}

func NewCSVStorage(dir string) (*CSVStorage, error) {
	for _, d := range []string{dir, filepath.Join(dir, "rollcalls"), filepath.Join(dir, "batch")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, err
		}
	}
	return &CSVStorage{dir: dir}, nil
}

func (s *CSVStorage) IndexPath(congress, session int) string {
	return filepath.Join(s.dir, fmt.Sprintf("vote_menu_%d_%d.csv", congress, session))
}

func (s *CSVStorage) RecordsPath(congress, session, voteNumber int) string {
	return filepath.Join(s.dir, "rollcalls", fmt.Sprintf("vote_%d_%d_%05d.csv", congress, session, voteNumber))
}

func (s *CSVStorage) BatchPath(congress, session int) string {
	return filepath.Join(s.dir, "batch", fmt.Sprintf("rollcall_batch_%d_%d.csv", congress, session))
}

func (s *CSVStorage) SessionsPath() string {
	return filepath.Join(s.dir, "session_list.csv")
}

type row interface {
	Row() []string
}

// SaveVoteIndex appends to the session's index file, writing the header
// only when the file is new. Rows are not deduplicated.
func (s *CSVStorage) SaveVoteIndex(_ context.Context, session votes.SessionRef, summaries []votes.VoteSummary) error {
	path := s.IndexPath(session.Congress, session.Session)
	return appendCSV(path, votes.SummaryColumns, rows(summaries))
}

func (s *CSVStorage) SaveVoteRecords(_ context.Context, summary votes.VoteSummary, records []votes.VoteRecord) error {
	path := s.RecordsPath(summary.Congress, summary.Session, summary.VoteNumber)
	return writeCSV(path, votes.RecordColumns, rows(records))
}

func (s *CSVStorage) SaveBatch(res votes.SessionResult) (string, error) {
	path := s.BatchPath(res.Session.Congress, res.Session.Session)
	return path, writeCSV(path, votes.BatchColumns, rows(res.Records()))
}

func (s *CSVStorage) SaveSessions(refs []votes.SessionRef) (string, error) {
	path := s.SessionsPath()
	return path, writeCSV(path, votes.SessionColumns, rows(refs))
}

func (s *CSVStorage) Close() error {
	return nil
}

func rows[T row](items []T) [][]string {
	out := make([][]string, len(items))
	for i, it := range items {
		out[i] = it.Row()
	}
	return out
}

func writeCSV(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := encode(f, header, records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	slog.Info("saved csv", slog.String("path", path), slog.Int("rows", len(records)))
	return f.Close()
}

func appendCSV(path string, header []string, records [][]string) error {
	_, err := os.Stat(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err != nil {
		return writeCSV(path, header, records)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if err := encode(f, nil, records); err != nil {
		f.Close()
		return fmt.Errorf("append %s: %w", path, err)
	}
	slog.Info("appended csv", slog.String("path", path), slog.Int("rows", len(records)))
	return f.Close()
}

func encode(w io.Writer, header []string, records [][]string) error {
	cw := csv.NewWriter(w)
	if header != nil {
		if err := cw.Write(header); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(records); err != nil {
		return err
	}
	return cw.Error()
}
