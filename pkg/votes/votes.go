package votes

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

const DateLayout = "2006-01-02"

var (
	ErrDuplicateVote = errors.New("duplicate vote number")
)

// SessionRef identifies one legislative session's vote index document.
type SessionRef struct {
	Congress int
	Session  int
	Year     int
	IndexURL string
}

type VoteSummary struct {
	Congress   int
	Session    int
	VoteNumber int
	Title      string
	Yeas       int
	Nays       int
	Result     string
	Issue      string
	Question   string
	VoteDate   time.Time
	DetailURL  string
}

// VoteRecord is one member's cast vote on a single roll call.
type VoteRecord struct {
	SenatorName string
	Party       string
	State       string
	VoteCast    string
	LISMemberID string
}

// VoteResult pairs a vote with its member records. Err is set when the detail
// document could not be fetched or extracted; Records is then empty.
type VoteResult struct {
	Summary VoteSummary
	Records []VoteRecord
	Err     error
}

func (r VoteResult) Degraded() bool {
	return r.Err != nil
}

type SessionResult struct {
	Session SessionRef
	Votes   []VoteResult
}

// Degraded counts votes whose detail could not be captured.
func (r SessionResult) Degraded() int {
	n := 0
	for _, v := range r.Votes {
		if v.Degraded() {
			n++
		}
	}
	return n
}

// Records flattens the session into one row per member per vote.
func (r SessionResult) Records() []BatchRow {
	var rows []BatchRow
	for _, v := range r.Votes {
		for _, rec := range v.Records {
			rows = append(rows, BatchRow{VoteNumber: v.Summary.VoteNumber, Record: rec})
		}
	}
	return rows
}

// IndexByNumber keys vote results by vote number. Two results sharing a
// number is reported as ErrDuplicateVote instead of one overwriting the other.
func IndexByNumber(results []VoteResult) (map[int]VoteResult, error) {
	out := make(map[int]VoteResult, len(results))
	for _, r := range results {
		n := r.Summary.VoteNumber
		if _, ok := out[n]; ok {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateVote, n)
		}
		out[n] = r
	}
	return out, nil
}

type BatchRow struct {
	VoteNumber int
	Record     VoteRecord
}

var (
	SessionColumns = []string{"year", "congress", "session", "url"}
	SummaryColumns = []string{"vote_number", "title", "yeas", "nays", "result", "issue", "question", "vote_date", "url"}
	RecordColumns  = []string{"senator", "party", "state", "vote", "lis_member_id"}
	BatchColumns   = append([]string{"vote_number"}, RecordColumns...)
)

func (s SessionRef) Row() []string {
	return []string{
		strconv.Itoa(s.Year),
		strconv.Itoa(s.Congress),
		strconv.Itoa(s.Session),
		s.IndexURL,
	}
}

func (v VoteSummary) Row() []string {
	return []string{
		strconv.Itoa(v.VoteNumber),
		v.Title,
		strconv.Itoa(v.Yeas),
		strconv.Itoa(v.Nays),
		v.Result,
		v.Issue,
		v.Question,
		v.VoteDate.Format(DateLayout),
		v.DetailURL,
	}
}

func (r VoteRecord) Row() []string {
	return []string{r.SenatorName, r.Party, r.State, r.VoteCast, r.LISMemberID}
}

func (b BatchRow) Row() []string {
	return append([]string{strconv.Itoa(b.VoteNumber)}, b.Record.Row()...)
}
