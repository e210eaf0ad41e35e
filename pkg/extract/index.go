package extract

import (
	"fmt"

	"github.com/devraulu/rollcall/pkg/process"
	"github.com/devraulu/rollcall/pkg/votes"
)

// Index is the content of one session's vote index document.
type Index struct {
	Congress int
	Session  int
	Year     int
	Votes    []votes.VoteSummary
}

func (i *Index) Ref(indexURL string) votes.SessionRef {
	return votes.SessionRef{
		Congress: i.Congress,
		Session:  i.Session,
		Year:     i.Year,
		IndexURL: indexURL,
	}
}

// Find returns the summary of one vote of the index.
func (i *Index) Find(voteNumber int) (votes.VoteSummary, bool) {
	for _, v := range i.Votes {
		if v.VoteNumber == voteNumber {
			return v, true
		}
	}
	return votes.VoteSummary{}, false
}

// VoteIndex extracts every vote of a session index. Any vote with a missing
// or malformed field fails the whole document; no partial index is returned.
func VoteIndex(root Node, resolver process.Resolver) (*Index, error) {
	idx := &Index{}
	for _, f := range []struct {
		tag string
		dst *int
	}{
		{"congress", &idx.Congress},
		{"session", &idx.Session},
		{"congress_year", &idx.Year},
	} {
		v, err := fieldInt(root, f.tag)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrParse, f.tag, err)
		}
		*f.dst = v
	}

	container, ok := root.Find("votes")
	if !ok {
		return nil, fmt.Errorf("%w: votes: %w", ErrParse, ErrMissing)
	}

	for i, v := range container.FindAll("vote") {
		r := reader{node: v, element: "vote", index: i}
		s := votes.VoteSummary{
			Congress:   idx.Congress,
			Session:    idx.Session,
			VoteNumber: r.number("vote_number"),
			Title:      process.CleanText(r.text("title")),
			Yeas:       r.number("vote_tally", "yeas"),
			Nays:       r.number("vote_tally", "nays"),
			Result:     r.text("result"),
			Issue:      r.text("issue"),
			Question:   process.CleanText(r.text("question")),
		}

		dateText := r.text("vote_date")
		if r.err == nil {
			d, err := process.ParseVoteDate(idx.Year, dateText)
			if err != nil {
				r.fail([]string{"vote_date"}, err)
			}
			s.VoteDate = d
		}

		if r.err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, r.err)
		}

		s.DetailURL = resolver.VoteDetailURL(idx.Congress, idx.Session, s.VoteNumber)
		idx.Votes = append(idx.Votes, s)
	}

	return idx, nil
}
