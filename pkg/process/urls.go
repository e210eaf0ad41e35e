package process

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const DefaultBaseURL = "https://www.senate.gov"

// Resolver maps entity identifiers to the canonical document URLs.
// Inputs are not validated: negative congress, session or vote numbers are a
// caller error.
type Resolver struct {
	BaseURL string
}

func NewResolver(baseURL string) Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return Resolver{BaseURL: strings.TrimRight(baseURL, "/")}
}

func (r Resolver) base() string {
	if r.BaseURL == "" {
		return DefaultBaseURL
	}
	return r.BaseURL
}

func (r Resolver) CatalogURL() string {
	return r.base() + "/legislative/votes.htm"
}

func (r Resolver) VoteIndexURL(congress, session int) string {
	return fmt.Sprintf("%s/legislative/LIS/roll_call_lists/vote_menu_%d_%d.xml", r.base(), congress, session)
}

func (r Resolver) VoteDetailURL(congress, session, voteNumber int) string {
	return fmt.Sprintf("%s/legislative/LIS/roll_call_votes/vote%d%d/vote_%d_%d_%05d.xml",
		r.base(), congress, session, congress, session, voteNumber)
}

var voteDetailPath = regexp.MustCompile(`/vote_(\d+)_(\d+)_(\d+)\.xml$`)

// ParseVoteDetailURL recovers the identifiers encoded by VoteDetailURL.
func ParseVoteDetailURL(u string) (congress, session, voteNumber int, err error) {
	m := voteDetailPath.FindStringSubmatch(u)
	if m == nil {
		return 0, 0, 0, fmt.Errorf("not a vote detail url: %q", u)
	}
	// the pattern only admits digit runs, so Atoi fails only on overflow
	if congress, err = strconv.Atoi(m[1]); err != nil {
		return 0, 0, 0, err
	}
	if session, err = strconv.Atoi(m[2]); err != nil {
		return 0, 0, 0, err
	}
	if voteNumber, err = strconv.Atoi(m[3]); err != nil {
		return 0, 0, 0, err
	}
	return congress, session, voteNumber, nil
}
