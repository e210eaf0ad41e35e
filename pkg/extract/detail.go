package extract

import (
	"fmt"

	"github.com/devraulu/rollcall/pkg/votes"
)

// VoteDetail extracts one record per member of a roll call. A malformed
// member fails the whole document with a FieldError.
func VoteDetail(root Node) ([]votes.VoteRecord, error) {
	container, ok := root.Find("members")
	if !ok {
		return nil, fmt.Errorf("%w: members: %w", ErrParse, ErrMissing)
	}

	members := container.FindAll("member")
	records := make([]votes.VoteRecord, 0, len(members))
	for i, m := range members {
		r := reader{node: m, element: "member", index: i}
		first := r.text("first_name")
		last := r.text("last_name")
		rec := votes.VoteRecord{
			SenatorName: last + ", " + first,
			Party:       r.text("party"),
			State:       r.text("state"),
			VoteCast:    r.text("vote_cast"),
			LISMemberID: r.text("lis_member_id"),
		}
		if r.err != nil {
			return nil, r.err
		}
		records = append(records, rec)
	}
	return records, nil
}
