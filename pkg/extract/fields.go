package extract

import (
	"fmt"
	"strconv"
	"strings"
)

// fieldText returns the trimmed text of the first descendant found by
// following path, e.g. fieldText(vote, "vote_tally", "yeas").
func fieldText(n Node, path ...string) (string, error) {
	cur := n
	for _, tag := range path {
		next, ok := cur.Find(tag)
		if !ok {
			return "", ErrMissing
		}
		cur = next
	}
	return strings.TrimSpace(cur.Text()), nil
}

func fieldInt(n Node, path ...string) (int, error) {
	s, err := fieldText(n, path...)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	return v, nil
}

// reader collects the first field error of one repeated element so the
// extraction code can read all fields in a row and check once.
type reader struct {
	node    Node
	element string
	index   int
	err     *FieldError
}

func (r *reader) text(path ...string) string {
	if r.err != nil {
		return ""
	}
	s, err := fieldText(r.node, path...)
	if err != nil {
		r.fail(path, err)
	}
	return s
}

func (r *reader) number(path ...string) int {
	if r.err != nil {
		return 0
	}
	v, err := fieldInt(r.node, path...)
	if err != nil {
		r.fail(path, err)
	}
	return v
}

func (r *reader) fail(path []string, err error) {
	r.err = &FieldError{Element: r.element, Index: r.index, Field: strings.Join(path, "/"), Err: err}
}
