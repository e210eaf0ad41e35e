package extract

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/devraulu/rollcall/pkg/process"
	"github.com/devraulu/rollcall/pkg/votes"
)

var yearLabel = regexp.MustCompile(`^\d{4} `)

// Sessions lists the sessions linked from the catalog page. Only anchors
// pointing at a vote menu whose text starts with a year are considered;
// anchors whose label does not parse are skipped.
func Sessions(root Node, catalogURL string) ([]votes.SessionRef, error) {
	var refs []votes.SessionRef
	for _, a := range root.FindAll("a") {
		href, ok := a.Attr("href")
		if !ok || !strings.Contains(href, "vote_menu") {
			continue
		}

		label := strings.TrimSpace(a.Text())
		if !yearLabel.MatchString(label) {
			continue
		}

		year, congress, session, ok := process.ParseSessionLabel(label)
		if !ok {
			slog.Debug("skipping catalog anchor", slog.String("label", label), slog.String("href", href))
			continue
		}

		indexURL, err := process.ResolveIndexURL(href, catalogURL)
		if err != nil {
			slog.Debug("skipping catalog anchor with bad href", slog.String("href", href), slog.Any("err", err))
			continue
		}

		refs = append(refs, votes.SessionRef{
			Congress: congress,
			Session:  session,
			Year:     year,
			IndexURL: indexURL,
		})
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrParse, ErrNoSessions)
	}
	return refs, nil
}
