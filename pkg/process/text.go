package process

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ErrNoDateToken = errors.New("no DD-MMM date token")
	ErrBadMonth    = errors.New("unknown month abbreviation")
	ErrBadDay      = errors.New("day out of range for month")
)

var lineBreaks = strings.NewReplacer("\r", "", "\n", "", "\t", "")

// CleanText strips embedded CR, LF and TAB characters and trims the result.
func CleanText(s string) string {
	return strings.TrimSpace(lineBreaks.Replace(s))
}

var monthAbbr = [...]string{"", "Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

func monthFromAbbr(abbr string) (time.Month, bool) {
	for i := 1; i < len(monthAbbr); i++ {
		if monthAbbr[i] == abbr {
			return time.Month(i), true
		}
	}
	return 0, false
}

var voteDateToken = regexp.MustCompile(`(\d{2})-([A-Za-z]{3})`)

// ParseVoteDate builds a vote date from the enclosing session year and the
// first "DD-MMM" token in text, e.g. "15-Mar". The month must be one of the
// English three-letter abbreviations. There is no fallback date.
func ParseVoteDate(year int, text string) (time.Time, error) {
	m := voteDateToken.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w in %q", ErrNoDateToken, text)
	}

	day, _ := strconv.Atoi(m[1])
	month, ok := monthFromAbbr(m[2])
	if !ok {
		return time.Time{}, fmt.Errorf("%w %q", ErrBadMonth, m[2])
	}

	d := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if day == 0 || d.Day() != day || d.Month() != month {
		return time.Time{}, fmt.Errorf("%w: %s", ErrBadDay, m[0])
	}
	return d, nil
}

var sessionLabel = regexp.MustCompile(`^(\d{4})\D*(\d{3})\D+(\d)`)

// ParseSessionLabel reads (year, congress, session) positionally from a
// catalog label such as "2019 (116th Congress, 1st Session)".
func ParseSessionLabel(label string) (year, congress, session int, ok bool) {
	m := sessionLabel.FindStringSubmatch(strings.TrimSpace(label))
	if m == nil {
		return 0, 0, 0, false
	}
	year, _ = strconv.Atoi(m[1])
	congress, _ = strconv.Atoi(m[2])
	session, _ = strconv.Atoi(m[3])
	return year, congress, session, true
}

// Today truncates t to its calendar date in UTC.
func Today(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
