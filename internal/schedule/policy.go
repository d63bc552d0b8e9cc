// Package schedule holds the due-date policy: deciding whether a follow-up
// is due and deriving the next follow-up date.
package schedule

import "time"

// Layouts accepted when parsing stored timestamps. Cells are written as
// RFC 3339, but rows edited by hand may carry naive timestamps or bare dates.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Policy computes follow-up scheduling decisions for a reference timezone
// and interval. The zero value is not usable; construct with New.
type Policy struct {
	Location     *time.Location
	IntervalDays int
}

func New(loc *time.Location, intervalDays int) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{Location: loc, IntervalDays: intervalDays}
}

// IsDue reports whether a follow-up is due. Malformed or empty dates are
// never due: auto-processing must not fire on bad data.
func (p Policy) IsDue(nextFollowup string, now time.Time) bool {
	t, err := p.parse(nextFollowup)
	if err != nil {
		return false
	}
	return !now.Before(t)
}

// NextFollowup returns base + interval as an RFC 3339 timestamp in the
// policy timezone. A base that cannot be parsed falls back to now, so a
// corrupted date resets the clock instead of blocking scheduling forever.
func (p Policy) NextFollowup(base string, now time.Time) string {
	t, err := p.parse(base)
	if err != nil {
		t = now.In(p.Location)
	}
	return t.AddDate(0, 0, p.IntervalDays).Format(time.RFC3339)
}

// Now returns the current time in the policy timezone.
func (p Policy) Now() time.Time {
	return time.Now().In(p.Location)
}

// Timestamp renders now in the policy timezone, the format used for every
// cell the store writes.
func (p Policy) Timestamp(now time.Time) string {
	return now.In(p.Location).Format(time.RFC3339)
}

// parse attempts each accepted layout. Naive timestamps are interpreted in
// the policy timezone.
func (p Policy) parse(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range timestampLayouts {
		if layout == time.RFC3339 {
			if t, err := time.Parse(layout, s); err == nil {
				return t.In(p.Location), nil
			} else {
				lastErr = err
			}
			continue
		}
		if t, err := time.ParseInLocation(layout, s, p.Location); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}
	return time.Time{}, lastErr
}
