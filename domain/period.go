package domain

import (
	"fmt"
	"time"
)

// Month identifies a calendar month used by accounting rollups
type Month struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// ParseMonth parses "YYYY-MM"
func ParseMonth(s string) (Month, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return Month{}, fmt.Errorf("invalid period %q, expected YYYY-MM", s)
	}
	return Month{Year: t.Year(), Month: t.Month()}, nil
}

// MonthOf returns the month containing t
func MonthOf(t time.Time) Month {
	return Month{Year: t.Year(), Month: t.Month()}
}

// Range returns [start, end) in UTC
func (m Month) Range() (time.Time, time.Time) {
	return m.RangeIn(time.UTC)
}

// RangeIn returns [start, end) of the month as seen on the wall clock of loc,
// converted to UTC for querying.
func (m Month) RangeIn(loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.UTC
	}
	start := time.Date(m.Year, m.Month, 1, 0, 0, 0, 0, loc)
	return start.UTC(), start.AddDate(0, 1, 0).UTC()
}

// Contains reports whether t falls inside the month
func (m Month) Contains(t time.Time) bool {
	start, end := m.Range()
	t = t.UTC()
	return !t.Before(start) && t.Before(end)
}

func (m Month) String() string {
	return fmt.Sprintf("%04d-%02d", m.Year, int(m.Month))
}
