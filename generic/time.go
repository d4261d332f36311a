package generic

import (
	"time"
)

// =============================================================================
// TIME POINT - Calendar date used as the ledger key
// =============================================================================

// DateLayout is the wire format for usage dates (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// TimePoint is a calendar date in UTC. Energy readings are recorded per day,
// so everything below day granularity is dropped on construction.
type TimePoint struct {
	Time time.Time
}

// Constructors
func NewTimePoint(year int, month time.Month, day int) TimePoint {
	return TimePoint{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// FromTime truncates t to its calendar day in UTC.
func FromTime(t time.Time) TimePoint {
	t = t.UTC()
	return NewTimePoint(t.Year(), t.Month(), t.Day())
}

func Today() TimePoint {
	return FromTime(time.Now())
}

// ParseDate parses a YYYY-MM-DD date. An empty string is an error.
func ParseDate(s string) (TimePoint, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return TimePoint{}, err
	}
	return FromTime(t), nil
}

// Comparison
func (tp TimePoint) Before(other TimePoint) bool        { return tp.Time.Before(other.Time) }
func (tp TimePoint) Equal(other TimePoint) bool         { return tp.Time.Equal(other.Time) }
func (tp TimePoint) After(other TimePoint) bool         { return tp.Time.After(other.Time) }
func (tp TimePoint) BeforeOrEqual(other TimePoint) bool { return !tp.After(other) }
func (tp TimePoint) AfterOrEqual(other TimePoint) bool  { return !tp.Before(other) }

// Arithmetic
func (tp TimePoint) AddDays(n int) TimePoint   { return TimePoint{Time: tp.Time.AddDate(0, 0, n)} }
func (tp TimePoint) AddMonths(n int) TimePoint { return TimePoint{Time: tp.Time.AddDate(0, n, 0)} }
func (tp TimePoint) AddYears(n int) TimePoint  { return TimePoint{Time: tp.Time.AddDate(n, 0, 0)} }

// Properties
func (tp TimePoint) Year() int         { return tp.Time.Year() }
func (tp TimePoint) Month() time.Month { return tp.Time.Month() }
func (tp TimePoint) Day() int          { return tp.Time.Day() }
func (tp TimePoint) IsZero() bool      { return tp.Time.IsZero() }

func (tp TimePoint) String() string {
	return tp.Time.Format(DateLayout)
}

// MonthKey returns the sortable month identifier, e.g. "2025-03".
func (tp TimePoint) MonthKey() string {
	return tp.Time.Format("2006-01")
}

// MonthLabel returns the display label used by trend series, e.g. "Mar 2025".
func (tp TimePoint) MonthLabel() string {
	return tp.Time.Format("Jan 2006")
}

// =============================================================================
// TIME UTILITIES
// =============================================================================
// Note: Period type is defined in period.go

func DaysBetween(from, to TimePoint) int                { return int(to.Time.Sub(from.Time).Hours() / 24) }
func StartOfYear(year int) TimePoint                    { return NewTimePoint(year, time.January, 1) }
func StartOfMonth(year int, month time.Month) TimePoint { return NewTimePoint(year, month, 1) }
func EndOfMonth(year int, month time.Month) TimePoint {
	t := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	return TimePoint{Time: t}
}
