package generic

// =============================================================================
// PERIOD - Inclusive date window used by every aggregate
// =============================================================================

// Period is an inclusive calendar window [Start, End].
//
// Examples:
//   - Trailing 30 days ending today (dashboard KPIs)
//   - Calendar month (trend buckets, alert evaluation)
//   - Year to date (year-over-year comparison)
type Period struct {
	Start TimePoint
	End   TimePoint
}

// Contains returns true if the time point is within the period [Start, End]
func (p Period) Contains(t TimePoint) bool {
	return t.AfterOrEqual(p.Start) && t.BeforeOrEqual(p.End)
}

// Valid reports whether End is not before Start.
func (p Period) Valid() bool {
	return !p.End.Before(p.Start)
}

// IsZero reports whether the period is unset (matches everything in queries).
func (p Period) IsZero() bool {
	return p.Start.IsZero() && p.End.IsZero()
}

// String returns a string representation of the period.
func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}

// =============================================================================
// PERIOD CONSTRUCTORS
// =============================================================================

// MonthOf returns the calendar month containing date.
func MonthOf(date TimePoint) Period {
	return Period{
		Start: StartOfMonth(date.Year(), date.Month()),
		End:   EndOfMonth(date.Year(), date.Month()),
	}
}

// MonthToDate returns [first of month, asOf].
func MonthToDate(asOf TimePoint) Period {
	return Period{Start: StartOfMonth(asOf.Year(), asOf.Month()), End: asOf}
}

// TrailingDays returns the window of n days ending at asOf, inclusive.
// TrailingDays(d, 30) covers d-29 .. d.
func TrailingDays(asOf TimePoint, n int) Period {
	return Period{Start: asOf.AddDays(-(n - 1)), End: asOf}
}

// YearToDate returns [Jan 1, asOf].
func YearToDate(asOf TimePoint) Period {
	return Period{Start: StartOfYear(asOf.Year()), End: asOf}
}

// TrailingMonths returns n consecutive calendar months, oldest first, the
// last one being the month that contains asOf.
func TrailingMonths(asOf TimePoint, n int) []Period {
	if n <= 0 {
		return nil
	}
	first := StartOfMonth(asOf.Year(), asOf.Month()).AddMonths(-(n - 1))
	months := make([]Period, 0, n)
	for i := 0; i < n; i++ {
		months = append(months, MonthOf(first.AddMonths(i)))
	}
	return months
}

// PreviousPeriod returns the period of equal length before this one
func (p Period) PreviousPeriod() Period {
	duration := DaysBetween(p.Start, p.End)
	newEnd := p.Start.AddDays(-1)
	newStart := newEnd.AddDays(-duration)
	return Period{Start: newStart, End: newEnd}
}

// YearEarlier shifts both ends back one calendar year. Feb 29 maps to
// Feb 28 rather than rolling over into March.
func (p Period) YearEarlier() Period {
	return Period{Start: yearEarlier(p.Start), End: yearEarlier(p.End)}
}

func yearEarlier(tp TimePoint) TimePoint {
	shifted := tp.AddYears(-1)
	if shifted.Month() != tp.Month() {
		return EndOfMonth(tp.Year()-1, tp.Month())
	}
	return shifted
}
