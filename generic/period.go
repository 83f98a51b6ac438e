package generic

// =============================================================================
// PERIOD - Inclusive date range
// =============================================================================

// Period is the inclusive range [Start, End]. A zero End means open-ended.
//
// Examples:
//   - Agreement edition: 2026-03-01 .. 2027-02-28
//   - Open-ended edition: 2027-03-01 .. (zero)
//   - Timesheet span: first registration .. last registration
type Period struct {
	Start Date
	End   Date
}

// Contains returns true if the date is within the period.
func (p Period) Contains(d Date) bool {
	if d.Before(p.Start) {
		return false
	}
	return p.End.IsZero() || d.BeforeOrEqual(p.End)
}

// IsOpen reports whether the period has no end.
func (p Period) IsOpen() bool { return p.End.IsZero() }

// Validate returns ErrInvalidPeriod when End is set and precedes Start.
func (p Period) Validate() error {
	if !p.End.IsZero() && p.End.Before(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Overlaps reports whether two periods share at least one day.
func (p Period) Overlaps(o Period) bool {
	if !p.End.IsZero() && p.End.Before(o.Start) {
		return false
	}
	if !o.End.IsZero() && o.End.Before(p.Start) {
		return false
	}
	return true
}

// Days returns all days in a closed period. Open periods yield nil.
func (p Period) Days() []Date {
	if p.End.IsZero() {
		return nil
	}
	var days []Date
	for current := p.Start; current.BeforeOrEqual(p.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// String returns a string representation of the period.
func (p Period) String() string {
	end := "open"
	if !p.End.IsZero() {
		end = p.End.String()
	}
	return "[" + p.Start.String() + ", " + end + "]"
}
