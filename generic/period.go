package generic

// =============================================================================
// PERIOD - Inclusive date range, optionally open-ended
// =============================================================================

// Period is the validity range of an interval: [Start, End], both inclusive.
// A nil End means the period is still running.
type Period struct {
	Start Date
	End   *Date
}

// Contains returns true if d falls within [Start, End].
func (p Period) Contains(d Date) bool {
	if d.Before(p.Start) {
		return false
	}
	return p.End == nil || d.BeforeOrEqual(*p.End)
}

// String returns a string representation of the period.
func (p Period) String() string {
	end := "open"
	if p.End != nil {
		end = p.End.String()
	}
	return "[" + p.Start.String() + ", " + end + "]"
}
