package reports

import "slices"

// ReconcileYear keeps selected when it is still available and otherwise
// falls back to the most recent available year. ok is false when nothing is
// available.
func ReconcileYear(available []int, selected int) (year int, ok bool) {
	if len(available) == 0 {
		return 0, false
	}
	if slices.Contains(available, selected) {
		return selected, true
	}
	return slices.Max(available), true
}

// DefaultYear picks the initial selection: the current year when it has
// spending, otherwise the most recent year that does.
func DefaultYear(available []int, current int) (int, bool) {
	return ReconcileYear(available, current)
}
