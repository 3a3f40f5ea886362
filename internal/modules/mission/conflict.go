// README: Pure conflict checks over mission time windows.
package mission

import "time"

// Overlaps reports whether two time windows conflict. Touching endpoints are
// not a conflict: a mission ending at 14:00 does not block one starting at
// 14:00.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// HasConflict reports whether any non-cancelled mission in the snapshot
// overlaps the candidate window. It is a pure query: callers supply a fresh
// snapshot per request, nothing is cached here.
func HasConflict(start, end time.Time, missions []Mission) bool {
	for _, m := range missions {
		if m.Status == StatusCancelled {
			continue
		}
		ms, me := m.Window()
		if Overlaps(start, end, ms, me) {
			return true
		}
	}
	return false
}
