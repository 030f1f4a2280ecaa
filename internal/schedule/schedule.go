// Package schedule computes concrete firing times from daily "HH:MM"
// schedule entries.
package schedule

import (
	"regexp"
	"strconv"
	"time"
)

var timeRegexp = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// ValidTime reports whether s is a 24-hour "HH:MM" time string.
func ValidTime(s string) bool {
	return timeRegexp.MatchString(s)
}

// NextOccurrence returns the smallest timestamp strictly after now whose wall
// clock equals entry at minute granularity: today if the entry's minute-of-day
// strictly exceeds now's, otherwise the same clock time tomorrow. Elapsed
// entries never fire catch-up. The zero time is returned for a malformed entry.
func NextOccurrence(now time.Time, entry string) time.Time {
	if !ValidTime(entry) {
		return time.Time{}
	}
	hour, _ := strconv.Atoi(entry[:2])
	minute, _ := strconv.Atoi(entry[3:])

	day := now
	if hour*60+minute <= now.Hour()*60+now.Minute() {
		day = now.AddDate(0, 0, 1)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location())
}

// NextFromSchedule returns the earliest next occurrence across all entries,
// along with the entry that produced it. ok is false when no entry is valid.
func NextFromSchedule(now time.Time, entries []string) (next time.Time, entry string, ok bool) {
	for _, e := range entries {
		occ := NextOccurrence(now, e)
		if occ.IsZero() {
			continue
		}
		if !ok || occ.Before(next) {
			next, entry, ok = occ, e, true
		}
	}
	return next, entry, ok
}

// OccurrenceKey returns the idempotency token for one occurrence. Whichever
// scheduler claims the key first delivers the notification; everyone else
// stays silent.
func OccurrenceKey(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}
