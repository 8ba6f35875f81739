package followup

import "time"

// Schedule maps a visit type to the number of days until the next
// follow-up is due. Visit types missing from the table do not drive
// scheduling at all. Extending the program to new visit types is a data
// change here, not a code change.
var Schedule = map[string]int{
	"ANC":           28,
	"Vaccination":   14,
	"Child Checkup": 30,
}

// NextVisit returns the follow-up date derived from logging a visit of
// the given type at now. ok is false when the visit type has no defined
// interval, in which case the caller must leave any pending follow-up
// untouched.
func NextVisit(visitType string, now time.Time) (time.Time, bool) {
	days, ok := Schedule[visitType]
	if !ok {
		return time.Time{}, false
	}
	return now.AddDate(0, 0, days), true
}
