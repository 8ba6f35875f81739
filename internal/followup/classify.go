package followup

import (
	"time"

	"fieldhealth.io/vhwt/internal/model"
)

// PatientDue is the minimal patient summary returned in dashboard buckets.
type PatientDue struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	NextFollowUp time.Time `json:"nextFollowUp"`
}

// Summary partitions a worker's patients by follow-up status.
// OverduePatients have a follow-up day strictly before today;
// ReminderPatients are due exactly tomorrow. Patients due today, due
// later, or with no pending follow-up appear in neither bucket.
type Summary struct {
	TotalPatients     int          `json:"totalPatients"`
	UpcomingFollowUps int          `json:"upcomingFollowUps"`
	OverduePatients   []PatientDue `json:"overduePatients"`
	ReminderPatients  []PatientDue `json:"reminderPatients"`
}

// startOfDay truncates t to midnight in its own location. Comparing raw
// timestamps instead would misclassify patients whose follow-up
// time-of-day differs from the check time-of-day.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Classify buckets patients by follow-up status relative to asOf. It is
// pure: same inputs, same buckets, input order preserved. Buckets are
// never nil so they encode as empty JSON arrays.
func Classify(patients []model.Patient, asOf time.Time) Summary {
	today := startOfDay(asOf)
	tomorrow := today.AddDate(0, 0, 1)

	summary := Summary{
		TotalPatients:    len(patients),
		OverduePatients:  []PatientDue{},
		ReminderPatients: []PatientDue{},
	}

	for _, p := range patients {
		if p.NextFollowUp == nil {
			continue
		}
		due := PatientDue{ID: p.ID, Name: p.Name, NextFollowUp: *p.NextFollowUp}
		followUpDay := startOfDay(*p.NextFollowUp)

		switch {
		case followUpDay.Before(today):
			summary.OverduePatients = append(summary.OverduePatients, due)
		case followUpDay.Equal(tomorrow):
			summary.ReminderPatients = append(summary.ReminderPatients, due)
		}
	}

	summary.UpcomingFollowUps = len(summary.ReminderPatients)
	return summary
}
