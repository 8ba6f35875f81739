package model

import "time"

// Patient categories tracked by the program. The set is closed; anything
// else is rejected at the API boundary.
const (
	CategoryPregnantWoman  = "Pregnant Woman"
	CategoryChild          = "Child"
	CategoryChronicPatient = "Chronic Patient"
)

// ValidCategory reports whether c is one of the tracked patient categories.
func ValidCategory(c string) bool {
	switch c {
	case CategoryPregnantWoman, CategoryChild, CategoryChronicPatient:
		return true
	}
	return false
}

// Geolocation is the coordinates captured on a field visit. Place is the
// human-readable name resolved by reverse geocoding, empty when the lookup
// failed or has not run.
type Geolocation struct {
	Lat   float64 `json:"lat"`
	Long  float64 `json:"long"`
	Place string  `json:"place,omitempty"`
}

// VisitLog is one field visit. Logs are never edited or deleted
// individually; they only disappear when the whole patient record does.
type VisitLog struct {
	VisitType   string      `json:"visitType"`
	Details     string      `json:"details"`
	Geolocation Geolocation `json:"geolocation"`
	Date        time.Time   `json:"date"`
}

// Patient is the aggregate document stored in Couchbase under
// "Patient/<id>". HealthLogs holds the visit history in chronological
// order, oldest first; appends only.
type Patient struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Age            int        `json:"age"`
	Gender         string     `json:"gender"`
	Village        string     `json:"village"`
	Category       string     `json:"category"`
	HealthLogs     []VisitLog `json:"healthLogs"`
	NextFollowUp   *time.Time `json:"nextFollowUp,omitempty"`
	MissedFollowUp bool       `json:"missedFollowUp"`
	AssignedWorker string     `json:"assignedWorker"`
	DoctorNote     string     `json:"doctorNote,omitempty"`
}
