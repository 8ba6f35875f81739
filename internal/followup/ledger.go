package followup

import (
	"iter"

	"fieldhealth.io/vhwt/internal/model"
)

// AppendVisit adds a visit to the patient's history. Stored order is
// chronological (oldest first) and is the durable audit invariant; this
// is the only way history ever grows.
func AppendVisit(p *model.Patient, log model.VisitLog) {
	p.HealthLogs = append(p.HealthLogs, log)
}

// HistoryNewestFirst iterates the patient's visit history in reverse
// chronological order without touching the stored sequence. Display and
// export read through this view; storage stays oldest-first.
func HistoryNewestFirst(p *model.Patient) iter.Seq[model.VisitLog] {
	return func(yield func(model.VisitLog) bool) {
		for i := len(p.HealthLogs) - 1; i >= 0; i-- {
			if !yield(p.HealthLogs[i]) {
				return
			}
		}
	}
}
