package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"fieldhealth.io/vhwt/internal/model"
)

// workerOverview is one worker's block in the doctor's review screen.
type workerOverview struct {
	WorkerID        string          `json:"workerId"`
	WorkerName      string          `json:"workerName"`
	AssignedVillage string          `json:"assignedVillage"`
	TotalPatients   int             `json:"totalPatients"`
	Patients        []model.Patient `json:"patients"`
}

// WorkersOverviewHandler handles GET /api/doctor/workers (Doctor only).
// Doctors review across all workers, so no ownership filter applies.
func (s *Server) WorkersOverviewHandler(w http.ResponseWriter, r *http.Request) {
	workers, err := s.users.ListWorkers(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list workers")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	overview := []workerOverview{}
	for _, worker := range workers {
		patients, err := s.patients.ListByWorker(r.Context(), worker.ID)
		if err != nil {
			log.Error().
				Err(err).
				Str("worker_id", worker.ID).
				Msg("Failed to list patients for worker")
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}
		if patients == nil {
			patients = []model.Patient{}
		}

		overview = append(overview, workerOverview{
			WorkerID:        worker.ID,
			WorkerName:      worker.Name,
			AssignedVillage: worker.AssignedVillage,
			TotalPatients:   len(patients),
			Patients:        patients,
		})
	}

	writeJSON(w, http.StatusOK, overview)
}

// doctorNoteRequest is the payload for annotating a patient record.
type doctorNoteRequest struct {
	Note string `json:"note"`
}

// DoctorNoteHandler handles PUT /api/doctor/note/{id} (Doctor only).
// The note is the one patient field mutable by the doctor role.
func (s *Server) DoctorNoteHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req doctorNoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	patient, err := s.patients.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Patient not found")
		return
	}

	patient.DoctorNote = req.Note
	if err := s.patients.Save(r.Context(), patient); err != nil {
		log.Error().Err(err).Str("patient_id", id).Msg("Failed to update doctor note")
		writeError(w, http.StatusInternalServerError, "Update error")
		return
	}

	log.Info().
		Str("patient_id", id).
		Msg("Doctor note updated")
	writeJSON(w, http.StatusOK, map[string]interface{}{"msg": "Note updated", "patient": patient})
}
