package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"fieldhealth.io/vhwt/internal/followup"
	"fieldhealth.io/vhwt/internal/model"
	"fieldhealth.io/vhwt/internal/visits"
)

// HealthHandler reports liveness
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createPatientRequest is the payload for registering a patient.
type createPatientRequest struct {
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Village  string `json:"village"`
	Category string `json:"category"`
}

// CreatePatientHandler handles POST /api/patients (Worker only)
func (s *Server) CreatePatientHandler(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrInvalidToken)
		return
	}

	var req createPatientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if !model.ValidCategory(req.Category) {
		log.Warn().
			Str("category", req.Category).
			Msg("Unknown patient category in create request")
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	patient := &model.Patient{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Age:            req.Age,
		Gender:         req.Gender,
		Village:        req.Village,
		Category:       req.Category,
		HealthLogs:     []model.VisitLog{},
		AssignedWorker: callerID,
	}

	if err := s.patients.Save(r.Context(), patient); err != nil {
		log.Error().Err(err).Msg("Failed to save new patient")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	log.Info().
		Str("patient_id", patient.ID).
		Str("worker_id", callerID).
		Str("category", patient.Category).
		Msg("Patient added")

	writeJSON(w, http.StatusCreated, map[string]string{"msg": "Patient added", "id": patient.ID})
}

// MyPatientsHandler handles GET /api/patients/my (Worker only)
func (s *Server) MyPatientsHandler(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrInvalidToken)
		return
	}

	patients, err := s.patients.ListByWorker(r.Context(), callerID)
	if err != nil {
		log.Error().Err(err).Str("worker_id", callerID).Msg("Failed to list patients")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if patients == nil {
		patients = []model.Patient{}
	}

	writeJSON(w, http.StatusOK, patients)
}

// patientView is the single-patient read shape. History is presented
// newest-first through the ledger view; the stored record stays
// oldest-first.
type patientView struct {
	model.Patient
	HealthLogs []model.VisitLog `json:"healthLogs"`
}

// GetPatientHandler handles GET /api/patients/{id} (Doctor or owning Worker)
func (s *Server) GetPatientHandler(w http.ResponseWriter, r *http.Request) {
	callerID, role, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrInvalidToken)
		return
	}

	id := mux.Vars(r)["id"]
	patient, err := s.patients.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Patient not found")
		return
	}

	if role == model.RoleWorker && patient.AssignedWorker != callerID {
		writeError(w, http.StatusForbidden, "Not authorized")
		return
	}

	view := patientView{Patient: *patient, HealthLogs: []model.VisitLog{}}
	for visit := range followup.HistoryNewestFirst(patient) {
		view.HealthLogs = append(view.HealthLogs, visit)
	}

	writeJSON(w, http.StatusOK, view)
}

// updatePatientRequest carries the editable demographic fields. Pointers
// distinguish "not sent" from a zero value; visit history and follow-up
// state are never editable here.
type updatePatientRequest struct {
	Name     *string `json:"name"`
	Age      *int    `json:"age"`
	Village  *string `json:"village"`
	Category *string `json:"category"`
}

// UpdatePatientHandler handles PUT /api/patients/{id} (owning Worker)
func (s *Server) UpdatePatientHandler(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrInvalidToken)
		return
	}

	id := mux.Vars(r)["id"]
	patient, err := s.patients.GetByID(r.Context(), id)
	if err != nil || patient.AssignedWorker != callerID {
		writeError(w, http.StatusForbidden, "Not authorized")
		return
	}

	var req updatePatientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if req.Category != nil && !model.ValidCategory(*req.Category) {
		writeError(w, http.StatusBadRequest, "invalid category")
		return
	}

	if req.Name != nil {
		patient.Name = *req.Name
	}
	if req.Age != nil {
		patient.Age = *req.Age
	}
	if req.Village != nil {
		patient.Village = *req.Village
	}
	if req.Category != nil {
		patient.Category = *req.Category
	}

	if err := s.patients.Save(r.Context(), patient); err != nil {
		log.Error().Err(err).Str("patient_id", id).Msg("Failed to update patient")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"msg": "Patient updated", "patient": patient})
}

// DeletePatientHandler handles DELETE /api/patients/{id} (owning Worker).
// Removing the record takes the whole visit history with it; this is the
// only way individual logs ever disappear.
func (s *Server) DeletePatientHandler(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrInvalidToken)
		return
	}

	id := mux.Vars(r)["id"]
	patient, err := s.patients.GetByID(r.Context(), id)
	if err != nil || patient.AssignedWorker != callerID {
		writeError(w, http.StatusForbidden, "Not authorized")
		return
	}

	if err := s.patients.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("patient_id", id).Msg("Failed to delete patient")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	log.Info().
		Str("patient_id", id).
		Str("worker_id", callerID).
		Msg("Patient deleted")
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Patient deleted"})
}

// LogVisitHandler handles POST /api/patients/{id}/log (owning Worker)
func (s *Server) LogVisitHandler(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrInvalidToken)
		return
	}

	id := mux.Vars(r)["id"]

	var req visits.VisitRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	visit, err := s.visits.RecordVisit(r.Context(), callerID, id, req)
	if err != nil {
		switch {
		case errors.Is(err, visits.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, visits.ErrNotFound):
			writeError(w, http.StatusNotFound, "Patient not found")
		case errors.Is(err, visits.ErrForbidden):
			writeError(w, http.StatusForbidden, "Not authorized")
		default:
			log.Error().Err(err).Str("patient_id", id).Msg("Failed to record visit")
			writeError(w, http.StatusInternalServerError, "Server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"msg":   "Visit logged",
		"place": visit.Geolocation.Place,
	})
}

// DashboardStatsHandler handles GET /api/patients/dashboard/stats (Worker only)
func (s *Server) DashboardStatsHandler(w http.ResponseWriter, r *http.Request) {
	callerID, _, err := CallerFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, ErrInvalidToken)
		return
	}

	patients, err := s.patients.ListByWorker(r.Context(), callerID)
	if err != nil {
		log.Error().Err(err).Str("worker_id", callerID).Msg("Failed to list patients for dashboard")
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, s.visits.Dashboard(patients))
}

// decodeJSON decodes a request body, rejecting absent bodies.
func decodeJSON(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	return json.NewDecoder(r.Body).Decode(dst)
}
