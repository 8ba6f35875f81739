package api

import (
	"context"
	"encoding/json"
	"net/http"

	"fieldhealth.io/vhwt/internal/model"
	"fieldhealth.io/vhwt/internal/visits"
)

// PatientStore is the persistence surface the handlers need.
type PatientStore interface {
	GetByID(ctx context.Context, id string) (*model.Patient, error)
	Save(ctx context.Context, patient *model.Patient) error
	Delete(ctx context.Context, id string) error
	ListByWorker(ctx context.Context, workerID string) ([]model.Patient, error)
}

// UserStore resolves worker accounts for the doctor overview.
type UserStore interface {
	ListWorkers(ctx context.Context) ([]model.User, error)
}

// Server wires the stores and the visit service into HTTP handlers.
type Server struct {
	patients PatientStore
	users    UserStore
	visits   *visits.Service
}

// NewServer creates the API server.
func NewServer(patients PatientStore, users UserStore, visitService *visits.Service) *Server {
	return &Server{
		patients: patients,
		users:    users,
		visits:   visitService,
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError writes a JSON error body in the shape the client expects.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"msg": msg})
}
