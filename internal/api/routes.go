package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fieldhealth.io/vhwt/internal/metrics"
	"fieldhealth.io/vhwt/internal/model"
)

// SetupRoutes configures and returns the HTTP router
func SetupRoutes(s *Server) *mux.Router {
	r := mux.NewRouter()

	// Add middleware to all routes
	r.Use(metrics.MetricsMiddleware)
	r.Use(AuthMiddleware)

	// Routes
	r.HandleFunc(HealthPath, HealthHandler).Methods("GET")

	// Worker patient endpoints. The dashboard route must be registered
	// before the {id} route or mux matches "dashboard" as a patient ID.
	r.HandleFunc("/api/patients/dashboard/stats",
		RequireRoles(s.DashboardStatsHandler, model.RoleWorker)).Methods("GET")
	r.HandleFunc("/api/patients/my",
		RequireRoles(s.MyPatientsHandler, model.RoleWorker)).Methods("GET")
	r.HandleFunc("/api/patients",
		RequireRoles(s.CreatePatientHandler, model.RoleWorker)).Methods("POST")
	r.HandleFunc("/api/patients/{id}",
		RequireRoles(s.GetPatientHandler, model.RoleWorker, model.RoleDoctor)).Methods("GET")
	r.HandleFunc("/api/patients/{id}",
		RequireRoles(s.UpdatePatientHandler, model.RoleWorker)).Methods("PUT")
	r.HandleFunc("/api/patients/{id}",
		RequireRoles(s.DeletePatientHandler, model.RoleWorker)).Methods("DELETE")
	r.HandleFunc("/api/patients/{id}/log",
		RequireRoles(s.LogVisitHandler, model.RoleWorker)).Methods("POST")

	// Doctor review endpoints
	r.HandleFunc("/api/doctor/workers",
		RequireRoles(s.WorkersOverviewHandler, model.RoleDoctor)).Methods("GET")
	r.HandleFunc("/api/doctor/note/{id}",
		RequireRoles(s.DoctorNoteHandler, model.RoleDoctor)).Methods("PUT")

	// Prometheus metrics endpoint
	r.Handle(MetricsPath, promhttp.Handler()).Methods("GET")

	return r
}
