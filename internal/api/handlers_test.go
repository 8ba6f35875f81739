package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fieldhealth.io/vhwt/internal/model"
	"fieldhealth.io/vhwt/internal/visits"
)

var (
	_ PatientStore = (*memPatientStore)(nil)
	_ UserStore    = (*memUserStore)(nil)
)

// memPatientStore is an in-memory PatientStore for handler tests.
type memPatientStore struct {
	patients map[string]*model.Patient
	saveErr  error
}

func newMemPatientStore(patients ...*model.Patient) *memPatientStore {
	s := &memPatientStore{patients: map[string]*model.Patient{}}
	for _, p := range patients {
		s.patients[p.ID] = p
	}
	return s
}

func (s *memPatientStore) GetByID(ctx context.Context, id string) (*model.Patient, error) {
	p, ok := s.patients[id]
	if !ok {
		return nil, errors.New("patient not found")
	}
	copied := *p
	return &copied, nil
}

func (s *memPatientStore) Save(ctx context.Context, patient *model.Patient) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	copied := *patient
	s.patients[patient.ID] = &copied
	return nil
}

func (s *memPatientStore) Delete(ctx context.Context, id string) error {
	if _, ok := s.patients[id]; !ok {
		return errors.New("patient not found")
	}
	delete(s.patients, id)
	return nil
}

func (s *memPatientStore) ListByWorker(ctx context.Context, workerID string) ([]model.Patient, error) {
	var out []model.Patient
	for _, p := range s.patients {
		if p.AssignedWorker == workerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

// memUserStore is an in-memory UserStore.
type memUserStore struct {
	workers []model.User
}

func (s *memUserStore) ListWorkers(ctx context.Context) ([]model.User, error) {
	return s.workers, nil
}

type staticGeocoder struct {
	place string
	err   error
}

func (g *staticGeocoder) ReverseGeocode(ctx context.Context, lat, long float64) (string, error) {
	return g.place, g.err
}

func testRouter(t *testing.T, store *memPatientStore, users *memUserStore, geocoder visits.Geocoder) http.Handler {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)

	clock := func() time.Time { return time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC) }
	svc := visits.NewService(store, geocoder, clock)
	return SetupRoutes(NewServer(store, users, svc))
}

func doRequest(router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func visitBody(visitType string) map[string]interface{} {
	return map[string]interface{}{
		"visitType": visitType,
		"details":   "home visit",
		"geolocation": map[string]float64{
			"lat":  23.25,
			"long": 77.41,
		},
	}
}

func TestLogVisitHandler(t *testing.T) {
	patient := &model.Patient{ID: "p1", Name: "Asha", AssignedWorker: "w1"}
	store := newMemPatientStore(patient)
	router := testRouter(t, store, &memUserStore{}, &staticGeocoder{place: "Bhopal, India"})

	workerToken := signTokenAs(t, "w1", model.RoleWorker, false)
	rr := doRequest(router, "POST", "/api/patients/p1/log", workerToken, visitBody("ANC"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["place"] != "Bhopal, India" {
		t.Errorf("place = %q, want %q", resp["place"], "Bhopal, India")
	}

	stored := store.patients["p1"]
	if len(stored.HealthLogs) != 1 {
		t.Fatalf("stored history length = %d, want 1", len(stored.HealthLogs))
	}
	if stored.NextFollowUp == nil {
		t.Fatal("NextFollowUp not set after ANC visit")
	}
	want := time.Date(2025, 4, 7, 11, 0, 0, 0, time.UTC) // 28 days after the test clock
	if !stored.NextFollowUp.Equal(want) {
		t.Errorf("NextFollowUp = %v, want %v", stored.NextFollowUp, want)
	}
}

func TestLogVisitHandlerErrors(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		callerSub      string
		callerRole     string
		body           interface{}
		expectedStatus int
	}{
		{
			name:           "non-owning worker is forbidden",
			path:           "/api/patients/p1/log",
			callerSub:      "intruder",
			callerRole:     model.RoleWorker,
			body:           visitBody("ANC"),
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "doctor role cannot log visits",
			path:           "/api/patients/p1/log",
			callerSub:      "d1",
			callerRole:     model.RoleDoctor,
			body:           visitBody("ANC"),
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "unknown patient is not found",
			path:           "/api/patients/nope/log",
			callerSub:      "w1",
			callerRole:     model.RoleWorker,
			body:           visitBody("ANC"),
			expectedStatus: http.StatusNotFound,
		},
		{
			name:       "missing details fails validation",
			path:       "/api/patients/p1/log",
			callerSub:  "w1",
			callerRole: model.RoleWorker,
			body: map[string]interface{}{
				"visitType":   "ANC",
				"geolocation": map[string]float64{"lat": 1, "long": 2},
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:       "missing coordinates fails validation",
			path:       "/api/patients/p1/log",
			callerSub:  "w1",
			callerRole: model.RoleWorker,
			body: map[string]interface{}{
				"visitType": "ANC",
				"details":   "home visit",
			},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patient := &model.Patient{ID: "p1", Name: "Asha", AssignedWorker: "w1"}
			store := newMemPatientStore(patient)
			router := testRouter(t, store, &memUserStore{}, &staticGeocoder{})

			token := signTokenAs(t, tt.callerSub, tt.callerRole, false)
			rr := doRequest(router, "POST", tt.path, token, tt.body)

			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d, body %s", rr.Code, tt.expectedStatus, rr.Body.String())
			}
			// Failed calls must not leave partial state behind.
			if stored, ok := store.patients["p1"]; ok {
				if len(stored.HealthLogs) != 0 {
					t.Errorf("history grew on failed call: %d entries", len(stored.HealthLogs))
				}
				if stored.NextFollowUp != nil {
					t.Error("NextFollowUp set on failed call")
				}
			}
		})
	}
}

func TestLogVisitGeocodeFailureStillSucceeds(t *testing.T) {
	patient := &model.Patient{ID: "p1", AssignedWorker: "w1"}
	store := newMemPatientStore(patient)
	router := testRouter(t, store, &memUserStore{}, &staticGeocoder{err: errors.New("timeout")})

	token := signTokenAs(t, "w1", model.RoleWorker, false)
	rr := doRequest(router, "POST", "/api/patients/p1/log", token, visitBody("Vaccination"))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	json.NewDecoder(rr.Body).Decode(&resp)
	if resp["place"] != "" {
		t.Errorf("place = %q, want empty on geocode failure", resp["place"])
	}
	if len(store.patients["p1"].HealthLogs) != 1 {
		t.Error("visit not recorded despite geocode failure")
	}
}

func TestDashboardStatsHandler(t *testing.T) {
	// Test clock is 2025-03-10 11:00 UTC.
	overdue := time.Date(2025, 3, 8, 9, 0, 0, 0, time.UTC)
	dueTomorrow := time.Date(2025, 3, 11, 23, 0, 0, 0, time.UTC)
	store := newMemPatientStore(
		&model.Patient{ID: "p1", Name: "Asha", AssignedWorker: "w1", NextFollowUp: &overdue},
		&model.Patient{ID: "p2", Name: "Meena", AssignedWorker: "w1", NextFollowUp: &dueTomorrow},
		&model.Patient{ID: "p3", Name: "Ravi", AssignedWorker: "w1"},
		&model.Patient{ID: "p4", Name: "Other", AssignedWorker: "w2", NextFollowUp: &overdue},
	)
	router := testRouter(t, store, &memUserStore{}, &staticGeocoder{})

	token := signTokenAs(t, "w1", model.RoleWorker, false)
	rr := doRequest(router, "GET", "/api/patients/dashboard/stats", token, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		TotalPatients     int `json:"totalPatients"`
		UpcomingFollowUps int `json:"upcomingFollowUps"`
		OverduePatients   []struct {
			ID string `json:"id"`
		} `json:"overduePatients"`
		ReminderPatients []struct {
			ID string `json:"id"`
		} `json:"reminderPatients"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)

	if resp.TotalPatients != 3 {
		t.Errorf("totalPatients = %d, want 3", resp.TotalPatients)
	}
	if resp.UpcomingFollowUps != 1 {
		t.Errorf("upcomingFollowUps = %d, want 1", resp.UpcomingFollowUps)
	}
	if len(resp.OverduePatients) != 1 || resp.OverduePatients[0].ID != "p1" {
		t.Errorf("overduePatients = %+v, want [p1]", resp.OverduePatients)
	}
	if len(resp.ReminderPatients) != 1 || resp.ReminderPatients[0].ID != "p2" {
		t.Errorf("reminderPatients = %+v, want [p2]", resp.ReminderPatients)
	}
}

func TestGetPatientNewestFirstHistory(t *testing.T) {
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	patient := &model.Patient{
		ID:             "p1",
		AssignedWorker: "w1",
		HealthLogs: []model.VisitLog{
			{Details: "first", Date: base},
			{Details: "second", Date: base.AddDate(0, 0, 7)},
		},
	}
	store := newMemPatientStore(patient)
	router := testRouter(t, store, &memUserStore{}, &staticGeocoder{})

	token := signTokenAs(t, "d1", model.RoleDoctor, false)
	rr := doRequest(router, "GET", "/api/patients/p1", token, nil)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp struct {
		HealthLogs []struct {
			Details string `json:"details"`
		} `json:"healthLogs"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)

	if len(resp.HealthLogs) != 2 {
		t.Fatalf("healthLogs length = %d, want 2", len(resp.HealthLogs))
	}
	if resp.HealthLogs[0].Details != "second" || resp.HealthLogs[1].Details != "first" {
		t.Errorf("healthLogs order = [%s %s], want newest first",
			resp.HealthLogs[0].Details, resp.HealthLogs[1].Details)
	}

	// The stored record must stay oldest first.
	stored := store.patients["p1"]
	if stored.HealthLogs[0].Details != "first" {
		t.Error("stored history order was disturbed by the read view")
	}
}

func TestGetPatientOwnership(t *testing.T) {
	patient := &model.Patient{ID: "p1", AssignedWorker: "w1"}
	store := newMemPatientStore(patient)
	router := testRouter(t, store, &memUserStore{}, &staticGeocoder{})

	tests := []struct {
		name           string
		sub            string
		role           string
		expectedStatus int
	}{
		{name: "owning worker can read", sub: "w1", role: model.RoleWorker, expectedStatus: http.StatusOK},
		{name: "other worker cannot read", sub: "w2", role: model.RoleWorker, expectedStatus: http.StatusForbidden},
		{name: "doctor can read any patient", sub: "d1", role: model.RoleDoctor, expectedStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signTokenAs(t, tt.sub, tt.role, false)
			rr := doRequest(router, "GET", "/api/patients/p1", token, nil)
			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}

func TestCreatePatientHandler(t *testing.T) {
	store := newMemPatientStore()
	router := testRouter(t, store, &memUserStore{}, &staticGeocoder{})
	token := signTokenAs(t, "w1", model.RoleWorker, false)

	body := map[string]interface{}{
		"name":     "Asha",
		"age":      26,
		"gender":   "Female",
		"village":  "Amarpur",
		"category": model.CategoryPregnantWoman,
	}
	rr := doRequest(router, "POST", "/api/patients", token, body)

	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rr.Code, rr.Body.String())
	}

	var resp map[string]string
	json.NewDecoder(rr.Body).Decode(&resp)
	created, ok := store.patients[resp["id"]]
	if !ok {
		t.Fatal("created patient not persisted")
	}
	if created.AssignedWorker != "w1" {
		t.Errorf("assignedWorker = %q, want caller w1", created.AssignedWorker)
	}
	if created.NextFollowUp != nil {
		t.Error("new patient must have no pending follow-up")
	}
}

func TestCreatePatientRejectsUnknownCategory(t *testing.T) {
	store := newMemPatientStore()
	router := testRouter(t, store, &memUserStore{}, &staticGeocoder{})
	token := signTokenAs(t, "w1", model.RoleWorker, false)

	body := map[string]interface{}{"name": "Asha", "category": "Elder"}
	rr := doRequest(router, "POST", "/api/patients", token, body)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if len(store.patients) != 0 {
		t.Error("invalid patient was persisted")
	}
}

func TestUpdatePatientAllowedFieldsOnly(t *testing.T) {
	next := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	patient := &model.Patient{
		ID:             "p1",
		Name:           "Asha",
		Village:        "Amarpur",
		AssignedWorker: "w1",
		NextFollowUp:   &next,
		HealthLogs:     []model.VisitLog{{Details: "first"}},
	}
	store := newMemPatientStore(patient)
	router := testRouter(t, store, &memUserStore{}, &staticGeocoder{})
	token := signTokenAs(t, "w1", model.RoleWorker, false)

	rr := doRequest(router, "PUT", "/api/patients/p1", token, map[string]interface{}{
		"village": "Raipur",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}

	updated := store.patients["p1"]
	if updated.Village != "Raipur" {
		t.Errorf("village = %q, want Raipur", updated.Village)
	}
	if updated.Name != "Asha" {
		t.Errorf("name changed unexpectedly: %q", updated.Name)
	}
	if updated.NextFollowUp == nil || !updated.NextFollowUp.Equal(next) {
		t.Error("follow-up state must survive demographic edits")
	}
	if len(updated.HealthLogs) != 1 {
		t.Error("history must survive demographic edits")
	}
}

func TestDeletePatientRemovesHistory(t *testing.T) {
	patient := &model.Patient{ID: "p1", AssignedWorker: "w1",
		HealthLogs: []model.VisitLog{{Details: "first"}}}
	store := newMemPatientStore(patient)
	router := testRouter(t, store, &memUserStore{}, &staticGeocoder{})

	rr := doRequest(router, "DELETE", "/api/patients/p1",
		signTokenAs(t, "w1", model.RoleWorker, false), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if _, ok := store.patients["p1"]; ok {
		t.Error("patient still present after delete")
	}
}

func TestWorkersOverviewHandler(t *testing.T) {
	store := newMemPatientStore(
		&model.Patient{ID: "p1", AssignedWorker: "w1"},
		&model.Patient{ID: "p2", AssignedWorker: "w1"},
	)
	users := &memUserStore{workers: []model.User{
		{ID: "w1", Name: "Sunita", Role: model.RoleWorker, AssignedVillage: "Amarpur"},
		{ID: "w2", Name: "Kiran", Role: model.RoleWorker, AssignedVillage: "Raipur"},
	}}
	router := testRouter(t, store, users, &staticGeocoder{})

	rr := doRequest(router, "GET", "/api/doctor/workers",
		signTokenAs(t, "d1", model.RoleDoctor, false), nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var resp []struct {
		WorkerID      string `json:"workerId"`
		TotalPatients int    `json:"totalPatients"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)

	if len(resp) != 2 {
		t.Fatalf("workers = %d, want 2", len(resp))
	}
	if resp[0].WorkerID != "w1" || resp[0].TotalPatients != 2 {
		t.Errorf("first worker = %+v, want w1 with 2 patients", resp[0])
	}
	if resp[1].TotalPatients != 0 {
		t.Errorf("second worker patients = %d, want 0", resp[1].TotalPatients)
	}
}

func TestDoctorNoteHandler(t *testing.T) {
	patient := &model.Patient{ID: "p1", AssignedWorker: "w1"}
	store := newMemPatientStore(patient)
	router := testRouter(t, store, &memUserStore{}, &staticGeocoder{})

	rr := doRequest(router, "PUT", "/api/doctor/note/p1",
		signTokenAs(t, "d1", model.RoleDoctor, false),
		map[string]string{"note": "review anemia levels"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}

	if store.patients["p1"].DoctorNote != "review anemia levels" {
		t.Errorf("doctorNote = %q", store.patients["p1"].DoctorNote)
	}

	// Workers may not annotate.
	rr = doRequest(router, "PUT", "/api/doctor/note/p1",
		signTokenAs(t, "w1", model.RoleWorker, false),
		map[string]string{"note": "mine now"})
	if rr.Code != http.StatusForbidden {
		t.Errorf("worker annotate status = %d, want 403", rr.Code)
	}
}
