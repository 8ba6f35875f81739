package visits

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"fieldhealth.io/vhwt/internal/followup"
	"fieldhealth.io/vhwt/internal/metrics"
	"fieldhealth.io/vhwt/internal/model"
)

// PatientStore is the persistence surface the service needs. The dal
// package provides the Couchbase implementation; tests provide mocks.
type PatientStore interface {
	GetByID(ctx context.Context, id string) (*model.Patient, error)
	Save(ctx context.Context, patient *model.Patient) error
}

// Geocoder resolves coordinates to a place name, best-effort.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, long float64) (string, error)
}

// VisitRequest is the semantic payload of a log-visit call.
type VisitRequest struct {
	VisitType   string    `json:"visitType"`
	Details     string    `json:"details"`
	Geolocation *GeoPoint `json:"geolocation"`
}

// GeoPoint carries the raw coordinates off the wire. Pointers distinguish
// absent fields from a legitimate zero coordinate.
type GeoPoint struct {
	Lat  *float64 `json:"lat"`
	Long *float64 `json:"long"`
}

// Service implements the visit-logging workflow: validate, geocode
// best-effort, append to the ledger, derive the next follow-up, persist.
type Service struct {
	store    PatientStore
	geocoder Geocoder
	now      func() time.Time
}

// NewService creates a visit service. now defaults to time.Now when nil;
// tests inject a fixed clock.
func NewService(store PatientStore, geocoder Geocoder, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, geocoder: geocoder, now: now}
}

// validate rejects the request before anything is loaded or mutated.
func validate(req VisitRequest) error {
	if req.VisitType == "" {
		return fmt.Errorf("%w: visitType is required", ErrValidation)
	}
	if req.Details == "" {
		return fmt.Errorf("%w: details is required", ErrValidation)
	}
	if req.Geolocation == nil || req.Geolocation.Lat == nil || req.Geolocation.Long == nil {
		return fmt.Errorf("%w: geolocation lat/long are required", ErrValidation)
	}
	return nil
}

// RecordVisit appends a visit to the patient's history and recomputes the
// next follow-up when the visit type has a defined interval. The caller
// must be the assigned worker; authorization and validation failures
// return before any state changes. A geocoding failure degrades to an
// empty place name and never fails the call.
func (s *Service) RecordVisit(ctx context.Context, callerID, patientID string, req VisitRequest) (*model.VisitLog, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	patient, err := s.store.GetByID(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, patientID)
	}
	if patient.AssignedWorker != callerID {
		return nil, ErrForbidden
	}

	lat, long := *req.Geolocation.Lat, *req.Geolocation.Long

	place := ""
	if s.geocoder != nil {
		place, err = s.geocoder.ReverseGeocode(ctx, lat, long)
		if err != nil {
			log.Warn().
				Err(err).
				Str("patient_id", patientID).
				Float64("lat", lat).
				Float64("long", long).
				Msg("Reverse geocoding failed, recording visit without place")
			place = ""
		}
	}

	now := s.now()
	visit := model.VisitLog{
		VisitType: req.VisitType,
		Details:   req.Details,
		Geolocation: model.Geolocation{
			Lat:   lat,
			Long:  long,
			Place: place,
		},
		Date: now,
	}
	followup.AppendVisit(patient, visit)

	next, scheduled := followup.NextVisit(req.VisitType, now)
	if scheduled {
		// A new qualifying visit always replaces the pending follow-up.
		patient.NextFollowUp = &next
	}

	if err := s.store.Save(ctx, patient); err != nil {
		return nil, fmt.Errorf("failed to save patient %s: %w", patientID, err)
	}

	metrics.RecordVisitLogged(req.VisitType, scheduled)

	log.Info().
		Str("patient_id", patientID).
		Str("visit_type", req.VisitType).
		Bool("scheduled", scheduled).
		Str("place", place).
		Msg("Visit logged")

	return &visit, nil
}

// Dashboard classifies the worker's patients into overdue and
// due-tomorrow buckets relative to the service clock.
func (s *Service) Dashboard(patients []model.Patient) followup.Summary {
	metrics.RecordDashboardQuery()
	return followup.Classify(patients, s.now())
}
