package dal

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/couchbase/gocb/v2"
	"github.com/rs/zerolog/log"

	"fieldhealth.io/vhwt/internal/model"
)

// PatientModel handles patient document operations. Patient documents
// live in the patients collection under "Patient/<id>".
type PatientModel struct {
	conn *Connection
}

// NewPatientModel creates a new patient model instance
func NewPatientModel(conn *Connection) *PatientModel {
	return &PatientModel{conn: conn}
}

func (pm *PatientModel) collection() *gocb.Collection {
	return pm.conn.GetBucket().Scope("_default").Collection("patients")
}

func patientDocID(id string) string {
	return fmt.Sprintf("Patient/%s", id)
}

// GetByID retrieves a patient by ID
func (pm *PatientModel) GetByID(ctx context.Context, id string) (*model.Patient, error) {
	docID := patientDocID(id)

	start := time.Now()
	result, err := pm.collection().Get(docID, &gocb.GetOptions{Context: ctx})
	duration := time.Since(start)

	if err != nil {
		log.Warn().
			Err(err).
			Str("doc_id", docID).
			Msg("Patient not found")
		return nil, fmt.Errorf("patient not found: %w", err)
	}

	var patient model.Patient
	if err := result.Content(&patient); err != nil {
		log.Error().
			Err(err).
			Str("doc_id", docID).
			Msg("Failed to decode patient document")
		return nil, fmt.Errorf("failed to decode patient: %w", err)
	}

	log.Debug().
		Str("doc_id", docID).
		Dur("duration", duration).
		Msg("Successfully retrieved patient")
	return &patient, nil
}

// Save upserts the patient document
func (pm *PatientModel) Save(ctx context.Context, patient *model.Patient) error {
	docID := patientDocID(patient.ID)

	start := time.Now()
	_, err := pm.collection().Upsert(docID, patient, &gocb.UpsertOptions{Context: ctx})
	duration := time.Since(start)

	if err != nil {
		log.Error().
			Err(err).
			Str("doc_id", docID).
			Msg("Failed to upsert patient")
		return fmt.Errorf("failed to upsert patient %s: %w", docID, err)
	}

	log.Debug().
		Str("doc_id", docID).
		Dur("duration", duration).
		Msg("Successfully upserted patient")
	return nil
}

// Delete removes the patient document and with it the whole visit history
func (pm *PatientModel) Delete(ctx context.Context, id string) error {
	docID := patientDocID(id)

	_, err := pm.collection().Remove(docID, &gocb.RemoveOptions{Context: ctx})
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return fmt.Errorf("patient not found: %w", err)
		}
		log.Error().
			Err(err).
			Str("doc_id", docID).
			Msg("Failed to remove patient")
		return fmt.Errorf("failed to remove patient %s: %w", docID, err)
	}

	log.Info().
		Str("doc_id", docID).
		Msg("Patient removed")
	return nil
}

// ListByWorker retrieves every patient assigned to the given worker.
// Order is the stable document-key order the worker created them in.
func (pm *PatientModel) ListByWorker(ctx context.Context, workerID string) ([]model.Patient, error) {
	query := fmt.Sprintf(
		"SELECT d.* FROM `%s`.`_default`.`patients` AS d WHERE d.assignedWorker = $worker ORDER BY META(d).id",
		pm.conn.GetBucketName())

	rows, err := pm.conn.GetCluster().Query(query, &gocb.QueryOptions{
		Context:         ctx,
		NamedParameters: map[string]interface{}{"worker": workerID},
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("worker_id", workerID).
			Msg("Patient query failed")
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	var patients []model.Patient
	for rows.Next() {
		var p model.Patient
		if err := rows.Row(&p); err != nil {
			log.Warn().
				Err(err).
				Msg("Failed to decode patient row")
			continue
		}
		patients = append(patients, p)
	}

	log.Debug().
		Str("worker_id", workerID).
		Int("count", len(patients)).
		Msg("Patients listed for worker")
	return patients, nil
}
