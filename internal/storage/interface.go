package storage

import (
	"context"
	"errors"
	"time"

	"github.com/neshyamekala/Medicall/internal"
)

var ErrPatientNotFound = errors.New("storage: patient not found")

type PatientRepository interface {
	SavePatient(ctx context.Context, p *internal.Patient) error
	GetPatient(ctx context.Context, id string) (*internal.Patient, error)
	ListPatients(ctx context.Context) ([]internal.Patient, error)
	// UpdateResponseStatus records a reply and the time it arrived.
	UpdateResponseStatus(ctx context.Context, id string, status internal.ResponseStatus, at time.Time) error
	// ResetResponseStatus puts the patient back to pending without touching
	// the last response time.
	ResetResponseStatus(ctx context.Context, id string) error
}

type MedicineRepository interface {
	AddMedicine(ctx context.Context, m *internal.Medicine) error
	ListMedicines(ctx context.Context, patientID string) ([]internal.Medicine, error)
}

// Store is what every backend provides.
type Store interface {
	PatientRepository
	MedicineRepository
	Close() error
}
