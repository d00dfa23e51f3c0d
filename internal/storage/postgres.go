package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neshyamekala/Medicall/internal"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS patients (
	id                 TEXT PRIMARY KEY,
	name               TEXT NOT NULL,
	language           TEXT NOT NULL DEFAULT 'en',
	caretaker_id       TEXT NOT NULL DEFAULT '',
	response_status    TEXT NOT NULL DEFAULT 'pending',
	last_response_time TIMESTAMPTZ
);
CREATE TABLE IF NOT EXISTS medicines (
	id         TEXT PRIMARY KEY,
	patient_id TEXT NOT NULL REFERENCES patients(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	dosage     TEXT NOT NULL,
	time       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS medicines_patient_id_idx ON medicines (patient_id);
`

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Errorf("failed to ping postgres: %v", err)
		return nil, err
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		logger.Errorf("failed to apply schema: %v", err)
		return nil, err
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

// --- PatientRepository ---
func (p *PostgresStorage) SavePatient(ctx context.Context, pt *internal.Patient) error {
	_, err := p.pool.Exec(ctx, `
		INSERT INTO patients (id, name, language, caretaker_id, response_status, last_response_time)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
			language = EXCLUDED.language,
			caretaker_id = EXCLUDED.caretaker_id,
			response_status = EXCLUDED.response_status,
			last_response_time = EXCLUDED.last_response_time`,
		pt.ID, pt.Name, pt.Language, pt.CaretakerID, string(pt.ResponseStatus), pt.LastResponseTime)
	if err != nil {
		p.logger.Errorf("failed to upsert patient: %v", err)
		return err
	}
	return nil
}

func scanPatient(row pgx.Row) (*internal.Patient, error) {
	var pt internal.Patient
	var status string
	if err := row.Scan(&pt.ID, &pt.Name, &pt.Language, &pt.CaretakerID, &status, &pt.LastResponseTime); err != nil {
		return nil, err
	}
	pt.ResponseStatus = internal.ResponseStatus(status)
	return &pt, nil
}

func (p *PostgresStorage) GetPatient(ctx context.Context, id string) (*internal.Patient, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, name, language, caretaker_id, response_status, last_response_time FROM patients WHERE id = $1`, id)
	pt, err := scanPatient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPatientNotFound
	}
	if err != nil {
		p.logger.Errorf("failed to load patient: %v", err)
		return nil, err
	}
	return pt, nil
}

func (p *PostgresStorage) ListPatients(ctx context.Context) ([]internal.Patient, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, name, language, caretaker_id, response_status, last_response_time FROM patients ORDER BY id`)
	if err != nil {
		p.logger.Errorf("failed to query patients: %v", err)
		return nil, err
	}
	defer rows.Close()

	patients := []internal.Patient{}
	for rows.Next() {
		pt, err := scanPatient(rows)
		if err != nil {
			p.logger.Errorf("failed to scan patient: %v", err)
			return nil, err
		}
		patients = append(patients, *pt)
	}
	return patients, rows.Err()
}

func (p *PostgresStorage) UpdateResponseStatus(ctx context.Context, id string, status internal.ResponseStatus, at time.Time) error {
	tag, err := p.pool.Exec(ctx, `UPDATE patients SET response_status = $2, last_response_time = $3 WHERE id = $1`, id, string(status), at)
	if err != nil {
		p.logger.Errorf("failed to update response status: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (p *PostgresStorage) ResetResponseStatus(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `UPDATE patients SET response_status = $2 WHERE id = $1`, id, string(internal.StatusPending))
	if err != nil {
		p.logger.Errorf("failed to reset response status: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// --- MedicineRepository ---
func (p *PostgresStorage) AddMedicine(ctx context.Context, m *internal.Medicine) error {
	tag, err := p.pool.Exec(ctx, `
		INSERT INTO medicines (id, patient_id, name, dosage, time)
		SELECT $1::text, $2::text, $3::text, $4::text, $5::text
		WHERE EXISTS (SELECT 1 FROM patients WHERE id = $2::text)`,
		m.ID, m.PatientID, m.Name, m.Dosage, m.Time)
	if err != nil {
		p.logger.Errorf("failed to insert medicine: %v", err)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func (p *PostgresStorage) ListMedicines(ctx context.Context, patientID string) ([]internal.Medicine, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, patient_id, name, dosage, time FROM medicines WHERE patient_id = $1 ORDER BY time`, patientID)
	if err != nil {
		p.logger.Errorf("failed to query medicines: %v", err)
		return nil, err
	}
	defer rows.Close()

	meds := []internal.Medicine{}
	for rows.Next() {
		var m internal.Medicine
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Name, &m.Dosage, &m.Time); err != nil {
			p.logger.Errorf("failed to scan medicine: %v", err)
			return nil, err
		}
		meds = append(meds, m)
	}
	return meds, rows.Err()
}

// --- Compile-time assertions ---
var _ PatientRepository = (*PostgresStorage)(nil)
var _ MedicineRepository = (*PostgresStorage)(nil)
var _ Store = (*PostgresStorage)(nil)
