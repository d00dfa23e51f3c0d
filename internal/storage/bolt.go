package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/neshyamekala/Medicall/internal"
	"go.etcd.io/bbolt"
)

var (
	patientsBucket  = []byte("patients")
	medicinesBucket = []byte("medicines")
)

// BoltStorage keeps one JSON document per patient and per medicine.
// Medicine keys are "<patientID>/<medicineID>" so a prefix seek lists one
// patient's medicines.
type BoltStorage struct {
	db     *bbolt.DB
	logger internal.Logger
}

func NewBoltStorage(path string, logger internal.Logger) (*BoltStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		logger.Errorf("storage: failed to open bolt db: %v", err)
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(patientsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(medicinesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStorage{db: db, logger: logger}, nil
}

func (b *BoltStorage) Close() error {
	return b.db.Close()
}

func medicineKey(patientID, medicineID string) []byte {
	return []byte(patientID + "/" + medicineID)
}

// --- PatientRepository ---
func (b *BoltStorage) SavePatient(ctx context.Context, p *internal.Patient) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(patientsBucket).Put([]byte(p.ID), data)
	})
}

func (b *BoltStorage) GetPatient(ctx context.Context, id string) (*internal.Patient, error) {
	var p internal.Patient
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(patientsBucket).Get([]byte(id))
		if data == nil {
			return ErrPatientNotFound
		}
		return json.Unmarshal(data, &p)
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (b *BoltStorage) ListPatients(ctx context.Context) ([]internal.Patient, error) {
	out := []internal.Patient{}
	err := b.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(patientsBucket).ForEach(func(k, v []byte) error {
			var p internal.Patient
			if err := json.Unmarshal(v, &p); err != nil {
				// A corrupt document must not hide the rest of the patients.
				b.logger.Errorf("storage: skipping unreadable patient %s: %v", k, err)
				return nil
			}
			out = append(out, p)
			return nil
		})
	})
	return out, err
}

func (b *BoltStorage) updatePatient(id string, mutate func(p *internal.Patient)) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(patientsBucket)
		data := bucket.Get([]byte(id))
		if data == nil {
			return ErrPatientNotFound
		}
		var p internal.Patient
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		mutate(&p)
		updated, err := json.Marshal(&p)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(id), updated)
	})
}

func (b *BoltStorage) UpdateResponseStatus(ctx context.Context, id string, status internal.ResponseStatus, at time.Time) error {
	return b.updatePatient(id, func(p *internal.Patient) {
		p.ResponseStatus = status
		p.LastResponseTime = &at
	})
}

func (b *BoltStorage) ResetResponseStatus(ctx context.Context, id string) error {
	return b.updatePatient(id, func(p *internal.Patient) {
		p.ResponseStatus = internal.StatusPending
	})
}

// --- MedicineRepository ---
func (b *BoltStorage) AddMedicine(ctx context.Context, m *internal.Medicine) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return b.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(patientsBucket).Get([]byte(m.PatientID)) == nil {
			return ErrPatientNotFound
		}
		return tx.Bucket(medicinesBucket).Put(medicineKey(m.PatientID, m.ID), data)
	})
}

func (b *BoltStorage) ListMedicines(ctx context.Context, patientID string) ([]internal.Medicine, error) {
	prefix := []byte(patientID + "/")
	out := []internal.Medicine{}
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(medicinesBucket).Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var m internal.Medicine
			if err := json.Unmarshal(v, &m); err != nil {
				return err
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// --- Compile-time assertions ---
var _ PatientRepository = (*BoltStorage)(nil)
var _ MedicineRepository = (*BoltStorage)(nil)
var _ Store = (*BoltStorage)(nil)
