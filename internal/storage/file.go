package storage

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/neshyamekala/Medicall/internal"
)

type FileStorage struct {
	patients          map[string]*internal.Patient    // id -> Patient
	medicines         map[string][]*internal.Medicine // patientID -> medicines
	mu                sync.RWMutex
	patientsFile      string
	medicinesFile     string
	savePatientsChan  chan struct{}
	saveMedicinesChan chan struct{}
	shutdownChan      chan struct{}
	saveDelay         time.Duration
	logger            internal.Logger
	closeOnce         sync.Once
}

func NewFileStorage(patientsFile, medicinesFile string, logger internal.Logger) (*FileStorage, error) {
	s := &FileStorage{
		patients:          make(map[string]*internal.Patient),
		medicines:         make(map[string][]*internal.Medicine),
		patientsFile:      patientsFile,
		medicinesFile:     medicinesFile,
		savePatientsChan:  make(chan struct{}, 1),
		saveMedicinesChan: make(chan struct{}, 1),
		shutdownChan:      make(chan struct{}),
		saveDelay:         500 * time.Millisecond,
		logger:            logger,
	}

	for _, f := range []string{patientsFile, medicinesFile} {
		if dir := filepath.Dir(f); dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, err
			}
		}
	}

	if err := s.loadPatients(); err != nil {
		logger.Errorf("storage: failed to load patients: %v", err)
		return nil, err
	}
	if err := s.loadMedicines(); err != nil {
		logger.Errorf("storage: failed to load medicines: %v", err)
		return nil, err
	}

	go s.saveWorker(s.savePatientsChan, s.savePatients, "patients")
	go s.saveWorker(s.saveMedicinesChan, s.saveMedicines, "medicines")

	return s, nil
}

func readJSONList(path string, into interface{}) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(into); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	return nil
}

func (s *FileStorage) loadPatients() error {
	var patients []*internal.Patient
	if err := readJSONList(s.patientsFile, &patients); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range patients {
		s.patients[p.ID] = p
	}
	return nil
}

func (s *FileStorage) loadMedicines() error {
	var meds []*internal.Medicine
	if err := readJSONList(s.medicinesFile, &meds); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range meds {
		s.medicines[m.PatientID] = append(s.medicines[m.PatientID], m)
	}
	return nil
}

func atomicWriteFileJSON(filePath string, data interface{}) error {
	tempFile := filePath + ".tmp"
	f, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tempFile)
		return err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, filePath)
}

func (s *FileStorage) savePatients() error {
	s.mu.RLock()
	patients := make([]internal.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		patients = append(patients, *p)
	}
	s.mu.RUnlock()

	sort.Slice(patients, func(i, j int) bool { return patients[i].ID < patients[j].ID })
	return atomicWriteFileJSON(s.patientsFile, patients)
}

func (s *FileStorage) saveMedicines() error {
	s.mu.RLock()
	meds := make([]internal.Medicine, 0)
	for _, list := range s.medicines {
		for _, m := range list {
			meds = append(meds, *m)
		}
	}
	s.mu.RUnlock()

	sort.Slice(meds, func(i, j int) bool {
		if meds[i].PatientID != meds[j].PatientID {
			return meds[i].PatientID < meds[j].PatientID
		}
		return meds[i].Time < meds[j].Time
	})
	return atomicWriteFileJSON(s.medicinesFile, meds)
}

// saveWorker batches saves so a burst of updates costs one disk write.
func (s *FileStorage) saveWorker(signal <-chan struct{}, save func() error, what string) {
	timer := time.NewTimer(s.saveDelay)
	defer timer.Stop()

	for {
		select {
		case <-signal:
			timer.Reset(s.saveDelay)
		case <-timer.C:
			if err := save(); err != nil {
				s.logger.Errorf("storage: error saving %s: %v", what, err)
			}
		case <-s.shutdownChan:
			return
		}
	}
}

func notify(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *FileStorage) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.shutdownChan)

		// Save pending data synchronously on shutdown
		if err = s.savePatients(); err != nil {
			return
		}
		err = s.saveMedicines()
	})
	return err
}

// --- PatientRepository ---
func (s *FileStorage) SavePatient(ctx context.Context, p *internal.Patient) error {
	cp := *p
	s.mu.Lock()
	s.patients[p.ID] = &cp
	s.mu.Unlock()
	notify(s.savePatientsChan)
	return nil
}

func (s *FileStorage) GetPatient(ctx context.Context, id string) (*internal.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.patients[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *FileStorage) ListPatients(ctx context.Context) ([]internal.Patient, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]internal.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *FileStorage) UpdateResponseStatus(ctx context.Context, id string, status internal.ResponseStatus, at time.Time) error {
	s.mu.Lock()
	p, ok := s.patients[id]
	if !ok {
		s.mu.Unlock()
		return ErrPatientNotFound
	}
	p.ResponseStatus = status
	p.LastResponseTime = &at
	s.mu.Unlock()
	notify(s.savePatientsChan)
	return nil
}

func (s *FileStorage) ResetResponseStatus(ctx context.Context, id string) error {
	s.mu.Lock()
	p, ok := s.patients[id]
	if !ok {
		s.mu.Unlock()
		return ErrPatientNotFound
	}
	p.ResponseStatus = internal.StatusPending
	s.mu.Unlock()
	notify(s.savePatientsChan)
	return nil
}

// --- MedicineRepository ---
func (s *FileStorage) AddMedicine(ctx context.Context, m *internal.Medicine) error {
	s.mu.Lock()
	if _, ok := s.patients[m.PatientID]; !ok {
		s.mu.Unlock()
		return ErrPatientNotFound
	}
	cp := *m
	s.medicines[m.PatientID] = append(s.medicines[m.PatientID], &cp)
	s.mu.Unlock()
	notify(s.saveMedicinesChan)
	return nil
}

func (s *FileStorage) ListMedicines(ctx context.Context, patientID string) ([]internal.Medicine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := s.medicines[patientID]
	out := make([]internal.Medicine, len(list))
	for i, m := range list {
		out[i] = *m
	}
	return out, nil
}

// --- Compile-time assertions ---
var _ PatientRepository = (*FileStorage)(nil)
var _ MedicineRepository = (*FileStorage)(nil)
var _ Store = (*FileStorage)(nil)
