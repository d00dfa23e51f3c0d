package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/storage"
	"github.com/neshyamekala/Medicall/internal/worker"
)

// memStore is an in-memory storage.Store. The Err fields inject failures.
type memStore struct {
	mu        sync.Mutex
	patients  map[string]internal.Patient
	medicines map[string][]internal.Medicine

	ListPatientsErr  error
	ListMedicinesErr map[string]error
	ResetErr         error
	UpdateErr        error

	UpdateCalls int
	ResetCalls  int
}

func newMemStore() *memStore {
	return &memStore{
		patients:         make(map[string]internal.Patient),
		medicines:        make(map[string][]internal.Medicine),
		ListMedicinesErr: make(map[string]error),
	}
}

func (m *memStore) put(p internal.Patient, meds ...internal.Medicine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = p
	for _, med := range meds {
		med.PatientID = p.ID
		m.medicines[p.ID] = append(m.medicines[p.ID], med)
	}
}

func (m *memStore) get(id string) internal.Patient {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.patients[id]
}

func (m *memStore) SavePatient(ctx context.Context, p *internal.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = *p
	return nil
}

func (m *memStore) GetPatient(ctx context.Context, id string) (*internal.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok {
		return nil, storage.ErrPatientNotFound
	}
	return &p, nil
}

func (m *memStore) ListPatients(ctx context.Context) ([]internal.Patient, error) {
	if m.ListPatientsErr != nil {
		return nil, m.ListPatientsErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]internal.Patient, 0, len(m.patients))
	for _, p := range m.patients {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateResponseStatus(ctx context.Context, id string, status internal.ResponseStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	p, ok := m.patients[id]
	if !ok {
		return storage.ErrPatientNotFound
	}
	p.ResponseStatus = status
	p.LastResponseTime = &at
	m.patients[id] = p
	return nil
}

func (m *memStore) ResetResponseStatus(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCalls++
	if m.ResetErr != nil {
		return m.ResetErr
	}
	p, ok := m.patients[id]
	if !ok {
		return storage.ErrPatientNotFound
	}
	p.ResponseStatus = internal.StatusPending
	m.patients[id] = p
	return nil
}

func (m *memStore) AddMedicine(ctx context.Context, med *internal.Medicine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.patients[med.PatientID]; !ok {
		return storage.ErrPatientNotFound
	}
	m.medicines[med.PatientID] = append(m.medicines[med.PatientID], *med)
	return nil
}

func (m *memStore) ListMedicines(ctx context.Context, patientID string) ([]internal.Medicine, error) {
	if err := m.ListMedicinesErr[patientID]; err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]internal.Medicine(nil), m.medicines[patientID]...), nil
}

func (m *memStore) Close() error { return nil }

var _ storage.Store = (*memStore)(nil)

type sentText struct{ To, Message string }

type placedCall struct{ To, Message, Language string }

// recordingChannel captures sends; TextErr/CallErr make a channel fail.
type recordingChannel struct {
	mu      sync.Mutex
	texts   []sentText
	calls   []placedCall
	TextErr error
	CallErr error
}

func (c *recordingChannel) SendText(ctx context.Context, recipient, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.TextErr != nil {
		return c.TextErr
	}
	c.texts = append(c.texts, sentText{recipient, message})
	return nil
}

func (c *recordingChannel) PlaceVoiceCall(ctx context.Context, recipient, spokenMessage, language string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.CallErr != nil {
		return c.CallErr
	}
	c.calls = append(c.calls, placedCall{recipient, spokenMessage, language})
	return nil
}

func (c *recordingChannel) Texts() []sentText {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentText(nil), c.texts...)
}

func (c *recordingChannel) Calls() []placedCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]placedCall(nil), c.calls...)
}

// inlinePool runs each task on submit so tests can assert right away.
type inlinePool struct {
	names  []string
	errors []error
}

func (p *inlinePool) Submit(name string, t worker.Task) bool {
	p.names = append(p.names, name)
	if err := t(context.Background()); err != nil {
		p.errors = append(p.errors, err)
	}
	return true
}

// recordingDispatcher captures what the scanner hands over.
type recordingDispatcher struct {
	got []internal.Medicine
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, p internal.Patient, m internal.Medicine) {
	d.got = append(d.got, m)
}

var errStoreDown = errors.New("store unavailable")
