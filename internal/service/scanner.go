package service

import (
	"context"
	"sync"
	"time"

	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/storage"
)

// ReminderDispatcher is what the scanner hands due medicines to.
type ReminderDispatcher interface {
	Dispatch(ctx context.Context, p internal.Patient, m internal.Medicine)
}

// Scanner finds medicines scheduled for the current minute. A minute the
// scanner never runs in is not caught up later.
type Scanner struct {
	patients   storage.PatientRepository
	medicines  storage.MedicineRepository
	dispatcher ReminderDispatcher
	loc        *time.Location
	now        func() time.Time
	logger     internal.Logger

	mu         sync.Mutex
	lastMinute string
}

func NewScanner(patients storage.PatientRepository, medicines storage.MedicineRepository, dispatcher ReminderDispatcher, loc *time.Location, logger internal.Logger) *Scanner {
	if loc == nil {
		loc = time.Local
	}
	return &Scanner{
		patients:   patients,
		medicines:  medicines,
		dispatcher: dispatcher,
		loc:        loc,
		now:        time.Now,
		logger:     logger,
	}
}

// Scan runs one tick at the current wall-clock time.
func (s *Scanner) Scan(ctx context.Context) int {
	return s.ScanAt(ctx, s.now())
}

// ScanAt dispatches every medicine whose time equals t's minute and returns
// how many were dispatched. A second call within the same minute is a no-op.
func (s *Scanner) ScanAt(ctx context.Context, t time.Time) int {
	t = t.In(s.loc)
	minute := t.Format("2006-01-02 " + internal.ClockLayout)

	s.mu.Lock()
	if minute == s.lastMinute {
		s.mu.Unlock()
		s.logger.Debugf("scanner: minute %s already scanned", minute)
		return 0
	}
	s.lastMinute = minute
	s.mu.Unlock()

	current := t.Format(internal.ClockLayout)
	s.logger.Infof("scanner: checking for medicines due at %s", current)

	patients, err := s.patients.ListPatients(ctx)
	if err != nil {
		s.logger.Errorf("scanner: failed to list patients: %v", err)
		return 0
	}

	dispatched := 0
	for _, p := range patients {
		meds, err := s.medicines.ListMedicines(ctx, p.ID)
		if err != nil {
			s.logger.Errorf("scanner: failed to list medicines for %s: %v", p.ID, err)
			continue
		}
		for _, m := range meds {
			if m.Time != current {
				continue
			}
			s.logger.Infof("scanner: time for %s for %s", m.Name, p.Name)
			s.dispatcher.Dispatch(ctx, p, m)
			dispatched++
		}
	}
	return dispatched
}
