package service

import (
	"context"

	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/notify"
	"github.com/neshyamekala/Medicall/internal/storage"
)

// Escalator alerts caretakers of patients still pending. There is no
// suppression window: a patient who stays pending is reported every sweep.
type Escalator struct {
	patients storage.PatientRepository
	channel  notify.Channel
	pool     Submitter
	logger   internal.Logger
}

func NewEscalator(patients storage.PatientRepository, channel notify.Channel, pool Submitter, logger internal.Logger) *Escalator {
	return &Escalator{patients: patients, channel: channel, pool: pool, logger: logger}
}

// Sweep returns the number of caretaker alerts queued.
func (e *Escalator) Sweep(ctx context.Context) int {
	e.logger.Info("escalator: checking for missed medicine responses")

	patients, err := e.patients.ListPatients(ctx)
	if err != nil {
		e.logger.Errorf("escalator: failed to list patients: %v", err)
		return 0
	}

	alerts := 0
	for _, p := range patients {
		if p.ResponseStatus != internal.StatusPending || !p.HasCaretaker() {
			continue
		}
		caretaker, message := p.CaretakerID, CaretakerAlert(p.Name)
		e.pool.Submit("alert:"+caretaker, func(ctx context.Context) error {
			return e.channel.SendText(ctx, caretaker, message)
		})
		e.logger.Infof("escalator: alert queued for caretaker %s of %s", caretaker, p.ID)
		alerts++
	}
	return alerts
}
