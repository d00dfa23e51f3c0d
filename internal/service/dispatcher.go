package service

import (
	"context"

	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/notify"
	"github.com/neshyamekala/Medicall/internal/storage"
	"github.com/neshyamekala/Medicall/internal/worker"
)

// Submitter accepts fire-and-forget work without blocking.
type Submitter interface {
	Submit(name string, t worker.Task) bool
}

// Dispatcher sends the text and voice reminder for one due medicine.
type Dispatcher struct {
	patients storage.PatientRepository
	channel  notify.Channel
	pool     Submitter
	logger   internal.Logger
}

func NewDispatcher(patients storage.PatientRepository, channel notify.Channel, pool Submitter, logger internal.Logger) *Dispatcher {
	return &Dispatcher{patients: patients, channel: channel, pool: pool, logger: logger}
}

// Dispatch marks the patient pending and queues the SMS and the voice call
// as separate tasks. It returns once both are queued; delivery outcomes are
// only logged by the tasks themselves.
func (d *Dispatcher) Dispatch(ctx context.Context, p internal.Patient, m internal.Medicine) {
	message := RenderReminder(p.Language, m)
	d.logger.Infof("dispatch: %s for %s (%s): %q", m.Name, p.Name, p.ID, message)

	// The reminder still goes out if the reset fails; the patient just
	// won't be escalated for this dose.
	if err := d.patients.ResetResponseStatus(ctx, p.ID); err != nil {
		d.logger.Errorf("dispatch: failed to mark %s pending: %v", p.ID, err)
	}

	recipient, language := p.ID, p.Language
	d.pool.Submit("sms:"+recipient, func(ctx context.Context) error {
		return d.channel.SendText(ctx, recipient, message)
	})
	d.pool.Submit("voice:"+recipient, func(ctx context.Context) error {
		return d.channel.PlaceVoiceCall(ctx, recipient, message, language)
	})
}
