package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/storage"
)

// TextReply is an inbound SMS.
type TextReply struct {
	SenderID string
	Body     string
}

// Keypress is a DTMF digit collected at the end of a reminder call.
type Keypress struct {
	Digit    string
	CallerID string
}

type RecordResult struct {
	Matched   bool                    `json:"matched"`
	PatientID string                  `json:"patient_id,omitempty"`
	Status    internal.ResponseStatus `json:"status,omitempty"`
}

// ParseTextReply maps a reply body onto a response status. Anything other
// than TAKEN or SKIPPED is an invalid response.
func ParseTextReply(body string) internal.ResponseStatus {
	switch strings.ToUpper(strings.TrimSpace(body)) {
	case "TAKEN":
		return internal.StatusTaken
	case "SKIPPED":
		return internal.StatusSkipped
	default:
		return internal.StatusInvalidResponse
	}
}

// ParseKeypress maps a digit onto a response status: 1 is taken, every
// other digit is skipped.
func ParseKeypress(digit string) internal.ResponseStatus {
	if strings.TrimSpace(digit) == "1" {
		return internal.StatusTaken
	}
	return internal.StatusSkipped
}

type Recorder struct {
	patients    storage.PatientRepository
	countryCode string
	now         func() time.Time
	logger      internal.Logger
}

func NewRecorder(patients storage.PatientRepository, countryCode string, logger internal.Logger) *Recorder {
	return &Recorder{patients: patients, countryCode: countryCode, now: time.Now, logger: logger}
}

func (r *Recorder) RecordText(ctx context.Context, reply TextReply) (RecordResult, error) {
	return r.record(ctx, reply.SenderID, ParseTextReply(reply.Body), "sms")
}

func (r *Recorder) RecordKeypress(ctx context.Context, press Keypress) (RecordResult, error) {
	return r.record(ctx, press.CallerID, ParseKeypress(press.Digit), "voice")
}

func (r *Recorder) record(ctx context.Context, rawID string, status internal.ResponseStatus, source string) (RecordResult, error) {
	id := internal.NormalizePhone(rawID, r.countryCode)
	if id == "" {
		return RecordResult{}, nil
	}

	if _, err := r.patients.GetPatient(ctx, id); err != nil {
		if errors.Is(err, storage.ErrPatientNotFound) {
			r.logger.Warnf("recorder: %s reply from unknown patient %s", source, id)
			return RecordResult{PatientID: id}, nil
		}
		return RecordResult{}, err
	}

	err := r.patients.UpdateResponseStatus(ctx, id, status, r.now())
	if errors.Is(err, storage.ErrPatientNotFound) {
		return RecordResult{PatientID: id}, nil
	}
	if err != nil {
		return RecordResult{}, err
	}

	r.logger.Infof("recorder: %s response recorded: %s for %s", source, status, id)
	return RecordResult{Matched: true, PatientID: id, Status: status}, nil
}
