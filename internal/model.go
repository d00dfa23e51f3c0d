package internal

import "time"

type ResponseStatus string

const (
	StatusPending         ResponseStatus = "pending"
	StatusTaken           ResponseStatus = "taken"
	StatusSkipped         ResponseStatus = "skipped"
	StatusInvalidResponse ResponseStatus = "invalid_response"
)

// DefaultLanguage is used when a patient registers without a language or
// with one that has no template.
const DefaultLanguage = "en"

// SupportedLanguages lists the language codes accepted at registration.
var SupportedLanguages = []string{"en", "hi", "te", "ta", "ml"}

// Patient is keyed by phone number without the country code.
type Patient struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	Language         string         `json:"language"`
	CaretakerID      string         `json:"caretaker_id,omitempty"`
	ResponseStatus   ResponseStatus `json:"response_status"`
	LastResponseTime *time.Time     `json:"last_response_time,omitempty"`
}

// HasCaretaker reports whether missed-dose alerts can be delivered.
func (p *Patient) HasCaretaker() bool {
	return p.CaretakerID != ""
}

type Medicine struct {
	ID        string `json:"id"`
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Time      string `json:"time"` // "HH:MM", recurs daily
}

// ClockLayout is the minute-resolution layout medicines are scheduled in.
const ClockLayout = "15:04"
