package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/storage"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) != len(internal.ClockLayout) {
			return false
		}
		_, err := time.Parse(internal.ClockLayout, s)
		return err == nil
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

var ErrEmptyPhone = errors.New("phone is empty after removing the country code")

type PatientRequest struct {
	Phone          string `json:"phone" validate:"required,notblank"`
	Name           string `json:"name" validate:"required,notblank"`
	Language       string `json:"language,omitempty" validate:"omitempty,oneof=en hi te ta ml"`
	CaretakerPhone string `json:"caretaker_phone,omitempty" validate:"omitempty"`
}

type MedicineRequest struct {
	Name   string `json:"name" validate:"required,notblank"`
	Dosage string `json:"dosage" validate:"required,notblank"`
	Time   string `json:"time" validate:"required,clock"`
}

func ValidatePatientRequest(req *PatientRequest) error {
	return validate.Struct(req)
}

func ValidateMedicineRequest(req *MedicineRequest) error {
	return validate.Struct(req)
}

// RegisterPatient creates or replaces a patient. New patients start pending.
func RegisterPatient(ctx context.Context, repo storage.PatientRepository, req *PatientRequest, countryCode string) (*internal.Patient, error) {
	id := internal.NormalizePhone(req.Phone, countryCode)
	if id == "" {
		return nil, ErrEmptyPhone
	}
	lang := req.Language
	if lang == "" {
		lang = internal.DefaultLanguage
	}
	p := &internal.Patient{
		ID:             id,
		Name:           strings.TrimSpace(req.Name),
		Language:       lang,
		CaretakerID:    internal.NormalizePhone(req.CaretakerPhone, countryCode),
		ResponseStatus: internal.StatusPending,
	}
	if err := repo.SavePatient(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// AddMedicine schedules a daily medicine. It returns storage.ErrPatientNotFound
// when the patient is not registered.
func AddMedicine(ctx context.Context, repo storage.MedicineRepository, patientID string, req *MedicineRequest) (*internal.Medicine, error) {
	m := &internal.Medicine{
		ID:        uuid.NewString(),
		PatientID: patientID,
		Name:      strings.TrimSpace(req.Name),
		Dosage:    strings.TrimSpace(req.Dosage),
		Time:      req.Time,
	}
	if err := repo.AddMedicine(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
