package api

import (
	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/service"
	"github.com/neshyamekala/Medicall/internal/storage"
)

type App interface {
	Logger() internal.Logger
	Patients() storage.PatientRepository
	Medicines() storage.MedicineRepository
	Recorder() *service.Recorder
	CountryCode() string
}
