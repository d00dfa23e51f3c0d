package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/service"
	"github.com/neshyamekala/Medicall/internal/storage"
)

func Root() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "Medicine Reminder System is running"})
	}
}

func PostPatient(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.PatientRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid request: phone and name required")
			return
		}

		if err := service.ValidatePatientRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Patient validation failed")
			return
		}

		patient, err := service.RegisterPatient(c.Request.Context(), app.Patients(), &req, app.CountryCode())
		if errors.Is(err, service.ErrEmptyPhone) {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Patient validation failed")
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to save patient")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusCreated, patient, map[string]any{"message": "Patient registered successfully"})
	}
}

func PostMedicine(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req service.MedicineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid request: name, dosage and time required")
			return
		}

		if err := service.ValidateMedicineRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Medicine validation failed")
			return
		}

		patientID := internal.NormalizePhone(c.Param("phone"), app.CountryCode())
		medicine, err := service.AddMedicine(c.Request.Context(), app.Medicines(), patientID, &req)
		if errors.Is(err, storage.ErrPatientNotFound) {
			HandleError(c, app.Logger(), err, http.StatusNotFound, "Patient not found")
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to save medicine")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusCreated, medicine, map[string]any{"message": "Medicine added successfully"})
	}
}

func ListPatients(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		patients, err := app.Patients().ListPatients(c.Request.Context())
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to list patients")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, patients, map[string]any{"count": len(patients)})
	}
}

func GetPatient(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := internal.NormalizePhone(c.Param("phone"), app.CountryCode())
		patient, err := app.Patients().GetPatient(c.Request.Context(), id)
		if errors.Is(err, storage.ErrPatientNotFound) {
			HandleError(c, app.Logger(), err, http.StatusNotFound, "Patient not found")
			return
		}
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch patient")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, patient, nil)
	}
}

func ListMedicines(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := internal.NormalizePhone(c.Param("phone"), app.CountryCode())
		if _, err := app.Patients().GetPatient(c.Request.Context(), id); err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, storage.ErrPatientNotFound) {
				status = http.StatusNotFound
			}
			HandleError(c, app.Logger(), err, status, "Patient not found")
			return
		}

		meds, err := app.Medicines().ListMedicines(c.Request.Context(), id)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to list medicines")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, meds, map[string]any{"count": len(meds)})
	}
}
