package api

import "github.com/gin-gonic/gin"

// NewRouter mounts the registration, read and webhook routes.
func NewRouter(app App) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestIDMiddleware(), AccessLogMiddleware(app.Logger()))

	r.GET("/", Root())

	r.POST("/patient", PostPatient(app))
	r.POST("/patient/:phone/medicine", PostMedicine(app))

	r.GET("/patients", ListPatients(app))
	r.GET("/patients/:phone", GetPatient(app))
	r.GET("/patients/:phone/medicines", ListMedicines(app))

	webhooks := r.Group("/webhook")
	webhooks.POST("/sms", SMSWebhook(app))
	webhooks.POST("/voice", VoiceWebhook(app))

	return r
}
