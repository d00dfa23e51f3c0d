package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/neshyamekala/Medicall/internal/service"
)

type smsWebhook struct {
	From string `form:"From"`
	Body string `form:"Body"`
}

type voiceWebhook struct {
	Digits    string `form:"Digits"`
	From      string `form:"From"`
	To        string `form:"To"`
	Direction string `form:"Direction"`
}

// patientNumber is the patient's side of the call. On reminder calls we
// place, the patient is the callee.
func (w voiceWebhook) patientNumber() string {
	if strings.HasPrefix(w.Direction, "outbound") {
		return strings.TrimSpace(w.To)
	}
	return strings.TrimSpace(w.From)
}

// SMSWebhook records a TAKEN/SKIPPED text reply. Unknown senders get a
// 200 with matched=false so the provider does not retry.
func SMSWebhook(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form smsWebhook
		if err := c.ShouldBind(&form); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid webhook payload")
			return
		}

		result, err := app.Recorder().RecordText(c.Request.Context(), service.TextReply{SenderID: form.From, Body: form.Body})
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to record response")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, result, resultMeta(result))
	}
}

// VoiceWebhook records the digit gathered at the end of a reminder call.
func VoiceWebhook(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var form voiceWebhook
		if err := c.ShouldBind(&form); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid webhook payload")
			return
		}

		caller := form.patientNumber()
		if strings.TrimSpace(form.Digits) == "" || caller == "" {
			HandleSuccess(c, app.Logger(), http.StatusOK, service.RecordResult{}, map[string]any{"message": "No valid response received"})
			return
		}

		result, err := app.Recorder().RecordKeypress(c.Request.Context(), service.Keypress{Digit: form.Digits, CallerID: caller})
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to record response")
			return
		}
		HandleSuccess(c, app.Logger(), http.StatusOK, result, resultMeta(result))
	}
}

func resultMeta(r service.RecordResult) map[string]any {
	if !r.Matched {
		return map[string]any{"message": "Patient not found"}
	}
	return map[string]any{"message": "Response recorded: " + string(r.Status)}
}
