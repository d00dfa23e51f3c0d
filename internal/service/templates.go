package service

import (
	"strings"

	"github.com/neshyamekala/Medicall/internal"
)

var reminderTemplates = map[string]string{
	"en": "Reminder: Take {dosage} of {name}. Reply TAKEN or SKIPPED.",
	"hi": "Reminder: {name} की {dosage} लें। जवाब दें: TAKEN या SKIPPED",
	"te": "Reminder: {name} యొక్క {dosage} తీసుకోండి. స్పందించండి: TAKEN లేదా SKIPPED",
	"ta": "Reminder: {name} இன் {dosage} எடுத்துக் கொள்ளுங்கள். பதில்: TAKEN அல்லது SKIPPED",
	"ml": "Reminder: {name} എന്നതിന്റെ {dosage} എടുക്കുക. പ്രതികരിക്കുക: TAKEN അല്ലെങ്കിൽ SKIPPED",
}

// RenderReminder fills the patient's language template, falling back to
// English for codes without one.
func RenderReminder(language string, m internal.Medicine) string {
	tmpl, ok := reminderTemplates[language]
	if !ok {
		tmpl = reminderTemplates[internal.DefaultLanguage]
	}
	return strings.NewReplacer("{dosage}", m.Dosage, "{name}", m.Name).Replace(tmpl)
}

// CaretakerAlert is the text a caretaker receives for a missed dose.
func CaretakerAlert(patientName string) string {
	return "Alert: " + patientName + " may have missed their medicine. Please check."
}
