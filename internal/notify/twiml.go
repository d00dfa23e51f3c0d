package notify

import (
	"encoding/xml"
)

const keypressPrompt = "To confirm you took your medicine, press 1. To say you skipped, press 2."

var voiceLocales = map[string]string{
	"en": "en-IN",
	"hi": "hi-IN",
	"te": "te-IN",
	"ta": "ta-IN",
	"ml": "ml-IN",
}

// VoiceLocale maps a patient language code to the locale the provider
// speaks it in. Unknown codes fall back to English.
func VoiceLocale(language string) string {
	if l, ok := voiceLocales[language]; ok {
		return l
	}
	return voiceLocales["en"]
}

type twimlSay struct {
	Language string `xml:"language,attr,omitempty"`
	Text     string `xml:",chardata"`
}

type twimlPause struct {
	Length int `xml:"length,attr"`
}

type twimlGather struct {
	Input     string   `xml:"input,attr"`
	Timeout   int      `xml:"timeout,attr"`
	NumDigits int      `xml:"numDigits,attr"`
	Action    string   `xml:"action,attr"`
	Method    string   `xml:"method,attr"`
	Say       twimlSay `xml:"Say"`
}

type twimlResponse struct {
	XMLName xml.Name    `xml:"Response"`
	Say     twimlSay    `xml:"Say"`
	Pause   twimlPause  `xml:"Pause"`
	Gather  twimlGather `xml:"Gather"`
}

// ReminderTwiML speaks the reminder, pauses, then collects one digit and
// posts it to gatherURL.
func ReminderTwiML(spokenMessage, language, gatherURL string) (string, error) {
	locale := VoiceLocale(language)
	doc := twimlResponse{
		Say:   twimlSay{Language: locale, Text: spokenMessage},
		Pause: twimlPause{Length: 5},
		Gather: twimlGather{
			Input:     "dtmf",
			Timeout:   10,
			NumDigits: 1,
			Action:    gatherURL,
			Method:    "POST",
			Say:       twimlSay{Language: locale, Text: keypressPrompt},
		},
	}
	out, err := xml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}
