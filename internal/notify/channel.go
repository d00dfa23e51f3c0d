package notify

import (
	"context"

	"github.com/neshyamekala/Medicall/internal"
	"github.com/neshyamekala/Medicall/internal/config"
)

// Channel delivers text messages and voice calls. Recipients are patient
// keys; implementations add the country code themselves.
type Channel interface {
	SendText(ctx context.Context, recipient, message string) error
	PlaceVoiceCall(ctx context.Context, recipient, spokenMessage, language string) error
}

// New returns the channel selected by NOTIFY_BACKEND.
func New(cfg *config.Config, logger internal.Logger) Channel {
	if cfg.NotifyBackend == "twilio" {
		return NewTwilioChannel(TwilioOptions{
			AccountSID:  cfg.TwilioSID,
			AuthToken:   cfg.TwilioToken,
			From:        cfg.TwilioFrom,
			CountryCode: cfg.CountryCode,
			GatherURL:   cfg.PublicBaseURL + "/webhook/voice",
		}, logger)
	}
	logger.Warnf("notify: NOTIFY_BACKEND=%s, reminders will only be logged", cfg.NotifyBackend)
	return NewLogChannel(cfg.CountryCode, logger)
}
