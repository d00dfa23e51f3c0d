package notify

import (
	"context"

	"github.com/neshyamekala/Medicall/internal"
)

// LogChannel logs every send instead of delivering it.
type LogChannel struct {
	countryCode string
	logger      internal.Logger
}

func NewLogChannel(countryCode string, logger internal.Logger) *LogChannel {
	return &LogChannel{countryCode: countryCode, logger: logger}
}

func (l *LogChannel) SendText(ctx context.Context, recipient, message string) error {
	l.logger.Infof("notify: sms to %s: %s", internal.InternationalPhone(recipient, l.countryCode), message)
	return nil
}

func (l *LogChannel) PlaceVoiceCall(ctx context.Context, recipient, spokenMessage, language string) error {
	l.logger.Infof("notify: voice call to %s (%s): %s", internal.InternationalPhone(recipient, l.countryCode), VoiceLocale(language), spokenMessage)
	return nil
}

var _ Channel = (*LogChannel)(nil)
