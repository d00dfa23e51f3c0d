package notify

import (
	"context"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/neshyamekala/Medicall/internal"
)

// twilioAPI is the slice of the Twilio REST client the channel uses.
type twilioAPI interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
	CreateCall(params *twilioApi.CreateCallParams) (*twilioApi.ApiV2010Call, error)
}

type TwilioOptions struct {
	AccountSID  string
	AuthToken   string
	From        string
	CountryCode string
	GatherURL   string
}

type TwilioChannel struct {
	api    twilioAPI
	opts   TwilioOptions
	logger internal.Logger
}

func NewTwilioChannel(opts TwilioOptions, logger internal.Logger) *TwilioChannel {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: opts.AccountSID,
		Password: opts.AuthToken,
	})
	return &TwilioChannel{api: client.Api, opts: opts, logger: logger}
}

func (t *TwilioChannel) SendText(ctx context.Context, recipient, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := internal.InternationalPhone(recipient, t.opts.CountryCode)

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(t.opts.From)
	params.SetBody(message)

	resp, err := t.api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("twilio: sms to %s: %w", to, err)
	}
	t.logger.Infof("notify: sms sent to %s, sid=%s", to, deref(resp.Sid))
	return nil
}

func (t *TwilioChannel) PlaceVoiceCall(ctx context.Context, recipient, spokenMessage, language string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to := internal.InternationalPhone(recipient, t.opts.CountryCode)

	twiml, err := ReminderTwiML(spokenMessage, language, t.opts.GatherURL)
	if err != nil {
		return fmt.Errorf("twilio: build twiml: %w", err)
	}

	params := &twilioApi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(t.opts.From)
	params.SetTwiml(twiml)

	resp, err := t.api.CreateCall(params)
	if err != nil {
		return fmt.Errorf("twilio: call to %s: %w", to, err)
	}
	t.logger.Infof("notify: voice call placed to %s, sid=%s", to, deref(resp.Sid))
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ Channel = (*TwilioChannel)(nil)
