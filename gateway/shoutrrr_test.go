package gateway

import (
	"context"
	"errors"
	"testing"

	goStepUp "github.com/MrEthical07/goStepUp"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ goStepUp.Gateway  = (*SMS)(nil)
	_ goStepUp.Notifier = (*Notifier)(nil)
)

type recorder struct {
	urls     []string
	messages []string
	err      error
}

func (r *recorder) send(rawURL, message string) error {
	r.urls = append(r.urls, rawURL)
	r.messages = append(r.messages, message)
	return r.err
}

func TestNewSMSValidatesTemplate(t *testing.T) {
	_, err := NewSMS("generic://sms.example.com/send", nil, nil)
	assert.Error(t, err)

	_, err = NewSMS("nope://{number}", nil, nil)
	assert.Error(t, err)

	_, err = NewSMS("generic://sms.example.com/send?to={e164}", nil, nil)
	assert.NoError(t, err)
}

func TestSMSSendExpandsNumber(t *testing.T) {
	rec := &recorder{}
	g, err := NewSMS("generic://sms.example.com/send?to={e164}&raw={number}", rec.send, nil)
	require.NoError(t, err)

	require.NoError(t, g.Send(context.Background(), "15551234567", "123456 is your OTP"))
	require.Len(t, rec.urls, 1)
	assert.Equal(t, "generic://sms.example.com/send?to=%2B15551234567&raw=15551234567", rec.urls[0])
	assert.Equal(t, "123456 is your OTP", rec.messages[0])
}

func TestSMSSendHidesProviderError(t *testing.T) {
	rec := &recorder{err: errors.New("401 unauthorized: key=SECRET")}
	log, hook := logtest.NewNullLogger()
	g, err := NewSMS("generic://sms.example.com/send?to={number}", rec.send, log)
	require.NoError(t, err)

	err = g.Send(context.Background(), "15551234567", "hi")
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "********567", entry.Data["number"])
}

func TestSMSSendHonoursContext(t *testing.T) {
	rec := &recorder{}
	g, err := NewSMS("generic://sms.example.com/send?to={number}", rec.send, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, g.Send(ctx, "15551234567", "hi"), context.Canceled)
	assert.Empty(t, rec.urls)
}

func TestNotifierSendsToEveryURL(t *testing.T) {
	rec := &recorder{}
	n, err := NewNotifier([]string{" generic://a.example.com/hook ", "", "generic://b.example.com/hook"}, rec.send)
	require.NoError(t, err)

	require.NoError(t, n.Notify(context.Background(), "SMS gateway", "not configured"))
	assert.Equal(t, []string{"generic://a.example.com/hook", "generic://b.example.com/hook"}, rec.urls)
	assert.Equal(t, "SMS gateway\n\nnot configured", rec.messages[0])

	rec.err = errors.New("down")
	assert.Error(t, n.Notify(context.Background(), "s", "m"))

	_, err = NewNotifier([]string{"nope://x"}, nil)
	assert.Error(t, err)
}
