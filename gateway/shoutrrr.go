package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/containrrr/shoutrrr"
	"github.com/sirupsen/logrus"
)

const sampleNumber = "15550000000"

// SendFunc posts message to a shoutrrr URL.
type SendFunc func(rawURL, message string) error

// SMS sends codes through a shoutrrr URL template.
type SMS struct {
	template string
	send     SendFunc
	log      logrus.FieldLogger
}

// NewSMS validates urlTemplate and returns a gateway sending through
// shoutrrr. A nil send uses shoutrrr.Send.
func NewSMS(urlTemplate string, send SendFunc, log logrus.FieldLogger) (*SMS, error) {
	urlTemplate = strings.TrimSpace(urlTemplate)
	if !strings.Contains(urlTemplate, "{number}") && !strings.Contains(urlTemplate, "{e164}") {
		return nil, errors.New("sms url must contain {number} or {e164}")
	}
	if _, err := shoutrrr.CreateSender(expand(urlTemplate, sampleNumber)); err != nil {
		return nil, fmt.Errorf("invalid sms url: %w", err)
	}
	if send == nil {
		send = shoutrrr.Send
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SMS{template: urlTemplate, send: send, log: log}, nil
}

// Send delivers message to number. Provider errors are logged in full and
// reported to the caller in short form.
func (g *SMS) Send(ctx context.Context, number, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := g.send(expand(g.template, number), message); err != nil {
		g.log.WithError(err).WithField("number", mask(number)).Warn("sms provider rejected message")
		return errors.New("SMS could not be delivered. Please try again later.")
	}
	return nil
}

func expand(template, number string) string {
	return strings.NewReplacer(
		"{number}", url.QueryEscape(number),
		"{e164}", url.QueryEscape("+"+number),
	).Replace(template)
}

// mask keeps the last three digits of a number for logs.
func mask(number string) string {
	if len(number) <= 3 {
		return number
	}
	return strings.Repeat("*", len(number)-3) + number[len(number)-3:]
}

// Notifier sends administrator notices to every configured URL.
type Notifier struct {
	urls []string
	send SendFunc
}

// NewNotifier validates urls. A nil send uses shoutrrr.Send.
func NewNotifier(urls []string, send SendFunc) (*Notifier, error) {
	clean := make([]string, 0, len(urls))
	for _, u := range urls {
		if u = strings.TrimSpace(u); u != "" {
			clean = append(clean, u)
		}
	}
	if len(clean) > 0 {
		if _, err := shoutrrr.CreateSender(clean...); err != nil {
			return nil, fmt.Errorf("invalid notification url: %w", err)
		}
	}
	if send == nil {
		send = shoutrrr.Send
	}
	return &Notifier{urls: clean, send: send}, nil
}

// Notify sends subject and message to each URL and joins the failures.
func (n *Notifier) Notify(ctx context.Context, subject, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body := fmt.Sprintf("%s\n\n%s", subject, message)
	var errs []error
	for _, u := range n.urls {
		if err := n.send(u, body); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
