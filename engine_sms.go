package goStepUp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goStepUp/phone"
	"github.com/MrEthical07/goStepUp/session"
	"github.com/MrEthical07/goStepUp/verify"
	"github.com/sirupsen/logrus"
)

const smsHandlerID = "sms"

// SendCode sends an SMS code. Signed-in users get a code for a number they
// are confirming (in.Tel) or for their confirmed number while confirming
// rule in.ActionID. Guests pick the destination through in.Mode. Sends are
// throttled per user, or per number and client IP for guests.
func (e *Engine) SendCode(ctx context.Context, req Request, p Principal, in SendRequest) (*Response, error) {
	ctx = requestContext(ctx, req)
	if req.SessionID == "" {
		return nil, session.ErrNoSession
	}
	if p.guest() {
		return e.sendGuest(ctx, req, in)
	}

	wait, err := e.ledger.UserSendWait(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if wait > 0 {
		e.emitRateLimit(ctx, "user_send", p.UserID, verify.ErrRateLimited)
		return pleaseWait(wait), nil
	}

	var number string
	if in.Tel != "" {
		if number = phone.Normalize(in.Tel); number == "" {
			return &Response{Error: msgInvalidPhone}, nil
		}
	} else {
		if number, err = e.book.Confirmed(ctx, p.UserID); err != nil {
			return nil, err
		}
		if number == "" {
			return &Response{Error: msgConfirmNumberFirst}, nil
		}
		_, ok, err := e.activeRule(ctx, in.ActionID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return &Response{Error: msgInvalidRequest}, nil
		}
	}

	if resp, err := e.deliver(ctx, p.UserID, number); resp != nil || err != nil {
		return resp, err
	}

	e.softFail(e.users.SetAttribute(ctx, p.UserID, verify.AttrLastSentNumber, number),
		"storing last sent number failed", logrus.Fields{"user_id": p.UserID})
	e.softFail(e.ledger.RecordUserSend(ctx, p.UserID),
		"recording user send failed", logrus.Fields{"user_id": p.UserID})

	next, err := e.ledger.UserSendWait(ctx, p.UserID)
	e.softFail(err, "reading user send wait failed", logrus.Fields{"user_id": p.UserID})
	return &Response{Success: true, Timeout: waitSeconds(next)}, nil
}

func (e *Engine) sendGuest(ctx context.Context, req Request, in SendRequest) (*Response, error) {
	var number string
	switch in.Mode {
	case SendLogin:
		userID, resp, err := e.authenticate(ctx, in.Login, in.Password)
		if resp != nil || err != nil {
			return resp, err
		}
		if number, err = e.book.Confirmed(ctx, userID); err != nil {
			return nil, err
		}
		if number == "" {
			return &Response{Error: msgInvalidNumber}, nil
		}
	default:
		if number = phone.Normalize(in.Tel); number == "" {
			return &Response{Error: msgInvalidPhone}, nil
		}
		if in.Mode == SendUser {
			owner, err := e.book.Owner(ctx, number)
			if err != nil {
				return nil, err
			}
			if owner == "" {
				return &Response{Error: msgUserNotFound}, nil
			}
		}
	}

	wait, err := e.ledger.NumberSendWait(ctx, number)
	if err != nil {
		return nil, err
	}
	if wait > 0 {
		e.emitRateLimit(ctx, "number_send", "", verify.ErrRateLimited)
		return pleaseWait(wait), nil
	}
	ip := clientIPFromContext(ctx)
	if wait, err = e.ledger.IPSendWait(ctx, ip); err != nil {
		return nil, err
	}
	if wait > 0 {
		e.emitRateLimit(ctx, "ip_send", "", verify.ErrRateLimited)
		return pleaseWait(wait), nil
	}

	if resp, err := e.deliver(ctx, "", number); resp != nil || err != nil {
		return resp, err
	}
	e.softFail(e.ledger.RecordNumberSend(ctx, number), "recording number send failed", logrus.Fields{"number": number})
	e.softFail(e.ledger.RecordIPSend(ctx, ip), "recording ip send failed", logrus.Fields{"ip": ip})

	next, err := e.ledger.NumberSendWait(ctx, number)
	e.softFail(err, "reading number send wait failed", logrus.Fields{"number": number})
	return &Response{Success: true, Timeout: waitSeconds(next)}, nil
}

// deliver sends a code and returns a non-nil response only on failure.
func (e *Engine) deliver(ctx context.Context, userID, number string) (*Response, error) {
	err := e.sms.Send(ctx, number)
	switch {
	case err == nil:
		e.metricInc(MetricSMSSent)
		e.emitAudit(ctx, auditEventSMSSent, true, userID, 0, smsHandlerID, nil, nil)
		return nil, nil
	case errors.Is(err, verify.ErrConfiguration):
		e.metricInc(MetricSMSFailed)
		e.emitAudit(ctx, auditEventSMSFailed, false, userID, 0, smsHandlerID, err, nil)
		e.notifyMissingGateway(ctx)
		return &Response{Error: err.Error()}, nil
	case errors.Is(err, verify.ErrDelivery):
		e.metricInc(MetricSMSFailed)
		e.emitAudit(ctx, auditEventSMSFailed, false, userID, 0, smsHandlerID, err, nil)
		e.log.WithError(err).WithField("user_id", userID).Warn("sms delivery failed")
		return &Response{Error: err.Error()}, nil
	default:
		return nil, err
	}
}

// ActivateSMS confirms tel with code and switches SMS verification on.
func (e *Engine) ActivateSMS(ctx context.Context, req Request, p Principal, tel, code string) (*Response, error) {
	ctx = requestContext(ctx, req)
	if p.guest() {
		return &Response{Error: msgLoginRequired}, nil
	}
	prompt, err := e.sms.Activate(ctx, p.UserID, verify.Input{"tel": tel, "code": code})
	if err != nil {
		return e.activationFailed(ctx, p.UserID, smsHandlerID, err)
	}
	e.metricInc(MetricHandlerActivated)
	e.emitAudit(ctx, auditEventHandlerActivated, true, p.UserID, 0, smsHandlerID, nil, nil)
	return &Response{Success: true, Popup: prompt, Content: prompt.Body}, nil
}

// DeactivateSMS switches SMS verification off. The confirmed number is kept.
func (e *Engine) DeactivateSMS(ctx context.Context, p Principal) (*Response, error) {
	return e.DeactivateHandler(ctx, p, smsHandlerID)
}

// ConfirmNumber checks a code sent to a guest, e.g. on a registration form.
// Wrong codes count against the number.
func (e *Engine) ConfirmNumber(ctx context.Context, req Request, tel, code string) (*Response, error) {
	ctx = requestContext(ctx, req)
	number := phone.Normalize(tel)
	if number == "" {
		return &Response{Error: msgInvalidPhone}, nil
	}
	wait, err := e.ledger.NumberRetryWait(ctx, number)
	if err != nil {
		return nil, err
	}
	if wait > 0 {
		e.emitRateLimit(ctx, "number_attempt", "", verify.ErrRateLimited)
		return failure(verify.Blocked("Too many attempts. Please wait %s.", wait))
	}
	if code == "" {
		return &Response{Error: "Please enter OTP"}, nil
	}

	if err := e.sms.Check(ctx, number, code); err != nil {
		if errors.Is(err, verify.ErrInvalidCredentials) {
			e.softFail(e.ledger.RecordNumberAttempt(ctx, number), "recording number attempt failed", logrus.Fields{"number": number})
		}
		e.metricInc(MetricVerifyFailure)
		return failure(err)
	}
	e.softFail(e.ledger.ClearNumber(ctx, number), "clearing number attempts failed", logrus.Fields{"number": number})
	e.metricInc(MetricVerifySuccess)
	return &Response{Success: true, Data: map[string]string{"number": number}}, nil
}

// AssignNumber stores number as userID's confirmed number, for numbers
// proven through [Engine.ConfirmNumber] before the account existed.
func (e *Engine) AssignNumber(ctx context.Context, userID, number string) error {
	number = phone.Normalize(number)
	if number == "" {
		return verify.Fail(ErrInvalidRequest, msgInvalidPhone)
	}
	if err := e.book.SetNumber(ctx, userID, number); err != nil {
		return err
	}
	return e.book.Confirm(ctx, userID, number)
}

// onNumberConfirmed runs after every number confirmation.
func (e *Engine) onNumberConfirmed(ctx context.Context, userID, number string) error {
	e.metricInc(MetricNumberConfirmed)
	e.emitAudit(ctx, auditEventNumberConfirmed, true, userID, 0, smsHandlerID, nil, nil)
	if !e.config.SMS.AutoActivate {
		return nil
	}
	return e.users.SetAttribute(ctx, userID, verify.EnabledAttr(smsHandlerID), "1")
}

// onSMSBlocked runs when a failed SMS check leaves the user blocked.
func (e *Engine) onSMSBlocked(ctx context.Context, userID string) {
	e.metricInc(MetricSMSBlocked)
	e.emitAudit(ctx, auditEventSMSBlocked, false, userID, 0, smsHandlerID, verify.ErrRateLimited, nil)
	e.log.WithField("user_id", userID).Info("sms verification blocked")
}

func (e *Engine) notifyMissingGateway(ctx context.Context) {
	e.log.Warn(msgGatewayMissing)
	if e.notifier == nil || !e.config.SMS.NotifyMissingGateway {
		return
	}
	e.softFail(e.notifier.Notify(ctx, "SMS gateway", msgGatewayMissing), "admin notification failed", nil)
}

// pleaseWait reports a send quota wait with its countdown.
func pleaseWait(wait time.Duration) *Response {
	return &Response{
		Error:   fmt.Sprintf("Please wait %s", verify.HumanDuration(wait)),
		Timeout: waitSeconds(wait),
	}
}

func waitSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
