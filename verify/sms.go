package verify

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/MrEthical07/goStepUp/otp"
	"github.com/MrEthical07/goStepUp/phone"
	"github.com/MrEthical07/goStepUp/rule"
	"github.com/MrEthical07/goStepUp/session"
)

// DefaultSMSMessage is the text sent with a code.
const DefaultSMSMessage = "{{code}} is your OTP"

// Gateway delivers text messages.
type Gateway interface {
	Send(ctx context.Context, number, message string) error
}

// AttemptLedger is the part of the throttle ledger the SMS handler needs.
type AttemptLedger interface {
	UserSendWait(ctx context.Context, userID string) (time.Duration, error)
	UserRetryWait(ctx context.Context, userID string) (time.Duration, error)
	RecordUserAttempt(ctx context.Context, userID string) error
	ClearUser(ctx context.Context, userID string) error
}

type SMSConfig struct {
	// Message is the SMS body template; {{code}} is replaced by the code.
	Message   string
	Templates Templates
	// OnBlocked runs when a failed check leaves the user waiting.
	OnBlocked func(ctx context.Context, userID string)
}

// SMS verifies with a code sent to the user's confirmed number.
type SMS struct {
	book    *PhoneBook
	users   Users
	codes   *otp.Codes
	gateway Gateway
	ledger  AttemptLedger
	cfg     SMSConfig
}

// NewSMS builds the handler. A nil gateway leaves sending unconfigured.
func NewSMS(users Users, book *PhoneBook, codes *otp.Codes, gateway Gateway, ledger AttemptLedger, cfg SMSConfig) *SMS {
	if cfg.Message == "" {
		cfg.Message = DefaultSMSMessage
	}
	return &SMS{book: book, users: users, codes: codes, gateway: gateway, ledger: ledger, cfg: cfg}
}

func (*SMS) ID() string       { return "sms" }
func (*SMS) Name() string     { return "SMS" }
func (*SMS) Position() int    { return -10 }
func (*SMS) Switchable() bool { return true }
func (*SMS) Optional() bool   { return true }

// GatewayConfigured reports whether codes can be delivered.
func (s *SMS) GatewayConfigured() bool {
	return s.gateway != nil
}

// Configured reports whether the entered number is the confirmed one.
func (s *SMS) Configured(ctx context.Context, userID string) (bool, error) {
	number, err := s.book.Number(ctx, userID)
	if err != nil || number == "" {
		return false, err
	}
	confirmed, err := s.book.Confirmed(ctx, userID)
	if err != nil {
		return false, err
	}
	return number == confirmed, nil
}

// Send creates a code for number in the session carried by ctx and delivers it.
func (s *SMS) Send(ctx context.Context, number string) error {
	if s.gateway == nil {
		return Fail(ErrConfiguration, "SMS gateway is not configured")
	}
	sid := session.IDFromContext(ctx)
	if sid == "" {
		return session.ErrNoSession
	}
	code, err := s.codes.Create(ctx, sid, number)
	if err != nil {
		return err
	}
	msg := rule.Render(s.cfg.Message, map[string]string{"code": code})
	if err := s.gateway.Send(ctx, number, msg); err != nil {
		return &Error{Kind: ErrDelivery, Message: err.Error()}
	}
	return nil
}

// Check validates code against the pending code for number.
func (s *SMS) Check(ctx context.Context, number, code string) error {
	err := s.codes.Check(ctx, session.IDFromContext(ctx), number, code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, otp.ErrInvalidCode):
		return Fail(ErrInvalidCredentials, "Entered code is incorrect")
	case errors.Is(err, otp.ErrCodeExpired):
		return Fail(ErrExpired, "Entered code is outdated. Try requesting a new one.")
	default:
		return err
	}
}

func (s *SMS) Verify(ctx context.Context, userID string, in Input) error {
	code := in.Get("code")
	if code == "" {
		return Fail(ErrInvalidCredentials, "OTP not entered")
	}
	wait, err := s.ledger.UserRetryWait(ctx, userID)
	if err != nil {
		return err
	}
	if wait > 0 {
		return Blocked("Please wait %s", wait)
	}
	number, err := s.book.Confirmed(ctx, userID)
	if err != nil {
		return err
	}

	checkErr := s.Check(ctx, number, code)
	if checkErr == nil {
		return s.ledger.ClearUser(ctx, userID)
	}
	if errors.Is(checkErr, ErrInvalidCredentials) {
		if err := s.ledger.RecordUserAttempt(ctx, userID); err != nil {
			return err
		}
	}
	if wait, err := s.ledger.UserRetryWait(ctx, userID); err == nil && wait > 0 && s.cfg.OnBlocked != nil {
		s.cfg.OnBlocked(ctx, userID)
	}
	return checkErr
}

func (s *SMS) Prompt(ctx context.Context, userID string, data map[string]string) (*Prompt, error) {
	number, err := s.book.Confirmed(ctx, userID)
	if err != nil {
		return nil, err
	}
	if number == "" {
		return nil, Fail(ErrConfiguration, "Please confirm your number first")
	}
	wait, err := s.ledger.UserSendWait(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.cfg.Templates.render(s.ID(), TplSMSVerify, copyData(data, "timeout", seconds(wait))), nil
}

func (s *SMS) ActivatePrompt(ctx context.Context, userID string) (*Prompt, error) {
	number, err := s.book.Number(ctx, userID)
	if err != nil {
		return nil, err
	}
	if number == "" {
		if number, err = s.users.Attribute(ctx, userID, AttrLastSentNumber); err != nil {
			return nil, err
		}
	}
	wait, err := s.ledger.UserSendWait(ctx, userID)
	if err != nil {
		return nil, err
	}
	data := map[string]string{"timeout": seconds(wait)}
	if n := phone.Normalize(number); n != "" {
		data["phone_number"] = "+" + n
	}
	return s.cfg.Templates.render(s.ID(), TplSMSActivate, data), nil
}

// Activate confirms the submitted number with its code and enables SMS.
// Failed tries count as user attempts.
func (s *SMS) Activate(ctx context.Context, userID string, in Input) (*Prompt, error) {
	number := phone.Normalize(in.Get("tel"))
	if number == "" {
		return nil, Fail(ErrInvalidRequest, "Invalid request")
	}
	wait, err := s.ledger.UserRetryWait(ctx, userID)
	if err != nil {
		return nil, err
	}
	if wait > 0 {
		return nil, Blocked("Too many attempts. Please wait %s.", wait)
	}

	if err := s.activate(ctx, userID, number, in.Get("code")); err != nil {
		if _, ok := Message(err); ok {
			if rerr := s.ledger.RecordUserAttempt(ctx, userID); rerr != nil {
				return nil, rerr
			}
		}
		return nil, err
	}
	return s.cfg.Templates.render(s.ID(), TplSMSActivated, nil), nil
}

func (s *SMS) activate(ctx context.Context, userID, number, code string) error {
	if code == "" {
		return Fail(ErrInvalidCredentials, "Please enter OTP")
	}
	if err := s.Check(ctx, number, code); err != nil {
		return err
	}
	if err := s.book.SetNumber(ctx, userID, number); err != nil {
		return err
	}
	if err := s.book.Confirm(ctx, userID, number); err != nil {
		return err
	}
	if err := s.users.SetAttribute(ctx, userID, EnabledAttr(s.ID()), "1"); err != nil {
		return err
	}
	return s.ledger.ClearUser(ctx, userID)
}

func (s *SMS) DeactivatePrompt(context.Context, string) (*Prompt, error) {
	return s.cfg.Templates.render(s.ID(), TplSMSDeactivate, nil), nil
}

func (s *SMS) Deactivate(ctx context.Context, userID string) error {
	return s.users.SetAttribute(ctx, userID, EnabledAttr(s.ID()), "0")
}

// BlockedPrompt renders the notice shown while sending is blocked.
func (s *SMS) BlockedPrompt(wait time.Duration) *Prompt {
	return s.cfg.Templates.render(s.ID(), TplSMSBlocked, map[string]string{"block_time_left": HumanDuration(wait)})
}

func seconds(d time.Duration) string {
	return strconv.FormatInt(int64((d+time.Second-1)/time.Second), 10)
}
