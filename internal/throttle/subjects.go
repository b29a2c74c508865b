package throttle

import (
	"context"
	"time"
)

// UserSendWait is the wait before another code may be sent to a user: the
// send quota and resend interval first, then the failed-attempt quota.
func (l *Ledger) UserSendWait(ctx context.Context, userID string) (time.Duration, error) {
	sends, err := l.Events(ctx, UserSends, userID)
	if err != nil {
		return 0, err
	}
	if wait := l.Wait(sends, l.config.SendLimit, l.config.ResendInterval); wait > 0 {
		return wait, nil
	}
	return l.UserRetryWait(ctx, userID)
}

// UserRetryWait is the wait before a user may submit another code.
func (l *Ledger) UserRetryWait(ctx context.Context, userID string) (time.Duration, error) {
	attempts, err := l.Events(ctx, UserAttempts, userID)
	if err != nil {
		return 0, err
	}
	return l.AttemptWait(attempts, l.attemptLimit()), nil
}

// RecordUserSend records a code sent on behalf of a user.
func (l *Ledger) RecordUserSend(ctx context.Context, userID string) error {
	return l.Record(ctx, UserSends, userID)
}

// RecordUserAttempt records a failed code check by a user.
func (l *Ledger) RecordUserAttempt(ctx context.Context, userID string) error {
	return l.Record(ctx, UserAttempts, userID)
}

// ClearUser resets both the send and attempt lists of a user.
func (l *Ledger) ClearUser(ctx context.Context, userID string) error {
	if err := l.Clear(ctx, UserSends, userID); err != nil {
		return err
	}
	return l.Clear(ctx, UserAttempts, userID)
}

// NumberSendWait is the wait before another code may be sent to a number.
func (l *Ledger) NumberSendWait(ctx context.Context, number string) (time.Duration, error) {
	sends, err := l.Events(ctx, NumberSends, number)
	if err != nil {
		return 0, err
	}
	if wait := l.Wait(sends, l.config.SendLimit, l.config.ResendInterval); wait > 0 {
		return wait, nil
	}
	return l.NumberRetryWait(ctx, number)
}

// NumberRetryWait is the wait before another code may be checked for a number.
func (l *Ledger) NumberRetryWait(ctx context.Context, number string) (time.Duration, error) {
	attempts, err := l.Events(ctx, NumberAttempts, number)
	if err != nil {
		return 0, err
	}
	return l.AttemptWait(attempts, l.attemptLimit()), nil
}

// RecordNumberSend records a code sent to a number by a guest.
func (l *Ledger) RecordNumberSend(ctx context.Context, number string) error {
	return l.Record(ctx, NumberSends, number)
}

// RecordNumberAttempt records a failed code check for a number.
func (l *Ledger) RecordNumberAttempt(ctx context.Context, number string) error {
	return l.Record(ctx, NumberAttempts, number)
}

// ClearNumber resets the attempt list of a number.
func (l *Ledger) ClearNumber(ctx context.Context, number string) error {
	return l.Clear(ctx, NumberAttempts, number)
}

// IPSendWait is the wait before another guest send from ip. Only the quota
// applies; an empty ip never waits.
func (l *Ledger) IPSendWait(ctx context.Context, ip string) (time.Duration, error) {
	if ip == "" || l.config.IPSendLimit <= 0 {
		return 0, nil
	}
	sends, err := l.Events(ctx, IPSends, ip)
	if err != nil {
		return 0, err
	}
	return l.AttemptWait(sends, l.config.IPSendLimit), nil
}

// RecordIPSend records a guest send from ip.
func (l *Ledger) RecordIPSend(ctx context.Context, ip string) error {
	if ip == "" {
		return nil
	}
	return l.Record(ctx, IPSends, ip)
}
