package throttle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix         = "tfa"
	defaultBlockPeriod    = 60 * time.Minute
	defaultSendLimit      = 3
	defaultResendInterval = 120 * time.Second
)

// ErrRedisUnavailable is returned when the ledger backend cannot be reached.
var ErrRedisUnavailable = errors.New("throttle backend unavailable")

// Namespace separates event lists by subject kind.
type Namespace string

const (
	NumberSends    Namespace = "tel_sent"
	NumberAttempts Namespace = "sms_num_try"
	IPSends        Namespace = "sms_sent_ip"
	UserSends      Namespace = "sms_sent"
	UserAttempts   Namespace = "sms_attempt"
)

// Config holds ledger windows and limits. A zero limit disables the block
// check it controls.
type Config struct {
	Prefix         string
	BlockPeriod    time.Duration
	ResendInterval time.Duration
	SendLimit      int
	// AttemptLimit bounds failed code checks; zero falls back to SendLimit.
	AttemptLimit int
	IPSendLimit  int
}

// Event is one recorded send or attempt.
type Event struct {
	TS int64 `json:"ts"`
}

// Ledger keeps rolling event lists per subject in Redis and derives wait
// times from them. Updates are read-modify-write without locking: two
// concurrent writers on one subject may lose an event.
type Ledger struct {
	redis  redis.UniversalClient
	config Config
	now    func() time.Time
}

// DefaultConfig returns a 60 minute block period, three sends per period and
// a 120 second resend interval.
func DefaultConfig() Config {
	return Config{
		Prefix:         defaultPrefix,
		BlockPeriod:    defaultBlockPeriod,
		ResendInterval: defaultResendInterval,
		SendLimit:      defaultSendLimit,
	}
}

// New creates a [Ledger]. A nil now uses time.Now.
func New(redisClient redis.UniversalClient, cfg Config, now func() time.Time) *Ledger {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix
	}
	if cfg.BlockPeriod <= 0 {
		cfg.BlockPeriod = defaultBlockPeriod
	}
	if now == nil {
		now = time.Now
	}
	return &Ledger{redis: redisClient, config: cfg, now: now}
}

func (l *Ledger) key(ns Namespace, subject string) string {
	return l.config.Prefix + ":" + string(ns) + ":" + subject
}

// Events returns the events of subject still inside the block period. When
// old events were dropped the pruned list is written back.
func (l *Ledger) Events(ctx context.Context, ns Namespace, subject string) ([]Event, error) {
	data, err := l.redis.Get(ctx, l.key(ns, subject)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		// A corrupt list counts as empty and is replaced on the next write.
		return nil, nil
	}

	cut := l.now().Add(-l.config.BlockPeriod).Unix()
	kept := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.TS < cut {
			continue
		}
		kept = append(kept, ev)
	}

	if len(kept) != len(events) {
		if err := l.save(ctx, ns, subject, kept); err != nil {
			return nil, err
		}
	}
	return kept, nil
}

// Record appends an event stamped now.
func (l *Ledger) Record(ctx context.Context, ns Namespace, subject string) error {
	events, err := l.Events(ctx, ns, subject)
	if err != nil {
		return err
	}
	events = append(events, Event{TS: l.now().Unix()})
	return l.save(ctx, ns, subject, events)
}

// Clear drops every event of subject.
func (l *Ledger) Clear(ctx context.Context, ns Namespace, subject string) error {
	if err := l.redis.Del(ctx, l.key(ns, subject)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (l *Ledger) save(ctx context.Context, ns Namespace, subject string, events []Event) error {
	key := l.key(ns, subject)
	if len(events) == 0 {
		if err := l.redis.Del(ctx, key).Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return nil
	}

	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	// The newest event is the last to leave the window, so the list can
	// expire one block period after the latest write.
	if err := l.redis.Set(ctx, key, data, l.config.BlockPeriod).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Wait returns how long the subject must wait before its next event. A full
// quota blocks until the oldest event leaves the window; otherwise a non-zero
// interval enforces spacing after the latest event.
func (l *Ledger) Wait(events []Event, limit int, interval time.Duration) time.Duration {
	if len(events) == 0 {
		return 0
	}
	now := l.now().Unix()

	if limit > 0 && len(events) >= limit {
		return seconds(events[0].TS + int64(l.config.BlockPeriod/time.Second) - now)
	}
	if interval <= 0 {
		return 0
	}
	return seconds(events[len(events)-1].TS + int64(interval/time.Second) - now)
}

// AttemptWait applies only the quota check of [Ledger.Wait].
func (l *Ledger) AttemptWait(events []Event, limit int) time.Duration {
	return l.Wait(events, limit, 0)
}

func (l *Ledger) attemptLimit() int {
	if l.config.AttemptLimit > 0 {
		return l.config.AttemptLimit
	}
	return l.config.SendLimit
}

func seconds(n int64) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}
