package goStepUp

import (
	"errors"
	"time"

	internalaudit "github.com/MrEthical07/goStepUp/internal/audit"
	"github.com/MrEthical07/goStepUp/internal/logger"
	"github.com/MrEthical07/goStepUp/internal/rate"
	"github.com/MrEthical07/goStepUp/internal/stores"
	"github.com/MrEthical07/goStepUp/internal/throttle"
	"github.com/MrEthical07/goStepUp/otp"
	"github.com/MrEthical07/goStepUp/session"
	"github.com/MrEthical07/goStepUp/verify"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config   Config
	redis    *redis.Client
	sessions session.Store

	rules    RuleStore
	users    UserStore
	gateway  Gateway
	notifier Notifier
	handlers []verify.Handler

	auditSink AuditSink
	log       logrus.FieldLogger
	now       func() time.Time

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing the throttle ledger and, unless
// [Builder.WithSessionStore] is used, the session store.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redis = client
	return b
}

// WithSessionStore replaces the Redis session store.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessions = store
	return b
}

func (b *Builder) WithRuleStore(store RuleStore) *Builder {
	b.rules = store
	return b
}

func (b *Builder) WithUserStore(store UserStore) *Builder {
	b.users = store
	return b
}

// WithGateway sets the SMS gateway. Without one, SMS sends fail with a
// configuration error.
func (b *Builder) WithGateway(gateway Gateway) *Builder {
	b.gateway = gateway
	return b
}

func (b *Builder) WithNotifier(notifier Notifier) *Builder {
	b.notifier = notifier
	return b
}

// WithHandler registers an extra verification handler next to the built-in
// ones.
func (b *Builder) WithHandler(h verify.Handler) *Builder {
	b.handlers = append(b.handlers, h)
	return b
}

func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

func (b *Builder) WithLogger(log logrus.FieldLogger) *Builder {
	b.log = log
	return b
}

// WithClock overrides time.Now for every time-dependent component.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if err := b.config.Validate(); err != nil {
		return nil, err
	}
	if b.redis == nil {
		return nil, errors.New("redis client is required")
	}
	if b.rules == nil {
		return nil, errors.New("rule store is required")
	}
	if b.users == nil {
		return nil, errors.New("user store is required")
	}

	cfg := cloneConfig(b.config)
	now := b.now
	if now == nil {
		now = time.Now
	}
	log := b.log
	if log == nil {
		log = logger.Log()
	}
	sessions := b.sessions
	if sessions == nil {
		sessions = session.NewRedisStore(b.redis, cfg.Session.RedisPrefix, cfg.Session.Lifetime)
	}

	e := &Engine{
		config:   cfg,
		rules:    b.rules,
		users:    b.users,
		notifier: b.notifier,
		log:      log,
		now:      now,
		metrics:  NewMetrics(cfg.Metrics),
		tokens:   stores.NewProofTokens(sessions, now),
		ledger: throttle.New(b.redis, throttle.Config{
			Prefix:         cfg.Throttle.RedisPrefix,
			BlockPeriod:    cfg.Throttle.BlockPeriod,
			ResendInterval: cfg.Throttle.ResendInterval,
			SendLimit:      cfg.Throttle.SendLimit,
			AttemptLimit:   cfg.Throttle.AttemptLimit,
			IPSendLimit:    cfg.Throttle.IPSendLimit,
		}, now),
		logins: rate.New(b.redis, rate.Config{
			Prefix:      cfg.Throttle.RedisPrefix,
			MaxFailures: cfg.Login.MaxFailedAttempts,
			Cooldown:    cfg.Login.FailureCooldown,
			PerIP:       true,
		}),
		audit: internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:      cfg.Audit.Enabled,
			BufferSize:   cfg.Audit.BufferSize,
			DropIfFull:   cfg.Audit.DropIfFull,
			SecurityWait: cfg.Audit.SecurityWait,
			Coalesce:     cfg.Audit.CoalesceWindow,
			Classify:     auditClass,
			Now:          now,
		}, b.auditSink),
	}

	templates := verify.Templates(cfg.Templates)
	codes := otp.NewCodes(sessions, otp.CodesConfig{
		TTL:        cfg.SMS.CodeTTL,
		BypassCode: cfg.SMS.BypassCode,
	}, now)

	e.book = verify.NewPhoneBook(b.users)
	e.book.OnConfirmed = e.onNumberConfirmed

	var gateway verify.Gateway
	if b.gateway != nil {
		gateway = b.gateway
	}
	e.sms = verify.NewSMS(b.users, e.book, codes, gateway, e.ledger, verify.SMSConfig{
		Message:   cfg.SMS.Message,
		Templates: templates,
		OnBlocked: e.onSMSBlocked,
	})
	discrepancy := cfg.TOTP.Discrepancy
	e.totp = verify.NewTOTP(b.users, verify.TOTPConfig{
		AppName:     cfg.TOTP.AppName,
		Discrepancy: &discrepancy,
		BypassCode:  cfg.TOTP.BypassCode,
		Templates:   templates,
		Now:         now,
	})

	e.registry = verify.NewRegistry(b.users)
	builtin := []verify.Handler{
		verify.None{},
		verify.NewPassword(b.users, templates),
		e.sms,
		e.totp,
	}
	for _, h := range append(builtin, b.handlers...) {
		if err := e.registry.Register(h); err != nil {
			e.Close()
			return nil, err
		}
	}

	b.built = true
	return e, nil
}
