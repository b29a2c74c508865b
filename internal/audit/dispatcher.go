package audit

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// Class orders events by what it costs to lose them under load.
type Class uint8

const (
	// ClassRoutine events, such as issued challenges and sent codes, are
	// dropped first.
	ClassRoutine Class = iota
	// ClassNoisy events repeat while someone hammers a limit. Repeats with
	// the same key are folded (see Config.Coalesce).
	ClassNoisy
	// ClassSecurity events, such as failed checks, rejected tokens and
	// admin changes, may wait for buffer room (see Config.SecurityWait).
	ClassSecurity

	classCount
)

func (c Class) String() string {
	switch c {
	case ClassNoisy:
		return "noisy"
	case ClassSecurity:
		return "security"
	default:
		return "routine"
	}
}

// RepeatsKey is the metadata key carrying how many folded repeats preceded
// a delivered noisy event.
const RepeatsKey = "repeats"

const maxBursts = 4096

// Config controls dispatcher buffering.
type Config struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops routine and noisy events on a full buffer instead of
	// waiting. Security events still wait up to SecurityWait.
	DropIfFull   bool
	SecurityWait time.Duration
	// Coalesce is the window in which repeats of a noisy event with the
	// same type, user, IP, rule and scope are counted instead of queued.
	Coalesce time.Duration
	// Classify maps an event type to its class. Nil treats every event as
	// routine.
	Classify func(eventType string) Class
	Now      func() time.Time
}

// Stats reports events that did not reach the sink as emitted.
type Stats struct {
	// Dropped counts lost events by class name.
	Dropped map[string]uint64
	// Coalesced counts noisy repeats folded into a later event.
	Coalesced uint64
}

type burst struct {
	start   time.Time
	repeats uint64
}

// Dispatcher hands events to a sink from one background goroutine so the
// request path never waits on audit I/O.
type Dispatcher struct {
	cfg   Config
	sink  Sink
	queue chan Event

	stop    chan struct{}
	stopped sync.WaitGroup
	closing atomic.Bool
	once    sync.Once

	dropped   [classCount]atomic.Uint64
	coalesced atomic.Uint64

	mu     sync.Mutex
	bursts map[string]*burst
}

// NewDispatcher starts a dispatcher, or returns nil when auditing is off.
// A nil *Dispatcher ignores every call.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:    cfg,
		sink:   sink,
		queue:  make(chan Event, cfg.BufferSize),
		stop:   make(chan struct{}),
		bursts: make(map[string]*burst),
	}
	d.stopped.Add(1)
	go d.deliver()
	return d
}

func (d *Dispatcher) deliver() {
	defer d.stopped.Done()
	for {
		select {
		case ev := <-d.queue:
			d.sink.Emit(context.Background(), ev)
		case <-d.stop:
			for n := len(d.queue); n > 0; n-- {
				d.sink.Emit(context.Background(), <-d.queue)
			}
			return
		}
	}
}

// Emit queues ev. Noisy repeats inside the coalesce window are only
// counted. When the buffer is full the event waits or is dropped according
// to its class.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil || d.closing.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	class := d.classify(ev.EventType)
	if class == ClassNoisy && d.cfg.Coalesce > 0 {
		var keep bool
		if ev, keep = d.fold(ev); !keep {
			return
		}
	}

	select {
	case d.queue <- ev:
		return
	default:
	}

	wait := ctx
	if d.cfg.DropIfFull {
		if class != ClassSecurity || d.cfg.SecurityWait <= 0 {
			d.dropped[class].Add(1)
			return
		}
		var cancel context.CancelFunc
		wait, cancel = context.WithTimeout(ctx, d.cfg.SecurityWait)
		defer cancel()
	}
	select {
	case d.queue <- ev:
	case <-wait.Done():
		d.dropped[class].Add(1)
	case <-d.stop:
		d.dropped[class].Add(1)
	}
}

func (d *Dispatcher) classify(eventType string) Class {
	if d.cfg.Classify == nil {
		return ClassRoutine
	}
	c := d.cfg.Classify(eventType)
	if c >= classCount {
		return ClassRoutine
	}
	return c
}

// fold reports whether ev opens a new burst. The first event after a burst
// carries the number of repeats it absorbed.
func (d *Dispatcher) fold(ev Event) (Event, bool) {
	key := burstKey(ev)
	now := d.cfg.Now()

	d.mu.Lock()
	defer d.mu.Unlock()
	b, seen := d.bursts[key]
	if seen && now.Sub(b.start) < d.cfg.Coalesce {
		b.repeats++
		d.coalesced.Add(1)
		return ev, false
	}
	if seen && b.repeats > 0 {
		meta := make(map[string]string, len(ev.Metadata)+1)
		for k, v := range ev.Metadata {
			meta[k] = v
		}
		meta[RepeatsKey] = strconv.FormatUint(b.repeats, 10)
		ev.Metadata = meta
	}
	if len(d.bursts) >= maxBursts {
		d.pruneLocked(now)
	}
	d.bursts[key] = &burst{start: now}
	return ev, true
}

func (d *Dispatcher) pruneLocked(now time.Time) {
	for key, b := range d.bursts {
		if now.Sub(b.start) >= d.cfg.Coalesce {
			delete(d.bursts, key)
		}
	}
	if len(d.bursts) >= maxBursts {
		clear(d.bursts)
	}
}

func burstKey(ev Event) string {
	return ev.EventType + "\x00" + ev.UserID + "\x00" + ev.IP + "\x00" +
		strconv.FormatInt(ev.RuleID, 10) + "\x00" + ev.Metadata["scope"]
}

// Close stops accepting events and delivers what is already queued.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closing.Store(true)
		close(d.stop)
		d.stopped.Wait()
	})
}

// Dropped returns the number of lost events across classes.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	var n uint64
	for i := range d.dropped {
		n += d.dropped[i].Load()
	}
	return n
}

// Stats returns per-class drop counts and the coalesced total.
func (d *Dispatcher) Stats() Stats {
	s := Stats{Dropped: make(map[string]uint64, int(classCount))}
	for c := ClassRoutine; c < classCount; c++ {
		var n uint64
		if d != nil {
			n = d.dropped[c].Load()
		}
		s.Dropped[c.String()] = n
	}
	if d != nil {
		s.Coalesced = d.coalesced.Load()
	}
	return s
}
