// Package poller owns the refresh schedule for one status screen session.
//
// A Coordinator performs an initial fetch, resolves it with a status.Codec,
// asks a refresh.Policy what to do next and arms exactly one timer for it.
// At most one fetch is in flight at any time; refresh requests that arrive
// while one is outstanding are dropped, not queued.
package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/npratt/loanpoll/internal/events"
	"github.com/npratt/loanpoll/internal/refresh"
	"github.com/npratt/loanpoll/internal/sched"
	"github.com/npratt/loanpoll/internal/status"
)

// Errors returned by Coordinator methods.
var (
	ErrStopped        = errors.New("poller: coordinator stopped")
	ErrAlreadyStarted = errors.New("poller: coordinator already started")
	ErrNotStarted     = errors.New("poller: coordinator not started")
)

// DefaultMidCountdownEvery is how many countdown ticks pass between
// mid-countdown refreshes.
const DefaultMidCountdownEvery = 5

// FetchFunc retrieves the current status payload. Failures must be returned
// as errors, never as an error-shaped payload.
type FetchFunc func(ctx context.Context) (status.RawPayload, error)

// Trigger names what caused a fetch.
type Trigger string

// Fetch triggers.
const (
	TriggerInitial      Trigger = "initial"
	TriggerManual       Trigger = "manual"
	TriggerInterval     Trigger = "interval"
	TriggerCountdown    Trigger = "countdown"
	TriggerMidCountdown Trigger = "mid-countdown"
)

// cancelsSchedule reports whether a fetch with this trigger replaces the
// pending timer before it starts.
func (t Trigger) cancelsSchedule() bool {
	return t == TriggerInitial || t == TriggerManual
}

// Coordinator drives fetch, resolve and reschedule for one session.
type Coordinator struct {
	codec    *status.Codec
	policy   refresh.Policy
	sched    sched.Scheduler
	tick     time.Duration
	midEvery int
	logger   *slog.Logger
	emitter  events.Emitter
	session  string
	kind     string

	onError     func(error)
	onCountdown func(remaining int)

	fetch      FetchFunc
	onResolved func(status.Resolved)

	mu         sync.Mutex
	started    bool
	stopped    bool
	inFlight   bool
	gen        uint64
	timer      sched.Timer
	ctx        context.Context
	cancel     context.CancelFunc
	stopOnDone func() bool
	stopOnce   sync.Once

	current   status.Resolved
	directive refresh.Directive
	remaining int
	elapsed   int
	fetches   int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithCodec sets the codec used to resolve payloads.
func WithCodec(codec *status.Codec) Option {
	return func(c *Coordinator) {
		if codec != nil {
			c.codec = codec
		}
	}
}

// WithPolicy sets the refresh policy.
func WithPolicy(p refresh.Policy) Option {
	return func(c *Coordinator) {
		c.policy = p
	}
}

// WithScheduler sets the timer source. Tests pass a virtual-time scheduler.
func WithScheduler(s sched.Scheduler) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.sched = s
		}
	}
}

// WithTick sets the countdown tick length. Non-positive values are ignored.
func WithTick(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.tick = d
		}
	}
}

// WithMidCountdownEvery sets how many ticks pass between mid-countdown
// refreshes. Zero disables them; negative values are ignored.
func WithMidCountdownEvery(n int) Option {
	return func(c *Coordinator) {
		if n >= 0 {
			c.midEvery = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithEmitter publishes poller events to e, stamped with the session id.
func WithEmitter(e events.Emitter, session string) Option {
	return func(c *Coordinator) {
		if e != nil {
			c.emitter = e
		}
		c.session = session
	}
}

// WithSourceKind names the fetch source in the poller start event.
func WithSourceKind(kind string) Option {
	return func(c *Coordinator) {
		c.kind = kind
	}
}

// WithErrorHandler registers a callback for fetch failures.
func WithErrorHandler(fn func(error)) Option {
	return func(c *Coordinator) {
		c.onError = fn
	}
}

// WithCountdownHandler registers a callback invoked with the remaining
// seconds whenever a countdown is seeded or ticks.
func WithCountdownHandler(fn func(remaining int)) Option {
	return func(c *Coordinator) {
		c.onCountdown = fn
	}
}

// New creates a Coordinator. Without options it uses the default codes and
// policy, real timers and a one second countdown tick.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{
		codec:     status.NewCodec(status.DefaultCodes()),
		policy:    refresh.DefaultPolicy(),
		sched:     sched.Real{},
		tick:      time.Second,
		midEvery:  DefaultMidCountdownEvery,
		logger:    slog.Default(),
		emitter:   events.Discard,
		directive: refresh.None,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start performs the initial fetch synchronously and schedules the next one.
// The error of the initial fetch is returned; the coordinator stays running
// and can be retried with RefreshNow. Cancelling ctx stops the coordinator.
func (c *Coordinator) Start(ctx context.Context, fetch FetchFunc, onResolved func(status.Resolved)) error {
	if fetch == nil {
		return errors.New("poller: nil fetch func")
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	if c.started {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	c.started = true
	c.fetch = fetch
	c.onResolved = onResolved
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.stopOnDone = context.AfterFunc(ctx, c.Stop)
	c.mu.Unlock()

	c.emit(&events.PollerStartEvent{BaseEvent: c.event(events.EventPollerStart), SourceKind: c.kind})
	c.logger.Info("poller started", "session", c.session, "source", c.kind)

	return c.refresh(c.ctx, TriggerInitial)
}

// RefreshNow cancels the pending timer, fetches immediately and reschedules
// from the result. If a fetch is already in flight the call is a no-op and
// returns nil. Cancelling ctx aborts this fetch only.
func (c *Coordinator) RefreshNow(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	started := c.started
	c.mu.Unlock()
	if !started {
		return ErrNotStarted
	}

	return c.refresh(ctx, TriggerManual)
}

// Stop cancels the pending timer and the in-flight fetch. Results that
// arrive afterwards are discarded. Stop is idempotent; concurrent callers
// return only after poller.stop has been emitted. Once it returns, no
// callback that has not already begun will be invoked.
func (c *Coordinator) Stop() {
	c.stopOnce.Do(c.stop)
}

func (c *Coordinator) stop() {
	c.mu.Lock()
	c.stopped = true
	c.cancelTimerLocked()
	c.remaining = 0
	cancel := c.cancel
	stopOnDone := c.stopOnDone
	started := c.started
	fetches := c.fetches
	c.mu.Unlock()

	if stopOnDone != nil {
		stopOnDone()
	}
	if cancel != nil {
		cancel()
	}
	if started {
		c.emit(&events.PollerStopEvent{BaseEvent: c.event(events.EventPollerStop), Fetches: fetches})
		c.logger.Info("poller stopped", "session", c.session, "fetches", fetches)
	}
}

// Current returns the most recent resolution, or nil before the first
// successful fetch.
func (c *Coordinator) Current() status.Resolved {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Directive returns the directive the schedule is currently following.
func (c *Coordinator) Directive() refresh.Directive {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.directive
}

// Remaining returns the seconds left on the local countdown, zero when no
// countdown is running.
func (c *Coordinator) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Fetches returns how many fetches have been issued.
func (c *Coordinator) Fetches() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetches
}

// Stopped reports whether Stop has been called.
func (c *Coordinator) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

// refresh runs one fetch through the single-flight gate. Timers are armed
// only after the callbacks for this fetch have returned.
func (c *Coordinator) refresh(ctx context.Context, trigger Trigger) error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	if c.inFlight {
		c.mu.Unlock()
		c.logger.Debug("refresh coalesced", "trigger", trigger)
		c.emit(&events.FetchCoalescedEvent{BaseEvent: c.event(events.EventFetchCoalesced), Trigger: string(trigger)})
		return nil
	}
	c.inFlight = true
	if trigger.cancelsSchedule() {
		c.cancelTimerLocked()
		c.remaining = 0
	}
	fetchCtx, cancelFetch := context.WithCancel(c.ctx)
	c.fetches++
	c.mu.Unlock()

	stopWatch := context.AfterFunc(ctx, cancelFetch)
	defer stopWatch()

	c.emit(&events.FetchStartEvent{BaseEvent: c.event(events.EventFetchStart), Trigger: string(trigger)})
	c.logger.Debug("fetch started", "trigger", trigger)

	start := time.Now()
	payload, err := c.fetch(fetchCtx)
	cancelFetch()
	elapsed := time.Since(start)

	if err != nil {
		return c.fail(trigger, elapsed, err)
	}
	return c.resolve(trigger, elapsed, payload)
}

func (c *Coordinator) resolve(trigger Trigger, elapsed time.Duration, payload status.RawPayload) error {
	resolved := c.codec.Resolve(payload)
	dir := c.policy.DirectiveFor(resolved)

	c.mu.Lock()
	if c.stopped {
		c.inFlight = false
		c.mu.Unlock()
		c.logger.Debug("late result discarded", "trigger", trigger)
		return nil
	}
	prev := c.current
	c.current = resolved
	c.mu.Unlock()

	c.emit(&events.FetchEndEvent{
		BaseEvent:  c.event(events.EventFetchEnd),
		Trigger:    string(trigger),
		DurationMs: elapsed.Milliseconds(),
	})
	c.emitResolved(resolved, dir)
	if prev != nil && prev.Stage() != resolved.Stage() {
		c.emit(&events.StageChangedEvent{
			BaseEvent: c.event(events.EventStageChanged),
			From:      prev.Stage().String(),
			To:        resolved.Stage().String(),
		})
		c.logger.Info("stage changed", "from", prev.Stage(), "to", resolved.Stage())
	}

	if c.onResolved != nil && !c.Stopped() {
		c.onResolved(resolved)
	}

	c.mu.Lock()
	c.inFlight = false
	seed := 0
	if !c.stopped && !c.keepCountdownLocked(trigger, dir) {
		c.directive = dir
		seed = c.armLocked(dir)
	}
	c.mu.Unlock()

	c.notifyCountdown(seed)
	return nil
}

func (c *Coordinator) fail(trigger Trigger, elapsed time.Duration, err error) error {
	if c.Stopped() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
		c.logger.Debug("late failure discarded", "trigger", trigger, "error", err)
		return nil
	}

	c.emit(&events.FetchErrorEvent{
		BaseEvent:  c.event(events.EventFetchError),
		Trigger:    string(trigger),
		DurationMs: elapsed.Milliseconds(),
		Error:      err.Error(),
	})
	c.logger.Warn("fetch failed", "trigger", trigger, "error", err)

	if c.onError != nil && !c.Stopped() {
		c.onError(err)
	}

	c.mu.Lock()
	c.inFlight = false
	seed := 0
	if !c.stopped && !c.countdownRunningLocked(trigger) {
		seed = c.armLocked(c.directive)
	}
	c.mu.Unlock()

	c.notifyCountdown(seed)
	return fmt.Errorf("fetch status (%s): %w", trigger, err)
}

// keepCountdownLocked reports whether a mid-countdown result leaves the
// running countdown untouched.
func (c *Coordinator) keepCountdownLocked(trigger Trigger, dir refresh.Directive) bool {
	return dir.Mode == refresh.ModeCountdown &&
		c.directive.Mode == refresh.ModeCountdown &&
		c.countdownRunningLocked(trigger)
}

func (c *Coordinator) countdownRunningLocked(trigger Trigger) bool {
	return trigger == TriggerMidCountdown && c.timer != nil && c.remaining > 0
}

// armLocked replaces the schedule with one following dir. It returns the
// seeded countdown, or zero.
func (c *Coordinator) armLocked(dir refresh.Directive) int {
	c.cancelTimerLocked()
	c.remaining = 0
	c.elapsed = 0

	switch dir.Mode {
	case refresh.ModeFixedInterval:
		c.scheduleLocked(dir.Interval(), c.onInterval)
	case refresh.ModeCountdown:
		c.remaining = dir.CountdownSeconds
		c.scheduleLocked(c.tick, c.onTick)
		return c.remaining
	}
	return 0
}

func (c *Coordinator) scheduleLocked(d time.Duration, fn func(gen uint64)) {
	gen := c.gen
	c.timer = c.sched.AfterFunc(d, func() { fn(gen) })
}

// cancelTimerLocked stops the pending timer and invalidates callbacks that
// already fired but have not yet taken the lock.
func (c *Coordinator) cancelTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (c *Coordinator) onInterval(gen uint64) {
	c.mu.Lock()
	if c.stopped || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	_ = c.refresh(c.ctx, TriggerInterval)
}

func (c *Coordinator) onTick(gen uint64) {
	c.mu.Lock()
	if c.stopped || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.remaining--
	c.elapsed++
	remaining := c.remaining
	if remaining > 0 {
		c.scheduleLocked(c.tick, c.onTick)
	}
	mid := remaining > 0 && c.midEvery > 0 && c.elapsed%c.midEvery == 0
	c.mu.Unlock()

	if c.onCountdown != nil {
		c.onCountdown(remaining)
	}

	switch {
	case remaining <= 0:
		_ = c.refresh(c.ctx, TriggerCountdown)
	case mid:
		_ = c.refresh(c.ctx, TriggerMidCountdown)
	}
}

func (c *Coordinator) notifyCountdown(seed int) {
	if seed > 0 && c.onCountdown != nil && !c.Stopped() {
		c.onCountdown(seed)
	}
}

func (c *Coordinator) event(t events.EventType) events.BaseEvent {
	return events.NewPollerEvent(t, c.session)
}

func (c *Coordinator) emit(e events.Event) {
	c.emitter.Emit(e)
}

func (c *Coordinator) emitResolved(r status.Resolved, dir refresh.Directive) {
	s := status.Describe(r)
	c.emit(&events.StageResolvedEvent{
		BaseEvent:        c.event(events.EventStageResolved),
		Stage:            s.Stage,
		Variant:          s.Variant,
		Mode:             dir.Mode.String(),
		IntervalSeconds:  dir.IntervalSeconds,
		CountdownSeconds: dir.CountdownSeconds,
	})
	c.logger.Debug("stage resolved", "stage", s.Stage, "mode", dir.Mode)
}
