package madrigal

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/maroda/madrigal/cycle"
	Mo "github.com/maroda/madrigal/obvy"
	Mpat "github.com/maroda/madrigal/pattern"
	Mp "github.com/maroda/madrigal/plugin"
	Mt "github.com/maroda/madrigal/types"
)

const (
	DefaultTick      = 50 * time.Millisecond
	DefaultLookahead = 100 * time.Millisecond
)

// DefaultCPS is half a cycle per second, one cycle every two seconds
var DefaultCPS = cycle.New(1, 2)

// SchedulerConfig sets up a Scheduler. Zero values take the defaults,
// Output is the only field without one.
type SchedulerConfig struct {
	CPS          cycle.Fraction
	Tick         time.Duration // how often the pattern is queried
	Lookahead    time.Duration // how far past now each query reaches
	Output       Mp.OutputAdapter
	Samples      *Mp.SampleBank // when set, sounds it lacks are skipped
	Transformers []Mp.TriggerTransformer
	Stats        *Mo.StatsInternal
	OnError      func(error) // called for every reported error, from any goroutine
}

// Scheduler drives a ControlPattern against the wall clock.
//
// All transport state lives in one goroutine. Start, Pause, Resume,
// Stop, SetCPS, SetPattern and State are messages to that goroutine,
// the same one that runs the ticks, so nothing here is locked.
// Triggers fire from timers; each carries the epoch it was scheduled
// in and is dropped if the epoch moved on before it fired.
type Scheduler struct {
	cmds      chan command
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	inflight  sync.WaitGroup // scheduled timers not yet fired or stopped

	epoch atomic.Uint64
	fired atomic.Int64

	tick         time.Duration
	lookahead    time.Duration
	output       Mp.OutputAdapter
	samples      *Mp.SampleBank
	transformers []Mp.TriggerTransformer
	Stats        *Mo.StatsInternal
	onError      func(error)
}

type opcode int

const (
	opStart opcode = iota
	opPause
	opResume
	opStop
	opSetCPS
	opSetPattern
	opState
)

var opNames = map[opcode]string{
	opStart: "start", opPause: "pause", opResume: "resume", opStop: "stop",
	opSetCPS: "setcps", opSetPattern: "setpattern", opState: "state",
}

type command struct {
	op    opcode
	cps   cycle.Fraction
	pat   Mpat.ControlPattern
	reply chan reply
}

type reply struct {
	err       error
	transport Mt.Transport
}

type pendingTrigger struct {
	timer *time.Timer
	onset time.Time
}

// transport is the loop goroutine's private state
type transport struct {
	state       Mt.TransportState
	pat         Mpat.ControlPattern
	cps         cycle.Fraction
	staged      *cycle.Fraction
	anchorWall  time.Time      // wall clock instant of anchorCycle
	anchorCycle cycle.Fraction // cycle position at anchorWall
	origin      cycle.Fraction // where this run started playing
	lastQueried cycle.Fraction // everything before this has been scheduled
	position    cycle.Fraction // kept while paused
	session     string
	ticker      *time.Ticker
	pending     map[uint64]pendingTrigger
	nextID      uint64
	reported    map[string]bool
}

// NewScheduler starts the loop goroutine, stopped and silent.
func NewScheduler(c SchedulerConfig) *Scheduler {
	if c.Tick <= 0 {
		c.Tick = DefaultTick
	}
	if c.Lookahead < 0 {
		c.Lookahead = 0
	}
	if c.Lookahead == 0 {
		c.Lookahead = DefaultLookahead
	}
	if c.CPS.Sign() <= 0 {
		c.CPS = DefaultCPS
	}
	if c.Stats == nil {
		c.Stats = Mo.NewStatsInternal()
	}
	if c.Output == nil {
		c.Output = Mp.NewFanout()
	}

	s := &Scheduler{
		cmds:         make(chan command),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
		tick:         c.Tick,
		lookahead:    c.Lookahead,
		output:       c.Output,
		samples:      c.Samples,
		transformers: c.Transformers,
		Stats:        c.Stats,
		onError:      c.OnError,
	}

	go s.loop(&transport{
		state:    Mt.Stopped,
		cps:      c.CPS,
		pending:  make(map[uint64]pendingTrigger),
		reported: make(map[string]bool),
	})

	return s
}

func (s *Scheduler) Start() error  { return s.send(command{op: opStart}).err }
func (s *Scheduler) Pause() error  { return s.send(command{op: opPause}).err }
func (s *Scheduler) Resume() error { return s.send(command{op: opResume}).err }
func (s *Scheduler) Stop() error   { return s.send(command{op: opStop}).err }

// SetCPS changes the tempo. While running the change waits for the
// next tick, triggers already scheduled keep their times.
func (s *Scheduler) SetCPS(cps cycle.Fraction) error {
	if cps.Sign() <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCPS, cps)
	}
	return s.send(command{op: opSetCPS, cps: cps}).err
}

// SetPattern swaps the pattern from the next tick on.
func (s *Scheduler) SetPattern(p Mpat.ControlPattern) error {
	return s.send(command{op: opSetPattern, pat: p}).err
}

// State is a snapshot of the transport
func (s *Scheduler) State() Mt.Transport {
	return s.send(command{op: opState}).transport
}

// Fired counts triggers handed to the output since creation
func (s *Scheduler) Fired() int64 { return s.fired.Load() }

// Close stops the transport and the loop goroutine, then waits for
// triggers already being written. Outputs are left open, they belong to
// the caller, and nothing writes to them once Close returns.
func (s *Scheduler) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
	<-s.done
	s.inflight.Wait()
}

func (s *Scheduler) send(c command) reply {
	c.reply = make(chan reply, 1)
	select {
	case s.cmds <- c:
	case <-s.done:
		return reply{err: ErrClosed}
	}
	select {
	case r := <-c.reply:
		return r
	case <-s.done:
		return reply{err: ErrClosed}
	}
}

func (s *Scheduler) loop(t *transport) {
	defer close(s.done)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic in scheduler loop", slog.Any("panic", r))
			slog.Error("Recovered from panic", slog.String("stack", string(debug.Stack())))
			s.halt(t)
		}
	}()

	for {
		var tickC <-chan time.Time
		if t.ticker != nil {
			tickC = t.ticker.C
		}

		select {
		case c := <-s.cmds:
			c.reply <- s.handle(t, c)
		case now := <-tickC:
			s.runTick(t, now)
		case <-s.quit:
			s.halt(t)
			return
		}
	}
}

func (s *Scheduler) handle(t *transport, c command) reply {
	now := time.Now()
	var err error

	switch c.op {
	case opStart:
		if t.state != Mt.Stopped {
			err = ErrAlreadyRunning
			break
		}
		t.session = uuid.NewString()
		clear(t.reported)
		s.play(t, now, cycle.Zero)
		slog.Info("Transport started", slog.String("session", t.session), slog.String("cps", t.cps.String()))

	case opPause:
		if t.state != Mt.Running {
			err = ErrNotRunning
			break
		}
		t.position = s.positionAt(t, now)
		s.cancel(t)
		t.state = Mt.Paused
		slog.Info("Transport paused", slog.String("cycle", t.position.String()))

	case opResume:
		if t.state != Mt.Paused {
			err = ErrNotPaused
			break
		}
		s.play(t, now, t.position)
		slog.Info("Transport resumed", slog.String("cycle", t.position.String()))

	case opStop:
		if t.state == Mt.Stopped {
			err = ErrNotRunning
			break
		}
		s.halt(t)
		slog.Info("Transport stopped")

	case opSetCPS:
		if t.state == Mt.Running {
			staged := c.cps
			t.staged = &staged
		} else {
			t.cps = c.cps
		}
		slog.Info("Tempo set", slog.String("cps", c.cps.String()))

	case opSetPattern:
		t.pat = c.pat

	case opState:
		return reply{transport: s.snapshot(t, now)}
	}

	result := "ok"
	if err != nil {
		result = "noop"
		slog.Warn("Transport command ignored", slog.String("command", opNames[c.op]), slog.Any("error", err))
	}
	s.Stats.RecTransport(opNames[c.op], result)
	return reply{err: err}
}

// play anchors the clock so from sounds one lookahead from now.
// The lead-in gives the first window time to be scheduled.
func (s *Scheduler) play(t *transport, now time.Time, from cycle.Fraction) {
	t.anchorWall = now.Add(s.lookahead)
	t.anchorCycle = from
	t.origin = from
	t.lastQueried = from
	t.state = Mt.Running
	if t.staged != nil {
		t.cps = *t.staged
		t.staged = nil
	}
	t.ticker = time.NewTicker(s.tick)
}

// halt is Stop without the bookkeeping of a command
func (s *Scheduler) halt(t *transport) {
	s.cancel(t)
	t.state = Mt.Stopped
	t.position = cycle.Zero
	t.lastQueried = cycle.Zero
	t.session = ""
	if t.staged != nil {
		t.cps = *t.staged
		t.staged = nil
	}
}

// cancel releases the clock and drops every trigger not yet fired
func (s *Scheduler) cancel(t *transport) {
	s.epoch.Add(1)
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
	for id, p := range t.pending {
		if p.timer.Stop() {
			s.Stats.RecDropped()
			s.inflight.Done()
		}
		delete(t.pending, id)
	}
}

// cycleAt maps a wall clock instant onto the current anchor, exactly
func (t *transport) cycleAt(now time.Time) cycle.Fraction {
	elapsed := cycle.New(now.Sub(t.anchorWall).Nanoseconds(), int64(time.Second))
	return t.anchorCycle.Add(elapsed.Mul(t.cps))
}

// wallAt is the inverse of cycleAt
func (t *transport) wallAt(c cycle.Fraction) time.Time {
	return t.anchorWall.Add(t.duration(c.Sub(t.anchorCycle)))
}

func (t *transport) duration(cycles cycle.Fraction) time.Duration {
	secs := cycles.MustDiv(t.cps)
	return time.Duration(math.Round(secs.Float64() * float64(time.Second)))
}

func (s *Scheduler) positionAt(t *transport, now time.Time) cycle.Fraction {
	switch t.state {
	case Mt.Running:
		return cycle.Max(t.cycleAt(now), t.origin)
	case Mt.Paused:
		return t.position
	default:
		return cycle.Zero
	}
}

func (s *Scheduler) snapshot(t *transport, now time.Time) Mt.Transport {
	cps := t.cps
	if t.staged != nil {
		cps = *t.staged
	}
	pending := 0
	for _, p := range t.pending {
		if p.onset.After(now) {
			pending++
		}
	}
	return Mt.Transport{
		State:     t.state,
		SessionID: t.session,
		Epoch:     s.epoch.Load(),
		CPS:       cps.String(),
		Cycle:     s.positionAt(t, now).String(),
		Pending:   pending,
	}
}

// runTick schedules every onset in [lastQueried, now + lookahead)
func (s *Scheduler) runTick(t *transport, now time.Time) {
	start := time.Now()
	_, span := Mo.Tracer().Start(context.Background(), "scheduler.tick")
	defer span.End()

	if t.staged != nil {
		t.anchorCycle = t.cycleAt(now)
		t.anchorWall = now
		t.cps = *t.staged
		t.staged = nil
		slog.Debug("Tempo applied", slog.String("cps", t.cps.String()))
	}

	horizon := t.cycleAt(now.Add(s.lookahead))
	if !t.lastQueried.Lt(horizon) {
		return
	}
	window := cycle.Span(t.lastQueried, horizon)
	t.lastQueried = horizon

	events := s.query(t.pat, window)
	scheduled := 0
	for _, ev := range events {
		if !ev.HasOnset() {
			continue
		}
		if s.schedule(t, ev, now) {
			scheduled++
		}
	}
	s.prune(t, now)

	elapsed := time.Since(start)
	s.Stats.RecTickTimer(elapsed.Seconds())
	span.SetAttributes(
		attribute.String("window", window.String()),
		attribute.Int("events", len(events)),
		attribute.Int("scheduled", scheduled),
	)

	if elapsed > s.tick {
		err := &SchedulingOverrunError{Elapsed: elapsed, Interval: s.tick, Window: window}
		span.SetStatus(codes.Error, err.Error())
		s.Stats.RecOverrun()
		s.report(err)
	}
}

// query keeps a failing pattern from taking the loop down
func (s *Scheduler) query(p Mpat.ControlPattern, window cycle.TimeSpan) (events []Mpat.Event[Mt.Controls]) {
	defer func() {
		if r := recover(); r != nil {
			s.report(fmt.Errorf("pattern query over %s failed: %v", window, r))
			events = nil
		}
	}()
	return p.Query(window)
}

func (s *Scheduler) schedule(t *transport, ev Mpat.Event[Mt.Controls], now time.Time) bool {
	whole := *ev.Whole
	onset := t.wallAt(whole.Begin)
	delay := onset.Sub(now)
	late := delay <= 0
	if late {
		delay = 0
	}

	trig := NewTrigger(t.session, s.epoch.Load(), ev, onset, delay, t.duration(whole.Width()))
	trig.Late = late

	if s.samples != nil {
		if name, ok := trig.Payload["s"].(string); ok {
			if err := s.samples.Check(name); err != nil {
				s.Stats.RecUnknownRef("sample")
				if !t.reported[name] {
					t.reported[name] = true
					s.report(err)
				}
				return false
			}
		}
	}

	t.nextID++
	s.inflight.Add(1)
	t.pending[t.nextID] = pendingTrigger{
		timer: time.AfterFunc(delay, func() {
			defer s.inflight.Done()
			s.fire(trig)
		}),
		onset: onset,
	}
	return true
}

// prune forgets triggers that have long since fired
func (s *Scheduler) prune(t *transport, now time.Time) {
	cutoff := now.Add(-time.Second)
	for id, p := range t.pending {
		if p.onset.Before(cutoff) {
			delete(t.pending, id)
		}
	}
}

// fire runs on the timer goroutine
func (s *Scheduler) fire(trig *Mt.Trigger) {
	if s.epoch.Load() != trig.Epoch {
		s.Stats.RecDropped()
		return
	}
	for _, tr := range s.transformers {
		if err := tr.Transform(trig); err != nil {
			s.report(fmt.Errorf("transformer %s: %w", tr.Type(), err))
		}
	}
	if err := s.output.WriteTrigger(trig); err != nil {
		s.report(fmt.Errorf("output %s: %w", s.output.Type(), err))
	}
	s.fired.Add(1)
	s.Stats.RecTrigger(trig.Late)
}

func (s *Scheduler) report(err error) {
	slog.Error("Scheduler error", slog.Any("error", err))
	if s.onError != nil {
		s.onError(err)
	}
}
