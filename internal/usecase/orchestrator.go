package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"TragedyWatch/internal/domain"
	"TragedyWatch/internal/ports"
)

const (
	// DefaultBackoffDelay is the fixed wait after a failed scheduled poll.
	DefaultBackoffDelay = 60 * time.Second
	// FallbackInterval replaces a schedule that yields no future tick.
	FallbackInterval = 5 * time.Minute
)

var (
	// ErrOrchestratorStopped is returned by Trigger once Run has returned.
	ErrOrchestratorStopped = errors.New("orchestrator stopped")
	// ErrAlreadyRunning is returned by a second concurrent Run.
	ErrAlreadyRunning = errors.New("orchestrator already running")
)

// State is the timer loop position.
type State string

const (
	StateIdle    State = "idle"
	StatePolling State = "polling"
	StateBackoff State = "backoff"
	StateStopped State = "stopped"
)

// Poller runs a single poll routine.
type Poller interface {
	Poll(ctx context.Context, trigger domain.Trigger) (domain.PollReport, error)
}

// Counter reports how many articles are stored.
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// OrchestratorDeps configures the timer loop and manual triggers.
type OrchestratorDeps struct {
	Poller       Poller
	Counter      Counter
	Schedule     ports.Schedule
	BackoffDelay time.Duration
	RunOnStart   bool
	Logger       *slog.Logger
}

// Status is a point-in-time copy of the orchestrator's bookkeeping.
type Status struct {
	State               State
	NextRunAt           time.Time
	LastStartedAt       time.Time
	LastFinishedAt      time.Time
	LastReport          *domain.PollReport
	LastError           string
	ConsecutiveFailures int
	InFlightManual      int
}

// Orchestrator drives the poll routine on a schedule and on demand.
// Idle → Polling on tick; Polling → Idle on success or Backoff on a batch
// error; Backoff → Idle after a fixed delay with an immediate re-attempt.
type Orchestrator struct {
	poller     Poller
	counter    Counter
	schedule   ports.Schedule
	backoff    time.Duration
	runOnStart bool
	logger     *slog.Logger

	manual sync.WaitGroup

	mu      sync.Mutex
	running bool
	stopped bool
	status  Status
}

// NewOrchestrator builds the state machine in Idle.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	backoff := deps.BackoffDelay
	if backoff <= 0 {
		backoff = DefaultBackoffDelay
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		poller:     deps.Poller,
		counter:    deps.Counter,
		schedule:   deps.Schedule,
		backoff:    backoff,
		runOnStart: deps.RunOnStart,
		logger:     logger.With("component", "orchestrator"),
		status:     Status{State: StateIdle},
	}
}

// Run drives the timer loop until ctx is cancelled. An in-flight routine is
// allowed to finish, then manual runs are awaited and the state becomes Stopped.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.poller == nil || o.schedule == nil {
		return fmt.Errorf("orchestrator requires a poller and a schedule")
	}

	o.mu.Lock()
	if o.running || o.stopped {
		o.mu.Unlock()
		return ErrAlreadyRunning
	}
	o.running = true
	o.mu.Unlock()

	defer o.stop()

	pollNow := o.runOnStart
	for {
		if !pollNow {
			next := o.nextTick(time.Now())
			o.enter(StateIdle, next)
			o.logger.Debug("waiting for next tick", "next_run_at", next)
			if !sleep(ctx, time.Until(next)) {
				return nil
			}
		}
		pollNow = false

		if ctx.Err() != nil {
			return nil
		}

		o.enter(StatePolling, time.Time{})
		if err := o.scheduledPoll(ctx); err == nil {
			continue
		}

		o.enter(StateBackoff, time.Now().Add(o.backoff))
		o.logger.Warn("poll failed, backing off", "delay", o.backoff)
		if !sleep(ctx, o.backoff) {
			return nil
		}
		o.enter(StateIdle, time.Time{})
		pollNow = true
	}
}

// Trigger reads the current article count and starts an extra poll routine
// in the background. It does not touch the timer.
func (o *Orchestrator) Trigger(ctx context.Context) (int, error) {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return 0, ErrOrchestratorStopped
	}
	o.manual.Add(1)
	o.status.InFlightManual++
	o.mu.Unlock()

	count, err := o.count(ctx)
	if err != nil {
		o.manualDone()
		return 0, err
	}

	runCtx := context.WithoutCancel(ctx)
	go func() {
		defer o.manualDone()
		report, err := o.poller.Poll(runCtx, domain.TriggerManual)
		o.record(report, err)
		if err != nil {
			o.logger.Error("manual poll failed", "run_id", report.RunID, "error", err)
		}
	}()

	return count, nil
}

// Status returns a snapshot for reporting.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := o.status
	if s.LastReport != nil {
		r := *s.LastReport
		s.LastReport = &r
	}
	return s
}

// nextTick asks the schedule for the next activation. A zero or past time
// would spin the loop, so it is replaced by FallbackInterval.
func (o *Orchestrator) nextTick(now time.Time) time.Time {
	next := o.schedule.Next(now)
	if next.After(now) {
		return next
	}
	o.logger.Error("schedule yielded no future tick, using fallback interval",
		"next", next, "fallback", FallbackInterval)
	return now.Add(FallbackInterval)
}

func (o *Orchestrator) scheduledPoll(ctx context.Context) error {
	report, err := o.poller.Poll(context.WithoutCancel(ctx), domain.TriggerSchedule)
	o.record(report, err)

	o.mu.Lock()
	if err != nil {
		o.status.ConsecutiveFailures++
	} else {
		o.status.ConsecutiveFailures = 0
	}
	o.mu.Unlock()
	return err
}

func (o *Orchestrator) record(report domain.PollReport, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.status.LastStartedAt = report.StartedAt
	o.status.LastFinishedAt = report.FinishedAt
	o.status.LastReport = &report
	o.status.LastError = ""
	if err != nil {
		o.status.LastError = err.Error()
	}
}

func (o *Orchestrator) count(ctx context.Context) (int, error) {
	if o.counter == nil {
		return 0, nil
	}
	n, err := o.counter.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return n, nil
}

func (o *Orchestrator) enter(state State, next time.Time) {
	o.mu.Lock()
	o.status.State = state
	o.status.NextRunAt = next
	o.mu.Unlock()
}

func (o *Orchestrator) manualDone() {
	o.mu.Lock()
	o.status.InFlightManual--
	o.mu.Unlock()
	o.manual.Done()
}

func (o *Orchestrator) stop() {
	o.mu.Lock()
	o.stopped = true
	o.mu.Unlock()

	o.manual.Wait()

	o.mu.Lock()
	o.running = false
	o.status.State = StateStopped
	o.status.NextRunAt = time.Time{}
	o.mu.Unlock()
	o.logger.Info("orchestrator stopped")
}

// sleep waits for d or until ctx is done; it reports whether the wait completed.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
