package sim

import (
	"context"
	"fmt"
	"sync"

	"stocksim/internal/portfolio"
	"stocksim/internal/ports"
)

// RunnerState is the lifecycle state of a background simulation run.
type RunnerState string

const (
	StateIdle      RunnerState = "idle"
	StateRunning   RunnerState = "running"
	StatePaused    RunnerState = "paused"
	StateStopped   RunnerState = "stopped"
	StateCompleted RunnerState = "completed"
)

// Status is an immutable snapshot of a runner's progress, safe to hand out
// across goroutines.
type Status struct {
	State         RunnerState       `json:"state"`
	CurrentDay    int               `json:"current_day"`
	TotalDays     int               `json:"total_days"`
	CurrentDate   string            `json:"current_date"`
	Summary       portfolio.Summary `json:"summary"`
	LastAnalysis  string            `json:"last_analysis"`
	LastReasoning string            `json:"last_reasoning"`
	TradesSoFar   int               `json:"trades_so_far"`
}

// Runner executes a Stepper on a worker goroutine with cooperative
// pause/resume/stop. Pause and stop are honored only at day boundaries: an
// in-flight day always completes first, and a stopped run keeps every
// snapshot taken so far for its report.
type Runner struct {
	logger ports.Logger

	mu      sync.Mutex
	cond    *sync.Cond
	state   RunnerState
	status  Status
	paused  bool
	stopped bool
	cancel  context.CancelFunc
	done    chan struct{}
	report  *Report
	runErr  error
}

// NewRunner creates an idle runner.
func NewRunner(log ports.Logger) *Runner {
	r := &Runner{logger: log, state: StateIdle}
	r.cond = sync.NewCond(&r.mu)
	r.status.State = StateIdle
	return r
}

// Start launches the run on a worker goroutine. Only an idle, stopped, or
// completed runner can be started; a second Start while running is rejected.
func (r *Runner) Start(ctx context.Context, cfg Config, prices ports.PriceStore, decider ports.DecisionSource) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == StateRunning || r.state == StatePaused {
		return fmt.Errorf("%w: a run is already in progress", ports.ErrConfigurationError)
	}

	runCtx, cancel := context.WithCancel(ctx)
	stepper, err := NewStepper(cfg, prices, decider, r.logger, r.onDayEnd)
	if err != nil {
		cancel()
		return err
	}

	r.state = StateRunning
	r.paused = false
	r.stopped = false
	r.cancel = cancel
	r.done = make(chan struct{})
	r.report = nil
	r.runErr = nil
	r.status = Status{State: StateRunning}

	go func() {
		defer close(r.done)
		report, runErr := stepper.Run(runCtx)
		cancel()

		r.mu.Lock()
		r.report = report
		r.runErr = runErr
		if r.stopped {
			r.state = StateStopped
		} else {
			r.state = StateCompleted
		}
		r.status.State = r.state
		r.mu.Unlock()
	}()
	return nil
}

// onDayEnd publishes the day's status, then blocks while paused. It runs on
// the worker goroutine between days, which is what makes pause cooperative.
func (r *Runner) onDayEnd(day DayResult) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.status = Status{
		State:       r.state,
		CurrentDay:  day.Index + 1,
		TotalDays:   day.Total,
		CurrentDate: day.Date,
		Summary:     day.Summary,
		TradesSoFar: r.status.TradesSoFar + len(day.Applied),
	}
	if day.Decision != nil {
		r.status.LastAnalysis = day.Decision.Analysis
		r.status.LastReasoning = day.Decision.Reasoning
	}

	for r.paused && !r.stopped {
		r.status.State = StatePaused
		r.cond.Wait()
	}
	if !r.stopped {
		r.status.State = StateRunning
	}
}

// Pause requests a pause at the next day boundary.
func (r *Runner) Pause() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateRunning && r.state != StatePaused {
		return fmt.Errorf("%w: no run in progress", ports.ErrConfigurationError)
	}
	r.paused = true
	r.state = StatePaused
	return nil
}

// Resume releases a paused run.
func (r *Runner) Resume() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.paused {
		return fmt.Errorf("%w: run is not paused", ports.ErrConfigurationError)
	}
	r.paused = false
	r.state = StateRunning
	r.cond.Broadcast()
	return nil
}

// Stop aborts the run before the next day starts. Snapshots taken so far
// remain available through Report once the worker exits.
func (r *Runner) Stop() error {
	r.mu.Lock()
	if r.state != StateRunning && r.state != StatePaused {
		r.mu.Unlock()
		return fmt.Errorf("%w: no run in progress", ports.ErrConfigurationError)
	}
	r.stopped = true
	r.paused = false
	cancel := r.cancel
	r.cond.Broadcast()
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// Status returns the latest published progress snapshot.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Wait blocks until the worker goroutine exits. Returns immediately if no
// run was started.
func (r *Runner) Wait() {
	r.mu.Lock()
	done := r.done
	r.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Report returns the run's final report once the worker has exited, or nil
// while the run is still in progress.
func (r *Runner) Report() (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateCompleted && r.state != StateStopped {
		return nil, nil
	}
	return r.report, r.runErr
}

// State returns the runner's lifecycle state.
func (r *Runner) State() RunnerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}
