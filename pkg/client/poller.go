package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"review-backend/pkg/api"

	jitterbug "github.com/lthibault/jitterbug/v2"
)

const (
	// DefaultPollInterval matches the cadence the web frontend polls at.
	DefaultPollInterval = 5 * time.Second

	// DefaultMaxPolls bounds a polling run so that a stuck task cannot keep
	// a client polling forever. At the default interval this is ten minutes.
	DefaultMaxPolls = 120
)

// Poller states. A run moves idle -> submitted -> polling and settles in
// done, failed, or given-up. Cancellation returns the poller to idle.
const (
	StateIdle      = "idle"
	StateSubmitted = "submitted"
	StatePolling   = "polling"
	StateDone      = "done"
	StateFailed    = "failed"
	StateGivenUp   = "given-up"
)

// ErrGaveUp marks an outcome whose task was still pending after MaxPolls
// result checks.
var ErrGaveUp = errors.New("gave up waiting for task result")

type PollerConfig struct {
	// Interval between result checks. Defaults to DefaultPollInterval.
	Interval time.Duration

	// Jitter is the standard deviation applied to each interval so that many
	// clients do not poll in lockstep. Defaults to 30ms.
	Jitter time.Duration

	// MaxPolls is the number of result checks before the poller gives up.
	// Defaults to DefaultMaxPolls; a negative value polls without bound.
	MaxPolls int
}

// Outcome is the final result of a polling run. State is done, failed, or
// given-up. Task is the last task observed from the backend, zero valued
// when the submission itself failed. Err is set unless State is done.
type Outcome struct {
	State string
	Task  api.Task
	Err   error
}

// Poller submits a task and polls the matching result endpoint until the
// task is terminal, the run is cancelled, or the poll budget runs out.
// Polling failures are delivered through the outcome channel, the only
// error the submit methods return is misuse while a run is in flight.
type Poller struct {
	client *Client
	cfg    PollerConfig

	mu     sync.Mutex
	state  string
	cancel context.CancelFunc
	done   chan struct{}
}

func NewPoller(client *Client, cfg PollerConfig) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultPollInterval
	}
	if cfg.Jitter <= 0 {
		cfg.Jitter = 30 * time.Millisecond
	}
	if cfg.MaxPolls == 0 {
		cfg.MaxPolls = DefaultMaxPolls
	}

	return &Poller{client: client, cfg: cfg, state: StateIdle}
}

func (p *Poller) State() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SubmitSingle submits text for analysis and polls for the result. The
// returned channel delivers exactly one Outcome, unless the run is
// cancelled first, in which case it is closed without a value.
func (p *Poller) SubmitSingle(ctx context.Context, userId, text string) (<-chan Outcome, error) {
	return p.run(ctx,
		func(ctx context.Context) (api.Task, error) { return p.client.SubmitSingle(ctx, userId, text) },
		func(ctx context.Context) (api.Task, error) { return p.client.GetSingleResult(ctx, userId) },
	)
}

// SubmitBatch uploads a review file for analysis and polls for the result.
func (p *Poller) SubmitBatch(ctx context.Context, userId, filename string, file io.Reader) (<-chan Outcome, error) {
	return p.run(ctx,
		func(ctx context.Context) (api.Task, error) { return p.client.SubmitBatch(ctx, userId, filename, file) },
		func(ctx context.Context) (api.Task, error) { return p.client.GetBatchResult(ctx, userId) },
	)
}

// Cancel stops the current run. It blocks until the polling loop has
// exited, so once it returns no further requests are issued and the outcome
// channel has been closed.
func (p *Poller) Cancel() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (p *Poller) run(ctx context.Context, submit, fetch func(context.Context) (api.Task, error)) (<-chan Outcome, error) {
	p.mu.Lock()
	if p.state == StateSubmitted || p.state == StatePolling {
		p.mu.Unlock()
		return nil, fmt.Errorf("poller is busy: state is '%s'", p.state)
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	p.state = StateSubmitted
	p.cancel = cancel
	p.done = done
	p.mu.Unlock()

	outcome := make(chan Outcome, 1)

	task, err := submit(runCtx)
	if err != nil {
		cancel()
		p.finish(outcome, done, Outcome{State: StateFailed, Err: err})
		return outcome, nil
	}

	if final, terminal := taskOutcome(task); terminal {
		cancel()
		p.finish(outcome, done, final)
		return outcome, nil
	}

	p.setState(StatePolling)
	go p.poll(runCtx, cancel, fetch, task, outcome, done)

	return outcome, nil
}

// poll runs the result loop. It is synchronous, so a slow request causes
// ticks to be dropped rather than overlapping polls.
func (p *Poller) poll(ctx context.Context, cancel context.CancelFunc, fetch func(context.Context) (api.Task, error), last api.Task, outcome chan Outcome, done chan struct{}) {
	defer cancel()

	ticker := jitterbug.New(p.cfg.Interval, &jitterbug.Norm{Stdev: p.cfg.Jitter, Mean: 0})
	defer ticker.Stop()

	for polls := 0; ; {
		select {
		case <-ctx.Done():
			p.abandon(outcome, done)
			return
		case <-ticker.C:
		}

		if p.cfg.MaxPolls > 0 && polls >= p.cfg.MaxPolls {
			p.finish(outcome, done, Outcome{State: StateGivenUp, Task: last, Err: ErrGaveUp})
			return
		}
		polls++

		task, err := fetch(ctx)
		if ctx.Err() != nil {
			p.abandon(outcome, done)
			return
		}
		if err != nil {
			p.finish(outcome, done, Outcome{State: StateFailed, Task: last, Err: err})
			return
		}

		last = task
		if final, terminal := taskOutcome(task); terminal {
			p.finish(outcome, done, final)
			return
		}
	}
}

func (p *Poller) finish(outcome chan Outcome, done chan struct{}, final Outcome) {
	p.setState(final.State)
	outcome <- final
	close(outcome)
	close(done)
}

// abandon ends a cancelled run without delivering an outcome.
func (p *Poller) abandon(outcome chan Outcome, done chan struct{}) {
	p.setState(StateIdle)
	close(outcome)
	close(done)
}

func (p *Poller) setState(state string) {
	p.mu.Lock()
	p.state = state
	p.mu.Unlock()
}

func taskOutcome(task api.Task) (Outcome, bool) {
	switch task.Status {
	case api.StatusReady:
		return Outcome{State: StateDone, Task: task}, true
	case api.StatusError:
		final := Outcome{State: StateFailed, Task: task}
		if task.Error != nil {
			final.Err = fmt.Errorf("task failed with code %s: %s", task.Error.Code, task.Error.Description)
		} else {
			final.Err = errors.New("task failed")
		}
		return final, true
	default:
		return Outcome{}, false
	}
}
