package scheduler

import (
	"context"
	stderrors "errors"
	"sync"
	"time"

	"jobfeed/common/lock"
	"jobfeed/common/telemetry"
	"jobfeed/services/ingestion/internal/errors"
	"jobfeed/services/ingestion/internal/ingest"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("jobfeed/ingestion/scheduler")

const (
	leaseKey        = "ingest"
	defaultLeaseTTL = time.Hour
	releaseTimeout  = 5 * time.Second
)

var (
	ErrAlreadyStarted = stderrors.New("scheduler already started")
	// ErrCycleRunning is returned by Trigger when a cycle is in flight in
	// this process or, through the lease, in another one.
	ErrCycleRunning = stderrors.New("ingestion cycle already running")
)

type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}
	return "idle"
}

// Runner executes one ingestion cycle.
type Runner interface {
	Run(ctx context.Context, trigger ingest.Trigger) ingest.RunSummary
}

type Options struct {
	// Schedule is a standard five-field cron expression; CRON_TZ= is honoured.
	Schedule string
	Locker   lock.Locker
	LeaseTTL time.Duration
	Clock    Clock
}

// JobScheduler runs a cycle at start-up and then on every cron tick. Cycles
// never overlap: a tick that fires while one is running is skipped.
type JobScheduler struct {
	runner   Runner
	schedule cron.Schedule
	locker   lock.Locker
	leaseTTL time.Duration
	clock    Clock
	logger   *zap.Logger

	mu      sync.Mutex
	state   State
	started bool
	cancel  context.CancelFunc
	done    chan struct{}
	wg      sync.WaitGroup
}

func NewJobScheduler(runner Runner, opts Options, logger *zap.Logger) (*JobScheduler, error) {
	schedule, err := cron.ParseStandard(opts.Schedule)
	if err != nil {
		return nil, errors.Config("parsing schedule", err)
	}
	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = defaultLeaseTTL
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}

	return &JobScheduler{
		runner:   runner,
		schedule: schedule,
		locker:   opts.Locker,
		leaseTTL: opts.LeaseTTL,
		clock:    opts.Clock,
		logger:   logger,
	}, nil
}

// Start runs one cycle immediately and then follows the schedule until ctx is
// cancelled or Stop is called. It blocks; in-flight cycles are cancelled and
// awaited before it returns.
func (s *JobScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()
	defer close(done)
	defer cancel()

	s.dispatch(loopCtx, ingest.TriggerStartup)

	for {
		now := s.clock.Now()
		next := s.schedule.Next(now)
		s.logger.Info("next ingestion cycle scheduled", zap.Time("at", next))

		select {
		case <-loopCtx.Done():
			s.wg.Wait()
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-s.clock.After(next.Sub(now)):
			s.dispatch(loopCtx, ingest.TriggerSchedule)
		}
	}
}

// Stop cancels the loop and any running cycle and waits for them to finish.
func (s *JobScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Trigger runs one cycle synchronously unless one is already running.
func (s *JobScheduler) Trigger(ctx context.Context) (ingest.RunSummary, error) {
	if !s.begin() {
		return ingest.RunSummary{}, ErrCycleRunning
	}
	defer s.finish()

	return s.cycle(ctx, ingest.TriggerManual)
}

func (s *JobScheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *JobScheduler) dispatch(ctx context.Context, trigger ingest.Trigger) {
	if ctx.Err() != nil {
		return
	}
	if !s.begin() {
		s.logger.Warn("previous cycle still running, skipping tick", zap.String("trigger", string(trigger)))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.finish()

		if _, err := s.cycle(ctx, trigger); err != nil && !stderrors.Is(err, ErrCycleRunning) {
			s.logger.Error("ingestion cycle failed", zap.String("trigger", string(trigger)), zap.Error(err))
		}
	}()
}

func (s *JobScheduler) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Running {
		return false
	}
	s.state = Running
	return true
}

func (s *JobScheduler) finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Idle
}

// cycle runs under the cross-process lease when a locker is configured.
func (s *JobScheduler) cycle(ctx context.Context, trigger ingest.Trigger) (ingest.RunSummary, error) {
	ctx, span := tracer.Start(ctx, "JobScheduler.cycle")
	defer span.End()
	span.SetAttributes(telemetry.String("run.trigger", string(trigger)))

	if s.locker != nil {
		release, err := s.locker.Acquire(ctx, leaseKey, s.leaseTTL)
		if stderrors.Is(err, lock.ErrNotAcquired) {
			s.logger.Warn("another process holds the ingestion lease, skipping cycle", zap.String("trigger", string(trigger)))
			return ingest.RunSummary{}, ErrCycleRunning
		}
		if err != nil {
			span.RecordError(err)
			return ingest.RunSummary{}, errors.Unavailable("acquiring ingestion lease", err)
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
			defer cancel()
			if err := release(releaseCtx); err != nil {
				s.logger.Warn("failed to release ingestion lease", zap.Error(err))
			}
		}()
	}

	return s.runner.Run(ctx, trigger), nil
}
