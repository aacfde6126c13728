package poller

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Task is one unit of periodic work driven by a [Scheduler].
//
// Names must be unique within a scheduler; they key the per-task timing
// state. An Interval of 0 means the scheduler's global interval is used.
type Task[R any] interface {
	Name() string
	Interval() time.Duration
	Run(ctx context.Context) R
}

// Scheduler manages periodic execution of multiple tasks.
//
// Scheduler implements a worker pool pattern, running configured tasks
// at their respective intervals with configurable concurrency. Results are
// emitted to a channel that can be consumed by the caller.
//
// The scheduler runs all tasks immediately on start, then uses a
// tick-and-check pattern where it ticks at the GCD of all task intervals
// and runs only tasks that are due.
//
// All lifecycle methods (Start, Stop) are safe for concurrent use.
type Scheduler[R any] struct {
	tasks          []Task[R]
	interval       time.Duration // global default interval
	maxConcurrency int
	results        chan R
	logger         *slog.Logger
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup

	mu        sync.Mutex
	started   bool
	stopped   bool
	closeOnce sync.Once

	// per-task timing for tick-and-check pattern
	lastRunAt    map[string]time.Time
	baseInterval time.Duration
}

// NewScheduler creates a new [Scheduler].
//
// Parameters:
//   - tasks: Tasks to run
//   - interval: Default time between runs of a task
//   - maxConcurrency: Maximum number of tasks running at once
//   - logger: Logger for scheduler events (panic recovery, etc.)
//
// The scheduler must be started with [Scheduler.Start] and stopped with
// [Scheduler.Stop]. Results are available via [Scheduler.Results].
func NewScheduler[R any](tasks []Task[R], interval time.Duration, maxConcurrency int, logger *slog.Logger) *Scheduler[R] {
	if maxConcurrency < 1 {
		maxConcurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler[R]{
		tasks:          tasks,
		interval:       interval,
		maxConcurrency: maxConcurrency,
		results:        make(chan R, len(tasks)),
		logger:         logger,
	}
}

// Results returns a receive-only channel that emits task results.
//
// The channel is closed when the scheduler stops. Consumers should read from
// this channel until it is closed to receive all results.
func (s *Scheduler[R]) Results() <-chan R {
	return s.results
}

// calculateBaseInterval determines the tick interval for the scheduler.
// Uses the GCD of all task intervals to ensure timely runs.
func (s *Scheduler[R]) calculateBaseInterval() time.Duration {
	if len(s.tasks) == 0 {
		return s.interval
	}

	intervals := make([]time.Duration, 0, len(s.tasks))
	for _, t := range s.tasks {
		if d := t.Interval(); d > 0 {
			intervals = append(intervals, d)
		} else {
			intervals = append(intervals, s.interval)
		}
	}

	result := intervals[0]
	for _, d := range intervals[1:] {
		result = gcdDuration(result, d)
	}

	// floor at 1 second to prevent CPU thrashing
	if result < time.Second {
		result = time.Second
	}

	return result
}

// gcdDuration calculates the greatest common divisor of two durations.
func gcdDuration(a, b time.Duration) time.Duration {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

// Start begins the run loop in a background goroutine.
//
// Start is non-blocking and returns immediately. The scheduler will:
//  1. Run all tasks immediately
//  2. Tick at the GCD of all task intervals
//  3. Run only tasks that are due on each tick
//  4. Continue until [Scheduler.Stop] is called or the context is cancelled
//
// If ctx is nil, context.Background() is used as the parent context.
// Start is idempotent; subsequent calls after the first are no-ops.
// If Stop was called before Start, Start is a no-op.
func (s *Scheduler[R]) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started || s.stopped {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.lastRunAt = make(map[string]time.Time, len(s.tasks))
	s.baseInterval = s.calculateBaseInterval()

	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	runCtx := s.ctx // capture under lock to avoid race
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()
		defer s.closeOnce.Do(func() { close(s.results) })

		s.runDueTasks(runCtx, true)

		ticker := time.NewTicker(s.baseInterval)
		defer ticker.Stop()

		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				s.runDueTasks(runCtx, false)
			}
		}
	}()
}

// Stop halts the scheduler and waits for all goroutines to complete.
//
// Stop cancels the scheduler's context and blocks until:
//   - The run loop exits
//   - All in-flight tasks complete
//   - The results channel is closed
//
// Stop is idempotent and safe to call multiple times. Calling Stop before
// Start is a safe no-op.
func (s *Scheduler[R]) Stop() {
	s.mu.Lock()
	if !s.stopped {
		s.stopped = true
		if s.cancel != nil {
			s.cancel()
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	// ensure channel is closed even if Start() was never called
	s.closeOnce.Do(func() { close(s.results) })
}

// runDueTasks runs only tasks that are due based on their intervals.
// If immediate is true, runs all tasks regardless of timing.
//
// TIMING SEMANTIC: lastRunAt is updated when a run STARTS, not when it
// completes. This prevents concurrent runs of the same task but means
// effective interval = configured interval + run duration for slow tasks.
func (s *Scheduler[R]) runDueTasks(ctx context.Context, immediate bool) {
	now := time.Now()
	due := make([]Task[R], 0, len(s.tasks))

	s.mu.Lock()
	for _, t := range s.tasks {
		if immediate {
			due = append(due, t)
			s.lastRunAt[t.Name()] = now
			continue
		}

		interval := t.Interval()
		if interval == 0 {
			interval = s.interval // use global default
		}

		lastRun, exists := s.lastRunAt[t.Name()]
		if !exists || now.Sub(lastRun) >= interval {
			due = append(due, t)
			s.lastRunAt[t.Name()] = now
		}
	}
	s.mu.Unlock()

	if len(due) == 0 {
		return
	}

	s.runTasks(ctx, due)
}

// runTasks runs a subset of tasks concurrently, respecting maxConcurrency.
func (s *Scheduler[R]) runTasks(ctx context.Context, tasks []Task[R]) {
	jobs := make(chan Task[R], len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < s.maxConcurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				result, ok := s.safeRun(ctx, t)
				if !ok {
					continue
				}
				select {
				case s.results <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	for _, t := range tasks {
		select {
		case jobs <- t:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return
		}
	}
	close(jobs)
	wg.Wait()
}

// safeRun calls the task with panic recovery.
// If the task panics, it logs the full stack trace with a correlation ID
// and reports ok=false so no partial result is emitted.
func (s *Scheduler[R]) safeRun(ctx context.Context, t Task[R]) (result R, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			correlationID := uuid.NewString()
			s.logger.Error("task panic",
				"correlation_id", correlationID,
				"task", t.Name(),
				"panic", fmt.Sprintf("%v", r),
				"stack", string(debug.Stack()),
			)
			ok = false
		}
	}()

	return t.Run(ctx), true
}
