package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/wolfman30/clinic-receptionist/internal/observability/metrics"
	"github.com/wolfman30/clinic-receptionist/pkg/logging"
)

// JobFunc is one batch-job run. Errors are logged and counted; they never stop
// the schedule.
type JobFunc func(ctx context.Context) error

type job struct {
	name string
	next func(now time.Time) time.Time
	run  JobFunc
}

// Scheduler runs registered jobs on wall-clock schedules, one goroutine per
// job. Clock times are evaluated in the clinic's timezone.
type Scheduler struct {
	loc     *time.Location
	logger  *logging.Logger
	metrics *metrics.EngineMetrics

	mu   sync.Mutex
	jobs []job
	wg   sync.WaitGroup
}

// New creates a scheduler that fires jobs in the given timezone.
func New(loc *time.Location, m *metrics.EngineMetrics, logger *logging.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{loc: loc, logger: logger, metrics: m}
}

// DailyAt registers a job that fires once per day at hour:minute local time.
func (s *Scheduler) DailyAt(name string, hour, minute int, run JobFunc) {
	s.register(job{
		name: name,
		run:  run,
		next: func(now time.Time) time.Time {
			local := now.In(s.loc)
			next := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, s.loc)
			if !next.After(local) {
				next = next.AddDate(0, 0, 1)
			}
			return next
		},
	})
}

// Every registers a job that fires on a fixed interval, first run one interval
// after Start.
func (s *Scheduler) Every(name string, interval time.Duration, run JobFunc) {
	s.register(job{
		name: name,
		run:  run,
		next: func(now time.Time) time.Time {
			return now.Add(interval)
		},
	})
}

func (s *Scheduler) register(j job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, j)
}

// Start launches every registered job loop. It returns immediately; cancel the
// context and call Wait to shut down.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	jobs := make([]job, len(s.jobs))
	copy(jobs, s.jobs)
	s.mu.Unlock()

	for _, j := range jobs {
		s.wg.Add(1)
		go s.loop(ctx, j)
	}
	s.logger.Info("scheduler started", "jobs", len(jobs))
}

// Wait blocks until all job loops have exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) loop(ctx context.Context, j job) {
	defer s.wg.Done()

	timer := time.NewTimer(time.Until(j.next(time.Now())))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("job loop stopped", "job", j.name)
			return
		case <-timer.C:
			s.runOnce(ctx, j)
			timer.Reset(time.Until(j.next(time.Now())))
		}
	}
}

// runOnce executes a single job run, recovering panics so one bad run cannot
// kill the loop.
func (s *Scheduler) runOnce(ctx context.Context, j job) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "job", j.name, "panic", r)
		}
	}()

	start := time.Now()
	s.metrics.ObserveJobRun(j.name)
	if err := j.run(ctx); err != nil {
		s.logger.Error("job failed", "job", j.name, "error", err, "duration", time.Since(start))
		return
	}
	s.logger.Info("job completed", "job", j.name, "duration", time.Since(start))
}
