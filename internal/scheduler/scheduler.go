// Package scheduler runs the periodic maintenance jobs on cron schedules.
//
// Jobs are registered explicitly, run with a per-run timeout, never overlap
// with themselves, and can be triggered by hand with RunNow.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/expanders360/vendormatch/pkg/logger"
	"github.com/expanders360/vendormatch/pkg/metrics"
)

const defaultJobTimeout = 30 * time.Minute

// Errors returned by the scheduler.
var (
	ErrInvalidJob   = errors.New("scheduler: invalid job")
	ErrDuplicateJob = errors.New("scheduler: job already registered")
	ErrUnknownJob   = errors.New("scheduler: unknown job")
	ErrJobRunning   = errors.New("scheduler: job already running")
	// ErrPartial marks a run where some items failed but the batch finished.
	ErrPartial = errors.New("scheduler: partial failure")
)

// Job is a named unit of periodic work.
type Job struct {
	Name string
	// Spec is a standard five-field cron expression or a descriptor such as
	// "@every 1h".
	Spec string
	Run  func(ctx context.Context) error
}

// Entry describes a registered job and its schedule.
type Entry struct {
	Name string    `json:"name"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
	Prev time.Time `json:"prev,omitempty"`
}

type registered struct {
	job     Job
	id      cron.EntryID
	running atomic.Bool
}

// Scheduler is a registry of cron jobs.
type Scheduler struct {
	cron       *cron.Cron
	location   *time.Location
	jobTimeout time.Duration
	logger     logger.Logger

	mu   sync.Mutex
	jobs map[string]*registered

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates an idle scheduler.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		location:   time.Local,
		jobTimeout: defaultJobTimeout,
		logger:     logger.Default().Named("scheduler"),
		jobs:       make(map[string]*registered),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	cl := cronLogger{l: s.logger}
	s.cron = cron.New(
		cron.WithLocation(s.location),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl)),
	)
	return s
}

// Register adds job. The spec is validated immediately.
func (s *Scheduler) Register(job Job) error {
	if job.Name == "" || job.Run == nil {
		return fmt.Errorf("%w: name and run func are required", ErrInvalidJob)
	}
	if _, err := cron.ParseStandard(job.Spec); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidJob, job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.jobs[job.Name]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, job.Name)
	}

	r := &registered{job: job}
	id, err := s.cron.AddFunc(job.Spec, func() {
		if err := s.run(s.ctx, r); errors.Is(err, ErrJobRunning) {
			s.logger.Warn(s.ctx, "skipping overlapping run", logger.String("job", job.Name))
		}
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidJob, job.Name, err)
	}
	r.id = id
	s.jobs[job.Name] = r
	return nil
}

// Start begins firing jobs on their schedules.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info(context.Background(), "scheduler started", logger.Int("jobs", len(s.Entries())))
}

// Stop halts scheduling, cancels running jobs, and waits for them to return
// or for ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}

// Entries lists registered jobs by name.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.jobs))
	for name, r := range s.jobs {
		e := s.cron.Entry(r.id)
		out = append(out, Entry{Name: name, Spec: r.job.Spec, Next: e.Next, Prev: e.Prev})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RunNow runs the named job synchronously. It fails with ErrJobRunning if a
// scheduled run is in flight.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	r, ok := s.jobs[name]
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return s.run(ctx, r)
}

func (s *Scheduler) run(ctx context.Context, r *registered) (err error) {
	if !r.running.CompareAndSwap(false, true) {
		return ErrJobRunning
	}
	defer r.running.Store(false)

	ctx, cancel := context.WithTimeout(ctx, s.jobTimeout)
	defer cancel()

	name := r.job.Name
	start := time.Now()
	s.logger.Info(ctx, "job started", logger.String("job", name))

	err = r.job.Run(ctx)

	elapsed := time.Since(start)
	switch {
	case err == nil:
		metrics.RecordJobRun(name, "ok", elapsed)
		s.logger.Info(ctx, "job finished", logger.String("job", name), logger.Duration("elapsed", elapsed))
	case errors.Is(err, ErrPartial):
		metrics.RecordJobRun(name, "partial", elapsed)
		s.logger.Warn(ctx, "job finished with failures", logger.String("job", name),
			logger.Duration("elapsed", elapsed), logger.Error(err))
	default:
		metrics.RecordJobRun(name, "error", elapsed)
		metrics.RecordErrorByComponent("scheduler", "job_error")
		s.logger.Error(ctx, "job failed", logger.String("job", name),
			logger.Duration("elapsed", elapsed), logger.Error(err))
	}
	return err
}

// cronLogger routes cron's own logging into ours.
type cronLogger struct {
	l logger.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug(context.Background(), msg, kv(keysAndValues)...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error(context.Background(), msg, append(kv(keysAndValues), logger.Error(err))...)
}

func kv(keysAndValues []interface{}) []logger.Field {
	fields := make([]logger.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		fields = append(fields, logger.Any(key, keysAndValues[i+1]))
	}
	return fields
}
