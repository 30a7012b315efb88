// Package scheduler runs the periodic sweeps on a cron schedule.
package scheduler

import (
	"context"
	"time"

	"stream_ledger/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
)

var (
	sweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sweep_runs_total",
			Help: "Sweep job runs by outcome",
		},
		[]string{"job", "outcome"},
	)
	sweepDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sweep_duration_seconds",
			Help:    "Sweep job duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)

func init() {
	prometheus.MustRegister(sweepRuns, sweepDuration)
}

// JobFunc is one sweep. It must be idempotent.
type JobFunc func(ctx context.Context) error

type job struct {
	name string
	run  JobFunc
}

type Scheduler struct {
	schedule string
	lease    Lease
	ttl      time.Duration
	jobs     []job
	cron     *cron.Cron
}

func New(schedule string, lease Lease, ttl time.Duration) *Scheduler {
	if lease == nil {
		lease = NewLocalLease()
	}
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Scheduler{schedule: schedule, lease: lease, ttl: ttl, cron: cron.New()}
}

// Add registers a job. Jobs run in registration order.
func (s *Scheduler) Add(name string, fn JobFunc) {
	s.jobs = append(s.jobs, job{name: name, run: fn})
}

// RunOnce runs every job once. Failures are logged and do not stop the
// remaining jobs.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for _, j := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		s.runJob(ctx, j)
	}
}

func (s *Scheduler) runJob(ctx context.Context, j job) {
	release, ok, err := s.lease.Acquire(ctx, j.name, s.ttl)
	if err != nil {
		sweepRuns.WithLabelValues(j.name, "lease_error").Inc()
		logger.Warn("sweep lease failed", "job", j.name, "error", err)
		return
	}
	if !ok {
		sweepRuns.WithLabelValues(j.name, "skipped").Inc()
		logger.Debug("sweep held elsewhere", "job", j.name)
		return
	}
	defer release()

	jobCtx, cancel := context.WithTimeout(ctx, s.ttl)
	defer cancel()

	start := time.Now()
	err = j.run(jobCtx)
	sweepDuration.WithLabelValues(j.name).Observe(time.Since(start).Seconds())
	if err != nil {
		sweepRuns.WithLabelValues(j.name, "failed").Inc()
		logger.Error("sweep failed", "job", j.name, "error", err)
		return
	}
	sweepRuns.WithLabelValues(j.name, "ok").Inc()
}

// Start schedules RunOnce on the cron schedule.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	logger.Info("scheduler started", "schedule", s.schedule, "jobs", len(s.jobs))
	return nil
}

// Stop halts the schedule and waits for a running cadence to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
