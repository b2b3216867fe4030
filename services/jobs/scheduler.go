package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Job names, used as log fields and metric labels
const (
	JobNotifications = "notifications"
	JobSummary       = "monthly_summary"
)

// Config holds the cron specs of the scheduled jobs
type Config struct {
	NotifySchedule  string
	SummarySchedule string
	Location        *time.Location
}

// Scheduler runs the CRM's background jobs on cron schedules
type Scheduler struct {
	cron    *cron.Cron
	runner  *Runner
	log     logrus.FieldLogger
	entries map[string]cron.EntryID
}

// NewScheduler registers the notification generator and the summary refresh.
// An empty spec disables that job.
func NewScheduler(cfg Config, runner *Runner, log logrus.FieldLogger) (*Scheduler, error) {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	log = log.WithField("component", "scheduler")
	cronLog := cron.PrintfLogger(log)

	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		runner:  runner,
		log:     log,
		entries: make(map[string]cron.EntryID),
	}

	jobs := []struct {
		name string
		spec string
		run  func(context.Context) error
	}{
		{JobNotifications, cfg.NotifySchedule, func(ctx context.Context) error {
			_, err := runner.GenerateNotifications(ctx)
			return err
		}},
		{JobSummary, cfg.SummarySchedule, func(ctx context.Context) error {
			_, err := runner.RefreshSummaries(ctx)
			return err
		}},
	}
	for _, job := range jobs {
		if job.spec == "" {
			log.WithField("job", job.name).Info("Job disabled")
			continue
		}
		run := job.run
		id, err := s.cron.AddFunc(job.spec, func() {
			_ = run(context.Background())
		})
		if err != nil {
			return nil, fmt.Errorf("failed to schedule %s (%q): %w", job.name, job.spec, err)
		}
		s.entries[job.name] = id
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.WithField("jobs", len(s.entries)).Info("Scheduler started")
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.log.Info("Scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("Scheduler stop timed out with jobs still running")
	}
}

// Next returns the next run time of a job, zero when it is not scheduled
func (s *Scheduler) Next(job string) time.Time {
	id, ok := s.entries[job]
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}
