package jobs

import (
	"context"
	"immigration_crm_go/domain"
	"immigration_crm_go/metrics"
	"immigration_crm_go/services"
	"time"

	"github.com/sirupsen/logrus"
)

// Runner holds the job bodies. The scheduler and crmctl share it.
type Runner struct {
	notifications *services.NotificationService
	accounting    *services.AccountingService
	log           logrus.FieldLogger
	now           func() time.Time
}

// NewRunner creates a job runner
func NewRunner(notifications *services.NotificationService, accounting *services.AccountingService, log logrus.FieldLogger) *Runner {
	return &Runner{
		notifications: notifications,
		accounting:    accounting,
		log:           log.WithField("component", "jobs"),
		now:           time.Now,
	}
}

func (r *Runner) track(job string, fn func() (logrus.Fields, error)) error {
	start := time.Now()
	log := r.log.WithField("job", job)
	log.Info("Job started")

	fields, err := fn()
	duration := time.Since(start)
	metrics.RecordJobRun(job, duration, err == nil)
	if err != nil {
		log.WithError(err).WithField("duration", duration).Error("Job failed")
		return err
	}
	log.WithFields(fields).WithField("duration", duration).Info("Job completed")
	return nil
}

// GenerateNotifications raises payment and milestone due reminders
func (r *Runner) GenerateNotifications(ctx context.Context) (int, error) {
	var created int
	err := r.track(JobNotifications, func() (logrus.Fields, error) {
		var err error
		created, err = r.notifications.GenerateAutomaticNotifications(ctx, r.now())
		return logrus.Fields{"created": created}, err
	})
	return created, err
}

// RefreshSummaries regenerates the current month and the previous one, so the
// closing month picks up late payments and expenses.
func (r *Runner) RefreshSummaries(ctx context.Context) ([]domain.MonthlySummary, error) {
	var refreshed []domain.MonthlySummary
	err := r.track(JobSummary, func() (logrus.Fields, error) {
		current := domain.MonthOf(r.now().UTC())
		start, _ := current.Range()
		previous := domain.MonthOf(start.AddDate(0, -1, 0))

		for _, period := range []domain.Month{previous, current} {
			summary, err := r.accounting.GenerateMonthlySummary(ctx, period)
			if err != nil {
				return nil, err
			}
			refreshed = append(refreshed, *summary)
		}
		return logrus.Fields{"periods": len(refreshed)}, nil
	})
	return refreshed, err
}
