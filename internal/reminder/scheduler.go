package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/saulo-duarte/commitments-api/internal/config"
)

const jobTimeout = 2 * time.Minute

// Scheduler wraps cron-based background jobs.
type Scheduler struct {
	cron *cron.Cron
}

func NewScheduler(loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(cron.WithLocation(loc), cron.WithSeconds()),
	}
}

// ScheduleSpec registers a job with a six-field cron spec (seconds first) or
// a descriptor such as "@hourly".
func (s *Scheduler) ScheduleSpec(spec string, job func()) (cron.EntryID, error) {
	return s.cron.AddFunc(spec, job)
}

// ScheduleInterval registers a periodic job every given duration.
func (s *Scheduler) ScheduleInterval(interval time.Duration, job func()) (cron.EntryID, error) {
	if interval <= 0 {
		return 0, fmt.Errorf("interval must be positive")
	}
	seconds := int(interval.Seconds())
	if seconds <= 0 {
		seconds = 1
	}
	return s.cron.AddFunc(fmt.Sprintf("@every %ds", seconds), job)
}

func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RegisterJobs wires the reminder jobs: follow-ups and expiry every hour on
// the hour, prompts and delivery every five minutes.
func RegisterJobs(s *Scheduler, svc Service) error {
	hourly := []struct {
		name string
		run  func(context.Context) (int, error)
	}{
		{"commitment_reminders", svc.CheckCommitmentReminders},
		{"expire_missed", svc.ExpireMissed},
	}
	for _, j := range hourly {
		if _, err := s.ScheduleSpec("0 0 * * * *", runJob(j.name, j.run)); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}

	frequent := []struct {
		name string
		run  func(context.Context) (int, error)
	}{
		{"scheduled_prompts", svc.SendScheduledPrompts},
		{"deliver_messages", svc.DeliverDueMessages},
	}
	for _, j := range frequent {
		if _, err := s.ScheduleInterval(5*time.Minute, runJob(j.name, j.run)); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
	}
	return nil
}

func runJob(name string, run func(context.Context) (int, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		log := config.WithContext(ctx).WithField("job", name)
		n, err := run(ctx)
		if err != nil {
			log.WithError(err).Error("Scheduled job failed")
			return
		}
		log.WithField("count", n).Debug("Scheduled job finished")
	}
}
