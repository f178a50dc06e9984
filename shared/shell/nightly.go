package shell

import (
	"context"
	"sync"
	"time"
)

const (
	// LogMsgNightlyJobStarted is logged when a scheduled run begins.
	LogMsgNightlyJobStarted = "nightly job started"

	// LogMsgNightlyJobCompleted is logged when a scheduled run succeeds.
	LogMsgNightlyJobCompleted = "nightly job completed"

	// LogMsgNightlyJobFailed is logged when a scheduled run returns an error.
	LogMsgNightlyJobFailed = "nightly job failed"

	// LogAttrJobName is the structured log attribute for the scheduled job name.
	LogAttrJobName = "job_name"

	// LogAttrRunDate is the structured log attribute for the business date of a run.
	LogAttrRunDate = "run_date"
)

// NightlyJob is a unit of scheduled work, invoked once per day with the
// business date of the run. Jobs are expected to be idempotent so that a
// restarted process can safely run them again.
type NightlyJob func(ctx context.Context, day time.Time) error

// NightlyRunner invokes a job once per day at a fixed local hour.
// It fires the job immediately on Start when today's run is still pending,
// relying on the job's own idempotency guard to avoid double work.
type NightlyRunner struct {
	name   string
	job    NightlyJob
	hour   int
	logger Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

// NewNightlyRunner creates a runner for the given job. The hour is in local
// time, 0 to 23; out-of-range values are clamped to midnight.
func NewNightlyRunner(name string, job NightlyJob, hour int, logger Logger) *NightlyRunner {
	if hour < 0 || hour > 23 {
		hour = 0
	}

	return &NightlyRunner{
		name:   name,
		job:    job,
		hour:   hour,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start launches the scheduling loop in a goroutine. It returns immediately.
func (r *NightlyRunner) Start(ctx context.Context) {
	go r.loop(ctx)
}

// Stop signals the loop to exit and waits for it to finish.
func (r *NightlyRunner) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
	})

	<-r.done
}

func (r *NightlyRunner) loop(ctx context.Context) {
	defer close(r.done)

	r.runOnce(ctx, time.Now())

	for {
		timer := time.NewTimer(time.Until(r.nextRun(time.Now())))

		select {
		case firedAt := <-timer.C:
			r.runOnce(ctx, firedAt)
		case <-r.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		}
	}
}

func (r *NightlyRunner) nextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), r.hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}

	return next
}

func (r *NightlyRunner) runOnce(ctx context.Context, day time.Time) {
	if r.logger != nil {
		r.logger.Info(LogMsgNightlyJobStarted,
			LogAttrJobName, r.name,
			LogAttrRunDate, day.Format("2006-01-02"))
	}

	if err := r.job(ctx, day); err != nil {
		if r.logger != nil {
			r.logger.Error(LogMsgNightlyJobFailed,
				LogAttrJobName, r.name,
				LogAttrRunDate, day.Format("2006-01-02"),
				LogAttrError, err.Error())
		}

		return
	}

	if r.logger != nil {
		r.logger.Info(LogMsgNightlyJobCompleted,
			LogAttrJobName, r.name,
			LogAttrRunDate, day.Format("2006-01-02"))
	}
}
