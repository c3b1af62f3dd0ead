package scheduler

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/KotFed0t/stock_screener/utils"
	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

type taskFn func(ctx context.Context) error

type Scheduler struct {
	scheduler gocron.Scheduler
}

func New() *Scheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		panic(err.Error())
	}
	return &Scheduler{scheduler: scheduler}
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
}

func (s *Scheduler) Stop() {
	_ = s.scheduler.Shutdown()
}

func (s *Scheduler) createJob(jobDefinition gocron.JobDefinition, name string, fn taskFn, startImmediately bool, quiet bool) uuid.UUID {
	opts := []gocron.JobOption{
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	}

	if startImmediately {
		opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
	}

	job, err := s.scheduler.NewJob(
		jobDefinition,
		gocron.NewTask(s.taskWithRecover(fn, name, quiet)),
		opts...,
	)

	if err != nil {
		slog.Error("Scheduler creating job error", slog.String("jobName", name))
		panic(err.Error())
	}

	return job.ID()
}

// NewIntervalJob registers fn to run every interval and returns the job id for RemoveJob.
func (s *Scheduler) NewIntervalJob(name string, fn taskFn, interval time.Duration, startImmediately bool) uuid.UUID {
	return s.createJob(gocron.DurationJob(interval), name, fn, startImmediately, false)
}

// NewQuietIntervalJob is NewIntervalJob for frequent jobs: start and finish are logged at debug level.
func (s *Scheduler) NewQuietIntervalJob(name string, fn taskFn, interval time.Duration, startImmediately bool) uuid.UUID {
	return s.createJob(gocron.DurationJob(interval), name, fn, startImmediately, true)
}

func (s *Scheduler) RemoveJob(id uuid.UUID) {
	if err := s.scheduler.RemoveJob(id); err != nil {
		slog.Warn("Scheduler removing job error", slog.String("jobID", id.String()), slog.String("err", err.Error()))
	}
}

func (s *Scheduler) taskWithRecover(fn taskFn, jobName string, quiet bool) func(ctx context.Context) {
	level := slog.LevelInfo
	if quiet {
		level = slog.LevelDebug
	}

	return func(ctx context.Context) {
		ctx = utils.NewCtxWithRqID(ctx)
		rqID := utils.GetRequestIDFromCtx(ctx)

		defer func() {
			if r := recover(); r != nil {
				slog.Error(
					"Panic recovered in scheduler job",
					slog.String("rqID", rqID),
					slog.String("jobName", jobName),
					slog.Any("panic", r),
					slog.String("stacktrace", string(debug.Stack())),
				)
			}
		}()

		slog.Log(ctx, level, "job start", slog.String("rqID", rqID), slog.String("jobName", jobName))

		err := fn(ctx)
		if err != nil {
			slog.Error("job failed", slog.String("rqID", rqID), slog.String("jobName", jobName), slog.Any("error", err))
		} else {
			slog.Log(ctx, level, "job completed", slog.String("rqID", rqID), slog.String("jobName", jobName))
		}
	}
}
