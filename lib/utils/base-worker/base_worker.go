package baseworker

import (
	"context"
	"runtime/debug"
	"time"

	log "github.com/sirupsen/logrus"
)

type JobFunc func(ctx context.Context)

type BaseImpl struct {
	WorkerName    string
	firstRunDelay time.Duration
	runInterval   time.Duration
}

func NewInstance(WorkerName string, firstRunDelay, runInterval time.Duration) *BaseImpl {
	return &BaseImpl{
		WorkerName:    WorkerName,
		firstRunDelay: firstRunDelay,
		runInterval:   runInterval,
	}
}

func (i BaseImpl) GetLogger() *log.Entry {
	logger := log.
		WithField("worker_name", i.WorkerName)
	return logger
}

// Run repeats jobFunc every runInterval until ctx is done
func (i BaseImpl) Run(ctx context.Context, jobFunc JobFunc) {
	period := i.firstRunDelay
	logger := i.GetLogger()
	for {
		select {
		case <-ctx.Done():
			logger.Info("worker stopped")
			return
		case <-time.After(period):
			started := time.Now()
			i.RunOnce(ctx, jobFunc)
			logger.WithField("duration", time.Since(started).String()).Debug("job done")
		}
		period = i.runInterval
	}
}

// RunOnce runs a single iteration, a panic in the job is logged and swallowed
func (i BaseImpl) RunOnce(ctx context.Context, jobFunc JobFunc) {
	defer func() {
		if r := recover(); r != nil {
			i.GetLogger().
				WithField("panic_stack", string(debug.Stack())).
				Errorf("panic: (%v)", r)
		}
	}()
	jobFunc(ctx)
}
