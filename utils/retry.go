package utils

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// RetryTask runs Func until it succeeds, doubling the wait after each failure
type RetryTask struct {
	ctx         context.Context
	cancel      context.CancelFunc
	Func        func() error
	MaxAttempts int
	Interval    time.Duration
}

// NewRetryTask .
func NewRetryTask(ctx context.Context, maxAttempts int, interval time.Duration, f func() error) *RetryTask {
	// make sure to execute at least once
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if interval <= 0 {
		interval = time.Second
	}
	ctx, cancel := context.WithCancel(ctx)
	return &RetryTask{
		ctx:         ctx,
		cancel:      cancel,
		MaxAttempts: maxAttempts,
		Interval:    interval,
		Func:        f,
	}
}

// Run start running retry task
func (r *RetryTask) Run() error {
	defer r.Stop()

	var err error
	interval := r.Interval
	timer := time.NewTimer(0)
	defer timer.Stop()

	for i := 0; i < r.MaxAttempts; i++ {
		select {
		case <-r.ctx.Done():
			log.Debug("[RetryTask] abort")
			return r.ctx.Err()
		case <-timer.C:
			if err = r.Func(); err == nil {
				return nil
			}
			if i == r.MaxAttempts-1 {
				break
			}
			log.Debugf("[RetryTask] %v, will retry after %v", err, interval)
			timer.Reset(interval)
			interval *= 2
		}
	}
	return err
}

// Stop stops running task
func (r *RetryTask) Stop() {
	r.cancel()
}

// BackoffRetry retries up to `maxAttempts` times, and the interval will grow exponentially
func BackoffRetry(ctx context.Context, maxAttempts int, f func() error) error {
	return BackoffRetryWithInterval(ctx, maxAttempts, time.Second, f)
}

// BackoffRetryWithInterval is BackoffRetry starting from the given interval
func BackoffRetryWithInterval(ctx context.Context, maxAttempts int, interval time.Duration, f func() error) error {
	retryTask := NewRetryTask(ctx, maxAttempts, interval, f)
	defer retryTask.Stop()
	return retryTask.Run()
}
