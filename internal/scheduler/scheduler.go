// Package scheduler drives periodic pipeline cycles for the daemon.
package scheduler

import (
	"context"
	"time"

	"wheelhouse/internal/logger"
)

// AlignedScheduler fires a task on interval boundaries (UTC wall
// clock), optionally shifted by an offset so downstream consumers see
// settled data. Start blocks until ctx is cancelled.
type AlignedScheduler struct {
	Name           string
	Interval       time.Duration
	Offset         time.Duration
	RunImmediately bool

	ctx   context.Context
	nowFn func() time.Time
}

func NewAlignedScheduler(ctx context.Context, interval, offset time.Duration) *AlignedScheduler {
	if ctx == nil {
		ctx = context.Background()
	}
	return &AlignedScheduler{
		Interval: interval,
		Offset:   offset,
		ctx:      ctx,
		nowFn:    time.Now,
	}
}

func (s *AlignedScheduler) Start(task func()) {
	if s == nil {
		return
	}
	if task == nil {
		logger.Warnf("scheduler%s: task is nil, exit", s.label())
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("scheduler%s: invalid interval=%s, exit", s.label(), s.Interval)
		return
	}
	if s.Offset < 0 {
		logger.Warnf("scheduler%s: negative offset=%s, clamp to 0", s.label(), s.Offset)
		s.Offset = 0
	}
	if s.ctx == nil {
		s.ctx = context.Background()
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	startAt := s.nowFn().UTC()
	logger.Infof("scheduler%s: started interval=%s offset=%s run_immediately=%v at=%s",
		s.label(), s.Interval, s.Offset, s.RunImmediately, startAt.Format(time.RFC3339))

	if s.RunImmediately {
		task()
	}

	for {
		now := s.nowFn().UTC()
		wakeAt, wait := s.nextTimes(now)
		logger.Infof("scheduler%s: next cycle at %s (in %s) | uptime=%s",
			s.label(), wakeAt.Format(time.RFC3339), wait.Truncate(time.Second),
			now.Sub(startAt).Truncate(time.Second))

		if wait <= 0 {
			task()
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			logger.Infof("scheduler%s: ctx done, exit", s.label())
			return
		case <-timer.C:
		}
		task()
	}
}

func (s *AlignedScheduler) nextTimes(now time.Time) (wakeAt time.Time, wait time.Duration) {
	now = now.UTC()
	boundary := now.Truncate(s.Interval).Add(s.Interval)
	wakeAt = boundary.Add(s.Offset)
	wait = wakeAt.Sub(now)
	return wakeAt, wait
}

func (s *AlignedScheduler) label() string {
	if s.Name == "" {
		return ""
	}
	return "[" + s.Name + "]"
}
