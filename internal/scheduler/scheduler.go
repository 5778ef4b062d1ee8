package scheduler

import (
	"context"
	"time"

	"solwatch/internal/logger"
)

// AlignedScheduler 把任务对齐到 K 线收盘时刻再延迟 Offset 执行。
// 慢周期信号检查用它保证每根 1h K 线收盘后只评估一次。
type AlignedScheduler struct {
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

// Start 阻塞运行，直到 ctx 取消。
func (s *AlignedScheduler) Start(task func()) {
	if s == nil || task == nil {
		return
	}
	if s.Interval <= 0 {
		logger.Warnf("AlignedScheduler: invalid interval=%s, exit", s.Interval)
		return
	}
	if s.Offset < 0 {
		s.Offset = 0
	}
	if s.nowFn == nil {
		s.nowFn = time.Now
	}

	logger.Infof("AlignedScheduler: started interval=%s offset=%s run_immediately=%v",
		s.Interval, s.Offset, s.RunImmediately)

	if s.RunImmediately {
		task()
	}

	for {
		now := s.nowFn().UTC()
		nextClose := now.Truncate(s.Interval).Add(s.Interval)
		wakeAt := nextClose.Add(s.Offset)
		wait := wakeAt.Sub(now)

		logger.Debugf("AlignedScheduler: 距离K线收盘=%s 将在=%s 执行下一轮",
			nextClose.Sub(now).Truncate(time.Second), wakeAt.Format(time.RFC3339))

		if wait <= 0 {
			task()
			continue
		}
		timer := time.NewTimer(wait)
		select {
		case <-s.ctx.Done():
			timer.Stop()
			logger.Infof("AlignedScheduler: ctx done, exit")
			return
		case <-timer.C:
		}
		task()
	}
}

// RunEvery 以固定间隔运行任务，直到 ctx 取消。快周期与 OI 采集用。
func RunEvery(ctx context.Context, interval time.Duration, task func()) {
	if task == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			task()
		}
	}
}
