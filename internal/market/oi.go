package market

import (
	"sync"
	"time"
)

// OISample 是一次持仓量采样。
type OISample struct {
	Time  time.Time
	Value float64
}

// OITracker 维护持仓量采样序列与逐次变化率，供入场过滤使用。
// 采样线程与信号线程并发访问，内部用锁保护。
type OITracker struct {
	mu       sync.Mutex
	capacity int
	samples  []OISample
	changes  []OISample // Value 为相邻两次采样的变化率
}

// NewOITracker 创建容量为 capacity 条采样的跟踪器。
// 5 分钟采样下 576 条约覆盖 48 小时。
func NewOITracker(capacity int) *OITracker {
	if capacity <= 0 {
		capacity = 576
	}
	return &OITracker{capacity: capacity}
}

// Record 追加一次采样并计算相对上一次采样的变化率。
// 与上一条时间相同的重复采样被忽略。
func (t *OITracker) Record(at time.Time, value float64) {
	if value <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if n := len(t.samples); n > 0 && !at.After(t.samples[n-1].Time) {
		return
	}
	if n := len(t.samples); n > 0 {
		prev := t.samples[n-1].Value
		if prev > 0 {
			t.changes = append(t.changes, OISample{Time: at, Value: (value - prev) / prev})
			if len(t.changes) > t.capacity {
				t.changes = t.changes[len(t.changes)-t.capacity:]
			}
		}
	}
	t.samples = append(t.samples, OISample{Time: at, Value: value})
	if len(t.samples) > t.capacity {
		t.samples = t.samples[len(t.samples)-t.capacity:]
	}
}

// Len 返回当前采样条数。
func (t *OITracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.samples)
}

// HourlyChange 返回相对一小时前的持仓量变化率。
// 采样不足时返回 (0, false)，调用方按中性处理。
func (t *OITracker) HourlyChange(now time.Time) (float64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.samples) < 2 {
		return 0, false
	}
	latest := t.samples[len(t.samples)-1]
	cutoff := now.Add(-time.Hour)
	var base *OISample
	for i := len(t.samples) - 2; i >= 0; i-- {
		if !t.samples[i].Time.After(cutoff) {
			base = &t.samples[i]
			break
		}
	}
	// 不足一小时的历史时退回 12 条前的采样（5 分钟频率下约一小时）
	if base == nil {
		if len(t.samples) < 12 {
			return 0, false
		}
		base = &t.samples[len(t.samples)-12]
	}
	if base.Value <= 0 {
		return 0, false
	}
	return (latest.Value - base.Value) / base.Value, true
}

// RecentTurnDown 判断最近 window 时间内的变化率是否全部为负。
// 至少需要两条变化记录，用于时间止损的 OI 掉头确认。
func (t *OITracker) RecentTurnDown(now time.Time, window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := now.Add(-window)
	count := 0
	for i := len(t.changes) - 1; i >= 0; i-- {
		if t.changes[i].Time.Before(cutoff) {
			break
		}
		if t.changes[i].Value >= 0 {
			return false
		}
		count++
	}
	return count >= 2
}
