package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"solwatch/internal/market"
)

func TestAlignedSchedulerRunImmediately(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := NewAlignedScheduler(ctx, time.Hour, time.Minute)
	sched.RunImmediately = true

	runs := 0
	sched.Start(func() {
		runs++
		cancel()
	})
	assert.Equal(t, 1, runs, "开跑即评估一次，随后等待对齐节拍")
}

func TestParseIntervalDuration(t *testing.T) {
	cases := map[string]time.Duration{
		"1h":  time.Hour,
		"15m": 15 * time.Minute,
		"4h":  4 * time.Hour,
		"1d":  24 * time.Hour,
		"1w":  7 * 24 * time.Hour,
	}
	for in, want := range cases {
		got, ok := ParseIntervalDuration(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "h", "0h", "-1h", "1x", "abc"} {
		_, ok := ParseIntervalDuration(in)
		assert.False(t, ok, in)
	}
}

func TestDropUnclosedKline(t *testing.T) {
	interval := time.Hour
	now := time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC)
	closed := market.Candle{OpenTime: now.Add(-2 * time.Hour).UnixMilli()}
	inProgress := market.Candle{OpenTime: now.Truncate(time.Hour).UnixMilli()}

	out := dropUnclosedKlineAt([]market.Candle{closed, inProgress}, interval, now, DefaultKlineGrace)
	assert.Len(t, out, 1)
	assert.Equal(t, closed.OpenTime, out[0].OpenTime)

	out = dropUnclosedKlineAt([]market.Candle{closed}, interval, now, DefaultKlineGrace)
	assert.Len(t, out, 1)
}
