package risk

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solwatch/internal/signal"
)

var t0 = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func testSig() *signal.Signal {
	return &signal.Signal{ID: "sig-1", Direction: signal.DirectionLong, StabilityScore: 0.8}
}

func openAt100(t *testing.T, cfg Config) *Machine {
	t.Helper()
	m := NewMachine(cfg)
	_, opened, err := m.OpenFromSignal(testSig(), 0.33, 100, t0)
	require.NoError(t, err)
	require.True(t, opened)
	return m
}

func TestOpenSetsLevels(t *testing.T) {
	m := openAt100(t, Config{})
	pos := m.Snapshot()
	assert.Equal(t, StateOpen, pos.State)
	assert.InDelta(t, 97.0, pos.StopLoss, 1e-9)
	assert.InDelta(t, 104.0, pos.TP1, 1e-9)
	assert.InDelta(t, 108.0, pos.TP2, 1e-9)
	assert.False(t, pos.TrailingActive)
	assert.Equal(t, 100.0, pos.HighestFavorable)
}

func TestSingleSlot(t *testing.T) {
	m := openAt100(t, Config{})
	_, opened, err := m.OpenFromSignal(testSig(), 0.30, 120, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, opened, "第二个信号必须是 no-op")
	assert.Equal(t, 100.0, m.Snapshot().EntryPrice)
}

func TestStopLossExit(t *testing.T) {
	m := openAt100(t, Config{})
	res, err := m.EvaluateTick(96.9, t0.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, ExitStopLoss, res.Exit.Reason)
	assert.InDelta(t, -0.031, res.Exit.PnLFraction, 1e-9)
	assert.Equal(t, StateIdle, m.Snapshot().State)
}

func TestTakeProfit2FullExit(t *testing.T) {
	m := openAt100(t, Config{})
	res, err := m.EvaluateTick(108.5, t0.Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, ExitTakeProfit2, res.Exit.Reason)
}

func TestTP2PriorityOverTrailing(t *testing.T) {
	m := openAt100(t, Config{})
	res, err := m.EvaluateTick(104.5, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, res.TP1Fired)
	// 移动止损已激活后价格直接到 TP2：按 TP2 平仓而非移动止损
	res, err = m.EvaluateTick(109, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, ExitTakeProfit2, res.Exit.Reason)
}

func TestTimeStopPriority(t *testing.T) {
	m := openAt100(t, Config{TimeStop: 80 * time.Hour})
	// 同一 tick 同时满足时间止损与 TP2：时间止损优先
	res, err := m.EvaluateTick(110, t0.Add(81*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, ExitTimeStop, res.Exit.Reason)
}

func TestTimeStopExactBoundary(t *testing.T) {
	m := openAt100(t, Config{TimeStop: 80 * time.Hour})
	res, err := m.EvaluateTick(100.5, t0.Add(80*time.Hour-time.Second))
	require.NoError(t, err)
	assert.Nil(t, res.Exit)
	res, err = m.EvaluateTick(100.5, t0.Add(80*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, ExitTimeStop, res.Exit.Reason)
}

func TestTP1ActivatesTrailing(t *testing.T) {
	m := openAt100(t, Config{FlipBreakeven: true})
	res, err := m.EvaluateTick(104, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, res.TP1Fired)
	assert.Nil(t, res.Exit, "TP1 不平仓")

	pos := m.Snapshot()
	assert.Equal(t, StateOpenTrailing, pos.State)
	assert.True(t, pos.TrailingActive)
	assert.InDelta(t, 103.376, pos.TrailingStop, 1e-9)
	// 保本止损：止损抬到 entry×1.001
	assert.True(t, pos.BreakevenActive)
	assert.InDelta(t, 100.1, pos.StopLoss, 1e-9)
}

func TestTrailingStopRatchet(t *testing.T) {
	m := openAt100(t, Config{})
	_, err := m.EvaluateTick(104, t0.Add(time.Hour))
	require.NoError(t, err)

	// 回撤始终浅于 0.6%，不触发移动止损
	prices := []float64{104.5, 105, 104.8, 106, 105.5, 107, 106.6}
	prev := m.Snapshot().TrailingStop
	for i, p := range prices {
		res, err := m.EvaluateTick(p, t0.Add(time.Duration(i+2)*time.Hour))
		require.NoError(t, err)
		require.Nil(t, res.Exit, "price=%v", p)
		cur := m.Snapshot().TrailingStop
		assert.GreaterOrEqual(t, cur, prev, "移动止损不得回落 price=%v", p)
		prev = cur
	}
	// 最高 107，棘轮位 107×0.994
	assert.InDelta(t, 107*0.994, prev, 1e-9)
}

func TestTrailingStopFiresOnDeepDrawdown(t *testing.T) {
	m := openAt100(t, Config{})
	_, err := m.EvaluateTick(104, t0.Add(time.Hour))
	require.NoError(t, err)

	res, err := m.EvaluateTick(105, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.Nil(t, res.Exit)
	assert.InDelta(t, 105*0.994, m.Snapshot().TrailingStop, 1e-9)

	// 105 见顶后棘轮位 104.37，回落到 104.2 必须离场
	res, err = m.EvaluateTick(104.2, t0.Add(3*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, ExitTrailingStop, res.Exit.Reason)
	assert.InDelta(t, 104.2, res.Exit.ExitPrice, 1e-9)
	assert.Equal(t, StateIdle, m.Snapshot().State)
}

func TestEndToEndTrailingExit(t *testing.T) {
	sizer := signal.NewSizer(0.25, 0.35)
	size := sizer.Size(0.8)
	assert.InDelta(t, 0.33, size, 1e-12)

	m := NewMachine(Config{})
	_, opened, err := m.OpenFromSignal(testSig(), size, 100, t0)
	require.NoError(t, err)
	require.True(t, opened)

	res, err := m.EvaluateTick(104, t0.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, res.TP1Fired)
	assert.InDelta(t, 103.376, m.Snapshot().TrailingStop, 1e-9)

	res, err = m.EvaluateTick(103.3, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, ExitTrailingStop, res.Exit.Reason)
	assert.InDelta(t, 0.033, res.Exit.PnLFraction, 1e-9)
	assert.InDelta(t, 0.33, res.Exit.SizeFraction, 1e-12)
}

func TestFastTickIdempotent(t *testing.T) {
	m := openAt100(t, Config{})
	_, err := m.EvaluateTick(104, t0.Add(time.Hour))
	require.NoError(t, err)

	// 相同价格重复评估：无平仓事件、无状态变化
	for i := 0; i < 3; i++ {
		res, err := m.EvaluateTick(104, t0.Add(time.Hour))
		require.NoError(t, err)
		assert.Nil(t, res.Exit)
		assert.False(t, res.TP1Fired)
		assert.False(t, res.Changed)
	}
}

func TestManualClose(t *testing.T) {
	m := openAt100(t, Config{})
	ev, ok := m.ManualClose(101, t0.Add(3*time.Hour))
	require.True(t, ok)
	assert.Equal(t, ExitManual, ev.Reason)
	assert.InDelta(t, 0.01, ev.PnLFraction, 1e-9)
	assert.Equal(t, StateIdle, m.Snapshot().State)

	_, ok = m.ManualClose(101, t0.Add(4*time.Hour))
	assert.False(t, ok, "空仓时手动平仓应为 no-op")
}

func TestInvalidPriceRejected(t *testing.T) {
	m := openAt100(t, Config{})
	before := m.Snapshot()
	_, err := m.EvaluateTick(math.NaN(), t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidPrice)
	assert.Equal(t, before, m.Snapshot(), "非法价格不得改变持仓")

	_, err = m.EvaluateTick(math.Inf(1), t0.Add(time.Hour))
	assert.ErrorIs(t, err, ErrInvalidPrice)
}

func TestZeroPriceSkipsTick(t *testing.T) {
	m := openAt100(t, Config{})
	res, err := m.EvaluateTick(0, t0.Add(time.Hour))
	require.NoError(t, err)
	assert.Nil(t, res.Exit)
	assert.False(t, res.Changed)
	assert.Equal(t, StateOpen, m.Snapshot().State)
}

func TestRestoreResumesState(t *testing.T) {
	m := NewMachine(Config{})
	m.Restore(Position{
		State:            StateOpenTrailing,
		EntryPrice:       100,
		EntryTime:        t0,
		SizeFraction:     0.3,
		StopLoss:         100.1,
		TP1:              104,
		TP2:              108,
		TrailingActive:   true,
		TrailingStop:     103.376,
		HighestFavorable: 104,
	})
	res, err := m.EvaluateTick(103.2, t0.Add(2*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, res.Exit)
	assert.Equal(t, ExitTrailingStop, res.Exit.Reason)
}
