package gormstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solwatch/internal/risk"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	s, err := NewGormStore(filepath.Join(t.TempDir(), "solwatch.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestLoadPositionEmpty(t *testing.T) {
	s := newTestStore(t)
	pos, found, err := s.LoadPosition(context.Background())
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, risk.StateIdle, pos.State)
}

func TestSaveLoadPositionRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	entry := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	pos := risk.Position{
		State:            risk.StateOpenTrailing,
		EntryPrice:       100,
		EntryTime:        entry,
		SizeFraction:     0.33,
		StopLoss:         100.1,
		TP1:              104,
		TP2:              108,
		TrailingActive:   true,
		TrailingStop:     103.376,
		HighestFavorable: 104,
		BreakevenActive:  true,
		SignalID:         "sig-1",
	}
	require.NoError(t, s.SavePosition(ctx, pos))

	got, found, err := s.LoadPosition(ctx)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, risk.StateOpenTrailing, got.State)
	assert.Equal(t, 100.0, got.EntryPrice)
	assert.Equal(t, entry.UnixMilli(), got.EntryTime.UnixMilli())
	assert.Equal(t, 0.33, got.SizeFraction)
	assert.True(t, got.TrailingActive)
	assert.True(t, got.BreakevenActive)
	assert.Equal(t, 103.376, got.TrailingStop)
	assert.Equal(t, "sig-1", got.SignalID)
}

func TestSavePositionOverwritesSlot(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.SavePosition(ctx, risk.Position{State: risk.StateOpen, EntryPrice: 100, EntryTime: time.Now()}))
	require.NoError(t, s.SavePosition(ctx, risk.Position{State: risk.StateIdle}))

	got, found, err := s.LoadPosition(ctx)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, risk.StateIdle, got.State)
}

func TestRecordAndListExits(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		ev := risk.ExitEvent{
			Reason:       risk.ExitTrailingStop,
			EntryPrice:   100,
			EntryTime:    base,
			ExitPrice:    103 + float64(i),
			ExitTime:     base.Add(time.Duration(i+1) * time.Hour),
			PnLFraction:  0.03 + float64(i)*0.01,
			SizeFraction: 0.3,
			HoldHours:    float64(i + 1),
			SignalID:     "sig-1",
		}
		require.NoError(t, s.RecordExit(ctx, ev))
	}

	out, err := s.ListExits(ctx, 10)
	require.NoError(t, err)
	require.Len(t, out, 3)
	// 平仓时间倒序
	assert.Equal(t, 105.0, out[0].ExitPrice)
	assert.Equal(t, 103.0, out[2].ExitPrice)
	assert.Equal(t, risk.ExitTrailingStop, out[0].Reason)
}
