package signallog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SignalLogStore {
	t.Helper()
	s, err := NewSignalLogStore(filepath.Join(t.TempDir(), "signals.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAppendAndList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		rec := SignalRecord{
			SignalID:       "sig-" + string(rune('a'+i)),
			Timestamp:      base.Add(time.Duration(i) * time.Hour).UnixMilli(),
			Direction:      "long",
			SqueezeWidth:   3.2,
			StabilityScore: 0.75,
			RefPrice:       100 + float64(i),
			Admitted:       i%2 == 0,
			RejectReason:   "",
			OIChange:       0.012,
		}
		require.NoError(t, s.Append(ctx, rec))
	}

	out, err := s.List(ctx, SignalQuery{Limit: 10})
	require.NoError(t, err)
	require.Len(t, out, 3)
	// 时间倒序
	assert.Equal(t, "sig-c", out[0].SignalID)
	assert.Equal(t, "sig-a", out[2].SignalID)
	assert.True(t, out[2].Admitted)
	assert.False(t, out[1].Admitted)
}

func TestListSinceFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Append(ctx, SignalRecord{
			SignalID:  "sig",
			Timestamp: base.Add(time.Duration(i) * time.Hour).UnixMilli(),
			Direction: "long",
		}))
	}

	out, err := s.List(ctx, SignalQuery{Since: base.Add(3 * time.Hour), Limit: 10})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestListLimitDefault(t *testing.T) {
	s := newTestStore(t)
	out, err := s.List(context.Background(), SignalQuery{Limit: -1})
	require.NoError(t, err)
	assert.Empty(t, out)
}
