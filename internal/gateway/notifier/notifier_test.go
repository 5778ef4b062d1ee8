package notifier

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solwatch/internal/risk"
	"solwatch/internal/signal"
)

type recordingChannel struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (r *recordingChannel) SendText(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return r.err
}

func TestDispatcherFanOut(t *testing.T) {
	a := &recordingChannel{}
	b := &recordingChannel{}
	d := NewDispatcher(a, b, nil)

	d.Dispatch("hello")
	d.Wait()

	assert.Equal(t, []string{"hello"}, a.texts)
	assert.Equal(t, []string{"hello"}, b.texts)
}

func TestDispatcherFailureDoesNotBlock(t *testing.T) {
	bad := &recordingChannel{err: errors.New("boom")}
	good := &recordingChannel{}
	d := NewDispatcher(bad, good)

	d.Dispatch("msg")
	d.Wait()

	assert.Len(t, good.texts, 1)
}

func TestServerChanSendText(t *testing.T) {
	var gotTitle string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotTitle = r.PostFormValue("title")
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	sc := NewServerChan(srv.URL)
	require.NoError(t, sc.SendText("标题\n正文"))
	assert.Equal(t, "标题", gotTitle)
}

func TestServerChanErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":40001,"message":"bad key"}`))
	}))
	defer srv.Close()

	sc := NewServerChan(srv.URL)
	err := sc.SendText("标题")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "40001")
}

func TestServerChanMissingURL(t *testing.T) {
	sc := NewServerChan("  ")
	assert.Error(t, sc.SendText("x"))
}

func TestFormatEntryIncludesLevels(t *testing.T) {
	sig := &signal.Signal{
		ID:             "sig-1",
		Direction:      signal.DirectionLong,
		SqueezeWidth:   3.2,
		StabilityScore: 0.75,
		Reason:         "布林带收缩突破",
		Quality:        signal.Quality{Score: 85, Grade: "优质信号"},
	}
	pos := risk.Position{
		State:        risk.StateOpen,
		EntryPrice:   100.3,
		EntryTime:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		SizeFraction: 0.33,
		StopLoss:     97.291,
		TP1:          104.312,
		TP2:          108.324,
	}
	text := FormatEntry(sig, pos)
	assert.Contains(t, text, "100.3")
	assert.Contains(t, text, "33%")
	assert.Contains(t, text, "优质信号")
	assert.Contains(t, text, "止损")
}

func TestFormatExitShowsPnL(t *testing.T) {
	ev := &risk.ExitEvent{
		Reason:      risk.ExitTrailingStop,
		EntryPrice:  100,
		ExitPrice:   103.3,
		PnLFraction: 0.033,
		HoldHours:   5.5,
	}
	text := FormatExit(ev)
	assert.Contains(t, text, "移动止损")
	assert.Contains(t, text, "+3.30%")
	assert.Contains(t, text, "5h30m")
}

func TestFormatStatusIdleAndOpen(t *testing.T) {
	idle := FormatStatus(risk.Position{State: risk.StateIdle}, 150.5, 0.012, true)
	assert.Contains(t, idle, "空仓")
	assert.Contains(t, idle, "+1.20%")

	open := FormatStatus(risk.Position{
		State:      risk.StateOpen,
		EntryPrice: 100,
		EntryTime:  time.Now().Add(-2 * time.Hour),
		StopLoss:   97,
		TP1:        104,
		TP2:        108,
	}, 102, 0, false)
	assert.Contains(t, open, "持仓中")
	assert.Contains(t, open, "+2.00%")
}
