package monitorhttp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solwatch/internal/risk"
	"solwatch/internal/store/signallog"
)

type fakeMonitor struct {
	pos     risk.Position
	closeEv *risk.ExitEvent
}

func (f *fakeMonitor) Status(context.Context) string { return "📊 SOL 监控状态" }
func (f *fakeMonitor) Position() risk.Position       { return f.pos }
func (f *fakeMonitor) ManualClose(context.Context) (*risk.ExitEvent, bool) {
	if f.closeEv == nil {
		return nil, false
	}
	ev := f.closeEv
	f.closeEv = nil
	f.pos = risk.Position{State: risk.StateIdle}
	return ev, true
}

type fakeSignals struct {
	records []signallog.SignalRecord
}

func (f *fakeSignals) List(context.Context, signallog.SignalQuery) ([]signallog.SignalRecord, error) {
	return f.records, nil
}

type fakeTrades struct {
	exits []risk.ExitEvent
}

func (f *fakeTrades) ListExits(context.Context, int) ([]risk.ExitEvent, error) {
	return f.exits, nil
}

func newTestServer(t *testing.T, mon *fakeMonitor) *Server {
	t.Helper()
	srv, err := NewServer(ServerConfig{
		Addr:    ":0",
		Monitor: mon,
		Signals: &fakeSignals{records: []signallog.SignalRecord{{SignalID: "sig-1", Direction: "long"}}},
		Trades:  &fakeTrades{exits: []risk.ExitEvent{{Reason: risk.ExitStopLoss, ExitPrice: 97}}},
	})
	require.NoError(t, err)
	return srv
}

func doRequest(srv *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestServerRequiresMonitor(t *testing.T) {
	_, err := NewServer(ServerConfig{Addr: ":0"})
	assert.Error(t, err)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeMonitor{pos: risk.Position{State: risk.StateIdle}})
	w := doRequest(srv, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestStatusEndpoint(t *testing.T) {
	mon := &fakeMonitor{pos: risk.Position{
		State:      risk.StateOpen,
		EntryPrice: 100,
		EntryTime:  time.Now(),
	}}
	srv := newTestServer(t, mon)

	w := doRequest(srv, http.MethodGet, "/api/status")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		IsOpen bool   `json:"is_open"`
		Text   string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.IsOpen)
	assert.NotEmpty(t, body.Text)
}

func TestManualCloseEndpoint(t *testing.T) {
	mon := &fakeMonitor{
		pos:     risk.Position{State: risk.StateOpen, EntryPrice: 100, EntryTime: time.Now()},
		closeEv: &risk.ExitEvent{Reason: risk.ExitManual, ExitPrice: 101},
	}
	srv := newTestServer(t, mon)

	w := doRequest(srv, http.MethodPost, "/api/close")
	assert.Equal(t, http.StatusOK, w.Code)

	// 无持仓时返回冲突
	w = doRequest(srv, http.MethodPost, "/api/close")
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestSignalsEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeMonitor{pos: risk.Position{State: risk.StateIdle}})
	w := doRequest(srv, http.MethodGet, "/api/signals?limit=10")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}

func TestTradesEndpoint(t *testing.T) {
	srv := newTestServer(t, &fakeMonitor{pos: risk.Position{State: risk.StateIdle}})
	w := doRequest(srv, http.MethodGet, "/api/trades")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Count)
}
