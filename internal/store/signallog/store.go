package signallog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"solwatch/internal/signal"

	_ "modernc.org/sqlite"
)

// SignalLogStore 管理历史信号记录，方便复盘与图表展示。
type SignalLogStore struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// SignalRecord 是一条落盘的信号，含过滤结果。
type SignalRecord struct {
	ID             int64   `json:"id"`
	SignalID       string  `json:"signal_id"`
	Timestamp      int64   `json:"ts"`
	Direction      string  `json:"direction"`
	SqueezeWidth   float64 `json:"squeeze_width"`
	StabilityScore float64 `json:"stability_score"`
	RefPrice       float64 `json:"ref_price"`
	Reason         string  `json:"reason,omitempty"`
	Admitted       bool    `json:"admitted"`
	RejectReason   string  `json:"reject_reason,omitempty"`
	OIChange       float64 `json:"oi_change"`
	QualityJSON    string  `json:"quality_json,omitempty"`
}

// SignalQuery 用于筛选历史信号。
type SignalQuery struct {
	Since  time.Time
	Until  time.Time
	Limit  int
	Offset int
}

// NewSignalLogStore 初始化 SQLite 存储。
func NewSignalLogStore(path string) (*SignalLogStore, error) {
	if path == "" {
		return nil, fmt.Errorf("signal log path 不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(2)
	db.SetMaxIdleConns(2)
	if err := ensureSignalLogSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SignalLogStore{db: db, path: path}, nil
}

// Close 关闭底层 DB。
func (s *SignalLogStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func ensureSignalLogSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS signal_log (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			signal_id TEXT NOT NULL,
			ts INTEGER NOT NULL,
			direction TEXT NOT NULL,
			squeeze_width REAL NOT NULL DEFAULT 0,
			stability_score REAL NOT NULL DEFAULT 0,
			ref_price REAL NOT NULL DEFAULT 0,
			reason TEXT,
			admitted INTEGER NOT NULL DEFAULT 0,
			reject_reason TEXT,
			oi_change REAL NOT NULL DEFAULT 0,
			quality_json TEXT,
			created_at INTEGER NOT NULL
		);
		`,
		`CREATE INDEX IF NOT EXISTS idx_signal_log_ts_id ON signal_log(ts DESC, id DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("signal log 建表失败: %w", err)
		}
	}
	return nil
}

// Append 追加一条信号记录。
func (s *SignalLogStore) Append(ctx context.Context, rec SignalRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return fmt.Errorf("signal log store 未初始化")
	}
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().UnixMilli()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO signal_log
		(signal_id, ts, direction, squeeze_width, stability_score, ref_price, reason, admitted, reject_reason, oi_change, quality_json, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SignalID, rec.Timestamp, rec.Direction, rec.SqueezeWidth, rec.StabilityScore,
		rec.RefPrice, rec.Reason, boolToInt(rec.Admitted), rec.RejectReason, rec.OIChange,
		rec.QualityJSON, time.Now().UnixMilli())
	return err
}

// AppendSignal 是 Append 的便捷封装，直接接受探测产物。
func (s *SignalLogStore) AppendSignal(ctx context.Context, sig *signal.Signal, admitted bool, rejectReason string, oiChange float64) error {
	if sig == nil {
		return nil
	}
	rec := SignalRecord{
		SignalID:       sig.ID,
		Timestamp:      sig.Time.UnixMilli(),
		Direction:      string(sig.Direction),
		SqueezeWidth:   sig.SqueezeWidth,
		StabilityScore: sig.StabilityScore,
		RefPrice:       sig.RefPrice,
		Reason:         sig.Reason,
		Admitted:       admitted,
		RejectReason:   rejectReason,
		OIChange:       oiChange,
	}
	if sig.Quality.Grade != "" {
		if raw, err := json.Marshal(sig.Quality); err == nil {
			rec.QualityJSON = string(raw)
		}
	}
	return s.Append(ctx, rec)
}

// List 按时间倒序返回历史信号。
func (s *SignalLogStore) List(ctx context.Context, q SignalQuery) ([]SignalRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, fmt.Errorf("signal log store 未初始化")
	}
	limit := q.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	query := `SELECT id, signal_id, ts, direction, squeeze_width, stability_score, ref_price,
		COALESCE(reason, ''), admitted, COALESCE(reject_reason, ''), oi_change, COALESCE(quality_json, '')
		FROM signal_log WHERE 1=1`
	args := make([]any, 0, 4)
	if !q.Since.IsZero() {
		query += " AND ts >= ?"
		args = append(args, q.Since.UnixMilli())
	}
	if !q.Until.IsZero() {
		query += " AND ts <= ?"
		args = append(args, q.Until.UnixMilli())
	}
	query += " ORDER BY ts DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var rec SignalRecord
		var admitted int
		if err := rows.Scan(&rec.ID, &rec.SignalID, &rec.Timestamp, &rec.Direction,
			&rec.SqueezeWidth, &rec.StabilityScore, &rec.RefPrice, &rec.Reason,
			&admitted, &rec.RejectReason, &rec.OIChange, &rec.QualityJSON); err != nil {
			return nil, err
		}
		rec.Admitted = admitted != 0
		out = append(out, rec)
	}
	return out, rows.Err()
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
