package gormstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"solwatch/internal/risk"
	storemodel "solwatch/internal/store/model"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

type positionSnapshotModel = storemodel.PositionSnapshotModel
type tradeLogModel = storemodel.TradeLogModel

// 单标的系统，持仓快照固定落在这一个槽位上。
const positionSlot = "sol-usdt-1h"

// GormStore 基于 Gorm + SQLite 持久化持仓快照与平仓流水。
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 初始化存储并完成建表。
func NewGormStore(path string) (*GormStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("gorm store: 数据库路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	// DSN 使用 modernc.org/sqlite 的 _pragma 语法；CGO_ENABLED=0 下
	// 通过 DriverName 绑定纯 Go 驱动，而非方言默认的 cgo 驱动。
	db, err := gorm.Open(&sqlite.Dialector{DriverName: "sqlite", DSN: dsn}, &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&positionSnapshotModel{}, &tradeLogModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL：写入只有监控回路一个来源，读方是 HTTP 查询，
	// 连接数压到最低以避免锁竞争。
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &GormStore{db: db}, nil
}

// Close 关闭底层数据库连接。
func (s *GormStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SavePosition 覆盖写入持仓快照。状态流转后必须先落盘再发通知。
func (s *GormStore) SavePosition(ctx context.Context, pos risk.Position) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store 未初始化")
	}
	model := positionToModel(pos)
	cols := []string{
		"state", "entry_price", "entry_timestamp", "size_fraction",
		"stop_loss", "tp1", "tp2", "trailing_active", "trailing_stop",
		"highest_favorable", "breakeven_active", "signal_id", "updated_at",
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slot"}},
			DoUpdates: clause.AssignmentColumns(cols),
		}).
		Create(&model).Error
}

// LoadPosition 读取持仓快照，第二个返回值表示快照是否存在。
func (s *GormStore) LoadPosition(ctx context.Context) (risk.Position, bool, error) {
	if s == nil || s.db == nil {
		return risk.Position{}, false, fmt.Errorf("gorm store 未初始化")
	}
	var model positionSnapshotModel
	if err := s.db.WithContext(ctx).Where("slot = ?", positionSlot).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return risk.Position{State: risk.StateIdle}, false, nil
		}
		return risk.Position{}, false, err
	}
	return modelToPosition(model), true, nil
}

// RecordExit 追加一条平仓流水。
func (s *GormStore) RecordExit(ctx context.Context, ev risk.ExitEvent) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("gorm store 未初始化")
	}
	detail, _ := json.Marshal(ev)
	model := tradeLogModel{
		Reason:         string(ev.Reason),
		EntryPrice:     ev.EntryPrice,
		EntryTimestamp: ev.EntryTime.UnixMilli(),
		ExitPrice:      ev.ExitPrice,
		ExitTimestamp:  ev.ExitTime.UnixMilli(),
		SizeFraction:   ev.SizeFraction,
		PnLFraction:    ev.PnLFraction,
		HoldHours:      ev.HoldHours,
		SignalID:       ev.SignalID,
		Details:        datatypes.JSON(detail),
		CreatedAtUnix:  time.Now().UnixMilli(),
	}
	return s.db.WithContext(ctx).Create(&model).Error
}

// ListExits 按平仓时间倒序返回流水，供 HTTP 查询。
func (s *GormStore) ListExits(ctx context.Context, limit int) ([]risk.ExitEvent, error) {
	if s == nil || s.db == nil {
		return nil, fmt.Errorf("gorm store 未初始化")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var models []tradeLogModel
	if err := s.db.WithContext(ctx).
		Order("exit_timestamp DESC, id DESC").
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]risk.ExitEvent, 0, len(models))
	for _, m := range models {
		out = append(out, risk.ExitEvent{
			Reason:       risk.ExitReason(m.Reason),
			ExitPrice:    m.ExitPrice,
			ExitTime:     time.UnixMilli(m.ExitTimestamp),
			PnLFraction:  m.PnLFraction,
			EntryPrice:   m.EntryPrice,
			EntryTime:    time.UnixMilli(m.EntryTimestamp),
			SizeFraction: m.SizeFraction,
			HoldHours:    m.HoldHours,
			SignalID:     m.SignalID,
		})
	}
	return out, nil
}

func positionToModel(pos risk.Position) positionSnapshotModel {
	var entryTS int64
	if !pos.EntryTime.IsZero() {
		entryTS = pos.EntryTime.UnixMilli()
	}
	return positionSnapshotModel{
		Slot:             positionSlot,
		State:            string(pos.State),
		EntryPrice:       pos.EntryPrice,
		EntryTimestamp:   entryTS,
		SizeFraction:     pos.SizeFraction,
		StopLoss:         pos.StopLoss,
		TP1:              pos.TP1,
		TP2:              pos.TP2,
		TrailingActive:   boolToInt(pos.TrailingActive),
		TrailingStop:     pos.TrailingStop,
		HighestFavorable: pos.HighestFavorable,
		BreakevenActive:  boolToInt(pos.BreakevenActive),
		SignalID:         pos.SignalID,
		UpdatedAtUnix:    time.Now().UnixMilli(),
	}
}

func modelToPosition(m positionSnapshotModel) risk.Position {
	pos := risk.Position{
		State:            risk.State(m.State),
		EntryPrice:       m.EntryPrice,
		SizeFraction:     m.SizeFraction,
		StopLoss:         m.StopLoss,
		TP1:              m.TP1,
		TP2:              m.TP2,
		TrailingActive:   m.TrailingActive != 0,
		TrailingStop:     m.TrailingStop,
		HighestFavorable: m.HighestFavorable,
		BreakevenActive:  m.BreakevenActive != 0,
		SignalID:         m.SignalID,
	}
	if m.EntryTimestamp > 0 {
		pos.EntryTime = time.UnixMilli(m.EntryTimestamp)
	}
	if pos.State == "" {
		pos.State = risk.StateIdle
	}
	return pos
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
