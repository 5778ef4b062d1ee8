package model

import "gorm.io/datatypes"

// PositionSnapshotModel 是持仓槽位的持久化快照，全局只有一行。
// 进程重启时用它恢复状态机，因此每次状态流转后都要覆盖写入。
type PositionSnapshotModel struct {
	ID               int64   `gorm:"column:id;primaryKey"`
	Slot             string  `gorm:"column:slot;uniqueIndex"`
	State            string  `gorm:"column:state"`
	EntryPrice       float64 `gorm:"column:entry_price"`
	EntryTimestamp   int64   `gorm:"column:entry_timestamp"`
	SizeFraction     float64 `gorm:"column:size_fraction"`
	StopLoss         float64 `gorm:"column:stop_loss"`
	TP1              float64 `gorm:"column:tp1"`
	TP2              float64 `gorm:"column:tp2"`
	TrailingActive   int     `gorm:"column:trailing_active"`
	TrailingStop     float64 `gorm:"column:trailing_stop"`
	HighestFavorable float64 `gorm:"column:highest_favorable"`
	BreakevenActive  int     `gorm:"column:breakeven_active"`
	SignalID         string  `gorm:"column:signal_id"`
	UpdatedAtUnix    int64   `gorm:"column:updated_at"`
}

func (PositionSnapshotModel) TableName() string { return "position_snapshot" }

// TradeLogModel 记录每次完整平仓，只追加不修改。
type TradeLogModel struct {
	ID             int64          `gorm:"column:id;primaryKey"`
	Reason         string         `gorm:"column:reason;index"`
	EntryPrice     float64        `gorm:"column:entry_price"`
	EntryTimestamp int64          `gorm:"column:entry_timestamp"`
	ExitPrice      float64        `gorm:"column:exit_price"`
	ExitTimestamp  int64          `gorm:"column:exit_timestamp;index"`
	SizeFraction   float64        `gorm:"column:size_fraction"`
	PnLFraction    float64        `gorm:"column:pnl_fraction"`
	HoldHours      float64        `gorm:"column:hold_hours"`
	SignalID       string         `gorm:"column:signal_id"`
	Details        datatypes.JSON `gorm:"column:details;type:TEXT"`
	CreatedAtUnix  int64          `gorm:"column:created_at"`
}

func (TradeLogModel) TableName() string { return "trade_log" }
