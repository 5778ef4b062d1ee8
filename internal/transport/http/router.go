package monitorhttp

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"solwatch/internal/risk"
	"solwatch/internal/store/signallog"
)

// Monitor 是监控回路对 HTTP 暴露的最小面。
type Monitor interface {
	Status(ctx context.Context) string
	Position() risk.Position
	ManualClose(ctx context.Context) (*risk.ExitEvent, bool)
}

// SignalReader 读取历史信号。
type SignalReader interface {
	List(ctx context.Context, q signallog.SignalQuery) ([]signallog.SignalRecord, error)
}

// TradeReader 读取平仓流水。
type TradeReader interface {
	ListExits(ctx context.Context, limit int) ([]risk.ExitEvent, error)
}

func registerRoutes(api *gin.RouterGroup, cfg ServerConfig) {
	api.GET("/status", func(c *gin.Context) {
		pos := cfg.Monitor.Position()
		c.JSON(http.StatusOK, gin.H{
			"position": pos,
			"is_open":  pos.IsOpen(),
			"text":     cfg.Monitor.Status(c.Request.Context()),
		})
	})

	api.POST("/close", func(c *gin.Context) {
		ev, ok := cfg.Monitor.ManualClose(c.Request.Context())
		if !ok {
			c.JSON(http.StatusConflict, gin.H{"error": "当前无持仓"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"exit": ev})
	})

	if cfg.Signals != nil {
		api.GET("/signals", func(c *gin.Context) {
			q := signallog.SignalQuery{
				Limit:  queryInt(c, "limit", 100),
				Offset: queryInt(c, "offset", 0),
			}
			if sinceHours := queryInt(c, "since_hours", 0); sinceHours > 0 {
				q.Since = time.Now().Add(-time.Duration(sinceHours) * time.Hour)
			}
			records, err := cfg.Signals.List(c.Request.Context(), q)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"signals": records, "count": len(records)})
		})
	}

	if cfg.Trades != nil {
		api.GET("/trades", func(c *gin.Context) {
			trades, err := cfg.Trades.ListExits(c.Request.Context(), queryInt(c, "limit", 100))
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, gin.H{"trades": trades, "count": len(trades)})
		})
	}

	if cfg.Chart != nil {
		api.GET("/signals/chart", cfg.Chart.Render)
	}
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
