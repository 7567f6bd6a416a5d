package api

import (
	"encoding/json"
	"time"

	"palmera/logger"
	"palmera/middleware"
	"palmera/models"
	"palmera/realtime"

	"github.com/gin-gonic/gin"
)

const heartbeatInterval = 25 * time.Second

// sseFrame SSE 数据帧：dashboard / change / error
type sseFrame struct {
	Type    string `json:"type"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeSSEJSON(c *gin.Context, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_, _ = c.Writer.WriteString("data: " + string(b) + "\n\n")
	c.Writer.Flush()
}

func sseHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// RealtimeHandler 变更推送
type RealtimeHandler struct {
	hub       *realtime.Hub
	dashboard *DashboardHandler
	window    time.Duration
	heartbeat time.Duration
}

// NewRealtimeHandler 创建推送处理器；window 为刷新合并窗口
func NewRealtimeHandler(hub *realtime.Hub, dashboard *DashboardHandler, window time.Duration) *RealtimeHandler {
	return &RealtimeHandler{hub: hub, dashboard: dashboard, window: window, heartbeat: heartbeatInterval}
}

// Dashboard 首页统计推送
// @Summary 首页统计推送
// @Description 连接后立即推送一次统计；收入或支出变更经合并窗口后重新计算并推送
// @Tags 统计
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200 {string} string "SSE流：data: {\"type\":\"dashboard\",\"data\":{...}}"
// @Router /api/v1/realtime/dashboard [get]
func (h *RealtimeHandler) Dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	owner := middleware.OwnerScope(c)

	income := h.hub.Subscribe(models.TableIncomeRecords)
	defer income.Close()
	expenses := h.hub.Subscribe(models.TableExpenseRecords)
	defer expenses.Close()

	refresh := realtime.Coalesce(ctx, h.window, income.C(), expenses.C())

	sseHeaders(c)
	push := func() {
		d, err := h.dashboard.build(ctx, owner)
		if err != nil {
			if ctx.Err() == nil {
				l := logger.Get()
				l.Error().Err(err).Str("owner", owner).Msg("推送首页统计失败")
				writeSSEJSON(c, sseFrame{Type: "error", Message: msgInternal})
			}
			return
		}
		writeSSEJSON(c, sseFrame{Type: "dashboard", Data: d})
	}
	push()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-refresh:
			if !ok {
				return
			}
			push()
		case <-ticker.C:
			_, _ = c.Writer.WriteString(": ping\n\n")
			c.Writer.Flush()
		}
	}
}

// Changes 按表订阅变更
// @Summary 表变更推送
// @Description 订阅 income_records、expense_records、services 或 manicurists 的变更，只作为刷新触发
// @Tags 统计
// @Produce text/event-stream
// @Security BearerAuth
// @Param table path string true "表名"
// @Success 200 {string} string "SSE流：data: {\"type\":\"change\",\"data\":{\"table\":\"...\",\"type\":\"insert\",\"id\":\"...\"}}"
// @Failure 404 {object} Response "未知的表"
// @Router /api/v1/realtime/{table} [get]
func (h *RealtimeHandler) Changes(c *gin.Context) {
	table := c.Param("table")
	if !feedTable(table) {
		NotFound(c, msgNotFound)
		return
	}
	ctx := c.Request.Context()
	sub := h.hub.Subscribe(table)
	defer sub.Close()

	sseHeaders(c)
	c.Writer.WriteHeaderNow()
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-sub.C():
			if !ok {
				return
			}
			change.Origin = ""
			writeSSEJSON(c, sseFrame{Type: "change", Data: change})
		case <-ticker.C:
			_, _ = c.Writer.WriteString(": ping\n\n")
			c.Writer.Flush()
		}
	}
}

func feedTable(table string) bool {
	for _, t := range models.FeedTables() {
		if t == table {
			return true
		}
	}
	return false
}
