// Package realtime 按表名订阅的变更通知
//
// 通知只作为刷新触发器，不携带行数据。
package realtime

import (
	"sync"
	"time"

	"palmera/metrics"
)

// ChangeType 变更类型
type ChangeType string

const (
	Insert ChangeType = "insert"
	Update ChangeType = "update"
	Delete ChangeType = "delete"
)

// Change 一条变更通知
type Change struct {
	Table  string     `json:"table"`
	Type   ChangeType `json:"type"`
	ID     string     `json:"id"`
	At     time.Time  `json:"at"`
	Origin string     `json:"origin,omitempty"` // 发布实例，用于跨实例转发去重
}

// Forwarder 把本地变更转发到其他实例
type Forwarder interface {
	Forward(change Change)
}

// Hub 进程内变更分发，协程安全
// 订阅者缓冲满时丢弃通知而不阻塞写入方
type Hub struct {
	mu        sync.RWMutex
	subs      map[string]map[*Subscription]struct{}
	buffer    int
	forwarder Forwarder
	closed    bool
}

// NewHub 创建 Hub；buffer 为每个订阅者的通道容量
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// SetForwarder 设置跨实例转发器
func (h *Hub) SetForwarder(f Forwarder) {
	h.mu.Lock()
	h.forwarder = f
	h.mu.Unlock()
}

// Subscription 一个订阅
type Subscription struct {
	table string
	ch    chan Change
	hub   *Hub
	once  sync.Once
}

// C 通知通道；Hub 关闭或取消订阅后关闭
func (s *Subscription) C() <-chan Change {
	return s.ch
}

// Table 订阅的表名
func (s *Subscription) Table() string {
	return s.table
}

// Close 取消订阅，可重复调用
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Subscribe 订阅指定表的变更
func (h *Hub) Subscribe(table string) *Subscription {
	s := &Subscription{table: table, ch: make(chan Change, h.buffer), hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(s.ch)
		return s
	}
	set, ok := h.subs[table]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[table] = set
	}
	set[s] = struct{}{}
	metrics.RealtimeSubscribers.WithLabelValues(table).Inc()
	return s
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[s.table]
	if !ok {
		return
	}
	if _, ok := set[s]; !ok {
		return
	}
	delete(set, s)
	if len(set) == 0 {
		delete(h.subs, s.table)
	}
	close(s.ch)
	metrics.RealtimeSubscribers.WithLabelValues(s.table).Dec()
}

// Publish 发布本地产生的变更，并交给转发器
func (h *Hub) Publish(change Change) {
	if change.At.IsZero() {
		change.At = time.Now()
	}
	h.Deliver(change)

	h.mu.RLock()
	f := h.forwarder
	h.mu.RUnlock()
	if f != nil {
		f.Forward(change)
	}
}

// Deliver 只向本地订阅者分发，不转发（用于接收其他实例的变更）
func (h *Hub) Deliver(change Change) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		return
	}
	for s := range h.subs[change.Table] {
		select {
		case s.ch <- change:
		default:
			metrics.RealtimeDroppedTotal.WithLabelValues(change.Table).Inc()
		}
	}
}

// Subscribers 指定表当前订阅数
func (h *Hub) Subscribers(table string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[table])
}

// Close 关闭 Hub 并关闭所有订阅通道
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for table, set := range h.subs {
		for s := range set {
			close(s.ch)
			metrics.RealtimeSubscribers.WithLabelValues(table).Dec()
		}
	}
	h.subs = map[string]map[*Subscription]struct{}{}
}
