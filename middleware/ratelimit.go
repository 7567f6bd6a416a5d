package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter 滑动窗口限流，按 key（IP）计数
type RateLimiter struct {
	max    int
	window time.Duration

	mu      sync.Mutex
	entries map[string][]time.Time
}

// NewRateLimiter 创建限流器，每个 key 在 window 内最多 limit 次
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{max: limit, window: window, entries: make(map[string][]time.Time)}
}

// Allow 记录一次尝试，超过上限返回 false
func (l *RateLimiter) Allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := prune(l.entries[key], now.Add(-l.window))
	if len(ts) >= l.max {
		l.entries[key] = ts
		return false
	}
	l.entries[key] = append(ts, now)
	return true
}

// Sweep 清理窗口外的记录
func (l *RateLimiter) Sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := now.Add(-l.window)
	for key, ts := range l.entries {
		if ts = prune(ts, cutoff); len(ts) == 0 {
			delete(l.entries, key)
		} else {
			l.entries[key] = ts
		}
	}
}

// Len 当前跟踪的 key 数
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Run 定期清理，ctx 结束时退出
func (l *RateLimiter) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.Sweep(now)
		}
	}
}

func prune(ts []time.Time, cutoff time.Time) []time.Time {
	kept := ts[:0]
	for _, t := range ts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}

// LoginRateLimit 登录、注册接口限流中间件，超过返回 429
func LoginRateLimit(l *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP(), time.Now()) {
			abortJSON(c, http.StatusTooManyRequests, "Demasiados intentos. Espera un momento e inténtalo de nuevo.")
			return
		}
		c.Next()
	}
}
