package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// attemptLog 单个 IP 在窗口内的请求时间
type attemptLog struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string][]time.Time
}

func newAttemptLog(window time.Duration) *attemptLog {
	return &attemptLog{window: window, entries: make(map[string][]time.Time)}
}

// prune 去掉窗口外的记录，调用方需持有锁
func (l *attemptLog) prune(ip string, now time.Time) []time.Time {
	cutoff := now.Add(-l.window)
	kept := l.entries[ip][:0]
	for _, t := range l.entries[ip] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		delete(l.entries, ip)
		return nil
	}
	l.entries[ip] = kept
	return kept
}

// allow 记录一次尝试，超过上限返回 false
func (l *attemptLog) allow(ip string, maxAttempts int, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.prune(ip, now)) >= maxAttempts {
		return false
	}
	l.entries[ip] = append(l.entries[ip], now)
	return true
}

func (l *attemptLog) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip := range l.entries {
		l.prune(ip, now)
	}
}

// LoginRateLimit 登录、注册接口限流中间件
// 每 IP 在 window 内最多 maxAttempts 次尝试，超过则返回 429
func LoginRateLimit(maxAttempts int, window time.Duration) gin.HandlerFunc {
	attempts := newAttemptLog(window)
	// 定期清理过期数据
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for now := range ticker.C {
			attempts.sweep(now)
		}
	}()

	return func(c *gin.Context) {
		if !attempts.allow(c.ClientIP(), maxAttempts, time.Now()) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code":    http.StatusTooManyRequests,
				"message": "尝试过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}
