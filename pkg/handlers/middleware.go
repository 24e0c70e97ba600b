package handlers

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// APIKeyAuth X-API-KEYヘッダーで認証する。apiKeyが空の場合は認証しない。
func APIKeyAuth(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			c.Next()
			return
		}
		providedKey := c.GetHeader("X-API-KEY")
		if providedKey != apiKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// limiterIdleTTL この期間リクエストのないIPのリミッターは破棄する
const limiterIdleTTL = 5 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter クライアントIPごとのトークンバケット
type RateLimiter struct {
	limiters  map[string]*clientLimiter
	rps       rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

// NewRateLimiter 新しいRateLimiterを作成。rps <= 0 の場合は制限しない。
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rps:      rate.Limit(rps),
		burst:    burst,
		idleTTL:  limiterIdleTTL,
		now:      time.Now,
	}
}

// Allow ipからのリクエストを許可するか判定する
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.rps <= 0 {
		return true
	}

	rl.mu.Lock()
	now := rl.now()
	rl.sweep(now)
	entry, ok := rl.limiters[ip]
	if !ok {
		entry = &clientLimiter{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.limiters[ip] = entry
	}
	entry.lastSeen = now
	rl.mu.Unlock()

	return entry.limiter.AllowN(now, 1)
}

// sweep idleTTLごとにアイドルなリミッターを削除する。mu保持中に呼ぶ。
func (rl *RateLimiter) sweep(now time.Time) {
	if now.Sub(rl.lastSweep) < rl.idleTTL {
		return
	}
	for ip, entry := range rl.limiters {
		if now.Sub(entry.lastSeen) >= rl.idleTTL {
			delete(rl.limiters, ip)
		}
	}
	rl.lastSweep = now
}

// Middleware レート制限を超えたリクエストに429を返すGinミドルウェア
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.Allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
