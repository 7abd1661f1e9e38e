package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"merygarcia/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// IPRateLimiter keeps one token bucket per client IP.
type IPRateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	msg      string
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewIPRateLimiter allows perMinute requests per IP with the given burst.
func NewIPRateLimiter(perMinute, burst int, msg string) *IPRateLimiter {
	return &IPRateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(float64(perMinute) / 60),
		burst:    burst,
		msg:      msg,
	}
}

func (l *IPRateLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

// Middleware rejects with 429 once the IP's bucket is empty.
func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(l.msg))
			return
		}
		c.Next()
	}
}

// StartPurge drops visitors idle for longer than idle until ctx is done.
func (l *IPRateLimiter) StartPurge(ctx context.Context, every, idle time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				l.mu.Lock()
				purged := 0
				for ip, v := range l.visitors {
					if now.Sub(v.lastSeen) > idle {
						delete(l.visitors, ip)
						purged++
					}
				}
				l.mu.Unlock()
				if purged > 0 {
					log.Debug().Int("purged", purged).Msg("rate_limiter: purged idle visitors")
				}
			}
		}
	}()
}

// LoginRateLimiter limits login attempts to 20 per minute per IP.
func LoginRateLimiter() *IPRateLimiter {
	return NewIPRateLimiter(20, 5, "Demasiados intentos de login. Intente en 1 minuto.")
}

// APIRateLimiter is the general limit for authenticated routes.
func APIRateLimiter(perMinute int) *IPRateLimiter {
	return NewIPRateLimiter(perMinute, perMinute/4+1, "Demasiadas solicitudes. Intente nuevamente en un momento.")
}
