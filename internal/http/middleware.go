package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/eatsy/identity-service/internal/apperr"
	"github.com/eatsy/identity-service/internal/auth"
	"github.com/eatsy/identity-service/internal/domain"
	"github.com/eatsy/identity-service/internal/log"
	"github.com/eatsy/identity-service/internal/metrics"
)

const authUserKey = "auth.user"

// RequestID assigns or propagates X-Request-ID and mirrors it into the
// request context for event and log correlation.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(log.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// Metrics records the prometheus request counters and latency.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.InFlight.Inc()
		start := time.Now()
		c.Next()
		metrics.InFlight.Dec()
		metrics.ReqDuration.WithLabelValues(route, c.Request.Method).
			Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(route, c.Request.Method,
			strconv.Itoa(c.Writer.Status())).Inc()
	}
}

// Authenticate resolves the bearer session token to the current
// identity and stores it in the context. Proof tokens fail here: they
// carry the wrong purpose.
func (h *Handler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			respondErr(c, apperr.Unauthorized("No token provided"), h.Dev)
			return
		}
		u, err := h.Auth.ValidateToken(c.Request.Context(), token)
		if err != nil {
			respondErr(c, err, h.Dev)
			return
		}
		c.Set(authUserKey, u)
		c.Next()
	}
}

// RequireRoles gates a route on role membership. Authenticate must run
// first.
func (h *Handler) RequireRoles(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.RequireRole(currentUser(c), roles...); err != nil {
			respondErr(c, err, h.Dev)
			return
		}
		c.Next()
	}
}

// RateLimit applies a fixed window per client IP. With no limiter
// configured the check is disabled; the limiter's signal still passes
// through as 429 wherever it originates.
func (h *Handler) RateLimit(scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h.Limiter == nil || h.RateLimitPerMin <= 0 {
			c.Next()
			return
		}
		key := "rl:" + scope + ":" + c.ClientIP()
		if !h.Limiter.Allow(c.Request.Context(), key, h.RateLimitPerMin, time.Minute) {
			respondErr(c, apperr.TooManyRequests("Too many attempts, please try again later"), h.Dev)
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *domain.User {
	u, _ := c.Get(authUserKey)
	return u.(*domain.User)
}
