package ratelimit

import (
	"strconv"

	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/tax-task-tracker/internal/errors"
)

// Middleware limits requests per client IP and scope.
func Middleware(l Limiter, limit int, scope string) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := l.Allow(c.Request.Context(), scope+":"+c.ClientIP(), limit)

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))

		if !d.Allowed {
			apierrors.TooManyRequests(c, "Too many attempts, try again later")
			return
		}
		c.Next()
	}
}
