package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/eatsy/identity-service/internal/apperr"
	"github.com/eatsy/identity-service/internal/log"
)

// respondErr maps a domain error kind to its HTTP status. Anything
// untyped collapses to a 500; the underlying message leaks only in dev.
func respondErr(c *gin.Context, err error, dev bool) {
	if ae, ok := apperr.As(err); ok {
		c.AbortWithStatusJSON(ae.Status, gin.H{"error": ae.Message})
		return
	}
	log.WithDD(c.Request.Context(), log.L()).Error("unhandled error",
		zap.String("path", c.FullPath()), zap.Error(err))
	msg := "internal error"
	if dev {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": msg})
}
