package stub

import (
	"errors"
	"net/http"
	"time"

	"github.com/dshills/byteme/internal/request"
	"github.com/dshills/byteme/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Router exposes svc over the analysis HTTP API.
func Router(svc *Service, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestLogger(log))

	r.GET("/api/health", func(c *gin.Context) {
		h, _ := svc.Health(c.Request.Context())
		c.JSON(http.StatusOK, h)
	})

	r.POST("/api/analyze", func(c *gin.Context) {
		var req request.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
			return
		}
		resp, err := svc.Analyze(c.Request.Context(), req)
		if err != nil {
			var rej *service.RejectedError
			if errors.As(err, &rej) {
				c.JSON(rej.StatusCode, gin.H{"error": rej.Message})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, resp)
	})
	return r
}

func requestLogger(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		if id := c.GetHeader("X-Request-ID"); id != "" {
			c.Header("X-Request-ID", id)
		}
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("request_id", c.GetHeader("X-Request-ID")).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("stub request")
	}
}
