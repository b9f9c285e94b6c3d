package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type IHealthHandler interface {
	Healthz(c *gin.Context)
}

type HealthHandler struct {
	startedAt time.Time
	storeName string
}

func NewHealthHandler(storeName string) IHealthHandler {
	return &HealthHandler{startedAt: time.Now(), storeName: storeName}
}

// Healthz returns OK for health checks
func (h *HealthHandler) Healthz(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"store":  h.storeName,
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}
