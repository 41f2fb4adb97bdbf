package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/90n9/talepick/internal/config"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// HealthResponse reports component health
type HealthResponse struct {
	Status  string `json:"status"`
	MongoDB string `json:"mongodb"`
	Redis   string `json:"redis"`
}

// HealthCheck godoc
// @Summary Health check
// @Description Reports service and dependency health
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func HealthCheck(c *gin.Context) {
	pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{Status: "ok", MongoDB: "ok", Redis: "ok"}
	status := http.StatusOK

	if err := config.MongoDB.Client().Ping(pingCtx, readpref.Primary()); err != nil {
		response.MongoDB = "unavailable"
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	if err := config.Redis.Ping(pingCtx).Err(); err != nil {
		response.Redis = "unavailable"
		response.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, response)
}
