package controllers

import (
	"context"
	"net/http"
	"time"

	"dentalclinic-backend/config"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const healthTimeout = 2 * time.Second

// HealthCheck answers 200 while the database responds and 503 otherwise.
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		if err := config.Ping(ctx, db); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "DEGRADED", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "OK", "database": "up"})
	}
}
