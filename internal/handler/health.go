package handler

import (
	"net/http"

	"github.com/pirela/sistema-guia/internal/cache"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type HealthHandler struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewHealthHandler(db *gorm.DB, c *cache.Cache) *HealthHandler {
	return &HealthHandler{db: db, cache: c}
}

// Check reports liveness plus a DB ping and the cache entry count.
func (h *HealthHandler) Check(c *gin.Context) {
	dbStatus := "ok"
	if sqlDB, err := h.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		dbStatus = "down"
	}
	status := http.StatusOK
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status":        dbStatus,
		"cache_entries": h.cache.Len(),
	})
}
