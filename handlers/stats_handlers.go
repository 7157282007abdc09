package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Health is the liveness probe.
func (h *AnalyticsHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Dashboard serves the aggregation summary, computed fresh on every call.
func (h *AnalyticsHandlers) Dashboard(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.Store.DashboardStats(ctx, time.Now())
	if err != nil {
		log.Printf("Error computing dashboard stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dashboard statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Realtime serves the trailing-5-minute snapshot.
func (h *AnalyticsHandlers) Realtime(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	stats, err := h.Store.RealtimeStats(ctx, time.Now())
	if err != nil {
		log.Printf("Error computing realtime stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve realtime statistics"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
