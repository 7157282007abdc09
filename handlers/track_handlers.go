// api/handlers/track_handlers.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"time"

	"quizlytics/api/middleware"
	"quizlytics/api/models"
	"quizlytics/api/store"
	"quizlytics/api/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AnalyticsHandlers struct {
	Store     *store.AnalyticsStore
	Mirror    store.MirrorStore
	Forwarder *store.Forwarder
}

func NewAnalyticsHandlers(s *store.AnalyticsStore, mirror store.MirrorStore, forwarder *store.Forwarder) *AnalyticsHandlers {
	return &AnalyticsHandlers{
		Store:     s,
		Mirror:    mirror,
		Forwarder: forwarder,
	}
}

type trackEventsRequest struct {
	Batch []models.RawEvent `json:"batch"`
}

// TrackEvents ingests one event or a batch. Every item in the request is
// stamped with one shared server timestamp and the caller's session token,
// then written in a single transaction: all rows commit or none do.
func (h *AnalyticsHandlers) TrackEvents(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	rawEvents, err := decodeEventPayload(body)
	if err != nil {
		log.Printf("Error decoding incoming analytics JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	if len(rawEvents) == 0 {
		c.JSON(http.StatusOK, gin.H{"ok": true, "inserted": 0})
		return
	}

	timestamp := models.FormatTimestamp(time.Now())
	sessionID := middleware.SessionID(c)
	sourceIP := c.ClientIP()

	events := make([]models.Event, 0, len(rawEvents))
	for _, raw := range rawEvents {
		e := raw.Normalize()
		e.ID = uuid.New().String()
		e.Timestamp = timestamp
		e.SessionID = sessionID
		e.SourceIP = sourceIP
		events = append(events, e)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.Store.InsertEventBatch(ctx, events); err != nil {
		log.Printf("Error inserting analytics events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record events"})
		return
	}

	if h.Forwarder != nil {
		for _, e := range events {
			h.Forwarder.EnqueueEvent(e)
		}
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "inserted": len(events)})
}

// decodeEventPayload accepts {"batch":[...]}, a bare JSON array, or a
// single event object.
func decodeEventPayload(body []byte) ([]models.RawEvent, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var events []models.RawEvent
		if err := json.Unmarshal(trimmed, &events); err != nil {
			return nil, err
		}
		return events, nil
	}

	var req trackEventsRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, err
	}
	if req.Batch != nil {
		return req.Batch, nil
	}

	var single models.RawEvent
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []models.RawEvent{single}, nil
}

// TrackResult records one quiz outcome for the caller's session.
func (h *AnalyticsHandlers) TrackResult(c *gin.Context) {
	var raw models.RawResult
	if err := c.ShouldBindJSON(&raw); err != nil {
		log.Printf("Error binding incoming result JSON: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	r := raw.Normalize()
	r.ID = uuid.New().String()
	r.Timestamp = models.FormatTimestamp(time.Now())
	r.SessionID = middleware.SessionID(c)

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	if err := h.Store.InsertResult(ctx, r); err != nil {
		log.Printf("Error inserting quiz result: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record result"})
		return
	}

	if h.Forwarder != nil {
		h.Forwarder.EnqueueResult(r)
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ListEvents serves the paged event query. start/end are calendar dates
// expanded to full inclusive days.
func (h *AnalyticsHandlers) ListEvents(c *gin.Context) {
	start, end, page, pageSize, ok := pagedQueryParams(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	events, err := h.Store.QueryEvents(ctx, start, end, page, pageSize)
	if err != nil {
		log.Printf("Error querying events: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}

	c.JSON(http.StatusOK, events)
}

// ListResults serves the paged result query.
func (h *AnalyticsHandlers) ListResults(c *gin.Context) {
	start, end, page, pageSize, ok := pagedQueryParams(c)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	results, err := h.Store.QueryResults(ctx, start, end, page, pageSize)
	if err != nil {
		log.Printf("Error querying results: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve results"})
		return
	}

	c.JSON(http.StatusOK, results)
}

// UserResults returns all quiz results recorded under the caller's session.
// The mirror store is preferred when configured; on error or an empty
// answer the primary store serves the read.
func (h *AnalyticsHandlers) UserResults(c *gin.Context) {
	sessionID := middleware.SessionID(c)
	if sessionID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No session"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if h.Mirror != nil {
		results, err := h.Mirror.ResultsBySession(ctx, sessionID)
		if err != nil {
			log.Printf("Mirror read failed, falling back to primary: %v", err)
		} else if len(results) > 0 {
			c.JSON(http.StatusOK, results)
			return
		}
	}

	results, err := h.Store.ResultsBySession(ctx, sessionID)
	if err != nil {
		log.Printf("Error querying session results: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve results"})
		return
	}

	c.JSON(http.StatusOK, results)
}

func pagedQueryParams(c *gin.Context) (start, end string, page, pageSize int, ok bool) {
	start = c.Query("start")
	end = c.Query("end")

	for _, date := range []string{start, end} {
		if date == "" {
			continue
		}
		if _, err := utils.DayStart(date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid date format. Use YYYY-MM-DD."})
			return "", "", 0, 0, false
		}
	}

	page = 1
	if p := c.Query("page"); p != "" {
		parsed, err := strconv.Atoi(p)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'page' parameter. Must be a positive integer."})
			return "", "", 0, 0, false
		}
		page = parsed
	}

	pageSize = 0
	if ps := c.Query("pageSize"); ps != "" {
		parsed, err := strconv.Atoi(ps)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid 'pageSize' parameter. Must be a positive integer."})
			return "", "", 0, 0, false
		}
		pageSize = parsed
	}

	return start, end, page, pageSize, true
}
