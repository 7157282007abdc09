package models

import (
	"encoding/json"
	"time"
)

// TimestampLayout is the storage format for all event/result timestamps.
// Fixed-width fractional seconds keep lexicographic order equal to time
// order, so the TEXT columns can be range-filtered with string comparison.
const TimestampLayout = "2006-01-02T15:04:05.000000-07:00"

// FormatTimestamp renders t in the storage layout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// Event is one row of the events table.
type Event struct {
	ID         string          `json:"id"`
	Timestamp  string          `json:"timestamp"`
	SessionID  string          `json:"session_id"`
	SourceIP   string          `json:"source_ip"`
	Page       string          `json:"page"`
	EventType  string          `json:"event_type"`
	Properties json.RawMessage `json:"properties"`
}

// Result is one row of the results table.
type Result struct {
	ID         string          `json:"id"`
	Timestamp  string          `json:"timestamp"`
	SessionID  string          `json:"session_id"`
	ResultName string          `json:"result_name"`
	Scores     json.RawMessage `json:"scores"`
}

// CountRow is a generic label/count pair used by the ranking aggregations.
type CountRow struct {
	Label string `json:"label"`
	Count uint64 `json:"count"`
}

// HourCount is one bucket of the hour-of-day histogram, keyed by the
// two-digit hour ("00".."23").
type HourCount struct {
	Hour  string `json:"hour"`
	Count uint64 `json:"count"`
}

// DashboardStats is the full dashboard summary payload.
type DashboardStats struct {
	TotalEvents   uint64      `json:"totalEvents"`
	TotalSessions uint64      `json:"totalSessions"`
	TodayEvents   uint64      `json:"todayEvents"`
	TodaySessions uint64      `json:"todaySessions"`
	TopEvents     []CountRow  `json:"topEvents"`
	PageViews     []CountRow  `json:"pageViews"`
	QuizResults   []CountRow  `json:"quizResults"`
	HourlyTraffic []HourCount `json:"hourlyTraffic"`
}

// RealtimeStats is the trailing-window snapshot payload.
type RealtimeStats struct {
	ActiveEvents   uint64  `json:"activeEvents"`
	ActiveSessions uint64  `json:"activeSessions"`
	RecentEvents   []Event `json:"recentEvents"`
}
