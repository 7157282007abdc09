package store

import (
	"context"
	"fmt"
	"time"

	"quizlytics/api/models"
)

const (
	topEventTypesLimit = 6
	topPagesLimit      = 10
	recentEventsLimit  = 15

	// RealtimeWindow is the trailing window of the realtime snapshot. The
	// lower boundary is inclusive: a row stamped exactly at now-5m counts.
	RealtimeWindow = 5 * time.Minute
)

// DashboardStats computes the dashboard summary fresh from the tables.
// The individual statements run outside one transaction, so under
// concurrent writes the numbers may reflect slightly different instants.
func (s *AnalyticsStore) DashboardStats(ctx context.Context, now time.Time) (models.DashboardStats, error) {
	stats := models.DashboardStats{
		TopEvents:     []models.CountRow{},
		PageViews:     []models.CountRow{},
		QuizResults:   []models.CountRow{},
		HourlyTraffic: []models.HourCount{},
	}

	todayStart := models.FormatTimestamp(
		time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()))

	var err error
	if stats.TotalEvents, err = s.countRow(ctx, `SELECT COUNT(*) FROM events`); err != nil {
		return stats, err
	}
	if stats.TotalSessions, err = s.countRow(ctx,
		`SELECT COUNT(DISTINCT session_id) FROM events WHERE session_id IS NOT NULL`); err != nil {
		return stats, err
	}
	if stats.TodayEvents, err = s.countRow(ctx,
		`SELECT COUNT(*) FROM events WHERE timestamp >= ?`, todayStart); err != nil {
		return stats, err
	}
	if stats.TodaySessions, err = s.countRow(ctx,
		`SELECT COUNT(DISTINCT session_id) FROM events WHERE session_id IS NOT NULL AND timestamp >= ?`, todayStart); err != nil {
		return stats, err
	}

	if stats.TopEvents, err = s.countGroup(ctx, fmt.Sprintf(`
		SELECT event_type, COUNT(*) AS cnt
		FROM events
		GROUP BY event_type
		ORDER BY cnt DESC, event_type ASC
		LIMIT %d
	`, topEventTypesLimit)); err != nil {
		return stats, err
	}

	if stats.PageViews, err = s.countGroup(ctx, fmt.Sprintf(`
		SELECT page, COUNT(*) AS cnt
		FROM events
		WHERE event_type = 'page_view'
		GROUP BY page
		ORDER BY cnt DESC, page ASC
		LIMIT %d
	`, topPagesLimit)); err != nil {
		return stats, err
	}

	if stats.QuizResults, err = s.countGroup(ctx, `
		SELECT result_name, COUNT(*) AS cnt
		FROM results
		GROUP BY result_name
		ORDER BY cnt DESC, result_name ASC
	`); err != nil {
		return stats, err
	}

	if stats.HourlyTraffic, err = s.hourlyTraffic(ctx, todayStart); err != nil {
		return stats, err
	}

	return stats, nil
}

// RealtimeStats computes the trailing-window snapshot.
func (s *AnalyticsStore) RealtimeStats(ctx context.Context, now time.Time) (models.RealtimeStats, error) {
	stats := models.RealtimeStats{RecentEvents: []models.Event{}}
	since := models.FormatTimestamp(now.Add(-RealtimeWindow))

	var err error
	if stats.ActiveEvents, err = s.countRow(ctx,
		`SELECT COUNT(*) FROM events WHERE timestamp >= ?`, since); err != nil {
		return stats, err
	}
	if stats.ActiveSessions, err = s.countRow(ctx,
		`SELECT COUNT(DISTINCT session_id) FROM events WHERE session_id IS NOT NULL AND timestamp >= ?`, since); err != nil {
		return stats, err
	}

	query := s.rebind(fmt.Sprintf(`
		SELECT id, timestamp, session_id, source_ip, page, event_type, properties
		FROM events
		ORDER BY timestamp DESC
		LIMIT %d
	`, recentEventsLimit))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return stats, fmt.Errorf("failed to query recent events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return stats, err
		}
		stats.RecentEvents = append(stats.RecentEvents, e)
	}
	if err := rows.Err(); err != nil {
		return stats, fmt.Errorf("row error during recent events query: %w", err)
	}

	return stats, nil
}

func (s *AnalyticsStore) countRow(ctx context.Context, query string, args ...interface{}) (uint64, error) {
	var count uint64
	if err := s.db.QueryRowContext(ctx, s.rebind(query), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to run count query: %w", err)
	}
	return count, nil
}

func (s *AnalyticsStore) countGroup(ctx context.Context, query string, args ...interface{}) ([]models.CountRow, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run grouped count query: %w", err)
	}
	defer rows.Close()

	results := []models.CountRow{}
	for rows.Next() {
		var row models.CountRow
		if err := rows.Scan(&row.Label, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan grouped count row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during grouped count query: %w", err)
	}
	return results, nil
}

// hourlyTraffic buckets today's events by the two-digit hour embedded in
// the fixed-width timestamp text. Hours with zero events are omitted; the
// list is sparse, not a zero-filled 24-entry array.
func (s *AnalyticsStore) hourlyTraffic(ctx context.Context, todayStart string) ([]models.HourCount, error) {
	query := s.rebind(`
		SELECT substr(timestamp, 12, 2) AS hour, COUNT(*) AS cnt
		FROM events
		WHERE timestamp >= ?
		GROUP BY hour
		ORDER BY hour ASC
	`)

	rows, err := s.db.QueryContext(ctx, query, todayStart)
	if err != nil {
		return nil, fmt.Errorf("failed to query hourly traffic: %w", err)
	}
	defer rows.Close()

	results := []models.HourCount{}
	for rows.Next() {
		var row models.HourCount
		if err := rows.Scan(&row.Hour, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan hourly traffic row: %w", err)
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during hourly traffic query: %w", err)
	}
	return results, nil
}
