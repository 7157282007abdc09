package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"quizlytics/api/database"
	"quizlytics/api/models"
	"quizlytics/api/utils"
)

// AnalyticsStore is the primary storage engine over the events and results
// tables. Both tables are insert-only; no update or delete is exposed.
type AnalyticsStore struct {
	db     *sql.DB
	driver string
}

func NewAnalyticsStore(client *database.DBClient) *AnalyticsStore {
	return &AnalyticsStore{db: client.DB, driver: client.Driver}
}

func (s *AnalyticsStore) rebind(query string) string {
	return utils.Rebind(s.driver, query)
}

// InsertEvent persists a single event row.
func (s *AnalyticsStore) InsertEvent(ctx context.Context, e models.Event) error {
	query := s.rebind(`
		INSERT INTO events (id, timestamp, session_id, source_ip, page, event_type, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		e.ID, e.Timestamp, nullable(e.SessionID), e.SourceIP, e.Page, e.EventType, string(e.Properties))
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}
	return nil
}

// InsertEventBatch persists every event in one transaction. Either all rows
// commit or none do; a failure on any row rolls the whole batch back.
func (s *AnalyticsStore) InsertEventBatch(ctx context.Context, events []models.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO events (id, timestamp, session_id, source_ip, page, event_type, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range events {
		if _, err := stmt.ExecContext(ctx,
			e.ID, e.Timestamp, nullable(e.SessionID), e.SourceIP, e.Page, e.EventType, string(e.Properties)); err != nil {
			return fmt.Errorf("failed to insert event %s in batch: %w", e.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// InsertResult persists a single quiz result row.
func (s *AnalyticsStore) InsertResult(ctx context.Context, r models.Result) error {
	query := s.rebind(`
		INSERT INTO results (id, timestamp, session_id, result_name, scores)
		VALUES (?, ?, ?, ?, ?)
	`)
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Timestamp, nullable(r.SessionID), r.ResultName, string(r.Scores))
	if err != nil {
		return fmt.Errorf("failed to insert result: %w", err)
	}
	return nil
}

// QueryEvents returns events newest-first. start/end are "2006-01-02"
// dates expanded to inclusive day boundaries; empty strings mean unbounded.
func (s *AnalyticsStore) QueryEvents(ctx context.Context, start, end string, page, pageSize int) ([]models.Event, error) {
	where, args, err := dayRangeClause(start, end)
	if err != nil {
		return nil, err
	}
	limit, offset := utils.PageWindow(page, pageSize)
	args = append(args, limit, offset)

	query := s.rebind(fmt.Sprintf(`
		SELECT id, timestamp, session_id, source_ip, page, event_type, properties
		FROM events
		%s
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`, where))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during events query: %w", err)
	}
	return events, nil
}

// QueryResults returns results newest-first with the same paging and date
// semantics as QueryEvents.
func (s *AnalyticsStore) QueryResults(ctx context.Context, start, end string, page, pageSize int) ([]models.Result, error) {
	where, args, err := dayRangeClause(start, end)
	if err != nil {
		return nil, err
	}
	limit, offset := utils.PageWindow(page, pageSize)
	args = append(args, limit, offset)

	query := s.rebind(fmt.Sprintf(`
		SELECT id, timestamp, session_id, result_name, scores
		FROM results
		%s
		ORDER BY timestamp DESC
		LIMIT ? OFFSET ?
	`, where))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	results := []models.Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during results query: %w", err)
	}
	return results, nil
}

// ResultsBySession returns all results recorded under one session token,
// newest-first.
func (s *AnalyticsStore) ResultsBySession(ctx context.Context, sessionID string) ([]models.Result, error) {
	query := s.rebind(`
		SELECT id, timestamp, session_id, result_name, scores
		FROM results
		WHERE session_id = ?
		ORDER BY timestamp DESC
	`)

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query results by session: %w", err)
	}
	defer rows.Close()

	results := []models.Result{}
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during session results query: %w", err)
	}
	return results, nil
}

func dayRangeClause(start, end string) (string, []interface{}, error) {
	var conds []string
	var args []interface{}

	if start != "" {
		t, err := utils.DayStart(start)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, "timestamp >= ?")
		args = append(args, models.FormatTimestamp(t))
	}
	if end != "" {
		t, err := utils.DayEnd(end)
		if err != nil {
			return "", nil, err
		}
		conds = append(conds, "timestamp <= ?")
		args = append(args, models.FormatTimestamp(t))
	}

	if len(conds) == 0 {
		return "", args, nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args, nil
}

func scanEvent(rows *sql.Rows) (models.Event, error) {
	var e models.Event
	var sessionID sql.NullString
	var properties string
	if err := rows.Scan(&e.ID, &e.Timestamp, &sessionID, &e.SourceIP, &e.Page, &e.EventType, &properties); err != nil {
		return models.Event{}, fmt.Errorf("failed to scan event row: %w", err)
	}
	e.SessionID = sessionID.String
	e.Properties = []byte(properties)
	return e, nil
}

func scanResult(rows *sql.Rows) (models.Result, error) {
	var r models.Result
	var sessionID sql.NullString
	var scores string
	if err := rows.Scan(&r.ID, &r.Timestamp, &sessionID, &r.ResultName, &scores); err != nil {
		return models.Result{}, fmt.Errorf("failed to scan result row: %w", err)
	}
	r.SessionID = sessionID.String
	r.Scores = []byte(scores)
	return r, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
