package store

import (
	"context"
	"fmt"

	"quizlytics/api/database"
	"quizlytics/api/models"
)

// MirrorStore is the contract a secondary store must satisfy: single-row
// inserts of both shapes plus a query-by-session read. The core tolerates
// its total unavailability.
type MirrorStore interface {
	InsertEvent(ctx context.Context, e models.Event) error
	InsertResult(ctx context.Context, r models.Result) error
	ResultsBySession(ctx context.Context, sessionID string) ([]models.Result, error)
}

// ClickHouseMirror mirrors writes into ClickHouse, best-effort.
type ClickHouseMirror struct {
	DB *database.ClickHouseClient
}

func NewClickHouseMirror(chClient *database.ClickHouseClient) *ClickHouseMirror {
	return &ClickHouseMirror{DB: chClient}
}

func (m *ClickHouseMirror) InsertEvent(ctx context.Context, e models.Event) error {
	err := m.DB.Conn.Exec(ctx, `
		INSERT INTO events (id, timestamp, session_id, source_ip, page, event_type, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Timestamp, e.SessionID, e.SourceIP, e.Page, e.EventType, string(e.Properties))
	if err != nil {
		return fmt.Errorf("failed to mirror event %s: %w", e.ID, err)
	}
	return nil
}

func (m *ClickHouseMirror) InsertResult(ctx context.Context, r models.Result) error {
	err := m.DB.Conn.Exec(ctx, `
		INSERT INTO results (id, timestamp, session_id, result_name, scores)
		VALUES (?, ?, ?, ?, ?)
	`, r.ID, r.Timestamp, r.SessionID, r.ResultName, string(r.Scores))
	if err != nil {
		return fmt.Errorf("failed to mirror result %s: %w", r.ID, err)
	}
	return nil
}

func (m *ClickHouseMirror) ResultsBySession(ctx context.Context, sessionID string) ([]models.Result, error) {
	rows, err := m.DB.Conn.Query(ctx, `
		SELECT id, timestamp, session_id, result_name, scores
		FROM results
		WHERE session_id = ?
		ORDER BY timestamp DESC
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query mirrored results: %w", err)
	}
	defer rows.Close()

	results := []models.Result{}
	for rows.Next() {
		var r models.Result
		var scores string
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.SessionID, &r.ResultName, &scores); err != nil {
			return nil, fmt.Errorf("failed to scan mirrored result: %w", err)
		}
		r.Scores = []byte(scores)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row error during mirrored results query: %w", err)
	}
	return results, nil
}
