// Package journal is an optional append-only record of the writes this
// service made to shared walls. It is a local audit trail only; the remote
// baskets stay the source of truth.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"pantrywall/internal/pantry"
)

// Kind names what happened.
type Kind string

const (
	NoteSaved       Kind = "note_saved"
	NameClaimed     Kind = "name_claimed"
	SettingsApplied Kind = "settings_applied"
)

// Event is one journal row.
type Event struct {
	ID        int64     `json:"id"`
	Kind      Kind      `json:"kind"`
	PantryID  string    `json:"pid"`
	Basket    string    `json:"key"`
	Identity  string    `json:"identity,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultLimit caps Recent when the caller passes no limit.
const DefaultLimit = 50

// MaxLimit is the most rows Recent returns, whatever the caller asks for.
const MaxLimit = 200

// Journal writes and lists events in Postgres.
type Journal struct {
	db *sql.DB
}

func New(db *sql.DB) *Journal {
	return &Journal{db: db}
}

func (j *Journal) Ping(ctx context.Context) error {
	return j.db.PingContext(ctx)
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Record appends e. A zero CreatedAt takes the database clock.
func (j *Journal) Record(ctx context.Context, e Event) error {
	var createdAt any
	if !e.CreatedAt.IsZero() {
		createdAt = e.CreatedAt.UTC()
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO wall_activity (kind, pantry_id, basket, identity, detail, created_at)
		VALUES ($1, $2, $3, $4, $5, COALESCE($6::timestamptz, NOW()))
	`, string(e.Kind), e.PantryID, e.Basket, e.Identity, e.Detail, createdAt)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Kind, err)
	}
	return nil
}

// Recent lists the newest events for one bucket, newest first.
func (j *Journal) Recent(ctx context.Context, ref pantry.Ref, limit int) ([]Event, error) {
	limit = clampLimit(limit)
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, kind, pantry_id, basket, identity, detail, created_at
		FROM wall_activity
		WHERE pantry_id = $1 AND basket = $2
		ORDER BY created_at DESC, id DESC
		LIMIT $3
	`, ref.PantryID, ref.Basket, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	defer rows.Close()

	events := []Event{}
	for rows.Next() {
		var e Event
		var kind string
		if err := rows.Scan(&e.ID, &kind, &e.PantryID, &e.Basket, &e.Identity, &e.Detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		e.Kind = Kind(kind)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return events, nil
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}
