package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/emberapp/ember-go/internal/db"
	"github.com/emberapp/ember-go/internal/fault"
	"github.com/emberapp/ember-go/internal/models"
)

const eventColumns = "id, user_id, type, time, importance, created_at"

// NewEvent is the create payload for an event. Time may be nil for an
// untimed event.
type NewEvent struct {
	UserID     string
	Type       string
	Time       *time.Time
	Importance models.Importance
}

// EventPatch is a partial update; nil fields are left untouched.
type EventPatch struct {
	Type       *string
	Time       *time.Time
	Importance *models.Importance
}

// Events is the gateway for the events table.
type Events struct {
	client *db.Client
}

func NewEvents(client *db.Client) *Events {
	return &Events{client: client}
}

// Create inserts one event and returns the server-populated row.
func (g *Events) Create(ctx context.Context, n NewEvent) (models.Event, error) {
	pool, err := g.client.Session()
	if err != nil {
		return models.Event{}, err
	}

	row := pool.QueryRowContext(ctx,
		`INSERT INTO events (user_id, type, time, importance)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+eventColumns,
		n.UserID, n.Type, n.Time, string(n.Importance),
	)
	ev, err := scanEvent(row)
	if err != nil {
		return models.Event{}, mapErr("create event", err)
	}
	return ev, nil
}

// List returns events newest-first by creation time.
func (g *Events) List(ctx context.Context, opts ListOptions) ([]models.Event, error) {
	pool, err := g.client.Session()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + eventColumns + ` FROM events ORDER BY created_at DESC`
	args := []any{}
	if opts.Limit > 0 {
		query += ` LIMIT $1`
		args = append(args, opts.Limit)
	}

	rows, err := pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list events", err)
	}
	defer rows.Close()

	var out []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, mapErr("list events", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list events", err)
	}
	return out, nil
}

// Update patches one event by id and returns the updated row.
func (g *Events) Update(ctx context.Context, id string, p EventPatch) (models.Event, error) {
	pool, err := g.client.Session()
	if err != nil {
		return models.Event{}, err
	}

	var sets []setClause
	if p.Type != nil {
		sets = append(sets, setClause{"type", *p.Type})
	}
	if p.Time != nil {
		sets = append(sets, setClause{"time", *p.Time})
	}
	if p.Importance != nil {
		sets = append(sets, setClause{"importance", string(*p.Importance)})
	}
	if len(sets) == 0 {
		return g.get(ctx, id)
	}

	query, args := buildUpdate("events", sets, id, eventColumns)
	ev, err := scanEvent(pool.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, fault.New(fault.NotFound, "event not found")
	}
	if err != nil {
		return models.Event{}, mapErr("update event", err)
	}
	return ev, nil
}

// Delete removes one event by id. Deleting a missing id is success.
func (g *Events) Delete(ctx context.Context, id string) error {
	pool, err := g.client.Session()
	if err != nil {
		return err
	}
	if _, err := pool.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
		return mapErr("delete event", err)
	}
	return nil
}

func (g *Events) get(ctx context.Context, id string) (models.Event, error) {
	pool, err := g.client.Session()
	if err != nil {
		return models.Event{}, err
	}
	ev, err := scanEvent(pool.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Event{}, fault.New(fault.NotFound, "event not found")
	}
	if err != nil {
		return models.Event{}, mapErr("get event", err)
	}
	return ev, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (models.Event, error) {
	var (
		ev         models.Event
		when       sql.NullTime
		importance string
	)
	if err := row.Scan(&ev.ID, &ev.UserID, &ev.Type, &when, &importance, &ev.CreatedAt); err != nil {
		return models.Event{}, err
	}
	if when.Valid {
		t := when.Time
		ev.Time = &t
	}
	ev.Importance = models.Importance(importance)
	return ev, nil
}
