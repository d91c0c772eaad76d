package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/emberapp/ember-go/internal/db"
	"github.com/emberapp/ember-go/internal/fault"
	"github.com/emberapp/ember-go/internal/models"
)

const checkInColumns = `id, user_id, mood, energy, emotions, "timestamp", created_at`

// NewCheckIn is the create payload for a check-in. A nil Timestamp
// defaults to now server-side; nil Emotions defaults to the empty list.
// Energy is deliberately not range-checked here: the backend owns that
// constraint and the violation must surface, not be masked.
type NewCheckIn struct {
	UserID    string
	Mood      string
	Energy    int
	Emotions  []string
	Timestamp *time.Time
}

// CheckInPatch is a partial update; nil fields are left untouched.
type CheckInPatch struct {
	Mood      *string
	Energy    *int
	Emotions  *[]string
	Timestamp *time.Time
}

// CheckIns is the gateway for the check_ins table.
type CheckIns struct {
	client *db.Client
}

func NewCheckIns(client *db.Client) *CheckIns {
	return &CheckIns{client: client}
}

// Create inserts one check-in and returns the server-populated row.
func (g *CheckIns) Create(ctx context.Context, n NewCheckIn) (models.CheckIn, error) {
	pool, err := g.client.Session()
	if err != nil {
		return models.CheckIn{}, err
	}

	row := pool.QueryRowContext(ctx,
		`INSERT INTO check_ins (user_id, mood, energy, emotions, "timestamp")
		 VALUES ($1, $2, $3, COALESCE($4, '{}'::text[]), COALESCE($5, CURRENT_TIMESTAMP))
		 RETURNING `+checkInColumns,
		n.UserID, n.Mood, n.Energy, pq.Array(n.Emotions), n.Timestamp,
	)
	ci, err := scanCheckIn(row)
	if err != nil {
		return models.CheckIn{}, mapErr("create check-in", err)
	}
	return ci, nil
}

// List returns check-ins newest-first by occurrence time.
func (g *CheckIns) List(ctx context.Context, opts ListOptions) ([]models.CheckIn, error) {
	pool, err := g.client.Session()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + checkInColumns + ` FROM check_ins ORDER BY "timestamp" DESC`
	args := []any{}
	if opts.Limit > 0 {
		query += ` LIMIT $1`
		args = append(args, opts.Limit)
	}

	rows, err := pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list check-ins", err)
	}
	defer rows.Close()

	var out []models.CheckIn
	for rows.Next() {
		ci, err := scanCheckIn(rows)
		if err != nil {
			return nil, mapErr("list check-ins", err)
		}
		out = append(out, ci)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list check-ins", err)
	}
	return out, nil
}

// Update patches one check-in by id and returns the updated row.
func (g *CheckIns) Update(ctx context.Context, id string, p CheckInPatch) (models.CheckIn, error) {
	pool, err := g.client.Session()
	if err != nil {
		return models.CheckIn{}, err
	}

	var sets []setClause
	if p.Mood != nil {
		sets = append(sets, setClause{"mood", *p.Mood})
	}
	if p.Energy != nil {
		sets = append(sets, setClause{"energy", *p.Energy})
	}
	if p.Emotions != nil {
		sets = append(sets, setClause{"emotions", pq.Array(*p.Emotions)})
	}
	if p.Timestamp != nil {
		sets = append(sets, setClause{`"timestamp"`, *p.Timestamp})
	}
	if len(sets) == 0 {
		return g.get(ctx, id)
	}

	query, args := buildUpdate("check_ins", sets, id, checkInColumns)
	ci, err := scanCheckIn(pool.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return models.CheckIn{}, fault.New(fault.NotFound, "check-in not found")
	}
	if err != nil {
		return models.CheckIn{}, mapErr("update check-in", err)
	}
	return ci, nil
}

// Delete removes one check-in by id. Deleting a missing id is success.
func (g *CheckIns) Delete(ctx context.Context, id string) error {
	pool, err := g.client.Session()
	if err != nil {
		return err
	}
	if _, err := pool.ExecContext(ctx, `DELETE FROM check_ins WHERE id = $1`, id); err != nil {
		return mapErr("delete check-in", err)
	}
	return nil
}

func (g *CheckIns) get(ctx context.Context, id string) (models.CheckIn, error) {
	pool, err := g.client.Session()
	if err != nil {
		return models.CheckIn{}, err
	}
	ci, err := scanCheckIn(pool.QueryRowContext(ctx,
		`SELECT `+checkInColumns+` FROM check_ins WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.CheckIn{}, fault.New(fault.NotFound, "check-in not found")
	}
	if err != nil {
		return models.CheckIn{}, mapErr("get check-in", err)
	}
	return ci, nil
}

func scanCheckIn(row rowScanner) (models.CheckIn, error) {
	var ci models.CheckIn
	err := row.Scan(
		&ci.ID, &ci.UserID, &ci.Mood, &ci.Energy,
		pq.Array(&ci.Emotions), &ci.Timestamp, &ci.CreatedAt,
	)
	if err != nil {
		return models.CheckIn{}, err
	}
	if ci.Emotions == nil {
		ci.Emotions = []string{}
	}
	return ci, nil
}
