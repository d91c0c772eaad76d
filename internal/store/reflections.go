package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/emberapp/ember-go/internal/db"
	"github.com/emberapp/ember-go/internal/fault"
	"github.com/emberapp/ember-go/internal/models"
)

const reflectionColumns = "id, user_id, content, created_at"

// NewReflection is the create payload for a reflection. Content emptiness
// is the backend's check; it is passed through untouched.
type NewReflection struct {
	UserID  string
	Content string
}

// ReflectionPatch is a partial update; a nil Content leaves it untouched.
type ReflectionPatch struct {
	Content *string
}

// Reflections is the gateway for the reflections table.
type Reflections struct {
	client *db.Client
}

func NewReflections(client *db.Client) *Reflections {
	return &Reflections{client: client}
}

// Create inserts one reflection and returns the server-populated row.
func (g *Reflections) Create(ctx context.Context, n NewReflection) (models.Reflection, error) {
	pool, err := g.client.Session()
	if err != nil {
		return models.Reflection{}, err
	}

	var r models.Reflection
	err = pool.QueryRowContext(ctx,
		`INSERT INTO reflections (user_id, content)
		 VALUES ($1, $2)
		 RETURNING `+reflectionColumns,
		n.UserID, n.Content,
	).Scan(&r.ID, &r.UserID, &r.Content, &r.CreatedAt)
	if err != nil {
		return models.Reflection{}, mapErr("create reflection", err)
	}
	return r, nil
}

// List returns reflections newest-first by creation time.
func (g *Reflections) List(ctx context.Context, opts ListOptions) ([]models.Reflection, error) {
	pool, err := g.client.Session()
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + reflectionColumns + ` FROM reflections ORDER BY created_at DESC`
	args := []any{}
	if opts.Limit > 0 {
		query += ` LIMIT $1`
		args = append(args, opts.Limit)
	}

	rows, err := pool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapErr("list reflections", err)
	}
	defer rows.Close()

	var out []models.Reflection
	for rows.Next() {
		var r models.Reflection
		if err := rows.Scan(&r.ID, &r.UserID, &r.Content, &r.CreatedAt); err != nil {
			return nil, mapErr("list reflections", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list reflections", err)
	}
	return out, nil
}

// Update patches one reflection by id and returns the updated row.
func (g *Reflections) Update(ctx context.Context, id string, p ReflectionPatch) (models.Reflection, error) {
	pool, err := g.client.Session()
	if err != nil {
		return models.Reflection{}, err
	}

	var sets []setClause
	if p.Content != nil {
		sets = append(sets, setClause{"content", *p.Content})
	}
	if len(sets) == 0 {
		return g.get(ctx, id)
	}

	query, args := buildUpdate("reflections", sets, id, reflectionColumns)
	var r models.Reflection
	err = pool.QueryRowContext(ctx, query, args...).
		Scan(&r.ID, &r.UserID, &r.Content, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reflection{}, fault.New(fault.NotFound, "reflection not found")
	}
	if err != nil {
		return models.Reflection{}, mapErr("update reflection", err)
	}
	return r, nil
}

// Delete removes one reflection by id. Deleting a missing id is success.
func (g *Reflections) Delete(ctx context.Context, id string) error {
	pool, err := g.client.Session()
	if err != nil {
		return err
	}
	if _, err := pool.ExecContext(ctx, `DELETE FROM reflections WHERE id = $1`, id); err != nil {
		return mapErr("delete reflection", err)
	}
	return nil
}

func (g *Reflections) get(ctx context.Context, id string) (models.Reflection, error) {
	pool, err := g.client.Session()
	if err != nil {
		return models.Reflection{}, err
	}
	var r models.Reflection
	err = pool.QueryRowContext(ctx,
		`SELECT `+reflectionColumns+` FROM reflections WHERE id = $1`, id).
		Scan(&r.ID, &r.UserID, &r.Content, &r.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Reflection{}, fault.New(fault.NotFound, "reflection not found")
	}
	if err != nil {
		return models.Reflection{}, mapErr("get reflection", err)
	}
	return r, nil
}
