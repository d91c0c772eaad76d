package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildUpdateSingleField(t *testing.T) {
	query, args := buildUpdate("events", []setClause{
		{"type", "meeting"},
	}, "id-1", "id, type")

	assert.Equal(t, "UPDATE events SET type = $1 WHERE id = $2 RETURNING id, type", query)
	assert.Equal(t, []any{"meeting", "id-1"}, args)
}

func TestBuildUpdateMultipleFields(t *testing.T) {
	query, args := buildUpdate("check_ins", []setClause{
		{"mood", "calm"},
		{"energy", 7},
	}, "id-9", checkInColumns)

	assert.Equal(t,
		`UPDATE check_ins SET mood = $1, energy = $2 WHERE id = $3 RETURNING `+checkInColumns,
		query)
	assert.Equal(t, []any{"calm", 7, "id-9"}, args)
}

func TestBuildUpdateQuotedColumn(t *testing.T) {
	query, _ := buildUpdate("check_ins", []setClause{
		{`"timestamp"`, "2024-01-01"},
	}, "id-2", checkInColumns)

	assert.Contains(t, query, `SET "timestamp" = $1`)
}
