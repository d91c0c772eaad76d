// Package store holds the typed record gateways, one per backend table.
// Every operation is a single round trip; visibility is enforced by the
// backend's row-level policies, never by client-side filtering. Faults
// are caught at the gateway boundary, mapped into the closed taxonomy,
// and logged; nothing propagates raw.
package store

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/emberapp/ember-go/internal/fault"
)

var logger = slog.Default().With("component", "store")

// ListOptions modifies a List call. A zero Limit means no cap.
type ListOptions struct {
	Limit int
}

// setClause is one column assignment of a partial update.
type setClause struct {
	column string
	value  any
}

// buildUpdate assembles an id-addressed partial UPDATE. Omitted fields
// are simply absent from the statement, never nulled.
func buildUpdate(table string, sets []setClause, id, returning string) (string, []any) {
	assignments := make([]string, len(sets))
	args := make([]any, 0, len(sets)+1)
	for i, s := range sets {
		assignments[i] = fmt.Sprintf("%s = $%d", s.column, i+1)
		args = append(args, s.value)
	}
	args = append(args, id)

	query := fmt.Sprintf(
		"UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		table, strings.Join(assignments, ", "), len(args), returning,
	)
	return query, args
}

// mapErr wraps a raw gateway error into a fault and logs it once.
func mapErr(op string, err error) error {
	fe := fault.FromPQ(op, err)
	logger.Warn("gateway fault", "op", op, "kind", fe.Kind, "error", err)
	return fe
}
