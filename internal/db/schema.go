package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema is the DDL the backend applies: the four tables, the value
// constraints, the row-level policies keyed on ember.user_id, the
// updated_at touch rule, and the change-notify triggers the realtime
// feed listens to. EnsureSchema exists so integration tests can
// provision a scratch database; production migrations are owned by the
// backend deployment, not this client.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		email VARCHAR(255) UNIQUE,
		password VARCHAR(255),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS events (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		time TIMESTAMP WITH TIME ZONE,
		importance TEXT NOT NULL CHECK (importance IN ('low', 'medium', 'high')),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS check_ins (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		mood TEXT NOT NULL,
		energy INTEGER NOT NULL CHECK (energy BETWEEN 1 AND 10),
		emotions TEXT[] NOT NULL DEFAULT '{}',
		timestamp TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS reflections (
		id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content TEXT NOT NULL CHECK (length(content) > 0),
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	// Row-level scoping: every read and write is restricted to rows owned
	// by the identity carried in the ember.user_id connection setting.
	// FORCE keeps the policies active for the table owner as well.
	`ALTER TABLE users ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE users FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS users_owner ON users`,
	`CREATE POLICY users_owner ON users
		USING (id = current_setting('ember.user_id', true)::uuid)
		WITH CHECK (id = current_setting('ember.user_id', true)::uuid)`,

	`ALTER TABLE events ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE events FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS events_owner ON events`,
	`CREATE POLICY events_owner ON events
		USING (user_id = current_setting('ember.user_id', true)::uuid)
		WITH CHECK (user_id = current_setting('ember.user_id', true)::uuid)`,

	`ALTER TABLE check_ins ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE check_ins FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS check_ins_owner ON check_ins`,
	`CREATE POLICY check_ins_owner ON check_ins
		USING (user_id = current_setting('ember.user_id', true)::uuid)
		WITH CHECK (user_id = current_setting('ember.user_id', true)::uuid)`,

	`ALTER TABLE reflections ENABLE ROW LEVEL SECURITY`,
	`ALTER TABLE reflections FORCE ROW LEVEL SECURITY`,
	`DROP POLICY IF EXISTS reflections_owner ON reflections`,
	`CREATE POLICY reflections_owner ON reflections
		USING (user_id = current_setting('ember.user_id', true)::uuid)
		WITH CHECK (user_id = current_setting('ember.user_id', true)::uuid)`,

	// Touch updated_at on any users update.
	`CREATE OR REPLACE FUNCTION ember_touch_updated_at() RETURNS trigger AS $$
	BEGIN
		NEW.updated_at := CURRENT_TIMESTAMP;
		RETURN NEW;
	END
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS users_touch ON users`,
	`CREATE TRIGGER users_touch
		BEFORE UPDATE ON users
		FOR EACH ROW EXECUTE FUNCTION ember_touch_updated_at()`,

	// Change feed: one NOTIFY per row change on the entity tables, on
	// channel ember_<table>_changes, payload carrying op, owner and row.
	`CREATE OR REPLACE FUNCTION ember_notify_change() RETURNS trigger AS $$
	DECLARE
		rec record;
	BEGIN
		IF TG_OP = 'DELETE' THEN
			rec := OLD;
		ELSE
			rec := NEW;
		END IF;
		PERFORM pg_notify(
			'ember_' || TG_TABLE_NAME || '_changes',
			json_build_object(
				'table', TG_TABLE_NAME,
				'op', lower(TG_OP),
				'user_id', rec.user_id,
				'row', row_to_json(rec)
			)::text
		);
		RETURN rec;
	END
	$$ LANGUAGE plpgsql`,
	`DROP TRIGGER IF EXISTS events_notify ON events`,
	`CREATE TRIGGER events_notify
		AFTER INSERT OR UPDATE OR DELETE ON events
		FOR EACH ROW EXECUTE FUNCTION ember_notify_change()`,
	`DROP TRIGGER IF EXISTS check_ins_notify ON check_ins`,
	`CREATE TRIGGER check_ins_notify
		AFTER INSERT OR UPDATE OR DELETE ON check_ins
		FOR EACH ROW EXECUTE FUNCTION ember_notify_change()`,
	`DROP TRIGGER IF EXISTS reflections_notify ON reflections`,
	`CREATE TRIGGER reflections_notify
		AFTER INSERT OR UPDATE OR DELETE ON reflections
		FOR EACH ROW EXECUTE FUNCTION ember_notify_change()`,
}

// EnsureSchema applies the backend schema to the given database. Safe to
// call repeatedly.
func EnsureSchema(ctx context.Context, pool *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
