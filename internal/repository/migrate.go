package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Migrate creates the schema if it does not exist. The partial unique
// index on ngo_claims enforces the at-most-one-active-claim invariant at
// the store level, so concurrent claims cannot both succeed.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS users (
		id            uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		email         text NOT NULL UNIQUE,
		password_hash text,
		full_name     text NOT NULL,
		phone         text,
		role          text NOT NULL,
		status        text NOT NULL DEFAULT 'active',
		provider      text,
		provider_id   text,
		created_at    timestamptz NOT NULL DEFAULT now(),
		updated_at    timestamptz NOT NULL DEFAULT now(),
		UNIQUE (provider, provider_id)
	);

	CREATE TABLE IF NOT EXISTS organizations (
		id                  uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id             uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name                text NOT NULL,
		address             text NOT NULL,
		description         text NOT NULL,
		phone               text NOT NULL,
		verification_status text NOT NULL DEFAULT 'pending',
		created_at          timestamptz NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS food_donations (
		id                  uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		donor_id            uuid REFERENCES users(id) ON DELETE SET NULL,
		title               text NOT NULL,
		description         text,
		category            text NOT NULL,
		quantity            integer NOT NULL CHECK (quantity > 0),
		unit                text NOT NULL,
		expiry_date         date NOT NULL,
		pickup_address      text NOT NULL,
		pickup_lat          double precision,
		pickup_lng          double precision,
		pickup_instructions text,
		urgency             text NOT NULL DEFAULT 'medium',
		qr_code             text,
		status              text NOT NULL DEFAULT 'available',
		final_state         text,
		created_at          timestamptz NOT NULL DEFAULT now(),
		updated_at          timestamptz NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_donations_donor ON food_donations(donor_id);
	CREATE INDEX IF NOT EXISTS idx_donations_status ON food_donations(status);
	CREATE INDEX IF NOT EXISTS idx_donations_expiry ON food_donations(expiry_date);

	CREATE TABLE IF NOT EXISTS ngo_claims (
		id           uuid PRIMARY KEY,
		donation_id  uuid NOT NULL REFERENCES food_donations(id) ON DELETE CASCADE,
		ngo_id       uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		status       text NOT NULL DEFAULT 'claimed',
		claimed_at   timestamptz NOT NULL,
		completed_at timestamptz,
		cancelled_at timestamptz,
		updated_at   timestamptz NOT NULL DEFAULT now()
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_ngo_claims_one_active
		ON ngo_claims (donation_id) WHERE status = 'claimed';
	CREATE INDEX IF NOT EXISTS idx_ngo_claims_ngo ON ngo_claims(ngo_id);

	CREATE TABLE IF NOT EXISTS notifications (
		id         uuid PRIMARY KEY DEFAULT gen_random_uuid(),
		user_id    uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title      text NOT NULL,
		message    text NOT NULL,
		type       text NOT NULL DEFAULT 'status_update',
		read       boolean NOT NULL DEFAULT false,
		created_at timestamptz NOT NULL DEFAULT now()
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at DESC);
	`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}
