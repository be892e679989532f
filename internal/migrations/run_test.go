package migrations_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/bookkeeper/internal/migrations"
	"github.com/magabrotheeeer/bookkeeper/internal/storage/pgtest"
)

func TestRunMigrations(t *testing.T) {
	db := pgtest.Start(t)

	err := migrations.Run(db, pgtest.MigrationsPath(t))
	require.NoError(t, err)

	for _, table := range []string{"users", "records", "cashflows", "rewards",
		"reward_redemptions", "subscription_payments", "payment_receipts", "audit_logs"} {
		var exists bool
		err = db.QueryRow(`
			SELECT EXISTS (
				SELECT 1 FROM information_schema.tables
				WHERE table_schema = 'public' AND table_name = $1
			)`, table).Scan(&exists)
		require.NoError(t, err)
		require.True(t, exists, "table %s should exist", table)
	}

	var exists bool
	err = db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = 'public'
			AND tablename = 'records'
			AND indexname = 'idx_records_user_type_created'
		)
	`).Scan(&exists)
	require.NoError(t, err)
	require.True(t, exists, "Index should exist")
}

func TestMigrationIdempotency(t *testing.T) {
	db := pgtest.Start(t)
	path := pgtest.MigrationsPath(t)

	require.NoError(t, migrations.Run(db, path))
	require.NoError(t, migrations.Run(db, path), "Running migrations twice should not fail")
}
