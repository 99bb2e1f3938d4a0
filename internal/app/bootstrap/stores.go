package bootstrap

import (
	"database/sql"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/crisis-companion/internal/contacts"
	"github.com/wolfman30/crisis-companion/internal/incidents"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// BuildContactStore uses Postgres when a database is configured and an
// in-memory store otherwise.
func BuildContactStore(sqlDB *sql.DB, logger *logging.Logger) contacts.Store {
	if sqlDB != nil {
		return contacts.NewPostgresStore(sqlDB)
	}
	if logger != nil {
		logger.Warn("DATABASE_URL not set; emergency contacts kept in memory")
	}
	return contacts.NewMemoryStore()
}

// BuildIncidentStore uses Postgres when a pool is available and an in-memory
// store otherwise.
func BuildIncidentStore(pool *pgxpool.Pool, logger *logging.Logger) incidents.Store {
	if pool != nil {
		return incidents.NewPostgresStore(pool)
	}
	if logger != nil {
		logger.Warn("DATABASE_URL not set; crisis incidents kept in memory")
	}
	return incidents.NewMemoryStore()
}
