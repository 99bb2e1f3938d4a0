package incidents

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var storeTracer = otel.Tracer("crisis/incidents")

type pgxDB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresStore writes incidents to the crisis_incidents table.
type PostgresStore struct {
	db pgxDB
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("incidents: pgx pool required")
	}
	return &PostgresStore{db: pool}
}

func newPostgresStoreWithDB(db pgxDB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Record(ctx context.Context, inc Incident) error {
	ctx, span := storeTracer.Start(ctx, "incidents.Record")
	defer span.End()
	span.SetAttributes(attribute.String("crisis.session_id", inc.SessionID), attribute.String("crisis.incident_kind", string(inc.Kind)))

	query := `
		INSERT INTO crisis_incidents (id, session_id, user_id, kind, crisis_level, counselor_requested, counselor_connected, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := s.db.Exec(ctx, query, inc.ID, inc.SessionID, inc.UserID, string(inc.Kind),
		inc.CrisisLevel, inc.CounselorRequested, inc.CounselorConnected, inc.OccurredAt); err != nil {
		span.RecordError(err)
		return fmt.Errorf("incidents: insert: %w", err)
	}
	return nil
}

// ListByUser returns a user's incidents, newest first.
func (s *PostgresStore) ListByUser(ctx context.Context, userID string, limit int) ([]Incident, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	if limit == 0 {
		limit = DefaultListLimit
	}
	ctx, span := storeTracer.Start(ctx, "incidents.ListByUser")
	defer span.End()

	query := `
		SELECT id, session_id, user_id, kind, crisis_level, counselor_requested, counselor_connected, occurred_at
		FROM crisis_incidents
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`
	rows, err := s.db.Query(ctx, query, userID, int32(limit))
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("incidents: list: %w", err)
	}
	defer rows.Close()

	out := []Incident{}
	for rows.Next() {
		var (
			inc  Incident
			kind string
		)
		if err := rows.Scan(&inc.ID, &inc.SessionID, &inc.UserID, &kind, &inc.CrisisLevel,
			&inc.CounselorRequested, &inc.CounselorConnected, &inc.OccurredAt); err != nil {
			return nil, fmt.Errorf("incidents: scan: %w", err)
		}
		inc.Kind = Kind(kind)
		out = append(out, inc)
	}
	return out, rows.Err()
}

var _ Store = (*PostgresStore)(nil)
