package contacts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresStore keeps contacts in the emergency_contacts table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	if db == nil {
		panic("contacts: sql.DB cannot be nil")
	}
	return &PostgresStore{db: db}
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID string) ([]Contact, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, relationship, phone, email, channels, created_at, updated_at
		FROM emergency_contacts WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("contacts: list: %w", err)
	}
	defer rows.Close()

	out := []Contact{}
	for rows.Next() {
		var (
			c        Contact
			channels []string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Relationship, &c.Phone, &c.Email,
			pq.Array(&channels), &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("contacts: scan: %w", err)
		}
		c.Channels = make([]Channel, 0, len(channels))
		for _, ch := range channels {
			c.Channels = append(c.Channels, Channel(ch))
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contacts: list: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, c *Contact) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	channels := make([]string, 0, len(c.Channels))
	for _, ch := range c.Channels {
		channels = append(channels, string(ch))
	}
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO emergency_contacts (id, user_id, name, relationship, phone, email, channels, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		ON CONFLICT (id) DO UPDATE SET
		    name = EXCLUDED.name, relationship = EXCLUDED.relationship, phone = EXCLUDED.phone,
		    email = EXCLUDED.email, channels = EXCLUDED.channels, updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.Name, c.Relationship, c.Phone, c.Email, pq.Array(channels), now,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("contacts: upsert: %w", err)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM emergency_contacts WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return fmt.Errorf("contacts: delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("contacts: delete: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
