package incidents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func TestPostgresStoreRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPostgresStoreWithDB(mock)
	inc := Incident{
		ID:          uuid.New(),
		SessionID:   "session_1",
		UserID:      "u1",
		Kind:        KindEscalated,
		CrisisLevel: "SEVERE",
		OccurredAt:  time.Date(2024, 6, 1, 20, 1, 0, 0, time.UTC),
	}
	mock.ExpectExec("INSERT INTO crisis_incidents").
		WithArgs(inc.ID, "session_1", "u1", "escalated", "SEVERE", false, false, inc.OccurredAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := store.Record(context.Background(), inc); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresStoreRecordError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	mock.ExpectExec("INSERT INTO crisis_incidents").WillReturnError(errors.New("conn refused"))
	err = newPostgresStoreWithDB(mock).Record(context.Background(), Incident{ID: uuid.New()})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestPostgresStoreListByUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := newPostgresStoreWithDB(mock)
	now := time.Now().UTC()
	id := uuid.New()
	rows := pgxmock.NewRows([]string{"id", "session_id", "user_id", "kind", "crisis_level", "counselor_requested", "counselor_connected", "occurred_at"}).
		AddRow(id, "session_1", "u1", "resolved", "HIGH", true, true, now)
	mock.ExpectQuery("SELECT id").WithArgs("u1", int32(DefaultListLimit)).WillReturnRows(rows)

	got, err := store.ListByUser(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != id || got[0].Kind != KindResolved || !got[0].CounselorConnected {
		t.Fatalf("unexpected incidents: %#v", got)
	}

	if _, err := store.ListByUser(context.Background(), "u1", -1); !errors.Is(err, ErrInvalidLimit) {
		t.Fatalf("expected ErrInvalidLimit, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
