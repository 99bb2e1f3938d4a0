package contacts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first := &Contact{UserID: "u1", Name: "Sam", Phone: "+15550001111", Email: "sam@example.com"}
	require.NoError(t, store.Upsert(ctx, first))
	second := &Contact{UserID: "u1", Name: "Lee", Email: "lee@example.com"}
	require.NoError(t, store.Upsert(ctx, second))

	first.Relationship = "sibling"
	require.NoError(t, store.Upsert(ctx, first))

	got, err := store.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Sam", got[0].Name)
	assert.Equal(t, "sibling", got[0].Relationship)
	assert.Equal(t, base.Add(time.Minute), got[0].CreatedAt)
	assert.Equal(t, base.Add(3*time.Minute), got[0].UpdatedAt)
	assert.Equal(t, []Channel{ChannelSMS, ChannelEmail}, got[0].Channels)

	empty, err := store.ListByUser(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, store.Delete(ctx, "u1", second.ID))
	assert.ErrorIs(t, store.Delete(ctx, "u1", second.ID), ErrNotFound)
}

func TestContactValidate(t *testing.T) {
	tests := []struct {
		name    string
		contact Contact
		wantErr bool
	}{
		{name: "phone only", contact: Contact{UserID: "u", Name: "a", Phone: "+1555"}},
		{name: "missing user", contact: Contact{Name: "a", Phone: "+1555"}, wantErr: true},
		{name: "missing name", contact: Contact{UserID: "u", Phone: "+1555"}, wantErr: true},
		{name: "no address", contact: Contact{UserID: "u", Name: "a"}, wantErr: true},
		{name: "sms without phone", contact: Contact{UserID: "u", Name: "a", Email: "a@b.c", Channels: []Channel{ChannelSMS}}, wantErr: true},
		{name: "unknown channel", contact: Contact{UserID: "u", Name: "a", Phone: "+1555", Channels: []Channel{"pager"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.contact.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
		})
	}
}
