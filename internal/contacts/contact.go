// Package contacts stores the emergency contacts notified when a user's
// crisis countdown triggers, escalates or resolves.
package contacts

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Channel is a delivery channel a contact has opted into.
type Channel string

const (
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Contact is one emergency contact of a user.
type Contact struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Relationship string    `json:"relationship,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	Email        string    `json:"email,omitempty"`
	Channels     []Channel `json:"channels"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Wants reports whether the contact can be reached on ch.
func (c Contact) Wants(ch Channel) bool {
	if !slices.Contains(c.Channels, ch) {
		return false
	}
	switch ch {
	case ChannelSMS:
		return c.Phone != ""
	case ChannelEmail:
		return c.Email != ""
	}
	return false
}

// Validate normalizes the contact and checks that it is reachable on at
// least one channel.
func (c *Contact) Validate() error {
	c.UserID = strings.TrimSpace(c.UserID)
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.TrimSpace(c.Email)
	if c.UserID == "" {
		return fmt.Errorf("%w: user_id required", ErrInvalid)
	}
	if c.Name == "" {
		return fmt.Errorf("%w: name required", ErrInvalid)
	}
	if len(c.Channels) == 0 {
		if c.Phone != "" {
			c.Channels = append(c.Channels, ChannelSMS)
		}
		if c.Email != "" {
			c.Channels = append(c.Channels, ChannelEmail)
		}
	}
	for _, ch := range c.Channels {
		if ch != ChannelSMS && ch != ChannelEmail {
			return fmt.Errorf("%w: unknown channel %q", ErrInvalid, ch)
		}
	}
	if !c.Wants(ChannelSMS) && !c.Wants(ChannelEmail) {
		return fmt.Errorf("%w: phone or email required for the selected channels", ErrInvalid)
	}
	return nil
}

// Store persists emergency contacts.
type Store interface {
	ListByUser(ctx context.Context, userID string) ([]Contact, error)
	Upsert(ctx context.Context, c *Contact) error
	Delete(ctx context.Context, userID, id string) error
}
