package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/crisis-companion/internal/emotion"
)

const (
	mirrorKeyPrefix   = "crisis:session:"
	defaultMirrorTTL  = 24 * time.Hour
	emotionsKeySuffix = ":emotions"
	turnsKeySuffix    = ":turns"
)

// Archive receives a write-through copy of every accepted session entry.
// Drop is called once the session transcript has been exported elsewhere.
type Archive interface {
	SaveEmotion(ctx context.Context, sessionID string, r emotion.Reading) error
	SaveTurn(ctx context.Context, sessionID string, t Turn) error
	Drop(ctx context.Context, sessionID string) error
}

// RedisMirror keeps the same bounded windows as Buffer in Redis lists so a
// session can be reviewed after a process restart.
type RedisMirror struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

// NewRedisMirror returns nil when no client is configured.
func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultMirrorTTL
	}
	return &RedisMirror{
		redis:  client,
		tracer: otel.Tracer("crisis.internal.history.redis_mirror"),
		ttl:    ttl,
	}
}

var _ Archive = (*RedisMirror)(nil)

func (m *RedisMirror) SaveEmotion(ctx context.Context, sessionID string, r emotion.Reading) error {
	return m.push(ctx, sessionID, emotionsKeySuffix, EmotionCapacity, r)
}

func (m *RedisMirror) SaveTurn(ctx context.Context, sessionID string, t Turn) error {
	return m.push(ctx, sessionID, turnsKeySuffix, TurnCapacity, t)
}

func (m *RedisMirror) push(ctx context.Context, sessionID, suffix string, capacity int64, v any) error {
	if m == nil || m.redis == nil {
		return nil
	}
	if sessionID == "" {
		return errors.New("history: sessionID required")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("history: marshal entry: %w", err)
	}

	ctx, span := m.tracer.Start(ctx, "history.redis_mirror.push")
	defer span.End()
	span.SetAttributes(
		attribute.String("crisis.session_id", sessionID),
		attribute.String("crisis.list", suffix),
	)

	key := mirrorKeyPrefix + sessionID + suffix
	pipe := m.redis.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.Expire(ctx, key, m.ttl)
	pipe.LTrim(ctx, key, -capacity, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return fmt.Errorf("history: mirror %s: %w", suffix, err)
	}
	return nil
}

// LoadEmotions returns up to limit mirrored readings, oldest first.
func (m *RedisMirror) LoadEmotions(ctx context.Context, sessionID string, limit int64) ([]emotion.Reading, error) {
	raw, err := m.list(ctx, sessionID, emotionsKeySuffix, limit)
	if err != nil {
		return nil, err
	}
	out := make([]emotion.Reading, 0, len(raw))
	for _, item := range raw {
		var r emotion.Reading
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// LoadTurns returns up to limit mirrored turns, oldest first.
func (m *RedisMirror) LoadTurns(ctx context.Context, sessionID string, limit int64) ([]Turn, error) {
	raw, err := m.list(ctx, sessionID, turnsKeySuffix, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Turn, 0, len(raw))
	for _, item := range raw {
		var t Turn
		if err := json.Unmarshal([]byte(item), &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

// Drop removes both mirrored lists for a session.
func (m *RedisMirror) Drop(ctx context.Context, sessionID string) error {
	if m == nil || m.redis == nil {
		return nil
	}
	prefix := mirrorKeyPrefix + sessionID
	if err := m.redis.Del(ctx, prefix+emotionsKeySuffix, prefix+turnsKeySuffix).Err(); err != nil {
		return fmt.Errorf("history: drop mirror: %w", err)
	}
	return nil
}

func (m *RedisMirror) list(ctx context.Context, sessionID, suffix string, limit int64) ([]string, error) {
	if m == nil || m.redis == nil {
		return nil, nil
	}
	if sessionID == "" {
		return nil, errors.New("history: sessionID required")
	}

	ctx, span := m.tracer.Start(ctx, "history.redis_mirror.list")
	defer span.End()

	start := int64(0)
	if limit > 0 {
		start = -limit
	}
	raw, err := m.redis.LRange(ctx, mirrorKeyPrefix+sessionID+suffix, start, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("history: list mirror: %w", err)
	}
	return raw, nil
}
