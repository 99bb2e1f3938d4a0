package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

func newMirror(t *testing.T) (*RedisMirror, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisMirror(client, time.Hour), mr
}

func TestRedisMirrorTrimsToCapacity(t *testing.T) {
	mirror, mr := newMirror(t)
	ctx := context.Background()

	for i := 0; i < TurnCapacity+5; i++ {
		require.NoError(t, mirror.SaveTurn(ctx, "s1", Turn{ID: fmt.Sprint(i), Text: "hello"}))
	}

	turns, err := mirror.LoadTurns(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, turns, TurnCapacity)
	assert.Equal(t, "5", turns[0].ID)

	ttl := mr.TTL(mirrorKeyPrefix + "s1" + turnsKeySuffix)
	assert.Equal(t, time.Hour, ttl)
}

func TestRedisMirrorEmotionsRoundTripWithLimit(t *testing.T) {
	mirror, _ := newMirror(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		r := emotion.Reading{Dominant: emotion.Sad, Confidence: float64(i) / 10}
		require.NoError(t, mirror.SaveEmotion(ctx, "s1", r))
	}
	got, err := mirror.LoadEmotions(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 0.1, got[0].Confidence, 1e-9)
	assert.Equal(t, emotion.Sad, got[1].Dominant)
}

func TestRedisMirrorDrop(t *testing.T) {
	mirror, mr := newMirror(t)
	ctx := context.Background()
	require.NoError(t, mirror.SaveTurn(ctx, "s1", Turn{ID: "a"}))
	require.NoError(t, mirror.Drop(ctx, "s1"))
	assert.False(t, mr.Exists(mirrorKeyPrefix+"s1"+turnsKeySuffix))
}

func TestRedisMirrorNilIsNoop(t *testing.T) {
	var mirror *RedisMirror
	assert.Nil(t, NewRedisMirror(nil, 0))
	assert.NoError(t, mirror.SaveTurn(context.Background(), "s1", Turn{}))
	turns, err := mirror.LoadTurns(context.Background(), "s1", 5)
	assert.NoError(t, err)
	assert.Empty(t, turns)
}

func TestRedisMirrorRequiresSessionID(t *testing.T) {
	mirror, _ := newMirror(t)
	assert.Error(t, mirror.SaveTurn(context.Background(), "", Turn{}))
}

type fakeS3 struct {
	inputs []*s3.PutObjectInput
	bodies [][]byte
	err    error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, _ := io.ReadAll(in.Body)
	f.inputs = append(f.inputs, in)
	f.bodies = append(f.bodies, body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3ExporterWritesTranscript(t *testing.T) {
	client := &fakeS3{}
	exporter := NewS3Exporter(client, "transcripts-bucket", logging.Discard())
	ended := time.Date(2024, 3, 9, 10, 0, 0, 0, time.UTC)

	err := exporter.Export(context.Background(), Transcript{
		SessionID: "session_1_u1_abcd",
		UserID:    "u1",
		EndedAt:   ended,
		Turns:     []Turn{{ID: "t1", Text: "hi", Sender: SenderUser}},
	})
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)
	assert.Equal(t, "transcripts-bucket", aws.ToString(client.inputs[0].Bucket))
	assert.Equal(t, "transcripts/u1/2024/03/session_1_u1_abcd.json", aws.ToString(client.inputs[0].Key))

	var decoded Transcript
	require.NoError(t, json.NewDecoder(bytes.NewReader(client.bodies[0])).Decode(&decoded))
	assert.Equal(t, "hi", decoded.Turns[0].Text)
}

func TestS3ExporterDisabledAndErrors(t *testing.T) {
	assert.NoError(t, NewS3Exporter(nil, "", nil).Export(context.Background(), Transcript{}))

	exporter := NewS3Exporter(&fakeS3{err: errors.New("boom")}, "bucket", logging.Discard())
	err := exporter.Export(context.Background(), Transcript{SessionID: "s", UserID: "u"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history: s3 put")
}
