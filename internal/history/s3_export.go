package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/crisis-companion/internal/emotion"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

var exportTracer = otel.Tracer("crisis.internal.history.s3_export")

// S3API is the subset of the S3 client used by S3Exporter.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Transcript is the exported record of an ended session.
type Transcript struct {
	SessionID string            `json:"session_id"`
	UserID    string            `json:"user_id"`
	StartedAt time.Time         `json:"started_at"`
	EndedAt   time.Time         `json:"ended_at"`
	Turns     []Turn            `json:"turns"`
	Emotions  []emotion.Reading `json:"emotions"`
}

// S3Exporter writes ended-session transcripts to a bucket. With no bucket
// configured every call is a no-op.
type S3Exporter struct {
	client S3API
	bucket string
	logger *logging.Logger
}

func NewS3Exporter(client S3API, bucket string, logger *logging.Logger) *S3Exporter {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Exporter{client: client, bucket: bucket, logger: logger}
}

// Enabled reports whether a bucket and client are configured.
func (e *S3Exporter) Enabled() bool {
	return e != nil && e.bucket != "" && e.client != nil
}

// Export stores the transcript under transcripts/<user>/<yyyy>/<mm>/<session>.json.
func (e *S3Exporter) Export(ctx context.Context, t Transcript) error {
	if !e.Enabled() {
		return nil
	}
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("history: marshal transcript: %w", err)
	}
	ended := t.EndedAt
	if ended.IsZero() {
		ended = time.Now().UTC()
	}
	key := fmt.Sprintf("transcripts/%s/%d/%02d/%s.json", t.UserID, ended.Year(), ended.Month(), t.SessionID)

	ctx, span := exportTracer.Start(ctx, "history.s3_export.put")
	defer span.End()
	span.SetAttributes(
		attribute.String("crisis.session_id", t.SessionID),
		attribute.String("crisis.s3_key", key),
	)

	_, err = e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("history: s3 put %s: %w", key, err)
	}
	e.logger.Info("exported session transcript",
		"session_id", t.SessionID,
		"s3_key", key,
		"turn_count", len(t.Turns),
	)
	return nil
}
