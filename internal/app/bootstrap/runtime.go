package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/wolfman30/crisis-companion/internal/config"
	"github.com/wolfman30/crisis-companion/internal/history"
	"github.com/wolfman30/crisis-companion/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildHistoryMirror returns the Redis mirror for session buffers, or nil
// without Redis.
func BuildHistoryMirror(redisClient *redis.Client, cfg *appconfig.Config) *history.RedisMirror {
	if redisClient == nil || cfg == nil {
		return nil
	}
	return history.NewRedisMirror(redisClient, cfg.HistoryMirrorTTL)
}

// BuildTranscriptExporter returns the S3 transcript exporter, or nil when no
// bucket is configured.
func BuildTranscriptExporter(awsCfg *aws.Config, cfg *appconfig.Config, logger *logging.Logger) *history.S3Exporter {
	if awsCfg == nil || cfg == nil || strings.TrimSpace(cfg.TranscriptBucket) == "" {
		return nil
	}
	client := s3.NewFromConfig(*awsCfg, func(o *s3.Options) {
		// LocalStack serves buckets by path only.
		o.UsePathStyle = cfg.AWSEndpointOverride != ""
	})
	return history.NewS3Exporter(client, cfg.TranscriptBucket, logger)
}
