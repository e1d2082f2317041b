package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

// RedisBlob is a Redis-backed Blob.
type RedisBlob struct {
	client *redis.Client
}

// tlsMismatch lists error fragments seen when the URL scheme disagrees with
// whether the server speaks TLS.
var tlsMismatch = []string{
	"packet length too long",
	"WRONG_VERSION_NUMBER",
	"alert handshake failure",
	"unsupported protocol",
	"tls_get_more_records",
	"first record does not look like a TLS handshake",
	"malformed HTTP response",
}

// NewRedis connects to url. When the first attempt fails with what looks
// like a TLS mismatch, it retries once with redis:// and rediss:// swapped.
func NewRedis(ctx context.Context, url string) (*RedisBlob, error) {
	if url == "" {
		return nil, errors.New("redis url is not set")
	}
	client, err := dialRedis(ctx, url)
	if err == nil {
		return &RedisBlob{client: client}, nil
	}
	alt := flipScheme(url)
	if !isTLSMismatch(err) || alt == url {
		return nil, err
	}
	slog.Warn("redis connect failed, retrying with flipped scheme", "error", err)
	client, err = dialRedis(ctx, alt)
	if err != nil {
		return nil, err
	}
	return &RedisBlob{client: client}, nil
}

func dialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func flipScheme(url string) string {
	switch {
	case strings.HasPrefix(url, "rediss://"):
		return "redis://" + strings.TrimPrefix(url, "rediss://")
	case strings.HasPrefix(url, "redis://"):
		return "rediss://" + strings.TrimPrefix(url, "redis://")
	}
	return url
}

func isTLSMismatch(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range tlsMismatch {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (r *RedisBlob) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (r *RedisBlob) Set(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *RedisBlob) Close() error {
	return r.client.Close()
}
