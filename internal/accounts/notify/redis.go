package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/domain"
	"github.com/aussiebroadwan/accounts/pkg/idx"
	"github.com/redis/go-redis/v9"
)

// Message kinds written to the "type" field of each stream entry.
const (
	KindRecoveryCode     = "recovery_code"
	KindVerificationLink = "verification_link"
)

// DefaultStream is used when RedisDispatcher.Stream is empty.
const DefaultStream = "accounts:notifications"

// RedisDispatcher appends messages to a Redis stream for a mailer to consume.
// The stream is capped at roughly MaxLen entries.
type RedisDispatcher struct {
	Client redis.Cmdable
	Stream string
	MaxLen int64
}

var _ Dispatcher = (*RedisDispatcher)(nil)

func NewRedisDispatcher(client redis.Cmdable, stream string) *RedisDispatcher {
	if stream == "" {
		stream = DefaultStream
	}
	return &RedisDispatcher{Client: client, Stream: stream, MaxLen: 10000}
}

func (d *RedisDispatcher) SendRecoveryCode(ctx context.Context, profile domain.Profile) error {
	if profile.Reset == nil {
		return ErrNoResetCode
	}
	return d.add(ctx, map[string]any{
		"type":       KindRecoveryCode,
		"email":      profile.Email,
		"name":       profile.FullName,
		"code":       profile.Reset.Code,
		"expires_at": profile.Reset.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (d *RedisDispatcher) SendVerificationLink(ctx context.Context, email, link string) error {
	return d.add(ctx, map[string]any{
		"type":  KindVerificationLink,
		"email": email,
		"link":  link,
	})
}

func (d *RedisDispatcher) add(ctx context.Context, values map[string]any) error {
	values["message_id"] = idx.New().String()

	err := d.Client.XAdd(ctx, &redis.XAddArgs{
		Stream: d.Stream,
		MaxLen: d.MaxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("notify: xadd %s: %w", d.Stream, err)
	}
	return nil
}
