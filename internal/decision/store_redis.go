package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"restgate/internal/encval"
	id "restgate/pkg/domain"
	"restgate/pkg/platform/sentinel"
)

// RedisStore keeps the latest decision record per subject under a single key.
// SET is the atomic overwrite; there is no history to maintain, so plain
// key/value fits the state machine exactly.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
}

type redisRecord struct {
	Handle    string `json:"handle"`
	Public    bool   `json:"public"`
	UpdatedAt int64  `json:"updated_at_unix_nano"`
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, keyPrefix: "restgate:decision:"}
}

func (s *RedisStore) key(subject id.Identity) string {
	return s.keyPrefix + subject.String()
}

func (s *RedisStore) Save(ctx context.Context, record Record) error {
	payload, err := json.Marshal(redisRecord{
		Handle:    record.Handle.String(),
		Public:    record.Public,
		UpdatedAt: record.UpdatedAt.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("marshal decision record: %w", err)
	}
	if err := s.client.Set(ctx, s.key(record.Subject), payload, 0).Err(); err != nil {
		return fmt.Errorf("write decision record: %w", err)
	}
	return nil
}

func (s *RedisStore) Latest(ctx context.Context, subject id.Identity) (Record, error) {
	raw, err := s.client.Get(ctx, s.key(subject)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, sentinel.ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("read decision record: %w", err)
	}
	var stored redisRecord
	if err := json.Unmarshal(raw, &stored); err != nil {
		return Record{}, fmt.Errorf("unmarshal decision record: %w", err)
	}
	handle, ok := encval.ParseHandle(stored.Handle)
	if !ok {
		return Record{}, fmt.Errorf("corrupt decision handle for subject %s", subject)
	}
	return Record{
		Subject:   subject,
		Handle:    handle,
		Public:    stored.Public,
		UpdatedAt: time.Unix(0, stored.UpdatedAt),
	}, nil
}
