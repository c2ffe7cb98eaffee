package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/skybridge-ai/chat-client/internal/model"
	"github.com/skybridge-ai/chat-client/pkg/logger"
)

const redisKeyPrefix = "chat:"

// RedisKV is the subset of the Redis client used by the local cache backend.
type RedisKV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Keys(ctx context.Context, pattern string) *redis.StringSliceCmd
}

// RedisLocal stores conversations and messages as JSON blobs in a local
// Redis, keyed by conversation id. It backs local-persistence mode: real
// delivery calls, but no remote store.
type RedisLocal struct {
	kv     RedisKV
	logger *logger.Logger
}

// NewRedisLocal creates the local cache backend.
func NewRedisLocal(kv RedisKV, log *logger.Logger) *RedisLocal {
	return &RedisLocal{kv: kv, logger: log}
}

func conversationCacheKey(conversationID string) string {
	return redisKeyPrefix + "conversation:" + conversationID
}

func messagesCacheKey(conversationID string) string {
	return redisKeyPrefix + "messages:" + conversationID
}

func (r *RedisLocal) PutMessage(ctx context.Context, msg model.Message) error {
	msgs, err := r.loadMessages(ctx, msg.ConversationID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	replaced := false
	for i, existing := range msgs {
		if existing.MessageID == msg.MessageID {
			msgs[i] = msg
			replaced = true
			break
		}
	}
	if !replaced {
		msgs = append(msgs, msg)
	}

	if err := r.storeJSON(ctx, messagesCacheKey(msg.ConversationID), msgs); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

func (r *RedisLocal) QueryMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	msgs, err := r.loadMessages(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}
	sortMessages(msgs)
	return msgs, nil
}

func (r *RedisLocal) CreateConversation(ctx context.Context, conversationID string) (model.Conversation, error) {
	now := time.Now().UnixMilli()
	conv := model.Conversation{
		ConversationID: conversationID,
		Title:          model.DefaultConversationTitle,
		CreatedAt:      now,
		LastMessageAt:  now,
	}

	if err := r.storeJSON(ctx, conversationCacheKey(conversationID), conv); err != nil {
		return model.Conversation{}, fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return conv, nil
}

func (r *RedisLocal) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	keys, err := r.kv.Keys(ctx, conversationCacheKey("*")).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
	}

	conversations := make([]model.Conversation, 0, len(keys))
	for _, key := range keys {
		raw, err := r.kv.Get(ctx, key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
		}

		var conv model.Conversation
		if err := json.Unmarshal([]byte(raw), &conv); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrReadFailed, err)
		}
		conversations = append(conversations, conv)
	}

	sortConversations(conversations)
	return conversations, nil
}

func (r *RedisLocal) UpdateConversation(ctx context.Context, conversationID string, update model.ConversationUpdate) error {
	if update.IsZero() {
		return nil
	}

	raw, err := r.kv.Get(ctx, conversationCacheKey(conversationID)).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	var conv model.Conversation
	if err := json.Unmarshal([]byte(raw), &conv); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if err := r.storeJSON(ctx, conversationCacheKey(conversationID), update.Apply(conv)); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

func (r *RedisLocal) DeleteConversation(ctx context.Context, conversationID string) error {
	err := r.kv.Del(ctx, conversationCacheKey(conversationID), messagesCacheKey(conversationID)).Err()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	return nil
}

func (r *RedisLocal) loadMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	raw, err := r.kv.Get(ctx, messagesCacheKey(conversationID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var msgs []model.Message
	if err := json.Unmarshal([]byte(raw), &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *RedisLocal) storeJSON(ctx context.Context, key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return r.kv.Set(ctx, key, raw, 0).Err()
}
