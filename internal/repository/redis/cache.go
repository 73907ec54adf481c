package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/namvu/mentorchat/internal/domain"
)

const conversationCachePrefix = "conversation:"

// ConversationCache caches conversation reads in Redis. Every external
// mutation of a conversation must invalidate its entry; the chat service
// does this after each write.
type ConversationCache struct {
	client *Client
	ttl    time.Duration
}

// NewConversationCache creates a new conversation cache
func NewConversationCache(client *Client, ttl time.Duration) *ConversationCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &ConversationCache{client: client, ttl: ttl}
}

// Get retrieves a cached conversation, nil on miss
func (c *ConversationCache) Get(ctx context.Context, sessionID string) (*domain.Conversation, error) {
	key := conversationCachePrefix + sessionID

	data, err := c.client.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return nil, nil // Cache miss
	}

	var conv domain.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

// Set caches a conversation
func (c *ConversationCache) Set(ctx context.Context, conv *domain.Conversation) error {
	key := conversationCachePrefix + conv.SessionID

	data, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	return c.client.rdb.Set(ctx, key, data, c.ttl).Err()
}

// Invalidate removes a cached conversation
func (c *ConversationCache) Invalidate(ctx context.Context, sessionID string) error {
	key := conversationCachePrefix + sessionID
	return c.client.rdb.Del(ctx, key).Err()
}

// FlushAll removes all cached conversations
func (c *ConversationCache) FlushAll(ctx context.Context) (int64, error) {
	pattern := conversationCachePrefix + "*"
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
