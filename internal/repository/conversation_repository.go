package repository

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// conversationWindow caps the retained history per thread; older turns
// are dropped.
const conversationWindow = 20

// ConversationTurn is one user or assistant message in a thread.
type ConversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationRepository stores the rolling message window per thread. It
// feeds conversational context to the extraction oracle and powers the
// duplicate-message short-circuit.
type ConversationRepository interface {
	Append(ctx context.Context, threadID string, turns ...ConversationTurn) error
	Recent(ctx context.Context, threadID string, n int) ([]ConversationTurn, error)
	Clear(ctx context.Context) error
}

type conversationRepository struct {
	client *redis.Client
}

// NewConversationRepository instantiates the Redis-backed store.
func NewConversationRepository(client *redis.Client) ConversationRepository {
	return &conversationRepository{client: client}
}

func conversationKey(threadID string) string {
	return "conversation:" + threadID
}

func (r *conversationRepository) Append(ctx context.Context, threadID string, turns ...ConversationTurn) error {
	if len(turns) == 0 {
		return nil
	}
	values := make([]any, 0, len(turns))
	for _, turn := range turns {
		data, err := json.Marshal(turn)
		if err != nil {
			return err
		}
		values = append(values, data)
	}
	key := conversationKey(threadID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, -conversationWindow, -1)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *conversationRepository) Recent(ctx context.Context, threadID string, n int) ([]ConversationTurn, error) {
	if n <= 0 || n > conversationWindow {
		n = conversationWindow
	}
	raw, err := r.client.LRange(ctx, conversationKey(threadID), int64(-n), -1).Result()
	if err != nil {
		return nil, err
	}
	turns := make([]ConversationTurn, 0, len(raw))
	for _, item := range raw {
		var turn ConversationTurn
		if err := json.Unmarshal([]byte(item), &turn); err != nil {
			continue
		}
		turns = append(turns, turn)
	}
	return turns, nil
}

func (r *conversationRepository) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, "conversation:*", 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
