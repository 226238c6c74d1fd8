package convstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"lex-retriever/internal/domain"
)

// RedisStore reads prior conversation turns written by the chat frontend.
// The engine only reads; a missing conversation is not an error.
type RedisStore struct {
	client *redis.Client
}

// New creates a conversation store over an existing Redis client.
func New(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

type storedTurn struct {
	Query            string   `json:"query"`
	CitedDocumentIDs []string `json:"cited_document_ids"`
}

// PriorTurn returns the most recent turn of the conversation, or (nil, nil)
// when the conversation has no stored state.
func (s *RedisStore) PriorTurn(ctx context.Context, conversationID string) (*domain.ConversationTurn, error) {
	raw, err := s.client.Get(ctx, "conversation:"+conversationID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read conversation %s: %w", conversationID, err)
	}

	var turn storedTurn
	if err := json.Unmarshal(raw, &turn); err != nil {
		return nil, fmt.Errorf("decode conversation %s: %w", conversationID, err)
	}
	return &domain.ConversationTurn{
		Query:            turn.Query,
		CitedDocumentIDs: turn.CitedDocumentIDs,
	}, nil
}
