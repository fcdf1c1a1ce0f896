package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/akolanti/DocQA/internal/config"
	"github.com/akolanti/DocQA/internal/data/redisStore"
	"github.com/akolanti/DocQA/internal/domain/docModel"
	"github.com/akolanti/DocQA/pkg/logger_i"
)

var ErrInteractionNotFound = errors.New("interaction not found")

// RedisInteractionStore stores each interaction under its own key and keeps a
// per-document list of interaction ids in answer order.
type RedisInteractionStore struct {
	store  *redisStore.Store
	logger *logger_i.Logger
}

func GetRedisInteractionStore(ctx context.Context) *RedisInteractionStore {
	s := redisStore.GetRedisStore(ctx, config.RedisInteractionStore)
	if s == nil {
		return nil
	}
	return &RedisInteractionStore{
		store:  s,
		logger: logger_i.NewLogger("InteractionStore"),
	}
}

func interactionKey(id string) string     { return "interaction:" + id }
func historyKey(documentId string) string { return "qa_history:" + documentId }

func (s *RedisInteractionStore) SaveInteraction(ctx context.Context, interaction docModel.QAInteraction) error {
	data, err := json.Marshal(interaction)
	if err != nil {
		return err
	}
	if err = s.store.Set(ctx, interactionKey(interaction.Id), data, 0); err != nil {
		return err
	}
	return s.store.ListPush(ctx, historyKey(interaction.DocumentId), interaction.Id)
}

func (s *RedisInteractionStore) ListInteractions(ctx context.Context, documentId string, limit int) ([]docModel.QAInteraction, error) {
	ids, err := s.store.ListGetLast(ctx, historyKey(documentId), int64(limit))
	if err != nil {
		return nil, fmt.Errorf("reading qa history for %s: %w", documentId, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = interactionKey(id)
	}
	values, err := s.store.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	interactions := make([]docModel.QAInteraction, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue //id with no backing record, skip
		}
		var interaction docModel.QAInteraction
		if err := json.Unmarshal([]byte(raw), &interaction); err != nil {
			s.logger.Error("Skipping undecodable interaction", "error", err)
			continue
		}
		interactions = append(interactions, interaction)
	}
	return interactions, nil
}

func (s *RedisInteractionStore) UpdateRating(ctx context.Context, interactionId string, rating int, feedback string) error {
	val, err := s.store.Get(ctx, interactionKey(interactionId))
	if s.store.IsNil(err) {
		return ErrInteractionNotFound
	} else if err != nil {
		return err
	}

	var interaction docModel.QAInteraction
	if err = json.Unmarshal([]byte(val), &interaction); err != nil {
		return err
	}
	interaction.UserRating = rating
	interaction.Feedback = feedback

	data, err := json.Marshal(interaction)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, interactionKey(interactionId), data, 0)
}

func TestInteractionStore(store *redisStore.Store) *RedisInteractionStore {
	return &RedisInteractionStore{
		store:  store,
		logger: logger_i.NewLogger("test redis"),
	}
}
