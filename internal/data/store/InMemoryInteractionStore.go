package store

import (
	"context"
	"sync"

	"github.com/akolanti/DocQA/internal/domain/docModel"
)

type InMemoryInteractionStore struct {
	mu           *sync.RWMutex
	interactions map[string]docModel.QAInteraction
	byDocument   map[string][]string
}

func InitInMemoryInteractionStore() *InMemoryInteractionStore {
	return &InMemoryInteractionStore{
		mu:           new(sync.RWMutex),
		interactions: make(map[string]docModel.QAInteraction),
		byDocument:   make(map[string][]string),
	}
}

func (s *InMemoryInteractionStore) SaveInteraction(ctx context.Context, interaction docModel.QAInteraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions[interaction.Id] = interaction
	s.byDocument[interaction.DocumentId] = append(s.byDocument[interaction.DocumentId], interaction.Id)
	return nil
}

func (s *InMemoryInteractionStore) ListInteractions(ctx context.Context, documentId string, limit int) ([]docModel.QAInteraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byDocument[documentId]
	if limit > 0 && len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}
	result := make([]docModel.QAInteraction, 0, len(ids))
	for _, id := range ids {
		if interaction, found := s.interactions[id]; found {
			result = append(result, interaction)
		}
	}
	return result, nil
}

func (s *InMemoryInteractionStore) UpdateRating(ctx context.Context, interactionId string, rating int, feedback string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	interaction, found := s.interactions[interactionId]
	if !found {
		return ErrInteractionNotFound
	}
	interaction.UserRating = rating
	interaction.Feedback = feedback
	s.interactions[interactionId] = interaction
	return nil
}
