package app

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"flashdeck-service/internal/domain"
	"flashdeck-service/internal/identity"
	"flashdeck-service/internal/quiz"
)

// DeckRepository loads the ordered card snapshot for a set, typically
// through a cache in front of the gateway.
type DeckRepository interface {
	GetCards(ctx context.Context, token, setID string) ([]domain.Flashcard, error)
}

// StudyService starts quiz sessions over a set's current cards.
type StudyService struct {
	decks DeckRepository
	ids   identity.Provider

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewStudyService(decks DeckRepository, ids identity.Provider) *StudyService {
	return NewStudyServiceWithRand(decks, ids, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// NewStudyServiceWithRand is for deterministic option generation in tests.
func NewStudyServiceWithRand(decks DeckRepository, ids identity.Provider, rnd *rand.Rand) *StudyService {
	return &StudyService{decks: decks, ids: ids, rnd: rnd}
}

// Start snapshots the set's cards and builds a session with options
// generated for every question. An empty set cannot start.
func (s *StudyService) Start(ctx context.Context, setID string) (*quiz.Session, error) {
	id, ok := s.ids.Current()
	if !ok {
		return nil, domain.ErrUnauthenticated
	}
	token, err := s.ids.Credential(ctx, id)
	if err != nil {
		return nil, err
	}

	cards, err := s.decks.GetCards(ctx, token, setID)
	if err != nil {
		return nil, err
	}

	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return quiz.NewSession(setID, cards, s.rnd)
}
