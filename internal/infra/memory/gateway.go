package memory

import (
	"context"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"flashdeck-service/internal/domain"
)

// Gateway is a map-backed flashcard backend, useful when no remote
// gateway or database is configured and throughout the unit tests.
// Individual operations can be forced to fail via the Fail* hooks to
// exercise rollback paths.
type Gateway struct {
	mu       sync.Mutex
	sets     map[string]domain.FlashcardSet
	setOrder []string
	cards    map[string][]domain.Flashcard // set ID -> insertion-ordered cards

	FailList   bool
	FailCreate bool
	FailUpdate bool
	FailDelete bool
}

func NewGateway() *Gateway {
	return &Gateway{
		sets:  make(map[string]domain.FlashcardSet),
		cards: make(map[string][]domain.Flashcard),
	}
}

// Seed installs a set with cards, assigning IDs. Intended for demo data
// and test fixtures.
func (g *Gateway) Seed(ownerID, title string, cards []domain.Flashcard) domain.FlashcardSet {
	g.mu.Lock()
	defer g.mu.Unlock()

	setID := gonanoid.Must()
	set := domain.FlashcardSet{ID: setID, Title: title, OwnerID: ownerID}
	g.sets[setID] = set
	g.setOrder = append(g.setOrder, setID)
	for _, card := range cards {
		card.ID = gonanoid.Must()
		card.SetID = setID
		g.cards[setID] = append(g.cards[setID], card)
	}
	return set
}

func (g *Gateway) ListSets(_ context.Context, token string) ([]domain.FlashcardSet, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailList {
		return nil, domain.ErrFetchFailed
	}
	out := make([]domain.FlashcardSet, 0, len(g.setOrder))
	for _, id := range g.setOrder {
		out = append(out, g.sets[id])
	}
	return out, nil
}

func (g *Gateway) CreateSet(_ context.Context, token, title string) (domain.FlashcardSet, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailCreate {
		return domain.FlashcardSet{}, domain.ErrCreateFailed
	}
	set := domain.FlashcardSet{ID: gonanoid.Must(), Title: title, OwnerID: token}
	g.sets[set.ID] = set
	g.setOrder = append(g.setOrder, set.ID)
	return set, nil
}

func (g *Gateway) RenameSet(_ context.Context, token, setID, title string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailUpdate {
		return domain.ErrUpdateFailed
	}
	set, ok := g.sets[setID]
	if !ok {
		return domain.ErrSetNotFound
	}
	set.Title = title
	g.sets[setID] = set
	return nil
}

func (g *Gateway) DeleteSet(_ context.Context, token, setID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailDelete {
		return domain.ErrDeleteFailed
	}
	if _, ok := g.sets[setID]; !ok {
		return domain.ErrSetNotFound
	}
	delete(g.sets, setID)
	delete(g.cards, setID) // cascade
	for i, id := range g.setOrder {
		if id == setID {
			g.setOrder = append(g.setOrder[:i], g.setOrder[i+1:]...)
			break
		}
	}
	return nil
}

func (g *Gateway) ListCards(_ context.Context, token, setID string) ([]domain.Flashcard, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailList {
		return nil, domain.ErrFetchFailed
	}
	if _, ok := g.sets[setID]; !ok {
		return nil, domain.ErrSetNotFound
	}
	cards := g.cards[setID]
	out := make([]domain.Flashcard, len(cards))
	copy(out, cards)
	return out, nil
}

func (g *Gateway) CreateCard(_ context.Context, token, setID, question, answer string) (domain.Flashcard, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailCreate {
		return domain.Flashcard{}, domain.ErrCreateFailed
	}
	if _, ok := g.sets[setID]; !ok {
		return domain.Flashcard{}, domain.ErrSetNotFound
	}
	card := domain.Flashcard{ID: gonanoid.Must(), SetID: setID, Question: question, Answer: answer}
	g.cards[setID] = append(g.cards[setID], card)
	return card, nil
}

func (g *Gateway) UpdateCard(_ context.Context, token, setID, cardID, question, answer string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailUpdate {
		return domain.ErrUpdateFailed
	}
	cards := g.cards[setID]
	for i := range cards {
		if cards[i].ID == cardID {
			cards[i].Question = question
			cards[i].Answer = answer
			return nil
		}
	}
	return domain.ErrCardNotFound
}

func (g *Gateway) DeleteCard(_ context.Context, token, setID, cardID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.FailDelete {
		return domain.ErrDeleteFailed
	}
	cards := g.cards[setID]
	for i := range cards {
		if cards[i].ID == cardID {
			g.cards[setID] = append(cards[:i], cards[i+1:]...)
			return nil
		}
	}
	return domain.ErrCardNotFound
}
