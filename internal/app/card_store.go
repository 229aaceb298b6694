package app

import (
	"context"
	"sort"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"flashdeck-service/internal/domain"
	"flashdeck-service/internal/gateway"
	"flashdeck-service/internal/identity"
)

// DeckInvalidator drops cached deck snapshots after a mutation so the
// next quiz start sees fresh cards.
type DeckInvalidator interface {
	Invalidate(setID string)
}

// CardStore owns the in-process card list for one open set. Loads
// replace state wholesale; AddBlank is optimistic (applied locally, then
// rolled back on gateway failure) while updates and removals are
// pessimistic (applied locally only after the gateway acknowledges).
type CardStore struct {
	gw    gateway.Gateway
	ids   identity.Provider
	decks DeckInvalidator // may be nil
	setID string

	mu          sync.Mutex
	cards       []domain.Flashcard
	removeGuard confirmGuard

	lockMu    sync.Mutex
	cardLocks map[string]*sync.Mutex
}

// NewCardStore binds a store to one set. decks may be nil when no deck
// cache is in play.
func NewCardStore(gw gateway.Gateway, ids identity.Provider, decks DeckInvalidator, setID string) *CardStore {
	return &CardStore{
		gw:        gw,
		ids:       ids,
		decks:     decks,
		setID:     setID,
		cardLocks: make(map[string]*sync.Mutex),
	}
}

// SetID returns the set this store is bound to.
func (s *CardStore) SetID() string {
	return s.setID
}

// Load fetches the set's cards and replaces local state wholesale. On
// failure the prior state, if any, is left untouched.
func (s *CardStore) Load(ctx context.Context) error {
	token, err := s.credential(ctx)
	if err != nil {
		return err
	}
	cards, err := s.gw.ListCards(ctx, token, s.setID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.cards = cards
	s.mu.Unlock()
	return nil
}

// AddBlank optimistically appends an empty card, then asks the gateway
// to create it. On success the placeholder takes the backend-assigned
// identifier; on failure the placeholder is removed again.
func (s *CardStore) AddBlank(ctx context.Context) (domain.Flashcard, error) {
	token, err := s.credential(ctx)
	if err != nil {
		return domain.Flashcard{}, err
	}

	placeholderID := "pending-" + gonanoid.Must()
	placeholder := domain.Flashcard{ID: placeholderID, SetID: s.setID}

	s.mu.Lock()
	s.cards = append(s.cards, placeholder)
	s.mu.Unlock()

	created, err := s.gw.CreateCard(ctx, token, s.setID, "", "")

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.cards {
		if s.cards[i].ID != placeholderID {
			continue
		}
		if err != nil {
			s.cards = append(s.cards[:i], s.cards[i+1:]...)
			return domain.Flashcard{}, err
		}
		s.cards[i] = created
		s.invalidate()
		return created, nil
	}
	// Placeholder already gone (e.g. a Load raced the create); nothing
	// to reconcile.
	if err != nil {
		return domain.Flashcard{}, err
	}
	s.invalidate()
	return created, nil
}

// Update sends the edit to the gateway and applies it locally only
// after acknowledgment, so unsaved edits are never shown as committed.
// Writes to the same card are serialized; the last confirmed submission
// wins.
func (s *CardStore) Update(ctx context.Context, cardID, question, answer string) error {
	token, err := s.credential(ctx)
	if err != nil {
		return err
	}

	lock := s.cardLock(cardID)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	if _, ok := s.find(cardID); !ok {
		s.mu.Unlock()
		return domain.ErrCardNotFound
	}
	s.mu.Unlock()

	if err := s.gw.UpdateCard(ctx, token, s.setID, cardID, question, answer); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.find(cardID); ok {
		s.cards[i].Question = question
		s.cards[i].Answer = answer
	}
	s.invalidate()
	return nil
}

// BeginRemove starts the removal confirmation for a card; the card's
// question is the expected confirmation string.
func (s *CardStore) BeginRemove(cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.find(cardID)
	if !ok {
		return domain.ErrCardNotFound
	}
	s.removeGuard.begin(cardID, s.cards[i].Question)
	return nil
}

// OfferRemoveInput records the user's typed confirmation.
func (s *CardStore) OfferRemoveInput(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeGuard.offer(text)
}

// RemoveArmed reports whether the typed confirmation matches exactly.
func (s *CardStore) RemoveArmed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.removeGuard.armed()
}

// CancelRemove discards the pending removal without a backend call.
func (s *CardStore) CancelRemove() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeGuard.reset()
}

// ConfirmRemove deletes the pending card. Local state changes only
// after gateway success; on failure the card remains and the
// confirmation stays pending for a retry.
func (s *CardStore) ConfirmRemove(ctx context.Context) error {
	token, err := s.credential(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	cardID, pending := s.removeGuard.target()
	if !pending {
		s.mu.Unlock()
		return domain.ErrNoPendingConfirm
	}
	if !s.removeGuard.armed() {
		s.mu.Unlock()
		return domain.ErrConfirmNotArmed
	}
	s.mu.Unlock()

	if err := s.gw.DeleteCard(ctx, token, s.setID, cardID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.find(cardID); ok {
		s.cards = append(s.cards[:i], s.cards[i+1:]...)
	}
	s.removeGuard.reset()
	s.invalidate()
	return nil
}

// Cards returns the insertion-ordered card list.
func (s *CardStore) Cards() []domain.Flashcard {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Flashcard, len(s.cards))
	copy(out, s.cards)
	return out
}

// SortedView returns either the stored insertion order or a copy
// ordered by case-sensitive question comparison. Toggling never mutates
// the stored order.
func (s *CardStore) SortedView(byQuestionAlphabetical bool) []domain.Flashcard {
	out := s.Cards()
	if byQuestionAlphabetical {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Question < out[j].Question
		})
	}
	return out
}

func (s *CardStore) find(cardID string) (int, bool) {
	for i := range s.cards {
		if s.cards[i].ID == cardID {
			return i, true
		}
	}
	return 0, false
}

func (s *CardStore) invalidate() {
	if s.decks != nil {
		s.decks.Invalidate(s.setID)
	}
}

func (s *CardStore) cardLock(cardID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.cardLocks[cardID]
	if !ok {
		lock = &sync.Mutex{}
		s.cardLocks[cardID] = lock
	}
	return lock
}

func (s *CardStore) credential(ctx context.Context) (string, error) {
	id, ok := s.ids.Current()
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	return s.ids.Credential(ctx, id)
}
