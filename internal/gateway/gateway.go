// Package gateway defines the client surface of the flashcard backend.
// The backend is the system of record for sets and cards; every call
// carries the bearer credential of the owning user.
package gateway

import (
	"context"

	"flashdeck-service/internal/domain"
)

// Gateway is the abstract Sync Gateway. Implementations bind it to a
// remote HTTP backend, a local Postgres store, or an in-memory fake.
type Gateway interface {
	ListSets(ctx context.Context, token string) ([]domain.FlashcardSet, error)
	CreateSet(ctx context.Context, token, title string) (domain.FlashcardSet, error)
	RenameSet(ctx context.Context, token, setID, title string) error
	DeleteSet(ctx context.Context, token, setID string) error

	ListCards(ctx context.Context, token, setID string) ([]domain.Flashcard, error)
	CreateCard(ctx context.Context, token, setID, question, answer string) (domain.Flashcard, error)
	UpdateCard(ctx context.Context, token, setID, cardID, question, answer string) error
	DeleteCard(ctx context.Context, token, setID, cardID string) error
}
