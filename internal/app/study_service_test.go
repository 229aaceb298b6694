package app

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"flashdeck-service/internal/domain"
	"flashdeck-service/internal/infra/memory"
)

func TestStartBuildsSessionFromDeck(t *testing.T) {
	gw := memory.NewGateway()
	set := gw.Seed("u1", "Biology", []domain.Flashcard{
		{Question: "H2O?", Answer: "Water"},
		{Question: "CO2?", Answer: "Carbon Dioxide"},
	})
	cache := memory.NewDeckCache(gw, time.Minute)
	service := NewStudyServiceWithRand(cache, newTestProvider(), rand.New(rand.NewSource(1)))

	session, err := service.Start(context.Background(), set.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	questions := session.Questions()
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	for _, card := range questions {
		opts := session.OptionsFor(card.ID)
		if len(opts) != 2 {
			t.Fatalf("expected 2 options for %s, got %v", card.ID, opts)
		}
	}
}

func TestStartEmptySet(t *testing.T) {
	gw := memory.NewGateway()
	set := gw.Seed("u1", "Empty", nil)
	cache := memory.NewDeckCache(gw, time.Minute)
	service := NewStudyService(cache, newTestProvider())

	if _, err := service.Start(context.Background(), set.ID); !errors.Is(err, domain.ErrEmptySet) {
		t.Fatalf("expected ErrEmptySet, got %v", err)
	}
}

func TestStartRequiresIdentity(t *testing.T) {
	gw := memory.NewGateway()
	set := gw.Seed("u1", "Biology", []domain.Flashcard{{Question: "H2O?", Answer: "Water"}})
	provider := newTestProvider()
	provider.SignOut()
	service := NewStudyService(memory.NewDeckCache(gw, time.Minute), provider)

	if _, err := service.Start(context.Background(), set.ID); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestQuizSeesFreshCardsAfterEdit(t *testing.T) {
	gw := memory.NewGateway()
	set := gw.Seed("u1", "Biology", []domain.Flashcard{{Question: "H2O?", Answer: "Water"}})
	cache := memory.NewDeckCache(gw, time.Minute)
	service := NewStudyServiceWithRand(cache, newTestProvider(), rand.New(rand.NewSource(1)))

	if _, err := service.Start(context.Background(), set.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Editing through the store invalidates the cached deck.
	store := NewCardStore(gw, newTestProvider(), cache, set.ID)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	cardID := store.Cards()[0].ID
	if err := store.Update(context.Background(), cardID, "H2O?", "Dihydrogen Monoxide"); err != nil {
		t.Fatalf("update: %v", err)
	}

	session, err := service.Start(context.Background(), set.ID)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if session.Questions()[0].Answer != "Dihydrogen Monoxide" {
		t.Fatalf("stale deck after edit: %+v", session.Questions())
	}
}
