package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"flashdeck-service/internal/domain"
)

// OwnerResolver maps a bearer token to the owning user ID. The server
// wires this to JWT subject extraction.
type OwnerResolver func(token string) (string, error)

// Gateway persists sets and cards in Postgres. It backs self-hosted
// deployments where no remote flashcard backend is configured.
type Gateway struct {
	pool  *pgxpool.Pool
	owner OwnerResolver
}

func NewGateway(pool *pgxpool.Pool, owner OwnerResolver) *Gateway {
	return &Gateway{pool: pool, owner: owner}
}

func (g *Gateway) ListSets(ctx context.Context, token string) ([]domain.FlashcardSet, error) {
	ownerID, err := g.owner(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	rows, err := g.pool.Query(ctx,
		`SELECT id, title, owner_id FROM flashcard_sets WHERE owner_id=$1 ORDER BY created_at`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer rows.Close()

	var sets []domain.FlashcardSet
	for rows.Next() {
		var set domain.FlashcardSet
		if err := rows.Scan(&set.ID, &set.Title, &set.OwnerID); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return sets, nil
}

func (g *Gateway) CreateSet(ctx context.Context, token, title string) (domain.FlashcardSet, error) {
	ownerID, err := g.owner(token)
	if err != nil {
		return domain.FlashcardSet{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	set := domain.FlashcardSet{ID: gonanoid.Must(), Title: title, OwnerID: ownerID}
	_, err = g.pool.Exec(ctx,
		`INSERT INTO flashcard_sets (id, owner_id, title) VALUES ($1, $2, $3)`,
		set.ID, set.OwnerID, set.Title)
	if err != nil {
		return domain.FlashcardSet{}, fmt.Errorf("%w: %v", domain.ErrCreateFailed, err)
	}
	return set, nil
}

func (g *Gateway) RenameSet(ctx context.Context, token, setID, title string) error {
	ownerID, err := g.owner(token)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	tag, err := g.pool.Exec(ctx,
		`UPDATE flashcard_sets SET title=$1 WHERE id=$2 AND owner_id=$3`, title, setID, ownerID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpdateFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSetNotFound
	}
	return nil
}

func (g *Gateway) DeleteSet(ctx context.Context, token, setID string) error {
	ownerID, err := g.owner(token)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}

	// Cards cascade via the foreign key.
	tag, err := g.pool.Exec(ctx,
		`DELETE FROM flashcard_sets WHERE id=$1 AND owner_id=$2`, setID, ownerID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeleteFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSetNotFound
	}
	return nil
}

func (g *Gateway) ListCards(ctx context.Context, token, setID string) ([]domain.Flashcard, error) {
	ownerID, err := g.owner(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if err := g.requireSet(ctx, setID, ownerID); err != nil {
		return nil, err
	}

	rows, err := g.pool.Query(ctx,
		`SELECT id, set_id, question, answer FROM flashcards WHERE set_id=$1 ORDER BY position`, setID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer rows.Close()

	var cards []domain.Flashcard
	for rows.Next() {
		var card domain.Flashcard
		if err := rows.Scan(&card.ID, &card.SetID, &card.Question, &card.Answer); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
		}
		cards = append(cards, card)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return cards, nil
}

func (g *Gateway) CreateCard(ctx context.Context, token, setID, question, answer string) (domain.Flashcard, error) {
	ownerID, err := g.owner(token)
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if err := g.requireSet(ctx, setID, ownerID); err != nil {
		return domain.Flashcard{}, err
	}

	card := domain.Flashcard{ID: gonanoid.Must(), SetID: setID, Question: question, Answer: answer}
	_, err = g.pool.Exec(ctx,
		`INSERT INTO flashcards (id, set_id, question, answer) VALUES ($1, $2, $3, $4)`,
		card.ID, card.SetID, card.Question, card.Answer)
	if err != nil {
		return domain.Flashcard{}, fmt.Errorf("%w: %v", domain.ErrCreateFailed, err)
	}
	return card, nil
}

func (g *Gateway) UpdateCard(ctx context.Context, token, setID, cardID, question, answer string) error {
	ownerID, err := g.owner(token)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if err := g.requireSet(ctx, setID, ownerID); err != nil {
		return err
	}

	tag, err := g.pool.Exec(ctx,
		`UPDATE flashcards SET question=$1, answer=$2 WHERE id=$3 AND set_id=$4`,
		question, answer, cardID, setID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpdateFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCardNotFound
	}
	return nil
}

func (g *Gateway) DeleteCard(ctx context.Context, token, setID, cardID string) error {
	ownerID, err := g.owner(token)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnauthenticated, err)
	}
	if err := g.requireSet(ctx, setID, ownerID); err != nil {
		return err
	}

	tag, err := g.pool.Exec(ctx,
		`DELETE FROM flashcards WHERE id=$1 AND set_id=$2`, cardID, setID)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeleteFailed, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCardNotFound
	}
	return nil
}

func (g *Gateway) requireSet(ctx context.Context, setID, ownerID string) error {
	var one int
	err := g.pool.QueryRow(ctx,
		`SELECT 1 FROM flashcard_sets WHERE id=$1 AND owner_id=$2`, setID, ownerID).Scan(&one)
	if err == pgx.ErrNoRows {
		return domain.ErrSetNotFound
	}
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return nil
}
