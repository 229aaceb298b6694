package quiz

import (
	"math/rand"
	"sync"

	"flashdeck-service/internal/domain"
)

// optionCount bounds how many choices each question shows, matching the
// four-option layout of the card editor.
const optionCount = 4

type state int

const (
	inProgress state = iota
	completed
)

// Session is one self-test over a frozen snapshot of a set's cards.
// Questions and their option sets are fixed at construction; only the
// user's selections change until submission.
type Session struct {
	setID string

	mu         sync.Mutex
	st         state
	questions  []domain.Flashcard
	options    map[string][]domain.QuestionOption // card ID -> generated options
	selections map[string]string                  // card ID -> selected option text
	score      int
}

// NewSession snapshots cards and generates one option set per question.
// The pool for every question is all answers in the set, the question's
// own included. A set with zero cards cannot start.
func NewSession(setID string, cards []domain.Flashcard, rnd *rand.Rand) (*Session, error) {
	if len(cards) == 0 {
		return nil, domain.ErrEmptySet
	}

	questions := make([]domain.Flashcard, len(cards))
	copy(questions, cards)

	pool := make([]string, len(questions))
	for i, card := range questions {
		pool[i] = card.Answer
	}

	options := make(map[string][]domain.QuestionOption, len(questions))
	for _, card := range questions {
		texts := Options(card.Answer, pool, optionCount, rnd)
		opts := make([]domain.QuestionOption, len(texts))
		for i, text := range texts {
			opts[i] = domain.QuestionOption{Text: text, Correct: text == card.Answer}
		}
		options[card.ID] = opts
	}

	return &Session{
		setID:      setID,
		st:         inProgress,
		questions:  questions,
		options:    options,
		selections: make(map[string]string, len(questions)),
	}, nil
}

// SetID returns the set this session was started for.
func (s *Session) SetID() string {
	return s.setID
}

// Questions returns the ordered question snapshot.
func (s *Session) Questions() []domain.Flashcard {
	out := make([]domain.Flashcard, len(s.questions))
	copy(out, s.questions)
	return out
}

// OptionsFor returns the generated options for one question, in their
// fixed shuffled order.
func (s *Session) OptionsFor(cardID string) []domain.QuestionOption {
	opts, ok := s.options[cardID]
	if !ok {
		return nil
	}
	out := make([]domain.QuestionOption, len(opts))
	copy(out, opts)
	return out
}

// Select records the user's choice for a question, overwriting any
// earlier choice. Selecting text that is not one of the generated
// options is ignored rather than corrupting state.
func (s *Session) Select(cardID, optionText string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st != inProgress {
		return domain.ErrQuizCompleted
	}
	opts, ok := s.options[cardID]
	if !ok {
		return domain.ErrCardNotFound
	}
	for _, opt := range opts {
		if opt.Text == optionText {
			s.selections[cardID] = optionText
			return nil
		}
	}
	return nil
}

// Submit scores the session and completes it. Every question must have
// a selection; a second submission is an error.
func (s *Session) Submit() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st == completed {
		return 0, domain.ErrQuizCompleted
	}
	for _, card := range s.questions {
		if _, ok := s.selections[card.ID]; !ok {
			return 0, domain.ErrIncompleteAnswers
		}
	}

	score := 0
	for _, card := range s.questions {
		if s.selections[card.ID] == card.Answer {
			score++
		}
	}
	s.score = score
	s.st = completed
	return score, nil
}

// Score returns the submitted score.
func (s *Session) Score() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st != completed {
		return 0, domain.ErrQuizNotStarted
	}
	return s.score, nil
}

// Completed reports whether the session has been submitted.
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st == completed
}

// Review returns the per-question results for display. Valid only after
// submission.
func (s *Session) Review() ([]domain.ReviewEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.st != completed {
		return nil, domain.ErrQuizNotStarted
	}

	entries := make([]domain.ReviewEntry, 0, len(s.questions))
	for _, card := range s.questions {
		selected := s.selections[card.ID]
		opts := s.options[card.ID]
		optsCopy := make([]domain.QuestionOption, len(opts))
		copy(optsCopy, opts)
		entries = append(entries, domain.ReviewEntry{
			CardID:   card.ID,
			Question: card.Question,
			Options:  optsCopy,
			Selected: selected,
			Correct:  selected == card.Answer,
		})
	}
	return entries, nil
}
