package domain

// FlashcardSet is a named collection of flashcards owned by one user.
// The backend is the system of record; in-process copies are caches.
type FlashcardSet struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	OwnerID string `json:"ownerId"`
}

// Flashcard belongs to exactly one set. Question and answer may both be
// empty right after creation, to be filled in by the editor.
type Flashcard struct {
	ID       string `json:"id"`
	SetID    string `json:"setId"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuestionOption is one multiple-choice option for a question. Derived
// from sibling answers at quiz start, never persisted.
type QuestionOption struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// ReviewEntry is the per-question result shown after a quiz is
// submitted: the generated options plus what the user picked.
type ReviewEntry struct {
	CardID   string           `json:"cardId"`
	Question string           `json:"question"`
	Options  []QuestionOption `json:"options"`
	Selected string           `json:"selected"`
	Correct  bool             `json:"correct"`
}

// Notice is a transient user-facing message that clears itself after a
// fixed delay.
type Notice struct {
	Message string `json:"message"`
}
