package domain

import "errors"

var (
	// ErrValidation marks bad local input that never reaches the gateway.
	ErrValidation = errors.New("validation failed")
	// ErrUnauthenticated is returned when no identity is available.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrFetchFailed wraps gateway read failures.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrCreateFailed wraps gateway create failures.
	ErrCreateFailed = errors.New("create failed")
	// ErrUpdateFailed wraps gateway update failures.
	ErrUpdateFailed = errors.New("update failed")
	// ErrDeleteFailed wraps gateway delete failures.
	ErrDeleteFailed = errors.New("delete failed")

	// ErrEmptySet is returned when a quiz is started for a set with no cards.
	ErrEmptySet = errors.New("set has no cards")
	// ErrIncompleteAnswers is returned by Submit while questions remain unanswered.
	ErrIncompleteAnswers = errors.New("not all questions answered")
	// ErrQuizCompleted is returned when a completed session is submitted again.
	ErrQuizCompleted = errors.New("quiz already completed")
	// ErrQuizNotStarted is returned for operations that need an in-progress session.
	ErrQuizNotStarted = errors.New("quiz not started")

	// ErrSetNotFound indicates an unknown set identifier.
	ErrSetNotFound = errors.New("flashcard set not found")
	// ErrCardNotFound indicates an unknown card identifier.
	ErrCardNotFound = errors.New("flashcard not found")

	// ErrNoPendingConfirm is returned when confirming with nothing pending.
	ErrNoPendingConfirm = errors.New("no deletion pending")
	// ErrConfirmNotArmed is returned when the typed confirmation does not match.
	ErrConfirmNotArmed = errors.New("confirmation text does not match")
)
