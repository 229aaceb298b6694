package app

import (
	"context"
	"strings"
	"sync"
	"time"

	"flashdeck-service/internal/domain"
	"flashdeck-service/internal/gateway"
	"flashdeck-service/internal/identity"
)

const defaultNoticeDelay = 4 * time.Second

// SetRegistry maintains the in-process list of the current user's
// flashcard sets. Creates and renames are pessimistic; deletion runs
// through a retype-the-title confirmation. The registry subscribes to
// identity changes and drops its state when the user signs out or
// switches.
type SetRegistry struct {
	gw          gateway.Gateway
	ids         identity.Provider
	noticeDelay time.Duration

	mu          sync.Mutex
	sets        []domain.FlashcardSet
	deleteGuard confirmGuard
	notice      *domain.Notice
	noticeSeq   int

	cancelWatch func()
}

func NewSetRegistry(gw gateway.Gateway, ids identity.Provider) *SetRegistry {
	return NewSetRegistryWithNoticeDelay(gw, ids, defaultNoticeDelay)
}

// NewSetRegistryWithNoticeDelay allows tests to shrink the notice
// self-clear delay.
func NewSetRegistryWithNoticeDelay(gw gateway.Gateway, ids identity.Provider, noticeDelay time.Duration) *SetRegistry {
	r := &SetRegistry{
		gw:          gw,
		ids:         ids,
		noticeDelay: noticeDelay,
	}
	changes, cancel := ids.Subscribe()
	r.cancelWatch = cancel
	go r.watch(changes)
	return r
}

// Close stops the identity subscription.
func (r *SetRegistry) Close() {
	if r.cancelWatch != nil {
		r.cancelWatch()
	}
}

func (r *SetRegistry) watch(changes <-chan identity.Change) {
	for range changes {
		// Cached sets belong to the previous identity either way;
		// the next List repopulates for the new one.
		r.mu.Lock()
		r.sets = nil
		r.deleteGuard.reset()
		r.notice = nil
		r.mu.Unlock()
	}
}

// List fetches all sets owned by the current identity and replaces the
// local list. On failure the prior list stays usable.
func (r *SetRegistry) List(ctx context.Context) ([]domain.FlashcardSet, error) {
	token, err := r.credential(ctx)
	if err != nil {
		return nil, err
	}
	sets, err := r.gw.ListSets(ctx, token)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.sets = sets
	r.mu.Unlock()
	return copySets(sets), nil
}

// Sets returns the locally cached list.
func (r *SetRegistry) Sets() []domain.FlashcardSet {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copySets(r.sets)
}

// Create validates the title locally (no round trip for empty or
// whitespace-only input), creates the set, then creates any initial
// cards. The set is appended to the local list on success.
func (r *SetRegistry) Create(ctx context.Context, title string, cards ...domain.Flashcard) (domain.FlashcardSet, error) {
	if strings.TrimSpace(title) == "" {
		return domain.FlashcardSet{}, domain.ErrValidation
	}
	token, err := r.credential(ctx)
	if err != nil {
		return domain.FlashcardSet{}, err
	}

	set, err := r.gw.CreateSet(ctx, token, title)
	if err != nil {
		return domain.FlashcardSet{}, err
	}
	for _, card := range cards {
		if _, err := r.gw.CreateCard(ctx, token, set.ID, card.Question, card.Answer); err != nil {
			// The set exists; surface the card failure so the user can
			// re-add the missing cards in the editor.
			r.append(set)
			return set, err
		}
	}

	r.append(set)
	r.postNotice("Flashcard set created")
	return set, nil
}

// Rename validates like Create and commits locally only after the
// gateway acknowledges.
func (r *SetRegistry) Rename(ctx context.Context, setID, title string) error {
	if strings.TrimSpace(title) == "" {
		return domain.ErrValidation
	}
	token, err := r.credential(ctx)
	if err != nil {
		return err
	}

	if err := r.gw.RenameSet(ctx, token, setID, title); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sets {
		if r.sets[i].ID == setID {
			r.sets[i].Title = title
			break
		}
	}
	return nil
}

// BeginDelete enters the confirmation state for a set, capturing its
// current title as the expected confirmation string.
func (r *SetRegistry) BeginDelete(setID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.sets {
		if r.sets[i].ID == setID {
			r.deleteGuard.begin(setID, r.sets[i].Title)
			return nil
		}
	}
	return domain.ErrSetNotFound
}

// OfferConfirmation records the user's typed confirmation text.
func (r *SetRegistry) OfferConfirmation(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteGuard.offer(text)
}

// ConfirmArmed reports whether the typed text exactly equals the
// pending set's title.
func (r *SetRegistry) ConfirmArmed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deleteGuard.armed()
}

// CancelDelete discards the pending target with no backend call.
func (r *SetRegistry) CancelDelete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleteGuard.reset()
}

// ConfirmDelete issues exactly one gateway delete for the armed target.
// Success removes the set (and implicitly its cards) locally and posts
// a transient notice; failure leaves the set in the list with the
// confirmation still pending.
func (r *SetRegistry) ConfirmDelete(ctx context.Context) error {
	token, err := r.credential(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	setID, pending := r.deleteGuard.target()
	if !pending {
		r.mu.Unlock()
		return domain.ErrNoPendingConfirm
	}
	if !r.deleteGuard.armed() {
		r.mu.Unlock()
		return domain.ErrConfirmNotArmed
	}
	// Disarm before the round trip so a double-confirm cannot fire two
	// deletes for one pending target.
	r.deleteGuard.reset()
	r.mu.Unlock()

	if err := r.gw.DeleteSet(ctx, token, setID); err != nil {
		// Re-arm so the dialog can offer a retry without retyping.
		r.mu.Lock()
		for i := range r.sets {
			if r.sets[i].ID == setID {
				r.deleteGuard.begin(setID, r.sets[i].Title)
				r.deleteGuard.offer(r.sets[i].Title)
				break
			}
		}
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	for i := range r.sets {
		if r.sets[i].ID == setID {
			r.sets = append(r.sets[:i], r.sets[i+1:]...)
			break
		}
	}
	r.mu.Unlock()
	r.postNotice("Flashcard set deleted")
	return nil
}

// Notice returns the current transient notice, if one is showing.
func (r *SetRegistry) Notice() (domain.Notice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.notice == nil {
		return domain.Notice{}, false
	}
	return *r.notice, true
}

func (r *SetRegistry) postNotice(message string) {
	r.mu.Lock()
	r.noticeSeq++
	seq := r.noticeSeq
	r.notice = &domain.Notice{Message: message}
	r.mu.Unlock()

	time.AfterFunc(r.noticeDelay, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		// A newer notice supersedes this timer.
		if r.noticeSeq == seq {
			r.notice = nil
		}
	})
}

func (r *SetRegistry) append(set domain.FlashcardSet) {
	r.mu.Lock()
	r.sets = append(r.sets, set)
	r.mu.Unlock()
}

func (r *SetRegistry) credential(ctx context.Context) (string, error) {
	id, ok := r.ids.Current()
	if !ok {
		return "", domain.ErrUnauthenticated
	}
	return r.ids.Credential(ctx, id)
}

func copySets(sets []domain.FlashcardSet) []domain.FlashcardSet {
	out := make([]domain.FlashcardSet, len(sets))
	copy(out, sets)
	return out
}
