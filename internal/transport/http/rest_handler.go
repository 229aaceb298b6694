package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/mux"

	"flashdeck-service/internal/app"
	"flashdeck-service/internal/domain"
	"flashdeck-service/internal/gateway"
	"flashdeck-service/internal/identity"
)

// RESTHandler exposes set and card CRUD for the studio UI. One set is
// open for editing at a time; opening another set rebinds the card
// store, matching the one-active-view ownership model.
type RESTHandler struct {
	registry *app.SetRegistry
	gw       gateway.Gateway
	ids      identity.Provider
	decks    app.DeckInvalidator

	mu    sync.Mutex
	store *app.CardStore
}

func NewRESTHandler(registry *app.SetRegistry, gw gateway.Gateway, ids identity.Provider, decks app.DeckInvalidator) *RESTHandler {
	return &RESTHandler{registry: registry, gw: gw, ids: ids, decks: decks}
}

// Register mounts all routes on the router.
func (h *RESTHandler) Register(r *mux.Router) {
	r.HandleFunc("/api/sets", h.listSets).Methods(http.MethodGet)
	r.HandleFunc("/api/sets", h.createSet).Methods(http.MethodPost)
	r.HandleFunc("/api/sets/{setID}", h.renameSet).Methods(http.MethodPut)
	r.HandleFunc("/api/sets/{setID}/delete/begin", h.beginDeleteSet).Methods(http.MethodPost)
	r.HandleFunc("/api/sets/delete/offer", h.offerDeleteSet).Methods(http.MethodPost)
	r.HandleFunc("/api/sets/delete/cancel", h.cancelDeleteSet).Methods(http.MethodPost)
	r.HandleFunc("/api/sets/delete/confirm", h.confirmDeleteSet).Methods(http.MethodPost)
	r.HandleFunc("/api/notice", h.notice).Methods(http.MethodGet)

	r.HandleFunc("/api/sets/{setID}/cards", h.listCards).Methods(http.MethodGet)
	r.HandleFunc("/api/sets/{setID}/cards", h.addBlankCard).Methods(http.MethodPost)
	r.HandleFunc("/api/sets/{setID}/cards/{cardID}", h.updateCard).Methods(http.MethodPut)
	r.HandleFunc("/api/sets/{setID}/cards/{cardID}/remove/begin", h.beginRemoveCard).Methods(http.MethodPost)
	r.HandleFunc("/api/sets/{setID}/cards/remove/offer", h.offerRemoveCard).Methods(http.MethodPost)
	r.HandleFunc("/api/sets/{setID}/cards/remove/cancel", h.cancelRemoveCard).Methods(http.MethodPost)
	r.HandleFunc("/api/sets/{setID}/cards/remove/confirm", h.confirmRemoveCard).Methods(http.MethodPost)
}

type createSetRequest struct {
	Title string `json:"title"`
	Cards []struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	} `json:"flashcards"`
}

type titleRequest struct {
	Title string `json:"title"`
}

type confirmationRequest struct {
	Text string `json:"text"`
}

type armedResponse struct {
	Armed bool `json:"armed"`
}

type cardRequest struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (h *RESTHandler) listSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.registry.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sets)
}

func (h *RESTHandler) createSet(w http.ResponseWriter, r *http.Request) {
	var req createSetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	cards := make([]domain.Flashcard, len(req.Cards))
	for i, c := range req.Cards {
		cards[i] = domain.Flashcard{Question: c.Question, Answer: c.Answer}
	}
	set, err := h.registry.Create(r.Context(), req.Title, cards...)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, set)
}

func (h *RESTHandler) renameSet(w http.ResponseWriter, r *http.Request) {
	var req titleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := h.registry.Rename(r.Context(), mux.Vars(r)["setID"], req.Title); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) beginDeleteSet(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.BeginDelete(mux.Vars(r)["setID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) offerDeleteSet(w http.ResponseWriter, r *http.Request) {
	var req confirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.registry.OfferConfirmation(req.Text)
	writeJSON(w, http.StatusOK, armedResponse{Armed: h.registry.ConfirmArmed()})
}

func (h *RESTHandler) cancelDeleteSet(w http.ResponseWriter, r *http.Request) {
	h.registry.CancelDelete()
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) confirmDeleteSet(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.ConfirmDelete(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) notice(w http.ResponseWriter, r *http.Request) {
	notice, ok := h.registry.Notice()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, notice)
}

func (h *RESTHandler) listCards(w http.ResponseWriter, r *http.Request) {
	store, err := h.openStore(r)
	if err != nil {
		writeError(w, err)
		return
	}
	alpha := r.URL.Query().Get("sort") == "alpha"
	writeJSON(w, http.StatusOK, store.SortedView(alpha))
}

func (h *RESTHandler) addBlankCard(w http.ResponseWriter, r *http.Request) {
	store, err := h.openStore(r)
	if err != nil {
		writeError(w, err)
		return
	}
	card, err := store.AddBlank(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, card)
}

func (h *RESTHandler) updateCard(w http.ResponseWriter, r *http.Request) {
	store, err := h.openStore(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req cardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := store.Update(r.Context(), mux.Vars(r)["cardID"], req.Question, req.Answer); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) beginRemoveCard(w http.ResponseWriter, r *http.Request) {
	store, err := h.openStore(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := store.BeginRemove(mux.Vars(r)["cardID"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) offerRemoveCard(w http.ResponseWriter, r *http.Request) {
	store, err := h.openStore(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var req confirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	store.OfferRemoveInput(req.Text)
	writeJSON(w, http.StatusOK, armedResponse{Armed: store.RemoveArmed()})
}

func (h *RESTHandler) cancelRemoveCard(w http.ResponseWriter, r *http.Request) {
	store, err := h.openStore(r)
	if err != nil {
		writeError(w, err)
		return
	}
	store.CancelRemove()
	w.WriteHeader(http.StatusNoContent)
}

func (h *RESTHandler) confirmRemoveCard(w http.ResponseWriter, r *http.Request) {
	store, err := h.openStore(r)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := store.ConfirmRemove(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// openStore returns the card store for the requested set, binding a new
// one (and loading it) when a different set is opened.
func (h *RESTHandler) openStore(r *http.Request) (*app.CardStore, error) {
	setID := mux.Vars(r)["setID"]

	h.mu.Lock()
	store := h.store
	h.mu.Unlock()
	if store != nil && store.SetID() == setID {
		return store, nil
	}

	store = app.NewCardStore(h.gw, h.ids, h.decks, setID)
	if err := store.Load(r.Context()); err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.store = store
	h.mu.Unlock()
	return store, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrUnauthenticated):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, domain.ErrSetNotFound), errors.Is(err, domain.ErrCardNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrNoPendingConfirm), errors.Is(err, domain.ErrConfirmNotArmed):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}
