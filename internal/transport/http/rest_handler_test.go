package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"

	"flashdeck-service/internal/app"
	"flashdeck-service/internal/domain"
	"flashdeck-service/internal/identity"
	"flashdeck-service/internal/infra/memory"
)

func restServer(t *testing.T) (*httptest.Server, *memory.Gateway) {
	t.Helper()
	gw := memory.NewGateway()
	provider := identity.NewStaticProvider(identity.Identity{UserID: "u1", DisplayName: "Alice"}, "test-secret")
	registry := app.NewSetRegistryWithNoticeDelay(gw, provider, time.Minute)
	t.Cleanup(registry.Close)

	handler := NewRESTHandler(registry, gw, provider, nil)
	router := mux.NewRouter()
	handler.Register(router)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, gw
}

func doJSON(t *testing.T, method, url string, body interface{}) *http.Response {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestSetLifecycleOverREST(t *testing.T) {
	server, _ := restServer(t)

	// Blank title rejected locally.
	resp := doJSON(t, http.MethodPost, server.URL+"/api/sets", map[string]string{"title": "   "})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank title, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Create with initial cards.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/sets", map[string]interface{}{
		"title": "Biology",
		"flashcards": []map[string]string{
			{"question": "H2O?", "answer": "Water"},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var set domain.FlashcardSet
	decodeInto(t, resp, &set)

	// Rename.
	resp = doJSON(t, http.MethodPut, server.URL+"/api/sets/"+set.ID, map[string]string{"title": "Marine Biology"})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on rename, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, server.URL+"/api/sets", nil)
	var sets []domain.FlashcardSet
	decodeInto(t, resp, &sets)
	if len(sets) != 1 || sets[0].Title != "Marine Biology" {
		t.Fatalf("unexpected sets %+v", sets)
	}
}

func TestDeleteConfirmationOverREST(t *testing.T) {
	server, _ := restServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/sets", map[string]string{"title": "Chemistry"})
	var set domain.FlashcardSet
	decodeInto(t, resp, &set)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/sets/"+set.ID+"/delete/begin", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on begin, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Wrong case does not arm.
	resp = doJSON(t, http.MethodPost, server.URL+"/api/sets/delete/offer", map[string]string{"text": "chemistry"})
	var armed armedResponse
	decodeInto(t, resp, &armed)
	if armed.Armed {
		t.Fatalf("wrong case must not arm the confirm control")
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/sets/delete/confirm", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 while not armed, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodPost, server.URL+"/api/sets/delete/offer", map[string]string{"text": "Chemistry"})
	decodeInto(t, resp, &armed)
	if !armed.Armed {
		t.Fatalf("exact title must arm the confirm control")
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/sets/delete/confirm", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on confirm, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, server.URL+"/api/sets", nil)
	var sets []domain.FlashcardSet
	decodeInto(t, resp, &sets)
	if len(sets) != 0 {
		t.Fatalf("deleted set still listed: %+v", sets)
	}

	// A transient notice is showing right after the delete.
	resp = doJSON(t, http.MethodGet, server.URL+"/api/notice", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected notice after delete, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestCardEditingOverREST(t *testing.T) {
	server, _ := restServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/sets", map[string]interface{}{
		"title": "Biology",
		"flashcards": []map[string]string{
			{"question": "H2O?", "answer": "Water"},
			{"question": "CO2?", "answer": "Carbon Dioxide"},
		},
	})
	var set domain.FlashcardSet
	decodeInto(t, resp, &set)
	base := server.URL + "/api/sets/" + set.ID + "/cards"

	// Add a blank card and fill it in.
	resp = doJSON(t, http.MethodPost, base, nil)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 on add, got %d", resp.StatusCode)
	}
	var card domain.Flashcard
	decodeInto(t, resp, &card)

	resp = doJSON(t, http.MethodPut, base+"/"+card.ID, map[string]string{"question": "NaCl?", "answer": "Salt"})
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on update, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Alphabetical view sorts without mutating stored order.
	resp = doJSON(t, http.MethodGet, base+"?sort=alpha", nil)
	var sorted []domain.Flashcard
	decodeInto(t, resp, &sorted)
	if sorted[0].Question != "CO2?" || sorted[2].Question != "NaCl?" {
		t.Fatalf("unexpected alpha order: %+v", sorted)
	}

	resp = doJSON(t, http.MethodGet, base, nil)
	var insertion []domain.Flashcard
	decodeInto(t, resp, &insertion)
	if insertion[0].Question != "H2O?" || insertion[2].Question != "NaCl?" {
		t.Fatalf("insertion order lost: %+v", insertion)
	}

	// Remove with retype confirmation.
	resp = doJSON(t, http.MethodPost, base+"/"+card.ID+"/remove/begin", nil)
	resp.Body.Close()
	resp = doJSON(t, http.MethodPost, base+"/remove/offer", map[string]string{"text": "NaCl?"})
	var armed armedResponse
	decodeInto(t, resp, &armed)
	if !armed.Armed {
		t.Fatalf("exact question must arm card removal")
	}
	resp = doJSON(t, http.MethodPost, base+"/remove/confirm", nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204 on card remove, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doJSON(t, http.MethodGet, base, nil)
	var after []domain.Flashcard
	decodeInto(t, resp, &after)
	if len(after) != 2 {
		t.Fatalf("expected 2 cards after removal, got %+v", after)
	}
}

func TestUnknownSetIs404(t *testing.T) {
	server, _ := restServer(t)
	resp := doJSON(t, http.MethodGet, server.URL+"/api/sets/nope/cards", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
