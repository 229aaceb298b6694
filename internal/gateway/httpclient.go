package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"flashdeck-service/internal/domain"
)

// HTTPClient talks to a remote flashcard backend over REST. Routes are
// keyed by the owner's bearer token, which also travels in the
// Authorization header.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient trims a trailing slash from baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	for len(baseURL) > 0 && baseURL[len(baseURL)-1] == '/' {
		baseURL = baseURL[:len(baseURL)-1]
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *HTTPClient) setsURL(token string) string {
	return c.baseURL + "/api/users/" + url.PathEscape(token) + "/flashcardSets"
}

func (c *HTTPClient) cardsURL(token, setID string) string {
	return c.setsURL(token) + "/" + url.PathEscape(setID) + "/flashcards"
}

func (c *HTTPClient) ListSets(ctx context.Context, token string) ([]domain.FlashcardSet, error) {
	var sets []domain.FlashcardSet
	if err := c.do(ctx, http.MethodGet, c.setsURL(token), token, nil, &sets); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return sets, nil
}

func (c *HTTPClient) CreateSet(ctx context.Context, token, title string) (domain.FlashcardSet, error) {
	body := map[string]string{"title": title}
	var set domain.FlashcardSet
	if err := c.do(ctx, http.MethodPost, c.setsURL(token), token, body, &set); err != nil {
		return domain.FlashcardSet{}, fmt.Errorf("%w: %v", domain.ErrCreateFailed, err)
	}
	return set, nil
}

func (c *HTTPClient) RenameSet(ctx context.Context, token, setID, title string) error {
	u := c.setsURL(token) + "/" + url.PathEscape(setID)
	body := map[string]string{"title": title}
	if err := c.do(ctx, http.MethodPut, u, token, body, nil); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpdateFailed, err)
	}
	return nil
}

func (c *HTTPClient) DeleteSet(ctx context.Context, token, setID string) error {
	u := c.setsURL(token) + "/" + url.PathEscape(setID)
	if err := c.do(ctx, http.MethodDelete, u, token, nil, nil); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeleteFailed, err)
	}
	return nil
}

func (c *HTTPClient) ListCards(ctx context.Context, token, setID string) ([]domain.Flashcard, error) {
	var cards []domain.Flashcard
	if err := c.do(ctx, http.MethodGet, c.cardsURL(token, setID), token, nil, &cards); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return cards, nil
}

func (c *HTTPClient) CreateCard(ctx context.Context, token, setID, question, answer string) (domain.Flashcard, error) {
	body := map[string]string{"question": question, "answer": answer}
	var card domain.Flashcard
	if err := c.do(ctx, http.MethodPost, c.cardsURL(token, setID), token, body, &card); err != nil {
		return domain.Flashcard{}, fmt.Errorf("%w: %v", domain.ErrCreateFailed, err)
	}
	return card, nil
}

func (c *HTTPClient) UpdateCard(ctx context.Context, token, setID, cardID, question, answer string) error {
	u := c.cardsURL(token, setID) + "/" + url.PathEscape(cardID)
	body := map[string]string{"question": question, "answer": answer}
	if err := c.do(ctx, http.MethodPut, u, token, body, nil); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUpdateFailed, err)
	}
	return nil
}

func (c *HTTPClient) DeleteCard(ctx context.Context, token, setID, cardID string) error {
	u := c.cardsURL(token, setID) + "/" + url.PathEscape(cardID)
	if err := c.do(ctx, http.MethodDelete, u, token, nil, nil); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrDeleteFailed, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, u, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway returned %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
