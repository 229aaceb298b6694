package identity

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"flashdeck-service/internal/domain"
)

const tokenLifetime = time.Hour

// StaticProvider is a local provider with a fixed identity, standing in
// for the hosted identity service in self-contained deployments and
// tests. Bearer credentials are short-lived HS256 tokens minted on
// demand.
type StaticProvider struct {
	secret []byte
	clock  func() time.Time

	mu          sync.Mutex
	identity    Identity
	signedIn    bool
	subscribers map[chan Change]struct{}
}

// NewStaticProvider starts signed in as id.
func NewStaticProvider(id Identity, secret string) *StaticProvider {
	return &StaticProvider{
		secret:      []byte(secret),
		clock:       time.Now,
		identity:    id,
		signedIn:    true,
		subscribers: make(map[chan Change]struct{}),
	}
}

func (p *StaticProvider) Current() (Identity, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.identity, p.signedIn
}

// Credential mints a bearer token for id. Fails when nobody is signed
// in or id is not the signed-in user.
func (p *StaticProvider) Credential(_ context.Context, id Identity) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.signedIn || id.UserID != p.identity.UserID {
		return "", domain.ErrUnauthenticated
	}

	now := p.clock()
	claims := jwt.MapClaims{
		"sub":  id.UserID,
		"name": id.DisplayName,
		"iat":  now.Unix(),
		"exp":  now.Add(tokenLifetime).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

func (p *StaticProvider) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 4)

	p.mu.Lock()
	p.subscribers[ch] = struct{}{}
	p.mu.Unlock()

	cancel := func() {
		p.mu.Lock()
		if _, ok := p.subscribers[ch]; ok {
			delete(p.subscribers, ch)
			close(ch)
		}
		p.mu.Unlock()
	}
	return ch, cancel
}

// SignOut clears the identity and notifies subscribers.
func (p *StaticProvider) SignOut() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.signedIn {
		return
	}
	p.signedIn = false
	p.broadcastLocked(Change{Identity: p.identity, SignedIn: false})
}

// SignIn switches to id and notifies subscribers.
func (p *StaticProvider) SignIn(id Identity) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.identity = id
	p.signedIn = true
	p.broadcastLocked(Change{Identity: id, SignedIn: true})
}

func (p *StaticProvider) broadcastLocked(change Change) {
	for ch := range p.subscribers {
		select {
		case ch <- change:
		default:
			// Drop the oldest pending change for slow subscribers.
			select {
			case <-ch:
			default:
			}
			ch <- change
		}
	}
}
