package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"flashdeck-service/internal/domain"
)

func TestCredentialMintsVerifiableToken(t *testing.T) {
	alice := Identity{UserID: "u1", DisplayName: "Alice"}
	provider := NewStaticProvider(alice, "test-secret")

	token, err := provider.Credential(context.Background(), alice)
	if err != nil {
		t.Fatalf("credential: %v", err)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	sub, err := parsed.Claims.GetSubject()
	if err != nil || sub != "u1" {
		t.Fatalf("expected sub u1, got %q err=%v", sub, err)
	}
}

func TestCredentialRequiresSignIn(t *testing.T) {
	alice := Identity{UserID: "u1", DisplayName: "Alice"}
	provider := NewStaticProvider(alice, "test-secret")
	provider.SignOut()

	if _, err := provider.Credential(context.Background(), alice); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
	if _, ok := provider.Current(); ok {
		t.Fatalf("expected no current identity after sign-out")
	}
}

func TestSubscribeReceivesChanges(t *testing.T) {
	alice := Identity{UserID: "u1", DisplayName: "Alice"}
	provider := NewStaticProvider(alice, "test-secret")

	ch, cancel := provider.Subscribe()
	defer cancel()

	provider.SignOut()
	change := <-ch
	if change.SignedIn {
		t.Fatalf("expected sign-out change, got %+v", change)
	}

	bob := Identity{UserID: "u2", DisplayName: "Bob"}
	provider.SignIn(bob)
	change = <-ch
	if !change.SignedIn || change.Identity.UserID != "u2" {
		t.Fatalf("expected Bob sign-in change, got %+v", change)
	}
}
