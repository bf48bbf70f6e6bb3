package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fintrack/fintrack/internal/identity"
	"github.com/fintrack/fintrack/internal/kvstore"
)

func newTestService(store *kvstore.Store) *Service {
	ids := identity.NewService(store, identity.Options{HashCost: bcrypt.MinCost})
	return NewService(ids, NewTokens("secret", time.Hour), nil)
}

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, exp, err := tokens.Issue("user-1", "sid-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatalf("expiry in the past: %s", exp)
	}

	claims, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" || claims.SessionID != "sid-1" {
		t.Fatalf("unexpected claims %+v", claims)
	}
}

func TestTokensRejectTampering(t *testing.T) {
	tokens := NewTokens("secret", time.Hour)
	raw, _, err := tokens.Issue("user-1", "sid-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := NewTokens("other", time.Hour).Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for wrong secret, got %v", err)
	}
	if _, err := tokens.Parse(raw[:strings.LastIndex(raw, ".")] + ".AAAA"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for bad signature, got %v", err)
	}

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{SessionID: "sid-1"}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := tokens.Parse(none); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected alg none to be rejected, got %v", err)
	}
}

func TestTokensExpire(t *testing.T) {
	tokens := NewTokens("secret", time.Minute)
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return issued }
	raw, _, err := tokens.Issue("user-1", "sid-1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tokens.now = func() time.Time { return issued.Add(2 * time.Minute) }
	if _, err := tokens.Parse(raw); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token to be rejected, got %v", err)
	}
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	svc := newTestService(kvstore.NewMemory())
	ctx := context.Background()

	id, tok, err := svc.Register(ctx, identity.Profile{Name: "Ada", Email: "ada@example.com"}, "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if tok.AccessToken == "" || tok.TokenType != "Bearer" {
		t.Fatalf("unexpected token %+v", tok)
	}

	sid, sess, err := svc.Authenticate(ctx, tok.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if current, _ := sess.Current(); current.ID != id.ID || sid == "" {
		t.Fatalf("unexpected session %+v sid=%q", current, sid)
	}

	_, second, err := svc.Login(ctx, "ADA@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	secondSID, _, err := svc.Authenticate(ctx, second.AccessToken)
	if err != nil {
		t.Fatalf("authenticate second: %v", err)
	}
	if secondSID == sid {
		t.Fatal("each login must open its own session")
	}

	svc.Logout(ctx, sid, sess)
	if _, _, err := svc.Authenticate(ctx, tok.AccessToken); !errors.Is(err, ErrSessionEnded) {
		t.Fatalf("expected ErrSessionEnded after logout, got %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, second.AccessToken); err != nil {
		t.Fatalf("other sessions must survive logout: %v", err)
	}
}

func TestFailedLoginDoesNotLeakSessions(t *testing.T) {
	svc := newTestService(kvstore.NewMemory())
	ctx := context.Background()
	if _, _, err := svc.Register(ctx, identity.Profile{Name: "Ada", Email: "ada@example.com"}, "pw"); err != nil {
		t.Fatalf("register: %v", err)
	}
	before := svc.registry.Len()

	if _, _, err := svc.Login(ctx, "ada@example.com", "wrong"); !errors.Is(err, identity.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Register(ctx, identity.Profile{Name: "Ada", Email: "ada@example.com"}, "pw"); !errors.Is(err, identity.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
	if svc.registry.Len() != before {
		t.Fatalf("failed attempts left sessions behind: %d -> %d", before, svc.registry.Len())
	}
}

func TestRegistryRestoresFromStore(t *testing.T) {
	store := kvstore.NewMemory()
	svc := newTestService(store)
	ctx := context.Background()
	id, tok, err := svc.Register(ctx, identity.Profile{Name: "Ada", Email: "ada@example.com"}, "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	restarted := newTestService(store)
	_, sess, err := restarted.Authenticate(ctx, tok.AccessToken)
	if err != nil {
		t.Fatalf("authenticate after restart: %v", err)
	}
	if current, _ := sess.Current(); current.ID != id.ID {
		t.Fatalf("expected restored identity %s, got %+v", id.ID, current)
	}
	if !strings.HasPrefix(sess.Slot(), identity.DefaultSessionSlot+".") {
		t.Fatalf("unexpected slot %s", sess.Slot())
	}
}
