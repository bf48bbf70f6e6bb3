package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fintrack/fintrack/internal/identity"
	"github.com/fintrack/fintrack/internal/logging"
)

// ErrSessionEnded is returned for a well-formed token whose session was logged out.
var ErrSessionEnded = errors.New("session ended")

// Service binds identity sessions to bearer tokens.
type Service struct {
	ids      *identity.Service
	registry *Registry
	tokens   *Tokens
	logger   *slog.Logger
}

// NewService builds the auth service.
func NewService(ids *identity.Service, tokens *Tokens, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{ids: ids, registry: NewRegistry(ids), tokens: tokens, logger: logger}
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Register creates an identity in a new session and returns a token for it.
func (s *Service) Register(ctx context.Context, profile identity.Profile, secret string) (identity.Identity, TokenResponse, error) {
	sid, sess := s.registry.Open()
	id, err := s.ids.Register(ctx, sess, profile, secret).Await(ctx)
	if err != nil {
		s.registry.Forget(sid)
		return identity.Identity{}, TokenResponse{}, err
	}
	tok, err := s.issue(id.ID, sid)
	return id, tok, err
}

// Login signs in a new session and returns a token for it.
func (s *Service) Login(ctx context.Context, email, secret string) (identity.Identity, TokenResponse, error) {
	sid, sess := s.registry.Open()
	id, err := s.ids.Login(ctx, sess, email, secret).Await(ctx)
	if err != nil {
		s.registry.Forget(sid)
		return identity.Identity{}, TokenResponse{}, err
	}
	tok, err := s.issue(id.ID, sid)
	return id, tok, err
}

// Authenticate resolves a bearer token to its live session.
func (s *Service) Authenticate(ctx context.Context, raw string) (string, *identity.Session, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return "", nil, err
	}
	sess, err := s.registry.Lookup(ctx, claims.SessionID)
	if err != nil {
		return "", nil, fmt.Errorf("restore session: %w", err)
	}
	current, ok := sess.Current()
	if !ok || current.ID != claims.Subject {
		return "", nil, ErrSessionEnded
	}
	return claims.SessionID, sess, nil
}

// Logout signs the session out and forgets it.
func (s *Service) Logout(ctx context.Context, sid string, sess *identity.Session) {
	s.ids.Logout(ctx, sess)
	s.registry.Forget(sid)
}

// UpdateProfile applies profile changes through the caller's session.
func (s *Service) UpdateProfile(ctx context.Context, sess *identity.Session, updated identity.Identity) (identity.Identity, error) {
	return s.ids.UpdateProfile(ctx, sess, updated).Await(ctx)
}

func (s *Service) issue(sub, sid string) (TokenResponse, error) {
	signed, exp, err := s.tokens.Issue(sub, sid)
	if err != nil {
		return TokenResponse{}, err
	}
	s.logger.Info("session opened", slog.String("user_id", sub), slog.String("session_id", sid))
	return TokenResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(time.Until(exp).Seconds()),
	}, nil
}
