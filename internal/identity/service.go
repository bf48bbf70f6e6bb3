package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/fintrack/fintrack/internal/async"
	"github.com/fintrack/fintrack/internal/countries"
	"github.com/fintrack/fintrack/internal/kvstore"
	"github.com/fintrack/fintrack/internal/logging"
)

// bcrypt ignores input past this length.
const maxSecretBytes = 72

// Options tunes the simulated latency and hashing of a Service.
type Options struct {
	AuthDelay    time.Duration
	ProfileDelay time.Duration
	RestoreDelay time.Duration
	HashCost     int
	Logger       *slog.Logger
	Now          func() time.Time
}

// Service manages the identity catalog and the sessions bound to it.
type Service struct {
	repo  Repository
	store *kvstore.Store
	opts  Options
}

// NewService creates an identity service persisting into store.
func NewService(store *kvstore.Store, opts Options) *Service {
	if opts.HashCost == 0 {
		opts.HashCost = bcrypt.DefaultCost
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{repo: NewRepository(store), store: store, opts: opts}
}

// NewSession returns a signed-out session persisted in slot.
func (s *Service) NewSession(slot string) *Session {
	return &Session{slot: slot, store: s.store}
}

// OpenSession restores the session persisted in slot. The task resolves after
// the restore delay; an empty slot yields a signed-out session.
func (s *Service) OpenSession(ctx context.Context, slot string) *async.Task[*Session] {
	ctx = context.WithoutCancel(ctx)
	return async.Go(s.opts.RestoreDelay, func() (*Session, error) {
		saved, err := kvstore.Read[*Identity](ctx, s.store, slot, nil)
		if err != nil {
			return nil, err
		}
		sess := &Session{slot: slot, store: s.store, current: saved}
		if saved != nil {
			s.opts.Logger.Info("session restored", slog.String("slot", slot), slog.String("user_id", saved.ID))
		}
		return sess, nil
	})
}

// Register creates an identity, stores its hashed secret and signs sess in.
func (s *Service) Register(ctx context.Context, sess *Session, profile Profile, secret string) *async.Task[Identity] {
	ctx = context.WithoutCancel(ctx)
	return async.Go(s.opts.AuthDelay, func() (Identity, error) {
		if err := validateProfile(profile.Name, profile.Email); err != nil {
			return Identity{}, err
		}
		if secret == "" {
			return Identity{}, fmt.Errorf("%w: password is required", ErrInvalidProfile)
		}
		if len(secret) > maxSecretBytes {
			return Identity{}, fmt.Errorf("%w: password longer than %d bytes", ErrInvalidProfile, maxSecretBytes)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.opts.HashCost)
		if err != nil {
			return Identity{}, fmt.Errorf("hash secret: %w", err)
		}

		id := Identity{
			ID:          uuid.NewString(),
			Name:        strings.TrimSpace(profile.Name),
			Email:       strings.TrimSpace(profile.Email),
			Country:     strings.ToUpper(strings.TrimSpace(profile.Country)),
			CountryCode: profile.CountryCode,
			Phone:       profile.Phone,
			CreatedAt:   s.opts.Now().UTC(),
		}
		if id.CountryCode == "" {
			if c, ok := countries.ByCode(id.Country); ok {
				id.CountryCode = c.PhoneCode
			}
		}

		if err := s.repo.Create(ctx, Record{Identity: id, Secret: string(hash)}); err != nil {
			return Identity{}, err
		}
		if err := sess.set(ctx, &id); err != nil {
			return Identity{}, err
		}

		s.opts.Logger.Info("identity registered", slog.String("user_id", id.ID), slog.String("country", id.Country))
		return id, nil
	})
}

// Login signs sess in when email (case-insensitive) and secret match a catalog entry.
func (s *Service) Login(ctx context.Context, sess *Session, email, secret string) *async.Task[Identity] {
	ctx = context.WithoutCancel(ctx)
	return async.Go(s.opts.AuthDelay, func() (Identity, error) {
		rec, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return Identity{}, ErrInvalidCredentials
			}
			return Identity{}, err
		}
		if err := bcrypt.CompareHashAndPassword([]byte(rec.Secret), []byte(secret)); err != nil {
			return Identity{}, ErrInvalidCredentials
		}
		if err := sess.set(ctx, &rec.Identity); err != nil {
			return Identity{}, err
		}

		s.opts.Logger.Info("identity logged in", slog.String("user_id", rec.Identity.ID))
		return rec.Identity, nil
	})
}

// UpdateProfile replaces the catalog and session copies of the identity,
// keeping the stored secret.
func (s *Service) UpdateProfile(ctx context.Context, sess *Session, updated Identity) *async.Task[Identity] {
	ctx = context.WithoutCancel(ctx)
	return async.Go(s.opts.ProfileDelay, func() (Identity, error) {
		updated.Name = strings.TrimSpace(updated.Name)
		updated.Email = strings.TrimSpace(updated.Email)
		updated.Country = strings.ToUpper(strings.TrimSpace(updated.Country))
		if err := validateProfile(updated.Name, updated.Email); err != nil {
			return Identity{}, err
		}
		existing, err := s.repo.FindByID(ctx, updated.ID)
		if err != nil {
			return Identity{}, err
		}
		if updated.CreatedAt.IsZero() {
			updated.CreatedAt = existing.Identity.CreatedAt
		}
		if err := s.repo.Update(ctx, updated); err != nil {
			return Identity{}, err
		}
		if err := sess.set(ctx, &updated); err != nil {
			return Identity{}, err
		}

		s.opts.Logger.Info("profile updated", slog.String("user_id", updated.ID))
		return updated, nil
	})
}

// Logout clears sess. It never fails; a persistence error is only logged and
// the in-memory session is cleared regardless.
func (s *Service) Logout(ctx context.Context, sess *Session) {
	prev, ok := sess.Current()
	if err := sess.set(ctx, nil); err != nil {
		s.opts.Logger.Warn("persist logout", slog.String("slot", sess.Slot()), slog.Any("error", err))
		sess.mu.Lock()
		sess.current = nil
		sess.mu.Unlock()
	}
	if ok {
		s.opts.Logger.Info("identity logged out", slog.String("user_id", prev.ID))
	}
}

func validateProfile(name, email string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidProfile)
	}
	if at := strings.Index(email, "@"); at <= 0 || at == len(email)-1 {
		return fmt.Errorf("%w: email %q is malformed", ErrInvalidProfile, email)
	}
	return nil
}
