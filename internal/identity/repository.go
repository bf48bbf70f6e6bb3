package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/fintrack/fintrack/internal/kvstore"
)

// CatalogSlot is the key-value slot holding every registered identity.
const CatalogSlot = "fintrack.identities"

// Repository persists the identity catalog.
type Repository interface {
	Create(ctx context.Context, rec Record) error
	FindByEmail(ctx context.Context, email string) (Record, error)
	FindByID(ctx context.Context, id string) (Record, error)
	Update(ctx context.Context, id Identity) error
}

// kvRepository keeps the whole catalog in one slot as id -> Record.
// The mutex serialises read-modify-write cycles so email uniqueness holds.
type kvRepository struct {
	mu    sync.Mutex
	store *kvstore.Store
}

// NewRepository builds a catalog repository over store.
func NewRepository(store *kvstore.Store) Repository {
	return &kvRepository{store: store}
}

func (r *kvRepository) load(ctx context.Context) (map[string]Record, error) {
	catalog, err := kvstore.Read(ctx, r.store, CatalogSlot, map[string]Record{})
	if err != nil {
		return nil, err
	}
	if catalog == nil {
		catalog = map[string]Record{}
	}
	return catalog, nil
}

func (r *kvRepository) Create(ctx context.Context, rec Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	catalog, err := r.load(ctx)
	if err != nil {
		return err
	}
	if _, taken := emailOwner(catalog, rec.Identity.Email); taken {
		return ErrDuplicateEmail
	}
	catalog[rec.Identity.ID] = rec
	return kvstore.Write(ctx, r.store, CatalogSlot, catalog)
}

func (r *kvRepository) FindByEmail(ctx context.Context, email string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	catalog, err := r.load(ctx)
	if err != nil {
		return Record{}, err
	}
	id, ok := emailOwner(catalog, email)
	if !ok {
		return Record{}, ErrNotFound
	}
	return catalog[id], nil
}

func (r *kvRepository) FindByID(ctx context.Context, id string) (Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	catalog, err := r.load(ctx)
	if err != nil {
		return Record{}, err
	}
	rec, ok := catalog[id]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// Update replaces the stored identity and keeps its secret.
func (r *kvRepository) Update(ctx context.Context, updated Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	catalog, err := r.load(ctx)
	if err != nil {
		return err
	}
	rec, ok := catalog[updated.ID]
	if !ok {
		return ErrNotFound
	}
	if owner, taken := emailOwner(catalog, updated.Email); taken && owner != updated.ID {
		return ErrDuplicateEmail
	}
	rec.Identity = updated
	catalog[updated.ID] = rec
	return kvstore.Write(ctx, r.store, CatalogSlot, catalog)
}

func emailOwner(catalog map[string]Record, email string) (string, bool) {
	email = strings.TrimSpace(email)
	for id, rec := range catalog {
		if strings.EqualFold(strings.TrimSpace(rec.Identity.Email), email) {
			return id, true
		}
	}
	return "", false
}
