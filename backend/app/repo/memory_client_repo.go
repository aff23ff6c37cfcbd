package repo

import (
	"context"
	"pollhub/backend/app/models"
	"sort"
	"sync"
)

// MemoryClientRepository keeps records in a process-local map with per-key locking.
type MemoryClientRepository struct {
	mu      sync.RWMutex
	clients map[clientKey]*models.Client
	keys    *keyedMutex
	nextID  uint
}

func NewMemoryClientRepository() *MemoryClientRepository {
	return &MemoryClientRepository{clients: make(map[clientKey]*models.Client), keys: newKeyedMutex()}
}

func (r *MemoryClientRepository) Migrate(ctx context.Context) error { return nil }

func (r *MemoryClientRepository) Replace(ctx context.Context, c *models.Client) error {
	key := clientKey{c.Domain, c.ClientID}
	unlock := r.keys.Lock(key)
	defer unlock()

	cp := c.Clone()
	r.mu.Lock()
	if old, ok := r.clients[key]; ok {
		cp.ID = old.ID
		cp.CreatedAt = old.CreatedAt
	} else {
		r.nextID++
		cp.ID = r.nextID
		cp.CreatedAt = cp.LastSeen
	}
	cp.UpdatedAt = cp.LastSeen
	r.clients[key] = cp
	r.mu.Unlock()
	return nil
}

func (r *MemoryClientRepository) Update(ctx context.Context, domain, clientID string, fn func(*models.Client) error) error {
	key := clientKey{domain, clientID}
	unlock := r.keys.Lock(key)
	defer unlock()

	r.mu.RLock()
	cur, ok := r.clients[key]
	r.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	// fn works on a copy; on error the copy is dropped and the record is untouched
	work := cur.Clone()
	if err := fn(work); err != nil {
		return err
	}
	r.mu.Lock()
	r.clients[key] = work
	r.mu.Unlock()
	return nil
}

func (r *MemoryClientRepository) Get(ctx context.Context, domain, clientID string) (*models.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[clientKey{domain, clientID}]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (r *MemoryClientRepository) ListByDomain(ctx context.Context, domain string) ([]models.Client, error) {
	r.mu.RLock()
	out := make([]models.Client, 0)
	for k, c := range r.clients {
		if k.domain == domain {
			out = append(out, *c.Clone())
		}
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ClientID < out[j].ClientID })
	return out, nil
}
