package repo

import (
	"context"
	"errors"
	"pollhub/backend/app/models"
	"sync"
)

var (
	// ErrNotFound: no record for (domain, client_id).
	ErrNotFound = errors.New("client not found")
	// ErrConflict: optimistic write retries exhausted.
	ErrConflict = errors.New("client update conflict")
)

// ClientRepository holds one record per (domain, client_id).
// Update is the only read-modify-write primitive and must be atomic per record;
// if fn returns an error nothing is written.
type ClientRepository interface {
	Replace(ctx context.Context, c *models.Client) error
	Update(ctx context.Context, domain, clientID string, fn func(*models.Client) error) error
	Get(ctx context.Context, domain, clientID string) (*models.Client, error)
	ListByDomain(ctx context.Context, domain string) ([]models.Client, error)
	Migrate(ctx context.Context) error
}

type clientKey struct{ domain, clientID string }

// keyedMutex hands out one mutex per key and drops it once nobody holds it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[clientKey]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex { return &keyedMutex{locks: make(map[clientKey]*refMutex)} }

func (k *keyedMutex) Lock(key clientKey) func() {
	k.mu.Lock()
	m, ok := k.locks[key]
	if !ok {
		m = &refMutex{}
		k.locks[key] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
