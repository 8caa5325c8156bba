// Package deviceid provides the client's stable pseudo-random device id.
//
// The id is a random UUID persisted in the local store, so it survives
// restarts but is trivially reset by deleting local state. It approximates
// one-device-one-review; it does not prove identity.
package deviceid

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// MetaKey is where the id lives in the local store.
const MetaKey = "device_id"

// ErrNotReady is returned by Current before the id has been resolved.
var ErrNotReady = errors.New("device id not resolved")

// Source persists the id. *localstore.Store satisfies it.
type Source interface {
	Meta(ctx context.Context, key string) (string, bool, error)
	PutMetaIfAbsent(ctx context.Context, key, value string) (string, error)
}

// Provider resolves the device id once and memoizes it. A failed
// resolution is not memoized; the next Get tries again.
type Provider struct {
	src Source
	gen func() (string, error)

	mu sync.Mutex
	id string
}

// New returns a Provider that generates random UUIDs.
func New(src Source) *Provider {
	return &Provider{src: src, gen: newUUID}
}

func newUUID() (string, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Get returns the device id, loading or creating it on first use.
func (p *Provider) Get(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.id != "" {
		return p.id, nil
	}

	id, ok, err := p.src.Meta(ctx, MetaKey)
	if err != nil {
		return "", fmt.Errorf("load device id: %w", err)
	}
	if !ok || id == "" {
		fresh, err := p.gen()
		if err != nil {
			return "", fmt.Errorf("generate device id: %w", err)
		}
		// Another process may have stored one first; keep theirs.
		id, err = p.src.PutMetaIfAbsent(ctx, MetaKey, fresh)
		if err != nil {
			return "", fmt.Errorf("store device id: %w", err)
		}
	}
	p.id = id
	return id, nil
}

// Current returns the id if Get has succeeded, without blocking on I/O.
func (p *Provider) Current() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.id == "" {
		return "", ErrNotReady
	}
	return p.id, nil
}

// Resolved reports whether Get has succeeded.
func (p *Provider) Resolved() (string, bool) {
	id, err := p.Current()
	return id, err == nil
}
