// Package sharding routes messages keyed by an entity identifier to a
// locally hosted entity, spawning entities on demand.
//
// Proxy keeps a local registry of live entities keyed by marshaled
// entity string (a goroutine + inbox channel per entity) and spawns every
// routed key on this node; Ring (ring.go) maps a key to an owning node by
// consistent hashing, but Proxy does not consult it, so no message is
// forwarded to another node.
package sharding

import (
	"context"
	"fmt"
	"sync"
)

// Entity is a shard-hosted entity: a message sink with a Done channel
// that closes once it has fully terminated. Termination releases the
// entity's shard slot.
type Entity[M any] interface {
	Send(ctx context.Context, msg M) error
	Done() <-chan struct{}
}

// Factory spawns a new Entity for the unmarshaled key. Called at most
// once per key while that key has no live entity.
type Factory[K any, M any] func(key K) Entity[M]

// Unmarshaler turns an opaque routing string back into the entity key
// type, e.g. fcid.Unmarshal.
type Unmarshaler[K any] func(marshaled string) (K, error)

// Proxy routes messages to the entity owning a given marshaled key,
// spawning one via Factory on first use. There is no passivation:
// entities stay registered until their own Done channel closes, not on
// idle timeout.
type Proxy[K any, M any] struct {
	mu       sync.Mutex
	entities map[string]Entity[M]

	factory   Factory[K, M]
	unmarshal Unmarshaler[K]
}

// New returns a Proxy that spawns entities via factory, using unmarshal
// to recover the typed key from a routing string.
func New[K any, M any](factory Factory[K, M], unmarshal Unmarshaler[K]) *Proxy[K, M] {
	return &Proxy[K, M]{
		entities:  make(map[string]Entity[M]),
		factory:   factory,
		unmarshal: unmarshal,
	}
}

// Route sends msg to the entity owning marshaledKey, spawning it first if
// none is currently live.
func (p *Proxy[K, M]) Route(ctx context.Context, marshaledKey string, msg M) error {
	entity, err := p.entityFor(marshaledKey)
	if err != nil {
		return err
	}
	return entity.Send(ctx, msg)
}

// entityFor returns the live entity for marshaledKey, spawning one via
// Factory if none exists yet.
func (p *Proxy[K, M]) entityFor(marshaledKey string) (Entity[M], error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entities[marshaledKey]; ok {
		return e, nil
	}

	key, err := p.unmarshal(marshaledKey)
	if err != nil {
		return nil, fmt.Errorf("sharding: unmarshal key %q: %w", marshaledKey, err)
	}
	entity := p.factory(key)
	p.entities[marshaledKey] = entity

	go func() {
		<-entity.Done()
		p.mu.Lock()
		// Only remove if this is still the same (not-yet-replaced)
		// entity for the key: a new Start after a Stop may have already
		// installed a fresh one.
		if current, ok := p.entities[marshaledKey]; ok && current == entity {
			delete(p.entities, marshaledKey)
		}
		p.mu.Unlock()
	}()

	return entity, nil
}

// Live reports whether marshaledKey currently has a live (spawned, not
// yet terminated) entity, without spawning one.
func (p *Proxy[K, M]) Live(marshaledKey string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.entities[marshaledKey]
	return ok
}

// LiveKeys returns the marshaled keys of every currently live entity.
func (p *Proxy[K, M]) LiveKeys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.entities))
	for k := range p.entities {
		out = append(out, k)
	}
	return out
}
