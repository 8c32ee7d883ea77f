package kvstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Peer is a remote node's replica, reachable to push one delta at a time.
// RegisterPeer(s) lets a Store gossip its writes without knowing whether
// its peers are in-process (tests) or remote (HTTPPeer).
type Peer[K comparable, V any] interface {
	Push(ctx context.Context, d Delta[K, V]) error
}

// Delta is one replicated write or tombstone, as exchanged between nodes.
type Delta[K comparable, V any] struct {
	Key       K    `json:"key"`
	Value     V    `json:"value"`
	Tag       Tag  `json:"tag"`
	Tombstone bool `json:"tombstone"`
}

// RegisterPeer adds peer to the set this store gossips writes to.
func (s *Store[K, V]) RegisterPeer(peer Peer[K, V]) {
	s.peersMu.Lock()
	defer s.peersMu.Unlock()
	s.peers = append(s.peers, peer)
}

func (s *Store[K, V]) broadcast(k K, v V, tag Tag) {
	s.gossip(Delta[K, V]{Key: k, Value: v, Tag: tag})
}

func (s *Store[K, V]) broadcastRemove(k K) {
	s.gossip(Delta[K, V]{Key: k, Tag: s.nextTagLocked(), Tombstone: true})
}

// nextTagLocked mints a tombstone tag under the write lock;
// Remove/RemoveBySelectKey already released it by the time this is
// called, so it takes the lock again here.
func (s *Store[K, V]) nextTagLocked() Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextTag()
}

// gossip fans the delta out to every registered peer, concurrently,
// best-effort: a failed push is logged, the store offers no durable
// retry.
func (s *Store[K, V]) gossip(d Delta[K, V]) {
	s.peersMu.RLock()
	peers := make([]Peer[K, V], len(s.peers))
	copy(peers, s.peers)
	s.peersMu.RUnlock()

	for _, p := range peers {
		go func(p Peer[K, V]) {
			ctx := context.Background()
			if err := p.Push(ctx, d); err != nil {
				s.logger.Error(err, "kvstore: gossip push failed")
			}
		}(p)
	}
}

// HTTPPeer pushes deltas to a remote node's gossip endpoint over HTTP,
// JSON-encoding K and V. The receiving side is mux-routed, see Server
// below.
type HTTPPeer[K comparable, V any] struct {
	BaseURL string
	Client  *http.Client
}

func (p *HTTPPeer[K, V]) Push(ctx context.Context, d Delta[K, V]) error {
	body, err := json.Marshal(d)
	if err != nil {
		return err
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/gossip", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("gossip push: peer returned status %d", resp.StatusCode)
	}
	return nil
}

// Server exposes a store's gossip endpoint over HTTP using gorilla/mux,
// so remote nodes can push deltas via HTTPPeer.
type Server[K comparable, V any] struct {
	store *Store[K, V]
}

// NewServer returns a Server that applies incoming deltas to store.
func NewServer[K comparable, V any](store *Store[K, V]) *Server[K, V] {
	return &Server[K, V]{store: store}
}

// Router builds the mux.Router exposing POST /gossip.
func (s *Server[K, V]) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/gossip", s.handleGossip).Methods(http.MethodPost)
	return r
}

func (s *Server[K, V]) handleGossip(w http.ResponseWriter, r *http.Request) {
	var d Delta[K, V]
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.store.Merge(d.Key, d.Value, d.Tag, d.Tombstone)
	w.WriteHeader(http.StatusNoContent)
}
