package kvstore

import (
	"context"
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestPutGetContains(t *testing.T) {
	s := New[string, int]("node-a", nil)
	_, ok := s.Get("k", Local)
	assert.Assert(t, !ok)
	assert.Assert(t, !s.Contains("k"))

	s.Put("k", 42)
	v, ok := s.Get("k", Local)
	assert.Assert(t, ok)
	assert.Equal(t, v, 42)
	assert.Assert(t, s.Contains("k"))
}

func TestRemoveBySelectKey(t *testing.T) {
	s := New[string, int]("node-a", nil)
	s.Put("fcid:a:1", 1)
	s.Put("fcid:a:2", 2)
	s.Put("fcid:b:1", 3)

	s.RemoveBySelectKey(func(k string) bool {
		return len(k) >= 6 && k[:6] == "fcid:a"
	})

	all := s.ListAll()
	assert.Equal(t, len(all), 1)
	_, ok := all["fcid:b:1"]
	assert.Assert(t, ok)
}

func TestUpdateNoopWhenAbsent(t *testing.T) {
	s := New[string, int]("node-a", nil)
	called := false
	s.Update("missing", func(v int) int { called = true; return v + 1 })
	assert.Assert(t, !called)
	assert.Equal(t, s.Size(), 0)
}

func TestUpsertInsertsThenApplies(t *testing.T) {
	s := New[string, int]("node-a", nil)
	s.Upsert("k", 10, func(v int) int { return v + 1 })
	v, _ := s.Get("k", Local)
	assert.Equal(t, v, 10)

	s.Upsert("k", 10, func(v int) int { return v + 1 })
	v, _ = s.Get("k", Local)
	assert.Equal(t, v, 11)
}

func TestMergeLWW(t *testing.T) {
	s := New[string, int]("node-a", nil)
	s.Merge("k", 1, Tag{NodeAddr: "node-b", Counter: 5}, false)
	v, ok := s.Get("k", Local)
	assert.Assert(t, ok)
	assert.Equal(t, v, 1)

	// Stale write (lower counter) must not overwrite.
	s.Merge("k", 2, Tag{NodeAddr: "node-b", Counter: 3}, false)
	v, _ = s.Get("k", Local)
	assert.Equal(t, v, 1)

	// Newer write wins.
	s.Merge("k", 3, Tag{NodeAddr: "node-b", Counter: 6}, false)
	v, _ = s.Get("k", Local)
	assert.Equal(t, v, 3)
}

func TestGossipBroadcastsToRegisteredPeers(t *testing.T) {
	src := New[string, int]("node-a", nil)
	dst := New[string, int]("node-b", nil)
	src.RegisterPeer(inProcessPeer[string, int]{dst})

	src.Put("k", 7)
	assert.Assert(t, pollUntil(func() bool {
		v, ok := dst.Get("k", Local)
		return ok && v == 7
	}))
}

type inProcessPeer[K comparable, V any] struct {
	store *Store[K, V]
}

func (p inProcessPeer[K, V]) Push(_ context.Context, d Delta[K, V]) error {
	p.store.Merge(d.Key, d.Value, d.Tag, d.Tombstone)
	return nil
}

func pollUntil(cond func() bool) bool {
	for i := 0; i < 1000; i++ {
		if cond() {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return cond()
}
