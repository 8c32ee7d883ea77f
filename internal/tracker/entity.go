// Package tracker runs one supervised polling loop per Flink cluster per
// observed resource kind, publishing snapshots into the replicated KV
// store.
//
// One long-lived goroutine per entity owns a bounded inbox channel and
// all its state; supervision is the restart loop in run, which recreates
// the loop (with state reset to Idle) if the previous run panics. One bad
// tick logs and retries, it never wedges the whole process.
package tracker

import (
	"context"
	"time"

	"github.com/go-logr/logr"
)

// state is the entity's position in the Idle/Running state machine.
type state int

const (
	stateIdle state = iota
	stateRunning
)

type msgKind int

const (
	msgStart msgKind = iota
	msgStop
	msgRefresh
	msgGet
)

// Reply answers a Get… message: Ok is false when the entity is Idle or
// has not yet completed a poll.
type Reply[S any] struct {
	Snapshot S
	Ok       bool
}

type msg[S any] struct {
	kind   msgKind
	snap   S
	ts     int64
	result chan<- Reply[S]
}

// Msg is the routable command envelope a sharding.Proxy delivers to an
// Entity. Build one with StartMsg/StopMsg/GetMsg.
type Msg[S any] struct {
	kind   msgKind
	result chan<- Reply[S]
}

// StartMsg builds the Start command.
func StartMsg[S any]() Msg[S] { return Msg[S]{kind: msgStart} }

// StopMsg builds the Stop command.
func StopMsg[S any]() Msg[S] { return Msg[S]{kind: msgStop} }

// GetMsg builds a Get… command; the reply arrives on result.
func GetMsg[S any](result chan<- Reply[S]) Msg[S] { return Msg[S]{kind: msgGet, result: result} }

// Poller fetches one fresh snapshot for endpoint. Returning an error
// leaves the entity's cached state untouched; the caller logs and
// retries on the next tick.
type Poller[S any] func(ctx context.Context, endpoint RestSvcEndpoint) (S, error)

// EndpointResolver resolves the current Flink REST endpoint for the
// entity's cluster; in the wired process it delegates to the Observer
// Facade's endpoint resolution.
type EndpointResolver func(ctx context.Context) (RestSvcEndpoint, error)

// Publisher persists a freshly refreshed snapshot, e.g. into the
// Replicated KV Store keyed by Fcid+kind.
type Publisher[S any] func(snap S, ts int64)

// Entity is one tracker: a single-threaded consumer of its inbox,
// generic over the snapshot type S it polls and caches.
type Entity[S any] struct {
	inbox chan msg[S]
	done  chan struct{}

	pollInterval time.Duration
	poll         Poller[S]
	resolve      EndpointResolver
	publish      Publisher[S]
	log          logr.Logger

	nowMillis func() int64
}

// Options configures a new Entity.
type Options[S any] struct {
	PollInterval time.Duration
	Poll         Poller[S]
	Resolve      EndpointResolver
	Publish      Publisher[S]
	Log          logr.Logger
	// NowMillis overrides the clock used to timestamp snapshots; tests
	// supply a deterministic one. Defaults to time.Now().UnixMilli.
	NowMillis func() int64
}

// New starts an Entity in the Idle state and returns it. The returned
// *Entity[S] satisfies sharding.Entity[Msg[S]] through Send and Done
// below.
func New[S any](opts Options[S]) *Entity[S] {
	now := opts.NowMillis
	if now == nil {
		now = func() int64 { return time.Now().UnixMilli() }
	}
	e := &Entity[S]{
		inbox:        make(chan msg[S], 32),
		done:         make(chan struct{}),
		pollInterval: opts.PollInterval,
		poll:         opts.Poll,
		resolve:      opts.Resolve,
		publish:      opts.Publish,
		log:          opts.Log,
		nowMillis:    now,
	}
	go e.run()
	return e
}

// sendRaw delivers m to the entity's inbox, honoring ctx cancellation.
// The inbox is FIFO for messages sent from one sender.
func (e *Entity[S]) sendRaw(ctx context.Context, m msg[S]) error {
	select {
	case e.inbox <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return nil
	}
}

// Start transitions Idle to Running, spawning the polling task. No-op if
// already Running.
func (e *Entity[S]) Start(ctx context.Context) error {
	return e.sendRaw(ctx, msg[S]{kind: msgStart})
}

// Stop cancels any running polling task and terminates the entity,
// releasing its shard slot.
func (e *Entity[S]) Stop(ctx context.Context) error {
	return e.sendRaw(ctx, msg[S]{kind: msgStop})
}

// Get returns the entity's cached snapshot, or Ok=false if Idle or not
// yet refreshed.
func (e *Entity[S]) Get(ctx context.Context) (Reply[S], error) {
	result := make(chan Reply[S], 1)
	if err := e.sendRaw(ctx, msg[S]{kind: msgGet, result: result}); err != nil {
		return Reply[S]{}, err
	}
	select {
	case r := <-result:
		return r, nil
	case <-ctx.Done():
		return Reply[S]{}, ctx.Err()
	case <-e.done:
		return Reply[S]{}, nil
	}
}

// Done closes once the entity has fully terminated.
func (e *Entity[S]) Done() <-chan struct{} { return e.done }

// Send implements sharding.Entity[Msg[S]], letting a Proxy route
// StartMsg/StopMsg/GetMsg commands to this entity without depending on
// the unexported msg type.
func (e *Entity[S]) Send(ctx context.Context, m Msg[S]) error {
	return e.sendRaw(ctx, msg[S]{kind: m.kind, result: m.result})
}

// refresh is how the polling task reports a fresh snapshot to the owning
// entity. It never blocks past ctx's cancellation, so a Stop racing a
// just-finished poll simply drops the self-send.
func (e *Entity[S]) refresh(ctx context.Context, snap S, ts int64) {
	select {
	case e.inbox <- msg[S]{kind: msgRefresh, snap: snap, ts: ts}:
	case <-ctx.Done():
	case <-e.done:
	}
}

// run is the supervised inbox loop. A panic inside one message's
// handling (e.g. a user-supplied Publish callback) resets the entity to
// Idle with an empty cache rather than killing it outright.
func (e *Entity[S]) run() {
	defer close(e.done)
	for {
		if e.runOnce() {
			return
		}
		if e.log.GetSink() != nil {
			e.log.Info("tracker: restarting entity loop after panic")
		}
	}
}

// runOnce processes inbox messages until Stop; it returns true once the
// entity has cleanly terminated, false if it returned early because a
// panic was recovered (caller restarts with fresh state).
func (e *Entity[S]) runOnce() (stopped bool) {
	st := stateIdle
	var cancelPoll context.CancelFunc
	var cached S
	var haveCached bool
	var lastTs int64

	defer func() {
		if r := recover(); r != nil {
			if cancelPoll != nil {
				cancelPoll()
			}
			if e.log.GetSink() != nil {
				e.log.Error(nil, "tracker: recovered from panic in entity loop", "panic", r)
			}
			stopped = false
		}
	}()

	for m := range e.inbox {
		switch m.kind {
		case msgStart:
			if st == stateIdle {
				st = stateRunning
				pctx, cancel := context.WithCancel(context.Background())
				cancelPoll = cancel
				go e.pollLoop(pctx)
			}

		case msgStop:
			if cancelPoll != nil {
				cancelPoll()
			}
			return true

		case msgRefresh:
			if st != stateRunning {
				continue
			}
			// Keep ts non-decreasing: a refresh racing an in-flight
			// older poll must not roll the cache back.
			if haveCached && m.ts < lastTs {
				continue
			}
			cached = m.snap
			haveCached = true
			lastTs = m.ts
			if e.publish != nil {
				e.publish(cached, m.ts)
			}

		case msgGet:
			if m.result == nil {
				continue
			}
			m.result <- Reply[S]{Snapshot: cached, Ok: st == stateRunning && haveCached}
		}
	}
	return true
}

// pollLoop is the polling task: resolve endpoint, call Flink REST,
// convert, self-send Refresh, repeat every pollInterval.
// Cancel-safe: ctx cancellation at any suspension point simply ends the
// loop without a final self-send.
func (e *Entity[S]) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	e.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.tick(ctx)
		}
	}
}

// tick recovers from a panicking Poller/EndpointResolver the same way a
// supervisor would restart a crashed actor: log it, skip this tick,
// leave cached state untouched, and let the next tick try again.
func (e *Entity[S]) tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil && e.log.GetSink() != nil {
			e.log.Error(nil, "tracker: recovered from panic in poll tick", "panic", r)
		}
	}()

	endpoint, err := e.resolve(ctx)
	if err != nil {
		if e.log.GetSink() != nil {
			e.log.Error(err, "tracker: resolve endpoint failed")
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	snap, err := e.poll(ctx, endpoint)
	if err != nil {
		if e.log.GetSink() != nil {
			e.log.Error(err, "tracker: poll failed")
		}
		return
	}
	if ctx.Err() != nil {
		return
	}
	e.refresh(ctx, snap, e.nowMillis())
}
