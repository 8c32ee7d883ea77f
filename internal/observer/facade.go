// Package observer is the public query surface over the tracker fleet:
// track/untrack a cluster, REST endpoint resolution with a direct-K8s
// fallback, job id listing, and savepoint-trigger watching. Reads go to
// the replicated cache first and fall back to a live Kubernetes or Flink
// REST call on miss.
package observer

import (
	"context"
	"time"

	"github.com/Al-assad/potamoi-experiment/internal/fcid"
	"github.com/Al-assad/potamoi-experiment/internal/flinkrest"
	"github.com/Al-assad/potamoi-experiment/internal/k8sops"
	"github.com/Al-assad/potamoi-experiment/internal/kvstore"
	"github.com/Al-assad/potamoi-experiment/internal/operrors"
	"github.com/Al-assad/potamoi-experiment/internal/sharding"
	"github.com/Al-assad/potamoi-experiment/internal/tracker"
	"github.com/go-logr/logr"
)

// Facade is the Observer Facade. Construct with New.
type Facade struct {
	jm   *sharding.Proxy[fcid.Fcid, tracker.Msg[tracker.JmMetrics]]
	tm   *sharding.Proxy[fcid.Fcid, tracker.Msg[tracker.TmMetricsList]]
	jobs *sharding.Proxy[fcid.Fcid, tracker.Msg[tracker.JobOverviewList]]

	endpointCache *kvstore.Store[string, tracker.RestSvcEndpoint]
	jobsCache     *kvstore.Store[string, tracker.JobOverviewList]
	jmCache       *kvstore.Store[string, tracker.JmMetrics]
	tmCache       *kvstore.Store[string, tracker.TmMetricsList]

	k8s   *k8sops.Ops
	flink *flinkrest.Client
	log   logr.Logger

	sptTriggerPollInterval time.Duration
	askTimeout             time.Duration
}

// Deps bundles the collaborators a Facade needs.
type Deps struct {
	JmProxy   *sharding.Proxy[fcid.Fcid, tracker.Msg[tracker.JmMetrics]]
	TmProxy   *sharding.Proxy[fcid.Fcid, tracker.Msg[tracker.TmMetricsList]]
	JobsProxy *sharding.Proxy[fcid.Fcid, tracker.Msg[tracker.JobOverviewList]]

	EndpointCache *kvstore.Store[string, tracker.RestSvcEndpoint]
	JobsCache     *kvstore.Store[string, tracker.JobOverviewList]
	JmCache       *kvstore.Store[string, tracker.JmMetrics]
	TmCache       *kvstore.Store[string, tracker.TmMetricsList]

	K8s   *k8sops.Ops
	Flink *flinkrest.Client
	Log   logr.Logger

	SptTriggerPollInterval time.Duration
	AskTimeout             time.Duration
}

// New returns a Facade wired to deps, defaulting AskTimeout to 5s and
// SptTriggerPollInterval to 2s when unset.
func New(deps Deps) *Facade {
	if deps.AskTimeout <= 0 {
		deps.AskTimeout = 5 * time.Second
	}
	if deps.SptTriggerPollInterval <= 0 {
		deps.SptTriggerPollInterval = 2 * time.Second
	}
	return &Facade{
		jm:                     deps.JmProxy,
		tm:                     deps.TmProxy,
		jobs:                   deps.JobsProxy,
		endpointCache:          deps.EndpointCache,
		jobsCache:              deps.JobsCache,
		jmCache:                deps.JmCache,
		tmCache:                deps.TmCache,
		k8s:                    deps.K8s,
		flink:                  deps.Flink,
		log:                    deps.Log,
		sptTriggerPollInterval: deps.SptTriggerPollInterval,
		askTimeout:             deps.AskTimeout,
	}
}

// TrackCluster is idempotent: it forwards Start to every tracker entity
// for id, spawning them via the sharding proxies on first use.
func (f *Facade) TrackCluster(ctx context.Context, id fcid.Fcid) error {
	ctx, cancel := context.WithTimeout(ctx, f.askTimeout)
	defer cancel()
	key := id.Marshal()

	if err := f.jm.Route(ctx, key, tracker.StartMsg[tracker.JmMetrics]()); err != nil {
		return wrapAsk(err)
	}
	if err := f.tm.Route(ctx, key, tracker.StartMsg[tracker.TmMetricsList]()); err != nil {
		return wrapAsk(err)
	}
	if err := f.jobs.Route(ctx, key, tracker.StartMsg[tracker.JobOverviewList]()); err != nil {
		return wrapAsk(err)
	}
	return nil
}

// UnTrackCluster is idempotent: it Stops every tracker entity for id and
// purges cache entries keyed by it.
func (f *Facade) UnTrackCluster(ctx context.Context, id fcid.Fcid) error {
	ctx, cancel := context.WithTimeout(ctx, f.askTimeout)
	defer cancel()
	key := id.Marshal()

	if err := f.jm.Route(ctx, key, tracker.StopMsg[tracker.JmMetrics]()); err != nil {
		return wrapAsk(err)
	}
	if err := f.tm.Route(ctx, key, tracker.StopMsg[tracker.TmMetricsList]()); err != nil {
		return wrapAsk(err)
	}
	if err := f.jobs.Route(ctx, key, tracker.StopMsg[tracker.JobOverviewList]()); err != nil {
		return wrapAsk(err)
	}

	f.endpointCache.RemoveBySelectKey(func(k string) bool { return k == key })
	f.jobsCache.RemoveBySelectKey(func(k string) bool { return k == key })
	if f.jmCache != nil {
		f.jmCache.RemoveBySelectKey(func(k string) bool { return k == key })
	}
	if f.tmCache != nil {
		f.tmCache.RemoveBySelectKey(func(k string) bool { return k == key })
	}
	return nil
}

// GetJmMetrics returns the replicated JobManager metrics snapshot for id,
// ok=false when none has been published yet.
func (f *Facade) GetJmMetrics(id fcid.Fcid) (tracker.JmMetrics, bool) {
	if f.jmCache == nil {
		return tracker.JmMetrics{}, false
	}
	return f.jmCache.Get(id.Marshal(), kvstore.Local)
}

// GetTmMetrics returns the replicated TaskManager metrics snapshot for
// id, ok=false when none has been published yet.
func (f *Facade) GetTmMetrics(id fcid.Fcid) (tracker.TmMetricsList, bool) {
	if f.tmCache == nil {
		return tracker.TmMetricsList{}, false
	}
	return f.tmCache.Get(id.Marshal(), kvstore.Local)
}

// RetrieveRestEndpoint resolves id's Flink REST endpoint. Unless
// directly is true, a cache hit is returned without touching Kubernetes.
func (f *Facade) RetrieveRestEndpoint(ctx context.Context, id fcid.Fcid, directly bool) (tracker.RestSvcEndpoint, error) {
	return ResolveRestEndpoint(ctx, id, f.k8s, f.endpointCache, directly)
}

// ResolveRestEndpoint is the endpoint-resolution logic as a standalone
// function: a tracker entity's polling task resolves its own endpoint
// the same way, without routing through the Facade. Both call sites
// share this one implementation so the cache-hit and K8s-fallback logic
// never drifts apart.
func ResolveRestEndpoint(ctx context.Context, id fcid.Fcid, k8s *k8sops.Ops, cache *kvstore.Store[string, tracker.RestSvcEndpoint], directly bool) (tracker.RestSvcEndpoint, error) {
	key := id.Marshal()
	if !directly {
		if ep, ok := cache.Get(key, kvstore.Local); ok {
			return ep, nil
		}
	}

	candidates, err := k8s.ListRestServices(ctx, id.Namespace)
	if err != nil {
		return tracker.RestSvcEndpoint{}, err
	}
	for _, c := range candidates {
		if !c.ComponentOK {
			continue
		}
		ep := tracker.RestSvcEndpoint{
			ClusterIP:   c.ClusterIP,
			ClusterPort: c.RestPort,
			Dns:         c.Name + "." + id.Namespace,
			Ts:          time.Now().UnixMilli(),
		}
		cache.Put(key, ep)
		return ep, nil
	}
	return tracker.RestSvcEndpoint{}, &operrors.EndpointNotFound{Fcid: id}
}

// ListJobIds returns the job ids known for id: the cached jobs snapshot
// if present, else a live REST call.
func (f *Facade) ListJobIds(ctx context.Context, id fcid.Fcid) ([]string, error) {
	key := id.Marshal()
	if snap, ok := f.jobsCache.Get(key, kvstore.Local); ok {
		ids := make([]string, 0, len(snap.Items))
		for _, j := range snap.Items {
			ids = append(ids, j.JobID)
		}
		return ids, nil
	}

	endpoint, err := f.RetrieveRestEndpoint(ctx, id, false)
	if err != nil {
		return nil, err
	}
	return f.flink.JobIds(ctx, endpoint.BaseURL())
}

// WatchSavepointTrigger polls the savepoint trigger for jid until it
// reaches a terminal state (COMPLETED or FAILED) or timeout elapses.
func (f *Facade) WatchSavepointTrigger(ctx context.Context, jid fcid.Fjid, triggerId string, timeout time.Duration) (flinkrest.TriggerState, error) {
	endpoint, err := f.RetrieveRestEndpoint(ctx, jid.Fcid, false)
	if err != nil {
		return "", err
	}

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(f.sptTriggerPollInterval)
	defer ticker.Stop()

	for {
		status, err := f.flink.SavepointTriggerStatus(ctx, endpoint.BaseURL(), jid.JobId, triggerId)
		if err != nil {
			return "", err
		}
		if status == flinkrest.TriggerCompleted || status == flinkrest.TriggerFailed {
			return status, nil
		}
		if time.Now().After(deadline) {
			return "", &operrors.TimeoutErr{Msg: "watch savepoint trigger " + triggerId}
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return "", &operrors.TimeoutErr{Msg: "watch savepoint trigger " + triggerId}
			}
		}
	}
}

func wrapAsk(err error) error {
	if err == context.DeadlineExceeded || err == context.Canceled {
		return &operrors.ActorInteropErr{Cause: err}
	}
	return err
}
