package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"
	"k8s.io/client-go/tools/clientcmd"
	"sigs.k8s.io/controller-runtime/pkg/client"

	"github.com/Al-assad/potamoi-experiment/internal/config"
	"github.com/Al-assad/potamoi-experiment/internal/fcid"
	"github.com/Al-assad/potamoi-experiment/internal/flinkrest"
	"github.com/Al-assad/potamoi-experiment/internal/k8sops"
	"github.com/Al-assad/potamoi-experiment/internal/kvstore"
	"github.com/Al-assad/potamoi-experiment/internal/observer"
	"github.com/Al-assad/potamoi-experiment/internal/sharding"
	"github.com/Al-assad/potamoi-experiment/internal/submission"
	"github.com/Al-assad/potamoi-experiment/internal/tracker"
)

const (
	flinkRestTimeout = 10 * time.Second
	jmPollInterval   = 10 * time.Second
	tmPollInterval   = 15 * time.Second
	jobsPollInterval = 5 * time.Second
)

// operatorDeps bundles every component runServe and the cluster
// subcommands (cmd/operator/cluster.go) share once wired: the facade
// forwards into the sharding proxies, trackers publish into the
// replicated stores, and the Submission Engine resolves config only at
// launch time.
type operatorDeps struct {
	Log          logr.Logger
	K8s          *k8sops.Ops
	Flink        *flinkrest.Client
	Facade       *observer.Facade
	Engine       *submission.Engine
	GossipRouter *mux.Router
	GossipAddr   string
}

// bootstrap builds operatorDeps from cfg: the Kubernetes and Flink REST
// clients, the replicated caches and their gossip transport, the three
// tracker-kind sharding proxies, the Observer Facade, and the
// Submission Engine.
func bootstrap(cfg config.OperatorConf, log logr.Logger) (*operatorDeps, error) {
	kcfg, err := clientcmd.BuildConfigFromFlags("", cfg.KubeconfigPath)
	if err != nil {
		return nil, fmt.Errorf("load kubernetes config: %w", err)
	}
	k8sClient, err := client.New(kcfg, client.Options{})
	if err != nil {
		return nil, fmt.Errorf("build kubernetes client: %w", err)
	}
	k8s := k8sops.New(k8sClient)
	flink := flinkrest.NewClient(flinkRestTimeout)

	endpointCache := kvstore.New[string, tracker.RestSvcEndpoint](cfg.Node.Addr, log)
	jobsCache := kvstore.New[string, tracker.JobOverviewList](cfg.Node.Addr, log)
	jmCache := kvstore.New[string, tracker.JmMetrics](cfg.Node.Addr, log)
	tmCache := kvstore.New[string, tracker.TmMetricsList](cfg.Node.Addr, log)
	gossipRouter := buildGossipTransport(endpointCache, jobsCache, jmCache, tmCache, cfg.Node.Peers)

	askTimeout := time.Duration(cfg.Pota.AskTimeoutMs) * time.Millisecond
	if askTimeout <= 0 {
		askTimeout = 5 * time.Second
	}

	resolveFor := func(id fcid.Fcid) tracker.EndpointResolver {
		return func(ctx context.Context) (tracker.RestSvcEndpoint, error) {
			return observer.ResolveRestEndpoint(ctx, id, k8s, endpointCache, false)
		}
	}

	jmProxy := sharding.New[fcid.Fcid, tracker.Msg[tracker.JmMetrics]](
		func(id fcid.Fcid) sharding.Entity[tracker.Msg[tracker.JmMetrics]] {
			return tracker.New(tracker.Options[tracker.JmMetrics]{
				PollInterval: jmPollInterval,
				Poll:         tracker.JmMetricsPoller(flink, nil),
				Resolve:      resolveFor(id),
				Publish: func(snap tracker.JmMetrics, ts int64) {
					snap.Ts = ts
					jmCache.Put(id.Marshal(), snap)
				},
				Log: log,
			})
		},
		fcid.Unmarshal,
	)
	tmProxy := sharding.New[fcid.Fcid, tracker.Msg[tracker.TmMetricsList]](
		func(id fcid.Fcid) sharding.Entity[tracker.Msg[tracker.TmMetricsList]] {
			return tracker.New(tracker.Options[tracker.TmMetricsList]{
				PollInterval: tmPollInterval,
				Poll:         tracker.TmMetricsPoller(flink, nil),
				Resolve:      resolveFor(id),
				Publish: func(snap tracker.TmMetricsList, ts int64) {
					snap.Ts = ts
					tmCache.Put(id.Marshal(), snap)
				},
				Log: log,
			})
		},
		fcid.Unmarshal,
	)
	jobsProxy := sharding.New[fcid.Fcid, tracker.Msg[tracker.JobOverviewList]](
		func(id fcid.Fcid) sharding.Entity[tracker.Msg[tracker.JobOverviewList]] {
			return tracker.New(tracker.Options[tracker.JobOverviewList]{
				PollInterval: jobsPollInterval,
				Poll:         tracker.JobsOverviewPoller(flink),
				Resolve:      resolveFor(id),
				Publish: func(snap tracker.JobOverviewList, ts int64) {
					snap.Ts = ts
					jobsCache.Put(id.Marshal(), snap)
				},
				Log: log,
			})
		},
		fcid.Unmarshal,
	)

	facade := observer.New(observer.Deps{
		JmProxy:                jmProxy,
		TmProxy:                tmProxy,
		JobsProxy:              jobsProxy,
		EndpointCache:          endpointCache,
		JobsCache:              jobsCache,
		JmCache:                jmCache,
		TmCache:                tmCache,
		K8s:                    k8s,
		Flink:                  flink,
		Log:                    log,
		AskTimeout:             askTimeout,
		SptTriggerPollInterval: time.Duration(cfg.Pota.SptTriggerPollIntervalMs) * time.Millisecond,
	})

	var objectStore submission.ObjectStore
	if cfg.Pota.S3.Endpoint != "" {
		objectStore = submission.NewS3ObjectStore(cfg.Pota.S3)
	}
	engine := &submission.Engine{
		Launcher:    &submission.ProcessLauncher{},
		ObjectStore: objectStore,
		Facade:      facade,
		K8s:         k8s,
		Flink:       flink,
	}

	return &operatorDeps{
		Log:          log,
		K8s:          k8s,
		Flink:        flink,
		Facade:       facade,
		Engine:       engine,
		GossipRouter: gossipRouter,
		GossipAddr:   cfg.Node.GossipListenAddr,
	}, nil
}

// buildGossipTransport mounts each replicated cache's gossip endpoint
// under its own path prefix on one mux.Router, and registers an HTTPPeer
// per configured peer for every store.
func buildGossipTransport(
	endpointCache *kvstore.Store[string, tracker.RestSvcEndpoint],
	jobsCache *kvstore.Store[string, tracker.JobOverviewList],
	jmCache *kvstore.Store[string, tracker.JmMetrics],
	tmCache *kvstore.Store[string, tracker.TmMetricsList],
	peers []string,
) *mux.Router {
	endpointSrv := kvstore.NewServer(endpointCache)
	jobsSrv := kvstore.NewServer(jobsCache)
	jmSrv := kvstore.NewServer(jmCache)
	tmSrv := kvstore.NewServer(tmCache)

	root := mux.NewRouter()
	root.PathPrefix("/kv/endpoint").Handler(http.StripPrefix("/kv/endpoint", endpointSrv.Router()))
	root.PathPrefix("/kv/jobs").Handler(http.StripPrefix("/kv/jobs", jobsSrv.Router()))
	root.PathPrefix("/kv/jm-metrics").Handler(http.StripPrefix("/kv/jm-metrics", jmSrv.Router()))
	root.PathPrefix("/kv/tm-metrics").Handler(http.StripPrefix("/kv/tm-metrics", tmSrv.Router()))

	for _, peer := range peers {
		endpointCache.RegisterPeer(&kvstore.HTTPPeer[string, tracker.RestSvcEndpoint]{BaseURL: peer + "/kv/endpoint"})
		jobsCache.RegisterPeer(&kvstore.HTTPPeer[string, tracker.JobOverviewList]{BaseURL: peer + "/kv/jobs"})
		jmCache.RegisterPeer(&kvstore.HTTPPeer[string, tracker.JmMetrics]{BaseURL: peer + "/kv/jm-metrics"})
		tmCache.RegisterPeer(&kvstore.HTTPPeer[string, tracker.TmMetricsList]{BaseURL: peer + "/kv/tm-metrics"})
	}

	return root
}
