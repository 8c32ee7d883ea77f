package observer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/Al-assad/potamoi-experiment/internal/fcid"
	"github.com/Al-assad/potamoi-experiment/internal/flinkrest"
	"github.com/Al-assad/potamoi-experiment/internal/k8sops"
	"github.com/Al-assad/potamoi-experiment/internal/kvstore"
	"github.com/Al-assad/potamoi-experiment/internal/sharding"
	"github.com/Al-assad/potamoi-experiment/internal/tracker"
	"github.com/go-logr/logr"
	"gotest.tools/v3/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

func fakeScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	_ = clientgoscheme.AddToScheme(scheme)
	return scheme
}

func endpointFromServerURL(rawURL string) tracker.RestSvcEndpoint {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		panic(err)
	}
	return tracker.RestSvcEndpoint{ClusterIP: u.Hostname(), ClusterPort: int32(port)}
}

func buildFacade(fakeClient *fake.ClientBuilder) *Facade {
	jmFactory := func(id fcid.Fcid) sharding.Entity[tracker.Msg[tracker.JmMetrics]] {
		return tracker.New(tracker.Options[tracker.JmMetrics]{
			PollInterval: time.Hour,
			Poll: func(ctx context.Context, _ tracker.RestSvcEndpoint) (tracker.JmMetrics, error) {
				return tracker.JmMetrics{}, nil
			},
			Resolve: func(ctx context.Context) (tracker.RestSvcEndpoint, error) { return tracker.RestSvcEndpoint{}, nil },
			Log:     logr.Logger{},
		})
	}
	tmFactory := func(id fcid.Fcid) sharding.Entity[tracker.Msg[tracker.TmMetricsList]] {
		return tracker.New(tracker.Options[tracker.TmMetricsList]{
			PollInterval: time.Hour,
			Poll: func(ctx context.Context, _ tracker.RestSvcEndpoint) (tracker.TmMetricsList, error) {
				return tracker.TmMetricsList{}, nil
			},
			Resolve: func(ctx context.Context) (tracker.RestSvcEndpoint, error) { return tracker.RestSvcEndpoint{}, nil },
			Log:     logr.Logger{},
		})
	}
	jobsFactory := func(id fcid.Fcid) sharding.Entity[tracker.Msg[tracker.JobOverviewList]] {
		return tracker.New(tracker.Options[tracker.JobOverviewList]{
			PollInterval: time.Hour,
			Poll: func(ctx context.Context, _ tracker.RestSvcEndpoint) (tracker.JobOverviewList, error) {
				return tracker.JobOverviewList{}, nil
			},
			Resolve: func(ctx context.Context) (tracker.RestSvcEndpoint, error) { return tracker.RestSvcEndpoint{}, nil },
			Log:     logr.Logger{},
		})
	}

	return New(Deps{
		JmProxy:                sharding.New[fcid.Fcid, tracker.Msg[tracker.JmMetrics]](jmFactory, fcid.Unmarshal),
		TmProxy:                sharding.New[fcid.Fcid, tracker.Msg[tracker.TmMetricsList]](tmFactory, fcid.Unmarshal),
		JobsProxy:              sharding.New[fcid.Fcid, tracker.Msg[tracker.JobOverviewList]](jobsFactory, fcid.Unmarshal),
		EndpointCache:          kvstore.New[string, tracker.RestSvcEndpoint]("node-a", nil),
		JobsCache:              kvstore.New[string, tracker.JobOverviewList]("node-a", nil),
		K8s:                    k8sops.New(fakeClient.Build()),
		Flink:                  flinkrest.NewClient(2 * time.Second),
		Log:                    logr.Logger{},
		SptTriggerPollInterval: 100 * time.Millisecond,
	})
}

func TestRetrieveRestEndpointCacheMissThenHit(t *testing.T) {
	svc := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{
			Name:      "c1-rest",
			Namespace: "ns1",
			Labels:    map[string]string{"component": "jobmanager"},
		},
		Spec: corev1.ServiceSpec{
			ClusterIP: "10.0.0.5",
			Ports:     []corev1.ServicePort{{Name: "rest", Port: 8081}},
		},
	}
	scheme := fakeScheme()
	fc := fake.NewClientBuilder().WithScheme(scheme).WithObjects(svc)
	f := buildFacade(fc)

	id := fcid.New("c1", "ns1")
	ctx := context.Background()

	ep, err := f.RetrieveRestEndpoint(ctx, id, false)
	assert.NilError(t, err)
	assert.Equal(t, ep.ClusterIP, "10.0.0.5")
	assert.Equal(t, ep.ClusterPort, int32(8081))
	assert.Equal(t, ep.Dns, "c1-rest.ns1")

	cached, ok := f.endpointCache.Get(id.Marshal(), kvstore.Local)
	assert.Assert(t, ok)
	assert.Equal(t, cached.ClusterIP, "10.0.0.5")
}

func TestRetrieveRestEndpointSecondCallServesFromCache(t *testing.T) {
	// No Service exists in Kubernetes at all: a cache hit must be
	// answered without a list call, so pre-seeding the cache is enough
	// for the lookup to succeed.
	fc := fake.NewClientBuilder().WithScheme(fakeScheme())
	f := buildFacade(fc)

	id := fcid.New("c1", "ns1")
	seeded := tracker.RestSvcEndpoint{ClusterIP: "10.0.0.5", ClusterPort: 8081, Dns: "c1-rest.ns1"}
	f.endpointCache.Put(id.Marshal(), seeded)

	ep, err := f.RetrieveRestEndpoint(context.Background(), id, false)
	assert.NilError(t, err)
	assert.Equal(t, ep, seeded)

	// directly=true bypasses the cache and hits Kubernetes, which has no
	// matching Service.
	_, err = f.RetrieveRestEndpoint(context.Background(), id, true)
	assert.ErrorContains(t, err, "endpoint not found")
}

func TestUnTrackClusterPurgesCacheEntries(t *testing.T) {
	fc := fake.NewClientBuilder().WithScheme(fakeScheme())
	f := buildFacade(fc)

	id := fcid.New("c1", "ns1")
	other := fcid.New("c2", "ns1")
	key := id.Marshal()

	f.endpointCache.Put(key, tracker.RestSvcEndpoint{ClusterIP: "10.0.0.5"})
	f.jobsCache.Put(key, tracker.JobOverviewList{Items: []tracker.JobOverview{{JobID: "j1"}}})
	f.jobsCache.Put(other.Marshal(), tracker.JobOverviewList{Items: []tracker.JobOverview{{JobID: "j2"}}})

	assert.NilError(t, f.UnTrackCluster(context.Background(), id))

	assert.Assert(t, !f.endpointCache.Contains(key))
	assert.Assert(t, !f.jobsCache.Contains(key))
	assert.Assert(t, f.jobsCache.Contains(other.Marshal()))
}

func TestWatchSavepointTriggerCompletes(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		status := "IN_PROGRESS"
		if calls >= 3 {
			status = "COMPLETED"
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"status": map[string]string{"id": status}})
	}))
	defer srv.Close()

	fc := fake.NewClientBuilder().WithScheme(fakeScheme())
	f := buildFacade(fc)
	ep := endpointFromServerURL(srv.URL)
	f.endpointCache.Put(fcid.New("c1", "ns1").Marshal(), ep)

	jid := fcid.NewFjid(fcid.New("c1", "ns1"), "job1")
	status, err := f.WatchSavepointTrigger(context.Background(), jid, "trig1", time.Second)
	assert.NilError(t, err)
	assert.Equal(t, status, flinkrest.TriggerCompleted)
}

func TestWatchSavepointTriggerTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": map[string]string{"id": "IN_PROGRESS"}})
	}))
	defer srv.Close()

	fc := fake.NewClientBuilder().WithScheme(fakeScheme())
	f := buildFacade(fc)
	ep := endpointFromServerURL(srv.URL)
	f.endpointCache.Put(fcid.New("c1", "ns1").Marshal(), ep)

	jid := fcid.NewFjid(fcid.New("c1", "ns1"), "job1")
	_, err := f.WatchSavepointTrigger(context.Background(), jid, "trig1", 300*time.Millisecond)
	assert.ErrorContains(t, err, "timeout")
}
