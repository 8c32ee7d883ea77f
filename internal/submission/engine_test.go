package submission

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
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
	"github.com/Al-assad/potamoi-experiment/internal/observer"
	"github.com/Al-assad/potamoi-experiment/internal/operrors"
	"github.com/Al-assad/potamoi-experiment/internal/sharding"
	"github.com/Al-assad/potamoi-experiment/internal/tracker"
	"github.com/go-logr/logr"
	"gotest.tools/v3/assert"
	appsv1 "k8s.io/api/apps/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	"sigs.k8s.io/controller-runtime/pkg/client/fake"
)

// memObjectStore is an in-memory ObjectStore double, standing in for
// S3ObjectStore the way facade_test.go's fake k8s client stands in for a
// real cluster.
type memObjectStore struct {
	objects map[string][]byte
}

func newMemObjectStore() *memObjectStore { return &memObjectStore{objects: map[string][]byte{}} }

func (m *memObjectStore) Head(ctx context.Context, key string) (bool, int64, error) {
	body, ok := m.objects[key]
	if !ok {
		return false, 0, nil
	}
	return true, int64(len(body)), nil
}

func (m *memObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(body)), nil
}

func (m *memObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = raw
	return nil
}

func (m *memObjectStore) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func fakeK8sScheme() *runtime.Scheme {
	scheme := runtime.NewScheme()
	_ = clientgoscheme.AddToScheme(scheme)
	return scheme
}

func endpointFromURL(t *testing.T, rawURL string) tracker.RestSvcEndpoint {
	t.Helper()
	u, err := url.Parse(rawURL)
	assert.NilError(t, err)
	port, err := strconv.Atoi(u.Port())
	assert.NilError(t, err)
	return tracker.RestSvcEndpoint{ClusterIP: u.Hostname(), ClusterPort: int32(port)}
}

// buildTestFacade wires a Facade whose endpoint cache is pre-seeded for id,
// so RetrieveRestEndpoint resolves to srv without needing live trackers.
func buildTestFacade(t *testing.T, id fcid.Fcid, srv *httptest.Server) *observer.Facade {
	t.Helper()
	jmFactory := func(fcid.Fcid) sharding.Entity[tracker.Msg[tracker.JmMetrics]] {
		return tracker.New(tracker.Options[tracker.JmMetrics]{PollInterval: time.Hour, Log: logr.Logger{}})
	}
	tmFactory := func(fcid.Fcid) sharding.Entity[tracker.Msg[tracker.TmMetricsList]] {
		return tracker.New(tracker.Options[tracker.TmMetricsList]{PollInterval: time.Hour, Log: logr.Logger{}})
	}
	jobsFactory := func(fcid.Fcid) sharding.Entity[tracker.Msg[tracker.JobOverviewList]] {
		return tracker.New(tracker.Options[tracker.JobOverviewList]{PollInterval: time.Hour, Log: logr.Logger{}})
	}
	jmProxy := sharding.New[fcid.Fcid, tracker.Msg[tracker.JmMetrics]](jmFactory, fcid.Unmarshal)
	tmProxy := sharding.New[fcid.Fcid, tracker.Msg[tracker.TmMetricsList]](tmFactory, fcid.Unmarshal)
	jobsProxy := sharding.New[fcid.Fcid, tracker.Msg[tracker.JobOverviewList]](jobsFactory, fcid.Unmarshal)

	endpointCache := kvstore.New[string, tracker.RestSvcEndpoint]("test-node", nil)
	endpointCache.Put(id.Marshal(), endpointFromURL(t, srv.URL))
	jobsCache := kvstore.New[string, tracker.JobOverviewList]("test-node", nil)

	c := fake.NewClientBuilder().WithScheme(fakeK8sScheme()).Build()

	return observer.New(observer.Deps{
		JmProxy:       jmProxy,
		TmProxy:       tmProxy,
		JobsProxy:     jobsProxy,
		EndpointCache: endpointCache,
		JobsCache:     jobsCache,
		K8s:           k8sops.New(c),
		Flink:         flinkrest.NewClient(5 * time.Second),
		Log:           logr.Logger{},
	})
}

func TestEngineKillClusterDeletesJobManagerDeployment(t *testing.T) {
	id := fcid.New("c1", "ns1")
	dep := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Namespace: "ns1", Name: JobManagerDeploymentName(id)}}
	c := fake.NewClientBuilder().WithScheme(fakeK8sScheme()).WithObjects(dep).Build()

	e := &Engine{K8s: k8sops.New(c)}
	assert.NilError(t, e.KillCluster(context.Background(), id))

	err := e.KillCluster(context.Background(), id)
	var notFound *operrors.ClusterNotFound
	assert.Assert(t, errors.As(err, &notFound))
}

func TestEngineCancelSessionJobStopsAndReturnsTriggerId(t *testing.T) {
	id := fcid.New("c1", "ns1")
	jid := fcid.NewFjid(id, "job-1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, r.Method, http.MethodPatch)
		assert.Equal(t, r.URL.Path, "/jobs/job-1")
		assert.Equal(t, r.URL.Query().Get("mode"), "stop")

		var body flinkrest.StopJobRequest
		assert.NilError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, body.TargetDirectory, "s3://bucket/savepoints")

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"request-id": "trigger-1"})
	}))
	defer srv.Close()

	e := &Engine{Facade: buildTestFacade(t, id, srv), Flink: flinkrest.NewClient(5 * time.Second)}
	savepointDir := "s3://bucket/savepoints"
	triggerId, err := e.CancelSessionJob(context.Background(), jid, &savepointDir)
	assert.NilError(t, err)
	assert.Equal(t, triggerId, "trigger-1")
}

func TestEngineSubmitJobUploadsAndRuns(t *testing.T) {
	id := fcid.New("c1", "ns1")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/jars/upload":
			_ = json.NewEncoder(w).Encode(map[string]string{"filename": "/tmp/staged-jar_abc123.jar"})
		case r.URL.Path == "/jars/staged-jar_abc123.jar/run":
			_ = json.NewEncoder(w).Encode(map[string]string{"jobid": "job-9"})
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusOK)
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	store := newMemObjectStore()
	store.objects["jobs/app.jar"] = []byte("fake-jar-bytes")

	e := &Engine{
		Facade:      buildTestFacade(t, id, srv),
		Flink:       flinkrest.NewClient(5 * time.Second),
		ObjectStore: store,
	}

	jobId, err := e.SubmitJob(context.Background(), id, "s3://bucket/jobs/app.jar", "com.example.Main", []string{"--foo", "bar"}, 2, nil)
	assert.NilError(t, err)
	assert.Equal(t, jobId, "job-9")
}

func TestEngineSubmitJobRejectsNonS3Path(t *testing.T) {
	e := &Engine{}
	_, err := e.SubmitJob(context.Background(), fcid.New("c1", "ns1"), "/local/app.jar", "Main", nil, 1, nil)
	var badPath *operrors.NotSupportJobJarPath
	assert.Assert(t, errors.As(err, &badPath))
}
