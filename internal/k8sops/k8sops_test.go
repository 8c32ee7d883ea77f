package k8sops

import (
	"context"
	"errors"
	"testing"

	"github.com/Al-assad/potamoi-experiment/internal/fcid"
	"github.com/Al-assad/potamoi-experiment/internal/operrors"
	"gotest.tools/v3/assert"
	appsv1 "k8s.io/api/apps/v1"
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

func TestDeleteDeploymentNotFoundBecomesClusterNotFound(t *testing.T) {
	c := fake.NewClientBuilder().WithScheme(fakeScheme()).Build()
	ops := New(c)

	id := fcid.New("c1", "ns1")
	err := ops.DeleteDeployment(context.Background(), id, "c1-jobmanager")

	var notFound *operrors.ClusterNotFound
	assert.Assert(t, errors.As(err, &notFound))
}

func TestDeleteDeploymentDeletesExisting(t *testing.T) {
	dep := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Namespace: "ns1", Name: "c1-jobmanager"}}
	c := fake.NewClientBuilder().WithScheme(fakeScheme()).WithObjects(dep).Build()
	ops := New(c)

	id := fcid.New("c1", "ns1")
	err := ops.DeleteDeployment(context.Background(), id, "c1-jobmanager")
	assert.NilError(t, err)

	err = ops.DeleteDeployment(context.Background(), id, "c1-jobmanager")
	var notFound *operrors.ClusterNotFound
	assert.Assert(t, errors.As(err, &notFound))
}

func TestListRestServicesFiltersByNameSuffixAndReportsLabel(t *testing.T) {
	jmRest := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Namespace: "ns1", Name: "c1-jobmanager-rest", Labels: map[string]string{"component": "jobmanager"}},
		Spec: corev1.ServiceSpec{
			ClusterIP: "10.0.0.1",
			Ports:     []corev1.ServicePort{{Name: "rest", Port: 8081}, {Name: "rpc", Port: 6123}},
		},
	}
	otherRest := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Namespace: "ns1", Name: "c1-taskmanager-rest", Labels: map[string]string{"component": "taskmanager"}},
		Spec:       corev1.ServiceSpec{ClusterIP: "10.0.0.2"},
	}
	notRest := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Namespace: "ns1", Name: "c1-jobmanager-ui", Labels: map[string]string{"component": "jobmanager"}},
	}
	otherNamespace := &corev1.Service{
		ObjectMeta: metav1.ObjectMeta{Namespace: "ns2", Name: "c2-jobmanager-rest", Labels: map[string]string{"component": "jobmanager"}},
	}
	c := fake.NewClientBuilder().WithScheme(fakeScheme()).WithObjects(jmRest, otherRest, notRest, otherNamespace).Build()
	ops := New(c)

	cands, err := ops.ListRestServices(context.Background(), "ns1")
	assert.NilError(t, err)
	assert.Equal(t, len(cands), 2)

	byName := map[string]RestEndpointCandidate{}
	for _, c := range cands {
		byName[c.Name] = c
	}
	jm := byName["c1-jobmanager-rest"]
	assert.Equal(t, jm.ClusterIP, "10.0.0.1")
	assert.Equal(t, jm.RestPort, int32(8081))
	assert.Equal(t, jm.ComponentOK, true)

	tm := byName["c1-taskmanager-rest"]
	assert.Equal(t, tm.ComponentOK, false)
}

func TestGetDeploymentReturnsNilOnNotFound(t *testing.T) {
	c := fake.NewClientBuilder().WithScheme(fakeScheme()).Build()
	ops := New(c)

	dep, err := ops.GetDeployment(context.Background(), "ns1", "missing")
	assert.NilError(t, err)
	assert.Assert(t, dep == nil)
}
