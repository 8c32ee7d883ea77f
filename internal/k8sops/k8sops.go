// Package k8sops is the thin Kubernetes API wrapper the tracker fleet
// and Observer Facade consume: Service listing for endpoint discovery,
// Deployment/Pod/Service reads for snapshot trackers, and Deployment
// delete for cluster teardown.
package k8sops

import (
	"context"
	"strings"

	"github.com/Al-assad/potamoi-experiment/internal/fcid"
	"github.com/Al-assad/potamoi-experiment/internal/operrors"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"sigs.k8s.io/controller-runtime/pkg/client"
)

// restServiceSuffix marks a Service as a Flink REST endpoint candidate.
const restServiceSuffix = "-rest"

// jobManagerComponentLabel is the label value identifying the JobManager
// component among same-prefixed Services.
const jobManagerComponentLabel = "jobmanager"

// Ops wraps a controller-runtime client.Client with the narrow verb set
// the core invokes.
type Ops struct {
	client client.Client
}

// New wraps c.
func New(c client.Client) *Ops {
	return &Ops{client: c}
}

// DeleteDeployment deletes the named Deployment, translating a
// Kubernetes NotFound into operrors.ClusterNotFound.
func (o *Ops) DeleteDeployment(ctx context.Context, id fcid.Fcid, name string) error {
	dep := &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Namespace: id.Namespace, Name: name}}
	if err := o.client.Delete(ctx, dep); err != nil {
		if apierrors.IsNotFound(err) {
			return &operrors.ClusterNotFound{Fcid: id}
		}
		return &operrors.RequestK8sApiErr{Cause: err}
	}
	return nil
}

// RestEndpointCandidate is one Service the Operator considers a
// potential Flink REST endpoint.
type RestEndpointCandidate struct {
	Name        string
	ClusterIP   string
	RestPort    int32
	ComponentOK bool
}

// ListRestServices lists Services in namespace whose name ends in
// "-rest", reporting each one's clusterIP, rest port, and whether its
// "component" label matches "jobmanager".
func (o *Ops) ListRestServices(ctx context.Context, namespace string) ([]RestEndpointCandidate, error) {
	var list corev1.ServiceList
	if err := o.client.List(ctx, &list, client.InNamespace(namespace)); err != nil {
		return nil, &operrors.RequestK8sApiErr{Cause: err}
	}

	var out []RestEndpointCandidate
	for _, svc := range list.Items {
		if !strings.HasSuffix(svc.Name, restServiceSuffix) {
			continue
		}
		cand := RestEndpointCandidate{
			Name:        svc.Name,
			ClusterIP:   svc.Spec.ClusterIP,
			ComponentOK: svc.Labels["component"] == jobManagerComponentLabel,
		}
		for _, p := range svc.Spec.Ports {
			if p.Name == "rest" {
				cand.RestPort = p.Port
				break
			}
		}
		out = append(out, cand)
	}
	return out, nil
}

// GetDeployment fetches the named Deployment, returning (nil, nil) on
// NotFound — a snapshot tracker treats an absent resource as "not yet
// observed", not as an error.
func (o *Ops) GetDeployment(ctx context.Context, namespace, name string) (*appsv1.Deployment, error) {
	dep := &appsv1.Deployment{}
	err := o.client.Get(ctx, types.NamespacedName{Namespace: namespace, Name: name}, dep)
	if apierrors.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &operrors.RequestK8sApiErr{Cause: err}
	}
	return dep, nil
}

// ListPods lists Pods in namespace matching labels.
func (o *Ops) ListPods(ctx context.Context, namespace string, labels map[string]string) ([]corev1.Pod, error) {
	var list corev1.PodList
	if err := o.client.List(ctx, &list, client.InNamespace(namespace), client.MatchingLabels(labels)); err != nil {
		return nil, &operrors.RequestK8sApiErr{Cause: err}
	}
	return list.Items, nil
}

// ListServices lists Services in namespace matching labels.
func (o *Ops) ListServices(ctx context.Context, namespace string, labels map[string]string) ([]corev1.Service, error) {
	var list corev1.ServiceList
	if err := o.client.List(ctx, &list, client.InNamespace(namespace), client.MatchingLabels(labels)); err != nil {
		return nil, &operrors.RequestK8sApiErr{Cause: err}
	}
	return list.Items, nil
}
