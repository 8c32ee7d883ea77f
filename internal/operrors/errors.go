// Package operrors defines the structured error taxonomy surfaced by the
// Operator's core components. Every exported error type carries
// structured fields (cluster/namespace, stage, cause, path or message);
// the types that wrap a cause implement Unwrap so callers can
// errors.As/errors.Is through them.
package operrors

import (
	"fmt"

	"github.com/Al-assad/potamoi-experiment/internal/fcid"
)

// ReviseFlinkClusterDefErr wraps a failure in the revise pipeline.
type ReviseFlinkClusterDefErr struct {
	Stage string
	Cause error
}

func (e *ReviseFlinkClusterDefErr) Error() string {
	return fmt.Sprintf("revise flink cluster def: stage %q: %v", e.Stage, e.Cause)
}

func (e *ReviseFlinkClusterDefErr) Unwrap() error { return e.Cause }

// DryToFlinkRawConfigErr wraps a config-emission failure.
type DryToFlinkRawConfigErr struct {
	Fcid  fcid.Fcid
	Cause error
}

func (e *DryToFlinkRawConfigErr) Error() string {
	return fmt.Sprintf("emit flink raw config for %s: %v", e.Fcid, e.Cause)
}

func (e *DryToFlinkRawConfigErr) Unwrap() error { return e.Cause }

// GenPodTemplateErr wraps a pod-template synthesis failure.
type GenPodTemplateErr struct {
	Fcid  fcid.Fcid
	Cause error
}

func (e *GenPodTemplateErr) Error() string {
	return fmt.Sprintf("generate pod template for %s: %v", e.Fcid, e.Cause)
}

func (e *GenPodTemplateErr) Unwrap() error { return e.Cause }

// EncodePodTemplateYamlErr wraps a pod-template YAML encode failure.
type EncodePodTemplateYamlErr struct {
	Cause error
}

func (e *EncodePodTemplateYamlErr) Error() string {
	return fmt.Sprintf("encode pod template yaml: %v", e.Cause)
}

func (e *EncodePodTemplateYamlErr) Unwrap() error { return e.Cause }

// DecodePodTemplateYamlErr wraps a pod-template YAML decode failure.
type DecodePodTemplateYamlErr struct {
	Path  string
	Cause error
}

func (e *DecodePodTemplateYamlErr) Error() string {
	return fmt.Sprintf("decode pod template yaml %q: %v", e.Path, e.Cause)
}

func (e *DecodePodTemplateYamlErr) Unwrap() error { return e.Cause }

// IOErr wraps a local filesystem read/write failure.
type IOErr struct {
	Msg   string
	Cause error
}

func (e *IOErr) Error() string { return fmt.Sprintf("io error: %s: %v", e.Msg, e.Cause) }

func (e *IOErr) Unwrap() error { return e.Cause }

// SubmitFlinkSessionClusterErr wraps a session-cluster launch failure.
type SubmitFlinkSessionClusterErr struct {
	Fcid  fcid.Fcid
	Cause error
}

func (e *SubmitFlinkSessionClusterErr) Error() string {
	return fmt.Sprintf("submit flink session cluster %s: %v", e.Fcid, e.Cause)
}

func (e *SubmitFlinkSessionClusterErr) Unwrap() error { return e.Cause }

// SubmitFlinkApplicationClusterErr wraps an application-cluster launch failure.
type SubmitFlinkApplicationClusterErr struct {
	Fcid  fcid.Fcid
	Cause error
}

func (e *SubmitFlinkApplicationClusterErr) Error() string {
	return fmt.Sprintf("submit flink application cluster %s: %v", e.Fcid, e.Cause)
}

func (e *SubmitFlinkApplicationClusterErr) Unwrap() error { return e.Cause }

// NotSupportJobJarPath signals a non-S3 jobJar at session-submit time.
type NotSupportJobJarPath struct {
	Path string
}

func (e *NotSupportJobJarPath) Error() string {
	return fmt.Sprintf("job jar path not supported for session submit, must be s3: %q", e.Path)
}

// UnableToResolveS3Resource wraps an object-store lookup/download failure.
type UnableToResolveS3Resource struct {
	Cause error
}

func (e *UnableToResolveS3Resource) Error() string {
	return fmt.Sprintf("unable to resolve s3 resource: %v", e.Cause)
}

func (e *UnableToResolveS3Resource) Unwrap() error { return e.Cause }

// RequestFlinkRestApiErr wraps a Flink REST API call failure.
type RequestFlinkRestApiErr struct {
	Msg string
}

func (e *RequestFlinkRestApiErr) Error() string {
	return fmt.Sprintf("request flink rest api: %s", e.Msg)
}

// RequestK8sApiErr wraps a Kubernetes API call failure.
type RequestK8sApiErr struct {
	Cause error
}

func (e *RequestK8sApiErr) Error() string { return fmt.Sprintf("request k8s api: %v", e.Cause) }

func (e *RequestK8sApiErr) Unwrap() error { return e.Cause }

// ClusterNotFound is returned when the K8s API reports the cluster's
// deployment as NotFound during delete.
type ClusterNotFound struct {
	Fcid fcid.Fcid
}

func (e *ClusterNotFound) Error() string { return fmt.Sprintf("cluster not found: %s", e.Fcid) }

// EndpointNotFound is returned when no Flink REST service is visible for
// an Fcid.
type EndpointNotFound struct {
	Fcid fcid.Fcid
}

func (e *EndpointNotFound) Error() string {
	return fmt.Sprintf("flink rest endpoint not found for %s", e.Fcid)
}

// ActorInteropErr wraps an ask-timeout, full-mailbox, or remote failure
// when messaging a tracker entity.
type ActorInteropErr struct {
	Cause error
}

func (e *ActorInteropErr) Error() string { return fmt.Sprintf("actor interop error: %v", e.Cause) }

func (e *ActorInteropErr) Unwrap() error { return e.Cause }

// TimeoutErr is returned when a bounded wait (e.g. watchSavepointTrigger)
// exceeds its deadline.
type TimeoutErr struct {
	Msg string
}

func (e *TimeoutErr) Error() string {
	if e.Msg == "" {
		return "timeout"
	}
	return fmt.Sprintf("timeout: %s", e.Msg)
}
