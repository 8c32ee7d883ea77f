package submission

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	corev1 "k8s.io/api/core/v1"

	"github.com/Al-assad/potamoi-experiment/internal/clusterdef"
	"github.com/Al-assad/potamoi-experiment/internal/fcid"
	"github.com/Al-assad/potamoi-experiment/internal/flinkrest"
	"github.com/Al-assad/potamoi-experiment/internal/k8sops"
	"github.com/Al-assad/potamoi-experiment/internal/observer"
	"github.com/Al-assad/potamoi-experiment/internal/operrors"
	"github.com/Al-assad/potamoi-experiment/internal/pathutil"
	"github.com/Al-assad/potamoi-experiment/internal/podtemplate"
	"github.com/Al-assad/potamoi-experiment/internal/resolver"
)

// Engine creates and controls Flink clusters: it composes the resolver,
// the pod template generator, a Workspace, a Launcher, and the Observer
// Facade.
type Engine struct {
	Launcher    Launcher
	ObjectStore ObjectStore // nil disables the pre-flight S3 existence check
	Facade      *observer.Facade
	K8s         *k8sops.Ops
	Flink       *flinkrest.Client

	LogConfTemplateDir string
}

// JobManagerDeploymentName derives the JobManager Deployment name
// KillCluster deletes. Flink's native Kubernetes integration names the
// Deployment after the cluster id.
func JobManagerDeploymentName(id fcid.Fcid) string {
	return id.ClusterId + "-jobmanager"
}

// CreateApplicationCluster revises def, pre-flight-checks its S3
// resources, generates the pod template, stages the workspace, and hands
// the result to the Launcher with execution.target =
// kubernetes-application.
func (e *Engine) CreateApplicationCluster(ctx context.Context, def clusterdef.FlinkClusterDef, pota clusterdef.PotaConf) (fcid.Fcid, error) {
	revised, cfg, pod, err := e.prepare(ctx, def, pota)
	if err != nil {
		return def.Fcid, &operrors.SubmitFlinkApplicationClusterErr{Fcid: def.Fcid, Cause: err}
	}

	ws := WorkspaceFor(pota.LocalTmpDir, revised.Fcid)
	if err := ws.Ensure(e.LogConfTemplateDir); err != nil {
		return revised.Fcid, &operrors.SubmitFlinkApplicationClusterErr{Fcid: revised.Fcid, Cause: err}
	}
	if err := podtemplate.Dump(pod, ws.PodTemplatePath()); err != nil {
		return revised.Fcid, &operrors.SubmitFlinkApplicationClusterErr{Fcid: revised.Fcid, Cause: err}
	}
	if err := e.Launcher.LaunchApplicationCluster(ctx, cfg, ws.PodTemplatePath()); err != nil {
		return revised.Fcid, &operrors.SubmitFlinkApplicationClusterErr{Fcid: revised.Fcid, Cause: err}
	}
	return revised.Fcid, nil
}

// CreateSessionCluster mirrors CreateApplicationCluster with
// execution.target = kubernetes-session.
func (e *Engine) CreateSessionCluster(ctx context.Context, def clusterdef.FlinkClusterDef, pota clusterdef.PotaConf) (fcid.Fcid, error) {
	revised, cfg, pod, err := e.prepare(ctx, def, pota)
	if err != nil {
		return def.Fcid, &operrors.SubmitFlinkSessionClusterErr{Fcid: def.Fcid, Cause: err}
	}

	ws := WorkspaceFor(pota.LocalTmpDir, revised.Fcid)
	if err := ws.Ensure(e.LogConfTemplateDir); err != nil {
		return revised.Fcid, &operrors.SubmitFlinkSessionClusterErr{Fcid: revised.Fcid, Cause: err}
	}
	if err := podtemplate.Dump(pod, ws.PodTemplatePath()); err != nil {
		return revised.Fcid, &operrors.SubmitFlinkSessionClusterErr{Fcid: revised.Fcid, Cause: err}
	}
	if err := e.Launcher.LaunchSessionCluster(ctx, cfg, ws.PodTemplatePath()); err != nil {
		return revised.Fcid, &operrors.SubmitFlinkSessionClusterErr{Fcid: revised.Fcid, Cause: err}
	}
	return revised.Fcid, nil
}

// prepare runs the shared revise → pre-flight → emit → pod-template
// pipeline both cluster-creation operations need.
func (e *Engine) prepare(ctx context.Context, def clusterdef.FlinkClusterDef, pota clusterdef.PotaConf) (clusterdef.FlinkClusterDef, *resolver.Configuration, *corev1.Pod, error) {
	revised, err := resolver.Revise(def)
	if err != nil {
		return def, nil, nil, err
	}
	if err := e.checkS3ResourcesExist(ctx, revised); err != nil {
		return revised, nil, nil, err
	}
	cfg, err := resolver.ToFlinkRawConfig(revised, pota)
	if err != nil {
		return revised, nil, nil, err
	}
	pod, err := podtemplate.Resolve(revised, pota)
	if err != nil {
		return revised, cfg, nil, err
	}
	return revised, cfg, pod, nil
}

// checkS3ResourcesExist Heads every S3-scheme injectedDep and
// (Application) jobJar so a missing object surfaces as
// UnableToResolveS3Resource before launch, not as a Pod CrashLoopBackOff
// later. A nil ObjectStore disables the check.
func (e *Engine) checkS3ResourcesExist(ctx context.Context, def clusterdef.FlinkClusterDef) error {
	if e.ObjectStore == nil {
		return nil
	}
	paths := append([]string{}, def.InjectedDeps...)
	if def.IsApplication() && def.JobJar != "" {
		paths = append(paths, def.JobJar)
	}
	for _, p := range paths {
		if !pathutil.IsS3Path(p) {
			continue
		}
		key := ResolveObjectKey(p)
		exists, _, err := e.ObjectStore.Head(ctx, key)
		if err != nil {
			return &operrors.UnableToResolveS3Resource{Cause: err}
		}
		if !exists {
			return &operrors.UnableToResolveS3Resource{Cause: errNotFoundInBucket(key)}
		}
	}
	return nil
}

// SubmitJob uploads jarPath (which must already be staged in object
// storage) to the session cluster identified by id and runs it. The
// uploaded jar is best-effort deleted after the run is issued.
func (e *Engine) SubmitJob(ctx context.Context, id fcid.Fcid, jarPath, entryClass string, args []string, parallelism int, restore *string) (string, error) {
	if !pathutil.IsS3Path(jarPath) {
		return "", &operrors.NotSupportJobJarPath{Path: jarPath}
	}

	endpoint, err := e.Facade.RetrieveRestEndpoint(ctx, id, false)
	if err != nil {
		return "", err
	}

	localPath, err := e.stageJarLocally(ctx, jarPath)
	if err != nil {
		return "", err
	}

	jarId, err := e.Flink.UploadJar(ctx, endpoint.BaseURL(), localPath)
	if err != nil {
		return "", err
	}
	defer func() { _ = e.Flink.DeleteJar(context.Background(), endpoint.BaseURL(), jarId) }()

	req := flinkrest.RunJarRequest{
		EntryClass:  entryClass,
		ProgramArgs: joinArgs(args),
		Parallelism: parallelism,
	}
	if restore != nil {
		req.SavepointPath = *restore
	}
	return e.Flink.RunJar(ctx, endpoint.BaseURL(), jarId, req)
}

// KillCluster deletes the cluster's JobManager Deployment; a Kubernetes
// NotFound surfaces as ClusterNotFound.
func (e *Engine) KillCluster(ctx context.Context, id fcid.Fcid) error {
	return e.K8s.DeleteDeployment(ctx, id, JobManagerDeploymentName(id))
}

// CancelSessionJob and CancelApplicationJob issue PATCH
// /jobs/<id>?mode=stop with an optional savepoint target, returning the
// response's request-id as the trigger id; callers then watch the
// trigger through the Observer Facade.
func (e *Engine) CancelSessionJob(ctx context.Context, jid fcid.Fjid, savepointDir *string) (string, error) {
	return e.stopJob(ctx, jid, savepointDir)
}

func (e *Engine) CancelApplicationJob(ctx context.Context, id fcid.Fcid, jobId string, savepointDir *string) (string, error) {
	return e.stopJob(ctx, fcid.NewFjid(id, jobId), savepointDir)
}

func (e *Engine) stopJob(ctx context.Context, jid fcid.Fjid, savepointDir *string) (string, error) {
	endpoint, err := e.Facade.RetrieveRestEndpoint(ctx, jid.Fcid, false)
	if err != nil {
		return "", err
	}
	req := flinkrest.StopJobRequest{}
	if savepointDir != nil {
		req.TargetDirectory = *savepointDir
	}
	return e.Flink.StopJob(ctx, endpoint.BaseURL(), jid.JobId, req)
}

// stageJarLocally verifies (via Head) that jarPath exists in object
// storage, then downloads it into a process-local temp file for upload
// to the Flink REST API. Existence-check failures surface as
// UnableToResolveS3Resource rather than an opaque launcher/Pod failure
// later.
func (e *Engine) stageJarLocally(ctx context.Context, jarPath string) (string, error) {
	if e.ObjectStore == nil {
		return jarPath, nil
	}
	key := ResolveObjectKey(jarPath)
	exists, _, err := e.ObjectStore.Head(ctx, key)
	if err != nil {
		return "", &operrors.UnableToResolveS3Resource{Cause: err}
	}
	if !exists {
		return "", &operrors.UnableToResolveS3Resource{Cause: errNotFoundInBucket(key)}
	}
	return downloadToTemp(ctx, e.ObjectStore, key)
}

func errNotFoundInBucket(key string) error {
	return fmt.Errorf("object %q not found in bucket", key)
}

// downloadToTemp pulls key from store into a process-local temp file,
// returning its path for flinkrest.Client.UploadJar's multipart read.
func downloadToTemp(ctx context.Context, store ObjectStore, key string) (string, error) {
	body, err := store.Get(ctx, key)
	if err != nil {
		return "", &operrors.UnableToResolveS3Resource{Cause: err}
	}
	defer body.Close()

	f, err := os.CreateTemp("", "potamoi-jar-*.jar")
	if err != nil {
		return "", &operrors.IOErr{Msg: "create temp file for " + key, Cause: err}
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		return "", &operrors.IOErr{Msg: "download " + key, Cause: err}
	}
	return f.Name(), nil
}

func joinArgs(args []string) string {
	return strings.Join(args, " ")
}
