package resolver

import (
	"strconv"
	"strings"

	"github.com/Al-assad/potamoi-experiment/internal/clusterdef"
	"github.com/Al-assad/potamoi-experiment/internal/operrors"
	"github.com/Al-assad/potamoi-experiment/internal/pathutil"
)

// reservedKeys is the set of Flink config keys a cluster definition's
// extRawConfigs may never override; the resolver
// always computes these itself from structured fields.
var reservedKeys = map[string]bool{
	"execution.target":                         true,
	"kubernetes.cluster-id":                    true,
	"kubernetes.namespace":                     true,
	"kubernetes.container.image":               true,
	"kubernetes.service-account":               true,
	"kubernetes.jobmanager.service-account":    true,
	"kubernetes.pod-template-file":             true,
	"kubernetes.pod-template-file.taskmanager": true,
	"kubernetes.pod-template-file.jobmanager":  true,
	"$internal.deployment.config-dir":          true,
	"pipeline.jars":                            true,
	"$internal.application.main":               true,
	"$internal.application.program-args":       true,
}

// Revise validates and normalizes a cluster definition through a
// five-stage pipeline, in order. Revise is pure and idempotent:
// Revise(Revise(def)) == Revise(def).
func Revise(def clusterdef.FlinkClusterDef) (clusterdef.FlinkClusterDef, error) {
	out := def

	// Stage 1: reject reserved keys from extRawConfigs.
	out.ExtRawConfigs = filterReservedKeys(def.ExtRawConfigs)

	// Stage 2: normalize builtInPlugins.
	out.BuiltInPlugins = normalizeBuiltInPlugins(def.BuiltInPlugins, def.FlinkVer)

	// Stage 3: rewrite S3 paths to s3p://.
	out = rewriteS3Paths(out)

	// Stage 4: ensure S3 plugins.
	out.BuiltInPlugins = ensureS3Plugins(out)

	// Stage 5: ensure Hadoop plugins (reserved; currently identity).
	out.BuiltInPlugins = ensureHadoopPlugins(out.BuiltInPlugins)

	return out, nil
}

// filterReservedKeys implements stage 1: trim keys/values, drop empty,
// drop any whose key is reserved.
func filterReservedKeys(raw map[string]string) map[string]string {
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		key := strings.TrimSpace(k)
		val := strings.TrimSpace(v)
		if key == "" || val == "" {
			continue
		}
		if reservedKeys[key] {
			continue
		}
		out[key] = val
	}
	return out
}

// rewriteS3Paths implements stage 3: every checkpointDir, savepointDir,
// jmHa.storageDir, each injectedDep, and (Application variant only)
// jobJar whose scheme is an S3 scheme is rewritten to s3p://.
func rewriteS3Paths(def clusterdef.FlinkClusterDef) clusterdef.FlinkClusterDef {
	if def.StateBackend != nil {
		sb := *def.StateBackend
		if sb.CheckpointDir != nil {
			rewritten := pathutil.ReviseToS3pSchema(*sb.CheckpointDir)
			sb.CheckpointDir = &rewritten
		}
		if sb.SavepointDir != nil {
			rewritten := pathutil.ReviseToS3pSchema(*sb.SavepointDir)
			sb.SavepointDir = &rewritten
		}
		def.StateBackend = &sb
	}
	if def.JmHa != nil {
		ha := *def.JmHa
		ha.StorageDir = pathutil.ReviseToS3pSchema(ha.StorageDir)
		def.JmHa = &ha
	}
	if len(def.InjectedDeps) > 0 {
		deps := make([]string, len(def.InjectedDeps))
		for i, d := range def.InjectedDeps {
			deps[i] = pathutil.ReviseToS3pSchema(d)
		}
		def.InjectedDeps = deps
	}
	if def.IsApplication() && def.JobJar != "" {
		def.JobJar = pathutil.ReviseToS3pSchema(def.JobJar)
	}
	return def
}

// IsS3Required reports whether any of
// stateBackend.{checkpointDir,savepointDir}, jmHa.storageDir, any
// injectedDep, or (Application) jobJar is an S3 path.
func IsS3Required(def clusterdef.FlinkClusterDef) bool {
	if def.StateBackend != nil {
		if def.StateBackend.CheckpointDir != nil && pathutil.IsS3Path(*def.StateBackend.CheckpointDir) {
			return true
		}
		if def.StateBackend.SavepointDir != nil && pathutil.IsS3Path(*def.StateBackend.SavepointDir) {
			return true
		}
	}
	if def.JmHa != nil && pathutil.IsS3Path(def.JmHa.StorageDir) {
		return true
	}
	for _, d := range def.InjectedDeps {
		if pathutil.IsS3Path(d) {
			return true
		}
	}
	if def.IsApplication() && pathutil.IsS3Path(def.JobJar) {
		return true
	}
	return false
}

// ensureS3Plugins implements stage 4: if S3 is required and
// the presto-S3 plugin JAR is absent, add it; if def.S3 is defined and no
// hadoop-S3 plugin JAR is already present, add it.
func ensureS3Plugins(def clusterdef.FlinkClusterDef) []string {
	plugins := def.BuiltInPlugins
	if IsS3Required(def) {
		plugins = ensureJarPresent(plugins, prestoS3Plugin.jarName(def.FlinkVer))
	}
	if def.S3 != nil {
		plugins = ensureJarPresent(plugins, hadoopS3Plugin.jarName(def.FlinkVer))
	}
	return plugins
}

// ensureHadoopPlugins is stage 5: reserved, currently identity.
func ensureHadoopPlugins(plugins []string) []string {
	return plugins
}

// ToFlinkRawConfig composes the final Configuration from a revised
// definition. The append order is fixed: identity keys first, then the
// fragment mappings, then S3 access, plugins, Application extras, and
// finally extRawConfigs, which therefore win over every default except
// the reserved keys stage 1 already stripped. def must already have been
// through Revise.
func ToFlinkRawConfig(def clusterdef.FlinkClusterDef, pota clusterdef.PotaConf) (*Configuration, error) {
	cfg := NewConfiguration()

	cfg.Append("execution.target", string(def.Mode))
	cfg.Append("kubernetes.cluster-id", def.Fcid.ClusterId)
	cfg.Append("kubernetes.namespace", def.Fcid.Namespace)
	cfg.Append("kubernetes.container.image", def.Image)

	k8sAccount := def.K8sAccount
	if k8sAccount == nil || *k8sAccount == "" {
		acct := pota.Flink.K8sAccount
		k8sAccount = &acct
	}
	cfg.Append("kubernetes.jobmanager.service-account", k8sAccount)
	cfg.Append("kubernetes.rest-service.exposed.type", string(def.RestExportType))
	cfg.Append("blob.server.port", strconv.Itoa(6124))
	cfg.Append("taskmanager.rpc.port", strconv.Itoa(6122))

	cfg.AppendFragment(def.Cpu)
	cfg.AppendFragment(def.Mem)
	cfg.AppendFragment(def.Par)
	cfg.AppendFragment(def.WebUI)
	cfg.AppendFragment(def.RestartStg)
	if def.StateBackend != nil {
		cfg.AppendFragment(*def.StateBackend)
	}
	if def.JmHa != nil {
		cfg.AppendFragment(*def.JmHa)
	}

	s3Required := IsS3Required(def)
	if s3Required {
		cfg.AppendEntries(pota.S3.S3pRawMapping())
	}
	if def.S3 != nil {
		cfg.AppendEntries(def.S3.S3aRawMapping())
	}

	if len(def.BuiltInPlugins) > 0 {
		joined := strings.Join(def.BuiltInPlugins, ";")
		cfg.Append("containerized.master.env.ENABLE_BUILT_IN_PLUGINS", joined)
		cfg.Append("containerized.taskmanager.env.ENABLE_BUILT_IN_PLUGINS", joined)
	}

	if def.IsApplication() {
		jarValue := def.JobJar
		if pathutil.IsS3Path(def.JobJar) {
			jarValue = "local:///opt/flink/lib/" + pathutil.Basename(def.JobJar)
		}
		cfg.Append("pipeline.jars", jarValue)
		cfg.Append("pipeline.name", def.JobName)
		cfg.Append("$internal.application.main", def.AppMain)
		cfg.Append("$internal.application.program-args", def.AppArgs)
		if def.Restore != nil {
			cfg.AppendFragment(*def.Restore)
		}
	}

	for _, k := range sortedKeys(def.ExtRawConfigs) {
		cfg.Append(k, def.ExtRawConfigs[k])
	}

	return cfg, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	// Deterministic order for reproducible emission; extRawConfigs never
	// collides with a reserved key (stage 1 already stripped those), so
	// their relative order carries no semantics.
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}

// wrap helpers let callers turn a Revise/ToFlinkRawConfig usage site's
// error into the structured error taxonomy without every call site
// re-deriving the wrapper type.

// WrapReviseErr wraps err (if non-nil) as a ReviseFlinkClusterDefErr.
func WrapReviseErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &operrors.ReviseFlinkClusterDefErr{Stage: stage, Cause: err}
}

// WrapEmitErr wraps err (if non-nil) as a DryToFlinkRawConfigErr.
func WrapEmitErr(id clusterdef.FlinkClusterDef, err error) error {
	if err == nil {
		return nil
	}
	return &operrors.DryToFlinkRawConfigErr{Fcid: id.Fcid, Cause: err}
}
