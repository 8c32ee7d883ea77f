package rawconfig

import "github.com/Al-assad/potamoi-experiment/internal/pathutil"

// CpuConf holds per-component CPU factors. Each value must be >0 else it
// defaults to 1.0.
//
// NOTE: RawMapping emits the key "kubernetes.taskmanager.cpu" twice, once
// for JM and once for TM; the later append wins so the TM value takes
// effect. The first entry should probably read
// "kubernetes.jobmanager.cpu" instead — changing it alters every resolved
// cluster config, so it needs its own coordinated rollout.
type CpuConf struct {
	Jm       float64
	Tm       float64
	JmFactor float64
	TmFactor float64
}

func (c CpuConf) RawMapping() []Entry {
	jm := pathutil.PositiveFloatOrDefault(c.Jm, 1.0)
	tm := pathutil.PositiveFloatOrDefault(c.Tm, 1.0)
	jmFactor := pathutil.PositiveFloatOrDefault(c.JmFactor, 1.0)
	tmFactor := pathutil.PositiveFloatOrDefault(c.TmFactor, 1.0)
	return []Entry{
		{Key: "kubernetes.taskmanager.cpu", Value: jm},
		{Key: "kubernetes.taskmanager.cpu-limit-factor", Value: jmFactor},
		{Key: "kubernetes.taskmanager.cpu", Value: tm},
		{Key: "kubernetes.taskmanager.cpu-limit-factor", Value: tmFactor},
	}
}

// MemConf holds per-component memory sizes in MB. Each value must be >0
// else it defaults to 1920.
type MemConf struct {
	JmMB float64
	TmMB float64
}

func (m MemConf) RawMapping() []Entry {
	jm := pathutil.PositiveFloatOrDefault(m.JmMB, 1920)
	tm := pathutil.PositiveFloatOrDefault(m.TmMB, 1920)
	return []Entry{
		{Key: "jobmanager.memory.process.size", Value: memString(jm)},
		{Key: "taskmanager.memory.process.size", Value: memString(tm)},
	}
}

func memString(mb float64) string {
	return pathutil.FormatFloat(mb) + "m"
}

// ParConf holds parallelism settings; each is lower-bounded to 1.
type ParConf struct {
	NumOfSlot  int
	ParDefault int
}

func (p ParConf) RawMapping() []Entry {
	return []Entry{
		{Key: "taskmanager.numberOfTaskSlots", Value: pathutil.AtLeast(p.NumOfSlot, 1)},
		{Key: "parallelism.default", Value: pathutil.AtLeast(p.ParDefault, 1)},
	}
}

// WebUIConf toggles the Flink web UI's submit/cancel affordances.
type WebUIConf struct {
	EnableSubmit bool
	EnableCancel bool
}

func (w WebUIConf) RawMapping() []Entry {
	return []Entry{
		{Key: "web.submit.enable", Value: w.EnableSubmit},
		{Key: "web.cancel.enable", Value: w.EnableCancel},
	}
}

// RestartStgKind discriminates the RestartStgConf sum type's variants.
type RestartStgKind int

const (
	RestartNonRestart RestartStgKind = iota
	RestartFixedDelay
	RestartFailureRate
)

// RestartStgConf is the sum type NonRestart | FixedDelay | FailureRate.
type RestartStgConf struct {
	Kind RestartStgKind

	// FixedDelay fields.
	Attempts int
	DelaySec int

	// FailureRate fields.
	MaxFailuresPerInterval int
	FailureRateIntervalSec int
	FailureRateDelaySec    int
}

func (r RestartStgConf) RawMapping() []Entry {
	switch r.Kind {
	case RestartNonRestart:
		return []Entry{{Key: "restart-strategy", Value: "none"}}
	case RestartFixedDelay:
		return []Entry{
			{Key: "restart-strategy", Value: "fixed-delay"},
			{Key: "restart-strategy.fixed-delay.attempts", Value: pathutil.AtLeast(r.Attempts, 1)},
			{Key: "restart-strategy.fixed-delay.delay", Value: secString(pathutil.AtLeast(r.DelaySec, 1))},
		}
	case RestartFailureRate:
		return []Entry{
			{Key: "restart-strategy", Value: "failure-rate"},
			{Key: "restart-strategy.failure-rate.max-failures-per-interval", Value: pathutil.AtLeast(r.MaxFailuresPerInterval, 1)},
			{Key: "restart-strategy.failure-rate.failure-rate-interval", Value: secString(pathutil.AtLeast(r.FailureRateIntervalSec, 1))},
			{Key: "restart-strategy.failure-rate.delay", Value: secString(pathutil.AtLeast(r.FailureRateDelaySec, 1))},
		}
	default:
		return nil
	}
}

func secString(n int) string {
	return pathutil.FormatFloat(float64(n)) + "s"
}

// BackendType enumerates StateBackendConf.BackendType.
type BackendType string

const (
	BackendHashmap BackendType = "hashmap"
	BackendRocksdb BackendType = "rocksdb"
)

// CheckpointStorage enumerates StateBackendConf.CheckpointStorage.
type CheckpointStorage string

const (
	CheckpointJobmanager CheckpointStorage = "jobmanager"
	CheckpointFilesystem CheckpointStorage = "filesystem"
)

// StateBackendConf configures the Flink state backend and its checkpoint
// storage. CheckpointDir/SavepointDir are optional (nil when unset).
type StateBackendConf struct {
	BackendType           BackendType
	CheckpointStorage     CheckpointStorage
	CheckpointDir         *string
	SavepointDir          *string
	Incremental           bool
	LocalRecovery         bool
	CheckpointNumRetained int
}

func (s StateBackendConf) RawMapping() []Entry {
	return []Entry{
		{Key: "state.backend", Value: string(s.BackendType)},
		{Key: "state.checkpoint-storage", Value: string(s.CheckpointStorage)},
		{Key: "state.checkpoints.dir", Value: s.CheckpointDir},
		{Key: "state.savepoints.dir", Value: s.SavepointDir},
		{Key: "state.backend.incremental", Value: s.Incremental},
		{Key: "state.backend.local-recovery", Value: s.LocalRecovery},
		{Key: "state.checkpoints.num-retained", Value: pathutil.AtLeast(s.CheckpointNumRetained, 1)},
	}
}

// JmHaConf configures JobManager high availability.
type JmHaConf struct {
	HaImplClz  string
	StorageDir string
	ClusterId  *string
}

func (j JmHaConf) RawMapping() []Entry {
	return []Entry{
		{Key: "high-availability", Value: j.HaImplClz},
		{Key: "high-availability.storageDir", Value: j.StorageDir},
		{Key: "high-availability.cluster-id", Value: j.ClusterId},
	}
}

// S3AccessConf configures access to an S3-compatible endpoint. It has two
// emission flavors, selected by the caller: S3pRawMapping (hive.s3.*, aka
// "presto") and S3aRawMapping (fs.s3a.*, aka "hadoop").
type S3AccessConf struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	PathStyleAccess *bool
	SslEnabled      *bool
}

// S3pRawMapping emits the presto-S3-plugin (hive.s3.*) flavor.
func (s S3AccessConf) S3pRawMapping() []Entry {
	return []Entry{
		{Key: "hive.s3.endpoint", Value: s.Endpoint},
		{Key: "hive.s3.aws-access-key", Value: s.AccessKey},
		{Key: "hive.s3.aws-secret-key", Value: s.SecretKey},
		{Key: "hive.s3.path-style-access", Value: s.PathStyleAccess},
		{Key: "hive.s3.ssl.enabled", Value: s.SslEnabled},
	}
}

// S3aRawMapping emits the hadoop-S3-plugin (fs.s3a.*) flavor.
func (s S3AccessConf) S3aRawMapping() []Entry {
	return []Entry{
		{Key: "fs.s3a.endpoint", Value: s.Endpoint},
		{Key: "fs.s3a.access.key", Value: s.AccessKey},
		{Key: "fs.s3a.secret.key", Value: s.SecretKey},
		{Key: "fs.s3a.path.style.access", Value: s.PathStyleAccess},
		{Key: "fs.s3a.connection.ssl.enabled", Value: s.SslEnabled},
	}
}

// RestoreMode enumerates SavepointRestoreConf.Mode.
type RestoreMode string

const (
	RestoreClaim   RestoreMode = "CLAIM"
	RestoreNoClaim RestoreMode = "NO_CLAIM"
	RestoreLegacy  RestoreMode = "LEGACY"
)

// SavepointRestoreConf configures restoring a job from a savepoint.
type SavepointRestoreConf struct {
	Path                  string
	AllowNonRestoredState bool
	Mode                  RestoreMode
}

func (r SavepointRestoreConf) RawMapping() []Entry {
	return []Entry{
		{Key: "execution.savepoint.path", Value: r.Path},
		{Key: "execution.savepoint.ignore-unclaimed-state", Value: r.AllowNonRestoredState},
		{Key: "execution.savepoint-restore-mode", Value: string(r.Mode)},
	}
}
