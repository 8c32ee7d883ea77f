// Package config loads the Operator's process configuration: the
// viper-bound counterpart to clusterdef.PotaConf plus this node's
// cluster-membership settings. Configuration-file parsing itself
// (YAML/ENV sourcing, precedence rules) is viper's concern; the rest of
// the repo only consumes the loaded OperatorConf struct.
package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Al-assad/potamoi-experiment/internal/clusterdef"
	"github.com/Al-assad/potamoi-experiment/internal/rawconfig"
)

// NodeConf describes this process's identity within the Operator's
// cluster-sharded tracker fleet.
type NodeConf struct {
	// Addr is this node's unique cluster address, used to tag kvstore
	// writes. Left empty, the serve command
	// mints one with google/uuid.
	Addr string
	// GossipListenAddr is the local address the kvstore gossip HTTP
	// server (internal/kvstore.Server) binds.
	GossipListenAddr string
	// Peers lists other nodes' gossip base URLs this node replicates to.
	Peers []string
	// Role is this node's role; Load always sets it to "FlinkOperator"
	// (sharding.FlinkOperatorRole). It is logged at startup; nothing checks
	// it before this node hosts trackers.
	Role string
}

// OperatorConf is the fully-loaded ambient configuration: this node's
// identity plus the Flink-facing PotaConf defaults the Resolver,
// Pod Template Generator, and Submission Engine consult.
type OperatorConf struct {
	Node NodeConf
	Pota clusterdef.PotaConf

	// LogLevel selects the zap level the cmd/operator entrypoint builds
	// its logr.Logger from ("debug", "info", "warn", "error").
	LogLevel string
	// KubeconfigPath is passed to clientcmd when set; empty means
	// in-cluster config.
	KubeconfigPath string
}

// BindFlags registers the persistent flags and binds them into viper, so
// CLI flags, a config file, and POTAMOI_-prefixed env vars all resolve
// into the same keys.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.String("node-addr", "", "this node's unique cluster address (default: a generated uuid)")
	flags.String("gossip-listen-addr", ":7070", "address the kvstore gossip server binds")
	flags.StringSlice("peers", nil, "other nodes' gossip base URLs (http://host:port)")
	flags.String("kubeconfig", "", "path to kubeconfig (default: in-cluster config)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("local-tmp-dir", "/tmp/potamoi", "root of the per-cluster local workspace tree")
	flags.Int("ask-timeout-ms", 5000, "timeout (ms) for cross-entity asks and replicated-store requests")
	flags.Int("spt-trigger-poll-interval-ms", 2000, "savepoint-trigger watch poll interval (ms)")
	flags.String("flink-k8s-account", "", "default kubernetes.jobmanager.service-account")
	flags.String("s3-endpoint", "", "operator's own S3-compatible endpoint")
	flags.String("s3-access-key", "", "")
	flags.String("s3-secret-key", "", "")
	flags.String("s3-bucket", "", "bucket the Object Store Collaborator reads/writes")
	flags.Bool("s3-path-style-access", true, "use path-style S3 addressing")

	_ = v.BindPFlag("node.addr", flags.Lookup("node-addr"))
	_ = v.BindPFlag("node.gossip_listen_addr", flags.Lookup("gossip-listen-addr"))
	_ = v.BindPFlag("node.peers", flags.Lookup("peers"))
	_ = v.BindPFlag("kubeconfig_path", flags.Lookup("kubeconfig"))
	_ = v.BindPFlag("log_level", flags.Lookup("log-level"))
	_ = v.BindPFlag("pota.local_tmp_dir", flags.Lookup("local-tmp-dir"))
	_ = v.BindPFlag("pota.ask_timeout_ms", flags.Lookup("ask-timeout-ms"))
	_ = v.BindPFlag("pota.spt_trigger_poll_interval_ms", flags.Lookup("spt-trigger-poll-interval-ms"))
	_ = v.BindPFlag("pota.flink.k8s_account", flags.Lookup("flink-k8s-account"))
	_ = v.BindPFlag("pota.s3.endpoint", flags.Lookup("s3-endpoint"))
	_ = v.BindPFlag("pota.s3.access_key", flags.Lookup("s3-access-key"))
	_ = v.BindPFlag("pota.s3.secret_key", flags.Lookup("s3-secret-key"))
	_ = v.BindPFlag("pota.s3.bucket", flags.Lookup("s3-bucket"))
	_ = v.BindPFlag("pota.s3.path_style_access", flags.Lookup("s3-path-style-access"))

	v.SetEnvPrefix("potamoi")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads v's bound settings into an OperatorConf.
func Load(v *viper.Viper) OperatorConf {
	pathStyle := v.GetBool("pota.s3.path_style_access")
	return OperatorConf{
		Node: NodeConf{
			Addr:             v.GetString("node.addr"),
			GossipListenAddr: v.GetString("node.gossip_listen_addr"),
			Peers:            v.GetStringSlice("node.peers"),
			Role:             "FlinkOperator",
		},
		Pota: clusterdef.PotaConf{
			Flink: clusterdef.FlinkPotaConf{
				K8sAccount: v.GetString("pota.flink.k8s_account"),
			},
			S3: clusterdef.S3PotaConf{
				S3AccessConf: rawconfig.S3AccessConf{
					Endpoint:        v.GetString("pota.s3.endpoint"),
					AccessKey:       v.GetString("pota.s3.access_key"),
					SecretKey:       v.GetString("pota.s3.secret_key"),
					PathStyleAccess: &pathStyle,
				},
				Bucket: v.GetString("pota.s3.bucket"),
			},
			LocalTmpDir:              v.GetString("pota.local_tmp_dir"),
			AskTimeoutMs:             v.GetInt("pota.ask_timeout_ms"),
			SptTriggerPollIntervalMs: v.GetInt("pota.spt_trigger_poll_interval_ms"),
		},
		LogLevel:       v.GetString("log_level"),
		KubeconfigPath: v.GetString("kubeconfig_path"),
	}
}
