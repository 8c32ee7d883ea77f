// Package fcid defines the Flink-cluster and Flink-job identity types used
// throughout the Operator, and their marshaling to shard-entity keys.
package fcid

import (
	"fmt"
	"strings"
)

// entityKeyPrefix tags marshaled shard-entity keys so they can be told
// apart from other entity kinds sharing the same cluster-sharding region.
const entityKeyPrefix = "jmMt@"

// Fcid is the primary identifier of a Flink cluster: unique within one
// Kubernetes cluster.
type Fcid struct {
	ClusterId string
	Namespace string
}

// New builds an Fcid, trimming surrounding whitespace from both fields.
func New(clusterId, namespace string) Fcid {
	return Fcid{ClusterId: strings.TrimSpace(clusterId), Namespace: strings.TrimSpace(namespace)}
}

// String renders the Fcid for logging; it is not the shard-entity key, see
// Marshal for that.
func (f Fcid) String() string {
	return fmt.Sprintf("%s/%s", f.Namespace, f.ClusterId)
}

// Marshal renders f as the single opaque string used by the sharding proxy
// to key entities: "jmMt@<clusterId>@<namespace>".
func (f Fcid) Marshal() string {
	return entityKeyPrefix + f.ClusterId + "@" + f.Namespace
}

// Unmarshal parses a string previously produced by Marshal. It is the
// inverse of Marshal: Unmarshal(Marshal(f)) == f for every Fcid f whose
// ClusterId/Namespace do not themselves contain "@".
func Unmarshal(key string) (Fcid, error) {
	rest, ok := strings.CutPrefix(key, entityKeyPrefix)
	if !ok {
		return Fcid{}, fmt.Errorf("fcid: malformed entity key %q: missing prefix %q", key, entityKeyPrefix)
	}
	parts := strings.SplitN(rest, "@", 2)
	if len(parts) != 2 {
		return Fcid{}, fmt.Errorf("fcid: malformed entity key %q: expected <clusterId>@<namespace>", key)
	}
	return Fcid{ClusterId: parts[0], Namespace: parts[1]}, nil
}

// Fjid identifies a single Flink job within a cluster.
type Fjid struct {
	Fcid  Fcid
	JobId string
}

// NewFjid builds an Fjid for the given cluster identity and job id.
func NewFjid(c Fcid, jobId string) Fjid {
	return Fjid{Fcid: c, JobId: strings.TrimSpace(jobId)}
}

func (j Fjid) String() string {
	return fmt.Sprintf("%s/job/%s", j.Fcid, j.JobId)
}
