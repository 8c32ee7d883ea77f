package tracker

import "strconv"

// Every observation snapshot carries the epoch-millis timestamp of the
// write that produced it; between successive refreshes the cached
// snapshot's Ts is non-decreasing.

// JmMetrics is the JobManager metrics snapshot.
type JmMetrics struct {
	Values map[string]string
	Ts     int64
}

// TmMetric is one TaskManager's metrics snapshot entry.
type TmMetric struct {
	TaskManagerID string
	Values        map[string]string
}

// TmMetricsList is the TaskManager metrics snapshot.
type TmMetricsList struct {
	Items []TmMetric
	Ts    int64
}

// JobOverview is one job's overview row.
type JobOverview struct {
	JobID     string
	Name      string
	State     string
	StartTime int64
}

// JobOverviewList is the jobs-overview snapshot.
type JobOverviewList struct {
	Items []JobOverview
	Ts    int64
}

// JobMetrics is one job's metrics snapshot entry.
type JobMetrics struct {
	JobID  string
	Values map[string]string
}

// JobMetricsList is the per-job metrics snapshot.
type JobMetricsList struct {
	Items []JobMetrics
	Ts    int64
}

// DeploymentSnap mirrors a Kubernetes Deployment's coarse status.
type DeploymentSnap struct {
	Name              string
	Replicas          int32
	ReadyReplicas     int32
	AvailableReplicas int32
	Ts                int64
}

// ServiceSnap mirrors a Kubernetes Service's relevant addressing fields.
type ServiceSnap struct {
	Name      string
	ClusterIP string
	Ts        int64
}

// ServiceSnapList is a collection of ServiceSnap sharing one write.
type ServiceSnapList struct {
	Items []ServiceSnap
	Ts    int64
}

// PodSnap mirrors a Kubernetes Pod's coarse status.
type PodSnap struct {
	Name  string
	Phase string
	PodIP string
	Ts    int64
}

// PodSnapList is a collection of PodSnap sharing one write.
type PodSnapList struct {
	Items []PodSnap
	Ts    int64
}

// RestSvcEndpoint is the resolved Flink REST endpoint for a cluster.
type RestSvcEndpoint struct {
	ClusterIP   string
	ClusterPort int32
	PodIP       string
	Dns         string
	Ts          int64
}

// BaseURL renders the endpoint's Flink REST base URL.
func (e RestSvcEndpoint) BaseURL() string {
	return "http://" + e.ClusterIP + ":" + strconv.Itoa(int(e.ClusterPort))
}
