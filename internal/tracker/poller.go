package tracker

import (
	"context"

	"github.com/Al-assad/potamoi-experiment/internal/flinkrest"
)

// JmMetricKeys are the JobManager metric keys a JmMetricTracker polls
// when none are configured explicitly.
var JmMetricKeys = []string{"numRunningJobs", "numRegisteredTaskManagers", "taskSlotsTotal", "taskSlotsAvailable"}

// TmMetricKeys are the TaskManager metric keys a TmMetricsTracker polls.
var TmMetricKeys = []string{"Status.JVM.Memory.Heap.Used", "Status.JVM.CPU.Load"}

// JmMetricsPoller builds the Poller for a JobManager metrics tracker
// (GET /jobmanager/metrics?get=<keys>).
func JmMetricsPoller(client *flinkrest.Client, keys []string) Poller[JmMetrics] {
	if keys == nil {
		keys = JmMetricKeys
	}
	return func(ctx context.Context, endpoint RestSvcEndpoint) (JmMetrics, error) {
		values, err := client.JmMetrics(ctx, endpoint.BaseURL(), keys)
		if err != nil {
			return JmMetrics{}, err
		}
		return JmMetrics{Values: values}, nil
	}
}

// TmMetricsPoller builds the Poller for a TaskManager metrics tracker
// (GET /taskmanagers, then /taskmanagers/<id>/metrics?get=<keys> per
// TaskManager).
func TmMetricsPoller(client *flinkrest.Client, keys []string) Poller[TmMetricsList] {
	if keys == nil {
		keys = TmMetricKeys
	}
	return func(ctx context.Context, endpoint RestSvcEndpoint) (TmMetricsList, error) {
		ids, err := client.TaskManagerIds(ctx, endpoint.BaseURL())
		if err != nil {
			return TmMetricsList{}, err
		}
		items := make([]TmMetric, 0, len(ids))
		for _, id := range ids {
			values, err := client.TmMetrics(ctx, endpoint.BaseURL(), id, keys)
			if err != nil {
				return TmMetricsList{}, err
			}
			items = append(items, TmMetric{TaskManagerID: id, Values: values})
		}
		return TmMetricsList{Items: items}, nil
	}
}

// JobsOverviewPoller builds the Poller for a jobs tracker
// (GET /jobs/overview).
func JobsOverviewPoller(client *flinkrest.Client) Poller[JobOverviewList] {
	return func(ctx context.Context, endpoint RestSvcEndpoint) (JobOverviewList, error) {
		rows, err := client.JobsOverview(ctx, endpoint.BaseURL())
		if err != nil {
			return JobOverviewList{}, err
		}
		items := make([]JobOverview, 0, len(rows))
		for _, r := range rows {
			items = append(items, JobOverview{JobID: r.JobID, Name: r.Name, State: r.State, StartTime: r.StartTime})
		}
		return JobOverviewList{Items: items}, nil
	}
}
