// Package flinkrest implements the Flink REST API client shared by the
// tracker fleet, the Observer Facade, and the Submission Engine: one
// *http.Client with a fixed timeout and hand-rolled JSON decoding, since
// Flink's REST surface is small and stable enough that a generated
// client buys nothing.
package flinkrest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Al-assad/potamoi-experiment/internal/operrors"
)

// Client talks to one Flink cluster's REST API.
type Client struct {
	httpClient *http.Client
}

// NewClient returns a Client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// JmMetrics issues GET /jobmanager/metrics?get=<keys>.
func (c *Client) JmMetrics(ctx context.Context, baseURL string, keys []string) (map[string]string, error) {
	return c.metrics(ctx, baseURL+"/jobmanager/metrics", keys)
}

// TaskManagerIds issues GET /taskmanagers and returns their ids.
func (c *Client) TaskManagerIds(ctx context.Context, baseURL string) ([]string, error) {
	var resp struct {
		TaskManagers []struct {
			ID string `json:"id"`
		} `json:"taskmanagers"`
	}
	if err := c.getJSON(ctx, baseURL+"/taskmanagers", &resp); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.TaskManagers))
	for _, tm := range resp.TaskManagers {
		ids = append(ids, tm.ID)
	}
	return ids, nil
}

// TmMetrics issues GET /taskmanagers/<id>/metrics?get=<keys>.
func (c *Client) TmMetrics(ctx context.Context, baseURL, tmID string, keys []string) (map[string]string, error) {
	return c.metrics(ctx, fmt.Sprintf("%s/taskmanagers/%s/metrics", baseURL, tmID), keys)
}

func (c *Client) metrics(ctx context.Context, endpoint string, keys []string) (map[string]string, error) {
	u := endpoint
	if len(keys) > 0 {
		u += "?get=" + url.QueryEscape(strings.Join(keys, ","))
	}
	var raw []struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	}
	if err := c.getJSON(ctx, u, &raw); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for _, kv := range raw {
		out[kv.ID] = kv.Value
	}
	return out, nil
}

// JobIds issues GET /jobs and returns the overview's job ids.
func (c *Client) JobIds(ctx context.Context, baseURL string) ([]string, error) {
	var resp struct {
		Jobs []struct {
			ID string `json:"id"`
		} `json:"jobs"`
	}
	if err := c.getJSON(ctx, baseURL+"/jobs", &resp); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(resp.Jobs))
	for _, j := range resp.Jobs {
		ids = append(ids, j.ID)
	}
	return ids, nil
}

// JobOverview is one entry of GET /jobs/overview.
type JobOverview struct {
	JobID     string `json:"jid"`
	Name      string `json:"name"`
	State     string `json:"state"`
	StartTime int64  `json:"start-time"`
}

// JobsOverview issues GET /jobs/overview.
func (c *Client) JobsOverview(ctx context.Context, baseURL string) ([]JobOverview, error) {
	var resp struct {
		Jobs []JobOverview `json:"jobs"`
	}
	if err := c.getJSON(ctx, baseURL+"/jobs/overview", &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

// UploadJar issues POST /jars/upload (multipart, field "jarfile",
// content-type application/java-archive) and returns the jarId parsed
// from the returned filename's basename.
func (c *Client) UploadJar(ctx context.Context, baseURL, localPath string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", &operrors.IOErr{Msg: "open jar for upload " + localPath, Cause: err}
	}
	defer f.Close()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="jarfile"; filename="%s"`, filepath.Base(localPath)))
	header.Set("Content-Type", "application/java-archive")
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/jars/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp struct {
		Filename string `json:"filename"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return "", &operrors.RequestFlinkRestApiErr{Msg: err.Error()}
	}
	return filepath.Base(resp.Filename), nil
}

// RunJarRequest is the POST /jars/<jarId>/run body.
type RunJarRequest struct {
	EntryClass            string `json:"entry-class,omitempty"`
	ProgramArgs           string `json:"programArgs,omitempty"`
	Parallelism           int    `json:"parallelism,omitempty"`
	SavepointPath         string `json:"savepointPath,omitempty"`
	RestoreMode           string `json:"restoreMode,omitempty"`
	AllowNonRestoredState bool   `json:"allowNonRestoredState,omitempty"`
}

// RunJar issues POST /jars/<jarId>/run and returns the new job's id.
func (c *Client) RunJar(ctx context.Context, baseURL, jarId string, reqBody RunJarRequest) (string, error) {
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/jars/%s/run", baseURL, jarId), bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		JobID string `json:"jobid"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return "", &operrors.RequestFlinkRestApiErr{Msg: err.Error()}
	}
	return resp.JobID, nil
}

// DeleteJar issues DELETE /jars/<jarId>. Best-effort cleanup: callers
// ignore the error.
func (c *Client) DeleteJar(ctx context.Context, baseURL, jarId string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		fmt.Sprintf("%s/jars/%s", baseURL, jarId), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return nil
}

// StopJobRequest is the PATCH /jobs/<jobId>?mode=stop body.
type StopJobRequest struct {
	TargetDirectory string `json:"targetDirectory,omitempty"`
	DrainStream     bool   `json:"drain,omitempty"`
}

// StopJob issues PATCH /jobs/<jobId>?mode=stop and returns the returned
// request-id as the savepoint trigger id.
func (c *Client) StopJob(ctx context.Context, baseURL, jobId string, reqBody StopJobRequest) (string, error) {
	raw, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch,
		fmt.Sprintf("%s/jobs/%s?mode=stop", baseURL, jobId), bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp struct {
		RequestID string `json:"request-id"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return "", &operrors.RequestFlinkRestApiErr{Msg: err.Error()}
	}
	return resp.RequestID, nil
}

// TriggerState enumerates a savepoint trigger's lifecycle.
type TriggerState string

const (
	TriggerInProgress TriggerState = "IN_PROGRESS"
	TriggerCompleted  TriggerState = "COMPLETED"
	TriggerFailed     TriggerState = "FAILED"
)

// SavepointTriggerStatus issues GET
// /jobs/<jobId>/savepoints/<triggerId>.
func (c *Client) SavepointTriggerStatus(ctx context.Context, baseURL, jobId, triggerId string) (TriggerState, error) {
	var resp struct {
		Status struct {
			ID TriggerState `json:"id"`
		} `json:"status"`
	}
	if err := c.getJSON(ctx, fmt.Sprintf("%s/jobs/%s/savepoints/%s", baseURL, jobId, triggerId), &resp); err != nil {
		return "", err
	}
	return resp.Status.ID, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "potamoi-operator")
	if err := c.doJSON(req, out); err != nil {
		return &operrors.RequestFlinkRestApiErr{Msg: err.Error()}
	}
	return nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}
