package apify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"EventsDigest/internal/ports"
)

const (
	// DefaultBaseURL is the public Apify API.
	DefaultBaseURL = "https://api.apify.com"

	defaultRunTimeout = 5 * time.Minute
	maxWaitSeconds    = 60
)

// Run statuses that end polling.
const (
	StatusSucceeded = "SUCCEEDED"
	StatusFailed    = "FAILED"
	StatusTimedOut  = "TIMED-OUT"
	StatusAborted   = "ABORTED"
)

// Client runs Apify actors and reads their default dataset.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
}

var _ ports.EventCollector = (*Client)(nil)

type runEnvelope struct {
	Data run `json:"data"`
}

type run struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	DefaultDatasetID string `json:"defaultDatasetId"`
}

// NewClient wires the API token; baseURL defaults to DefaultBaseURL.
func NewClient(baseURL, token string, log *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		// Per-request deadlines come from the run timeout on ctx.
		http:   &http.Client{Timeout: (maxWaitSeconds + 30) * time.Second},
		logger: log,
	}
}

// Collect starts the actor, waits for it to finish and returns the dataset items.
func (c *Client) Collect(ctx context.Context, req ports.CollectRequest) ([]json.RawMessage, error) {
	if c.token == "" {
		return nil, fmt.Errorf("apify client misconfigured: empty token")
	}
	if req.ActorID == "" {
		return nil, fmt.Errorf("apify client: empty actor id")
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = defaultRunTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.debug("start actor", "actor", req.ActorID, "timeout", timeout)
	started, err := c.startRun(ctx, req.ActorID, req.Input, timeout)
	if err != nil {
		return nil, fmt.Errorf("start actor %s: %w", req.ActorID, err)
	}

	finished, err := c.waitRun(ctx, started)
	if err != nil {
		return nil, fmt.Errorf("wait run %s: %w", started.ID, err)
	}
	if finished.Status != StatusSucceeded {
		return nil, fmt.Errorf("actor %s run %s ended with status %s", req.ActorID, finished.ID, finished.Status)
	}
	if finished.DefaultDatasetID == "" {
		return nil, fmt.Errorf("actor %s run %s returned no dataset id", req.ActorID, finished.ID)
	}

	items, err := c.datasetItems(ctx, finished.DefaultDatasetID)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset %s: %w", finished.DefaultDatasetID, err)
	}

	c.debug("actor finished", "actor", req.ActorID, "run", finished.ID, "items", len(items))
	return items, nil
}

func (c *Client) startRun(ctx context.Context, actorID string, input map[string]any, timeout time.Duration) (run, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return run{}, fmt.Errorf("marshal input: %w", err)
	}

	q := url.Values{}
	q.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	q.Set("waitForFinish", strconv.Itoa(maxWaitSeconds))
	endpoint := fmt.Sprintf("%s/v2/acts/%s/runs?%s", c.baseURL, ActorPath(actorID), q.Encode())

	var env runEnvelope
	if err := c.do(ctx, http.MethodPost, endpoint, body, &env); err != nil {
		return run{}, err
	}
	return env.Data, nil
}

func (c *Client) waitRun(ctx context.Context, r run) (run, error) {
	for !terminal(r.Status) {
		if r.ID == "" {
			return run{}, fmt.Errorf("run has no id")
		}
		endpoint := fmt.Sprintf("%s/v2/actor-runs/%s?waitForFinish=%d", c.baseURL, url.PathEscape(r.ID), maxWaitSeconds)

		var env runEnvelope
		if err := c.do(ctx, http.MethodGet, endpoint, nil, &env); err != nil {
			return run{}, err
		}
		r = env.Data
		c.debug("run status", "run", r.ID, "status", r.Status)
	}
	return r, nil
}

func (c *Client) datasetItems(ctx context.Context, datasetID string) ([]json.RawMessage, error) {
	endpoint := fmt.Sprintf("%s/v2/datasets/%s/items?format=json&clean=true", c.baseURL, url.PathEscape(datasetID))

	var items []json.RawMessage
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload []byte, v any) error {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("apify error %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ActorPath converts "user/actor" into the "user~actor" form used in API paths.
func ActorPath(actorID string) string {
	return url.PathEscape(strings.ReplaceAll(actorID, "/", "~"))
}

func terminal(status string) bool {
	switch status {
	case StatusSucceeded, StatusFailed, StatusTimedOut, StatusAborted:
		return true
	default:
		return false
	}
}

func (c *Client) debug(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
