package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// ArtifactRef — ссылка на артефакт в ответах API.
type ArtifactRef struct {
	Path   string `json:"path,omitempty"`
	JobID  string `json:"job_id,omitempty"`
	Output string `json:"output,omitempty"`
}

// LaunchResponse — launch из API.
type LaunchResponse struct {
	ID             string              `json:"id"`
	RunID          string              `json:"run_id,omitempty"`
	Status         string              `json:"status"`
	Request        CreateLaunchRequest `json:"request"`
	TarballRef     ArtifactRef         `json:"tarball_ref"`
	StartedAt      string              `json:"started_at,omitempty"`
	FinishedAt     string              `json:"finished_at,omitempty"`
	Error          string              `json:"error,omitempty"`
	IdempotencyKey string              `json:"idempotency_key,omitempty"`
	CreatedAt      string              `json:"created_at"`
}

// JobResponse — job из API.
type JobResponse struct {
	ID         string         `json:"id"`
	LaunchID   string         `json:"launch_id"`
	Type       string         `json:"type"`
	Status     string         `json:"status"`
	Params     map[string]any `json:"params,omitempty"`
	Profile    string         `json:"profile,omitempty"`
	DependsOn  []string       `json:"depends_on,omitempty"`
	Gate       string         `json:"gate"`
	TopLevel   bool           `json:"top_level"`
	Attempt    int            `json:"attempt"`
	Outputs    map[string]any `json:"outputs,omitempty"`
	StartedAt  string         `json:"started_at,omitempty"`
	FinishedAt string         `json:"finished_at,omitempty"`
	Error      string         `json:"error,omitempty"`
	CreatedAt  string         `json:"created_at"`
}

// ArtifactResponse — зарегистрированный артефакт из API.
type ArtifactResponse struct {
	ID        string `json:"id"`
	JobID     string `json:"job_id"`
	Name      string `json:"name"`
	Path      string `json:"path"`
	Size      int64  `json:"size,omitempty"`
	CreatedAt string `json:"created_at"`
}

// --- Request types ---

// CreateLaunchRequest — создание launch.
// YAML-теги нужны для файла запроса (launch start -f request.yaml).
type CreateLaunchRequest struct {
	Manifest       string   `json:"manifest,omitempty" yaml:"manifest"`
	Parts          []string `json:"parts,omitempty" yaml:"parts"`
	RunInfo        string   `json:"run_info,omitempty" yaml:"run_info"`
	Workflow       string   `json:"workflow,omitempty" yaml:"workflow"`
	Consolidator   string   `json:"consolidator,omitempty" yaml:"consolidator"`
	Folder         string   `json:"folder,omitempty" yaml:"folder"`
	Center         string   `json:"center,omitempty" yaml:"center"`
	CredentialRef  string   `json:"credential_ref,omitempty" yaml:"credential_ref"`
	IdempotencyKey string   `json:"idempotency_key,omitempty" yaml:"idempotency_key"`
}

// ListLaunchesOpts — параметры фильтрации launches.
type ListLaunchesOpts struct {
	RunID  string
	Status string
	Limit  int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Lanekeeper API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Launches ---

// ListLaunches возвращает список launches с фильтрацией.
func (c *Client) ListLaunches(opts ListLaunchesOpts) ([]LaunchResponse, error) {
	params := url.Values{}
	if opts.RunID != "" {
		params.Set("run_id", opts.RunID)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}

	var launches []LaunchResponse
	err := c.list("/api/v1/launches", params, &launches)
	return launches, err
}

// CreateLaunch создаёт launch.
func (c *Client) CreateLaunch(req CreateLaunchRequest) (*LaunchResponse, error) {
	var launch LaunchResponse
	err := c.post("/api/v1/launches", req, &launch)
	return &launch, err
}

// GetLaunch возвращает launch по ID.
func (c *Client) GetLaunch(id string) (*LaunchResponse, error) {
	var launch LaunchResponse
	err := c.get("/api/v1/launches/"+id, &launch)
	return &launch, err
}

// ListJobs возвращает jobs для launch.
func (c *Client) ListJobs(launchID string) ([]JobResponse, error) {
	var jobs []JobResponse
	err := c.list("/api/v1/launches/"+launchID+"/jobs", nil, &jobs)
	return jobs, err
}

// --- Jobs ---

// GetJob возвращает job по ID.
func (c *Client) GetJob(id string) (*JobResponse, error) {
	var job JobResponse
	err := c.get("/api/v1/jobs/"+id, &job)
	return &job, err
}

// --- Artifacts ---

// ListArtifacts возвращает артефакты из реестра по префиксу пути.
func (c *Client) ListArtifacts(prefix string) ([]ArtifactResponse, error) {
	params := url.Values{}
	if prefix != "" {
		params.Set("prefix", prefix)
	}

	var artifacts []ArtifactResponse
	err := c.list("/api/v1/artifacts", params, &artifacts)
	return artifacts, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	return fmt.Errorf("%s: %s", er.Error.Code, er.Error.Message)
}
