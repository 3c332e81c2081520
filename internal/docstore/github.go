package docstore

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultGitHubBaseURL = "https://api.github.com"
	githubAPIVersion     = "2022-11-28"
)

// GitHubConfig configures a GitHubBackend.
type GitHubConfig struct {
	// Token is a personal access token with contents permission on Repo.
	Token string
	// Repo is the "owner/name" of the repository holding the document.
	Repo string
	// BaseURL overrides the GitHub API endpoint, mainly for tests and
	// GitHub Enterprise installs. Empty means api.github.com.
	BaseURL string
	// Timeout bounds each API round trip. Zero means 30 seconds.
	Timeout time.Duration
	// RequestsPerSecond paces API calls below GitHub's secondary rate
	// limits. Zero means 2 requests per second.
	RequestsPerSecond float64
}

// GitHubBackend stores the document as a single file in a GitHub repository
// through the contents API. The blob SHA is the version token: every update
// carries the SHA it was read at and GitHub rejects stale writes with 409.
type GitHubBackend struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	repo    string
	token   string
}

// NewGitHubBackend creates a backend against the configured repository.
func NewGitHubBackend(cfg GitHubConfig) *GitHubBackend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultGitHubBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}

	return &GitHubBackend{
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		repo:    cfg.Repo,
		token:   cfg.Token,
	}
}

type githubContent struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type githubWriteRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
}

type githubWriteResponse struct {
	Content githubContent `json:"content"`
}

// Get implements Backend.
func (b *GitHubBackend) Get(ctx context.Context, path string) ([]byte, VersionToken, error) {
	status, body, err := b.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", &BackendUnavailableError{Op: "get", Err: err}
	}

	switch status {
	case http.StatusOK:
		var content githubContent
		if err := json.Unmarshal(body, &content); err != nil {
			return nil, "", &BackendUnavailableError{Op: "get", Err: fmt.Errorf("unexpected contents payload: %w", err)}
		}
		data, err := decodeGitHubContent(content)
		if err != nil {
			return nil, "", &BackendUnavailableError{Op: "get", Err: err}
		}
		return data, VersionToken(content.SHA), nil
	case http.StatusNotFound:
		return nil, "", ErrNotFound
	default:
		return nil, "", &BackendUnavailableError{Op: "get", Err: githubStatusError(status, body)}
	}
}

// Put implements Backend.
func (b *GitHubBackend) Put(ctx context.Context, path string, data []byte, token VersionToken) (VersionToken, error) {
	payload := githubWriteRequest{
		Message: "newsroom: update document",
		Content: base64.StdEncoding.EncodeToString(data),
		SHA:     string(token),
	}
	status, body, err := b.do(ctx, http.MethodPut, path, payload)
	if err != nil {
		return "", &BackendUnavailableError{Op: "put", Err: err}
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
		return parseGitHubWriteToken(body, "put")
	case http.StatusConflict:
		return "", ErrVersionConflict
	case http.StatusNotFound:
		return "", ErrNotFound
	default:
		return "", &BackendUnavailableError{Op: "put", Err: githubStatusError(status, body)}
	}
}

// Create implements Backend.
func (b *GitHubBackend) Create(ctx context.Context, path string, data []byte) (VersionToken, error) {
	payload := githubWriteRequest{
		Message: "newsroom: create document",
		Content: base64.StdEncoding.EncodeToString(data),
	}
	status, body, err := b.do(ctx, http.MethodPut, path, payload)
	if err != nil {
		return "", &BackendUnavailableError{Op: "create", Err: err}
	}

	switch status {
	case http.StatusOK, http.StatusCreated:
		return parseGitHubWriteToken(body, "create")
	case http.StatusConflict, http.StatusUnprocessableEntity:
		// GitHub answers a sha-less write to an existing path with 422.
		return "", ErrAlreadyExists
	default:
		return "", &BackendUnavailableError{Op: "create", Err: githubStatusError(status, body)}
	}
}

func (b *GitHubBackend) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	if err := b.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, err
		}
		reqBody = bytes.NewReader(encoded)
	}

	endpoint := fmt.Sprintf("%s/repos/%s/contents/%s", b.baseURL, b.repo, escapeContentsPath(path))
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+b.token)
	req.Header.Set("X-GitHub-Api-Version", githubAPIVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

// escapeContentsPath escapes each path segment while keeping the separators,
// so nested namespaces stay addressable.
func escapeContentsPath(path string) string {
	segments := strings.Split(path, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func decodeGitHubContent(content githubContent) ([]byte, error) {
	if content.Encoding != "base64" {
		return nil, fmt.Errorf("unsupported content encoding %q", content.Encoding)
	}
	// GitHub wraps the base64 payload in newlines.
	compact := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, content.Content)
	data, err := base64.StdEncoding.DecodeString(compact)
	if err != nil {
		return nil, fmt.Errorf("decode base64 content: %w", err)
	}
	return data, nil
}

func parseGitHubWriteToken(body []byte, op string) (VersionToken, error) {
	var resp githubWriteResponse
	if err := json.Unmarshal(body, &resp); err != nil || resp.Content.SHA == "" {
		return "", &BackendUnavailableError{Op: op, Err: fmt.Errorf("write response carried no content sha")}
	}
	return VersionToken(resp.Content.SHA), nil
}

func githubStatusError(status int, body []byte) error {
	message := strings.TrimSpace(string(body))
	if len(message) > 200 {
		message = message[:200]
	}
	return fmt.Errorf("github api returned %d: %s", status, message)
}
