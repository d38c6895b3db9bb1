package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Source is the abstract remote document store: a key-value read API
// keyed by rule path, bound to one ref at construction time. The engine
// is agnostic to transport and encoding beyond raw bytes plus a
// not-found signal.
type Source interface {
	// Fetch returns the raw bytes of the document at path.
	// A missing document yields a *NotFoundError; retryable failures
	// (network errors, 429, 5xx) yield a *TransientError.
	Fetch(ctx context.Context, path string) ([]byte, error)
}

// NotFoundError marks a permanently missing document. Never retried.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("rule content not found: %s", e.Path)
}

// IsNotFound reports whether err is a not-found signal.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// TransientError marks a retryable failure: network trouble, rate
// limiting, or a server-side error.
type TransientError struct {
	Path   string
	Status int // HTTP status when applicable, 0 otherwise
	Err    error
}

func (e *TransientError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transient fetch failure for %s (status %d)", e.Path, e.Status)
	}
	return fmt.Sprintf("transient fetch failure for %s: %v", e.Path, e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

// GitHubSource fetches rule documents from raw.githubusercontent.com.
// The owner/repo pair comes from the contentSource config option and the
// ref from the ref option.
type GitHubSource struct {
	client *http.Client
	owner  string
	repo   string
	ref    string
	base   string // overridable for tests
}

// NewGitHubSource creates a source for the given owner, repo, and ref.
// The client may be nil, in which case http.DefaultClient is used;
// per-request timeouts are enforced by the caller through the context.
func NewGitHubSource(client *http.Client, owner, repo, ref string) *GitHubSource {
	if client == nil {
		client = http.DefaultClient
	}
	if ref == "" {
		ref = "main"
	}
	return &GitHubSource{
		client: client,
		owner:  owner,
		repo:   repo,
		ref:    ref,
		base:   "https://raw.githubusercontent.com",
	}
}

// Fetch implements Source.
func (g *GitHubSource) Fetch(ctx context.Context, path string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s/%s/%s/%s",
		g.base, g.owner, g.repo, g.ref, pathEscapeSegments(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", path, err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, &TransientError{Path: path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &TransientError{Path: path, Err: err}
		}
		return data, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, &NotFoundError{Path: path}
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &TransientError{Path: path, Status: resp.StatusCode}
	default:
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, path)
	}
}

// pathEscapeSegments escapes each path segment while keeping separators.
func pathEscapeSegments(p string) string {
	segs := make([]string, 0, 4)
	start := 0
	for i := 0; i <= len(p); i++ {
		if i == len(p) || p[i] == '/' {
			segs = append(segs, url.PathEscape(p[start:i]))
			start = i + 1
		}
	}
	out := segs[0]
	for _, s := range segs[1:] {
		out += "/" + s
	}
	return out
}
