package hub

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/harvest/pkg/domain/interfaces"
	"github.com/m-mizutani/harvest/pkg/domain/model"
	"github.com/m-mizutani/harvest/pkg/domain/types"
	"github.com/m-mizutani/harvest/pkg/utils/safe"
)

const (
	// DefaultBaseURL is the public hub endpoint
	DefaultBaseURL = "https://huggingface.co"

	// diagnosticHeader is the hub's machine-readable failure code
	diagnosticHeader = "X-Error-Code"

	previewLimit = 512
)

type client struct {
	baseURL    string
	httpClient *http.Client
	token      string
}

// Option configures the hub client
type Option func(*client)

// WithBaseURL overrides the hub endpoint, mainly for tests
func WithBaseURL(u string) Option {
	return func(c *client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithToken sets the access token. The raw value is sanitized to survive
// copy-paste corruption: surrounding whitespace and quotes, a redundant
// "Bearer " prefix, and anything after the first whitespace are stripped.
func WithToken(raw string) Option {
	return func(c *client) {
		c.token = sanitizeToken(raw)
	}
}

// New creates a hub client
func New(opts ...Option) interfaces.HubClient {
	c := &client{
		baseURL:    DefaultBaseURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sanitizeToken(raw string) string {
	t := strings.TrimSpace(raw)
	t = strings.Trim(t, `"'`)
	t = strings.TrimSpace(t)
	if len(t) >= 7 && strings.EqualFold(t[:7], "bearer ") {
		t = strings.TrimSpace(t[7:])
	}
	fields := strings.Fields(t)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Fetch resolves ref to raw bytes. Candidate URLs are tried in order: for a
// pinned namespace the canonical URL then a forced-download variant, each
// authenticated first (when a token is set) and unauthenticated after any
// non-2xx. An Auto reference walks the whole sequence for the dataset
// namespace, then the model namespace. The first 2xx wins.
func (c *client) Fetch(ctx context.Context, ref *model.Reference) (*model.FetchResult, error) {
	logger := ctxlog.From(ctx)

	kinds := []model.RepoKind{ref.Kind}
	if ref.Kind == model.RepoKindAuto {
		kinds = []model.RepoKind{model.RepoKindDatasets, model.RepoKindModels}
	}

	var attempts []model.FetchAttempt
	var lastPreview string

	for _, kind := range kinds {
		for _, candidate := range c.candidateURLs(ref, kind) {
			withAuth := []bool{false}
			if c.token != "" {
				withAuth = []bool{true, false}
			}
			for _, auth := range withAuth {
				result, attempt, preview := c.get(ctx, candidate, auth)
				if result != nil {
					logger.Debug("Hub download succeeded",
						slog.String("url", candidate),
						slog.Int("status", result.StatusCode),
						slog.Int("size_bytes", len(result.Bytes)),
						slog.Bool("authenticated", auth),
					)
					return result, nil
				}

				attempts = append(attempts, attempt)
				if preview != "" {
					lastPreview = preview
				}
				logger.Debug("Hub download attempt failed",
					slog.String("url", candidate),
					slog.Int("status", attempt.Status),
					slog.Bool("authenticated", auth),
					slog.String("hint", attempt.Hint),
				)
			}
		}
	}

	return nil, goerr.New("all hub download attempts failed",
		goerr.T(types.TagRemoteFetch),
		goerr.V("repo", ref.RepoID),
		goerr.V("path", ref.FilePath),
		goerr.V("attempts", attempts),
		goerr.V("preview", lastPreview),
	)
}

// FetchFile fetches another path from the repository ref points into,
// reusing the same namespace/auth fallback policy
func (c *client) FetchFile(ctx context.Context, ref *model.Reference, path string) (*model.FetchResult, error) {
	sub := *ref
	sub.FilePath = path
	return c.Fetch(ctx, &sub)
}

// candidateURLs returns the canonical resolve URL plus the forced-download
// variant for one concrete namespace
func (c *client) candidateURLs(ref *model.Reference, kind model.RepoKind) []string {
	prefix := ""
	if kind == model.RepoKindDatasets {
		prefix = "datasets/"
	}

	base := c.baseURL + "/" + prefix + ref.RepoID +
		"/resolve/" + url.PathEscape(ref.Revision) + "/" + escapePath(ref.FilePath)

	return []string{base, base + "?download=true"}
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// get performs one GET. A nil result means failure; the attempt record and
// a bounded body preview are returned for diagnostics. A non-2xx is never
// fatal here, the caller decides when to give up.
func (c *client) get(ctx context.Context, rawURL string, auth bool) (*model.FetchResult, model.FetchAttempt, string) {
	attempt := model.FetchAttempt{URL: rawURL, Authenticated: auth}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		attempt.Hint = err.Error()
		return nil, attempt, ""
	}
	req.Header.Set("User-Agent", "harvest/"+types.Version)
	req.Header.Set("Accept", "*/*")
	if auth {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		attempt.Hint = err.Error()
		return nil, attempt, ""
	}
	defer resp.Body.Close()

	attempt.Status = resp.StatusCode

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			attempt.Hint = "truncated body: " + err.Error()
			return nil, attempt, ""
		}
		return &model.FetchResult{
			Bytes:           body,
			StatusCode:      resp.StatusCode,
			FinalURL:        resp.Request.URL.String(),
			ContentType:     resp.Header.Get("Content-Type"),
			ContentEncoding: resp.Header.Get("Content-Encoding"),
		}, attempt, ""
	}

	attempt.Hint = resp.Header.Get(diagnosticHeader)
	return nil, attempt, safe.ReadPreview(resp.Body, previewLimit)
}
