// Package github is the upstream client for identity resolution and public
// repository listing. It performs no caching and keeps no state.
package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gogithub "github.com/google/go-github/v67/github"

	"github.com/guarzo/repolookup/common"
	"github.com/guarzo/repolookup/common/model"
)

// GitHubClient defines the two upstream calls the lookup layer depends on.
type GitHubClient interface {
	// ResolveUser maps a username to its numeric id and canonical login.
	// An unknown user is reported as found == false with a nil error.
	ResolveUser(ctx context.Context, username string) (identity model.Identity, found bool, err error)
	// ListRepositories returns the public repositories owned by numericID.
	// An unknown id yields an empty list.
	ListRepositories(ctx context.Context, numericID string) ([]model.Repository, error)
}

type gitHubClient struct {
	gh *gogithub.Client
}

const (
	DefaultBaseURL   = "https://api.github.com/"
	DefaultUserAgent = "repolookup"
	reposPerPage     = 100
)

type config struct {
	baseURL    string
	token      string
	userAgent  string
	timeout    time.Duration
	httpClient common.HttpClient
}

// Option configures NewGitHubClient.
type Option func(*config) error

// WithBaseURL points the client at a GitHub Enterprise or test server.
func WithBaseURL(baseURL string) Option {
	return func(cfg *config) error {
		if baseURL == "" {
			return fmt.Errorf("%w: base url cannot be empty", common.ErrInvalidInput)
		}
		cfg.baseURL = baseURL
		return nil
	}
}

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(cfg *config) error {
		cfg.token = token
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(cfg *config) error {
		if userAgent != "" {
			cfg.userAgent = userAgent
		}
		return nil
	}
}

// WithTimeout bounds each HTTP request.
func WithTimeout(timeout time.Duration) Option {
	return func(cfg *config) error {
		cfg.timeout = timeout
		return nil
	}
}

// WithHTTPClient supplies a fully configured transport. Token, user agent and
// timeout options are ignored when it is set.
func WithHTTPClient(client common.HttpClient) Option {
	return func(cfg *config) error {
		if client == nil {
			return fmt.Errorf("%w: http client cannot be nil", common.ErrInvalidInput)
		}
		cfg.httpClient = client
		return nil
	}
}

// NewGitHubClient builds a GitHubClient on top of go-github.
func NewGitHubClient(opts ...Option) (GitHubClient, error) {
	cfg := &config{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	hc := cfg.httpClient
	if hc == nil {
		hc = common.NewHttpClient(cfg.userAgent, &http.Client{}, common.TokenSource(cfg.token), cfg.timeout)
	}

	gh := gogithub.NewClient(hc.StandardClient())
	gh.UserAgent = cfg.userAgent

	base := cfg.baseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base url: %v", common.ErrInvalidInput, err)
	}
	gh.BaseURL = baseURL

	return &gitHubClient{gh: gh}, nil
}

func (c *gitHubClient) ResolveUser(ctx context.Context, username string) (model.Identity, bool, error) {
	if username == "" {
		return model.Identity{}, false, fmt.Errorf("%w: username cannot be empty", common.ErrInvalidInput)
	}

	user, resp, err := c.gh.Users.Get(ctx, url.PathEscape(username))
	if err != nil {
		if statusCode(err, resp) == http.StatusNotFound {
			return model.Identity{}, false, nil
		}
		return model.Identity{}, false, wrapError(err, resp, "failed to resolve user")
	}
	if user.GetID() == 0 {
		return model.Identity{}, false, fmt.Errorf("failed to resolve user: %w: response missing id", common.ErrTransport)
	}

	return model.Identity{
		NumericID: strconv.FormatInt(user.GetID(), 10),
		Login:     user.GetLogin(),
	}, true, nil
}

func (c *gitHubClient) ListRepositories(ctx context.Context, numericID string) ([]model.Repository, error) {
	id, err := strconv.ParseInt(numericID, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: numeric id %q", common.ErrInvalidInput, numericID)
	}

	req, err := c.gh.NewRequest(http.MethodGet, fmt.Sprintf("user/%d/repos?type=public&per_page=%d", id, reposPerPage), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w: %w", common.ErrTransport, err)
	}

	var repos []*gogithub.Repository
	resp, err := c.gh.Do(ctx, req, &repos)
	if err != nil {
		if statusCode(err, resp) == http.StatusNotFound {
			return []model.Repository{}, nil
		}
		return nil, wrapError(err, resp, "failed to list repositories")
	}

	result := make([]model.Repository, 0, len(repos))
	for _, repo := range repos {
		if repo == nil {
			continue
		}
		result = append(result, convertRepository(repo))
	}
	return result, nil
}

// convertRepository converts a go-github Repository to our model.
func convertRepository(repo *gogithub.Repository) model.Repository {
	data := model.Repository{
		ID:          repo.GetID(),
		Name:        repo.GetName(),
		FullName:    repo.GetFullName(),
		URL:         repo.GetHTMLURL(),
		HomepageURL: repo.GetHomepage(),
		Description: repo.GetDescription(),
		Language:    repo.GetLanguage(),
		Stars:       repo.GetStargazersCount(),
		Fork:        repo.GetFork(),
	}
	if owner := repo.GetOwner(); owner != nil {
		data.OwnerLogin = owner.GetLogin()
	}
	if updatedAt := repo.GetUpdatedAt(); !updatedAt.IsZero() {
		data.UpdatedAt = updatedAt.Time
	}
	return data
}

func statusCode(err error, resp *gogithub.Response) int {
	var ghErr *gogithub.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		return ghErr.Response.StatusCode
	}
	if resp != nil && resp.Response != nil {
		return resp.StatusCode
	}
	return 0
}

// wrapError classifies go-github errors onto the common error kinds.
func wrapError(err error, resp *gogithub.Response, message string) error {
	var rateErr *gogithub.RateLimitError
	var abuseErr *gogithub.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return fmt.Errorf("%s: rate limited: %w", message, common.ErrAuthFailure)
	}

	status := statusCode(err, resp)
	if common.KindForStatus(status) == common.KindAuthFailure {
		return fmt.Errorf("%s: status %d: %w", message, status, common.ErrAuthFailure)
	}

	if status >= 400 {
		return fmt.Errorf("%s: %w: %w", message, common.ErrTransport, &common.HTTPError{StatusCode: status})
	}
	// Fallback to transport error for network and decode failures
	return fmt.Errorf("%s: %w: %w", message, common.ErrTransport, err)
}
