// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/repo-details/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// The repository shown by the detail view. It is fixed.
const (
	Owner = "tannerlinsley"
	Repo  = "react-query"
)

var errNotAnObject = errors.New("response body is not a JSON object")

// Fetcher defines the behavior of a gateway for fetching the repository summary from GitHub.
type Fetcher interface {
	FetchRepoSummary(ctx context.Context) (*domain.RepoSummary, error)
}

// RESTGateway fetches the summary with a single REST call.
type RESTGateway struct {
	restClient *github.Client
	logger     *logrus.Logger
}

// NewHTTPClient builds the HTTP client shared by the gateways.
// The secondary rate limit waiter is configured to never sleep: hitting the
// limit is reported as a failed response, not retried.
func NewHTTPClient(token string, timeout time.Duration, logger *logrus.Logger) (*http.Client, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(0, func(cbCtx *github_ratelimit.CallbackContext) {
		entry := logger.WithField("component", "gateway")
		if cbCtx.SleepUntil != nil {
			entry = entry.WithField("retry_after", cbCtx.SleepUntil.Format(time.RFC3339))
		}
		entry.Warn("GitHub secondary rate limit hit; not waiting")
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}

	var transport http.RoundTripper = rateLimitWaiter
	if token != "" {
		transport = &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
		}
	}
	return &http.Client{Transport: transport, Timeout: timeout}, nil
}

// NewRESTGateway creates a RESTGateway talking to baseURL. An empty baseURL means the public GitHub endpoint.
func NewRESTGateway(httpClient *http.Client, baseURL string, logger *logrus.Logger) (*RESTGateway, error) {
	restClient := github.NewClient(httpClient)
	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		restClient.BaseURL = u
	}
	return &RESTGateway{
		restClient: restClient,
		logger:     logger,
	}, nil
}

func (g *RESTGateway) FetchRepoSummary(ctx context.Context) (*domain.RepoSummary, error) {
	g.logger.WithField("repo", Owner+"/"+Repo).Debug("Fetching repository details using REST API...")
	req, err := g.restClient.NewRequest(http.MethodGet, fmt.Sprintf("repos/%s/%s", Owner, Repo), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	// The body is decoded here rather than by the client: the client accepts an
	// empty body and ignores anything after the first JSON value.
	var body bytes.Buffer
	resp, err := g.restClient.Do(ctx, req, &body)
	if err != nil {
		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
		}
		return nil, classifyError(err, statusCode)
	}

	var repo *github.Repository
	if err := json.Unmarshal(body.Bytes(), &repo); err != nil {
		return nil, &domain.ParseError{Err: err}
	}
	if repo == nil {
		return nil, &domain.ParseError{Err: errNotAnObject}
	}

	summary := &domain.RepoSummary{
		Name:             repo.GetName(),
		Description:      repo.Description,
		SubscribersCount: repo.GetSubscribersCount(),
		StargazersCount:  repo.GetStargazersCount(),
		ForksCount:       repo.GetForksCount(),
	}
	g.logger.Debug("Completed fetching repository details.")
	return summary, nil
}

// classifyError maps a client error onto ParseError or NetworkError.
// Only non-2xx status codes are recorded on the NetworkError.
func classifyError(err error, statusCode int) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF) {
		return &domain.ParseError{Err: err}
	}
	if statusCode >= 200 && statusCode < 300 {
		statusCode = 0
	}
	return &domain.NetworkError{StatusCode: statusCode, Err: err}
}
