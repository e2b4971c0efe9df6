package gateway

import (
	"context"
	"errors"
	"net/http"

	"github.com/naka-gawa/repo-details/internal/domain"
	"github.com/shurcooL/githubv4"
	"github.com/sirupsen/logrus"
)

// GraphQLGateway fetches the same summary through the GraphQL API.
// GitHub rejects anonymous GraphQL calls, so the HTTP client must carry a token.
type GraphQLGateway struct {
	graphqlClient *githubv4.Client
	logger        *logrus.Logger
}

var errMissingRepository = errors.New("response carries no repository")

// repositoryQuery maps the REST subscribers_count onto watchers.totalCount.
type repositoryQuery struct {
	Repository struct {
		Name        string
		Description string
		Watchers    struct {
			TotalCount int
		}
		StargazerCount int
		ForkCount      int
	} `graphql:"repository(owner: $owner, name: $name)"`
}

// NewGraphQLGateway creates a GraphQLGateway. An empty endpoint means the public GitHub endpoint.
func NewGraphQLGateway(httpClient *http.Client, endpoint string, logger *logrus.Logger) *GraphQLGateway {
	client := githubv4.NewClient(httpClient)
	if endpoint != "" {
		client = githubv4.NewEnterpriseClient(endpoint, httpClient)
	}
	return &GraphQLGateway{
		graphqlClient: client,
		logger:        logger,
	}
}

func (g *GraphQLGateway) FetchRepoSummary(ctx context.Context) (*domain.RepoSummary, error) {
	g.logger.WithField("repo", Owner+"/"+Repo).Debug("Fetching repository details using GraphQL API...")
	variables := map[string]interface{}{
		"owner": githubv4.String(Owner),
		"name":  githubv4.String(Repo),
	}

	var q repositoryQuery
	if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
		return nil, classifyError(err, 0)
	}
	if q.Repository.Name == "" {
		return nil, &domain.ParseError{Err: errMissingRepository}
	}

	summary := &domain.RepoSummary{
		Name:             q.Repository.Name,
		SubscribersCount: q.Repository.Watchers.TotalCount,
		StargazersCount:  q.Repository.StargazerCount,
		ForksCount:       q.Repository.ForkCount,
	}
	if desc := q.Repository.Description; desc != "" {
		summary.Description = &desc
	}
	g.logger.Debug("Completed fetching repository details.")
	return summary, nil
}
