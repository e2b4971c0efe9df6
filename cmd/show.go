package cmd

import (
	"errors"
	"fmt"

	"github.com/naka-gawa/repo-details/internal/config"
	"github.com/naka-gawa/repo-details/internal/gateway"
	"github.com/naka-gawa/repo-details/internal/usecase"
	"github.com/naka-gawa/repo-details/internal/view"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newShowCmd() *cobra.Command {
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Render the repository detail view",
		Long: `Renders cached details right away (if any are younger than 24 hours),
fetches fresh details from GitHub and renders them again. A failed fetch is
reported on stderr and leaves the cached details in place.`,
		RunE: runShow,
	}

	showCmd.Flags().Bool("refresh", false, "Ignore cached details and show a loading state until the fetch settles")
	showCmd.Flags().String("api", "rest", "GitHub API to query: rest or graphql (graphql requires GITHUB_TOKEN)")
	showCmd.Flags().Duration("stale-time", 0, "Skip fetching when cached details are younger than this (default: REPO_DETAILS_STALE_TIME, or always fetch)")
	return showCmd
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := config.Load()
	if cmd.Flags().Changed("stale-time") {
		cfg.StaleTime, _ = cmd.Flags().GetDuration("stale-time")
	}
	logger := newLogger(cmd, cfg)

	refresh, _ := cmd.Flags().GetBool("refresh")
	api, _ := cmd.Flags().GetString("api")

	fetcher, err := newFetcher(api, cfg, logger)
	if err != nil {
		return err
	}

	s, err := openStorage(ctx, cmd, cfg, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	host := view.NewTerminalHost(cmd.OutOrStdout(), cmd.ErrOrStderr())
	session := usecase.NewSession(fetcher, newCacheClient(s, cfg, logger), host, logger)

	// A failed fetch is already shown to the user and is not fatal.
	result := session.Open(ctx, usecase.Options{Refresh: refresh})
	logger.WithFields(logrus.Fields{
		"state":   result.State,
		"fetched": result.Fetched,
	}).Debug("Detail view settled")
	return nil
}

// newFetcher injects the HTTP client into the gateway selected by api.
func newFetcher(api string, cfg config.Config, logger *logrus.Logger) (gateway.Fetcher, error) {
	httpClient, err := gateway.NewHTTPClient(cfg.GitHubToken, cfg.HTTPTimeout, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	switch api {
	case "rest":
		restGateway, err := gateway.NewRESTGateway(httpClient, cfg.APIBaseURL, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
		}
		return restGateway, nil
	case "graphql":
		if cfg.GitHubToken == "" {
			return nil, errors.New("the GraphQL API requires GITHUB_TOKEN to be set")
		}
		return gateway.NewGraphQLGateway(httpClient, cfg.GraphQLURL, logger), nil
	default:
		return nil, fmt.Errorf("unknown --api %q: use rest or graphql", api)
	}
}
