// Package usecase contains the business logic of the application.
package usecase

import (
	"context"

	"github.com/naka-gawa/repo-details/internal/cache"
	"github.com/naka-gawa/repo-details/internal/domain"
	"github.com/naka-gawa/repo-details/internal/gateway"
	"github.com/naka-gawa/repo-details/internal/view"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// FailureTitle is the toast title shown when the fetch fails.
const FailureTitle = "Failed fetching repo details"

// State is where the detail view settled.
type State string

const (
	StateLoading State = "loading"
	StateReady   State = "ready"
	StateError   State = "error"
)

// Options controls a single Open.
type Options struct {
	// Refresh re-enters loading without showing cached data and always fetches.
	Refresh bool
}

// Result describes what the view ended up displaying.
type Result struct {
	State   State
	Summary *domain.RepoSummary
	// Err is the fetch error when State is StateError.
	Err     error
	Fetched bool
}

// Session is the use case for opening the repository detail view.
// It wires one fetch to one cache entry to one host.
type Session struct {
	fetcher gateway.Fetcher
	cache   *cache.Client
	host    view.Host
	logger  *logrus.Logger
}

// NewSession creates a new Session instance.
func NewSession(fetcher gateway.Fetcher, cacheClient *cache.Client, host view.Host, logger *logrus.Logger) *Session {
	return &Session{
		fetcher: fetcher,
		cache:   cacheClient,
		host:    host,
		logger:  logger,
	}
}

// Open renders cached data (if any) right away, revalidates it in the background
// and renders again once the fetch settles. A failed fetch never touches the cache.
func (s *Session) Open(ctx context.Context, opts Options) *Result {
	s.logger.Debug("Usecase: Opening detail view...")

	cached, err := s.cache.Restore(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Usecase: Failed to restore cache; continuing without it")
		cached = nil
	}

	var cachedSummary *domain.RepoSummary
	if cached != nil {
		cachedSummary = &cached.Summary
	}

	if !opts.Refresh && s.cache.IsFresh(cached) {
		s.logger.Debug("Usecase: Cache entry is fresh; skipping fetch.")
		s.host.Detail(view.Detail{Markdown: view.RenderMarkdown(cachedSummary)})
		return &Result{State: StateReady, Summary: cachedSummary}
	}

	var fresh *domain.RepoSummary
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		fresh, err = s.fetcher.FetchRepoSummary(egCtx)
		return err
	})

	loading := view.Detail{IsLoading: true}
	if !opts.Refresh {
		loading.Markdown = view.RenderMarkdown(cachedSummary)
	}
	s.host.Detail(loading)

	if err := eg.Wait(); err != nil {
		s.logger.WithError(err).Debug("Usecase: Fetch failed.")
		s.host.ShowToast(view.Toast{
			Style:   view.ToastFailure,
			Title:   FailureTitle,
			Message: err.Error(),
		})
		s.host.Detail(view.Detail{Markdown: view.RenderMarkdown(cachedSummary)})
		return &Result{State: StateError, Summary: cachedSummary, Err: err, Fetched: true}
	}

	if _, err := s.cache.Persist(ctx, *fresh); err != nil {
		s.logger.WithError(err).Warn("Usecase: Failed to persist cache")
	}
	s.host.Detail(view.Detail{Markdown: view.RenderMarkdown(fresh)})
	s.logger.Debug("Usecase: Detail view ready.")
	return &Result{State: StateReady, Summary: fresh, Fetched: true}
}
