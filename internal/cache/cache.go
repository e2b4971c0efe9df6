// Package cache binds the last fetched repository summary to durable storage.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/naka-gawa/repo-details/internal/domain"
	"github.com/naka-gawa/repo-details/internal/storage"
	"github.com/sirupsen/logrus"
)

const (
	// Key is the single storage key the summary lives under.
	Key = "repo-details"
	// DefaultMaxAge is how long a persisted entry may be used.
	DefaultMaxAge = 24 * time.Hour
)

// ErrCorrupt reports a stored entry that cannot be decoded.
var ErrCorrupt = errors.New("cache entry is corrupt")

// Envelope is the value serialized under Key.
type Envelope struct {
	Timestamp time.Time          `json:"timestamp" yaml:"timestamp"`
	Buster    string             `json:"buster" yaml:"buster"`
	Summary   domain.RepoSummary `json:"summary" yaml:"summary"`
}

// Age reports how old the envelope is at now.
func (e *Envelope) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// Options tunes a Client. Zero values select the defaults.
type Options struct {
	MaxAge time.Duration
	// StaleTime is how long a persisted entry counts as fresh enough to skip revalidation.
	StaleTime time.Duration
	// Buster invalidates entries written with a different value.
	Buster string
	Now    func() time.Time
}

// Client persists and restores the summary. Construct one per command invocation.
type Client struct {
	storage   storage.Storage
	maxAge    time.Duration
	staleTime time.Duration
	buster    string
	now       func() time.Time
	logger    *logrus.Logger
}

// NewClient creates a Client on top of s.
func NewClient(s storage.Storage, logger *logrus.Logger, opts Options) *Client {
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		storage:   s,
		maxAge:    opts.MaxAge,
		staleTime: opts.StaleTime,
		buster:    opts.Buster,
		now:       opts.Now,
		logger:    logger,
	}
}

// Peek returns the stored envelope as-is, without expiry checks. Nil means nothing is stored.
func (c *Client) Peek(ctx context.Context) (*Envelope, error) {
	raw, ok, err := c.storage.GetItem(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var env Envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return &env, nil
}

// Restore returns the persisted envelope, or nil if there is none usable.
// Entries past MaxAge, written with another buster, or not decodable are removed.
// A failed storage read is returned as-is and removes nothing.
func (c *Client) Restore(ctx context.Context) (*Envelope, error) {
	env, err := c.Peek(ctx)
	if errors.Is(err, ErrCorrupt) {
		c.logger.WithError(err).Warn("Discarding unreadable cache entry")
		return nil, c.Remove(ctx)
	}
	if err != nil {
		return nil, err
	}
	if env == nil {
		c.logger.Debug("Cache is empty")
		return nil, nil
	}

	age := env.Age(c.now())
	switch {
	case age > c.maxAge:
		c.logger.WithField("age", age.String()).Debug("Cache entry expired")
		return nil, c.Remove(ctx)
	case env.Buster != c.buster:
		c.logger.WithField("buster", env.Buster).Debug("Cache entry busted")
		return nil, c.Remove(ctx)
	}
	c.logger.WithField("age", age.String()).Debug("Restored cache entry")
	return env, nil
}

// Persist stores summary in a fresh envelope stamped with the current time.
func (c *Client) Persist(ctx context.Context, summary domain.RepoSummary) (*Envelope, error) {
	env := &Envelope{
		Timestamp: c.now().UTC(),
		Buster:    c.buster,
		Summary:   summary,
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cache entry: %w", err)
	}
	if err := c.storage.SetItem(ctx, Key, string(raw)); err != nil {
		return nil, fmt.Errorf("failed to write cache: %w", err)
	}
	c.logger.Debug("Persisted cache entry")
	return env, nil
}

// Remove deletes the persisted entry.
func (c *Client) Remove(ctx context.Context) error {
	if err := c.storage.RemoveItem(ctx, Key); err != nil {
		return fmt.Errorf("failed to remove cache entry: %w", err)
	}
	return nil
}

// IsFresh reports whether env is young enough that revalidation can be skipped.
func (c *Client) IsFresh(env *Envelope) bool {
	if env == nil || c.staleTime <= 0 {
		return false
	}
	return env.Age(c.now()) < c.staleTime
}

// Now returns the client's current time.
func (c *Client) Now() time.Time {
	return c.now()
}
