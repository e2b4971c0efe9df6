package cache

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/naka-gawa/repo-details/internal/domain"
	"github.com/naka-gawa/repo-details/internal/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ now time.Time }

func (c *fixedClock) Now() time.Time { return c.now }

func newTestClient(s storage.Storage, clock *fixedClock, opts Options) *Client {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	opts.Now = clock.Now
	return NewClient(s, logger, opts)
}

func sampleSummary() domain.RepoSummary {
	desc := "Hooks for fetching data"
	return domain.RepoSummary{
		Name:             "react-query",
		Description:      &desc,
		SubscribersCount: 417,
		StargazersCount:  40123,
		ForksCount:       2650,
	}
}

func TestClient_PersistAndRestore(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := storage.NewMemoryStorage()
	client := newTestClient(s, clock, Options{})

	env, err := client.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, env, "empty storage restores nothing")

	persisted, err := client.Persist(ctx, sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, clock.now, persisted.Timestamp)

	clock.now = clock.now.Add(23 * time.Hour)
	restored, err := client.Restore(ctx)
	require.NoError(t, err)
	require.NotNil(t, restored)
	assert.Equal(t, sampleSummary(), restored.Summary)
	assert.Equal(t, 23*time.Hour, restored.Age(clock.now))
}

func TestClient_RestoreExpired(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := storage.NewMemoryStorage()
	client := newTestClient(s, clock, Options{})

	_, err := client.Persist(ctx, sampleSummary())
	require.NoError(t, err)

	clock.now = clock.now.Add(24*time.Hour + time.Second)
	env, err := client.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, env)

	_, ok, err := s.GetItem(ctx, Key)
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must be garbage collected")
}

func TestClient_RestoreExpiryBoundary(t *testing.T) {
	written := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name          string
		now           time.Time
		expectRestore bool
	}{
		{name: "exactly max age is still valid", now: written.Add(DefaultMaxAge), expectRestore: true},
		{name: "one nanosecond past max age is dropped", now: written.Add(DefaultMaxAge + time.Nanosecond), expectRestore: false},
		{name: "future timestamp counts as valid", now: written.Add(-time.Hour), expectRestore: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			clock := &fixedClock{now: written}
			s := storage.NewMemoryStorage()
			client := newTestClient(s, clock, Options{})

			_, err := client.Persist(ctx, sampleSummary())
			require.NoError(t, err)

			clock.now = tc.now
			env, err := client.Restore(ctx)
			require.NoError(t, err)

			_, stored, err := s.GetItem(ctx, Key)
			require.NoError(t, err)
			if tc.expectRestore {
				require.NotNil(t, env)
				assert.Equal(t, sampleSummary(), env.Summary)
				assert.True(t, stored)
			} else {
				assert.Nil(t, env)
				assert.False(t, stored)
			}
		})
	}
}

func TestClient_RestoreBusted(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := storage.NewMemoryStorage()

	_, err := newTestClient(s, clock, Options{Buster: "v1"}).Persist(ctx, sampleSummary())
	require.NoError(t, err)

	env, err := newTestClient(s, clock, Options{Buster: "v2"}).Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, env)
}

func TestClient_RestoreCorrupt(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{now: time.Now()}
	s := storage.NewMemoryStorage()
	require.NoError(t, s.SetItem(ctx, Key, "{not json"))

	client := newTestClient(s, clock, Options{})
	env, err := client.Restore(ctx)
	require.NoError(t, err)
	assert.Nil(t, env)

	_, ok, err := s.GetItem(ctx, Key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetItem(ctx, Key, "{not json"))
	_, err = client.Peek(ctx)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestClient_PersistIsIdempotent(t *testing.T) {
	ctx := context.Background()
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := storage.NewMemoryStorage()
	client := newTestClient(s, clock, Options{})

	_, err := client.Persist(ctx, sampleSummary())
	require.NoError(t, err)
	first, _, err := s.GetItem(ctx, Key)
	require.NoError(t, err)

	_, err = client.Persist(ctx, sampleSummary())
	require.NoError(t, err)
	second, _, err := s.GetItem(ctx, Key)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestClient_IsFresh(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	env := &Envelope{Timestamp: clock.now.Add(-time.Minute)}

	testCases := []struct {
		name      string
		staleTime time.Duration
		env       *Envelope
		expected  bool
	}{
		{name: "zero stale time always revalidates", staleTime: 0, env: env, expected: false},
		{name: "younger than stale time", staleTime: 5 * time.Minute, env: env, expected: true},
		{name: "older than stale time", staleTime: 30 * time.Second, env: env, expected: false},
		{name: "nothing cached", staleTime: time.Hour, env: nil, expected: false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(storage.NewMemoryStorage(), clock, Options{StaleTime: tc.staleTime})
			assert.Equal(t, tc.expected, client.IsFresh(tc.env))
		})
	}
}

type failingStorage struct {
	storage.MemoryStorage
}

func (f *failingStorage) SetItem(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestClient_PersistFailure(t *testing.T) {
	clock := &fixedClock{now: time.Now()}
	client := newTestClient(&failingStorage{}, clock, Options{})

	env, err := client.Persist(context.Background(), sampleSummary())
	assert.Nil(t, env)
	assert.ErrorContains(t, err, "disk full")
}

// unreadableStorage fails every read and records removals.
type unreadableStorage struct {
	storage.MemoryStorage
	removed int
}

func (u *unreadableStorage) GetItem(context.Context, string) (string, bool, error) {
	return "", false, errors.New("database is locked")
}

func (u *unreadableStorage) RemoveItem(context.Context, string) error {
	u.removed++
	return nil
}

func TestClient_RestoreReadFailureKeepsEntry(t *testing.T) {
	clock := &fixedClock{now: time.Now()}
	s := &unreadableStorage{}
	client := newTestClient(s, clock, Options{})

	env, err := client.Restore(context.Background())
	assert.Nil(t, env)
	assert.ErrorContains(t, err, "database is locked")
	assert.NotErrorIs(t, err, ErrCorrupt)
	assert.Zero(t, s.removed, "a failed read must not remove the entry")
}
