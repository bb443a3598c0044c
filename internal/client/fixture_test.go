package client

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/httpserver"
	"github.com/MrSnakeDoc/appdir/internal/httpserver/deps"
	"github.com/MrSnakeDoc/appdir/internal/kv"
	"github.com/MrSnakeDoc/appdir/internal/logger"
	"github.com/MrSnakeDoc/appdir/internal/repository"
)

// network fails every request with a transport error while down is set.
type network struct {
	down  atomic.Bool
	calls atomic.Int32
	next  http.RoundTripper
}

func (n *network) RoundTrip(r *http.Request) (*http.Response, error) {
	n.calls.Add(1)
	if n.down.Load() {
		return nil, errors.New("dial tcp: connection refused")
	}
	return n.next.RoundTrip(r)
}

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	repo   *repository.Repository
	net    *network
	api    *API
	mirror *Mirror
	clock  *fakeClock
	svc    *Service
}

func fastRetry() RetryPolicy {
	return RetryPolicy{Attempts: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, kv.NewMemory())
}

// newFixtureOn serves a repository backed by store.
func newFixtureOn(t *testing.T, store kv.Store) *fixture {
	t.Helper()
	repo := repository.New(store)
	srv := httptest.NewServer(httpserver.NewRouter(5*time.Second, logger.Nop(), deps.Deps{
		Logger: logger.Nop(),
		Repo:   repo,
	}))
	t.Cleanup(srv.Close)

	nw := &network{next: http.DefaultTransport}
	api, err := NewAPI(srv.URL, WithHTTPClient(&http.Client{Transport: nw}), WithRetry(fastRetry()))
	require.NoError(t, err)

	clock := &fakeClock{t: time.UnixMilli(1_700_000_000_000)}
	mirror := NewMirror(kv.NewMemory(), "")
	svc := NewService(api, mirror,
		WithServiceClock(clock.Now),
		WithCache(NewCache(DefaultTTL, clock.Now)),
	)
	return &fixture{repo: repo, net: nw, api: api, mirror: mirror, clock: clock, svc: svc}
}

func ptr[T any](v T) *T { return &v }

func patch(u, name string) domain.Patch {
	return domain.Patch{DirectURL: ptr(u), Name: ptr(name)}
}
