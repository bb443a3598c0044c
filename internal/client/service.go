package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/logger"
	"github.com/MrSnakeDoc/appdir/internal/repository"
)

// DefaultReprobe is how long the service stays offline before trying the
// server again.
const DefaultReprobe = 30 * time.Second

// Service serves the catalog from the server when it can and from the
// cache or the local mirror when it cannot.
//
// Reads: a FRESH snapshot is served as is; otherwise the list is fetched,
// and on failure the previous snapshot (or the mirror) is served and the
// service enters degraded mode. Writes go to the server first; when the
// server is unreachable they are applied to the mirror and queued for Sync.
// In degraded mode the network is skipped until the re-probe interval has
// elapsed, then the next call probes the server again.
type Service struct {
	api     *API
	cache   *Cache
	mirror  *Mirror
	log     logger.Logger
	now     func() time.Time
	newID   func() string
	reprobe time.Duration

	mu            sync.Mutex
	degraded      bool
	degradedSince time.Time
	lastAttempt   time.Time
	lastErr       error
}

type ServiceOption func(*Service)

func WithCache(c *Cache) ServiceOption                    { return func(s *Service) { s.cache = c } }
func WithServiceLogger(l logger.Logger) ServiceOption     { return func(s *Service) { s.log = l } }
func WithServiceClock(now func() time.Time) ServiceOption { return func(s *Service) { s.now = now } }
func WithReprobe(d time.Duration) ServiceOption           { return func(s *Service) { s.reprobe = d } }

func NewService(api *API, mirror *Mirror, opts ...ServiceOption) *Service {
	s := &Service{
		api:     api,
		mirror:  mirror,
		log:     logger.Nop(),
		now:     time.Now,
		newID:   func() string { return uuid.Must(uuid.NewV7()).String() },
		reprobe: DefaultReprobe,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewCache(DefaultTTL, s.now)
	}
	return s
}

// Status describes where the data served by the service comes from.
type Status struct {
	State         State         `json:"state"`
	SnapshotAge   time.Duration `json:"snapshotAge"`
	Degraded      bool          `json:"degraded"`
	DegradedSince time.Time     `json:"degradedSince,omitempty"`
	NextProbe     time.Time     `json:"nextProbe,omitempty"`
	LastError     string        `json:"lastError,omitempty"`
	Pending       int           `json:"pending"`
}

func (s *Service) Status(ctx context.Context) (Status, error) {
	pending, err := s.mirror.PendingCount(ctx)
	if err != nil {
		return Status{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{
		State:       s.cache.State(),
		SnapshotAge: s.cache.Age(),
		Degraded:    s.degraded,
		Pending:     pending,
	}
	if s.degraded {
		st.DegradedSince = s.degradedSince
		st.NextProbe = s.lastAttempt.Add(s.reprobe)
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st, nil
}

// online reports whether a network attempt should be made now. In degraded
// mode it lets one attempt through per re-probe interval.
func (s *Service) online() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if s.degraded && now.Sub(s.lastAttempt) < s.reprobe {
		return false
	}
	s.lastAttempt = now
	return true
}

func (s *Service) markUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.degraded {
		s.log.Info("server reachable again, leaving degraded mode",
			logger.Duration("degraded_for", s.now().Sub(s.degradedSince)))
	}
	s.degraded = false
	s.lastErr = nil
}

func (s *Service) markDown(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.degraded {
		s.degradedSince = s.now()
		s.log.Warn("server unavailable, entering degraded mode",
			logger.Duration("reprobe", s.reprobe),
			logger.Error(err))
	}
	s.degraded = true
	s.lastErr = err
}

func (s *Service) skipped() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Error{
		Kind:    KindUnreachable,
		Message: fmt.Sprintf("server offline, next probe at %s", s.lastAttempt.Add(s.reprobe).Format(time.TimeOnly)),
		Err:     s.lastErr,
	}
}

// Degraded reports whether the service is currently serving local data.
func (s *Service) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Apps returns the whole catalog.
func (s *Service) Apps(ctx context.Context) ([]domain.App, error) {
	snap, state, ok := s.cache.Snapshot()
	if ok && state == StateFresh {
		return snap, nil
	}

	if !s.online() {
		return s.fallback(ctx, snap, ok, s.skipped())
	}

	apps, err := s.api.Export(ctx)
	if err != nil {
		s.cache.Fail()
		if IsUnreachable(err) {
			s.markDown(err)
		} else {
			// the server answered, so writes still go to it
			s.markUp()
		}
		return s.fallback(ctx, snap, ok, err)
	}

	s.markUp()
	served, err := s.overlay(ctx, apps)
	if err != nil {
		s.log.Warn("failed to read queued changes, local mirror left as is", logger.Error(err))
		s.cache.Store(apps)
		return domain.CloneAll(apps), nil
	}
	s.cache.Store(served)
	if err := s.mirror.Save(ctx, served, s.now()); err != nil {
		s.log.Warn("failed to refresh local mirror", logger.Error(err))
	}
	return domain.CloneAll(served), nil
}

// overlay replays the queued ops on a list fetched from the server, so
// changes made offline stay visible until Sync sends them. Records created
// offline keep the id the caller was handed. An op that no longer applies
// is skipped here and left for Sync to report.
func (s *Service) overlay(ctx context.Context, apps []domain.App) ([]domain.App, error) {
	ops, err := s.mirror.Pending(ctx)
	if err != nil || len(ops) == 0 {
		return apps, err
	}
	local, _, _, err := s.mirror.Load(ctx)
	if err != nil {
		return nil, err
	}

	out := apps
	for _, op := range ops {
		next, err := applyOp(out, op, s.newID)
		if err != nil {
			s.log.Debug("queued change does not apply to the server list",
				logger.Int64("seq", op.Seq),
				logger.String("op", string(op.Kind)),
				logger.Error(err))
			continue
		}
		out = next
	}
	return keepLocalIDs(out, apps, local), nil
}

// fallback serves local data after a failed or skipped fetch: the mirror
// when it holds offline changes, else the last snapshot, else the mirror.
func (s *Service) fallback(ctx context.Context, snap []domain.App, hasSnap bool, cause error) ([]domain.App, error) {
	pending, perr := s.mirror.PendingCount(ctx)
	if perr == nil && pending > 0 {
		if apps, _, ok, err := s.mirror.Load(ctx); err == nil && ok {
			return apps, nil
		}
	}
	if hasSnap {
		s.log.Debug("serving cached snapshot", logger.Error(cause))
		return snap, nil
	}
	apps, savedAt, ok, err := s.mirror.Load(ctx)
	if err != nil {
		s.log.Warn("failed to read local mirror", logger.Error(err))
	}
	if ok {
		s.log.Debug("serving local mirror", logger.String("saved_at", savedAt.Format(time.RFC3339)))
		return apps, nil
	}
	return nil, cause
}

// Query applies filters, sort and paging to Apps. Stats are computed from
// the list that was served.
func (s *Service) Query(ctx context.Context, q domain.Query) (domain.ListResult, error) {
	apps, err := s.Apps(ctx)
	if err != nil {
		return domain.ListResult{}, err
	}
	res := domain.Apply(apps, q)
	stats := domain.ComputeStats(apps, s.now())
	res.Stats = &stats
	return res, nil
}

// Get fetches one app from the server (counting a view), or looks it up
// locally when the server is unreachable.
func (s *Service) Get(ctx context.Context, key string) (domain.App, error) {
	if s.online() {
		app, err := s.api.Get(ctx, key)
		if err == nil || !IsUnreachable(err) {
			if err == nil {
				s.markUp()
			}
			return app, err
		}
		s.markDown(err)
	}
	apps, err := s.Apps(ctx)
	if err != nil {
		return domain.App{}, err
	}
	i := domain.Find(apps, key)
	if i < 0 {
		return domain.App{}, fromDomain(domain.NotFound(key))
	}
	return apps[i], nil
}

func (s *Service) Add(ctx context.Context, p domain.Patch) (domain.App, error) {
	if s.online() {
		app, err := s.api.Create(ctx, p)
		if done, err := s.settle(err); done {
			return app, err
		}
	}

	var rec domain.App
	err := s.offline(ctx, Op{Kind: OpCreate, Patch: &p}, func(apps []domain.App) ([]domain.App, string, error) {
		out, created, err := localCreate(apps, p, s.newID(), s.now())
		rec = created
		return out, "", err
	})
	return rec, err
}

func (s *Service) Update(ctx context.Context, key string, p domain.Patch) (domain.App, error) {
	if s.online() {
		app, err := s.api.Update(ctx, key, p)
		if done, err := s.settle(err); done {
			return app, err
		}
	}

	var rec domain.App
	err := s.offline(ctx, Op{Kind: OpUpdate, Patch: &p}, func(apps []domain.App) ([]domain.App, string, error) {
		out, old, updated, err := localUpdate(apps, key, p, s.now())
		rec = updated
		return out, old.DirectURL, err
	})
	return rec, err
}

func (s *Service) Delete(ctx context.Context, key string) (domain.App, error) {
	if s.online() {
		app, err := s.api.Delete(ctx, key)
		if done, err := s.settle(err); done {
			return app, err
		}
	}

	var rec domain.App
	err := s.offline(ctx, Op{Kind: OpDelete}, func(apps []domain.App) ([]domain.App, string, error) {
		out, removed, err := localDelete(apps, key)
		rec = removed
		return out, removed.DirectURL, err
	})
	return rec, err
}

func (s *Service) AddBatch(ctx context.Context, patches []domain.Patch) (repository.BatchResult, error) {
	if s.online() {
		res, err := s.api.Batch(ctx, patches)
		if done, err := s.settle(err); done {
			return res, err
		}
	}

	var res repository.BatchResult
	err := s.offline(ctx, Op{Kind: OpBatch, Patches: patches}, func(apps []domain.App) ([]domain.App, string, error) {
		out, r, err := localBatch(apps, patches, s.newID, s.now())
		res = r
		return out, "", err
	})
	return res, err
}

func (s *Service) Import(ctx context.Context, records []domain.App) (repository.BatchResult, error) {
	if s.online() {
		res, err := s.api.Import(ctx, records)
		if done, err := s.settle(err); done {
			return res, err
		}
	}

	var res repository.BatchResult
	err := s.offline(ctx, Op{Kind: OpImport, Records: records}, func(apps []domain.App) ([]domain.App, string, error) {
		out, r, err := localImport(apps, records, s.newID, s.now())
		res = r
		return out, "", err
	})
	return res, err
}

// Like counts a like on the server. Counters live on the server only, so
// there is no offline path.
func (s *Service) Like(ctx context.Context, key string) (domain.App, error) {
	if !s.online() {
		return domain.App{}, s.skipped()
	}
	app, err := s.api.Like(ctx, key)
	if done, _ := s.settle(err); !done || err != nil {
		return domain.App{}, err
	}
	return app, nil
}

// settle handles the outcome of a network mutation. done is false only
// when the server was unreachable and the caller should fall back.
func (s *Service) settle(err error) (bool, error) {
	switch {
	case err == nil:
		s.markUp()
		s.cache.Invalidate()
		return true, nil
	case IsUnreachable(err):
		s.markDown(err)
		return false, nil
	default:
		// the server answered: validation and conflicts are final
		s.markUp()
		return true, err
	}
}

// offline applies a mutation to the local list and queues it. The local
// list is the mirror, seeded from the cache snapshot when the mirror is
// empty. apply returns the new list and the directUrl the op targets.
// The cache is invalidated so reads are served from the mirror.
func (s *Service) offline(ctx context.Context, op Op, apply func([]domain.App) ([]domain.App, string, error)) error {
	base, _, ok, err := s.mirror.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		if snap, _, has := s.cache.Snapshot(); has {
			base = snap
		}
	}

	out, key, err := apply(base)
	if err != nil {
		return fromDomain(err)
	}
	op.Key = key
	op.QueuedAt = domain.Millis(s.now())

	if err := s.mirror.Save(ctx, out, s.now()); err != nil {
		return err
	}
	queued, err := s.mirror.Enqueue(ctx, op)
	if err != nil {
		return err
	}
	s.cache.Invalidate()
	s.log.Info("change stored locally, will sync when the server is back",
		logger.String("op", string(queued.Kind)),
		logger.Int64("seq", queued.Seq))
	return nil
}

// SyncReport summarizes a Sync run.
type SyncReport struct {
	Replayed  int          `json:"replayed"`
	Rejected  []RejectedOp `json:"rejected,omitempty"`
	Remaining int          `json:"remaining"`
}

// RejectedOp is a queued op the server refused; it is dropped from the queue.
type RejectedOp struct {
	Op    Op     `json:"op"`
	Error string `json:"error"`
}

// Sync replays the queued ops in order. It stops at the first transport
// failure, leaving the rest queued. Ops the server rejects are dropped and
// reported. Sync always contacts the server, even in degraded mode.
func (s *Service) Sync(ctx context.Context) (SyncReport, error) {
	ops, err := s.mirror.Pending(ctx)
	if err != nil {
		return SyncReport{}, err
	}
	if len(ops) == 0 {
		return SyncReport{}, nil
	}

	var report SyncReport
	for i, op := range ops {
		err := s.replay(ctx, op)
		if IsUnreachable(err) {
			s.markDown(err)
			report.Remaining = len(ops) - i
			return report, err
		}
		if err != nil {
			s.log.Warn("queued change rejected by server",
				logger.Int64("seq", op.Seq),
				logger.String("op", string(op.Kind)),
				logger.Error(err))
			report.Rejected = append(report.Rejected, RejectedOp{Op: op, Error: err.Error()})
		} else {
			report.Replayed++
		}
		if err := s.mirror.Remove(ctx, op.Seq); err != nil {
			report.Remaining = len(ops) - i
			return report, err
		}
	}

	s.markUp()
	s.cache.Invalidate()
	s.log.Info("offline changes synced",
		logger.Int("replayed", report.Replayed),
		logger.Int("rejected", len(report.Rejected)))
	return report, nil
}

func (s *Service) replay(ctx context.Context, op Op) error {
	if err := checkPayload(op); err != nil {
		return err
	}
	var err error
	switch op.Kind {
	case OpCreate:
		_, err = s.api.Create(ctx, *op.Patch)
	case OpUpdate:
		_, err = s.api.Update(ctx, op.Key, *op.Patch)
	case OpDelete:
		_, err = s.api.Delete(ctx, op.Key)
	case OpBatch:
		_, err = s.api.Batch(ctx, op.Patches)
	case OpImport:
		_, err = s.api.Import(ctx, op.Records)
	default:
		err = fmt.Errorf("unknown op kind %q", op.Kind)
	}
	return err
}
