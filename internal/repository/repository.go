// Package repository owns the canonical app list and the indexes and stats
// derived from it, all stored as independent KV entries.
//
// Every write is a read-modify-write of whole keys with no locking and no
// compare-and-swap. Concurrent writers can lose updates; List and the
// filters always rescan the canonical list, so index drift only affects
// index consumers until Rebuild runs.
package repository

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/kv"
	"github.com/MrSnakeDoc/appdir/internal/logger"
)

// Recorder receives per-operation telemetry. *metrics.Metrics implements it.
type Recorder interface {
	ObserveOp(op string, err error, d time.Duration)
	SetCatalogSize(n int)
}

// IDGenerator produces record ids.
type IDGenerator func() string

// UUIDv7 generates time-ordered RFC 9562 ids.
func UUIDv7() IDGenerator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

type Repository struct {
	store  kv.Store
	prefix string
	log    logger.Logger
	now    func() time.Time
	newID  IDGenerator
	rec    Recorder
}

type Option func(*Repository)

func WithLogger(l logger.Logger) Option      { return func(r *Repository) { r.log = l } }
func WithClock(now func() time.Time) Option  { return func(r *Repository) { r.now = now } }
func WithIDGenerator(gen IDGenerator) Option { return func(r *Repository) { r.newID = gen } }
func WithRecorder(rec Recorder) Option       { return func(r *Repository) { r.rec = rec } }
func WithPrefix(prefix string) Option        { return func(r *Repository) { r.prefix = prefix } }

// New builds a repository over store.
func New(store kv.Store, opts ...Option) *Repository {
	r := &Repository{
		store: store,
		log:   logger.Nop(),
		now:   time.Now,
		newID: UUIDv7(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BatchResult reports what a batch create or import did.
type BatchResult struct {
	Added   []domain.App `json:"added"`
	Skipped []string     `json:"skipped"`
}

// Drift describes how far the derived keys are from the canonical list.
type Drift struct {
	Apps         int      `json:"apps"`
	Dangling     []string `json:"dangling,omitempty"`
	IndexesStale bool     `json:"indexesStale"`
	StatsStale   bool     `json:"statsStale"`
}

// Clean reports whether nothing needs repair.
func (d Drift) Clean() bool { return !d.IndexesStale && !d.StatsStale }

func (r *Repository) observe(op string, start time.Time, err *error) {
	if r.rec != nil {
		r.rec.ObserveOp(op, *err, time.Since(start))
	}
}

func (r *Repository) load(ctx context.Context) ([]domain.App, error) {
	apps, err := r.loadApps(ctx)
	if err != nil {
		return nil, domain.StoreFailure("failed to load apps", err)
	}
	return apps, nil
}

func (r *Repository) save(ctx context.Context, apps []domain.App) error {
	if err := r.saveApps(ctx, apps); err != nil {
		return domain.StoreFailure("failed to save apps", err)
	}
	return nil
}

// Ping checks the underlying store.
func (r *Repository) Ping(ctx context.Context) error {
	return kv.Ping(ctx, r.store)
}

// List filters, sorts and pages the canonical list and attaches stats.
func (r *Repository) List(ctx context.Context, q domain.Query) (res domain.ListResult, err error) {
	defer r.observe("list", time.Now(), &err)

	apps, err := r.load(ctx)
	if err != nil {
		return domain.ListResult{}, err
	}
	res = domain.Apply(apps, q)

	stats, found, err := r.loadStats(ctx)
	if err != nil {
		return domain.ListResult{}, domain.StoreFailure("failed to load stats", err)
	}
	if !found {
		stats = domain.ComputeStats(apps, r.now())
	}
	res.Stats = &stats
	return res, nil
}

// Get resolves key (id, then directUrl) and counts a view.
func (r *Repository) Get(ctx context.Context, key string) (app domain.App, err error) {
	defer r.observe("get", time.Now(), &err)
	return r.bump(ctx, key, func(a *domain.App) { a.ViewCount++ })
}

// Like resolves key and counts a like.
func (r *Repository) Like(ctx context.Context, key string) (app domain.App, err error) {
	defer r.observe("like", time.Now(), &err)
	return r.bump(ctx, key, func(a *domain.App) { a.LikeCount++ })
}

func (r *Repository) bump(ctx context.Context, key string, inc func(*domain.App)) (domain.App, error) {
	apps, err := r.load(ctx)
	if err != nil {
		return domain.App{}, err
	}
	i := domain.Find(apps, key)
	if i < 0 {
		return domain.App{}, domain.NotFound(key)
	}
	inc(&apps[i])
	apps[i].UpdatedAt = domain.Millis(r.now())
	if err := r.save(ctx, apps); err != nil {
		return domain.App{}, err
	}
	return apps[i].Clone(), nil
}

// Create validates p, appends the new record and updates indexes and stats.
func (r *Repository) Create(ctx context.Context, p domain.Patch) (app domain.App, err error) {
	defer r.observe("create", time.Now(), &err)

	rec := domain.NewRecord(p, r.newID(), r.now())
	if err := domain.Validate(rec); err != nil {
		return domain.App{}, err
	}

	apps, err := r.load(ctx)
	if err != nil {
		return domain.App{}, err
	}
	if _, dup := domain.URLSet(apps)[rec.DirectURL]; dup {
		return domain.App{}, domain.AlreadyExists(rec.DirectURL)
	}

	apps = append(apps, rec)
	if err := r.save(ctx, apps); err != nil {
		return domain.App{}, err
	}
	if err := r.applyDerived(ctx, apps, []change{{after: &rec}}); err != nil {
		return rec.Clone(), err
	}
	r.log.Debug("app created", logger.String("id", rec.ID), logger.String("direct_url", rec.DirectURL))
	return rec.Clone(), nil
}

// Update merges p into the record found by key.
func (r *Repository) Update(ctx context.Context, key string, p domain.Patch) (app domain.App, err error) {
	defer r.observe("update", time.Now(), &err)

	apps, err := r.load(ctx)
	if err != nil {
		return domain.App{}, err
	}
	i := domain.Find(apps, key)
	if i < 0 {
		return domain.App{}, domain.NotFound(key)
	}

	old := apps[i].Clone()
	updated := domain.ApplyPatch(old, p, r.now())
	if updated.DirectURL != old.DirectURL && domain.URLTakenByOther(apps, i, updated.DirectURL) {
		return domain.App{}, domain.AlreadyExists(updated.DirectURL)
	}
	if err := domain.Validate(updated); err != nil {
		return domain.App{}, err
	}

	apps[i] = updated
	if err := r.save(ctx, apps); err != nil {
		return domain.App{}, err
	}
	if err := r.applyDerived(ctx, apps, []change{{before: &old, after: &updated}}); err != nil {
		return updated.Clone(), err
	}
	return updated.Clone(), nil
}

// Delete removes the record found by key and strips it from every index.
func (r *Repository) Delete(ctx context.Context, key string) (app domain.App, err error) {
	defer r.observe("delete", time.Now(), &err)

	apps, err := r.load(ctx)
	if err != nil {
		return domain.App{}, err
	}
	i := domain.Find(apps, key)
	if i < 0 {
		return domain.App{}, domain.NotFound(key)
	}

	removed := apps[i]
	apps = slices.Delete(apps, i, i+1)
	if err := r.save(ctx, apps); err != nil {
		return domain.App{}, err
	}
	if err := r.applyDerived(ctx, apps, []change{{before: &removed}}); err != nil {
		return removed, err
	}
	r.log.Debug("app deleted", logger.String("id", removed.ID))
	return removed, nil
}

// BatchCreate validates every patch, then appends the ones whose directUrl
// is new. The first occurrence of a directUrl wins.
func (r *Repository) BatchCreate(ctx context.Context, patches []domain.Patch) (res BatchResult, err error) {
	defer r.observe("batch", time.Now(), &err)

	if len(patches) == 0 {
		return BatchResult{}, domain.ValidationFailed("batch is empty", nil)
	}
	now := r.now()
	recs := make([]domain.App, len(patches))
	for i, p := range patches {
		recs[i] = domain.NewRecord(p, "", now)
	}
	if err := domain.ValidateBatch(recs); err != nil {
		return BatchResult{}, err
	}
	return r.insertMany(ctx, recs, domain.FreshIDs(r.newID))
}

// Import appends externally produced records, keeping their ids, counters
// and timestamps where possible.
func (r *Repository) Import(ctx context.Context, records []domain.App) (res BatchResult, err error) {
	defer r.observe("import", time.Now(), &err)

	if len(records) == 0 {
		return BatchResult{}, domain.ValidationFailed("nothing to import", nil)
	}
	now := r.now()
	recs := make([]domain.App, len(records))
	for i, rec := range records {
		recs[i] = domain.NewFromImport(rec, rec.ID, now)
	}
	if err := domain.ValidateBatch(recs); err != nil {
		return BatchResult{}, err
	}
	return r.insertMany(ctx, recs, domain.KeepIDs(r.newID))
}

func (r *Repository) insertMany(ctx context.Context, recs []domain.App, pick domain.IDPicker) (BatchResult, error) {
	apps, err := r.load(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	start := len(apps)
	apps, added, skipped := domain.Merge(apps, recs, pick)
	res := BatchResult{Added: added, Skipped: skipped}
	if len(added) == 0 {
		return res, nil
	}

	if err := r.save(ctx, apps); err != nil {
		return BatchResult{}, err
	}
	if err := r.applyDerived(ctx, apps, inserted(apps[start:])); err != nil {
		return res, err
	}
	r.log.Info("apps inserted",
		logger.Int("added", len(res.Added)),
		logger.Int("skipped", len(res.Skipped)),
	)
	return res, nil
}

// Export returns the canonical list as stored.
func (r *Repository) Export(ctx context.Context) (apps []domain.App, err error) {
	defer r.observe("export", time.Now(), &err)
	return r.load(ctx)
}

// Indexes reads the four derived indexes.
func (r *Repository) Indexes(ctx context.Context) (domain.IndexSet, error) {
	set := domain.NewIndexSet()
	for _, d := range domain.Dimensions {
		m, err := r.loadIndex(ctx, d)
		if err != nil {
			return domain.IndexSet{}, domain.StoreFailure("failed to load indexes", err)
		}
		switch d {
		case domain.DimTags:
			set.Tags = m
		case domain.DimAuthor:
			set.Author = m
		case domain.DimCategory:
			set.Category = m
		}
	}
	top, err := r.loadTop(ctx)
	if err != nil {
		return domain.IndexSet{}, domain.StoreFailure("failed to load indexes", err)
	}
	set.Top = top
	return set, nil
}

// Stats reads the stored aggregate, computing it when absent.
func (r *Repository) Stats(ctx context.Context) (domain.Stats, error) {
	stats, found, err := r.loadStats(ctx)
	if err != nil {
		return domain.Stats{}, domain.StoreFailure("failed to load stats", err)
	}
	if found {
		return stats, nil
	}
	apps, err := r.load(ctx)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.ComputeStats(apps, r.now()), nil
}

// Verify compares the derived keys with the canonical list without writing.
func (r *Repository) Verify(ctx context.Context) (Drift, error) {
	apps, err := r.load(ctx)
	if err != nil {
		return Drift{}, err
	}
	return r.verify(ctx, apps)
}

func (r *Repository) verify(ctx context.Context, apps []domain.App) (Drift, error) {
	current, err := r.Indexes(ctx)
	if err != nil {
		return Drift{}, err
	}
	stats, found, err := r.loadStats(ctx)
	if err != nil {
		return Drift{}, domain.StoreFailure("failed to load stats", err)
	}
	return Drift{
		Apps:         len(apps),
		Dangling:     current.DanglingIDs(apps),
		IndexesStale: !current.Equivalent(domain.BuildIndexes(apps)),
		StatsStale:   !found || !stats.Matches(apps),
	}, nil
}

// Rebuild recomputes every index and the stats from the canonical list and
// overwrites them. It returns the drift found before the rewrite.
func (r *Repository) Rebuild(ctx context.Context) (d Drift, err error) {
	defer r.observe("rebuild", time.Now(), &err)

	apps, err := r.load(ctx)
	if err != nil {
		return Drift{}, err
	}
	d, err = r.verify(ctx, apps)
	if err != nil {
		// unreadable derived keys are overwritten anyway
		d = Drift{Apps: len(apps), IndexesStale: true, StatsStale: true}
	}
	if err := r.rebuild(ctx, apps); err != nil {
		return d, domain.StoreFailure("failed to rebuild indexes", err)
	}
	if !d.Clean() {
		r.log.Info("derived keys rebuilt",
			logger.Int("apps", d.Apps),
			logger.Int("dangling", len(d.Dangling)),
			logger.Bool("indexes_stale", d.IndexesStale),
			logger.Bool("stats_stale", d.StatsStale),
		)
	}
	return d, nil
}
