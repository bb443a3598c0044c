package repository

import (
	"context"
	"slices"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/logger"
)

// change describes one record transition. before is nil on insert and after
// is nil on delete.
type change struct {
	before *domain.App
	after  *domain.App
}

func (c change) id() string {
	if c.after != nil {
		return c.after.ID
	}
	return c.before.ID
}

func inserted(apps []domain.App) []change {
	out := make([]change, len(apps))
	for i := range apps {
		out[i] = change{after: &apps[i]}
	}
	return out
}

// applyDerived updates the keyed indexes, then top, then stats, one key at a
// time. The first failing key aborts the rest and leaves drift behind.
func (r *Repository) applyDerived(ctx context.Context, apps []domain.App, changes []change) error {
	for _, d := range domain.Dimensions {
		if !touches(changes, func(a domain.App) []string { return domain.KeysFor(d, a) }) {
			continue
		}
		m, err := r.loadIndex(ctx, d)
		if err != nil {
			return r.drift(IndexKey(d), err)
		}
		for _, c := range changes {
			switch {
			case c.after == nil:
				m.Remove(c.id())
			case c.before == nil:
				for _, k := range domain.KeysFor(d, *c.after) {
					m.Add(k, c.id())
				}
			default:
				m.Move(c.id(), domain.KeysFor(d, *c.before), domain.KeysFor(d, *c.after))
			}
		}
		if err := r.putJSON(ctx, IndexKey(d), m); err != nil {
			return r.drift(IndexKey(d), err)
		}
	}

	if touches(changes, topKey) {
		top, err := r.loadTop(ctx)
		if err != nil {
			return r.drift(KeyTop, err)
		}
		for _, c := range changes {
			top = top.With(c.id(), c.after != nil && c.after.IsTop)
		}
		if err := r.putJSON(ctx, KeyTop, top); err != nil {
			return r.drift(KeyTop, err)
		}
	}

	if !touches(changes, statsKey) {
		return nil
	}
	stats, found, err := r.loadStats(ctx)
	if err != nil {
		return r.drift(KeyStats, err)
	}
	if found {
		for _, c := range changes {
			switch {
			case c.after == nil:
				stats.Remove(*c.before)
			case c.before == nil:
				stats.Add(*c.after)
			default:
				stats.Replace(*c.before, *c.after)
			}
		}
		stats.LastUpdated = domain.Millis(r.now())
	} else {
		stats = domain.ComputeStats(apps, r.now())
	}
	if err := r.putJSON(ctx, KeyStats, stats); err != nil {
		return r.drift(KeyStats, err)
	}
	return nil
}

func topKey(a domain.App) []string {
	if a.IsTop {
		return []string{"top"}
	}
	return nil
}

func statsKey(a domain.App) []string {
	return append(topKey(a), string(a.Category))
}

// touches reports whether any change alters the values keys derives. Inserts
// and deletes always count.
func touches(changes []change, keys func(domain.App) []string) bool {
	for _, c := range changes {
		if c.before == nil || c.after == nil {
			return true
		}
		if !slices.Equal(keys(*c.before), keys(*c.after)) {
			return true
		}
	}
	return false
}

func (r *Repository) drift(key string, err error) error {
	r.log.Warn("derived key not updated, run reindex to repair",
		logger.String("key", r.key(key)),
		logger.Error(err),
	)
	return domain.StoreFailure("app list saved but "+key+" is stale", err)
}

func (r *Repository) rebuild(ctx context.Context, apps []domain.App) error {
	set := domain.BuildIndexes(apps)
	for _, d := range domain.Dimensions {
		if err := r.putJSON(ctx, IndexKey(d), set.Map(d)); err != nil {
			return err
		}
	}
	if err := r.putJSON(ctx, KeyTop, set.Top); err != nil {
		return err
	}
	return r.putJSON(ctx, KeyStats, domain.ComputeStats(apps, r.now()))
}
