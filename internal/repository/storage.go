package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/kv"
)

// Key layout, relative to the configured prefix.
const (
	KeyApps        = "apps_data"
	KeyIndexPrefix = "apps_index:"
	KeyTop         = KeyIndexPrefix + "top"
	KeyStats       = "apps_stats"
)

// IndexKey returns the key of a keyed index dimension.
func IndexKey(d domain.Dimension) string {
	return KeyIndexPrefix + string(d)
}

type listEnvelope struct {
	Items       []domain.App `json:"items"`
	LastUpdated int64        `json:"lastUpdated"`
}

func (r *Repository) key(k string) string { return r.prefix + k }

func (r *Repository) getJSON(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := r.store.Get(ctx, r.key(key))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (r *Repository) putJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := r.store.Put(ctx, r.key(key), raw); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}

// loadApps reads the canonical list. Both the {items,lastUpdated} envelope
// and a bare array are accepted. Records written before ids existed get one.
func (r *Repository) loadApps(ctx context.Context) ([]domain.App, error) {
	raw, err := r.store.Get(ctx, r.key(KeyApps))
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []domain.App{}, nil
		}
		return nil, fmt.Errorf("get %s: %w", KeyApps, err)
	}

	var apps []domain.App
	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &apps)
	} else {
		var env listEnvelope
		err = json.Unmarshal(raw, &env)
		apps = env.Items
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", KeyApps, err)
	}

	for i := range apps {
		if apps[i].ID == "" {
			apps[i].ID = legacyID(apps[i].DirectURL)
		}
		apps[i].Category = domain.NormalizeCategory(string(apps[i].Category))
		if apps[i].Tags == nil {
			apps[i].Tags = []string{}
		}
		if apps[i].Status == "" {
			apps[i].Status = domain.StatusActive
		}
	}
	if apps == nil {
		apps = []domain.App{}
	}
	return apps, nil
}

func (r *Repository) saveApps(ctx context.Context, apps []domain.App) error {
	if err := r.putJSON(ctx, KeyApps, listEnvelope{Items: apps, LastUpdated: domain.Millis(r.now())}); err != nil {
		return err
	}
	if r.rec != nil {
		r.rec.SetCatalogSize(len(apps))
	}
	return nil
}

func (r *Repository) loadIndex(ctx context.Context, d domain.Dimension) (domain.IndexMap, error) {
	m := domain.IndexMap{}
	if _, err := r.getJSON(ctx, IndexKey(d), &m); err != nil {
		return nil, err
	}
	if m == nil {
		m = domain.IndexMap{}
	}
	return m, nil
}

func (r *Repository) loadTop(ctx context.Context) (domain.TopIndex, error) {
	top := domain.TopIndex{}
	if _, err := r.getJSON(ctx, KeyTop, &top); err != nil {
		return nil, err
	}
	if top == nil {
		top = domain.TopIndex{}
	}
	return top, nil
}

func (r *Repository) loadStats(ctx context.Context) (domain.Stats, bool, error) {
	var s domain.Stats
	found, err := r.getJSON(ctx, KeyStats, &s)
	if err != nil || !found {
		return domain.Stats{}, false, err
	}
	if s.CategoryStats == nil {
		s.CategoryStats = map[domain.Category]int{}
	}
	return s, true, nil
}

// legacyID derives a stable id for records stored before ids were assigned,
// so repeated loads agree until the list is rewritten.
func legacyID(directURL string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(directURL)).String()
}
