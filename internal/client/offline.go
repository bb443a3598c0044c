package client

import (
	"fmt"
	"slices"
	"time"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/repository"
)

// The functions below replay the repository's rules on a local list so an
// offline mutation is rejected for the same reasons the server would
// reject it. They never mutate their input.

func localCreate(apps []domain.App, p domain.Patch, id string, now time.Time) ([]domain.App, domain.App, error) {
	rec := domain.NewRecord(p, id, now)
	if err := domain.Validate(rec); err != nil {
		return nil, domain.App{}, err
	}
	if _, dup := domain.URLSet(apps)[rec.DirectURL]; dup {
		return nil, domain.App{}, domain.AlreadyExists(rec.DirectURL)
	}
	return append(domain.CloneAll(apps), rec), rec, nil
}

func localUpdate(apps []domain.App, key string, p domain.Patch, now time.Time) ([]domain.App, domain.App, domain.App, error) {
	i := domain.Find(apps, key)
	if i < 0 {
		return nil, domain.App{}, domain.App{}, domain.NotFound(key)
	}
	old := apps[i].Clone()
	updated := domain.ApplyPatch(old, p, now)
	if updated.DirectURL != old.DirectURL && domain.URLTakenByOther(apps, i, updated.DirectURL) {
		return nil, domain.App{}, domain.App{}, domain.AlreadyExists(updated.DirectURL)
	}
	if err := domain.Validate(updated); err != nil {
		return nil, domain.App{}, domain.App{}, err
	}
	out := domain.CloneAll(apps)
	out[i] = updated
	return out, old, updated, nil
}

func localDelete(apps []domain.App, key string) ([]domain.App, domain.App, error) {
	i := domain.Find(apps, key)
	if i < 0 {
		return nil, domain.App{}, domain.NotFound(key)
	}
	removed := apps[i].Clone()
	return slices.Delete(domain.CloneAll(apps), i, i+1), removed, nil
}

func localInsert(apps []domain.App, recs []domain.App, pick domain.IDPicker) ([]domain.App, repository.BatchResult, error) {
	if len(recs) == 0 {
		return nil, repository.BatchResult{}, domain.ValidationFailed("batch is empty", nil)
	}
	if err := domain.ValidateBatch(recs); err != nil {
		return nil, repository.BatchResult{}, err
	}
	out, added, skipped := domain.Merge(apps, recs, pick)
	return out, repository.BatchResult{Added: added, Skipped: skipped}, nil
}

func localBatch(apps []domain.App, patches []domain.Patch, newID func() string, now time.Time) ([]domain.App, repository.BatchResult, error) {
	recs := make([]domain.App, len(patches))
	for i, p := range patches {
		recs[i] = domain.NewRecord(p, "", now)
	}
	return localInsert(apps, recs, domain.FreshIDs(newID))
}

func localImport(apps []domain.App, records []domain.App, newID func() string, now time.Time) ([]domain.App, repository.BatchResult, error) {
	recs := make([]domain.App, len(records))
	for i, rec := range records {
		recs[i] = domain.NewFromImport(rec, rec.ID, now)
	}
	return localInsert(apps, recs, domain.KeepIDs(newID))
}

func checkPayload(op Op) error {
	if (op.Kind == OpCreate || op.Kind == OpUpdate) && op.Patch == nil {
		return fmt.Errorf("queued %s op %d has no payload", op.Kind, op.Seq)
	}
	return nil
}

// applyOp replays a queued op on apps with the time it was queued at.
func applyOp(apps []domain.App, op Op, newID func() string) ([]domain.App, error) {
	if err := checkPayload(op); err != nil {
		return nil, err
	}
	at := time.UnixMilli(op.QueuedAt)
	var (
		out []domain.App
		err error
	)
	switch op.Kind {
	case OpCreate:
		out, _, err = localCreate(apps, *op.Patch, newID(), at)
	case OpUpdate:
		out, _, _, err = localUpdate(apps, op.Key, *op.Patch, at)
	case OpDelete:
		out, _, err = localDelete(apps, op.Key)
	case OpBatch:
		out, _, err = localBatch(apps, op.Patches, newID, at)
	case OpImport:
		out, _, err = localImport(apps, op.Records, newID, at)
	default:
		err = fmt.Errorf("unknown op kind %q", op.Kind)
	}
	return out, err
}

// keepLocalIDs gives records the server does not know the id they carry in
// the local list, matched by directUrl.
func keepLocalIDs(apps, server, local []domain.App) []domain.App {
	known := make(map[string]bool, len(server))
	for _, a := range server {
		known[a.ID] = true
	}
	ids := make(map[string]string, len(local))
	for _, a := range local {
		ids[a.DirectURL] = a.ID
	}
	for i, a := range apps {
		if known[a.ID] {
			continue
		}
		if id, ok := ids[a.DirectURL]; ok {
			apps[i].ID = id
		}
	}
	return apps
}
