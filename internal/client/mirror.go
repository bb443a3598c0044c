package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/appdir/internal/domain"
	"github.com/MrSnakeDoc/appdir/internal/kv"
)

// OpKind names a queued mutation.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpUpdate OpKind = "update"
	OpDelete OpKind = "delete"
	OpBatch  OpKind = "batch"
	OpImport OpKind = "import"
)

// Op is a mutation applied locally while the server was unreachable,
// waiting to be replayed by Sync. Key is always a directUrl: ids assigned
// offline are never seen by the server.
type Op struct {
	Seq      int64          `json:"seq"`
	Kind     OpKind         `json:"kind"`
	Key      string         `json:"key,omitempty"`
	Patch    *domain.Patch  `json:"patch,omitempty"`
	Patches  []domain.Patch `json:"patches,omitempty"`
	Records  []domain.App   `json:"records,omitempty"`
	QueuedAt int64          `json:"queuedAt"`
}

type mirrorEnvelope struct {
	Items   []domain.App `json:"items"`
	SavedAt int64        `json:"savedAt"`
}

// Mirror persists the last known list and the pending-op queue in a KV
// store so they survive restarts of the client.
type Mirror struct {
	store  kv.Store
	prefix string
}

// DefaultMirrorPrefix namespaces the mirror keys.
const DefaultMirrorPrefix = "appdirctl:"

func NewMirror(store kv.Store, prefix string) *Mirror {
	if prefix == "" {
		prefix = DefaultMirrorPrefix
	}
	return &Mirror{store: store, prefix: prefix}
}

func (m *Mirror) appsKey() string   { return m.prefix + "apps" }
func (m *Mirror) opsPrefix() string { return m.prefix + "ops:" }
func (m *Mirror) opKey(seq int64) string {
	return fmt.Sprintf("%s%020d", m.opsPrefix(), seq)
}

// Load returns the mirrored list. ok is false when nothing was saved yet.
func (m *Mirror) Load(ctx context.Context) (apps []domain.App, savedAt time.Time, ok bool, err error) {
	raw, err := m.store.Get(ctx, m.appsKey())
	if errors.Is(err, kv.ErrNotFound) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("read mirror: %w", err)
	}
	var env mirrorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, time.Time{}, false, fmt.Errorf("decode mirror: %w", err)
	}
	if env.Items == nil {
		env.Items = []domain.App{}
	}
	return env.Items, time.UnixMilli(env.SavedAt), true, nil
}

// Save replaces the mirrored list.
func (m *Mirror) Save(ctx context.Context, apps []domain.App, now time.Time) error {
	if apps == nil {
		apps = []domain.App{}
	}
	raw, err := json.Marshal(mirrorEnvelope{Items: apps, SavedAt: domain.Millis(now)})
	if err != nil {
		return fmt.Errorf("encode mirror: %w", err)
	}
	if err := m.store.Put(ctx, m.appsKey(), raw); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	return nil
}

// Enqueue appends op to the queue and returns it with its sequence number.
func (m *Mirror) Enqueue(ctx context.Context, op Op) (Op, error) {
	keys, err := m.opKeys(ctx)
	if err != nil {
		return Op{}, err
	}
	op.Seq = 1
	if len(keys) > 0 {
		last, err := m.seqOf(keys[len(keys)-1])
		if err != nil {
			return Op{}, err
		}
		op.Seq = last + 1
	}
	raw, err := json.Marshal(op)
	if err != nil {
		return Op{}, fmt.Errorf("encode op: %w", err)
	}
	if err := m.store.Put(ctx, m.opKey(op.Seq), raw); err != nil {
		return Op{}, fmt.Errorf("queue op: %w", err)
	}
	return op, nil
}

// Pending returns the queued ops, oldest first.
func (m *Mirror) Pending(ctx context.Context) ([]Op, error) {
	keys, err := m.opKeys(ctx)
	if err != nil {
		return nil, err
	}
	ops := make([]Op, 0, len(keys))
	for _, k := range keys {
		raw, err := m.store.Get(ctx, k)
		if errors.Is(err, kv.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read op %s: %w", k, err)
		}
		var op Op
		if err := json.Unmarshal(raw, &op); err != nil {
			return nil, fmt.Errorf("decode op %s: %w", k, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// PendingCount returns the queue length.
func (m *Mirror) PendingCount(ctx context.Context) (int, error) {
	keys, err := m.opKeys(ctx)
	return len(keys), err
}

// Remove drops a queued op.
func (m *Mirror) Remove(ctx context.Context, seq int64) error {
	if err := m.store.Delete(ctx, m.opKey(seq)); err != nil {
		return fmt.Errorf("dequeue op %d: %w", seq, err)
	}
	return nil
}

func (m *Mirror) opKeys(ctx context.Context) ([]string, error) {
	keys, err := m.store.List(ctx, m.opsPrefix())
	if err != nil {
		return nil, fmt.Errorf("list ops: %w", err)
	}
	slices.Sort(keys)
	return keys, nil
}

func (m *Mirror) seqOf(key string) (int64, error) {
	seq, err := strconv.ParseInt(strings.TrimPrefix(key, m.opsPrefix()), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed op key %q: %w", key, err)
	}
	return seq, nil
}
