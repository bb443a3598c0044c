package kv

import (
	"context"
	"time"
)

// Hooks intercepts calls made through a wrapped Store.
// A non-nil error returned by a Before hook aborts the call with that error.
type Hooks struct {
	BeforeGet    func(ctx context.Context, key string) error
	BeforePut    func(ctx context.Context, key string, value []byte) error
	BeforeDelete func(ctx context.Context, key string) error
	// After runs once per call with the operation name ("get", "put", "delete", "list").
	After func(op, key string, elapsed time.Duration, err error)
}

type hooked struct {
	next  Store
	hooks Hooks
}

// Wrap returns a Store that runs hooks around every call to next.
func Wrap(next Store, hooks Hooks) Store {
	return &hooked{next: next, hooks: hooks}
}

func (h *hooked) Get(ctx context.Context, key string) (v []byte, err error) {
	defer h.after("get", key, time.Now(), &err)
	if h.hooks.BeforeGet != nil {
		if err = h.hooks.BeforeGet(ctx, key); err != nil {
			return nil, err
		}
	}
	return h.next.Get(ctx, key)
}

func (h *hooked) Put(ctx context.Context, key string, value []byte) (err error) {
	defer h.after("put", key, time.Now(), &err)
	if h.hooks.BeforePut != nil {
		if err = h.hooks.BeforePut(ctx, key, value); err != nil {
			return err
		}
	}
	return h.next.Put(ctx, key, value)
}

func (h *hooked) Delete(ctx context.Context, key string) (err error) {
	defer h.after("delete", key, time.Now(), &err)
	if h.hooks.BeforeDelete != nil {
		if err = h.hooks.BeforeDelete(ctx, key); err != nil {
			return err
		}
	}
	return h.next.Delete(ctx, key)
}

func (h *hooked) List(ctx context.Context, prefix string) (keys []string, err error) {
	defer h.after("list", prefix, time.Now(), &err)
	return h.next.List(ctx, prefix)
}

// Ping forwards to the wrapped store so health checks still reach it.
func (h *hooked) Ping(ctx context.Context) error {
	return Ping(ctx, h.next)
}

func (h *hooked) after(op, key string, start time.Time, err *error) {
	if h.hooks.After != nil {
		h.hooks.After(op, key, time.Since(start), *err)
	}
}
