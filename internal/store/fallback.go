package store

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fallback decorates a primary engine with a degraded secondary. The first
// StorageError from the primary flips the decorator into degraded mode; from
// then on every call is served by the fallback engine. Collection schemas
// are declared on both engines up front so the fallback is always ready.
//
// This is the single place fallback behavior lives; call sites never chain
// engines themselves.
type Fallback struct {
	primary  Store
	fallback Store
	log      *logrus.Entry

	mu       sync.RWMutex
	degraded bool
}

// NewFallback wraps primary with fallback.
func NewFallback(primary, fallback Store, log *logrus.Entry) *Fallback {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Fallback{primary: primary, fallback: fallback, log: log}
}

// Degraded reports whether the decorator has switched to the fallback engine.
func (f *Fallback) Degraded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.degraded
}

func (f *Fallback) active() Store {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.degraded {
		return f.fallback
	}
	return f.primary
}

// degradable reports whether an error indicates engine failure. A mistyped
// collection name is a caller bug, not a sign the engine is unhealthy, so it
// must not abandon the primary store.
func degradable(err error) bool {
	return IsStorageError(err) && !errors.Is(err, ErrUnknownCollection)
}

// degrade records the primary failure and switches engines.
func (f *Fallback) degrade(op string, err error) {
	f.mu.Lock()
	already := f.degraded
	f.degraded = true
	f.mu.Unlock()
	if !already {
		f.log.WithFields(logrus.Fields{"op": op, "error": err}).
			Warn("primary store failed, switching to fallback engine")
	}
}

func (f *Fallback) DefineCollection(ctx context.Context, spec CollectionSpec) error {
	// both engines carry the schema so a later switch needs no replay
	if err := f.fallback.DefineCollection(ctx, spec); err != nil {
		return err
	}
	if err := f.primary.DefineCollection(ctx, spec); err != nil {
		f.degrade("defineCollection", err)
	}
	return nil
}

func (f *Fallback) Add(ctx context.Context, collection string, doc any) (string, error) {
	id, err := f.active().Add(ctx, collection, doc)
	if err != nil && !f.Degraded() && degradable(err) {
		f.degrade("add", err)
		return f.fallback.Add(ctx, collection, doc)
	}
	return id, err
}

func (f *Fallback) GetByID(ctx context.Context, collection, id string, out any) (bool, error) {
	ok, err := f.active().GetByID(ctx, collection, id, out)
	if err != nil && !f.Degraded() && degradable(err) {
		f.degrade("get", err)
		return f.fallback.GetByID(ctx, collection, id, out)
	}
	return ok, err
}

func (f *Fallback) GetAll(ctx context.Context, collection string, out any) error {
	err := f.active().GetAll(ctx, collection, out)
	if err != nil && !f.Degraded() && degradable(err) {
		f.degrade("getAll", err)
		return f.fallback.GetAll(ctx, collection, out)
	}
	return err
}

func (f *Fallback) GetByIndex(ctx context.Context, collection, index string, value any, out any) error {
	err := f.active().GetByIndex(ctx, collection, index, value, out)
	if err != nil && !f.Degraded() && degradable(err) {
		f.degrade("getByIndex", err)
		return f.fallback.GetByIndex(ctx, collection, index, value, out)
	}
	return err
}

func (f *Fallback) Update(ctx context.Context, collection string, doc any) error {
	err := f.active().Update(ctx, collection, doc)
	if err != nil && !f.Degraded() && degradable(err) {
		f.degrade("update", err)
		return f.fallback.Update(ctx, collection, doc)
	}
	return err
}

func (f *Fallback) Delete(ctx context.Context, collection, id string) error {
	err := f.active().Delete(ctx, collection, id)
	if err != nil && !f.Degraded() && degradable(err) {
		f.degrade("delete", err)
		return f.fallback.Delete(ctx, collection, id)
	}
	return err
}

func (f *Fallback) ClearCollection(ctx context.Context, collection string) error {
	err := f.active().ClearCollection(ctx, collection)
	if err != nil && !f.Degraded() && degradable(err) {
		f.degrade("clear", err)
		return f.fallback.ClearCollection(ctx, collection)
	}
	return err
}

func (f *Fallback) GetValue(ctx context.Context, key string) ([]byte, bool, error) {
	val, ok, err := f.active().GetValue(ctx, key)
	if err != nil && !f.Degraded() && degradable(err) {
		f.degrade("getValue", err)
		return f.fallback.GetValue(ctx, key)
	}
	return val, ok, err
}

func (f *Fallback) SetValue(ctx context.Context, key string, val []byte) error {
	err := f.active().SetValue(ctx, key, val)
	if err != nil && !f.Degraded() && degradable(err) {
		f.degrade("setValue", err)
		return f.fallback.SetValue(ctx, key, val)
	}
	return err
}

func (f *Fallback) DeleteValue(ctx context.Context, key string) error {
	err := f.active().DeleteValue(ctx, key)
	if err != nil && !f.Degraded() && degradable(err) {
		f.degrade("deleteValue", err)
		return f.fallback.DeleteValue(ctx, key)
	}
	return err
}
