package store

import (
	"context"
	"encoding/json"
	"sync"
)

// Memory is an in-memory engine implementing the full Store surface. It is
// the degraded fallback behind the embedded database and the test double for
// the domain services. Safe for concurrent use.
type Memory struct {
	mu    sync.RWMutex
	specs map[string]CollectionSpec
	docs  map[string]map[string][]byte // collection -> id -> raw document
	order map[string][]string          // collection -> ids in insertion order
	kv    map[string][]byte
}

// NewMemory creates an empty in-memory engine.
func NewMemory() *Memory {
	return &Memory{
		specs: make(map[string]CollectionSpec),
		docs:  make(map[string]map[string][]byte),
		order: make(map[string][]string),
		kv:    make(map[string][]byte),
	}
}

func (m *Memory) DefineCollection(_ context.Context, spec CollectionSpec) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.specs[spec.Name]; ok {
		return nil
	}
	m.specs[spec.Name] = spec
	m.docs[spec.Name] = make(map[string][]byte)
	return nil
}

func (m *Memory) Add(_ context.Context, collection string, doc any) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	spec, ok := m.specs[collection]
	if !ok {
		return "", storageErr("add", collection, ErrUnknownCollection)
	}
	raw, fields, err := encodeDoc(doc)
	if err != nil {
		return "", storageErr("add", collection, err)
	}
	id := primaryKey(fields, spec.PrimaryKey)
	if id == "" {
		id, raw, err = assignKey(fields, spec.PrimaryKey)
		if err != nil {
			return "", storageErr("add", collection, err)
		}
	}
	if _, exists := m.docs[collection][id]; exists {
		return "", ErrDuplicateKey
	}
	m.docs[collection][id] = raw
	m.order[collection] = append(m.order[collection], id)
	return id, nil
}

func (m *Memory) GetByID(_ context.Context, collection, id string, out any) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.specs[collection]; !ok {
		return false, storageErr("get", collection, ErrUnknownCollection)
	}
	raw, ok := m.docs[collection][id]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, storageErr("get", collection, err)
	}
	return true, nil
}

func (m *Memory) GetAll(_ context.Context, collection string, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.specs[collection]; !ok {
		return storageErr("getAll", collection, ErrUnknownCollection)
	}
	var docs [][]byte
	for _, id := range m.order[collection] {
		if raw, ok := m.docs[collection][id]; ok {
			docs = append(docs, raw)
		}
	}
	if err := decodeList(docs, out); err != nil {
		return storageErr("getAll", collection, err)
	}
	return nil
}

func (m *Memory) GetByIndex(_ context.Context, collection, index string, value any, out any) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	spec, ok := m.specs[collection]
	if !ok {
		return storageErr("getByIndex", collection, ErrUnknownCollection)
	}
	field := ""
	for _, idx := range spec.Indexes {
		if idx.Name == index {
			field = idx.Field
			break
		}
	}
	if field == "" {
		return storageErr("getByIndex", collection, ErrUnknownCollection)
	}
	want := indexValue(value)
	var docs [][]byte
	for _, id := range m.order[collection] {
		raw, ok := m.docs[collection][id]
		if !ok {
			continue
		}
		var fields map[string]any
		if err := json.Unmarshal(raw, &fields); err != nil {
			return storageErr("getByIndex", collection, err)
		}
		if v, ok := fields[field]; ok && indexValue(v) == want {
			docs = append(docs, raw)
		}
	}
	if err := decodeList(docs, out); err != nil {
		return storageErr("getByIndex", collection, err)
	}
	return nil
}

func (m *Memory) Update(_ context.Context, collection string, doc any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	spec, ok := m.specs[collection]
	if !ok {
		return storageErr("update", collection, ErrUnknownCollection)
	}
	raw, fields, err := encodeDoc(doc)
	if err != nil {
		return storageErr("update", collection, err)
	}
	id := primaryKey(fields, spec.PrimaryKey)
	if id == "" {
		return ErrMissingKey
	}
	if _, exists := m.docs[collection][id]; !exists {
		m.order[collection] = append(m.order[collection], id)
	}
	m.docs[collection][id] = raw
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.specs[collection]; !ok {
		return storageErr("delete", collection, ErrUnknownCollection)
	}
	if _, exists := m.docs[collection][id]; exists {
		delete(m.docs[collection], id)
		for i, existing := range m.order[collection] {
			if existing == id {
				m.order[collection] = append(m.order[collection][:i], m.order[collection][i+1:]...)
				break
			}
		}
	}
	return nil
}

func (m *Memory) ClearCollection(_ context.Context, collection string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.specs[collection]; !ok {
		return storageErr("clear", collection, ErrUnknownCollection)
	}
	m.docs[collection] = make(map[string][]byte)
	m.order[collection] = nil
	return nil
}

func (m *Memory) GetValue(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.kv[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(v))
	copy(cp, v)
	return cp, true, nil
}

func (m *Memory) SetValue(_ context.Context, key string, val []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(val))
	copy(cp, val)
	m.kv[key] = cp
	return nil
}

func (m *Memory) DeleteValue(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.kv, key)
	return nil
}
