package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/google/uuid"
)

type memEntry struct {
	raw []byte
	seq uint64
}

// Memory is an in-process Store. Values are kept JSON-encoded so callers get
// the same number/slice shapes the Postgres store returns.
type Memory struct {
	mu   sync.RWMutex
	seq  uint64
	data map[string]map[string]memEntry
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string]map[string]memEntry)}
}

func (m *Memory) Get(_ context.Context, collection, key string) (Document, bool, error) {
	m.mu.RLock()
	e, ok := m.data[collection][key]
	m.mu.RUnlock()
	if !ok {
		return Document{}, false, nil
	}
	f, err := decodeFields(e.raw)
	if err != nil {
		return Document{}, false, err
	}
	return Document{Key: key, Fields: f}, true, nil
}

func (m *Memory) Put(_ context.Context, collection, key string, fields Fields) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	col, ok := m.data[collection]
	if !ok {
		col = make(map[string]memEntry)
		m.data[collection] = col
	}
	seq := col[key].seq
	if seq == 0 {
		m.seq++
		seq = m.seq
	}
	col[key] = memEntry{raw: raw, seq: seq}
	return nil
}

func (m *Memory) Create(ctx context.Context, collection string, fields Fields) (string, error) {
	key := uuid.NewString()
	if err := m.Put(ctx, collection, key, fields); err != nil {
		return "", err
	}
	return key, nil
}

func (m *Memory) Query(_ context.Context, collection, field, value string) ([]Document, error) {
	m.mu.RLock()
	type hit struct {
		doc Document
		seq uint64
	}
	var hits []hit
	for key, e := range m.data[collection] {
		f, err := decodeFields(e.raw)
		if err != nil {
			m.mu.RUnlock()
			return nil, err
		}
		if field != "" && !matches(f[field], value) {
			continue
		}
		hits = append(hits, hit{doc: Document{Key: key, Fields: f}, seq: e.seq})
	}
	m.mu.RUnlock()

	sort.Slice(hits, func(i, j int) bool { return hits[i].seq < hits[j].seq })
	docs := make([]Document, 0, len(hits))
	for _, h := range hits {
		docs = append(docs, h.doc)
	}
	return docs, nil
}

func (m *Memory) Delete(_ context.Context, collection, key string) error {
	m.mu.Lock()
	delete(m.data[collection], key)
	m.mu.Unlock()
	return nil
}
