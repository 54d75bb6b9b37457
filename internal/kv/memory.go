package kv

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Memory is an in-memory Client used by unit tests in place of Redis. It
// honors TTL-based expiry and the set-if-absent and sorted-set semantics the
// fraud engine and token subsystem rely on.
type Memory struct {
	mu      sync.Mutex
	strings map[string]memEntry
	zsets   map[string]map[string]float64
	zttl    map[string]time.Time

	// FailNext, when set, makes the next N operations return Err (or
	// ErrNotFound when Err is nil) instead of succeeding — used to simulate a
	// KV outage in failure-mode tests.
	FailNext int
	Err      error
}

type memEntry struct {
	value   string
	expires time.Time // zero means no expiry
}

// NewMemory creates an empty in-memory KV client.
func NewMemory() *Memory {
	return &Memory{
		strings: make(map[string]memEntry),
		zsets:   make(map[string]map[string]float64),
		zttl:    make(map[string]time.Time),
	}
}

func (m *Memory) fail() error {
	if m.FailNext > 0 {
		m.FailNext--
		if m.Err != nil {
			return m.Err
		}
		return ErrNotFound
	}
	return nil
}

func (m *Memory) expired(e memEntry) bool {
	return !e.expires.IsZero() && time.Now().After(e.expires)
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return "", err
	}
	e, ok := m.strings[key]
	if !ok || m.expired(e) {
		return "", ErrNotFound
	}
	return e.value, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	m.strings[key] = newEntry(value, ttl)
	return nil
}

func (m *Memory) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return false, err
	}
	if e, ok := m.strings[key]; ok && !m.expired(e) {
		return false, nil
	}
	m.strings[key] = newEntry(value, ttl)
	return true, nil
}

func (m *Memory) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	delete(m.strings, key)
	delete(m.zsets, key)
	delete(m.zttl, key)
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return false, err
	}
	e, ok := m.strings[key]
	return ok && !m.expired(e), nil
}

func (m *Memory) ZAdd(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	set, ok := m.zsets[key]
	if !ok {
		set = make(map[string]float64)
		m.zsets[key] = set
	}
	set[member] = score
	return nil
}

func (m *Memory) ZCount(_ context.Context, key string, min, max float64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return 0, err
	}
	if ttl, ok := m.zttl[key]; ok && time.Now().After(ttl) {
		delete(m.zsets, key)
		delete(m.zttl, key)
		return 0, nil
	}
	var n int64
	for _, score := range m.zsets[key] {
		if score >= min && score <= max {
			n++
		}
	}
	return n, nil
}

func (m *Memory) Expire(_ context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	if e, ok := m.strings[key]; ok {
		e.expires = time.Now().Add(ttl)
		m.strings[key] = e
	}
	if _, ok := m.zsets[key]; ok {
		m.zttl[key] = time.Now().Add(ttl)
	}
	return nil
}

func (m *Memory) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return 0, err
	}
	e, ok := m.strings[key]
	var n int64
	if ok && !m.expired(e) {
		n, _ = strconv.ParseInt(e.value, 10, 64)
	}
	n++
	entry := memEntry{value: strconv.FormatInt(n, 10)}
	if n == 1 && ttl > 0 {
		entry.expires = time.Now().Add(ttl)
	} else if ok && !m.expired(e) {
		entry.expires = e.expires
	}
	m.strings[key] = entry
	return n, nil
}

func (m *Memory) Ping(_ context.Context) error {
	return m.fail()
}

func newEntry(value string, ttl time.Duration) memEntry {
	e := memEntry{value: value}
	if ttl > 0 {
		e.expires = time.Now().Add(ttl)
	}
	return e
}
