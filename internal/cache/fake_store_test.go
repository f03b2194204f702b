package cache

import (
	"context"
	"sync"
	"time"
)

// fakeStore records calls and can be told to fail.
type fakeStore struct {
	mu     sync.Mutex
	name   string
	data   map[string][]byte
	gets   int
	sets   int
	err    error
	closed bool
}

func newFakeStore(name string) *fakeStore {
	return &fakeStore{name: name, data: make(map[string][]byte)}
}

func (f *fakeStore) Name() string { return f.name }

func (f *fakeStore) Get(_ context.Context, key string) ([]byte, time.Duration, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets++
	if f.err != nil {
		return nil, 0, false, f.err
	}
	v, ok := f.data[key]
	return v, 0, ok, nil
}

func (f *fakeStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.err != nil {
		return f.err
	}
	f.data[key] = value
	return nil
}

func (f *fakeStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.data, key)
	return nil
}

func (f *fakeStore) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeStore) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gets
}

func (f *fakeStore) setCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.data[key]
	return ok
}
