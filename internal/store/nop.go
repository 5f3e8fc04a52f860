package store

import "time"

// NopStore is an answer cache that remembers nothing. Used in dry runs so no
// state is persisted.
type NopStore struct{}

// NewNopStore returns a NopStore.
func NewNopStore() *NopStore {
	return &NopStore{}
}

// Get always misses.
func (n *NopStore) Get(_ string) (string, bool, error) {
	return "", false, nil
}

// Put discards the answer.
func (n *NopStore) Put(_, _ string) error {
	return nil
}

// Cleanup is a no-op.
func (n *NopStore) Cleanup(_ time.Duration) error {
	return nil
}

// Close is a no-op.
func (n *NopStore) Close() error {
	return nil
}
