/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package mocks provides in-memory collaborator implementations shared by
// the SDK's tests.
package mocks

import (
	"sync"

	"github.com/securekey/ledger-sdk-go/pkg/api"
)

// MockKeyValueStore is an in-memory api.KeyValueStore with error
// injection.
type MockKeyValueStore struct {
	mu     sync.Mutex
	values map[string][]byte

	// LoadErr, when set, fails every Load.
	LoadErr error
	// StoreErr, when set, fails every Store.
	StoreErr error
}

// NewMockKeyValueStore returns an empty in-memory store.
func NewMockKeyValueStore() *MockKeyValueStore {
	return &MockKeyValueStore{values: map[string][]byte{}}
}

// Load returns the stored value or api.ErrKeyValueNotFound.
func (s *MockKeyValueStore) Load(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	value, ok := s.values[key]
	if !ok {
		return nil, api.ErrKeyValueNotFound
	}
	return value, nil
}

// Store sets the value for key.
func (s *MockKeyValueStore) Store(key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.StoreErr != nil {
		return s.StoreErr
	}
	s.values[key] = value
	return nil
}

// Len returns the number of stored keys.
func (s *MockKeyValueStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}
