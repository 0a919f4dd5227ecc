/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package kvstore provides the SDK's built-in file-based key value store.
// Each value is stored in a separate file under the store path. Production
// systems that want clustering can substitute a database-backed
// implementation of api.KeyValueStore.
package kvstore

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/securekey/ledger-sdk-go/pkg/api"
)

const (
	newDirMode  = 0700
	newFileMode = 0600
)

// KeySerializer converts a key to a unique file path relative to the store
// path.
type KeySerializer func(key string) (string, error)

// FileKeyValueStore stores each value into a separate file derived from the
// key.
type FileKeyValueStore struct {
	path          string
	keySerializer KeySerializer
}

// FileKeyValueStoreOptions allow overriding store defaults
type FileKeyValueStoreOptions struct {
	// Store path, mandatory
	Path string
	// Optional. If not provided, the key is used as the file name.
	KeySerializer KeySerializer
}

// New creates a new instance of FileKeyValueStore using provided options
func New(opts *FileKeyValueStoreOptions) (*FileKeyValueStore, error) {
	if opts == nil {
		return nil, errors.New("FileKeyValueStoreOptions is nil")
	}
	if opts.Path == "" {
		return nil, errors.New("FileKeyValueStore path is empty")
	}
	if opts.KeySerializer == nil {
		// Default key serializer
		opts.KeySerializer = func(key string) (string, error) {
			if key == "" {
				return "", errors.New("key is empty")
			}
			return filepath.Join(opts.Path, key), nil
		}
	}
	return &FileKeyValueStore{
		path:          opts.Path,
		keySerializer: opts.KeySerializer,
	}, nil
}

// Path returns the store path
func (fkvs *FileKeyValueStore) Path() string {
	return fkvs.path
}

// Load returns the value stored in the store for a key.
// If a value for the key was not found, returns api.ErrKeyValueNotFound.
func (fkvs *FileKeyValueStore) Load(key string) ([]byte, error) {
	file, err := fkvs.keySerializer(key)
	if err != nil {
		return nil, err
	}
	if _, err1 := os.Stat(file); os.IsNotExist(err1) {
		return nil, api.ErrKeyValueNotFound
	}
	bytes, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading file '%s' failed", file)
	}
	return bytes, nil
}

// Store sets the value for the key.
func (fkvs *FileKeyValueStore) Store(key string, value []byte) error {
	if value == nil {
		return errors.New("value is nil")
	}
	file, err := fkvs.keySerializer(key)
	if err != nil {
		return err
	}
	err = os.MkdirAll(filepath.Dir(file), newDirMode)
	if err != nil {
		return errors.Wrapf(err, "creating dir for file '%s' failed", file)
	}
	return os.WriteFile(file, value, newFileMode)
}

// Delete deletes the value for a key.
func (fkvs *FileKeyValueStore) Delete(key string) error {
	file, err := fkvs.keySerializer(key)
	if err != nil {
		return err
	}
	_, err = os.Stat(file)
	if err != nil {
		if !os.IsNotExist(err) {
			return errors.Wrapf(err, "stat file failed")
		}
		// Doesn't exist, OK
		return nil
	}
	return os.Remove(file)
}
