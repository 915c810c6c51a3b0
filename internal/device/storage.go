// Package device provides the small key-value store that survives restarts
// on the visitor's device: the visitor id and cached transcripts live here.
package device

import "errors"

// ErrClosed is returned by operations on a closed Storage.
var ErrClosed = errors.New("device storage is closed")

// Storage is a flat string key-value store.
type Storage interface {
	// Get returns the value and whether the key exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	// Keys returns every key starting with prefix, sorted.
	Keys(prefix string) ([]string, error)
	Close() error
}
