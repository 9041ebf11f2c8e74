package domain

import (
	"context"
	"fmt"
	"time"
)

// StorageKeys is the key namespace used in the key-value store
type StorageKeys struct {
	MoodEntries string
	// DiaryEntries is reserved; nothing reads or writes it yet.
	DiaryEntries string
}

// DefaultStorageKeys returns the standard key names
func DefaultStorageKeys() StorageKeys {
	return StorageKeys{
		MoodEntries:  "mood_entries",
		DiaryEntries: "diary_entries",
	}
}

// KVStore defines the key-value storage the mood log persists into
type KVStore interface {
	// Get returns the value for key; ok is false if the key was never set
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Clock provides the current instant in the user's location
type Clock interface {
	Now() time.Time
}

// Storage operations reported in StorageError
const (
	OpRead   = "read"
	OpWrite  = "write"
	OpDecode = "decode"
	OpEncode = "encode"
)

// StorageError reports a failed read, write or parse of persisted data
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
