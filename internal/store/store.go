// Package store provides the key-value backends behind the credential store
// and favorites list.
//
// Three backends implement types.CredentialStore:
//   - FileStore keeps a JSON object on disk, rewritten atomically on each change
//   - SQLiteStore keeps a single kv table in a SQLite database
//   - MemoryStore keeps values in process, for tests and one-shot runs
package store

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/toozej/moodlist/internal/types"
)

// Backend names accepted by Open
const (
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

var (
	// ErrUnknownDriver is returned by Open for unsupported backends
	ErrUnknownDriver = errors.New("unknown store driver")

	// ErrEmptyKey is returned when a key is empty
	ErrEmptyKey = errors.New("store key cannot be empty")
)

// Store is a CredentialStore that owns resources which must be released
type Store interface {
	types.CredentialStore
	Close() error
}

// Open returns the backend named by driver, rooted at path
func Open(driver, path string, logger *logrus.Logger) (Store, error) {
	switch driver {
	case DriverFile, "":
		return NewFileStore(path, logger)
	case DriverSQLite:
		return NewSQLiteStore(path, logger)
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
