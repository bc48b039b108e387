package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/repoprompt/repoprompt/internal/types"
)

const (
	// DefaultDirectoryPrefix names cache entries under the root.
	DefaultDirectoryPrefix = "repoprompt_repo_"
	// gitMarkerName is the on-disk artifact marking a valid working copy.
	gitMarkerName = ".git"
)

// Cloner is the external clone capability: populate destinationDirectory
// with a working copy of the repository at sourceURL.
type Cloner interface {
	Clone(ctx context.Context, sourceURL string, destinationDirectory string) error
}

// ClonerFunc adapts a function into a Cloner.
type ClonerFunc func(ctx context.Context, sourceURL string, destinationDirectory string) error

// Clone invokes the underlying function.
func (cloner ClonerFunc) Clone(ctx context.Context, sourceURL string, destinationDirectory string) error {
	return cloner(ctx, sourceURL, destinationDirectory)
}

// Store resolves remote URLs to reusable local clone directories beneath a
// stable root. Entries are never updated in place: an existing directory is
// either reused as-is when its version-control marker is present, or
// removed entirely and recreated.
type Store struct {
	rootDirectory   string
	directoryPrefix string
	cloner          Cloner
	logger          *zap.Logger

	keyLocksGuard sync.Mutex
	keyLocks      map[string]*sync.Mutex
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// RootDirectory is the shared, persistent cache root.
	RootDirectory string
	// DirectoryPrefix names entries; DefaultDirectoryPrefix when empty.
	DirectoryPrefix string
	// Cloner performs the actual clone operation.
	Cloner Cloner
	// Logger receives lifecycle events; a no-op logger when nil.
	Logger *zap.Logger
}

// NewStore constructs a Store rooted at options.RootDirectory.
func NewStore(options StoreOptions) (*Store, error) {
	if options.RootDirectory == "" {
		return nil, errors.New("cache root directory is required")
	}
	if options.Cloner == nil {
		return nil, errors.New("cache cloner is required")
	}
	directoryPrefix := options.DirectoryPrefix
	if directoryPrefix == "" {
		directoryPrefix = DefaultDirectoryPrefix
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		rootDirectory:   options.RootDirectory,
		directoryPrefix: directoryPrefix,
		cloner:          options.Cloner,
		logger:          logger,
		keyLocks:        map[string]*sync.Mutex{},
	}, nil
}

// EntryDirectory returns the directory a source URL maps to, without
// touching the filesystem.
func (store *Store) EntryDirectory(sourceURL string) string {
	return filepath.Join(store.rootDirectory, store.directoryPrefix+DeriveKey(sourceURL))
}

// Resolve returns a local directory containing a working copy of the
// repository at sourceURL, cloning on miss. Resolutions of the same cache
// key are serialized; distinct keys proceed in parallel.
func (store *Store) Resolve(ctx context.Context, sourceURL string) (string, error) {
	cacheKey := DeriveKey(sourceURL)
	entryDirectory := filepath.Join(store.rootDirectory, store.directoryPrefix+cacheKey)

	keyLock := store.lockForKey(cacheKey)
	keyLock.Lock()
	defer keyLock.Unlock()

	if _, statError := os.Stat(entryDirectory); statError == nil {
		if store.hasVersionControlMarker(entryDirectory) {
			store.logger.Info("reusing cached repository",
				zap.String("url", sourceURL),
				zap.String("directory", entryDirectory))
			return entryDirectory, nil
		}
		store.logger.Warn("removing corrupted cache entry",
			zap.String("url", sourceURL),
			zap.String("directory", entryDirectory))
		store.removeEntry(entryDirectory)
	}

	if makeError := os.MkdirAll(entryDirectory, 0o755); makeError != nil {
		return "", types.NewFailure(types.FailureCloneFailed, makeError,
			"create cache directory for %s: %v", sourceURL, makeError)
	}

	store.logger.Info("cloning repository",
		zap.String("url", sourceURL),
		zap.String("directory", entryDirectory))
	if cloneError := store.cloner.Clone(ctx, sourceURL, entryDirectory); cloneError != nil {
		store.removeEntry(entryDirectory)
		failureKind := types.FailureCloneFailed
		if errors.Is(cloneError, context.DeadlineExceeded) {
			failureKind = types.FailureCloneTimeout
		}
		return "", types.NewFailure(failureKind, cloneError,
			"cloning repository %s: %v", sourceURL, cloneError)
	}

	return entryDirectory, nil
}

// hasVersionControlMarker reports whether the directory holds a .git entry.
// Worktree-style .git files count as valid markers.
func (store *Store) hasVersionControlMarker(entryDirectory string) bool {
	_, statError := os.Stat(filepath.Join(entryDirectory, gitMarkerName))
	return statError == nil
}

// removeEntry deletes a cache entry recursively. Cleanup is best-effort:
// failures are logged, never surfaced.
func (store *Store) removeEntry(entryDirectory string) {
	if removeError := os.RemoveAll(entryDirectory); removeError != nil {
		store.logger.Warn("cache entry cleanup failed",
			zap.String("directory", entryDirectory),
			zap.Error(removeError))
	}
}

// lockForKey returns the mutex serializing resolutions of one cache key.
func (store *Store) lockForKey(cacheKey string) *sync.Mutex {
	store.keyLocksGuard.Lock()
	defer store.keyLocksGuard.Unlock()
	keyLock, exists := store.keyLocks[cacheKey]
	if !exists {
		keyLock = &sync.Mutex{}
		store.keyLocks[cacheKey] = keyLock
	}
	return keyLock
}
