package cache_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/repoprompt/repoprompt/internal/cache"
	"github.com/repoprompt/repoprompt/internal/types"
)

// markerWritingCloner simulates a successful clone by creating a .git
// directory inside the destination, counting invocations.
type markerWritingCloner struct {
	cloneCount atomic.Int64
}

func (cloner *markerWritingCloner) Clone(_ context.Context, _ string, destinationDirectory string) error {
	cloner.cloneCount.Add(1)
	return os.MkdirAll(filepath.Join(destinationDirectory, ".git"), 0o755)
}

func newTestStore(t *testing.T, cloner cache.Cloner) *cache.Store {
	t.Helper()
	store, storeError := cache.NewStore(cache.StoreOptions{
		RootDirectory: t.TempDir(),
		Cloner:        cloner,
	})
	if storeError != nil {
		t.Fatalf("create store: %v", storeError)
	}
	return store
}

func TestResolveClonesOnMiss(t *testing.T) {
	t.Parallel()

	cloner := &markerWritingCloner{}
	store := newTestStore(t, cloner)

	resolvedDirectory, resolveError := store.Resolve(context.Background(), "https://github.com/spf13/cobra")
	if resolveError != nil {
		t.Fatalf("resolve: %v", resolveError)
	}
	if cloner.cloneCount.Load() != 1 {
		t.Fatalf("expected one clone, got %d", cloner.cloneCount.Load())
	}
	if _, statError := os.Stat(filepath.Join(resolvedDirectory, ".git")); statError != nil {
		t.Fatalf("expected version-control marker in %s: %v", resolvedDirectory, statError)
	}
	if !strings.HasPrefix(filepath.Base(resolvedDirectory), cache.DefaultDirectoryPrefix) {
		t.Fatalf("entry directory %s missing prefix %s", resolvedDirectory, cache.DefaultDirectoryPrefix)
	}
}

func TestResolveReusesValidEntryWithoutRecloning(t *testing.T) {
	t.Parallel()

	cloner := &markerWritingCloner{}
	store := newTestStore(t, cloner)
	sourceURL := "https://github.com/spf13/cobra"

	firstDirectory, firstError := store.Resolve(context.Background(), sourceURL)
	if firstError != nil {
		t.Fatalf("first resolve: %v", firstError)
	}
	secondDirectory, secondError := store.Resolve(context.Background(), sourceURL)
	if secondError != nil {
		t.Fatalf("second resolve: %v", secondError)
	}
	if firstDirectory != secondDirectory {
		t.Fatalf("resolve not idempotent: %q then %q", firstDirectory, secondDirectory)
	}
	if cloner.cloneCount.Load() != 1 {
		t.Fatalf("expected exactly one clone across two resolves, got %d", cloner.cloneCount.Load())
	}
}

func TestResolveRemovesCorruptedEntryAndReclones(t *testing.T) {
	t.Parallel()

	cloner := &markerWritingCloner{}
	store := newTestStore(t, cloner)
	sourceURL := "https://github.com/spf13/cobra"

	// A pre-existing entry directory without a marker is corrupted state.
	entryDirectory := store.EntryDirectory(sourceURL)
	if makeError := os.MkdirAll(entryDirectory, 0o755); makeError != nil {
		t.Fatalf("prepare corrupted entry: %v", makeError)
	}
	strayFilePath := filepath.Join(entryDirectory, "partial_data")
	if writeError := os.WriteFile(strayFilePath, []byte("incomplete"), 0o644); writeError != nil {
		t.Fatalf("write stray file: %v", writeError)
	}

	resolvedDirectory, resolveError := store.Resolve(context.Background(), sourceURL)
	if resolveError != nil {
		t.Fatalf("resolve: %v", resolveError)
	}
	if cloner.cloneCount.Load() != 1 {
		t.Fatalf("expected a fresh clone after corruption, got %d clones", cloner.cloneCount.Load())
	}
	if _, statError := os.Stat(strayFilePath); !os.IsNotExist(statError) {
		t.Fatalf("stray file survived corruption recovery")
	}
	if _, statError := os.Stat(filepath.Join(resolvedDirectory, ".git")); statError != nil {
		t.Fatalf("expected marker after re-clone: %v", statError)
	}
}

func TestResolveCloneFailureRemovesDirectoryAndClassifies(t *testing.T) {
	t.Parallel()

	cloneFailure := errors.New("remote unreachable")
	failingCloner := cache.ClonerFunc(func(context.Context, string, string) error {
		return cloneFailure
	})
	store := newTestStore(t, failingCloner)
	sourceURL := "https://github.com/spf13/cobra"

	_, resolveError := store.Resolve(context.Background(), sourceURL)
	if resolveError == nil {
		t.Fatalf("expected resolve failure")
	}
	failureKind, classified := types.FailureKindOf(resolveError)
	if !classified || failureKind != types.FailureCloneFailed {
		t.Fatalf("expected %s classification, got %v (%v)", types.FailureCloneFailed, failureKind, resolveError)
	}
	if !errors.Is(resolveError, cloneFailure) {
		t.Fatalf("expected wrapped clone cause, got %v", resolveError)
	}
	if _, statError := os.Stat(store.EntryDirectory(sourceURL)); !os.IsNotExist(statError) {
		t.Fatalf("expected failed clone directory to be removed")
	}
}

func TestResolveCloneDeadlineClassifiesAsTimeout(t *testing.T) {
	t.Parallel()

	timingOutCloner := cache.ClonerFunc(func(context.Context, string, string) error {
		return context.DeadlineExceeded
	})
	store := newTestStore(t, timingOutCloner)

	_, resolveError := store.Resolve(context.Background(), "https://github.com/spf13/cobra")
	failureKind, classified := types.FailureKindOf(resolveError)
	if !classified || failureKind != types.FailureCloneTimeout {
		t.Fatalf("expected %s classification, got %v (%v)", types.FailureCloneTimeout, failureKind, resolveError)
	}
}

func TestResolveSerializesSameKeyResolutions(t *testing.T) {
	t.Parallel()

	cloner := &markerWritingCloner{}
	store := newTestStore(t, cloner)
	sourceURL := "https://github.com/spf13/cobra"

	const concurrentResolvers = 8
	var waitGroup sync.WaitGroup
	resolveErrors := make([]error, concurrentResolvers)
	for resolverIndex := 0; resolverIndex < concurrentResolvers; resolverIndex++ {
		waitGroup.Add(1)
		go func(slot int) {
			defer waitGroup.Done()
			_, resolveErrors[slot] = store.Resolve(context.Background(), sourceURL)
		}(resolverIndex)
	}
	waitGroup.Wait()

	for slot, resolveError := range resolveErrors {
		if resolveError != nil {
			t.Fatalf("resolver %d failed: %v", slot, resolveError)
		}
	}
	if cloner.cloneCount.Load() != 1 {
		t.Fatalf("concurrent same-URL resolves performed %d clones, want 1", cloner.cloneCount.Load())
	}
}
