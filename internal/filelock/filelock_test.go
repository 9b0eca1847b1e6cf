package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestNewFileLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".pk.lock")

	lock := NewFileLock(lockPath)
	if lock == nil {
		t.Fatal("NewFileLock should not return nil")
	}
	if lock.Path() != lockPath {
		t.Errorf("Expected lock path %s, got %s", lockPath, lock.Path())
	}
}

func TestLockCreatesParentDir(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "runs", ".pk.lock")

	lock := NewFileLock(lockPath)
	if err := lock.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if _, err := os.Stat(lockPath); err != nil {
		t.Errorf("Expected lock file to exist: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}
}

func TestWithLockSerializes(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, ".pk.lock")

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := WithLock(lockPath, func() error {
				mu.Lock()
				inside++
				if inside > maxSeen {
					maxSeen = inside
				}
				mu.Unlock()

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("WithLock failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("Expected at most one holder, saw %d", maxSeen)
	}
}

func TestWithLockReturnsCallbackError(t *testing.T) {
	sentinel := errors.New("callback failed")
	err := WithLock(filepath.Join(t.TempDir(), ".pk.lock"), func() error {
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("Expected callback error, got %v", err)
	}
}

func TestAtomicWrite(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "prompt.md")

	if err := AtomicWrite(target, []byte("first")); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}
	if err := AtomicWrite(target, []byte("second")); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("Failed to read target: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("Expected 'second', got %q", data)
	}

	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected 0644 permissions, got %v", info.Mode().Perm())
	}

	entries, _ := os.ReadDir(tmpDir)
	if len(entries) != 1 {
		t.Errorf("Expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestAtomicWriteMissingDir(t *testing.T) {
	target := filepath.Join(t.TempDir(), "missing", "meta.json")
	if err := AtomicWrite(target, []byte("{}")); err == nil {
		t.Error("Expected error when the parent directory does not exist")
	}
}
