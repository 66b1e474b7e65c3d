package memory

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/jmcleod/examcode/storage"
)

func TestMemoryRepository(t *testing.T) {
	repo := NewRepository()

	t.Run("PutAndGet", func(t *testing.T) {
		value := []byte("session-token")
		if err := repo.Put("sessionID", value); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		if string(value) != "session-token" {
			t.Fatalf("Put must not wipe the caller's slice, got %q", value)
		}

		got, err := repo.Get("sessionID")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if string(got) != "session-token" {
			t.Errorf("expected %q, got %q", "session-token", got)
		}

		// Test isolation (copy on read)
		got[0] = 'X'
		again, _ := repo.Get("sessionID")
		if string(again) != "session-token" {
			t.Errorf("stored value was mutated: %q", again)
		}
	})

	t.Run("EmptyValue", func(t *testing.T) {
		if err := repo.Put("empty", nil); err != nil {
			t.Fatalf("Put failed: %v", err)
		}
		got, err := repo.Get("empty")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected empty value, got %q", got)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, err := repo.Get("missing")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		if err := repo.Delete("sessionID"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := repo.Get("sessionID"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := repo.Delete("sessionID"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("expected ErrNotFound deleting twice, got %v", err)
		}
	})
}

func TestMemoryRepositoryConcurrent(t *testing.T) {
	repo := NewRepository()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i)
			if err := repo.Put(key, []byte(key)); err != nil {
				t.Errorf("Put %s failed: %v", key, err)
				return
			}
			got, err := repo.Get(key)
			if err != nil || string(got) != key {
				t.Errorf("Get %s = %q, %v", key, got, err)
			}
		}(i)
	}
	wg.Wait()
}
