package blob

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
)

func storesUnderTest(t *testing.T) map[string]Store {
	t.Helper()
	fs, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	return map[string]Store{
		"memory": NewMemory(),
		"fs":     fs,
	}
}

func TestStoreRoundtrip(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			info, err := store.Put(ctx, "events/segment-00000000.json", strings.NewReader("[1,2]"), PutOptions{
				ContentType: "application/json",
			})
			if err != nil {
				t.Fatalf("Put: %v", err)
			}
			if info.Size != 5 {
				t.Fatalf("size = %d, want 5", info.Size)
			}

			got, rc, err := store.Get(ctx, "events/segment-00000000.json")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			data, err := io.ReadAll(rc)
			_ = rc.Close()
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(data) != "[1,2]" {
				t.Fatalf("payload = %q", data)
			}
			if got.Key != "events/segment-00000000.json" {
				t.Fatalf("key = %q", got.Key)
			}

			if _, err := store.Head(ctx, "events/segment-00000000.json"); err != nil {
				t.Fatalf("Head: %v", err)
			}

			deleted, err := store.Delete(ctx, "events/segment-00000000.json")
			if err != nil || !deleted {
				t.Fatalf("Delete = %v, %v; want true, nil", deleted, err)
			}
			if _, err := store.Head(ctx, "events/segment-00000000.json"); !errors.Is(err, ErrNotFound) {
				t.Fatalf("Head after delete: got %v, want ErrNotFound", err)
			}
			deleted, err = store.Delete(ctx, "events/segment-00000000.json")
			if err != nil || deleted {
				t.Fatalf("second Delete = %v, %v; want false, nil", deleted, err)
			}
		})
	}
}

func TestPutIsCreateOnly(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			if _, err := store.Put(ctx, "k", strings.NewReader("a"), PutOptions{}); err != nil {
				t.Fatalf("Put: %v", err)
			}
			if _, err := store.Put(ctx, "k", strings.NewReader("b"), PutOptions{}); err == nil {
				t.Fatal("overwrite should be rejected")
			}

			// The original payload is untouched.
			_, rc, err := store.Get(ctx, "k")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			data, _ := io.ReadAll(rc)
			_ = rc.Close()
			if string(data) != "a" {
				t.Fatalf("payload = %q, want %q", data, "a")
			}
		})
	}
}

func TestListSortedByPrefix(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for _, key := range []string{"events/b", "events/a", "other/c"} {
				if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err != nil {
					t.Fatalf("Put(%s): %v", key, err)
				}
			}

			infos, err := store.List(ctx, "events/")
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(infos) != 2 || infos[0].Key != "events/a" || infos[1].Key != "events/b" {
				t.Fatalf("listing = %+v", infos)
			}
		})
	}
}

func TestFilesystemRejectsTraversal(t *testing.T) {
	store, err := NewFilesystem(t.TempDir())
	if err != nil {
		t.Fatalf("NewFilesystem: %v", err)
	}
	ctx := context.Background()

	for _, key := range []string{"../escape", "/abs/path", "."} {
		if _, err := store.Put(ctx, key, strings.NewReader("x"), PutOptions{}); err == nil {
			t.Errorf("Put(%q) accepted an invalid key", key)
		}
	}
}
