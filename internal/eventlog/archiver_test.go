package eventlog

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"shopcore/internal/blob"
	"shopcore/pkg/domain"
)

func TestArchiverFlushesFullSegments(t *testing.T) {
	store := blob.NewMemory()
	archiver := NewArchiver(store, 2)
	ctx := context.Background()

	for seq := uint64(1); seq <= 5; seq++ {
		err := archiver.Publish(ctx, domain.Event{
			Seq:    seq,
			Type:   domain.EventItemAdded,
			ItemID: seq,
		})
		if err != nil {
			t.Fatalf("Publish(%d): %v", seq, err)
		}
	}

	if got := archiver.Segments(); got != 2 {
		t.Fatalf("segments = %d, want 2", got)
	}
	infos, err := store.List(ctx, "events/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("stored %d segments, want 2", len(infos))
	}
	if infos[0].Key != "events/segment-00000000.json" {
		t.Fatalf("first key = %q", infos[0].Key)
	}
	if infos[0].Metadata["first_seq"] != "1" || infos[0].Metadata["last_seq"] != "2" {
		t.Fatalf("segment metadata = %v", infos[0].Metadata)
	}

	_, rc, err := store.Get(ctx, infos[1].Key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	defer func() { _ = rc.Close() }()
	payload, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read segment: %v", err)
	}
	var events []domain.Event
	if err := json.Unmarshal(payload, &events); err != nil {
		t.Fatalf("decode segment: %v", err)
	}
	if len(events) != 2 || events[0].Seq != 3 || events[1].Seq != 4 {
		t.Fatalf("second segment events = %+v", events)
	}
}

func TestArchiverFlushWritesPartialSegment(t *testing.T) {
	store := blob.NewMemory()
	archiver := NewArchiver(store, 10)
	ctx := context.Background()

	if err := archiver.Flush(ctx); err != nil {
		t.Fatalf("Flush on empty buffer: %v", err)
	}
	if got := archiver.Segments(); got != 0 {
		t.Fatalf("empty flush wrote %d segments", got)
	}

	if err := archiver.Publish(ctx, domain.Event{Seq: 1, Type: domain.EventItemAdded}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if err := archiver.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if got := archiver.Segments(); got != 1 {
		t.Fatalf("segments = %d, want 1", got)
	}

	infos, err := store.List(ctx, "events/")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 1 || infos[0].Metadata["last_seq"] != "1" {
		t.Fatalf("stored segments = %+v", infos)
	}
}

func TestArchiverBehindLog(t *testing.T) {
	store := blob.NewMemory()
	archiver := NewArchiver(store, 2)
	trail := New(WithSink(archiver))
	defer trail.Close()

	trail.Emit([]domain.Event{
		{Type: domain.EventItemAdded, ItemID: 1},
		{Type: domain.EventItemAdded, ItemID: 2},
	})

	waitFor(t, func() bool { return archiver.Segments() == 1 })
}
