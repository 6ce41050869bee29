package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"shopcore/internal/blob"
	"shopcore/pkg/domain"
)

// Archiver batches committed events into fixed-size segments and writes each
// closed segment to a blob store as one JSON object. Keys are zero-padded by
// segment index so lexical listing equals trail order.
type Archiver struct {
	store       blob.Store
	segmentSize int

	mu      sync.Mutex
	buf     []domain.Event
	segment uint64
}

var _ Sink = (*Archiver)(nil)

// NewArchiver constructs an archiver flushing every segmentSize events
// (default 256).
func NewArchiver(store blob.Store, segmentSize int) *Archiver {
	if segmentSize <= 0 {
		segmentSize = 256
	}
	return &Archiver{store: store, segmentSize: segmentSize}
}

// Publish implements Sink, flushing whenever the segment fills.
func (a *Archiver) Publish(ctx context.Context, event domain.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.buf = append(a.buf, event)
	if len(a.buf) < a.segmentSize {
		return nil
	}
	return a.flushLocked(ctx)
}

// Flush writes any buffered partial segment.
func (a *Archiver) Flush(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.buf) == 0 {
		return nil
	}
	return a.flushLocked(ctx)
}

func (a *Archiver) flushLocked(ctx context.Context) error {
	payload, err := json.Marshal(a.buf)
	if err != nil {
		return fmt.Errorf("encode segment: %w", err)
	}
	key := fmt.Sprintf("events/segment-%08d.json", a.segment)
	_, err = a.store.Put(ctx, key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
		Metadata: map[string]string{
			"first_seq": fmt.Sprintf("%d", a.buf[0].Seq),
			"last_seq":  fmt.Sprintf("%d", a.buf[len(a.buf)-1].Seq),
		},
	})
	if err != nil {
		return fmt.Errorf("archive segment %s: %w", key, err)
	}
	a.segment++
	a.buf = a.buf[:0]
	return nil
}

// Segments reports how many segments have been written.
func (a *Archiver) Segments() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.segment
}
