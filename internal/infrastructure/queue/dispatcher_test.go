package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/accounts-api/internal/core/ports"
)

type recordingStore struct {
	mu      sync.Mutex
	deleted []string
	fail    map[string]bool
	done    chan struct{}
	want    int
}

func newRecordingStore(want int) *recordingStore {
	return &recordingStore{fail: map[string]bool{}, done: make(chan struct{}), want: want}
}

func (s *recordingStore) Put(context.Context, string, io.Reader) (*ports.BlobInfo, error) {
	return nil, errors.New("not implemented")
}

func (s *recordingStore) Delete(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, url)
	if len(s.deleted) == s.want {
		close(s.done)
	}
	if s.fail[url] {
		return errors.New("disk error")
	}
	return nil
}

func (s *recordingStore) snapshot() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.deleted...)
}

func waitFor(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for workers")
	}
}

func TestDispatcher_DeletesEnqueuedBlobs(t *testing.T) {
	store := newRecordingStore(3)
	store.fail["/uploads/b"] = true
	d := NewDispatcher(2, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(ports.BlobCleanupJob{OwnerID: "u-1", URL: "/uploads/a"})
	d.Enqueue(ports.BlobCleanupJob{OwnerID: "u-2", URL: "/uploads/b"})
	d.Enqueue(ports.BlobCleanupJob{OwnerID: "u-3", URL: "/uploads/c"})

	waitFor(t, store.done)
	assert.ElementsMatch(t, []string{"/uploads/a", "/uploads/b", "/uploads/c"}, store.snapshot())
}

func TestDispatcher_PerOwnerOrdering(t *testing.T) {
	const n = 50
	store := newRecordingStore(n)
	d := NewDispatcher(4, store, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	want := make([]string, n)
	for i := range want {
		want[i] = fmt.Sprintf("/uploads/%02d", i)
		d.Enqueue(ports.BlobCleanupJob{OwnerID: "u-alice", URL: want[i]})
	}

	waitFor(t, store.done)
	assert.Equal(t, want, store.snapshot())
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	d := NewDispatcher(1, newRecordingStore(-1), zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue(ports.BlobCleanupJob{OwnerID: "u-1", URL: fmt.Sprintf("/uploads/%d", i)})
		}
		close(done)
	}()

	waitFor(t, done)
	assert.Len(t, d.workers[0], channelBuffer)
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(8, newRecordingStore(-1), zerolog.Nop())

	for _, owner := range []string{"", "u-1", "65f0c0ffee0000000000abcd"} {
		idx := d.shardIndex(owner)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, 8)
		assert.Equal(t, idx, d.shardIndex(owner))
	}
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	d := NewDispatcher(3, newRecordingStore(-1), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	cancel()

	stopped := make(chan struct{})
	go func() {
		d.Wait()
		close(stopped)
	}()
	waitFor(t, stopped)
}

func TestNewDispatcher_DefaultWorkers(t *testing.T) {
	assert.Len(t, NewDispatcher(0, newRecordingStore(-1), zerolog.Nop()).workers, defaultWorkers)
}
