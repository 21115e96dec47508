package progress

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type captureSink struct {
	mu     sync.Mutex
	events []Event
	closed bool
}

func (s *captureSink) Consume(_ context.Context, batch []Event) error {
	s.mu.Lock()
	s.events = append(s.events, batch...)
	s.mu.Unlock()
	return nil
}

func (s *captureSink) Close(context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *captureSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func validEvent(stage Stage) Event {
	return Event{RunID: "run-1", TS: time.Now(), Stage: stage, Board: "movie"}
}

func TestHubDeliversEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(HubConfig{BatchWait: 10 * time.Millisecond}, sink)
	defer func() { _ = hub.Close(context.Background()) }()

	hub.Emit(validEvent(StageRunStart))
	hub.Emit(validEvent(StagePageDone))

	require.Eventually(t, func() bool {
		return sink.count() == 2
	}, 2*time.Second, 10*time.Millisecond)
}

func TestHubCloseDrainsAndClosesSinks(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	// Long batch wait forces the drain path to deliver the events.
	hub := NewHub(HubConfig{BatchWait: time.Hour}, sink)

	for i := 0; i < 10; i++ {
		hub.Emit(validEvent(StageArticleDone))
	}
	require.NoError(t, hub.Close(context.Background()))

	require.Equal(t, 10, sink.count())
	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.True(t, sink.closed)
}

func TestHubDiscardsInvalidEvents(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(HubConfig{}, sink)

	hub.Emit(Event{Stage: StageRunStart})                 // no run id
	hub.Emit(Event{RunID: "run-1", TS: time.Now()})       // no stage
	hub.Emit(Event{RunID: "run-1", Stage: StageRunStart}) // no timestamp

	require.NoError(t, hub.Close(context.Background()))
	require.Zero(t, sink.count())
}

func TestHubIgnoresEmitAfterClose(t *testing.T) {
	t.Parallel()

	sink := &captureSink{}
	hub := NewHub(HubConfig{}, sink)
	require.NoError(t, hub.Close(context.Background()))

	hub.Emit(validEvent(StageRunStart))
	require.Zero(t, sink.count())
}

func TestHubDropsUnderBackpressureWithoutBlocking(t *testing.T) {
	t.Parallel()

	blocked := make(chan struct{})
	sink := &blockingSink{release: blocked}
	hub := NewHub(HubConfig{Buffer: 4, BatchSize: 1, BatchWait: time.Millisecond}, sink)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			hub.Emit(validEvent(StagePageDone))
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked under backpressure")
	}
	require.Positive(t, hub.Dropped())
	close(blocked)
	require.NoError(t, hub.Close(context.Background()))
}

type blockingSink struct {
	release chan struct{}
}

func (s *blockingSink) Consume(ctx context.Context, _ []Event) error {
	select {
	case <-s.release:
	case <-ctx.Done():
	}
	return nil
}

func (s *blockingSink) Close(context.Context) error { return nil }
