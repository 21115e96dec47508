package progress

import "context"

// Sink receives batches of progress events. Implementations must tolerate
// being called from the hub goroutine only; Consume is never invoked
// concurrently with itself.
type Sink interface {
	Consume(ctx context.Context, events []Event) error
	Close(ctx context.Context) error
}

// Emitter is the producer-side interface handed to the engine.
type Emitter interface {
	Emit(event Event)
}

// NopEmitter discards every event.
type NopEmitter struct{}

// Emit implements Emitter.
func (NopEmitter) Emit(Event) {}
