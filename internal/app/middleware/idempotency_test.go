package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"

	"renta/internal/app/commands"
)

type echoCommand struct {
	KeyV    string
	Payload string
}

func (c echoCommand) Key() string            { return "test.echo" }
func (c echoCommand) IdempotencyKey() string { return c.KeyV }
func (c echoCommand) ResultPrototype() any   { return &echoResult{} }

type echoResult struct {
	Payload string `json:"payload"`
}

type memoryStore struct {
	mu    sync.Mutex
	items map[string]IdempotencyRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{items: make(map[string]IdempotencyRecord)}
}

func (s *memoryStore) Get(ctx context.Context, key string) (IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.items[key]
	return rec, ok, nil
}

func (s *memoryStore) Save(ctx context.Context, rec IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[rec.Key] = rec
	return nil
}

func newEchoBus(calls *int, fail error) commands.Bus {
	bus := commands.NewInMemoryBus()
	bus.RegisterRaw("test.echo", func(ctx context.Context, cmd commands.Command) (any, error) {
		*calls++
		if fail != nil {
			return nil, fail
		}
		return &echoResult{Payload: cmd.(echoCommand).Payload}, nil
	})
	return bus
}

func TestIdempotencyCachesResult(t *testing.T) {
	calls := 0
	bus := ChainCommands(newEchoBus(&calls, nil), Idempotency(newMemoryStore(), nil))
	ctx := context.Background()

	first, err := bus.Dispatch(ctx, echoCommand{KeyV: "k1", Payload: "hello"})
	if err != nil {
		t.Fatalf("first dispatch: %v", err)
	}
	second, err := bus.Dispatch(ctx, echoCommand{KeyV: "k1", Payload: "ignored on replay"})
	if err != nil {
		t.Fatalf("second dispatch: %v", err)
	}
	if calls != 1 {
		t.Errorf("handler calls: got %d, want 1", calls)
	}
	if first.(*echoResult).Payload != "hello" || second.(*echoResult).Payload != "hello" {
		t.Errorf("results: first %+v, second %+v", first, second)
	}
}

func TestIdempotencyCachesErrors(t *testing.T) {
	calls := 0
	failure := errors.New("boom")
	bus := ChainCommands(newEchoBus(&calls, failure), Idempotency(newMemoryStore(), nil))
	ctx := context.Background()

	if _, err := bus.Dispatch(ctx, echoCommand{KeyV: "k1"}); err == nil {
		t.Fatal("expected an error")
	}
	if _, err := bus.Dispatch(ctx, echoCommand{KeyV: "k1"}); err == nil || err.Error() != "boom" {
		t.Fatalf("replayed error: got %v", err)
	}
	if calls != 1 {
		t.Errorf("handler calls: got %d, want 1", calls)
	}
}

func TestIdempotencySkipsBlankKeys(t *testing.T) {
	calls := 0
	bus := ChainCommands(newEchoBus(&calls, nil), Idempotency(newMemoryStore(), nil))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := bus.Dispatch(ctx, echoCommand{Payload: "no key"}); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if calls != 2 {
		t.Errorf("handler calls: got %d, want 2", calls)
	}
}

func TestIdempotencyDistinctKeys(t *testing.T) {
	calls := 0
	bus := ChainCommands(newEchoBus(&calls, nil), Idempotency(newMemoryStore(), nil))
	ctx := context.Background()

	if _, err := bus.Dispatch(ctx, echoCommand{KeyV: "a", Payload: "one"}); err != nil {
		t.Fatalf("dispatch a: %v", err)
	}
	result, err := bus.Dispatch(ctx, echoCommand{KeyV: "b", Payload: "two"})
	if err != nil {
		t.Fatalf("dispatch b: %v", err)
	}
	if calls != 2 {
		t.Errorf("handler calls: got %d, want 2", calls)
	}
	if result.(*echoResult).Payload != "two" {
		t.Errorf("result: %+v", result)
	}
}
