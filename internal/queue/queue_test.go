package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestEnqueueFallbackMode(t *testing.T) {
	q := New(nil)
	defer q.Close()

	type payload struct {
		Name string `json:"name"`
	}

	received := make(chan payload, 1)
	q.Register("test_job", func(ctx context.Context, raw json.RawMessage) error {
		var p payload
		if err := json.Unmarshal(raw, &p); err != nil {
			t.Errorf("failed to unmarshal payload: %v", err)
			return err
		}
		received <- p
		return nil
	})

	if err := q.Enqueue(context.Background(), "test_job", payload{Name: "hello"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	select {
	case p := <-received:
		if p.Name != "hello" {
			t.Errorf("expected payload name %q, got %q", "hello", p.Name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not invoked in fallback mode")
	}
}

func TestEnqueueUnregisteredType(t *testing.T) {
	q := New(nil)

	// No handler registered: the job is logged and dropped, never an error
	if err := q.Enqueue(context.Background(), "nobody_home", map[string]string{"k": "v"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q.Close()
}

func TestEnqueueMarshalError(t *testing.T) {
	q := New(nil)
	defer q.Close()

	if err := q.Enqueue(context.Background(), "test_job", make(chan int)); err == nil {
		t.Error("expected error for an unmarshalable payload")
	}
}

func TestDispatchRecoversFromPanic(t *testing.T) {
	q := New(nil)

	q.Register("explosive", func(ctx context.Context, raw json.RawMessage) error {
		panic("boom")
	})

	if err := q.Enqueue(context.Background(), "explosive", struct{}{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Close waits for the in-flight job; a leaked panic would fail the test
	q.Close()
}

func TestCloseWaitsForInFlightJobs(t *testing.T) {
	q := New(nil)

	finished := make(chan struct{})
	q.Register("slow", func(ctx context.Context, raw json.RawMessage) error {
		time.Sleep(100 * time.Millisecond)
		close(finished)
		return nil
	})

	if err := q.Enqueue(context.Background(), "slow", struct{}{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	q.Close()

	select {
	case <-finished:
	default:
		t.Error("Close returned before the in-flight job finished")
	}
}
