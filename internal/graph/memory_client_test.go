package graph

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryClient_RecordsCallsAndReplaysResults(t *testing.T) {
	mem := NewMemoryClient()
	mem.PushReadResult(Result{Records: []Record{{"value": int64(1)}}})
	mem.PushReadResult(Result{Records: []Record{{"value": int64(2)}}})

	first, err := mem.ExecuteRead(context.Background(), "RETURN 1", map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	second, err := mem.ExecuteRead(context.Background(), "RETURN 2", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if first.Records[0]["value"] != int64(1) || second.Records[0]["value"] != int64(2) {
		t.Error("results not replayed in FIFO order")
	}

	calls := mem.ReadCalls()
	if len(calls) != 2 || calls[0].Query != "RETURN 1" || calls[0].Params["a"] != 1 {
		t.Fatalf("unexpected recorded calls %+v", calls)
	}
}

func TestMemoryClient_WriteErrorsAreConsumedInOrder(t *testing.T) {
	mem := NewMemoryClient()
	mem.PushWriteError(errors.New("transient"))
	mem.PushWriteError(nil)

	if _, err := mem.ExecuteWrite(context.Background(), "CREATE (n)", nil); err == nil {
		t.Fatal("expected first write to fail")
	}
	if _, err := mem.ExecuteWrite(context.Background(), "CREATE (n)", nil); err != nil {
		t.Fatalf("expected second write to succeed, got %v", err)
	}
	if len(mem.WriteCalls()) != 2 {
		t.Error("failed writes must still be recorded")
	}
}

func TestMemoryClient_WithErrorFailsEverything(t *testing.T) {
	boom := errors.New("down")
	mem := NewMemoryClient().WithError(boom)

	if _, err := mem.ExecuteRead(context.Background(), "RETURN 1", nil); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if _, err := mem.ExecuteWrite(context.Background(), "CREATE (n)", nil); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if len(mem.ReadCalls()) != 0 {
		t.Error("errored calls must not be recorded")
	}
}

func TestMemoryClient_ConnectivityError(t *testing.T) {
	boom := errors.New("unreachable")
	mem := NewMemoryClient().WithConnectivityError(boom)

	if err := mem.VerifyConnectivity(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if err := NewMemoryClient().VerifyConnectivity(context.Background()); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
