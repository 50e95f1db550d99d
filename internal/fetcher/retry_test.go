package fetcher

import (
	"context"
	"errors"
	"testing"

	"github.com/gamewatch/gamewatch/internal/types"
)

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("Do = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, func() error {
		calls++
		if calls < 3 {
			return &types.FetchError{Op: "navigate", Err: errors.New("timeout"), Retryable: true}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, func() error {
		calls++
		return &types.FetchError{Op: "navigate", Err: errors.New("timeout"), Retryable: true}
	})
	if !errors.Is(err, types.ErrMaxRetries) {
		t.Fatalf("Do = %v, want ErrMaxRetries", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoStopsOnNonRetryable(t *testing.T) {
	calls := 0
	fatal := &types.FetchError{Op: "fetch", Err: errors.New("HTTP 404"), Retryable: false}
	err := Do(context.Background(), 3, func() error {
		calls++
		return fatal
	})
	if !errors.Is(err, fatal) {
		t.Fatalf("Do = %v, want the non-retryable error", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, 3, func() error {
		t.Fatal("fn ran despite cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do = %v, want context.Canceled", err)
	}
}
