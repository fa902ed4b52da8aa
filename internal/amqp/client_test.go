package amqp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{0, 1 * time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{4, 16 * time.Second},
		{5, 30 * time.Second},  // capped
		{10, 30 * time.Second}, // capped
		{63, 30 * time.Second}, // shift overflow stays capped
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			if got := exponentialBackoff(tt.attempt); got != tt.expected {
				t.Errorf("exponentialBackoff(%d) = %v, want %v", tt.attempt, got, tt.expected)
			}
		})
	}
}

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"connection refused", errors.New("dial tcp: connection refused"), true},
		{"connection closed", errors.New("Exception (504) Reason: connection closed"), true},
		{"unexpected EOF", errors.New("unexpected EOF"), true},
		{"broken pipe", errors.New("write: broken pipe"), true},
		{"channel not open", errors.New("channel/connection is not open"), true},
		{"unrelated error", errors.New("access refused for user"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectionError(tt.err); got != tt.expected {
				t.Errorf("isConnectionError(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestConsumeWithRedial(t *testing.T) {
	t.Run("redials across broken links", func(t *testing.T) {
		fatal := errors.New("access refused for user")
		var consumes, redials int
		err := consumeWithRedial(context.Background(),
			func() error {
				consumes++
				if consumes <= 2 {
					return errors.New("write: broken pipe")
				}
				return fatal
			},
			func() error {
				redials++
				return nil
			},
		)
		if !errors.Is(err, fatal) {
			t.Fatalf("err = %v, want %v", err, fatal)
		}
		if redials != 2 {
			t.Fatalf("redials = %d, want 2", redials)
		}
	})

	t.Run("treats closed deliveries as connection loss", func(t *testing.T) {
		fatal := errors.New("handler gave up")
		var redials int
		first := true
		err := consumeWithRedial(context.Background(),
			func() error {
				if first {
					first = false
					return errDeliveriesClosed
				}
				return fatal
			},
			func() error {
				redials++
				return nil
			},
		)
		if !errors.Is(err, fatal) {
			t.Fatalf("err = %v, want %v", err, fatal)
		}
		if redials != 1 {
			t.Fatalf("redials = %d, want 1", redials)
		}
	})

	t.Run("stops when context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		var redials int
		err := consumeWithRedial(ctx,
			func() error {
				cancel()
				return errors.New("unexpected EOF")
			},
			func() error {
				redials++
				return nil
			},
		)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
		if redials != 0 {
			t.Fatalf("redials = %d, want 0", redials)
		}
	})

	t.Run("returns redial failure", func(t *testing.T) {
		dialErr := errors.New("dial tcp: connection refused")
		err := consumeWithRedial(context.Background(),
			func() error { return errors.New("write: broken pipe") },
			func() error { return dialErr },
		)
		if !errors.Is(err, dialErr) {
			t.Fatalf("err = %v, want %v", err, dialErr)
		}
	})
}

func TestTransactionSyncMessageRoundTrip(t *testing.T) {
	msg := NewTransactionSyncMessage("7b0e7cda-6f55-4d9f-8f4c-2f2d9a3f4c11", 1)
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := TransactionSyncMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != msg.ID || got.Version != msg.Version {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, msg)
	}

	if _, err := TransactionSyncMessageFromJSON([]byte("{not json")); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}
