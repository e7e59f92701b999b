package notifications

import (
	"context"
	"errors"
	"testing"
	"time"
)

type scriptedNotifier struct {
	err   error
	calls int
}

func (s *scriptedNotifier) SendWelcome(ctx context.Context, input SendWelcomeInput) error {
	s.calls++
	return s.err
}

func TestProtectedNotifierPassesThroughWhenClosed(t *testing.T) {
	inner := &scriptedNotifier{}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{})

	err := n.SendWelcome(context.Background(), SendWelcomeInput{UserID: "u1", Email: "al@example.com"})

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("inner called %d times, want 1", inner.calls)
	}
}

func TestProtectedNotifierOpensAfterConsecutiveFailures(t *testing.T) {
	inner := &scriptedNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 2,
		Cooldown:         time.Hour,
	})

	ctx := context.Background()
	input := SendWelcomeInput{UserID: "u1"}

	for i := 0; i < 2; i++ {
		if err := n.SendWelcome(ctx, input); err == nil {
			t.Fatal("expected a provider failure")
		}
	}

	// threshold reached, calls now fail fast without touching the provider
	err := n.SendWelcome(ctx, input)

	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("got %v, want ErrCircuitOpen", err)
	}
	if inner.calls != 2 {
		t.Fatalf("inner called %d times, want 2", inner.calls)
	}
}

func TestProtectedNotifierRecoversAfterCooldown(t *testing.T) {
	inner := &scriptedNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 1,
		Cooldown:         10 * time.Millisecond,
	})

	ctx := context.Background()
	input := SendWelcomeInput{UserID: "u1"}

	if err := n.SendWelcome(ctx, input); err == nil {
		t.Fatal("expected a provider failure")
	}
	if !errors.Is(n.SendWelcome(ctx, input), ErrCircuitOpen) {
		t.Fatal("circuit should be open after the threshold")
	}

	time.Sleep(25 * time.Millisecond)

	// provider is healthy again; the half-open trial closes the circuit
	inner.err = nil

	if err := n.SendWelcome(ctx, input); err != nil {
		t.Fatalf("half-open trial failed: %v", err)
	}
	if err := n.SendWelcome(ctx, input); err != nil {
		t.Fatalf("closed circuit rejected a send: %v", err)
	}
}

func TestProtectedNotifierReopensOnHalfOpenFailure(t *testing.T) {
	inner := &scriptedNotifier{err: errors.New("provider down")}
	n := NewProtectedNotifier(inner, ProtectedNotifierConfig{
		FailureThreshold: 1,
		Cooldown:         10 * time.Millisecond,
	})

	ctx := context.Background()
	input := SendWelcomeInput{UserID: "u1"}

	if err := n.SendWelcome(ctx, input); err == nil {
		t.Fatal("expected a provider failure")
	}

	time.Sleep(25 * time.Millisecond)

	// still down during the half-open trial
	if err := n.SendWelcome(ctx, input); err == nil {
		t.Fatal("expected the trial to fail")
	}

	if !errors.Is(n.SendWelcome(ctx, input), ErrCircuitOpen) {
		t.Fatal("circuit should reopen after a failed trial")
	}
}
