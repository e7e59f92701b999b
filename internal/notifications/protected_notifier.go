package notifications

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type breakerState int

const (
	stateClosed breakerState = iota
	stateOpen
	stateHalfOpen
)

type ProtectedNotifierConfig struct {
	Timeout          time.Duration // hard cap per delivery attempt
	FailureThreshold int           // consecutive failures that open the circuit
	Cooldown         time.Duration // open duration before trial calls resume
	HalfOpenMaxCalls int           // concurrent trial calls while half-open
}

// ProtectedNotifier wraps the welcome-notification provider in a timeout and
// a circuit breaker. Registration fires these sends on goroutines, so a dead
// provider must fail fast instead of stacking them up.
type ProtectedNotifier struct {
	inner Notifier
	cfg   ProtectedNotifierConfig

	mu       sync.Mutex
	state    breakerState
	failures int       // consecutive, reset on any success
	openedAt time.Time // when the circuit last opened
	trials   int       // in-flight half-open calls
}

func NewProtectedNotifier(inner Notifier, cfg ProtectedNotifierConfig) *ProtectedNotifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedNotifier{inner: inner, cfg: cfg}
}

func (n *ProtectedNotifier) SendWelcome(ctx context.Context, input SendWelcomeInput) error {
	if !n.admit() {
		return ErrCircuitOpen
	}

	sendCtx, cancel := context.WithTimeout(ctx, n.cfg.Timeout)
	defer cancel()

	err := n.inner.SendWelcome(sendCtx, input)
	n.settle(err)

	return err
}

// admit decides whether a call may reach the provider, moving the circuit
// from open to half-open once the cooldown has elapsed.
func (n *ProtectedNotifier) admit() bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch n.state {
	case stateOpen:
		if time.Since(n.openedAt) < n.cfg.Cooldown {
			return false
		}

		n.state = stateHalfOpen
		n.trials = 1
		return true

	case stateHalfOpen:
		if n.trials >= n.cfg.HalfOpenMaxCalls {
			return false
		}

		n.trials++
		return true

	default:
		return true
	}
}

// settle records the outcome of an admitted call. A success closes the
// circuit; a half-open failure reopens it immediately, a closed failure
// only once the threshold is reached.
func (n *ProtectedNotifier) settle(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.state == stateHalfOpen && n.trials > 0 {
		n.trials--
	}

	if err == nil {
		n.failures = 0
		n.state = stateClosed
		return
	}

	n.failures++

	if n.state == stateHalfOpen || n.failures >= n.cfg.FailureThreshold {
		n.state = stateOpen
		n.openedAt = time.Now()
	}
}
