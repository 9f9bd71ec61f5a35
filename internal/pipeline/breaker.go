package pipeline

import (
	"errors"
	"sync"
	"time"

	"github.com/XavierBriggs/Ares/pkg/clock"
)

// ErrCircuitOpen is returned when a call is rejected without touching the
// network because the source is considered down.
var ErrCircuitOpen = errors.New("circuit breaker open: source unavailable")

// State is a circuit breaker mode
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half_open"
)

// CircuitBreaker tracks consecutive upstream failures for one source. After
// failureThreshold consecutive failures it opens and rejects calls until
// resetTimeout has elapsed, then admits a single trial call.
type CircuitBreaker struct {
	failureThreshold int
	resetTimeout     time.Duration

	mu            sync.Mutex
	state         State
	failureCount  int
	lastFailure   time.Time
	trialInFlight bool

	clock    clock.Clock
	onChange func(from, to State)
}

// NewCircuitBreaker creates a closed breaker. onChange fires on every state
// transition and may be nil.
func NewCircuitBreaker(failureThreshold int, resetTimeout time.Duration, clk clock.Clock, onChange func(from, to State)) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: failureThreshold,
		resetTimeout:     resetTimeout,
		state:            StateClosed,
		clock:            clk,
		onChange:         onChange,
	}
}

// BeforeCall gates one physical attempt. While open it fails fast with
// ErrCircuitOpen; once the reset timeout has elapsed it admits exactly one
// trial call and rejects concurrent callers until that trial is recorded.
func (b *CircuitBreaker) BeforeCall() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.clock.Now().Sub(b.lastFailure) < b.resetTimeout {
			return ErrCircuitOpen
		}
		b.transition(StateHalfOpen)
		b.trialInFlight = true
		return nil
	case StateHalfOpen:
		if b.trialInFlight {
			return ErrCircuitOpen
		}
		b.trialInFlight = true
		return nil
	default:
		return nil
	}
}

// OnSuccess records a successful call, clearing the failure streak and
// closing the circuit after a successful trial.
func (b *CircuitBreaker) OnSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	b.trialInFlight = false
	if b.state != StateClosed {
		b.transition(StateClosed)
	}
}

// OnFailure records a failed call. The circuit opens when the consecutive
// failure streak reaches the threshold, or immediately on a failed trial.
func (b *CircuitBreaker) OnFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount++
	b.lastFailure = b.clock.Now()
	b.trialInFlight = false
	if b.state == StateHalfOpen || (b.state == StateClosed && b.failureCount >= b.failureThreshold) {
		b.transition(StateOpen)
	}
}

// Reset forces the circuit closed. Administrative override for when an
// operator knows the upstream has recovered.
func (b *CircuitBreaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failureCount = 0
	b.trialInFlight = false
	if b.state != StateClosed {
		b.transition(StateClosed)
	}
}

// Snapshot returns the current state and consecutive failure count
func (b *CircuitBreaker) Snapshot() (State, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state, b.failureCount
}

// transition changes state and fires the change callback. Caller holds mu,
// so the callback must not call back into the breaker.
func (b *CircuitBreaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onChange != nil {
		b.onChange(from, to)
	}
}
