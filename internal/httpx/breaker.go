package httpx

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"codeberg.org/snonux/worldly/internal/errs"
	"codeberg.org/snonux/worldly/internal/logging"
)

// DefaultTripAfter is the number of consecutive transport failures that
// open a breaker.
const DefaultTripAfter = 5

// Breaker counts consecutive transport failures of one provider.
type Breaker struct {
	name   string
	cb     *gobreaker.CircuitBreaker
	logger *slog.Logger
}

// NewBreaker creates a breaker that opens after tripAfter consecutive
// failures. tripAfter <= 0 uses DefaultTripAfter.
func NewBreaker(name string, tripAfter int) *Breaker {
	if tripAfter <= 0 {
		tripAfter = DefaultTripAfter
	}
	logger := logging.WithComponent("breaker").With("provider", name)

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(tripAfter)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{
		name:   name,
		cb:     gobreaker.NewCircuitBreaker(settings),
		logger: logger,
	}
}

// Execute runs fn through the breaker. fn must only report transport-level
// failures; decoding and lookup errors are to be evaluated by the caller
// afterwards so they never trip the breaker.
func (b *Breaker) Execute(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return errs.New(errs.ErrProviderDown, b.name, err)
	}
	return err
}

// Open reports whether the breaker currently rejects calls.
func (b *Breaker) Open() bool {
	return b.cb.State() == gobreaker.StateOpen
}
