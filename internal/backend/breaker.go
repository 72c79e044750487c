package backend

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

type BreakerState int

const (
	Closed BreakerState = iota
	Open
	HalfOpen
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case HalfOpen:
		return "half_open"
	default:
		return "unknown"
	}
}

var ErrBreakerOpen = errors.New("backend: circuit breaker is open")

type BreakerConfig struct {
	MaxFailures  int
	ResetTimeout time.Duration
}

// Breaker fails fast after MaxFailures consecutive transport or 5xx errors
// and lets a single trial call through once ResetTimeout has passed.
type Breaker struct {
	name   string
	cfg    BreakerConfig
	logger *slog.Logger
	now    func() time.Time

	mu       sync.Mutex
	state    BreakerState
	failures int
	openedAt time.Time
}

func NewBreaker(name string, cfg BreakerConfig, logger *slog.Logger) *Breaker {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 5
	}
	return &Breaker{
		name:   name,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		state:  Closed,
	}
}

func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

func (b *Breaker) Execute(ctx context.Context, op func(ctx context.Context) error) error {
	if err := b.admit(); err != nil {
		return err
	}

	err := op(ctx)
	if countsAsFailure(err) {
		b.onFailure(err)
	} else {
		b.onSuccess()
	}
	return err
}

func (b *Breaker) admit() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case Open:
		if b.now().Sub(b.openedAt) < b.cfg.ResetTimeout {
			b.logger.Warn("breaker fast fail", "name", b.name, "since_open", b.now().Sub(b.openedAt))
			return ErrBreakerOpen
		}
		b.state = HalfOpen
		b.logger.Info("breaker half open", "name", b.name)
		return nil
	case HalfOpen:
		// A trial call is already in flight.
		return ErrBreakerOpen
	default:
		return nil
	}
}

func (b *Breaker) onSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state != Closed {
		b.logger.Info("breaker closed", "name", b.name, "from", b.state)
	}
	b.state = Closed
	b.failures = 0
}

func (b *Breaker) onFailure(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	b.logger.Warn("backend call failed", "name", b.name, "failures", b.failures, "error", err)
	if b.state == HalfOpen || b.failures >= b.cfg.MaxFailures {
		b.state = Open
		b.openedAt = b.now()
		b.logger.Error("breaker opened", "name", b.name, "max_failures", b.cfg.MaxFailures)
	}
}

// countsAsFailure ignores client-side outcomes: 4xx answers and cancelled
// requests say nothing about backend health.
func countsAsFailure(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code >= 500
	}
	return true
}
