package payment

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

var ErrDeclined = errors.New("payment declined")

// Authorizer is the contract a payment processor must satisfy. Amounts are
// in cents. A decline is reported as ErrDeclined; any other error is a
// processor failure.
type Authorizer interface {
	Authorize(ctx context.Context, amount int64) error
}

// Stub approves authorizations after a fixed delay. DeclineRate, when set,
// declines that fraction of authorizations at random, which is useful for
// exercising rollback paths in staging.
type Stub struct {
	Delay       time.Duration
	DeclineRate float64
}

func (s *Stub) Authorize(ctx context.Context, amount int64) error {
	if s.Delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.Delay):
		}
	}

	if s.DeclineRate > 0 && rand.Float64() < s.DeclineRate {
		return ErrDeclined
	}

	return nil
}
