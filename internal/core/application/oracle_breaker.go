package application

import (
	"context"

	"github.com/sony/gobreaker"

	"github.com/dxganta/protocol/internal/core/domain"
	"github.com/dxganta/protocol/pkg/circuitbreaker"
	"github.com/dxganta/protocol/pkg/fixedpoint"
)

// breakerOracle wraps a price oracle with a circuit breaker so a flapping
// feed stops receiving requests instead of stalling every sweep.
type breakerOracle struct {
	inner domain.PriceOracle
	cb    *gobreaker.CircuitBreaker
}

func newBreakerOracle(inner domain.PriceOracle) *breakerOracle {
	return &breakerOracle{
		inner: inner,
		cb:    circuitbreaker.NewCircuitBreaker("oracle"),
	}
}

func (o *breakerOracle) Consult(
	ctx context.Context, source, asset string,
) (fixedpoint.Fix, error) {
	price, err := o.cb.Execute(func() (interface{}, error) {
		return o.inner.Consult(ctx, source, asset)
	})
	if err != nil {
		return fixedpoint.Fix{}, err
	}
	return price.(fixedpoint.Fix), nil
}
