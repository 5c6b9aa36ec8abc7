// trafficInsight - live traffic chokepoint detection core
// SPDX-License-Identifier: Apache-2.0

package upstream

import (
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/akashdesaidev/trafficInsight/internal/logging"
	"github.com/akashdesaidev/trafficInsight/internal/metrics"
)

// newBreaker builds a per-endpoint circuit breaker. Trips after at least 10
// requests with a 50% failure rate, half-opens after 30s, and allows 2
// concurrent probes while half-open — looser than a user-facing media API
// breaker since upstream traffic data is expected to be occasionally flaky
// and the pipeline already tolerates per-call failure.
func newBreaker(name string) *gobreaker.CircuitBreaker[interface{}] {
	metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger().Warn().
				Str("endpoint", name).
				Str("from", stateToString(from)).
				Str("to", stateToString(to)).
				Msg("upstream circuit breaker state transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
	})
}

// execute runs fn through the breaker, recording the outcome for the
// endpoint's request-total metric.
func execute(cb *gobreaker.CircuitBreaker[interface{}], endpoint string, fn func() (interface{}, error)) (interface{}, error) {
	result, err := cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "rejected").Inc()
		} else {
			metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		}
		return nil, err
	}
	metrics.UpstreamRequestsTotal.WithLabelValues(endpoint, "success").Inc()
	return result, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
