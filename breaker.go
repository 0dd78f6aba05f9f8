package logofy

import (
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// providerBreakers holds one circuit breaker per provider. While a provider
// is tripped its candidates fail immediately without network activity.
// A nil *providerBreakers disables breaking.
type providerBreakers struct {
	byProvider map[Provider]*gobreaker.CircuitBreaker
}

func newProviderBreakers() *providerBreakers {
	pb := &providerBreakers{byProvider: make(map[Provider]*gobreaker.CircuitBreaker, len(Providers))}
	for _, p := range Providers {
		pb.byProvider[p] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "logofy-" + p.String(),
			MaxRequests: 2,                // probes allowed while half-open
			Interval:    60 * time.Second, // closed-state counter reset
			Timeout:     30 * time.Second, // open → half-open
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.ConsecutiveFailures >= 5 ||
					(counts.Requests >= 10 && failureRatio >= 0.6)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				slog.Warn("logofy: provider breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		})
	}
	return pb
}

func (pb *providerBreakers) get(p Provider) *gobreaker.CircuitBreaker {
	if pb == nil {
		return nil
	}
	return pb.byProvider[p]
}

// BreakerState reports the breaker state of a provider ("closed", "open",
// "half-open"), or "disabled" when breakers are off.
func (r *Resolver) BreakerState(p Provider) string {
	b := r.breakers.get(p)
	if b == nil {
		return "disabled"
	}
	return b.State().String()
}
