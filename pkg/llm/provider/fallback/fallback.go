// Package fallback wraps a provider so that a failing round trip is answered
// by a stand-in instead of surfacing an error.
//
// A circuit breaker sits in front of the primary provider. After repeated
// failures it opens and calls go straight to the stand-in until the cooldown
// passes, which keeps a dead provider from adding its timeout to every turn.
package fallback

import (
	"context"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/papercomputeco/arbor/pkg/llm"
	"github.com/papercomputeco/arbor/pkg/llm/provider/offline"
)

// Config is the configuration for a fallback caller.
type Config struct {
	// Name labels the breaker in logs, usually the provider name.
	Name string

	Primary llm.CallFunc

	// StandIn answers when Primary fails. Defaults to offline.Call.
	StandIn llm.CallFunc

	// MaxFailures is the number of consecutive failures that opens the
	// breaker. Defaults to 3.
	MaxFailures uint32

	// Cooldown is how long the breaker stays open before letting one probe
	// through. Defaults to 30s.
	Cooldown time.Duration

	Logger *slog.Logger
}

// NewCaller returns an llm.CallFunc that only fails if the stand-in does.
func NewCaller(c Config) llm.CallFunc {
	if c.StandIn == nil {
		c.StandIn = offline.Call
	}
	if c.MaxFailures == 0 {
		c.MaxFailures = 3
	}
	if c.Cooldown == 0 {
		c.Cooldown = 30 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	logger := c.Logger.With("provider", c.Name)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        c.Name,
		MaxRequests: 1,
		Timeout:     c.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("provider circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return func(ctx context.Context, messages []llm.Message, opts llm.Options) (string, error) {
		out, err := cb.Execute(func() (any, error) {
			return c.Primary(ctx, messages, opts)
		})
		if err == nil {
			return out.(string), nil //nolint:forcetypeassert // Execute returns what Primary returned
		}

		logger.Warn("provider failed, answering with stand-in",
			"model", opts.Model,
			"error", err,
		)
		return c.StandIn(ctx, messages, opts)
	}
}
