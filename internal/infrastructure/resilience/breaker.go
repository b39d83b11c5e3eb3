package resilience

import "time"

// BreakerConfig sizes the circuit breaker kept for each guarded operation.
// There is no retry knob: rule reads and verdict publishes make one attempt and
// the breaker alone sheds load while a dependency is down.
type BreakerConfig struct {
	Enabled       bool
	MinRequests   uint32
	FailureRatio  float64
	OpenTimeout   time.Duration
	HalfOpenCalls uint32
}

func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Enabled:       true,
		MinRequests:   10,
		FailureRatio:  0.5,
		OpenTimeout:   30 * time.Second,
		HalfOpenCalls: 2,
	}
}

func (c BreakerConfig) withDefaults() BreakerConfig {
	def := DefaultBreakerConfig()
	if c.MinRequests == 0 {
		c.MinRequests = def.MinRequests
	}
	if c.FailureRatio <= 0 || c.FailureRatio > 1 {
		c.FailureRatio = def.FailureRatio
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = def.OpenTimeout
	}
	if c.HalfOpenCalls == 0 {
		c.HalfOpenCalls = def.HalfOpenCalls
	}
	return c
}
