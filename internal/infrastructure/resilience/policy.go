package resilience

import (
	"strings"
	"time"
)

// Policy is the retry and circuit breaker budget for one class of upstream call.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64

	Breaker BreakerPolicy
}

type BreakerPolicy struct {
	Enabled          bool
	MinRequests      uint32
	FailureRatio     float64
	OpenTimeout      time.Duration
	HalfOpenMaxCalls uint32
}

func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     400 * time.Millisecond,
		Multiplier:     2.0,
		Breaker: BreakerPolicy{
			Enabled:          true,
			MinRequests:      10,
			FailureRatio:     0.5,
			OpenTimeout:      30 * time.Second,
			HalfOpenMaxCalls: 2,
		},
	}
}

// QueryPathPolicy keeps request latency bounded: a single quick retry and a
// breaker that opens sooner, so retrieval degrades instead of stalling.
func QueryPathPolicy(base Policy) Policy {
	base = base.withDefaults()
	p := base
	p.MaxAttempts = min(base.MaxAttempts, 2)
	p.MaxBackoff = min(base.MaxBackoff, 150*time.Millisecond)
	p.Breaker.MinRequests = 5
	p.Breaker.OpenTimeout = 10 * time.Second
	return p
}

// GenerationPolicy never retries: a failed generation is answered with the
// fallback text and a retried generation would double the user's wait.
func GenerationPolicy(base Policy) Policy {
	p := base
	p.MaxAttempts = 1
	return p
}

func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()

	if p.MaxAttempts <= 0 {
		p.MaxAttempts = def.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = def.InitialBackoff
	}
	if p.MaxBackoff <= 0 {
		p.MaxBackoff = def.MaxBackoff
	}
	p.MaxBackoff = max(p.MaxBackoff, p.InitialBackoff)
	if p.Multiplier < 1.0 {
		p.Multiplier = def.Multiplier
	}

	b := &p.Breaker
	if b.MinRequests == 0 {
		b.MinRequests = def.Breaker.MinRequests
	}
	if b.FailureRatio <= 0 || b.FailureRatio > 1 {
		b.FailureRatio = def.Breaker.FailureRatio
	}
	if b.OpenTimeout <= 0 {
		b.OpenTimeout = def.Breaker.OpenTimeout
	}
	if b.HalfOpenMaxCalls == 0 {
		b.HalfOpenMaxCalls = def.Breaker.HalfOpenMaxCalls
	}
	return p
}

// backoff returns the wait before attempt+1, capped at MaxBackoff.
func (p Policy) backoff(attempt int) time.Duration {
	wait := float64(p.InitialBackoff)
	for i := 1; i < attempt; i++ {
		wait *= p.Multiplier
		if wait >= float64(p.MaxBackoff) {
			return p.MaxBackoff
		}
	}
	return min(time.Duration(wait), p.MaxBackoff)
}

// policySet resolves an operation name to the policy registered for its longest
// matching prefix. "ollama.embed" matches both "ollama" and "ollama.embed".
type policySet struct {
	base     Policy
	prefixes map[string]Policy
}

func (s policySet) resolve(operation string) Policy {
	best, bestLen := s.base, -1
	for prefix, p := range s.prefixes {
		if !matchesPrefix(operation, prefix) || len(prefix) <= bestLen {
			continue
		}
		best, bestLen = p, len(prefix)
	}
	return best
}

func matchesPrefix(operation, prefix string) bool {
	if !strings.HasPrefix(operation, prefix) {
		return false
	}
	return len(operation) == len(prefix) || operation[len(prefix)] == '.' || operation[len(prefix)] == '_'
}
