package retry

import (
	"math"
	"math/rand"
	"time"
)

// CalculateBackoffDelay computes the full-jitter exponential backoff
// delay for the transition from attempt to attempt+1 (attempt is
// 0-based). The result is uniformly distributed over
// [0, min(baseDelayMs*2^attempt, maxDelayMs)).
func CalculateBackoffDelay(attempt, baseDelayMs, maxDelayMs int) time.Duration {
	raw := float64(baseDelayMs) * math.Pow(2, float64(attempt))
	capped := math.Min(raw, float64(maxDelayMs))
	delayMs := rand.Float64() * capped
	return time.Duration(delayMs) * time.Millisecond
}
