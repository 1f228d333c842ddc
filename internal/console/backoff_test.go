package console

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestBackoffDelayProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		base := time.Duration(rapid.Int64Range(1, int64(10*time.Second)).Draw(t, "base"))
		max := time.Duration(rapid.Int64Range(int64(base), int64(5*time.Minute)).Draw(t, "max"))
		retry := rapid.IntRange(0, 100).Draw(t, "retry")

		d := backoffDelay(retry, base, max)

		if d < base || d > max {
			t.Fatalf("delay %v outside [%v, %v] for retry %d", d, base, max, retry)
		}

		// Doubling: each step is at least as long as the previous one.
		if retry > 0 {
			prev := backoffDelay(retry-1, base, max)
			if d < prev {
				t.Fatalf("delay %v shrank from %v at retry %d", d, prev, retry)
			}
		}
	})
}

func TestBackoffDelaySchedule(t *testing.T) {
	base := time.Second
	max := 30 * time.Second

	assert.Equal(t, 1*time.Second, backoffDelay(0, base, max))
	assert.Equal(t, 2*time.Second, backoffDelay(1, base, max))
	assert.Equal(t, 4*time.Second, backoffDelay(2, base, max))
	assert.Equal(t, 16*time.Second, backoffDelay(4, base, max))
	assert.Equal(t, 30*time.Second, backoffDelay(5, base, max), "capped at MaxDelay")
	assert.Equal(t, 30*time.Second, backoffDelay(60, base, max), "stays capped far past the cap")
}

func TestDefaultJitterWindow(t *testing.T) {
	for i := 0; i < 1000; i++ {
		j := defaultJitter()
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, time.Second)
	}
}
