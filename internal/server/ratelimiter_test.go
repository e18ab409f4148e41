package server

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckLimitUnderLimit(t *testing.T) {
	rl := NewRateLimiter(5)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		assert.True(t, rl.CheckLimit("10.0.0.1"))
	}
}

func TestCheckLimitOverLimit(t *testing.T) {
	rl := NewRateLimiter(3)
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.CheckLimit("10.0.0.1"))
	}
	assert.False(t, rl.CheckLimit("10.0.0.1"))
	assert.False(t, rl.CheckLimit("10.0.0.1"))
}

func TestCheckLimitPerIP(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()

	assert.True(t, rl.CheckLimit("10.0.0.1"))
	assert.False(t, rl.CheckLimit("10.0.0.1"))

	// A different client has its own window
	assert.True(t, rl.CheckLimit("10.0.0.2"))
}

func TestCheckLimitManyClients(t *testing.T) {
	rl := NewRateLimiter(2)
	defer rl.Stop()

	for i := 0; i < 50; i++ {
		ip := fmt.Sprintf("10.0.0.%d", i)
		assert.True(t, rl.CheckLimit(ip))
		assert.True(t, rl.CheckLimit(ip))
		assert.False(t, rl.CheckLimit(ip))
	}
}

func TestRetryAfter(t *testing.T) {
	rl := NewRateLimiter(1)
	defer rl.Stop()

	// No recorded requests means no wait
	assert.Equal(t, 0, rl.RetryAfter("10.0.0.1"))

	assert.True(t, rl.CheckLimit("10.0.0.1"))
	assert.False(t, rl.CheckLimit("10.0.0.1"))

	retry := rl.RetryAfter("10.0.0.1")
	assert.Greater(t, retry, 0)
	assert.LessOrEqual(t, retry, 60)
}

func TestStopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(10)
	rl.Stop()
	rl.Stop()
}
