package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelayDoublesPerAttempt(t *testing.T) {
	assert.Equal(t, 1*time.Minute, backoffDelay(1))
	assert.Equal(t, 2*time.Minute, backoffDelay(2))
	assert.Equal(t, 4*time.Minute, backoffDelay(3))
	assert.Equal(t, 8*time.Minute, backoffDelay(4))
	assert.Equal(t, 64*time.Minute, backoffDelay(7))
}

func TestBackoffDelayFloorsAtFirstAttempt(t *testing.T) {
	assert.Equal(t, 1*time.Minute, backoffDelay(0))
	assert.Equal(t, 1*time.Minute, backoffDelay(-3))
}
