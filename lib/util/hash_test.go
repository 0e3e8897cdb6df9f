package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashString(t *testing.T) {
	// FNV-1a reference values
	assert.Equal(t, uint64(14695981039346656037), HashString("", 0))
	assert.Equal(t, uint64(0xaf63dc4c8601ec8c), HashString("a", 0))
	assert.NotEqual(t, HashString("a", 0), HashString("a", 1))
}

func TestBucket(t *testing.T) {
	for _, key := range []string{"", "a", "some/longer/key"} {
		b := Bucket(key, 3)
		assert.GreaterOrEqual(t, b, 0)
		assert.Less(t, b, 3)
		assert.Equal(t, b, Bucket(key, 3))
	}
}
