package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash(t *testing.T) {
	// sha256("abc")
	assert.Equal(t, "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", Hash("abc"))
	assert.Equal(t, Hash("same"), Hash("same"))
	assert.NotEqual(t, Hash("a"), Hash("b"))
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "ba7816bf8f01", ShortHash("abc", 12))
	assert.Len(t, ShortHash("abc", 0), 64)
	assert.Len(t, ShortHash("abc", 100), 64)
}
