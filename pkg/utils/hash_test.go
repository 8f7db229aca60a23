package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashStringStable(t *testing.T) {
	assert.Equal(t, HashString("hello"), HashString("hello"))
	assert.NotEqual(t, HashString("hello"), HashString("world"))
	assert.Len(t, HashString("hello"), 32)
}

func TestChunkIDDeterministic(t *testing.T) {
	a := ChunkID("https://example.com/rooms", 0)
	b := ChunkID("https://example.com/rooms", 0)
	assert.Equal(t, a, b)
}

func TestChunkIDVariesByPositionAndSource(t *testing.T) {
	base := ChunkID("https://example.com/rooms", 0)
	assert.NotEqual(t, base, ChunkID("https://example.com/rooms", 1))
	assert.NotEqual(t, base, ChunkID("https://example.com/dining", 0))
}
