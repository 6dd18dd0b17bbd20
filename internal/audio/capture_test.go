package audio

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunker(t *testing.T) {
	c := chunker{size: 4}

	require.Empty(t, c.push([]float32{0, 1, 2}), "should buffer until a full block is available")

	blocks := c.push([]float32{3, 4, 5, 6, 7, 8})
	require.Equal(t, [][]float32{{0, 1, 2, 3}, {4, 5, 6, 7}}, blocks)

	blocks = c.push([]float32{9, 10, 11})
	require.Equal(t, [][]float32{{8, 9, 10, 11}}, blocks)
	require.Empty(t, c.pending)
}

func TestChunkerEmitsCopies(t *testing.T) {
	c := chunker{size: 2}

	in := []float32{1, 2, 3, 4}
	blocks := c.push(in)
	require.Len(t, blocks, 2)

	in[0] = 99
	require.Equal(t, float32(1), blocks[0][0], "blocks should not alias the pushed slice")
}
