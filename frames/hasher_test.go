package frames

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photodedupe/bitset"
)

func TestHashGrayscaleFrameThreshold(t *testing.T) {
	// 2x2 buffer: mean is 138.75; samples >= mean get bit 1.
	buf := []byte{0, 255, 100, 200}
	h, err := HashGrayscaleFrame(buf, 2)
	require.NoError(t, err)
	assert.Equal(t, 4, h.Len())
	assert.False(t, h.Bit(0)) // 0 < 138.75
	assert.True(t, h.Bit(1))  // 255 >= 138.75
	assert.False(t, h.Bit(2)) // 100 < 138.75
	assert.True(t, h.Bit(3))  // 200 >= 138.75
}

func TestHashGrayscaleFrameWrongSize(t *testing.T) {
	_, err := HashGrayscaleFrame([]byte{1, 2, 3}, 2)
	assert.Error(t, err)
}

func TestHashGrayscaleFrameIdenticalBuffersZeroDistance(t *testing.T) {
	buf := []byte{10, 20, 30, 40, 50, 60, 70, 80, 90}
	h1, err := HashGrayscaleFrame(buf, 3)
	require.NoError(t, err)
	h2, err := HashGrayscaleFrame(buf, 3)
	require.NoError(t, err)
	d, err := bitset.Distance(h1, h2)
	require.NoError(t, err)
	assert.Equal(t, 0, d)
}
