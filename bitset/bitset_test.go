package bitset

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceSymmetricAndZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		n := 1 + rng.Intn(300)
		bitsA := make([]bool, n)
		bitsB := make([]bool, n)
		for i := range bitsA {
			bitsA[i] = rng.Intn(2) == 1
			bitsB[i] = rng.Intn(2) == 1
		}
		a := New(bitsA)
		b := New(bitsB)

		dab, err := Distance(a, b)
		require.NoError(t, err)
		dba, err := Distance(b, a)
		require.NoError(t, err)
		assert.Equal(t, dab, dba)
		assert.GreaterOrEqual(t, dab, 0)
		assert.LessOrEqual(t, dab, n)

		daa, err := Distance(a, a)
		require.NoError(t, err)
		assert.Equal(t, 0, daa)
	}
}

func TestDistanceBitlenMismatch(t *testing.T) {
	a := New([]bool{true, false, true})
	b := New([]bool{true, false})
	_, err := Distance(a, b)
	assert.ErrorIs(t, err, ErrBitlenMismatch)
}

func TestDistanceKnownValue(t *testing.T) {
	a := New([]bool{true, true, false, false, true})
	b := New([]bool{true, false, false, true, true})
	d, err := Distance(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, d)
}

func TestDistanceAcrossWordBoundary(t *testing.T) {
	n := 70 // spans two 64-bit words
	bitsA := make([]bool, n)
	bitsB := make([]bool, n)
	bitsA[65] = true
	d, err := Distance(New(bitsA), New(bitsB))
	require.NoError(t, err)
	assert.Equal(t, 1, d)
}

func TestJSONRoundTrip(t *testing.T) {
	original := New([]bool{true, false, true, true, false, false, true})

	data, err := json.Marshal(original)
	require.NoError(t, err)

	var decoded BitHash
	require.NoError(t, json.Unmarshal(data, &decoded))

	assert.Equal(t, original.Len(), decoded.Len())
	d, err := Distance(original, decoded)
	require.NoError(t, err)
	assert.Equal(t, 0, d)
}
