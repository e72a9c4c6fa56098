package keyprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveSlip10MasterIsDeterministic(t *testing.T) {
	seed := []byte("test seed bytes for slip-10 master derivation")
	a := deriveSlip10Master(seed)
	b := deriveSlip10Master(seed)
	assert.Equal(t, a, b)
}

func TestDeriveSlip10ChildRejectsNonHardenedIndex(t *testing.T) {
	master := deriveSlip10Master([]byte("seed"))
	_, err := deriveSlip10Child(master, 0)
	assert.Error(t, err)
}

func TestDeriveSlip10ChildIsDeterministicAndVariesByIndex(t *testing.T) {
	master := deriveSlip10Master([]byte("seed"))

	childA, err := deriveSlip10Child(master, HardenedOffset+44)
	require.NoError(t, err)
	childAAgain, err := deriveSlip10Child(master, HardenedOffset+44)
	require.NoError(t, err)
	assert.Equal(t, childA, childAAgain)

	childB, err := deriveSlip10Child(master, HardenedOffset+45)
	require.NoError(t, err)
	assert.NotEqual(t, childA.key, childB.key)
}

func TestDeriveSlip10PathMatchesManualWalk(t *testing.T) {
	seed := []byte("another test seed")
	path := []uint32{HardenedOffset + 44, HardenedOffset + 866, HardenedOffset + 0}

	got, err := deriveSlip10Path(seed, path)
	require.NoError(t, err)

	node := deriveSlip10Master(seed)
	for _, idx := range path {
		node, err = deriveSlip10Child(node, idx)
		require.NoError(t, err)
	}
	assert.Equal(t, node.key, got)
}

func TestDeriveSlip10PathPropagatesChildError(t *testing.T) {
	seed := []byte("seed")
	_, err := deriveSlip10Path(seed, []uint32{HardenedOffset + 1, 2})
	assert.Error(t, err)
}
