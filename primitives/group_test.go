package primitives

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarPointEncodeRoundTrip(t *testing.T) {
	s := HashToScalar([]byte("round-trip-scalar"))
	enc := EncodeScalar(s)
	decoded, err := DecodeScalar(enc[:])
	require.NoError(t, err)
	assert.Equal(t, s.Encode(nil), decoded.Encode(nil))

	p := HashToPoint("round-trip-point", []byte("seed"))
	pEnc := EncodePoint(p)
	pDecoded, err := DecodePoint(pEnc[:])
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.Equal(pDecoded))
}

func TestDecodeScalarRejectsWrongLength(t *testing.T) {
	_, err := DecodeScalar(make([]byte, 16))
	assert.Error(t, err)
}

func TestDecodePointRejectsWrongLength(t *testing.T) {
	_, err := DecodePoint(make([]byte, 31))
	assert.Error(t, err)
}

func TestHashToScalarIsDeterministic(t *testing.T) {
	a := HashToScalar([]byte("domain"), []byte("part-one"), []byte("part-two"))
	b := HashToScalar([]byte("domain"), []byte("part-one"), []byte("part-two"))
	assert.Equal(t, EncodeScalar(a), EncodeScalar(b))

	c := HashToScalar([]byte("domain"), []byte("part-one"), []byte("part-three"))
	assert.NotEqual(t, EncodeScalar(a), EncodeScalar(c))
}

func TestHashToPointIsDomainSeparated(t *testing.T) {
	a := HashToPoint("domain-a", []byte("same-input"))
	b := HashToPoint("domain-b", []byte("same-input"))
	assert.NotEqual(t, EncodePoint(a), EncodePoint(b))
}

func TestPedersenCommitIsHomomorphic(t *testing.T) {
	tokenID := uint64(1)
	b1 := HashToScalar([]byte("blinding-1"))
	b2 := HashToScalar([]byte("blinding-2"))

	c1 := PedersenCommit(10, tokenID, b1)
	c2 := PedersenCommit(20, tokenID, b2)
	sum := NewPoint().Add(c1, c2)

	bSum := NewScalar().Add(b1, b2)
	direct := PedersenCommit(30, tokenID, bSum)

	assert.EqualValues(t, 1, sum.Equal(direct))
}

func TestPedersenCommitDiffersByTokenID(t *testing.T) {
	blinding := HashToScalar([]byte("fixed-blinding"))
	a := PedersenCommit(100, 0, blinding)
	b := PedersenCommit(100, 1, blinding)
	assert.EqualValues(t, 0, a.Equal(b))
}

func TestBlake2bSum256IsDeterministicAndStreaming(t *testing.T) {
	whole := Blake2bSum256([]byte("hello world"))
	split := Blake2bSum256([]byte("hello "), []byte("world"))
	assert.Equal(t, whole, split)
}

func TestKeyedBlake2b256VariesByKey(t *testing.T) {
	data := []byte("message")
	sigA, err := KeyedBlake2b256([]byte("key-a-0123456789"), data)
	require.NoError(t, err)
	sigB, err := KeyedBlake2b256([]byte("key-b-0123456789"), data)
	require.NoError(t, err)
	assert.NotEqual(t, sigA, sigB)
}

func TestHKDFExpandIsDeterministicByInfo(t *testing.T) {
	secret := []byte("some-secret-material")
	a, err := HKDFExpand(secret, nil, []byte("info-a"), 32)
	require.NoError(t, err)
	b, err := HKDFExpand(secret, nil, []byte("info-b"), 32)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)

	aAgain, err := HKDFExpand(secret, nil, []byte("info-a"), 32)
	require.NoError(t, err)
	assert.Equal(t, a, aAgain)
}

func TestDeterministicRNGReproducesSameStreamForSameSeed(t *testing.T) {
	var seed, message [32]byte
	copy(seed[:], []byte("ring-signing-seed"))
	copy(message[:], []byte("transaction-message-digest"))

	rngA, err := NewDeterministicRNG(seed, message)
	require.NoError(t, err)
	rngB, err := NewDeterministicRNG(seed, message)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		a := rngA.NextScalar()
		b := rngB.NextScalar()
		assert.Equal(t, EncodeScalar(a), EncodeScalar(b))
	}
}

func TestDeterministicRNGDivergesOnDifferentMessage(t *testing.T) {
	var seed, msgA, msgB [32]byte
	copy(seed[:], []byte("same-seed"))
	copy(msgA[:], []byte("message-a"))
	copy(msgB[:], []byte("message-b"))

	rngA, err := NewDeterministicRNG(seed, msgA)
	require.NoError(t, err)
	rngB, err := NewDeterministicRNG(seed, msgB)
	require.NoError(t, err)

	assert.NotEqual(t, EncodeScalar(rngA.NextScalar()), EncodeScalar(rngB.NextScalar()))
}

func TestNewAESCTRRejectsBadIVLength(t *testing.T) {
	key := make([]byte, 16)
	_, err := NewAESCTR(key, make([]byte, 4))
	assert.Error(t, err)
}

func TestNewAESCTREncryptsDeterministically(t *testing.T) {
	key := make([]byte, 16)
	iv := make([]byte, 16)
	copy(key, []byte("0123456789abcdef"))
	copy(iv, []byte("fedcba9876543210"))

	plaintext := []byte("bounded display string")

	streamA, err := NewAESCTR(key, iv)
	require.NoError(t, err)
	outA := make([]byte, len(plaintext))
	streamA.XORKeyStream(outA, plaintext)

	streamB, err := NewAESCTR(key, iv)
	require.NoError(t, err)
	outB := make([]byte, len(plaintext))
	streamB.XORKeyStream(outB, plaintext)

	assert.Equal(t, outA, outB)
	assert.NotEqual(t, plaintext, outA)
}
