package ringengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilecoinofficial/nanos-core/keyprovider"
	"github.com/mobilecoinofficial/nanos-core/primitives"
)

func testProvider() *keyprovider.Provider {
	seed := make([]byte, 32)
	copy(seed, []byte("ringengine-test-root-seed-00001"))
	return keyprovider.New(seed)
}

// buildTestRing derives a real row the same way a host wallet's builder
// would (txPublic from the session's own deterministic derivation, then
// the one-time private key for the real row), plus ringSize-1 decoy rows
// with unrelated points, and returns a signed session ready for
// TxGetKeyImage/TxGetResponse.
func buildTestRing(t *testing.T, kp *keyprovider.Provider, accountIndex uint32, subaddress uint64,
	realIndex, ringSize int, value, tokenID uint64) (*Session, [32]byte, [32]byte) {
	t.Helper()

	blindingScalar := primitives.HashToScalar([]byte("ring-test-blinding"), encodeU64(value))
	outputBlindingScalar := primitives.HashToScalar([]byte("ring-test-output-blinding"), encodeU64(value))
	blinding := primitives.EncodeScalar(blindingScalar)
	outputBlinding := primitives.EncodeScalar(outputBlindingScalar)

	sess, err := Init(kp, accountIndex, realIndex, value, tokenID, blinding, outputBlinding, subaddress)
	require.NoError(t, err)

	var message [32]byte
	copy(message[:], []byte("ring-test-message-digest-bytes-0"))
	require.NoError(t, sess.SetMessage(message))

	realCommitment := primitives.EncodePoint(primitives.PedersenCommit(value, tokenID, blindingScalar))
	require.NoError(t, sess.SetBlinding(realCommitment))

	onetimePubBytes := primitives.EncodePoint(sess.onetimePublic)
	for i := 0; i < ringSize; i++ {
		if i == realIndex {
			require.NoError(t, sess.AddMember(i, onetimePubBytes, realCommitment))
			continue
		}
		decoyTarget := primitives.EncodePoint(primitives.HashToPoint("ring-test-decoy-target", encodeU64(uint64(i))))
		decoyCommitment := primitives.EncodePoint(primitives.HashToPoint("ring-test-decoy-commitment", encodeU64(uint64(i))))
		require.NoError(t, sess.AddMember(i, decoyTarget, decoyCommitment))
	}

	return sess, message, realCommitment
}

func TestInitDerivesKeyImageIndependentlyOfRing(t *testing.T) {
	kp := testProvider()
	sessA, _, _ := buildTestRing(t, kp, 0, 1, 0, 3, 1000, 0)
	require.NoError(t, sessA.Sign([32]byte{}))

	// A fresh session with the same owned-output parameters, never given
	// any ring members beyond what Init itself computes, must report the
	// identical key image (invariant 6).
	kp2 := testProvider()
	blindingScalar := primitives.HashToScalar([]byte("ring-test-blinding"), encodeU64(1000))
	outputBlindingScalar := primitives.HashToScalar([]byte("ring-test-output-blinding"), encodeU64(1000))
	sessB, err := Init(kp2, 0, 0, 1000, 0, primitives.EncodeScalar(blindingScalar), primitives.EncodeScalar(outputBlindingScalar), 1)
	require.NoError(t, err)

	assert.Equal(t, sessA.KeyImage(), sessB.KeyImage())
}

func TestInitRejectsOutOfBoundsRealIndex(t *testing.T) {
	kp := testProvider()
	_, err := Init(kp, 0, MaxRingSize, 100, 0, [32]byte{1}, [32]byte{1}, 0)
	assert.Error(t, err)
}

func TestAddMemberRejectsMismatchedRealTarget(t *testing.T) {
	kp := testProvider()
	blinding := primitives.EncodeScalar(primitives.HashToScalar([]byte("b")))
	outBlinding := primitives.EncodeScalar(primitives.HashToScalar([]byte("ob")))

	sess, err := Init(kp, 0, 0, 500, 0, blinding, outBlinding, 0)
	require.NoError(t, err)

	wrongTarget := primitives.EncodePoint(primitives.HashToPoint("not-the-real-target"))
	commitment := primitives.EncodePoint(primitives.PedersenCommit(500, 0, primitives.HashToScalar([]byte("b"))))
	err = sess.AddMember(0, wrongTarget, commitment)
	assert.Error(t, err)
}

func TestAddMemberRejectsDuplicateIndex(t *testing.T) {
	kp := testProvider()
	sess, _, realCommitment := buildTestRing(t, kp, 0, 0, 0, 2, 100, 0)
	onetimePubBytes := primitives.EncodePoint(sess.onetimePublic)
	err := sess.AddMember(0, onetimePubBytes, realCommitment)
	assert.Error(t, err)
}

func TestSignRejectsRingTooSmall(t *testing.T) {
	kp := testProvider()
	blinding := primitives.EncodeScalar(primitives.HashToScalar([]byte("b")))
	outBlinding := primitives.EncodeScalar(primitives.HashToScalar([]byte("ob")))
	sess, err := Init(kp, 0, 0, 100, 0, blinding, outBlinding, 0)
	require.NoError(t, err)

	var message [32]byte
	require.NoError(t, sess.SetMessage(message))

	realCommitment := primitives.EncodePoint(primitives.PedersenCommit(100, 0, primitives.HashToScalar([]byte("b"))))
	require.NoError(t, sess.SetBlinding(realCommitment))
	require.NoError(t, sess.AddMember(0, primitives.EncodePoint(sess.onetimePublic), realCommitment))

	err = sess.Sign([32]byte{})
	assert.Error(t, err)
}

func TestSignRejectsCommitmentMismatch(t *testing.T) {
	kp := testProvider()
	sess, _, _ := buildTestRing(t, kp, 0, 0, 0, 2, 100, 0)

	// Overwrite the stored real commitment with something that doesn't
	// match the real row's submitted commitment.
	other := primitives.EncodePoint(primitives.HashToPoint("some-other-commitment"))
	require.NoError(t, sess.SetBlinding(other))

	err := sess.Sign([32]byte{})
	assert.Error(t, err)
}

func TestSignIsDeterministicForSameSeed(t *testing.T) {
	kp := testProvider()
	sessA, _, _ := buildTestRing(t, kp, 0, 2, 1, 4, 750, 0)
	require.NoError(t, sessA.Sign([32]byte{0x01, 0x02}))

	kp2 := testProvider()
	sessB, _, _ := buildTestRing(t, kp2, 0, 2, 1, 4, 750, 0)
	require.NoError(t, sessB.Sign([32]byte{0x01, 0x02}))

	assert.Equal(t, sessA.KeyImage(), sessB.KeyImage())

	cZeroA, err := sessA.CZero()
	require.NoError(t, err)
	cZeroB, err := sessB.CZero()
	require.NoError(t, err)
	assert.Equal(t, primitives.EncodeScalar(cZeroA), primitives.EncodeScalar(cZeroB))

	for i := 0; i < 4; i++ {
		respA, err := sessA.Response(i)
		require.NoError(t, err)
		respB, err := sessB.Response(i)
		require.NoError(t, err)
		assert.Equal(t, primitives.EncodeScalar(respA.Target), primitives.EncodeScalar(respB.Target))
		assert.Equal(t, primitives.EncodeScalar(respA.Commitment), primitives.EncodeScalar(respB.Commitment))
	}
}

func TestSignDivergesForDifferentSeed(t *testing.T) {
	kp := testProvider()
	sessA, _, _ := buildTestRing(t, kp, 0, 0, 0, 3, 200, 0)
	require.NoError(t, sessA.Sign([32]byte{0x01}))

	kp2 := testProvider()
	sessB, _, _ := buildTestRing(t, kp2, 0, 0, 0, 3, 200, 0)
	require.NoError(t, sessB.Sign([32]byte{0x02}))

	cZeroA, err := sessA.CZero()
	require.NoError(t, err)
	cZeroB, err := sessB.CZero()
	require.NoError(t, err)
	assert.NotEqual(t, primitives.EncodeScalar(cZeroA), primitives.EncodeScalar(cZeroB))
}

func TestResponseAndCZeroFailBeforeSign(t *testing.T) {
	kp := testProvider()
	sess, _, _ := buildTestRing(t, kp, 0, 0, 0, 2, 100, 0)

	_, err := sess.Response(0)
	assert.Error(t, err)
	_, err = sess.CZero()
	assert.Error(t, err)
}

func TestCloseIsNilSafe(t *testing.T) {
	var sess *Session
	assert.NotPanics(t, func() { sess.Close() })
}

func TestCloseWipesSecretScalars(t *testing.T) {
	kp := testProvider()
	sess, _, _ := buildTestRing(t, kp, 0, 0, 0, 2, 100, 0)
	require.NoError(t, sess.Sign([32]byte{}))

	sess.Close()
	assert.Nil(t, sess.onetimePrivate)
	assert.Nil(t, sess.blinding)
	assert.Nil(t, sess.outputBlinding)
	assert.Nil(t, sess.z)
	assert.Equal(t, StateComplete, sess.state)
}
