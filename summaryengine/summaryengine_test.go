package summaryengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilecoinofficial/nanos-core/primitives"
)

// balancedSession builds a one-output, one-input summary session whose
// digest and mass balance are both correct, mirroring what a host wallet
// streams in before TxSummaryBuild.
func balancedSession(t *testing.T, outputValue, inputValue, fee, tokenID uint64) *Session {
	t.Helper()

	sess, err := Init(3, 1, 1, fee, tokenID, 1000)
	require.NoError(t, err)

	blindingScalar := primitives.HashToScalar([]byte("summary-test-blinding"))
	blindingBytes := primitives.EncodeScalar(blindingScalar)
	commitment := primitives.EncodePoint(primitives.PedersenCommit(outputValue, tokenID, blindingScalar))
	target := primitives.EncodePoint(primitives.HashToPoint("summary-test-target"))

	digest := primitives.Blake2bSum256(
		[]byte{0}, target[:], commitment[:],
		encodeU64(outputValue), encodeU64(tokenID), blindingBytes[:], []byte{0},
		encodeU64(inputValue), encodeU64(tokenID), blindingBytes[:],
	)
	require.NoError(t, sess.SetMessage(digest))

	require.NoError(t, sess.AddTxOut(FlagNone, target, commitment))
	require.NoError(t, sess.AddTxOutUnblinding(outputValue, tokenID, blindingBytes, 0))
	require.NoError(t, sess.AddTxIn(inputValue, tokenID, blindingBytes))

	return sess
}

func TestAddTxOutUnblindingRejectsBadOpening(t *testing.T) {
	sess, err := Init(3, 1, 0, 0, 0, 1000)
	require.NoError(t, err)

	blindingScalar := primitives.HashToScalar([]byte("correct-blinding"))
	commitment := primitives.EncodePoint(primitives.PedersenCommit(100, 0, blindingScalar))
	target := primitives.EncodePoint(primitives.HashToPoint("target"))
	require.NoError(t, sess.AddTxOut(FlagNone, target, commitment))

	wrongBlinding := primitives.EncodeScalar(primitives.HashToScalar([]byte("wrong-blinding")))
	err = sess.AddTxOutUnblinding(100, 0, wrongBlinding, 0)
	assert.Error(t, err)
}

func TestAddTxOutUnblindingRejectsWhenNoOutputPending(t *testing.T) {
	sess, err := Init(3, 1, 0, 0, 0, 1000)
	require.NoError(t, err)
	err = sess.AddTxOutUnblinding(100, 0, [32]byte{}, 0)
	assert.Error(t, err)
}

func TestAddTxOutRejectsSecondPendingOutput(t *testing.T) {
	sess, err := Init(3, 2, 0, 0, 0, 1000)
	require.NoError(t, err)

	commitment := primitives.EncodePoint(primitives.PedersenCommit(1, 0, primitives.HashToScalar([]byte("b"))))
	target := primitives.EncodePoint(primitives.HashToPoint("target"))
	require.NoError(t, sess.AddTxOut(FlagNone, target, commitment))

	err = sess.AddTxOut(FlagNone, target, commitment)
	assert.Error(t, err)
}

func TestAddTxOutRejectsMoreThanDeclared(t *testing.T) {
	sess, err := Init(3, 0, 0, 0, 0, 1000)
	require.NoError(t, err)

	commitment := primitives.EncodePoint(primitives.PedersenCommit(1, 0, primitives.HashToScalar([]byte("b"))))
	target := primitives.EncodePoint(primitives.HashToPoint("target"))
	err = sess.AddTxOut(FlagNone, target, commitment)
	assert.Error(t, err)
}

func TestBuildRejectsBeforeInputsComplete(t *testing.T) {
	sess, err := Init(3, 1, 1, 0, 0, 1000)
	require.NoError(t, err)
	_, err = sess.Build()
	assert.Error(t, err)
}

func TestBuildRejectsWithoutMessageSet(t *testing.T) {
	sess, err := Init(3, 1, 1, 0, 0, 1000)
	require.NoError(t, err)

	blindingScalar := primitives.HashToScalar([]byte("b"))
	blindingBytes := primitives.EncodeScalar(blindingScalar)
	commitment := primitives.EncodePoint(primitives.PedersenCommit(100, 0, blindingScalar))
	target := primitives.EncodePoint(primitives.HashToPoint("target"))

	require.NoError(t, sess.AddTxOut(FlagNone, target, commitment))
	require.NoError(t, sess.AddTxOutUnblinding(100, 0, blindingBytes, 0))
	require.NoError(t, sess.AddTxIn(100, 0, blindingBytes))

	_, err = sess.Build()
	assert.Error(t, err)
}

func TestBuildSucceedsOnBalancedSummary(t *testing.T) {
	sess := balancedSession(t, 100, 100, 0, 0)
	view, err := sess.Build()
	require.NoError(t, err)
	assert.Equal(t, StateReady, sess.State())
	require.Len(t, view.Balances, 1)
	assert.Equal(t, uint64(100), view.Balances[0].Outflow)
	assert.False(t, sess.Rejected())
}

func TestBuildRejectsDigestMismatch(t *testing.T) {
	sess, err := Init(3, 1, 1, 0, 0, 1000)
	require.NoError(t, err)

	blindingScalar := primitives.HashToScalar([]byte("b"))
	blindingBytes := primitives.EncodeScalar(blindingScalar)
	commitment := primitives.EncodePoint(primitives.PedersenCommit(100, 0, blindingScalar))
	target := primitives.EncodePoint(primitives.HashToPoint("target"))

	var wrongDigest [32]byte
	copy(wrongDigest[:], []byte("this digest was never computed!"))
	require.NoError(t, sess.SetMessage(wrongDigest))

	require.NoError(t, sess.AddTxOut(FlagNone, target, commitment))
	require.NoError(t, sess.AddTxOutUnblinding(100, 0, blindingBytes, 0))
	require.NoError(t, sess.AddTxIn(100, 0, blindingBytes))

	_, err = sess.Build()
	assert.Error(t, err)
}

func TestBuildRejectsUnbalancedSummaryAndMarksRejected(t *testing.T) {
	sess := balancedSession(t, 100, 99, 0, 0)
	_, err := sess.Build()
	require.Error(t, err)

	assert.True(t, sess.Rejected())
	assert.Equal(t, StateComplete, sess.State())
}

func TestApproveRequiresReadyState(t *testing.T) {
	sess, err := Init(3, 1, 1, 0, 0, 1000)
	require.NoError(t, err)
	err = sess.Approve()
	assert.Error(t, err)
}

func TestApproveTransitionsReadyToComplete(t *testing.T) {
	sess := balancedSession(t, 100, 100, 0, 0)
	_, err := sess.Build()
	require.NoError(t, err)

	require.NoError(t, sess.Approve())
	assert.Equal(t, StateComplete, sess.State())
}

func TestRejectMarksSessionRejected(t *testing.T) {
	sess := balancedSession(t, 100, 100, 0, 0)
	_, err := sess.Build()
	require.NoError(t, err)

	sess.Reject()
	assert.True(t, sess.Rejected())
	assert.Equal(t, StateComplete, sess.State())
}

func TestMessageDigestReturnsSetDigest(t *testing.T) {
	sess, err := Init(3, 1, 1, 0, 0, 1000)
	require.NoError(t, err)

	var digest [32]byte
	copy(digest[:], []byte("some fixed digest bytes to check"))
	require.NoError(t, sess.SetMessage(digest))
	assert.Equal(t, digest, sess.MessageDigest())
}

func TestFeeCountsAgainstTheFeeTokenOnly(t *testing.T) {
	// fee=5 on token 0; inputs must cover outputs+fee for token 0.
	sess := balancedSession(t, 95, 100, 5, 0)
	view, err := sess.Build()
	require.NoError(t, err)
	assert.Equal(t, uint64(5), view.Fee)
}
