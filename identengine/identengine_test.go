package identengine

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilecoinofficial/nanos-core/keyprovider"
)

func testProvider() *keyprovider.Provider {
	seed := make([]byte, 32)
	copy(seed, []byte("identengine-test-root-seed-0001"))
	return keyprovider.New(seed)
}

func TestInitRejectsEmptyURI(t *testing.T) {
	_, err := Init(testProvider(), 0, 0, "", [32]byte{})
	assert.Error(t, err)
}

func TestInitRejectsOverlongURI(t *testing.T) {
	uri := strings.Repeat("a", MaxURILength+1)
	_, err := Init(testProvider(), 0, 0, uri, [32]byte{})
	assert.Error(t, err)
}

func TestInitRejectsNonPrintableURI(t *testing.T) {
	_, err := Init(testProvider(), 0, 0, "mob://\x01bad", [32]byte{})
	assert.Error(t, err)
}

func TestInitOpensPendingSession(t *testing.T) {
	var challenge [32]byte
	copy(challenge[:], []byte("a fixed 32 byte challenge value!"))

	sess, err := Init(testProvider(), 1, 2, "mob://example.test", challenge)
	require.NoError(t, err)
	assert.Equal(t, StatePending, sess.State)
	assert.Equal(t, uint32(1), sess.AccountIndex)
	assert.Equal(t, uint32(2), sess.IdentityIndex)
	assert.Equal(t, challenge, sess.Challenge)
}

func TestApproveRejectsWhenNotPending(t *testing.T) {
	sess, err := Init(testProvider(), 0, 0, "mob://example.test", [32]byte{})
	require.NoError(t, err)
	sess.State = StateComplete

	_, err = sess.Approve(testProvider())
	assert.Error(t, err)
}

func TestApproveProducesVerifiableSignature(t *testing.T) {
	kp := testProvider()
	var challenge [32]byte
	copy(challenge[:], []byte("challenge-bytes-from-the-host-ap"))

	sess, err := Init(kp, 0, 0, "mob://example.test", challenge)
	require.NoError(t, err)

	result, err := sess.Approve(kp)
	require.NoError(t, err)
	assert.Equal(t, StateComplete, sess.State)
	assert.True(t, ed25519.Verify(result.PublicKey[:], challenge[:], result.Signature[:]))
}

func TestApproveIsDeterministicForSameInputs(t *testing.T) {
	kp := testProvider()
	var challenge [32]byte
	copy(challenge[:], []byte("deterministic-challenge-bytes-01"))

	sess1, err := Init(kp, 3, 4, "mob://example.test", challenge)
	require.NoError(t, err)
	result1, err := sess1.Approve(kp)
	require.NoError(t, err)

	sess2, err := Init(kp, 3, 4, "mob://example.test", challenge)
	require.NoError(t, err)
	result2, err := sess2.Approve(kp)
	require.NoError(t, err)

	assert.Equal(t, result1.PublicKey, result2.PublicKey)
	assert.Equal(t, result1.Signature, result2.Signature)
}

func TestApproveVariesByURI(t *testing.T) {
	kp := testProvider()
	var challenge [32]byte

	sessA, err := Init(kp, 0, 0, "mob://a.example.test", challenge)
	require.NoError(t, err)
	resultA, err := sessA.Approve(kp)
	require.NoError(t, err)

	sessB, err := Init(kp, 0, 0, "mob://b.example.test", challenge)
	require.NoError(t, err)
	resultB, err := sessB.Approve(kp)
	require.NoError(t, err)

	assert.NotEqual(t, resultA.PublicKey, resultB.PublicKey)
}

func TestRejectClosesSessionWithoutSigning(t *testing.T) {
	sess, err := Init(testProvider(), 0, 0, "mob://example.test", [32]byte{})
	require.NoError(t, err)

	sess.Reject()
	assert.Equal(t, StateComplete, sess.State)

	_, err = sess.Approve(testProvider())
	assert.Error(t, err)
}
