package mobile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSeed() []byte {
	seed := make([]byte, 32)
	copy(seed, []byte("mobile-facade-test-root-seed-001"))
	return seed
}

func TestUpdateBeforeInitFails(t *testing.T) {
	Shutdown()
	assert.True(t, Closed())

	_, err := Update([]byte{0x00, 0x00, 0x00, 0x00})
	assert.Error(t, err)
}

func TestInitThenUpdateRoundTrips(t *testing.T) {
	Init(testSeed())
	defer Shutdown()
	assert.False(t, Closed())

	// AppInfo: instruction 0x00, p1/p2/length all zero, no body.
	raw, err := Update([]byte{0x00, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	require.True(t, len(raw) >= 2)
	assert.Equal(t, byte(0x90), raw[len(raw)-2])
	assert.Equal(t, byte(0x00), raw[len(raw)-1])
}

func TestUpdateEncodesFramingErrorWithoutReachingEngine(t *testing.T) {
	Init(testSeed())
	defer Shutdown()

	// Unknown instruction tag 0xEE, no body.
	raw, err := Update([]byte{0xEE, 0x00, 0x00, 0x00})
	require.NoError(t, err)
	require.True(t, len(raw) >= 2)
	assert.Equal(t, byte(0x6D), raw[len(raw)-2])
	assert.Equal(t, byte(0x00), raw[len(raw)-1])
}

func TestApproveBeforeInitFails(t *testing.T) {
	Shutdown()
	_, err := Approve(true)
	assert.Error(t, err)
}

func TestReInitDiscardsPreviousEngine(t *testing.T) {
	Init(testSeed())
	defer Shutdown()

	// Start an ident-sign session so the engine has a pending approval:
	// identity_index(4) | uri_len(1) | uri("abc") | challenge(32).
	uri := "abc"
	body := []byte{0x00, 0x00, 0x00, 0x00, byte(len(uri))}
	body = append(body, []byte(uri)...)
	body = append(body, make([]byte, 32)...)
	raw, err := Update(append([]byte{0x20, 0x00, 0x00, byte(len(body))}, body...))
	require.NoError(t, err)
	require.True(t, len(raw) >= 2)
	assert.Equal(t, byte(0x90), raw[len(raw)-2])

	// ...then re-Init, which must discard that session rather than carry
	// its pending approval forward.
	Init(testSeed())
	raw, err = Approve(true)
	require.NoError(t, err)
	require.True(t, len(raw) >= 2)
	assert.Equal(t, byte(0x6A), raw[len(raw)-2])
	assert.Equal(t, byte(0x81), raw[len(raw)-1])
}

func TestResetIsSafeWhenNeverInitialized(t *testing.T) {
	Shutdown()
	assert.NotPanics(t, func() { Reset() })
}
