package keyprovider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobilecoinofficial/nanos-core/primitives"
)

func testSeed() []byte {
	seed := make([]byte, 32)
	copy(seed, []byte("keyprovider-test-root-seed-0001"))
	return seed
}

func TestAccountKeysIsDeterministicPerAccount(t *testing.T) {
	p := New(testSeed())
	defer p.Close()

	a1, err := p.AccountKeys(0)
	require.NoError(t, err)
	a2, err := p.AccountKeys(0)
	require.NoError(t, err)
	assert.Equal(t, primitives.EncodeScalar(a1.ViewPrivate), primitives.EncodeScalar(a2.ViewPrivate))
	assert.Equal(t, primitives.EncodeScalar(a1.SpendPrivate), primitives.EncodeScalar(a2.SpendPrivate))

	a3, err := p.AccountKeys(1)
	require.NoError(t, err)
	assert.NotEqual(t, primitives.EncodeScalar(a1.ViewPrivate), primitives.EncodeScalar(a3.ViewPrivate))
}

func TestAccountKeysViewAndSpendAreIndependent(t *testing.T) {
	p := New(testSeed())
	defer p.Close()

	acct, err := p.AccountKeys(0)
	require.NoError(t, err)
	assert.NotEqual(t, primitives.EncodeScalar(acct.ViewPrivate), primitives.EncodeScalar(acct.SpendPrivate))
}

func TestAccountKeysPublicKeysMatchPrivateScalars(t *testing.T) {
	p := New(testSeed())
	defer p.Close()

	acct, err := p.AccountKeys(2)
	require.NoError(t, err)

	expectedView := primitives.NewPoint().ScalarBaseMult(acct.ViewPrivate)
	expectedSpend := primitives.NewPoint().ScalarBaseMult(acct.SpendPrivate)
	assert.EqualValues(t, 1, expectedView.Equal(acct.ViewPublic))
	assert.EqualValues(t, 1, expectedSpend.Equal(acct.SpendPublic))
}

func TestAccountKeysWipeClearsPrivateScalars(t *testing.T) {
	p := New(testSeed())
	defer p.Close()

	acct, err := p.AccountKeys(0)
	require.NoError(t, err)
	viewPriv, spendPriv := acct.ViewPrivate, acct.SpendPrivate
	acct.Wipe()
	assert.Nil(t, acct.ViewPrivate)
	assert.Nil(t, acct.SpendPrivate)
	assert.NotNil(t, acct.ViewPublic, "public keys are not secret and survive Wipe")

	var zero [32]byte
	assert.Equal(t, zero, primitives.EncodeScalar(viewPriv), "view scalar's backing bytes must be clobbered, not just unreferenced")
	assert.Equal(t, zero, primitives.EncodeScalar(spendPriv), "spend scalar's backing bytes must be clobbered, not just unreferenced")
}

func TestSubaddressKeysWipeClearsPrivateScalar(t *testing.T) {
	p := New(testSeed())
	defer p.Close()

	sub, err := p.SubaddressKeys(0, 1)
	require.NoError(t, err)
	spendPrivSub := sub.SpendPrivate()
	sub.Wipe()
	assert.Nil(t, sub.SpendPrivate())
	assert.NotNil(t, sub.ViewPublic, "public keys are not secret and survive Wipe")

	var zero [32]byte
	assert.Equal(t, zero, primitives.EncodeScalar(spendPrivSub), "subaddress spend scalar's backing bytes must be clobbered, not just unreferenced")
}

func TestSubaddressKeysDeriveConsistentSpendPrivate(t *testing.T) {
	p := New(testSeed())
	defer p.Close()

	sub, err := p.SubaddressKeys(0, 1)
	require.NoError(t, err)

	expectedSpendPublic := primitives.NewPoint().ScalarBaseMult(sub.SpendPrivate())
	assert.EqualValues(t, 1, expectedSpendPublic.Equal(sub.SpendPublic))
}

func TestSubaddressKeysVaryByIndex(t *testing.T) {
	p := New(testSeed())
	defer p.Close()

	sub0, err := p.SubaddressKeys(0, 0)
	require.NoError(t, err)
	sub1, err := p.SubaddressKeys(0, 1)
	require.NoError(t, err)
	assert.NotEqual(t, primitives.EncodePoint(sub0.SpendPublic), primitives.EncodePoint(sub1.SpendPublic))
}

func TestSubaddressKeysChangeIndexDerivesLikeAnyOther(t *testing.T) {
	p := New(testSeed())
	defer p.Close()

	change, err := p.SubaddressKeys(0, ChangeSubaddressIndex)
	require.NoError(t, err)
	changeAgain, err := p.SubaddressKeys(0, ChangeSubaddressIndex)
	require.NoError(t, err)
	assert.Equal(t, primitives.EncodePoint(change.SpendPublic), primitives.EncodePoint(changeAgain.SpendPublic))
}

func TestDeriveOneTimePrivateIsDeterministic(t *testing.T) {
	p := New(testSeed())
	defer p.Close()

	txPublic := primitives.HashToPoint("test-tx-public", []byte("fixed"))

	onetimeA, err := p.DeriveOneTimePrivate(0, 1, txPublic, 0)
	require.NoError(t, err)
	onetimeB, err := p.DeriveOneTimePrivate(0, 1, txPublic, 0)
	require.NoError(t, err)
	assert.Equal(t, primitives.EncodeScalar(onetimeA), primitives.EncodeScalar(onetimeB))
}

func TestDeriveOneTimePrivateVariesByOutputIndex(t *testing.T) {
	p := New(testSeed())
	defer p.Close()

	txPublic := primitives.HashToPoint("test-tx-public", []byte("fixed"))

	a, err := p.DeriveOneTimePrivate(0, 1, txPublic, 0)
	require.NoError(t, err)
	b, err := p.DeriveOneTimePrivate(0, 1, txPublic, 1)
	require.NoError(t, err)
	assert.NotEqual(t, primitives.EncodeScalar(a), primitives.EncodeScalar(b))
}

func TestNewTakesOwnCopyOfSeed(t *testing.T) {
	seed := testSeed()
	p := New(seed)
	defer p.Close()

	acctBefore, err := p.AccountKeys(0)
	require.NoError(t, err)

	for i := range seed {
		seed[i] = 0xff
	}

	acctAfter, err := p.AccountKeys(0)
	require.NoError(t, err)
	assert.Equal(t, primitives.EncodeScalar(acctBefore.ViewPrivate), primitives.EncodeScalar(acctAfter.ViewPrivate))
}
