// Package keyprovider maps a SLIP-10 derivation path plus an account and
// subaddress index onto MobileCoin (view, spend) account keys, per §4.3.
// It is a pure function of the root seed the host environment hands the
// core at session start: it never persists, logs, or echoes private key
// material, and every returned key set implements zeroize.Wiper so the
// engine can wipe it on every terminal transition.
package keyprovider

import (
	"fmt"

	"github.com/mobilecoinofficial/nanos-core/internal/zeroize"
	"github.com/mobilecoinofficial/nanos-core/primitives"
)

// ChangeSubaddressIndex is the reserved subaddress index MobileCoin uses
// for change outputs.
const ChangeSubaddressIndex = uint64(0x7fffffff)

// mobileCoinCoinType is SLIP-44 coin type 866, registered for MobileCoin.
const mobileCoinCoinType = uint32(866)

// AccountKeys holds the full (view, spend) private/public key pairs for one
// account index. Never persisted; Wipe must be called on every exit path
// that held one.
type AccountKeys struct {
	ViewPrivate  *primitives.Scalar
	SpendPrivate *primitives.Scalar
	ViewPublic   *primitives.Point
	SpendPublic  *primitives.Point
}

// Wipe clears the private scalars. Public keys are not secret and are left
// intact for any in-flight response encoding.
func (a *AccountKeys) Wipe() {
	if a == nil {
		return
	}
	wipeScalar(a.ViewPrivate)
	wipeScalar(a.SpendPrivate)
	a.ViewPrivate = nil
	a.SpendPrivate = nil
}

var _ zeroize.Wiper = (*AccountKeys)(nil)

// SubaddressKeys holds the public subaddress key pair plus the subaddress
// spend private key (spend_private + m), required by RingEngine to derive
// a one-time private key.
type SubaddressKeys struct {
	ViewPublic      *primitives.Point
	SpendPublic     *primitives.Point
	spendPrivateSub *primitives.Scalar
}

// SpendPrivate returns the subaddress spend private key. Only the engine's
// ring-signing path is expected to call this.
func (s *SubaddressKeys) SpendPrivate() *primitives.Scalar { return s.spendPrivateSub }

// Wipe clears the subaddress spend private key carried alongside the
// public subaddress keys.
func (s *SubaddressKeys) Wipe() {
	if s == nil {
		return
	}
	wipeScalar(s.spendPrivateSub)
	s.spendPrivateSub = nil
}

var _ zeroize.Wiper = (*SubaddressKeys)(nil)

// wipeScalar clobbers s in place by subtracting it from itself before the
// caller drops its pointer; the ristretto255 Scalar exposes no direct
// zeroing method, so this is the only way to clear its backing bytes.
func wipeScalar(s *primitives.Scalar) {
	if s == nil {
		return
	}
	s.Subtract(s, s)
}

// Provider derives account and subaddress keys from a root seed handle. It
// holds no other state and performs no I/O.
type Provider struct {
	seed []byte
}

// New wraps a root seed supplied by the host's own secure element. The
// caller retains ownership of seed and is responsible for wiping it; New
// takes its own copy so the provider's lifetime doesn't depend on the
// caller's buffer.
func New(seed []byte) *Provider {
	cp := make([]byte, len(seed))
	copy(cp, seed)
	return &Provider{seed: cp}
}

// Close wipes the provider's copy of the root seed. Call once per session.
func (p *Provider) Close() {
	zeroize.Bytes(p.seed)
	p.seed = nil
}

// accountRoot derives the 32-byte SLIP-10 node for one account, via the
// hardened path m/44'/866'/account'.
func (p *Provider) accountRoot(accountIndex uint32) ([32]byte, error) {
	path := []uint32{
		HardenedOffset + 44,
		HardenedOffset + mobileCoinCoinType,
		HardenedOffset + accountIndex,
	}
	return deriveSlip10Path(p.seed, path)
}

// AccountKeys derives the view/spend key pair for the given account index,
// per the MobileCoin standard derivation: the SLIP-10 node for the account
// is used as HKDF secret material, separately expanded into the view and
// spend scalars so that knowledge of one never reveals the other.
func (p *Provider) AccountKeys(accountIndex uint32) (*AccountKeys, error) {
	root, err := p.accountRoot(accountIndex)
	if err != nil {
		return nil, fmt.Errorf("keyprovider: account root: %w", err)
	}
	defer zeroize.Scalar32(&root)

	viewPriv, err := expandToScalar(root[:], "mc-view")
	if err != nil {
		return nil, err
	}
	spendPriv, err := expandToScalar(root[:], "mc-spend")
	if err != nil {
		return nil, err
	}

	return &AccountKeys{
		ViewPrivate:  viewPriv,
		SpendPrivate: spendPriv,
		ViewPublic:   primitives.NewPoint().ScalarBaseMult(viewPriv),
		SpendPublic:  primitives.NewPoint().ScalarBaseMult(spendPriv),
	}, nil
}

// expandToScalar derives a uniform scalar from secret via HKDF under the
// given info label, then wide-reduces it into the scalar field.
func expandToScalar(secret []byte, info string) (*primitives.Scalar, error) {
	wide, err := primitives.HKDFExpand(secret, nil, []byte(info), 64)
	if err != nil {
		return nil, err
	}
	defer zeroize.Bytes(wide)

	s := primitives.NewScalar()
	s.FromUniformBytes(wide)
	return s, nil
}

// SubaddressKeys derives the public subaddress key pair for
// (accountIndex, subaddressIndex) using MobileCoin's CryptoNote-style
// subaddress scheme:
//
//	m      = Hs("subaddr" || view_private || subaddress_index)
//	D      = spend_public + m*G      (subaddress spend public key)
//	C      = view_private * D        (subaddress view public key)
//	d      = spend_private + m       (subaddress spend private key)
//
// Subaddress index ChangeSubaddressIndex is the account's reserved change
// address and is derived the same way as any other index; it carries no
// special-cased key material, only special meaning to the summary engine's
// balance accounting (§4.6).
func (p *Provider) SubaddressKeys(accountIndex uint32, subaddressIndex uint64) (*SubaddressKeys, error) {
	acct, err := p.AccountKeys(accountIndex)
	if err != nil {
		return nil, err
	}
	defer acct.Wipe()

	m := subaddressScalar(acct.ViewPrivate, subaddressIndex)

	mG := primitives.NewPoint().ScalarBaseMult(m)
	d := primitives.NewPoint().Add(acct.SpendPublic, mG)
	c := primitives.NewPoint().ScalarMult(acct.ViewPrivate, d)

	spendPrivSub := primitives.NewScalar().Add(acct.SpendPrivate, m)

	return &SubaddressKeys{
		ViewPublic:      c,
		SpendPublic:     d,
		spendPrivateSub: spendPrivSub,
	}, nil
}

// subaddressScalar computes the per-index blinding scalar m used by both
// the public derivation above and, eventually, RingEngine's one-time key
// derivation.
func subaddressScalar(viewPrivate *primitives.Scalar, subaddressIndex uint64) *primitives.Scalar {
	vb := primitives.EncodeScalar(viewPrivate)
	var ib [8]byte
	for i := 0; i < 8; i++ {
		ib[i] = byte(subaddressIndex >> (8 * i))
	}
	return primitives.HashToScalar([]byte("subaddr"), vb[:], ib[:])
}

// DeriveOneTimePrivate derives the one-time output private key owned by
// (accountIndex, subaddressIndex) for an output whose transaction public
// key is txPublic, via the standard CryptoNote Diffie-Hellman construction:
//
//	shared  = view_private * tx_public
//	x       = Hs(shared || output_index)
//	onetime = x + spend_private_subaddress
//
// This is RingEngine's only use of KeyProvider: it never needs the account
// view/spend keys directly, only the derived one-time signing scalar.
func (p *Provider) DeriveOneTimePrivate(accountIndex uint32, subaddressIndex uint64,
	txPublic *primitives.Point, outputIndex uint64) (*primitives.Scalar, error) {

	acct, err := p.AccountKeys(accountIndex)
	if err != nil {
		return nil, err
	}
	defer acct.Wipe()

	sub, err := p.SubaddressKeys(accountIndex, subaddressIndex)
	if err != nil {
		return nil, err
	}
	defer sub.Wipe()

	shared := primitives.NewPoint().ScalarMult(acct.ViewPrivate, txPublic)
	sharedBytes := primitives.EncodePoint(shared)

	var ib [8]byte
	for i := 0; i < 8; i++ {
		ib[i] = byte(outputIndex >> (8 * i))
	}
	x := primitives.HashToScalar([]byte("onetime"), sharedBytes[:], ib[:])

	return primitives.NewScalar().Add(x, sub.SpendPrivate()), nil
}
