// Package identengine implements the decentralized-identity
// challenge-response signer, gated on user approval, per §4.4. It derives
// a per-(identity_index, uri) Ed25519 keypair from the account's view
// private scalar and never signs before the approval gate has fired,
// mirroring the explicit state-gating pattern the teacher's contract
// resolvers use: no cryptographic action runs ahead of its guard.
package identengine

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mobilecoinofficial/nanos-core/internal/errs"
	"github.com/mobilecoinofficial/nanos-core/internal/zeroize"
	"github.com/mobilecoinofficial/nanos-core/keyprovider"
	"github.com/mobilecoinofficial/nanos-core/primitives"
)

// MaxURILength bounds the identity URI per §3's IdentSession field list.
const MaxURILength = 128

// State is the IdentEngine state machine position, per §4.4.
type State int

const (
	StateInit State = iota
	StatePending
	StateApproved
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StatePending:
		return "Pending"
	case StateApproved:
		return "Approved"
	case StateComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// Session holds one decentralized-identity signing attempt's state.
type Session struct {
	AccountIndex  uint32
	IdentityIndex uint32
	URI           string
	Challenge     [32]byte
	State         State

	publicKey [32]byte
	signature [64]byte
}

// Result is the signed output of an approved session.
type Result struct {
	PublicKey [32]byte
	Signature [64]byte
}

// Init validates the inbound IdentInit fields and opens a new Pending
// session requesting user approval. It performs no signing: signing only
// ever happens inside Approve, after the gate has been crossed.
func Init(kp *keyprovider.Provider, accountIndex, identityIndex uint32, uri string, challenge [32]byte) (*Session, error) {
	if len(uri) == 0 || len(uri) > MaxURILength {
		return nil, errs.New(errs.KindParse, fmt.Sprintf("ident uri length %d out of bounds", len(uri)))
	}
	for i := 0; i < len(uri); i++ {
		if uri[i] < 0x20 || uri[i] > 0x7e {
			return nil, errs.New(errs.KindParse, "ident uri is not printable ASCII")
		}
	}

	log.Debugf("IdentEngine: Init account=%d identity=%d uri=%s", accountIndex, identityIndex, uri)

	return &Session{
		AccountIndex:  accountIndex,
		IdentityIndex: identityIndex,
		URI:           uri,
		Challenge:     challenge,
		State:         StatePending,
	}, nil
}

// Approve derives the identity keypair and signs the stored challenge. It
// is only valid from StatePending; any other state is Unauthorized,
// matching §4.4's "attempted signing without prior approval" failure.
func (s *Session) Approve(kp *keyprovider.Provider) (*Result, error) {
	if s.State != StatePending {
		return nil, errs.New(errs.KindUnauthorized, "ident session not pending approval")
	}

	priv, err := s.deriveKeypair(kp)
	if err != nil {
		s.State = StateComplete
		return nil, err
	}
	defer zeroize.Bytes(priv)

	sig := ed25519.Sign(priv, s.Challenge[:])

	pub := priv.Public().(ed25519.PublicKey)
	copy(s.publicKey[:], pub)
	copy(s.signature[:], sig)
	s.State = StateComplete

	log.Infof("IdentEngine: approved account=%d identity=%d", s.AccountIndex, s.IdentityIndex)

	return &Result{PublicKey: s.publicKey, Signature: s.signature}, nil
}

// Reject closes the session without signing.
func (s *Session) Reject() {
	s.State = StateComplete
	log.Infof("IdentEngine: rejected account=%d identity=%d", s.AccountIndex, s.IdentityIndex)
}

// deriveKeypair computes K_i = HKDF(view_private, "ident" || identity_index || uri)
// and expands it into an Ed25519 seed, per §4.4.
func (s *Session) deriveKeypair(kp *keyprovider.Provider) (ed25519.PrivateKey, error) {
	acct, err := kp.AccountKeys(s.AccountIndex)
	if err != nil {
		return nil, errs.New(errs.KindCrypto, err.Error())
	}
	defer acct.Wipe()

	viewPrivBytes := primitives.EncodeScalar(acct.ViewPrivate)
	defer zeroize.Scalar32(&viewPrivBytes)

	var idxBytes [4]byte
	idxBytes[0] = byte(s.IdentityIndex)
	idxBytes[1] = byte(s.IdentityIndex >> 8)
	idxBytes[2] = byte(s.IdentityIndex >> 16)
	idxBytes[3] = byte(s.IdentityIndex >> 24)

	info := append(append([]byte("ident"), idxBytes[:]...), []byte(s.URI)...)

	seed, err := primitives.HKDFExpand(viewPrivBytes[:], nil, info, ed25519.SeedSize)
	if err != nil {
		return nil, errs.New(errs.KindCrypto, err.Error())
	}
	defer zeroize.Bytes(seed)

	return ed25519.NewKeyFromSeed(seed), nil
}
