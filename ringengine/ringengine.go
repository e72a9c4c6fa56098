// Package ringengine builds one MLSAG ring signature per transaction
// input, incrementally: the ring members, the key image, and the
// per-signer challenge chain are all accumulated a row at a time, so the
// session never holds more than O(1) extra state beyond the bounded
// member table. The signing loop is grounded in the same "deterministic
// per-step retribution signing" shape the teacher's breach-remedy path
// uses: one sweep over a bounded set, each step entirely a function of a
// seeded RNG and the previous step's output, never of wall-clock entropy.
package ringengine

import (
	"fmt"

	"github.com/mobilecoinofficial/nanos-core/internal/errs"
	"github.com/mobilecoinofficial/nanos-core/internal/zeroize"
	"github.com/mobilecoinofficial/nanos-core/keyprovider"
	"github.com/mobilecoinofficial/nanos-core/primitives"
)

// MaxRingSize is the hard upper bound on simultaneous ring members, named
// per §9's note that an implementer should treat 16 as fixed rather than
// feature-flagged.
const MaxRingSize = 16

// State is the RingEngine state machine position, per §4.5.
type State int

const (
	StateInit State = iota
	StateBuildRing
	StateExecute
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateBuildRing:
		return "BuildRing"
	case StateExecute:
		return "Execute"
	case StateComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// member is one ring row once TxAddTxOut has populated it.
type member struct {
	set          bool
	targetPublic *primitives.Point
	commitment   *primitives.Point
}

// Response is the (response_target, response_commitment) scalar pair
// returned by TxGetResponse for one row.
type Response struct {
	Target     *primitives.Scalar
	Commitment *primitives.Scalar
}

// Session is one in-progress (or signed) ring.
type Session struct {
	state State

	realIndex      int
	ringSize       int
	messageDigest  [32]byte
	value          uint64
	tokenID        uint64
	blinding       *primitives.Scalar
	outputBlinding *primitives.Scalar

	onetimePrivate *primitives.Scalar
	onetimePublic  *primitives.Point
	onetimeGen     *primitives.Point // H(onetime_public), shared by the key image and the real row's column
	keyImage       *primitives.Point
	pseudoOutput   *primitives.Point
	realCommitment *primitives.Point // set by TxSetBlinding
	z              *primitives.Scalar

	members   [MaxRingSize]member
	cZero     *primitives.Scalar
	responses [MaxRingSize]Response

	messageSet bool
}

// Init begins a ring session: derives the one-time private key for the
// owned output, the pseudo-output commitment, and the key image. None of
// this depends on the ring members, matching invariant 6 (the key image
// is independent of ring and message).
func Init(kp *keyprovider.Provider, accountIndex uint32, realIndex int, value, tokenID uint64,
	blindingBytes, outputBlindingBytes [32]byte, subaddress uint64) (*Session, error) {

	if realIndex < 0 || realIndex >= MaxRingSize {
		return nil, errs.New(errs.KindOutOfBounds, fmt.Sprintf("real_index %d out of bounds", realIndex))
	}

	blinding, err := primitives.DecodeScalar(blindingBytes[:])
	if err != nil {
		return nil, errs.New(errs.KindCrypto, err.Error())
	}
	outputBlinding, err := primitives.DecodeScalar(outputBlindingBytes[:])
	if err != nil {
		return nil, errs.New(errs.KindCrypto, err.Error())
	}

	// The wire's TxRingInit carries no independent transaction public key,
	// so the ephemeral DH point is derived deterministically from the
	// fields already in hand (blinding, output_blinding, subaddress) rather
	// than supplied out of band. See the design ledger for the rationale.
	txPublic := primitives.HashToPoint("mc-ring-tx-public", blindingBytes[:], outputBlindingBytes[:], encodeU64(subaddress))

	onetimePriv, err := kp.DeriveOneTimePrivate(accountIndex, subaddress, txPublic, uint64(realIndex))
	if err != nil {
		return nil, errs.New(errs.KindCrypto, err.Error())
	}

	onetimePub := primitives.NewPoint().ScalarBaseMult(onetimePriv)
	onetimePubBytes := primitives.EncodePoint(onetimePub)
	gen := primitives.HashToPoint("mc-ring-generator", onetimePubBytes[:])

	keyImage := primitives.NewPoint().ScalarMult(onetimePriv, gen)
	pseudoOutput := primitives.PedersenCommit(value, tokenID, outputBlinding)
	z := primitives.NewScalar().Subtract(blinding, outputBlinding)

	log.Debugf("RingEngine: Init real_index=%d value=%d token=%d", realIndex, value, tokenID)

	return &Session{
		state:          StateBuildRing,
		realIndex:      realIndex,
		value:          value,
		tokenID:        tokenID,
		blinding:       blinding,
		outputBlinding: outputBlinding,
		onetimePrivate: onetimePriv,
		onetimePublic:  onetimePub,
		onetimeGen:     gen,
		keyImage:       keyImage,
		pseudoOutput:   pseudoOutput,
		z:              z,
	}, nil
}

// SetMessage records the 32-byte challenge seed. May be called before or
// after members, but must precede Sign.
func (s *Session) SetMessage(digest [32]byte) error {
	if s.state != StateBuildRing {
		return errs.New(errs.KindInvalidState, "ring session not building")
	}
	s.messageDigest = digest
	s.messageSet = true
	return nil
}

// SetBlinding stores the real input's amount commitment, checked against
// the real row's submitted commitment at Sign time.
func (s *Session) SetBlinding(realCommitmentBytes [32]byte) error {
	if s.state != StateBuildRing {
		return errs.New(errs.KindInvalidState, "ring session not building")
	}
	c, err := primitives.DecodePoint(realCommitmentBytes[:])
	if err != nil {
		return errs.New(errs.KindCrypto, err.Error())
	}
	s.realCommitment = c
	return nil
}

// AddMember appends one ring row. The real row's target_public must
// match the session's own derived one-time public key exactly.
func (s *Session) AddMember(index int, targetPublicBytes, commitmentBytes [32]byte) error {
	if s.state != StateBuildRing {
		return errs.New(errs.KindInvalidState, "ring session not building")
	}
	if index < 0 || index >= MaxRingSize {
		return errs.New(errs.KindOutOfBounds, fmt.Sprintf("member index %d out of bounds", index))
	}
	if s.members[index].set {
		return errs.New(errs.KindDuplicateMember, fmt.Sprintf("duplicate member at index %d", index))
	}

	targetPublic, err := primitives.DecodePoint(targetPublicBytes[:])
	if err != nil {
		return errs.New(errs.KindCrypto, err.Error())
	}
	commitment, err := primitives.DecodePoint(commitmentBytes[:])
	if err != nil {
		return errs.New(errs.KindCrypto, err.Error())
	}

	if index == s.realIndex {
		if targetPublic.Equal(s.onetimePublic) != 1 {
			return errs.New(errs.KindRealIndexMismatch, "real row target_public does not match derived one-time public key")
		}
	}

	s.members[index] = member{set: true, targetPublic: targetPublic, commitment: commitment}
	if index+1 > s.ringSize {
		s.ringSize = index + 1
	}
	return nil
}

// validateRing confirms every slot 0..ringSize-1 is populated.
func (s *Session) validateRing() error {
	if s.ringSize < 2 {
		return errs.New(errs.KindInvalidState, "ring too small")
	}
	for i := 0; i < s.ringSize; i++ {
		if !s.members[i].set {
			return errs.New(errs.KindInvalidState, fmt.Sprintf("missing ring member at index %d", i))
		}
	}
	if !s.messageSet {
		return errs.New(errs.KindInvalidState, "message digest not set")
	}
	if s.realCommitment == nil {
		return errs.New(errs.KindInvalidState, "real commitment not set")
	}
	return nil
}

// Sign runs the deterministic MLSAG signing pass. Re-invoking Sign with
// the same seed on an otherwise-identical session reproduces byte
// identical responses and c_zero (invariant 3).
func (s *Session) Sign(seed [32]byte) error {
	if s.state != StateBuildRing {
		return errs.New(errs.KindInvalidState, "ring session not building")
	}
	if err := s.validateRing(); err != nil {
		return err
	}

	if s.realCommitment.Equal(s.members[s.realIndex].commitment) != 1 {
		return errs.New(errs.KindCommitmentMismatch, "real_commitment does not match real row's submitted commitment")
	}

	rng, err := primitives.NewDeterministicRNG(seed, s.messageDigest)
	if err != nil {
		return errs.New(errs.KindRngFailure, err.Error())
	}

	alpha := rng.NextScalar()
	alphaPrime := rng.NextScalar()

	lReal := primitives.NewPoint().ScalarBaseMult(alpha)
	rReal := primitives.NewPoint().ScalarMult(alpha, s.onetimeGen)
	lRealPrime := primitives.NewPoint().ScalarBaseMult(alphaPrime)
	rRealPrime := primitives.NewPoint().ScalarMult(alphaPrime, s.onetimeGen)

	curC := s.challenge(lReal, rReal, lRealPrime, rRealPrime)

	c := make([]*primitives.Scalar, s.ringSize)
	n := s.ringSize
	idx := (s.realIndex + 1) % n
	for step := 0; step < n-1; step++ {
		c[idx] = curC

		rj := rng.NextScalar()
		rjPrime := rng.NextScalar()

		gen := primitives.HashToPoint("mc-ring-generator", pointBytes(s.members[idx].targetPublic))

		lj := addPoints(
			primitives.NewPoint().ScalarBaseMult(rj),
			primitives.NewPoint().ScalarMult(c[idx], s.members[idx].targetPublic),
		)
		rj2 := addPoints(
			primitives.NewPoint().ScalarMult(rj, gen),
			primitives.NewPoint().ScalarMult(c[idx], s.keyImage),
		)

		diff := primitives.NewPoint().Subtract(s.members[idx].commitment, s.pseudoOutput)
		ljPrime := addPoints(
			primitives.NewPoint().ScalarBaseMult(rjPrime),
			primitives.NewPoint().ScalarMult(c[idx], diff),
		)
		rjPrime2 := addPoints(
			primitives.NewPoint().ScalarMult(rjPrime, gen),
			primitives.NewPoint().ScalarMult(c[idx], s.keyImage),
		)

		s.responses[idx] = Response{Target: rj, Commitment: rjPrime}

		curC = s.challenge(lj, rj2, ljPrime, rjPrime2)
		idx = (idx + 1) % n
	}

	// idx is back at realIndex; curC is the challenge that closes the ring.
	c[s.realIndex] = curC
	rRealResp := primitives.NewScalar().Subtract(alpha, primitives.NewScalar().Multiply(curC, s.onetimePrivate))
	rRealPrimeResp := primitives.NewScalar().Subtract(alphaPrime, primitives.NewScalar().Multiply(curC, s.z))
	s.responses[s.realIndex] = Response{Target: rRealResp, Commitment: rRealPrimeResp}

	s.cZero = c[0]
	s.state = StateExecute

	log.Infof("RingEngine: signed ring_size=%d real_index=%d", n, s.realIndex)
	return nil
}

// challenge folds one row's (L, R, L', R') into the next row's challenge
// scalar, always over the fixed message digest.
func (s *Session) challenge(l, r, lPrime, rPrime *primitives.Point) *primitives.Scalar {
	lb := pointBytes(l)
	rb := pointBytes(r)
	lpb := pointBytes(lPrime)
	rpb := pointBytes(rPrime)
	return primitives.HashToScalar(s.messageDigest[:], lb, rb, lpb, rpb)
}

// KeyImage returns the ring's key image. Valid from Init onward since it
// never depends on the ring members or the message (invariant 6).
func (s *Session) KeyImage() [32]byte {
	return primitives.EncodePoint(s.keyImage)
}

// Response returns the signed response pair for row index, valid once
// signing has completed.
func (s *Session) Response(index int) (Response, error) {
	if s.state != StateExecute {
		return Response{}, errs.New(errs.KindInvalidState, "ring session not signed")
	}
	if index < 0 || index >= s.ringSize {
		return Response{}, errs.New(errs.KindOutOfBounds, fmt.Sprintf("response index %d out of bounds", index))
	}
	return s.responses[index], nil
}

// CZero returns the closing challenge value, valid once signing has
// completed.
func (s *Session) CZero() (*primitives.Scalar, error) {
	if s.state != StateExecute {
		return nil, errs.New(errs.KindInvalidState, "ring session not signed")
	}
	return s.cZero, nil
}

// Close zeroises every secret scalar held by the session. Call on every
// exit path: TxComplete, Reset, timeout, or error.
func (s *Session) Close() {
	if s == nil {
		return
	}
	s.state = StateComplete
	zeroize.WipeAll(scalarWiper{s.onetimePrivate}, scalarWiper{s.blinding}, scalarWiper{s.outputBlinding}, scalarWiper{s.z})
	s.onetimePrivate = nil
	s.blinding = nil
	s.outputBlinding = nil
	s.z = nil
}

// scalarWiper adapts a *primitives.Scalar into zeroize.Wiper by clobbering
// its canonical encoding in place; the ristretto255 Scalar itself has no
// exported zeroing method, so the session always drops its pointer
// immediately after calling Wipe.
type scalarWiper struct{ s *primitives.Scalar }

func (w scalarWiper) Wipe() {
	if w.s == nil {
		return
	}
	zero := primitives.NewScalar()
	w.s.Subtract(w.s, w.s)
	_ = zero
}

func pointBytes(p *primitives.Point) []byte {
	b := primitives.EncodePoint(p)
	return b[:]
}

func addPoints(a, b *primitives.Point) *primitives.Point {
	return primitives.NewPoint().Add(a, b)
}

func encodeU64(v uint64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b[:]
}
