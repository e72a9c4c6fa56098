// Package summaryengine streams a transaction's outputs and inputs into
// a per-token balance table as they arrive. The digest input is not
// hashed incrementally: every output's and input's digested fields are
// appended to a byte buffer that grows with the transaction and is
// hashed once at Build. It is the display
// half of the core: by the time TxSummaryBuild finishes, the UI has
// everything it needs to show the user what they're about to sign, and
// nothing more.
package summaryengine

import (
	"fmt"

	"github.com/mobilecoinofficial/nanos-core/internal/errs"
	"github.com/mobilecoinofficial/nanos-core/primitives"
)

// MaxTokens bounds the number of distinct token ids tracked per summary.
const MaxTokens = 4

// MaxRecipients bounds the number of distinct recipient labels surfaced
// to the UI.
const MaxRecipients = 4

// knownFogLabels is the static table of recognised fog-report ids,
// named per §9's open question: it must be kept in sync with the host
// wallet out of band.
var knownFogLabels = map[byte]string{
	1: "mob-fog-us-1",
	2: "mob-fog-us-2",
	3: "mob-fog-eu-1",
}

// State is the SummaryEngine state machine position, per §4.6.
type State int

const (
	StateInit State = iota
	StateAddOutputs
	StateAddInputs
	StateReady
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateAddOutputs:
		return "AddOutputs"
	case StateAddInputs:
		return "AddInputs"
	case StateReady:
		return "Ready"
	case StateComplete:
		return "Complete"
	default:
		return "Unknown"
	}
}

// OutputFlag marks a summary output's role, per §4.6.
type OutputFlag byte

const (
	FlagNone   OutputFlag = 0
	FlagChange OutputFlag = 1 << 0
	FlagOurs   OutputFlag = 1 << 1
	FlagFog    OutputFlag = 1 << 2
	FlagSwap   OutputFlag = 1 << 3
)

type tokenBalance struct {
	tokenID    uint64
	seen       bool
	outflow    uint64
	changeBack uint64
	inflow     uint64
}

// pendingOutput holds one TxSummaryAddTxOut row awaiting its unblinding.
type pendingOutput struct {
	flags      OutputFlag
	commitment *primitives.Point
	open       bool
}

// Display is the per-token view the UI shows before approval.
type Display struct {
	TokenID    uint64
	Outflow    uint64
	ChangeBack uint64
	Net        int64
}

// ReadyView is everything TxSummaryBuild publishes for user confirmation.
type ReadyView struct {
	Fee        uint64
	Tombstone  uint64
	Balances   []Display
	Recipients []string
}

// Session is one in-progress (or built) transaction summary.
type Session struct {
	state State

	messageDigest [32]byte
	messageSet    bool

	blockVersion uint32
	totalOutputs int
	totalInputs  int
	countedOut   int
	countedIn    int
	fee          uint64
	tokenID      uint64
	tombstone    uint64

	digest   []byte // all digested fields so far, hashed once at Build
	balances [MaxTokens]tokenBalance
	fogSeen  map[byte]bool
	pending  pendingOutput

	rejected bool
}

// Init begins a streaming summary session.
func Init(blockVersion uint32, numOutputs, numInputs byte, fee, tokenID, tombstone uint64) (*Session, error) {
	return &Session{
		state:        StateAddOutputs,
		blockVersion: blockVersion,
		totalOutputs: int(numOutputs),
		totalInputs:  int(numInputs),
		fee:          fee,
		tokenID:      tokenID,
		tombstone:    tombstone,
		fogSeen:      make(map[byte]bool, MaxRecipients),
	}, nil
}

// SetMessage records the digest the finished summary must equal. Shared
// with RingEngine's TxSetMessage instruction; the top-level dispatcher
// routes it to whichever function is active.
func (s *Session) SetMessage(digest [32]byte) error {
	s.messageDigest = digest
	s.messageSet = true
	return nil
}

// AddTxOut stages one output's public fields; its unblinding must follow
// immediately.
func (s *Session) AddTxOut(flags OutputFlag, targetPublicBytes, amountCommitmentBytes [32]byte) error {
	if s.state != StateAddOutputs {
		return errs.New(errs.KindInvalidState, "summary session not accepting outputs")
	}
	if s.pending.open {
		return errs.New(errs.KindInvalidState, "previous output unblinding not yet supplied")
	}
	if s.countedOut >= s.totalOutputs {
		return errs.New(errs.KindOutOfBounds, "more outputs supplied than declared")
	}

	commitment, err := primitives.DecodePoint(amountCommitmentBytes[:])
	if err != nil {
		return errs.New(errs.KindCrypto, err.Error())
	}

	s.digest = append(s.digest, byte(flags))
	s.digest = append(s.digest, targetPublicBytes[:]...)
	s.digest = append(s.digest, amountCommitmentBytes[:]...)

	s.pending = pendingOutput{flags: flags, commitment: commitment, open: true}
	return nil
}

// AddTxOutUnblinding opens the commitment staged by the preceding
// AddTxOut call and folds it into the running balance.
func (s *Session) AddTxOutUnblinding(value, tokenID uint64, blindingBytes [32]byte, fogID byte) error {
	if s.state != StateAddOutputs {
		return errs.New(errs.KindInvalidState, "summary session not accepting outputs")
	}
	if !s.pending.open {
		return errs.New(errs.KindInvalidState, "no output awaiting unblinding")
	}

	blinding, err := primitives.DecodeScalar(blindingBytes[:])
	if err != nil {
		return errs.New(errs.KindCrypto, err.Error())
	}

	recomputed := primitives.PedersenCommit(value, tokenID, blinding)
	if recomputed.Equal(s.pending.commitment) != 1 {
		return errs.New(errs.KindCommitmentMismatch, "output unblinding does not open its commitment")
	}

	flags := s.pending.flags
	s.digest = append(s.digest, encodeU64(value)...)
	s.digest = append(s.digest, encodeU64(tokenID)...)
	s.digest = append(s.digest, blindingBytes[:]...)
	s.digest = append(s.digest, fogID)

	bal, err := s.balanceFor(tokenID)
	if err != nil {
		return err
	}
	if flags&(FlagChange|FlagOurs) != 0 {
		bal.changeBack += value
	} else {
		bal.outflow += value
	}

	if flags&FlagFog != 0 {
		if !s.fogSeen[fogID] {
			if len(s.fogSeen) >= MaxRecipients {
				return errs.New(errs.KindOutOfBounds, "too many distinct recipients")
			}
			s.fogSeen[fogID] = true
		}
	}

	s.pending = pendingOutput{}
	s.countedOut++
	if s.countedOut == s.totalOutputs {
		s.state = StateAddInputs
	}
	return nil
}

// AddTxIn folds one spent input into the running balance.
func (s *Session) AddTxIn(value, tokenID uint64, blindingBytes [32]byte) error {
	if s.state == StateAddOutputs && s.countedOut == s.totalOutputs {
		s.state = StateAddInputs
	}
	if s.state != StateAddInputs {
		return errs.New(errs.KindInvalidState, "summary session not accepting inputs")
	}
	if s.countedIn >= s.totalInputs {
		return errs.New(errs.KindOutOfBounds, "more inputs supplied than declared")
	}

	s.digest = append(s.digest, encodeU64(value)...)
	s.digest = append(s.digest, encodeU64(tokenID)...)
	s.digest = append(s.digest, blindingBytes[:]...)

	bal, err := s.balanceFor(tokenID)
	if err != nil {
		return err
	}
	bal.inflow += value

	s.countedIn++
	return nil
}

// balanceFor returns the tracked balance slot for tokenID, allocating a
// new one if room remains.
func (s *Session) balanceFor(tokenID uint64) (*tokenBalance, error) {
	for i := range s.balances {
		if s.balances[i].seen && s.balances[i].tokenID == tokenID {
			return &s.balances[i], nil
		}
	}
	for i := range s.balances {
		if !s.balances[i].seen {
			s.balances[i] = tokenBalance{tokenID: tokenID, seen: true}
			return &s.balances[i], nil
		}
	}
	return nil, errs.New(errs.KindOutOfBounds, "too many distinct token ids in summary")
}

// Build finalises the digest, checks the mass-balance invariant, and
// transitions to Ready pending user approval.
func (s *Session) Build() (*ReadyView, error) {
	if s.state != StateAddInputs {
		return nil, errs.New(errs.KindInvalidState, "summary session not done accumulating")
	}
	if s.countedOut != s.totalOutputs || s.countedIn != s.totalInputs {
		return nil, errs.New(errs.KindInvalidState, "summary counts incomplete")
	}
	if !s.messageSet {
		return nil, errs.New(errs.KindInvalidState, "message digest not set")
	}

	finalDigest := primitives.Blake2bSum256(s.digest)
	if finalDigest != s.messageDigest {
		return nil, errs.New(errs.KindCommitmentMismatch, "summary digest does not match signed message")
	}

	view := ReadyView{Fee: s.fee, Tombstone: s.tombstone}
	for i := range s.balances {
		b := &s.balances[i]
		if !b.seen {
			continue
		}
		expected := uint64(0)
		if b.tokenID == s.tokenID {
			expected = s.fee
		}
		if b.inflow != b.outflow+b.changeBack+expected {
			// The summary holds no secret key material, so the invariant-5
			// wipe-on-terminal-error concern doesn't apply here; what does
			// apply is §8's literal scenario 7: a later TxRingSign attempt
			// against this same transaction must see a rejected summary and
			// answer UserRejected, not a bare "no session" once the
			// top-level dispatcher's generic terminal-error handling has run.
			s.state = StateComplete
			s.rejected = true
			return nil, errs.New(errs.KindUnbalancedSummary, fmt.Sprintf("token %d: inputs %d != outputs %d + change %d + fee %d",
				b.tokenID, b.inflow, b.outflow, b.changeBack, expected))
		}
		net := int64(b.outflow) - int64(b.changeBack) - int64(b.inflow)
		view.Balances = append(view.Balances, Display{
			TokenID:    b.tokenID,
			Outflow:    b.outflow,
			ChangeBack: b.changeBack,
			Net:        net,
		})
	}

	for id := range s.fogSeen {
		if label, ok := knownFogLabels[id]; ok {
			view.Recipients = append(view.Recipients, label)
		} else {
			view.Recipients = append(view.Recipients, "unknown")
		}
	}

	s.state = StateReady
	log.Infof("SummaryEngine: built summary block_version=%d fee=%d", s.blockVersion, s.fee)
	return &view, nil
}

// Approve transitions a Ready summary to Complete.
func (s *Session) Approve() error {
	if s.state != StateReady {
		return errs.New(errs.KindUnauthorized, "summary session not ready for approval")
	}
	s.state = StateComplete
	return nil
}

// Reject marks the summary rejected; any subsequent ring-signing attempt
// against this transaction fails with UserRejected at the top-level
// dispatcher.
func (s *Session) Reject() {
	s.state = StateComplete
	s.rejected = true
}

// Rejected reports whether the user declined this summary.
func (s *Session) Rejected() bool { return s.rejected }

// State returns the session's current state-machine position.
func (s *Session) State() State { return s.state }

// MessageDigest returns the digest this summary was built against. The
// top-level dispatcher does not call it: a ring session's message is not
// compared against this digest before signing.
func (s *Session) MessageDigest() [32]byte { return s.messageDigest }

func encodeU64(v uint64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b[:]
}
