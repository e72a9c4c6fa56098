// Package mobile is a thin, gomobile-bindable façade over the core engine:
// it forwards already-framed byte buffers to the engine's Update and framing
// layers for a phone-side companion-app host, per SPEC_FULL §4.8. This is
// not the out-of-scope APDU host driver named in §1 — it never serializes
// commands or reassembles fragmented responses, it only hands a single
// already-complete record to the engine and returns a single already-complete
// response, matching gomobile's synchronous call/return shape.
package mobile

import (
	"bytes"
	"errors"
	"sync"

	"github.com/mobilecoinofficial/nanos-core/coreengine"
	"github.com/mobilecoinofficial/nanos-core/framing"
	"github.com/mobilecoinofficial/nanos-core/keyprovider"
)

// mu guards the process-wide Engine singleton described in §9's "Global
// state" note: one user, one device, no other global mutable state.
var (
	mu     sync.Mutex
	engine *coreengine.Engine
)

// Init constructs the process-wide Engine from a root seed handle the host
// application's own secure storage supplies. Calling Init again discards the
// previous engine and its session, the same as a physical device reboot.
func Init(seed []byte) {
	mu.Lock()
	defer mu.Unlock()

	if engine != nil {
		engine.Close()
	}
	kp := keyprovider.New(seed)
	engine = coreengine.New(kp)
}

// Closed reports whether Init has never been called (or the engine was
// explicitly torn down), matching the host's own lifecycle for a detached
// companion-app session.
func Closed() bool {
	mu.Lock()
	defer mu.Unlock()
	return engine == nil
}

// Shutdown tears down the process-wide engine. Safe to call when already
// shut down.
func Shutdown() {
	mu.Lock()
	defer mu.Unlock()
	if engine != nil {
		engine.Close()
		engine = nil
	}
}

// Update decodes one framed request record, dispatches it to the engine, and
// encodes the response record, in the single call/return shape gomobile
// bindings require. A framing-level failure (truncation, unknown
// instruction, malformed body) never reaches the engine at all; it is
// encoded directly using the status framing's own ParseError already
// classified for this purpose.
func Update(request []byte) ([]byte, error) {
	mu.Lock()
	defer mu.Unlock()

	if engine == nil {
		return nil, errors.New("mobile: Update called before Init")
	}

	event, err := framing.ReadRequest(bytes.NewReader(request))
	if err != nil {
		var pe *framing.ParseError
		status := framing.StatusUnknownInstruction
		if errors.As(err, &pe) {
			status = pe.Status
		}
		return framing.EncodeResponse(framing.NewOutputError(status))
	}

	engine.CheckTimeout()
	out := engine.Update(event)
	return framing.EncodeResponse(out)
}

// Approve injects a user-approval event, equivalent to the device's own
// confirm button, for the UI widget layer described in §1 as an external
// collaborator observed only through this Approvals sink.
func Approve(approved bool) ([]byte, error) {
	mu.Lock()
	defer mu.Unlock()
	if engine == nil {
		return nil, errors.New("mobile: Approve called before Init")
	}
	out := engine.Update(framing.ApprovalEvent{Approved: approved})
	return framing.EncodeResponse(out)
}

// Reset zeroises the active session without tearing down the engine itself.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	if engine != nil {
		engine.Reset()
	}
}
