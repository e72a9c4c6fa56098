package framing

// Concrete Event types for every instruction in §6's table. Each knows
// only its own wire shape; none of them touch a curve point or a scalar
// multiplication — decoding 32-byte fields yields raw bytes that the
// engine layer hands to primitives.DecodeScalar/DecodePoint.

// AppInfoEvent carries no body.
type AppInfoEvent struct{}

func (AppInfoEvent) Instruction() Instruction { return InsAppInfo }

func (e *AppInfoEvent) decodeBody(_, _ byte, body []byte) error {
	if len(body) != 0 {
		return newMalformedError(0, "AppInfo takes no body")
	}
	return nil
}

// WalletKeysEvent requests the view/spend public keys for one account.
type WalletKeysEvent struct {
	AccountIndex uint32
}

func (WalletKeysEvent) Instruction() Instruction { return InsWalletKeys }

func (e *WalletKeysEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	idx, err := r.readUint32()
	if err != nil {
		return err
	}
	e.AccountIndex = idx
	return r.requireExhausted()
}

// SubaddressKeysEvent requests the public subaddress key pair.
type SubaddressKeysEvent struct {
	AccountIndex    uint32
	SubaddressIndex uint64
}

func (SubaddressKeysEvent) Instruction() Instruction { return InsSubaddressKeys }

func (e *SubaddressKeysEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	acc, err := r.readUint32()
	if err != nil {
		return err
	}
	sub, err := r.readUint64()
	if err != nil {
		return err
	}
	e.AccountIndex, e.SubaddressIndex = acc, sub
	return r.requireExhausted()
}

// KeyImageEvent requests the key image for an owned output without
// running a full ring-signing session.
type KeyImageEvent struct {
	SubaddressIndex uint64
	TxPublic        [32]byte
}

func (KeyImageEvent) Instruction() Instruction { return InsKeyImage }

func (e *KeyImageEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	sub, err := r.readUint64()
	if err != nil {
		return err
	}
	txPub, err := r.read32()
	if err != nil {
		return err
	}
	e.SubaddressIndex, e.TxPublic = sub, txPub
	return r.requireExhausted()
}

// RandomEvent requests N bytes of device randomness (rate-limited by the
// engine, never by framing).
type RandomEvent struct {
	N byte
}

func (RandomEvent) Instruction() Instruction { return InsRandom }

func (e *RandomEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	n, err := r.readByte()
	if err != nil {
		return err
	}
	e.N = n
	return r.requireExhausted()
}

// IdentSignEvent begins a decentralized-identity challenge signing
// session.
type IdentSignEvent struct {
	IdentityIndex uint32
	URI           string
	Challenge     [32]byte
}

func (IdentSignEvent) Instruction() Instruction { return InsIdentSign }

func (e *IdentSignEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	idx, err := r.readUint32()
	if err != nil {
		return err
	}
	uriLen, err := r.readByte()
	if err != nil {
		return err
	}
	uriBytes, err := r.readN(int(uriLen))
	if err != nil {
		return err
	}
	challenge, err := r.read32()
	if err != nil {
		return err
	}
	e.IdentityIndex = idx
	e.URI = string(uriBytes)
	e.Challenge = challenge
	return r.requireExhausted()
}

// TxInitEvent begins a ring-signing session for an account.
type TxInitEvent struct {
	AccountIndex uint32
	NumRings     byte
}

func (TxInitEvent) Instruction() Instruction { return InsTxInit }

func (e *TxInitEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	acc, err := r.readUint32()
	if err != nil {
		return err
	}
	n, err := r.readByte()
	if err != nil {
		return err
	}
	e.AccountIndex, e.NumRings = acc, n
	return r.requireExhausted()
}

// TxSetMessageEvent records the 32-byte digest every ring in the
// transaction will be challenged against.
type TxSetMessageEvent struct {
	Digest [32]byte
}

func (TxSetMessageEvent) Instruction() Instruction { return InsTxSetMessage }

func (e *TxSetMessageEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	d, err := r.read32()
	if err != nil {
		return err
	}
	e.Digest = d
	return r.requireExhausted()
}

// TxSummaryInitEvent begins a streaming transaction-summary session.
type TxSummaryInitEvent struct {
	BlockVersion uint32
	NumOutputs   byte
	NumInputs    byte
	Fee          uint64
	TokenID      uint64
	Tombstone    uint64
}

func (TxSummaryInitEvent) Instruction() Instruction { return InsTxSummaryInit }

func (e *TxSummaryInitEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	bv, err := r.readUint32()
	if err != nil {
		return err
	}
	numOut, err := r.readByte()
	if err != nil {
		return err
	}
	numIn, err := r.readByte()
	if err != nil {
		return err
	}
	fee, err := r.readUint64()
	if err != nil {
		return err
	}
	token, err := r.readUint64()
	if err != nil {
		return err
	}
	tombstone, err := r.readUint64()
	if err != nil {
		return err
	}
	e.BlockVersion, e.NumOutputs, e.NumInputs = bv, numOut, numIn
	e.Fee, e.TokenID, e.Tombstone = fee, token, tombstone
	return r.requireExhausted()
}

// OutputFlag marks a summary output's role per §4.6.
type OutputFlag byte

const (
	OutputFlagNone   OutputFlag = 0
	OutputFlagChange OutputFlag = 1 << 0
	OutputFlagOurs   OutputFlag = 1 << 1
	OutputFlagFog    OutputFlag = 1 << 2
	OutputFlagSwap   OutputFlag = 1 << 3
)

// TxSummaryAddTxOutEvent appends one output's public fields; its
// unblinding follows in a separate event.
type TxSummaryAddTxOutEvent struct {
	Flags            OutputFlag
	TargetPublic     [32]byte
	AmountCommitment [32]byte
}

func (TxSummaryAddTxOutEvent) Instruction() Instruction { return InsTxSummaryAddTxOut }

func (e *TxSummaryAddTxOutEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	flags, err := r.readByte()
	if err != nil {
		return err
	}
	target, err := r.read32()
	if err != nil {
		return err
	}
	commitment, err := r.read32()
	if err != nil {
		return err
	}
	e.Flags = OutputFlag(flags)
	e.TargetPublic, e.AmountCommitment = target, commitment
	return r.requireExhausted()
}

// TxSummaryAddTxOutUnblindingEvent opens the commitment of the output
// most recently added by TxSummaryAddTxOutEvent.
type TxSummaryAddTxOutUnblindingEvent struct {
	Value    uint64
	TokenID  uint64
	Blinding [32]byte
	FogID    byte
}

func (TxSummaryAddTxOutUnblindingEvent) Instruction() Instruction {
	return InsTxSummaryAddTxOutUnblinding
}

func (e *TxSummaryAddTxOutUnblindingEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	value, err := r.readUint64()
	if err != nil {
		return err
	}
	token, err := r.readUint64()
	if err != nil {
		return err
	}
	blinding, err := r.read32()
	if err != nil {
		return err
	}
	fogID, err := r.readByte()
	if err != nil {
		return err
	}
	e.Value, e.TokenID, e.Blinding, e.FogID = value, token, blinding, fogID
	return r.requireExhausted()
}

// TxSummaryAddTxInEvent appends one spent input's value to the running
// balance.
type TxSummaryAddTxInEvent struct {
	Value    uint64
	TokenID  uint64
	Blinding [32]byte
}

func (TxSummaryAddTxInEvent) Instruction() Instruction { return InsTxSummaryAddTxIn }

func (e *TxSummaryAddTxInEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	value, err := r.readUint64()
	if err != nil {
		return err
	}
	token, err := r.readUint64()
	if err != nil {
		return err
	}
	blinding, err := r.read32()
	if err != nil {
		return err
	}
	e.Value, e.TokenID, e.Blinding = value, token, blinding
	return r.requireExhausted()
}

// TxSummaryBuildEvent finalises the summary digest and requests
// approval.
type TxSummaryBuildEvent struct{}

func (TxSummaryBuildEvent) Instruction() Instruction { return InsTxSummaryBuild }

func (e *TxSummaryBuildEvent) decodeBody(_, _ byte, body []byte) error {
	if len(body) != 0 {
		return newMalformedError(0, "TxSummaryBuild takes no body")
	}
	return nil
}

// TxRingInitEvent begins one MLSAG ring-signing sub-session.
type TxRingInitEvent struct {
	RealIndex      byte
	Value          uint64
	TokenID        uint64
	Blinding       [32]byte
	OutputBlinding [32]byte
	Subaddress     uint64
}

func (TxRingInitEvent) Instruction() Instruction { return InsTxRingInit }

func (e *TxRingInitEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	realIdx, err := r.readByte()
	if err != nil {
		return err
	}
	value, err := r.readUint64()
	if err != nil {
		return err
	}
	token, err := r.readUint64()
	if err != nil {
		return err
	}
	blinding, err := r.read32()
	if err != nil {
		return err
	}
	outBlinding, err := r.read32()
	if err != nil {
		return err
	}
	sub, err := r.readUint64()
	if err != nil {
		return err
	}
	e.RealIndex, e.Value, e.TokenID = realIdx, value, token
	e.Blinding, e.OutputBlinding, e.Subaddress = blinding, outBlinding, sub
	return r.requireExhausted()
}

// TxSetBlindingEvent stores the real input's amount commitment.
type TxSetBlindingEvent struct {
	RealCommitment [32]byte
}

func (TxSetBlindingEvent) Instruction() Instruction { return InsTxSetBlinding }

func (e *TxSetBlindingEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	c, err := r.read32()
	if err != nil {
		return err
	}
	e.RealCommitment = c
	return r.requireExhausted()
}

// TxAddTxOutEvent appends one ring member at a fixed index.
type TxAddTxOutEvent struct {
	Index        byte
	TargetPublic [32]byte
	Commitment   [32]byte
}

func (TxAddTxOutEvent) Instruction() Instruction { return InsTxAddTxOut }

func (e *TxAddTxOutEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	idx, err := r.readByte()
	if err != nil {
		return err
	}
	target, err := r.read32()
	if err != nil {
		return err
	}
	commitment, err := r.read32()
	if err != nil {
		return err
	}
	e.Index, e.TargetPublic, e.Commitment = idx, target, commitment
	return r.requireExhausted()
}

// TxRingSignEvent triggers the deterministic signing pass.
type TxRingSignEvent struct {
	Seed [32]byte
}

func (TxRingSignEvent) Instruction() Instruction { return InsTxRingSign }

func (e *TxRingSignEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	seed, err := r.read32()
	if err != nil {
		return err
	}
	e.Seed = seed
	return r.requireExhausted()
}

// TxGetKeyImageEvent fetches the ring's key image.
type TxGetKeyImageEvent struct{}

func (TxGetKeyImageEvent) Instruction() Instruction { return InsTxGetKeyImage }

func (e *TxGetKeyImageEvent) decodeBody(_, _ byte, body []byte) error {
	if len(body) != 0 {
		return newMalformedError(0, "TxGetKeyImage takes no body")
	}
	return nil
}

// TxGetResponseEvent fetches one row's MLSAG response.
type TxGetResponseEvent struct {
	Index byte
}

func (TxGetResponseEvent) Instruction() Instruction { return InsTxGetResponse }

func (e *TxGetResponseEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	idx, err := r.readByte()
	if err != nil {
		return err
	}
	e.Index = idx
	return r.requireExhausted()
}

// TxMemoSignEvent requests a sender-memo HMAC signature.
type TxMemoSignEvent struct {
	TargetPublic      [32]byte
	SenderAddressHash [16]byte
	TxPublic          [32]byte
}

func (TxMemoSignEvent) Instruction() Instruction { return InsTxMemoSign }

func (e *TxMemoSignEvent) decodeBody(_, _ byte, body []byte) error {
	r := newBodyReader(body)
	target, err := r.read32()
	if err != nil {
		return err
	}
	hashBytes, err := r.readN(16)
	if err != nil {
		return err
	}
	txPub, err := r.read32()
	if err != nil {
		return err
	}
	e.TargetPublic = target
	copy(e.SenderAddressHash[:], hashBytes)
	e.TxPublic = txPub
	return r.requireExhausted()
}

// TxCompleteEvent releases the active ring session; once every ring the
// TxInit declared has completed, the whole tx session (including any
// summary) is reset.
type TxCompleteEvent struct{}

func (TxCompleteEvent) Instruction() Instruction { return InsTxComplete }

func (e *TxCompleteEvent) decodeBody(_, _ byte, body []byte) error {
	if len(body) != 0 {
		return newMalformedError(0, "TxComplete takes no body")
	}
	return nil
}

// ResetEvent zeroises every session unconditionally.
type ResetEvent struct{}

func (ResetEvent) Instruction() Instruction { return InsReset }

func (e *ResetEvent) decodeBody(_, _ byte, body []byte) error {
	if len(body) != 0 {
		return newMalformedError(0, "Reset takes no body")
	}
	return nil
}
