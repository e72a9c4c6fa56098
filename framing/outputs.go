package framing

// Concrete Output types. Most operations ack with an empty body; the
// ones that return data are spelled out individually so each field stays
// self-documenting at the call site.

// OutputError is the generic failure response: an empty body plus the
// status the dispatcher mapped the internal error kind to.
type OutputError struct {
	status Status
}

func NewOutputError(status Status) OutputError { return OutputError{status: status} }

func (o OutputError) Status() Status             { return o.status }
func (o OutputError) encodeBody(w *bodyWriter)   {}

// OutputAck is the empty-body success response shared by every
// operation that only mutates session state (TxInit, TxSetMessage,
// TxSummaryInit, TxSummaryAddTxOut, TxSummaryAddTxOutUnblinding,
// TxSummaryAddTxIn, TxRingInit, TxSetBlinding, TxAddTxOut, TxRingSign,
// TxComplete, Reset).
type OutputAck struct{}

func (OutputAck) Status() Status           { return StatusSuccess }
func (OutputAck) encodeBody(w *bodyWriter) {}

// OutputPending signals that the request was accepted but requires an
// out-of-band ApprovalEvent before it completes. The UI surface is
// expected to poll session state rather than parse this body.
type OutputPending struct{}

func (OutputPending) Status() Status           { return StatusSuccess }
func (OutputPending) encodeBody(w *bodyWriter) {}

// OutputRejected reports a user-declined approval.
type OutputRejected struct{}

func (OutputRejected) Status() Status           { return StatusUserRejected }
func (OutputRejected) encodeBody(w *bodyWriter) {}

// OutputAppInfo answers AppInfo.
type OutputAppInfo struct {
	ProtocolVersion byte
	Name            string
}

func (OutputAppInfo) Status() Status { return StatusSuccess }

func (o OutputAppInfo) encodeBody(w *bodyWriter) {
	w.writeByte(o.ProtocolVersion)
	w.writeString(o.Name)
}

// OutputWalletKeys answers WalletKeys with the account's view/spend
// public keys.
type OutputWalletKeys struct {
	ViewPublic  [32]byte
	SpendPublic [32]byte
}

func (OutputWalletKeys) Status() Status { return StatusSuccess }

func (o OutputWalletKeys) encodeBody(w *bodyWriter) {
	w.write32(o.ViewPublic)
	w.write32(o.SpendPublic)
}

// OutputSubaddressKeys answers SubaddressKeys.
type OutputSubaddressKeys struct {
	ViewPublic  [32]byte
	SpendPublic [32]byte
}

func (OutputSubaddressKeys) Status() Status { return StatusSuccess }

func (o OutputSubaddressKeys) encodeBody(w *bodyWriter) {
	w.write32(o.ViewPublic)
	w.write32(o.SpendPublic)
}

// OutputKeyImage answers KeyImage and TxGetKeyImage.
type OutputKeyImage struct {
	KeyImage [32]byte
}

func (OutputKeyImage) Status() Status { return StatusSuccess }

func (o OutputKeyImage) encodeBody(w *bodyWriter) {
	w.write32(o.KeyImage)
}

// OutputRandom answers Random with N bytes of device entropy.
type OutputRandom struct {
	Bytes []byte
}

func (OutputRandom) Status() Status { return StatusSuccess }

func (o OutputRandom) encodeBody(w *bodyWriter) {
	w.writeBytes(o.Bytes)
}

// OutputIdentSignature answers an approved IdentSign.
type OutputIdentSignature struct {
	PublicKey [32]byte
	Signature [64]byte
}

func (OutputIdentSignature) Status() Status { return StatusSuccess }

func (o OutputIdentSignature) encodeBody(w *bodyWriter) {
	w.write32(o.PublicKey)
	w.writeBytes(o.Signature[:])
}

// OutputTxResponse answers TxGetResponse for one ring row.
type OutputTxResponse struct {
	CZero              [32]byte
	ResponseTarget     [32]byte
	ResponseCommitment [32]byte
}

func (OutputTxResponse) Status() Status { return StatusSuccess }

func (o OutputTxResponse) encodeBody(w *bodyWriter) {
	w.write32(o.CZero)
	w.write32(o.ResponseTarget)
	w.write32(o.ResponseCommitment)
}

// TokenBalance is one token's net balance in a summary display, per
// §4.6's display derivation.
type TokenBalance struct {
	TokenID    uint64
	Outflow    uint64
	ChangeBack uint64
	Net        int64
}

// OutputSummaryReady answers TxSummaryBuild with the values the UI must
// show the user before approval: per-token balances, fee, tombstone
// block, and recognised recipient labels (unrecognised fog targets are
// carried as "unknown" by the caller, not by this encoding).
type OutputSummaryReady struct {
	Fee        uint64
	Tombstone  uint64
	Balances   []TokenBalance
	Recipients []string
}

func (OutputSummaryReady) Status() Status { return StatusSuccess }

func (o OutputSummaryReady) encodeBody(w *bodyWriter) {
	w.writeUint64(o.Fee)
	w.writeUint64(o.Tombstone)

	w.writeByte(byte(len(o.Balances)))
	for _, b := range o.Balances {
		w.writeUint64(b.TokenID)
		w.writeUint64(b.Outflow)
		w.writeUint64(b.ChangeBack)
		w.writeInt64(b.Net)
	}

	w.writeByte(byte(len(o.Recipients)))
	for _, r := range o.Recipients {
		w.writeString(r)
	}
}

// OutputMemoSignature answers TxMemoSign.
type OutputMemoSignature struct {
	Signature [32]byte
}

func (OutputMemoSignature) Status() Status { return StatusSuccess }

func (o OutputMemoSignature) encodeBody(w *bodyWriter) {
	w.write32(o.Signature)
}
