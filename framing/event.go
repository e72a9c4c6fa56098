package framing

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Event is a decoded request record. Concrete events carry only plain
// data; no event ever performs cryptography.
type Event interface {
	Instruction() Instruction
	decodeBody(p1, p2 byte, body []byte) error
}

// ApprovalEvent is never read off the wire — it's the internal
// "ApprovalEvent" §4.1 speaks of, injected by the UI surface through the
// same dispatcher as every other event, modeled as a one-way channel with
// no back-reference into the engine.
type ApprovalEvent struct {
	Approved bool
}

func (ApprovalEvent) Instruction() Instruction       { return 0xFF }
func (ApprovalEvent) decodeBody(byte, byte, []byte) error { return nil }

// ReadRequest parses one fixed APDU-style record:
//
//	| instruction:u8 | p1:u8 | p2:u8 | length:u8 | body[length] |
//
// and dispatches it to the matching Event's body decoder. An unknown
// instruction tag yields ParseError wrapping UnknownInstruction; a
// truncated header or body yields ParseError at the offset of the first
// missing byte.
func ReadRequest(r io.Reader) (Event, error) {
	var header [4]byte
	n, err := io.ReadFull(r, header[:])
	if err != nil {
		return nil, newTruncatedError(n, "truncated request header")
	}

	ins := Instruction(header[0])
	p1, p2, length := header[1], header[2], header[3]

	body := make([]byte, length)
	if length > 0 {
		if m, err := io.ReadFull(r, body); err != nil {
			return nil, newTruncatedError(4+m, "truncated request body")
		}
	}

	evt, err := newEmptyEvent(ins)
	if err != nil {
		return nil, err
	}
	if err := evt.decodeBody(p1, p2, body); err != nil {
		return nil, err
	}
	return evt, nil
}

// newEmptyEvent allocates the zero-valued Event matching ins, the
// framing-level analogue of the teacher's makeEmptyMessage switch.
func newEmptyEvent(ins Instruction) (Event, error) {
	switch ins {
	case InsAppInfo:
		return &AppInfoEvent{}, nil
	case InsWalletKeys:
		return &WalletKeysEvent{}, nil
	case InsSubaddressKeys:
		return &SubaddressKeysEvent{}, nil
	case InsKeyImage:
		return &KeyImageEvent{}, nil
	case InsRandom:
		return &RandomEvent{}, nil
	case InsIdentSign:
		return &IdentSignEvent{}, nil
	case InsTxInit:
		return &TxInitEvent{}, nil
	case InsTxSetMessage:
		return &TxSetMessageEvent{}, nil
	case InsTxSummaryInit:
		return &TxSummaryInitEvent{}, nil
	case InsTxSummaryAddTxOut:
		return &TxSummaryAddTxOutEvent{}, nil
	case InsTxSummaryAddTxOutUnblinding:
		return &TxSummaryAddTxOutUnblindingEvent{}, nil
	case InsTxSummaryAddTxIn:
		return &TxSummaryAddTxInEvent{}, nil
	case InsTxSummaryBuild:
		return &TxSummaryBuildEvent{}, nil
	case InsTxRingInit:
		return &TxRingInitEvent{}, nil
	case InsTxSetBlinding:
		return &TxSetBlindingEvent{}, nil
	case InsTxAddTxOut:
		return &TxAddTxOutEvent{}, nil
	case InsTxRingSign:
		return &TxRingSignEvent{}, nil
	case InsTxGetKeyImage:
		return &TxGetKeyImageEvent{}, nil
	case InsTxGetResponse:
		return &TxGetResponseEvent{}, nil
	case InsTxMemoSign:
		return &TxMemoSignEvent{}, nil
	case InsTxComplete:
		return &TxCompleteEvent{}, nil
	case InsReset:
		return &ResetEvent{}, nil
	default:
		return nil, newUnknownInstructionError(ins)
	}
}

// bodyReader is a small helper so each Event's decodeBody can read fields
// sequentially and report the offset of the first short read.
type bodyReader struct {
	buf *bytes.Reader
}

func newBodyReader(body []byte) *bodyReader {
	return &bodyReader{buf: bytes.NewReader(body)}
}

func (b *bodyReader) readByte() (byte, error) {
	v, err := b.buf.ReadByte()
	if err != nil {
		return 0, newTruncatedError(b.offset(), "truncated field")
	}
	return v, nil
}

func (b *bodyReader) readN(n int) ([]byte, error) {
	out := make([]byte, n)
	if _, err := io.ReadFull(b.buf, out); err != nil {
		return nil, newTruncatedError(b.offset(), "truncated field")
	}
	return out, nil
}

func (b *bodyReader) readUint32() (uint32, error) {
	raw, err := b.readN(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(raw), nil
}

func (b *bodyReader) readUint64() (uint64, error) {
	raw, err := b.readN(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(raw), nil
}

func (b *bodyReader) read32() ([32]byte, error) {
	var out [32]byte
	raw, err := b.readN(32)
	if err != nil {
		return out, err
	}
	copy(out[:], raw)
	return out, nil
}

func (b *bodyReader) offset() int {
	return int(b.buf.Size()) - b.buf.Len()
}

func (b *bodyReader) requireExhausted() error {
	if b.buf.Len() != 0 {
		return newMalformedError(b.offset(), "trailing bytes in request body")
	}
	return nil
}
