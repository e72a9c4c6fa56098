package framing

import (
	"bytes"
	"encoding/binary"
	"io"
)

// Output is an encodable response. Every Output carries its own status;
// framing never infers one.
type Output interface {
	Status() Status
	encodeBody(w *bodyWriter)
}

// WriteResponse encodes one response record:
//
//	| body[...] | status:u16 (big-endian) |
//
// Body length is bounded by MaxResponseChunk; a larger body (for example
// an OutputAppInfo whose name is close to 255 bytes) makes WriteResponse
// return a ParseError and write nothing. It is not split across records.
func WriteResponse(w io.Writer, out Output) error {
	bw := &bodyWriter{}
	out.encodeBody(bw)
	if bw.err != nil {
		return bw.err
	}
	if bw.buf.Len() > MaxResponseChunk {
		return newMalformedError(bw.buf.Len(), "response body exceeds max chunk size")
	}

	if _, err := w.Write(bw.buf.Bytes()); err != nil {
		return err
	}
	var statusBytes [2]byte
	binary.BigEndian.PutUint16(statusBytes[:], uint16(out.Status()))
	_, err := w.Write(statusBytes[:])
	return err
}

// EncodeResponse is the allocation-bounded convenience form of
// WriteResponse for callers (like the mobile façade) that need the
// whole record as a single slice.
func EncodeResponse(out Output) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteResponse(&buf, out); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// bodyWriter accumulates an Output's body fields, keeping the first
// encode error instead of panicking mid-record.
type bodyWriter struct {
	buf bytes.Buffer
	err error
}

func (w *bodyWriter) writeByte(b byte) {
	if w.err != nil {
		return
	}
	w.err = w.buf.WriteByte(b)
}

func (w *bodyWriter) writeBytes(b []byte) {
	if w.err != nil {
		return
	}
	_, w.err = w.buf.Write(b)
}

func (w *bodyWriter) writeUint32(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.writeBytes(b[:])
}

func (w *bodyWriter) writeUint64(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.writeBytes(b[:])
}

func (w *bodyWriter) writeInt64(v int64) {
	w.writeUint64(uint64(v))
}

func (w *bodyWriter) write32(b [32]byte) {
	w.writeBytes(b[:])
}

func (w *bodyWriter) writeString(s string) {
	if len(s) > 255 {
		if w.err == nil {
			w.err = newMalformedError(w.buf.Len(), "string field exceeds 255 bytes")
		}
		return
	}
	w.writeByte(byte(len(s)))
	w.writeBytes([]byte(s))
}
