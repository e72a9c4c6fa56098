// Package primitives wraps the group arithmetic and key-derivation
// functions shared by every engine component: Ristretto scalar/point
// operations (via gtank/ristretto255, the Ristretto implementation already
// in use elsewhere in the surrounding ecosystem), HKDF, Blake2b, AES-CTR,
// and the deterministic ChaCha20-backed RNG used for no-grinding ring
// signing. Nothing in this package touches a session; it is pure math.
package primitives

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"github.com/gtank/ristretto255"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
	"golang.org/x/crypto/hkdf"
)

// Scalar is a Ristretto scalar, i.e. an integer mod the group order L.
type Scalar = ristretto255.Scalar

// Point is a Ristretto group element.
type Point = ristretto255.Element

// NewScalar returns the additive identity scalar (zero).
func NewScalar() *Scalar { return ristretto255.NewScalar() }

// NewPoint returns the group identity element.
func NewPoint() *Point { return ristretto255.NewElement() }

// BasePoint returns the Ristretto base point G.
func BasePoint() *Point {
	one := ristretto255.NewScalar()
	var oneBytes [32]byte
	oneBytes[0] = 1
	one.Decode(oneBytes[:])
	return ristretto255.NewElement().ScalarBaseMult(one)
}

// DecodeScalar decodes a 32-byte little-endian canonical scalar encoding.
func DecodeScalar(b []byte) (*Scalar, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("primitives: scalar must be 32 bytes, got %d", len(b))
	}
	s := ristretto255.NewScalar()
	if err := s.Decode(b); err != nil {
		return nil, fmt.Errorf("primitives: malformed scalar: %w", err)
	}
	return s, nil
}

// DecodePoint decodes a 32-byte compressed Ristretto point encoding.
func DecodePoint(b []byte) (*Point, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("primitives: point must be 32 bytes, got %d", len(b))
	}
	p := ristretto255.NewElement()
	if err := p.Decode(b); err != nil {
		return nil, fmt.Errorf("primitives: malformed point: %w", err)
	}
	return p, nil
}

// EncodeScalar returns the canonical 32-byte little-endian encoding of s.
func EncodeScalar(s *Scalar) [32]byte {
	var out [32]byte
	copy(out[:], s.Encode(nil))
	return out
}

// EncodePoint returns the canonical 32-byte compressed encoding of p.
func EncodePoint(p *Point) [32]byte {
	var out [32]byte
	copy(out[:], p.Encode(nil))
	return out
}

// HashToScalar derives a scalar deterministically from an arbitrary-length
// message by wide-reducing a 64-byte Blake2b-512 digest modulo the group
// order, the same "hash then reduce" pattern used for MLSAG challenges.
func HashToScalar(parts ...[]byte) *Scalar {
	h, _ := blake2b.New512(nil)
	for _, p := range parts {
		h.Write(p)
	}
	var wide [64]byte
	copy(wide[:], h.Sum(nil))
	s := ristretto255.NewScalar()
	s.FromUniformBytes(wide[:])
	return s
}

// HashToPoint derives a group element deterministically from a target
// public key, used as the "H(onetime_public)" generator in the key-image
// and MLSAG computations. Domain-separated so it can never collide with
// HashToScalar or with the value/token-id commitment generator below.
func HashToPoint(domain string, parts ...[]byte) *Point {
	h, _ := blake2b.New512([]byte(domain))
	for _, p := range parts {
		h.Write(p)
	}
	var wide [64]byte
	copy(wide[:], h.Sum(nil))
	pt := ristretto255.NewElement()
	pt.FromUniformBytes(wide[:])
	return pt
}

// CommitmentGenerator returns the per-token-id value generator H(token_id)
// used to build Pedersen amount commitments v*H(token_id) + b*G.
func CommitmentGenerator(tokenID uint64) *Point {
	var tb [8]byte
	binary.LittleEndian.PutUint64(tb[:], tokenID)
	return HashToPoint("mc-amount-generator", tb[:])
}

// PedersenCommit computes v*H(token_id) + blinding*G.
func PedersenCommit(value uint64, tokenID uint64, blinding *Scalar) *Point {
	var vb [32]byte
	binary.LittleEndian.PutUint64(vb[:8], value)
	v := ristretto255.NewScalar()
	v.Decode(vb[:])

	h := CommitmentGenerator(tokenID)
	term1 := ristretto255.NewElement().ScalarMult(v, h)
	term2 := ristretto255.NewElement().ScalarBaseMult(blinding)
	return ristretto255.NewElement().Add(term1, term2)
}

// Blake2bSum256 is the canonical 32-byte hash used throughout the core for
// the summary digest and related domain hashing.
func Blake2bSum256(data ...[]byte) [32]byte {
	h, _ := blake2b.New256(nil)
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// KeyedBlake2b256 computes a keyed Blake2b-256 MAC, used for the
// sender-memo HMAC-style signature in §4.7. Blake2b's native keying
// support makes a separate HMAC construction unnecessary.
func KeyedBlake2b256(key []byte, data ...[]byte) ([32]byte, error) {
	h, err := blake2b.New256(key)
	if err != nil {
		return [32]byte{}, fmt.Errorf("primitives: keyed blake2b: %w", err)
	}
	for _, d := range data {
		h.Write(d)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out, nil
}

// HKDFExpand derives keyLen bytes from secret/salt/info using HKDF over
// Blake2b-256,
// mirroring the teacher's own elkrem-root derivation idiom
// (HKDF(secret, salt, info)) for all of the core's non-group key schedules.
func HKDFExpand(secret, salt, info []byte, keyLen int) ([]byte, error) {
	newHash := func() hash.Hash {
		h, _ := blake2b.New256(nil)
		return h
	}
	r := hkdf.New(newHash, secret, salt, info)
	out := make([]byte, keyLen)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("primitives: hkdf expand: %w", err)
	}
	return out, nil
}

// NewAESCTR returns an AES-CTR stream keyed by key (16, 24, or 32 bytes)
// with the given 16-byte IV. No engine package calls it; the summary
// engine's display strings are not encrypted.
func NewAESCTR(key, iv []byte) (cipher.Stream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("primitives: aes key: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return nil, fmt.Errorf("primitives: iv must be %d bytes", aes.BlockSize)
	}
	return cipher.NewCTR(block, iv), nil
}

// DeterministicRNG is a ChaCha20-backed reader seeded once at the start of
// MLSAG signing so that re-running the same transaction with the same seed
// produces byte-identical signatures (no-grinding discipline).
type DeterministicRNG struct {
	stream cipher.Stream
}

// NewDeterministicRNG derives a ChaCha20 keystream from seed folded with
// the message digest, so reusing one seed for two different transactions
// yields two unrelated keystreams.
func NewDeterministicRNG(seed [32]byte, message [32]byte) (*DeterministicRNG, error) {
	key := Blake2bSum256(seed[:], message[:], []byte("mc-ring-rng"))
	var nonce [chacha20.NonceSize]byte
	copy(nonce[:], message[:chacha20.NonceSize])

	c, err := chacha20.NewUnauthenticatedCipher(key[:], nonce[:])
	if err != nil {
		return nil, fmt.Errorf("primitives: rng init: %w", err)
	}
	return &DeterministicRNG{stream: c}, nil
}

// NextScalar draws the next deterministic scalar (an "alpha" or "r_j" value
// in the MLSAG algorithm) from the RNG stream.
func (r *DeterministicRNG) NextScalar() *Scalar {
	var zero [64]byte
	var wide [64]byte
	r.stream.XORKeyStream(wide[:], zero[:])
	s := ristretto255.NewScalar()
	s.FromUniformBytes(wide[:])
	return s
}
