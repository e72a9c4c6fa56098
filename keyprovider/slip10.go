package keyprovider

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
)

// HardenedOffset marks a SLIP-10 path component as hardened, the only kind
// the Ed25519 curve variant of SLIP-10 permits.
const HardenedOffset = uint32(0x80000000)

// slip10Key is one node of a SLIP-10 Ed25519 derivation tree: a 32-byte key
// and its 32-byte chain code.
type slip10Key struct {
	key       [32]byte
	chainCode [32]byte
}

var slip10Seed = []byte("ed25519 seed")

// deriveSlip10Master derives the master key/chain-code pair from a root
// seed, per SLIP-0010 §"Master key generation".
func deriveSlip10Master(seed []byte) slip10Key {
	mac := hmac.New(sha512.New, slip10Seed)
	mac.Write(seed)
	sum := mac.Sum(nil)

	var out slip10Key
	copy(out.key[:], sum[:32])
	copy(out.chainCode[:], sum[32:])
	return out
}

// deriveSlip10Child derives a single hardened child of parent at the given
// index (already including the hardened offset). SLIP-10's Ed25519 variant
// only defines hardened derivation, so index must be >= HardenedOffset.
func deriveSlip10Child(parent slip10Key, index uint32) (slip10Key, error) {
	if index < HardenedOffset {
		return slip10Key{}, fmt.Errorf("keyprovider: slip-10 ed25519 requires a hardened index, got %d", index)
	}

	var data [1 + 32 + 4]byte
	data[0] = 0x00
	copy(data[1:33], parent.key[:])
	binary.BigEndian.PutUint32(data[33:], index)

	mac := hmac.New(sha512.New, parent.chainCode[:])
	mac.Write(data[:])
	sum := mac.Sum(nil)

	var out slip10Key
	copy(out.key[:], sum[:32])
	copy(out.chainCode[:], sum[32:])
	return out, nil
}

// deriveSlip10Path walks a full hardened derivation path from the root
// seed, returning the terminal node's 32-byte key.
func deriveSlip10Path(seed []byte, path []uint32) ([32]byte, error) {
	node := deriveSlip10Master(seed)
	for _, idx := range path {
		var err error
		node, err = deriveSlip10Child(node, idx)
		if err != nil {
			return [32]byte{}, err
		}
	}
	return node.key, nil
}
