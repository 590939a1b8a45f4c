// Package encval defines the boundary to the Encrypted Value Service: opaque
// encrypted values plus the primitive operations the decision engine is
// allowed to perform on them.
//
// The engine never sees plaintext. EncUint16 and EncBool are references into
// the service; the only way to act on them is through the combinators below,
// all of which return further opaque values. There is deliberately no
// decrypt operation on this interface.
package encval

import (
	"context"
	"encoding/hex"

	id "restgate/pkg/domain"
)

// HandleSize is the width of an opaque ciphertext handle in bytes.
const HandleSize = 32

// Handle is the fixed-width external reference to an encrypted value. It is
// safe to log, persist, and emit in events: it reveals nothing about the
// plaintext.
type Handle [HandleSize]byte

// ZeroHandle is the "no value" sentinel.
var ZeroHandle Handle

// IsZero reports whether the handle is the sentinel.
func (h Handle) IsZero() bool {
	return h == ZeroHandle
}

func (h Handle) String() string {
	return hex.EncodeToString(h[:])
}

// ParseHandle decodes a hex handle string.
func ParseHandle(s string) (Handle, bool) {
	raw, err := hex.DecodeString(s)
	if err != nil || len(raw) != HandleSize {
		return ZeroHandle, false
	}
	var h Handle
	copy(h[:], raw)
	return h, true
}

// External references a ciphertext produced outside this system (for
// example, by a wearable's enclave) prior to import.
type External Handle

func (e External) String() string {
	return Handle(e).String()
}

// ParseExternal decodes a hex external reference.
func ParseExternal(s string) (External, bool) {
	h, ok := ParseHandle(s)
	return External(h), ok
}

// EncUint16 is an opaque encrypted unsigned 16-bit integer. The struct holds
// only the service-side handle; the plaintext is unreachable from this
// package and from any engine code.
type EncUint16 struct {
	h Handle
}

// Uint16FromHandle wraps a service-issued handle. It mints no ciphertext;
// the handle must already exist inside the service.
func Uint16FromHandle(h Handle) EncUint16 {
	return EncUint16{h: h}
}

// Handle returns the opaque reference for external use.
func (v EncUint16) Handle() Handle {
	return v.h
}

// EncBool is an opaque encrypted boolean.
type EncBool struct {
	h Handle
}

// BoolFromHandle wraps a service-issued handle.
func BoolFromHandle(h Handle) EncBool {
	return EncBool{h: h}
}

// Handle returns the opaque reference for external use.
func (v EncBool) Handle() Handle {
	return v.h
}

// Service is the contract consumed from the Encrypted Value Service. The
// homomorphic primitives, attestation verification, and key management live
// behind it; the engine treats every call as synchronous and all-or-nothing.
type Service interface {
	// ImportUint16 admits an externally produced ciphertext, authenticated
	// by the attestation proof. Fails with a coded invalid_attestation
	// error when the proof does not verify.
	ImportUint16(ctx context.Context, ext External, proof []byte) (EncUint16, error)

	// EncodePlain lifts a plaintext threshold into the encrypted domain so
	// it can participate in comparisons. Trivially public: the input is
	// configuration, not subject data.
	EncodePlain(ctx context.Context, value uint16) (EncUint16, error)

	// CompareGreaterEqual computes a >= b as an encrypted boolean.
	CompareGreaterEqual(ctx context.Context, a, b EncUint16) (EncBool, error)

	// BooleanAnd computes a AND b.
	BooleanAnd(ctx context.Context, a, b EncBool) (EncBool, error)

	// BooleanOr computes a OR b.
	BooleanOr(ctx context.Context, a, b EncBool) (EncBool, error)

	// GrantAccess allows the identity to later decrypt the value.
	// Idempotent.
	GrantAccess(ctx context.Context, v EncBool, identity id.Identity) error

	// MakePubliclyReadable marks the value decryptable by anyone.
	// Idempotent and irreversible.
	MakePubliclyReadable(ctx context.Context, v EncBool) error
}
