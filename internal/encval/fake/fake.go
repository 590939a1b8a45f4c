// Package fake implements the Encrypted Value Service boundary in process.
// It backs unit tests and the dev mode of cmd/server. Plaintexts live in a
// private registry keyed by handle; the engine still only ever sees handles,
// and decryption is exposed solely through test inspection methods that
// enforce the recorded access state.
package fake

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/blake2b"

	"restgate/internal/encval"
	id "restgate/pkg/domain"
	dErrors "restgate/pkg/domain-errors"
)

type externalEntry struct {
	value uint16
	proof []byte
}

// Service is an in-process encval.Service. Safe for concurrent use.
type Service struct {
	mu       sync.Mutex
	nonce    [16]byte
	counter  uint64
	uints    map[encval.Handle]uint16
	bools    map[encval.Handle]bool
	external map[encval.External]externalEntry
	access   map[encval.Handle]map[id.Identity]struct{}
	public   map[encval.Handle]struct{}
}

var _ encval.Service = (*Service)(nil)

func New() *Service {
	s := &Service{
		uints:    make(map[encval.Handle]uint16),
		bools:    make(map[encval.Handle]bool),
		external: make(map[encval.External]externalEntry),
		access:   make(map[encval.Handle]map[id.Identity]struct{}),
		public:   make(map[encval.Handle]struct{}),
	}
	if _, err := rand.Read(s.nonce[:]); err != nil {
		panic(err)
	}
	return s
}

// mint derives a fresh handle. Handles are blake2b digests over an instance
// nonce, a domain tag, a monotonic counter, and the operand handles, so they
// are unique across service instances and carry no plaintext.
func (s *Service) mint(tag string, parts ...encval.Handle) encval.Handle {
	s.counter++
	digest, _ := blake2b.New256(nil)
	digest.Write(s.nonce[:])
	digest.Write([]byte(tag))
	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], s.counter)
	digest.Write(counter[:])
	for _, part := range parts {
		digest.Write(part[:])
	}
	var h encval.Handle
	copy(h[:], digest.Sum(nil))
	return h
}

// Encrypt registers a plaintext reading as an external ciphertext bound to
// the given attestation proof. This stands in for the wearable enclave that
// produces ciphertexts outside the system.
func (s *Service) Encrypt(value uint16, proof []byte) encval.External {
	s.mu.Lock()
	defer s.mu.Unlock()
	ext := encval.External(s.mint("external"))
	s.external[ext] = externalEntry{value: value, proof: bytes.Clone(proof)}
	return ext
}

func (s *Service) ImportUint16(_ context.Context, ext encval.External, proof []byte) (encval.EncUint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.external[ext]
	if !ok || !bytes.Equal(entry.proof, proof) {
		return encval.EncUint16{}, dErrors.New(dErrors.CodeInvalidAttestation, "attestation proof failed verification")
	}
	h := s.mint("import", encval.Handle(ext))
	s.uints[h] = entry.value
	return encval.Uint16FromHandle(h), nil
}

func (s *Service) EncodePlain(_ context.Context, value uint16) (encval.EncUint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.mint("plain")
	s.uints[h] = value
	return encval.Uint16FromHandle(h), nil
}

func (s *Service) CompareGreaterEqual(_ context.Context, a, b encval.EncUint16) (encval.EncBool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	av, aok := s.uints[a.Handle()]
	bv, bok := s.uints[b.Handle()]
	if !aok || !bok {
		return encval.EncBool{}, dErrors.New(dErrors.CodeInternal, "unknown ciphertext handle")
	}
	h := s.mint("ge", a.Handle(), b.Handle())
	s.bools[h] = av >= bv
	return encval.BoolFromHandle(h), nil
}

func (s *Service) BooleanAnd(_ context.Context, a, b encval.EncBool) (encval.EncBool, error) {
	return s.combine("and", a, b, func(x, y bool) bool { return x && y })
}

func (s *Service) BooleanOr(_ context.Context, a, b encval.EncBool) (encval.EncBool, error) {
	return s.combine("or", a, b, func(x, y bool) bool { return x || y })
}

func (s *Service) combine(tag string, a, b encval.EncBool, op func(bool, bool) bool) (encval.EncBool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	av, aok := s.bools[a.Handle()]
	bv, bok := s.bools[b.Handle()]
	if !aok || !bok {
		return encval.EncBool{}, dErrors.New(dErrors.CodeInternal, "unknown ciphertext handle")
	}
	h := s.mint(tag, a.Handle(), b.Handle())
	s.bools[h] = op(av, bv)
	return encval.BoolFromHandle(h), nil
}

func (s *Service) GrantAccess(_ context.Context, v encval.EncBool, identity id.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bools[v.Handle()]; !ok {
		return dErrors.New(dErrors.CodeInternal, "unknown ciphertext handle")
	}
	grants, ok := s.access[v.Handle()]
	if !ok {
		grants = make(map[id.Identity]struct{})
		s.access[v.Handle()] = grants
	}
	grants[identity] = struct{}{}
	return nil
}

func (s *Service) MakePubliclyReadable(_ context.Context, v encval.EncBool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bools[v.Handle()]; !ok {
		return dErrors.New(dErrors.CodeInternal, "unknown ciphertext handle")
	}
	s.public[v.Handle()] = struct{}{}
	return nil
}

// DecryptBool reveals an encrypted boolean to a caller the service has
// granted access. Tests use this to verify outcomes; nothing in the engine
// reaches it.
func (s *Service) DecryptBool(h encval.Handle, caller id.Identity) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.bools[h]
	if !ok {
		return false, dErrors.New(dErrors.CodeNotFound, "unknown ciphertext handle")
	}
	if _, public := s.public[h]; public {
		return value, nil
	}
	if _, granted := s.access[h][caller]; granted {
		return value, nil
	}
	return false, dErrors.New(dErrors.CodeUnauthorized, "caller has no access to this value")
}

// HasAccess reports whether the identity holds an explicit grant on h.
func (s *Service) HasAccess(h encval.Handle, identity id.Identity) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, granted := s.access[h][identity]
	return granted
}

// IsPubliclyReadable reports whether h has been made public.
func (s *Service) IsPubliclyReadable(h encval.Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, public := s.public[h]
	return public
}

// GrantCount returns the number of distinct identities granted on h. Used to
// assert grant idempotence.
func (s *Service) GrantCount(h encval.Handle) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.access[h])
}
