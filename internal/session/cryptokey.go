package session

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// CryptoKey is the per-session symmetric key derived after handshake,
// used to protect the framed wire channel for one connection (spec §6:
// the transport's own framing/auth is an external collaborator; this is
// the key material it negotiates down into, kept narrow on purpose).
type CryptoKey struct {
	secret []byte
}

// DeriveCryptoKey runs HKDF-SHA256 over a shared secret established by
// the connection handshake (e.g. a Diffie-Hellman exchange performed by
// the wire transport), salted with the session id so two sessions
// sharing a secret never derive the same key.
func DeriveCryptoKey(sharedSecret []byte, sessionID ID, size int) (*CryptoKey, error) {
	r := hkdf.New(sha256.New, sharedSecret, []byte(sessionID), []byte("sydney-session-key"))
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return &CryptoKey{secret: buf}, nil
}

// Bytes returns the derived key material.
func (k *CryptoKey) Bytes() []byte {
	return k.secret
}
