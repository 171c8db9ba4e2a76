package canon

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix
// allows a future algorithm migration without colliding with old hashes.
const (
	DomainProgram = "strobe/program/v1"
	DomainFrame   = "strobe/frame/v1"
	DomainPatch   = "strobe/patch/v1"
)

// HashBytes computes SHA-256 with domain separation over raw canonical
// bytes. Format: SHA256(domain || 0x00 || data); the null separator
// prevents domain/data boundary ambiguity.
func HashBytes(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Hash canonically marshals v and hashes the result under domain.
func Hash(domain string, v any) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canon.Hash: %w", err)
	}
	return HashBytes(domain, data), nil
}
