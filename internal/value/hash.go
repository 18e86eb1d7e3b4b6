package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content fingerprints. The version suffix leaves room
// for an algorithm change.
const (
	DomainSnapshot   = "ripple/snapshot/v1"
	DomainDefinition = "ripple/definition/v1"
)

// HashWithDomain computes SHA256(domain + 0x00 + data) as hex.
// The null separator keeps domain and data from running together.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the content hash of a snapshot. Snapshots with the
// same JSON content (including Map/Set order) share a fingerprint; an
// integral Float and the matching Int hash alike.
func Fingerprint(v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return HashWithDomain(DomainSnapshot, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when the snapshot is known to be finite.
func MustFingerprint(v Value) string {
	fp, err := Fingerprint(v)
	if err != nil {
		panic(err)
	}
	return fp
}
