package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix leaves room for algorithm migration.
const (
	DomainFilter = "wherekit/filter/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FilterHash computes the content address of a filter snapshot.
// The snapshot is serialized with MarshalCanonical first, so two snapshots
// that differ only in map ordering or Unicode normalization hash the same.
func FilterHash(snapshot map[string]any) (string, error) {
	canonical, err := MarshalCanonical(snapshot)
	if err != nil {
		return "", fmt.Errorf("FilterHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainFilter, canonical), nil
}
