package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content digests. The version suffix leaves room for a
// future algorithm change.
const (
	DomainDocument = "schemastore/document/v1"
	DomainResult   = "schemastore/result/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// DocumentDigest returns the content digest of a parsed document. Two
// documents that differ only in key order or whitespace share a digest.
func DocumentDigest(doc any) (string, error) {
	canonical, err := MarshalCanonical(doc)
	if err != nil {
		return "", fmt.Errorf("DocumentDigest: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

// ResultDigest returns the content digest of a builder result.
func ResultDigest(result any) (string, error) {
	canonical, err := MarshalCanonical(result)
	if err != nil {
		return "", fmt.Errorf("ResultDigest: %w", err)
	}
	return hashWithDomain(DomainResult, canonical), nil
}
