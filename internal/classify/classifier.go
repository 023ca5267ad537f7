// Package classify decides whether an inscription's metadata is a DID
// document, a verifiable credential, or neither, and computes the canonical
// did:btco resource identifier.
package classify

import (
	"encoding/json"
	"strings"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
)

// Kind is the classification tag.
type Kind int

const (
	// Unclassified means the metadata resembles neither document type.
	Unclassified Kind = iota
	// DIDDocumentCandidate means the metadata looks like a DID document.
	DIDDocumentCandidate
	// VerifiableCredentialCandidate means the metadata looks like a VC.
	VerifiableCredentialCandidate
)

// Classification is the tagged result, produced once at ingestion and matched
// downstream instead of re-sniffing metadata shapes at every call site.
type Classification struct {
	Kind Kind
}

// IsOrdinalsPlus reports whether the inscription carries DID-linked data.
func (c Classification) IsOrdinalsPlus() bool {
	return c.Kind != Unclassified
}

// OrdinalsType maps the tag to the stored resource category. Only valid when
// IsOrdinalsPlus is true.
func (c Classification) OrdinalsType() domain.OrdinalsType {
	if c.Kind == DIDDocumentCandidate {
		return domain.TypeDIDDocument
	}
	return domain.TypeVerifiableCredential
}

const didMethodPrefix = "did:btco"

// Classify inspects a metadata document. The DID-document check takes
// priority over the credential check.
func Classify(metadata json.RawMessage) Classification {
	if len(metadata) == 0 {
		return Classification{Kind: Unclassified}
	}

	var doc map[string]any
	if err := json.Unmarshal(metadata, &doc); err != nil || doc == nil {
		return Classification{Kind: Unclassified}
	}

	if isDIDDocument(doc) {
		return Classification{Kind: DIDDocumentCandidate}
	}
	if isVerifiableCredential(doc) {
		return Classification{Kind: VerifiableCredentialCandidate}
	}
	return Classification{Kind: Unclassified}
}

// isDIDDocument requires a did:btco id plus a verificationMethod.
func isDIDDocument(doc map[string]any) bool {
	id, ok := doc["id"].(string)
	if !ok || !strings.HasPrefix(id, didMethodPrefix) {
		return false
	}
	_, ok = doc["verificationMethod"]
	return ok
}

// isVerifiableCredential accepts either a VerifiableCredential type entry or
// the presence of a credentialSubject.
func isVerifiableCredential(doc map[string]any) bool {
	switch t := doc["type"].(type) {
	case string:
		if t == "VerifiableCredential" {
			return true
		}
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok && s == "VerifiableCredential" {
				return true
			}
		}
	}
	_, ok := doc["credentialSubject"]
	return ok
}
