package classify

import (
	"encoding/json"
	"testing"

	"github.com/ordinalsplus/indexer-go/internal/core/domain"
)

func TestClassify_DIDDocument(t *testing.T) {
	meta := json.RawMessage(`{
		"id": "did:btco:1954913028215432",
		"verificationMethod": [{"id": "did:btco:1954913028215432#0"}]
	}`)
	c := Classify(meta)
	if c.Kind != DIDDocumentCandidate {
		t.Fatalf("Kind = %v, want DID document", c.Kind)
	}
	if !c.IsOrdinalsPlus() || c.OrdinalsType() != domain.TypeDIDDocument {
		t.Fatal("DID document should map to the did-document resource type")
	}
}

func TestClassify_DIDRequiresBothMarkers(t *testing.T) {
	// A did:btco id alone is not a DID document.
	if c := Classify(json.RawMessage(`{"id": "did:btco:123"}`)); c.Kind != Unclassified {
		t.Errorf("id without verificationMethod classified as %v", c.Kind)
	}
	// Nor is a verificationMethod under a foreign method.
	meta := json.RawMessage(`{"id": "did:web:example.com", "verificationMethod": []}`)
	if c := Classify(meta); c.Kind != Unclassified {
		t.Errorf("foreign DID method classified as %v", c.Kind)
	}
	// Signet and testnet ids share the prefix and still qualify.
	meta = json.RawMessage(`{"id": "did:btco:sig:123", "verificationMethod": []}`)
	if c := Classify(meta); c.Kind != DIDDocumentCandidate {
		t.Errorf("signet DID classified as %v", c.Kind)
	}
}

func TestClassify_VerifiableCredential(t *testing.T) {
	cases := []struct {
		name string
		meta string
	}{
		{"type string", `{"type": "VerifiableCredential"}`},
		{"type array", `{"type": ["VerifiableCredential", "BTCOCredential"]}`},
		{"credential subject only", `{"credentialSubject": {"id": "did:btco:42"}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Classify(json.RawMessage(tc.meta))
			if c.Kind != VerifiableCredentialCandidate {
				t.Fatalf("Kind = %v, want verifiable credential", c.Kind)
			}
			if c.OrdinalsType() != domain.TypeVerifiableCredential {
				t.Fatal("wrong resource type mapping")
			}
		})
	}
}

func TestClassify_DIDTakesPriorityOverVC(t *testing.T) {
	// A document matching both shapes is recorded as a DID document.
	meta := json.RawMessage(`{
		"id": "did:btco:555",
		"verificationMethod": [],
		"credentialSubject": {"id": "did:btco:555"}
	}`)
	if c := Classify(meta); c.Kind != DIDDocumentCandidate {
		t.Fatalf("Kind = %v, want DID document to win", c.Kind)
	}
}

func TestClassify_Unclassified(t *testing.T) {
	cases := []struct {
		name string
		meta json.RawMessage
	}{
		{"empty", nil},
		{"null", json.RawMessage(`null`)},
		{"not json", json.RawMessage(`{{{`)},
		{"array", json.RawMessage(`[1, 2, 3]`)},
		{"plain object", json.RawMessage(`{"name": "a cat picture"}`)},
		{"type mismatch", json.RawMessage(`{"type": ["ImageCredential"]}`)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if c := Classify(tc.meta); c.Kind != Unclassified {
				t.Errorf("Kind = %v, want unclassified", c.Kind)
			}
			if Classify(tc.meta).IsOrdinalsPlus() {
				t.Error("unclassified metadata must not be Ordinals Plus")
			}
		})
	}
}
