package interfaces

// SignatureVerifier checks a signature over the canonical message bytes
// against the claimed sender address. Admission delegates all signature
// work through this capability.
type SignatureVerifier interface {
	Verify(message []byte, signature string, sender string) bool
}
