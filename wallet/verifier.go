package wallet

import (
	"crypto/ed25519"

	"pohchain/common"
)

// Ed25519Verifier checks transaction signatures against the sender address,
// which carries the base58-encoded public key.
type Ed25519Verifier struct{}

func NewEd25519Verifier() *Ed25519Verifier {
	return &Ed25519Verifier{}
}

func (Ed25519Verifier) Verify(message []byte, signature string, sender string) bool {
	pub, err := common.DecodeBase58ToBytes(sender)
	if err != nil || len(pub) != ed25519.PublicKeySize {
		return false
	}
	sig, err := common.DecodeBase58ToBytes(signature)
	if err != nil || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), message, sig)
}
