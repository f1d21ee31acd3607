package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"pohchain/common"
	"pohchain/types"
)

// AddressLength is the length of the short display address derived from
// the public key digest.
const AddressLength = 16

// Wallet holds an ed25519 keypair and the derived addresses. Key storage,
// PIN handling and hardware binding live outside this module.
type Wallet struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	PublicKey []byte    `json:"public_key"`
	CreatedAt time.Time `json:"created_at"`

	privKey ed25519.PrivateKey
}

// NewWallet generates a fresh keypair and derives the wallet addresses.
func NewWallet() (*Wallet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}

	return &Wallet{
		ID:        uuid.NewString(),
		Address:   DeriveAddress(pub),
		PublicKey: pub,
		CreatedAt: time.Now(),
		privKey:   priv,
	}, nil
}

// FromPrivateKey rebuilds a wallet around an existing key.
func FromPrivateKey(priv ed25519.PrivateKey) *Wallet {
	pub := priv.Public().(ed25519.PublicKey)
	return &Wallet{
		ID:        uuid.NewString(),
		Address:   DeriveAddress(pub),
		PublicKey: pub,
		CreatedAt: time.Now(),
		privKey:   priv,
	}
}

// DeriveAddress returns the short base58 address: the first 16 characters
// of the base58-encoded sha256 digest of the public key.
func DeriveAddress(pub ed25519.PublicKey) string {
	digest := sha256.Sum256(pub)
	encoded := common.EncodeBytesToBase58(digest[:])
	if len(encoded) < AddressLength {
		return encoded
	}
	return encoded[:AddressLength]
}

// SenderAddress is the full base58 public key. Transactions carry it as
// the sender so verifiers can recover the key from the claim itself.
func (w *Wallet) SenderAddress() string {
	return common.EncodeBytesToBase58(w.PublicKey)
}

// NewTransaction builds and signs a transfer from this wallet.
func (w *Wallet) NewTransaction(recipient string, amount *uint256.Int) *types.Transaction {
	tx := &types.Transaction{
		ID:        uuid.NewString(),
		Sender:    w.SenderAddress(),
		Recipient: recipient,
		Amount:    amount,
		Timestamp: uint64(time.Now().UnixNano()),
	}
	w.Sign(tx)
	return tx
}

// Sign signs the canonical transaction bytes and attaches the signature.
func (w *Wallet) Sign(tx *types.Transaction) {
	sig := ed25519.Sign(w.privKey, tx.Serialize())
	tx.Signature = common.EncodeBytesToBase58(sig)
}
