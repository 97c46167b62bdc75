package wallet

import (
	"github.com/tinychain-project/tinychain/pkg/crypto"
	"github.com/tinychain-project/tinychain/pkg/types"
)

// KeyPair is one owned keypair, the unit spec.md §4.10 calls "owned
// keypairs": the wallet signs with Private and watches UTXOs paying
// Public.
type KeyPair struct {
	Name    string
	Public  types.PublicKey
	Private [32]byte
}

// GenerateKeyPair creates a fresh, randomly-generated owned keypair named
// "key-0", independent of any HD seed — used by generate-config to hand a
// new user a working, if disposable, wallet.
func GenerateKeyPair() (KeyPair, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return KeyPair{}, err
	}
	var raw [32]byte
	copy(raw[:], priv.Serialize())
	return KeyPair{Name: "key-0", Public: priv.PublicKey(), Private: raw}, nil
}

// Contact is a named entry in the wallet's recipient address book
// (spec.md §6 Configuration).
type Contact struct {
	Name string
	Key  types.PublicKey
}
