package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// KeystoreDeriver decrypts Web3 Secret Storage keystores.
type KeystoreDeriver struct{}

// PrivateKeyFromKeystore returns the hex-encoded key without 0x prefix.
func (KeystoreDeriver) PrivateKeyFromKeystore(material []byte, password string) (string, error) {
	key, err := keystore.DecryptKey(material, password)
	if err != nil {
		return "", fmt.Errorf("decrypt keystore: %w", err)
	}
	return common.Bytes2Hex(crypto.FromECDSA(key.PrivateKey)), nil
}

// AddressFromPrivateKey returns the checksummed address for a hex key.
func (KeystoreDeriver) AddressFromPrivateKey(key string) (string, error) {
	parsed, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(key), "0x"))
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}
	return crypto.PubkeyToAddress(parsed.PublicKey).Hex(), nil
}
