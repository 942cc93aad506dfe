package crypto

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// LoadPrivateKeyFromHex loads a secp256k1 private key from a hex string,
// with or without the 0x prefix.
func LoadPrivateKeyFromHex(hexKey string) (*ecdsa.PrivateKey, error) {
	hexKey = strings.TrimPrefix(strings.TrimSpace(hexKey), "0x")
	if hexKey == "" {
		return nil, fmt.Errorf("empty private key")
	}

	privateKey, err := ethcrypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %v", err)
	}
	return privateKey, nil
}

// AddressOf derives the account address for a private key.
func AddressOf(privateKey *ecdsa.PrivateKey) common.Address {
	return ethcrypto.PubkeyToAddress(privateKey.PublicKey)
}
