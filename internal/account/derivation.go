// Package account derives StarkNet signing material from an Ethereum
// wallet, matching the exchange's onboarding flow: the L1 key signs a
// fixed EIP-712 message and the signature's r component seeds the stark
// key through key grinding.
package account

import (
	"crypto/sha256"
	"math/big"
	"strings"

	"github.com/dontpanicdao/caigo"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"

	"github.com/GoParadex/paragate/internal/pkg/apperrors"
)

const starkKeyAction = "STARK Key"

// Derived bundles everything the onboarding flow needs from the L1 key.
type Derived struct {
	StarkPrivateKey *big.Int
	EthereumAddress string
}

// DeriveStarkKey deterministically derives the stark private key from an
// Ethereum private key. The same (key, chainID) pair always yields the
// same stark key, so derived accounts are recoverable from the wallet
// alone.
func DeriveStarkKey(ethPrivateKeyHex string, l1ChainID int64) (*Derived, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(ethPrivateKeyHex, "0x"))
	if err != nil {
		return nil, apperrors.NewCrypto("invalid ethereum private key", err)
	}

	td := apitypes.TypedData{
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
				{Name: "chainId", Type: "uint256"},
			},
			"Constant": {
				{Name: "action", Type: "string"},
			},
		},
		PrimaryType: "Constant",
		Domain: apitypes.TypedDataDomain{
			Name:    "Paradex",
			Version: "1",
			ChainId: math.NewHexOrDecimal256(l1ChainID),
		},
		Message: apitypes.TypedDataMessage{"action": starkKeyAction},
	}

	hash, _, err := apitypes.TypedDataAndHash(td)
	if err != nil {
		return nil, apperrors.NewCrypto("hashing stark key message", err)
	}

	sig, err := crypto.Sign(hash, key)
	if err != nil {
		return nil, apperrors.NewCrypto("signing stark key message", err)
	}

	// r component seeds the grind
	seed := sig[:32]
	return &Derived{
		StarkPrivateKey: grindKey(seed, caigo.Curve.N),
		EthereumAddress: crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}, nil
}

// grindKey maps a 256-bit seed onto a uniformly distributed scalar below
// order, per StarkWare's key grinding scheme.
func grindKey(seed []byte, order *big.Int) *big.Int {
	two256 := new(big.Int).Lsh(big.NewInt(1), 256)
	limit := new(big.Int).Sub(two256, new(big.Int).Mod(two256, order))

	for i := 0; ; i++ {
		h := sha256.Sum256(append(append([]byte{}, seed...), byte(i)))
		x := new(big.Int).SetBytes(h[:])
		if x.Cmp(limit) < 0 {
			return x.Mod(x, order)
		}
	}
}
