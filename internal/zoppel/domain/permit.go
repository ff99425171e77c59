package domain

import (
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

var (
	domainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)"))
	permitTypeHash = crypto.Keccak256Hash([]byte("Permit(address owner,address spender,uint256 value,uint256 nonce,uint256 deadline)"))

	bytes32Type, _ = abi.NewType("bytes32", "", nil)
	addressType, _ = abi.NewType("address", "", nil)
	uint256Type, _ = abi.NewType("uint256", "", nil)

	domainArgs = abi.Arguments{
		{Type: bytes32Type}, {Type: bytes32Type}, {Type: bytes32Type},
		{Type: uint256Type}, {Type: addressType},
	}
	permitArgs = abi.Arguments{
		{Type: bytes32Type}, {Type: addressType}, {Type: addressType},
		{Type: uint256Type}, {Type: uint256Type}, {Type: uint256Type},
	}
)

// Domain is the EIP-712 signing domain of the token.
type Domain struct {
	Name              string
	Version           string
	ChainID           uint64
	VerifyingContract common.Address
}

// Separator returns the EIP-712 domain separator.
func (d Domain) Separator() common.Hash {
	packed, err := domainArgs.Pack(
		domainTypeHash,
		crypto.Keccak256Hash([]byte(d.Name)),
		crypto.Keccak256Hash([]byte(d.Version)),
		new(big.Int).SetUint64(d.ChainID),
		d.VerifyingContract,
	)
	if err != nil {
		panic(fmt.Sprintf("packing eip712 domain: %v", err))
	}
	return crypto.Keccak256Hash(packed)
}

// Permit is an EIP-2612 approval message.
type Permit struct {
	Owner    common.Address
	Spender  common.Address
	Value    *uint256.Int
	Nonce    *uint256.Int
	Deadline *uint256.Int
}

// Digest returns the hash the owner signs.
func (p Permit) Digest(d Domain) common.Hash {
	packed, err := permitArgs.Pack(
		permitTypeHash,
		p.Owner,
		p.Spender,
		p.Value.ToBig(),
		p.Nonce.ToBig(),
		p.Deadline.ToBig(),
	)
	if err != nil {
		panic(fmt.Sprintf("packing permit: %v", err))
	}
	sep := d.Separator()
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, sep[:], crypto.Keccak256(packed))
}

// Signature is a secp256k1 signature split the way permit takes it.
type Signature struct {
	V uint8
	R common.Hash
	S common.Hash
}

// SignPermit signs p for d with key.
func SignPermit(key *ecdsa.PrivateKey, d Domain, p Permit) (Signature, error) {
	digest := p.Digest(d)
	sig, err := crypto.Sign(digest[:], key)
	if err != nil {
		return Signature{}, fmt.Errorf("signing permit: %w", err)
	}
	return Signature{
		V: sig[64] + 27,
		R: common.BytesToHash(sig[:32]),
		S: common.BytesToHash(sig[32:64]),
	}, nil
}

// recoverSigner returns the address that produced sig over digest.
func recoverSigner(digest common.Hash, sig Signature) (common.Address, error) {
	if sig.V != 27 && sig.V != 28 {
		return common.Address{}, fmt.Errorf("%w: v=%d", ErrInvalidSignature, sig.V)
	}
	v := sig.V - 27
	r := new(big.Int).SetBytes(sig.R[:])
	s := new(big.Int).SetBytes(sig.S[:])
	if !crypto.ValidateSignatureValues(v, r, s, true) {
		return common.Address{}, fmt.Errorf("%w: r or s out of range", ErrInvalidSignature)
	}

	raw := make([]byte, 65)
	copy(raw[:32], sig.R[:])
	copy(raw[32:64], sig.S[:])
	raw[64] = v
	pub, err := crypto.SigToPub(digest[:], raw)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
