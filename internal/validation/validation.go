// Package validation parses and validates request input for zoppel.
package validation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
)

// MaxURILength is the longest accepted token URI suffix or base URI.
const MaxURILength = 2048

// ParseAddress parses a 0x-prefixed 20-byte hex address. Mixed-case input
// must carry a valid EIP-55 checksum.
func ParseAddress(s string) (common.Address, error) {
	if err := ValidateAddress(s); err != nil {
		return common.Address{}, err
	}
	addr := common.HexToAddress(s)
	lower := strings.ToLower(s[2:])
	upper := strings.ToUpper(s[2:])
	if s[2:] != lower && s[2:] != upper && addr.Hex() != s {
		return common.Address{}, errors.New("invalid address: bad checksum")
	}
	return addr, nil
}

// ValidateAddress validates an Ethereum address
func ValidateAddress(addr string) error {
	if len(addr) != 42 {
		return errors.New("invalid address length: must be 42 characters (0x + 40 hex)")
	}
	if !strings.HasPrefix(addr, "0x") {
		return errors.New("invalid address: must start with 0x")
	}
	if !common.IsHexAddress(addr) {
		return errors.New("invalid address: contains non-hex characters")
	}
	return nil
}

// ParseAddresses parses a list of addresses, naming the first bad entry.
func ParseAddresses(list []string) ([]common.Address, error) {
	out := make([]common.Address, len(list))
	for i, s := range list {
		addr, err := ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out[i] = addr
	}
	return out, nil
}

// ParseAmount parses a non-negative decimal integer of at most 256 bits.
func ParseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, errors.New("amount cannot be empty")
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return nil, errors.New("invalid amount: must be a decimal integer")
		}
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, errors.New("invalid amount: exceeds 256 bits")
	}
	return v, nil
}

// ParseTokenID parses a decimal token id.
func ParseTokenID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.New("invalid token id: must be a decimal integer")
	}
	return id, nil
}

// ParseHash parses a 0x-prefixed 32-byte hex value.
func ParseHash(s string) (common.Hash, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return common.Hash{}, fmt.Errorf("invalid hash: %w", err)
	}
	if len(b) != common.HashLength {
		return common.Hash{}, fmt.Errorf("invalid hash length: %d bytes, want %d", len(b), common.HashLength)
	}
	return common.BytesToHash(b), nil
}

// ParseInterfaceID parses a 0x-prefixed 4-byte ERC-165 interface id.
func ParseInterfaceID(s string) ([4]byte, error) {
	var id [4]byte
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != 4 {
		return id, errors.New("invalid interface id: must be 0x followed by 8 hex characters")
	}
	copy(id[:], b)
	return id, nil
}

// ValidateURI validates a base URI or token URI suffix. Empty is allowed.
func ValidateURI(uri string) error {
	if len(uri) > MaxURILength {
		return fmt.Errorf("uri too long (max %d bytes)", MaxURILength)
	}
	for _, r := range uri {
		if unicode.IsControl(r) {
			return errors.New("uri contains control characters")
		}
	}
	return nil
}

// ValidateChainID validates a chain ID
func ValidateChainID(chainID uint64) error {
	if chainID == 0 {
		return errors.New("chain ID must be positive")
	}
	return nil
}
