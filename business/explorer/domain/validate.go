package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/evstack/atlas-sub000/internal/apperror"
)

// ParseAddress validates a 20-byte hex address and returns it checksummed.
func ParseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") || !common.IsHexAddress(s) {
		return common.Address{}, apperror.New(apperror.CodeInvalidAddress, apperror.WithContext(s))
	}
	return common.HexToAddress(s), nil
}

// ParseHash validates a 32-byte 0x-prefixed hash.
func ParseHash(s string) (common.Hash, error) {
	s = strings.TrimSpace(s)
	b, err := hexutil.Decode(strings.ToLower(s))
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, apperror.New(apperror.CodeInvalidHash,
			apperror.WithContext(s), apperror.WithCause(err))
	}
	return common.BytesToHash(b), nil
}
