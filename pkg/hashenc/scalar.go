package hashenc

import (
	"encoding/hex"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"

	"github.com/eidos-exchange/eidos/eidos-sigkit/pkg/errors"
)

// ParseHex decodes hex content with an optional 0x prefix. Odd length is rejected.
func ParseHex(s string) ([]byte, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(raw)%2 != 0 {
		return nil, errors.ErrInvalidHex.WithMessagef("hex %q has odd length", s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return nil, errors.WrapWithCause(errors.ErrInvalidHex, err, "%q", s)
	}
	return b, nil
}

// ParseAddress accepts exactly 40 hex characters with or without 0x.
func ParseAddress(s string) (common.Address, error) {
	raw := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "0x"), "0X")
	if len(raw) != 2*common.AddressLength {
		return common.Address{}, errors.ErrInvalidAddress.WithMessagef("address %q must be 40 hex characters", s)
	}
	b, err := hex.DecodeString(raw)
	if err != nil {
		return common.Address{}, errors.WrapWithCause(errors.ErrInvalidAddress, err, "%q", s)
	}
	return common.BytesToAddress(b), nil
}

// ParseBool accepts true/1 and false/0.
func ParseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, errors.ErrInvalidBool.WithMessagef("invalid boolean %q", s)
	}
}

var integerPattern = regexp.MustCompile(`^(0[xX][0-9a-fA-F]+|[0-9]+)$`)

// ParseInteger parses a decimal or 0x-hex integer and checks it fits bits.
// Only signed types accept a leading minus.
func ParseInteger(s string, bits int, signed bool) (*big.Int, error) {
	raw := strings.TrimSpace(s)
	negative := strings.HasPrefix(raw, "-")
	if negative {
		if !signed {
			return nil, errors.ErrInvalidInteger.WithMessagef("uint%d cannot be negative: %q", bits, s)
		}
		raw = raw[1:]
	}
	if !integerPattern.MatchString(raw) {
		return nil, errors.ErrInvalidInteger.WithMessagef("invalid integer %q", s)
	}

	v, ok := math.ParseBig256(raw)
	if !ok {
		return nil, errors.ErrInvalidInteger.WithMessagef("invalid integer %q", s)
	}
	if negative {
		v.Neg(v)
	}
	if err := CheckIntegerRange(v, bits, signed); err != nil {
		return nil, err
	}
	return v, nil
}

// CheckIntegerRange reports whether v fits a Solidity integer of the given width.
func CheckIntegerRange(v *big.Int, bits int, signed bool) error {
	if bits <= 0 || bits > 256 || bits%8 != 0 {
		return errors.ErrUnknownType.WithMessagef("invalid integer width %d", bits)
	}
	if !signed {
		if v.Sign() < 0 || v.BitLen() > bits {
			return errors.ErrInvalidInteger.WithMessagef("%s out of range for uint%d", v, bits)
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(bits-1))
	minValue := new(big.Int).Neg(limit)
	if v.Cmp(minValue) < 0 || v.Cmp(limit) >= 0 {
		return errors.ErrInvalidInteger.WithMessagef("%s out of range for int%d", v, bits)
	}
	return nil
}

// TwosComplement returns v as a big-endian two's complement value of size bytes.
func TwosComplement(v *big.Int, size int) []byte {
	word := math.U256Bytes(new(big.Int).Set(v))
	return word[32-size:]
}

// FixedBytes decodes hex that must be exactly size bytes long.
func FixedBytes(s string, size int) ([]byte, error) {
	b, err := ParseHex(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(b) != size {
		return nil, errors.ErrInvalidHex.WithMessagef("bytes%d needs exactly %d bytes, got %d", size, size, len(b))
	}
	return b, nil
}
