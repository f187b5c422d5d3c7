package eth

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

var ErrInvalidAmount = errors.New("invalid ether amount")

var weiPerEther = big.NewInt(params.Ether)

// Plain decimal only: no sign, exponent or fraction syntax.
var decimalAmount = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ParseEther converts a decimal ether string ("0.0005") into wei.
// Amounts with more than 18 fractional digits are rejected.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if !decimalAmount.MatchString(s) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	r.Mul(r, new(big.Rat).SetInt(weiPerEther))
	if !r.IsInt() {
		return nil, fmt.Errorf("%w: more than 18 decimals in %q", ErrInvalidAmount, s)
	}
	return new(big.Int).Set(r.Num()), nil
}

// FormatEther renders wei as a decimal ether string. Zero renders as "0.0".
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}
	neg := wei.Sign() < 0
	abs := new(big.Int).Abs(wei)

	whole, frac := new(big.Int).QuoRem(abs, weiPerEther, new(big.Int))
	fracStr := frac.String()
	fracStr = strings.Repeat("0", 18-len(fracStr)) + fracStr
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		fracStr = "0"
	}

	out := whole.String() + "." + fracStr
	if neg {
		out = "-" + out
	}
	return out
}
