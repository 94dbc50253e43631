// Package fixedpoint implements a deterministic signed fixed-point decimal
// with 18 implied fractional digits, backed by a big.Int constrained to the
// signed 192-bit range. Every arithmetic operation signals overflow instead
// of wrapping or saturating, so that value-conservation checks downstream can
// rely on bit-for-bit reproducible results.
package fixedpoint

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// Decimals is the number of implied fractional decimal digits.
const Decimals = 18

var (
	// ErrOverflow is thrown when the result of an operation exceeds the
	// representable signed 192-bit range.
	ErrOverflow = errors.New("fixed-point overflow")
	// ErrDivisionByZero is thrown when dividing by a zero fixed value or scalar.
	ErrDivisionByZero = errors.New("fixed-point division by zero")
)

var (
	scale  = new(big.Int).Exp(big.NewInt(10), big.NewInt(Decimals), nil)
	maxInt = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 191), big.NewInt(1))
	minInt = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 191))

	two = big.NewInt(2)
)

// Fix is an immutable fixed-point value. The zero value is 0.
type Fix struct {
	i *big.Int
}

// Zero returns the fixed-point zero.
func Zero() Fix { return Fix{big.NewInt(0)} }

// One returns the fixed-point representation of 1.
func One() Fix { return Fix{new(big.Int).Set(scale)} }

func (f Fix) raw() *big.Int {
	if f.i == nil {
		return big.NewInt(0)
	}
	return f.i
}

func inRange(v *big.Int) bool {
	return v.Cmp(minInt) >= 0 && v.Cmp(maxInt) <= 0
}

func checked(v *big.Int) (Fix, error) {
	if !inRange(v) {
		return Fix{}, ErrOverflow
	}
	return Fix{v}, nil
}

// NewFix converts a whole-unit integer to its scaled representation.
// An int64 scaled by 10^18 always fits in 192 bits, so it cannot fail.
func NewFix(whole int64) Fix {
	return Fix{new(big.Int).Mul(big.NewInt(whole), scale)}
}

// NewFixFromRaw wraps an already-scaled integer without rescaling.
func NewFixFromRaw(raw *big.Int) (Fix, error) {
	return checked(new(big.Int).Set(raw))
}

// NewFixWithShift returns x * 10^(Decimals+shift). A negative shift divides,
// flooring the result.
func NewFixWithShift(x int64, shift int32) (Fix, error) {
	exp := int64(Decimals) + int64(shift)
	v := big.NewInt(x)
	if exp >= 0 {
		pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
		return checked(v.Mul(v, pow))
	}
	pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(-exp), nil)
	return checked(new(big.Int).Div(v, pow))
}

// FromDecimal converts an arbitrary-precision decimal to fixed-point,
// truncating fractional digits beyond the 18th.
func FromDecimal(d decimal.Decimal) (Fix, error) {
	return checked(d.Shift(Decimals).BigInt())
}

// divRound divides num by den rounding half away from zero. den must be
// nonzero and is treated by absolute value for the rounding decision.
func divRound(num, den *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(num, den, new(big.Int))
	r.Abs(r).Mul(r, two)
	absDen := new(big.Int).Abs(den)
	if r.Cmp(absDen) >= 0 {
		if (num.Sign() < 0) != (den.Sign() < 0) {
			q.Sub(q, big.NewInt(1))
		} else {
			q.Add(q, big.NewInt(1))
		}
	}
	return q
}

// Add returns f + g.
func (f Fix) Add(g Fix) (Fix, error) {
	return checked(new(big.Int).Add(f.raw(), g.raw()))
}

// Sub returns f - g.
func (f Fix) Sub(g Fix) (Fix, error) {
	return checked(new(big.Int).Sub(f.raw(), g.raw()))
}

// AddInt returns f + x for a whole-unit scalar x.
func (f Fix) AddInt(x int64) (Fix, error) {
	return f.Add(NewFix(x))
}

// SubInt returns f - x for a whole-unit scalar x.
func (f Fix) SubInt(x int64) (Fix, error) {
	return f.Sub(NewFix(x))
}

// AddUint returns f + x for an unsigned whole-unit scalar x.
func (f Fix) AddUint(x uint64) (Fix, error) {
	g := new(big.Int).Mul(new(big.Int).SetUint64(x), scale)
	return checked(g.Add(g, f.raw()))
}

// SubUint returns f - x for an unsigned whole-unit scalar x.
func (f Fix) SubUint(x uint64) (Fix, error) {
	g := new(big.Int).Mul(new(big.Int).SetUint64(x), scale)
	return checked(g.Sub(f.raw(), g))
}

// Mul returns f * g rounded half away from zero. The product is computed on
// a double-width intermediate so in-range operands never overflow before the
// final range check.
func (f Fix) Mul(g Fix) (Fix, error) {
	num := new(big.Int).Mul(f.raw(), g.raw())
	return checked(divRound(num, scale))
}

// MulInt returns f * x for a whole-unit scalar x.
func (f Fix) MulInt(x int64) (Fix, error) {
	return checked(new(big.Int).Mul(f.raw(), big.NewInt(x)))
}

// MulUint returns f * x for an unsigned whole-unit scalar x.
func (f Fix) MulUint(x uint64) (Fix, error) {
	return checked(new(big.Int).Mul(f.raw(), new(big.Int).SetUint64(x)))
}

// Div returns f / g rounded half away from zero.
func (f Fix) Div(g Fix) (Fix, error) {
	if g.IsZero() {
		return Fix{}, ErrDivisionByZero
	}
	num := new(big.Int).Mul(f.raw(), scale)
	return checked(divRound(num, g.raw()))
}

// DivInt returns f / x for a whole-unit scalar x.
func (f Fix) DivInt(x int64) (Fix, error) {
	if x == 0 {
		return Fix{}, ErrDivisionByZero
	}
	return checked(divRound(f.raw(), big.NewInt(x)))
}

// DivUint returns f / x for an unsigned whole-unit scalar x.
func (f Fix) DivUint(x uint64) (Fix, error) {
	if x == 0 {
		return Fix{}, ErrDivisionByZero
	}
	return checked(divRound(f.raw(), new(big.Int).SetUint64(x)))
}

// Inv returns 1 / f.
func (f Fix) Inv() (Fix, error) {
	return One().Div(f)
}

// Powu returns f raised to the integer power n, by repeated squaring.
// f^0 is 1 by convention.
func (f Fix) Powu(n uint64) (Fix, error) {
	result := One()
	base := f
	var err error
	for n > 0 {
		if n&1 == 1 {
			if result, err = result.Mul(base); err != nil {
				return Fix{}, err
			}
		}
		n >>= 1
		if n > 0 {
			if base, err = base.Mul(base); err != nil {
				return Fix{}, err
			}
		}
	}
	return result, nil
}

// Floor returns the largest whole integer <= f.
func (f Fix) Floor() *big.Int {
	q := new(big.Int)
	q.Div(f.raw(), scale)
	return q
}

// Ceil returns the smallest whole integer >= f.
func (f Fix) Ceil() *big.Int {
	neg := new(big.Int).Neg(f.raw())
	neg.Div(neg, scale)
	return neg.Neg(neg)
}

// Round returns f rounded to the nearest whole integer, half away from zero.
func (f Fix) Round() *big.Int {
	return divRound(f.raw(), scale)
}

// Raw returns a copy of the scaled backing integer.
func (f Fix) Raw() *big.Int {
	return new(big.Int).Set(f.raw())
}

// Cmp returns -1, 0 or +1 comparing f to g.
func (f Fix) Cmp(g Fix) int { return f.raw().Cmp(g.raw()) }

// Lt reports whether f < g.
func (f Fix) Lt(g Fix) bool { return f.Cmp(g) < 0 }

// Lte reports whether f <= g.
func (f Fix) Lte(g Fix) bool { return f.Cmp(g) <= 0 }

// Gt reports whether f > g.
func (f Fix) Gt(g Fix) bool { return f.Cmp(g) > 0 }

// Gte reports whether f >= g.
func (f Fix) Gte(g Fix) bool { return f.Cmp(g) >= 0 }

// Eq reports whether f == g.
func (f Fix) Eq(g Fix) bool { return f.Cmp(g) == 0 }

// Neq reports whether f != g.
func (f Fix) Neq(g Fix) bool { return f.Cmp(g) != 0 }

// NearEq reports whether |f - g| <= epsilon.
func (f Fix) NearEq(g Fix, epsilon Fix) bool {
	diff := new(big.Int).Sub(f.raw(), g.raw())
	return diff.Abs(diff).Cmp(epsilon.raw()) <= 0
}

// IsZero reports whether f is exactly zero.
func (f Fix) IsZero() bool { return f.raw().Sign() == 0 }

// Sign returns -1, 0 or +1 according to the sign of f.
func (f Fix) Sign() int { return f.raw().Sign() }

// Min returns the smaller of f and g.
func Min(f, g Fix) Fix {
	if f.Lte(g) {
		return f
	}
	return g
}

// Max returns the larger of f and g.
func Max(f, g Fix) Fix {
	if f.Gte(g) {
		return f
	}
	return g
}

// ToDecimal returns f as an arbitrary-precision decimal.
func (f Fix) ToDecimal() decimal.Decimal {
	return decimal.NewFromBigInt(f.raw(), -Decimals)
}

func (f Fix) String() string {
	return f.ToDecimal().String()
}

// MarshalJSON encodes the raw scaled integer as a JSON string, so that
// persisted values survive round-trips bit for bit.
func (f Fix) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.raw().String() + `"`), nil
}

// UnmarshalJSON decodes a raw scaled integer from a JSON string.
func (f *Fix) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return errors.New("fixed-point: invalid raw integer " + s)
	}
	parsed, err := checked(v)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
