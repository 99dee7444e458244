package pipeline

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Rational is a fraction used for time bases, frame rates and aspect ratios.
type Rational struct {
	Num int
	Den int
}

// DefaultFrameRate is used when the container reports no usable frame rate.
var DefaultFrameRate = Rational{Num: 30, Den: 1}

// Valid reports whether both terms are positive.
func (r Rational) Valid() bool {
	return r.Num > 0 && r.Den > 0
}

// Invert returns Den/Num.
func (r Rational) Invert() Rational {
	return Rational{Num: r.Den, Den: r.Num}
}

// Float64 returns the value of the fraction, or 0 when Den is zero.
func (r Rational) Float64() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

// Reduce returns the fraction in lowest terms.
func (r Rational) Reduce() Rational {
	g := gcd(abs(r.Num), abs(r.Den))
	if g <= 1 {
		return r
	}
	return Rational{Num: r.Num / g, Den: r.Den / g}
}

// String formats the fraction as "num/den".
func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// ParseRational parses "num/den", "num:den" or a plain number.
// Decimal values such as "29.97" are converted with a denominator of 1000.
func ParseRational(s string) (Rational, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Rational{}, fmt.Errorf("empty rational")
	}

	for _, sep := range []string{"/", ":"} {
		if num, den, ok := strings.Cut(s, sep); ok {
			n, err := strconv.Atoi(strings.TrimSpace(num))
			if err != nil {
				return Rational{}, fmt.Errorf("parse rational %q: %w", s, err)
			}
			d, err := strconv.Atoi(strings.TrimSpace(den))
			if err != nil {
				return Rational{}, fmt.Errorf("parse rational %q: %w", s, err)
			}
			return Rational{Num: n, Den: d}, nil
		}
	}

	if n, err := strconv.Atoi(s); err == nil {
		return Rational{Num: n, Den: 1}, nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Rational{}, fmt.Errorf("parse rational %q: %w", s, err)
	}
	return Rational{Num: int(f*1000 + 0.5), Den: 1000}.Reduce(), nil
}

// Rescale converts v from time base from to time base to, rounding half
// away from zero. It computes v * from.Num * to.Den / (from.Den * to.Num)
// without intermediate overflow.
func Rescale(v int64, from, to Rational) int64 {
	num := new(big.Int).SetInt64(v)
	num.Mul(num, big.NewInt(int64(from.Num)))
	num.Mul(num, big.NewInt(int64(to.Den)))

	den := new(big.Int).Mul(big.NewInt(int64(from.Den)), big.NewInt(int64(to.Num)))
	if den.Sign() == 0 {
		return 0
	}
	if den.Sign() < 0 {
		den.Neg(den)
		num.Neg(num)
	}

	// Round half away from zero: (|num| + den/2) / den, sign restored.
	neg := num.Sign() < 0
	num.Abs(num)
	half := new(big.Int).Rsh(den, 1)
	num.Add(num, half)
	num.Quo(num, den)
	if neg {
		num.Neg(num)
	}
	return num.Int64()
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
