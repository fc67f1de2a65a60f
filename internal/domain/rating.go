package domain

import (
	"fmt"
	"math"
	"math/big"
)

type StarGlyph uint8

const (
	StarEmpty StarGlyph = iota
	StarQuarter
	StarHalf
	StarThreeQuarter
	StarFull
)

const maxStars = 5

var glyphNames = [...]string{"empty", "quarter", "half", "three-quarter", "full"}

func (g StarGlyph) String() string {
	if int(g) < len(glyphNames) {
		return glyphNames[g]
	}
	return fmt.Sprintf("glyph(%d)", uint8(g))
}

// Fill is the share of one star the glyph paints.
func (g StarGlyph) Fill() float64 {
	switch g {
	case StarQuarter:
		return 0.25
	case StarHalf:
		return 0.5
	case StarThreeQuarter:
		return 0.75
	case StarFull:
		return 1
	}
	return 0
}

func (g StarGlyph) MarshalText() ([]byte, error) { return []byte(g.String()), nil }

func (g *StarGlyph) UnmarshalText(b []byte) error {
	for i, n := range glyphNames {
		if n == string(b) {
			*g = StarGlyph(i)
			return nil
		}
	}
	return fmt.Errorf("unknown star glyph %q", string(b))
}

// ComputeStarGlyphs spreads a rating over five slots. A fractional
// remainder is bucketed (quarter, half, three-quarter) and consumed, so
// every slot after it is empty.
func ComputeStarGlyphs(rating float64) [maxStars]StarGlyph {
	var out [maxStars]StarGlyph
	for i := range out {
		switch {
		case rating <= 0:
			out[i] = StarEmpty
		case rating < 0.5:
			out[i] = StarQuarter
			rating = 0
		case rating == 0.5:
			out[i] = StarHalf
			rating = 0
		case rating < 1:
			out[i] = StarThreeQuarter
			rating = 0
		default:
			out[i] = StarFull
			rating--
		}
	}
	return out
}

// UpdateAverageRating folds newRating into a running mean. totalRatings
// must already count the new rating.
func UpdateAverageRating(current float64, totalRatings uint32, newRating float64) float64 {
	n := float64(totalRatings)
	if n == 0 {
		n = 1
	}
	return Round1(current + (newRating-current)/n)
}

// Round1 rounds to one decimal, half away from zero, on the exact binary
// value of v: 1.1499999999999999 is below the tie and gives 1.1.
func Round1(v float64) float64 {
	a := math.Abs(v)
	if math.IsNaN(v) || math.IsInf(v, 0) || a >= 1e15 {
		return v
	}
	x := new(big.Float).SetPrec(256).SetFloat64(a)
	x.Mul(x, big.NewFloat(10))
	x.Add(x, big.NewFloat(0.5))
	n, _ := x.Int64() // truncates, x is non-negative
	return math.Copysign(float64(n)/10, v)
}
