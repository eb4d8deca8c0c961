package bicop

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mathext"
)

const (
	debyePoints = 64

	// t/(e^t - 1) is below 1e-24 past this point
	debyeCutoff = 60.0
)

// Tau returns Kendall's tau implied by the parameters. Rotations by 90 and 270
// degrees flip the sign for families that are not rotation invariant.
func (b *Bicop) Tau() (float64, error) {
	if !b.family.SupportsTau() {
		return 0, fmt.Errorf("%w: kendall's tau of the %s copula", ErrUnsupported, b.family)
	}

	var tau float64
	switch b.family {
	case Indep:
		return 0, nil
	case Gaussian, Student:
		tau = 2 / math.Pi * math.Asin(b.parameters[0])
	case Clayton:
		tau = b.parameters[0] / (2 + math.Abs(b.parameters[0]))
	case Gumbel:
		tau = (b.parameters[0] - 1) / b.parameters[0]
	case Frank:
		tau = frankTau(b.parameters[0])
	case Joe:
		tau = joeTau(b.parameters[0])
	}

	if !b.family.IsRotationless() && (b.rotation == 90 || b.rotation == 270) {
		tau = -tau
	}
	return tau, nil
}

func frankTau(theta float64) float64 {
	if theta == 0 {
		return 0
	}
	d := debye1(math.Abs(theta))
	if theta < 0 {
		d -= theta / 2
	}
	return 1 - 4/theta + 4/theta*d
}

// debye1 is the first order Debye function (1/x) * int_0^x t/(e^t - 1) dt.
func debye1(x float64) float64 {
	if x == 0 {
		return 1
	}
	f := func(t float64) float64 {
		if t == 0 {
			return 1
		}
		return t / math.Expm1(t)
	}
	return quad.Fixed(f, 0, math.Min(x, debyeCutoff), debyePoints, nil, 0) / x
}

func joeTau(theta float64) float64 {
	if theta == 2 {
		// limit of the general expression: 1 - trigamma(2)
		return 2 - math.Pi*math.Pi/6
	}
	return 1 + 2*(mathext.Digamma(2)-mathext.Digamma(2/theta+1))/(2-theta)
}
