package sphere

import (
	"math"

	"github.com/golang/geo/r3"
)

// SnapToGreatCircle pulls p onto the nearest great circle whose plane lies
// within threshold of it. Poles must be expressed in the same frame as p.
// When nothing is close enough p is returned unchanged.
func SnapToGreatCircle(p r3.Vector, poles []r3.Vector, threshold float64) r3.Vector {
	best := threshold
	snapped := p
	for _, pole := range poles {
		dot := p.Dot(pole)
		if math.Abs(dot) >= best {
			continue
		}
		projected := p.Sub(pole.Mul(dot))
		if n := projected.Norm(); n > Epsilon {
			snapped = projected.Mul(1 / n)
			best = math.Abs(dot)
		}
	}
	return snapped
}
