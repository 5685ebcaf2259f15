package projection

import "github.com/golang/geo/r3"

// Hemispheres holds the parts of a curve facing the viewer (z >= 0) and the
// parts behind the sphere. Each part is a list of disjoint segments.
type Hemispheres struct {
	Front [][]r3.Vector
	Back  [][]r3.Vector
}

// Split walks samples in order and cuts the curve wherever z changes sign.
// The crossing on the z = 0 plane is interpolated linearly, closes the
// current segment and opens the next one, so both halves meet at the
// silhouette without drawing a chord through the sphere.
func Split(samples []r3.Vector) Hemispheres {
	var h Hemispheres
	if len(samples) == 0 {
		return h
	}

	front := samples[0].Z >= 0
	current := make([]r3.Vector, 0, len(samples))
	for i, p := range samples {
		if f := p.Z >= 0; i > 0 && f != front {
			cross := Crossing(samples[i-1], p)
			current = append(current, cross)
			h.add(front, current)
			current = []r3.Vector{cross}
			front = f
		}
		current = append(current, p)
	}
	h.add(front, current)
	return h
}

// Crossing interpolates the point where the segment a→b meets z = 0. a and b
// must lie on opposite sides of the plane.
func Crossing(a, b r3.Vector) r3.Vector {
	t := a.Z / (a.Z - b.Z)
	return r3.Vector{
		X: a.X + t*(b.X-a.X),
		Y: a.Y + t*(b.Y-a.Y),
	}
}

func (h *Hemispheres) add(front bool, seg []r3.Vector) {
	if len(seg) == 0 {
		return
	}
	if front {
		h.Front = append(h.Front, seg)
	} else {
		h.Back = append(h.Back, seg)
	}
}
