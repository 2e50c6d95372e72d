package gesture

import (
	"math"
	"sort"

	"github.com/ByLCY/placard/geometry"
)

// ContactPoint is one active touch in canvas pixel coordinates.
// A NaN coordinate means the host could not report it.
type ContactPoint struct {
	ID int64   `json:"id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

// Valid reports whether both coordinates are finite.
func (c ContactPoint) Valid() bool {
	return c.Point().Finite()
}

// Point returns the contact position.
func (c ContactPoint) Point() geometry.Point {
	return geometry.Point{X: c.X, Y: c.Y}
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b geometry.Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// AngleDeg returns atan2 of the vector a→b in degrees.
func AngleDeg(a, b geometry.Point) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X) * 180 / math.Pi
}

// PinchScale scales baseline by current/initial and clamps the result.
// A zero or invalid initial distance leaves baseline unchanged.
func PinchScale(baseline, initial, current, lo, hi float64) float64 {
	if initial <= 0 || math.IsNaN(initial) || math.IsNaN(current) || math.IsInf(current, 0) {
		return baseline
	}
	s := baseline * (current / initial)
	if s < lo {
		return lo
	}
	if s > hi {
		return hi
	}
	return s
}

// wrapDelta maps an angle difference into (-180, 180].
func wrapDelta(d float64) float64 {
	d = math.Mod(d, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// normalizeContacts sorts by ID and drops duplicate IDs, keeping the last report.
func normalizeContacts(contacts []ContactPoint) []ContactPoint {
	byID := make(map[int64]ContactPoint, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c
	}
	out := make([]ContactPoint, 0, len(byID))
	for _, c := range byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func findContact(contacts []ContactPoint, id int64) (ContactPoint, bool) {
	for _, c := range contacts {
		if c.ID == id {
			return c, true
		}
	}
	return ContactPoint{}, false
}
