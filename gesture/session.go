package gesture

import "github.com/ByLCY/placard/geometry"

// State is the interpreter's position in the gesture state machine.
type State int

const (
	Idle State = iota
	Dragging
	Transforming
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Transforming:
		return "transforming"
	default:
		return "idle"
	}
}

// Session is the ephemeral state of one touch sequence, from the first
// contact down to the last contact up. It is never persisted.
type Session struct {
	// Baseline is the placement deltas are applied to. It is captured at the
	// first contact and re-captured on every contact-count transition.
	Baseline geometry.Placement
	// Current is the latest placement produced by the session.
	Current geometry.Placement

	// Single-contact tracking.
	PrimaryID int64
	Origin    geometry.Point
	Delta     geometry.Point
	Dragging  bool // latched once the tap threshold is crossed

	// Two-contact tracking.
	PairIDs          [2]int64
	InitialDistance  float64
	InitialAngle     float64
	BaselineScale    float64
	BaselineRotation float64
	Transformed      bool

	Contacts int

	lastAngle float64
	turned    float64
}

// Changed reports whether the session moved the element at all.
func (s Session) Changed() bool {
	return s.Dragging || s.Transformed
}

func newSession(p geometry.Placement) *Session {
	return &Session{Baseline: p, Current: p}
}

func (s *Session) beginDrag(c ContactPoint) {
	s.Baseline = s.Current
	s.PrimaryID = c.ID
	s.Origin = c.Point()
	s.Delta = geometry.Point{}
}

func (s *Session) beginTransform(a, b ContactPoint) {
	s.Baseline = s.Current
	s.PairIDs = [2]int64{a.ID, b.ID}
	s.arm(a.Point(), b.Point())
}

// arm records the pinch reference values. With a zero distance the
// references stay unset until a later event re-arms them.
func (s *Session) arm(a, b geometry.Point) {
	s.InitialDistance = Distance(a, b)
	s.BaselineScale = s.Current.Scale
	s.BaselineRotation = s.Current.Rotation
	s.turned = 0
	if s.InitialDistance > 0 {
		s.InitialAngle = AngleDeg(a, b)
		s.lastAngle = s.InitialAngle
	}
}
