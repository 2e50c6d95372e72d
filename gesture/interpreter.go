// Package gesture turns raw one- and two-finger touch events into updates
// of a normalized geometry.Placement.
package gesture

import (
	"log/slog"
	"math"

	"github.com/ByLCY/placard/geometry"
	"github.com/ByLCY/placard/logging"
)

// DefaultTapThreshold is the movement, in pixels on either axis, below which
// a single-contact session counts as a tap.
const DefaultTapThreshold = 10.0

// Subject describes the text element being manipulated. The interpreter
// needs it to size the box when keeping a dragged element on canvas.
type Subject struct {
	Text         string
	BaseFontSize float64
	Canvas       geometry.CanvasContext
	MaxLines     int
	// LetterSpacing is in reference pixels, as in geometry.TextStyle.
	LetterSpacing float64
}

// Box estimates the element's pixel box at the given scale.
func (s Subject) Box(scale float64) geometry.TextBlockBox {
	return geometry.EstimateTextBlockSpaced(s.Text, s.BaseFontSize, scale, s.Canvas, s.MaxLines, s.LetterSpacing)
}

// Outcome is the result of one input event. Intermediate placements are
// advisory and may be dropped; Final is emitted once, when the last contact
// lifts, and is the value the host should persist.
type Outcome struct {
	Intermediate *geometry.Placement
	Final        *geometry.Placement
	Tap          bool
	State        State
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithTapThreshold overrides DefaultTapThreshold.
func WithTapThreshold(px float64) Option {
	return func(in *Interpreter) {
		if px >= 0 && !math.IsNaN(px) {
			in.tapThreshold = px
		}
	}
}

// WithLogger sets the logger used for state transitions.
func WithLogger(l *slog.Logger) Option {
	return func(in *Interpreter) {
		if l != nil {
			in.logger = l
		}
	}
}

// Interpreter is the gesture state machine for a single element.
// It is not safe for concurrent use: the host must serialize touch events
// per element.
type Interpreter struct {
	subject      Subject
	tapThreshold float64
	logger       *slog.Logger

	state   State
	session *Session
}

// NewInterpreter returns an idle interpreter for subject.
func NewInterpreter(subject Subject, opts ...Option) *Interpreter {
	in := &Interpreter{
		subject:      subject,
		tapThreshold: DefaultTapThreshold,
		logger:       logging.Logger(),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// State returns the current state.
func (in *Interpreter) State() State { return in.state }

// Session returns a snapshot of the active session, if any.
func (in *Interpreter) Session() (Session, bool) {
	if in.session == nil {
		return Session{}, false
	}
	return *in.session, true
}

// SetSubject replaces the element description, e.g. after a text edit.
// It takes effect on the next event.
func (in *Interpreter) SetSubject(s Subject) { in.subject = s }

// Reset drops any active session without emitting a final placement.
func (in *Interpreter) Reset() {
	in.transition(Idle)
	in.session = nil
}

// OnContactsChanged consumes the full set of active contacts after an input
// event. placement is the host's current value; it is only read when a new
// session starts, because a session has exclusive ownership of the element
// until its last contact lifts.
//
// Events carrying a contact with missing coordinates are ignored.
func (in *Interpreter) OnContactsChanged(contacts []ContactPoint, placement geometry.Placement) Outcome {
	for _, c := range contacts {
		if !c.Valid() {
			in.logger.Debug("gesture: ignoring event with invalid contact", "id", c.ID)
			return Outcome{State: in.state}
		}
	}
	contacts = normalizeContacts(contacts)

	if len(contacts) == 0 {
		return in.finish()
	}

	if in.session == nil {
		in.session = newSession(placement.Clamp())
		in.session.beginDrag(contacts[0])
		in.transition(Dragging)
	}
	in.session.Contacts = len(contacts)

	switch in.state {
	case Dragging:
		if len(contacts) >= 2 {
			in.session.beginTransform(contacts[0], contacts[1])
			in.transition(Transforming)
			return Outcome{State: in.state}
		}
		return in.drag(contacts[0])
	case Transforming:
		if len(contacts) == 1 {
			in.session.beginDrag(contacts[0])
			in.transition(Dragging)
			return Outcome{State: in.state}
		}
		return in.transform(contacts)
	}
	return Outcome{State: in.state}
}

func (in *Interpreter) drag(c ContactPoint) Outcome {
	s := in.session
	if c.ID != s.PrimaryID {
		// a different finger took over within one event: track it from here
		s.beginDrag(c)
		return Outcome{State: in.state}
	}

	s.Delta = c.Point().Sub(s.Origin)
	if !s.Dragging {
		if math.Abs(s.Delta.X) < in.tapThreshold && math.Abs(s.Delta.Y) < in.tapThreshold {
			return Outcome{State: in.state}
		}
		s.Dragging = true
	}

	s.Current = in.applyDrag(s.Baseline, s.Delta)
	p := s.Current
	return Outcome{Intermediate: &p, State: in.state}
}

// applyDrag moves base by a pixel delta, keeping the box on the canvas.
func (in *Interpreter) applyDrag(base geometry.Placement, d geometry.Point) geometry.Placement {
	box := in.subject.Box(base.Scale)
	out := base
	out.Position = geometry.MoveCenter(base.Position, d, in.subject.Canvas, box.PixelWidth, box.PixelHeight)
	return out
}

func (in *Interpreter) transform(contacts []ContactPoint) Outcome {
	s := in.session
	a, okA := findContact(contacts, s.PairIDs[0])
	b, okB := findContact(contacts, s.PairIDs[1])
	if !okA || !okB {
		s.beginTransform(contacts[0], contacts[1])
		return Outcome{State: in.state}
	}

	pa, pb := a.Point(), b.Point()
	dist := Distance(pa, pb)
	if s.InitialDistance == 0 {
		if dist > 0 {
			s.arm(pa, pb)
		}
		return Outcome{State: in.state}
	}

	next := s.Current
	next.Scale = PinchScale(s.BaselineScale, s.InitialDistance, dist, geometry.MinScale, geometry.MaxScale)
	if dist > 0 {
		angle := AngleDeg(pa, pb)
		s.turned += wrapDelta(angle - s.lastAngle)
		s.lastAngle = angle
		next.Rotation = s.BaselineRotation + s.turned
	}
	if next == s.Current {
		return Outcome{State: in.state}
	}
	s.Current = next
	s.Transformed = true
	p := s.Current
	return Outcome{Intermediate: &p, State: in.state}
}

func (in *Interpreter) finish() Outcome {
	s := in.session
	in.session = nil
	if s == nil {
		return Outcome{State: in.state}
	}
	in.transition(Idle)
	if !s.Changed() {
		return Outcome{Tap: true, State: Idle}
	}
	final := s.Current
	in.logger.Debug("gesture: finalized",
		"x", final.Position.X, "y", final.Position.Y,
		"scale", final.Scale, "rotation", final.Rotation)
	return Outcome{Final: &final, State: Idle}
}

func (in *Interpreter) transition(to State) {
	if in.state == to {
		return
	}
	in.logger.Debug("gesture: state change", "from", in.state.String(), "to", to.String())
	in.state = to
}

// Replay feeds recorded contact frames through in, passing every emitted
// placement back in the way a host would, and returns the resulting
// placement along with every outcome.
func Replay(in *Interpreter, start geometry.Placement, frames [][]ContactPoint) (geometry.Placement, []Outcome) {
	current := start
	outcomes := make([]Outcome, 0, len(frames))
	for _, frame := range frames {
		out := in.OnContactsChanged(frame, current)
		if out.Intermediate != nil {
			current = *out.Intermediate
		}
		if out.Final != nil {
			current = *out.Final
		}
		outcomes = append(outcomes, out)
	}
	return current, outcomes
}
