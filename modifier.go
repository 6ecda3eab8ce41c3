package diorama

import (
	"errors"
	"math"
)

// Frame is the per-frame context handed to modifier Tick hooks.
type Frame struct {
	ID       uint64
	Playback Playback
}

// Modifier is the behavior shared by all camera input sources. Name is
// stable and used only for diagnostics. Tick runs once per frame before the
// orchestrator queries the modifier; implementations must be idempotent for
// a repeated frame id.
type Modifier interface {
	Name() string
	Active() bool
	Tick(frame Frame)
}

// AnchorModifier proposes an absolute camera position. The highest-priority
// active anchor whose Position call succeeds wins.
type AnchorModifier interface {
	Modifier
	Priority() float64
	Position() (Vec3, error)
}

// OffsetScope says which derived positions an offset modifier's votes reach.
type OffsetScope uint8

const (
	// ScopeCamera votes move both the camera position and the eye.
	ScopeCamera OffsetScope = iota
	// ScopeEyeOnly votes move only the eye used for off-axis projection
	// (head nudges, visual wobble), never the camera anchor itself.
	ScopeEyeOnly
)

// AxisVote is one optional per-axis contribution.
type AxisVote struct {
	Value float64
	Voted bool
}

// Vote is a convenience constructor for a cast AxisVote.
func Vote(v float64) AxisVote {
	return AxisVote{Value: v, Voted: true}
}

// OffsetVote is a partial positional nudge. Axes the modifier does not vote
// on are excluded from averaging entirely rather than counted as zero.
type OffsetVote struct {
	X, Y, Z AxisVote
}

// OffsetModifier contributes additive per-axis nudges. Offsets have no
// priority: every active modifier's vote is averaged per axis.
type OffsetModifier interface {
	Modifier
	Scope() OffsetScope
	Offsets() (OffsetVote, error)
}

// OrientationModifier proposes a gaze candidate, selected by the same
// priority/first-success rule as anchors.
type OrientationModifier interface {
	Modifier
	Priority() float64
	Orientation() (Orientation, error)
}

// baseModifier carries the name/active/priority plumbing shared by the
// concrete modifiers in this package.
type baseModifier struct {
	name     string
	active   bool
	priority float64
}

func (m *baseModifier) Name() string      { return m.name }
func (m *baseModifier) Active() bool      { return m.active }
func (m *baseModifier) Priority() float64 { return m.priority }

// SetActive enables or disables the modifier without removing it from the
// orchestrator.
func (m *baseModifier) SetActive(active bool) { m.active = active }

func (m *baseModifier) Tick(Frame) {}

// --- Fixed sources ---

// FixedAnchor is an anchor pinned to a constant position. Useful as a
// low-priority default beneath animated sources.
type FixedAnchor struct {
	baseModifier
	Pos Vec3
}

// NewFixedAnchor creates an active fixed anchor.
func NewFixedAnchor(name string, priority float64, pos Vec3) *FixedAnchor {
	return &FixedAnchor{baseModifier: baseModifier{name: name, active: true, priority: priority}, Pos: pos}
}

// Position returns the pinned position. Never fails.
func (m *FixedAnchor) Position() (Vec3, error) {
	return m.Pos, nil
}

// FixedOrientation is a constant gaze candidate.
type FixedOrientation struct {
	baseModifier
	Gaze Orientation
}

// NewFixedOrientation creates an active fixed orientation modifier.
func NewFixedOrientation(name string, priority float64, gaze Orientation) *FixedOrientation {
	return &FixedOrientation{baseModifier: baseModifier{name: name, active: true, priority: priority}, Gaze: gaze}
}

// Orientation returns the pinned gaze. Never fails.
func (m *FixedOrientation) Orientation() (Orientation, error) {
	return m.Gaze, nil
}

// --- Orbit anchor ---

// OrbitAnchor circles a center point in the XZ plane, one revolution per
// playback loop (scaled by Revolutions). The angle advances with the clock's
// progress, so a paused clock freezes the orbit.
type OrbitAnchor struct {
	baseModifier
	Center Vec3
	Radius float64
	Height float64
	// Revolutions per playback loop. Zero behaves as one.
	Revolutions float64
	// Phase offsets the start angle in radians.
	Phase float64

	lastFrame uint64
	angle     float64
}

// NewOrbitAnchor creates an active orbit anchor around center.
func NewOrbitAnchor(name string, priority float64, center Vec3, radius, height float64) *OrbitAnchor {
	return &OrbitAnchor{
		baseModifier: baseModifier{name: name, active: true, priority: priority},
		Center:       center,
		Radius:       radius,
		Height:       height,
	}
}

// Tick advances the orbit angle from playback progress. Idempotent per frame.
func (m *OrbitAnchor) Tick(frame Frame) {
	if frame.ID == m.lastFrame && frame.ID != 0 {
		return
	}
	m.lastFrame = frame.ID
	revs := m.Revolutions
	if revs == 0 {
		revs = 1
	}
	m.angle = m.Phase + frame.Playback.Progress*revs*2*math.Pi
}

// Position returns the current point on the orbit. Fails when Radius is not
// positive, letting the orchestrator fall through to the next anchor.
func (m *OrbitAnchor) Position() (Vec3, error) {
	if m.Radius <= 0 {
		return Vec3{}, errors.New("orbit radius must be positive")
	}
	sin, cos := math.Sincos(m.angle)
	return Vec3{
		X: m.Center.X + cos*m.Radius,
		Y: m.Center.Y + m.Height,
		Z: m.Center.Z + sin*m.Radius,
	}, nil
}

// --- Function-backed sources ---

// FuncOffset adapts a plain function (gamepad poll, scripted wobble) into an
// offset modifier.
type FuncOffset struct {
	baseModifier
	scope OffsetScope
	fn    func() (OffsetVote, error)
}

// NewFuncOffset creates an active offset modifier backed by fn.
func NewFuncOffset(name string, scope OffsetScope, fn func() (OffsetVote, error)) *FuncOffset {
	return &FuncOffset{baseModifier: baseModifier{name: name, active: true}, scope: scope, fn: fn}
}

// Scope reports which derived positions the votes reach.
func (m *FuncOffset) Scope() OffsetScope { return m.scope }

// Offsets polls the backing function.
func (m *FuncOffset) Offsets() (OffsetVote, error) {
	return m.fn()
}

// FuncAnchor adapts a plain function into an anchor modifier.
type FuncAnchor struct {
	baseModifier
	fn func() (Vec3, error)
}

// NewFuncAnchor creates an active anchor modifier backed by fn.
func NewFuncAnchor(name string, priority float64, fn func() (Vec3, error)) *FuncAnchor {
	return &FuncAnchor{baseModifier: baseModifier{name: name, active: true, priority: priority}, fn: fn}
}

// Position polls the backing function.
func (m *FuncAnchor) Position() (Vec3, error) {
	return m.fn()
}

// FuncOrientation adapts a plain function into an orientation modifier.
type FuncOrientation struct {
	baseModifier
	fn func() (Orientation, error)
}

// NewFuncOrientation creates an active orientation modifier backed by fn.
func NewFuncOrientation(name string, priority float64, fn func() (Orientation, error)) *FuncOrientation {
	return &FuncOrientation{baseModifier: baseModifier{name: name, active: true, priority: priority}, fn: fn}
}

// Orientation polls the backing function.
func (m *FuncOrientation) Orientation() (Orientation, error) {
	return m.fn()
}
