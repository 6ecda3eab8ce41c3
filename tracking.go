package diorama

import "errors"

// TrackingStatus is the face-tracking driver's lifecycle state.
type TrackingStatus uint8

const (
	TrackingIdle TrackingStatus = iota
	TrackingInitializing
	TrackingReady
	TrackingError
	TrackingDisconnected
)

// String returns the status name used in diagnostics.
func (s TrackingStatus) String() string {
	switch s {
	case TrackingIdle:
		return "idle"
	case TrackingInitializing:
		return "initializing"
	case TrackingReady:
		return "ready"
	case TrackingError:
		return "error"
	case TrackingDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

// FaceGeometry is one tracked head sample: position relative to the screen
// center in scene units, and head rotation in radians.
type FaceGeometry struct {
	Position         Vec3
	Yaw, Pitch, Roll float64
}

// TrackingProvider is the face-tracking hardware collaborator. Init kicks
// off asynchronous driver startup and reports completion on the returned
// channel. Face must be non-blocking; it returns nil when no face is
// currently tracked.
type TrackingProvider interface {
	Init() <-chan error
	Face() *FaceGeometry
	Status() TrackingStatus
}

// TrackingSource polls a provider at most once per frame and shares the
// sample between the offset and orientation modifiers built on it.
type TrackingSource struct {
	provider  TrackingProvider
	lastFrame uint64
	sampled   bool
	face      *FaceGeometry
}

// NewTrackingSource wraps a provider for per-frame sampling.
func NewTrackingSource(provider TrackingProvider) *TrackingSource {
	return &TrackingSource{provider: provider}
}

// sample polls the provider once for the given frame and caches the result
// for every modifier sharing this source.
func (s *TrackingSource) sample(frame Frame) *FaceGeometry {
	if s.sampled && frame.ID == s.lastFrame {
		return s.face
	}
	s.sampled = true
	s.lastFrame = frame.ID

	if s.provider.Status() != TrackingReady {
		s.face = nil
		return nil
	}
	s.face = s.provider.Face()
	return s.face
}

var errNoFace = errors.New("tracking: no face available")

// TrackingOffset turns head position into per-axis eye nudges for off-axis
// projection. By default it is eye-only scoped: the camera anchor stays put
// while the projection eye follows the viewer's head.
type TrackingOffset struct {
	baseModifier
	source *TrackingSource
	scope  OffsetScope

	// Scale converts face-space units into scene units per axis.
	Scale Vec3
	// VoteX/VoteY/VoteZ select which axes this modifier votes on.
	VoteX, VoteY, VoteZ bool

	face *FaceGeometry
}

// NewTrackingOffset creates an active head-position offset modifier voting
// on X and Y with the given scale.
func NewTrackingOffset(name string, source *TrackingSource, scale Vec3) *TrackingOffset {
	return &TrackingOffset{
		baseModifier: baseModifier{name: name, active: true},
		source:       source,
		scope:        ScopeEyeOnly,
		Scale:        scale,
		VoteX:        true,
		VoteY:        true,
	}
}

// SetScope switches between eye-only and camera scope.
func (m *TrackingOffset) SetScope(scope OffsetScope) { m.scope = scope }

// Scope reports which derived positions the votes reach.
func (m *TrackingOffset) Scope() OffsetScope { return m.scope }

// Tick samples the shared source once per frame.
func (m *TrackingOffset) Tick(frame Frame) {
	m.face = m.source.sample(frame)
}

// Offsets votes the scaled head position on the enabled axes. Fails when no
// face is tracked, so the axes simply go unvoted.
func (m *TrackingOffset) Offsets() (OffsetVote, error) {
	if m.face == nil {
		return OffsetVote{}, errNoFace
	}
	var vote OffsetVote
	if m.VoteX {
		vote.X = Vote(m.face.Position.X * m.Scale.X)
	}
	if m.VoteY {
		vote.Y = Vote(m.face.Position.Y * m.Scale.Y)
	}
	if m.VoteZ {
		vote.Z = Vote(m.face.Position.Z * m.Scale.Z)
	}
	return vote, nil
}

// TrackingOrientation turns head rotation into a gaze candidate, typically
// registered above an ambient orbit so a tracked viewer takes over the
// camera and loss of tracking falls back cleanly.
type TrackingOrientation struct {
	baseModifier
	source *TrackingSource

	// Gain scales head yaw/pitch/roll into camera gaze angles.
	Gain float64
	// Distance is the gaze distance to propose.
	Distance float64

	face *FaceGeometry
}

// NewTrackingOrientation creates an active head-rotation gaze modifier.
func NewTrackingOrientation(name string, priority float64, source *TrackingSource, gain, distance float64) *TrackingOrientation {
	return &TrackingOrientation{
		baseModifier: baseModifier{name: name, active: true, priority: priority},
		source:       source,
		Gain:         gain,
		Distance:     distance,
	}
}

// Tick samples the shared source once per frame.
func (m *TrackingOrientation) Tick(frame Frame) {
	m.face = m.source.sample(frame)
}

// Orientation maps the tracked head rotation into a gaze. Fails when no
// face is tracked.
func (m *TrackingOrientation) Orientation() (Orientation, error) {
	if m.face == nil {
		return Orientation{}, errNoFace
	}
	return Orientation{
		Yaw:      m.face.Yaw * m.Gain,
		Pitch:    m.face.Pitch * m.Gain,
		Roll:     m.face.Roll * m.Gain,
		Distance: m.Distance,
	}, nil
}
