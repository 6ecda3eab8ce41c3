package diorama

import "errors"

// errAllSubsFailed is returned by chained and composite modifiers when no
// active sub-modifier produced a result, so the orchestrator's own fallback
// takes over.
var errAllSubsFailed = errors.New("no active sub-modifier succeeded")

// ChainedAnchor tries its sub-anchors in order and proposes the first
// success under the chain's own priority. Sub-modifier priorities are
// ignored; order in the chain is everything.
type ChainedAnchor struct {
	baseModifier
	subs []AnchorModifier
}

// NewChainedAnchor creates an active chain over the given sub-anchors.
func NewChainedAnchor(name string, priority float64, subs ...AnchorModifier) *ChainedAnchor {
	return &ChainedAnchor{baseModifier: baseModifier{name: name, active: true, priority: priority}, subs: subs}
}

// Tick forwards the frame to every sub-anchor.
func (m *ChainedAnchor) Tick(frame Frame) {
	for _, sub := range m.subs {
		sub.Tick(frame)
	}
}

// Position returns the first active sub-anchor's successful position.
func (m *ChainedAnchor) Position() (Vec3, error) {
	for _, sub := range m.subs {
		if !sub.Active() {
			continue
		}
		if pos, err := sub.Position(); err == nil {
			return pos, nil
		}
	}
	return Vec3{}, errAllSubsFailed
}

// ChainedOrientation tries its sub-modifiers in order and proposes the
// first successful gaze under the chain's own priority.
type ChainedOrientation struct {
	baseModifier
	subs []OrientationModifier
}

// NewChainedOrientation creates an active chain over the given sub-modifiers.
func NewChainedOrientation(name string, priority float64, subs ...OrientationModifier) *ChainedOrientation {
	return &ChainedOrientation{baseModifier: baseModifier{name: name, active: true, priority: priority}, subs: subs}
}

// Tick forwards the frame to every sub-modifier.
func (m *ChainedOrientation) Tick(frame Frame) {
	for _, sub := range m.subs {
		sub.Tick(frame)
	}
}

// Orientation returns the first active sub-modifier's successful gaze.
func (m *ChainedOrientation) Orientation() (Orientation, error) {
	for _, sub := range m.subs {
		if !sub.Active() {
			continue
		}
		if gaze, err := sub.Orientation(); err == nil {
			return gaze, nil
		}
	}
	return Orientation{}, errAllSubsFailed
}

// CombineMode selects how a composite merges its sub-results.
type CombineMode uint8

const (
	// CombineSum adds all successful sub-results field by field.
	CombineSum CombineMode = iota
	// CombineWeighted averages successful sub-results per field using each
	// sub's configured weights.
	CombineWeighted
)

// OrientationWeights are per-field averaging weights for one sub-modifier
// in a CombineWeighted composite.
type OrientationWeights struct {
	Yaw, Pitch, Roll, Distance float64
}

// RotationLimits clamp the combined yaw/pitch/roll to [-limit, limit].
// A zero or negative limit leaves that field unclamped.
type RotationLimits struct {
	Yaw, Pitch, Roll float64
}

type weightedSub struct {
	mod     OrientationModifier
	weights OrientationWeights
}

// CompositeOrientation merges all active sub-results into one gaze: either
// a plain sum or a per-field weighted average, then clamped to Limits.
// Layering a slow ambient sway under head tracking is the typical use.
type CompositeOrientation struct {
	baseModifier
	Mode   CombineMode
	Limits RotationLimits
	subs   []weightedSub
}

// NewCompositeOrientation creates an active composite with no sub-modifiers.
func NewCompositeOrientation(name string, priority float64, mode CombineMode, limits RotationLimits) *CompositeOrientation {
	return &CompositeOrientation{
		baseModifier: baseModifier{name: name, active: true, priority: priority},
		Mode:         mode,
		Limits:       limits,
	}
}

// Add appends a sub-modifier with weight 1 on every field.
func (m *CompositeOrientation) Add(sub OrientationModifier) {
	m.AddWeighted(sub, OrientationWeights{Yaw: 1, Pitch: 1, Roll: 1, Distance: 1})
}

// AddWeighted appends a sub-modifier with explicit per-field weights.
// Weights are ignored in CombineSum mode.
func (m *CompositeOrientation) AddWeighted(sub OrientationModifier, weights OrientationWeights) {
	m.subs = append(m.subs, weightedSub{mod: sub, weights: weights})
}

// Tick forwards the frame to every sub-modifier.
func (m *CompositeOrientation) Tick(frame Frame) {
	for _, sub := range m.subs {
		sub.mod.Tick(frame)
	}
}

// Orientation combines all active, successful sub-results. Fails when none
// succeed so the orchestrator can fall through.
func (m *CompositeOrientation) Orientation() (Orientation, error) {
	var sum Orientation
	var wsum OrientationWeights
	succeeded := false

	for _, sub := range m.subs {
		if !sub.mod.Active() {
			continue
		}
		gaze, err := sub.mod.Orientation()
		if err != nil {
			continue
		}
		succeeded = true
		switch m.Mode {
		case CombineWeighted:
			sum.Yaw += gaze.Yaw * sub.weights.Yaw
			sum.Pitch += gaze.Pitch * sub.weights.Pitch
			sum.Roll += gaze.Roll * sub.weights.Roll
			sum.Distance += gaze.Distance * sub.weights.Distance
			wsum.Yaw += sub.weights.Yaw
			wsum.Pitch += sub.weights.Pitch
			wsum.Roll += sub.weights.Roll
			wsum.Distance += sub.weights.Distance
		default:
			sum.Yaw += gaze.Yaw
			sum.Pitch += gaze.Pitch
			sum.Roll += gaze.Roll
			sum.Distance += gaze.Distance
		}
	}
	if !succeeded {
		return Orientation{}, errAllSubsFailed
	}

	if m.Mode == CombineWeighted {
		if wsum.Yaw != 0 {
			sum.Yaw /= wsum.Yaw
		}
		if wsum.Pitch != 0 {
			sum.Pitch /= wsum.Pitch
		}
		if wsum.Roll != 0 {
			sum.Roll /= wsum.Roll
		}
		if wsum.Distance != 0 {
			sum.Distance /= wsum.Distance
		}
	}

	sum.Yaw = clamp(sum.Yaw, m.Limits.Yaw)
	sum.Pitch = clamp(sum.Pitch, m.Limits.Pitch)
	sum.Roll = clamp(sum.Roll, m.Limits.Roll)
	return sum, nil
}
