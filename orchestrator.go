package diorama

import "sort"

// CameraState is the camera/eye transform resolved for one frame. It is a
// value: the orchestrator returns a fresh one each frame and never mutates
// the previous.
//
// Position is the camera anchor plus camera-scope offsets. Eye additionally
// includes eye-only offsets (head nudges) and feeds off-axis projection;
// backends that do not project off-axis can ignore it.
type CameraState struct {
	Position    Vec3
	Eye         Vec3
	LookAt      Vec3
	Orientation Orientation
}

// Up returns the camera's up vector: world Y rotated by yaw and pitch, then
// rolled about the forward axis.
func (c CameraState) Up() Vec3 {
	up := rotateX(rotateY(Vec3{Y: 1}, c.Orientation.Yaw), c.Orientation.Pitch)
	if c.Orientation.Roll == 0 {
		return up
	}
	fwd := c.LookAt.Sub(c.Position)
	dist := fwd.Dist(Vec3{})
	if dist == 0 {
		return up
	}
	return rotateAxis(up, fwd.Scale(1/dist), c.Orientation.Roll)
}

// initialCamName is the sentinel recorded in the audit trail when every
// anchor failed (or none exist) and the configured initial camera position
// was used.
const initialCamName = "initialCam"

// defaultGazeName is the sentinel recorded when orientation fell back to
// straight-ahead at the default distance.
const defaultGazeName = "defaultGaze"

// ModifierError is one failed modifier call, in call order.
type ModifierError struct {
	Name    string
	Message string
}

// OffsetRecord is one successful offset vote.
type OffsetRecord struct {
	Name  string
	Scope OffsetScope
	Vote  OffsetVote
}

// AuditLog is the opt-in per-frame diagnostics record. It is read by
// external tooling and never affects behavior. When debugging is off the
// orchestrator does not touch it at all.
type AuditLog struct {
	FrameID uint64

	AnchorWinner   string
	AnchorPriority float64
	AnchorPos      Vec3

	OffsetVotes []OffsetRecord

	OrientationWinner   string
	OrientationPriority float64
	Orientation         Orientation

	// Failures lists every modifier call that failed this frame, in the
	// order the calls were made.
	Failures []ModifierError
}

type anchorEntry struct {
	mod   AnchorModifier
	index int
}

type offsetEntry struct {
	mod   OffsetModifier
	index int
}

type orientationEntry struct {
	mod   OrientationModifier
	index int
}

// Orchestrator combines competing camera input sources into one CameraState
// per frame, in three independent stages: anchor selection, offset
// averaging, orientation selection.
type Orchestrator struct {
	anchors      []anchorEntry
	offsets      []offsetEntry
	orientations []orientationEntry
	regCount     int

	initialCamera   Vec3
	defaultDistance float64

	debug bool
	log   AuditLog
}

// NewOrchestrator creates an orchestrator. initialCamera is the fallback
// camera position when every anchor fails; defaultDistance is the
// straight-ahead gaze distance when every orientation modifier fails.
func NewOrchestrator(initialCamera Vec3, defaultDistance float64) *Orchestrator {
	return &Orchestrator{
		initialCamera:   initialCamera,
		defaultDistance: defaultDistance,
	}
}

// SetDebug enables or disables audit logging. Off by default; the resolve
// path records nothing while off.
func (o *Orchestrator) SetDebug(enabled bool) {
	o.debug = enabled
}

// Log returns the audit record of the most recent Resolve. Only meaningful
// while debug is enabled.
func (o *Orchestrator) Log() *AuditLog {
	return &o.log
}

// AddAnchor registers an anchor modifier. Registration order breaks
// priority ties: first added wins.
func (o *Orchestrator) AddAnchor(mod AnchorModifier) {
	o.anchors = append(o.anchors, anchorEntry{mod: mod, index: o.regCount})
	o.regCount++
}

// AddOffset registers an offset modifier.
func (o *Orchestrator) AddOffset(mod OffsetModifier) {
	o.offsets = append(o.offsets, offsetEntry{mod: mod, index: o.regCount})
	o.regCount++
}

// AddOrientation registers an orientation modifier. Registration order
// breaks priority ties.
func (o *Orchestrator) AddOrientation(mod OrientationModifier) {
	o.orientations = append(o.orientations, orientationEntry{mod: mod, index: o.regCount})
	o.regCount++
}

// Remove drops every modifier registered under the given name.
func (o *Orchestrator) Remove(name string) {
	anchors := o.anchors[:0]
	for _, e := range o.anchors {
		if e.mod.Name() != name {
			anchors = append(anchors, e)
		}
	}
	o.anchors = anchors

	offsets := o.offsets[:0]
	for _, e := range o.offsets {
		if e.mod.Name() != name {
			offsets = append(offsets, e)
		}
	}
	o.offsets = offsets

	orientations := o.orientations[:0]
	for _, e := range o.orientations {
		if e.mod.Name() != name {
			orientations = append(orientations, e)
		}
	}
	o.orientations = orientations
}

// Resolve ticks every modifier once, then runs the three stages and returns
// the frame's camera state.
func (o *Orchestrator) Resolve(frame Frame) CameraState {
	if o.debug {
		o.log = AuditLog{FrameID: frame.ID}
	}

	for _, e := range o.anchors {
		e.mod.Tick(frame)
	}
	for _, e := range o.offsets {
		e.mod.Tick(frame)
	}
	for _, e := range o.orientations {
		e.mod.Tick(frame)
	}

	anchor := o.resolveAnchor()
	camOffset, eyeOffset := o.resolveOffsets()
	position := anchor.Add(camOffset)
	eye := anchor.Add(eyeOffset)
	gaze := o.resolveOrientation()

	return CameraState{
		Position:    position,
		Eye:         eye,
		LookAt:      position.Add(gazeVector(gaze)),
		Orientation: gaze,
	}
}

// resolveAnchor selects the highest-priority active anchor whose Position
// call succeeds; ties go to the first registered. Falls back to the initial
// camera position under the sentinel name.
func (o *Orchestrator) resolveAnchor() Vec3 {
	order := make([]anchorEntry, 0, len(o.anchors))
	for _, e := range o.anchors {
		if e.mod.Active() {
			order = append(order, e)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].mod.Priority() != order[j].mod.Priority() {
			return order[i].mod.Priority() > order[j].mod.Priority()
		}
		return order[i].index < order[j].index
	})

	for _, e := range order {
		pos, err := e.mod.Position()
		if err != nil {
			o.recordFailure(e.mod.Name(), err)
			continue
		}
		if o.debug {
			o.log.AnchorWinner = e.mod.Name()
			o.log.AnchorPriority = e.mod.Priority()
			o.log.AnchorPos = pos
		}
		return pos
	}

	if o.debug {
		o.log.AnchorWinner = initialCamName
		o.log.AnchorPos = o.initialCamera
	}
	return o.initialCamera
}

// resolveOffsets averages votes per axis over only the modifiers that voted
// on that axis; axes with zero voters stay 0. Camera-scope votes reach both
// results, eye-only votes reach only the eye.
func (o *Orchestrator) resolveOffsets() (camera, eye Vec3) {
	var camSum, eyeSum Vec3
	var camVotes, eyeVotes [3]int

	tally := func(sum *Vec3, votes *[3]int, v OffsetVote) {
		if v.X.Voted {
			sum.X += v.X.Value
			votes[0]++
		}
		if v.Y.Voted {
			sum.Y += v.Y.Value
			votes[1]++
		}
		if v.Z.Voted {
			sum.Z += v.Z.Value
			votes[2]++
		}
	}

	for _, e := range o.offsets {
		if !e.mod.Active() {
			continue
		}
		vote, err := e.mod.Offsets()
		if err != nil {
			o.recordFailure(e.mod.Name(), err)
			continue
		}
		if e.mod.Scope() == ScopeCamera {
			tally(&camSum, &camVotes, vote)
		}
		tally(&eyeSum, &eyeVotes, vote)
		if o.debug {
			o.log.OffsetVotes = append(o.log.OffsetVotes, OffsetRecord{
				Name:  e.mod.Name(),
				Scope: e.mod.Scope(),
				Vote:  vote,
			})
		}
	}

	mean := func(sum Vec3, votes [3]int) Vec3 {
		out := Vec3{}
		if votes[0] > 0 {
			out.X = sum.X / float64(votes[0])
		}
		if votes[1] > 0 {
			out.Y = sum.Y / float64(votes[1])
		}
		if votes[2] > 0 {
			out.Z = sum.Z / float64(votes[2])
		}
		return out
	}
	return mean(camSum, camVotes), mean(eyeSum, eyeVotes)
}

// resolveOrientation selects a gaze with the same priority/first-success/
// insertion-tie-break rule as anchors, defaulting to straight-ahead at the
// configured distance.
func (o *Orchestrator) resolveOrientation() Orientation {
	order := make([]orientationEntry, 0, len(o.orientations))
	for _, e := range o.orientations {
		if e.mod.Active() {
			order = append(order, e)
		}
	}
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].mod.Priority() != order[j].mod.Priority() {
			return order[i].mod.Priority() > order[j].mod.Priority()
		}
		return order[i].index < order[j].index
	})

	for _, e := range order {
		gaze, err := e.mod.Orientation()
		if err != nil {
			o.recordFailure(e.mod.Name(), err)
			continue
		}
		if o.debug {
			o.log.OrientationWinner = e.mod.Name()
			o.log.OrientationPriority = e.mod.Priority()
			o.log.Orientation = gaze
		}
		return gaze
	}

	fallback := Orientation{Distance: o.defaultDistance}
	if o.debug {
		o.log.OrientationWinner = defaultGazeName
		o.log.Orientation = fallback
	}
	return fallback
}

func (o *Orchestrator) recordFailure(name string, err error) {
	if !o.debug {
		return
	}
	o.log.Failures = append(o.log.Failures, ModifierError{Name: name, Message: err.Error()})
}
