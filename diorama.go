package diorama

import "math"

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication, if any, is the backend's business.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// Vec3 is a 3D vector used for positions, offsets, and directions throughout
// the API. The coordinate system is right-handed with Y up; the camera looks
// down -Z by default.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 {
	return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z}
}

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 {
	return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z}
}

// Scale returns v scaled by s.
func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v.X * s, v.Y * s, v.Z * s}
}

// Dist returns the Euclidean distance between v and o.
func (v Vec3) Dist(o Vec3) float64 {
	dx, dy, dz := v.X-o.X, v.Y-o.Y, v.Z-o.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Orientation is a gaze candidate: yaw/pitch/roll in radians plus the
// distance from the camera to the look-at point.
type Orientation struct {
	Yaw, Pitch, Roll float64
	Distance         float64
}

// ElementKind distinguishes rendering behavior for an element. The set is
// closed: the backend implements one draw method per kind, and the stage
// dispatches over this enum.
type ElementKind uint8

const (
	KindBox       ElementKind = iota // axis-aligned cuboid
	KindSphere                       // UV sphere
	KindText                         // text rendered with a hydrated font
	KindPanel                        // flat textured quad
	KindCone                         // cone, apex up
	KindPyramid                      // four-sided pyramid
	KindCylinder                     // capped cylinder
	KindTorus                        // torus, ring in the XZ plane
	KindFloor                        // ground plane patch
	KindBillboard                    // camera-facing textured quad
)

// String returns the lowercase kind name used in diagnostics and scripts.
func (k ElementKind) String() string {
	switch k {
	case KindBox:
		return "box"
	case KindSphere:
		return "sphere"
	case KindText:
		return "text"
	case KindPanel:
		return "panel"
	case KindCone:
		return "cone"
	case KindPyramid:
		return "pyramid"
	case KindCylinder:
		return "cylinder"
	case KindTorus:
		return "torus"
	case KindFloor:
		return "floor"
	case KindBillboard:
		return "billboard"
	default:
		return "unknown"
	}
}

// kindFromString is the inverse of ElementKind.String. Used by the script
// driver. Returns KindBox, false for unrecognized names.
func kindFromString(s string) (ElementKind, bool) {
	for k := KindBox; k <= KindBillboard; k++ {
		if k.String() == s {
			return k, true
		}
	}
	return KindBox, false
}

// Snapshot is the immutable per-frame value every computed property, effect,
// and modifier reads from. It is rebuilt each frame and never mutated.
type Snapshot struct {
	// FrameID is a monotonic frame counter.
	FrameID uint64
	// Playback is the clock output for this frame.
	Playback Playback
	// Camera is the camera state resolved by the orchestrator this frame.
	Camera CameraState

	// previous maps element id to its resolved state from the prior frame,
	// for effects that need cross-element lookups. May be nil.
	previous map[string]Resolved
}

// Resolved returns the previous frame's resolved state for the given element
// id. The second return is false if the element was not resolved last frame.
func (s *Snapshot) Resolved(id string) (Resolved, bool) {
	r, ok := s.previous[id]
	return r, ok
}
