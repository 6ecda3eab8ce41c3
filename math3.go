package diorama

import "math"

// rotateY rotates v around the vertical (Y) axis by angle radians.
func rotateY(v Vec3, angle float64) Vec3 {
	sin, cos := math.Sincos(angle)
	return Vec3{
		X: cos*v.X + sin*v.Z,
		Y: v.Y,
		Z: -sin*v.X + cos*v.Z,
	}
}

// rotateX rotates v around the horizontal (X) axis by angle radians.
func rotateX(v Vec3, angle float64) Vec3 {
	sin, cos := math.Sincos(angle)
	return Vec3{
		X: v.X,
		Y: cos*v.Y - sin*v.Z,
		Z: sin*v.Y + cos*v.Z,
	}
}

// rotateAxis rotates v around the unit axis by angle radians (Rodrigues).
func rotateAxis(v, axis Vec3, angle float64) Vec3 {
	sin, cos := math.Sincos(angle)
	dot := axis.X*v.X + axis.Y*v.Y + axis.Z*v.Z
	cross := Vec3{
		X: axis.Y*v.Z - axis.Z*v.Y,
		Y: axis.Z*v.X - axis.X*v.Z,
		Z: axis.X*v.Y - axis.Y*v.X,
	}
	return v.Scale(cos).Add(cross.Scale(sin)).Add(axis.Scale(dot * (1 - cos)))
}

// gazeVector converts an Orientation into the camera-relative look-at vector.
//
// Composition order: a forward vector of length Distance is rotated by yaw
// (around Y), then pitch (around X). Forward is (0, 0, -1): yaw 0 / pitch 0
// looks straight down -Z. Roll spins about the forward axis and cannot move
// the look-at point; it is carried on CameraState for backends that bank.
func gazeVector(o Orientation) Vec3 {
	fwd := Vec3{0, 0, -o.Distance}
	fwd = rotateY(fwd, o.Yaw)
	return rotateX(fwd, o.Pitch)
}

// clamp restricts v to [-limit, limit]. A limit <= 0 means unclamped.
func clamp(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return v
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// Map remaps v from the range [inMin, inMax] to [outMin, outMax] without
// clamping.
func Map(v, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMin
	}
	return outMin + (v-inMin)/(inMax-inMin)*(outMax-outMin)
}
