package diorama

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenAnchor animates the camera anchor between two positions over a fixed
// duration. Once finished it keeps proposing the destination, so it works as
// a persistent anchor, not a one-shot.
type TweenAnchor struct {
	baseModifier
	tweens    [3]*gween.Tween
	pos       Vec3
	lastFrame uint64
	Done      bool
}

// NewTweenAnchor creates an active anchor tweening from one position to
// another over duration seconds of scene time.
func NewTweenAnchor(name string, priority float64, from, to Vec3, duration float32, fn ease.TweenFunc) *TweenAnchor {
	m := &TweenAnchor{
		baseModifier: baseModifier{name: name, active: true, priority: priority},
		pos:          from,
	}
	m.tweens[0] = gween.New(float32(from.X), float32(to.X), duration, fn)
	m.tweens[1] = gween.New(float32(from.Y), float32(to.Y), duration, fn)
	m.tweens[2] = gween.New(float32(from.Z), float32(to.Z), duration, fn)
	return m
}

// Tick advances the tween by the frame's scaled delta. Idempotent per frame.
func (m *TweenAnchor) Tick(frame Frame) {
	if frame.ID == m.lastFrame && frame.ID != 0 {
		return
	}
	m.lastFrame = frame.ID
	if m.Done {
		return
	}
	dt := float32(frame.Playback.Delta / 1000)

	allDone := true
	vals := [3]float64{}
	for i, tw := range m.tweens {
		v, finished := tw.Update(dt)
		vals[i] = float64(v)
		if !finished {
			allDone = false
		}
	}
	m.pos = Vec3{X: vals[0], Y: vals[1], Z: vals[2]}
	m.Done = allDone
}

// Position returns the in-flight (or final) tweened position. Never fails.
func (m *TweenAnchor) Position() (Vec3, error) {
	return m.pos, nil
}

// TweenOrientation animates a gaze candidate's yaw, pitch, roll, and
// distance over a fixed duration.
type TweenOrientation struct {
	baseModifier
	tweens    [4]*gween.Tween
	gaze      Orientation
	lastFrame uint64
	Done      bool
}

// NewTweenOrientation creates an active orientation modifier tweening from
// one gaze to another over duration seconds of scene time.
func NewTweenOrientation(name string, priority float64, from, to Orientation, duration float32, fn ease.TweenFunc) *TweenOrientation {
	m := &TweenOrientation{
		baseModifier: baseModifier{name: name, active: true, priority: priority},
		gaze:         from,
	}
	m.tweens[0] = gween.New(float32(from.Yaw), float32(to.Yaw), duration, fn)
	m.tweens[1] = gween.New(float32(from.Pitch), float32(to.Pitch), duration, fn)
	m.tweens[2] = gween.New(float32(from.Roll), float32(to.Roll), duration, fn)
	m.tweens[3] = gween.New(float32(from.Distance), float32(to.Distance), duration, fn)
	return m
}

// Tick advances the tween by the frame's scaled delta. Idempotent per frame.
func (m *TweenOrientation) Tick(frame Frame) {
	if frame.ID == m.lastFrame && frame.ID != 0 {
		return
	}
	m.lastFrame = frame.ID
	if m.Done {
		return
	}
	dt := float32(frame.Playback.Delta / 1000)

	allDone := true
	vals := [4]float64{}
	for i, tw := range m.tweens {
		v, finished := tw.Update(dt)
		vals[i] = float64(v)
		if !finished {
			allDone = false
		}
	}
	m.gaze = Orientation{Yaw: vals[0], Pitch: vals[1], Roll: vals[2], Distance: vals[3]}
	m.Done = allDone
}

// Orientation returns the in-flight (or final) tweened gaze. Never fails.
func (m *TweenOrientation) Orientation() (Orientation, error) {
	return m.gaze, nil
}
