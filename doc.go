// Package diorama is a deterministic, frame-driven scene-state resolution
// engine.
//
// Diorama turns declarative, time-varying blueprints (whose properties may be
// literals or functions of scene time) into flat, renderer-ready snapshots
// once per frame, and combines competing, prioritized camera input sources
// (animation paths, head tracking, gamepads) into a single camera state.
// It computes what should be drawn and from where; it never rasterizes.
// Drawing is delegated to a [Backend] collaborator — a reference Ebitengine
// binding lives in the ebitenbackend subpackage.
//
// # Quick start
//
// Create a [Stage] from [Settings], register elements, and drive it with one
// tick per frame:
//
//	stage := diorama.NewStage(diorama.DefaultSettings(), loader)
//	stage.Register("hero", diorama.Blueprint{
//		Kind:       diorama.KindBillboard,
//		TextureRef: "hero.png",
//		Props: map[string]any{
//			"position": func(s *diorama.Snapshot) any {
//				return diorama.Vec3{X: 0, Y: 100 * s.Playback.Progress, Z: -400}
//			},
//			"size": 64.0,
//		},
//	})
//	stage.Frame(wallMillis, backend)
//
// # Pipeline
//
// Each frame runs synchronously: clock tick, camera orchestration (anchor →
// offsets → orientation), then per-element resolve → effects → far-plane cull
// → painter sort → backend dispatch. The only asynchronous work is asset
// hydration, which completes on its own schedule and flips per-asset handles
// atomically.
//
// # Camera modifiers
//
// Camera state is resolved from three independent modifier roles: anchors
// propose absolute positions by priority, offsets vote additive nudges per
// axis, and orientation modifiers propose gaze by priority. Failures degrade
// to the next candidate and are recorded in an opt-in audit trail; see
// [Orchestrator].
package diorama
