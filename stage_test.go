package diorama

import (
	"errors"
	"strings"
	"testing"
)

// recordBackend records the element ids handed to draw calls, in order.
type recordBackend struct {
	drawn []string
	kinds []ElementKind
}

func (b *recordBackend) record(r Resolved) {
	b.drawn = append(b.drawn, r.ID)
	b.kinds = append(b.kinds, r.Kind)
}

func (b *recordBackend) DrawBox(r Resolved, _ AssetSet, _ *Snapshot)       { b.record(r) }
func (b *recordBackend) DrawSphere(r Resolved, _ AssetSet, _ *Snapshot)    { b.record(r) }
func (b *recordBackend) DrawText(r Resolved, _ AssetSet, _ *Snapshot)      { b.record(r) }
func (b *recordBackend) DrawPanel(r Resolved, _ AssetSet, _ *Snapshot)     { b.record(r) }
func (b *recordBackend) DrawCone(r Resolved, _ AssetSet, _ *Snapshot)      { b.record(r) }
func (b *recordBackend) DrawPyramid(r Resolved, _ AssetSet, _ *Snapshot)   { b.record(r) }
func (b *recordBackend) DrawCylinder(r Resolved, _ AssetSet, _ *Snapshot)  { b.record(r) }
func (b *recordBackend) DrawTorus(r Resolved, _ AssetSet, _ *Snapshot)     { b.record(r) }
func (b *recordBackend) DrawFloor(r Resolved, _ AssetSet, _ *Snapshot)     { b.record(r) }
func (b *recordBackend) DrawBillboard(r Resolved, _ AssetSet, _ *Snapshot) { b.record(r) }
func (b *recordBackend) Push()                                             {}
func (b *recordBackend) Pop()                                              {}
func (b *recordBackend) Translate(Vec3)                                    {}
func (b *recordBackend) Rotate(Vec3, float64)                              {}
func (b *recordBackend) ApplyColor(Color)                                  {}

func testStage() *Stage {
	return NewStage(DefaultSettings(), nil)
}

func TestFramePainterOrderFarthestFirst(t *testing.T) {
	st := testStage()
	st.Register("near", Blueprint{Kind: KindBox, Props: map[string]any{
		"position": Vec3{Z: -50},
	}})
	st.Register("far", Blueprint{Kind: KindBox, Props: map[string]any{
		"position": Vec3{Z: -500},
	}})

	backend := &recordBackend{}
	if err := st.Frame(0, backend); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	want := []string{"far", "near"}
	if len(backend.drawn) != 2 || backend.drawn[0] != want[0] || backend.drawn[1] != want[1] {
		t.Errorf("draw order = %v, want %v", backend.drawn, want)
	}
}

func TestFrameEqualDistanceKeepsRegistrationOrder(t *testing.T) {
	st := testStage()
	for _, id := range []string{"a", "b", "c"} {
		st.Register(id, Blueprint{Kind: KindBox, Props: map[string]any{
			"position": Vec3{Z: -100},
		}})
	}

	backend := &recordBackend{}
	if err := st.Frame(0, backend); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	if got := strings.Join(backend.drawn, ""); got != "abc" {
		t.Errorf("draw order = %v, want registration order on ties", backend.drawn)
	}
}

func TestFrameFarPlaneCull(t *testing.T) {
	st := testStage()
	st.Configure(Overrides{Camera: &CameraOverrides{Far: Ptr(1000.0)}})
	st.Register("visible", Blueprint{Kind: KindBox, Props: map[string]any{
		"position": Vec3{Z: -500},
	}})
	st.Register("beyond", Blueprint{Kind: KindBox, Props: map[string]any{
		"position": Vec3{Z: -5000},
	}})

	backend := &recordBackend{}
	if err := st.Frame(0, backend); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	if len(backend.drawn) != 1 || backend.drawn[0] != "visible" {
		t.Errorf("drawn = %v, want only the element inside the far plane", backend.drawn)
	}
	// Culled elements are still resolved: the next frame's previous map must
	// carry them for cross-element effects.
	if _, ok := st.prevResolved["beyond"]; !ok {
		t.Error("culled element missing from the previous-frame map")
	}
}

func TestFrameEffectErrorAborts(t *testing.T) {
	st := testStage()
	st.Effects().Register(Effect{
		Type: "boom",
		Apply: func(current Resolved, snap *Snapshot, settings EffectSettings) (Resolved, error) {
			return current, errors.New("bad setting")
		},
	})
	st.Register("a", Blueprint{
		Kind:    KindBox,
		Effects: []EffectInstruction{{Type: "boom"}},
		Props:   map[string]any{"position": Vec3{Z: -100}},
	})

	backend := &recordBackend{}
	if err := st.Frame(0, backend); err == nil {
		t.Fatal("Frame returned nil, want the effect error")
	}
	if len(backend.drawn) != 0 {
		t.Errorf("drawn = %v, want no emission after an effect error", backend.drawn)
	}
}

func TestFrameGlobalAlpha(t *testing.T) {
	st := testStage()
	st.Configure(Overrides{GlobalAlpha: Ptr(0.5)})
	st.Register("a", Blueprint{Kind: KindBox, Props: map[string]any{
		"position": Vec3{Z: -100},
		"alpha":    0.8,
	}})
	st.Register("b", Blueprint{Kind: KindBox, Props: map[string]any{
		"position": Vec3{Z: -200},
	}})

	if err := st.Frame(0, nil); err != nil {
		t.Fatalf("Frame: %v", err)
	}

	if got := st.prevResolved["a"].Float("alpha"); !approxEqual(got, 0.4, epsilon) {
		t.Errorf("alpha = %f, want 0.8 * 0.5", got)
	}
	if got := st.prevResolved["b"].Float("alpha"); !approxEqual(got, 0.5, epsilon) {
		t.Errorf("alpha = %f, want implicit 1 * 0.5", got)
	}
}

func TestFrameDefaultEffectsRunFirst(t *testing.T) {
	st := testStage()
	st.Configure(Overrides{DefaultEffects: []EffectInstruction{
		{Type: "progress-fade", Settings: EffectSettings{"from": 0.1, "to": 0.1}},
	}})
	st.Register("a", Blueprint{
		Kind: KindBox,
		// The element's own effect runs after the default and overwrites it.
		Effects: []EffectInstruction{
			{Type: "progress-fade", Settings: EffectSettings{"from": 0.9, "to": 0.9}},
		},
		Props: map[string]any{"position": Vec3{Z: -100}},
	})

	if err := st.Frame(0, nil); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if got := st.prevResolved["a"].Float("alpha"); !approxEqual(got, 0.9, epsilon) {
		t.Errorf("alpha = %f, want the element effect to run last", got)
	}
}

func TestFramePauseFreezesSceneTime(t *testing.T) {
	st := testStage()

	if err := st.Frame(0, nil); err != nil {
		t.Fatal(err)
	}
	if err := st.Frame(1000, nil); err != nil {
		t.Fatal(err)
	}
	if !approxEqual(st.Playback().Now, 1000, epsilon) {
		t.Fatalf("Now = %f, want 1000", st.Playback().Now)
	}

	st.SetPaused(true)
	if err := st.Frame(2000, nil); err != nil {
		t.Fatal(err)
	}
	frozen := st.Playback().Now
	if err := st.Frame(3000, nil); err != nil {
		t.Fatal(err)
	}
	if st.Playback().Now != frozen {
		t.Errorf("Now advanced to %f while paused", st.Playback().Now)
	}
	if !st.Paused() {
		t.Error("Paused() = false after SetPaused(true) took effect")
	}

	st.SetPaused(false)
	if err := st.Frame(4000, nil); err != nil {
		t.Fatal(err)
	}
	resumed := st.Playback().Now
	if err := st.Frame(4500, nil); err != nil {
		t.Fatal(err)
	}
	if got := st.Playback().Now - resumed; !approxEqual(got, 500, epsilon) {
		t.Errorf("scene time advanced %f across the post-resume frame, want 500", got)
	}
}

func TestFrameStartPausedSetting(t *testing.T) {
	settings := DefaultSettings()
	settings.Playback.Paused = true
	st := NewStage(settings, nil)

	if err := st.Frame(0, nil); err != nil {
		t.Fatal(err)
	}
	if err := st.Frame(1000, nil); err != nil {
		t.Fatal(err)
	}
	if st.Playback().Now != 0 {
		t.Errorf("Now = %f, want 0 while start-paused", st.Playback().Now)
	}
}

func TestFrameSnapshotSeesPreviousFrame(t *testing.T) {
	st := testStage()
	st.Register("anchor", Blueprint{Kind: KindBox, Props: map[string]any{
		"position": Vec3{X: 42, Z: -100},
	}})

	var seen Vec3
	var found bool
	st.Register("watcher", Blueprint{Kind: KindBox, Props: map[string]any{
		"position": PropFunc(func(snap *Snapshot) any {
			if prev, ok := snap.Resolved("anchor"); ok {
				found = true
				seen = prev.Position()
			}
			return Vec3{Z: -100}
		}),
	}})

	if err := st.Frame(0, nil); err != nil {
		t.Fatal(err)
	}
	if found {
		t.Fatal("previous-frame lookup succeeded on the first frame")
	}
	if err := st.Frame(16, nil); err != nil {
		t.Fatal(err)
	}
	if !found || seen.X != 42 {
		t.Errorf("previous lookup = %v %+v, want the prior frame's anchor", found, seen)
	}
}

func TestFrameNilBackendHeadless(t *testing.T) {
	st := testStage()
	st.Register("a", Blueprint{Kind: KindBox, Props: map[string]any{
		"position": Vec3{Z: -100},
	}})

	if err := st.Frame(0, nil); err != nil {
		t.Fatalf("Frame: %v", err)
	}
	if _, ok := st.prevResolved["a"]; !ok {
		t.Error("headless frame did not resolve elements")
	}
}

func TestRemoveStopsEmission(t *testing.T) {
	st := testStage()
	st.Register("a", Blueprint{Kind: KindBox, Props: map[string]any{
		"position": Vec3{Z: -100},
	}})

	backend := &recordBackend{}
	if err := st.Frame(0, backend); err != nil {
		t.Fatal(err)
	}
	st.Remove("a")
	if err := st.Frame(16, backend); err != nil {
		t.Fatal(err)
	}

	if len(backend.drawn) != 1 {
		t.Errorf("draw calls = %d, want 1 (removed element no longer emits)", len(backend.drawn))
	}
	if _, ok := st.Lookup("a"); ok {
		t.Error("Lookup found a removed element")
	}
}

func TestDispatchRoutesByKind(t *testing.T) {
	st := testStage()
	st.Register("s", Blueprint{Kind: KindSphere, Props: map[string]any{
		"position": Vec3{Z: -100},
	}})

	backend := &recordBackend{}
	if err := st.Frame(0, backend); err != nil {
		t.Fatal(err)
	}
	if len(backend.kinds) != 1 || backend.kinds[0] != KindSphere {
		t.Errorf("kinds = %v, want [sphere]", backend.kinds)
	}
}
