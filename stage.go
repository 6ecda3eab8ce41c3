package diorama

import (
	"fmt"
	"os"
	"time"
)

// Bundle is one element's per-frame output: the resolved properties, its
// asset handles, and the camera distance used for painter ordering.
type Bundle struct {
	Resolved Resolved
	Assets   AssetSet
	Distance float64

	order int // registration order, painter-sort tie-break
}

const defaultBundleCap = 256

// Stage is the frame scheduler: it owns the clock, the camera orchestrator,
// the element registry, and the effect library, and turns all of them into
// one back-to-front stream of bundles per frame.
//
// Scheduling is single-threaded and cooperative: one external tick drives
// the whole pipeline synchronously via Frame. Asset hydration is the only
// concurrent work and never blocks a frame.
type Stage struct {
	settings     Settings
	clock        *Clock
	orchestrator *Orchestrator
	registry     *Registry
	effects      *EffectRegistry

	frameID      uint64
	playback     Playback
	lastWall     float64
	started      bool
	pendingPause *bool

	prevResolved map[string]Resolved

	drawBuf []Bundle
	sortBuf []Bundle

	debug bool
}

// NewStage creates a stage from settings and an asset loader (nil for
// scenes without asset references).
func NewStage(settings Settings, loader Loader) *Stage {
	st := &Stage{
		settings:     settings,
		clock:        NewClock(settings.Playback.TimeSpeed, settings.Playback.Duration, settings.Playback.StartAt),
		orchestrator: NewOrchestrator(settings.Camera.Initial, settings.Camera.DefaultDistance),
		registry:     NewRegistry(loader),
		effects:      NewEffectRegistry(),
		pendingPause: startPaused(settings),
		drawBuf:      make([]Bundle, 0, defaultBundleCap),
		debug:        settings.Debug,
	}
	st.orchestrator.SetDebug(settings.Debug)
	return st
}

func startPaused(settings Settings) *bool {
	if !settings.Playback.Paused {
		return nil
	}
	paused := true
	return &paused
}

// Settings returns the stage's current configuration.
func (st *Stage) Settings() Settings {
	return st.settings
}

// Configure applies a deep-partial settings override. Playback fields feed
// the clock only through a freshly created stage; live reconfiguration
// covers camera fallbacks, culling, debug, and global alpha.
func (st *Stage) Configure(o Overrides) {
	st.settings = st.settings.Merge(o)
	st.debug = st.settings.Debug
	st.orchestrator.initialCamera = st.settings.Camera.Initial
	st.orchestrator.defaultDistance = st.settings.Camera.DefaultDistance
	if o.Playback != nil && o.Playback.Paused != nil {
		st.SetPaused(*o.Playback.Paused)
	}
	if o.Debug != nil {
		st.orchestrator.SetDebug(*o.Debug)
	}
}

// Orchestrator returns the camera pipeline for modifier registration.
func (st *Stage) Orchestrator() *Orchestrator {
	return st.orchestrator
}

// Effects returns the effect library for custom registrations.
func (st *Stage) Effects() *EffectRegistry {
	return st.effects
}

// Register adds an element under id. Registering an existing id returns the
// existing element unchanged with no new hydration work.
func (st *Stage) Register(id string, bp Blueprint) *Element {
	return st.registry.Register(id, bp)
}

// Remove deletes an element. Subsequent lookups report not-found.
func (st *Stage) Remove(id string) {
	st.registry.Remove(id)
}

// Lookup returns the element registered under id.
func (st *Stage) Lookup(id string) (*Element, bool) {
	return st.registry.Lookup(id)
}

// SetPaused requests a pause state change. It takes effect at the start of
// the next Frame, which supplies the wall-clock time the clock needs.
func (st *Stage) SetPaused(paused bool) {
	st.pendingPause = &paused
}

// Paused reports the clock's current pause state.
func (st *Stage) Paused() bool {
	return st.clock.Paused()
}

// Playback returns the most recent clock output.
func (st *Stage) Playback() Playback {
	return st.playback
}

// Frame runs one full pipeline pass at the given wall-clock time: clock
// tick, camera orchestration, then per-element resolve → effects → far-plane
// cull → painter sort → backend dispatch. A nil backend runs the whole
// pipeline but emits nothing (useful for headless runs).
//
// The returned error is an effect evaluation failure, which is a
// configuration error and aborts the remainder of the frame's emission.
func (st *Stage) Frame(wallMillis float64, backend Backend) error {
	st.frameID++

	var deltaMillis float64
	if st.started {
		deltaMillis = wallMillis - st.lastWall
	}
	st.started = true
	st.lastWall = wallMillis

	if st.pendingPause != nil {
		if *st.pendingPause {
			st.clock.Pause(wallMillis)
		} else {
			st.clock.Resume(wallMillis)
		}
		st.pendingPause = nil
	}

	st.playback = st.clock.Tick(wallMillis, deltaMillis, st.frameID, st.playback)
	frame := Frame{ID: st.frameID, Playback: st.playback}

	camera := st.orchestrator.Resolve(frame)
	snap := &Snapshot{
		FrameID:  st.frameID,
		Playback: st.playback,
		Camera:   camera,
		previous: st.prevResolved,
	}

	var stats stageStats
	var t0 time.Time
	if st.debug {
		t0 = time.Now()
	}

	st.drawBuf = st.drawBuf[:0]
	next := make(map[string]Resolved, st.registry.Len())

	for _, el := range st.registry.Elements() {
		resolved := el.tree.Resolve(snap)

		resolved, err := st.effects.Apply(resolved, snap, st.instructionsFor(resolved))
		if err != nil {
			return err
		}
		if st.settings.GlobalAlpha != 1 {
			resolved = resolved.withProp("alpha", resolved.FloatOr("alpha", 1)*st.settings.GlobalAlpha)
		}
		next[el.id] = resolved

		// Culling happens post-resolution: skipped elements still paid the
		// resolve and effect cost, and still land in the previous-frame map.
		dist := camera.Position.Dist(resolved.Position())
		if dist > st.settings.Camera.Far {
			continue
		}
		st.drawBuf = append(st.drawBuf, Bundle{
			Resolved: resolved,
			Assets:   AssetSet{Texture: el.Texture, Font: el.Font},
			Distance: dist,
			order:    el.order,
		})
	}
	st.prevResolved = next

	if st.debug {
		stats.resolveTime = time.Since(t0)
		t0 = time.Now()
	}

	st.painterSort()

	if st.debug {
		stats.sortTime = time.Since(t0)
		stats.bundleCount = len(st.drawBuf)
		t0 = time.Now()
	}

	if backend != nil {
		for i := range st.drawBuf {
			b := &st.drawBuf[i]
			dispatchDraw(backend, b.Resolved, b.Assets, snap)
		}
	}

	if st.debug {
		stats.emitTime = time.Since(t0)
		st.debugLog(stats)
	}
	return nil
}

// instructionsFor prepends the settings' default effects to the element's
// own list. Returns the element list unchanged when there are no defaults.
func (st *Stage) instructionsFor(r Resolved) []EffectInstruction {
	if len(st.settings.DefaultEffects) == 0 {
		return r.Effects
	}
	combined := make([]EffectInstruction, 0, len(st.settings.DefaultEffects)+len(r.Effects))
	combined = append(combined, st.settings.DefaultEffects...)
	return append(combined, r.Effects...)
}

// painterSort orders drawBuf back-to-front by camera distance (farthest
// first) so transparency composites correctly without a depth buffer.
// Bottom-up merge sort using sortBuf as scratch: stable, so equal distances
// keep registration order. Zero allocations once sortBuf reaches its
// high-water mark.
func (st *Stage) painterSort() {
	n := len(st.drawBuf)
	if n <= 1 {
		return
	}
	if cap(st.sortBuf) < n {
		st.sortBuf = make([]Bundle, n)
	}
	st.sortBuf = st.sortBuf[:n]

	a := st.drawBuf
	b := st.sortBuf
	swapped := false

	for width := 1; width < n; width *= 2 {
		for i := 0; i < n; i += 2 * width {
			lo := i
			mid := lo + width
			if mid > n {
				mid = n
			}
			hi := lo + 2*width
			if hi > n {
				hi = n
			}
			mergeRun(a, b, lo, mid, hi)
		}
		a, b = b, a
		swapped = !swapped
	}

	if swapped {
		copy(st.drawBuf, st.sortBuf)
	}
}

// mergeRun merges two sorted runs [lo, mid) and [mid, hi) from src into dst.
func mergeRun(src, dst []Bundle, lo, mid, hi int) {
	i, j, k := lo, mid, lo
	for i < mid && j < hi {
		if bundleBefore(&src[i], &src[j]) {
			dst[k] = src[i]
			i++
		} else {
			dst[k] = src[j]
			j++
		}
		k++
	}
	for i < mid {
		dst[k] = src[i]
		i++
		k++
	}
	for j < hi {
		dst[k] = src[j]
		j++
		k++
	}
}

// bundleBefore reports whether x draws no later than y: farther first, ties
// by registration order. Must be "less or equal" for the merge to be stable.
func bundleBefore(x, y *Bundle) bool {
	if x.Distance != y.Distance {
		return x.Distance > y.Distance
	}
	return x.order <= y.order
}

// stageStats holds per-frame timing metrics. Only populated in debug mode.
type stageStats struct {
	resolveTime time.Duration
	sortTime    time.Duration
	emitTime    time.Duration
	bundleCount int
}

// debugLog prints frame timings to stderr.
func (st *Stage) debugLog(stats stageStats) {
	total := stats.resolveTime + stats.sortTime + stats.emitTime
	_, _ = fmt.Fprintf(os.Stderr,
		"[diorama] resolve: %v | sort: %v | emit: %v | total: %v | bundles: %d\n",
		stats.resolveTime, stats.sortTime, stats.emitTime, total, stats.bundleCount)
}
