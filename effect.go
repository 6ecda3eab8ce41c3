package diorama

import (
	"fmt"
	"math"
)

// EffectSettings holds per-instruction effect configuration. Settings given
// on an instruction are shallow-merged over the effect's defaults.
type EffectSettings map[string]any

// EffectInstruction names one effect application in a blueprint's effect
// list. Instructions run in list order.
type EffectInstruction struct {
	Type     string
	Settings EffectSettings
}

// Effect is a registered post-processing transform over resolved properties.
// Apply must treat current as immutable and return the adjusted copy; an
// error aborts the frame for the caller (effects failing silently would hide
// configuration bugs).
type Effect struct {
	Type string
	// Targets lists the element kinds the effect applies to. Nil targets
	// every kind.
	Targets  []ElementKind
	Defaults EffectSettings
	Apply    func(current Resolved, snap *Snapshot, settings EffectSettings) (Resolved, error)
}

func (e *Effect) targets(kind ElementKind) bool {
	if e.Targets == nil {
		return true
	}
	for _, k := range e.Targets {
		if k == kind {
			return true
		}
	}
	return false
}

// EffectRegistry is the effect library, keyed by type. A fresh registry
// already contains the built-in effects.
type EffectRegistry struct {
	effects map[string]Effect
}

// NewEffectRegistry creates a registry with the built-in orientation-lock
// and progress-fade effects registered.
func NewEffectRegistry() *EffectRegistry {
	r := &EffectRegistry{effects: make(map[string]Effect)}
	r.Register(orientationLockEffect())
	r.Register(progressFadeEffect())
	return r
}

// Register adds or replaces an effect under its Type key.
func (r *EffectRegistry) Register(e Effect) {
	r.effects[e.Type] = e
}

// Apply runs the instruction list over current in order. Unknown effect
// types and non-targeted kinds are skipped silently (data-driven effect
// lists stay forward compatible); entries with enabled=false are skipped
// individually without short-circuiting the chain. An effect error
// propagates immediately.
func (r *EffectRegistry) Apply(current Resolved, snap *Snapshot, instructions []EffectInstruction) (Resolved, error) {
	for _, instr := range instructions {
		effect, ok := r.effects[instr.Type]
		if !ok {
			continue
		}
		if !effect.targets(current.Kind) {
			continue
		}
		settings := mergeSettings(effect.Defaults, instr.Settings)
		if enabled, ok := settings["enabled"].(bool); ok && !enabled {
			continue
		}
		next, err := effect.Apply(current, snap, settings)
		if err != nil {
			return current, fmt.Errorf("effect %q on element %q: %w", instr.Type, current.ID, err)
		}
		current = next
	}
	return current, nil
}

// mergeSettings shallow-merges overrides on top of defaults. Neither input
// map is mutated.
func mergeSettings(defaults, overrides EffectSettings) EffectSettings {
	merged := make(EffectSettings, len(defaults)+len(overrides))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	return merged
}

func settingBool(s EffectSettings, key string, def bool) bool {
	if v, ok := s[key].(bool); ok {
		return v
	}
	return def
}

func settingFloat(s EffectSettings, key string, def float64) float64 {
	switch v := s[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func settingString(s EffectSettings, key string, def string) string {
	if v, ok := s[key].(string); ok {
		return v
	}
	return def
}

// --- Built-in effects ---

// orientationLockEffect rotates an element to face either the camera or
// another named element, writing yaw/pitch into the "rotation" property
// (Vec3: X pitch, Y yaw, Z roll).
//
// Settings:
//
//	target  "camera" (default) or an element id; named elements are looked
//	        up in the previous frame's resolved map and the effect is a
//	        no-op when the id is unknown
//	yaw     apply the derived yaw (default true)
//	pitch   apply the derived pitch (default true)
//
// Degenerate geometry never errors: when the element and target coincide on
// an axis pair, the corresponding rotation axis is left untouched.
func orientationLockEffect() Effect {
	return Effect{
		Type: "orientation-lock",
		Defaults: EffectSettings{
			"target": "camera",
			"yaw":    true,
			"pitch":  true,
		},
		Apply: func(current Resolved, snap *Snapshot, settings EffectSettings) (Resolved, error) {
			var target Vec3
			switch name := settingString(settings, "target", "camera"); name {
			case "camera":
				target = snap.Camera.Position
			default:
				other, ok := snap.Resolved(name)
				if !ok {
					return current, nil
				}
				target = other.Position()
			}

			pos := current.Position()
			rotation := current.Vec3("rotation")
			d := target.Sub(pos)

			if settingBool(settings, "yaw", true) && (d.X != 0 || d.Z != 0) {
				rotation.Y = math.Atan2(d.X, d.Z)
			}
			horiz := math.Hypot(d.X, d.Z)
			if settingBool(settings, "pitch", true) && (d.Y != 0 || horiz != 0) {
				rotation.X = -math.Atan2(d.Y, horiz)
			}

			return current.withProp("rotation", rotation), nil
		},
	}
}

// progressFadeEffect ramps the "alpha" property across the playback loop:
// alpha = lerp(from, to, progress).
//
// Settings: from (default 1), to (default 0).
func progressFadeEffect() Effect {
	return Effect{
		Type: "progress-fade",
		Defaults: EffectSettings{
			"from": 1.0,
			"to":   0.0,
		},
		Apply: func(current Resolved, snap *Snapshot, settings EffectSettings) (Resolved, error) {
			from := settingFloat(settings, "from", 1)
			to := settingFloat(settings, "to", 0)
			return current.withProp("alpha", Lerp(from, to, snap.Playback.Progress)), nil
		},
	}
}
