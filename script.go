package diorama

import (
	"encoding/json"
	"fmt"
	"strings"
)

// scriptStep represents a single action in a scene script.
type scriptStep struct {
	Action  string         `json:"action"`
	ID      string         `json:"id,omitempty"`
	Kind    string         `json:"kind,omitempty"`
	Texture string         `json:"texture,omitempty"`
	Font    string         `json:"font,omitempty"`
	Props   map[string]any `json:"props,omitempty"`
	Frames  int            `json:"frames,omitempty"`
}

// sceneScript is the top-level JSON structure for a scene script.
type sceneScript struct {
	Steps []scriptStep `json:"steps"`
}

// ScriptRunner sequences registration, removal, and pause state changes
// across frames for automated and data-driven runs. Call Step once per
// frame before Stage.Frame.
//
// Prop values in a script are literals, with two conversions: an object
// holding exactly numeric "x"/"y"/"z" becomes a Vec3, and a string starting
// with "=" compiles as an expression property (see ExprProp).
type ScriptRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

// LoadScript parses a JSON scene script.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var script sceneScript
	if err := json.Unmarshal(jsonData, &script); err != nil {
		return nil, fmt.Errorf("parse scene script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse scene script: no steps")
	}
	return &ScriptRunner{steps: script.Steps}, nil
}

// Done reports whether all steps have been executed.
func (r *ScriptRunner) Done() bool {
	return r.done
}

// Step executes the next script action against the stage. "wait" steps
// spread execution across frames; every other action executes immediately
// and consumes one frame.
func (r *ScriptRunner) Step(st *Stage) error {
	if r.done {
		return nil
	}
	if r.waitCount > 0 {
		r.waitCount--
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	step := r.steps[r.cursor]
	r.cursor++

	switch step.Action {
	case "register":
		bp, err := blueprintFromStep(step)
		if err != nil {
			return err
		}
		st.Register(step.ID, bp)
	case "remove":
		st.Remove(step.ID)
	case "pause":
		st.SetPaused(true)
	case "resume":
		st.SetPaused(false)
	case "wait":
		frames := step.Frames
		if frames < 1 {
			frames = 1
		}
		r.waitCount = frames - 1
	default:
		return fmt.Errorf("scene script: unknown action %q", step.Action)
	}
	return nil
}

// blueprintFromStep builds a Blueprint from a register step.
func blueprintFromStep(step scriptStep) (Blueprint, error) {
	if step.ID == "" {
		return Blueprint{}, fmt.Errorf("scene script: register step missing id")
	}
	kind, ok := kindFromString(step.Kind)
	if !ok {
		return Blueprint{}, fmt.Errorf("scene script: unknown element kind %q", step.Kind)
	}

	props := make(map[string]any, len(step.Props))
	for key, value := range step.Props {
		converted, err := convertScriptProp(value)
		if err != nil {
			return Blueprint{}, fmt.Errorf("scene script: prop %q: %w", key, err)
		}
		props[key] = converted
	}

	return Blueprint{
		ID:         step.ID,
		Kind:       kind,
		TextureRef: step.Texture,
		FontRef:    step.Font,
		Props:      props,
	}, nil
}

// convertScriptProp maps one JSON prop value into blueprint form.
func convertScriptProp(value any) (any, error) {
	switch v := value.(type) {
	case string:
		if expr, ok := strings.CutPrefix(v, "="); ok {
			return ExprProp(expr)
		}
		return v, nil
	case map[string]any:
		if vec, ok := vec3FromMap(v); ok {
			return vec, nil
		}
		converted := make(map[string]any, len(v))
		for key, child := range v {
			c, err := convertScriptProp(child)
			if err != nil {
				return nil, err
			}
			converted[key] = c
		}
		return converted, nil
	default:
		return value, nil
	}
}

// vec3FromMap recognizes an object holding exactly numeric x/y/z keys.
func vec3FromMap(m map[string]any) (Vec3, bool) {
	if len(m) == 0 || len(m) > 3 {
		return Vec3{}, false
	}
	var vec Vec3
	for key, value := range m {
		n, ok := value.(float64)
		if !ok {
			return Vec3{}, false
		}
		switch key {
		case "x":
			vec.X = n
		case "y":
			vec.Y = n
		case "z":
			vec.Z = n
		default:
			return Vec3{}, false
		}
	}
	return vec, true
}
