package diorama

import (
	"fmt"

	"github.com/expr-lang/expr"
)

// ExprProp compiles an expression string into a computed property function,
// for blueprints authored as data rather than code. The expression is
// evaluated each frame against the snapshot environment:
//
//	now       scaled scene time in milliseconds
//	delta     scaled delta since the previous frame
//	progress  loop position in [0, 1)
//	frame     monotonic frame id
//	camera    the resolved CameraState (struct field access, e.g.
//	          camera.Position.X)
//
// Compile errors are returned eagerly. A run-time evaluation error resolves
// to nil for that frame, which downstream accessors treat as a missing
// property.
func ExprProp(src string) (PropFunc, error) {
	program, err := expr.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("compile expression %q: %w", src, err)
	}
	return func(snap *Snapshot) any {
		out, err := expr.Run(program, map[string]any{
			"now":      snap.Playback.Now,
			"delta":    snap.Playback.Delta,
			"progress": snap.Playback.Progress,
			"frame":    snap.FrameID,
			"camera":   snap.Camera,
		})
		if err != nil {
			return nil
		}
		return out
	}, nil
}

// MustExprProp is ExprProp for hand-written literals; it panics on compile
// error.
func MustExprProp(src string) PropFunc {
	fn, err := ExprProp(src)
	if err != nil {
		panic(err)
	}
	return fn
}
