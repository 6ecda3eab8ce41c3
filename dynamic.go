package diorama

// PropFunc is a time-varying property: a pure function of the frame snapshot.
// It may return a literal, another PropFunc, or a map mixing both; the
// resolver unwraps recursively.
type PropFunc func(*Snapshot) any

// Blueprint is the author-supplied description of one visual element.
// Identity fields (ID, Kind, asset refs, Effects) are plain values and are
// never wrapped in dynamic nodes; every Props leaf may be a literal, a
// PropFunc, or a nested map[string]any mixing both.
type Blueprint struct {
	ID         string
	Kind       ElementKind
	TextureRef string
	FontRef    string
	Effects    []EffectInstruction
	Props      map[string]any
}

// Resolved is a blueprint with all dynamism removed: every property holds its
// concrete value for one specific frame. Resolved values are rebuilt each
// frame and must not be retained across frames.
type Resolved struct {
	ID         string
	Kind       ElementKind
	TextureRef string
	FontRef    string
	Effects    []EffectInstruction
	Props      map[string]any
}

// Float returns the named property as a float64, or 0 if absent or not
// numeric. Integer literals are accepted.
func (r Resolved) Float(key string) float64 {
	switch v := r.Props[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case float32:
		return float64(v)
	}
	return 0
}

// FloatOr returns the named property as a float64, or def if absent or not
// numeric.
func (r Resolved) FloatOr(key string, def float64) float64 {
	switch v := r.Props[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case float32:
		return float64(v)
	}
	return def
}

// Vec3 returns the named property as a Vec3, or the zero vector.
func (r Resolved) Vec3(key string) Vec3 {
	if v, ok := r.Props[key].(Vec3); ok {
		return v
	}
	return Vec3{}
}

// String returns the named property as a string, or "".
func (r Resolved) String(key string) string {
	if v, ok := r.Props[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns the named property as a bool, or false.
func (r Resolved) Bool(key string) bool {
	if v, ok := r.Props[key].(bool); ok {
		return v
	}
	return false
}

// Color returns the named property as a Color, or ColorWhite.
func (r Resolved) Color(key string) Color {
	if v, ok := r.Props[key].(Color); ok {
		return v
	}
	return ColorWhite
}

// Position returns the "position" property. Every element kind reads its
// world position from this key.
func (r Resolved) Position() Vec3 {
	return r.Vec3("position")
}

// withProp returns a copy of r with one property replaced. The Props map is
// copied shallowly so effects never mutate the input they were handed.
func (r Resolved) withProp(key string, value any) Resolved {
	props := make(map[string]any, len(r.Props)+1)
	for k, v := range r.Props {
		props[k] = v
	}
	props[key] = value
	r.Props = props
	return r
}

// --- Dynamic tree ---

// propNode is the compiled form of one blueprint property. The interface is
// sealed: static, computed, and branch are the only implementations, so an
// unknown tag cannot exist at resolution time.
type propNode interface {
	resolveNode(snap *Snapshot) any
}

// staticNode holds a value with no dynamism anywhere beneath it.
type staticNode struct {
	value any
}

func (n staticNode) resolveNode(*Snapshot) any {
	return n.value
}

// computedNode invokes its function each frame and recursively resolves the
// return value, which may itself be a function or a map mixing both.
type computedNode struct {
	fn PropFunc
}

func (n computedNode) resolveNode(snap *Snapshot) any {
	return resolveValue(n.fn(snap), snap)
}

// branchNode is a map with at least one dynamic descendant. Fully-static
// subtrees never become branches; they collapse to a single staticNode.
type branchNode struct {
	children map[string]propNode
}

func (n branchNode) resolveNode(snap *Snapshot) any {
	out := make(map[string]any, len(n.children))
	for key, child := range n.children {
		out[key] = child.resolveNode(snap)
	}
	return out
}

// DynamicTree is a compiled blueprint: identity fields carried through
// verbatim, every property compiled into a static/computed/branch node.
// Immutable after compilation.
type DynamicTree struct {
	id         string
	kind       ElementKind
	textureRef string
	fontRef    string
	effects    []EffectInstruction
	props      map[string]propNode
}

// Compile walks the blueprint depth-first and produces its dynamic tree.
// Blueprint object graphs must be acyclic; compilation of a cyclic graph
// does not terminate.
func Compile(bp Blueprint) *DynamicTree {
	props := make(map[string]propNode, len(bp.Props))
	for key, value := range bp.Props {
		props[key] = compileValue(value)
	}
	return &DynamicTree{
		id:         bp.ID,
		kind:       bp.Kind,
		textureRef: bp.TextureRef,
		fontRef:    bp.FontRef,
		effects:    bp.Effects,
		props:      props,
	}
}

// Resolve evaluates the tree against the snapshot and returns the flat
// per-frame record. Resolution is pure: the snapshot and the tree are never
// mutated, and identical inputs yield structurally equal output.
func (t *DynamicTree) Resolve(snap *Snapshot) Resolved {
	props := make(map[string]any, len(t.props))
	for key, node := range t.props {
		props[key] = node.resolveNode(snap)
	}
	return Resolved{
		ID:         t.id,
		Kind:       t.kind,
		TextureRef: t.textureRef,
		FontRef:    t.fontRef,
		Effects:    t.effects,
		Props:      props,
	}
}

// asFunc reports whether v is a property function, under either the named
// PropFunc type or a bare func literal.
func asFunc(v any) (PropFunc, bool) {
	switch f := v.(type) {
	case PropFunc:
		return f, true
	case func(*Snapshot) any:
		return f, true
	}
	return nil, false
}

// containsFunc reports whether any descendant of m is a property function.
func containsFunc(m map[string]any) bool {
	for _, v := range m {
		if _, ok := asFunc(v); ok {
			return true
		}
		if child, ok := v.(map[string]any); ok && containsFunc(child) {
			return true
		}
	}
	return false
}

// compileValue compiles one property value. Functions become computed nodes,
// maps with a dynamic descendant become branches with each child compiled
// independently, and everything else is a static leaf.
func compileValue(v any) propNode {
	if fn, ok := asFunc(v); ok {
		return computedNode{fn: fn}
	}
	if m, ok := v.(map[string]any); ok {
		if !containsFunc(m) {
			return staticNode{value: m}
		}
		children := make(map[string]propNode, len(m))
		for key, child := range m {
			children[key] = compileValue(child)
		}
		return branchNode{children: children}
	}
	return staticNode{value: v}
}

// resolveValue recursively resolves a value returned by a computed property:
// functions are invoked and their results resolved again, maps are resolved
// per entry into a fresh map, literals pass through.
func resolveValue(v any, snap *Snapshot) any {
	if fn, ok := asFunc(v); ok {
		return resolveValue(fn(snap), snap)
	}
	if m, ok := v.(map[string]any); ok {
		out := make(map[string]any, len(m))
		for key, child := range m {
			out[key] = resolveValue(child, snap)
		}
		return out
	}
	return v
}
