package diorama

import "fmt"

// AssetSet bundles the asset handles emitted alongside a resolved element.
// Handles may still be Pending mid-hydration; backends draw fallback
// styling until they flip to Ready.
type AssetSet struct {
	Texture *AssetHandle
	Font    *AssetHandle
}

// Backend is the rendering collaborator: one draw method per element kind,
// plus primitive transform stack ops and color application for bindings
// that maintain matrix state. The kind set is closed — the stage dispatches
// over ElementKind and an unknown kind is a fatal schema mismatch, never a
// runtime condition.
//
// Draw methods are called in painter order (farthest first) and must not
// block; asset hydration is never awaited inside them.
type Backend interface {
	DrawBox(r Resolved, assets AssetSet, snap *Snapshot)
	DrawSphere(r Resolved, assets AssetSet, snap *Snapshot)
	DrawText(r Resolved, assets AssetSet, snap *Snapshot)
	DrawPanel(r Resolved, assets AssetSet, snap *Snapshot)
	DrawCone(r Resolved, assets AssetSet, snap *Snapshot)
	DrawPyramid(r Resolved, assets AssetSet, snap *Snapshot)
	DrawCylinder(r Resolved, assets AssetSet, snap *Snapshot)
	DrawTorus(r Resolved, assets AssetSet, snap *Snapshot)
	DrawFloor(r Resolved, assets AssetSet, snap *Snapshot)
	DrawBillboard(r Resolved, assets AssetSet, snap *Snapshot)

	Push()
	Pop()
	Translate(v Vec3)
	Rotate(axis Vec3, angle float64)
	ApplyColor(c Color)
}

// dispatchDraw routes one bundle to the backend method for its kind.
// The default branch is unreachable from compiled blueprints; hitting it
// means the element schema and the kind enum have diverged.
func dispatchDraw(b Backend, r Resolved, assets AssetSet, snap *Snapshot) {
	switch r.Kind {
	case KindBox:
		b.DrawBox(r, assets, snap)
	case KindSphere:
		b.DrawSphere(r, assets, snap)
	case KindText:
		b.DrawText(r, assets, snap)
	case KindPanel:
		b.DrawPanel(r, assets, snap)
	case KindCone:
		b.DrawCone(r, assets, snap)
	case KindPyramid:
		b.DrawPyramid(r, assets, snap)
	case KindCylinder:
		b.DrawCylinder(r, assets, snap)
	case KindTorus:
		b.DrawTorus(r, assets, snap)
	case KindFloor:
		b.DrawFloor(r, assets, snap)
	case KindBillboard:
		b.DrawBillboard(r, assets, snap)
	default:
		panic(fmt.Sprintf("diorama: draw dispatch on unknown element kind %d (element %q)", r.Kind, r.ID))
	}
}
