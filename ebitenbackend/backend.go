// Package ebitenbackend is the reference rendering binding for diorama on
// [Ebitengine]. It projects resolved 3D elements onto a 2D target with a
// simple perspective camera and draws textured quads for billboards and
// panels, vector silhouettes for solid kinds, and text via text/v2.
//
// The binding exists so the engine is runnable out of the box; production
// users with a real 3D pipeline implement diorama.Backend themselves.
//
// [Ebitengine]: https://ebitengine.org
package ebitenbackend

import (
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/phanxgames/diorama"
)

// fallbackFill is drawn for elements whose texture is not (or never) Ready.
var fallbackFill = diorama.Color{R: 0.5, G: 0.5, B: 0.5, A: 1}

// Backend draws resolved elements onto an ebiten image. Create one per
// scene, call SetTarget at the top of every ebiten Draw, then hand it to
// Stage.Frame.
type Backend struct {
	settings diorama.Settings
	dst      *ebiten.Image

	stack []mat34
	tint  diorama.Color
}

// New creates a backend for the given scene settings.
func New(settings diorama.Settings) *Backend {
	return &Backend{
		settings: settings,
		stack:    []mat34{identity()},
		tint:     diorama.ColorWhite,
	}
}

// SetTarget points the backend at this frame's destination image.
func (b *Backend) SetTarget(dst *ebiten.Image) {
	b.dst = dst
	b.stack = b.stack[:1]
	b.stack[0] = identity()
	b.tint = diorama.ColorWhite
}

// Push saves the current transform.
func (b *Backend) Push() {
	b.stack = append(b.stack, b.stack[len(b.stack)-1])
}

// Pop restores the last saved transform. Popping the root is a no-op.
func (b *Backend) Pop() {
	if len(b.stack) > 1 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

// Translate moves the current transform by v.
func (b *Backend) Translate(v diorama.Vec3) {
	top := &b.stack[len(b.stack)-1]
	*top = top.mul(translation(v))
}

// Rotate rotates the current transform about the given axis.
func (b *Backend) Rotate(axis diorama.Vec3, angle float64) {
	top := &b.stack[len(b.stack)-1]
	*top = top.mul(rotation(axis, angle))
}

// ApplyColor sets the tint multiplied into subsequent draws.
func (b *Backend) ApplyColor(c diorama.Color) {
	b.tint = c
}

// --- Projection ---

// projected is one element position mapped to the target: screen
// coordinates plus the perspective scale factor for sizes.
type projected struct {
	x, y  float64
	scale float64
}

// project maps a world position through the current transform and the
// frame's camera. ok is false behind the near plane.
func (b *Backend) project(v diorama.Vec3, snap *diorama.Snapshot) (projected, bool) {
	v = b.stack[len(b.stack)-1].apply(v)

	cam := snap.Camera
	fwd := norm(cam.LookAt.Sub(cam.Position))
	if fwd == (diorama.Vec3{}) {
		fwd = diorama.Vec3{Z: -1}
	}
	right := norm(cross(fwd, cam.Up()))
	if right == (diorama.Vec3{}) {
		right = diorama.Vec3{X: 1}
	}
	up := cross(right, fwd)

	d := v.Sub(cam.Eye)
	cx := dot(d, right)
	cy := dot(d, up)
	cz := dot(d, fwd)
	if cz < b.settings.Camera.Near {
		return projected{}, false
	}

	focal := float64(b.settings.Height) / 2 / math.Tan(b.settings.Camera.FOV/2)
	return projected{
		x:     float64(b.settings.Width)/2 + cx*focal/cz,
		y:     float64(b.settings.Height)/2 - cy*focal/cz,
		scale: focal / cz,
	}, true
}

// elementStyle pulls the shared size/alpha/color styling off a resolved
// element. Size defaults to 50 scene units.
func (b *Backend) elementStyle(r diorama.Resolved) (size, alpha float64, fill diorama.Color) {
	size = r.FloatOr("size", 50)
	alpha = r.FloatOr("alpha", 1)
	fill = r.Color("color")
	fill.R *= b.tint.R
	fill.G *= b.tint.G
	fill.B *= b.tint.B
	fill.A *= b.tint.A * alpha
	return size, alpha, fill
}

func toRGBA(c diorama.Color) color.RGBA {
	clampByte := func(v float64) uint8 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 255
		}
		return uint8(v * 255)
	}
	return color.RGBA{
		R: clampByte(c.R * c.A),
		G: clampByte(c.G * c.A),
		B: clampByte(c.B * c.A),
		A: clampByte(c.A),
	}
}

// drawTexturedQuad draws a Ready texture centered at p, scaled to size
// world units, or a fallback rect when the texture is unavailable.
func (b *Backend) drawTexturedQuad(r diorama.Resolved, assets diorama.AssetSet, p projected, size float64, fill diorama.Color) {
	w := size * p.scale
	if tex, ok := readyTexture(assets); ok {
		bounds := tex.Bounds()
		sx := w / float64(bounds.Dx())
		sy := w / float64(bounds.Dy())
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(-float64(bounds.Dx())/2, -float64(bounds.Dy())/2)
		op.GeoM.Scale(sx, sy)
		op.GeoM.Rotate(r.Vec3("rotation").Z)
		op.GeoM.Translate(p.x, p.y)
		op.ColorScale.Scale(float32(fill.R), float32(fill.G), float32(fill.B), float32(fill.A))
		b.dst.DrawImage(tex, op)
		return
	}
	// Pending or errored texture: fallback fill styling instead.
	fb := fallbackFill
	fb.A = fill.A
	vector.DrawFilledRect(b.dst, float32(p.x-w/2), float32(p.y-w/2), float32(w), float32(w), toRGBA(fb), true)
}

func readyTexture(assets diorama.AssetSet) (*ebiten.Image, bool) {
	if assets.Texture == nil || assets.Texture.Status() != diorama.AssetReady {
		return nil, false
	}
	tex, ok := assets.Texture.Resource().(*Texture)
	if !ok || tex == nil || tex.Image == nil {
		return nil, false
	}
	return tex.Image, true
}

func readyFont(assets diorama.AssetSet) (*text.GoTextFaceSource, bool) {
	if assets.Font == nil || assets.Font.Status() != diorama.AssetReady {
		return nil, false
	}
	fnt, ok := assets.Font.Resource().(*Font)
	if !ok || fnt == nil || fnt.Source == nil {
		return nil, false
	}
	return fnt.Source, true
}

// --- Per-kind draw methods ---

// DrawBillboard draws a camera-facing textured quad.
func (b *Backend) DrawBillboard(r diorama.Resolved, assets diorama.AssetSet, snap *diorama.Snapshot) {
	p, ok := b.project(r.Position(), snap)
	if !ok {
		return
	}
	size, _, fill := b.elementStyle(r)
	b.drawTexturedQuad(r, assets, p, size, fill)
}

// DrawPanel draws a flat quad; textured when the texture is Ready.
func (b *Backend) DrawPanel(r diorama.Resolved, assets diorama.AssetSet, snap *diorama.Snapshot) {
	p, ok := b.project(r.Position(), snap)
	if !ok {
		return
	}
	size, _, fill := b.elementStyle(r)
	b.drawTexturedQuad(r, assets, p, size, fill)
}

// DrawBox draws a cuboid silhouette.
func (b *Backend) DrawBox(r diorama.Resolved, assets diorama.AssetSet, snap *diorama.Snapshot) {
	b.drawRectKind(r, snap, 1)
}

// DrawPyramid draws a pyramid silhouette.
func (b *Backend) DrawPyramid(r diorama.Resolved, assets diorama.AssetSet, snap *diorama.Snapshot) {
	b.drawRectKind(r, snap, 0.8)
}

// DrawCylinder draws a cylinder silhouette.
func (b *Backend) DrawCylinder(r diorama.Resolved, assets diorama.AssetSet, snap *diorama.Snapshot) {
	b.drawRectKind(r, snap, 0.9)
}

// DrawFloor draws a wide ground patch.
func (b *Backend) DrawFloor(r diorama.Resolved, assets diorama.AssetSet, snap *diorama.Snapshot) {
	p, ok := b.project(r.Position(), snap)
	if !ok {
		return
	}
	size, _, fill := b.elementStyle(r)
	w := size * p.scale * 4
	h := size * p.scale * 0.25
	vector.DrawFilledRect(b.dst, float32(p.x-w/2), float32(p.y-h/2), float32(w), float32(h), toRGBA(fill), true)
}

// DrawSphere draws a filled disc.
func (b *Backend) DrawSphere(r diorama.Resolved, assets diorama.AssetSet, snap *diorama.Snapshot) {
	b.drawDiscKind(r, snap, 0.5)
}

// DrawCone draws a filled disc footprint.
func (b *Backend) DrawCone(r diorama.Resolved, assets diorama.AssetSet, snap *diorama.Snapshot) {
	b.drawDiscKind(r, snap, 0.4)
}

// DrawTorus draws a ring.
func (b *Backend) DrawTorus(r diorama.Resolved, assets diorama.AssetSet, snap *diorama.Snapshot) {
	p, ok := b.project(r.Position(), snap)
	if !ok {
		return
	}
	size, _, fill := b.elementStyle(r)
	radius := float32(size * p.scale / 2)
	vector.StrokeCircle(b.dst, float32(p.x), float32(p.y), radius, radius/4, toRGBA(fill), true)
}

// DrawText draws the "content" property with the element's hydrated font,
// or nothing until the font is Ready.
func (b *Backend) DrawText(r diorama.Resolved, assets diorama.AssetSet, snap *diorama.Snapshot) {
	src, ok := readyFont(assets)
	if !ok {
		return
	}
	p, ok := b.project(r.Position(), snap)
	if !ok {
		return
	}
	size, _, fill := b.elementStyle(r)

	face := &text.GoTextFace{Source: src, Size: size * p.scale}
	op := &text.DrawOptions{}
	op.GeoM.Translate(p.x, p.y)
	op.ColorScale.Scale(float32(fill.R), float32(fill.G), float32(fill.B), float32(fill.A))
	op.PrimaryAlign = text.AlignCenter
	op.SecondaryAlign = text.AlignCenter
	text.Draw(b.dst, r.String("content"), face, op)
}

func (b *Backend) drawRectKind(r diorama.Resolved, snap *diorama.Snapshot, aspect float64) {
	p, ok := b.project(r.Position(), snap)
	if !ok {
		return
	}
	size, _, fill := b.elementStyle(r)
	w := size * p.scale
	h := w * aspect
	vector.DrawFilledRect(b.dst, float32(p.x-w/2), float32(p.y-h/2), float32(w), float32(h), toRGBA(fill), true)
}

func (b *Backend) drawDiscKind(r diorama.Resolved, snap *diorama.Snapshot, radiusFactor float64) {
	p, ok := b.project(r.Position(), snap)
	if !ok {
		return
	}
	size, _, fill := b.elementStyle(r)
	vector.DrawFilledCircle(b.dst, float32(p.x), float32(p.y), float32(size*p.scale*radiusFactor), toRGBA(fill), true)
}

// --- Small vector/matrix helpers ---

func dot(a, b diorama.Vec3) float64 {
	return a.X*b.X + a.Y*b.Y + a.Z*b.Z
}

func cross(a, b diorama.Vec3) diorama.Vec3 {
	return diorama.Vec3{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

func norm(v diorama.Vec3) diorama.Vec3 {
	l := math.Sqrt(dot(v, v))
	if l == 0 {
		return diorama.Vec3{}
	}
	return v.Scale(1 / l)
}

// mat34 is a 3x4 affine transform (rotation columns plus translation).
type mat34 struct {
	m [3][4]float64
}

func identity() mat34 {
	return mat34{m: [3][4]float64{{1, 0, 0, 0}, {0, 1, 0, 0}, {0, 0, 1, 0}}}
}

func translation(v diorama.Vec3) mat34 {
	t := identity()
	t.m[0][3] = v.X
	t.m[1][3] = v.Y
	t.m[2][3] = v.Z
	return t
}

func rotation(axis diorama.Vec3, angle float64) mat34 {
	a := norm(axis)
	sin, cos := math.Sincos(angle)
	oc := 1 - cos
	return mat34{m: [3][4]float64{
		{cos + a.X*a.X*oc, a.X*a.Y*oc - a.Z*sin, a.X*a.Z*oc + a.Y*sin, 0},
		{a.Y*a.X*oc + a.Z*sin, cos + a.Y*a.Y*oc, a.Y*a.Z*oc - a.X*sin, 0},
		{a.Z*a.X*oc - a.Y*sin, a.Z*a.Y*oc + a.X*sin, cos + a.Z*a.Z*oc, 0},
	}}
}

func (a mat34) mul(b mat34) mat34 {
	var out mat34
	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			sum := a.m[row][0]*b.m[0][col] + a.m[row][1]*b.m[1][col] + a.m[row][2]*b.m[2][col]
			if col == 3 {
				sum += a.m[row][3]
			}
			out.m[row][col] = sum
		}
	}
	return out
}

func (a mat34) apply(v diorama.Vec3) diorama.Vec3 {
	return diorama.Vec3{
		X: a.m[0][0]*v.X + a.m[0][1]*v.Y + a.m[0][2]*v.Z + a.m[0][3],
		Y: a.m[1][0]*v.X + a.m[1][1]*v.Y + a.m[1][2]*v.Z + a.m[1][3],
		Z: a.m[2][0]*v.X + a.m[2][1]*v.Y + a.m[2][2]*v.Z + a.m[2][3],
	}
}
