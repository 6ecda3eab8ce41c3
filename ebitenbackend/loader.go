package ebitenbackend

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"

	"github.com/hajimehoshi/ebiten/v2"
	text "github.com/hajimehoshi/ebiten/v2/text/v2"

	"github.com/phanxgames/diorama"
)

var _ diorama.Backend = (*Backend)(nil)

// Texture is a hydrated image resource.
type Texture struct {
	Image *ebiten.Image
}

// ResourceKind marks Texture as a texture resource.
func (*Texture) ResourceKind() diorama.AssetKind { return diorama.AssetTexture }

// Font is a hydrated font resource.
type Font struct {
	Source *text.GoTextFaceSource
}

// ResourceKind marks Font as a font resource.
func (*Font) ResourceKind() diorama.AssetKind { return diorama.AssetFont }

// NewLoader creates a caching asset loader that reads texture and font
// references as paths in fsys. PNG and JPEG textures and any font format
// text/v2 accepts (TTF, OTF) are supported.
func NewLoader(fsys fs.FS) *diorama.CachingLoader {
	return diorama.NewCachingLoader(
		func(ref string) (diorama.Resource, error) {
			data, err := fs.ReadFile(fsys, ref)
			if err != nil {
				return nil, fmt.Errorf("read texture %q: %w", ref, err)
			}
			img, _, err := image.Decode(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("decode texture %q: %w", ref, err)
			}
			return &Texture{Image: ebiten.NewImageFromImage(img)}, nil
		},
		func(ref string) (diorama.Resource, error) {
			data, err := fs.ReadFile(fsys, ref)
			if err != nil {
				return nil, fmt.Errorf("read font %q: %w", ref, err)
			}
			src, err := text.NewGoTextFaceSource(bytes.NewReader(data))
			if err != nil {
				return nil, fmt.Errorf("parse font %q: %w", ref, err)
			}
			return &Font{Source: src}, nil
		},
	)
}
