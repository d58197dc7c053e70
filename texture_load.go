package texatlas

import (
	"bytes"
	"fmt"
	"image"

	// Registered codecs for DecodeTexture. Map styles reference PNG and
	// JPEG assets; anything else is decoded by the caller.
	_ "image/jpeg"
	_ "image/png"

	xdraw "golang.org/x/image/draw"
)

// DecodeTexture decodes encoded image bytes (PNG or JPEG) into a texture
// with a populated RGBA mirror and all rows marked dirty, ready for the
// first Update. The options' format is forced to RGBA8.
func DecodeTexture(data []byte, opts TextureOptions) (*Texture, error) {
	rgba, err := decodeRGBA(data)
	if err != nil {
		Logger().Error("texture image decode failed", "err", err)
		return nil, err
	}

	opts.Format = PixelFormatRGBA8
	b := rgba.Bounds()
	t := NewTexture(b.Dx(), b.Dy(), opts)
	t.SetData(rgba.Pix)
	return t, nil
}

// decodeRGBA decodes encoded image bytes into a tightly packed RGBA image.
func decodeRGBA(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("texatlas: decoding image: %w", err)
	}

	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == rgba.Bounds().Dx()*4 {
		return rgba, nil
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Copy(rgba, image.Point{}, img, b, xdraw.Src, nil)
	return rgba, nil
}
