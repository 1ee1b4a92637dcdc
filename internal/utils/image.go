package utils

import (
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ExtractImageDimensions reads just the image header and returns its
// dimensions. Returns nils when the data is not a decodable image; callers
// treat that as "no dimensions available", not as an error.
func ExtractImageDimensions(r io.Reader) (*int, *int) {
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return nil, nil
	}
	width, height := cfg.Width, cfg.Height
	return &width, &height
}
