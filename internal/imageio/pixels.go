package imageio

import "image"

// grayBytes packs g's rows without stride padding.
func grayBytes(g *image.Gray) []byte {
	b := g.Bounds()
	w := b.Dx()
	out := make([]byte, 0, w*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := g.PixOffset(b.Min.X, y)
		out = append(out, g.Pix[i:i+w]...)
	}
	return out
}

// bgrBytes reorders an origin-anchored RGBA image into packed BGR.
func bgrBytes(src *image.RGBA) []byte {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	out := make([]byte, 3*w*h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+4*w]
		dst := out[3*w*y : 3*w*(y+1)]
		for x := 0; x < w; x++ {
			dst[3*x+0] = row[4*x+2]
			dst[3*x+1] = row[4*x+1]
			dst[3*x+2] = row[4*x+0]
		}
	}
	return out
}
