package imageio

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	path := filepath.Join(dir, "in.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestLoad(t *testing.T) {
	path := writePNG(t, t.TempDir(), 40, 30)

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())

	r, g, b, _ := img.At(7, 9).RGBA()
	assert.Equal(t, uint32(7), r>>8)
	assert.Equal(t, uint32(9), g>>8)
	assert.Equal(t, uint32(100), b>>8)
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.png"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.png")
	require.NoError(t, os.WriteFile(bad, []byte("not an image"), 0644))
	_, err = Load(bad)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "notes.txt"))
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestLoad_TGA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	src.SetNRGBA(5, 3, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	var buf bytes.Buffer
	require.NoError(t, tga.Encode(&buf, src))

	path := filepath.Join(t.TempDir(), "sprite.tga")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())
	r, g, b, _ := img.At(5, 3).RGBA()
	assert.Equal(t, []uint32{10, 20, 30}, []uint32{r >> 8, g >> 8, b >> 8})
}

// exifSegment returns an APP1 segment holding a single orientation tag.
func exifSegment(order binary.ByteOrder, o uint16) []byte {
	var tiff bytes.Buffer
	if order == binary.BigEndian {
		tiff.WriteString("MM")
	} else {
		tiff.WriteString("II")
	}
	binary.Write(&tiff, order, uint16(42))
	binary.Write(&tiff, order, uint32(8))
	binary.Write(&tiff, order, uint16(1))
	binary.Write(&tiff, order, uint16(0x0112))
	binary.Write(&tiff, order, uint16(3))
	binary.Write(&tiff, order, uint32(1))
	binary.Write(&tiff, order, o)
	binary.Write(&tiff, order, uint16(0))
	binary.Write(&tiff, order, uint32(0))

	payload := append([]byte("Exif\x00\x00"), tiff.Bytes()...)
	seg := []byte{0xff, 0xe1, 0, 0}
	binary.BigEndian.PutUint16(seg[2:], uint16(len(payload)+2))
	return append(seg, payload...)
}

func orientedJPEG(t *testing.T, order binary.ByteOrder, o uint16) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 40, 20))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	data := buf.Bytes()
	out := append([]byte{}, data[:2]...)
	out = append(out, exifSegment(order, o)...)
	return append(out, data[2:]...)
}

func TestExifOrientation(t *testing.T) {
	assert.Equal(t, 6, exifOrientation(orientedJPEG(t, binary.BigEndian, 6)))
	assert.Equal(t, 3, exifOrientation(orientedJPEG(t, binary.LittleEndian, 3)))
	assert.Equal(t, 0, exifOrientation(orientedJPEG(t, binary.BigEndian, 9)))

	var plain bytes.Buffer
	require.NoError(t, jpeg.Encode(&plain, image.NewGray(image.Rect(0, 0, 8, 8)), nil))
	assert.Equal(t, 0, exifOrientation(plain.Bytes()))
	assert.Equal(t, 0, exifOrientation([]byte("\x89PNG")))
	assert.Equal(t, 0, exifOrientation([]byte{0xff, 0xd8, 0xff, 0xe1, 0xff, 0xff}))
}

func TestLoad_AppliesOrientation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "photo.jpg")
	require.NoError(t, os.WriteFile(path, orientedJPEG(t, binary.BigEndian, 6), 0644))

	img, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 20, 40), img.Bounds())
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a/b/photo.JPG"))
	assert.True(t, Supported("scan.tiff"))
	assert.True(t, Supported("sprite.tga"))
	assert.False(t, Supported("notes.txt"))
	assert.False(t, Supported("noext"))
}

func TestToRGBA(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 20, 20))
	src.SetGray(12, 13, color.Gray{Y: 200})

	sub := src.SubImage(image.Rect(10, 10, 20, 20))
	out := ToRGBA(sub)
	assert.Equal(t, image.Rect(0, 0, 10, 10), out.Bounds())
	assert.Equal(t, color.RGBA{R: 200, G: 200, B: 200, A: 255}, out.RGBAAt(2, 3))

	same := image.NewRGBA(image.Rect(0, 0, 4, 4))
	assert.Same(t, same, ToRGBA(same))
}

func TestResize(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 400, 100))

	out, f := Resize(img, 200)
	assert.Equal(t, 0.5, f)
	assert.Equal(t, image.Pt(200, 50), out.Bounds().Size())

	out, f = Resize(img, 1000)
	assert.Equal(t, 1.0, f)
	assert.Same(t, img, out)
}

func TestPixelPacking(t *testing.T) {
	full := image.NewRGBA(image.Rect(0, 0, 4, 3))
	full.SetRGBA(2, 1, color.RGBA{R: 1, G: 2, B: 3, A: 255})
	got := bgrBytes(full)
	require.Len(t, got, 4*3*3)
	i := 3 * (1*4 + 2)
	assert.Equal(t, []byte{3, 2, 1}, got[i:i+3])

	gray := image.NewGray(image.Rect(0, 0, 5, 5))
	gray.SetGray(3, 2, color.Gray{Y: 9})
	sub := gray.SubImage(image.Rect(2, 1, 5, 4)).(*image.Gray)
	packed := grayBytes(sub)
	require.Len(t, packed, 9)
	assert.Equal(t, byte(9), packed[1*3+1])
}
