package imageio

import (
	"encoding/binary"
	"image"

	"github.com/disintegration/imaging"
)

// EXIF orientation values.
const (
	orientNormal     = 1
	orientFlipH      = 2
	orientRotate180  = 3
	orientFlipV      = 4
	orientTranspose  = 5
	orientRotate270  = 6
	orientTransverse = 7
	orientRotate90   = 8
)

// exifOrientation returns the orientation tag of a JPEG's EXIF block, or 0
// if data is not a JPEG or carries none.
func exifOrientation(data []byte) int {
	if len(data) < 4 || data[0] != 0xff || data[1] != 0xd8 {
		return 0
	}
	pos := 2
	for pos+4 <= len(data) {
		if data[pos] != 0xff {
			return 0
		}
		marker := data[pos+1]
		size := int(binary.BigEndian.Uint16(data[pos+2:]))
		if size < 2 || pos+2+size > len(data) {
			return 0
		}
		seg := data[pos+4 : pos+2+size]
		switch {
		case marker == 0xe1 && len(seg) >= 6 && string(seg[:6]) == "Exif\x00\x00":
			return tiffOrientation(seg[6:])
		case marker == 0xda: // start of scan, no metadata follows
			return 0
		}
		pos += 2 + size
	}
	return 0
}

// tiffOrientation reads tag 0x0112 from IFD0 of a TIFF-structured block.
func tiffOrientation(b []byte) int {
	if len(b) < 8 {
		return 0
	}
	var order binary.ByteOrder
	switch string(b[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return 0
	}
	ifd := int(order.Uint32(b[4:]))
	if ifd < 8 || ifd+2 > len(b) {
		return 0
	}
	n := int(order.Uint16(b[ifd:]))
	for i := 0; i < n; i++ {
		e := ifd + 2 + 12*i
		if e+12 > len(b) {
			return 0
		}
		if order.Uint16(b[e:]) != 0x0112 {
			continue
		}
		v := int(order.Uint16(b[e+8:]))
		if v < orientNormal || v > orientRotate90 {
			return 0
		}
		return v
	}
	return 0
}

// orient transforms img so that it displays upright for orientation o.
func orient(img image.Image, o int) image.Image {
	switch o {
	case orientFlipH:
		return imaging.FlipH(img)
	case orientRotate180:
		return imaging.Rotate180(img)
	case orientFlipV:
		return imaging.FlipV(img)
	case orientTranspose:
		return imaging.Transpose(img)
	case orientRotate270:
		return imaging.Rotate270(img)
	case orientTransverse:
		return imaging.Transverse(img)
	case orientRotate90:
		return imaging.Rotate90(img)
	}
	return img
}
