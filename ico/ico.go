// Package ico decodes Windows icon (.ico) files, the format most favicon
// services fall back to. The largest embedded image is returned; PNG payloads
// are decoded with image/png, DIB payloads with golang.org/x/image/bmp (or
// directly for 32-bit BGRA) with the AND mask applied as alpha.
//
// Importing the package registers the "ico" format with package image.
package ico

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
)

const (
	dirHeaderLen   = 6
	dirEntryLen    = 16
	dibHeaderLen   = 40
	fileHeaderLen  = 14
	maxIconEntries = 256
)

var (
	// ErrFormat is returned for data that is not a well-formed icon file.
	ErrFormat = errors.New("ico: invalid format")
	// ErrNoImages is returned for an icon directory with zero entries.
	ErrNoImages = errors.New("ico: no images")
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func init() {
	image.RegisterFormat("ico", "\x00\x00\x01\x00", Decode, DecodeConfig)
}

type entry struct {
	width, height int
	bitCount      int
	size, offset  uint32
}

// DecodeConfig returns the dimensions of the largest image in the icon.
func DecodeConfig(r io.Reader) (image.Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return image.Config{}, err
	}
	e, payload, err := best(data)
	if err != nil {
		return image.Config{}, err
	}
	if bytes.HasPrefix(payload, pngMagic) {
		return png.DecodeConfig(bytes.NewReader(payload))
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: e.width, Height: e.height}, nil
}

// Decode returns the largest image in the icon.
func Decode(r io.Reader) (image.Image, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	_, payload, err := best(data)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(payload, pngMagic) {
		return png.Decode(bytes.NewReader(payload))
	}
	return decodeDIB(payload)
}

// best parses the directory and returns the entry with the largest area
// (ties: higher bit depth) together with its payload bytes.
func best(data []byte) (entry, []byte, error) {
	if len(data) < dirHeaderLen {
		return entry{}, nil, ErrFormat
	}
	if binary.LittleEndian.Uint16(data[0:]) != 0 || binary.LittleEndian.Uint16(data[2:]) != 1 {
		return entry{}, nil, ErrFormat
	}
	n := int(binary.LittleEndian.Uint16(data[4:]))
	if n == 0 {
		return entry{}, nil, ErrNoImages
	}
	if n > maxIconEntries || len(data) < dirHeaderLen+n*dirEntryLen {
		return entry{}, nil, ErrFormat
	}

	var chosen entry
	found := false
	for i := range n {
		b := data[dirHeaderLen+i*dirEntryLen:]
		e := entry{
			width:    dimension(b[0]),
			height:   dimension(b[1]),
			bitCount: int(binary.LittleEndian.Uint16(b[6:])),
			size:     binary.LittleEndian.Uint32(b[8:]),
			offset:   binary.LittleEndian.Uint32(b[12:]),
		}
		if uint64(e.offset)+uint64(e.size) > uint64(len(data)) || e.size == 0 {
			continue
		}
		area, chosenArea := e.width*e.height, chosen.width*chosen.height
		if !found || area > chosenArea || (area == chosenArea && e.bitCount > chosen.bitCount) {
			chosen, found = e, true
		}
	}
	if !found {
		return entry{}, nil, ErrFormat
	}
	return chosen, data[chosen.offset : chosen.offset+chosen.size], nil
}

// dimension maps the directory byte to pixels (0 means 256).
func dimension(b byte) int {
	if b == 0 {
		return 256
	}
	return int(b)
}

// decodeDIB decodes a headerless bitmap whose height covers both the colour
// (XOR) rows and the 1-bit AND mask rows.
func decodeDIB(dib []byte) (image.Image, error) {
	if len(dib) < dibHeaderLen {
		return nil, ErrFormat
	}
	hdrLen := int(binary.LittleEndian.Uint32(dib[0:]))
	width := int(int32(binary.LittleEndian.Uint32(dib[4:])))
	fullHeight := int(int32(binary.LittleEndian.Uint32(dib[8:])))
	bitCount := int(binary.LittleEndian.Uint16(dib[14:]))
	if hdrLen < dibHeaderLen || hdrLen > len(dib) || width <= 0 || fullHeight <= 0 {
		return nil, ErrFormat
	}
	height := fullHeight / 2

	var (
		img      *image.NRGBA
		xorBytes int
		err      error
	)
	if bitCount == 32 {
		img, xorBytes, err = decodeBGRA(dib[hdrLen:], width, height)
	} else {
		img, xorBytes, err = decodeViaBMP(dib, hdrLen, width, height, bitCount)
	}
	if err != nil {
		return nil, err
	}
	if bitCount != 32 && hdrLen+xorBytes <= len(dib) {
		applyANDMask(img, dib[hdrLen+xorBytes:])
	}
	return img, nil
}

// decodeBGRA reads bottom-up 32-bit BGRA rows, keeping the alpha channel.
func decodeBGRA(pix []byte, width, height int) (*image.NRGBA, int, error) {
	rowLen := width * 4
	if len(pix) < rowLen*height {
		return nil, 0, fmt.Errorf("%w: short 32-bit pixel data", ErrFormat)
	}
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		src := pix[(height-1-y)*rowLen:]
		dst := img.Pix[y*img.Stride:]
		for x := range width {
			b, g, r, a := src[x*4], src[x*4+1], src[x*4+2], src[x*4+3]
			dst[x*4], dst[x*4+1], dst[x*4+2], dst[x*4+3] = r, g, b, a
		}
	}
	return img, rowLen * height, nil
}

// decodeViaBMP prepends a BITMAPFILEHEADER, halves the height so the AND
// mask is excluded, and hands the result to x/image/bmp.
func decodeViaBMP(dib []byte, hdrLen, width, height, bitCount int) (*image.NRGBA, int, error) {
	paletteLen := 0
	if bitCount <= 8 {
		colors := int(binary.LittleEndian.Uint32(dib[32:]))
		if colors == 0 {
			colors = 1 << bitCount
		}
		paletteLen = colors * 4
	}
	rowLen := ((width*bitCount + 31) / 32) * 4
	xorBytes := paletteLen + rowLen*height

	patched := make([]byte, fileHeaderLen+len(dib))
	copy(patched[fileHeaderLen:], dib)
	patched[0], patched[1] = 'B', 'M'
	binary.LittleEndian.PutUint32(patched[2:], uint32(len(patched)))
	binary.LittleEndian.PutUint32(patched[10:], uint32(fileHeaderLen+hdrLen+paletteLen))
	binary.LittleEndian.PutUint32(patched[fileHeaderLen+8:], uint32(height))

	src, err := bmp.Decode(bytes.NewReader(patched))
	if err != nil {
		return nil, 0, fmt.Errorf("ico: bitmap payload: %w", err)
	}
	b := src.Bounds()
	img := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		for x := range b.Dx() {
			img.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return img, xorBytes, nil
}

// applyANDMask makes pixels whose mask bit is set fully transparent.
// A truncated mask leaves the remaining pixels opaque.
func applyANDMask(img *image.NRGBA, mask []byte) {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	rowLen := ((width + 31) / 32) * 4
	if len(mask) < rowLen*height {
		return
	}
	for y := range height {
		row := mask[(height-1-y)*rowLen:]
		for x := range width {
			if row[x/8]&(0x80>>(x%8)) != 0 {
				img.Pix[y*img.Stride+x*4+3] = 0
			}
		}
	}
}
