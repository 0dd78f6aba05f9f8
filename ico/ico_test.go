package ico

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
)

type testEntry struct {
	w, h    byte
	bits    uint16
	payload []byte
}

func buildICO(entries ...testEntry) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, uint16(len(entries))})
	offset := uint32(dirHeaderLen + len(entries)*dirEntryLen)
	for _, e := range entries {
		buf.Write([]byte{e.w, e.h, 0, 0})
		_ = binary.Write(&buf, binary.LittleEndian, uint16(1))
		_ = binary.Write(&buf, binary.LittleEndian, e.bits)
		_ = binary.Write(&buf, binary.LittleEndian, uint32(len(e.payload)))
		_ = binary.Write(&buf, binary.LittleEndian, offset)
		offset += uint32(len(e.payload))
	}
	for _, e := range entries {
		buf.Write(e.payload)
	}
	return buf.Bytes()
}

// dibHeader returns a BITMAPINFOHEADER for a w×h icon image (height doubled).
func dibHeader(w, h int, bits uint16) []byte {
	b := make([]byte, dibHeaderLen)
	binary.LittleEndian.PutUint32(b[0:], dibHeaderLen)
	binary.LittleEndian.PutUint32(b[4:], uint32(w))
	binary.LittleEndian.PutUint32(b[8:], uint32(2*h))
	binary.LittleEndian.PutUint16(b[12:], 1)
	binary.LittleEndian.PutUint16(b[14:], bits)
	return b
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 5), G: uint8(y * 5), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// bgraDIB is a 2×2 32-bit icon image: top row blue, half-transparent red;
// bottom row green, white.
func bgraDIB() []byte {
	dib := dibHeader(2, 2, 32)
	// bottom-up rows, BGRA
	dib = append(dib,
		0x00, 0xff, 0x00, 0xff, 0xff, 0xff, 0xff, 0xff, // y=1: green, white
		0xff, 0x00, 0x00, 0xff, 0x00, 0x00, 0xff, 0x80, // y=0: blue, red@0x80
	)
	return append(dib, make([]byte, 8)...) // AND mask, ignored for 32-bit
}

func TestDecode_PNGPayloadLargestWins(t *testing.T) {
	t.Parallel()

	data := buildICO(
		testEntry{w: 2, h: 2, bits: 32, payload: bgraDIB()},
		testEntry{w: 48, h: 48, bits: 32, payload: pngBytes(t, 48, 48)},
	)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if format != "ico" || cfg.Width != 48 || cfg.Height != 48 {
		t.Errorf("DecodeConfig = %s %dx%d", format, cfg.Width, cfg.Height)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if format != "ico" || img.Bounds().Dx() != 48 {
		t.Errorf("Decode = %s %v", format, img.Bounds())
	}
}

func TestDecode_32BitDIB(t *testing.T) {
	t.Parallel()

	img, err := Decode(bytes.NewReader(buildICO(testEntry{w: 2, h: 2, bits: 32, payload: bgraDIB()})))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	n, ok := img.(*image.NRGBA)
	if !ok {
		t.Fatalf("got %T, want *image.NRGBA", img)
	}
	want := map[image.Point]color.NRGBA{
		{0, 0}: {B: 0xff, A: 0xff},
		{1, 0}: {R: 0xff, A: 0x80},
		{0, 1}: {G: 0xff, A: 0xff},
		{1, 1}: {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	}
	for p, c := range want {
		if got := n.NRGBAAt(p.X, p.Y); got != c {
			t.Errorf("pixel %v = %v, want %v", p, got, c)
		}
	}
}

func TestDecode_24BitDIBWithMask(t *testing.T) {
	t.Parallel()

	dib := dibHeader(2, 2, 24)
	dib = append(dib,
		0x00, 0x00, 0xff, 0x00, 0xff, 0x00, 0, 0, // y=1: red, green (BGR), padded to 8
		0xff, 0x00, 0x00, 0xff, 0xff, 0xff, 0, 0, // y=0: blue, white
		0x00, 0, 0, 0, // mask y=1: all opaque
		0x40, 0, 0, 0, // mask y=0: x=1 transparent
	)

	img, err := Decode(bytes.NewReader(buildICO(testEntry{w: 2, h: 2, bits: 24, payload: dib})))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	n := img.(*image.NRGBA)
	want := map[image.Point]color.NRGBA{
		{0, 0}: {B: 0xff, A: 0xff},
		{0, 1}: {R: 0xff, A: 0xff},
		{1, 1}: {G: 0xff, A: 0xff},
	}
	for p, c := range want {
		if got := n.NRGBAAt(p.X, p.Y); got != c {
			t.Errorf("pixel %v = %v, want %v", p, got, c)
		}
	}
	if a := n.NRGBAAt(1, 0).A; a != 0 {
		t.Errorf("masked pixel alpha = %d, want 0", a)
	}
}

func TestDecodeConfig_DIBUsesDirectory(t *testing.T) {
	t.Parallel()

	cfg, err := DecodeConfig(bytes.NewReader(buildICO(testEntry{w: 0, h: 0, bits: 32, payload: bgraDIB()})))
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if cfg.Width != 256 || cfg.Height != 256 {
		t.Errorf("size = %dx%d, want 256x256 for a zero directory byte", cfg.Width, cfg.Height)
	}
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	valid := buildICO(testEntry{w: 2, h: 2, bits: 32, payload: bgraDIB()})
	badOffset := append([]byte(nil), valid...)
	binary.LittleEndian.PutUint32(badOffset[dirHeaderLen+12:], 1<<20)

	tests := []struct {
		name string
		data []byte
		want error
	}{
		{"empty", nil, ErrFormat},
		{"cursor type", []byte{0, 0, 2, 0, 1, 0}, ErrFormat},
		{"no entries", []byte{0, 0, 1, 0, 0, 0}, ErrNoImages},
		{"truncated directory", []byte{0, 0, 1, 0, 3, 0, 1, 2, 3}, ErrFormat},
		{"payload out of range", badOffset, ErrFormat},
		{"short DIB", buildICO(testEntry{w: 2, h: 2, bits: 32, payload: []byte{1, 2, 3}}), ErrFormat},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Decode(bytes.NewReader(tc.data)); !errors.Is(err, tc.want) {
				t.Errorf("Decode err = %v, want %v", err, tc.want)
			}
		})
	}
}
