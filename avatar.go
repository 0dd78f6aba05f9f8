package logofy

import (
	"bytes"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"strings"
	"unicode"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DefaultAvatarSize is the edge of a generated avatar in pixels.
const DefaultAvatarSize = 128

// avatarPalette are the background colours an avatar may get.
var avatarPalette = []color.NRGBA{
	{R: 0x1e, G: 0x88, B: 0xe5, A: 0xff},
	{R: 0x43, G: 0xa0, B: 0x47, A: 0xff},
	{R: 0xe5, G: 0x39, B: 0x35, A: 0xff},
	{R: 0x8e, G: 0x24, B: 0xaa, A: 0xff},
	{R: 0xfb, G: 0x8c, B: 0x00, A: 0xff},
	{R: 0x00, G: 0x89, B: 0x7b, A: 0xff},
	{R: 0x54, G: 0x6e, B: 0x7a, A: 0xff},
	{R: 0x39, G: 0x49, B: 0xab, A: 0xff},
}

// Initial returns the upper-cased first letter or digit of name, or "?".
func Initial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return string(unicode.ToUpper(r))
		}
	}
	return "?"
}

// AvatarColor picks a background colour for name. The same name always
// gets the same colour.
func AvatarColor(name string) color.NRGBA {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	return avatarPalette[h.Sum32()%uint32(len(avatarPalette))]
}

// Avatar renders a square initials avatar for name, the fallback shown when
// a resolution has no winner. Non-ASCII initials are drawn as "?" since the
// built-in face only covers ASCII.
func Avatar(name string, size int) *image.RGBA {
	if size <= 0 {
		size = DefaultAvatarSize
	}
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(AvatarColor(name)), image.Point{}, draw.Src)

	letter := Initial(name)
	if letter[0] >= 0x80 {
		letter = "?"
	}

	face := basicfont.Face7x13
	glyph := image.NewRGBA(image.Rect(0, 0, face.Width, face.Height))
	d := font.Drawer{
		Dst:  glyph,
		Src:  image.White,
		Face: face,
		Dot:  fixed.P(0, face.Ascent),
	}
	d.DrawString(letter)

	// Scale the 7x13 cell so its height is ~60% of the avatar.
	gh := size * 3 / 5
	gw := gh * face.Width / face.Height
	off := image.Pt((size-gw)/2, (size-gh)/2)
	draw.NearestNeighbor.Scale(dst, image.Rectangle{Min: off, Max: off.Add(image.Pt(gw, gh))}, glyph, glyph.Bounds(), draw.Over, nil)
	return dst
}

// AvatarPNG is Avatar encoded as PNG.
func AvatarPNG(name string, size int) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, Avatar(name, size)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
