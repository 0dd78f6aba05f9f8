package logofy

import (
	"bytes"
	"strings"

	"github.com/bep/imagemeta"
)

// rightsTags are the EXIF/XMP tags that name an image's owner or licence.
var rightsTags = map[imagemeta.Source]map[string]bool{
	imagemeta.EXIF: {
		"Copyright": true,
		"Artist":    true,
	},
	imagemeta.XMP: {
		"Rights":       true,
		"Creator":      true,
		"WebStatement": true,
	},
}

// rightsOrder is the precedence used when several tags are present.
var rightsOrder = []string{"Copyright", "Rights", "Artist", "Creator", "WebStatement"}

// metaFormats maps image.DecodeConfig format names to imagemeta formats.
// Formats without EXIF/XMP support (ico, bmp, gif) are absent.
var metaFormats = map[string]imagemeta.ImageFormat{
	"jpeg": imagemeta.JPEG,
	"png":  imagemeta.PNG,
	"webp": imagemeta.WebP,
}

// ExtractRights returns the most specific copyright/creator statement found
// in the image's EXIF or XMP metadata, or "" when there is none, the format
// carries no metadata or the data cannot be parsed. format is the decoder
// name reported by image.DecodeConfig. Never returns an error.
func ExtractRights(data []byte, format string) string {
	imgFormat, ok := metaFormats[format]
	if len(data) == 0 || !ok {
		return ""
	}

	found := make(map[string]string)
	_, err := imagemeta.Decode(imagemeta.Options{
		R:           bytes.NewReader(data),
		ImageFormat: imgFormat,
		Sources:     imagemeta.EXIF | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			if tags, ok := rightsTags[ti.Source]; ok {
				return tags[ti.Tag]
			}
			return false
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if s := strings.TrimSpace(tagValueString(ti.Value)); s != "" {
				if _, dup := found[ti.Tag]; !dup {
					found[ti.Tag] = s
				}
			}
			return nil
		},
	})
	if err != nil {
		return ""
	}

	for _, tag := range rightsOrder {
		if s, ok := found[tag]; ok {
			return s
		}
	}
	return ""
}

// tagValueString extracts a string from a tag value.
// XMP values may be string or []string (from altList/seqList).
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
		return ""
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
		return ""
	default:
		return ""
	}
}
