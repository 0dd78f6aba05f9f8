package logofy

import (
	"encoding/base64"
	"fmt"
)

// EncodeDataURL creates a data: URI from bytes and MIME type.
func EncodeDataURL(data []byte, mimeType string) string {
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DataURL returns the winner's image as a data: URI, or "" when there is
// no winner or its bytes were not kept.
func (res ResolutionResult) DataURL() string {
	if res.Winner == nil || len(res.Winner.Data) == 0 {
		return ""
	}
	mime := res.Winner.MIMEType
	if mime == "" {
		mime = "application/octet-stream"
	}
	return EncodeDataURL(res.Winner.Data, mime)
}

// URL returns the winner's source URL, or "" when there is no winner.
func (res ResolutionResult) URL() string {
	if res.Winner == nil {
		return ""
	}
	return res.Winner.Candidate.URL
}
