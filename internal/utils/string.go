package utils

import (
	"fmt"
	"html"
	"net/url"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// FallbackFilename is used when nothing printable survives sanitization.
const FallbackFilename = "audio"

const reservedChars = `<>:"/\|?*`

// SanitizeFilename turns a video title into a safe ASCII file name.
// Escapes are decoded, reserved and non-ASCII characters are dropped,
// whitespace is collapsed. Applying it twice gives the same result.
func SanitizeFilename(title string) string {
	s := title
	for {
		next := sanitizeOnce(s)
		if next == s {
			break
		}
		s = next
	}
	if s == "" {
		return FallbackFilename
	}
	return s
}

func sanitizeOnce(s string) string {
	if decoded, err := url.PathUnescape(s); err == nil {
		s = decoded
	}
	s = html.UnescapeString(s)
	s = norm.NFC.String(s)

	var b strings.Builder
	for _, r := range s {
		switch {
		case r > unicode.MaxASCII:
		case unicode.IsControl(r):
		case strings.ContainsRune(reservedChars, r):
		default:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// AttachmentDisposition builds a Content-Disposition value for an mp3 download.
func AttachmentDisposition(title string) string {
	return fmt.Sprintf(`attachment; filename="%s.mp3"`, SanitizeFilename(title))
}

// ContentTypeForExt maps a container extension to a MIME type.
// Unknown extensions are served as audio/mpeg.
func ContentTypeForExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "m4a", "mp4", "m4b":
		return "audio/mp4"
	case "webm", "weba":
		return "audio/webm"
	case "ogg", "opus", "oga":
		return "audio/ogg"
	case "aac":
		return "audio/aac"
	case "flac":
		return "audio/flac"
	case "wav":
		return "audio/wav"
	default:
		return "audio/mpeg"
	}
}
