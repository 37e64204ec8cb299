package media

import (
	"fmt"
	"mime"
	"strings"
)

// Format is a parsed output media type.
type Format struct {
	MimeType string
	Muxer    string // ffmpeg -f value
	Codec    string // ffmpeg -c:v value
}

var codecEncoders = map[string]string{
	"vp9": "libvpx-vp9",
	"vp8": "libvpx",
}

// ParseMimeType validates a recorder mime type. Only WebM with VP8 or VP9
// video is accepted.
func ParseMimeType(s string) (Format, error) {
	mediaType, params, err := mime.ParseMediaType(s)
	if err != nil {
		return Format{}, fmt.Errorf("parse mime type %q: %w", s, err)
	}
	if mediaType != "video/webm" {
		return Format{}, fmt.Errorf("unsupported container %q", mediaType)
	}
	codec := strings.ToLower(strings.TrimSpace(params["codecs"]))
	if codec == "" {
		codec = "vp8"
	}
	// "vp9.0" and "vp09.00.10.08" name the same codec family
	family := codec
	if i := strings.IndexByte(family, '.'); i >= 0 {
		family = family[:i]
	}
	family = strings.Replace(family, "vp0", "vp", 1)
	enc, ok := codecEncoders[family]
	if !ok {
		return Format{}, fmt.Errorf("unsupported codec %q", codec)
	}
	return Format{MimeType: s, Muxer: "webm", Codec: enc}, nil
}
