package media

import "testing"

func TestParseMimeType(t *testing.T) {
	tests := []struct {
		in      string
		codec   string
		wantErr bool
	}{
		{MimeTypeWebMVP9, "libvpx-vp9", false},
		{"video/webm;codecs=VP9", "libvpx-vp9", false},
		{"video/webm; codecs=vp09.00.10.08", "libvpx-vp9", false},
		{"video/webm; codecs=vp8", "libvpx", false},
		{"video/webm", "libvpx", false},
		{"video/webm; codecs=h264", "", true},
		{"video/mp4; codecs=avc1", "", true},
		{"not a mime type;;", "", true},
	}

	for _, tt := range tests {
		f, err := ParseMimeType(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMimeType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if err == nil {
			if f.Codec != tt.codec {
				t.Errorf("ParseMimeType(%q).Codec = %q, want %q", tt.in, f.Codec, tt.codec)
			}
			if f.Muxer != "webm" {
				t.Errorf("ParseMimeType(%q).Muxer = %q, want webm", tt.in, f.Muxer)
			}
			if f.MimeType != tt.in {
				t.Errorf("ParseMimeType(%q).MimeType = %q", tt.in, f.MimeType)
			}
		}
	}
}

func TestStateString(t *testing.T) {
	if StateIdle.String() != "idle" || StateRecording.String() != "recording" {
		t.Errorf("State strings = %q/%q", StateIdle, StateRecording)
	}
}
