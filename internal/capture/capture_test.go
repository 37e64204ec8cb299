package capture

import (
	"errors"
	"image"
	"testing"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		id      string
		kind    Kind
		key     string
		wantErr bool
	}{
		{"screen:0", KindScreen, "0", false},
		{"window:0x03a00007", KindWindow, "0x03a00007", false},
		{"window:", "", "", true},
		{"screen", "", "", true},
		{"camera:1", "", "", true},
		{"", "", "", true},
	}

	for _, tt := range tests {
		kind, key, err := ParseID(tt.id)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			continue
		}
		if err != nil && !errors.Is(err, ErrInvalidSourceID) {
			t.Errorf("ParseID(%q) error = %v, want ErrInvalidSourceID", tt.id, err)
		}
		if kind != tt.kind || key != tt.key {
			t.Errorf("ParseID(%q) = (%q, %q), want (%q, %q)", tt.id, kind, key, tt.kind, tt.key)
		}
	}
}

func TestScreenName(t *testing.T) {
	if got := ScreenName(0, 1); got != "Entire Screen" {
		t.Errorf("ScreenName(0, 1) = %q, want %q", got, "Entire Screen")
	}
	if got := ScreenName(1, 2); got != "Screen 2" {
		t.Errorf("ScreenName(1, 2) = %q, want %q", got, "Screen 2")
	}
}

func TestConstraintsFor(t *testing.T) {
	c := ConstraintsFor(Source{ID: "screen:0", Name: "Entire Screen", Kind: KindScreen})
	if c.Audio {
		t.Error("constraints must disable audio")
	}
	if c.Video.SourceKind != DesktopSource || c.Video.SourceID != "screen:0" {
		t.Errorf("Video = %+v, want desktop/screen:0", c.Video)
	}
}

func TestWantKind(t *testing.T) {
	if !wantKind(nil, KindWindow) {
		t.Error("no kinds should mean all kinds")
	}
	if wantKind([]Kind{KindScreen}, KindWindow) {
		t.Error("window should be excluded")
	}
}

func TestParseWmctrl(t *testing.T) {
	out := "0x03a00007  0 1920 0    1280 720  host Terminal - bash\n" +
		"0x01000003 -1 0    0    1920 32   host Top Panel\n" +
		"0x04400001  1 10   20   800  600  host Firefox\n" +
		"garbage line\n" +
		"0x05000001  0 0    0    0    0    host Zero Size\n"

	wins := parseWmctrl(out)
	if len(wins) != 2 {
		t.Fatalf("len(wins) = %d, want 2: %+v", len(wins), wins)
	}
	if wins[0].Key != "0x03a00007" || wins[0].Title != "Terminal - bash" {
		t.Errorf("wins[0] = %+v", wins[0])
	}
	if want := image.Rect(1920, 0, 3200, 720); wins[0].Bounds != want {
		t.Errorf("wins[0].Bounds = %v, want %v", wins[0].Bounds, want)
	}
	if wins[1].Title != "Firefox" {
		t.Errorf("wins[1].Title = %q, want %q", wins[1].Title, "Firefox")
	}
}

func TestParseProcessWindows(t *testing.T) {
	out := "1234\tUntitled - Notepad\r\n5678\t\r\nabc\tBad Pid\n9012\tVisual Studio Code\n"

	wins := parseProcessWindows(out)
	if len(wins) != 2 {
		t.Fatalf("len(wins) = %d, want 2: %+v", len(wins), wins)
	}
	if wins[0].Key != "1234" || wins[0].Title != "Untitled - Notepad" {
		t.Errorf("wins[0] = %+v", wins[0])
	}
	if wins[1].Key != "9012" {
		t.Errorf("wins[1].Key = %q, want %q", wins[1].Key, "9012")
	}
}
