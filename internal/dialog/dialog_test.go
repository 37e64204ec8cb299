package dialog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDirectoryPrompt(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "videos")

	path, err := Directory{Dir: dir}.Prompt(context.Background(), "Save video", "vid-1.webm")
	if err != nil {
		t.Fatalf("Prompt error: %v", err)
	}
	if path != filepath.Join(dir, "vid-1.webm") {
		t.Errorf("path = %q, want %q", path, filepath.Join(dir, "vid-1.webm"))
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("output dir should be created: %v", err)
	}
}

func TestDirectoryPromptNoDir(t *testing.T) {
	path, err := Directory{}.Prompt(context.Background(), "Save video", "vid-1.webm")
	if err != nil || path != "vid-1.webm" {
		t.Errorf("Prompt = (%q, %v), want bare filename", path, err)
	}
}

func TestFixedPrompt(t *testing.T) {
	path, err := Fixed{Path: "/tmp/out.webm"}.Prompt(context.Background(), "Save video", "ignored.webm")
	if err != nil || path != "/tmp/out.webm" {
		t.Errorf("Prompt = (%q, %v), want /tmp/out.webm", path, err)
	}
	if _, err := (Fixed{}).Prompt(context.Background(), "Save video", "x.webm"); !errors.Is(err, ErrCancelled) {
		t.Errorf("empty Fixed error = %v, want ErrCancelled", err)
	}
}

func TestMatchChoose(t *testing.T) {
	labels := []string{"Entire Screen", "Terminal - bash", "Firefox"}

	tests := []struct {
		query string
		want  int
		err   error
	}{
		{"", 0, nil},
		{"firefox", 2, nil},
		{"BASH", 1, nil},
		{"slack", -1, ErrCancelled},
	}
	for _, tt := range tests {
		got, err := Match{Query: tt.query}.Choose(context.Background(), "Select source", labels)
		if got != tt.want || !errors.Is(err, tt.err) {
			t.Errorf("Choose(%q) = (%d, %v), want (%d, %v)", tt.query, got, err, tt.want, tt.err)
		}
	}
}

func TestZenityChooseEmpty(t *testing.T) {
	if _, err := (Zenity{}).Choose(context.Background(), "Select source", nil); !errors.Is(err, ErrCancelled) {
		t.Errorf("Choose(nil) error = %v, want ErrCancelled", err)
	}
}

func TestUniqueLabels(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{[]string{"Terminal", "Firefox"}, []string{"Terminal", "Firefox"}},
		{[]string{"Terminal", "Terminal", "Terminal"}, []string{"Terminal", "Terminal (2)", "Terminal (3)"}},
		{[]string{"Terminal", "Terminal", "Terminal (2)"}, []string{"Terminal", "Terminal (3)", "Terminal (2)"}},
	}

	for _, tt := range tests {
		if got := uniqueLabels(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("uniqueLabels(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
