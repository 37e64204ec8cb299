package cli

import (
	"bytes"
	"context"
	"errors"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/GriffinCanCode/screenrec/internal/capture"
	"github.com/GriffinCanCode/screenrec/internal/config"
	apperr "github.com/GriffinCanCode/screenrec/internal/errors"
	"github.com/GriffinCanCode/screenrec/internal/media"
)

type fakeStream struct{ src capture.Source }

func (s *fakeStream) ID() string                  { return "stream-1" }
func (s *fakeStream) Source() capture.Source      { return s.src }
func (s *fakeStream) Bounds() image.Rectangle     { return image.Rect(0, 0, 8, 8) }
func (s *fakeStream) InputArgs() []string         { return nil }
func (s *fakeStream) Frame() (*image.RGBA, error) { return image.NewRGBA(s.Bounds()), nil }
func (s *fakeStream) Close() error                { return nil }
func (s *fakeStream) Closed() bool                { return false }

type fakePlatform struct {
	sources []capture.Source
	err     error
}

func (p *fakePlatform) Sources(context.Context, ...capture.Kind) ([]capture.Source, error) {
	return p.sources, p.err
}

func (p *fakePlatform) Acquire(_ context.Context, c capture.Constraints) (capture.Stream, error) {
	for _, s := range p.sources {
		if s.ID == c.Video.SourceID {
			return &fakeStream{src: s}, nil
		}
	}
	return nil, capture.ErrSourceNotFound
}

// pipeEncoder writes payload once started and finishes on Stop.
type pipeEncoder struct {
	payload  []byte
	checkErr error
}

func (e pipeEncoder) Check() error { return e.checkErr }

func (e pipeEncoder) Encode(context.Context, capture.Stream, media.Format) (media.Process, error) {
	pr, pw := io.Pipe()
	go func() { _, _ = pw.Write(e.payload) }()
	return &pipeProcess{r: pr, w: pw}, nil
}

type pipeProcess struct {
	r *io.PipeReader
	w *io.PipeWriter
}

func (p *pipeProcess) Output() io.Reader { return p.r }
func (p *pipeProcess) Stop() error       { return p.w.Close() }
func (p *pipeProcess) Wait() error       { return nil }

func testDeps(t *testing.T) *Dependencies {
	t.Helper()
	cfg := config.Default()
	cfg.Headless = true
	cfg.OutputDir = t.TempDir()
	return &Dependencies{
		Config: cfg,
		Platform: &fakePlatform{sources: []capture.Source{
			{ID: "screen:0", Name: "Entire Screen", Kind: capture.KindScreen},
			{ID: "window:0x01", Name: "Terminal", Kind: capture.KindWindow},
		}},
		Encoder: pipeEncoder{payload: []byte("webm-bytes")},
	}
}

func execute(t *testing.T, deps *Dependencies, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(deps)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestSourcesCmd(t *testing.T) {
	out, err := execute(t, testDeps(t), "sources", "--kind", "window")
	if err != nil {
		t.Fatalf("sources error: %v", err)
	}
	if !strings.Contains(out, "window:0x01") {
		t.Errorf("output = %q, want window:0x01", out)
	}
	if strings.Contains(out, "screen:0") {
		t.Errorf("output = %q, screens should be filtered out", out)
	}
}

func TestSourcesCmdBadKind(t *testing.T) {
	if _, err := execute(t, testDeps(t), "sources", "--kind", "tab"); err == nil {
		t.Error("unknown kind should fail")
	}
}

func TestSourcesCmdEnumerationFailure(t *testing.T) {
	deps := testDeps(t)
	deps.Platform = &fakePlatform{err: capture.ErrNotSupported}

	_, err := execute(t, deps, "sources")
	if !apperr.IsCode(err, apperr.CodeSourceEnumerationFailed) {
		t.Errorf("error = %v, want SOURCE_ENUMERATION_FAILED", err)
	}
}

func TestRecordCmd(t *testing.T) {
	deps := testDeps(t)
	dir := filepath.Join(t.TempDir(), "out")

	out, err := execute(t, deps, "record", "--source", "screen:0", "--duration", "20ms", "--output", dir)
	if err != nil {
		t.Fatalf("record error: %v\n%s", err, out)
	}

	matches, _ := filepath.Glob(filepath.Join(dir, "vid-*.webm"))
	if len(matches) != 1 {
		t.Fatalf("saved files = %v, want exactly one vid-*.webm", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("ReadFile error: %v", err)
	}
	if string(data) != "webm-bytes" {
		t.Errorf("saved = %q, want %q", data, "webm-bytes")
	}
	if !strings.Contains(out, "Video saved") {
		t.Errorf("output = %q, want save confirmation", out)
	}
}

func TestRecordCmdMatch(t *testing.T) {
	deps := testDeps(t)

	out, err := execute(t, deps, "record", "--match", "term", "--duration", "10ms")
	if err != nil {
		t.Fatalf("record error: %v", err)
	}
	if !strings.Contains(out, "Selected: Terminal") {
		t.Errorf("output = %q, want Terminal selected", out)
	}
}

func TestRecordCmdUnknownSource(t *testing.T) {
	_, err := execute(t, testDeps(t), "record", "--source", "window:0xff", "--duration", "10ms")
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		t.Errorf("error = %v, want NOT_FOUND", err)
	}
}

func TestRecordCmdWithoutFFmpeg(t *testing.T) {
	deps := testDeps(t)
	deps.Encoder = pipeEncoder{checkErr: errors.New("ffmpeg not found")}

	if _, err := execute(t, deps, "record", "--source", "screen:0"); err == nil {
		t.Error("record should fail when ffmpeg is missing")
	}
}

func TestDoctorCmd(t *testing.T) {
	out, err := execute(t, testDeps(t), "doctor")
	if err != nil {
		t.Fatalf("doctor error: %v", err)
	}
	if !strings.Contains(out, "2 sources") || !strings.Contains(out, "Ready to record") {
		t.Errorf("output = %q, want source count and ready message", out)
	}
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, testDeps(t), "--version")
	if err != nil {
		t.Fatalf("--version error: %v", err)
	}
	if !strings.HasPrefix(out, "screenrec dev") {
		t.Errorf("output = %q, want version line", out)
	}
}
