package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/GriffinCanCode/screenrec/internal/capture"
)

// Encoder turns a capture stream into an encoded byte stream.
type Encoder interface {
	Encode(ctx context.Context, stream capture.Stream, f Format) (Process, error)
}

// Process is one running encode.
type Process interface {
	// Output yields encoded bytes until the encode finishes.
	Output() io.Reader
	// Stop asks the encoder to flush and exit.
	Stop() error
	// Wait blocks until the encoder exits. Call only after Output hit EOF.
	Wait() error
}

// FFmpegEncoder encodes by running ffmpeg with its output on stdout.
type FFmpegEncoder struct {
	Path      string
	FrameRate int
}

// NewFFmpegEncoder creates an encoder using the ffmpeg binary at path.
func NewFFmpegEncoder(path string, frameRate int) *FFmpegEncoder {
	if path == "" {
		path = "ffmpeg"
	}
	if frameRate <= 0 {
		frameRate = DefaultFrameRate
	}
	return &FFmpegEncoder{Path: path, FrameRate: frameRate}
}

// Check reports whether the ffmpeg binary can be found.
func (e *FFmpegEncoder) Check() error {
	if _, err := exec.LookPath(e.Path); err != nil {
		return fmt.Errorf("ffmpeg not found at %q: %w", e.Path, err)
	}
	return nil
}

// Args builds the ffmpeg command line for stream.
func (e *FFmpegEncoder) Args(stream capture.Stream, f Format) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostats",
		"-framerate", strconv.Itoa(e.FrameRate)}
	args = append(args, stream.InputArgs()...)
	return append(args,
		"-an",
		"-c:v", f.Codec,
		"-deadline", "realtime",
		"-row-mt", "1",
		"-f", f.Muxer,
		"pipe:1",
	)
}

func (e *FFmpegEncoder) Encode(ctx context.Context, stream capture.Stream, f Format) (Process, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if stream.Closed() {
		return nil, capture.ErrStreamClosed
	}

	// not CommandContext: the recording outlives the request that started it
	cmd := exec.Command(e.Path, e.Args(stream, f)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	p := &ffmpegProcess{cmd: cmd, stdin: stdin, stdout: stdout}
	cmd.Stderr = &p.stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start ffmpeg: %w", err)
	}
	slog.Debug("encoder started", "pid", cmd.Process.Pid, "stream", stream.ID(), "codec", f.Codec)
	return p, nil
}

type ffmpegProcess struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr bytes.Buffer

	stopOnce sync.Once
	killer   *time.Timer
	mu       sync.Mutex
}

func (p *ffmpegProcess) Output() io.Reader { return p.stdout }

// Stop sends ffmpeg's interactive quit command so the muxer writes its
// trailer, and kills the process if it has not exited after StopGracePeriod.
func (p *ffmpegProcess) Stop() error {
	var err error
	p.stopOnce.Do(func() {
		_, err = io.WriteString(p.stdin, "q")
		_ = p.stdin.Close()
		p.mu.Lock()
		p.killer = time.AfterFunc(StopGracePeriod, func() {
			slog.Warn("encoder did not exit in time, killing", "pid", p.cmd.Process.Pid)
			_ = p.cmd.Process.Kill()
		})
		p.mu.Unlock()
	})
	return err
}

func (p *ffmpegProcess) Wait() error {
	err := p.cmd.Wait()
	p.mu.Lock()
	if p.killer != nil {
		p.killer.Stop()
	}
	p.mu.Unlock()
	if err != nil && p.stderr.Len() > 0 {
		return fmt.Errorf("ffmpeg: %w: %s", err, bytes.TrimSpace(p.stderr.Bytes()))
	}
	return err
}
