// Package session coordinates source selection, preview, recording and
// saving for a single capture session at a time.
package session

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/screenrec/internal/capture"
	"github.com/GriffinCanCode/screenrec/internal/dialog"
	apperr "github.com/GriffinCanCode/screenrec/internal/errors"
	"github.com/GriffinCanCode/screenrec/internal/media"
	"github.com/GriffinCanCode/screenrec/internal/preview"
	"github.com/GriffinCanCode/screenrec/internal/sink"
	"github.com/GriffinCanCode/screenrec/internal/trace"
)

// Recorder is the part of media.Recorder the controller drives.
type Recorder interface {
	Start(ctx context.Context) error
	Stop() error
	Close() error
	State() media.State
	MimeType() string
	Err() error
	OnDataAvailable(fn func([]byte))
	OnStop(fn func())
}

// RecorderFactory binds a new recorder to stream.
type RecorderFactory func(stream capture.Stream) (Recorder, error)

// NewMediaRecorder returns a factory producing media.Recorders that encode
// with enc.
func NewMediaRecorder(enc media.Encoder, opts media.Options) RecorderFactory {
	return func(stream capture.Stream) (Recorder, error) {
		rec, err := media.NewRecorder(stream, enc, opts)
		if err != nil {
			return nil, err
		}
		return rec, nil
	}
}

// Options wires a Controller to its collaborators.
type Options struct {
	Platform    capture.Platform
	NewRecorder RecorderFactory
	Prompt      dialog.SavePrompt
	Sink        sink.Sink
	Preview     *preview.Surface // optional
	Now         func() time.Time
}

// Session is one selected source with its stream, recorder and chunk buffer.
type Session struct {
	ID       string
	Source   capture.Source
	Stream   capture.Stream
	Recorder Recorder

	chunks   [][]byte
	bytes    int
	pending  bool            // started and not yet stopped-and-collected
	traceCtx context.Context // trace of the request that started the recording
}

// Controller owns at most one active Session.
type Controller struct {
	platform    capture.Platform
	newRecorder RecorderFactory
	prompt      dialog.SavePrompt
	sink        sink.Sink
	preview     *preview.Surface
	now         func() time.Time

	ctx    context.Context
	cancel context.CancelFunc
	saves  sync.WaitGroup

	mu     sync.Mutex
	active *Session
	closed bool

	events chan Event
	saved  chan SaveResult
}

// New creates a controller with no session bound.
func New(opts Options) *Controller {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sink == nil {
		opts.Sink = sink.File{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		platform:    opts.Platform,
		newRecorder: opts.NewRecorder,
		prompt:      opts.Prompt,
		sink:        opts.Sink,
		preview:     opts.Preview,
		now:         opts.Now,
		ctx:         ctx,
		cancel:      cancel,
		events:      make(chan Event, EventBuffer),
		saved:       make(chan SaveResult, SavedBuffer),
	}
}

// Events returns the event stream. Events are dropped when nobody reads.
func (c *Controller) Events() <-chan Event { return c.events }

// Saved receives the outcome of every save attempt.
func (c *Controller) Saved() <-chan SaveResult { return c.saved }

// ListSources returns the capturable windows and screens.
func (c *Controller) ListSources(ctx context.Context) ([]capture.Source, error) {
	sources, err := c.platform.Sources(ctx, capture.KindWindow, capture.KindScreen)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.CodeSourceEnumerationFailed, "enumerate capture sources")
	}
	return sources, nil
}

// PresentSourcePicker lists sources, asks menu to pick one by name and
// selects it.
func (c *Controller) PresentSourcePicker(ctx context.Context, menu dialog.Menu) (capture.Source, error) {
	sources, err := c.ListSources(ctx)
	if err != nil {
		return capture.Source{}, err
	}

	labels := make([]string, len(sources))
	for i, s := range sources {
		labels[i] = s.Name
	}
	idx, err := menu.Choose(ctx, PickerTitle, labels)
	if errors.Is(err, dialog.ErrCancelled) || (err == nil && (idx < 0 || idx >= len(sources))) {
		return capture.Source{}, apperr.New(apperr.CodeSourceSelectionCancelled, "no source selected")
	}
	if err != nil {
		return capture.Source{}, apperr.Wrap(err, apperr.CodeInternal, "source menu")
	}

	src := sources[idx]
	if err := c.SelectSource(ctx, src); err != nil {
		return capture.Source{}, err
	}
	return src, nil
}

// SelectSourceByID selects the currently listed source with the given ID.
func (c *Controller) SelectSourceByID(ctx context.Context, id string) (capture.Source, error) {
	if _, _, err := capture.ParseID(id); err != nil {
		return capture.Source{}, apperr.Wrap(err, apperr.CodeInvalidArgument, "parse source id").WithMetadata("source", id)
	}
	sources, err := c.ListSources(ctx)
	if err != nil {
		return capture.Source{}, err
	}
	for _, s := range sources {
		if s.ID == id {
			return s, c.SelectSource(ctx, s)
		}
	}
	return capture.Source{}, apperr.New(apperr.CodeNotFound, "source not available").WithMetadata("source", id)
}

// SelectSource acquires a stream for src and makes it the active session.
// The previous session is released only once the new stream is acquired.
func (c *Controller) SelectSource(ctx context.Context, src capture.Source) error {
	ctx, span := trace.StartSpan(ctx, "select_source")
	defer span.End()
	span.SetAttr("source", src.ID)
	log := trace.Logger(ctx)

	stream, err := c.platform.Acquire(ctx, capture.ConstraintsFor(src))
	if err != nil {
		log.Warn("stream acquisition failed", "source", src.ID, "error", err)
		return apperr.Wrap(err, apperr.CodeStreamAcquisitionFailed, "acquire capture stream").WithMetadata("source", src.ID)
	}

	rec, err := c.newRecorder(stream)
	if err != nil {
		_ = stream.Close()
		return apperr.Wrap(err, apperr.CodeEncoderFailed, "create recorder").WithMetadata("source", src.ID)
	}

	s := &Session{ID: uuid.NewString(), Source: src, Stream: stream, Recorder: rec}
	rec.OnDataAvailable(func(data []byte) { c.onChunk(s, data) })
	rec.OnStop(func() { c.onStopped(s) })

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = rec.Close()
		_ = stream.Close()
		return apperr.New(apperr.CodeInternal, "controller closed")
	}
	prev := c.active
	c.active = s
	c.mu.Unlock()

	if prev != nil {
		c.release(ctx, prev)
	}
	if c.preview != nil {
		c.preview.Attach(stream)
		c.preview.Play(c.ctx)
	}

	span.SetAttr("session", s.ID)
	log.Info("source selected", "source", src.ID, "name", src.Name, "session", s.ID)
	c.publish(Event{Type: EventSourceSelected, SessionID: s.ID, Source: &src})
	return nil
}

// Start begins recording the active session. Starting while already
// recording is a no-op.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	s := c.active
	if s == nil {
		c.mu.Unlock()
		return apperr.New(apperr.CodeRecorderNotBound, "no source selected")
	}
	if s.Recorder.State() == media.StateRecording {
		c.mu.Unlock()
		return nil
	}
	// a previous recording still flushing clears the buffer in onStopped
	flushing := s.pending
	if !flushing {
		s.chunks, s.bytes = nil, 0
	}
	s.pending = true
	s.traceCtx = trace.Detach(ctx)
	c.mu.Unlock()

	if err := s.Recorder.Start(ctx); err != nil {
		if !flushing {
			c.mu.Lock()
			s.pending = false
			c.mu.Unlock()
		}
		return apperr.Wrap(err, apperr.CodeEncoderFailed, "start recording").WithMetadata("source", s.Source.ID)
	}

	trace.Logger(ctx).Info("recording started", "session", s.ID, "source", s.Source.ID)
	c.publish(Event{Type: EventRecordingStarted, SessionID: s.ID, Source: &s.Source})
	return nil
}

// Stop ends the active recording. The artifact is saved once the recorder
// has delivered its last chunk. Stopping an idle recorder is a no-op.
func (c *Controller) Stop(ctx context.Context) error {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()
	if s == nil {
		return apperr.New(apperr.CodeRecorderNotBound, "no source selected")
	}
	if s.Recorder.State() != media.StateRecording {
		return nil
	}
	if err := s.Recorder.Stop(); err != nil {
		return apperr.Wrap(err, apperr.CodeEncoderFailed, "stop recording").WithMetadata("source", s.Source.ID)
	}
	trace.Logger(ctx).Info("recording stopped", "session", s.ID, "source", s.Source.ID)
	c.publish(Event{Type: EventRecordingStopped, SessionID: s.ID, Source: &s.Source})
	return nil
}

// Current returns the selected source, if any.
func (c *Controller) Current() (capture.Source, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active == nil {
		return capture.Source{}, false
	}
	return c.active.Source, true
}

// Button returns the start control's visual state.
func (c *Controller) Button() ButtonState {
	c.mu.Lock()
	s := c.active
	c.mu.Unlock()
	return buttonFor(s)
}

// State returns a snapshot of the active session.
func (c *Controller) State() Snapshot {
	c.mu.Lock()
	s := c.active
	snap := Snapshot{State: media.StateIdle.String()}
	if s != nil {
		src := s.Source
		snap.SessionID = s.ID
		snap.Source = &src
		snap.Chunks = len(s.chunks)
		snap.Bytes = s.bytes
	}
	c.mu.Unlock()

	if s != nil {
		snap.State = s.Recorder.State().String()
	}
	snap.Button = buttonFor(s)
	return snap
}

// Close releases the active session and waits for in-flight saves.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	s := c.active
	c.active = nil
	c.mu.Unlock()

	if s != nil {
		c.release(c.ctx, s)
	}
	if c.preview != nil {
		c.preview.Detach()
	}
	c.saves.Wait()
	c.cancel()
	return nil
}

// release stops s without saving and frees its stream.
func (c *Controller) release(ctx context.Context, s *Session) {
	log := trace.Logger(ctx)
	if err := s.Recorder.Close(); err != nil {
		log.Warn("recorder close failed", "session", s.ID, "error", err)
	}
	if err := s.Stream.Close(); err != nil {
		log.Warn("stream close failed", "session", s.ID, "error", err)
	}
	log.Debug("session released", "session", s.ID, "source", s.Source.ID)
	c.publish(Event{Type: EventSessionReleased, SessionID: s.ID, Source: &s.Source})
}

func (c *Controller) onChunk(s *Session, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != s {
		trace.Logger(c.ctx).Debug("dropping chunk from released session", "session", s.ID, "bytes", len(data))
		return
	}
	s.chunks = append(s.chunks, data)
	s.bytes += len(data)
}

func (c *Controller) onStopped(s *Session) {
	encErr := s.Recorder.Err()

	c.mu.Lock()
	if c.active != s || c.closed {
		c.mu.Unlock()
		return
	}
	chunks := s.chunks
	s.chunks, s.bytes, s.pending = nil, 0, false
	ctx := s.traceCtx
	if ctx == nil {
		ctx = c.ctx
	}
	c.saves.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.saves.Done()
		c.save(ctx, s, chunks, encErr)
	}()
}

// save concatenates chunks, asks where to put them and writes the artifact.
// A recording whose encoder failed is saved only if it produced output.
func (c *Controller) save(ctx context.Context, s *Session, chunks [][]byte, encErr error) {
	ctx, span := trace.StartSpan(ctx, "save_recording")
	defer span.End()
	log := trace.Logger(ctx)

	now := c.now()
	artifact := sink.Artifact{
		Data:      bytes.Join(chunks, nil),
		MimeType:  s.Recorder.MimeType(),
		Source:    s.Source.ID,
		CreatedAt: now,
	}
	span.SetAttr("session", s.ID)
	span.SetAttr("bytes", len(artifact.Data))
	res := SaveResult{SessionID: s.ID, Bytes: len(artifact.Data)}

	if encErr != nil {
		if res.Bytes == 0 {
			res.Err = apperr.Wrap(encErr, apperr.CodeEncoderFailed, "encoder produced no output").WithMetadata("source", s.Source.ID)
			c.fail(ctx, s, res)
			return
		}
		log.Warn("encoder failed, saving partial recording", "session", s.ID, "bytes", res.Bytes, "error", encErr)
	}

	path, err := c.prompt.Prompt(ctx, SaveLabel, DefaultFilename(now))
	switch {
	case errors.Is(err, dialog.ErrCancelled):
		log.Info("save cancelled", "session", s.ID, "bytes", res.Bytes)
		res.Cancelled = true
		c.publish(Event{Type: EventSaveCancelled, SessionID: s.ID, Source: &s.Source, Bytes: res.Bytes, Chunks: len(chunks)})
		c.deliver(res)
		return
	case err != nil:
		res.Err = apperr.Wrap(err, apperr.CodeInternal, "save prompt")
		c.fail(ctx, s, res)
		return
	}

	res.Path = path
	if err := c.sink.Write(ctx, path, artifact); err != nil {
		if apperr.CodeOf(err) != apperr.CodeFileWriteFailed {
			err = apperr.Wrap(err, apperr.CodeFileWriteFailed, "write recording").WithMetadata("path", path)
		}
		res.Err = err
		c.fail(ctx, s, res)
		return
	}

	log.Info("recording saved", "session", s.ID, "path", path, "artifact", sink.Describe(artifact))
	c.publish(Event{Type: EventSaved, SessionID: s.ID, Source: &s.Source, Path: path, Bytes: res.Bytes, Chunks: len(chunks)})
	c.deliver(res)
}

func (c *Controller) fail(ctx context.Context, s *Session, res SaveResult) {
	trace.Logger(ctx).Error("save failed", "session", s.ID, "path", res.Path, "error", res.Err)
	c.publish(Event{Type: EventError, SessionID: s.ID, Source: &s.Source, Path: res.Path, Bytes: res.Bytes, Err: res.Err.Error()})
	c.deliver(res)
}

func (c *Controller) publish(e Event) {
	if e.Time.IsZero() {
		e.Time = c.now()
	}
	select {
	case c.events <- e:
	default:
		trace.Logger(c.ctx).Debug("event dropped", "type", e.Type)
	}
}

func (c *Controller) deliver(res SaveResult) {
	select {
	case c.saved <- res:
	default:
		trace.Logger(c.ctx).Debug("save result dropped", "session", res.SessionID)
	}
}

func buttonFor(s *Session) ButtonState {
	if s != nil && s.Recorder.State() == media.StateRecording {
		return ButtonState{Label: LabelRecording, Danger: true}
	}
	return ButtonState{Label: LabelStart}
}
