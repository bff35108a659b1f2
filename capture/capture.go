// Package capture drives the fast-forward submission flow: an optional
// camera snapshot or a selected file is turned into one multipart upload.
// The camera stream is the only owned resource and is released on every
// path out of the CameraActive state.
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/quickbasket/storefront/core/search"
	"github.com/quickbasket/storefront/random"
)

type State int

const (
	Idle State = iota
	CameraActive
	PayloadReady
	Submitting
	Completed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case CameraActive:
		return "camera-active"
	case PayloadReady:
		return "payload-ready"
	case Submitting:
		return "submitting"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	}
	return "unknown"
}

var ErrCameraBusy = errors.New("camera stream already active")

// Stream is a live camera handle. Close stops every track and must be
// called exactly once per acquired stream.
type Stream interface {
	ReadFrame(ctx context.Context) (image.Image, error)
	Close() error
}

type Camera interface {
	Open(ctx context.Context) (Stream, error)
}

// Session is a single capture flow. It holds at most one open stream and
// serializes all transitions, so a second capture can never acquire a new
// stream while an old one is still open.
type Session struct {
	camera   Camera
	uploader *Uploader
	log      logrus.FieldLogger

	mu     sync.Mutex
	state  State
	stream Stream

	// gen identifies the submission in flight. A finished upload may only
	// write Completed or Failed while its own generation is still current,
	// so a camera restarted mid-submission keeps its state and stream.
	gen uint64
}

func NewSession(camera Camera, uploader *Uploader, log logrus.FieldLogger) *Session {
	return &Session{
		camera:   camera,
		uploader: uploader,
		log:      log,
		state:    Idle,
	}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) StreamActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream != nil
}

// StartCamera moves Idle to CameraActive. Acquisition failure leaves the
// session Idle with no stream held; there is no automatic retry.
func (s *Session) StartCamera(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	if s.state == CameraActive {
		return ErrCameraBusy
	}

	stream, err := s.camera.Open(ctx)
	if err != nil {
		s.state = Idle
		return fmt.Errorf("acquiring camera: %w", err)
	}

	s.stream = stream
	s.state = CameraActive
	return nil
}

// CaptureAndSubmit grabs one frame, encodes it to PNG and submits it
// immediately. The stream is released before the submission starts and
// before any frame or encoding error is surfaced.
func (s *Session) CaptureAndSubmit(ctx context.Context, tag search.Type) (search.Ack, error) {
	s.mu.Lock()
	if s.state != CameraActive || s.stream == nil {
		s.mu.Unlock()
		return search.Ack{}, errors.New("no active camera stream to capture from")
	}

	frame, readErr := s.stream.ReadFrame(ctx)

	var buf bytes.Buffer
	var encErr error
	if readErr == nil {
		encErr = png.Encode(&buf, frame)
	}

	// Release happens here no matter what, so the camera never outlives
	// the CameraActive state.
	s.releaseLocked()

	if readErr != nil {
		s.state = Idle
		s.mu.Unlock()
		return search.Ack{}, fmt.Errorf("reading frame: %w", readErr)
	}
	if encErr != nil {
		s.state = Idle
		s.mu.Unlock()
		return search.Ack{}, fmt.Errorf("encoding frame: %w", encErr)
	}

	s.state = PayloadReady
	s.mu.Unlock()

	name := "snapshot-" + random.String(8) + ".png"
	return s.submit(ctx, tag, BinaryPayload(name, buf.Bytes()))
}

// SubmitFile skips the camera entirely. Any open stream is released first,
// so file-based and camera-based payloads share one submission path.
func (s *Session) SubmitFile(ctx context.Context, tag search.Type, name string, content []byte) (search.Ack, error) {
	s.preparePayload()
	return s.submit(ctx, tag, BinaryPayload(name, content))
}

func (s *Session) SubmitText(ctx context.Context, tag search.Type, text string) (search.Ack, error) {
	s.preparePayload()
	return s.submit(ctx, tag, TextPayload(text))
}

// Cancel releases any held stream and returns the session to Idle.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseLocked()
	s.state = Idle
}

func (s *Session) preparePayload() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.releaseLocked()
	s.state = PayloadReady
}

func (s *Session) submit(ctx context.Context, tag search.Type, p Payload) (search.Ack, error) {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	if s.state == PayloadReady {
		s.state = Submitting
	}
	s.mu.Unlock()

	ack, err := s.uploader.Upload(ctx, tag, p)

	s.mu.Lock()
	if s.state == Submitting && s.gen == gen {
		if err != nil {
			s.state = Failed
		} else {
			s.state = Completed
		}
	}
	s.mu.Unlock()

	if err != nil {
		return search.Ack{}, err
	}
	return ack, nil
}

// resetLocked starts a fresh session when the previous one finished or
// failed. CameraActive is left alone so callers can detect the conflict.
func (s *Session) resetLocked() {
	if s.state == Completed || s.state == Failed {
		s.state = Idle
	}
}

func (s *Session) releaseLocked() {
	if s.stream == nil {
		return
	}
	if err := s.stream.Close(); err != nil {
		s.log.WithField("message", err).Warn("closing camera stream")
	}
	s.stream = nil
}
