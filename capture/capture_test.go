package capture

import (
	"context"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/quickbasket/storefront/core/search"
)

type fakeStream struct {
	frame   image.Image
	readErr error
	closed  bool
}

func (f *fakeStream) ReadFrame(ctx context.Context) (image.Image, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.frame, nil
}

func (f *fakeStream) Close() error {
	f.closed = true
	return nil
}

type fakeCamera struct {
	stream  *fakeStream
	openErr error
	opens   int
}

func (f *fakeCamera) Open(ctx context.Context) (Stream, error) {
	f.opens++
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.stream, nil
}

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func okServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1","message":"File uploaded successfully: snapshot.png"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func failingServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func fastUploader(url string) *Uploader {
	u := NewUploader(url, testLogger())
	u.MaxRetries = 0
	u.RetryBase = 1
	return u
}

func newFrame() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 2, 2))
}

func TestStartCameraAcquisitionFailure(t *testing.T) {
	cam := &fakeCamera{openErr: errors.New("permission denied")}
	s := NewSession(cam, fastUploader("http://unused"), testLogger())

	if err := s.StartCamera(context.Background()); err == nil {
		t.Fatal("expected an acquisition error")
	}
	if s.StreamActive() {
		t.Fatal("no stream may be held after an acquisition failure")
	}
	if got := s.State(); got != Idle {
		t.Fatalf("expected Idle after failure, got %v", got)
	}
	if cam.opens != 1 {
		t.Fatalf("expected exactly one acquisition attempt, got %d", cam.opens)
	}
}

func TestStartCameraTwice(t *testing.T) {
	cam := &fakeCamera{stream: &fakeStream{frame: newFrame()}}
	s := NewSession(cam, fastUploader("http://unused"), testLogger())

	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.StartCamera(context.Background()); !errors.Is(err, ErrCameraBusy) {
		t.Fatalf("expected ErrCameraBusy, got %v", err)
	}
	if cam.opens != 1 {
		t.Fatalf("a second stream was acquired while one was open: %d opens", cam.opens)
	}
}

func TestCaptureAndSubmitReleasesStream(t *testing.T) {
	srv := okServer(t)
	stream := &fakeStream{frame: newFrame()}
	s := NewSession(&fakeCamera{stream: stream}, fastUploader(srv.URL), testLogger())

	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatal(err)
	}

	ack, err := s.CaptureAndSubmit(context.Background(), search.MealPlanner)
	if err != nil {
		t.Fatal(err)
	}
	if !stream.closed {
		t.Fatal("stream not released after capture")
	}
	if s.StreamActive() {
		t.Fatal("session still reports an active stream")
	}
	if got := s.State(); got != Completed {
		t.Fatalf("expected Completed, got %v", got)
	}
	if ack.Message == "" {
		t.Fatal("expected an acknowledgement message")
	}
}

func TestCaptureReleasesStreamWhenSubmissionFails(t *testing.T) {
	srv := failingServer(t)
	stream := &fakeStream{frame: newFrame()}
	s := NewSession(&fakeCamera{stream: stream}, fastUploader(srv.URL), testLogger())

	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := s.CaptureAndSubmit(context.Background(), search.MealPlanner); err == nil {
		t.Fatal("expected the submission to fail")
	}
	if !stream.closed {
		t.Fatal("stream must be released even when submission fails")
	}
	if got := s.State(); got != Failed {
		t.Fatalf("expected Failed, got %v", got)
	}

	// A fresh user action starts over from Idle.
	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatalf("restart after failure: %v", err)
	}
	if got := s.State(); got != CameraActive {
		t.Fatalf("expected CameraActive, got %v", got)
	}
}

func TestCaptureReleasesStreamOnFrameError(t *testing.T) {
	stream := &fakeStream{readErr: errors.New("device wedged")}
	s := NewSession(&fakeCamera{stream: stream}, fastUploader("http://unused"), testLogger())

	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatal(err)
	}

	if _, err := s.CaptureAndSubmit(context.Background(), search.MealPlanner); err == nil {
		t.Fatal("expected a frame error")
	}
	if !stream.closed {
		t.Fatal("stream must be released before surfacing the frame error")
	}
	if got := s.State(); got != Idle {
		t.Fatalf("expected Idle after a local failure, got %v", got)
	}
}

func TestCancelReleasesStream(t *testing.T) {
	stream := &fakeStream{frame: newFrame()}
	s := NewSession(&fakeCamera{stream: stream}, fastUploader("http://unused"), testLogger())

	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatal(err)
	}

	s.Cancel()

	if !stream.closed {
		t.Fatal("cancel must release the stream")
	}
	if got := s.State(); got != Idle {
		t.Fatalf("expected Idle after cancel, got %v", got)
	}
}

func TestSubmitFileReleasesOpenStream(t *testing.T) {
	srv := okServer(t)
	stream := &fakeStream{frame: newFrame()}
	s := NewSession(&fakeCamera{stream: stream}, fastUploader(srv.URL), testLogger())

	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatal(err)
	}

	// Selecting a file while the camera is live bypasses the snapshot but
	// still tears the stream down.
	if _, err := s.SubmitFile(context.Background(), search.ShopByList, "list.txt", []byte("milk")); err != nil {
		t.Fatal(err)
	}
	if !stream.closed {
		t.Fatal("stream must be released when a file is chosen instead")
	}
	if got := s.State(); got != Completed {
		t.Fatalf("expected Completed, got %v", got)
	}
}

func TestSubmitTextWithoutCamera(t *testing.T) {
	srv := okServer(t)
	s := NewSession(&fakeCamera{}, fastUploader(srv.URL), testLogger())

	if _, err := s.SubmitText(context.Background(), search.ShopByList, "milk, eggs, bread"); err != nil {
		t.Fatal(err)
	}
	if got := s.State(); got != Completed {
		t.Fatalf("expected Completed, got %v", got)
	}
}

func TestStartCameraDuringSubmission(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"u1","message":"Search processed with the text data: milk"}`))
	}))
	t.Cleanup(srv.Close)

	stream := &fakeStream{frame: newFrame()}
	cam := &fakeCamera{stream: stream}
	s := NewSession(cam, fastUploader(srv.URL), testLogger())

	done := make(chan error, 1)
	go func() {
		_, err := s.SubmitText(context.Background(), search.ShopByList, "milk")
		done <- err
	}()

	waitForState(t, s, Submitting)

	// The user restarts the camera while the upload is still in flight.
	if err := s.StartCamera(context.Background()); err != nil {
		t.Fatal(err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}

	// The finished submission must not overwrite the restarted camera.
	if got := s.State(); got != CameraActive {
		t.Fatalf("expected CameraActive after the upload finished, got %v", got)
	}
	if !s.StreamActive() {
		t.Fatal("the restarted stream must still be held")
	}
	if stream.closed {
		t.Fatal("the restarted stream must not be closed by the old submission")
	}

	// The held stream is still usable and torn down normally.
	s.Cancel()
	if !stream.closed {
		t.Fatal("cancel must release the stream")
	}
}

func waitForState(t *testing.T, s *Session, want State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("session never reached %v", want)
}

func TestCaptureWithoutCamera(t *testing.T) {
	s := NewSession(&fakeCamera{}, fastUploader("http://unused"), testLogger())

	if _, err := s.CaptureAndSubmit(context.Background(), search.MealPlanner); err == nil {
		t.Fatal("expected an error when no stream is active")
	}
}
