package dictation

import (
	"bufio"
	"context"
	"io"
	"os"
	"sync"
)

// Unsupported is the Recognizer for machines without speech-to-text.
type Unsupported struct{}

func (Unsupported) Supported() bool { return false }

func (Unsupported) Start(context.Context, string, bool, func(string)) error {
	return nil
}

func (Unsupported) Stop() error { return nil }

// LineRecognizer reads transcript fragments, one per line, from a stream
// produced by an external speech-to-text process.
type LineRecognizer struct {
	open func() (io.ReadCloser, error)

	mu      sync.Mutex
	rc      io.ReadCloser
	stopped chan struct{}
	cancel  context.CancelFunc
}

// NewLineRecognizer builds a recognizer that calls open at every Start.
func NewLineRecognizer(open func() (io.ReadCloser, error)) *LineRecognizer {
	return &LineRecognizer{open: open}
}

// NewFileRecognizer reads fragments from path, typically a fifo.
func NewFileRecognizer(path string) *LineRecognizer {
	return NewLineRecognizer(func() (io.ReadCloser, error) { return os.Open(path) })
}

func (r *LineRecognizer) Supported() bool { return r.open != nil }

func (r *LineRecognizer) Start(ctx context.Context, _ string, _ bool, emit func(string)) error {
	rc, err := r.open()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	stopped := make(chan struct{})

	r.mu.Lock()
	r.rc, r.stopped, r.cancel = rc, stopped, cancel
	r.mu.Unlock()

	go func() {
		defer close(done)
		sc := bufio.NewScanner(rc)
		for sc.Scan() {
			if ctx.Err() != nil {
				return
			}
			emit(sc.Text())
		}
	}()
	// the watcher owns rc: closing it unblocks a reader parked on a fifo
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
		case <-done:
		}
		_ = rc.Close()
		<-done
	}()
	return nil
}

// Stop ends the capture and waits until the stream is closed.
func (r *LineRecognizer) Stop() error {
	r.mu.Lock()
	rc, stopped, cancel := r.rc, r.stopped, r.cancel
	r.rc, r.stopped, r.cancel = nil, nil, nil
	r.mu.Unlock()

	if rc == nil {
		return nil
	}
	cancel()
	<-stopped
	return nil
}
