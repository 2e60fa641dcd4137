// Package dictation turns speech-to-text capture sessions into text
// fragments that callers merge into the field being edited.
package dictation

import (
	"context"
	"strings"
	"sync"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

// Recognizer is the platform speech-to-text capability.
type Recognizer interface {
	// Supported reports whether speech-to-text is available at all.
	Supported() bool

	// Start begins capture. emit is called once per recognised fragment
	// until Stop is called or ctx ends.
	Start(ctx context.Context, language string, continuous bool, emit func(fragment string)) error

	// Stop ends capture.
	Stop() error
}

// State of a Unit.
type State int

const (
	Idle State = iota
	Capturing
)

func (s State) String() string {
	if s == Capturing {
		return "capturing"
	}
	return "idle"
}

// Unit wraps a Recognizer with a two-state machine and a live transcript.
type Unit struct {
	mu         sync.Mutex
	rec        Recognizer
	state      State
	session    uint64
	continuous bool
	heard      bool
	transcript string
	cancel     context.CancelFunc
	updates    chan string
}

// New returns a Unit over rec. It fails with errx.ErrUnsupportedCapability
// when rec cannot do speech-to-text; callers fall back to typed input.
func New(rec Recognizer) (*Unit, error) {
	if rec == nil || !rec.Supported() {
		return nil, errx.ErrUnsupportedCapability
	}
	return &Unit{rec: rec, updates: make(chan string, 16)}, nil
}

// Updates emits the live transcript every time it changes while capturing.
// Slow readers miss intermediate values, never the final one returned by StopCapture.
func (u *Unit) Updates() <-chan string {
	return u.updates
}

// State returns the current state.
func (u *Unit) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Live returns the transcript accumulated so far in the current capture.
func (u *Unit) Live() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.transcript
}

// StartCapture begins a capture session. In single-utterance mode only the
// first recognised fragment is kept.
func (u *Unit) StartCapture(ctx context.Context, language string, continuous bool) error {
	u.mu.Lock()
	if u.state == Capturing {
		u.mu.Unlock()
		return errx.ErrAlreadyCapturing
	}
	u.session++
	session := u.session
	u.state = Capturing
	u.continuous = continuous
	u.heard = false
	u.transcript = ""
	cctx, cancel := context.WithCancel(ctx)
	u.cancel = cancel
	u.mu.Unlock()

	if err := u.rec.Start(cctx, language, continuous, func(fragment string) { u.accept(session, fragment) }); err != nil {
		cancel()
		u.mu.Lock()
		u.state = Idle
		u.cancel = nil
		u.mu.Unlock()
		return err
	}
	logx.Debug().Str("language", language).Bool("continuous", continuous).Msg("dictation started")
	return nil
}

// accept merges a fragment into the live transcript if it belongs to the
// current session.
func (u *Unit) accept(session uint64, fragment string) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.state != Capturing || session != u.session {
		return
	}
	if !u.continuous && u.heard {
		return
	}
	u.heard = true
	u.transcript = Merge(u.transcript, fragment)
	select {
	case u.updates <- u.transcript:
	default:
	}
}

// StopCapture ends the session and returns the accumulated transcript,
// resetting it. It only stops capture; in-flight network calls are untouched.
func (u *Unit) StopCapture() (string, error) {
	u.mu.Lock()
	if u.state != Capturing {
		u.mu.Unlock()
		return "", errx.ErrNotCapturing
	}
	u.state = Idle
	out := u.transcript
	u.transcript = ""
	cancel := u.cancel
	u.cancel = nil
	u.mu.Unlock()

	cancel()
	if err := u.rec.Stop(); err != nil {
		logx.Warn().Err(err).Msg("recognizer did not stop cleanly")
	}
	logx.Debug().Int("chars", len(out)).Msg("dictation stopped")
	return out, nil
}

// Merge appends fragment to existing, separated by a single space when
// existing is non-empty. Neither side is ever dropped.
func Merge(existing, fragment string) string {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return existing
	}
	trimmed := strings.TrimRight(existing, " ")
	if trimmed == "" {
		return fragment
	}
	return trimmed + " " + fragment
}
