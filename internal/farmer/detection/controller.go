// Package detection drives the upload, classify, save and refetch cycle of
// the detection hub.
package detection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/text/language"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/api"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/history"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/i18n"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/session"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

// State of the detection workflow.
type State int

const (
	Idle State = iota
	Uploading
	Classified
	UploadFailed
	Saving
	Saved
	SaveFailed
)

func (s State) String() string {
	switch s {
	case Uploading:
		return "uploading"
	case Classified:
		return "classified"
	case UploadFailed:
		return "upload_failed"
	case Saving:
		return "saving"
	case Saved:
		return "saved"
	case SaveFailed:
		return "save_failed"
	default:
		return "idle"
	}
}

// busy reports whether a call is in flight.
func (s State) busy() bool { return s == Uploading || s == Saving }

// Controller is the detection hub for one SessionContext at a time.
type Controller struct {
	client  api.Client
	history *history.Engine
	locale  language.Tag

	mu      sync.Mutex
	gen     uint64
	sc      model.SessionContext
	state   State
	file    model.Image
	result  model.DetectionResult
	hasRes  bool
	err     error
	message string
}

func NewController(client api.Client, engine *history.Engine, locale language.Tag) *Controller {
	return &Controller{client: client, history: engine, locale: locale}
}

// Enter takes ownership of sc. A wizard-fresh profile is persisted first,
// then history is loaded for the identity.
func (c *Controller) Enter(ctx context.Context, sc model.SessionContext) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.sc = sc
	c.state = Idle
	c.file = model.Image{}
	c.result, c.hasRes = model.DetectionResult{}, false
	c.err, c.message = nil, ""
	c.mu.Unlock()

	c.history.Bind(ctx, sc.Identity())

	persisted, err := session.PersistProfile(ctx, c.client, sc)
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return errx.ErrStale
	}
	c.sc = persisted
	if err != nil {
		c.fail(err, "submitted.error_save_farmer")
	}
	c.mu.Unlock()

	if _, ferr := c.history.Fetch(ctx, c.locale); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

// fail records err for display; callers hold mu.
func (c *Controller) fail(err error, key string) {
	c.err = err
	c.message = i18n.Localize(c.locale, key, err)
}

// Context returns the context the hub is working with.
func (c *Controller) Context() model.SessionContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sc
}

// Select attaches an image. The selection survives failed uploads.
func (c *Controller) Select(img model.Image) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state.busy() {
		return errx.ErrInFlight
	}
	if img.IsZero() {
		c.fail(errx.ErrNoFile, "submitted.no_file_selected")
		return errx.ErrNoFile
	}
	c.file = img
	return nil
}

// Upload classifies the selected image.
func (c *Controller) Upload(ctx context.Context) (model.DetectionResult, error) {
	c.mu.Lock()
	if c.state.busy() {
		c.mu.Unlock()
		return model.DetectionResult{}, errx.ErrInFlight
	}
	if c.file.IsZero() {
		c.fail(errx.ErrNoFile, "submitted.no_file_selected")
		c.mu.Unlock()
		return model.DetectionResult{}, errx.ErrNoFile
	}
	c.state = Uploading
	c.result, c.hasRes = model.DetectionResult{}, false
	c.err, c.message = nil, ""
	gen, file, identity := c.gen, c.file, c.sc.Identity()
	c.mu.Unlock()

	logx.Debug().Str("file", file.Name).Int("bytes", len(file.Data)).Msg("uploading image")
	res, err := c.client.Classify(ctx, file, identity, i18n.Code(c.locale))

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return model.DetectionResult{}, errx.ErrStale
	}
	if err != nil {
		c.state = UploadFailed
		c.fail(err, "submitted.error_upload_failed")
		logx.Warn().Err(err).Str("file", file.Name).Msg("classification failed")
		return model.DetectionResult{}, err
	}
	c.state = Classified
	c.result, c.hasRes = res, true
	logx.Info().Str("disease", res.Disease).Float64("confidence", res.Confidence).Msg("image classified")
	return res, nil
}

// CanSave reports whether Save would reach the network.
func (c *Controller) CanSave() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.savable()
	return err == nil
}

// savable allows a retry from SaveFailed with the same classified result.
func (c *Controller) savable() (string, error) {
	if c.state != Classified && c.state != SaveFailed {
		return "", errx.ErrInvalidTransition
	}
	identity, ok := c.result.Savable(c.sc.Identity())
	if !ok {
		return "", errx.ErrNotSavable
	}
	return identity, nil
}

// Save persists the classified result and refetches history. Unsavable
// results are refused without a call.
func (c *Controller) Save(ctx context.Context) error {
	c.mu.Lock()
	identity, err := c.savable()
	if err != nil {
		if errors.Is(err, errx.ErrNotSavable) {
			c.fail(err, "submitted.error_invalid_result")
		}
		c.mu.Unlock()
		return err
	}
	c.state = Saving
	c.err, c.message = nil, ""
	gen, res := c.gen, c.result
	c.mu.Unlock()

	err = c.client.SaveDetection(ctx, identity, res.Disease, res.Confidence)

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return errx.ErrStale
	}
	if err != nil {
		c.state = SaveFailed
		c.fail(err, "submitted.error_save_failed")
		c.mu.Unlock()
		logx.Warn().Err(err).Str("identity", identity).Msg("saving detection failed")
		return err
	}
	c.state = Saved
	c.mu.Unlock()
	logx.Info().Str("identity", identity).Str("disease", res.Disease).Msg("detection saved")

	// the save already happened; a failed refetch only shows up on the history
	if _, err := c.history.Fetch(ctx, c.locale); err != nil {
		logx.Warn().Err(err).Msg("history refetch after save failed")
	}
	return nil
}

// ClipboardText formats the current result for copying.
func (c *Controller) ClipboardText() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasRes {
		return "", false
	}
	return fmt.Sprintf("%s: %s\n%s: %s",
		i18n.T(c.locale, "submitted.disease_label"), c.result.Disease,
		i18n.T(c.locale, "submitted.confidence_label"), model.FormatConfidence(c.result.Confidence),
	), true
}

// State returns the workflow state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Result returns the latest classification; ok is false before one exists.
func (c *Controller) Result() (model.DetectionResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result, c.hasRes
}

// Selected returns the attached image.
func (c *Controller) Selected() model.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.file
}

// Err returns the error shown to the farmer, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Message returns the localized text for Err.
func (c *Controller) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Dismiss clears the displayed error.
func (c *Controller) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err, c.message = nil, ""
}

// Detections returns the displayed detection history.
func (c *Controller) Detections() []model.DetectionHistoryEntry {
	return c.history.Detections()
}

// HistoryMessage renders the last history fetch error, or "".
func (c *Controller) HistoryMessage() string {
	return c.history.ErrorMessage(c.locale, "submitted.error_fetch_history")
}

// EmptyMessage is shown when there are no detections.
func (c *Controller) EmptyMessage() string {
	return i18n.T(c.locale, "submitted.no_detections")
}
