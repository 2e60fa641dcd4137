// Package wizard drives the linear profile questionnaire: one active field at
// a time, typed or dictated input, and a finished record that seeds a new
// session context.
package wizard

import (
	"errors"
	"strings"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/dictation"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

// Machine is the wizard state. It only moves forward.
type Machine struct {
	identity  string
	fields    []Field
	values    map[string]string
	cursor    int
	submitted bool
}

// New starts a wizard for identity over fields.
func New(identity string, fields []Field) (*Machine, error) {
	if err := model.ValidateIdentity(identity); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errors.New("wizard needs at least one field")
	}
	return &Machine{
		identity: identity,
		fields:   fields,
		values:   make(map[string]string, len(fields)),
	}, nil
}

// Identity returns the identity the record is collected for.
func (m *Machine) Identity() string { return m.identity }

// Current returns the active field.
func (m *Machine) Current() Field { return m.fields[m.cursor] }

// Cursor returns the index of the active field.
func (m *Machine) Cursor() int { return m.cursor }

// Len returns the number of fields.
func (m *Machine) Len() int { return len(m.fields) }

// Progress returns the 1-based step and the total.
func (m *Machine) Progress() (step, total int) {
	return m.cursor + 1, len(m.fields)
}

// IsLast reports whether the active field is the final one.
func (m *Machine) IsLast() bool { return m.cursor == len(m.fields)-1 }

// Submitted reports whether Finish succeeded.
func (m *Machine) Submitted() bool { return m.submitted }

// Value returns the current value of field name.
func (m *Machine) Value(name string) string { return m.values[name] }

// Values returns a copy of every value collected so far.
func (m *Machine) Values() map[string]string {
	out := make(map[string]string, len(m.values))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func (m *Machine) editable(name string) (Field, error) {
	if m.submitted {
		return Field{}, errx.ErrWizardFinished
	}
	f := m.Current()
	if name != f.Name {
		return Field{}, errx.ErrInactiveField.Because(errors.New(name))
	}
	return f, nil
}

// SetFieldValue replaces the value of the active field. Choice fields only
// take one of their options, compared case-insensitively and stored lower-cased.
func (m *Machine) SetFieldValue(name, value string) error {
	f, err := m.editable(name)
	if err != nil {
		return err
	}
	v, ok := f.Accepts(value)
	if !ok {
		return errx.ErrInvalidChoice.Because(errors.New(value))
	}
	m.values[name] = v
	return nil
}

// Dictate merges a transcript into the active field. Text is appended to
// whatever is already there; for a choice the transcript is the selection.
func (m *Machine) Dictate(name, transcript string) error {
	f, err := m.editable(name)
	if err != nil {
		return err
	}
	if strings.TrimSpace(transcript) == "" {
		return nil
	}
	if f.Kind == KindChoice {
		return m.SetFieldValue(name, transcript)
	}
	m.values[name] = dictation.Merge(m.values[name], transcript)
	return nil
}

func (m *Machine) checkCurrent() error {
	f := m.Current()
	if f.Required && strings.TrimSpace(m.values[f.Name]) == "" {
		return errx.ErrEmptyField.Because(errors.New(f.Label))
	}
	return nil
}

// Advance moves to the next field. A required field left empty keeps the
// cursor where it is.
func (m *Machine) Advance() error {
	if m.submitted {
		return errx.ErrWizardFinished
	}
	if m.IsLast() {
		return errx.ErrInvalidTransition
	}
	if err := m.checkCurrent(); err != nil {
		return err
	}
	m.cursor++
	logx.Debug().Str("field", m.Current().Name).Int("cursor", m.cursor).Msg("wizard advanced")
	return nil
}

// Finish submits the record from the last field and returns the context it
// seeds, tagged as coming from the wizard.
func (m *Machine) Finish() (model.SessionContext, error) {
	if m.submitted {
		return model.SessionContext{}, errx.ErrWizardFinished
	}
	if !m.IsLast() {
		return model.SessionContext{}, errx.ErrNotLastStep
	}
	if err := m.checkCurrent(); err != nil {
		return model.SessionContext{}, err
	}

	var p model.Profile
	for _, f := range m.fields {
		if f.assign != nil {
			f.assign(&p, m.values[f.Name])
		}
	}
	sc, err := model.NewSessionContext(m.identity, p.Trimmed(), model.OriginWizard)
	if err != nil {
		return model.SessionContext{}, err
	}
	m.submitted = true
	logx.Info().Str("identity", m.identity).Int("fields", len(m.fields)).Msg("wizard submitted")
	return sc, nil
}
