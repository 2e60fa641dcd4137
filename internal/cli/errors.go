package cli

import (
	"golang.org/x/text/language"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/i18n"
)

// DisplayError is an error already rendered in the farmer's language.
type DisplayError struct {
	Text string
	Err  error
}

func (e *DisplayError) Error() string { return e.Text }

func (e *DisplayError) Unwrap() error { return e.Err }

func displayError(tag language.Tag, key string, err error) error {
	if err == nil {
		return nil
	}
	return &DisplayError{Text: i18n.Localize(tag, key, err), Err: err}
}

// loginErrorKey tells an unreachable server apart from rejected credentials.
func loginErrorKey(err error) string {
	if errx.IsTransport(err) {
		return "login.error_server"
	}
	return "login.error_generic"
}
