// Package i18n resolves locale tags and renders the user-facing messages of
// the workflow controllers in the farmer's language.
package i18n

import (
	"errors"
	"strings"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Default is used whenever a requested locale is unknown.
var Default = language.English

// Supported lists the locales with a full message catalog.
var Supported = []language.Tag{language.English, language.Hindi}

var matcher = language.NewMatcher(Supported)

// Parse resolves a user supplied locale string to a supported tag.
func Parse(s string) language.Tag {
	s = strings.TrimSpace(s)
	if s == "" {
		return Default
	}
	_, idx, conf := matcher.Match(language.Make(s))
	if conf == language.No {
		return Default
	}
	return Supported[idx]
}

// Code returns the short language code sent to the remote API ("en", "hi").
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// SpeechLanguage maps a locale to the tag handed to speech recognition.
func SpeechLanguage(tag language.Tag) string {
	switch Code(tag) {
	case "en":
		return "en"
	case "hi":
		return "hi"
	default:
		return "en-US"
	}
}

// T renders key in the given locale.
func T(tag language.Tag, key string, args ...any) string {
	return message.NewPrinter(tag).Sprintf(key, args...)
}

// Localize renders err for display. key names the context the failure
// happened in (e.g. "submitted.error_save_failed") and is used for transport
// and domain failures; validation failures render their own key. A domain
// failure appends the server's reason, a keyed transport failure its own text.
func Localize(tag language.Tag, key string, err error) string {
	if err == nil {
		return ""
	}
	var ae *errx.AppError
	if !errors.As(err, &ae) {
		return T(tag, key)
	}
	switch ae.Kind {
	case errx.KindValidation:
		msg := T(tag, ae.Key)
		if ae.Err != nil {
			msg += ": " + ae.Err.Error()
		}
		return msg
	case errx.KindDomain:
		if d := ae.Detail(); d != "" {
			return T(tag, key) + ": " + d
		}
		return T(tag, key)
	default:
		if ae.Key != "" {
			return T(tag, key) + ": " + T(tag, ae.Key)
		}
		return T(tag, key)
	}
}
