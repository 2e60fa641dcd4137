package errx

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal error"
	// TransportErrorMessage describes a remote call that never produced a usable answer.
	TransportErrorMessage = "remote service unreachable"
	// DomainErrorMessage describes a remote call the server explicitly rejected.
	DomainErrorMessage = "request rejected"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing Redis key.
	RedisNotFoundMessage = "redis key not found"
)

// Kind classifies an AppError by where the failure happened.
type Kind int

const (
	// KindUnknown is used for errors that never went through this package.
	KindUnknown Kind = iota
	// KindValidation is a local failure that never reached the network.
	KindValidation
	// KindTransport is a network failure or a non-success status without a reason.
	KindTransport
	// KindDomain is a server response that rejected the operation with a reason.
	KindDomain
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindDomain:
		return "domain"
	default:
		return "unknown"
	}
}

// AppError wraps an underlying error with a kind, an HTTP status, a safe
// message and the translation key used to render it.
type AppError struct {
	Err     error
	Kind    Kind
	Status  int
	Message string
	Key     string
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches sentinel AppErrors by kind and key so that WithKey copies
// still compare equal to the sentinel they came from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Key != "" && t.Key == e.Key
}

// Detail returns the server supplied reason, if any.
func (e *AppError) Detail() string {
	if e.Kind == KindDomain && e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// WithKey returns a copy of the error rendered under a different translation key.
func (e *AppError) WithKey(key string) *AppError {
	cp := *e
	cp.Key = key
	return &cp
}

// WithMessage returns a copy of the error carrying a more specific message.
func (e *AppError) WithMessage(message string) *AppError {
	cp := *e
	cp.Message = message
	return &cp
}

// Because returns a copy of the error carrying cause as its underlying error.
func (e *AppError) Because(cause error) *AppError {
	cp := *e
	cp.Err = cause
	return &cp
}

// New creates a new AppError with the provided information.
func New(err error, status int, message string) *AppError {
	return &AppError{
		Err:     err,
		Kind:    KindUnknown,
		Status:  status,
		Message: message,
	}
}

// Validation builds a local error that must never be sent to the network.
func Validation(key, message string) *AppError {
	return &AppError{
		Kind:    KindValidation,
		Status:  http.StatusUnprocessableEntity,
		Message: message,
		Key:     key,
	}
}

// Transport wraps a failed round trip. status is zero when no response arrived.
func Transport(err error, status int) *AppError {
	if status == 0 {
		status = http.StatusBadGateway
	}
	return &AppError{
		Err:     err,
		Kind:    KindTransport,
		Status:  status,
		Message: TransportErrorMessage,
	}
}

// Domain wraps a server rejection carrying the reason in detail.
func Domain(status int, detail string) *AppError {
	return &AppError{
		Err:     errors.New(detail),
		Kind:    KindDomain,
		Status:  status,
		Message: DomainErrorMessage,
	}
}

// KindOf returns the kind of the first AppError in err's chain.
func KindOf(err error) Kind {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsTransport reports whether err is a transport failure.
func IsTransport(err error) bool { return KindOf(err) == KindTransport }

// IsDomain reports whether err is a server rejection.
func IsDomain(err error) bool { return KindOf(err) == KindDomain }

// ===== Validation sentinels =====

var (
	ErrInvalidIdentity       = Validation("validation.invalid_identity", "identity must be exactly 12 characters")
	ErrMissingIdentity       = Validation("validation.missing_identity", "identity is not known")
	ErrMissingSecret         = Validation("validation.missing_secret", "password is required")
	ErrEmptyField            = Validation("validation.empty_field", "required field is empty")
	ErrInvalidChoice         = Validation("validation.invalid_choice", "value is not one of the allowed options")
	ErrInactiveField         = Validation("validation.inactive_field", "only the active field can be edited")
	ErrWizardFinished        = Validation("validation.wizard_finished", "wizard already submitted")
	ErrNotLastStep           = Validation("validation.not_last_step", "wizard can only finish from the last field")
	ErrEmptyQuestion         = Validation("validation.empty_question", "question is empty")
	ErrInFlight              = Validation("validation.in_flight", "a request is already in flight")
	ErrNoFile                = Validation("validation.no_file", "no file selected")
	ErrNotSavable            = Validation("validation.not_savable", "result cannot be saved")
	ErrInvalidTransition     = Validation("validation.invalid_transition", "operation not allowed in current state")
	ErrUnsupportedCapability = Validation("validation.speech_unsupported", "speech recognition is not supported on this platform")
	ErrAlreadyCapturing      = Validation("validation.already_capturing", "dictation already active")
	ErrNotCapturing          = Validation("validation.not_capturing", "dictation is not active")
	ErrStale                 = Validation("validation.stale", "response belongs to a superseded context")
)

// ===== Response sentinels =====

// ErrInvalidHistory is a history response whose lists are not in the expected shape.
var ErrInvalidHistory = &AppError{
	Kind:    KindTransport,
	Status:  http.StatusBadGateway,
	Message: "history response is malformed",
	Key:     "submitted.invalid_history_data",
}
