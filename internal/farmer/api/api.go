// Package api is the boundary to the remote farmer API. Client is the
// contract the workflow controllers depend on; HTTPClient implements it over
// the JSON/HTTP endpoints.
package api

import (
	"context"

	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
)

// Endpoint names, used for logging, metrics and test fakes.
const (
	EndpointRegister      = "register"
	EndpointLogin         = "login"
	EndpointLookup        = "lookup"
	EndpointHistory       = "history"
	EndpointSaveProfile   = "save_profile"
	EndpointChat          = "chat"
	EndpointClassify      = "classify"
	EndpointSaveDetection = "save_detection"
)

// Client is the remote API consumed by the workflow controllers. Every
// method returns an *errx.AppError of kind Transport or Domain on failure.
type Client interface {
	// Register creates an account for identity.
	Register(ctx context.Context, identity, secret, locale string) error

	// Login checks the credentials for identity.
	Login(ctx context.Context, identity, secret, locale string) error

	// Lookup returns the stored profile, or nil when the farmer has none yet.
	Lookup(ctx context.Context, identity, locale string) (*model.Profile, error)

	// History returns the chat and detection history for identity.
	History(ctx context.Context, identity, locale string) (model.History, error)

	// SaveProfile persists the profile collected by the wizard.
	SaveProfile(ctx context.Context, identity string, profile model.Profile) error

	// Chat asks question with the farmer's profile as context.
	Chat(ctx context.Context, identity string, profile model.Profile, question, locale string) (model.ChatExchange, error)

	// Classify runs disease detection on img.
	Classify(ctx context.Context, img model.Image, identity, locale string) (model.DetectionResult, error)

	// SaveDetection persists a classification result.
	SaveDetection(ctx context.Context, identity, disease string, confidence float64) error
}
