package model

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
)

// IdentityLength is the fixed length of a farmer identity.
const IdentityLength = 12

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateIdentity checks that identity is exactly IdentityLength characters.
func ValidateIdentity(identity string) error {
	if err := Validator().Var(identity, "required,len=12"); err != nil {
		return errx.ErrInvalidIdentity
	}
	return nil
}

// Origin records how a SessionContext came to exist.
type Origin string

const (
	// OriginNone is an identity without a known profile (registration, new user).
	OriginNone Origin = ""
	// OriginWizard marks a context fresh from wizard completion; its profile
	// has not been persisted yet.
	OriginWizard Origin = "wizard"
	// OriginLookup marks a context whose profile already lives on the server.
	OriginLookup Origin = "lookup"
)

// Profile is the fixed attribute set collected about a farmer. Empty strings
// mean "not provided".
type Profile struct {
	Name          string `json:"name"`
	Location      string `json:"location"`
	CropsGrown    string `json:"crops_grown"`
	SoilType      string `json:"soil_type"`
	Irrigation    string `json:"irrigation"`
	FarmSize      string `json:"farm_size"`
	PriorSymptoms string `json:"previous_diseases"`
	FarmingMethod string `json:"farming_method"`
	ExtraFarmType string `json:"extra_farm_type"`
	RecentWeather string `json:"recent_weather"`
	Notes         string `json:"any_other_info"`
}

// IsZero reports whether no attribute is set.
func (p Profile) IsZero() bool {
	return p == Profile{}
}

// Trimmed returns a copy with surrounding whitespace removed from every attribute.
func (p Profile) Trimmed() Profile {
	return Profile{
		Name:          strings.TrimSpace(p.Name),
		Location:      strings.TrimSpace(p.Location),
		CropsGrown:    strings.TrimSpace(p.CropsGrown),
		SoilType:      strings.TrimSpace(p.SoilType),
		Irrigation:    strings.TrimSpace(p.Irrigation),
		FarmSize:      strings.TrimSpace(p.FarmSize),
		PriorSymptoms: strings.TrimSpace(p.PriorSymptoms),
		FarmingMethod: strings.TrimSpace(p.FarmingMethod),
		ExtraFarmType: strings.TrimSpace(p.ExtraFarmType),
		RecentWeather: strings.TrimSpace(p.RecentWeather),
		Notes:         strings.TrimSpace(p.Notes),
	}
}

// SessionContext is the identity and profile carried from view to view.
// It is a value: copies are independent and the identity of a given value
// never changes. A different identity always means a new SessionContext.
type SessionContext struct {
	identity string
	profile  Profile
	origin   Origin
}

// NewSessionContext validates identity and builds a context.
func NewSessionContext(identity string, profile Profile, origin Origin) (SessionContext, error) {
	if err := ValidateIdentity(identity); err != nil {
		return SessionContext{}, err
	}
	return SessionContext{identity: identity, profile: profile, origin: origin}, nil
}

// Identity returns the farmer identity, or "" when not yet known.
func (c SessionContext) Identity() string { return c.identity }

// HasIdentity reports whether the identity has been established.
func (c SessionContext) HasIdentity() bool { return c.identity != "" }

// Profile returns the profile attributes.
func (c SessionContext) Profile() Profile { return c.profile }

// Origin returns how the context was produced.
func (c SessionContext) Origin() Origin { return c.origin }

// IsZero reports whether c is the empty context.
func (c SessionContext) IsZero() bool { return c == SessionContext{} }

// WithOrigin returns a copy with a different origin tag.
func (c SessionContext) WithOrigin(o Origin) SessionContext {
	c.origin = o
	return c
}

// WithProfile returns a copy with a different profile; the identity is kept.
func (c SessionContext) WithProfile(p Profile) SessionContext {
	c.profile = p
	return c
}
