package session

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/api"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/i18n"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

// Credentials are what the login view submits.
type Credentials struct {
	Identity string `validate:"required,len=12"`
	Secret   string `validate:"required"`
}

// Validate checks the credentials locally.
func (c Credentials) Validate() error {
	err := model.Validator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Field() == "Secret" {
		return errx.ErrMissingSecret
	}
	return errx.ErrInvalidIdentity
}

// Gate turns credentials into the first SessionContext of a visit.
type Gate struct {
	client api.Client
	locale language.Tag
}

func NewGate(client api.Client, locale language.Tag) *Gate {
	return &Gate{client: client, locale: locale}
}

// Login checks the credentials and looks the farmer up. A stored profile
// routes to the hub with a lookup context; otherwise the identity alone
// seeds the wizard.
func (g *Gate) Login(ctx context.Context, c Credentials) (Handoff, error) {
	c.Identity = strings.TrimSpace(c.Identity)
	if err := c.Validate(); err != nil {
		return Handoff{}, err
	}
	code := i18n.Code(g.locale)
	if err := g.client.Login(ctx, c.Identity, c.Secret, code); err != nil {
		logx.Warn().Err(err).Str("identity", c.Identity).Msg("login failed")
		return Handoff{}, err
	}

	profile, err := g.client.Lookup(ctx, c.Identity, code)
	if err != nil {
		logx.Warn().Err(err).Str("identity", c.Identity).Msg("lookup after login failed")
		return Handoff{}, err
	}
	if profile == nil {
		sc, err := model.NewSessionContext(c.Identity, model.Profile{}, model.OriginNone)
		if err != nil {
			return Handoff{}, err
		}
		logx.Info().Str("identity", c.Identity).Msg("new farmer, starting wizard")
		return Handoff{Route: RouteWizard, Context: sc}, nil
	}

	sc, err := model.NewSessionContext(c.Identity, *profile, model.OriginLookup)
	if err != nil {
		return Handoff{}, err
	}
	logx.Info().Str("identity", c.Identity).Msg("known farmer, opening hub")
	return Handoff{Route: RouteHub, Context: sc}, nil
}

// Register creates the account and sends the farmer to the wizard.
func (g *Gate) Register(ctx context.Context, c Credentials) (Handoff, error) {
	c.Identity = strings.TrimSpace(c.Identity)
	if err := c.Validate(); err != nil {
		return Handoff{}, err
	}
	if err := g.client.Register(ctx, c.Identity, c.Secret, i18n.Code(g.locale)); err != nil {
		logx.Warn().Err(err).Str("identity", c.Identity).Msg("registration failed")
		return Handoff{}, err
	}
	sc, err := model.NewSessionContext(c.Identity, model.Profile{}, model.OriginNone)
	if err != nil {
		return Handoff{}, err
	}
	logx.Info().Str("identity", c.Identity).Msg("registered")
	return Handoff{Route: RouteWizard, Context: sc}, nil
}

// PersistProfile saves a wizard-fresh profile and returns the context
// retagged as a lookup, so that a later consumer never saves it again.
// Contexts of any other origin are returned untouched without a call.
func PersistProfile(ctx context.Context, client api.Client, sc model.SessionContext) (model.SessionContext, error) {
	if sc.Origin() != model.OriginWizard {
		return sc, nil
	}
	if !sc.HasIdentity() {
		return sc, errx.ErrMissingIdentity
	}
	if err := client.SaveProfile(ctx, sc.Identity(), sc.Profile()); err != nil {
		logx.Error().Err(err).Str("identity", sc.Identity()).Msg("failed to save farmer profile")
		return sc, err
	}
	logx.Info().Str("identity", sc.Identity()).Msg("farmer profile saved")
	return sc.WithOrigin(model.OriginLookup), nil
}
