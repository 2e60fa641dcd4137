package session

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/text/language"

	"github.com/krishthi-drishti/farmer-client/internal/farmer/i18n"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

// Snapshot is what the embedded map view reads from the side channel: the
// context flattened to JSON plus the display language.
type Snapshot struct {
	Query string `json:"query"`
	model.Profile
	Origin   model.Origin `json:"origin,omitempty"`
	Language string       `json:"language"`
}

// NewSnapshot flattens sc for the map view.
func NewSnapshot(sc model.SessionContext, locale language.Tag) Snapshot {
	return Snapshot{
		Query:    sc.Identity(),
		Profile:  sc.Profile(),
		Origin:   sc.Origin(),
		Language: i18n.Code(locale),
	}
}

type navigationMessage struct {
	NavigateTo string `json:"navigateTo"`
}

// ParseNavigation extracts the target route from a map message. Anything
// that is not a known route is rejected.
func ParseNavigation(payload []byte) (Route, bool) {
	var m navigationMessage
	if err := json.Unmarshal(payload, &m); err != nil {
		return "", false
	}
	return ParseRoute(m.NavigateTo)
}

// MapView is the boundary with the embedded map: one snapshot out, one
// navigation target in.
type MapView struct {
	cfg    model.MapConfig
	store  model.SnapshotStore
	source model.NavigationSource
	bridge *Bridge
}

func NewMapView(cfg model.MapConfig, store model.SnapshotStore, source model.NavigationSource, bridge *Bridge) *MapView {
	return &MapView{cfg: cfg, store: store, source: source, bridge: bridge}
}

// Enter writes the snapshot and navigates to the map view.
func (v *MapView) Enter(ctx context.Context, sc model.SessionContext, locale language.Tag) error {
	b, err := json.Marshal(NewSnapshot(sc, locale))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := v.store.Put(ctx, v.cfg.SnapshotKey, b); err != nil {
		logx.Error().Err(err).Str("key", v.cfg.SnapshotKey).Msg("failed to hand snapshot to map")
		return err
	}
	if _, err := v.bridge.Navigate(RouteMap, sc); err != nil {
		return err
	}
	logx.Info().Str("url", v.cfg.URL).Msg("map view opened")
	return nil
}

// Listen applies each inbound navigation message as a route change, keeping
// the current context. It blocks until ctx ends.
func (v *MapView) Listen(ctx context.Context) error {
	return v.source.Listen(ctx, func(payload []byte) {
		route, ok := ParseNavigation(payload)
		if !ok {
			logx.Warn().Str("payload", string(payload)).Msg("ignoring map message")
			return
		}
		if _, err := v.bridge.Redirect(route); err != nil {
			logx.Warn().Err(err).Msg("map navigation failed")
		}
	})
}
