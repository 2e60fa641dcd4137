package session

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/text/language"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/api"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/api/apitest"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/repo"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

const identity = "123456789012"

func TestMain(m *testing.M) {
	logx.Disable()
	goleak.VerifyTestMain(m)
}

func TestCredentials_Validate(t *testing.T) {
	assert.NoError(t, Credentials{Identity: identity, Secret: "pw"}.Validate())
	assert.ErrorIs(t, Credentials{Identity: "12345", Secret: "pw"}.Validate(), errx.ErrInvalidIdentity)
	assert.ErrorIs(t, Credentials{Identity: "", Secret: "pw"}.Validate(), errx.ErrInvalidIdentity)
	assert.ErrorIs(t, Credentials{Identity: identity}.Validate(), errx.ErrMissingSecret)
}

func TestGate_LoginKnownFarmer(t *testing.T) {
	fake := apitest.New()
	fake.AddAccount(identity, "pw")
	fake.SetProfile(identity, model.Profile{Name: "Ravi"})
	g := NewGate(fake, language.Hindi)

	h, err := g.Login(context.Background(), Credentials{Identity: identity, Secret: "pw"})
	require.NoError(t, err)
	assert.Equal(t, RouteHub, h.Route)
	assert.Equal(t, model.OriginLookup, h.Context.Origin())
	assert.Equal(t, "Ravi", h.Context.Profile().Name)
	assert.Equal(t, 1, fake.Calls(api.EndpointLookup))
}

func TestGate_LoginNewFarmer(t *testing.T) {
	fake := apitest.New()
	fake.AddAccount(identity, "pw")
	g := NewGate(fake, language.English)

	h, err := g.Login(context.Background(), Credentials{Identity: " " + identity + " ", Secret: "pw"})
	require.NoError(t, err)
	assert.Equal(t, RouteWizard, h.Route)
	assert.Equal(t, identity, h.Context.Identity())
	assert.Equal(t, model.OriginNone, h.Context.Origin())
	assert.True(t, h.Context.Profile().IsZero())
}

func TestGate_InvalidInputNeverCallsServer(t *testing.T) {
	fake := apitest.New()
	g := NewGate(fake, language.English)

	_, err := g.Login(context.Background(), Credentials{Identity: "1", Secret: "pw"})
	assert.True(t, errx.IsValidation(err))
	_, err = g.Register(context.Background(), Credentials{Identity: identity})
	assert.True(t, errx.IsValidation(err))

	assert.Zero(t, fake.Calls(api.EndpointLogin))
	assert.Zero(t, fake.Calls(api.EndpointRegister))
}

func TestGate_LoginFailsThenRegister(t *testing.T) {
	fake := apitest.New()
	g := NewGate(fake, language.English)
	creds := Credentials{Identity: identity, Secret: "pw"}

	_, err := g.Login(context.Background(), creds)
	assert.True(t, errx.IsDomain(err))
	assert.Zero(t, fake.Calls(api.EndpointLookup))

	h, err := g.Register(context.Background(), creds)
	require.NoError(t, err)
	assert.Equal(t, RouteWizard, h.Route)
	assert.Equal(t, identity, h.Context.Identity())

	_, err = g.Register(context.Background(), creds)
	assert.True(t, errx.IsDomain(err))
}

func TestPersistProfile(t *testing.T) {
	fake := apitest.New()
	ctx := context.Background()
	profile := model.Profile{Name: "Ravi", Location: "Nashik"}

	sc, err := model.NewSessionContext(identity, profile, model.OriginWizard)
	require.NoError(t, err)

	fake.FailNext(api.EndpointSaveProfile, errx.Transport(errors.New("down"), 0))
	same, err := PersistProfile(ctx, fake, sc)
	assert.True(t, errx.IsTransport(err))
	assert.Equal(t, sc, same)

	saved, err := PersistProfile(ctx, fake, sc)
	require.NoError(t, err)
	assert.Equal(t, model.OriginLookup, saved.Origin())
	stored, ok := fake.Profile(identity)
	require.True(t, ok)
	assert.Equal(t, profile, stored)

	again, err := PersistProfile(ctx, fake, saved)
	require.NoError(t, err)
	assert.Equal(t, saved, again)
	assert.Equal(t, 2, fake.Calls(api.EndpointSaveProfile))
}

func TestBridge(t *testing.T) {
	b := NewBridge()
	assert.Equal(t, RouteLogin, b.Current().Route)

	first, err := model.NewSessionContext(identity, model.Profile{Name: "A"}, model.OriginLookup)
	require.NoError(t, err)
	second, err := model.NewSessionContext("210987654321", model.Profile{Name: "B"}, model.OriginNone)
	require.NoError(t, err)

	_, err = b.Navigate(RouteHub, first)
	require.NoError(t, err)
	h, err := b.Navigate(RouteChat, second)
	require.NoError(t, err)

	assert.Equal(t, second, b.Current().Context)
	assert.Equal(t, uint64(2), h.Seq)
	assert.Equal(t, h, <-b.Changes())

	_, err = b.Navigate(Route("/nowhere"), first)
	assert.Error(t, err)
	assert.Equal(t, h, b.Current())
}

func TestBridge_RedirectCarriesLatestContext(t *testing.T) {
	b := NewBridge()
	const rounds = 500

	var mu sync.Mutex
	seen := map[uint64]Handoff{}
	record := func(h Handoff) {
		mu.Lock()
		defer mu.Unlock()
		seen[h.Seq] = h
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			sc, _ := model.NewSessionContext(identity, model.Profile{Name: strconv.Itoa(i)}, model.OriginLookup)
			h, _ := b.Navigate(RouteHub, sc)
			record(h)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			h, _ := b.Redirect(RouteChat)
			record(h)
		}
	}()
	wg.Wait()

	require.Len(t, seen, 2*rounds)
	for seq := uint64(2); seq <= 2*rounds; seq++ {
		h := seen[seq]
		if h.Route != RouteChat {
			continue
		}
		assert.Equal(t, seen[seq-1].Context, h.Context, "redirect at seq %d", seq)
	}

	_, err := b.Redirect(Route("/nowhere"))
	assert.Error(t, err)
}

func TestParseNavigation(t *testing.T) {
	tests := []struct {
		payload string
		want    Route
		ok      bool
	}{
		{`{"navigateTo":"/submitted"}`, RouteHub, true},
		{`{"navigateTo":"chatbot"}`, RouteChat, true},
		{`{"navigateTo":"/admin"}`, "", false},
		{`{"other":"/"}`, "", false},
		{`not json`, "", false},
	}
	for _, tt := range tests {
		got, ok := ParseNavigation([]byte(tt.payload))
		assert.Equal(t, tt.ok, ok, tt.payload)
		if tt.ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func TestMapView(t *testing.T) {
	cfg := model.MapConfig{SnapshotKey: "mapData", NavigationChannel: "map:navigate"}
	store := repo.NewMemorySnapshotStore(time.Hour)
	source := repo.NewChannelNavigationSource()
	bridge := NewBridge()
	v := NewMapView(cfg, store, source, bridge)

	sc, err := model.NewSessionContext(identity, model.Profile{Name: "Ravi", SoilType: "black"}, model.OriginLookup)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, v.Enter(ctx, sc, language.Hindi))
	assert.Equal(t, RouteMap, bridge.Current().Route)

	raw, err := store.Get(ctx, "mapData")
	require.NoError(t, err)
	var snap map[string]any
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, identity, snap["query"])
	assert.Equal(t, "hi", snap["language"])
	assert.Equal(t, "Ravi", snap["name"])
	assert.Equal(t, "black", snap["soil_type"])

	lctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- v.Listen(lctx) }()

	require.NoError(t, source.Send(ctx, []byte(`{"navigateTo":"/nowhere"}`)))
	require.NoError(t, source.Send(ctx, []byte(`{"navigateTo":"/chatbot"}`)))
	require.Eventually(t, func() bool { return bridge.Current().Route == RouteChat }, time.Second, 5*time.Millisecond)
	assert.Equal(t, sc, bridge.Current().Context)
	assert.Equal(t, uint64(2), bridge.Current().Seq)

	cancel()
	require.NoError(t, <-done)
}
