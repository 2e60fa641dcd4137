// Package session carries the farmer's context from view to view: the login
// gate that produces it, the bridge that hands it over, and the map side
// channel.
package session

import (
	"fmt"
	"sync"

	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

// Route names a view.
type Route string

const (
	RouteLogin  Route = "/"
	RouteSearch Route = "/search"
	RouteWizard Route = "/form"
	RouteHub    Route = "/submitted"
	RouteChat   Route = "/chatbot"
	RouteMap    Route = "/map"
)

var routes = map[Route]bool{
	RouteLogin:  true,
	RouteSearch: true,
	RouteWizard: true,
	RouteHub:    true,
	RouteChat:   true,
	RouteMap:    true,
}

// ParseRoute accepts a route path with or without the leading slash.
func ParseRoute(s string) (Route, bool) {
	if s == "" {
		return "", false
	}
	if s[0] != '/' {
		s = "/" + s
	}
	r := Route(s)
	return r, routes[r]
}

// Handoff is one navigation: the target view and the context it starts from.
type Handoff struct {
	Route   Route
	Context model.SessionContext
	// Seq increases with every navigation.
	Seq uint64
}

// Bridge hands exactly one SessionContext to the next view. The previous
// handoff is replaced, never merged.
type Bridge struct {
	mu      sync.Mutex
	current Handoff
	changes chan Handoff
}

func NewBridge() *Bridge {
	return &Bridge{
		current: Handoff{Route: RouteLogin},
		changes: make(chan Handoff, 1),
	}
}

// Navigate moves to route with sc.
func (b *Bridge) Navigate(route Route, sc model.SessionContext) (Handoff, error) {
	if !routes[route] {
		return Handoff{}, fmt.Errorf("unknown route %q", route)
	}
	b.mu.Lock()
	h := b.publishLocked(route, sc)
	b.mu.Unlock()

	logx.Debug().Str("route", string(route)).Str("origin", string(sc.Origin())).Uint64("seq", h.Seq).Msg("navigate")
	return h, nil
}

// Redirect moves to route keeping the current context. The context is read
// and replaced under one lock, so a concurrent Navigate is never overwritten
// with an older context.
func (b *Bridge) Redirect(route Route) (Handoff, error) {
	if !routes[route] {
		return Handoff{}, fmt.Errorf("unknown route %q", route)
	}
	b.mu.Lock()
	h := b.publishLocked(route, b.current.Context)
	b.mu.Unlock()

	logx.Debug().Str("route", string(route)).Uint64("seq", h.Seq).Msg("redirect")
	return h, nil
}

// publishLocked records the handoff and keeps only the newest one for a slow
// reader; callers hold mu.
func (b *Bridge) publishLocked(route Route, sc model.SessionContext) Handoff {
	h := Handoff{Route: route, Context: sc, Seq: b.current.Seq + 1}
	b.current = h
	select {
	case <-b.changes:
	default:
	}
	b.changes <- h
	return h
}

// Current returns the latest handoff.
func (b *Bridge) Current() Handoff {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Changes delivers the newest handoff after each navigation.
func (b *Bridge) Changes() <-chan Handoff {
	return b.changes
}
