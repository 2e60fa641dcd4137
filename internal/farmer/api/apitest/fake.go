// Package apitest provides an in-memory api.Client for controller tests.
package apitest

import (
	"context"
	"net/http"
	"sync"
	"time"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/api"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
)

// Gate holds calls to one endpoint until released.
type Gate struct {
	// Entered receives one value per call that reached the gate.
	Entered chan struct{}
	release chan struct{}
	once    sync.Once
}

// Release lets every held and future call through.
func (g *Gate) Release() {
	g.once.Do(func() { close(g.release) })
}

// Fake is a stateful stand-in for the remote API. Zero value is not usable;
// call New.
type Fake struct {
	mu sync.Mutex

	accounts   map[string]string
	profiles   map[string]model.Profile
	chats      map[string][]model.ChatExchange
	detections map[string][]model.DetectionHistoryEntry
	gates      map[string]*Gate
	errs       map[string][]error
	calls      map[string]int

	// ClassifyResult is returned by Classify when no error is queued.
	ClassifyResult model.DetectionResult
	// Answer builds the chat answer for a question.
	Answer func(question string) string

	clock time.Time

	// LastChatProfile is the profile sent with the most recent chat call.
	LastChatProfile model.Profile
	// LastImage is the image sent with the most recent classify call.
	LastImage model.Image
}

// New returns an empty fake whose clock starts at a fixed instant.
func New() *Fake {
	return &Fake{
		accounts:   map[string]string{},
		profiles:   map[string]model.Profile{},
		chats:      map[string][]model.ChatExchange{},
		detections: map[string][]model.DetectionHistoryEntry{},
		gates:      map[string]*Gate{},
		errs:       map[string][]error{},
		calls:      map[string]int{},
		Answer:     func(q string) string { return "answer to " + q },
		clock:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

// AddAccount registers credentials directly.
func (f *Fake) AddAccount(identity, secret string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[identity] = secret
}

// SetProfile stores a profile directly.
func (f *Fake) SetProfile(identity string, p model.Profile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[identity] = p
}

// Profile returns the stored profile.
func (f *Fake) Profile(identity string) (model.Profile, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[identity]
	return p, ok
}

// AddDetection stores a detection directly.
func (f *Fake) AddDetection(identity string, e model.DetectionHistoryEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detections[identity] = append(f.detections[identity], e)
}

// AddChat stores an exchange directly.
func (f *Fake) AddChat(identity string, e model.ChatExchange) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chats[identity] = append(f.chats[identity], e)
}

// FailNext queues err as the result of the next call to endpoint.
func (f *Fake) FailNext(endpoint string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[endpoint] = append(f.errs[endpoint], err)
}

// Hold installs a gate on endpoint. Calls block until the gate is released
// or their context ends.
func (f *Fake) Hold(endpoint string) *Gate {
	g := &Gate{Entered: make(chan struct{}, 16), release: make(chan struct{})}
	f.mu.Lock()
	f.gates[endpoint] = g
	f.mu.Unlock()
	return g
}

// Calls returns how many times endpoint was invoked.
func (f *Fake) Calls(endpoint string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[endpoint]
}

// enter counts the call, waits on any gate and pops a queued error.
func (f *Fake) enter(ctx context.Context, endpoint string) error {
	f.mu.Lock()
	f.calls[endpoint]++
	g := f.gates[endpoint]
	f.mu.Unlock()

	if g != nil {
		select {
		case g.Entered <- struct{}{}:
		default:
		}
		select {
		case <-g.release:
		case <-ctx.Done():
			return errx.Transport(ctx.Err(), 0)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if q := f.errs[endpoint]; len(q) > 0 {
		f.errs[endpoint] = q[1:]
		return q[0]
	}
	return nil
}

func (f *Fake) Register(ctx context.Context, identity, secret, locale string) error {
	if err := f.enter(ctx, api.EndpointRegister); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[identity]; ok {
		return errx.Domain(http.StatusBadRequest, "Aadhar already registered")
	}
	f.accounts[identity] = secret
	return nil
}

func (f *Fake) Login(ctx context.Context, identity, secret, locale string) error {
	if err := f.enter(ctx, api.EndpointLogin); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.accounts[identity]; !ok || s != secret {
		return errx.Domain(http.StatusUnauthorized, "Invalid credentials")
	}
	return nil
}

func (f *Fake) Lookup(ctx context.Context, identity, locale string) (*model.Profile, error) {
	if err := f.enter(ctx, api.EndpointLookup); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[identity]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (f *Fake) History(ctx context.Context, identity, locale string) (model.History, error) {
	if err := f.enter(ctx, api.EndpointHistory); err != nil {
		return model.History{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return model.History{
		Chats:      append([]model.ChatExchange{}, f.chats[identity]...),
		Detections: append([]model.DetectionHistoryEntry{}, f.detections[identity]...),
	}, nil
}

func (f *Fake) SaveProfile(ctx context.Context, identity string, profile model.Profile) error {
	if err := f.enter(ctx, api.EndpointSaveProfile); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles[identity] = profile
	return nil
}

func (f *Fake) Chat(ctx context.Context, identity string, profile model.Profile, question, locale string) (model.ChatExchange, error) {
	f.mu.Lock()
	f.LastChatProfile = profile
	f.mu.Unlock()
	if err := f.enter(ctx, api.EndpointChat); err != nil {
		return model.ChatExchange{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ex := model.ChatExchange{Question: question, Answer: f.Answer(question)}
	if identity != "" {
		f.chats[identity] = append(f.chats[identity], ex)
	}
	return ex, nil
}

func (f *Fake) Classify(ctx context.Context, img model.Image, identity, locale string) (model.DetectionResult, error) {
	f.mu.Lock()
	f.LastImage = img
	f.mu.Unlock()
	if err := f.enter(ctx, api.EndpointClassify); err != nil {
		return model.DetectionResult{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ClassifyResult, nil
}

func (f *Fake) SaveDetection(ctx context.Context, identity, disease string, confidence float64) error {
	if err := f.enter(ctx, api.EndpointSaveDetection); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = f.clock.Add(time.Minute)
	f.detections[identity] = append(f.detections[identity], model.DetectionHistoryEntry{
		Disease:    disease,
		Confidence: confidence,
		Timestamp:  f.clock.Format(time.RFC3339),
	})
	return nil
}

var _ api.Client = (*Fake)(nil)
