package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/metrics"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

const (
	pathRegister      = "/api/register"
	pathLogin         = "/api/login"
	pathHistory       = "/api/history"
	pathFarmer        = "/api/farmer"
	pathChat          = "/api/chat"
	pathUpload        = "/api/upload"
	pathSaveDetection = "/api/save_detection"

	requestIDHeader = "X-Request-ID"
	maxErrSnippet   = 200
)

// HTTPClient talks to the remote API over JSON/HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	metrics *metrics.ClientMetrics
}

// Option customises an HTTPClient.
type Option func(*HTTPClient)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) { c.http = hc }
}

// WithMetrics records every call on m.
func WithMetrics(m *metrics.ClientMetrics) Option {
	return func(c *HTTPClient) { c.metrics = m }
}

// NewHTTPClient builds a client for cfg.BaseURL. The request timeout is the
// only bound on long-running calls such as classification.
func NewHTTPClient(cfg model.APIConfig, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *HTTPClient) Register(ctx context.Context, identity, secret, locale string) error {
	return c.postJSON(ctx, EndpointRegister, pathRegister, credentialsRequest{Aadhar: identity, Password: secret, Language: locale}, nil)
}

func (c *HTTPClient) Login(ctx context.Context, identity, secret, locale string) error {
	return c.postJSON(ctx, EndpointLogin, pathLogin, credentialsRequest{Aadhar: identity, Password: secret, Language: locale}, nil)
}

func (c *HTTPClient) Lookup(ctx context.Context, identity, locale string) (*model.Profile, error) {
	var resp historyResponse
	if err := c.postJSON(ctx, EndpointLookup, pathHistory, historyRequest{Aadhar: identity, Language: locale}, &resp); err != nil {
		return nil, err
	}
	if resp.Farmer == nil {
		return nil, nil
	}
	p := resp.Farmer.Profile()
	return &p, nil
}

func (c *HTTPClient) History(ctx context.Context, identity, locale string) (model.History, error) {
	var resp historyResponse
	if err := c.postJSON(ctx, EndpointHistory, pathHistory, historyRequest{Aadhar: identity, Language: locale}, &resp); err != nil {
		return model.History{}, err
	}
	detections, err := resp.detections()
	if err != nil {
		logx.Error().Err(err).Str("identity", identity).Msg("invalid history data received")
		return model.History{}, err
	}
	h := model.History{Chats: resp.Chats, Detections: detections}
	if h.Chats == nil {
		h.Chats = []model.ChatExchange{}
	}
	return h, nil
}

func (c *HTTPClient) SaveProfile(ctx context.Context, identity string, profile model.Profile) error {
	return c.postJSON(ctx, EndpointSaveProfile, pathFarmer, NewProfilePayload(identity, profile), nil)
}

func (c *HTTPClient) Chat(ctx context.Context, identity string, profile model.Profile, question, locale string) (model.ChatExchange, error) {
	var out model.ChatExchange
	req := chatRequest{Context: NewProfilePayload(identity, profile), Question: question, Language: locale}
	if err := c.postJSON(ctx, EndpointChat, pathChat, req, &out); err != nil {
		return model.ChatExchange{}, err
	}
	return out, nil
}

func (c *HTTPClient) Classify(ctx context.Context, img model.Image, identity, locale string) (model.DetectionResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", img.Name)
	if err != nil {
		return model.DetectionResult{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return model.DetectionResult{}, fmt.Errorf("write form file: %w", err)
	}
	if err := w.WriteField("aadhar", identity); err != nil {
		return model.DetectionResult{}, fmt.Errorf("write aadhar field: %w", err)
	}
	if err := w.WriteField("language", locale); err != nil {
		return model.DetectionResult{}, fmt.Errorf("write language field: %w", err)
	}
	if err := w.Close(); err != nil {
		return model.DetectionResult{}, fmt.Errorf("close multipart body: %w", err)
	}

	var resp classifyResponse
	if err := c.do(ctx, EndpointClassify, pathUpload, &body, w.FormDataContentType(), &resp); err != nil {
		return model.DetectionResult{}, err
	}
	return resp.result(), nil
}

func (c *HTTPClient) SaveDetection(ctx context.Context, identity, disease string, confidence float64) error {
	return c.postJSON(ctx, EndpointSaveDetection, pathSaveDetection, saveDetectionRequest{Aadhar: identity, Disease: disease, Confidence: confidence}, nil)
}

// ====================== Transport ======================

func (c *HTTPClient) postJSON(ctx context.Context, endpoint, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", endpoint, err)
	}
	return c.do(ctx, endpoint, path, bytes.NewReader(b), "application/json", out)
}

func (c *HTTPClient) do(ctx context.Context, endpoint, path string, body io.Reader, contentType string, out any) (err error) {
	requestID := uuid.NewString()
	start := time.Now()
	outcome := "ok"
	defer func() {
		switch {
		case errx.IsDomain(err):
			outcome = "domain_error"
		case err != nil:
			outcome = "transport_error"
		}
		c.metrics.Observe(endpoint, outcome, time.Since(start))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return errx.Transport(fmt.Errorf("build %s request: %w", endpoint, err), 0)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, requestID)

	resp, err := c.http.Do(req)
	if err != nil {
		logx.Error().Err(err).Str("endpoint", endpoint).Str("request_id", requestID).Msg("remote call failed")
		return errx.Transport(fmt.Errorf("%s request: %w", endpoint, err), 0)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errx.Transport(fmt.Errorf("read %s response: %w", endpoint, err), resp.StatusCode)
	}

	logx.Debug().
		Str("endpoint", endpoint).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("remote call finished")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		if json.Unmarshal(raw, &er) == nil {
			if d := er.detail(); d != "" {
				logx.Warn().Str("endpoint", endpoint).Int("status", resp.StatusCode).Str("detail", d).Msg("remote call rejected")
				return errx.Domain(resp.StatusCode, d)
			}
		}
		return errx.Transport(fmt.Errorf("HTTP error! Status: %d: %s", resp.StatusCode, snippet(raw)), resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errx.Transport(fmt.Errorf("decode %s response: %w", endpoint, err), resp.StatusCode)
	}
	return nil
}

func snippet(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > maxErrSnippet {
		return s[:maxErrSnippet] + "..."
	}
	return s
}

var _ Client = (*HTTPClient)(nil)
