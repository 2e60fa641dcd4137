package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/metrics"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
	logx "github.com/krishthi-drishti/farmer-client/pkg/logger"
)

const (
	testBaseURL  = "http://farmer.test"
	testIdentity = "123456789012"
)

func newTestClient(t *testing.T, opts ...Option) (*HTTPClient, *httpmock.MockTransport) {
	t.Helper()
	logx.Disable()
	mt := httpmock.NewMockTransport()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: mt})}, opts...)
	c := NewHTTPClient(model.APIConfig{BaseURL: testBaseURL + "/", Timeout: time.Second}, opts...)
	return c, mt
}

func decodeBody(t *testing.T, req *http.Request) map[string]any {
	t.Helper()
	b, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestHTTPClient_Login(t *testing.T) {
	c, mt := newTestClient(t)

	var body map[string]any
	var requestID string
	mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/login", func(req *http.Request) (*http.Response, error) {
		body = decodeBody(t, req)
		requestID = req.Header.Get(requestIDHeader)
		return httpmock.NewStringResponse(http.StatusOK, `{"message":"ok"}`), nil
	})

	require.NoError(t, c.Login(context.Background(), testIdentity, "secret", "hi"))
	assert.Equal(t, testIdentity, body["aadhar"])
	assert.Equal(t, "secret", body["password"])
	assert.Equal(t, "hi", body["language"])
	assert.NotEmpty(t, requestID)
}

func TestHTTPClient_RegisterRejected(t *testing.T) {
	c, mt := newTestClient(t)
	mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/register",
		httpmock.NewStringResponder(http.StatusBadRequest, `{"detail":"Aadhar already registered"}`))

	err := c.Register(context.Background(), testIdentity, "secret", "en")

	require.Error(t, err)
	assert.True(t, errx.IsDomain(err))
	var ae *errx.AppError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, "Aadhar already registered", ae.Detail())
	assert.Equal(t, http.StatusBadRequest, ae.Status)
}

func TestHTTPClient_Lookup(t *testing.T) {
	t.Run("new user", func(t *testing.T) {
		c, mt := newTestClient(t)
		mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/history",
			httpmock.NewStringResponder(http.StatusOK, `{"chats":[],"detections":[]}`))

		p, err := c.Lookup(context.Background(), testIdentity, "en")
		require.NoError(t, err)
		assert.Nil(t, p)
	})

	t.Run("existing profile", func(t *testing.T) {
		c, mt := newTestClient(t)
		mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/history",
			httpmock.NewStringResponder(http.StatusOK, `{"farmer":{"name":"Ravi","location":"Pune","crops_grown":null,"crop_type":"wheat","irrigation":"drip"}}`))

		p, err := c.Lookup(context.Background(), testIdentity, "en")
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, "Ravi", p.Name)
		assert.Equal(t, "Pune", p.Location)
		assert.Equal(t, "wheat", p.CropsGrown)
		assert.Equal(t, "drip", p.Irrigation)
	})
}

func TestHTTPClient_History(t *testing.T) {
	c, mt := newTestClient(t)
	mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/history",
		httpmock.NewStringResponder(http.StatusOK, `{
			"chats":[{"question":"q1","answer":"a1"},{"question":"q2","answer":"a2"}],
			"detections":[{"disease":"blight","confidence":0.87,"timestamp":"2025-01-02T03:04:05Z"}]
		}`))

	h, err := c.History(context.Background(), testIdentity, "en")
	require.NoError(t, err)
	require.Len(t, h.Chats, 2)
	assert.Equal(t, "q1", h.Chats[0].Question)
	require.Len(t, h.Detections, 1)
	assert.InDelta(t, 0.87, h.Detections[0].Confidence, 1e-9)
}

func TestHTTPClient_HistoryMissingChats(t *testing.T) {
	c, mt := newTestClient(t)
	mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/history",
		httpmock.NewStringResponder(http.StatusOK, `{"detections":[]}`))

	h, err := c.History(context.Background(), testIdentity, "en")
	require.NoError(t, err)
	assert.NotNil(t, h.Chats)
	assert.Empty(t, h.Chats)
	assert.NotNil(t, h.Detections)
	assert.Empty(t, h.Detections)
}

func TestHTTPClient_HistoryInvalidDetections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing", `{"chats":[]}`},
		{"null", `{"detections":null}`},
		{"object", `{"detections":{"disease":"blight"}}`},
		{"string", `{"detections":"none"}`},
		{"wrong element type", `{"detections":[1,2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mt := newTestClient(t)
			mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/history",
				httpmock.NewStringResponder(http.StatusOK, tt.body))

			_, err := c.History(context.Background(), testIdentity, "en")
			require.Error(t, err)
			assert.ErrorIs(t, err, errx.ErrInvalidHistory)
			assert.True(t, errx.IsTransport(err))
		})
	}
}

func TestHTTPClient_ChatSendsFixedAttributeSet(t *testing.T) {
	c, mt := newTestClient(t)

	var body map[string]any
	mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/chat", func(req *http.Request) (*http.Response, error) {
		body = decodeBody(t, req)
		return httpmock.NewStringResponse(http.StatusOK, `{"question":"why yellow leaves?","answer":"nitrogen"}`), nil
	})

	ex, err := c.Chat(context.Background(), testIdentity, model.Profile{Name: "Ravi", CropsGrown: "rice"}, "why yellow leaves?", "en")
	require.NoError(t, err)
	assert.Equal(t, "nitrogen", ex.Answer)

	ctxPayload, ok := body["context"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{
		"aadhar", "name", "location", "crops_grown", "soil_type", "irrigation", "farm_size",
		"previous_diseases", "farming_method", "extra_farm_type", "recent_weather",
		"any_other_info", "crop_type", "symptoms",
	} {
		_, present := ctxPayload[key]
		assert.True(t, present, "missing key %q", key)
	}
	assert.Nil(t, ctxPayload["farm_size"])
	assert.Equal(t, "", ctxPayload["soil_type"])
	assert.Equal(t, "rice", ctxPayload["crop_type"])
	assert.Equal(t, testIdentity, ctxPayload["aadhar"])
	assert.Equal(t, "why yellow leaves?", body["question"])
}

func TestHTTPClient_Classify(t *testing.T) {
	c, mt := newTestClient(t)

	var fields map[string]string
	var fileName string
	mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/upload", func(req *http.Request) (*http.Response, error) {
		require.NoError(t, req.ParseMultipartForm(1<<20))
		fields = map[string]string{
			"aadhar":   req.FormValue("aadhar"),
			"language": req.FormValue("language"),
		}
		_, fh, err := req.FormFile("file")
		require.NoError(t, err)
		fileName = fh.Filename
		return httpmock.NewStringResponse(http.StatusOK, `{"disease":"blight","confidence":0.87}`), nil
	})

	res, err := c.Classify(context.Background(), model.Image{Name: "leaf.jpg", Data: []byte{0xff, 0xd8}}, testIdentity, "hi")
	require.NoError(t, err)
	assert.Equal(t, "blight", res.Disease)
	assert.InDelta(t, 0.87, res.Confidence, 1e-9)
	assert.Empty(t, res.SourceIdentity)
	assert.Equal(t, testIdentity, fields["aadhar"])
	assert.Equal(t, "hi", fields["language"])
	assert.Equal(t, "leaf.jpg", fileName)
}

func TestHTTPClient_ClassifyNonNumericConfidence(t *testing.T) {
	c, mt := newTestClient(t)
	mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/upload",
		httpmock.NewStringResponder(http.StatusOK, `{"disease":"rust","confidence":"high","aadhar":"999999999999"}`))

	res, err := c.Classify(context.Background(), model.Image{Name: "a.png", Data: []byte("x")}, "", "en")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(res.Confidence))
	assert.Equal(t, "999999999999", res.SourceIdentity)
}

func TestHTTPClient_TransportErrors(t *testing.T) {
	t.Run("network failure", func(t *testing.T) {
		c, mt := newTestClient(t)
		mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/save_detection",
			httpmock.NewErrorResponder(errors.New("connection refused")))

		err := c.SaveDetection(context.Background(), testIdentity, "blight", 0.5)
		require.Error(t, err)
		assert.True(t, errx.IsTransport(err))
	})

	t.Run("status without detail", func(t *testing.T) {
		c, mt := newTestClient(t)
		mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/save_detection",
			httpmock.NewStringResponder(http.StatusInternalServerError, `Internal Server Error`))

		err := c.SaveDetection(context.Background(), testIdentity, "blight", 0.5)
		require.Error(t, err)
		assert.True(t, errx.IsTransport(err))
		var ae *errx.AppError
		require.True(t, errors.As(err, &ae))
		assert.Equal(t, http.StatusInternalServerError, ae.Status)
	})

	t.Run("undecodable body", func(t *testing.T) {
		c, mt := newTestClient(t)
		mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/history",
			httpmock.NewStringResponder(http.StatusOK, `{invalid json`))

		_, err := c.History(context.Background(), testIdentity, "en")
		require.Error(t, err)
		assert.True(t, errx.IsTransport(err))
	})
}

func TestHTTPClient_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := metrics.NewClientMetrics(reg)
	require.NoError(t, err)

	c, mt := newTestClient(t, WithMetrics(m))
	mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/login",
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"detail":"Invalid credentials"}`))
	mt.RegisterResponder(http.MethodPost, testBaseURL+"/api/register",
		httpmock.NewStringResponder(http.StatusOK, `{}`))

	_ = c.Login(context.Background(), testIdentity, "bad", "en")
	require.NoError(t, c.Register(context.Background(), testIdentity, "good", "en"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(EndpointLogin, "domain_error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(EndpointRegister, "ok")), 0)
}

func TestProfilePayload_RoundTrip(t *testing.T) {
	p := model.Profile{Name: "Asha", Location: "Nashik", CropsGrown: "grapes", PriorSymptoms: "spots", Irrigation: "drip"}
	got := NewProfilePayload(testIdentity, p).Profile()
	assert.Equal(t, p, got)
}
