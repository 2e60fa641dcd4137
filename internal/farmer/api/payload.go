package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	errx "github.com/krishthi-drishti/farmer-client/internal/core/error"
	"github.com/krishthi-drishti/farmer-client/internal/farmer/model"
)

// ProfilePayload is the fixed attribute set the server expects for both
// profile saves and chat context. Every key is always present; pointer
// fields are sent as null when empty, the others as "".
type ProfilePayload struct {
	Aadhar           *string `json:"aadhar"`
	Name             *string `json:"name"`
	Location         string  `json:"location"`
	CropsGrown       *string `json:"crops_grown"`
	SoilType         string  `json:"soil_type"`
	Irrigation       string  `json:"irrigation"`
	FarmSize         *string `json:"farm_size"`
	PreviousDiseases *string `json:"previous_diseases"`
	FarmingMethod    string  `json:"farming_method"`
	ExtraFarmType    *string `json:"extra_farm_type"`
	RecentWeather    string  `json:"recent_weather"`
	AnyOtherInfo     *string `json:"any_other_info"`
	CropType         string  `json:"crop_type"`
	Symptoms         string  `json:"symptoms"`
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// NewProfilePayload builds the wire payload for identity and profile.
func NewProfilePayload(identity string, p model.Profile) ProfilePayload {
	return ProfilePayload{
		Aadhar:           nullable(identity),
		Name:             nullable(p.Name),
		Location:         p.Location,
		CropsGrown:       nullable(p.CropsGrown),
		SoilType:         p.SoilType,
		Irrigation:       p.Irrigation,
		FarmSize:         nullable(p.FarmSize),
		PreviousDiseases: nullable(p.PriorSymptoms),
		FarmingMethod:    p.FarmingMethod,
		ExtraFarmType:    nullable(p.ExtraFarmType),
		RecentWeather:    p.RecentWeather,
		AnyOtherInfo:     nullable(p.Notes),
		CropType:         p.CropsGrown,
		Symptoms:         p.PriorSymptoms,
	}
}

// Profile converts the payload back to a model.Profile.
func (pp ProfilePayload) Profile() model.Profile {
	p := model.Profile{
		Name:          deref(pp.Name),
		Location:      pp.Location,
		CropsGrown:    deref(pp.CropsGrown),
		SoilType:      pp.SoilType,
		Irrigation:    pp.Irrigation,
		FarmSize:      deref(pp.FarmSize),
		PriorSymptoms: deref(pp.PreviousDiseases),
		FarmingMethod: pp.FarmingMethod,
		ExtraFarmType: deref(pp.ExtraFarmType),
		RecentWeather: pp.RecentWeather,
		Notes:         deref(pp.AnyOtherInfo),
	}
	if p.CropsGrown == "" {
		p.CropsGrown = pp.CropType
	}
	if p.PriorSymptoms == "" {
		p.PriorSymptoms = pp.Symptoms
	}
	return p
}

type credentialsRequest struct {
	Aadhar   string `json:"aadhar"`
	Password string `json:"password"`
	Language string `json:"language"`
}

type historyRequest struct {
	Aadhar   string `json:"aadhar"`
	Language string `json:"language"`
}

// historyResponse keeps detections raw: they must be a JSON array, anything
// else is a malformed response.
type historyResponse struct {
	Farmer     *ProfilePayload      `json:"farmer"`
	Chats      []model.ChatExchange `json:"chats"`
	Detections json.RawMessage      `json:"detections"`
}

func (r historyResponse) detections() ([]model.DetectionHistoryEntry, error) {
	raw := bytes.TrimSpace(r.Detections)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, errx.ErrInvalidHistory.Because(fmt.Errorf("detections: %q", snippet(raw)))
	}
	out := []model.DetectionHistoryEntry{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, errx.ErrInvalidHistory.Because(fmt.Errorf("detections: %w", err))
	}
	return out, nil
}

type chatRequest struct {
	Context  ProfilePayload `json:"context"`
	Question string         `json:"question"`
	Language string         `json:"language"`
}

type classifyResponse struct {
	Disease    string          `json:"disease"`
	Confidence json.RawMessage `json:"confidence"`
	Aadhar     string          `json:"aadhar"`
}

// result converts the response; a missing or non-numeric confidence becomes NaN.
func (r classifyResponse) result() model.DetectionResult {
	c := math.NaN()
	var f float64
	if len(r.Confidence) > 0 && json.Unmarshal(r.Confidence, &f) == nil {
		c = f
	}
	return model.DetectionResult{Disease: r.Disease, Confidence: c, SourceIdentity: r.Aadhar}
}

type saveDetectionRequest struct {
	Aadhar     string  `json:"aadhar"`
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// detail extracts a human readable reason; structured details are passed through raw.
func (e errorResponse) detail() string {
	if len(e.Detail) == 0 || string(e.Detail) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Detail, &s); err == nil {
		return strings.TrimSpace(s)
	}
	return string(e.Detail)
}
