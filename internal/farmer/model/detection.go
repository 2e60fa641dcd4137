package model

import (
	"fmt"
	"math"
	"time"
)

// DetectionResult is the outcome of one classification call.
type DetectionResult struct {
	Disease string
	// Confidence is NaN when the server did not send a number.
	Confidence float64
	// SourceIdentity is the identity the server attributed the result to, if any.
	SourceIdentity string
}

// ConfidenceValid reports whether Confidence is a number in [0,1].
func (r DetectionResult) ConfidenceValid() bool {
	c := r.Confidence
	return !math.IsNaN(c) && !math.IsInf(c, 0) && c >= 0 && c <= 1
}

// ResolveIdentity returns the identity the result should be saved under:
// the server supplied one, else fallback.
func (r DetectionResult) ResolveIdentity(fallback string) string {
	if r.SourceIdentity != "" {
		return r.SourceIdentity
	}
	return fallback
}

// Savable reports whether the result may be persisted, and under which identity.
func (r DetectionResult) Savable(fallback string) (string, bool) {
	if r.Disease == "" || !r.ConfidenceValid() {
		return "", false
	}
	id := r.ResolveIdentity(fallback)
	if id == "" {
		return "", false
	}
	return id, true
}

// DetectionHistoryEntry is a persisted detection as returned by the server.
type DetectionHistoryEntry struct {
	Disease    string  `json:"disease"`
	Confidence float64 `json:"confidence"`
	Timestamp  string  `json:"timestamp"`
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05",
}

// Time parses the server timestamp. ok is false when it is missing or unparseable.
func (e DetectionHistoryEntry) Time() (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, e.Timestamp); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatConfidence renders a [0,1] confidence as a percentage with two decimals.
func FormatConfidence(c float64) string {
	return fmt.Sprintf("%.2f%%", c*100)
}

// Image is a picture selected for classification.
type Image struct {
	Name        string
	ContentType string
	Data        []byte
}

// IsZero reports whether no image is selected.
func (i Image) IsZero() bool {
	return i.Name == "" && len(i.Data) == 0
}
