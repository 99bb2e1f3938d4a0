package emotion

import (
	"math"
	"time"
)

// Label is one of the closed set of facial-expression emotions reported by the
// sensing collaborator.
type Label string

const (
	Happy     Label = "happy"
	Sad       Label = "sad"
	Angry     Label = "angry"
	Fearful   Label = "fearful"
	Surprised Label = "surprised"
	Neutral   Label = "neutral"
	Disgusted Label = "disgusted"
)

// Labels lists every valid label.
var Labels = []Label{Happy, Sad, Angry, Fearful, Surprised, Neutral, Disgusted}

// Valid reports whether l belongs to the closed label set.
func (l Label) Valid() bool {
	switch l {
	case Happy, Sad, Angry, Fearful, Surprised, Neutral, Disgusted:
		return true
	}
	return false
}

// Negative reports whether l counts toward crisis detection.
func (l Label) Negative() bool {
	return l == Sad || l == Angry || l == Fearful
}

// Reading is one observation from the sensing collaborator.
type Reading struct {
	Expressions map[Label]float64 `json:"expressions"`
	Dominant    Label             `json:"dominant_emotion"`
	Confidence  float64           `json:"confidence"`
	Timestamp   time.Time         `json:"timestamp"`
}

// Validate checks the dominant label and that confidence and every expression
// score lie within [0,1].
func (r Reading) Validate() error {
	if r.Dominant == "" {
		return &ValidationError{Field: "dominant_emotion", Reason: "is required"}
	}
	if !r.Dominant.Valid() {
		return &ValidationError{Field: "dominant_emotion", Value: string(r.Dominant), Reason: "is not a known emotion"}
	}
	if !unitInterval(r.Confidence) {
		return &ValidationError{Field: "confidence", Value: r.Confidence, Reason: "must be within [0,1]"}
	}
	for label, score := range r.Expressions {
		if !label.Valid() {
			return &ValidationError{Field: "expressions", Value: string(label), Reason: "is not a known emotion"}
		}
		if !unitInterval(score) {
			return &ValidationError{Field: "expressions." + string(label), Value: score, Reason: "must be within [0,1]"}
		}
	}
	return nil
}

// Clone returns a copy that shares no map with r.
func (r Reading) Clone() Reading {
	out := r
	if r.Expressions != nil {
		out.Expressions = make(map[Label]float64, len(r.Expressions))
		for k, v := range r.Expressions {
			out.Expressions[k] = v
		}
	}
	return out
}

func unitInterval(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
