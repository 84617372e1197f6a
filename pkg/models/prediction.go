package models

import "fmt"

// Confidence represents the confidence tier of a prediction
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// Tier thresholds, inclusive lower bounds.
const (
	highThreshold   = 0.8
	mediumThreshold = 0.6
)

// Prediction is the classification returned by the prediction service
type Prediction struct {
	PredictedClass string  `json:"predicted_class" validate:"required"`
	Confidence     float64 `json:"confidence" validate:"gte=0,lte=1"`
	Remedy         string  `json:"remedy"`
}

// Percent formats the confidence as a percentage with one decimal, e.g. "83.0%"
func (p *Prediction) Percent() string {
	return Percent(p.Confidence)
}

// Tier returns the display tier for the prediction's confidence
func (p *Prediction) Tier() Confidence {
	return Tier(p.Confidence)
}

// Percent formats a 0..1 confidence as a percentage with one decimal.
func Percent(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence*100)
}

// Tier maps a 0..1 confidence to its tier. 0.8 is already HIGH.
func Tier(confidence float64) Confidence {
	switch {
	case confidence >= highThreshold:
		return ConfidenceHigh
	case confidence >= mediumThreshold:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}
