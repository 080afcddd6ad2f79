// ============================================================================
// backend/internal/grading/grading.go
// Grade bands, color tiers and the canonical pass/fail rule
// ============================================================================

package grading

import (
	"math"

	"schoolstats/backend/internal/records"
)

// Band is a letter-grade classification of a percentage
type Band string

const (
	BandAPlus Band = "A+"
	BandA     Band = "A"
	BandBPlus Band = "B+"
	BandB     Band = "B"
	BandC     Band = "C"
	BandF     Band = "F"
)

// Tier is the bucket callers group scores by
type Tier string

const (
	TierSuccess Tier = "success"
	TierWarning Tier = "warning"
	TierDanger  Tier = "danger"
)

// DefaultPassPercentage applies when an exam does not declare usable marks
const DefaultPassPercentage = 60.0

type bandThreshold struct {
	min  float64
	band Band
}

type tierThreshold struct {
	min  float64
	tier Tier
}

var (
	// Bands lists every band from highest to lowest
	Bands = []Band{BandAPlus, BandA, BandBPlus, BandB, BandC, BandF}

	// Tiers lists every tier from highest to lowest
	Tiers = []Tier{TierSuccess, TierWarning, TierDanger}

	// lower bounds are inclusive
	bandThresholds = []bandThreshold{
		{90, BandAPlus},
		{80, BandA},
		{70, BandBPlus},
		{60, BandB},
		{50, BandC},
	}

	tierThresholds = []tierThreshold{
		{80, TierSuccess},
		{60, TierWarning},
	}
)

// Clamp bounds a percentage to [0, 100]. NaN is treated as 0.
func Clamp(p float64) float64 {
	switch {
	case math.IsNaN(p), p < 0:
		return 0
	case p > 100:
		return 100
	default:
		return p
	}
}

// GradeBand returns the letter band for a percentage
func GradeBand(p float64) Band {
	p = Clamp(p)
	for _, t := range bandThresholds {
		if p >= t.min {
			return t.band
		}
	}
	return BandF
}

// ColorTier returns the tier for a percentage
func ColorTier(p float64) Tier {
	p = Clamp(p)
	for _, t := range tierThresholds {
		if p >= t.min {
			return t.tier
		}
	}
	return TierDanger
}

// PassThreshold returns the pass percentage for an exam: the exam-derived
// ratio when both marks are declared and totalMarks > 0, else the default.
func PassThreshold(exam *records.Exam) float64 {
	if exam == nil || exam.PassingMarks == nil || exam.TotalMarks == nil || *exam.TotalMarks <= 0 {
		return DefaultPassPercentage
	}
	return float64(*exam.PassingMarks) / float64(*exam.TotalMarks) * 100
}

// Passed decides whether a result passed. An explicit flag on the result wins;
// otherwise the clamped percentage is compared with PassThreshold(exam).
// exam may be nil when it could not be resolved.
func Passed(result records.ExamResult, exam *records.Exam) bool {
	if result.Passed != nil {
		return *result.Passed
	}
	return Clamp(result.Percentage) >= PassThreshold(exam)
}
