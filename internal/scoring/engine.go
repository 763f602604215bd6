// Package scoring ranks candidate hospitals against a request profile.
// The formula is deliberately documented and deterministic; every bonus or
// penalty that fires is echoed back in the reasons list so clients can
// justify a recommendation.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"hospital-access-backend/internal/geo"
)

// Defaults for the tunable knobs. Both are configurable; the speed matches
// city traffic assumptions, not routing data.
const (
	DefaultAssumedSpeedKmph       = 30.0
	DefaultAffordabilityThreshold = 50000.0
)

const (
	baseScore          = 50.0
	insuranceBonus     = 20.0
	maxBedBonus        = 15.0
	maxDistancePenalty = 20.0
	costPenalty        = 10.0
)

// Profile describes the request being ranked against.
type Profile struct {
	InsuranceProviderCodes []string
	// AffordabilityThreshold is the cost above which the cost penalty fires.
	// Zero means use the default.
	AffordabilityThreshold float64
	// AssumedSpeedKmph is the travel speed for ETA estimates. Zero means
	// use the default.
	AssumedSpeedKmph float64
}

// ScoredHospital is one ranked candidate with its explanation.
type ScoredHospital struct {
	geo.Nearby
	Score            float64  `json:"score"`
	Reasons          []string `json:"reasons"`
	TravelTimeMin    int      `json:"travel_time_min"`
	InsuranceMatched bool     `json:"insurance_matched"`
}

// Engine applies the weighted scoring policy.
type Engine struct {
	affordabilityThreshold float64
	assumedSpeedKmph       float64
}

// NewEngine creates an engine with the given thresholds; zero values fall
// back to the documented defaults.
func NewEngine(affordabilityThreshold, assumedSpeedKmph float64) *Engine {
	if affordabilityThreshold <= 0 {
		affordabilityThreshold = DefaultAffordabilityThreshold
	}
	if assumedSpeedKmph <= 0 {
		assumedSpeedKmph = DefaultAssumedSpeedKmph
	}
	return &Engine{
		affordabilityThreshold: affordabilityThreshold,
		assumedSpeedKmph:       assumedSpeedKmph,
	}
}

// Rank scores each candidate and returns them sorted descending by score,
// ties broken by ascending distance then ascending hospital id. Identical
// input always yields identical output ordering.
func (e *Engine) Rank(candidates []geo.Nearby, profile Profile) []ScoredHospital {
	threshold := profile.AffordabilityThreshold
	if threshold <= 0 {
		threshold = e.affordabilityThreshold
	}
	speed := profile.AssumedSpeedKmph
	if speed <= 0 {
		speed = e.assumedSpeedKmph
	}

	scored := make([]ScoredHospital, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, e.score(c, profile, threshold, speed))
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].DistanceKm != scored[j].DistanceKm {
			return scored[i].DistanceKm < scored[j].DistanceKm
		}
		return scored[i].Hospital.ID < scored[j].Hospital.ID
	})
	return scored
}

func (e *Engine) score(c geo.Nearby, profile Profile, threshold, speed float64) ScoredHospital {
	score := baseScore
	var reasons []string

	matched := c.Hospital.AcceptsProvider(profile.InsuranceProviderCodes)
	if matched {
		score += insuranceBonus
		reasons = append(reasons, fmt.Sprintf("insurance accepted (+%d)", int(insuranceBonus)))
	}

	bedBonus := math.Min(maxBedBonus, float64(c.Hospital.AvailableGeneralBeds))
	if bedBonus > 0 {
		score += bedBonus
		reasons = append(reasons, fmt.Sprintf("%d general beds available (+%d)", c.Hospital.AvailableGeneralBeds, int(bedBonus)))
	} else {
		reasons = append(reasons, "no general beds available")
	}

	distPenalty := math.Min(maxDistancePenalty, c.DistanceKm/5)
	if distPenalty > 0 {
		score -= distPenalty
		reasons = append(reasons, fmt.Sprintf("%.1f km away (-%.1f)", c.DistanceKm, distPenalty))
	}

	if c.Hospital.EstimatedEmergencyCost > threshold {
		score -= costPenalty
		reasons = append(reasons, fmt.Sprintf("estimated cost above threshold (-%d)", int(costPenalty)))
	}

	score = math.Max(0, math.Min(100, score))

	return ScoredHospital{
		Nearby:           c,
		Score:            score,
		Reasons:          reasons,
		TravelTimeMin:    TravelMinutes(c.DistanceKm, speed),
		InsuranceMatched: matched,
	}
}

// TravelMinutes estimates travel time at the assumed speed, rounded up.
func TravelMinutes(distanceKm, speedKmph float64) int {
	if speedKmph <= 0 {
		speedKmph = DefaultAssumedSpeedKmph
	}
	return int(math.Ceil(distanceKm / speedKmph * 60))
}
