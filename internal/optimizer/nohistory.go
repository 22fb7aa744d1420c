package optimizer

import (
	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// Fitness levels inferred when there is no history
const (
	LevelUntrained    = "untrained"
	LevelRecreational = "recreational"
	LevelTrained      = "trained"
)

// Inference reasons
const (
	ReasonEffortAboveReference = "effort_best_above_reference_speed"
	ReasonEffortBestsPresent   = "effort_bests_present"
	ReasonNoEffortEvidence     = "no_effort_evidence"
	ReasonAvailabilityDays     = "availability_days_per_week"
	ReasonAvailabilityProvided = "availability_provided"
)

// InferFloor estimates a starting fitness for an athlete with no usable
// history. Effort bests faster than the category reference speed mark the
// athlete as trained. A stated weekly hour budget caps the floor at what
// those hours could sustain.
func InferFloor(efforts []models.EffortBest, availability models.Availability, cal config.Calibration) models.NoHistoryFloor {
	nh := cal.NoHistory
	level := LevelUntrained
	var reasons []string

	fast := false
	for _, e := range efforts {
		if e.DistanceM <= 0 || e.DurationS <= 0 {
			continue
		}
		ratio := (e.DistanceM / e.DurationS) / cal.Demand.RefSpeed(e.ActivityCategory)
		if ratio >= nh.TrainedSpeedPct {
			fast = true
			break
		}
	}

	switch {
	case fast:
		level = LevelTrained
		reasons = append(reasons, ReasonEffortAboveReference)
	case len(efforts) > 0:
		level = LevelRecreational
		reasons = append(reasons, ReasonEffortBestsPresent)
	case availability.DaysPerWeek >= 4:
		level = LevelRecreational
		reasons = append(reasons, ReasonNoEffortEvidence, ReasonAvailabilityDays)
	default:
		reasons = append(reasons, ReasonNoEffortEvidence)
	}

	raw := nh.UntrainedCTL
	switch level {
	case LevelTrained:
		raw = nh.TrainedCTL
	case LevelRecreational:
		raw = nh.RecreationalCTL
	}

	floor := raw
	clamped := false
	if availability.MaxWeeklyHours > 0 {
		limit := availability.MaxWeeklyHours * nh.TSSPerHour / 7
		if floor > limit {
			floor = limit
			clamped = true
		}
	}

	evidence := evidenceConfidence(efforts, availability)
	return models.NoHistoryFloor{
		FitnessLevel:               level,
		FitnessInferenceReasons:    reasons,
		ProjectionFloorConfidence:  evidence.State,
		EvidenceConfidence:         evidence,
		RawFloorCTL:                utils.Round1(raw),
		FloorCTL:                   utils.Round1(floor),
		FloorClampedByAvailability: clamped,
	}
}

func evidenceConfidence(efforts []models.EffortBest, availability models.Availability) models.EvidenceConfidence {
	score := 0.2
	reasons := []string{}
	if len(efforts) > 0 {
		score += 0.4
		reasons = append(reasons, ReasonEffortBestsPresent)
	} else {
		reasons = append(reasons, ReasonNoEffortEvidence)
	}
	if availability.DaysPerWeek > 0 || availability.MaxWeeklyHours > 0 {
		score += 0.2
		reasons = append(reasons, ReasonAvailabilityProvided)
	}

	state := models.ConfidenceLow
	switch {
	case score >= 0.7:
		state = models.ConfidenceHigh
	case score >= 0.4:
		state = models.ConfidenceMedium
	}
	return models.EvidenceConfidence{Score: utils.Round2(score), State: state, Reasons: reasons}
}
