// Package calibration personalizes the load model from the athlete profile
// and recent history: age and gender adjusted time constants, the learned
// safe ramp rate, and the intensity distribution of recent training.
package calibration

import (
	"math"

	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/models"
)

// Calibrator is safe to copy; it only holds the calibration table
type Calibrator struct {
	cal config.Calibration
}

// New creates a calibrator over a calibration table
func New(cal config.Calibration) Calibrator {
	return Calibrator{cal: cal}
}

// Calibration returns the table the calibrator was built with
func (c Calibrator) Calibration() config.Calibration {
	return c.cal
}

func (c Calibrator) baseline() config.AgeBucket {
	p := c.cal.Personalization
	return config.AgeBucket{
		MinAge:            0,
		FitnessTC:         p.BaselineFitnessTC,
		FatigueTC:         p.BaselineFatigueTC,
		MaxSustainableCTL: p.BaselineMaxSustainableCTL,
	}
}

// Bucket returns the age bucket for age. A nil or out-of-range age, or a
// disabled age adjustment, yields the unadjusted baseline.
func (c Calibrator) Bucket(age *int) config.AgeBucket {
	p := c.cal.Personalization
	if !p.EnableAge || age == nil || *age < 0 || *age > 120 || len(p.AgeBuckets) == 0 {
		return c.baseline()
	}
	selected := c.baseline()
	for _, b := range p.AgeBuckets {
		if *age >= b.MinAge {
			selected = b
		}
	}
	return selected
}

// FitnessTC returns the fitness time constant for age
func (c Calibrator) FitnessTC(age *int) int {
	return c.Bucket(age).FitnessTC
}

// AgeFatigueTC returns the fatigue time constant for age before any gender
// or intensity adjustment
func (c Calibrator) AgeFatigueTC(age *int) int {
	return c.Bucket(age).FatigueTC
}

// MaxSustainableCTL returns the fitness ceiling for age
func (c Calibrator) MaxSustainableCTL(age *int) float64 {
	return c.Bucket(age).MaxSustainableCTL
}

// GenderMultiplier returns the fatigue multiplier for gender. Unknown or
// unspecified values are a no-op.
func (c Calibrator) GenderMultiplier(gender *string) float64 {
	p := c.cal.Personalization
	if !p.EnableGender || gender == nil {
		return 1
	}
	switch *gender {
	case models.GenderFemale:
		return p.FemaleFatigueMultiplier
	case models.GenderMale:
		return p.MaleFatigueMultiplier
	}
	return 1
}

// IntensityExtension returns the extra fatigue days for an intensity load factor
func (c Calibrator) IntensityExtension(loadFactor float64) int {
	if !c.cal.Personalization.EnableIntensity {
		return 0
	}
	q := c.cal.Quality
	switch {
	case loadFactor >= q.ExtensionTwoFactor:
		return q.ExtensionTwoDays
	case loadFactor >= q.ExtensionOneFactor:
		return q.ExtensionOneDays
	}
	return 0
}

// FatigueTC composes age, gender and intensity into the final fatigue
// constant: round(ageFatigue * genderMultiplier) + intensityExtension.
func (c Calibrator) FatigueTC(age *int, gender *string, quality models.TrainingQuality) int {
	base := c.AgeFatigueTC(age)
	adjusted := int(math.Round(float64(base) * c.GenderMultiplier(gender)))
	final := adjusted + c.IntensityExtension(quality.IntensityLoadFactor)
	if final < 1 {
		final = 1
	}
	return final
}

// TimeConstants returns both personalized constants
func (c Calibrator) TimeConstants(age *int, gender *string, quality models.TrainingQuality) models.TimeConstants {
	fitness := c.FitnessTC(age)
	if fitness < 1 {
		fitness = 1
	}
	return models.TimeConstants{
		Fitness: fitness,
		Fatigue: c.FatigueTC(age, gender, quality),
	}
}
