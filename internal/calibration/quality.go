package calibration

import (
	"time"

	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// Zone boundaries, as zero-based indexes into the zone-seconds arrays.
// Power uses 7 zones (low Z1-2, moderate Z3-4, high Z5+), heart rate
// uses 5 zones (low Z1-2, moderate Z3, high Z4-5).
const (
	powerModerateFrom = 2
	powerHighFrom     = 4
	hrModerateFrom    = 2
	hrHighFrom        = 3
)

type bands struct {
	low, moderate, high float64
}

func (b bands) total() float64 {
	return b.low + b.moderate + b.high
}

func splitZones(seconds []float64, moderateFrom, highFrom int) bands {
	var b bands
	for i, s := range seconds {
		s = utils.NonNegative(s)
		switch {
		case i >= highFrom:
			b.high += s
		case i >= moderateFrom:
			b.moderate += s
		default:
			b.low += s
		}
	}
	return b
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += utils.NonNegative(v)
	}
	return total
}

// zoneBands picks power zones first, then heart rate, then the neutral
// distribution. The second return is the source used.
func (c Calibrator) zoneBands(r models.ActivityRecord) (bands, string) {
	if sum(r.PowerZoneSeconds) > 0 {
		return splitZones(r.PowerZoneSeconds, powerModerateFrom, powerHighFrom), models.QualitySourcePower
	}
	if sum(r.HRZoneSeconds) > 0 {
		return splitZones(r.HRZoneSeconds, hrModerateFrom, hrHighFrom), models.QualitySourceHeartRate
	}
	q := c.cal.Quality
	return bands{low: q.NeutralLowPct, moderate: q.NeutralModeratePct, high: q.NeutralHighPct}, models.QualitySourceNeutral
}

// Neutral returns the distribution used when no zone data is available
func (c Calibrator) Neutral() models.TrainingQuality {
	q := c.cal.Quality
	return c.finish(q.NeutralLowPct, q.NeutralModeratePct, q.NeutralHighPct, models.QualitySourceNeutral, true)
}

// TrainingQuality returns the TSS-weighted intensity distribution over the
// quality window ending on asOf. Activities without zone data count with
// the neutral distribution; a window with no zone data at all returns
// Neutral. Activities with no positive TSS are weighted equally only if no
// activity in the window carries TSS.
func (c Calibrator) TrainingQuality(records []models.ActivityRecord, asOf time.Time) models.TrainingQuality {
	q := c.cal.Quality
	asOf = utils.Day(asOf)
	from := utils.AddDays(asOf, -(q.WindowDays - 1))

	type sample struct {
		pct    bands
		weight float64
	}
	var samples []sample
	sources := make(map[string]bool)
	weighted, zoned := false, false

	for _, r := range records {
		d, err := utils.ParseDate(r.Date)
		if err != nil || d.Before(from) || d.After(asOf) {
			continue
		}
		b, source := c.zoneBands(r)
		if source != models.QualitySourceNeutral {
			zoned = true
		}
		t := b.total()
		pct := bands{low: b.low / t * 100, moderate: b.moderate / t * 100, high: b.high / t * 100}
		w := utils.NonNegative(r.TrainingStressScore)
		if w > 0 {
			weighted = true
		}
		samples = append(samples, sample{pct: pct, weight: w})
		sources[source] = true
	}

	if !zoned {
		return c.Neutral()
	}

	var acc bands
	totalWeight := 0.0
	for _, s := range samples {
		w := s.weight
		if !weighted {
			w = 1
		}
		acc.low += s.pct.low * w
		acc.moderate += s.pct.moderate * w
		acc.high += s.pct.high * w
		totalWeight += w
	}

	source := models.QualitySourceMixed
	if len(sources) == 1 {
		for s := range sources {
			source = s
		}
	}
	return c.finish(acc.low/totalWeight, acc.moderate/totalWeight, acc.high/totalWeight, source, false)
}

func (c Calibrator) finish(low, moderate, high float64, source string, neutral bool) models.TrainingQuality {
	q := c.cal.Quality
	factor := 1.0
	if !neutral {
		factor = (low*q.LowWeight + moderate*q.ModerateWeight + high*q.HighWeight) / 100
	}
	return models.TrainingQuality{
		LowPct:              utils.Round1(low),
		ModeratePct:         utils.Round1(moderate),
		HighPct:             utils.Round1(high),
		IntensityLoadFactor: utils.Round2(factor),
		PolarizationScore:   utils.Round2(utils.Clamp((low+high-moderate)/100, 0, 1)),
		Source:              source,
	}
}
