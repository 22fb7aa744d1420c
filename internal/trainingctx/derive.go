// Package trainingctx builds the per-request TrainingContext from the
// athlete's history, profile and effort bests.
package trainingctx

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/trainplan/internal/calibration"
	"github.com/julianstephens/trainplan/internal/constants"
	"github.com/julianstephens/trainplan/internal/loadmodel"
	"github.com/julianstephens/trainplan/internal/logger"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// HistoryReader returns recorded activities dated within [startDay, endDay]
type HistoryReader interface {
	GetActivities(ctx context.Context, startDay, endDay string) ([]models.ActivityRecord, error)
}

// EffortReader returns the athlete's best efforts
type EffortReader interface {
	GetEffortBests(ctx context.Context) ([]models.EffortBest, error)
}

// ProfileReader returns the athlete profile
type ProfileReader interface {
	GetProfile(ctx context.Context) (models.Profile, error)
}

// Result is a derived context plus the inputs it was derived from
type Result struct {
	Context     models.TrainingContext
	Records     []models.ActivityRecord // valid records inside the window, date ordered
	EffortBests []models.EffortBest
	Profile     models.Profile
	Fingerprint uint64
}

// Deriver reads the collaborators and runs the calibrator and load model.
// The effort reader is optional.
type Deriver struct {
	history    HistoryReader
	efforts    EffortReader
	profile    ProfileReader
	calibrator calibration.Calibrator
}

func NewDeriver(history HistoryReader, efforts EffortReader, profile ProfileReader, calibrator calibration.Calibrator) *Deriver {
	return &Deriver{
		history:    history,
		efforts:    efforts,
		profile:    profile,
		calibrator: calibrator,
	}
}

type sources struct {
	records       []models.ActivityRecord
	efforts       []models.EffortBest
	profile       models.Profile
	historyFailed bool
	effortsFailed bool
	profileFailed bool
}

// read fetches all three sources concurrently. A failing source is logged
// and recorded; it never cancels the other reads.
func (d *Deriver) read(ctx context.Context, from, to time.Time) sources {
	var src sources
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if d.history == nil {
			src.historyFailed = true
			return nil
		}
		records, err := d.history.GetActivities(gctx, utils.FormatDate(from), utils.FormatDate(to))
		if err != nil {
			logger.Warn("History source unavailable", "error", err)
			src.historyFailed = true
			return nil
		}
		src.records = records
		return nil
	})

	g.Go(func() error {
		if d.efforts == nil {
			return nil
		}
		bests, err := d.efforts.GetEffortBests(gctx)
		if err != nil {
			logger.Warn("Effort source unavailable", "error", err)
			src.effortsFailed = true
			return nil
		}
		src.efforts = bests
		return nil
	})

	g.Go(func() error {
		if d.profile == nil {
			src.profileFailed = true
			return nil
		}
		profile, err := d.profile.GetProfile(gctx)
		if err != nil {
			logger.Warn("Profile source unavailable", "error", err)
			src.profileFailed = true
			return nil
		}
		src.profile = profile
		return nil
	})

	_ = g.Wait()
	return src
}

// Derive builds the context as of the end of asOf
func (d *Deriver) Derive(ctx context.Context, asOf time.Time) (Result, error) {
	start := time.Now()
	asOf = utils.Day(asOf)
	from := utils.AddDays(asOf, -(constants.HistoryWindowDays - 1))

	src := d.read(ctx, from, asOf)
	if err := ctx.Err(); err != nil {
		return Result{}, fmt.Errorf("context derivation cancelled: %w", err)
	}

	records, dropped := validRecords(src.records, from, asOf)
	efforts := validEfforts(src.efforts, asOf)

	var rationale []string
	state := d.classify(records, asOf)
	rationale = append(rationale, availabilityRationale(state))
	if src.historyFailed {
		rationale = append(rationale, constants.RationaleHistorySourceUnavailable)
	}
	if src.effortsFailed {
		rationale = append(rationale, constants.RationaleEffortSourceUnavailable)
	}
	if src.profileFailed {
		rationale = append(rationale, constants.RationaleProfileSourceUnavailable)
	}
	if dropped > 0 {
		rationale = append(rationale, constants.RationaleMalformedRecordsDropped)
	}

	var agePtr *int
	if age, ok := utils.AgeOn(src.profile.DOB, asOf); ok {
		agePtr = &age
	} else {
		rationale = append(rationale, constants.RationaleAgeUnknown)
	}

	var genderPtr *string
	switch src.profile.Gender {
	case models.GenderFemale, models.GenderMale:
		gender := src.profile.Gender
		genderPtr = &gender
	default:
		rationale = append(rationale, constants.RationaleGenderUnspecified)
	}

	quality := d.calibrator.TrainingQuality(records, asOf)
	if quality.Source == models.QualitySourceNeutral {
		rationale = append(rationale, constants.RationaleZoneDataUnavailable)
	}

	ramp, _ := d.calibrator.LearnRamp(records, asOf)
	if ramp.WeeksObserved < d.calibrator.Calibration().Ramp.MinWeeks {
		rationale = append(rationale, constants.RationaleRampDefaultFewWeeks)
	}

	if len(efforts) == 0 {
		rationale = append(rationale, constants.RationaleNoEffortBests)
	}

	tcs := d.calibrator.TimeConstants(agePtr, genderPtr, quality)
	loads := DailyLoads(records, from, asOf)
	ctl := loadmodel.CalculateCTL(loads, 0, tcs.Fitness)
	atl := loadmodel.CalculateATL(loads, 0, tcs.Fatigue)

	fingerprint, err := Fingerprint(asOf, records, efforts, src.profile)
	if err != nil {
		return Result{}, err
	}

	tc := models.TrainingContext{
		AsOf:                     utils.FormatDate(asOf),
		CurrentCTL:               ctl,
		CurrentATL:               atl,
		CurrentTSB:               utils.Round1(ctl - atl),
		UserAge:                  agePtr,
		UserGender:               genderPtr,
		LearnedRamp:              ramp,
		TrainingQuality:          quality,
		TimeConstants:            tcs,
		MaxSustainableCTL:        d.calibrator.MaxSustainableCTL(agePtr),
		HistoryAvailabilityState: state,
		RationaleCodes:           rationale,
		RecentCategoryShare:      categoryShare(records, utils.AddDays(asOf, -(constants.QualityWindowDays-1)), asOf),
		HasEffortBests:           len(efforts) > 0,
		DroppedRecords:           dropped,
	}

	logger.Since("Derived training context", start,
		"as_of", tc.AsOf, "state", state, "ctl", ctl, "atl", atl, "dropped", dropped)

	return Result{
		Context:     tc,
		Records:     records,
		EffortBests: efforts,
		Profile:     src.profile,
		Fingerprint: fingerprint,
	}, nil
}

// WithStartingCTL returns a copy of c seeded from a caller-supplied fitness value
func WithStartingCTL(c models.TrainingContext, ctl float64) models.TrainingContext {
	out := c
	out.CurrentCTL = utils.Round1(utils.NonNegative(ctl))
	out.CurrentTSB = utils.Round1(out.CurrentCTL - out.CurrentATL)
	out.RationaleCodes = append(append([]string(nil), c.RationaleCodes...), constants.RationaleStartingCTLOverride)
	return out
}

func availabilityRationale(state models.HistoryAvailability) string {
	switch state {
	case models.HistoryNone:
		return constants.RationaleNoHistory
	case models.HistorySparse:
		return constants.RationaleSparseHistory
	}
	return constants.RationaleSufficientHistory
}

// classify labels how much usable history there is
func (d *Deriver) classify(records []models.ActivityRecord, asOf time.Time) models.HistoryAvailability {
	if len(records) == 0 {
		return models.HistoryNone
	}
	a := d.calibrator.Calibration().Availability
	recentFrom := utils.AddDays(asOf, -(a.SparseWindowDays - 1))

	activeDays := make(map[string]bool)
	weeks := make(map[time.Time]bool)
	for _, r := range records {
		day, _ := utils.ParseDate(r.Date)
		weeks[utils.WeekStart(day)] = true
		if !day.Before(recentFrom) {
			activeDays[r.Date] = true
		}
	}
	if len(activeDays) < a.SparseActiveDays || len(weeks) < a.SparseMinWeeks {
		return models.HistorySparse
	}
	return models.HistorySufficient
}

// validRecords keeps records with a parseable date inside [from, to],
// normalizes their dates and orders them by date. It returns the number of
// records dropped for a malformed date.
func validRecords(records []models.ActivityRecord, from, to time.Time) ([]models.ActivityRecord, int) {
	out := make([]models.ActivityRecord, 0, len(records))
	dropped := 0
	for _, r := range records {
		d, err := utils.ParseDate(r.Date)
		if err != nil {
			dropped++
			continue
		}
		if d.Before(from) || d.After(to) {
			continue
		}
		r.Date = utils.FormatDate(d)
		r.TrainingStressScore = utils.NonNegative(r.TrainingStressScore)
		r.DurationSeconds = utils.NonNegative(r.DurationSeconds)
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out, dropped
}

func validEfforts(bests []models.EffortBest, asOf time.Time) []models.EffortBest {
	out := make([]models.EffortBest, 0, len(bests))
	for _, b := range bests {
		d, err := utils.ParseDate(b.Date)
		if err != nil || d.After(asOf) || b.DistanceM <= 0 || b.DurationS <= 0 {
			continue
		}
		b.Date = utils.FormatDate(d)
		out = append(out, b)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DailyLoads returns one zero-filled load per day in [from, to]. Records must
// already have normalized dates.
func DailyLoads(records []models.ActivityRecord, from, to time.Time) []float64 {
	days := utils.DaysBetween(from, to) + 1
	if days <= 0 {
		return nil
	}
	loads := make([]float64, days)
	for _, r := range records {
		d, err := utils.ParseDate(r.Date)
		if err != nil {
			continue
		}
		if i := utils.DaysBetween(from, d); i >= 0 && i < days {
			loads[i] += r.TrainingStressScore
		}
	}
	return loads
}

func categoryShare(records []models.ActivityRecord, from, to time.Time) []models.CategoryShare {
	totals := make(map[string]float64)
	total := 0.0
	for _, r := range records {
		d, _ := utils.ParseDate(r.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		category := r.ActivityCategory
		if category == "" {
			category = models.CategoryOther
		}
		totals[category] += r.TrainingStressScore
		total += r.TrainingStressScore
	}
	if total == 0 {
		return []models.CategoryShare{}
	}

	shares := make([]models.CategoryShare, 0, len(totals))
	for category, tss := range totals {
		shares = append(shares, models.CategoryShare{Category: category, Share: utils.Round2(tss / total)})
	}
	sort.Slice(shares, func(i, j int) bool { return shares[i].Category < shares[j].Category })
	return shares
}
