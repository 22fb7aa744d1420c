package planner

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/constants"
	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/metrics"
	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/utils"
)

// fakeStore implements every collaborator in memory
type fakeStore struct {
	mu         sync.Mutex
	records    []models.ActivityRecord
	efforts    []models.EffortBest
	profile    models.Profile
	effortErr  error
	plans      map[string]models.PlanDocument
	tokens     map[string]bool
	apPlans    map[string]models.ActivityPlan
	scheduled  []models.ScheduledActivity
	savedCalls int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		profile: models.Profile{DOB: "1985-06-01", Gender: models.GenderFemale},
		plans:   make(map[string]models.PlanDocument),
		tokens:  make(map[string]bool),
		apPlans: make(map[string]models.ActivityPlan),
	}
}

func (f *fakeStore) GetActivities(ctx context.Context, startDay, endDay string) ([]models.ActivityRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ActivityRecord
	for _, r := range f.records {
		if r.Date >= startDay && r.Date <= endDay {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) GetEffortBests(ctx context.Context) ([]models.EffortBest, error) {
	if f.effortErr != nil {
		return nil, f.effortErr
	}
	return f.efforts, nil
}

func (f *fakeStore) GetProfile(ctx context.Context) (models.Profile, error) {
	return f.profile, nil
}

func (f *fakeStore) SavePlan(ctx context.Context, doc models.PlanDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.savedCalls++
	if doc.SnapshotToken != "" {
		if f.tokens[doc.SnapshotToken] {
			return fmt.Errorf("insert plan: %w", ErrSnapshotConsumed)
		}
		f.tokens[doc.SnapshotToken] = true
	}
	f.plans[doc.ID] = doc
	return nil
}

func (f *fakeStore) GetPlan(ctx context.Context, id string) (models.PlanDocument, error) {
	doc, ok := f.plans[id]
	if !ok {
		return models.PlanDocument{}, ErrNotFound
	}
	return doc, nil
}

func (f *fakeStore) GetActivityPlan(ctx context.Context, id string) (models.ActivityPlan, error) {
	ap, ok := f.apPlans[id]
	if !ok {
		return models.ActivityPlan{}, ErrNotFound
	}
	return ap, nil
}

func (f *fakeStore) GetScheduledActivities(ctx context.Context, planID string) ([]models.ScheduledActivity, error) {
	var out []models.ScheduledActivity
	for _, s := range f.scheduled {
		if s.PlanID == planID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeStore) AddScheduledActivity(ctx context.Context, a models.ScheduledActivity) error {
	f.scheduled = append(f.scheduled, a)
	return nil
}

// withDailyHistory adds one 50 TSS run per day for the days before end
func (f *fakeStore) withDailyHistory(end string, days int) *fakeStore {
	last, _ := utils.ParseDate(end)
	for i := 0; i < days; i++ {
		d := utils.AddDays(last, -i)
		f.records = append(f.records, models.ActivityRecord{
			ID:                  fmt.Sprintf("a-%03d", i),
			Date:                utils.FormatDate(d),
			ActivityCategory:    models.CategoryRun,
			DurationSeconds:     3600,
			TrainingStressScore: 50,
		})
	}
	return f
}

var fixedNow = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

func newTestService(store *fakeStore, m *metrics.Metrics) *Service {
	return newCalibratedService(store, m, config.Default())
}

func newCalibratedService(store *fakeStore, m *metrics.Metrics, cal config.Calibration) *Service {
	return New(Deps{
		History:       store,
		Efforts:       store,
		Profile:       store,
		PlanWriter:    store,
		PlanReader:    store,
		ActivityPlans: store,
		Schedule:      store,
		Calibration:   cal,
		Metrics:       m,
		Now:           func() time.Time { return fixedNow },
	})
}

func singleGoalRequest() PreviewRequest {
	return PreviewRequest{
		Plan: models.MinimalPlan{
			PlanStartDate: "2025-01-06",
			Goals: []models.Goal{{
				Name:       "10k",
				TargetDate: "2025-03-30",
				Priority:   1,
				Targets:    []models.Target{{Kind: models.TargetRacePerformance, ActivityCategory: models.CategoryRun, DistanceM: 10000, TargetTimeS: 3000}},
			}},
		},
		CreationInput: models.CreationConfig{OptimizationProfile: models.ProfileBalanced},
	}
}

func TestPreview_ProducesCompleteResult(t *testing.T) {
	store := newFakeStore().withDailyHistory("2025-01-01", 90)
	svc := newTestService(store, nil)

	res, err := svc.PreviewCreationConfig(context.Background(), singleGoalRequest())
	if err != nil {
		t.Fatalf("PreviewCreationConfig() error = %v", err)
	}

	if res.NormalizedCreationConfig.MaxCTLRampPerWeek != 3 {
		t.Errorf("normalized = %+v, want balanced caps", res.NormalizedCreationConfig)
	}
	if res.PreviewSnapshot.Token == "" || res.PreviewSnapshot.Version != config.CalibrationVersion {
		t.Errorf("snapshot = %+v", res.PreviewSnapshot)
	}
	if res.TrainingContext.HistoryAvailabilityState != models.HistorySufficient {
		t.Errorf("history state = %s, want sufficient", res.TrainingContext.HistoryAvailabilityState)
	}
	if got := len(res.ProjectionChart.Points); got != 84 {
		t.Errorf("points = %d, want 84", got)
	}
	found := false
	for _, p := range models.OptimizerPaths {
		if res.ProjectionChart.Diagnostics.SelectedPath == p {
			found = true
		}
	}
	if !found {
		t.Errorf("SelectedPath = %q, want a named tier", res.ProjectionChart.Diagnostics.SelectedPath)
	}
	if res.PlanPreview.Weeks != len(res.ProjectionChart.Microcycles) || res.PlanPreview.EndDate != "2025-03-30" {
		t.Errorf("PlanPreview = %+v", res.PlanPreview)
	}
	if store.savedCalls != 0 {
		t.Errorf("preview persisted %d plans, want 0", store.savedCalls)
	}
}

func TestPreviewThenCreate_Succeeds(t *testing.T) {
	store := newFakeStore().withDailyHistory("2025-01-01", 90)
	m := metrics.New()
	svc := newTestService(store, m)
	ctx := context.Background()

	preview, err := svc.PreviewCreationConfig(ctx, singleGoalRequest())
	if err != nil {
		t.Fatalf("PreviewCreationConfig() error = %v", err)
	}

	res, err := svc.CreateFromCreationConfig(ctx, CreateRequest{
		PreviewRequest:       singleGoalRequest(),
		PreviewSnapshotToken: preview.PreviewSnapshot.Token,
	})
	if err != nil {
		t.Fatalf("CreateFromCreationConfig() error = %v", err)
	}
	if res.ID == "" {
		t.Fatal("ID is empty")
	}
	doc, ok := store.plans[res.ID]
	if !ok {
		t.Fatalf("plan %s not persisted", res.ID)
	}
	if doc.SnapshotToken != preview.PreviewSnapshot.Token {
		t.Errorf("stored token = %q, want %q", doc.SnapshotToken, preview.PreviewSnapshot.Token)
	}
	if doc.ProjectionChart.EndDate != preview.ProjectionChart.EndDate {
		t.Errorf("stored chart differs from preview")
	}

	if got := testutil.ToFloat64(m.Requests.WithLabelValues(metrics.OpCreate, metrics.OutcomeOK)); got != 1 {
		t.Errorf("create ok count = %v, want 1", got)
	}
}

func TestCreate_DirectWithoutToken(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, nil)

	res, err := svc.CreateFromCreationConfig(context.Background(), CreateRequest{PreviewRequest: singleGoalRequest()})
	if err != nil {
		t.Fatalf("CreateFromCreationConfig() error = %v", err)
	}
	if store.plans[res.ID].SnapshotToken != "" {
		t.Errorf("direct create stored a token")
	}
	if res.CreationSummary.ProjectionChart.NoHistory == nil {
		t.Error("NoHistory floor missing for an athlete without history")
	}
}

func TestCreate_StaleAfterDrift(t *testing.T) {
	tests := []struct {
		name   string
		drift  func(store *fakeStore, req *CreateRequest)
		reason string
	}{
		{
			name: "new activity in history",
			drift: func(store *fakeStore, req *CreateRequest) {
				store.records = append(store.records, models.ActivityRecord{
					ID: "late", Date: "2024-12-31", ActivityCategory: models.CategoryBike, DurationSeconds: 5400, TrainingStressScore: 90,
				})
			},
		},
		{
			name: "changed ramp cap",
			drift: func(store *fakeStore, req *CreateRequest) {
				v := 4.0
				req.CreationInput.MaxCTLRampPerWeek = &v
			},
		},
		{
			name: "profile update",
			drift: func(store *fakeStore, req *CreateRequest) {
				store.profile.Gender = models.GenderMale
			},
		},
		{
			name: "starting fitness override",
			drift: func(store *fakeStore, req *CreateRequest) {
				v := 30.0
				req.StartingCTLOverride = &v
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore().withDailyHistory("2025-01-01", 90)
			svc := newTestService(store, nil)
			ctx := context.Background()

			preview, err := svc.PreviewCreationConfig(ctx, singleGoalRequest())
			if err != nil {
				t.Fatalf("PreviewCreationConfig() error = %v", err)
			}

			req := CreateRequest{PreviewRequest: singleGoalRequest(), PreviewSnapshotToken: preview.PreviewSnapshot.Token}
			tt.drift(store, &req)

			_, err = svc.CreateFromCreationConfig(ctx, req)
			if errors.CodeOf(err) != errors.CodeStalePreview {
				t.Fatalf("CodeOf = %q, want %q (err %v)", errors.CodeOf(err), errors.CodeStalePreview, err)
			}
			if err.Error() != errors.StalePreviewMessage {
				t.Errorf("message = %q, want %q", err.Error(), errors.StalePreviewMessage)
			}
			if store.savedCalls != 0 {
				t.Errorf("stale create reached the store")
			}
		})
	}
}

func TestCreate_StaleAfterCalibrationEdit(t *testing.T) {
	store := newFakeStore().withDailyHistory("2025-01-01", 90)
	ctx := context.Background()

	preview, err := newTestService(store, nil).PreviewCreationConfig(ctx, singleGoalRequest())
	if err != nil {
		t.Fatalf("PreviewCreationConfig() error = %v", err)
	}
	req := CreateRequest{PreviewRequest: singleGoalRequest(), PreviewSnapshotToken: preview.PreviewSnapshot.Token}

	cal := config.Default()
	cal.Optimizer.DemandUpperFactor = 1.45
	if cal.Version != config.Default().Version {
		t.Fatalf("Version = %d, want unchanged", cal.Version)
	}

	_, err = newCalibratedService(store, nil, cal).CreateFromCreationConfig(ctx, req)
	if errors.CodeOf(err) != errors.CodeStalePreview {
		t.Fatalf("CodeOf = %q, want %q (err %v)", errors.CodeOf(err), errors.CodeStalePreview, err)
	}
	if store.savedCalls != 0 {
		t.Errorf("savedCalls = %d, want 0", store.savedCalls)
	}

	if _, err := newTestService(store, nil).CreateFromCreationConfig(ctx, req); err != nil {
		t.Errorf("create with preview calibration error = %v", err)
	}
}

func TestCreate_TokenIsSingleUse(t *testing.T) {
	store := newFakeStore().withDailyHistory("2025-01-01", 90)
	svc := newTestService(store, nil)
	ctx := context.Background()

	preview, err := svc.PreviewCreationConfig(ctx, singleGoalRequest())
	if err != nil {
		t.Fatalf("PreviewCreationConfig() error = %v", err)
	}
	req := CreateRequest{PreviewRequest: singleGoalRequest(), PreviewSnapshotToken: preview.PreviewSnapshot.Token}

	if _, err := svc.CreateFromCreationConfig(ctx, req); err != nil {
		t.Fatalf("first create error = %v", err)
	}
	_, err = svc.CreateFromCreationConfig(ctx, req)
	if errors.CodeOf(err) != errors.CodeStalePreview {
		t.Errorf("second create CodeOf = %q, want %q", errors.CodeOf(err), errors.CodeStalePreview)
	}
	if len(store.plans) != 1 {
		t.Errorf("plans = %d, want 1", len(store.plans))
	}
}

func TestCreate_BlockingConflictsRejected(t *testing.T) {
	store := newFakeStore().withDailyHistory("2025-01-01", 90)
	svc := newTestService(store, nil)
	recovery := 14

	req := singleGoalRequest()
	req.Plan.Goals = []models.Goal{
		{Name: "half", TargetDate: "2025-03-01", Priority: 1},
		{Name: "10k", TargetDate: "2025-03-10", Priority: 2},
	}
	req.CreationInput.PostGoalRecoveryDays = &recovery

	preview, err := svc.PreviewCreationConfig(context.Background(), req)
	if err != nil {
		t.Fatalf("PreviewCreationConfig() error = %v", err)
	}
	if !preview.Conflicts.IsBlocking || !preview.Conflicts.HasCode(constants.ConflictRecoveryOverlapsNextGoal) {
		t.Fatalf("conflicts = %+v, want blocking recovery overlap", preview.Conflicts)
	}

	_, err = svc.CreateFromCreationConfig(context.Background(), CreateRequest{
		PreviewRequest:       req,
		PreviewSnapshotToken: preview.PreviewSnapshot.Token,
	})
	if errors.CodeOf(err) != errors.CodeBlockingConflicts {
		t.Errorf("CodeOf = %q, want %q", errors.CodeOf(err), errors.CodeBlockingConflicts)
	}
	if store.savedCalls != 0 {
		t.Error("blocked create reached the store")
	}
}

func TestPreview_InvalidInput(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	req := singleGoalRequest()
	req.Plan.PlanStartDate = "2025-04-01"

	_, err := svc.PreviewCreationConfig(context.Background(), req)
	if errors.CodeOf(err) != errors.CodeInvalidInput {
		t.Errorf("CodeOf = %q, want %q", errors.CodeOf(err), errors.CodeInvalidInput)
	}
}

func TestPreview_EffortSourceFailureDegrades(t *testing.T) {
	store := newFakeStore().withDailyHistory("2025-01-01", 90)
	store.effortErr = stderrors.New("effort service down")
	svc := newTestService(store, nil)

	res, err := svc.PreviewCreationConfig(context.Background(), singleGoalRequest())
	if err != nil {
		t.Fatalf("PreviewCreationConfig() error = %v", err)
	}
	if !res.TrainingContext.HasRationale(constants.RationaleEffortSourceUnavailable) {
		t.Errorf("rationale = %v, want %s", res.TrainingContext.RationaleCodes, constants.RationaleEffortSourceUnavailable)
	}
}

func TestAsOf(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)

	future := svc.asOf(models.MinimalPlan{PlanStartDate: "2025-02-01"})
	if utils.FormatDate(future) != "2025-01-01" {
		t.Errorf("asOf(future start) = %s, want today", utils.FormatDate(future))
	}
	past := svc.asOf(models.MinimalPlan{PlanStartDate: "2024-11-10"})
	if utils.FormatDate(past) != "2024-11-09" {
		t.Errorf("asOf(past start) = %s, want the day before", utils.FormatDate(past))
	}
}

func findSuggestion(t *testing.T, list []models.Suggestion, field string) models.Suggestion {
	t.Helper()
	for _, s := range list {
		if s.Field == field {
			return s
		}
	}
	t.Fatalf("suggestion %s missing from %+v", field, list)
	return models.Suggestion{}
}

func TestSuggestions_NoHistory(t *testing.T) {
	svc := newTestService(newFakeStore(), nil)
	recovery := 9

	got, err := svc.GetCreationSuggestions(context.Background(), nil, models.CreationConfig{PostGoalRecoveryDays: &recovery})
	if err != nil {
		t.Fatalf("GetCreationSuggestions() error = %v", err)
	}

	if got.ContextSummary.HistoryAvailabilityState != models.HistoryNone {
		t.Errorf("state = %s, want none", got.ContextSummary.HistoryAvailabilityState)
	}
	profile := findSuggestion(t, got.Suggestions, models.FieldOptimizationProfile)
	if profile.Value != models.ProfileSustainable || profile.Source != models.SourceHistory {
		t.Errorf("profile = %+v, want sustainable from history", profile)
	}
	ramp := findSuggestion(t, got.Suggestions, models.FieldMaxCTLRampPerWeek)
	if ramp.Value != 2.0 || ramp.Source != models.SourceDefault {
		t.Errorf("ctl ramp = %+v, want sustainable default 2", ramp)
	}
	rec := findSuggestion(t, got.Suggestions, models.FieldPostGoalRecoveryDays)
	if rec.Value != 9 || rec.Source != models.SourceExisting {
		t.Errorf("recovery = %+v, want existing 9", rec)
	}
	days := findSuggestion(t, got.Suggestions, models.FieldDaysPerWeek)
	if days.Value != 4 || days.Source != models.SourceDefault {
		t.Errorf("days = %+v, want default 4", days)
	}
}

func TestSuggestions_FromHistory(t *testing.T) {
	store := newFakeStore().withDailyHistory("2025-01-01", 90)
	svc := newTestService(store, nil)

	got, err := svc.GetCreationSuggestions(context.Background(), nil, models.CreationConfig{})
	if err != nil {
		t.Fatalf("GetCreationSuggestions() error = %v", err)
	}
	if got.ContextSummary.ActiveDaysPerWeek != 7 || got.ContextSummary.WeeklyHours != 7 {
		t.Errorf("summary = %+v, want 7 days and 7 hours", got.ContextSummary)
	}
	days := findSuggestion(t, got.Suggestions, models.FieldDaysPerWeek)
	if days.Value != 7 || days.Source != models.SourceHistory {
		t.Errorf("days = %+v, want 7 from history", days)
	}
	hours := findSuggestion(t, got.Suggestions, models.FieldMaxWeeklyHours)
	if hours.Value != 7.0 || hours.Source != models.SourceHistory {
		t.Errorf("hours = %+v, want 7 from history", hours)
	}
}

func TestValidateConstraints(t *testing.T) {
	store := newFakeStore().withDailyHistory("2025-01-01", 90)
	store.apPlans["easy"] = models.ActivityPlan{ID: "easy", Name: "Easy run", EstimatedTSS: 40, Intensity: models.IntensityLow}
	svc := newTestService(store, nil)
	ctx := context.Background()

	created, err := svc.CreateFromCreationConfig(ctx, CreateRequest{PreviewRequest: singleGoalRequest()})
	if err != nil {
		t.Fatalf("CreateFromCreationConfig() error = %v", err)
	}

	check, err := svc.ValidateConstraints(ctx, created.ID, "2025-02-04", "easy")
	if err != nil {
		t.Fatalf("ValidateConstraints() error = %v", err)
	}
	if !check.CanSchedule {
		t.Errorf("CanSchedule = false: %+v", check.Constraints)
	}

	check, err = svc.ValidateConstraints(ctx, created.ID, "2025-05-01", "easy")
	if err != nil {
		t.Fatalf("ValidateConstraints() error = %v", err)
	}
	if check.CanSchedule || !check.Constraints.WithinPlanRange.Violated() {
		t.Errorf("out of range check = %+v", check)
	}

	_, err = svc.ValidateConstraints(ctx, "missing", "2025-02-04", "easy")
	if errors.CodeOf(err) != errors.CodeNotFound {
		t.Errorf("missing plan CodeOf = %q, want %q", errors.CodeOf(err), errors.CodeNotFound)
	}
	_, err = svc.ValidateConstraints(ctx, created.ID, "2025-02-04", "missing")
	if errors.CodeOf(err) != errors.CodeNotFound {
		t.Errorf("missing activity plan CodeOf = %q, want %q", errors.CodeOf(err), errors.CodeNotFound)
	}
}

func TestScheduleActivity_EnforcesDailyLimit(t *testing.T) {
	store := newFakeStore()
	store.apPlans["easy"] = models.ActivityPlan{ID: "easy", EstimatedTSS: 10, Intensity: models.IntensityLow}
	svc := newTestService(store, nil)
	ctx := context.Background()

	created, err := svc.CreateFromCreationConfig(ctx, CreateRequest{PreviewRequest: singleGoalRequest()})
	if err != nil {
		t.Fatalf("CreateFromCreationConfig() error = %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, _, err := svc.ScheduleActivity(ctx, created.ID, "2025-02-04", "easy"); err != nil {
			t.Fatalf("ScheduleActivity(%d) error = %v", i, err)
		}
	}
	_, check, err := svc.ScheduleActivity(ctx, created.ID, "2025-02-04", "easy")
	if errors.CodeOf(err) != errors.CodeBlockingConflicts {
		t.Errorf("third session CodeOf = %q, want %q", errors.CodeOf(err), errors.CodeBlockingConflicts)
	}
	if !check.Constraints.DailySessionLimit.Violated() {
		t.Errorf("daily limit not reported: %+v", check.Constraints)
	}
	if len(store.scheduled) != 2 {
		t.Errorf("scheduled = %d, want 2", len(store.scheduled))
	}
}
