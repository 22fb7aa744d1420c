package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/julianstephens/trainplan/internal/models"
	"github.com/julianstephens/trainplan/internal/planner"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "nested", "trainplan.db"))
	if err := store.Init(); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestInitCreatesSchema(t *testing.T) {
	store := setupTestStore(t)

	for _, table := range []string{"activities", "effort_bests", "profile", "activity_plans", "plans", "scheduled_activities", "SCHEMA_VERSION"} {
		exists, err := store.tableExists(table)
		if err != nil {
			t.Fatalf("tableExists(%s) error = %v", table, err)
		}
		if !exists {
			t.Errorf("table %s missing after Init", table)
		}
	}

	// Init is idempotent
	if err := store.Init(); err != nil {
		t.Errorf("second Init() error = %v", err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("uninitialized", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "missing.db"))
		if err := store.Load(); err == nil {
			t.Error("Load() error = nil, want not initialized")
		}
	})

	t.Run("after init", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "trainplan.db")
		first := NewStore(path)
		if err := first.Init(); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		first.Close()

		second := NewStore(path)
		defer second.Close()
		if err := second.Load(); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if _, err := second.ListPlans(context.Background()); err != nil {
			t.Errorf("ListPlans() after Load error = %v", err)
		}
	})
}

func TestActivities(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	records := []models.ActivityRecord{
		{ID: "a1", Date: "2025-01-01", ActivityCategory: models.CategoryRun, DurationSeconds: 3600, TrainingStressScore: 60, HRZoneSeconds: []float64{600, 1800, 1200}},
		{ID: "a2", Date: "2025-01-03", ActivityCategory: models.CategoryBike, DurationSeconds: 5400, TrainingStressScore: 80},
		{ID: "a3", Date: "2025-02-01", ActivityCategory: models.CategorySwim, DurationSeconds: 1800, TrainingStressScore: 30},
	}
	n, err := store.AddActivities(ctx, records)
	if err != nil {
		t.Fatalf("AddActivities() error = %v", err)
	}
	if n != 3 {
		t.Errorf("AddActivities() = %d, want 3", n)
	}

	got, err := store.GetActivities(ctx, "2025-01-01", "2025-01-31")
	if err != nil {
		t.Fatalf("GetActivities() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetActivities() returned %d records, want 2", len(got))
	}
	if len(got[0].HRZoneSeconds) != 3 || got[0].HRZoneSeconds[1] != 1800 {
		t.Errorf("HRZoneSeconds = %v, want round trip", got[0].HRZoneSeconds)
	}
	if got[1].PowerZoneSeconds != nil {
		t.Errorf("PowerZoneSeconds = %v, want nil", got[1].PowerZoneSeconds)
	}

	// re-import updates by id
	records[1].TrainingStressScore = 95
	if _, err := store.AddActivities(ctx, records[1:2]); err != nil {
		t.Fatalf("AddActivities(update) error = %v", err)
	}
	got, _ = store.GetActivities(ctx, "2025-01-03", "2025-01-03")
	if len(got) != 1 || got[0].TrainingStressScore != 95 {
		t.Errorf("updated activity = %+v, want TSS 95", got)
	}
}

func TestProfileAndEfforts(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	p, err := store.GetProfile(ctx)
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if p != (models.Profile{}) {
		t.Errorf("GetProfile() on empty store = %+v, want zero", p)
	}

	want := models.Profile{DOB: "1988-04-12", Gender: models.GenderMale}
	if err := store.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile() error = %v", err)
	}
	want.Gender = models.GenderFemale
	if err := store.SaveProfile(ctx, want); err != nil {
		t.Fatalf("SaveProfile(update) error = %v", err)
	}
	if p, _ := store.GetProfile(ctx); p != want {
		t.Errorf("GetProfile() = %+v, want %+v", p, want)
	}

	best := models.EffortBest{ID: "e1", Date: "2024-10-01", ActivityCategory: models.CategoryRun, DistanceM: 5000, DurationS: 1260}
	if err := store.AddEffortBest(ctx, best); err != nil {
		t.Fatalf("AddEffortBest() error = %v", err)
	}
	bests, err := store.GetEffortBests(ctx)
	if err != nil {
		t.Fatalf("GetEffortBests() error = %v", err)
	}
	if len(bests) != 1 || bests[0] != best {
		t.Errorf("GetEffortBests() = %+v, want [%+v]", bests, best)
	}
}

func TestPlans(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	doc := models.PlanDocument{
		ID:            "plan-1",
		CreatedAt:     "2025-01-01T08:00:00Z",
		SnapshotToken: "v1-00000000000000aa",
		MinimalPlan: models.MinimalPlan{
			PlanStartDate: "2025-01-06",
			Goals:         []models.Goal{{Name: "10k", TargetDate: "2025-03-30", Priority: 1}},
		},
		ProjectionFeasibility: models.ProjectionFeasibility{State: models.FeasibilitySafe},
		ProjectionChart:       models.ProjectionChart{StartDate: "2025-01-06", EndDate: "2025-03-30"},
	}
	if err := store.SavePlan(ctx, doc); err != nil {
		t.Fatalf("SavePlan() error = %v", err)
	}

	got, err := store.GetPlan(ctx, "plan-1")
	if err != nil {
		t.Fatalf("GetPlan() error = %v", err)
	}
	if got.SnapshotToken != doc.SnapshotToken || got.MinimalPlan.Goals[0].Name != "10k" {
		t.Errorf("GetPlan() = %+v, want stored document", got)
	}

	reused := doc
	reused.ID = "plan-2"
	if err := store.SavePlan(ctx, reused); !errors.Is(err, planner.ErrSnapshotConsumed) {
		t.Errorf("SavePlan(reused token) error = %v, want ErrSnapshotConsumed", err)
	}

	// plans created without a preview share the empty token
	for _, id := range []string{"direct-1", "direct-2"} {
		direct := doc
		direct.ID, direct.SnapshotToken = id, ""
		if err := store.SavePlan(ctx, direct); err != nil {
			t.Errorf("SavePlan(%s) error = %v", id, err)
		}
	}

	list, err := store.ListPlans(ctx)
	if err != nil {
		t.Fatalf("ListPlans() error = %v", err)
	}
	if len(list) != 3 {
		t.Errorf("ListPlans() = %d plans, want 3", len(list))
	}
	if list[0].EndDate != "2025-03-30" || list[0].FeasibilityState != models.FeasibilitySafe {
		t.Errorf("summary = %+v", list[0])
	}

	if _, err := store.GetPlan(ctx, "missing"); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("GetPlan(missing) error = %v, want ErrNotFound", err)
	}
}

func TestScheduling(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	ap := models.ActivityPlan{ID: "tempo", Name: "Tempo run", ActivityCategory: models.CategoryRun, EstimatedTSS: 70, Intensity: models.IntensityModerate}
	if err := store.AddActivityPlan(ctx, ap); err != nil {
		t.Fatalf("AddActivityPlan() error = %v", err)
	}
	if got, err := store.GetActivityPlan(ctx, "tempo"); err != nil || got != ap {
		t.Errorf("GetActivityPlan() = %+v, %v, want %+v", got, err, ap)
	}
	if _, err := store.GetActivityPlan(ctx, "missing"); !errors.Is(err, planner.ErrNotFound) {
		t.Errorf("GetActivityPlan(missing) error = %v, want ErrNotFound", err)
	}
	if list, _ := store.ListActivityPlans(ctx); len(list) != 1 {
		t.Errorf("ListActivityPlans() = %d, want 1", len(list))
	}

	if err := store.SavePlan(ctx, models.PlanDocument{ID: "plan-1", CreatedAt: "2025-01-01T08:00:00Z"}); err != nil {
		t.Fatalf("SavePlan() error = %v", err)
	}
	sa := models.ScheduledActivity{ID: "s1", PlanID: "plan-1", ActivityPlanID: "tempo", Date: "2025-02-04", EstimatedTSS: 70, Intensity: models.IntensityModerate}
	if err := store.AddScheduledActivity(ctx, sa); err != nil {
		t.Fatalf("AddScheduledActivity() error = %v", err)
	}

	orphan := sa
	orphan.ID, orphan.PlanID = "s2", "no-such-plan"
	if err := store.AddScheduledActivity(ctx, orphan); err == nil {
		t.Error("AddScheduledActivity(unknown plan) error = nil, want foreign key failure")
	}

	got, err := store.GetScheduledActivities(ctx, "plan-1")
	if err != nil {
		t.Fatalf("GetScheduledActivities() error = %v", err)
	}
	if len(got) != 1 || got[0] != sa {
		t.Errorf("GetScheduledActivities() = %+v, want [%+v]", got, sa)
	}
}
