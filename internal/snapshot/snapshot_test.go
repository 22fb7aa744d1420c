package snapshot

import (
	"regexp"
	"testing"

	"github.com/julianstephens/trainplan/internal/config"
	"github.com/julianstephens/trainplan/internal/errors"
	"github.com/julianstephens/trainplan/internal/models"
)

func baseInputs() Inputs {
	return Inputs{
		Calibration: config.Default(),
		Config: models.NormalizedCreationConfig{
			OptimizationProfile:  models.ProfileBalanced,
			PostGoalRecoveryDays: 5,
			MaxWeeklyTSSRampPct:  7,
			MaxCTLRampPerWeek:    3,
		},
		Plan: models.MinimalPlan{
			PlanStartDate: "2025-01-06",
			Goals: []models.Goal{
				{Name: "half", TargetDate: "2025-04-13", Priority: 1},
				{Name: "10k", TargetDate: "2025-03-02", Priority: 2},
			},
		},
		HistoryFingerprint: 0xdeadbeef,
	}
}

func mustCompute(t *testing.T, in Inputs) string {
	t.Helper()
	s, err := Compute(in)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	return s.Token
}

func TestCompute_Format(t *testing.T) {
	s, err := Compute(baseInputs())
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if s.Version != 1 {
		t.Errorf("Version = %d, want 1", s.Version)
	}
	if !regexp.MustCompile(`^v1-[0-9a-f]{16}$`).MatchString(s.Token) {
		t.Errorf("Token = %q, want v1-<16 hex>", s.Token)
	}
}

func TestCompute_Deterministic(t *testing.T) {
	a := mustCompute(t, baseInputs())
	b := mustCompute(t, baseInputs())
	if a != b {
		t.Errorf("tokens differ for equal inputs: %s vs %s", a, b)
	}

	reordered := baseInputs()
	reordered.Plan.Goals[0], reordered.Plan.Goals[1] = reordered.Plan.Goals[1], reordered.Plan.Goals[0]
	if got := mustCompute(t, reordered); got != a {
		t.Errorf("goal order changed the token: %s vs %s", got, a)
	}

	unset := baseInputs()
	unset.Plan.Goals[0].Priority = 0
	if got := mustCompute(t, unset); got != a {
		t.Errorf("unset priority should equal priority 1: %s vs %s", got, a)
	}
}

func TestCompute_Drift(t *testing.T) {
	base := mustCompute(t, baseInputs())
	zero := 0.0

	tests := []struct {
		name   string
		mutate func(in *Inputs)
	}{
		{name: "history", mutate: func(in *Inputs) { in.HistoryFingerprint++ }},
		{name: "config", mutate: func(in *Inputs) { in.Config.MaxCTLRampPerWeek = 4 }},
		{name: "calibration version", mutate: func(in *Inputs) { in.Calibration.Version = 2 }},
		{name: "calibration constant", mutate: func(in *Inputs) { in.Calibration.Optimizer.DemandUpperFactor = 1.4 }},
		{name: "quality weight", mutate: func(in *Inputs) { in.Calibration.Quality.HighWeight = 1.6 }},
		{name: "goal date", mutate: func(in *Inputs) { in.Plan.Goals[1].TargetDate = "2025-03-09" }},
		{name: "plan start", mutate: func(in *Inputs) { in.Plan.PlanStartDate = "2025-01-13" }},
		{name: "zero override", mutate: func(in *Inputs) { in.StartingCTL = &zero }},
		{name: "target", mutate: func(in *Inputs) {
			in.Plan.Goals[0].Targets = []models.Target{{Kind: models.TargetHRThreshold, TargetLTHRBpm: 170}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := baseInputs()
			tt.mutate(&in)
			if got := mustCompute(t, in); got == base {
				t.Errorf("token unchanged after %s drift", tt.name)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	in := baseInputs()
	token := mustCompute(t, in)

	if err := Verify(in, token); err != nil {
		t.Errorf("Verify(matching) error = %v", err)
	}
	if err := Verify(in, ""); err != nil {
		t.Errorf("Verify(empty) error = %v, want direct create", err)
	}

	drifted := baseInputs()
	drifted.HistoryFingerprint = 1
	err := Verify(drifted, token)
	if errors.CodeOf(err) != errors.CodeStalePreview {
		t.Fatalf("CodeOf = %q, want %q", errors.CodeOf(err), errors.CodeStalePreview)
	}
	if err.Error() != errors.StalePreviewMessage {
		t.Errorf("message = %q, want %q", err.Error(), errors.StalePreviewMessage)
	}
}
