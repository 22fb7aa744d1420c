package loadmodel

import (
	"math"
	"testing"
)

func TestAlpha(t *testing.T) {
	tests := []struct {
		name string
		tc   float64
		want float64
	}{
		{name: "fitness", tc: 42, want: 2.0 / 43.0},
		{name: "fatigue", tc: 7, want: 0.25},
		{name: "one day", tc: 1, want: 1},
		{name: "below one is raised", tc: 0.2, want: 1},
		{name: "negative is raised", tc: -5, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Alpha(tt.tc); math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("Alpha(%v) = %v, want %v", tt.tc, got, tt.want)
			}
		})
	}
}

func TestCalculate_SeedOnly(t *testing.T) {
	if got := Calculate(nil, 37.26, 42); got != 37.3 {
		t.Errorf("Calculate(nil, 37.26) = %v, want 37.3", got)
	}
	if got := Calculate(nil, 0, 42); got != 0 {
		t.Errorf("Calculate(nil, 0) = %v, want 0", got)
	}
}

func TestCalculate_KnownValues(t *testing.T) {
	// With tc=7 alpha is 0.25: 0 -> 25 -> 43.75 -> 57.8125
	loads := []float64{100, 100, 100}
	if got := CalculateATL(loads, 0, 7); got != 57.8 {
		t.Errorf("CalculateATL = %v, want 57.8", got)
	}
}

func TestCalculate_NegativeLoadCoercedToZero(t *testing.T) {
	withNegative := Calculate([]float64{-50, 100, math.NaN()}, 10, 7)
	withZero := Calculate([]float64{0, 100, 0}, 10, 7)
	if withNegative != withZero {
		t.Errorf("negative/NaN loads not coerced: got %v, want %v", withNegative, withZero)
	}
}

func TestCalculate_Idempotent(t *testing.T) {
	loads := make([]float64, 365)
	for i := range loads {
		loads[i] = float64((i*37)%150) + 0.3
	}

	first := CalculateCTL(loads, 12.5, 42)
	for i := 0; i < 5; i++ {
		if again := CalculateCTL(loads, 12.5, 42); math.Float64bits(again) != math.Float64bits(first) {
			t.Fatalf("run %d produced %v, want bit-identical %v", i, again, first)
		}
	}

	atl := CalculateATL(loads, 12.5, 7)
	if again := CalculateATL(loads, 12.5, 7); math.Float64bits(again) != math.Float64bits(atl) {
		t.Fatalf("ATL not idempotent: %v vs %v", again, atl)
	}
}

func TestModel_SeriesMatchesFinal(t *testing.T) {
	m := New(42, 7)
	loads := []float64{50, 60, 0, 80, 120, 0, 40}
	seed := State{Fitness: 30, Fatigue: 40}

	series := m.Series(seed, loads)
	if len(series) != len(loads) {
		t.Fatalf("Series length = %d, want %d", len(series), len(loads))
	}
	final := m.Final(seed, loads)
	if series[len(series)-1] != final {
		t.Errorf("last series state %v != final %v", series[len(series)-1], final)
	}
	if got := final.Fitness; math.Abs(got-Run(loads, 30, 42)) > 1e-12 {
		t.Errorf("fitness %v does not match Run", got)
	}
}

func TestState_Balance(t *testing.T) {
	s := State{Fitness: 50, Fatigue: 65}
	if s.Balance() != -15 {
		t.Errorf("Balance() = %v, want -15", s.Balance())
	}
}

func TestSteadyState(t *testing.T) {
	// Constant load equal to the seed leaves both averages unchanged
	m := New(42, 7)
	seed := State{Fitness: 50, Fatigue: 50}
	loads := []float64{50, 50, 50, 50}
	if got := m.Final(seed, loads).Rounded(); got != seed {
		t.Errorf("steady state drifted: %v", got)
	}
}
