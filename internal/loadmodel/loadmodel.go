// Package loadmodel implements the fitness/fatigue recurrence: two
// exponentially weighted moving averages of daily training stress.
package loadmodel

import (
	"github.com/julianstephens/trainplan/internal/utils"
)

// Alpha returns the smoothing factor for a time constant. Time constants
// below one day are raised to one.
func Alpha(timeConstant float64) float64 {
	if timeConstant < 1 {
		timeConstant = 1
	}
	return 2 / (timeConstant + 1)
}

// Step advances one day of the recurrence without rounding
func Step(prev, load, timeConstant float64) float64 {
	return prev + Alpha(timeConstant)*(utils.NonNegative(load)-prev)
}

// Run applies the recurrence once per daily load, in order, starting from
// seed, and returns the unrounded final value.
func Run(loads []float64, seed, timeConstant float64) float64 {
	value := seed
	alpha := Alpha(timeConstant)
	for _, load := range loads {
		value += alpha * (utils.NonNegative(load) - value)
	}
	return value
}

// Calculate is Run rounded to one decimal place
func Calculate(loads []float64, seed, timeConstant float64) float64 {
	return utils.Round1(Run(loads, seed, timeConstant))
}

// CalculateCTL returns fitness after the given chronological daily loads
func CalculateCTL(loads []float64, seed float64, fitnessTC int) float64 {
	return Calculate(loads, seed, float64(fitnessTC))
}

// CalculateATL returns fatigue after the given chronological daily loads
func CalculateATL(loads []float64, seed float64, fatigueTC int) float64 {
	return Calculate(loads, seed, float64(fatigueTC))
}

// State is the model state at the end of one day
type State struct {
	Fitness float64
	Fatigue float64
}

// Balance is fitness minus fatigue (form)
func (s State) Balance() float64 {
	return s.Fitness - s.Fatigue
}

// Rounded returns the state rounded to one decimal place
func (s State) Rounded() State {
	return State{Fitness: utils.Round1(s.Fitness), Fatigue: utils.Round1(s.Fatigue)}
}

// Model runs both recurrences with personalized constants
type Model struct {
	FitnessTC float64
	FatigueTC float64
}

// New creates a model from integer day constants
func New(fitnessTC, fatigueTC int) Model {
	return Model{FitnessTC: float64(fitnessTC), FatigueTC: float64(fatigueTC)}
}

// Advance applies one day of load to s
func (m Model) Advance(s State, load float64) State {
	return State{
		Fitness: Step(s.Fitness, load, m.FitnessTC),
		Fatigue: Step(s.Fatigue, load, m.FatigueTC),
	}
}

// Final returns the unrounded state after all loads
func (m Model) Final(seed State, loads []float64) State {
	s := seed
	for _, load := range loads {
		s = m.Advance(s, load)
	}
	return s
}

// Series returns the unrounded state at the end of each day
func (m Model) Series(seed State, loads []float64) []State {
	out := make([]State, len(loads))
	s := seed
	for i, load := range loads {
		s = m.Advance(s, load)
		out[i] = s
	}
	return out
}
