package analytics

import (
	"errors"
	"strings"
)

// StepKind classifies a bridge bar for colouring.
type StepKind string

const (
	StepTotal    StepKind = "total"
	StepIncrease StepKind = "increase"
	StepDecrease StepKind = "decrease"
)

// Delta is a named signed movement between two totals.
type Delta struct {
	Name  string  `json:"name" yaml:"name" mapstructure:"name"`
	Value float64 `json:"value" yaml:"value" mapstructure:"value"`
}

// BridgeInput describes a bridge from an opening total to a closing total.
type BridgeInput struct {
	StartLabel string  `json:"start_label" yaml:"start_label" mapstructure:"start_label"`
	Start      float64 `json:"start" yaml:"start" mapstructure:"start"`
	Deltas     []Delta `json:"deltas" yaml:"deltas" mapstructure:"deltas"`
	EndLabel   string  `json:"end_label" yaml:"end_label" mapstructure:"end_label"`
}

// Step is one bar of the waterfall. Bars always rise from the lower of Start and End.
type Step struct {
	Name    string  `json:"name"`
	Value   float64 `json:"value"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	IsTotal bool    `json:"is_total"`
}

// Kind returns whether the step is a total, an increase or a decrease.
func (s Step) Kind() StepKind {
	switch {
	case s.IsTotal:
		return StepTotal
	case s.Value < 0:
		return StepDecrease
	default:
		return StepIncrease
	}
}

// Base is the height of the transparent spacer bar.
func (s Step) Base() float64 {
	if s.Start < s.End {
		return s.Start
	}
	return s.End
}

// Magnitude is the height of the visible bar.
func (s Step) Magnitude() float64 {
	if s.End > s.Start {
		return s.End - s.Start
	}
	return s.Start - s.End
}

// ErrBridgeLabel occurs when a bridge step has no name.
var ErrBridgeLabel = errors.New("analytics: bridge step name required")

// BuildBridge sequences the waterfall from an opening total through each delta
// to a synthetic closing total anchored at zero.
func BuildBridge(in BridgeInput) ([]Step, error) {
	if strings.TrimSpace(in.StartLabel) == "" || strings.TrimSpace(in.EndLabel) == "" {
		return nil, ErrBridgeLabel
	}
	steps := make([]Step, 0, len(in.Deltas)+2)
	steps = append(steps, Step{Name: in.StartLabel, Value: in.Start, Start: 0, End: in.Start, IsTotal: true})
	cursor := in.Start
	for _, d := range in.Deltas {
		if strings.TrimSpace(d.Name) == "" {
			return nil, ErrBridgeLabel
		}
		step := Step{Name: d.Name, Value: d.Value}
		if d.Value >= 0 {
			step.Start = cursor
			step.End = cursor + d.Value
			cursor = step.End
		} else {
			step.End = cursor
			step.Start = cursor + d.Value
			cursor = step.Start
		}
		steps = append(steps, step)
	}
	steps = append(steps, Step{Name: in.EndLabel, Value: cursor, Start: 0, End: cursor, IsTotal: true})
	return steps, nil
}
