// Package timing computes how long a narrated section stays on screen.
//
// A section with narration always lasts at least its narration plus a fixed
// one second buffer. Any slack is split evenly before and after the
// narration. A section without narration lasts exactly as long as the user
// asked for, or zero.
package timing

import "math"

// PaddingBuffer is the fixed slack added to narration to get a section's minimum length
const PaddingBuffer = 1.0

// Input is the per-section timing input. It is derived from the composition
// document on every read and never stored.
type Input struct {
	AudioDurationSeconds float64

	// UserSetDurationSeconds is the optional override; zero means unset
	UserSetDurationSeconds float64
}

// Result holds all section timings in seconds
type Result struct {
	AudioDuration   float64 `json:"audioDuration" yaml:"audio_duration"`
	MinimumDuration float64 `json:"minimumDuration" yaml:"minimum_duration"`
	ActualDuration  float64 `json:"actualDuration" yaml:"actual_duration"`
	StartPadding    float64 `json:"startPadding" yaml:"start_padding"`
	EndPadding      float64 `json:"endPadding" yaml:"end_padding"`

	// RequestedDuration echoes the user override, zero if none was set
	RequestedDuration float64 `json:"requestedDuration,omitempty" yaml:"requested_duration,omitempty"`
}

// Calculate returns the section timing for in. It never fails: an override
// below the minimum is ignored rather than rejected.
func Calculate(in Input) Result {
	audio := in.AudioDurationSeconds
	userSet := in.UserSetDurationSeconds
	if math.IsNaN(userSet) {
		userSet = 0
	}

	if math.IsNaN(audio) || audio <= 0 {
		return Result{
			ActualDuration:    userSet,
			RequestedDuration: userSet,
		}
	}

	minimum := audio + PaddingBuffer
	actual := minimum
	if userSet != 0 {
		actual = math.Max(userSet, minimum)
	}

	padding := (actual - audio) / 2

	return Result{
		AudioDuration:     audio,
		MinimumDuration:   minimum,
		ActualDuration:    actual,
		StartPadding:      padding,
		EndPadding:        padding,
		RequestedDuration: userSet,
	}
}

// Clamped reports whether a user override was set but lost to the minimum
func (r Result) Clamped() bool {
	return r.AudioDuration > 0 && r.RequestedDuration != 0 && r.RequestedDuration < r.MinimumDuration
}
