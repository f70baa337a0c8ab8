package pipeline

import (
	"context"

	"github.com/keagan/showcase/internal/composition"
	"github.com/keagan/showcase/internal/timeline"
	"github.com/keagan/showcase/internal/timing"
)

// Plan is the full assembly of a composition on the frame grid
type Plan struct {
	FPS              int                `json:"fps" yaml:"fps"`
	Width            int                `json:"width" yaml:"width"`
	Height           int                `json:"height" yaml:"height"`
	TransitionFrames int                `json:"transitionFrames" yaml:"transition_frames"`
	Sections         []SectionPlan      `json:"sections" yaml:"sections"`
	Timeline         *timeline.Timeline `json:"timeline" yaml:"timeline"`
	Video            []Clip             `json:"video" yaml:"video"`
	Narration        []Clip             `json:"narration" yaml:"narration"`
	Subtitles        []Clip             `json:"subtitles" yaml:"subtitles"`
	TotalFrames      int                `json:"totalFrames" yaml:"total_frames"`
	Warnings         []string           `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// SectionPlan is a content section with its timing and placement
type SectionPlan struct {
	Key              composition.SectionKey `json:"key" yaml:"key"`
	Title            string                 `json:"title" yaml:"title"`
	Timing           timing.Result          `json:"timing" yaml:"timing"`
	StartFrame       int                    `json:"startFrame" yaml:"start_frame"`
	DurationInFrames int                    `json:"durationInFrames" yaml:"duration_in_frames"`
}

// Clip places one asset on a track
type Clip struct {
	Section          string `json:"section" yaml:"section"`
	StartFrame       int    `json:"startFrame" yaml:"start_frame"`
	DurationInFrames int    `json:"durationInFrames" yaml:"duration_in_frames"`
	Source           string `json:"source,omitempty" yaml:"source,omitempty"`
	Text             string `json:"text,omitempty" yaml:"text,omitempty"`
}

// EndFrame is the first frame after the clip
func (c Clip) EndFrame() int {
	return c.StartFrame + c.DurationInFrames
}

// Preview is the lightweight per-section view the editor shows while typing
type Preview struct {
	Sections     []SectionTiming `json:"sections" yaml:"sections"`
	TotalFrames  int             `json:"totalFrames" yaml:"total_frames"`
	TotalSeconds float64         `json:"totalSeconds" yaml:"total_seconds"`
	Warnings     []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

type SectionTiming struct {
	Key    composition.SectionKey `json:"key" yaml:"key"`
	Title  string                 `json:"title" yaml:"title"`
	Timing timing.Result          `json:"timing" yaml:"timing"`

	// Clamped is set when the override was below the minimum
	Clamped bool `json:"clamped,omitempty" yaml:"clamped,omitempty"`
}

// DurationProber measures a local media file
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}
