// Package pipeline turns a composition document into section timings, a
// frame timeline and the clip tracks a renderer consumes.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/keagan/showcase/internal/composition"
	"github.com/keagan/showcase/internal/config"
	"github.com/keagan/showcase/internal/timeline"
	"github.com/keagan/showcase/internal/timing"
	"github.com/keagan/showcase/pkg/util"
)

const (
	introName = string(composition.KeyIntro)
	outroName = string(composition.KeyOutro)
)

// Pipeline is the single consumer of the timing engine. Editor previews and
// the final render plan both go through it so they agree frame for frame.
type Pipeline struct {
	logger zerolog.Logger
	config *config.Config
}

// New creates a new pipeline instance. A nil cfg uses config.Default().
func New(logger zerolog.Logger, cfg *config.Config) *Pipeline {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		config: cfg,
	}
}

type timedSection struct {
	composition.Section
	result timing.Result
}

func (p *Pipeline) calculate(doc *composition.Document) []timedSection {
	sections := doc.Sections()
	out := make([]timedSection, len(sections))
	for i, s := range sections {
		out[i] = timedSection{Section: s, result: timing.Calculate(s.TimingInput())}
	}
	return out
}

func (p *Pipeline) layout(sections []timedSection) (*timeline.Timeline, error) {
	cc := p.config.Composition

	items := make([]timeline.Item, 0, len(sections)+2)
	items = append(items, timeline.Item{Name: introName, Seconds: cc.IntroSeconds})
	for _, s := range sections {
		items = append(items, timeline.Item{Name: string(s.Key), Seconds: s.result.ActualDuration})
	}
	items = append(items, timeline.Item{Name: outroName, Seconds: cc.OutroSeconds})

	return timeline.Build(items, cc.FPS, cc.TransitionFrames)
}

// Timeline lays intro, sections and outro out on the frame grid without
// validating the rest of the document
func (p *Pipeline) Timeline(ctx context.Context, doc *composition.Document) (*timeline.Timeline, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", composition.ErrInvalidDocument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.layout(p.calculate(doc))
}

// Preview recomputes every section timing and the total length
func (p *Pipeline) Preview(ctx context.Context, doc *composition.Document) (*Preview, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", composition.ErrInvalidDocument)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sections := p.calculate(doc)
	tl, err := p.layout(sections)
	if err != nil {
		return nil, fmt.Errorf("build timeline: %w", err)
	}

	preview := &Preview{
		Sections:     make([]SectionTiming, len(sections)),
		TotalFrames:  tl.TotalFrames,
		TotalSeconds: tl.DurationSeconds(),
	}
	for i, s := range sections {
		preview.Sections[i] = SectionTiming{
			Key:     s.Key,
			Title:   s.Key.Title(),
			Timing:  s.result,
			Clamped: s.result.Clamped(),
		}
	}
	for _, w := range tl.Warnings {
		preview.Warnings = append(preview.Warnings, w.Message)
	}
	return preview, nil
}

// Plan validates doc, times every section, lays the timeline out and places
// video, narration and subtitle clips. Problems that still produce a
// renderable result are returned in Plan.Warnings.
func (p *Pipeline) Plan(ctx context.Context, doc *composition.Document) (*Plan, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", composition.ErrInvalidDocument)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cc := p.config.Composition
	p.logger.Info().
		Str("client", doc.Intro.ClientName).
		Int("fps", cc.FPS).
		Int("transition_frames", cc.TransitionFrames).
		Msg("planning composition")

	sections := p.calculate(doc)
	tl, err := p.layout(sections)
	if err != nil {
		return nil, fmt.Errorf("build timeline: %w", err)
	}

	plan := &Plan{
		FPS:              cc.FPS,
		Width:            cc.Width,
		Height:           cc.Height,
		TransitionFrames: cc.TransitionFrames,
		Timeline:         tl,
		Sections:         make([]SectionPlan, len(sections)),
		TotalFrames:      tl.TotalFrames,
	}

	intro := tl.Entries[0]
	plan.Video = append(plan.Video, Clip{
		Section:          introName,
		StartFrame:       intro.StartFrame,
		DurationInFrames: intro.DurationInFrames,
		Text:             strings.TrimSpace(doc.Intro.ClientName + " " + doc.Intro.ProjectLocationName),
	})

	for i, s := range sections {
		entry := tl.Entries[i+1]
		plan.Sections[i] = SectionPlan{
			Key:              s.Key,
			Title:            s.Key.Title(),
			Timing:           s.result,
			StartFrame:       entry.StartFrame,
			DurationInFrames: entry.DurationInFrames,
		}

		p.logger.Debug().
			Str("section", string(s.Key)).
			Float64("audio", s.result.AudioDuration).
			Float64("actual", s.result.ActualDuration).
			Int("start_frame", entry.StartFrame).
			Int("frames", entry.DurationInFrames).
			Msg("section placed")

		if s.result.Clamped() {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf(
				"%s: requested %.2fs is shorter than the %.2fs minimum, using %.2fs",
				s.Key, s.result.RequestedDuration, s.result.MinimumDuration, s.result.ActualDuration))
		}
		if entry.DurationInFrames == 0 {
			plan.Warnings = append(plan.Warnings, fmt.Sprintf("%s: section has zero length", s.Key))
			continue
		}

		plan.Video = append(plan.Video, Clip{
			Section:          string(s.Key),
			StartFrame:       entry.StartFrame,
			DurationInFrames: entry.DurationInFrames,
			Source:           s.MediaURL,
		})

		if !s.Audio.HasNarration() || s.Audio.DurationInSeconds <= 0 {
			continue
		}
		narration := Clip{
			Section:          string(s.Key),
			StartFrame:       entry.StartFrame + util.SecondsToFrames(s.result.StartPadding, cc.FPS),
			DurationInFrames: util.SecondsToFrames(s.Audio.DurationInSeconds, cc.FPS),
			Source:           s.Audio.AudioURL,
		}
		plan.Narration = append(plan.Narration, narration)

		if text := strings.TrimSpace(s.Audio.Transcript); text != "" {
			cue := narration
			cue.Source = ""
			cue.Text = text
			plan.Subtitles = append(plan.Subtitles, cue)
		}
	}

	outro := tl.Entries[len(tl.Entries)-1]
	plan.Video = append(plan.Video, Clip{
		Section:          outroName,
		StartFrame:       outro.StartFrame,
		DurationInFrames: outro.DurationInFrames,
	})

	for _, w := range tl.Warnings {
		plan.Warnings = append(plan.Warnings, w.Message)
	}
	for _, w := range plan.Warnings {
		p.logger.Warn().Msg(w)
	}

	p.logger.Info().
		Int("sections", len(plan.Sections)).
		Int("total_frames", plan.TotalFrames).
		Str("duration", util.FormatTimecode(plan.TotalFrames, cc.FPS)).
		Msg("plan complete")

	return plan, nil
}

// FillDurations measures narration files, and the approach road clip, that
// resolve to local paths and writes the lengths back into doc. Remote URLs
// and missing files are skipped. It returns the number of fields updated.
func (p *Pipeline) FillDurations(ctx context.Context, doc *composition.Document, prober DurationProber) (int, error) {
	if doc == nil {
		return 0, fmt.Errorf("%w: document is nil", composition.ErrInvalidDocument)
	}

	mediaDir := p.config.Probe.MediaDir
	updated := 0

	measure := func(label, ref string) (float64, bool, error) {
		path, ok := util.ResolveLocalPath(ref, mediaDir)
		if !ok {
			if ref != "" {
				p.logger.Debug().Str("section", label).Str("url", ref).Msg("skipping remote media")
			}
			return 0, false, nil
		}
		if !util.FileExists(path) {
			p.logger.Warn().Str("section", label).Str("path", path).Msg("media file not found")
			return 0, false, nil
		}
		if err := ctx.Err(); err != nil {
			return 0, false, err
		}
		seconds, err := prober.Duration(ctx, path)
		if err != nil {
			return 0, false, fmt.Errorf("probe %s media %s: %w", label, path, err)
		}
		return seconds, true, nil
	}

	for _, s := range doc.Sections() {
		audio := doc.Audio(s.Key)
		if audio == nil {
			continue
		}
		seconds, ok, err := measure(string(s.Key), audio.AudioURL)
		if err != nil {
			return updated, err
		}
		if !ok {
			continue
		}
		if audio.DurationInSeconds != seconds {
			p.logger.Info().
				Str("section", string(s.Key)).
				Float64("was", audio.DurationInSeconds).
				Float64("now", seconds).
				Msg("narration duration updated")
			audio.DurationInSeconds = seconds
			updated++
		}
	}

	if ar := doc.ApproachRoadSection; ar != nil {
		seconds, ok, err := measure(string(composition.KeyApproachRoad), ar.VideoURL)
		if err != nil {
			return updated, err
		}
		if ok && ar.VideoDurationInSeconds != seconds {
			ar.VideoDurationInSeconds = seconds
			updated++
		}
	}

	return updated, nil
}
