package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keagan/showcase/internal/composition"
	"github.com/keagan/showcase/internal/config"
	"github.com/keagan/showcase/internal/timeline"
)

func seconds(v float64) *float64 { return &v }

func narration(url string, d float64, transcript string) composition.AudioMeta {
	return composition.AudioMeta{AudioURL: url, DurationInSeconds: d, Transcript: transcript}
}

// sampleDocument times out to 150,180,240,300,90,120,120,60,150 frames at 30fps
func sampleDocument() *composition.Document {
	return &composition.Document{
		SchemaVersion: composition.CurrentSchemaVersion,
		Intro:         composition.Intro{ClientName: "Acme", ProjectLocationName: "Pune"},
		SatDroneSection: composition.SatDroneSection{
			DroneVideoURL: "drone.mp4",
			Audio:         narration("sat.mp3", 5, "Aerial view"),
		},
		LocationSection: composition.LocationSection{
			SectionDurationInSeconds: seconds(8),
		},
		InternalWideShotSection: composition.InternalWideShotSection{
			VideoURL:                 "wide.mp4",
			Audio:                    narration("wide.mp3", 5, "Inside"),
			SectionDurationInSeconds: seconds(10),
		},
		InternalDockSection: composition.InternalDockSection{
			Audio: narration("", 2, ""),
		},
		InternalUtilitiesSection: composition.InternalUtilitiesSection{
			SectionDurationInSeconds: seconds(4),
		},
		DockingSection: composition.DockingSection{
			DockPanVideoURL: "pan.mp4",
			Audio:           narration("dock.mp3", 3, ""),
		},
		ComplianceSection: composition.ComplianceSection{
			Audio:                    narration("fire.mp3", 1, " "),
			SectionDurationInSeconds: seconds(2),
		},
	}
}

func newPipeline(cfg *config.Config) *Pipeline {
	return New(zerolog.Nop(), cfg)
}

func TestPlan(t *testing.T) {
	plan, err := newPipeline(nil).Plan(context.Background(), sampleDocument())
	require.NoError(t, err)

	assert.Equal(t, 30, plan.FPS)
	assert.Equal(t, 1920, plan.Width)
	assert.Equal(t, 1290, plan.TotalFrames)
	assert.Empty(t, plan.Warnings)

	var starts, frames []int
	for _, e := range plan.Timeline.Entries {
		starts = append(starts, e.StartFrame)
		frames = append(frames, e.DurationInFrames)
	}
	assert.Equal(t, []int{0, 135, 300, 525, 810, 885, 990, 1095, 1140}, starts)
	assert.Equal(t, []int{150, 180, 240, 300, 90, 120, 120, 60, 150}, frames)

	require.Len(t, plan.Sections, 7)
	wide := plan.Sections[2]
	assert.Equal(t, composition.KeyInternalWideShot, wide.Key)
	assert.Equal(t, "Internal Wide Shot", wide.Title)
	assert.Equal(t, 10.0, wide.Timing.ActualDuration)
	assert.Equal(t, 2.5, wide.Timing.StartPadding)
	assert.Equal(t, 525, wide.StartFrame)

	require.Len(t, plan.Video, 9)
	assert.Equal(t, Clip{Section: "intro", DurationInFrames: 150, Text: "Acme Pune"}, plan.Video[0])
	assert.Equal(t, Clip{Section: "satDrone", StartFrame: 135, DurationInFrames: 180, Source: "drone.mp4"}, plan.Video[1])
	assert.Equal(t, Clip{Section: "outro", StartFrame: 1140, DurationInFrames: 150}, plan.Video[8])

	assert.Equal(t, []Clip{
		{Section: "satDrone", StartFrame: 150, DurationInFrames: 150, Source: "sat.mp3"},
		{Section: "internalWideShot", StartFrame: 600, DurationInFrames: 150, Source: "wide.mp3"},
		{Section: "docking", StartFrame: 1005, DurationInFrames: 90, Source: "dock.mp3"},
		{Section: "compliance", StartFrame: 1110, DurationInFrames: 30, Source: "fire.mp3"},
	}, plan.Narration)

	assert.Equal(t, []Clip{
		{Section: "satDrone", StartFrame: 150, DurationInFrames: 150, Text: "Aerial view"},
		{Section: "internalWideShot", StartFrame: 600, DurationInFrames: 150, Text: "Inside"},
	}, plan.Subtitles)

	for _, n := range plan.Narration {
		var section SectionPlan
		for _, s := range plan.Sections {
			if string(s.Key) == n.Section {
				section = s
			}
		}
		assert.LessOrEqual(t, n.EndFrame(), section.StartFrame+section.DurationInFrames, n.Section)
	}
}

func TestPlanWarnings(t *testing.T) {
	doc := sampleDocument()
	doc.LocationSection.Audio = narration("loc.mp3", 5, "")
	doc.LocationSection.SectionDurationInSeconds = seconds(3)
	doc.InternalDockSection.Audio = composition.AudioMeta{}

	plan, err := newPipeline(nil).Plan(context.Background(), doc)
	require.NoError(t, err)

	assert.Contains(t, plan.Warnings, "location: requested 3.00s is shorter than the 6.00s minimum, using 6.00s")
	assert.Contains(t, plan.Warnings, "internalDock: section has zero length")
	assert.Len(t, plan.Warnings, 4, "clamp, zero length and both overlaps around the dock")

	for _, c := range plan.Video {
		assert.NotEqual(t, "internalDock", c.Section)
	}
}

func TestPlanIsIdempotent(t *testing.T) {
	p := newPipeline(nil)
	doc := sampleDocument()

	first, err := p.Plan(context.Background(), doc)
	require.NoError(t, err)
	second, err := p.Plan(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPlanApproachRoad(t *testing.T) {
	doc := sampleDocument()
	doc.ApproachRoadSection = &composition.ApproachRoadSection{
		VideoURL:               "road.mp4",
		VideoDurationInSeconds: 8,
	}

	plan, err := newPipeline(nil).Plan(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, plan.Sections, 8)
	road := plan.Sections[2]
	assert.Equal(t, composition.KeyApproachRoad, road.Key)
	assert.Equal(t, 9.0, road.Timing.ActualDuration)
	assert.Equal(t, 270, road.DurationInFrames)
	assert.Equal(t, 1290+270-15, plan.TotalFrames)
}

func TestPlanErrors(t *testing.T) {
	p := newPipeline(nil)

	_, err := p.Plan(context.Background(), nil)
	assert.ErrorIs(t, err, composition.ErrInvalidDocument)

	doc := sampleDocument()
	doc.Intro.ClientName = ""
	_, err = p.Plan(context.Background(), doc)
	assert.ErrorIs(t, err, composition.ErrInvalidDocument)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Plan(ctx, sampleDocument())
	assert.ErrorIs(t, err, context.Canceled)

	cfg := config.Default()
	cfg.Composition.TransitionFrames = -1
	_, err = newPipeline(cfg).Plan(context.Background(), sampleDocument())
	assert.ErrorIs(t, err, timeline.ErrInvalidInput)

	var invalid *timeline.InvalidInputError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "transitionFrames", invalid.Field)
}

func TestPreview(t *testing.T) {
	doc := sampleDocument()
	doc.LocationSection.Audio = narration("loc.mp3", 5, "")
	doc.LocationSection.SectionDurationInSeconds = seconds(3)

	preview, err := newPipeline(nil).Preview(context.Background(), doc)
	require.NoError(t, err)

	require.Len(t, preview.Sections, 7)
	assert.Equal(t, "Satellite & Drone", preview.Sections[0].Title)
	assert.Equal(t, 6.0, preview.Sections[0].Timing.ActualDuration)
	assert.False(t, preview.Sections[0].Clamped)
	assert.True(t, preview.Sections[1].Clamped)
	assert.Equal(t, 6.0, preview.Sections[1].Timing.ActualDuration)

	// location drops from 8s to 6s
	assert.Equal(t, 1290-60, preview.TotalFrames)
	assert.InDelta(t, 41.0, preview.TotalSeconds, 1e-9)
}

func TestPreviewWarnings(t *testing.T) {
	doc := sampleDocument()
	doc.InternalDockSection.Audio = composition.AudioMeta{}

	preview, err := newPipeline(nil).Preview(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, preview.Warnings, 2, "overlaps on both sides of the empty dock")
	for _, w := range preview.Warnings {
		assert.Contains(t, w, "internalDock")
	}

	preview, err = newPipeline(nil).Preview(context.Background(), sampleDocument())
	require.NoError(t, err)
	assert.Empty(t, preview.Warnings)
}

func TestPreviewMatchesPlan(t *testing.T) {
	p := newPipeline(nil)
	doc := sampleDocument()

	preview, err := p.Preview(context.Background(), doc)
	require.NoError(t, err)
	plan, err := p.Plan(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, plan.TotalFrames, preview.TotalFrames)
	for i := range plan.Sections {
		assert.Equal(t, plan.Sections[i].Timing, preview.Sections[i].Timing)
	}
}

func TestTimeline(t *testing.T) {
	tl, err := newPipeline(nil).Timeline(context.Background(), sampleDocument())
	require.NoError(t, err)

	require.Len(t, tl.Entries, 9)
	assert.Equal(t, "intro", tl.Entries[0].Name)
	assert.Equal(t, "outro", tl.Entries[8].Name)
	assert.Equal(t, 1290, tl.TotalFrames)
	assert.InDelta(t, 43.0, tl.DurationSeconds(), 1e-9)
}

func TestPreviewDoesNotValidate(t *testing.T) {
	doc := sampleDocument()
	doc.Intro.ClientName = ""

	_, err := newPipeline(nil).Preview(context.Background(), doc)
	assert.NoError(t, err)
}

type fakeProber struct {
	durations map[string]float64
	err       error
	calls     []string
}

func (f *fakeProber) Duration(_ context.Context, path string) (float64, error) {
	f.calls = append(f.calls, filepath.Base(path))
	if f.err != nil {
		return 0, f.err
	}
	return f.durations[filepath.Base(path)], nil
}

func mediaDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("x"), 0644))
	}
	return dir
}

func TestFillDurations(t *testing.T) {
	cfg := config.Default()
	cfg.Probe.MediaDir = mediaDir(t, "sat.mp3", "road.mp4", "wide.mp3")

	doc := sampleDocument()
	doc.InternalWideShotSection.Audio.AudioURL = "https://cdn.example.com/wide.mp3"
	doc.DockingSection.Audio.AudioURL = "missing.mp3"
	doc.ComplianceSection.Audio.AudioURL = ""
	doc.ApproachRoadSection = &composition.ApproachRoadSection{VideoURL: "road.mp4"}

	prober := &fakeProber{durations: map[string]float64{"sat.mp3": 4.5, "road.mp4": 12}}
	n, err := newPipeline(cfg).FillDurations(context.Background(), doc, prober)
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"sat.mp3", "road.mp4"}, prober.calls)
	assert.Equal(t, 4.5, doc.SatDroneSection.Audio.DurationInSeconds)
	assert.Equal(t, 12.0, doc.ApproachRoadSection.VideoDurationInSeconds)
	assert.Equal(t, 5.0, doc.InternalWideShotSection.Audio.DurationInSeconds)
	assert.Equal(t, 3.0, doc.DockingSection.Audio.DurationInSeconds)
}

func TestFillDurationsUnchanged(t *testing.T) {
	cfg := config.Default()
	cfg.Probe.MediaDir = mediaDir(t, "sat.mp3")

	doc := sampleDocument()
	prober := &fakeProber{durations: map[string]float64{"sat.mp3": 5}}
	n, err := newPipeline(cfg).FillDurations(context.Background(), doc, prober)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFillDurationsProbeError(t *testing.T) {
	cfg := config.Default()
	cfg.Probe.MediaDir = mediaDir(t, "sat.mp3")

	boom := errors.New("boom")
	_, err := newPipeline(cfg).FillDurations(context.Background(), sampleDocument(), &fakeProber{err: boom})
	assert.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "satDrone")
}
