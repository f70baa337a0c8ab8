// Package timeline lays sections out on an absolute frame grid.
//
// Consecutive items overlap by a fixed transition width so the renderer can
// cross-fade between them. The last item plays out in full.
package timeline

import (
	"fmt"
	"math"

	"github.com/keagan/showcase/pkg/util"
)

// maxItemFrames caps a single item so start frames and the total stay in int range
const maxItemFrames = math.MaxInt32

// Item is one fixed-length block of the timeline (intro, a section, outro)
type Item struct {
	Name    string
	Seconds float64
}

// Entry is the placement computed for an Item
type Entry struct {
	Name             string `json:"name" yaml:"name"`
	StartFrame       int    `json:"startFrame" yaml:"start_frame"`
	DurationInFrames int    `json:"durationInFrames" yaml:"duration_in_frames"`
}

// EndFrame is the first frame after the entry
func (e Entry) EndFrame() int {
	return e.StartFrame + e.DurationInFrames
}

// Warning flags an arithmetic result that is valid but will render badly
type Warning struct {
	Index   int    `json:"index" yaml:"index"`
	Message string `json:"message" yaml:"message"`
}

// Timeline is the output of Build
type Timeline struct {
	FPS              int       `json:"fps" yaml:"fps"`
	TransitionFrames int       `json:"transitionFrames" yaml:"transition_frames"`
	Entries          []Entry   `json:"entries" yaml:"entries"`
	TotalFrames      int       `json:"totalFrames" yaml:"total_frames"`
	Warnings         []Warning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Build places items back to back, each starting transitionFrames before the
// previous one ends. Overlaps wider than a neighbour are not clamped; they are
// reported in Timeline.Warnings.
func Build(items []Item, fps int, transitionFrames int) (*Timeline, error) {
	if fps <= 0 {
		return nil, invalid("fps", "must be positive, got %d", fps)
	}
	if len(items) == 0 {
		return nil, invalid("items", "timeline is empty")
	}
	if transitionFrames < 0 {
		return nil, invalid("transitionFrames", "must not be negative, got %d", transitionFrames)
	}

	frames := make([]int, len(items))
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if math.IsNaN(item.Seconds) || item.Seconds < 0 {
			return nil, invalid(field, "%q has negative duration %v", item.Name, item.Seconds)
		}
		if math.IsInf(item.Seconds, 0) || item.Seconds*float64(fps) > maxItemFrames {
			return nil, invalid(field, "%q duration %v is too long", item.Name, item.Seconds)
		}
		frames[i] = util.SecondsToFrames(item.Seconds, fps)
	}

	starts, total := Sequence(frames, transitionFrames)

	tl := &Timeline{
		FPS:              fps,
		TransitionFrames: transitionFrames,
		Entries:          make([]Entry, len(items)),
		TotalFrames:      total,
	}
	for i, item := range items {
		tl.Entries[i] = Entry{
			Name:             item.Name,
			StartFrame:       starts[i],
			DurationInFrames: frames[i],
		}
	}
	tl.Warnings = checkOverlaps(tl.Entries, transitionFrames)

	return tl, nil
}

// Sequence computes start frames for already-converted durations and the
// total length. It does no validation.
func Sequence(durations []int, transitionFrames int) ([]int, int) {
	if len(durations) == 0 {
		return nil, 0
	}

	starts := make([]int, len(durations))
	for i := 1; i < len(durations); i++ {
		starts[i] = starts[i-1] + durations[i-1] - transitionFrames
	}

	last := len(durations) - 1
	return starts, starts[last] + durations[last]
}

func checkOverlaps(entries []Entry, transitionFrames int) []Warning {
	if transitionFrames == 0 {
		return nil
	}

	var warnings []Warning
	for i := 0; i+1 < len(entries); i++ {
		a, b := entries[i], entries[i+1]
		shorter := a.DurationInFrames
		if b.DurationInFrames < shorter {
			shorter = b.DurationInFrames
		}
		if transitionFrames >= shorter {
			warnings = append(warnings, Warning{
				Index: i + 1,
				Message: fmt.Sprintf("transition of %d frames consumes %s (%d frames) / %s (%d frames)",
					transitionFrames, a.Name, a.DurationInFrames, b.Name, b.DurationInFrames),
			})
		}
	}
	for i, e := range entries {
		if e.StartFrame < 0 {
			warnings = append(warnings, Warning{
				Index:   i,
				Message: fmt.Sprintf("%s starts before frame 0 (%d)", e.Name, e.StartFrame),
			})
		}
	}
	return warnings
}

// Entry returns the entry with the given name
func (t *Timeline) Entry(name string) (Entry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// DurationSeconds is TotalFrames expressed in seconds
func (t *Timeline) DurationSeconds() float64 {
	return util.FramesToSeconds(t.TotalFrames, t.FPS)
}
