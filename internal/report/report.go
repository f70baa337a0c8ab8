// Package report renders command results as json, yaml or terminal tables.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/keagan/showcase/internal/pipeline"
	"github.com/keagan/showcase/internal/timeline"
	"github.com/keagan/showcase/internal/timing"
	"github.com/keagan/showcase/pkg/util"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

var ErrUnknownFormat = errors.New("unknown output format")

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// Write renders v to w in the given format. Text output has table layouts
// for plans, previews and timelines and falls back to yaml for anything else.
func Write(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return writeText(w, v)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func writeText(w io.Writer, v any) error {
	var out string
	switch r := v.(type) {
	case *pipeline.Preview:
		out = previewText(r)
	case *pipeline.Plan:
		out = planText(r)
	case *timeline.Timeline:
		out = timelineText(r)
	default:
		return Write(w, FormatYAML, v)
	}
	_, err := io.WriteString(w, out)
	return err
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func previewText(p *pipeline.Preview) string {
	t := newTable("Section", "Audio", "Minimum", "Actual", "Start pad", "End pad", "")
	for _, s := range p.Sections {
		note := ""
		if s.Clamped {
			note = fmt.Sprintf("clamped from %s", secs(s.Timing.RequestedDuration))
		}
		t.Row(append([]string{s.Title}, append(timingCells(s.Timing), note)...)...)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Sections") + "\n")
	b.WriteString(t.Render() + "\n")
	fmt.Fprintf(&b, "Total: %d frames (%s)\n", p.TotalFrames, secs(p.TotalSeconds))
	for _, w := range p.Warnings {
		b.WriteString(warnStyle.Render("warning: "+w) + "\n")
	}
	return b.String()
}

func timingCells(r timing.Result) []string {
	return []string{
		secs(r.AudioDuration),
		secs(r.MinimumDuration),
		secs(r.ActualDuration),
		secs(r.StartPadding),
		secs(r.EndPadding),
	}
}

func timelineText(tl *timeline.Timeline) string {
	t := newTable("#", "Name", "Start", "Frames", "End", "Timecode")
	for i, e := range tl.Entries {
		t.Row(
			strconv.Itoa(i),
			e.Name,
			strconv.Itoa(e.StartFrame),
			strconv.Itoa(e.DurationInFrames),
			strconv.Itoa(e.EndFrame()),
			util.FormatTimecode(e.StartFrame, tl.FPS),
		)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("Timeline @ %d fps, %d frame transitions", tl.FPS, tl.TransitionFrames)))
	b.WriteString(t.Render() + "\n")
	fmt.Fprintf(&b, "Total: %d frames (%s)\n", tl.TotalFrames, util.FormatTimecode(tl.TotalFrames, tl.FPS))
	for _, w := range tl.Warnings {
		b.WriteString(warnStyle.Render("warning: "+w.Message) + "\n")
	}
	return b.String()
}

func planText(p *pipeline.Plan) string {
	narration := make(map[string]pipeline.Clip, len(p.Narration))
	for _, c := range p.Narration {
		narration[c.Section] = c
	}

	t := newTable("Section", "Start", "Frames", "Actual", "Narration", "Media")
	for _, s := range p.Sections {
		voice := "-"
		if c, ok := narration[string(s.Key)]; ok {
			voice = fmt.Sprintf("%d-%d", c.StartFrame, c.EndFrame())
		}
		media := "-"
		for _, v := range p.Video {
			if v.Section == string(s.Key) && v.Source != "" {
				media = v.Source
			}
		}
		t.Row(
			s.Title,
			strconv.Itoa(s.StartFrame),
			strconv.Itoa(s.DurationInFrames),
			secs(s.Timing.ActualDuration),
			voice,
			media,
		)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", titleStyle.Render(fmt.Sprintf("Plan %dx%d @ %d fps", p.Width, p.Height, p.FPS)))
	b.WriteString(t.Render() + "\n")
	fmt.Fprintf(&b, "Tracks: %d video, %d narration, %d subtitle clips\n", len(p.Video), len(p.Narration), len(p.Subtitles))
	fmt.Fprintf(&b, "Total: %d frames (%s)\n", p.TotalFrames, util.FormatTimecode(p.TotalFrames, p.FPS))
	for _, w := range p.Warnings {
		b.WriteString(warnStyle.Render("warning: "+w) + "\n")
	}
	return b.String()
}

func secs(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "s"
}
