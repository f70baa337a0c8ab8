package util

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// SecondsToFrames converts seconds to a whole frame count, rounding half up.
func SecondsToFrames(seconds float64, fps int) int {
	return int(math.Floor(seconds*float64(fps) + 0.5))
}

// FramesToSeconds converts a frame count back to seconds
func FramesToSeconds(frames, fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return float64(frames) / float64(fps)
}

// FormatTimecode renders a frame position as HH:MM:SS:FF
func FormatTimecode(frames, fps int) string {
	if fps <= 0 {
		return "00:00:00:00"
	}

	sign := ""
	if frames < 0 {
		sign = "-"
		frames = -frames
	}

	ff := frames % fps
	totalSeconds := frames / fps
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	secs := totalSeconds % 60

	return fmt.Sprintf("%s%02d:%02d:%02d:%02d", sign, hours, minutes, secs, ff)
}

// FormatDuration converts time.Duration to ffmpeg timestamp format
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	hours := int(seconds / 3600)
	minutes := int((seconds - float64(hours*3600)) / 60)
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", hours, minutes, secs)
}

// ParseTimestamp parses a timestamp string (HH:MM:SS.mmm or SS.mmm or MM:SS)
func ParseTimestamp(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	parts := strings.Split(s, ":")
	if len(parts) == 0 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid timestamp format: %s", s)
	}

	// seconds, minutes, hours from the right
	var total float64
	multiplier := 1.0
	for i := len(parts) - 1; i >= 0; i-- {
		v, err := strconv.ParseFloat(parts[i], 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp format: %s", s)
		}
		total += v * multiplier
		multiplier *= 60
	}

	return time.Duration(total * float64(time.Second)), nil
}

// ParseFrameRate parses frame rate from ffprobe format (e.g., "30/1")
func ParseFrameRate(s string) float64 {
	parts := strings.Split(s, "/")
	if len(parts) != 2 {
		return 0
	}
	num, err1 := strconv.ParseFloat(parts[0], 64)
	den, err2 := strconv.ParseFloat(parts[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}
