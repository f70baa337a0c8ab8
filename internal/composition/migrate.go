package composition

import (
	"encoding/json"
	"fmt"
	"math"
)

// CurrentSchemaVersion is the shape Document decodes
const CurrentSchemaVersion = 3

// placeholderNarrationSeconds is the narration length given to sections that
// were created by a migration and have no narration yet
const placeholderNarrationSeconds = 5

type migration struct {
	from  int
	name  string
	apply func(raw map[string]any)
}

var migrations = []migration{
	{from: 1, name: "split-internal-section", apply: splitInternalSection},
	{from: 2, name: "lift-approach-road", apply: liftApproachRoad},
}

// Migrate upgrades a raw composition tree to CurrentSchemaVersion. The input
// is not modified. It returns the names of the migrations applied in order.
func Migrate(raw map[string]any) (map[string]any, []string, error) {
	out := cloneMap(raw)

	version, err := detectVersion(out)
	if err != nil {
		return nil, nil, err
	}

	var applied []string
	for _, m := range migrations {
		if m.from < version {
			continue
		}
		m.apply(out)
		applied = append(applied, m.name)
		version = m.from + 1
	}

	out["schemaVersion"] = CurrentSchemaVersion
	return out, applied, nil
}

func detectVersion(raw map[string]any) (int, error) {
	if v, ok := raw["schemaVersion"]; ok && v != nil {
		f, ok := number(v)
		if !ok || f != math.Trunc(f) {
			return 0, fmt.Errorf("%w: schemaVersion %v is not an integer", ErrUnsupportedVersion, v)
		}
		version := int(f)
		if version < 1 || version > CurrentSchemaVersion {
			return 0, fmt.Errorf("%w: %d (current is %d)", ErrUnsupportedVersion, version, CurrentSchemaVersion)
		}
		return version, nil
	}

	// Older documents carry no version; infer it from their shape
	if _, legacy := raw["internalSection"]; legacy {
		if _, split := raw["internalWideShotSection"]; !split {
			return 1, nil
		}
	}
	if loc := asMap(raw["locationSection"]); loc != nil {
		_, hasURL := loc["approachRoadVideoUrl"]
		_, hasDur := loc["approachRoadVideoDurationInSeconds"]
		if hasURL || hasDur {
			return 2, nil
		}
	}
	return CurrentSchemaVersion, nil
}

// splitInternalSection replaces the single internal storage section with the
// wide shot, dock and utilities sections.
func splitInternalSection(raw map[string]any) {
	old := asMap(raw["internalSection"])
	delete(raw, "internalSection")
	if old == nil {
		old = map[string]any{}
	}
	if _, exists := raw["internalWideShotSection"]; exists {
		return
	}

	specs := asMap(old["specs"])
	if specs == nil {
		specs = map[string]any{
			"clearHeight":    "",
			"flooringType":   "",
			"hasVentilation": false,
			"hasInsulation":  false,
		}
	}

	oldAudio := asMap(old["audio"])
	narration := number0(oldAudio["durationInSeconds"])
	if narration == 0 {
		narration = placeholderNarrationSeconds
	}

	raw["internalWideShotSection"] = map[string]any{
		"videoUrl": str(old["wideShotVideoUrl"]),
		"specs":    specs,
		"audio": map[string]any{
			"audioUrl":          str(oldAudio["audioUrl"]),
			"durationInSeconds": narration,
			"transcript":        str(oldAudio["transcript"]),
		},
	}
	raw["internalDockSection"] = map[string]any{
		"videoUrl": str(old["internalDockVideoUrl"]),
		"audio":    placeholderAudio(placeholderNarrationSeconds),
	}

	utilities := asMap(old["utilities"])
	features, _ := utilities["featuresPresent"].([]any)
	if features == nil {
		features = []any{}
	}
	raw["internalUtilitiesSection"] = map[string]any{
		"videoUrl":        str(utilities["videoUrl"]),
		"featuresPresent": features,
		"audio":           placeholderAudio(placeholderNarrationSeconds),
	}
}

// liftApproachRoad moves the approach road clip that used to hang off the
// location section into its own section.
func liftApproachRoad(raw map[string]any) {
	loc := asMap(raw["locationSection"])
	if loc == nil {
		return
	}

	videoURL := str(loc["approachRoadVideoUrl"])
	videoSeconds := number0(loc["approachRoadVideoDurationInSeconds"])
	delete(loc, "approachRoadVideoUrl")
	delete(loc, "approachRoadVideoDurationInSeconds")

	if _, exists := raw["approachRoadSection"]; exists {
		return
	}
	if videoURL == "" && videoSeconds <= 0 {
		return
	}

	section := map[string]any{
		"videoUrl": videoURL,
		"audio":    placeholderAudio(0),
	}
	if videoSeconds > 0 {
		section["videoDurationInSeconds"] = videoSeconds
	}
	raw["approachRoadSection"] = section
}

func placeholderAudio(seconds float64) map[string]any {
	return map[string]any{
		"audioUrl":          "",
		"durationInSeconds": seconds,
		"transcript":        "",
	}
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

func number0(v any) float64 {
	f, _ := number(v)
	return f
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneMap(t)
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	}
	return v
}
