// Package composition models the warehouse showcase document as the editor
// persists it and turns it into per-section timing inputs.
package composition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrInvalidDocument    = errors.New("invalid composition document")
	ErrUnsupportedVersion = errors.New("unsupported composition schema version")
)

// AudioMeta is the narration attached to a section
type AudioMeta struct {
	AudioURL          string  `json:"audioUrl,omitempty"`
	DurationInSeconds float64 `json:"durationInSeconds"`
	Transcript        string  `json:"transcript"`
}

// HasNarration reports whether narration audio has been generated
func (a AudioMeta) HasNarration() bool {
	return strings.TrimSpace(a.AudioURL) != ""
}

type GeoLocation struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type NearbyPoint struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	DistanceKm float64 `json:"distanceKm"`
}

type Specs struct {
	ClearHeight    string `json:"clearHeight"`
	FlooringType   string `json:"flooringType"`
	HasVentilation bool   `json:"hasVentilation"`
	HasInsulation  bool   `json:"hasInsulation"`
	RackingType    string `json:"rackingType,omitempty"`
}

type Intro struct {
	ClientName          string `json:"clientName"`
	ProjectLocationName string `json:"projectLocationName"`
}

type SatDroneSection struct {
	Location                 GeoLocation `json:"location"`
	DroneVideoURL            string      `json:"droneVideoUrl,omitempty"`
	SatelliteImageURL        string      `json:"satelliteImageUrl,omitempty"`
	Audio                    AudioMeta   `json:"audio"`
	SectionDurationInSeconds *float64    `json:"sectionDurationInSeconds,omitempty"`
}

type LocationSection struct {
	NearbyPoints             []NearbyPoint `json:"nearbyPoints"`
	Audio                    AudioMeta     `json:"audio"`
	SectionDurationInSeconds *float64      `json:"sectionDurationInSeconds,omitempty"`
}

// ApproachRoadSection is optional. Its own video length extends the minimum
// on-screen time so the clip is never cut short.
type ApproachRoadSection struct {
	VideoURL                 string    `json:"videoUrl,omitempty"`
	ImageURL                 string    `json:"imageUrl,omitempty"`
	VideoDurationInSeconds   float64   `json:"videoDurationInSeconds,omitempty"`
	Audio                    AudioMeta `json:"audio"`
	SectionDurationInSeconds *float64  `json:"sectionDurationInSeconds,omitempty"`
}

type InternalWideShotSection struct {
	VideoURL                 string    `json:"videoUrl"`
	ImageURL                 string    `json:"imageUrl,omitempty"`
	Specs                    Specs     `json:"specs"`
	Audio                    AudioMeta `json:"audio"`
	SectionDurationInSeconds *float64  `json:"sectionDurationInSeconds,omitempty"`
}

type InternalDockSection struct {
	VideoURL                 string    `json:"videoUrl"`
	ImageURL                 string    `json:"imageUrl,omitempty"`
	Audio                    AudioMeta `json:"audio"`
	SectionDurationInSeconds *float64  `json:"sectionDurationInSeconds,omitempty"`
}

type InternalUtilitiesSection struct {
	VideoURL                 string    `json:"videoUrl"`
	ImageURL                 string    `json:"imageUrl,omitempty"`
	FeaturesPresent          []string  `json:"featuresPresent"`
	Audio                    AudioMeta `json:"audio"`
	SectionDurationInSeconds *float64  `json:"sectionDurationInSeconds,omitempty"`
}

type DockingSection struct {
	DockPanVideoURL          string    `json:"dockPanVideoUrl"`
	ImageURL                 string    `json:"imageUrl,omitempty"`
	DockCount                int       `json:"dockCount,omitempty"`
	Audio                    AudioMeta `json:"audio"`
	SectionDurationInSeconds *float64  `json:"sectionDurationInSeconds,omitempty"`
}

type ComplianceSection struct {
	FireSafetyVideoURL       string    `json:"fireSafetyVideoUrl"`
	ImageURL                 string    `json:"imageUrl,omitempty"`
	SafetyFeatures           []string  `json:"safetyFeatures"`
	Audio                    AudioMeta `json:"audio"`
	SectionDurationInSeconds *float64  `json:"sectionDurationInSeconds,omitempty"`
}

// Document is the full composition in the current schema version
type Document struct {
	SchemaVersion            int                      `json:"schemaVersion"`
	Intro                    Intro                    `json:"intro"`
	SatDroneSection          SatDroneSection          `json:"satDroneSection"`
	LocationSection          LocationSection          `json:"locationSection"`
	ApproachRoadSection      *ApproachRoadSection     `json:"approachRoadSection,omitempty"`
	InternalWideShotSection  InternalWideShotSection  `json:"internalWideShotSection"`
	InternalDockSection      InternalDockSection      `json:"internalDockSection"`
	InternalUtilitiesSection InternalUtilitiesSection `json:"internalUtilitiesSection"`
	DockingSection           DockingSection           `json:"dockingSection"`
	ComplianceSection        ComplianceSection        `json:"complianceSection"`
}

// Decode reads a document in any known schema version, migrates it to the
// current version and returns the names of the migrations that ran.
func Decode(r io.Reader) (*Document, []string, error) {
	var raw map[string]any
	dec := json.NewDecoder(r)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, nil, fmt.Errorf("decode composition: %w", err)
	}
	if raw == nil {
		return nil, nil, fmt.Errorf("%w: document is empty", ErrInvalidDocument)
	}

	migrated, applied, err := Migrate(raw)
	if err != nil {
		return nil, nil, err
	}

	// Re-encode the migrated tree so struct decoding handles field mapping
	buf, err := json.Marshal(migrated)
	if err != nil {
		return nil, nil, fmt.Errorf("re-encode migrated composition: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(buf, &doc); err != nil {
		return nil, nil, fmt.Errorf("decode migrated composition: %w", err)
	}
	return &doc, applied, nil
}

// Encode writes doc as indented JSON
func Encode(w io.Writer, doc *Document) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Validate checks the data invariants the timing engine relies on
func (d *Document) Validate() error {
	var problems []string

	if strings.TrimSpace(d.Intro.ClientName) == "" {
		problems = append(problems, "intro.clientName is required")
	}

	for _, s := range d.Sections() {
		a := s.Audio
		if a.DurationInSeconds < 0 {
			problems = append(problems, fmt.Sprintf("%s.audio.durationInSeconds is negative (%v)", s.Key, a.DurationInSeconds))
		}
		if a.HasNarration() && a.DurationInSeconds <= 0 {
			problems = append(problems, fmt.Sprintf("%s.audio.durationInSeconds must be positive when audioUrl is set", s.Key))
		}
		if s.ExtendMinimumSeconds < 0 {
			problems = append(problems, fmt.Sprintf("%s.videoDurationInSeconds is negative (%v)", s.Key, s.ExtendMinimumSeconds))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(problems, "; "))
	}
	return nil
}
