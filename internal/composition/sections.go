package composition

import "github.com/keagan/showcase/internal/timing"

// SectionKey names a content section the way the document keys it, minus the "Section" suffix
type SectionKey string

const (
	KeyIntro             SectionKey = "intro"
	KeySatDrone          SectionKey = "satDrone"
	KeyLocation          SectionKey = "location"
	KeyApproachRoad      SectionKey = "approachRoad"
	KeyInternalWideShot  SectionKey = "internalWideShot"
	KeyInternalDock      SectionKey = "internalDock"
	KeyInternalUtilities SectionKey = "internalUtilities"
	KeyDocking           SectionKey = "docking"
	KeyCompliance        SectionKey = "compliance"
	KeyOutro             SectionKey = "outro"
)

var titles = map[SectionKey]string{
	KeyIntro:             "Intro",
	KeySatDrone:          "Satellite & Drone",
	KeyLocation:          "Location Highlights",
	KeyApproachRoad:      "Approach Road",
	KeyInternalWideShot:  "Internal Wide Shot",
	KeyInternalDock:      "Internal Dock",
	KeyInternalUtilities: "Internal Utilities",
	KeyDocking:           "External Docking",
	KeyCompliance:        "Compliances",
	KeyOutro:             "Outro",
}

// Title is the human readable section name
func (k SectionKey) Title() string {
	if t, ok := titles[k]; ok {
		return t
	}
	return string(k)
}

// Section is a uniform view over the typed section records
type Section struct {
	Key                    SectionKey
	Audio                  AudioMeta
	UserSetDurationSeconds float64

	// ExtendMinimumSeconds is added to the narration length before timing
	ExtendMinimumSeconds float64
	MediaURL             string
}

// TimingInput derives the calculator input for the section
func (s Section) TimingInput() timing.Input {
	return timing.Input{
		AudioDurationSeconds:   s.Audio.DurationInSeconds + s.ExtendMinimumSeconds,
		UserSetDurationSeconds: s.UserSetDurationSeconds,
	}
}

// Sections returns the content sections in playback order. The approach road
// section is only included when the document has one.
func (d *Document) Sections() []Section {
	out := []Section{
		{
			Key:                    KeySatDrone,
			Audio:                  d.SatDroneSection.Audio,
			UserSetDurationSeconds: deref(d.SatDroneSection.SectionDurationInSeconds),
			MediaURL:               firstNonEmpty(d.SatDroneSection.DroneVideoURL, d.SatDroneSection.SatelliteImageURL),
		},
		{
			Key:                    KeyLocation,
			Audio:                  d.LocationSection.Audio,
			UserSetDurationSeconds: deref(d.LocationSection.SectionDurationInSeconds),
			MediaURL:               d.SatDroneSection.SatelliteImageURL,
		},
	}

	if ar := d.ApproachRoadSection; ar != nil {
		out = append(out, Section{
			Key:                    KeyApproachRoad,
			Audio:                  ar.Audio,
			UserSetDurationSeconds: deref(ar.SectionDurationInSeconds),
			ExtendMinimumSeconds:   ar.VideoDurationInSeconds,
			MediaURL:               firstNonEmpty(ar.VideoURL, ar.ImageURL),
		})
	}

	out = append(out,
		Section{
			Key:                    KeyInternalWideShot,
			Audio:                  d.InternalWideShotSection.Audio,
			UserSetDurationSeconds: deref(d.InternalWideShotSection.SectionDurationInSeconds),
			MediaURL:               firstNonEmpty(d.InternalWideShotSection.VideoURL, d.InternalWideShotSection.ImageURL),
		},
		Section{
			Key:                    KeyInternalDock,
			Audio:                  d.InternalDockSection.Audio,
			UserSetDurationSeconds: deref(d.InternalDockSection.SectionDurationInSeconds),
			MediaURL:               firstNonEmpty(d.InternalDockSection.VideoURL, d.InternalDockSection.ImageURL),
		},
		Section{
			Key:                    KeyInternalUtilities,
			Audio:                  d.InternalUtilitiesSection.Audio,
			UserSetDurationSeconds: deref(d.InternalUtilitiesSection.SectionDurationInSeconds),
			MediaURL:               firstNonEmpty(d.InternalUtilitiesSection.VideoURL, d.InternalUtilitiesSection.ImageURL),
		},
		Section{
			Key:                    KeyDocking,
			Audio:                  d.DockingSection.Audio,
			UserSetDurationSeconds: deref(d.DockingSection.SectionDurationInSeconds),
			MediaURL:               firstNonEmpty(d.DockingSection.DockPanVideoURL, d.DockingSection.ImageURL),
		},
		Section{
			Key:                    KeyCompliance,
			Audio:                  d.ComplianceSection.Audio,
			UserSetDurationSeconds: deref(d.ComplianceSection.SectionDurationInSeconds),
			MediaURL:               firstNonEmpty(d.ComplianceSection.FireSafetyVideoURL, d.ComplianceSection.ImageURL),
		},
	)

	return out
}

// Audio returns a pointer to the narration record of the given section so
// callers can update it in place. It returns nil for unknown or absent sections.
func (d *Document) Audio(key SectionKey) *AudioMeta {
	switch key {
	case KeySatDrone:
		return &d.SatDroneSection.Audio
	case KeyLocation:
		return &d.LocationSection.Audio
	case KeyApproachRoad:
		if d.ApproachRoadSection == nil {
			return nil
		}
		return &d.ApproachRoadSection.Audio
	case KeyInternalWideShot:
		return &d.InternalWideShotSection.Audio
	case KeyInternalDock:
		return &d.InternalDockSection.Audio
	case KeyInternalUtilities:
		return &d.InternalUtilitiesSection.Audio
	case KeyDocking:
		return &d.DockingSection.Audio
	case KeyCompliance:
		return &d.ComplianceSection.Audio
	}
	return nil
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
