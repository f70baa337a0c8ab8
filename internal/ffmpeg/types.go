package ffmpeg

import "time"

// MediaInfo contains metadata about an audio or video file
type MediaInfo struct {
	FilePath     string        `json:"filePath" yaml:"file_path"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	Width        int           `json:"width,omitempty" yaml:"width,omitempty"`
	Height       int           `json:"height,omitempty" yaml:"height,omitempty"`
	FPS          float64       `json:"fps,omitempty" yaml:"fps,omitempty"`
	Bitrate      int64         `json:"bitrate,omitempty" yaml:"bitrate,omitempty"`
	HasVideo     bool          `json:"hasVideo" yaml:"has_video"`
	VideoCodec   string        `json:"videoCodec,omitempty" yaml:"video_codec,omitempty"`
	HasAudio     bool          `json:"hasAudio" yaml:"has_audio"`
	AudioCodec   string        `json:"audioCodec,omitempty" yaml:"audio_codec,omitempty"`
	AudioBitrate int64         `json:"audioBitrate,omitempty" yaml:"audio_bitrate,omitempty"`
}

// Seconds is the media duration in seconds
func (m *MediaInfo) Seconds() float64 {
	return m.Duration.Seconds()
}

// DefaultTimeout bounds a single ffprobe run when none is configured
const DefaultTimeout = 10 * time.Second
