package ffmpeg

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/keagan/showcase/pkg/util"
)

// ErrNoDuration is returned when ffprobe reports no usable duration
var ErrNoDuration = errors.New("media has no duration")

// ParseProbeOutput converts ffprobe JSON (-show_format -show_streams) into MediaInfo
func ParseProbeOutput(output []byte) (*MediaInfo, error) {
	var probe probeResult
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	info := &MediaInfo{}

	if dur, err := strconv.ParseFloat(probe.Format.Duration, 64); err == nil {
		info.Duration = seconds(dur)
	}

	if br, err := strconv.ParseInt(probe.Format.BitRate, 10, 64); err == nil {
		info.Bitrate = br
	}

	var longestStream float64
	for _, stream := range probe.Streams {
		switch stream.CodecType {
		case "video":
			// Cover art in audio files shows up as a single frame video stream
			if stream.Disposition.AttachedPic == 1 {
				continue
			}
			info.HasVideo = true
			info.Width = stream.Width
			info.Height = stream.Height
			info.VideoCodec = stream.CodecName
			if stream.RFrameRate != "" {
				info.FPS = util.ParseFrameRate(stream.RFrameRate)
			}
		case "audio":
			info.HasAudio = true
			info.AudioCodec = stream.CodecName
			if br, err := strconv.ParseInt(stream.BitRate, 10, 64); err == nil {
				info.AudioBitrate = br
			}
		default:
			continue
		}
		if d, err := strconv.ParseFloat(stream.Duration, 64); err == nil && d > longestStream {
			longestStream = d
		}
	}

	// Some containers only report duration per stream
	if info.Duration == 0 && longestStream > 0 {
		info.Duration = seconds(longestStream)
	}

	return info, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// probeResult matches ffprobe JSON output structure
type probeResult struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType   string `json:"codec_type"`
		CodecName   string `json:"codec_name"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		RFrameRate  string `json:"r_frame_rate"`
		BitRate     string `json:"bit_rate"`
		Duration    string `json:"duration"`
		Disposition struct {
			AttachedPic int `json:"attached_pic"`
		} `json:"disposition"`
	} `json:"streams"`
}
