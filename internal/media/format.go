package media

import "fmt"

// Format is the output container requested by the client.
type Format string

const (
	FormatMP4 Format = "mp4"
	FormatMP3 Format = "mp3"
	FormatM4A Format = "m4a"
)

// DefaultAudioBitrate is the MP3 transcode bitrate in kbps when the client
// does not ask for one.
const DefaultAudioBitrate = 192

// ParseFormat validates a client-supplied format token.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMP4, FormatMP3, FormatM4A:
		return Format(s), nil
	case "":
		return FormatMP4, nil
	}
	return "", fmt.Errorf("unknown media format %q", s)
}

// Ext returns the expected output file extension, without the dot.
func (f Format) Ext() string {
	return string(f)
}

// ContentType returns the MIME type served for this format.
func (f Format) ContentType() string {
	switch f {
	case FormatMP3:
		return "audio/mpeg"
	case FormatM4A:
		return "audio/mp4"
	default:
		return "video/mp4"
	}
}

// Audio reports whether the format is audio-only.
func (f Format) Audio() bool {
	return f == FormatMP3 || f == FormatM4A
}

// BuildFormatSelector builds a yt-dlp format selector respecting an optional
// max height (0 means unconstrained).
//
// Progressive formats are single-file MP4s that need no video/audio merge,
// which skips the ffmpeg mux step entirely. When preferProgressive is false
// the selector always asks for split streams, trading speed for flexibility.
func BuildFormatSelector(maxHeight int, preferProgressive bool) string {
	if preferProgressive {
		if maxHeight > 0 {
			return fmt.Sprintf("best[height<=%d][ext=mp4]/bestvideo[height<=%d]+bestaudio/best[height<=%d]/best",
				maxHeight, maxHeight, maxHeight)
		}
		return "best[ext=mp4]/bestvideo+bestaudio/best"
	}
	if maxHeight > 0 {
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]/best", maxHeight, maxHeight)
	}
	return "bestvideo+bestaudio/best"
}

// audioSelector is the selector used for both audio formats: a native m4a
// stream when available, anything decodable otherwise.
const audioSelector = "bestaudio[ext=m4a]/bestaudio/best"
