package media

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/lrstanley/go-ytdlp"
)

// progressInterval is how often the engine reports download progress.
const progressInterval = 500 * time.Millisecond

// YtdlpEngine drives the yt-dlp binary through go-ytdlp.
type YtdlpEngine struct{}

// NewYtdlpEngine returns the production Engine.
func NewYtdlpEngine() *YtdlpEngine {
	return &YtdlpEngine{}
}

// Download implements Engine.
func (e *YtdlpEngine) Download(ctx context.Context, req FetchRequest, outTemplate string, sink func(Snapshot)) error {
	dl := ytdlp.New().
		Output(outTemplate).
		NoPlaylist().
		RestrictFilenames().
		WindowsFilenames().
		Quiet().
		NoWarnings()

	switch req.Format {
	case FormatMP3:
		bitrate := req.AudioBitrate
		if bitrate <= 0 {
			bitrate = DefaultAudioBitrate
		}
		dl = dl.Format(audioSelector).
			ExtractAudio().
			AudioFormat("mp3").
			AudioQuality(strconv.Itoa(bitrate) + "K")
	case FormatM4A:
		// Native m4a needs no postprocessing, fastest path.
		dl = dl.Format(audioSelector)
	default:
		dl = dl.Format(BuildFormatSelector(req.MaxHeight, true)).
			MergeOutputFormat("mp4")
	}

	if sink != nil {
		dl = dl.ProgressFunc(progressInterval, func(p ytdlp.ProgressUpdate) {
			if snap, ok := snapshotFromUpdate(p); ok {
				sink(snap)
			}
		})
	}

	_, err := dl.Run(ctx, req.URL)
	return err
}

// ExtractInfo implements Engine. The info dump is parsed into our own Info
// struct so the rest of the service never touches yt-dlp's JSON shape.
func (e *YtdlpEngine) ExtractInfo(ctx context.Context, url, formatSelector string) (*Info, error) {
	dl := ytdlp.New().
		SkipDownload().
		NoPlaylist().
		RestrictFilenames().
		WindowsFilenames().
		Quiet().
		NoWarnings().
		PrintJSON()

	if formatSelector != "" {
		dl = dl.Format(formatSelector)
	}

	res, err := dl.Run(ctx, url)
	if err != nil {
		return nil, err
	}

	info := &Info{}
	if err := json.Unmarshal([]byte(res.Stdout), info); err != nil {
		return nil, fmt.Errorf("parsing engine info dump: %w", err)
	}
	return info, nil
}

// snapshotFromUpdate converts a yt-dlp progress update into a Snapshot.
// Intermediate states the tracker does not care about are dropped.
func snapshotFromUpdate(p ytdlp.ProgressUpdate) (Snapshot, bool) {
	switch p.Status {
	case ytdlp.ProgressStatusDownloading:
		snap := Snapshot{
			Status:     "downloading",
			Downloaded: int64(p.DownloadedBytes),
			Total:      int64(p.TotalBytes),
		}
		if p.TotalBytes > 0 {
			snap.Percentage = int(float64(p.DownloadedBytes) / float64(p.TotalBytes) * 100)
			elapsed := time.Since(p.Started).Seconds()
			if elapsed > 0 {
				snap.Speed = float64(p.DownloadedBytes) / elapsed
				if snap.Speed > 0 {
					snap.ETA = int(float64(p.TotalBytes-p.DownloadedBytes) / snap.Speed)
				}
			}
		}
		return snap, true
	case ytdlp.ProgressStatusPostProcessing, ytdlp.ProgressStatusFinished:
		// Bytes have arrived; muxing or transcoding may still be running.
		return Snapshot{Status: "processing", Percentage: 100}, true
	default:
		return Snapshot{}, false
	}
}
