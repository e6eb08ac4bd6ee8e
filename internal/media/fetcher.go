package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sync/semaphore"
)

// Scratch is the per-attempt temporary directory owning the produced output
// file until the response layer takes over. Exactly one response path is
// responsible for calling Remove.
type Scratch struct {
	Dir string
}

// Remove deletes the scratch directory recursively. The error is returned so
// callers can log a failed cleanup instead of silently swallowing it; a
// missing directory is not an error.
func (s *Scratch) Remove() error {
	if s == nil || s.Dir == "" {
		return nil
	}
	return os.RemoveAll(s.Dir)
}

// Metadata is the preview payload for /api/metadata.
type Metadata struct {
	Title      string  `json:"title"`
	Duration   float64 `json:"duration"`
	Thumbnail  string  `json:"thumbnail"`
	Uploader   string  `json:"uploader"`
	WebpageURL string  `json:"webpage_url"`
}

// DirectURL is a resolved upstream URL the client can download itself,
// skipping server-side storage entirely.
type DirectURL struct {
	URL      string
	Filename string
	Filesize int64
}

// Fetcher wraps the extraction engine: scratch directories, per-format
// engine configuration, progress forwarding, and failure classification.
// Engine invocations are bounded by a semaphore so a burst of requests
// cannot pile unbounded blocking work onto the process.
type Fetcher struct {
	engine  Engine
	limiter *semaphore.Weighted
}

// NewFetcher creates a Fetcher running at most maxConcurrent engine calls.
func NewFetcher(engine Engine, maxConcurrent int) *Fetcher {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}
	return &Fetcher{
		engine:  engine,
		limiter: semaphore.NewWeighted(int64(maxConcurrent)),
	}
}

// Fetch downloads one media item and returns the output file path together
// with the scratch directory the caller must remove after serving it. On any
// failure the scratch directory is already gone and the returned error is a
// classified *Error.
//
// Snapshots are pushed into sink (if non-nil) during the download; the
// channel is closed when the fetch finishes so drains can exit.
func (f *Fetcher) Fetch(ctx context.Context, req FetchRequest, sink chan<- Snapshot) (string, *Scratch, error) {
	if sink != nil {
		defer close(sink)
	}

	if !IsSupportedURL(req.URL) {
		return "", nil, newError(KindInvalidInput, "Invalid or unsupported video URL.")
	}

	dir, err := os.MkdirTemp("", "ytdl_")
	if err != nil {
		return "", nil, newError(KindInternal, "Could not allocate working space for the download.")
	}
	scratch := &Scratch{Dir: dir}
	outTemplate := filepath.Join(dir, "%(title)s.%(ext)s")

	var report func(Snapshot)
	if sink != nil {
		report = func(snap Snapshot) {
			select {
			case sink <- snap:
			case <-ctx.Done():
			}
		}
	}

	if err := f.limiter.Acquire(ctx, 1); err != nil {
		scratch.Remove()
		return "", nil, newError(KindInternal, "Download was cancelled.")
	}
	err = f.engine.Download(ctx, req, outTemplate, report)
	f.limiter.Release(1)
	if err != nil {
		scratch.Remove()
		return "", nil, classifyEngineError(err)
	}

	// Exactly one file with the requested extension must exist; zero matches
	// means the tool renamed or mislabeled its output.
	matches, err := filepath.Glob(filepath.Join(dir, "*."+req.Format.Ext()))
	if err != nil || len(matches) == 0 {
		scratch.Remove()
		return "", nil, newError(KindNoOutput, "No output file produced.")
	}

	return matches[0], scratch, nil
}

// Metadata extracts title/duration/thumbnail/uploader without downloading.
func (f *Fetcher) Metadata(ctx context.Context, url string) (*Metadata, error) {
	if !IsSupportedURL(url) {
		return nil, newError(KindInvalidInput, "Invalid or unsupported video URL.")
	}

	if err := f.limiter.Acquire(ctx, 1); err != nil {
		return nil, newError(KindInternal, "Request was cancelled.")
	}
	info, err := f.engine.ExtractInfo(ctx, url, "")
	f.limiter.Release(1)
	if err != nil {
		me := classifyEngineError(err)
		if me.Kind == KindExtractionFailed {
			me.Message = "Unable to fetch video information. Please check the URL."
		}
		return nil, me
	}

	return &Metadata{
		Title:      info.Title,
		Duration:   info.Duration,
		Thumbnail:  info.BestThumbnail(),
		Uploader:   info.Uploader,
		WebpageURL: info.WebpageURL,
	}, nil
}

// DirectURL resolves an upstream URL the client can hit directly. A nil
// result with nil error means no direct URL is available and the caller
// should fall back to the server-side download path; extraction failures are
// folded into that same signal on purpose.
func (f *Fetcher) DirectURL(ctx context.Context, url string, format Format, maxHeight int) (*DirectURL, error) {
	if !IsSupportedURL(url) {
		return nil, newError(KindInvalidInput, "Invalid or unsupported video URL.")
	}

	var selector string
	switch format {
	case FormatMP3:
		// MP3 needs a server-side transcode, never a direct URL.
		return nil, nil
	case FormatM4A:
		selector = audioSelector
	default:
		selector = BuildFormatSelector(maxHeight, true)
	}

	if err := f.limiter.Acquire(ctx, 1); err != nil {
		return nil, nil
	}
	info, err := f.engine.ExtractInfo(ctx, url, selector)
	f.limiter.Release(1)
	if err != nil {
		return nil, nil
	}

	direct := info.DirectDownloadURL()
	if direct == "" {
		return nil, nil
	}

	ext := string(format)
	if format == FormatMP4 && info.Ext != "" {
		ext = info.Ext
	}
	title := SanitizeFilename(info.Title, "download")

	size := info.Filesize
	if size == 0 {
		size = info.FilesizeApprox
	}

	return &DirectURL{
		URL:      direct,
		Filename: fmt.Sprintf("%s.%s", title, ext),
		Filesize: size,
	}, nil
}
