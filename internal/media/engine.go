package media

import "context"

// FetchRequest describes one download to run against the extraction engine.
type FetchRequest struct {
	URL          string
	Format       Format
	MaxHeight    int // 0 = unconstrained
	AudioBitrate int // kbps, 0 = DefaultAudioBitrate
}

// Snapshot is one progress observation emitted while a fetch runs.
type Snapshot struct {
	Status     string  `json:"status"` // downloading or processing
	Percentage int     `json:"percentage"`
	Downloaded int64   `json:"downloaded,omitempty"`
	Total      int64   `json:"total,omitempty"`
	Speed      float64 `json:"speed,omitempty"` // bytes per second
	ETA        int     `json:"eta,omitempty"`   // seconds
}

// Info is the subset of the engine's info dump the service cares about. The
// field names pin yt-dlp's JSON keys in one place.
type Info struct {
	Title          string          `json:"title"`
	Duration       float64         `json:"duration"`
	Thumbnail      string          `json:"thumbnail"`
	Thumbnails     []InfoThumbnail `json:"thumbnails"`
	Uploader       string          `json:"uploader"`
	WebpageURL     string          `json:"webpage_url"`
	URL            string          `json:"url"`
	Ext            string          `json:"ext"`
	Filesize       int64           `json:"filesize"`
	FilesizeApprox int64           `json:"filesize_approx"`
	Requested      []RequestedInfo `json:"requested_downloads"`
}

// InfoThumbnail is one entry of the info dump's thumbnail list.
type InfoThumbnail struct {
	URL string `json:"url"`
}

// RequestedInfo carries the resolved download URL when the top-level one is
// absent (split video+audio selections).
type RequestedInfo struct {
	URL string `json:"url"`
}

// BestThumbnail returns the preferred thumbnail URL, falling back to the
// last entry of the thumbnail list.
func (i *Info) BestThumbnail() string {
	if i.Thumbnail != "" {
		return i.Thumbnail
	}
	if n := len(i.Thumbnails); n > 0 {
		return i.Thumbnails[n-1].URL
	}
	return ""
}

// DirectDownloadURL returns the resolved upstream URL, or "" when the engine
// produced none.
func (i *Info) DirectDownloadURL() string {
	if i.URL != "" {
		return i.URL
	}
	if len(i.Requested) > 0 {
		return i.Requested[0].URL
	}
	return ""
}

// Engine is the boundary to the external extraction tool. Implementations
// block until the engine finishes; callers run them off the request path as
// needed. Tests substitute stubs.
type Engine interface {
	// Download runs a full fetch writing into outTemplate's directory,
	// forwarding progress into sink (which may be nil). Any returned error
	// carries the engine's raw text for classification.
	Download(ctx context.Context, req FetchRequest, outTemplate string, sink func(Snapshot)) error

	// ExtractInfo resolves metadata (and, with a non-empty selector, a direct
	// stream URL) without downloading anything.
	ExtractInfo(ctx context.Context, url, formatSelector string) (*Info, error)
}
