package media

import (
	"errors"
	"strings"
)

// ErrorKind is the category a failed media operation is reported under.
// Raw engine output never crosses the HTTP boundary; every failure is
// translated to one of these before it leaves the package.
type ErrorKind int

const (
	// KindInvalidInput is an empty or unsupported URL or a bad parameter.
	KindInvalidInput ErrorKind = iota
	// KindContentUnavailable is private, removed, or region-blocked content.
	KindContentUnavailable
	// KindExtractionFailed is any other upstream extraction failure.
	KindExtractionFailed
	// KindTranscodeUnavailable means ffmpeg is missing or postprocessing failed.
	KindTranscodeUnavailable
	// KindNoOutput means extraction reported success but no file matched the
	// expected extension.
	KindNoOutput
	// KindInternal is any unexpected failure.
	KindInternal
)

// Error is a classified media failure with a client-safe message.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// AsError extracts a classified *Error, falling back to KindInternal.
func AsError(err error) *Error {
	var me *Error
	if errors.As(err, &me) {
		return me
	}
	return newError(KindInternal, "An unexpected error occurred during download. Please try again.")
}

// classifyEngineError maps the engine's string-typed failure onto the error
// taxonomy by keyword inspection. The coupling to yt-dlp's message format is
// deliberately confined to this one function; anything unmatched falls back
// to the generic download failure rather than guessing a new category.
func classifyEngineError(err error) *Error {
	msg := err.Error()
	if i := strings.LastIndex(msg, "ERROR:"); i >= 0 {
		msg = strings.TrimSpace(msg[i+len("ERROR:"):])
	}
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "ffmpeg") || strings.Contains(lower, "postprocess"):
		return newError(KindTranscodeUnavailable,
			"FFmpeg is required for this format. Please ensure FFmpeg is installed.")
	case strings.Contains(lower, "private") || strings.Contains(lower, "available"):
		return newError(KindContentUnavailable,
			"Video is unavailable, private, or region-restricted.")
	default:
		return newError(KindExtractionFailed,
			"Unable to download video. Please check the URL and try again.")
	}
}
