package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
)

// StreamChunkSize is the relay buffer size for the audio streaming path.
const StreamChunkSize = 64 * 1024

// engineBinary is the external tool spawned for stdout streaming.
const engineBinary = "yt-dlp"

// AudioStream is a live audio download being relayed from the extraction
// tool's stdout. There is no Content-Length and no way to retry mid-stream;
// a non-zero exit after bytes have flowed surfaces as a truncated response.
type AudioStream struct {
	// Filename is the suggested download filename, already sanitized.
	Filename string

	cmd    *exec.Cmd
	stdout io.ReadCloser
	stderr bytes.Buffer
}

func (s *AudioStream) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

// Wait reaps the subprocess after the relay drained stdout. A non-zero exit
// is reported with a truncated slice of the tool's stderr.
func (s *AudioStream) Wait() error {
	if err := s.cmd.Wait(); err != nil {
		msg := s.stderr.String()
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return fmt.Errorf("stream download failed: %s", msg)
	}
	return nil
}

// Close kills the subprocess. Used on early abort; after a clean Wait it is
// a no-op.
func (s *AudioStream) Close() error {
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
	}
	s.cmd.Wait()
	return s.stdout.Close()
}

// OpenAudioStream spawns the extraction tool writing its best m4a audio
// stream to stdout and returns a reader over it. The caller must either
// drain to EOF and call Wait, or Close to abort. If the tool binary cannot
// be located the caller should fall back to the non-streaming path.
func (f *Fetcher) OpenAudioStream(ctx context.Context, url string) (*AudioStream, error) {
	if !IsSupportedURL(url) {
		return nil, newError(KindInvalidInput, "Invalid or unsupported video URL.")
	}

	if _, err := exec.LookPath(engineBinary); err != nil {
		return nil, newError(KindInternal, "Streaming tool not available. Please use standard download.")
	}

	// Probe first so the response can carry a real filename.
	if err := f.limiter.Acquire(ctx, 1); err != nil {
		return nil, newError(KindInternal, "Request was cancelled.")
	}
	info, err := f.engine.ExtractInfo(ctx, url, audioSelector)
	f.limiter.Release(1)
	if err != nil {
		me := classifyEngineError(err)
		if me.Kind == KindExtractionFailed {
			me.Message = "Unable to extract audio. Please check the URL."
		}
		return nil, me
	}

	cmd := exec.CommandContext(ctx, engineBinary,
		"-f", audioSelector,
		"-o", "-",
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		url,
	)

	stream := &AudioStream{
		Filename: SanitizeFilename(info.Title, "audio") + ".m4a",
		cmd:      cmd,
	}
	cmd.Stderr = &stream.stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, newError(KindInternal, "Audio preparation failed.")
	}
	stream.stdout = stdout

	if err := cmd.Start(); err != nil {
		return nil, newError(KindInternal, "Audio preparation failed.")
	}
	return stream, nil
}
