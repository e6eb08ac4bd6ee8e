package server

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/videosnatcherz/snatcher/internal/mailer"
	"github.com/videosnatcherz/snatcher/internal/media"
	"github.com/videosnatcherz/snatcher/internal/progress"
)

// optionalPositiveInt parses an optional form field that must be a positive
// integer when present. Returns 0 for an absent field.
func optionalPositiveInt(c *gin.Context, field string) (int, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", field)
	}
	return n, nil
}

func (s *Server) handleDownload(c *gin.Context) {
	url := c.PostForm("url")
	if strings.TrimSpace(url) == "" {
		badRequest(c, "URL is required.")
		return
	}
	if !media.IsSupportedURL(url) {
		badRequest(c, "Invalid or unsupported video URL.")
		return
	}

	format, err := media.ParseFormat(c.DefaultPostForm("media_format", "mp4"))
	if err != nil {
		badRequest(c, "Format must be 'mp4', 'mp3', or 'm4a'.")
		return
	}

	maxHeight, err := optionalPositiveInt(c, "quality")
	if err != nil {
		badRequest(c, "Quality must be a positive integer.")
		return
	}
	audioBitrate, err := optionalPositiveInt(c, "audio_quality")
	if err != nil {
		badRequest(c, "Audio quality must be a positive integer.")
		return
	}

	// Client-supplied id lets the page open its progress stream before the
	// download request itself lands.
	id := c.PostForm("download_id")
	if id == "" {
		id = uuid.NewString()
	}

	s.tracker.Set(id, progress.Record{Status: progress.StatusInitializing, Percentage: 1})

	snapshots := make(chan media.Snapshot, 16)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for snap := range snapshots {
			s.tracker.Set(id, recordFromSnapshot(snap))
		}
	}()

	path, scratch, err := s.fetcher.Fetch(c.Request.Context(), media.FetchRequest{
		URL:          url,
		Format:       format,
		MaxHeight:    maxHeight,
		AudioBitrate: audioBitrate,
	}, snapshots)
	<-drained
	if err != nil {
		s.tracker.ExpireAfter(id, s.progressExpiry)
		apiError(c, err)
		return
	}

	s.tracker.Set(id, progress.Record{Status: progress.StatusComplete, Percentage: 100})
	s.tracker.ExpireAfter(id, s.progressExpiry)

	defer func() {
		if err := scratch.Remove(); err != nil {
			log.Printf("scratch cleanup failed for %s: %v", scratch.Dir, err)
		}
	}()

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	filename := media.SanitizeFilename(stem, "download") + "." + format.Ext()

	c.Header("X-Download-ID", id)
	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.File(path)
}

func recordFromSnapshot(snap media.Snapshot) progress.Record {
	return progress.Record{
		Status:     snap.Status,
		Percentage: snap.Percentage,
		Downloaded: snap.Downloaded,
		Total:      snap.Total,
		Speed:      snap.Speed,
		ETA:        snap.ETA,
	}
}

func (s *Server) handleStreamAudio(c *gin.Context) {
	url := c.PostForm("url")
	if strings.TrimSpace(url) == "" {
		badRequest(c, "URL is required.")
		return
	}
	if !media.IsSupportedURL(url) {
		badRequest(c, "Invalid or unsupported video URL.")
		return
	}

	format, err := media.ParseFormat(c.DefaultPostForm("media_format", "m4a"))
	if err != nil || !format.Audio() {
		badRequest(c, "Format must be 'mp3' or 'm4a' for audio streaming.")
		return
	}

	// MP3 needs an ffmpeg transcode and cannot be relayed from stdout.
	if format == media.FormatMP3 {
		c.JSON(http.StatusNotImplemented, Response{
			Code:    501,
			Data:    nil,
			Message: "Streaming not available for MP3. Using standard download.",
		})
		return
	}

	stream, err := s.fetcher.OpenAudioStream(c.Request.Context(), url)
	if err != nil {
		apiError(c, err)
		return
	}

	c.Header("Content-Type", format.ContentType())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, stream.Filename))
	c.Header("Cache-Control", "no-cache")
	c.Status(http.StatusOK)

	buf := make([]byte, media.StreamChunkSize)
	if _, err := io.CopyBuffer(c.Writer, stream, buf); err != nil {
		// Client gone or pipe broke mid-relay; kill the tool and bail.
		stream.Close()
		return
	}
	if err := stream.Wait(); err != nil {
		// Bytes already left; the truncated stream is the failure signal.
		log.Printf("audio stream for %s aborted: %v", url, err)
	}
}

func (s *Server) handleMetadata(c *gin.Context) {
	url := c.Query("url")
	if strings.TrimSpace(url) == "" {
		badRequest(c, "URL is required.")
		return
	}
	if !media.IsSupportedURL(url) {
		badRequest(c, "Invalid or unsupported video URL.")
		return
	}

	meta, err := s.fetcher.Metadata(c.Request.Context(), url)
	if err != nil {
		apiError(c, err)
		return
	}
	c.JSON(http.StatusOK, meta)
}

func (s *Server) handleGetDownloadURL(c *gin.Context) {
	url := c.PostForm("url")
	if strings.TrimSpace(url) == "" {
		badRequest(c, "URL is required.")
		return
	}
	if !media.IsSupportedURL(url) {
		badRequest(c, "Invalid or unsupported video URL.")
		return
	}

	format, err := media.ParseFormat(c.DefaultPostForm("media_format", "mp4"))
	if err != nil || format == media.FormatM4A {
		badRequest(c, "Format must be 'mp4' or 'mp3'.")
		return
	}

	maxHeight, err := optionalPositiveInt(c, "quality")
	if err != nil {
		badRequest(c, "Quality must be a positive integer.")
		return
	}

	direct, err := s.fetcher.DirectURL(c.Request.Context(), url, format, maxHeight)
	if err != nil {
		apiError(c, err)
		return
	}
	if direct == nil {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Direct download not available, using server download.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"directUrl": direct.URL,
		"filename":  direct.Filename,
		"filesize":  direct.Filesize,
	})
}

func (s *Server) handleContact(c *gin.Context) {
	sub := mailer.Submission{
		Name:    strings.TrimSpace(c.PostForm("name")),
		Email:   strings.TrimSpace(c.PostForm("email")),
		Subject: strings.TrimSpace(c.PostForm("subject")),
		Message: strings.TrimSpace(c.PostForm("message")),
	}
	if sub.Name == "" || sub.Email == "" || sub.Subject == "" || sub.Message == "" {
		badRequest(c, "All fields are required.")
		return
	}

	if err := s.mailer.Send(c.Request.Context(), sub); err != nil {
		if errors.Is(err, mailer.ErrNotConfigured) {
			c.JSON(http.StatusServiceUnavailable, Response{
				Code:    503,
				Data:    nil,
				Message: "Email service not configured. Please contact the administrator directly.",
			})
			return
		}
		log.Printf("contact mail delivery failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, Response{
			Code:    503,
			Data:    nil,
			Message: "Failed to send email. Please try again later or contact us directly.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Message sent successfully! We'll get back to you soon.",
	})
}
