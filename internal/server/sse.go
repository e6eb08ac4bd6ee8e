package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/videosnatcherz/snatcher/internal/progress"
)

// handleProgress streams download progress as Server-Sent Events. One event
// is emitted per perceived state change: connected, then downloading events
// whenever the percentage moved, then complete or timeout, both terminal.
// The empty-tick budget bounds consecutive polls with no record present; it
// resets whenever a record is found, so it is a horizon on absence, not on
// the transfer itself.
func (s *Server) handleProgress(c *gin.Context) {
	id := c.Param("download_id")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	emit := func(v interface{}) {
		sse.Encode(c.Writer, sse.Event{Data: v})
		c.Writer.Flush()
	}

	emit(gin.H{"status": "connected"})

	ticker := time.NewTicker(s.progressTick)
	defer ticker.Stop()

	ctx := c.Request.Context()
	lastPercentage := -1
	emptyTicks := 0

	for emptyTicks < s.maxEmptyTicks {
		select {
		case <-ctx.Done():
			// Client disconnected; the download itself keeps running.
			return
		case <-ticker.C:
		}

		rec, ok := s.tracker.Get(id)
		if !ok {
			emptyTicks++
			continue
		}
		emptyTicks = 0

		if rec.Status == progress.StatusComplete {
			emit(progress.Record{Status: progress.StatusComplete, Percentage: 100})
			return
		}
		if rec.Percentage != lastPercentage {
			emit(rec)
			lastPercentage = rec.Percentage
		}
	}

	emit(gin.H{"status": progress.StatusTimeout})
}
