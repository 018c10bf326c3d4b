package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"catalogsync/internal/logger"
)

type LogHandler struct {
	buffer       *logger.Buffer
	pollInterval time.Duration
}

func NewLogHandler(buffer *logger.Buffer, pollInterval time.Duration) *LogHandler {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &LogHandler{
		buffer:       buffer,
		pollInterval: pollInterval,
	}
}

func (h *LogHandler) Page(c *gin.Context) {
	c.HTML(http.StatusOK, "logs.html", nil)
}

// Stream replays the captured lines as server-sent events, then polls for
// new ones until the client goes away.
func (h *LogHandler) Stream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	var last uint64
	send := func() {
		for _, entry := range h.buffer.Since(last) {
			c.SSEvent("message", entry.Line)
			last = entry.Seq
		}
		c.Writer.Flush()
	}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	send()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-ticker.C:
			send()
		}
	}
}
