package dashboard

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/PenHsuanWang/file-data-fetcher/internal/monitor"
)

// Handler bridges monitor task events to the WebSocket server. It
// implements monitor.Observer, formats each lifecycle transition as a
// dashboard message, and keeps running ingestion statistics.
type Handler struct {
	server *Server
	logger *log.Logger

	mu    sync.Mutex
	stats StatsData
}

// NewHandler creates a new event handler connected to a dashboard server
func NewHandler(server *Server, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.Default()
	}

	return &Handler{
		server: server,
		logger: logger,
	}
}

// OnTaskEvent receives a task lifecycle event from the monitor and
// broadcasts it, followed by refreshed statistics when the task reached a
// terminal state.
func (h *Handler) OnTaskEvent(ev monitor.TaskEvent) {
	data := TaskEventData{
		TaskID:      ev.TaskID,
		Path:        ev.Path,
		State:       ev.State.String(),
		Fingerprint: ev.Fingerprint,
		Records:     ev.Records,
	}
	if ev.Reason != monitor.ReasonNone {
		data.Reason = ev.Reason.String()
	}
	if ev.Err != nil {
		data.Error = ev.Err.Error()
	}

	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Printf("Failed to marshal task event: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeTaskEvent,
		Timestamp: ev.Time,
		Data:      dataJSON,
	})

	if terminal := h.updateStats(ev); terminal {
		h.broadcastStats()
	}
}

// updateStats folds the event into the running counters and reports
// whether the event was terminal.
func (h *Handler) updateStats(ev monitor.TaskEvent) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch ev.State {
	case monitor.StateDetected:
		h.stats.Detected++
		h.stats.InFlight++
		return false
	case monitor.StateDone:
		h.stats.Done++
		h.stats.Records += ev.Records
	case monitor.StateSkipped:
		h.stats.Skipped++
	case monitor.StateFailed:
		h.stats.Failed++
	default:
		return false
	}
	if h.stats.InFlight > 0 {
		h.stats.InFlight--
	}
	return true
}

// broadcastStats sends current statistics to all clients
func (h *Handler) broadcastStats() {
	h.mu.Lock()
	snapshot := h.stats
	h.mu.Unlock()

	dataJSON, err := json.Marshal(snapshot)
	if err != nil {
		h.logger.Printf("Failed to marshal stats: %v", err)
		return
	}

	h.server.Broadcast(Message{
		Type:      MessageTypeStats,
		Timestamp: time.Now(),
		Data:      dataJSON,
	})
}

// Stats returns a copy of the current statistics
func (h *Handler) Stats() StatsData {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}
