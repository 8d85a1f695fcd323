package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/incommon/internal/models"
	"github.com/desertthunder/incommon/internal/services"
	"github.com/desertthunder/incommon/internal/tasks"
)

// StreamHandler runs a comparison and streams its progress as server-sent events.
//
// Events are "progress" (a [tasks.ProgressUpdate]), then exactly one of "result" (the [models.ComparisonResult])
// or "error" (a generic message).
type StreamHandler struct {
	comparer tasks.Comparer
	logger   *log.Logger
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(comparer tasks.Comparer, logger *log.Logger) *StreamHandler {
	return &StreamHandler{comparer: comparer, logger: logger}
}

func (h *StreamHandler) Routes() []string  { return []string{"/compare/stream"} }
func (h *StreamHandler) Methods() []string { return []string{http.MethodGet} }

func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a, b, err := services.ParsePair(r.URL.Query().Get("a"), r.URL.Query().Get("b"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	type outcome struct {
		result *models.ComparisonResult
		err    error
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan outcome, 1)
	go func() {
		result, err := h.comparer.Compare(r.Context(), progress, a, b)
		close(progress)
		done <- outcome{result, err}
	}()

	for update := range progress {
		if err := writeEvent(w, "progress", update); err != nil {
			h.logger.Debug("stream client went away", "error", err)
		}
		flusher.Flush()
	}

	out := <-done
	if out.err != nil {
		h.logger.Error("comparison failed", "a", a, "b", b, "error", out.err)
		_ = writeEvent(w, "error", errorBody{Error: "comparison failed"})
	} else {
		_ = writeEvent(w, "result", out.result)
	}
	flusher.Flush()
}

func writeEvent(w io.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
