package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/ForgottenHistory/Debate-Corner/internal/stream"
)

// handleDebateStream relays one debater turn as server-sent events. Each
// event carries a JSON-encoded text fragment; the stream ends by closing
// the connection, without a terminal marker. An upstream failure after the
// first event aborts the connection.
func (h *Handler) handleDebateStream(w http.ResponseWriter, r *http.Request) {
	var req turnRequest
	if !h.decode(w, r, &req) {
		return
	}

	if _, ok := w.(http.Flusher); !ok {
		h.jsonError(w, http.StatusInternalServerError, "Failed to stream debate response", "streaming not supported")
		return
	}

	t, body, err := h.debates.StreamTurn(r.Context(), req.generation())
	if err != nil {
		h.fail(w, "Failed to stream debate response", err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	count, _, err := stream.Relay(t, w)
	if err != nil {
		if r.Context().Err() != nil {
			slog.Debug("Debate stream cancelled by client",
				"position", req.Position,
				"fragments", count,
				"request_id", middleware.GetReqID(r.Context()),
			)
			return
		}
		slog.Error("Debate stream interrupted",
			"position", req.Position,
			"fragments", count,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		// Headers are sent; drop the connection without the final chunk.
		panic(http.ErrAbortHandler)
	}

	slog.Debug("Debate stream completed", "position", req.Position, "fragments", count)
}
