package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/BerylCAtieno/document-extractor/internal/models"
	"github.com/BerylCAtieno/document-extractor/internal/services"
	"github.com/BerylCAtieno/document-extractor/internal/utils"
)

const (
	maxChatBody  = 64 << 10
	doneSentinel = "[DONE]"
)

type ChatHandler struct {
	service services.ChatService
	logger  *utils.Logger
}

func NewChatHandler(service services.ChatService, logger *utils.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// Chat streams the answer as server-sent events. Errors before the first
// frame use the normal JSON envelope; after that they arrive as an error
// frame and the stream ends without the sentinel.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxChatBody)).Decode(&req); err != nil {
		respondError(w, h.logger, utils.NewBadRequestError("Invalid request body"))
		return
	}

	stream, err := h.service.Stream(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	defer stream.Close()

	rc := http.NewResponseController(w)
	// Streams may outlive the server write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		h.logger.Warn("Failed to clear write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	for {
		tok, err := stream.Next()
		if errors.Is(err, io.EOF) {
			h.writeEvent(w, rc, doneSentinel)
			return
		}
		if err != nil {
			_, message := errorStatus(err)
			h.writeFrame(w, rc, models.ChatFrame{Error: message})
			return
		}
		if tok == "" {
			continue
		}
		if !h.writeFrame(w, rc, models.ChatFrame{Content: tok}) {
			h.logger.Info("Chat client went away", "id", req.ID)
			return
		}
	}
}

func (h *ChatHandler) writeFrame(w io.Writer, rc *http.ResponseController, frame models.ChatFrame) bool {
	data, err := json.Marshal(frame)
	if err != nil {
		h.logger.Error("Failed to encode chat frame", "error", err)
		return false
	}
	return h.writeEvent(w, rc, string(data))
}

func (h *ChatHandler) writeEvent(w io.Writer, rc *http.ResponseController, payload string) bool {
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return false
	}
	if err := rc.Flush(); err != nil {
		h.logger.Warn("Failed to flush chat frame", "error", err)
		return false
	}
	return true
}
