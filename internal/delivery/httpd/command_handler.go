package httpd

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/RubachokBoss/grading-assistant/internal/command"
	"github.com/RubachokBoss/grading-assistant/internal/models"
)

type commandRequest struct {
	Text string `json:"text"`
}

func (h *Handler) ExecuteCommand(w http.ResponseWriter, r *http.Request) {
	var req commandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	messages, err := h.dispatcher.Dispatch(r.Context(), command.Request{
		Text:       req.Text,
		Permission: h.permission(r),
	})
	if errors.Is(err, models.ErrPermissionDenied) {
		writeError(w, http.StatusForbidden, "insufficient permission")
		return
	}
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to execute command")
		writeError(w, http.StatusInternalServerError, "Failed to execute command")
		return
	}

	if messages == nil {
		messages = []string{}
	}
	writeSuccess(w, map[string]interface{}{"messages": messages})
}

func (h *Handler) GetNextDeadline(w http.ResponseWriter, r *http.Request) {
	upcoming, err := h.deadlineService.Next(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "Failed to get next deadline")
		return
	}

	writeSuccess(w, map[string]interface{}{"deadline": upcoming})
}
