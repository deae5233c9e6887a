package httpd

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
)

type rollRequest struct {
	Graders *int `json:"graders"`
}

func (h *Handler) ListGradings(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, map[string]interface{}{
		"assignments": h.gradingService.ListRolled(r.Context()),
	})
}

func (h *Handler) GetGrading(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignment")

	entry, ok := h.gradingService.GetRoll(r.Context(), assignmentID)
	if !ok {
		writeError(w, http.StatusNotFound, "Grading list not found")
		return
	}

	writeSuccess(w, entry)
}

// RollGrading uses the default grader count when the body or its graders
// field is absent. An explicit count is passed through as given.
func (h *Handler) RollGrading(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignment")

	var req rollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	graders := h.defaultGraders
	if req.Graders != nil {
		graders = *req.Graders
	}

	result, err := h.gradingService.RollAssignment(r.Context(), assignmentID, graders)
	if err != nil {
		h.handleServiceError(w, err, "Failed to roll grading list")
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) UndoGrading(w http.ResponseWriter, r *http.Request) {
	assignmentID := chi.URLParam(r, "assignment")

	if err := h.gradingService.UndoOne(r.Context(), assignmentID); err != nil {
		h.handleServiceError(w, err, "Failed to remove grading list")
		return
	}

	writeSuccess(w, map[string]interface{}{"assignment": assignmentID})
}

func (h *Handler) UndoAllGradings(w http.ResponseWriter, r *http.Request) {
	if err := h.gradingService.UndoAll(r.Context()); err != nil {
		h.handleServiceError(w, err, "Failed to remove grading lists")
		return
	}

	writeSuccess(w, map[string]interface{}{"assignments": []string{}})
}
