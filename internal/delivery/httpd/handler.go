package httpd

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/RubachokBoss/grading-assistant/internal/command"
	"github.com/RubachokBoss/grading-assistant/internal/models"
	"github.com/RubachokBoss/grading-assistant/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type Handler struct {
	gradingService  service.GradingService
	deadlineService service.DeadlineService
	dispatcher      command.Dispatcher
	authorizer      *command.TokenAuthorizer
	defaultGraders  int
	logger          zerolog.Logger
}

func NewHandler(
	gradingService service.GradingService,
	deadlineService service.DeadlineService,
	dispatcher command.Dispatcher,
	authorizer *command.TokenAuthorizer,
	defaultGraders int,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		gradingService:  gradingService,
		deadlineService: deadlineService,
		dispatcher:      dispatcher,
		authorizer:      authorizer,
		defaultGraders:  defaultGraders,
		logger:          logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Post("/commands", h.ExecuteCommand)
		api.Get("/deadlines/next", h.GetNextDeadline)

		api.Route("/gradings", func(r chi.Router) {
			r.Use(h.requirePermission(command.Member))

			r.Get("/", h.ListGradings)
			r.Delete("/", h.UndoAllGradings)
			r.Get("/{assignment}", h.GetGrading)
			r.Post("/{assignment}/roll", h.RollGrading)
			r.Delete("/{assignment}", h.UndoGrading)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "grading-assistant",
		"timestamp": time.Now().UTC(),
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) permission(r *http.Request) command.Permission {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return command.Everyone
	}
	return h.authorizer.Permission(token)
}

func (h *Handler) requirePermission(min command.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if h.permission(r) < min {
				writeError(w, http.StatusForbidden, "insufficient permission")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// handleServiceError maps domain errors to HTTP statuses.
func (h *Handler) handleServiceError(w http.ResponseWriter, err error, msg string) {
	switch {
	case errors.Is(err, models.ErrAssignmentRequired), errors.Is(err, models.ErrInvalidGraderCount):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, models.ErrSourceUnavailable):
		h.logger.Error().Err(err).Msg(msg)
		writeError(w, http.StatusBadGateway, msg)
	default:
		h.logger.Error().Err(err).Msg(msg)
		writeError(w, http.StatusInternalServerError, msg)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, http.StatusOK, response)
}
