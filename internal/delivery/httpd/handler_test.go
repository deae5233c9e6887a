package httpd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RubachokBoss/grading-assistant/internal/command"
	"github.com/RubachokBoss/grading-assistant/internal/models"
	"github.com/RubachokBoss/grading-assistant/internal/repository"
	"github.com/RubachokBoss/grading-assistant/internal/service"
	"github.com/RubachokBoss/grading-assistant/internal/service/integration"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const (
	adminToken  = "admin-secret"
	memberToken = "ta-secret"
)

type stubSource struct{}

func (stubSource) ListCandidateRepos(ctx context.Context, assignmentID string) ([]models.GradeeItem, error) {
	var repos []models.GradeeItem
	for _, student := range []string{"alice", "bob", "carol", "staff"} {
		name := assignmentID + "-" + student
		repos = append(repos, models.GradeeItem{Name: name, URL: "https://github.com/course/" + name})
	}
	return repos, nil
}

func (stubSource) ReservedRepos(ctx context.Context) (mapset.Set[string], error) {
	return mapset.NewSet("lab1-staff"), nil
}

func (stubSource) ListGraders(ctx context.Context) ([]models.Grader, error) {
	return []models.Grader{{Login: "tara", URL: "https://github.com/tara"}}, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	deadlines := filepath.Join(dir, "deadlines.json")
	due := time.Now().Add(49 * time.Hour).UTC().Format(time.RFC3339)
	require.NoError(t, os.WriteFile(deadlines, []byte(`{"lab2":"`+due+`"}`), 0o644))

	ledger, err := repository.NewLedgerRepository(context.Background(),
		repository.NewFileDocumentStore(filepath.Join(dir, "grading.json")), zerolog.Nop())
	require.NoError(t, err)

	grading := service.NewGradingService(ledger, stubSource{}, nil, 5, zerolog.Nop())
	deadlineService := service.NewDeadlineService(integration.NewFileDeadlineSource(deadlines), zerolog.Nop())
	dispatcher := command.NewDispatcher(grading, deadlineService, command.Options{
		Organization:   "course-org",
		DefaultGraders: 2,
		MaxGraders:     5,
		MaxMessageSize: 1900,
	}, zerolog.Nop())

	handler := NewHandler(grading, deadlineService, dispatcher,
		command.NewTokenAuthorizer([]string{adminToken}, []string{memberToken}), 2, zerolog.Nop())

	router := chi.NewRouter()
	handler.RegisterRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func do(t *testing.T, server *httptest.Server, method, path, token, body string) (int, envelope) {
	t.Helper()

	req, err := http.NewRequest(method, server.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return resp.StatusCode, env
}

func TestHealthCheck(t *testing.T) {
	server := newTestServer(t)

	resp, err := server.Client().Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestGradingEndpoints(t *testing.T) {
	server := newTestServer(t)

	t.Run("requires member token", func(t *testing.T) {
		status, env := do(t, server, http.MethodGet, "/api/v1/gradings", "", "")
		require.Equal(t, http.StatusForbidden, status)
		require.Equal(t, "Forbidden", env.Error)

		status, _ = do(t, server, http.MethodGet, "/api/v1/gradings", "wrong", "")
		require.Equal(t, http.StatusForbidden, status)
	})

	t.Run("roll is idempotent", func(t *testing.T) {
		status, env := do(t, server, http.MethodPost, "/api/v1/gradings/lab1/roll", memberToken, `{"graders":2}`)
		require.Equal(t, http.StatusOK, status)

		var first models.RollResult
		require.NoError(t, json.Unmarshal(env.Data, &first))
		require.False(t, first.Cached)
		require.Equal(t, []int{2, 1}, first.Entry.Partition.Sizes())

		status, env = do(t, server, http.MethodPost, "/api/v1/gradings/lab1/roll", adminToken, `{"graders":3}`)
		require.Equal(t, http.StatusOK, status)

		var second models.RollResult
		require.NoError(t, json.Unmarshal(env.Data, &second))
		require.True(t, second.Cached)
		require.Equal(t, first.Entry.RollID, second.Entry.RollID)
		require.Equal(t, first.Entry.Partition, second.Entry.Partition)
	})

	t.Run("empty body uses default graders", func(t *testing.T) {
		status, env := do(t, server, http.MethodPost, "/api/v1/gradings/lab3/roll", memberToken, "")
		require.Equal(t, http.StatusOK, status)

		var result models.RollResult
		require.NoError(t, json.Unmarshal(env.Data, &result))
		require.Equal(t, 2, result.Entry.GraderCount)
	})

	t.Run("invalid grader count", func(t *testing.T) {
		for _, body := range []string{`{"graders":-1}`, `{"graders":0}`, `{"graders":6}`} {
			status, env := do(t, server, http.MethodPost, "/api/v1/gradings/lab4/roll", memberToken, body)
			require.Equal(t, http.StatusBadRequest, status, body)
			require.Contains(t, env.Message, "grader count", body)
		}

		status, _ := do(t, server, http.MethodGet, "/api/v1/gradings/lab4", memberToken, "")
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("list get and undo", func(t *testing.T) {
		status, env := do(t, server, http.MethodGet, "/api/v1/gradings", memberToken, "")
		require.Equal(t, http.StatusOK, status)
		require.JSONEq(t, `{"assignments":["lab1","lab3"]}`, string(env.Data))

		status, _ = do(t, server, http.MethodGet, "/api/v1/gradings/lab1", memberToken, "")
		require.Equal(t, http.StatusOK, status)

		status, _ = do(t, server, http.MethodDelete, "/api/v1/gradings/lab1", memberToken, "")
		require.Equal(t, http.StatusOK, status)

		status, _ = do(t, server, http.MethodGet, "/api/v1/gradings/lab1", memberToken, "")
		require.Equal(t, http.StatusNotFound, status)

		status, _ = do(t, server, http.MethodDelete, "/api/v1/gradings", memberToken, "")
		require.Equal(t, http.StatusOK, status)

		_, env = do(t, server, http.MethodGet, "/api/v1/gradings", memberToken, "")
		require.JSONEq(t, `{"assignments":[]}`, string(env.Data))
	})
}

func TestCommandEndpoint(t *testing.T) {
	server := newTestServer(t)

	t.Run("public command", func(t *testing.T) {
		status, env := do(t, server, http.MethodPost, "/api/v1/commands", "", `{"text":"next_deadline"}`)
		require.Equal(t, http.StatusOK, status)

		var data struct {
			Messages []string `json:"messages"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &data))
		require.Len(t, data.Messages, 1)
		require.Contains(t, data.Messages[0], "lab2 is due [")
		require.Contains(t, data.Messages[0], "in 2d 0h ")
	})

	t.Run("member command without token", func(t *testing.T) {
		status, _ := do(t, server, http.MethodPost, "/api/v1/commands", "", `{"text":"roll lab1"}`)
		require.Equal(t, http.StatusForbidden, status)
	})

	t.Run("member command", func(t *testing.T) {
		status, env := do(t, server, http.MethodPost, "/api/v1/commands", memberToken, `{"text":"roll lab1 3"}`)
		require.Equal(t, http.StatusOK, status)
		require.Contains(t, string(env.Data), "Grading list for `lab1`")
	})

	t.Run("bad body", func(t *testing.T) {
		status, _ := do(t, server, http.MethodPost, "/api/v1/commands", "", `{`)
		require.Equal(t, http.StatusBadRequest, status)
	})
}

func TestNextDeadlineEndpoint(t *testing.T) {
	server := newTestServer(t)

	status, env := do(t, server, http.MethodGet, "/api/v1/deadlines/next", "", "")
	require.Equal(t, http.StatusOK, status)

	var data struct {
		Deadline *models.UpcomingDeadline `json:"deadline"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotNil(t, data.Deadline)
	require.Equal(t, "lab2", data.Deadline.Deadline.Name)
	require.Equal(t, 2, data.Deadline.Remaining.Days)
}
