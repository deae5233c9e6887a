package integration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/RubachokBoss/grading-assistant/internal/config"
	"github.com/RubachokBoss/grading-assistant/internal/models"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog"
)

type GitHubClient interface {
	RepositorySource
	DeadlineSource
}

type githubClient struct {
	baseURL      string
	token        string
	organization string
	taTeam       string
	taRepo       string
	deadlineFile string
	perPage      int
	retryCount   int
	retryDelay   time.Duration
	client       *http.Client
	logger       zerolog.Logger
}

type githubRepo struct {
	Name       string `json:"name"`
	HTMLURL    string `json:"html_url"`
	IsTemplate bool   `json:"is_template"`
}

type githubUser struct {
	Login   string `json:"login"`
	HTMLURL string `json:"html_url"`
}

var errNotFound = errors.New("not found")

func NewGitHubClient(cfg config.GitHubConfig, logger zerolog.Logger) GitHubClient {
	perPage := cfg.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}

	return &githubClient{
		baseURL:      strings.TrimRight(cfg.APIURL, "/"),
		token:        cfg.Token,
		organization: cfg.Organization,
		taTeam:       cfg.TATeam,
		taRepo:       cfg.TARepo,
		deadlineFile: cfg.DeadlineFile,
		perPage:      perPage,
		retryCount:   cfg.RetryCount,
		retryDelay:   cfg.RetryDelay,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

func (c *githubClient) ListCandidateRepos(ctx context.Context, assignmentID string) ([]models.GradeeItem, error) {
	repos, err := listPages[githubRepo](ctx, c, fmt.Sprintf("/orgs/%s/repos", url.PathEscape(c.organization)))
	if err != nil {
		return nil, fmt.Errorf("failed to list organization repositories: %w", err)
	}

	var items []models.GradeeItem
	templates := 0
	for _, repo := range repos {
		if !strings.Contains(repo.Name, assignmentID) {
			continue
		}
		// starter repositories students are generated from
		if repo.IsTemplate {
			templates++
			continue
		}
		items = append(items, models.GradeeItem{Name: repo.Name, URL: repo.HTMLURL})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Name < items[j].Name })

	c.logger.Debug().
		Str("assignment", assignmentID).
		Int("organization_repos", len(repos)).
		Int("candidates", len(items)).
		Int("templates", templates).
		Msg("Listed candidate repositories")

	return items, nil
}

func (c *githubClient) ReservedRepos(ctx context.Context) (mapset.Set[string], error) {
	repos, err := listPages[githubRepo](ctx, c, c.teamPath("repos"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s team repositories: %w", c.taTeam, err)
	}

	reserved := mapset.NewSetWithSize[string](len(repos))
	for _, repo := range repos {
		reserved.Add(repo.Name)
	}
	return reserved, nil
}

func (c *githubClient) ListGraders(ctx context.Context) ([]models.Grader, error) {
	members, err := listPages[githubUser](ctx, c, c.teamPath("members"))
	if err != nil {
		return nil, fmt.Errorf("failed to list %s team members: %w", c.taTeam, err)
	}

	graders := make([]models.Grader, 0, len(members))
	for _, m := range members {
		graders = append(graders, models.Grader{Login: m.Login, URL: m.HTMLURL})
	}
	sort.Slice(graders, func(i, j int) bool { return graders[i].Login < graders[j].Login })

	return graders, nil
}

func (c *githubClient) LoadSchedule(ctx context.Context) (models.Schedule, error) {
	path := fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(c.organization), url.PathEscape(c.taRepo), escapeFilePath(c.deadlineFile))

	body, err := c.get(ctx, path, "application/vnd.github.raw+json")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s from %s: %w", c.deadlineFile, c.taRepo, err)
	}

	schedule, err := ParseSchedule(c.deadlineFile, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	return schedule, nil
}

func (c *githubClient) teamPath(resource string) string {
	return fmt.Sprintf("/orgs/%s/teams/%s/%s",
		url.PathEscape(c.organization), url.PathEscape(teamSlug(c.taTeam)), resource)
}

// teamSlug follows GitHub's slug rules closely enough for staff team names.
func teamSlug(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "-")
}

func escapeFilePath(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func listPages[T any](ctx context.Context, c *githubClient, path string) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		query := url.Values{}
		query.Set("per_page", fmt.Sprint(c.perPage))
		query.Set("page", fmt.Sprint(page))

		body, err := c.get(ctx, path+"?"+query.Encode(), "application/vnd.github+json")
		if err != nil {
			return nil, err
		}

		var batch []T
		if err := json.Unmarshal(body, &batch); err != nil {
			return nil, fmt.Errorf("%w: failed to decode %s: %v", models.ErrSourceUnavailable, path, err)
		}
		all = append(all, batch...)

		if len(batch) < c.perPage {
			return all, nil
		}
	}
}

// get performs a GET with linear back-off between attempts. Client errors
// other than rate limiting are not retried.
func (c *githubClient) get(ctx context.Context, path, accept string) ([]byte, error) {
	var lastErr error

	for i := 0; i <= c.retryCount; i++ {
		if i > 0 {
			c.logger.Warn().Int("attempt", i).Str("path", path).Msg("Retrying GitHub request")
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, ctx.Err())
			case <-time.After(c.retryDelay * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", accept)
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			return body, nil
		case resp.StatusCode == http.StatusNotFound:
			return nil, fmt.Errorf("%w: %s %w", models.ErrSourceUnavailable, path, errNotFound)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("github returned status %d: %s", resp.StatusCode, truncate(string(body), 200))
		default:
			return nil, fmt.Errorf("%w: github returned status %d: %s",
				models.ErrSourceUnavailable, resp.StatusCode, truncate(string(body), 200))
		}
	}

	return nil, fmt.Errorf("%w: failed after %d attempts: %v", models.ErrSourceUnavailable, c.retryCount+1, lastErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
