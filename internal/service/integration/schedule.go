package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RubachokBoss/grading-assistant/internal/models"
	"github.com/pelletier/go-toml/v2"
)

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04Z07:00",
}

// ParseSchedule decodes a deadline document. The format follows the file
// extension: ".toml" for TOML, anything else is read as a JSON object of
// assignment name to timestamp. Every timestamp must carry a UTC offset.
func ParseSchedule(name string, data []byte) (models.Schedule, error) {
	var raw map[string]any

	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse TOML schedule %s: %w", name, err)
		}
	default:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON schedule %s: %w", name, err)
		}
	}

	schedule := make(models.Schedule, len(raw))
	for assignment, value := range raw {
		due, err := parseDue(value)
		if err != nil {
			return nil, fmt.Errorf("invalid deadline for %q: %w", assignment, err)
		}
		schedule[assignment] = due
	}

	return schedule, nil
}

func parseDue(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		return parseTimestamp(v)
	case toml.LocalDateTime, toml.LocalDate:
		return time.Time{}, fmt.Errorf("timestamp %v has no UTC offset", v)
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp value %v (%T)", v, v)
	}
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("timestamp %q is not ISO-8601 with a UTC offset", s)
}

// FileDeadlineSource reads the schedule from a local file on every call.
type FileDeadlineSource struct {
	path string
}

func NewFileDeadlineSource(path string) *FileDeadlineSource {
	return &FileDeadlineSource{path: path}
}

func (s *FileDeadlineSource) LoadSchedule(ctx context.Context) (models.Schedule, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", models.ErrSourceUnavailable, s.path, err)
	}

	schedule, err := ParseSchedule(s.path, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	return schedule, nil
}
