package repository

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/RubachokBoss/grading-assistant/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	document []byte
	loadErr  error
	saveErr  error
	saves    int
}

func (s *memoryStore) Describe() string { return "memory" }

func (s *memoryStore) Load(ctx context.Context) ([]byte, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	if s.document == nil {
		return nil, ErrDocumentNotFound
	}
	return s.document, nil
}

func (s *memoryStore) Save(ctx context.Context, document []byte) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.document = append([]byte(nil), document...)
	return nil
}

func newEntry(id string) *models.LedgerEntry {
	return &models.LedgerEntry{
		AssignmentID: id,
		RollID:       "roll-" + id,
		GraderCount:  2,
		Partition: models.Partition{
			{{Name: id + "-alice", URL: "https://github.com/course/" + id + "-alice"}},
			{},
		},
		RolledAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestLedgerRepository_FileStore(t *testing.T) {
	ctx := context.Background()

	t.Run("missing file starts empty", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "grading.json")

		ledger, err := NewLedgerRepository(ctx, NewFileDocumentStore(path), zerolog.Nop())

		require.NoError(t, err)
		require.Empty(t, ledger.Keys(ctx))
		_, ok := ledger.Get(ctx, "lab1")
		require.False(t, ok)
	})

	t.Run("entries survive reopening", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state", "grading.json")
		ledger, err := NewLedgerRepository(ctx, NewFileDocumentStore(path), zerolog.Nop())
		require.NoError(t, err)

		require.NoError(t, ledger.Put(ctx, newEntry("lab1")))
		require.NoError(t, ledger.Put(ctx, newEntry("lab2")))

		reopened, err := NewLedgerRepository(ctx, NewFileDocumentStore(path), zerolog.Nop())
		require.NoError(t, err)
		require.Equal(t, []string{"lab1", "lab2"}, reopened.Keys(ctx))

		got, ok := reopened.Get(ctx, "lab1")
		require.True(t, ok)
		require.Equal(t, newEntry("lab1"), got)
	})

	t.Run("leaves no temp files behind", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "grading.json")
		ledger, err := NewLedgerRepository(ctx, NewFileDocumentStore(path), zerolog.Nop())
		require.NoError(t, err)

		require.NoError(t, ledger.Put(ctx, newEntry("lab1")))
		require.NoError(t, ledger.Remove(ctx, "lab1"))

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		require.Len(t, files, 1)
		require.Equal(t, "grading.json", files[0].Name())
	})

	t.Run("corrupt file is a ledger error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "grading.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

		_, err := NewLedgerRepository(ctx, NewFileDocumentStore(path), zerolog.Nop())

		require.ErrorIs(t, err, models.ErrLedgerIO)
	})
}

func TestLedgerRepository_Mutations(t *testing.T) {
	ctx := context.Background()

	t.Run("put overwrites unconditionally", func(t *testing.T) {
		ledger, err := NewLedgerRepository(ctx, &memoryStore{}, zerolog.Nop())
		require.NoError(t, err)

		require.NoError(t, ledger.Put(ctx, newEntry("lab1")))
		replacement := newEntry("lab1")
		replacement.RollID = "second"
		require.NoError(t, ledger.Put(ctx, replacement))

		got, ok := ledger.Get(ctx, "lab1")
		require.True(t, ok)
		require.Equal(t, "second", got.RollID)
	})

	t.Run("caller mutations do not reach stored entries", func(t *testing.T) {
		store := &memoryStore{}
		ledger, err := NewLedgerRepository(ctx, store, zerolog.Nop())
		require.NoError(t, err)

		entry := newEntry("lab1")
		require.NoError(t, ledger.Put(ctx, entry))
		entry.RollID = "changed"
		entry.Partition[0][0].Name = "changed"

		got, ok := ledger.Get(ctx, "lab1")
		require.True(t, ok)
		require.Equal(t, newEntry("lab1"), got)

		got.Partition[0][0].Name = "changed again"
		got.Partition[1] = append(got.Partition[1], models.GradeeItem{Name: "extra"})

		again, ok := ledger.Get(ctx, "lab1")
		require.True(t, ok)
		require.Equal(t, newEntry("lab1"), again)
		require.NotContains(t, string(store.document), "changed")
	})

	t.Run("remove of missing key is a no-op", func(t *testing.T) {
		store := &memoryStore{}
		ledger, err := NewLedgerRepository(ctx, store, zerolog.Nop())
		require.NoError(t, err)

		require.NoError(t, ledger.Remove(ctx, "nope"))
		require.NoError(t, ledger.Remove(ctx, "nope"))
		require.Equal(t, 0, store.saves)
	})

	t.Run("clear removes everything", func(t *testing.T) {
		store := &memoryStore{}
		ledger, err := NewLedgerRepository(ctx, store, zerolog.Nop())
		require.NoError(t, err)
		require.NoError(t, ledger.Put(ctx, newEntry("lab1")))
		require.NoError(t, ledger.Put(ctx, newEntry("lab2")))

		require.NoError(t, ledger.Clear(ctx))

		require.Empty(t, ledger.Keys(ctx))
		reopened, err := NewLedgerRepository(ctx, store, zerolog.Nop())
		require.NoError(t, err)
		require.Empty(t, reopened.Keys(ctx))
	})

	t.Run("failed write leaves state unchanged", func(t *testing.T) {
		store := &memoryStore{}
		ledger, err := NewLedgerRepository(ctx, store, zerolog.Nop())
		require.NoError(t, err)
		require.NoError(t, ledger.Put(ctx, newEntry("lab1")))

		store.saveErr = errors.New("disk full")

		require.ErrorIs(t, ledger.Put(ctx, newEntry("lab2")), models.ErrLedgerIO)
		require.ErrorIs(t, ledger.Remove(ctx, "lab1"), models.ErrLedgerIO)
		require.ErrorIs(t, ledger.Clear(ctx), models.ErrLedgerIO)
		require.Equal(t, []string{"lab1"}, ledger.Keys(ctx))
	})

	t.Run("load failure other than missing document is fatal", func(t *testing.T) {
		_, err := NewLedgerRepository(ctx, &memoryStore{loadErr: errors.New("permission denied")}, zerolog.Nop())

		require.ErrorIs(t, err, models.ErrLedgerIO)
	})
}
