package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/RubachokBoss/grading-assistant/internal/models"
	"github.com/rs/zerolog"
)

// ErrDocumentNotFound is returned by a DocumentStore that has never been written.
var ErrDocumentNotFound = errors.New("ledger document not found")

// DocumentStore persists the whole ledger as one serialized document.
// Save must replace the previous document atomically: a reader sees either the
// old document or the new one, never a partial write.
type DocumentStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, document []byte) error
	Describe() string
}

type LedgerRepository interface {
	// Get and Put copy entries, so callers never share memory with the ledger.
	Get(ctx context.Context, assignmentID string) (*models.LedgerEntry, bool)
	Put(ctx context.Context, entry *models.LedgerEntry) error
	Remove(ctx context.Context, assignmentID string) error
	Clear(ctx context.Context) error
	Keys(ctx context.Context) []string
}

// ledgerRepository keeps the ledger in memory and rewrites the whole document
// on every mutation. It assumes a single writer process: two processes sharing
// one document will overwrite each other's entries.
type ledgerRepository struct {
	mu      sync.RWMutex
	store   DocumentStore
	entries map[string]*models.LedgerEntry
	logger  zerolog.Logger
}

// NewLedgerRepository loads the ledger document once. A missing document is an
// empty ledger; any other load or decode failure is returned as ErrLedgerIO.
func NewLedgerRepository(ctx context.Context, store DocumentStore, logger zerolog.Logger) (LedgerRepository, error) {
	r := &ledgerRepository{
		store:   store,
		entries: make(map[string]*models.LedgerEntry),
		logger:  logger,
	}

	document, err := store.Load(ctx)
	switch {
	case errors.Is(err, ErrDocumentNotFound):
		logger.Info().Str("store", store.Describe()).Msg("No grading ledger found, starting empty")
		return r, nil
	case err != nil:
		return nil, fmt.Errorf("%w: failed to load %s: %v", models.ErrLedgerIO, store.Describe(), err)
	}

	if len(document) > 0 {
		if err := json.Unmarshal(document, &r.entries); err != nil {
			return nil, fmt.Errorf("%w: failed to decode %s: %v", models.ErrLedgerIO, store.Describe(), err)
		}
	}
	if r.entries == nil {
		r.entries = make(map[string]*models.LedgerEntry)
	}

	logger.Info().
		Str("store", store.Describe()).
		Int("entries", len(r.entries)).
		Msg("Grading ledger loaded")

	return r, nil
}

func (r *ledgerRepository) Get(ctx context.Context, assignmentID string) (*models.LedgerEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.entries[assignmentID]
	if !ok {
		return nil, false
	}
	return entry.Clone(), true
}

func (r *ledgerRepository) Put(ctx context.Context, entry *models.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.copyEntries()
	next[entry.AssignmentID] = entry.Clone()
	return r.flush(ctx, next)
}

func (r *ledgerRepository) Remove(ctx context.Context, assignmentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[assignmentID]; !ok {
		return nil
	}

	next := r.copyEntries()
	delete(next, assignmentID)
	return r.flush(ctx, next)
}

func (r *ledgerRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.flush(ctx, make(map[string]*models.LedgerEntry))
}

func (r *ledgerRepository) Keys(ctx context.Context) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.entries))
	for key := range r.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func (r *ledgerRepository) copyEntries() map[string]*models.LedgerEntry {
	next := make(map[string]*models.LedgerEntry, len(r.entries)+1)
	for key, entry := range r.entries {
		next[key] = entry
	}
	return next
}

// flush writes next and only then makes it the live state, so a failed write
// leaves both the document and memory unchanged.
func (r *ledgerRepository) flush(ctx context.Context, next map[string]*models.LedgerEntry) error {
	document, err := json.MarshalIndent(next, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: failed to encode ledger: %v", models.ErrLedgerIO, err)
	}

	if err := r.store.Save(ctx, document); err != nil {
		r.logger.Error().Err(err).Str("store", r.store.Describe()).Msg("Failed to write grading ledger")
		return fmt.Errorf("%w: failed to write %s: %v", models.ErrLedgerIO, r.store.Describe(), err)
	}

	r.entries = next
	return nil
}
