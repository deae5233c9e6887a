package models

import (
	"time"
)

// GradeeItem is a student repository handed out for grading.
type GradeeItem struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

type Grader struct {
	Login string `json:"login"`
	URL   string `json:"url"`
}

// Partition holds one ordered list of repositories per grader index.
type Partition [][]GradeeItem

func (p Partition) Sizes() []int {
	sizes := make([]int, len(p))
	for i, items := range p {
		sizes[i] = len(items)
	}
	return sizes
}

// Clone returns a deep copy. Empty grader lists stay non-nil.
func (p Partition) Clone() Partition {
	if p == nil {
		return nil
	}
	out := make(Partition, len(p))
	for i, items := range p {
		out[i] = append(make([]GradeeItem, 0, len(items)), items...)
	}
	return out
}

func (p Partition) TotalItems() int {
	total := 0
	for _, items := range p {
		total += len(items)
	}
	return total
}

type LedgerEntry struct {
	AssignmentID string    `json:"assignment_id"`
	RollID       string    `json:"roll_id"`
	GraderCount  int       `json:"grader_count"`
	Partition    Partition `json:"partition"`
	RolledAt     time.Time `json:"rolled_at"`
}

func (e *LedgerEntry) Clone() *LedgerEntry {
	if e == nil {
		return nil
	}
	out := *e
	out.Partition = e.Partition.Clone()
	return &out
}

type RollResult struct {
	Entry *LedgerEntry `json:"entry"`
	// Cached is set when the entry came from the ledger instead of a fresh roll.
	Cached bool `json:"cached"`
	// NoCandidates is set on a fresh roll that found nothing to distribute.
	NoCandidates bool `json:"no_candidates"`
}
