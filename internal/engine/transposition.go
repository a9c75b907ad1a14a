package engine

import (
	"github.com/hailam/negachess/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// ttKey is a position together with the remaining depth it was searched to.
type ttKey struct {
	pos   board.Key
	depth int
}

// TTEntry represents an entry in the transposition table.
type TTEntry struct {
	BestMove board.Move
	Score    int
	Flag     TTFlag
}

// TranspositionTable memoizes search results for one search invocation.
// The key is the exact piece placement, so there are no collisions; it does
// not capture game history, so a table must not outlive the search that
// filled it. Not safe for concurrent use: each worker owns one.
type TranspositionTable struct {
	entries map[ttKey]TTEntry

	// Statistics
	hits   uint64
	probes uint64
}

// NewTranspositionTable creates an empty table.
func NewTranspositionTable() *TranspositionTable {
	return &TranspositionTable{
		entries: make(map[ttKey]TTEntry),
	}
}

// Probe looks up a position searched to the given depth.
func (tt *TranspositionTable) Probe(key board.Key, depth int) (TTEntry, bool) {
	tt.probes++
	entry, ok := tt.entries[ttKey{key, depth}]
	if ok {
		tt.hits++
	}
	return entry, ok
}

// Store saves a result, replacing any previous entry for the same key.
func (tt *TranspositionTable) Store(key board.Key, depth int, score int, flag TTFlag, bestMove board.Move) {
	tt.entries[ttKey{key, depth}] = TTEntry{
		BestMove: bestMove,
		Score:    score,
		Flag:     flag,
	}
}

// Clear clears the transposition table.
func (tt *TranspositionTable) Clear() {
	clear(tt.entries)
	tt.hits = 0
	tt.probes = 0
}

// Len returns the number of stored entries.
func (tt *TranspositionTable) Len() int {
	return len(tt.entries)
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}
