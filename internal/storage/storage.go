package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("storage: not found")

// Storage keys
const (
	keyPreferences    = "preferences"
	keyStats          = "stats"
	keyAnalysisPrefix = "analysis/"
)

// Preferences stores engine settings between sessions.
type Preferences struct {
	Depth          int       `json:"depth"`
	StrictLegality bool      `json:"strict_legality"`
	LastUsed       time.Time `json:"last_used"`
}

// DefaultPreferences returns default engine preferences
func DefaultPreferences() *Preferences {
	return &Preferences{
		Depth: 4,
	}
}

// AnalysisRecord is one finished search. Records are a log for the user;
// the engine never reads them back to choose moves.
type AnalysisRecord struct {
	Key      uint64        `json:"key"` // Zobrist key of the searched position
	FEN      string        `json:"fen"`
	Depth    int           `json:"depth"`
	Move     string        `json:"move"`
	Score    int           `json:"score"`
	Nodes    uint64        `json:"nodes"`
	Elapsed  time.Duration `json:"elapsed"`
	Recorded time.Time     `json:"recorded"`
}

// GameStats stores self-play results.
type GameStats struct {
	GamesPlayed   int           `json:"games_played"`
	WhiteWins     int           `json:"white_wins"`
	BlackWins     int           `json:"black_wins"`
	Draws         int           `json:"draws"`
	TotalPlies    int           `json:"total_plies"`
	TotalPlayTime time.Duration `json:"total_play_time"`
}

// GameResult represents the result of a completed self-play game.
type GameResult struct {
	WhiteWon bool
	BlackWon bool
	Plies    int
	Duration time.Duration
}

// Storage wraps BadgerDB for persistent storage
type Storage struct {
	db *badger.DB
}

// Open opens (creating if needed) the database in dir. An empty dir uses
// GetDatabaseDir.
func Open(dir string) (*Storage, error) {
	if dir == "" {
		var err error
		dir, err = GetDatabaseDir()
		if err != nil {
			return nil, fmt.Errorf("storage: data dir: %w", err)
		}
	}

	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // Disable logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", dir, err)
	}

	return &Storage{db: db}, nil
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Storage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open in-memory: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Storage) putJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// getJSON decodes the value at key into v, returning ErrNotFound when the
// key is absent.
func (s *Storage) getJSON(key string, v any) error {
	return s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, v)
		})
	})
}

// SavePreferences saves engine preferences
func (s *Storage) SavePreferences(prefs *Preferences) error {
	prefs.LastUsed = time.Now()
	return s.putJSON(keyPreferences, prefs)
}

// LoadPreferences loads engine preferences, returns defaults if not found
func (s *Storage) LoadPreferences() (*Preferences, error) {
	prefs := DefaultPreferences()
	err := s.getJSON(keyPreferences, prefs)
	if errors.Is(err, ErrNotFound) {
		return prefs, nil
	}
	return prefs, err
}

// analysisKey orders records of one position by depth under a shared prefix.
func analysisKey(key uint64, depth int) []byte {
	return []byte(fmt.Sprintf("%s%016x/%03d", keyAnalysisPrefix, key, depth))
}

func analysisPrefix(key uint64) []byte {
	return []byte(fmt.Sprintf("%s%016x/", keyAnalysisPrefix, key))
}

// RecordAnalysis stores a finished search, replacing any earlier record for
// the same position and depth.
func (s *Storage) RecordAnalysis(rec AnalysisRecord) error {
	if rec.Recorded.IsZero() {
		rec.Recorded = time.Now()
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(analysisKey(rec.Key, rec.Depth), data)
	})
}

// LoadAnalysis returns the record for a position at one depth.
func (s *Storage) LoadAnalysis(key uint64, depth int) (*AnalysisRecord, error) {
	var rec AnalysisRecord
	if err := s.getJSON(string(analysisKey(key, depth)), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListAnalyses returns every record of a position, shallowest first.
func (s *Storage) ListAnalyses(key uint64) ([]AnalysisRecord, error) {
	var out []AnalysisRecord
	prefix := analysisPrefix(key)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec AnalysisRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			out = append(out, rec)
		}
		return nil
	})

	return out, err
}

// SaveStats saves self-play statistics
func (s *Storage) SaveStats(stats *GameStats) error {
	return s.putJSON(keyStats, stats)
}

// LoadStats loads self-play statistics, returns empty stats if not found
func (s *Storage) LoadStats() (*GameStats, error) {
	stats := &GameStats{}
	err := s.getJSON(keyStats, stats)
	if errors.Is(err, ErrNotFound) {
		return stats, nil
	}
	return stats, err
}

// RecordGame records a completed game and updates statistics
func (s *Storage) RecordGame(result GameResult) error {
	stats, err := s.LoadStats()
	if err != nil {
		return err
	}

	stats.GamesPlayed++
	stats.TotalPlies += result.Plies
	stats.TotalPlayTime += result.Duration

	switch {
	case result.WhiteWon:
		stats.WhiteWins++
	case result.BlackWon:
		stats.BlackWins++
	default:
		stats.Draws++
	}

	return s.SaveStats(stats)
}

// AveragePlies returns the mean game length.
func (s *GameStats) AveragePlies() float64 {
	if s.GamesPlayed == 0 {
		return 0
	}
	return float64(s.TotalPlies) / float64(s.GamesPlayed)
}
