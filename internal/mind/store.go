package mind

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vigogots-alt/bigbadbotsbot/datastore"
)

// Snapshot file names under the data directory.
const (
	memoryFile   = "user_memory.json"
	longTermFile = "long_term.json"
)

// GenDefaults are the global generation parameters, overridden per user
// by tuning state.
type GenDefaults struct {
	Temperature     float64
	TopP            float64
	MaxOutputTokens int
}

// User is a guaranteed-initialized handle for one user's records. All
// mutations and read-composes go through its mutex: the request path,
// the proactive agent and flush snapshots serialize on it.
type User struct {
	mu       sync.Mutex
	ID       string
	Profile  *UserProfile
	LongTerm *LongTermRecord

	log      zerolog.Logger
	defaults GenDefaults
}

// Store owns the per-user records and their persistence. State is
// partitioned by user id; cross-user operations need no coordination.
type Store struct {
	mu    sync.RWMutex
	users map[string]*User

	memory   *datastore.DataStore
	longterm *datastore.DataStore

	log      zerolog.Logger
	defaults GenDefaults
}

// Options configures Open.
type Options struct {
	DataDir          string
	AutoSaveInterval time.Duration
	Logger           zerolog.Logger
	Defaults         GenDefaults
}

// Open loads both snapshot documents wholesale and returns a ready
// store.
func Open(opts Options) (*Store, error) {
	log := opts.Logger.With().Str("comp", "mind").Logger()

	memory, err := openDocument(filepath.Join(opts.DataDir, memoryFile), opts)
	if err != nil {
		return nil, fmt.Errorf("open profile store: %w", err)
	}
	longterm, err := openDocument(filepath.Join(opts.DataDir, longTermFile), opts)
	if err != nil {
		memory.Close()
		return nil, fmt.Errorf("open long-term store: %w", err)
	}

	s := &Store{
		users:    make(map[string]*User),
		memory:   memory,
		longterm: longterm,
		log:      log,
		defaults: opts.Defaults,
	}
	if err := s.loadAll(); err != nil {
		memory.Close()
		longterm.Close()
		return nil, err
	}
	log.Info().Int("users", len(s.users)).Msg("state loaded")
	return s, nil
}

func openDocument(path string, opts Options) (*datastore.DataStore, error) {
	cfg := datastore.DefaultConfig(path)
	cfg.Logger = opts.Logger
	if opts.AutoSaveInterval > 0 {
		cfg.AutoSaveInterval = opts.AutoSaveInterval
	}
	return datastore.NewWithConfig(cfg)
}

func (s *Store) loadAll() error {
	for _, id := range s.memory.Keys() {
		u := s.ensureUser(id)
		if raw, ok := s.memory.Get(id); ok {
			if err := decodeRecord(raw, u.Profile); err != nil {
				s.log.Warn().Err(err).Str("user", id).Msg("skipping corrupt profile record")
			}
		}
	}
	for _, id := range s.longterm.Keys() {
		u := s.ensureUser(id)
		if raw, ok := s.longterm.Get(id); ok {
			if err := decodeRecord(raw, u.LongTerm); err != nil {
				s.log.Warn().Err(err).Str("user", id).Msg("skipping corrupt long-term record")
			}
		}
	}
	// Reloaded records may predate newer fields.
	for _, u := range s.users {
		normalizeProfile(u.Profile, u.ID)
		normalizeLongTerm(u.LongTerm, u.ID)
	}
	return nil
}

// decodeRecord converts the datastore's generic value back into a typed
// record via a JSON round trip.
func decodeRecord(raw any, dst any) error {
	data, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("marshal raw record: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	return nil
}

func normalizeProfile(p *UserProfile, id string) {
	p.UserID = id
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if p.BehaviorScenarios == nil {
		p.BehaviorScenarios = defaultScenarios()
	}
	for name, def := range defaultScenarios() {
		if _, ok := p.BehaviorScenarios[name]; !ok {
			p.BehaviorScenarios[name] = def
		}
	}
}

func normalizeLongTerm(lt *LongTermRecord, id string) {
	lt.UserID = id
	if lt.GoalCounts == nil {
		lt.GoalCounts = map[string]int{}
	}
	if lt.HabitCounts == nil {
		lt.HabitCounts = map[string]int{}
	}
	if lt.MonthlyThemeCounts == nil {
		lt.MonthlyThemeCounts = map[string]int{}
	}
	if lt.PersonalityScores == nil {
		lt.PersonalityScores = map[string]float64{}
	}
	if lt.EmotionMatrix == nil {
		lt.EmotionMatrix = newLongTerm(id).EmotionMatrix
	}
	if lt.ProactiveMarks == nil {
		lt.ProactiveMarks = map[string]time.Time{}
	}
}

func (s *Store) ensureUser(id string) *User {
	if u, ok := s.users[id]; ok {
		return u
	}
	u := &User{
		ID:       id,
		Profile:  newProfile(id, time.Now().UTC()),
		LongTerm: newLongTerm(id),
		log:      s.log.With().Str("user", id).Logger(),
		defaults: s.defaults,
	}
	s.users[id] = u
	return u
}

// GetOrCreate returns the handle for id, initializing fresh records on
// first contact. Callers acquire it once per request.
func (s *Store) GetOrCreate(id string) *User {
	s.mu.RLock()
	u, ok := s.users[id]
	s.mu.RUnlock()
	if ok {
		return u
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureUser(id)
}

// Users returns the ids of all known users.
func (s *Store) Users() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	return ids
}

// Flush writes consistent per-user snapshots into both documents and
// forces them to disk. In-memory state stays authoritative if a write
// fails.
func (s *Store) Flush() error {
	s.mu.RLock()
	users := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, u)
	}
	s.mu.RUnlock()

	// Snapshots are taken under each user's lock so the datastore never
	// sees a half-applied mutation, and stored as immutable raw JSON.
	for _, u := range users {
		u.mu.Lock()
		profile, perr := json.Marshal(u.Profile)
		longterm, lerr := json.Marshal(u.LongTerm)
		u.mu.Unlock()
		if perr != nil || lerr != nil {
			s.log.Error().Str("user", u.ID).AnErr("profile", perr).AnErr("long_term", lerr).Msg("snapshot marshal failed")
			continue
		}
		s.memory.Add(u.ID, json.RawMessage(profile))
		s.longterm.Add(u.ID, json.RawMessage(longterm))
	}

	if err := s.memory.SaveToFile(); err != nil {
		return fmt.Errorf("flush profile store: %w", err)
	}
	if err := s.longterm.SaveToFile(); err != nil {
		return fmt.Errorf("flush long-term store: %w", err)
	}
	return nil
}

// Close flushes and releases both documents.
func (s *Store) Close() error {
	if err := s.Flush(); err != nil {
		s.log.Error().Err(err).Msg("final flush failed")
	}
	if err := s.memory.Close(); err != nil {
		return err
	}
	return s.longterm.Close()
}
