package sim

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	"github.com/paperoll/backend/internal/config"
)

// SessionManager owns all live simulation sessions. Sessions evicted from
// memory (restart, janitor) are rehydrated from their Redis snapshot on the
// next lookup, so a reconnecting client resumes with its roll where it was.
type SessionManager struct {
	sessions map[string]*Session // keyed by session ID
	db       *sqlx.DB
	rdb      *redis.Client
	config   *config.Config
	mu       sync.RWMutex
}

var (
	// Global session manager instance
	Manager *SessionManager

	ErrSessionNotFound = errors.New("session not found")
)

// InitializeManager initializes the global session manager with DB, Redis
// and config, and starts the idle-session janitor.
func InitializeManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) {
	Manager = NewSessionManager(db, rdb, cfg)
	go Manager.StartJanitor(context.Background())
}

func NewSessionManager(db *sqlx.DB, rdb *redis.Client, cfg *config.Config) *SessionManager {
	return &SessionManager{
		sessions: make(map[string]*Session),
		db:       db,
		rdb:      rdb,
		config:   cfg,
	}
}

func (sm *SessionManager) GetConfig() *config.Config {
	return sm.config
}

// generateSessionID generates a secure random session ID.
func generateSessionID() string {
	bytes := make([]byte, 12)
	rand.Read(bytes)
	return "sim_" + hex.EncodeToString(bytes)
}

// CreateSession creates and registers a new simulation session.
func (sm *SessionManager) CreateSession(preset string, rollCfg RollConfig, clothCfg ClothConfig) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s := NewSession(generateSessionID(), preset, rollCfg, clothCfg)
	sm.sessions[s.ID] = s
	log.Printf("[SIM] Session created: %s (preset=%q)", s.ID, preset)

	sm.saveSnapshot(s)
	return s
}

// GetSession returns a live session, rehydrating from Redis on a miss.
func (sm *SessionManager) GetSession(id string) (*Session, error) {
	sm.mu.RLock()
	s, ok := sm.sessions[id]
	sm.mu.RUnlock()
	if ok {
		return s, nil
	}

	snap, err := sm.loadSnapshot(id)
	if err != nil {
		return nil, ErrSessionNotFound
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	if s, ok := sm.sessions[id]; ok { // lost the race, someone else restored
		return s, nil
	}
	s = NewSession(snap.ID, snap.Preset, snap.RollConfig, snap.ClothConfig)
	s.CreatedAt = snap.CreatedAt
	s.Restore(snap)
	sm.sessions[id] = s
	log.Printf("[SIM] Session %s rehydrated from Redis (length=%.1f)", id, snap.UnrolledLength)
	return s, nil
}

// SaveSession writes the session's snapshot to Redis with the configured TTL.
func (sm *SessionManager) SaveSession(s *Session) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sm.saveSnapshot(s)
}

func (sm *SessionManager) saveSnapshot(s *Session) {
	if sm.rdb == nil {
		return
	}
	snap := s.Snapshot()
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("[SIM] Failed to marshal snapshot for %s: %v", s.ID, err)
		return
	}
	ttl := time.Duration(sm.config.SessionExpiryMinutes) * time.Minute
	ctx := context.Background()
	if err := sm.rdb.SetEx(ctx, "session:"+s.ID+":state", data, ttl).Err(); err != nil {
		log.Printf("[SIM] Failed to save snapshot for %s: %v", s.ID, err)
	}
}

func (sm *SessionManager) loadSnapshot(id string) (Snapshot, error) {
	var snap Snapshot
	if sm.rdb == nil {
		return snap, ErrSessionNotFound
	}
	ctx := context.Background()
	data, err := sm.rdb.Get(ctx, "session:"+id+":state").Bytes()
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, err
	}
	if snap.ID != id {
		return snap, ErrSessionNotFound
	}
	return snap, nil
}

// CloseSession drops a session from memory and Redis and records its final
// state in the session log.
func (sm *SessionManager) CloseSession(id string) {
	sm.mu.Lock()
	s, ok := sm.sessions[id]
	if ok {
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	if sm.rdb != nil {
		sm.rdb.Del(context.Background(), "session:"+id+":state")
	}
	if ok {
		sm.logSessionClose(s)
		log.Printf("[SIM] Session closed: %s", id)
	}
}

// logSessionClose writes usage telemetry for a finished session.
func (sm *SessionManager) logSessionClose(s *Session) {
	if sm.db == nil {
		return
	}
	snap := s.Snapshot()
	_, err := sm.db.Exec(
		`INSERT INTO session_log (session_token, preset, created_at, last_length, closed_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		snap.ID, snap.Preset, snap.CreatedAt, snap.UnrolledLength,
	)
	if err != nil {
		log.Printf("[DB] Failed to log session close for %s: %v", s.ID, err)
	}
}

// ActiveSessions returns snapshots of every in-memory session (admin view).
func (sm *SessionManager) ActiveSessions() []Snapshot {
	sm.mu.RLock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, s := range sm.sessions {
		sessions = append(sessions, s)
	}
	sm.mu.RUnlock()

	out := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.Snapshot())
	}
	return out
}

// StartJanitor periodically evicts idle sessions from memory. Their Redis
// snapshot survives until its TTL runs out, so eviction is invisible to a
// client that comes back in time.
func (sm *SessionManager) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sm.evictIdle()
		}
	}
}

func (sm *SessionManager) evictIdle() {
	maxIdle := time.Duration(sm.config.SessionExpiryMinutes) * time.Minute
	now := time.Now()

	sm.mu.Lock()
	var idle []*Session
	for id, s := range sm.sessions {
		if now.Sub(s.LastActivity()) > maxIdle {
			idle = append(idle, s)
			delete(sm.sessions, id)
		}
	}
	sm.mu.Unlock()

	for _, s := range idle {
		sm.logSessionClose(s)
		log.Printf("[SIM] Session %s evicted after %v idle", s.ID, maxIdle)
	}
}
